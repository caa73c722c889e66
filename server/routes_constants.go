package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Upstream credential configuration
	RouteConfig       = "/api/config"
	RouteConfigClear  = "/api/config/clear"
	RouteConfigExtend = "/api/config/extend"

	// LLM provider configuration
	RouteLLMConfig      = "/api/llm-config"
	RouteLLMConfigClear = "/api/llm-config/clear"

	// Audit logs
	RouteAuditLogs       = "/api/audit-logs"
	RouteAuditLogsExport = "/api/audit-logs/export"

	// AI features
	RouteExecutiveSummary = "/api/executive-summary"
	RouteChat             = "/api/chat"
	RouteInsights         = "/api/insights"

	// Liveness
	RouteHealthz = "/healthz"
)

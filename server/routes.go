package server

import "net/http"

func (s *Server) initRoutes() {
	// Upstream credential configuration
	s.RegisterRouteFunc("GET "+RouteConfig, ChainMiddleware(s.GetConfigHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteConfig, ChainMiddleware(s.SetConfigHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteConfigClear, ChainMiddleware(s.ClearConfigHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteConfigExtend, ChainMiddleware(s.ExtendConfigHandler(), s.APIMiddleware()...))

	// LLM provider configuration
	s.RegisterRouteFunc("GET "+RouteLLMConfig, ChainMiddleware(s.GetLLMConfigHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteLLMConfig, ChainMiddleware(s.SetLLMConfigHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteLLMConfigClear, ChainMiddleware(s.ClearLLMConfigHandler(), s.APIMiddleware()...))

	// Audit logs
	s.RegisterRouteFunc("GET "+RouteAuditLogs, ChainMiddleware(s.AuditLogsHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAuditLogsExport, ChainMiddleware(s.AuditLogsExportHandler(), s.APIMiddleware()...))

	// AI features
	s.RegisterRouteFunc("GET "+RouteExecutiveSummary, ChainMiddleware(s.ExecutiveSummaryHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteChat, ChainMiddleware(s.ChatHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteInsights, ChainMiddleware(s.InsightsHandler(), s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteHealthz, s.HealthzHandler())
}

// HealthzHandler reports liveness.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

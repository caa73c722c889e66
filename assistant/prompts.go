package assistant

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/auditlens/auditlens/audit"
	"github.com/auditlens/auditlens/internal/utils"
)

const summarySystemPrompt = `You are a security analyst writing an executive report over audit-log activity. Be factual and specific; do not invent events that are not in the data.`

const insightsSystemPrompt = `You are a security analyst. Respond ONLY with a JSON array of strings, each a single actionable insight. No prose before or after the array.`

func summaryUserPrompt(now time.Time, stats logStats) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Produce an executive summary of security audit-log activity for %s.\n\n", now.UTC().Format("2006-01-02"))
	fmt.Fprintf(&sb, "Statistics for the last 24 hours:\n")
	fmt.Fprintf(&sb, "- Total events: %d\n", stats.total)
	fmt.Fprintf(&sb, "- Distinct users: %d\n", stats.distinctUsers)
	sb.WriteString("- Top events by frequency:\n")
	for _, ec := range stats.topEvents {
		fmt.Fprintf(&sb, "  - %s: %d\n", ec.event, ec.count)
	}
	sb.WriteString("- Full event histogram:\n")
	for event, count := range stats.histogram {
		fmt.Fprintf(&sb, "  - %s: %d\n", event, count)
	}
	sb.WriteString(`
Write a Markdown report with exactly these six sections, in this order:
## Activity Overview
## Critical Events
## Risk Analysis
## User Activity
## Recommendations
## Metrics
`)
	return sb.String()
}

func insightsUserPrompt(logs []audit.LogItem) string {
	var sb strings.Builder
	sb.WriteString("Derive insights from these audit-log records:\n\n")
	writeLogLines(&sb, logs)
	sb.WriteString("\nReturn a JSON array of insight strings.")
	return sb.String()
}

func chatSystemPrompt(logs []audit.LogItem) string {
	var sb strings.Builder
	sb.WriteString("You are an assistant answering questions about security audit logs. ")
	sb.WriteString("Respond in plain text only. Do not use Markdown formatting, bullet characters or code blocks.\n\n")
	if len(logs) == 0 {
		sb.WriteString("No audit-log records are currently loaded.")
		return sb.String()
	}
	fmt.Fprintf(&sb, "The user's current view contains %d audit-log records:\n\n", len(logs))
	writeLogLines(&sb, logs)
	return sb.String()
}

func writeLogLines(sb *strings.Builder, logs []audit.LogItem) {
	for _, item := range logs {
		fmt.Fprintf(sb, "%s %s by %s\n", item.Created.UTC().Format(time.RFC3339), item.Event, item.UserIdentifier())
	}
}

// parseInsights turns a provider response into a string slice. Code
// fences are tolerated; anything that is not a JSON array comes back as
// a single-element slice so callers never see a parse failure.
func parseInsights(text string) []string {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var parsed []any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return []string{text}
	}
	insights := utils.ToStringSlice(parsed)
	if len(insights) == 0 && len(parsed) > 0 {
		// an array of non-strings is as unusable as no array at all
		return []string{text}
	}
	return insights
}

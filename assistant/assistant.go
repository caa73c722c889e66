// Package assistant builds task-specific prompts from audit-log data and
// drives the provider router. Every operation catches adapter errors and
// returns a displayable string; nothing here ever propagates an error to
// the UI.
package assistant

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/auditlens/auditlens/audit"
	"github.com/auditlens/auditlens/llm"
	"github.com/rs/zerolog/log"
)

// NoRecentLogsMessage is returned when nothing happened in the summary
// window; no provider call is made.
const NoRecentLogsMessage = "No recent audit logs were found in the last 24 hours. There is no activity to summarize."

const (
	summaryWindow    = 24 * time.Hour
	insightsMaxLogs  = 100
	chatMaxLogs      = 50
	summaryTopEvents = 5
)

// AdapterFor resolves a provider configuration to an adapter. In
// production this is (*llm.Router).ForConfig; tests inject fakes.
type AdapterFor func(cfg *llm.Config) llm.Adapter

type Assistant struct {
	adapterFor AdapterFor
	now        func() time.Time
}

func New(adapterFor AdapterFor) *Assistant {
	return &Assistant{adapterFor: adapterFor, now: time.Now}
}

// NewWithClock is used by tests to pin the 24-hour summary window.
func NewWithClock(adapterFor AdapterFor, clock func() time.Time) *Assistant {
	return &Assistant{adapterFor: adapterFor, now: clock}
}

// ExecutiveSummary produces a Markdown report over the last 24 hours of
// audit activity. Failures come back as descriptive strings, never errors.
func (a *Assistant) ExecutiveSummary(ctx context.Context, logs []audit.LogItem, cfg *llm.Config) string {
	cutoff := a.now().Add(-summaryWindow)
	recent := make([]audit.LogItem, 0, len(logs))
	for _, item := range logs {
		if item.Created.After(cutoff) {
			recent = append(recent, item)
		}
	}
	if len(recent) == 0 {
		return NoRecentLogsMessage
	}

	stats := computeStats(recent)
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: summarySystemPrompt},
		{Role: llm.RoleUser, Content: summaryUserPrompt(a.now(), stats)},
	}

	text, err := a.adapterFor(cfg).Generate(ctx, messages, &llm.Options{Temperature: 0.3})
	if err != nil {
		log.Warn().Err(err).Msg("executive summary generation failed")
		return fmt.Sprintf("Unable to generate summary: %v", err)
	}
	return text
}

// Insights asks the backend for a JSON array of observations over the
// first insightsMaxLogs records. The caller always receives a string
// slice: unparseable responses are wrapped as a single element.
func (a *Assistant) Insights(ctx context.Context, logs []audit.LogItem, cfg *llm.Config) []string {
	if len(logs) > insightsMaxLogs {
		logs = logs[:insightsMaxLogs]
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: insightsSystemPrompt},
		{Role: llm.RoleUser, Content: insightsUserPrompt(logs)},
	}

	text, err := a.adapterFor(cfg).Generate(ctx, messages, &llm.Options{Temperature: 0.4})
	if err != nil {
		log.Warn().Err(err).Msg("insight generation failed")
		return []string{fmt.Sprintf("Unable to generate insights: %v", err)}
	}
	return parseInsights(text)
}

// ChatFallbackMessage covers the rare provider response with no usable text.
const ChatFallbackMessage = "I was unable to produce a response. Please try rephrasing your question."

// Chat answers one conversational turn with the first chatMaxLogs
// records as context. History is supplied by the caller each turn.
func (a *Assistant) Chat(ctx context.Context, userMessage string, logs []audit.LogItem, history []llm.Message, cfg *llm.Config) string {
	if len(logs) > chatMaxLogs {
		logs = logs[:chatMaxLogs]
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: chatSystemPrompt(logs)})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userMessage})

	text, err := a.adapterFor(cfg).Generate(ctx, messages, &llm.Options{Temperature: 0.5})
	if err != nil {
		log.Warn().Err(err).Msg("chat generation failed")
		return fmt.Sprintf("Sorry, something went wrong: %v", err)
	}
	if text == "" {
		return ChatFallbackMessage
	}
	return text
}

// logStats are the aggregates embedded in the summary prompt.
type logStats struct {
	total         int
	distinctUsers int
	histogram     map[string]int
	topEvents     []eventCount
}

type eventCount struct {
	event string
	count int
}

func computeStats(logs []audit.LogItem) logStats {
	histogram := make(map[string]int)
	users := make(map[string]struct{})
	for _, item := range logs {
		histogram[item.Event]++
		users[item.UserIdentifier()] = struct{}{}
	}

	top := make([]eventCount, 0, len(histogram))
	for event, count := range histogram {
		top = append(top, eventCount{event: event, count: count})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].count != top[j].count {
			return top[i].count > top[j].count
		}
		return top[i].event < top[j].event
	})
	if len(top) > summaryTopEvents {
		top = top[:summaryTopEvents]
	}

	return logStats{
		total:         len(logs),
		distinctUsers: len(users),
		histogram:     histogram,
		topEvents:     top,
	}
}

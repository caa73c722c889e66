package assistant_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/auditlens/auditlens/assistant"
	"github.com/auditlens/auditlens/audit"
	"github.com/auditlens/auditlens/llm"
	"github.com/stretchr/testify/require"
)

// fakeAdapter records what it was asked and returns a canned result.
type fakeAdapter struct {
	calls    atomic.Int32
	messages []llm.Message
	text     string
	err      error
}

func (f *fakeAdapter) Generate(_ context.Context, messages []llm.Message, _ *llm.Options) (string, error) {
	f.calls.Add(1)
	f.messages = messages
	return f.text, f.err
}

func fixedClock() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newAssistant(adapter llm.Adapter) *assistant.Assistant {
	return assistant.NewWithClock(func(*llm.Config) llm.Adapter { return adapter }, fixedClock)
}

func recentLogs() []audit.LogItem {
	base := fixedClock()
	return []audit.LogItem{
		{Event: "org.project.add", Created: base.Add(-1 * time.Hour), Content: map[string]any{"user_email": "alice@example.com"}},
		{Event: "org.project.add", Created: base.Add(-2 * time.Hour), Content: map[string]any{"user_email": "bob@example.com"}},
		{Event: "org.user.invite", Created: base.Add(-3 * time.Hour), Content: map[string]any{"user_id": "u-3"}},
	}
}

func TestExecutiveSummaryShortCircuitsWithoutRecentLogs(t *testing.T) {
	adapter := &fakeAdapter{text: "should not be called"}
	a := newAssistant(adapter)

	stale := []audit.LogItem{{Event: "org.project.add", Created: fixedClock().Add(-25 * time.Hour)}}

	require.Equal(t, assistant.NoRecentLogsMessage, a.ExecutiveSummary(context.Background(), nil, nil))
	require.Equal(t, assistant.NoRecentLogsMessage, a.ExecutiveSummary(context.Background(), stale, nil))
	require.Zero(t, adapter.calls.Load(), "no provider call without recent logs")
}

func TestExecutiveSummaryPromptContents(t *testing.T) {
	adapter := &fakeAdapter{text: "## Activity Overview\n..."}
	a := newAssistant(adapter)

	summary := a.ExecutiveSummary(context.Background(), recentLogs(), nil)
	require.Equal(t, "## Activity Overview\n...", summary)
	require.EqualValues(t, 1, adapter.calls.Load())

	require.Len(t, adapter.messages, 2)
	prompt := adapter.messages[1].Content
	require.Contains(t, prompt, "2025-06-01")
	require.Contains(t, prompt, "Total events: 3")
	require.Contains(t, prompt, "Distinct users: 3")
	require.Contains(t, prompt, "org.project.add: 2")
	require.Contains(t, prompt, "## Risk Analysis")
	require.Contains(t, prompt, "## Recommendations")
}

func TestExecutiveSummaryWrapsAdapterErrors(t *testing.T) {
	adapter := &fakeAdapter{err: errors.New("anthropic API error: 429")}
	a := newAssistant(adapter)

	summary := a.ExecutiveSummary(context.Background(), recentLogs(), nil)
	require.Contains(t, summary, "Unable to generate summary")
	require.Contains(t, summary, "429")
}

func TestInsightsParsesJSONArray(t *testing.T) {
	adapter := &fakeAdapter{text: `["a","b"]`}
	a := newAssistant(adapter)

	require.Equal(t, []string{"a", "b"}, a.Insights(context.Background(), recentLogs(), nil))
}

func TestInsightsToleratesCodeFences(t *testing.T) {
	adapter := &fakeAdapter{text: "```json\n[\"fenced insight\"]\n```"}
	a := newAssistant(adapter)

	require.Equal(t, []string{"fenced insight"}, a.Insights(context.Background(), recentLogs(), nil))
}

func TestInsightsWrapsNonJSON(t *testing.T) {
	adapter := &fakeAdapter{text: "not json"}
	a := newAssistant(adapter)

	require.Equal(t, []string{"not json"}, a.Insights(context.Background(), recentLogs(), nil))
}

func TestInsightsWrapsNonStringArray(t *testing.T) {
	adapter := &fakeAdapter{text: `[1,2,3]`}
	a := newAssistant(adapter)

	require.Equal(t, []string{`[1,2,3]`}, a.Insights(context.Background(), recentLogs(), nil))
}

func TestInsightsNeverErrorsOnAdapterFailure(t *testing.T) {
	adapter := &fakeAdapter{err: errors.New("boom")}
	a := newAssistant(adapter)

	insights := a.Insights(context.Background(), recentLogs(), nil)
	require.Len(t, insights, 1)
	require.Contains(t, insights[0], "Unable to generate insights")
}

func TestInsightsTruncatesToFirstHundred(t *testing.T) {
	adapter := &fakeAdapter{text: `["ok"]`}
	a := newAssistant(adapter)

	logs := make([]audit.LogItem, 150)
	for i := range logs {
		logs[i] = audit.LogItem{Event: "e", Created: fixedClock()}
	}
	a.Insights(context.Background(), logs, nil)

	prompt := adapter.messages[1].Content
	require.Equal(t, 100, countLogLines(prompt))
}

func TestChatBuildsContextAndHistory(t *testing.T) {
	adapter := &fakeAdapter{text: "plain answer"}
	a := newAssistant(adapter)

	history := []llm.Message{
		{Role: llm.RoleUser, Content: "first question"},
		{Role: llm.RoleAssistant, Content: "first answer"},
	}
	answer := a.Chat(context.Background(), "second question", recentLogs(), history, nil)
	require.Equal(t, "plain answer", answer)

	require.Len(t, adapter.messages, 4)
	require.Equal(t, llm.RoleSystem, adapter.messages[0].Role)
	require.Contains(t, adapter.messages[0].Content, "plain text only")
	require.Contains(t, adapter.messages[0].Content, "org.project.add")
	require.Equal(t, "first question", adapter.messages[1].Content)
	require.Equal(t, "second question", adapter.messages[3].Content)
}

func TestChatFallbackOnEmptyText(t *testing.T) {
	adapter := &fakeAdapter{text: ""}
	a := newAssistant(adapter)

	require.Equal(t, assistant.ChatFallbackMessage, a.Chat(context.Background(), "hi", nil, nil, nil))
}

func TestChatWrapsAdapterErrors(t *testing.T) {
	adapter := &fakeAdapter{err: errors.New("gemini API error: 500")}
	a := newAssistant(adapter)

	answer := a.Chat(context.Background(), "hi", nil, nil, nil)
	require.Contains(t, answer, "Sorry, something went wrong")
	require.Contains(t, answer, "500")
}

func TestTranscriptStore(t *testing.T) {
	store := assistant.NewTranscriptStore()

	id := store.Resolve("")
	require.NotEmpty(t, id)

	messages := store.Append(id,
		llm.Message{Role: llm.RoleUser, Content: "q"},
		llm.Message{Role: llm.RoleAssistant, Content: "a"},
	)
	require.Len(t, messages, 2)
	require.Equal(t, id, store.Resolve(id))
	require.Equal(t, messages, store.Get(id))

	// history is capped from the front
	for i := 0; i < 50; i++ {
		store.Append(id, llm.Message{Role: llm.RoleUser, Content: "x"})
	}
	capped := store.Get(id)
	require.Len(t, capped, 40)
	require.Equal(t, "x", capped[len(capped)-1].Content)

	store.Clear(id)
	require.Empty(t, store.Get(id))
}

func TestTranscriptStoreSweepIdle(t *testing.T) {
	var mu sync.Mutex
	now := fixedClock()
	store := assistant.NewTranscriptStoreWithClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	})

	stale := store.Resolve("")
	store.Append(stale, llm.Message{Role: llm.RoleUser, Content: "old"})

	mu.Lock()
	now = now.Add(29 * time.Minute)
	mu.Unlock()

	fresh := store.Resolve("")
	store.Append(fresh, llm.Message{Role: llm.RoleUser, Content: "recent"})

	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()

	// stale is 31 minutes idle, fresh only 2
	require.Equal(t, 1, store.SweepIdle(30*time.Minute))
	require.Empty(t, store.Get(stale))
	require.Len(t, store.Get(fresh), 1)

	// a swept id is no longer resolvable, so the next turn starts fresh
	require.NotEqual(t, stale, store.Resolve(stale))

	// appending restarts the idle clock
	store.Append(fresh, llm.Message{Role: llm.RoleAssistant, Content: "a"})
	mu.Lock()
	now = now.Add(29 * time.Minute)
	mu.Unlock()
	require.Zero(t, store.SweepIdle(30*time.Minute))
	require.Len(t, store.Get(fresh), 2)
}

func countLogLines(prompt string) int {
	count := 0
	for _, line := range splitLines(prompt) {
		if len(line) > 0 && line[0] == '2' { // RFC3339 timestamps start each log line
			count++
		}
	}
	return count
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	return append(lines, s[start:])
}

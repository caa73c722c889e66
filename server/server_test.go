package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/auditlens/auditlens/assistant"
	"github.com/auditlens/auditlens/audit"
	"github.com/auditlens/auditlens/internal/config"
	"github.com/auditlens/auditlens/llm"
	"github.com/auditlens/auditlens/server"
	"github.com/auditlens/auditlens/sessions"
	"github.com/stretchr/testify/require"
)

// upstreamStub fakes the audit-log source API.
type upstreamStub struct {
	status int
	body   string
	calls  int
}

func (u *upstreamStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u.calls++
		if u.status != 0 {
			w.WriteHeader(u.status)
		}
		_, _ = io.WriteString(w, u.body)
	}
}

var okUpstreamBody = `{"data":{"items":[{"event":"org.project.add","created":"` +
	time.Now().UTC().Format(time.RFC3339) + `","content":{"user_email":"alice@example.com"}}]},"links":{}}`

type fixture struct {
	ts       *httptest.Server
	client   *http.Client
	upstream *upstreamStub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	upstream := &upstreamStub{body: okUpstreamBody}
	upstreamSrv := httptest.NewServer(upstream.handler())
	t.Cleanup(upstreamSrv.Close)

	cfg := config.New()
	store := sessions.NewStore(cfg.GetSessionIdleTimeout())
	router := llm.NewRouter()
	srv := server.NewWithDeps(cfg, store, audit.NewClient(upstreamSrv.URL), assistant.New(router.ForConfig))

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &fixture{
		ts:       ts,
		client:   &http.Client{Jar: jar},
		upstream: upstream,
	}
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := f.client.Get(f.ts.URL + path)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, body
}

func (f *fixture) post(t *testing.T, path string, payload any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(payload))
	}
	resp, err := f.client.Post(f.ts.URL+path, "application/json", &buf)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, body
}

func TestLLMConfigRoundTrip(t *testing.T) {
	f := newFixture(t)

	resp, body := f.post(t, "/api/llm-config", map[string]string{
		"provider": "openai", "model": "gpt-4o-mini", "apiKey": "sk-test",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = f.get(t, "/api/llm-config")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(body, &parsed))
	require.Equal(t, "openai", parsed["provider"])
	require.Equal(t, "gpt-4o-mini", parsed["model"])
	require.Equal(t, true, parsed["configured"])
	require.NotContains(t, parsed, "apiKey", "the key must never be echoed")
	require.NotContains(t, string(body), "sk-test")
}

func TestLLMConfigValidation(t *testing.T) {
	f := newFixture(t)

	for _, payload := range []map[string]string{
		{"model": "m", "apiKey": "k"},
		{"provider": "openai", "apiKey": "k"},
		{"provider": "openai", "model": "m"},
	} {
		resp, body := f.post(t, "/api/llm-config", payload)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Contains(t, string(body), "required")
	}

	// GET before any successful POST stays null
	_, body := f.get(t, "/api/llm-config")
	require.Equal(t, "null", strings.TrimSpace(string(body)))
}

func TestConfigConnectivityCheckFailureStoresNothing(t *testing.T) {
	f := newFixture(t)
	f.upstream.status = http.StatusUnauthorized
	f.upstream.body = `{"errors":[{"detail":"Invalid auth token"}]}`

	resp, body := f.post(t, "/api/config", map[string]string{
		"snykApiToken": "bad-token", "groupId": "group-1",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, string(body), "connectivity check failed")

	resp, body = f.get(t, "/api/config")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "null", strings.TrimSpace(string(body)), "failed credentials must not be stored")
}

func TestConfigStoreAndMask(t *testing.T) {
	f := newFixture(t)

	resp, body := f.post(t, "/api/config", map[string]string{
		"snykApiToken": "secret-token", "groupId": "group-1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(body, &parsed))
	require.Equal(t, "***", parsed["snykApiToken"])
	require.Equal(t, "group-1", parsed["groupId"])
	require.NotContains(t, string(body), "secret-token")

	minutes, ok := parsed["expiresInMinutes"].(float64)
	require.True(t, ok)
	require.GreaterOrEqual(t, minutes, float64(29))

	_, body = f.get(t, "/api/config")
	require.NoError(t, json.Unmarshal(body, &parsed))
	require.Equal(t, "***", parsed["snykApiToken"])
}

func TestConfigRequiresTokenAndScope(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.post(t, "/api/config", map[string]string{"groupId": "group-1"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.post(t, "/api/config", map[string]string{"snykApiToken": "t"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	require.Zero(t, f.upstream.calls, "validation failures must not reach the upstream API")
}

func TestExtendWithoutConfig(t *testing.T) {
	f := newFixture(t)

	resp, body := f.post(t, "/api/config/extend", map[string]int{"minutes": 15})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, string(body), "no configuration to extend")
}

func TestExtendAfterStore(t *testing.T) {
	f := newFixture(t)

	f.post(t, "/api/config", map[string]string{"snykApiToken": "t", "orgId": "org-1"})

	resp, body := f.post(t, "/api/config/extend", map[string]int{"minutes": 30})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(body, &parsed))
	require.GreaterOrEqual(t, parsed["expiresInMinutes"].(float64), float64(55))
}

func TestClearConfigLeavesLLMConfig(t *testing.T) {
	f := newFixture(t)

	f.post(t, "/api/config", map[string]string{"snykApiToken": "t", "groupId": "g"})
	f.post(t, "/api/llm-config", map[string]string{"provider": "openai", "model": "m", "apiKey": "k"})

	resp, _ := f.post(t, "/api/config/clear", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, body := f.get(t, "/api/config")
	require.Equal(t, "null", strings.TrimSpace(string(body)))

	_, body = f.get(t, "/api/llm-config")
	require.Contains(t, string(body), `"configured":true`)
}

func TestAuditLogsRequireConfig(t *testing.T) {
	f := newFixture(t)

	resp, body := f.get(t, "/api/audit-logs")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, string(body), "no upstream configuration")
}

func TestAuditLogsProxyAndValidation(t *testing.T) {
	f := newFixture(t)
	f.post(t, "/api/config", map[string]string{"snykApiToken": "t", "groupId": "group-1"})

	resp, body := f.get(t, "/api/audit-logs?size=not-a-number")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, string(body), "size must be an integer")

	resp, _ = f.get(t, "/api/audit-logs?size=500")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.get(t, "/api/audit-logs?from=yesterday")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = f.get(t, "/api/audit-logs?size=10")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page audit.Page
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page.Items, 1)
	require.Equal(t, "org.project.add", page.Items[0].Event)
}

func TestAuditLogsExportCSV(t *testing.T) {
	f := newFixture(t)
	f.post(t, "/api/config", map[string]string{"snykApiToken": "t", "groupId": "group-1"})

	resp, body := f.get(t, "/api/audit-logs/export?format=csv")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	require.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	require.True(t, strings.HasPrefix(string(body), "created,event,user"))

	resp, _ = f.get(t, "/api/audit-logs/export?format=xml")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuditLogsExportStopsOnEmptyPage(t *testing.T) {
	f := newFixture(t)
	f.post(t, "/api/config", map[string]string{"snykApiToken": "t", "groupId": "group-1"})

	// An upstream that hands back a cursor with no items on every page
	// must not keep the export fetching.
	f.upstream.body = `{"data":{"items":[]},"links":{"next":"https://api.example.com/rest/x?cursor=abc"}}`
	callsBefore := f.upstream.calls

	resp, body := f.get(t, "/api/audit-logs/export?format=json")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, f.upstream.calls-callsBefore)
	require.Equal(t, "[]", strings.TrimSpace(string(body)))
}

func TestExecutiveSummaryAlways200(t *testing.T) {
	f := newFixture(t)

	resp, body := f.get(t, "/api/executive-summary")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed map[string]string
	require.NoError(t, json.Unmarshal(body, &parsed))
	require.Contains(t, parsed["summary"], "No audit-log source is configured")

	// With upstream config but no AI backend, the no-op adapter answers
	f.post(t, "/api/config", map[string]string{"snykApiToken": "t", "groupId": "group-1"})
	resp, body = f.get(t, "/api/executive-summary")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &parsed))
	require.Equal(t, llm.NotConfiguredMessage, parsed["summary"])
}

func TestInsightsAlwaysSlice(t *testing.T) {
	f := newFixture(t)

	_, body := f.get(t, "/api/insights")
	var parsed struct {
		Insights []string `json:"insights"`
	}
	require.NoError(t, json.Unmarshal(body, &parsed))
	require.NotEmpty(t, parsed.Insights)
}

func TestChatTurn(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.post(t, "/api/chat", map[string]string{"message": "   "})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := f.post(t, "/api/chat", map[string]string{"message": "what happened today?"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed struct {
		SessionID string        `json:"sessionId"`
		Response  string        `json:"response"`
		Messages  []llm.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(body, &parsed))
	require.NotEmpty(t, parsed.SessionID)
	require.Equal(t, llm.NotConfiguredMessage, parsed.Response)
	require.Len(t, parsed.Messages, 2)
	require.Equal(t, llm.RoleUser, parsed.Messages[0].Role)

	// Second turn on the same chat session accumulates history
	resp, body = f.post(t, "/api/chat", map[string]string{"message": "and yesterday?", "sessionId": parsed.SessionID})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	second := parsed
	require.NoError(t, json.Unmarshal(body, &second))
	require.Equal(t, parsed.SessionID, second.SessionID)
	require.Len(t, second.Messages, 4)
}

func TestSessionCookie(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.get(t, "/api/config")
	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	require.Equal(t, "auditlens_session", cookie.Name)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, cookie.SameSite)

	// Subsequent request with the cookie does not allocate a new session
	resp, _ = f.get(t, "/api/config")
	require.Empty(t, resp.Cookies())
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	resp, body := f.get(t, "/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "ok")
}

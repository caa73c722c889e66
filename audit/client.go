package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/auditlens/auditlens/internal/errors"
)

// Client fetches audit logs from the upstream REST API. It holds no
// credentials; callers supply them per request, since every session may
// carry a different token and scope.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: 30 * time.Second})
}

func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

type searchResponse struct {
	Data struct {
		Items []LogItem `json:"items"`
	} `json:"data"`
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
}

// Search runs one paginated audit-log query. The scope path is
// /rest/groups/{id}/audit_logs/search or the orgs equivalent; the API
// version travels as a pinned query parameter and the token as a bearer
// header.
func (c *Client) Search(ctx context.Context, creds Credentials, params SearchParams) (*Page, error) {
	path, err := scopePath(creds)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("version", creds.APIVersion)
	if !params.From.IsZero() {
		query.Set("from", params.From.UTC().Format(time.RFC3339))
	}
	if !params.To.IsZero() {
		query.Set("to", params.To.UTC().Format(time.RFC3339))
	}
	for _, event := range params.Events {
		query.Add("events", event)
	}
	for _, event := range params.ExcludeEvents {
		query.Add("exclude_events", event)
	}
	if params.Size > 0 {
		query.Set("size", strconv.Itoa(params.Size))
	}
	if params.Cursor != "" {
		query.Set("cursor", params.Cursor)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("[audit Search] build request: %w", err)
	}
	req.Header.Set("Authorization", "token "+creds.Token)
	req.Header.Set("Accept", "application/vnd.api+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrUpstreamUnavailable, "audit log request failed (%v)", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, upstreamError(resp)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("[audit Search] decode response: %w", err)
	}

	items := parsed.Data.Items
	if params.Search != "" {
		items = FilterItems(items, params.Search)
	}

	return &Page{
		Items:      items,
		NextCursor: cursorFromLink(parsed.Links.Next),
		Total:      len(items),
	}, nil
}

// Ping performs a one-item search as a connectivity and credential
// check. Used before credentials are stored.
func (c *Client) Ping(ctx context.Context, creds Credentials) error {
	_, err := c.Search(ctx, creds, SearchParams{Size: 1})
	return err
}

func scopePath(creds Credentials) (string, error) {
	switch {
	case creds.GroupID != "":
		return "/rest/groups/" + url.PathEscape(creds.GroupID) + "/audit_logs/search", nil
	case creds.OrgID != "":
		return "/rest/orgs/" + url.PathEscape(creds.OrgID) + "/audit_logs/search", nil
	default:
		return "", fmt.Errorf("[audit scopePath] group or org id is required")
	}
}

// cursorFromLink pulls the cursor token out of the API's next link,
// which arrives as a relative URL.
func cursorFromLink(next string) string {
	if next == "" {
		return ""
	}
	parsed, err := url.Parse(next)
	if err != nil {
		return ""
	}
	return parsed.Query().Get("cursor")
}

func upstreamError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var parsed struct {
		Errors []struct {
			Detail string `json:"detail"`
			Title  string `json:"title"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Errors) > 0 {
		detail := parsed.Errors[0].Detail
		if detail == "" {
			detail = parsed.Errors[0].Title
		}
		if detail != "" {
			return fmt.Errorf("audit log API error %d: %s", resp.StatusCode, detail)
		}
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return apperrors.Wrapf(apperrors.ErrUpstreamAuth, "audit log API error %d", resp.StatusCode)
	}
	return fmt.Errorf("audit log API error %d", resp.StatusCode)
}

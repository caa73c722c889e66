package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/auditlens/auditlens/audit"
	"github.com/auditlens/auditlens/sessions"
	"github.com/rs/zerolog/log"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
	exportMaxItems  = 1000
)

const missingUpstreamMessage = "no upstream configuration; submit your API token first"

func upstreamCredentials(cfg sessions.UpstreamConfig) audit.Credentials {
	return audit.Credentials{
		Token:      cfg.APIToken,
		GroupID:    cfg.GroupID,
		OrgID:      cfg.OrgID,
		APIVersion: cfg.APIVersion,
	}
}

// parseSearchParams validates the query before any I/O; a violated
// constraint comes back as a displayable message.
func parseSearchParams(query url.Values) (audit.SearchParams, error) {
	var params audit.SearchParams

	if raw := query.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return params, fmt.Errorf("from must be an RFC3339 timestamp")
		}
		params.From = from
	}
	if raw := query.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return params, fmt.Errorf("to must be an RFC3339 timestamp")
		}
		params.To = to
	}
	if !params.From.IsZero() && !params.To.IsZero() && params.To.Before(params.From) {
		return params, fmt.Errorf("to must not be before from")
	}

	params.Size = defaultPageSize
	if raw := query.Get("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 || size > maxPageSize {
			return params, fmt.Errorf("size must be an integer between 1 and %d", maxPageSize)
		}
		params.Size = size
	}

	params.Events = query["events"]
	params.ExcludeEvents = query["excludeEvents"]
	params.Cursor = query.Get("cursor")
	params.Search = query.Get("search")
	return params, nil
}

// AuditLogsHandler proxies one page of the upstream search.
func (s *Server) AuditLogsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.resolveSession(w, r)

		cfg, ok := s.store.Upstream(sessionID)
		if !ok {
			writeError(w, http.StatusBadRequest, missingUpstreamMessage)
			return
		}

		params, err := parseSearchParams(r.URL.Query())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		page, err := s.auditClient.Search(r.Context(), upstreamCredentials(cfg), params)
		if err != nil {
			log.Error().Err(err).Msg("audit log search failed")
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// AuditLogsExportHandler downloads matching logs as a file, following
// cursors up to exportMaxItems.
func (s *Server) AuditLogsExportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.resolveSession(w, r)

		cfg, ok := s.store.Upstream(sessionID)
		if !ok {
			writeError(w, http.StatusBadRequest, missingUpstreamMessage)
			return
		}

		format := r.URL.Query().Get("format")
		if format == "" {
			format = "json"
		}
		if format != "json" && format != "csv" {
			writeError(w, http.StatusBadRequest, "format must be json or csv")
			return
		}

		params, err := parseSearchParams(r.URL.Query())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		items, err := s.collectForExport(r, upstreamCredentials(cfg), params)
		if err != nil {
			log.Error().Err(err).Msg("audit log export failed")
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		filename := "audit-logs-" + time.Now().UTC().Format("2006-01-02") + "." + format
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

		if format == "csv" {
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			if err := audit.WriteCSV(w, items); err != nil {
				log.Error().Err(err).Msg("csv export write failed")
			}
			return
		}
		w.Header().Set("Content-Type", contentTypeJSON)
		if err := audit.WriteJSON(w, items); err != nil {
			log.Error().Err(err).Msg("json export write failed")
		}
	}
}

func (s *Server) collectForExport(r *http.Request, creds audit.Credentials, params audit.SearchParams) ([]audit.LogItem, error) {
	params.Size = maxPageSize
	var items []audit.LogItem
	for {
		page, err := s.auditClient.Search(r.Context(), creds, params)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
		// An empty page with a cursor would otherwise loop forever.
		if page.NextCursor == "" || len(page.Items) == 0 || len(items) >= exportMaxItems {
			break
		}
		params.Cursor = page.NextCursor
	}
	if len(items) > exportMaxItems {
		items = items[:exportMaxItems]
	}
	return items, nil
}

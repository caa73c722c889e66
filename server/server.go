package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/auditlens/auditlens/assistant"
	"github.com/auditlens/auditlens/audit"
	"github.com/auditlens/auditlens/internal/config"
	"github.com/auditlens/auditlens/llm"
	"github.com/auditlens/auditlens/sessions"
	"github.com/rs/zerolog/log"
)

// Server owns the HTTP surface of the dashboard. Everything it needs is
// injected at construction; no package-level state.
type Server struct {
	env         string // Environment (e.g., "DEV", "production")
	mux         *http.ServeMux
	routes      []string
	config      config.Config
	store       *sessions.Store
	auditClient *audit.Client
	assistant   *assistant.Assistant
	transcripts *assistant.TranscriptStore
}

func New(cfg config.Config) *Server {
	store := sessions.NewStore(cfg.GetSessionIdleTimeout())
	router := llm.NewRouter()
	return NewWithDeps(cfg, store, audit.NewClient(cfg.GetSnykAPIBaseURL()), assistant.New(router.ForConfig))
}

// NewWithDeps wires explicit collaborators. Tests use this to point the
// audit client at a stub and swap the provider router.
func NewWithDeps(cfg config.Config, store *sessions.Store, auditClient *audit.Client, asst *assistant.Assistant) *Server {
	s := &Server{
		mux:         http.NewServeMux(),
		config:      cfg,
		store:       store,
		auditClient: auditClient,
		assistant:   asst,
		transcripts: assistant.NewTranscriptStore(),
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// SweepExpired removes idle sessions and abandoned chat transcripts.
// Run by the background scheduler; lazy expiry keeps reads correct
// between runs.
func (s *Server) SweepExpired() {
	s.store.SweepExpired()
	s.transcripts.SweepIdle(s.config.GetSessionIdleTimeout())
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s", displayMethod, path)
}

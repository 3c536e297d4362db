// Package web serves the admin dashboard as an HTML page and a JSON document.
// Every page load mounts a fresh dashboard view, so each request issues its
// own single stats fetch.
package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/vslplatform/vsladmin/internal/credentials"
	"github.com/vslplatform/vsladmin/internal/dashboard"
	"github.com/vslplatform/vsladmin/internal/statsapi"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

// Settings configures the console.
type Settings struct {
	Locale          language.Tag
	SystemUptime    float64
	Timeout         time.Duration // upper bound on waiting for a fetch to settle
	ShowFetchErrors bool
	RateLimit       float64 // requests per second per IP, zero disables limiting
	Burst           int
}

// Server holds the dependencies of the console.
type Server struct {
	fetcher   dashboard.Fetcher
	fallback  credentials.Store
	formatter *dashboard.Formatter
	settings  Settings
	logger    *zap.Logger
	limiter   *rateLimiter
	page      *template.Template
	mux       *http.ServeMux
}

// NewServer wires the routes. fallback supplies the token when a loopback
// request carries neither an Authorization header nor the token cookie.
// Remote requests never receive the fallback credential.
func NewServer(fetcher dashboard.Fetcher, fallback credentials.Store, settings Settings, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 30 * time.Second
	}

	page, err := template.New("dashboard.gohtml").Funcs(template.FuncMap{
		"glyph": glyph,
	}).ParseFS(templateFS, "templates/dashboard.gohtml")
	if err != nil {
		return nil, err
	}

	s := &Server{
		fetcher:   fetcher,
		fallback:  fallback,
		formatter: dashboard.NewFormatter(settings.Locale),
		settings:  settings,
		logger:    logger,
		page:      page,
		mux:       http.NewServeMux(),
	}
	if settings.RateLimit > 0 {
		s.limiter = newRateLimiter(settings.RateLimit, settings.Burst)
	}

	s.setupRoutes()
	return s, nil
}

// Handler returns the mux with middleware applied, outermost first.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = credentialMiddleware(h)
	if s.limiter != nil {
		h = s.rateLimitMiddleware(h)
	}
	h = s.loggingMiddleware(h)
	h = securityHeadersMiddleware(h)
	return requestIDMiddleware(h)
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.stop()
	}
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /admin", s.handleDashboardPage)
	s.mux.HandleFunc("GET /admin/stats.json", s.handleDashboardJSON)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/admin", http.StatusFound)
}

// credentialsFor picks the token source for a request. The fallback store
// holds the operator's own login, so it only serves anonymous loopback callers.
func (s *Server) credentialsFor(r *http.Request) credentials.Store {
	if credentialPresented(r.Context()) || !isLoopback(r) {
		return credentials.FromContext()
	}
	return s.fallback
}

// loadDashboard mounts a view for this request and waits for it to settle.
// When the wait times out the view is closed and its loading state returned.
func (s *Server) loadDashboard(r *http.Request) dashboard.State {
	ctx := statsapi.ContextWithRequestID(r.Context(), requestID(r.Context()))
	creds := s.credentialsFor(r)

	view := dashboard.New(s.fetcher, creds,
		dashboard.WithLogger(s.logger.With(zap.String("request_id", requestID(r.Context())))),
		dashboard.WithSystemUptime(s.settings.SystemUptime),
	)
	defer view.Close()
	view.Mount(ctx)

	waitCtx, cancel := context.WithTimeout(ctx, s.settings.Timeout)
	defer cancel()
	if _, err := view.Wait(waitCtx); err != nil {
		s.logger.Warn("dashboard did not settle in time",
			zap.Duration("timeout", s.settings.Timeout),
			zap.Error(err))
		view.Close()
	}
	return view.State()
}

package web

import (
	"bytes"
	"net/http"

	"go.uber.org/zap"

	"github.com/vslplatform/vsladmin/internal/dashboard"
)

type pageData struct {
	Loading bool
	Cards   []dashboard.Card
	Notice  string
}

func (s *Server) handleDashboardJSON(w http.ResponseWriter, r *http.Request) {
	state := s.loadDashboard(r)
	writeJSON(w, http.StatusOK, s.formatter.Report(state, s.settings.ShowFetchErrors))
}

func (s *Server) handleDashboardPage(w http.ResponseWriter, r *http.Request) {
	state := s.loadDashboard(r)

	data := pageData{Loading: state.Loading}
	if !state.Loading {
		data.Cards = s.formatter.Cards(state.Model)
	}
	if s.settings.ShowFetchErrors && state.Outcome.Settled() && !state.Outcome.OK() {
		data.Notice = "stats unavailable (" + state.Outcome.Reason() + "), showing defaults"
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		s.logger.Error("rendering dashboard page failed", zap.Error(err))
		writeProblem(w, r, http.StatusInternalServerError, "failed to render dashboard")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func glyph(icon dashboard.Icon) string {
	switch icon {
	case dashboard.IconUsers:
		return "👥"
	case dashboard.IconBook:
		return "📖"
	case dashboard.IconAlert:
		return "⚠"
	case dashboard.IconActivity:
		return "📈"
	default:
		return "•"
	}
}

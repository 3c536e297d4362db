// Package dashboard holds the admin dashboard's Display Model and the
// fetch-on-mount lifecycle that fills it.
package dashboard

import (
	"math"

	"github.com/vslplatform/vsladmin/internal/statsapi"
)

// Model is the snapshot of statistics currently shown. It is only ever
// replaced as a whole.
type Model struct {
	TotalUsers           int64   `json:"totalUsers"`
	TotalWords           int64   `json:"totalWords"`
	PendingContributions int64   `json:"pendingContributions"`
	SystemUptime         float64 `json:"systemUptime"`
}

// DefaultModel is what a view shows before, or instead of, a successful fetch.
func DefaultModel(uptime float64) Model {
	return Model{SystemUptime: uptime}
}

// ModelFromStats maps an API payload to a snapshot. Missing, null, zero,
// negative and non-finite counts become 0; fractions are truncated. Uptime always comes from configuration.
func ModelFromStats(s *statsapi.Stats, uptime float64) Model {
	m := DefaultModel(uptime)
	if s == nil {
		return m
	}
	m.TotalUsers = count(s.TotalUsers)
	m.TotalWords = count(s.TotalWords)
	m.PendingContributions = count(s.PendingContributions)
	return m
}

func count(p *float64) int64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) || *p <= 0 {
		return 0
	}
	if *p >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(*p)
}

package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vslplatform/vsladmin/internal/credentials"
	"github.com/vslplatform/vsladmin/internal/statsapi"
)

// Fetcher issues the stats request. *statsapi.Client implements it.
type Fetcher interface {
	FetchStats(ctx context.Context, token string) (*statsapi.StatsResponse, error)
}

const defaultUptime = 99.9

// State is a consistent read of a view.
type State struct {
	Loading bool
	Model   Model
	Outcome Outcome
}

// View owns one Display Model and Loading Flag for its lifetime. It issues at
// most one request, never retries, and stops mutating state once closed.
type View struct {
	fetcher Fetcher
	creds   credentials.Store
	logger  *zap.Logger
	uptime  float64
	now     func() time.Time

	mu      sync.RWMutex
	model   Model
	loading bool
	outcome Outcome
	mounted bool
	closed  bool
	cancel  context.CancelFunc

	done     chan struct{}
	doneOnce sync.Once
}

// Option configures a View.
type Option func(*View)

// WithLogger sets the diagnostic channel for fetch failures.
func WithLogger(l *zap.Logger) Option {
	return func(v *View) { v.logger = l }
}

// WithSystemUptime overrides the uptime shown on the uptime card.
func WithSystemUptime(uptime float64) Option {
	return func(v *View) { v.uptime = uptime }
}

// WithClock replaces time.Now, used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(v *View) { v.now = now }
}

// New creates a view in the loading state with the default snapshot.
// creds may be nil, which behaves like an empty store.
func New(f Fetcher, creds credentials.Store, opts ...Option) *View {
	v := &View{
		fetcher: f,
		creds:   creds,
		logger:  zap.NewNop(),
		uptime:  defaultUptime,
		now:     time.Now,
		loading: true,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.model = DefaultModel(v.uptime)
	return v
}

// Mount starts the single fetch. It returns immediately; later calls and
// calls after Close do nothing. Cancelling ctx or calling Close aborts the
// request.
func (v *View) Mount(ctx context.Context) {
	v.mu.Lock()
	if v.mounted || v.closed {
		v.mu.Unlock()
		return
	}
	v.mounted = true
	ctx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.mu.Unlock()

	go v.run(ctx)
}

// Close unmounts the view: the in-flight request is cancelled and a late
// result is discarded. Done is closed once the fetch goroutine exits.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	cancel, mounted := v.cancel, v.mounted
	v.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if !mounted {
		v.finish()
	}
}

// Done is closed when the fetch has settled or the view was closed.
func (v *View) Done() <-chan struct{} { return v.done }

// Wait blocks until Done or until ctx ends, whichever is first. The error is
// only ever ctx's; fetch failures are reported through the Outcome.
func (v *View) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-v.done:
		return v.Outcome(), nil
	case <-ctx.Done():
		return v.Outcome(), ctx.Err()
	}
}

// Loading reports the Loading Flag.
func (v *View) Loading() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loading
}

// Snapshot returns the current Display Model.
func (v *View) Snapshot() Model {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.model
}

// Outcome returns how the fetch settled, Pending until then.
func (v *View) Outcome() Outcome {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.outcome
}

// State returns flag, snapshot and outcome from a single read.
func (v *View) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return State{Loading: v.loading, Model: v.model, Outcome: v.outcome}
}

func (v *View) finish() {
	v.doneOnce.Do(func() { close(v.done) })
}

func (v *View) run(ctx context.Context) {
	defer v.finish()

	token := v.token(ctx)
	resp, err := v.fetcher.FetchStats(ctx, token)
	outcome, snapshot := v.classify(resp, err)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		v.logger.Debug("dashboard closed before stats settled", zap.Stringer("outcome", outcome))
		return
	}
	if outcome.OK() {
		v.model = snapshot
	}
	v.outcome = outcome
	v.loading = false
}

// token reads the credential at request time. Absence is not an error: the
// request goes out with an empty bearer value.
func (v *View) token(ctx context.Context) string {
	if v.creds == nil {
		return ""
	}
	tok, err := v.creds.Token(ctx)
	switch {
	case errors.Is(err, credentials.ErrNoToken):
		v.logger.Debug("no stored token, requesting stats without credential")
		return ""
	case err != nil:
		v.logger.Warn("reading stored token failed", zap.Error(err))
		return ""
	}

	if claims, err := credentials.Inspect(tok); err == nil && claims.Expired(v.now()) {
		v.logger.Warn("stored token has expired",
			zap.String("subject", claims.Subject),
			zap.Time("expired_at", claims.ExpiresAt))
	}
	return tok
}

func (v *View) classify(resp *statsapi.StatsResponse, err error) (Outcome, Model) {
	if err == nil {
		if resp == nil {
			resp = &statsapi.StatsResponse{}
		}
		return Outcome{Kind: Loaded}, ModelFromStats(resp.Data, v.uptime)
	}

	var apiErr *statsapi.APIError
	if errors.As(err, &apiErr) {
		v.logger.Info("stats request rejected",
			zap.Int("status", apiErr.StatusCode),
			zap.String("message", apiErr.Message))
		return Outcome{Kind: Rejected, Status: apiErr.StatusCode, Err: err}, Model{}
	}

	if errors.Is(err, context.Canceled) {
		v.logger.Debug("stats request cancelled", zap.Error(err))
	} else {
		v.logger.Warn("fetching stats failed", zap.Error(err))
	}
	return Outcome{Kind: Failed, Err: err}, Model{}
}

// Package search turns keystrokes into a debounced, race-safe list of
// location candidates with single-selection semantics.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/couchcryptid/heatwatch-service/internal/domain"
	"github.com/couchcryptid/heatwatch-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

const (
	// DefaultQuietPeriod is how long the query must stay unchanged before a search runs.
	DefaultQuietPeriod = 300 * time.Millisecond

	// MinQueryLength is the shortest trimmed query, in runes, that triggers a search.
	MinQueryLength = 2

	// ResultLimit caps the candidates requested from the geocoder.
	ResultLimit = 5
)

// Session is a point-in-time copy of the controller state.
type Session struct {
	Query      string                     `json:"query"`
	Candidates []domain.LocationCandidate `json:"candidates"`
	Selected   *domain.LocationCandidate  `json:"selected,omitempty"`
	Token      uint64                     `json:"token"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the clock driving the debounce timer.
func WithClock(c clockwork.Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithQuietPeriod overrides DefaultQuietPeriod.
func WithQuietPeriod(d time.Duration) Option {
	return func(ctl *Controller) { ctl.quiet = d }
}

// WithUpdateHook registers fn to receive a snapshot after every visible
// session change. Calls are serialized and delivered in the order the changes
// were made; a snapshot superseded before its delivery is skipped. fn runs
// outside the controller lock, may be called from timer goroutines, and must
// not call the controller's mutating methods.
func WithUpdateHook(fn func(Session)) Option {
	return func(ctl *Controller) { ctl.onUpdate = fn }
}

// Controller owns one search session.
//
// Every executed search takes a fresh token. A response is applied only if
// its token is still current and nothing has been selected in the meantime;
// selection, clearing and short queries bump the token so responses already
// in flight are dropped on arrival.
type Controller struct {
	geocoder domain.Geocoder
	clock    clockwork.Clock
	quiet    time.Duration
	onUpdate func(Session)
	logger   *slog.Logger
	metrics  *observability.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	query      string
	candidates []domain.LocationCandidate
	selected   *domain.LocationCandidate
	token      uint64
	timer      clockwork.Timer
	schedule   uint64 // identifies the armed timer; bumped on every cancel
	version    uint64 // bumped for every snapshot handed to notify
	closed     bool

	notifyMu  sync.Mutex
	delivered uint64 // version of the last snapshot passed to onUpdate
}

// NewController creates a controller backed by geocoder.
func NewController(geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		geocoder: geocoder,
		clock:    clockwork.NewRealClock(),
		quiet:    DefaultQuietPeriod,
		logger:   logger,
		metrics:  metrics,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnQueryChanged records new query text, clearing any selection, and
// restarts the debounce timer. Queries shorter than MinQueryLength clear the
// candidates immediately and never reach the geocoder.
func (c *Controller) OnQueryChanged(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.selected = nil
	c.query = text
	c.cancelTimerLocked()

	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinQueryLength {
		c.candidates = nil
		c.token++
	} else {
		id := c.schedule
		c.timer = c.clock.AfterFunc(c.quiet, func() { c.fire(id) })
	}

	snap, version := c.changedLocked()
	c.mu.Unlock()
	c.notify(snap, version)
}

// SelectCandidate selects one of the currently listed candidates. It clears
// the list and cancels any scheduled or in-flight search.
func (c *Controller) SelectCandidate(candidate domain.LocationCandidate) error {
	c.mu.Lock()

	idx := -1
	for i := range c.candidates {
		if c.candidates[i].Identity() == candidate.Identity() {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("select candidate %q: %w", candidate.DisplayName, domain.ErrNotFound)
	}

	selected := c.candidates[idx]
	c.selected = &selected
	c.candidates = nil
	c.cancelTimerLocked()
	c.token++

	snap, version := c.changedLocked()
	c.mu.Unlock()

	c.logger.Debug("location selected", "name", selected.FullName(), "lat", selected.Latitude, "lon", selected.Longitude)
	c.notify(snap, version)
	return nil
}

// ClearSelection resets the session: no selection, empty query, no candidates.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	c.selected = nil
	c.query = ""
	c.candidates = nil
	c.cancelTimerLocked()
	c.token++

	snap, version := c.changedLocked()
	c.mu.Unlock()
	c.notify(snap, version)
}

// ResolveExact returns the geocoder's best match for text without touching
// the session. ok is false when nothing matched.
func (c *Controller) ResolveExact(ctx context.Context, text string) (domain.LocationCandidate, bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.LocationCandidate{}, false, nil
	}

	candidate, ok, err := c.geocoder.ResolveOne(ctx, text)
	if err != nil {
		if !errors.Is(err, domain.ErrProviderUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
		}
		return domain.LocationCandidate{}, false, fmt.Errorf("resolve %q: %w", text, err)
	}
	return candidate, ok, nil
}

// Snapshot returns a copy of the session.
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close stops the debounce timer and waits for an executing search to return.
// Later calls to OnQueryChanged are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.cancelTimerLocked()
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

// fire runs when the debounce timer for schedule id expires.
func (c *Controller) fire(id uint64) {
	c.mu.Lock()
	if c.closed || id != c.schedule || c.selected != nil {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.token++
	token := c.token
	query := strings.TrimSpace(c.query)
	c.wg.Add(1)
	c.mu.Unlock()

	defer c.wg.Done()
	c.execute(token, query)
}

func (c *Controller) execute(token uint64, query string) {
	c.metrics.SearchesExecuted.Inc()
	results, err := c.geocoder.Search(c.ctx, query, ResultLimit)
	if err != nil {
		c.metrics.SearchErrors.Inc()
		c.logger.Warn("location search failed", "query", query, "error", err)
		return
	}

	c.mu.Lock()
	if token != c.token || c.selected != nil || c.closed {
		c.mu.Unlock()
		c.metrics.SearchResultsStale.Inc()
		c.logger.Debug("discarding stale search results", "query", query, "token", token)
		return
	}
	c.candidates = domain.DedupeCandidates(results)
	snap, version := c.changedLocked()
	c.mu.Unlock()

	c.notify(snap, version)
}

func (c *Controller) cancelTimerLocked() {
	c.schedule++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) snapshotLocked() Session {
	s := Session{
		Query:      c.query,
		Candidates: append([]domain.LocationCandidate(nil), c.candidates...),
		Token:      c.token,
	}
	if c.selected != nil {
		sel := *c.selected
		s.Selected = &sel
	}
	return s
}

// changedLocked stamps the current state for delivery to the update hook.
func (c *Controller) changedLocked() (Session, uint64) {
	c.version++
	return c.snapshotLocked(), c.version
}

func (c *Controller) notify(s Session, version uint64) {
	if c.onUpdate == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if version <= c.delivered {
		return
	}
	c.delivered = version
	c.onUpdate(s)
}

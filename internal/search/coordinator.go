// Package search coordinates incremental title search: it debounces input
// text, runs one paginated session per query and drops responses that no
// longer match what the user is looking at.
package search

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/moviefinder/moviefinder/internal/directory"
	"github.com/moviefinder/moviefinder/internal/eventloop"
	"github.com/moviefinder/moviefinder/internal/loadable"
)

// Config tunes a Coordinator.
type Config struct {
	Debounce    time.Duration
	InitialPage int
	PageSize    int
}

// DefaultConfig matches the directory's paging: 10 results per page, from page 1.
func DefaultConfig() Config {
	return Config{
		Debounce:    time.Second,
		InitialPage: 1,
		PageSize:    10,
	}
}

// Observer is told about directory traffic.
type Observer interface {
	SessionStarted(query string)
	RequestIssued(query string, page int)
	ResponseDiscarded(query string, page int)
}

type nopObserver struct{}

func (nopObserver) SessionStarted(string)         {}
func (nopObserver) RequestIssued(string, int)     {}
func (nopObserver) ResponseDiscarded(string, int) {}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock replaces the wall clock used for debouncing.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Coordinator) { c.clock = clock }
}

// WithObserver registers an observer for directory traffic.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) { c.observer = o }
}

type listenerEntry struct {
	id uint64
	fn Listener
}

// Coordinator owns the current search session. All session state lives on
// the coordinator's event loop; the exported methods hand work to the loop
// and return once it, and any notifications it caused, has completed.
type Coordinator struct {
	dir      directory.Directory
	loop     *eventloop.Loop
	clock    clockwork.Clock
	observer Observer
	cfg      Config
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	listeners    []listenerEntry
	nextListener uint64

	// loop-owned
	current  session
	nextID   uint64
	liveText string
	timer    clockwork.Timer
	timerGen uint64
	closed   bool
}

// New creates a coordinator running on loop. The loop must be running for
// the coordinator to make progress.
func New(dir directory.Directory, loop *eventloop.Loop, cfg Config, logger zerolog.Logger, opts ...Option) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		dir:      dir,
		loop:     loop,
		clock:    clockwork.NewRealClock(),
		observer: nopObserver{},
		cfg:      cfg,
		logger:   logger.With().Str("component", "search").Logger(),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.current = c.emptySession()
	return c
}

// SetQueryText reports the latest input text. A change restarts the
// debounce delay; clearing the text resets the results at once.
func (c *Coordinator) SetQueryText(text string) error {
	text = NormalizeQuery(text)
	return c.loop.Do(func() { c.setQueryText(text) })
}

// TriggerNextPage asks for more results: the next page after a loaded one,
// or the same page again after a failure. It does nothing while loading.
func (c *Coordinator) TriggerNextPage() error {
	return c.loop.Do(c.triggerNextPage)
}

// Snapshot returns a copy of the current session.
func (c *Coordinator) Snapshot() (Snapshot, error) {
	var snap Snapshot
	err := c.loop.Do(func() { snap = c.current.snapshot(c.cfg.InitialPage) })
	return snap, err
}

// Subscribe registers l for every future snapshot. Listeners run on the
// coordinator's loop in registration order and must not call back into
// the coordinator synchronously. The returned func removes l.
func (c *Coordinator) Subscribe(l Listener) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextListener++
	id := c.nextListener
	c.listeners = append(c.listeners, listenerEntry{id: id, fn: l})

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.listeners = slices.DeleteFunc(c.listeners, func(e listenerEntry) bool { return e.id == id })
		})
	}
}

// Close stops the debounce timer, abandons in-flight requests and drops
// all listeners. Later calls on the coordinator have no effect.
func (c *Coordinator) Close() {
	c.cancel()
	_ = c.loop.Do(func() {
		c.stopTimer()
		c.closed = true
	})

	c.mu.Lock()
	c.listeners = nil
	c.mu.Unlock()
}

func (c *Coordinator) setQueryText(text string) {
	if c.closed || text == c.liveText {
		return
	}

	c.stopTimer()
	c.liveText = text

	if text == "" {
		c.current = c.emptySession()
		c.logger.Debug().Msg("Query cleared")
		c.publish()
		return
	}

	c.timerGen++
	gen := c.timerGen
	c.timer = c.clock.AfterFunc(c.cfg.Debounce, func() {
		c.loop.Post(func() { c.debounceFired(gen, text) })
	})
}

func (c *Coordinator) debounceFired(gen uint64, text string) {
	// A timer stopped after it fired can still deliver; the generation and
	// live text tell whether it is the one currently armed.
	if c.closed || gen != c.timerGen || text != c.liveText {
		return
	}
	c.timer = nil

	c.nextID++
	c.current = session{
		id:    c.nextID,
		query: text,
		page:  c.cfg.InitialPage,
	}
	c.observer.SessionStarted(text)
	c.logger.Debug().Uint64("session", c.nextID).Str("query", text).Msg("Starting search session")
	c.fetch()
}

func (c *Coordinator) triggerNextPage() {
	s := &c.current
	if c.closed || s.query == "" || s.query != c.liveText {
		return
	}

	switch s.state.Status() {
	case loadable.StatusLoading:
		return
	case loadable.StatusFailed:
		c.logger.Debug().Str("query", s.query).Int("page", s.page).Msg("Retrying failed page")
	case loadable.StatusLoaded:
		s.page++
	}
	c.fetch()
}

// fetch marks the current page as loading and requests it.
func (c *Coordinator) fetch() {
	s := &c.current
	s.state = loadable.Loading[[]directory.SearchResult]()
	c.publish()

	id, query, page := s.id, s.query, s.page
	c.observer.RequestIssued(query, page)
	c.logger.Debug().Uint64("session", id).Str("query", query).Int("page", page).Msg("Requesting page")

	go func() {
		result, err := c.dir.Search(c.ctx, query, page)
		c.loop.Post(func() { c.complete(id, query, page, result, err) })
	}()
}

func (c *Coordinator) complete(id uint64, query string, page int, result *directory.SearchPage, err error) {
	if c.closed {
		return
	}

	s := &c.current
	if s.id != id || s.page != page || query != c.liveText {
		c.observer.ResponseDiscarded(query, page)
		c.logger.Debug().
			Uint64("session", id).
			Uint64("currentSession", s.id).
			Str("query", query).
			Int("page", page).
			Msg("Discarding stale response")
		return
	}

	if err != nil {
		s.state = loadable.Failed[[]directory.SearchResult](err)
		s.hasMore = page != c.cfg.InitialPage
		c.logger.Warn().Err(err).Str("query", query).Int("page", page).Msg("Search page failed")
		c.publish()
		return
	}

	results := result.Results
	if results == nil {
		results = []directory.SearchResult{}
	}
	s.state = loadable.Loaded(results)
	s.hasMore = directory.HasMoreContent(page, c.cfg.PageSize, len(results), result.TotalResults)
	c.publish()
}

func (c *Coordinator) publish() {
	c.mu.Lock()
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()

	for _, l := range listeners {
		l.fn(c.current.snapshot(c.cfg.InitialPage))
	}
}

func (c *Coordinator) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Coordinator) emptySession() session {
	c.nextID++
	return session{
		id:    c.nextID,
		page:  c.cfg.InitialPage,
		state: loadable.Loaded([]directory.SearchResult{}),
	}
}

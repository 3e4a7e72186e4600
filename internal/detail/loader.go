// Package detail loads the full directory record of one selected title.
package detail

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/moviefinder/moviefinder/internal/directory"
	"github.com/moviefinder/moviefinder/internal/eventloop"
	"github.com/moviefinder/moviefinder/internal/loadable"
)

// Record is the state of a detail load.
type Record = loadable.Loadable[*directory.FullRecord]

// Snapshot is a copy of the loader state handed to listeners.
type Snapshot struct {
	ID    string
	State Record
}

// Listener receives every published snapshot, on the loader's loop.
type Listener func(Snapshot)

type listenerEntry struct {
	id uint64
	fn Listener
}

// Loader fetches one full record at a time. A failed load is not retried;
// call Load again.
type Loader struct {
	dir    directory.Directory
	loop   *eventloop.Loop
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	listeners    []listenerEntry
	nextListener uint64

	// loop-owned
	id       string
	state    Record
	inFlight bool
	started  bool
	closed   bool
}

// NewLoader creates a loader running on loop.
func NewLoader(dir directory.Directory, loop *eventloop.Loop, logger zerolog.Logger) *Loader {
	ctx, cancel := context.WithCancel(context.Background())
	return &Loader{
		dir:    dir,
		loop:   loop,
		logger: logger.With().Str("component", "detail").Logger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Load fetches the record for id. Listeners see Loading before Load
// returns. While a load is in flight further calls are ignored.
func (l *Loader) Load(id string) error {
	return l.loop.Do(func() { l.load(id) })
}

// Snapshot returns the current state. ok is false if nothing was loaded yet.
func (l *Loader) Snapshot() (snap Snapshot, ok bool, err error) {
	err = l.loop.Do(func() {
		snap, ok = l.snapshot(), l.started
	})
	return snap, ok, err
}

// Subscribe registers fn for every future snapshot. Listeners must not call
// back into the loader synchronously. The returned func removes fn.
func (l *Loader) Subscribe(fn Listener) (unsubscribe func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextListener++
	id := l.nextListener
	l.listeners = append(l.listeners, listenerEntry{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.listeners = slices.DeleteFunc(l.listeners, func(e listenerEntry) bool { return e.id == id })
		})
	}
}

// Close abandons any in-flight load and drops all listeners.
func (l *Loader) Close() {
	l.cancel()
	_ = l.loop.Do(func() { l.closed = true })

	l.mu.Lock()
	l.listeners = nil
	l.mu.Unlock()
}

func (l *Loader) load(id string) {
	if l.closed || l.inFlight {
		return
	}

	l.id = id
	l.inFlight = true
	l.started = true
	l.state = loadable.Loading[*directory.FullRecord]()
	l.publish()

	l.logger.Debug().Str("imdbId", id).Msg("Loading title detail")
	go func() {
		record, err := l.dir.FetchByID(l.ctx, id)
		l.loop.Post(func() { l.complete(record, err) })
	}()
}

func (l *Loader) complete(record *directory.FullRecord, err error) {
	if l.closed {
		return
	}
	l.inFlight = false

	if err != nil {
		l.logger.Warn().Err(err).Str("imdbId", l.id).Msg("Title detail failed")
		l.state = loadable.Failed[*directory.FullRecord](err)
	} else {
		l.state = loadable.Loaded(record)
	}
	l.publish()
}

func (l *Loader) snapshot() Snapshot {
	return Snapshot{
		ID:    l.id,
		State: loadable.Map(l.state, (*directory.FullRecord).Clone),
	}
}

func (l *Loader) publish() {
	l.mu.Lock()
	listeners := slices.Clone(l.listeners)
	l.mu.Unlock()

	for _, e := range listeners {
		e.fn(l.snapshot())
	}
}

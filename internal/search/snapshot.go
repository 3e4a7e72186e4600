package search

import (
	"slices"

	"github.com/moviefinder/moviefinder/internal/directory"
	"github.com/moviefinder/moviefinder/internal/loadable"
)

// Results is the state of one page of a search.
type Results = loadable.Loadable[[]directory.SearchResult]

// Snapshot is a copy of the current search session handed to listeners.
type Snapshot struct {
	SessionID      uint64
	Query          string
	Page           int
	State          Results
	HasMoreContent bool
	// Appends is set for pages after the first: their results extend
	// what the previous snapshots of the same session showed.
	Appends bool
}

// Listener receives every published snapshot, on the coordinator's loop.
type Listener func(Snapshot)

// session is the coordinator-owned state of one query.
type session struct {
	id      uint64
	query   string
	page    int
	state   Results
	hasMore bool
}

func (s *session) snapshot(initialPage int) Snapshot {
	return Snapshot{
		SessionID:      s.id,
		Query:          s.query,
		Page:           s.page,
		State:          loadable.Map(s.state, cloneResults),
		HasMoreContent: s.hasMore,
		Appends:        s.page != initialPage,
	}
}

func cloneResults(r []directory.SearchResult) []directory.SearchResult {
	return slices.Clone(r)
}

package session

import (
	"github.com/moviefinder/moviefinder/internal/detail"
	"github.com/moviefinder/moviefinder/internal/directory"
	"github.com/moviefinder/moviefinder/internal/loadable"
	"github.com/moviefinder/moviefinder/internal/search"
)

// Message types exchanged with a client.
const (
	MsgSearchQuery = "search:query"
	MsgSearchNext  = "search:next"
	MsgDetailLoad  = "detail:load"

	MsgSearchState = "search:state"
	MsgDetailState = "detail:state"
	MsgError       = "session:error"
)

// QueryPayload is the payload of search:query.
type QueryPayload struct {
	Text string `json:"text"`
}

// DetailPayload is the payload of detail:load.
type DetailPayload struct {
	ID string `json:"imdbId"`
}

// ErrorPayload is the payload of session:error.
type ErrorPayload struct {
	Type  string `json:"type,omitempty"`
	Error string `json:"error"`
}

// SearchState is the payload of search:state.
type SearchState struct {
	SessionID      uint64                   `json:"sessionId"`
	Query          string                   `json:"query"`
	Page           int                      `json:"page"`
	Status         loadable.Status          `json:"status"`
	Results        []directory.SearchResult `json:"results,omitempty"`
	Error          string                   `json:"error,omitempty"`
	HasMoreContent bool                     `json:"hasMoreContent"`
	Appends        bool                     `json:"appends"`
}

// DetailState is the payload of detail:state.
type DetailState struct {
	ID       string                `json:"imdbId"`
	Status   loadable.Status       `json:"status"`
	Record   *directory.FullRecord `json:"record,omitempty"`
	Sections []directory.Section   `json:"sections,omitempty"`
	Error    string                `json:"error,omitempty"`
}

func newSearchState(s search.Snapshot) SearchState {
	st := SearchState{
		SessionID:      s.SessionID,
		Query:          s.Query,
		Page:           s.Page,
		Status:         s.State.Status(),
		HasMoreContent: s.HasMoreContent,
		Appends:        s.Appends,
	}
	return loadable.Match(s.State,
		func() SearchState { return st },
		func(results []directory.SearchResult) SearchState {
			st.Results = results
			if st.Results == nil {
				st.Results = []directory.SearchResult{}
			}
			return st
		},
		func(err error) SearchState {
			st.Error = err.Error()
			return st
		},
	)
}

func newDetailState(s detail.Snapshot) DetailState {
	st := DetailState{ID: s.ID, Status: s.State.Status()}
	return loadable.Match(s.State,
		func() DetailState { return st },
		func(rec *directory.FullRecord) DetailState {
			st.Record = rec
			if rec != nil {
				st.Sections = rec.Sections()
			}
			return st
		},
		func(err error) DetailState {
			st.Error = err.Error()
			return st
		},
	)
}

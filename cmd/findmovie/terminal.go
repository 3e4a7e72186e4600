package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/moviefinder/moviefinder/internal/directory"
	"github.com/moviefinder/moviefinder/internal/loadable"
	"github.com/moviefinder/moviefinder/internal/session"
)

// terminal renders session messages as text.
type terminal struct {
	mu      sync.Mutex
	out     io.Writer
	results []directory.SearchResult
}

func (t *terminal) Send(msgType string, payload any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch p := payload.(type) {
	case session.SearchState:
		t.renderSearch(p)
	case session.DetailState:
		t.renderDetail(p)
	case session.ErrorPayload:
		fmt.Fprintf(t.out, "error: %s\n", p.Error)
	default:
		return fmt.Errorf("unexpected %s message", msgType)
	}
	return nil
}

func (t *terminal) renderSearch(s session.SearchState) {
	if s.Query == "" {
		t.results = nil
		return
	}
	switch s.Status {
	case loadable.StatusLoading:
		fmt.Fprintf(t.out, "Searching %q (page %d)...\n", s.Query, s.Page)
	case loadable.StatusFailed:
		fmt.Fprintf(t.out, "Search failed: %s (:next to retry)\n", s.Error)
	case loadable.StatusLoaded:
		if !s.Appends {
			t.results = nil
		}
		if len(s.Results) == 0 && len(t.results) == 0 {
			fmt.Fprintf(t.out, "No titles match %q\n", s.Query)
			return
		}
		for _, r := range s.Results {
			t.results = append(t.results, r)
			fmt.Fprintf(t.out, "%3d. %s (%s) [%s]\n", len(t.results), r.Title, r.Year, r.Kind)
		}
		if s.HasMoreContent {
			fmt.Fprintln(t.out, "     :next for more")
		}
	}
}

func (t *terminal) renderDetail(d session.DetailState) {
	switch d.Status {
	case loadable.StatusLoading:
		fmt.Fprintf(t.out, "Loading %s...\n", d.ID)
	case loadable.StatusFailed:
		fmt.Fprintf(t.out, "Could not load %s: %s\n", d.ID, d.Error)
	case loadable.StatusLoaded:
		if d.Record == nil {
			return
		}
		fmt.Fprintf(t.out, "\n%s (%s)\n", d.Record.Title, d.Record.Year)
		for _, sec := range d.Sections {
			fmt.Fprintf(t.out, "  %s\n", sec.Title)
			for _, f := range sec.Fields {
				if directory.IsKnown(f.Value) {
					fmt.Fprintf(t.out, "    %-12s %s\n", f.Name+":", f.Value)
				}
			}
		}
		fmt.Fprintln(t.out)
	}
}

// resultID returns the identifier of the nth (1-based) listed result.
func (t *terminal) resultID(n int) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n < 1 || n > len(t.results) {
		return "", false
	}
	return t.results[n-1].ID, true
}

func (t *terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

func payload(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

// Package session binds one client connection to its own search
// coordinator and detail loader.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/moviefinder/moviefinder/internal/detail"
	"github.com/moviefinder/moviefinder/internal/directory"
	"github.com/moviefinder/moviefinder/internal/eventloop"
	"github.com/moviefinder/moviefinder/internal/search"
)

var (
	ErrUnknownMessage = errors.New("unknown message type")
	ErrInvalidPayload = errors.New("invalid payload")
	ErrClosed         = errors.New("session closed")
)

// Sender delivers typed messages to the client. Send is called from the
// session's event loop and must not block.
type Sender interface {
	Send(msgType string, payload any) error
}

// Session is the per-client search state.
type Session struct {
	loop   *eventloop.Loop
	search *search.Coordinator
	detail *detail.Loader
	sender Sender
	logger zerolog.Logger

	unsubscribe []func()
	closeOnce   sync.Once
}

// New starts a session. Every state change is pushed to sender.
func New(dir directory.Directory, sender Sender, cfg search.Config, logger zerolog.Logger, opts ...search.Option) *Session {
	loop := eventloop.New()
	go loop.Run(context.Background())

	s := &Session{
		loop:   loop,
		search: search.New(dir, loop, cfg, logger, opts...),
		detail: detail.NewLoader(dir, loop, logger),
		sender: sender,
		logger: logger.With().Str("component", "session").Logger(),
	}

	s.unsubscribe = append(s.unsubscribe,
		s.search.Subscribe(func(snap search.Snapshot) {
			s.send(MsgSearchState, newSearchState(snap))
		}),
		s.detail.Subscribe(func(snap detail.Snapshot) {
			s.send(MsgDetailState, newDetailState(snap))
		}),
	)
	return s
}

// Handle dispatches one client message. Malformed messages are answered
// with a session:error and the error is returned.
func (s *Session) Handle(msgType string, payload json.RawMessage) error {
	err := s.handle(msgType, payload)
	if err != nil && !errors.Is(err, ErrClosed) {
		s.send(MsgError, ErrorPayload{Type: msgType, Error: err.Error()})
	}
	return err
}

func (s *Session) handle(msgType string, payload json.RawMessage) error {
	switch msgType {
	case MsgSearchQuery:
		var p QueryPayload
		if err := decode(payload, &p); err != nil {
			return err
		}
		return s.wrap(s.search.SetQueryText(p.Text))

	case MsgSearchNext:
		return s.wrap(s.search.TriggerNextPage())

	case MsgDetailLoad:
		var p DetailPayload
		if err := decode(payload, &p); err != nil {
			return err
		}
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return fmt.Errorf("%w: imdbId is required", ErrInvalidPayload)
		}
		return s.wrap(s.detail.Load(id))

	default:
		return fmt.Errorf("%w: %q", ErrUnknownMessage, msgType)
	}
}

// SearchSnapshot returns the current search state.
func (s *Session) SearchSnapshot() (SearchState, error) {
	snap, err := s.search.Snapshot()
	if err != nil {
		return SearchState{}, s.wrap(err)
	}
	return newSearchState(snap), nil
}

// Close stops the session. Pending responses are dropped.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		for _, unsub := range s.unsubscribe {
			unsub()
		}
		s.search.Close()
		s.detail.Close()
		s.loop.Stop()
	})
}

func (s *Session) send(msgType string, payload any) {
	if err := s.sender.Send(msgType, payload); err != nil {
		s.logger.Debug().Err(err).Str("type", msgType).Msg("Failed to deliver message")
	}
}

func (s *Session) wrap(err error) error {
	if errors.Is(err, eventloop.ErrStopped) {
		return ErrClosed
	}
	return err
}

func decode(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: missing payload", ErrInvalidPayload)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

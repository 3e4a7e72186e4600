// Package loadable provides a tri-state value for data that is fetched
// asynchronously: still loading, loaded with a value, or failed with an error.
package loadable

import (
	"fmt"
)

// Status identifies which state a Loadable is in.
type Status int

const (
	StatusLoading Status = iota
	StatusLoaded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText encodes the status as its lowercase name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Loadable holds exactly one of: Loading, Loaded(V) or Failed(error).
// The zero value is Loading. No transition rules are enforced.
type Loadable[V any] struct {
	status Status
	value  V
	err    error
}

// Loading returns a Loadable in the loading state.
func Loading[V any]() Loadable[V] {
	return Loadable[V]{status: StatusLoading}
}

// Loaded returns a Loadable holding v.
func Loaded[V any](v V) Loadable[V] {
	return Loadable[V]{status: StatusLoaded, value: v}
}

// Failed returns a Loadable holding err.
func Failed[V any](err error) Loadable[V] {
	return Loadable[V]{status: StatusFailed, err: err}
}

// Status reports the current state.
func (l Loadable[V]) Status() Status { return l.status }

func (l Loadable[V]) IsLoading() bool { return l.status == StatusLoading }
func (l Loadable[V]) IsLoaded() bool  { return l.status == StatusLoaded }
func (l Loadable[V]) IsFailed() bool  { return l.status == StatusFailed }

// Value returns the loaded value and true, or the zero value and false.
func (l Loadable[V]) Value() (V, bool) {
	if l.status != StatusLoaded {
		var zero V
		return zero, false
	}
	return l.value, true
}

// Err returns the failure, or nil unless the state is Failed.
func (l Loadable[V]) Err() error {
	if l.status != StatusFailed {
		return nil
	}
	return l.err
}

// Map transforms the loaded value, leaving Loading and Failed untouched.
func Map[V, W any](l Loadable[V], fn func(V) W) Loadable[W] {
	switch l.status {
	case StatusLoaded:
		return Loaded(fn(l.value))
	case StatusFailed:
		return Failed[W](l.err)
	default:
		return Loading[W]()
	}
}

// Match calls exactly one of the three handlers and returns its result.
// Every caller has to supply all three cases.
func Match[V, R any](l Loadable[V], onLoading func() R, onLoaded func(V) R, onFailed func(error) R) R {
	switch l.status {
	case StatusLoaded:
		return onLoaded(l.value)
	case StatusFailed:
		return onFailed(l.err)
	default:
		return onLoading()
	}
}

func (l Loadable[V]) String() string {
	return Match(l,
		func() string { return "Loading" },
		func(v V) string { return fmt.Sprintf("Loaded(%v)", v) },
		func(err error) string { return fmt.Sprintf("Failed(%v)", err) },
	)
}

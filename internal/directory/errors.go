package directory

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the directory has no title with the requested identifier.
	ErrNotFound = errors.New("title not found")
	// ErrNotConfigured means the directory cannot be queried at all, e.g. no API key.
	ErrNotConfigured = errors.New("directory is not configured")
)

// ErrorKind classifies directory failures.
type ErrorKind int

const (
	// KindTransport covers network failures, non-2xx statuses and
	// errors reported by the remote service itself.
	KindTransport ErrorKind = iota
	// KindDecode covers malformed or unexpected payloads.
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is returned by every Directory implementation.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// TransportError wraps err as a transport failure of op.
func TransportError(op string, err error) error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

// DecodeError wraps err as a decoding failure of op.
func DecodeError(op string, err error) error {
	return &Error{Kind: KindDecode, Op: op, Err: err}
}

// KindOf returns the kind of a directory error anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}

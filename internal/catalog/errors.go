package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/sefaaycicek/fakestore/pkg/httpclient"
)

// Kind classifies catalog failures.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindDecoding
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindDecoding:
		return "decoding"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrNetwork  = errors.New("catalog: network error")
	ErrDecoding = errors.New("catalog: decoding error")
	ErrNotFound = errors.New("catalog: not found")
)

// Error is returned by every catalog operation. Message is safe to show to
// shoppers; Err carries the underlying cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("catalog %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("catalog %s: %s: %v", e.Op, e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrDecoding:
		return e.Kind == KindDecoding
	case ErrNotFound:
		return e.Kind == KindNotFound
	}
	return false
}

// classify converts a transport or decode failure into an *Error.
func classify(op string, err error) *Error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}

	var decErr *httpclient.DecodeError
	if errors.As(err, &decErr) {
		return &Error{Kind: KindDecoding, Op: op, Message: "the catalog returned an unexpected response", Err: err}
	}

	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == 404 {
		return &Error{Kind: KindNotFound, Op: op, Message: "product not found", Err: err}
	}

	switch {
	case errors.Is(err, httpclient.ErrCircuitOpen):
		return &Error{Kind: KindNetwork, Op: op, Message: "the catalog is temporarily unavailable", Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindNetwork, Op: op, Message: "the catalog took too long to respond", Err: err}
	}
	return &Error{Kind: KindNetwork, Op: op, Message: "could not reach the catalog", Err: err}
}

// KindOf returns the kind of a catalog error, or 0 when err is not one.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

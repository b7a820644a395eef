package fetch

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// Unreachable covers DNS, connect, timeout and read failures.
	Unreachable Kind = iota + 1
	BadStatus
	Disallowed
)

func (k Kind) String() string {
	switch k {
	case Unreachable:
		return "unreachable"
	case BadStatus:
		return "bad-status"
	case Disallowed:
		return "disallowed"
	}
	return "unknown"
}

// Error is returned by Fetcher.Fetch for every failed GET.
type Error struct {
	Kind       Kind
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == BadStatus {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the fetch failure kind of err, or 0 if err is not a fetch error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}

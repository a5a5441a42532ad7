package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies why a remote call failed.
type Kind int

const (
	KindNetwork Kind = iota
	KindTimeout
	KindCanceled
	KindRemote
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindCanceled:
		return "canceled"
	case KindRemote:
		return "remote"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// CallError is returned by every failing Client method.
type CallError struct {
	Op         string
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *CallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s error: HTTP %d: %v", e.Op, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true for timeouts, network errors and 5xx responses.
// 4xx responses and undecodable payloads are permanent.
func (e *CallError) IsRetryable() bool {
	switch e.Kind {
	case KindNetwork, KindTimeout:
		return true
	case KindRemote:
		return e.StatusCode >= 500
	default:
		return false
	}
}

// IsNotFound reports whether err is a remote 404, which the metadata function
// uses for unknown source ids.
func IsNotFound(err error) bool {
	var ce *CallError
	return errors.As(err, &ce) && ce.Kind == KindRemote && ce.StatusCode == http.StatusNotFound
}

// KindOf returns the failure kind of err, or KindNetwork when err is not a
// *CallError.
func KindOf(err error) Kind {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindNetwork
}

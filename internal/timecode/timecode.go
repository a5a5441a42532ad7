// Package timecode converts human clock strings of the form [[hh:]mm:]ss to
// and from whole seconds.
package timecode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrEmpty          = errors.New("empty time string")
	ErrComponentCount = errors.New("time string must have one to three components")
	ErrMalformed      = errors.New("time component is not a non-negative integer")
	ErrOutOfRange     = errors.New("time component out of range")
)

const (
	maxHours   = 23
	maxMinutes = 59
	maxSeconds = 59
)

// FormatError reports why a time string was rejected. It unwraps to one of the
// package sentinels so callers can use errors.Is.
type FormatError struct {
	Input     string
	Component string
	Err       error
}

func (e *FormatError) Error() string {
	if e.Component == "" {
		return fmt.Sprintf("invalid time %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("invalid time %q: %s: %v", e.Input, e.Component, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// ParseSeconds parses "ss", "mm:ss" or "hh:mm:ss" and returns the total number
// of seconds. Absent leading components are treated as absent, so "10" is ten
// seconds and "1:10" is one minute ten seconds. Every component must lie in its
// clock range (hours 0-23, minutes and seconds 0-59).
func ParseSeconds(text string) (int, error) {
	if text == "" {
		return 0, &FormatError{Input: text, Err: ErrEmpty}
	}

	parts := strings.Split(text, ":")
	if len(parts) > 3 {
		return 0, &FormatError{Input: text, Err: ErrComponentCount}
	}

	names := []string{"hours", "minutes", "seconds"}[3-len(parts):]
	limits := []int{maxHours, maxMinutes, maxSeconds}[3-len(parts):]
	weights := []int{3600, 60, 1}[3-len(parts):]

	total := 0
	for i, part := range parts {
		n, err := parseComponent(part)
		if err != nil {
			return 0, &FormatError{Input: text, Component: names[i], Err: err}
		}
		if n > limits[i] {
			return 0, &FormatError{Input: text, Component: names[i], Err: ErrOutOfRange}
		}
		total += n * weights[i]
	}
	return total, nil
}

func parseComponent(s string) (int, error) {
	if s == "" {
		return 0, ErrMalformed
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrMalformed
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrOutOfRange
	}
	return n, nil
}

// Valid reports whether text parses under ParseSeconds.
func Valid(text string) bool {
	_, err := ParseSeconds(text)
	return err == nil
}

// FormatSeconds renders seconds as zero-padded "hh:mm:ss". Negative input is
// clamped to zero.
func FormatSeconds(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}

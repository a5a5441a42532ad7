// Package validate checks user input before a clip request may be built.
package validate

import (
	"errors"
	"strings"

	"github.com/crosswalk/clipper/internal/timecode"
)

var (
	ErrInvalidStartTime = errors.New("start time is invalid")
	ErrInvalidEndTime   = errors.New("end time is invalid")
	ErrMissingTitle     = errors.New("title is required")
	ErrEndNotAfterStart = errors.New("end time must be after start time")
)

// IsValidSourceID reports whether id is non-empty and consists only of ASCII
// letters, digits, '_' and '-'. No length bound is enforced.
func IsValidSourceID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}

// IsValidTimeString reports whether s is non-empty and parses as a clock time.
func IsValidTimeString(s string) bool {
	return s != "" && timecode.Valid(s)
}

// ValidateSubmission returns nil when the time range and title may be
// submitted, otherwise every problem found joined into one error.
func ValidateSubmission(startTime, endTime, title string) error {
	var errs []error

	startOK := IsValidTimeString(startTime)
	if !startOK {
		errs = append(errs, ErrInvalidStartTime)
	}
	endOK := IsValidTimeString(endTime)
	if !endOK {
		errs = append(errs, ErrInvalidEndTime)
	}
	if strings.TrimSpace(title) == "" {
		errs = append(errs, ErrMissingTitle)
	}

	if startOK && endOK {
		start, _ := timecode.ParseSeconds(startTime)
		end, _ := timecode.ParseSeconds(endTime)
		if end <= start {
			errs = append(errs, ErrEndNotAfterStart)
		}
	}

	return errors.Join(errs...)
}

// SubmissionInvalid mirrors ValidateSubmission with a boolean where true means
// the submission must be blocked.
func SubmissionInvalid(startTime, endTime, title string) bool {
	return ValidateSubmission(startTime, endTime, title) != nil
}

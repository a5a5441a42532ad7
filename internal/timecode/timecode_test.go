package timecode

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseSeconds(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr error
	}{
		{"hh:mm:ss", "01:02:03", 3723, nil},
		{"mm:ss", "02:03", 123, nil},
		{"ss", "03", 3, nil},
		{"seconds only no padding", "10", 10, nil},
		{"mm:ss short", "1:10", 70, nil},
		{"zero", "00:00:00", 0, nil},
		{"max clock", "23:59:59", 86399, nil},

		{"empty", "", 0, ErrEmpty},
		{"hour out of range", "24:00:00", 0, ErrOutOfRange},
		{"minute out of range", "00:60:00", 0, ErrOutOfRange},
		{"second out of range", "00:00:60", 0, ErrOutOfRange},
		{"seconds only out of range", "75", 0, ErrOutOfRange},
		{"too many components", "1:2:3:4", 0, ErrComponentCount},
		{"non numeric", "aa:bb", 0, ErrMalformed},
		{"negative", "-1", 0, ErrMalformed},
		{"empty component", "1::3", 0, ErrMalformed},
		{"trailing colon", "10:", 0, ErrMalformed},
		{"whitespace", " 10", 0, ErrMalformed},
		{"huge numeral", "99999999999999999999999", 0, ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSeconds(tt.input)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseSeconds(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				var fe *FormatError
				if !errors.As(err, &fe) {
					t.Fatalf("ParseSeconds(%q) error type = %T, want *FormatError", tt.input, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseSeconds(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("ParseSeconds(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00:00"},
		{3, "00:00:03"},
		{123, "00:02:03"},
		{3723, "01:02:03"},
		{-5, "00:00:00"},
	}

	for _, tt := range tests {
		if got := FormatSeconds(tt.seconds); got != tt.want {
			t.Errorf("FormatSeconds(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestRoundTrip_Canonical(t *testing.T) {
	for h := 0; h <= 23; h += 7 {
		for m := 0; m <= 59; m += 13 {
			for s := 0; s <= 59; s += 11 {
				in := fmt.Sprintf("%d:%d:%d", h, m, s)
				canonical := fmt.Sprintf("%02d:%02d:%02d", h, m, s)

				secs, err := ParseSeconds(in)
				if err != nil {
					t.Fatalf("ParseSeconds(%q) unexpected error: %v", in, err)
				}
				if got := FormatSeconds(secs); got != canonical {
					t.Fatalf("FormatSeconds(ParseSeconds(%q)) = %q, want %q", in, got, canonical)
				}
			}
		}
	}
}

func TestFormatError_Message(t *testing.T) {
	_, err := ParseSeconds("24:00:00")
	if err == nil {
		t.Fatal("expected error")
	}
	want := `invalid time "24:00:00": hours: time component out of range`
	if err.Error() != want {
		t.Fatalf("error = %q, want %q", err.Error(), want)
	}
}

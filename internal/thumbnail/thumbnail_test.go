package thumbnail

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeName_ControlChars(t *testing.T) {
	got := SanitizeName(" A\nB\rC\tD\x00.png ", 100)
	if strings.ContainsAny(got, "\n\r\t\x00") {
		t.Fatalf("sanitize output contains control chars: %q", got)
	}
	if got != "ABCD.png" {
		t.Fatalf("SanitizeName control char behavior mismatch, got %q", got)
	}
}

func TestSanitizeName_ReplacesDisallowed(t *testing.T) {
	got := SanitizeName("bad<>|\"name.jpg", 100)
	if got != "bad____name.jpg" {
		t.Fatalf("SanitizeName disallowed replacement mismatch: got %q", got)
	}
}

func TestSanitizeName_MaxLength(t *testing.T) {
	got := SanitizeName("abcdefghijklmnopqrstuvwxyz", 10)
	if len([]rune(got)) != 10 {
		t.Fatalf("expected length 10, got %d (%q)", len([]rune(got)), got)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		data     []byte
		wantErr  error
		wantName string
	}{
		{"png", "cover.png", []byte{1, 2, 3}, nil, "cover.png"},
		{"upper jpeg", "Cover.JPEG", []byte{1}, nil, "Cover.JPEG"},
		{"path stripped", "/home/u/pics/a b.jpg", []byte{1}, nil, "a b.jpg"},
		{"gif rejected", "anim.gif", []byte{1}, ErrUnsupportedType, ""},
		{"no extension", "cover", []byte{1}, ErrUnsupportedType, ""},
		{"empty data", "cover.png", nil, ErrEmpty, ""},
		{"too large", "cover.png", make([]byte, MaxBytes+1), ErrTooLarge, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.fileName, tt.data)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() unexpected error: %v", err)
			}
			if got.Name != tt.wantName {
				t.Fatalf("Name = %q, want %q", got.Name, tt.wantName)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thumb.png")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	thumb, err := Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if thumb.Name != "thumb.png" {
		t.Fatalf("Name = %q, want %q", thumb.Name, "thumb.png")
	}
	if thumb.Base64() != "aGVsbG8=" {
		t.Fatalf("Base64() = %q, want %q", thumb.Base64(), "aGVsbG8=")
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_UnsupportedType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	os.WriteFile(path, []byte("x"), 0644)

	if _, err := Load(path); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("Load() error = %v, want %v", err, ErrUnsupportedType)
	}
}

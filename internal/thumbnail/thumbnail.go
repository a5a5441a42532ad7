// Package thumbnail loads and sanitises user-selected thumbnail images.
package thumbnail

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

const (
	MaxBytes   = 10 << 20
	maxNameLen = 120
)

var (
	ErrUnsupportedType = errors.New("thumbnail must be a .jpg, .jpeg or .png file")
	ErrTooLarge        = errors.New("thumbnail exceeds 10 MiB")
	ErrEmpty           = errors.New("thumbnail is empty")
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Thumbnail is an image attached to a clip request. Data is kept raw and only
// base64-encoded when handed to the backend.
type Thumbnail struct {
	Name string
	Data []byte
}

// Base64 returns the standard base64 encoding of the image bytes.
func (t Thumbnail) Base64() string {
	return base64.StdEncoding.EncodeToString(t.Data)
}

// New validates name and data and returns a Thumbnail with a sanitised name.
func New(name string, data []byte) (Thumbnail, error) {
	if !allowedExtensions[strings.ToLower(filepath.Ext(name))] {
		return Thumbnail{}, ErrUnsupportedType
	}
	if len(data) == 0 {
		return Thumbnail{}, ErrEmpty
	}
	if len(data) > MaxBytes {
		return Thumbnail{}, ErrTooLarge
	}
	return Thumbnail{Name: SanitizeName(filepath.Base(name), maxNameLen), Data: data}, nil
}

// Load reads the image at path.
func Load(path string) (Thumbnail, error) {
	if !allowedExtensions[strings.ToLower(filepath.Ext(path))] {
		return Thumbnail{}, ErrUnsupportedType
	}

	info, err := os.Stat(path)
	if err != nil {
		return Thumbnail{}, fmt.Errorf("stat thumbnail: %w", err)
	}
	if info.IsDir() {
		return Thumbnail{}, fmt.Errorf("thumbnail path is a directory")
	}
	if info.Size() > MaxBytes {
		return Thumbnail{}, ErrTooLarge
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Thumbnail{}, fmt.Errorf("read thumbnail: %w", err)
	}
	return New(filepath.Base(path), data)
}

// SanitizeName drops control characters, replaces anything outside letters,
// digits and " -_.,()" with '_', and truncates to maxLen runes.
func SanitizeName(s string, maxLen int) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		if isAllowedNameRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	cleaned := strings.TrimSpace(b.String())
	if maxLen > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxLen {
			cleaned = string(runes[:maxLen])
		}
	}
	return cleaned
}

func isAllowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case ' ', '-', '_', '.', ',', '(', ')':
		return true
	default:
		return false
	}
}

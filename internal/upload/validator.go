// Package upload validates incoming files before any expensive work runs.
package upload

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrMissingFile          = errors.New("no file selected")
	ErrUnsupportedExtension = errors.New("file type not allowed")
	ErrUnsupportedMimeType  = errors.New("MIME type not allowed")
	ErrFileTooLarge         = errors.New("file size exceeds maximum")
)

// Validator checks uploads against a fixed set of allowed extensions,
// declared content types, and a maximum byte size. Immutable after New.
type Validator struct {
	extensions map[string]bool
	mimeTypes  map[string]bool
	maxSize    int64
}

// New builds a Validator. Extensions are matched case-insensitively and
// must include the leading dot.
func New(extensions, mimeTypes []string, maxSize int64) *Validator {
	v := &Validator{
		extensions: make(map[string]bool, len(extensions)),
		mimeTypes:  make(map[string]bool, len(mimeTypes)),
		maxSize:    maxSize,
	}
	for _, ext := range extensions {
		v.extensions[strings.ToLower(ext)] = true
	}
	for _, mt := range mimeTypes {
		v.mimeTypes[mt] = true
	}
	return v
}

// MaxSize returns the configured upload limit in bytes.
func (v *Validator) MaxSize() int64 { return v.maxSize }

// Validate checks filename presence, extension, declared content type, and
// size, in that order; the first failing check wins. A negative size means
// the byte length is not yet known and the size check is skipped. Validate
// never inspects file contents.
func (v *Validator) Validate(filename, contentType string, size int64) error {
	if filename == "" {
		return ErrMissingFile
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !v.extensions[ext] {
		return fmt.Errorf("%w: %s (allowed: %s)", ErrUnsupportedExtension, ext, strings.Join(v.allowedExtensions(), ", "))
	}

	if !v.mimeTypes[contentType] {
		return fmt.Errorf("%w: %s", ErrUnsupportedMimeType, contentType)
	}

	if size >= 0 && size > v.maxSize {
		return fmt.Errorf("%w of %dMB", ErrFileTooLarge, v.maxSize>>20)
	}

	return nil
}

func (v *Validator) allowedExtensions() []string {
	out := make([]string, 0, len(v.extensions))
	for ext := range v.extensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Package engine maps image bytes to probability vectors over a fixed,
// ordered label set.
package engine

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable reports that the inference runtime could not be
	// initialized or has been shut down.
	ErrUnavailable = errors.New("inference engine unavailable")
	// ErrDecode reports that the uploaded bytes could not be turned into
	// the model's expected input.
	ErrDecode = errors.New("could not decode image")
)

// Classifier is the inference contract the request pipeline depends on.
// The returned vector is aligned to the engine's ordered label set; each
// entry is a score in [0,1]. A single failed call surfaces immediately —
// no retries.
type Classifier interface {
	Classify(ctx context.Context, imageBytes []byte) ([]float32, error)
	Labels() []string
}

// Package store persists prediction records and serves paginated history.
package store

import (
	"context"
	"errors"

	"github.com/agriscan/agriscan-api/internal/model"
)

// ErrUnavailable reports that the underlying storage is unreachable.
var ErrUnavailable = errors.New("prediction store unavailable")

// Store persists one record per successful classification and answers
// paginated, newest-first history queries.
//
// Insert generates a process-wide-unique identifier, writes the record as a
// single atomic append, and returns the identifier. Records are never
// updated or deleted.
//
// History returns up to limit records ordered by timestamp descending,
// skipping the first skip records, plus a total count of all records. The
// count is computed independently of the page fetch, so under concurrent
// inserts the two are not guaranteed to be mutually consistent. A skip
// beyond the available count yields an empty page, not an error.
type Store interface {
	Insert(ctx context.Context, rec model.PredictionRecord) (string, error)
	History(ctx context.Context, limit, skip int) ([]model.PredictionRecord, int64, error)
}

package repository

import (
	"context"

	"docchat-service/internal/domain/model"
)

// SessionTable is the process-wide concurrent session store. Implementations
// serialize structural mutation behind a single timed exclusion guard;
// acquisition failures surface domain.ErrLockTimeout rather than blocking.
type SessionTable interface {
	// Create inserts a fresh empty record, evicting oldest records first
	// when the table is at capacity, and returns its id.
	Create(ctx context.Context) (string, error)

	// Get returns a snapshot of the record. An expired record is deleted on
	// access and reported absent. A live record is touched (last activity
	// refreshed, access counter bumped) before the snapshot is taken.
	Get(ctx context.Context, id string) (*model.SessionRecord, error)

	// Validate reports whether the id resolves to a live record.
	Validate(ctx context.Context, id string) bool

	// Delete removes the record and releases its index handle best-effort.
	// Deleting an absent id returns false, never an error.
	Delete(ctx context.Context, id string) (bool, error)

	// InstallIndex atomically swaps the record's index handle: the old
	// handle is released, document metadata updated, history cleared. The
	// caller keeps ownership of idx if the install fails.
	InstallIndex(ctx context.Context, id string, idx model.IndexHandle, documentName string, chunkCount int) error

	// ClearDocument drops the record's document state after an irrecoverable
	// ingestion failure: handle released, ready forced false.
	ClearDocument(ctx context.Context, id string) error

	// AppendExchange appends one question/answer pair to the record's
	// bounded history and touches the record.
	AppendExchange(ctx context.Context, id, question, answer string) error

	Len() int
	Stats(ctx context.Context) (model.TableStats, error)

	// CleanupExpired sweeps records past their ttl, returning the count removed.
	CleanupExpired(ctx context.Context) (int, error)

	// EvictOldest removes the oldest fraction (by last activity, at least
	// one when any exist) of records, returning the count removed.
	EvictOldest(ctx context.Context, fraction float64) (int, error)

	// Shutdown drains every record under the extended lock timeout.
	Shutdown(ctx context.Context) (int, error)
}

package memory

import (
	"context"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"docchat-service/internal/config"
	"docchat-service/internal/domain"
	"docchat-service/internal/domain/model"
	"docchat-service/internal/domain/ports/repository"
	"docchat-service/internal/infra/logging"
	"docchat-service/internal/infra/metrics"
)

// Compile-time check
var _ repository.SessionTable = (*Table)(nil)

// Table is the in-process session store. One timed exclusion guard
// serializes every structural mutation; readers receive snapshot copies so
// nothing outside this package touches a live record.
type Table struct {
	mu              *timedMutex
	sessions        map[string]*model.SessionRecord
	count           atomic.Int64
	capacity        int
	ttl             time.Duration
	historyLimit    int
	lockTimeout     time.Duration
	shutdownTimeout time.Duration
	log             *zerolog.Logger
}

func NewTable(cfg config.SessionConfig, logger *zerolog.Logger) *Table {
	l := logger.With().Str("component", "SessionTable").Logger()
	return &Table{
		mu:              newTimedMutex(),
		sessions:        make(map[string]*model.SessionRecord),
		capacity:        cfg.Capacity,
		ttl:             cfg.TTL(),
		historyLimit:    cfg.HistoryLimit,
		lockTimeout:     cfg.LockTimeout(),
		shutdownTimeout: cfg.ShutdownLockTimeout(),
		log:             &l,
	}
}

func (t *Table) lock(ctx context.Context, timeout time.Duration) error {
	if err := t.mu.Lock(ctx, timeout); err != nil {
		if err == domain.ErrLockTimeout {
			metrics.IncLockTimeout()
		}
		return err
	}
	return nil
}

// Create inserts a fresh empty record and returns its id. When the table is
// at capacity the least-recently-active records are evicted first, so the
// insert always succeeds.
func (t *Table) Create(ctx context.Context) (string, error) {
	if err := t.lock(ctx, t.lockTimeout); err != nil {
		return "", err
	}
	defer t.mu.Unlock()

	for len(t.sessions) >= t.capacity {
		id := t.oldestLocked()
		if id == "" {
			break
		}
		t.removeLocked(id, "evicted_capacity")
		t.log.Info().Str("session_id", logging.Redact(id, false)).Msg("capacity eviction")
	}

	id := uuid.NewString()
	t.sessions[id] = model.NewSessionRecord(id)
	t.count.Store(int64(len(t.sessions)))
	metrics.IncSessionCreated()
	metrics.SetSessionsLive(len(t.sessions))
	t.log.Debug().Str("session_id", logging.Redact(id, false)).Msg("session created")
	return id, nil
}

// Get returns a snapshot of the record after touching it. Expired records
// are deleted on access and reported absent.
func (t *Table) Get(ctx context.Context, id string) (*model.SessionRecord, error) {
	if id == "" {
		return nil, domain.ErrSessionNotFound
	}
	if err := t.lock(ctx, t.lockTimeout); err != nil {
		return nil, err
	}
	defer t.mu.Unlock()

	rec, ok := t.liveLocked(id, time.Now())
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	rec.Touch()
	return rec.Clone(), nil
}

// Validate reports whether the id resolves to a live record. The lookup
// touches the record, deliberately extending its lease.
func (t *Table) Validate(ctx context.Context, id string) bool {
	if id == "" {
		return false
	}
	_, err := t.Get(ctx, id)
	return err == nil
}

// Delete removes the record if present. Idempotent: the second delete of the
// same id returns false, never an error.
func (t *Table) Delete(ctx context.Context, id string) (bool, error) {
	if err := t.lock(ctx, t.lockTimeout); err != nil {
		return false, err
	}
	defer t.mu.Unlock()

	removed := t.removeLocked(id, "deleted")
	if removed {
		t.log.Debug().Str("session_id", logging.Redact(id, false)).Msg("session deleted")
	}
	return removed, nil
}

// InstallIndex performs the atomic swap: release old handle, install new,
// update document metadata, flip ready, clear history. Everything happens in
// one critical section so no reader observes a half-swapped index. The
// caller keeps ownership of idx when the record is gone.
func (t *Table) InstallIndex(ctx context.Context, id string, idx model.IndexHandle, documentName string, chunkCount int) error {
	if err := t.lock(ctx, t.lockTimeout); err != nil {
		return err
	}
	defer t.mu.Unlock()

	rec, ok := t.liveLocked(id, time.Now())
	if !ok {
		return domain.ErrSessionNotFound
	}

	if rec.Index != nil {
		if err := rec.Index.Release(); err != nil {
			t.log.Warn().Err(err).Str("session_id", logging.Redact(id, false)).Msg("release of replaced index failed")
		}
	}
	rec.Index = idx
	rec.DocumentName = documentName
	rec.ChunkCount = chunkCount
	rec.Ready = true
	rec.History = rec.History[:0]
	rec.LastActiveAt = time.Now()
	t.log.Info().
		Str("session_id", logging.Redact(id, false)).
		Str("document", documentName).
		Int("chunks", chunkCount).
		Msg("index installed")
	return nil
}

// ClearDocument drops the record's document state after an irrecoverable
// ingestion failure. Ready is forced false; history is kept.
func (t *Table) ClearDocument(ctx context.Context, id string) error {
	if err := t.lock(ctx, t.lockTimeout); err != nil {
		return err
	}
	defer t.mu.Unlock()

	rec, ok := t.liveLocked(id, time.Now())
	if !ok {
		return domain.ErrSessionNotFound
	}
	if rec.Index != nil {
		if err := rec.Index.Release(); err != nil {
			t.log.Warn().Err(err).Str("session_id", logging.Redact(id, false)).Msg("release of cleared index failed")
		}
		rec.Index = nil
	}
	rec.Ready = false
	return nil
}

// AppendExchange appends one question/answer pair to the bounded history and
// refreshes the activity timestamp.
func (t *Table) AppendExchange(ctx context.Context, id, question, answer string) error {
	if err := t.lock(ctx, t.lockTimeout); err != nil {
		return err
	}
	defer t.mu.Unlock()

	rec, ok := t.liveLocked(id, time.Now())
	if !ok {
		return domain.ErrSessionNotFound
	}
	rec.AppendExchange(question, answer, t.historyLimit)
	rec.LastActiveAt = time.Now()
	return nil
}

// Len reports the current record count without taking the lock.
func (t *Table) Len() int {
	return int(t.count.Load())
}

// Stats aggregates counters under a read-consistent snapshot. Unlike Get,
// collecting stats does not extend any session's lease.
func (t *Table) Stats(ctx context.Context) (model.TableStats, error) {
	if err := t.lock(ctx, t.lockTimeout); err != nil {
		return model.TableStats{}, err
	}
	defer t.mu.Unlock()

	now := time.Now()
	st := model.TableStats{Total: len(t.sessions)}
	for _, rec := range t.sessions {
		if !rec.IsExpired(now, t.ttl) {
			st.Active++
		}
		if rec.Index != nil {
			st.WithDocuments++
			st.TotalChunks += rec.ChunkCount
		}
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	st.MemoryMB = float64(ms.HeapAlloc) / (1 << 20)
	return st, nil
}

// CleanupExpired sweeps every record past its ttl.
func (t *Table) CleanupExpired(ctx context.Context) (int, error) {
	if err := t.lock(ctx, t.lockTimeout); err != nil {
		return 0, err
	}
	defer t.mu.Unlock()

	now := time.Now()
	var expired []string
	for id, rec := range t.sessions {
		if rec.IsExpired(now, t.ttl) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		t.removeLocked(id, "expired")
	}
	if len(expired) > 0 {
		t.log.Info().Int("count", len(expired)).Msg("expired sessions removed")
	}
	return len(expired), nil
}

// EvictOldest removes the oldest fraction of records by last activity,
// at least one when any exist.
func (t *Table) EvictOldest(ctx context.Context, fraction float64) (int, error) {
	if err := t.lock(ctx, t.lockTimeout); err != nil {
		return 0, err
	}
	defer t.mu.Unlock()

	total := len(t.sessions)
	if total == 0 {
		return 0, nil
	}
	n := int(float64(total) * fraction)
	if n < 1 {
		n = 1
	}
	if n > total {
		n = total
	}

	type entry struct {
		id         string
		lastActive time.Time
	}
	order := make([]entry, 0, total)
	for id, rec := range t.sessions {
		order = append(order, entry{id: id, lastActive: rec.LastActiveAt})
	}
	sort.Slice(order, func(i, j int) bool { return order[i].lastActive.Before(order[j].lastActive) })

	for _, e := range order[:n] {
		t.removeLocked(e.id, "evicted_memory")
	}
	t.log.Warn().Int("count", n).Int("remaining", len(t.sessions)).Msg("memory pressure eviction")
	return n, nil
}

// Shutdown drains every record under the extended lock timeout, releasing
// all index handles.
func (t *Table) Shutdown(ctx context.Context) (int, error) {
	if err := t.lock(ctx, t.shutdownTimeout); err != nil {
		return 0, err
	}
	defer t.mu.Unlock()

	n := len(t.sessions)
	for id := range t.sessions {
		t.removeLocked(id, "shutdown")
	}
	t.log.Info().Int("count", n).Msg("session table drained")
	return n, nil
}

// liveLocked resolves id to a non-expired record, deleting it inline when
// the ttl has lapsed. Callers must hold the lock.
func (t *Table) liveLocked(id string, now time.Time) (*model.SessionRecord, bool) {
	rec, ok := t.sessions[id]
	if !ok {
		return nil, false
	}
	if rec.IsExpired(now, t.ttl) {
		t.removeLocked(id, "expired")
		return nil, false
	}
	return rec, true
}

// removeLocked deletes the record and releases its index handle best-effort.
// A failed release is logged and never blocks removal.
func (t *Table) removeLocked(id, reason string) bool {
	rec, ok := t.sessions[id]
	if !ok {
		return false
	}
	delete(t.sessions, id)
	if rec.Index != nil {
		if err := rec.Index.Release(); err != nil {
			t.log.Warn().Err(err).Str("session_id", logging.Redact(id, false)).Msg("index release failed")
		}
		rec.Index = nil
	}
	t.count.Store(int64(len(t.sessions)))
	metrics.IncSessionsRemoved(reason, 1)
	metrics.SetSessionsLive(len(t.sessions))
	return true
}

// oldestLocked returns the id with the oldest last activity, or "".
func (t *Table) oldestLocked() string {
	var oldestID string
	var oldest time.Time
	for id, rec := range t.sessions {
		if oldestID == "" || rec.LastActiveAt.Before(oldest) {
			oldestID = id
			oldest = rec.LastActiveAt
		}
	}
	return oldestID
}

package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"docchat-service/internal/domain"
	"docchat-service/internal/domain/model"
)

// memTable is a small in-memory session table used by unit tests. It honors
// the port's touch/snapshot contracts without the production lock machinery.
type memTable struct {
	mu           sync.Mutex
	store        map[string]*model.SessionRecord
	ttl          time.Duration
	historyLimit int

	getErr     error // simulate lookup failures
	installErr error // simulate a dead session at install time
}

func newMemTable() *memTable {
	return &memTable{
		store:        make(map[string]*model.SessionRecord),
		ttl:          30 * time.Minute,
		historyLimit: 10,
	}
}

func (m *memTable) Create(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.store[id] = model.NewSessionRecord(id)
	return id, nil
}

func (m *memTable) Get(ctx context.Context, id string) (*model.SessionRecord, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.store[id]
	if !ok || rec.IsExpired(time.Now(), m.ttl) {
		delete(m.store, id)
		return nil, domain.ErrSessionNotFound
	}
	rec.Touch()
	return rec.Clone(), nil
}

func (m *memTable) Validate(ctx context.Context, id string) bool {
	if id == "" {
		return false
	}
	_, err := m.Get(ctx, id)
	return err == nil
}

func (m *memTable) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.store[id]
	if !ok {
		return false, nil
	}
	delete(m.store, id)
	if rec.Index != nil {
		_ = rec.Index.Release()
	}
	return true, nil
}

func (m *memTable) InstallIndex(ctx context.Context, id string, idx model.IndexHandle, documentName string, chunkCount int) error {
	if m.installErr != nil {
		return m.installErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.store[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if rec.Index != nil {
		_ = rec.Index.Release()
	}
	rec.Index = idx
	rec.DocumentName = documentName
	rec.ChunkCount = chunkCount
	rec.Ready = true
	rec.History = rec.History[:0]
	return nil
}

func (m *memTable) ClearDocument(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.store[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if rec.Index != nil {
		_ = rec.Index.Release()
		rec.Index = nil
	}
	rec.Ready = false
	return nil
}

func (m *memTable) AppendExchange(ctx context.Context, id, question, answer string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.store[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	rec.AppendExchange(question, answer, m.historyLimit)
	return nil
}

func (m *memTable) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store)
}

func (m *memTable) Stats(ctx context.Context) (model.TableStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := model.TableStats{Total: len(m.store)}
	now := time.Now()
	for _, rec := range m.store {
		if !rec.IsExpired(now, m.ttl) {
			st.Active++
		}
		if rec.Index != nil {
			st.WithDocuments++
			st.TotalChunks += rec.ChunkCount
		}
	}
	return st, nil
}

func (m *memTable) CleanupExpired(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	removed := 0
	for id, rec := range m.store {
		if rec.IsExpired(now, m.ttl) {
			delete(m.store, id)
			removed++
		}
	}
	return removed, nil
}

func (m *memTable) EvictOldest(ctx context.Context, fraction float64) (int, error) {
	return 0, nil
}

func (m *memTable) Shutdown(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.store)
	for id, rec := range m.store {
		if rec.Index != nil {
			_ = rec.Index.Release()
		}
		delete(m.store, id)
	}
	return n, nil
}

// raw returns the live record, bypassing touch. Test inspection only.
func (m *memTable) raw(id string) *model.SessionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store[id]
}

// fakeHandle counts releases and serves canned search results.
type fakeHandle struct {
	mu       sync.Mutex
	released int
	chunks   []model.Chunk
}

func (f *fakeHandle) Search(ctx context.Context, query string, k int) ([]model.Retrieved, error) {
	out := make([]model.Retrieved, 0, len(f.chunks))
	for _, c := range f.chunks {
		out = append(out, model.Retrieved{Chunk: c, Score: 1})
	}
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (f *fakeHandle) Len() int { return len(f.chunks) }

func (f *fakeHandle) Release() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released++
	return nil
}

func (f *fakeHandle) releaseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released
}

// fakeExtractor returns fixed sections or an error.
type fakeExtractor struct {
	sections []model.Section
	err      error
}

func (f *fakeExtractor) Extract(ctx context.Context, path string) ([]model.Section, error) {
	return f.sections, f.err
}

// fakeChunker emits one chunk per section.
type fakeChunker struct{}

func (fakeChunker) Chunk(sections []model.Section) []model.Chunk {
	out := make([]model.Chunk, 0, len(sections))
	for _, s := range sections {
		out = append(out, model.Chunk{Text: s.Text, Page: s.Page})
	}
	return out
}

// fakeBuilder hands out fakeHandles, remembering the last one built.
type fakeBuilder struct {
	err  error
	last *fakeHandle
}

func (f *fakeBuilder) Build(ctx context.Context, chunks []model.Chunk) (model.IndexHandle, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.last = &fakeHandle{chunks: chunks}
	return f.last, nil
}

// fakeGenerator returns a canned answer or error and records its inputs.
type fakeGenerator struct {
	answer      string
	err         error
	gotQuestion string
	gotHistory  []model.HistoryEntry
}

func (f *fakeGenerator) Generate(ctx context.Context, index model.IndexHandle, question string, history []model.HistoryEntry) (string, error) {
	f.gotQuestion = question
	f.gotHistory = history
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

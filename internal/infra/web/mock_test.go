package web

import (
	"context"
	"fmt"
	"sync"
	"time"

	"docchat-service/internal/domain"
	"docchat-service/internal/domain/model"
)

// fakeEngine backs the handler tests: an in-memory stand-in for the session,
// ingest and query usecases.
type fakeEngine struct {
	mu      sync.Mutex
	nextID  int
	records map[string]*model.SessionInfo

	ingestErr error
	askErr    error
	answer    string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{records: make(map[string]*model.SessionInfo), answer: "stub answer"}
}

func (f *fakeEngine) Create(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("sess-%04d", f.nextID)
	f.records[id] = &model.SessionInfo{ID: id, CreatedAt: time.Now(), LastActive: time.Now()}
	return id, nil
}

func (f *fakeEngine) Info(ctx context.Context, id string) (model.SessionInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return model.SessionInfo{}, domain.ErrSessionNotFound
	}
	rec.AccessCount++
	return *rec, nil
}

func (f *fakeEngine) Validate(ctx context.Context, id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.records[id]
	return ok
}

func (f *fakeEngine) Delete(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.records[id]
	delete(f.records, id)
	return ok, nil
}

func (f *fakeEngine) Stats(ctx context.Context) (model.TableStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := model.TableStats{Total: len(f.records), Active: len(f.records)}
	for _, rec := range f.records {
		if rec.Ready {
			st.WithDocuments++
			st.TotalChunks += rec.ChunkCount
		}
	}
	return st, nil
}

func (f *fakeEngine) Cleanup(ctx context.Context) (int, error) { return 2, nil }

func (f *fakeEngine) Shutdown(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.records)
	f.records = make(map[string]*model.SessionInfo)
	return n, nil
}

func (f *fakeEngine) Ingest(ctx context.Context, id string, data []byte, filename string) (*model.IngestResult, error) {
	if f.ingestErr != nil {
		return nil, f.ingestErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	rec.Filename = filename
	rec.ChunkCount = 3
	rec.Ready = true
	rec.HasDocuments = true
	return &model.IngestResult{Filename: filename, ChunkCount: 3, Ready: true}, nil
}

func (f *fakeEngine) Ask(ctx context.Context, id, question string) (string, error) {
	if f.askErr != nil {
		return "", f.askErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return "", domain.ErrSessionNotFound
	}
	return f.answer, nil
}

// staticHealth reports a fixed reaper state.
type staticHealth bool

func (h staticHealth) Healthy() bool { return bool(h) }

package model

import (
	"context"
	"time"
)

// Retrieved is one similarity hit returned by an index search.
type Retrieved struct {
	Chunk Chunk
	Score float32
}

// IndexHandle is the exclusively owned reference to a document's vector index.
// Exactly one handle is live per session record at any instant; replacing it
// releases the old one. Release is idempotent and a released handle stops
// serving searches.
type IndexHandle interface {
	Search(ctx context.Context, query string, k int) ([]Retrieved, error)
	Len() int
	Release() error
}

// HistoryEntry is one question/answer exchange within a session.
type HistoryEntry struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	AskedAt  time.Time `json:"timestamp"`
}

// SessionRecord is the per-user state bundle: document index, conversation
// history and activity counters. Records are only mutated under the session
// table's exclusion guard; callers receive snapshot copies.
type SessionRecord struct {
	ID           string
	Index        IndexHandle
	DocumentName string
	ChunkCount   int
	Ready        bool
	CreatedAt    time.Time
	LastActiveAt time.Time
	AccessCount  int64
	History      []HistoryEntry
}

func NewSessionRecord(id string) *SessionRecord {
	now := time.Now()
	return &SessionRecord{
		ID:           id,
		CreatedAt:    now,
		LastActiveAt: now,
		History:      make([]HistoryEntry, 0, 8),
	}
}

// Touch refreshes the activity timestamp and bumps the access counter.
func (s *SessionRecord) Touch() {
	s.LastActiveAt = time.Now()
	s.AccessCount++
}

// IsExpired reports whether the record has been inactive longer than ttl.
func (s *SessionRecord) IsExpired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LastActiveAt) > ttl
}

// AppendExchange records a question/answer pair, dropping the oldest entries
// so that at most max remain.
func (s *SessionRecord) AppendExchange(question, answer string, max int) {
	s.History = append(s.History, HistoryEntry{
		Question: question,
		Answer:   answer,
		AskedAt:  time.Now(),
	})
	if max > 0 && len(s.History) > max {
		s.History = s.History[len(s.History)-max:]
	}
}

// RecentHistory returns the last n exchanges in order.
func (s *SessionRecord) RecentHistory(n int) []HistoryEntry {
	if n <= 0 || len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// Clone returns a snapshot copy safe to hand outside the table's lock.
// The index handle is shared; history is deep-copied.
func (s *SessionRecord) Clone() *SessionRecord {
	cp := *s
	cp.History = make([]HistoryEntry, len(s.History))
	copy(cp.History, s.History)
	return &cp
}

// Info summarizes the record for the session info operation.
func (s *SessionRecord) Info(now time.Time, ttl time.Duration) SessionInfo {
	remaining := ttl - now.Sub(s.LastActiveAt)
	if remaining < 0 {
		remaining = 0
	}
	return SessionInfo{
		ID:                 s.ID,
		Filename:           s.DocumentName,
		ChunkCount:         s.ChunkCount,
		HasDocuments:       s.Index != nil,
		Ready:              s.Ready,
		CreatedAt:          s.CreatedAt,
		LastActive:         s.LastActiveAt,
		AccessCount:        s.AccessCount,
		ExpiresInSeconds:   int64(remaining.Seconds()),
		ConversationLength: len(s.History),
	}
}

// SessionInfo is the externally visible view of a session record.
type SessionInfo struct {
	ID                 string    `json:"session_id"`
	Filename           string    `json:"filename"`
	ChunkCount         int       `json:"chunk_count"`
	HasDocuments       bool      `json:"has_documents"`
	Ready              bool      `json:"ready"`
	CreatedAt          time.Time `json:"created_at"`
	LastActive         time.Time `json:"last_active"`
	AccessCount        int64     `json:"access_count"`
	ExpiresInSeconds   int64     `json:"expires_in_seconds"`
	ConversationLength int       `json:"conversation_length"`
}

// TableStats aggregates counters across all live sessions.
type TableStats struct {
	Total         int     `json:"total_sessions"`
	Active        int     `json:"active_sessions"`
	WithDocuments int     `json:"sessions_with_documents"`
	TotalChunks   int     `json:"total_chunks"`
	MemoryMB      float64 `json:"estimated_memory_mb"`
}

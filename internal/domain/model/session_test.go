package model

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTouchBumpsActivity(t *testing.T) {
	rec := NewSessionRecord("s1")
	before := rec.LastActiveAt
	time.Sleep(time.Millisecond)

	rec.Touch()
	assert.True(t, rec.LastActiveAt.After(before))
	assert.Equal(t, int64(1), rec.AccessCount)

	rec.Touch()
	assert.Equal(t, int64(2), rec.AccessCount)
}

func TestIsExpired(t *testing.T) {
	rec := NewSessionRecord("s1")
	now := rec.LastActiveAt

	assert.False(t, rec.IsExpired(now, time.Minute))
	assert.False(t, rec.IsExpired(now.Add(time.Minute), time.Minute), "exactly at ttl is still live")
	assert.True(t, rec.IsExpired(now.Add(time.Minute+time.Nanosecond), time.Minute))
}

func TestAppendExchangeCapsHistory(t *testing.T) {
	rec := NewSessionRecord("s1")
	for i := 0; i < 13; i++ {
		rec.AppendExchange(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i), 10)
	}
	require.Len(t, rec.History, 10)
	assert.Equal(t, "q3", rec.History[0].Question, "oldest exchanges dropped first")
	assert.Equal(t, "q12", rec.History[9].Question)
	assert.False(t, rec.History[0].AskedAt.IsZero())
}

func TestAppendExchangeUnbounded(t *testing.T) {
	rec := NewSessionRecord("s1")
	for i := 0; i < 5; i++ {
		rec.AppendExchange("q", "a", 0)
	}
	assert.Len(t, rec.History, 5)
}

func TestRecentHistory(t *testing.T) {
	rec := NewSessionRecord("s1")
	for i := 0; i < 8; i++ {
		rec.AppendExchange(fmt.Sprintf("q%d", i), "a", 10)
	}

	got := rec.RecentHistory(3)
	require.Len(t, got, 3)
	assert.Equal(t, "q5", got[0].Question)
	assert.Equal(t, "q7", got[2].Question)

	assert.Len(t, rec.RecentHistory(20), 8, "n above length returns everything")
	assert.Len(t, rec.RecentHistory(0), 8)
}

func TestCloneDeepCopiesHistory(t *testing.T) {
	rec := NewSessionRecord("s1")
	rec.DocumentName = "report.pdf"
	rec.AppendExchange("q1", "a1", 10)

	cp := rec.Clone()
	cp.History[0].Answer = "mutated"
	cp.AppendExchange("q2", "a2", 10)

	assert.Equal(t, "a1", rec.History[0].Answer)
	assert.Len(t, rec.History, 1)
	assert.Equal(t, "report.pdf", cp.DocumentName)
}

func TestInfoSummarizesRecord(t *testing.T) {
	rec := NewSessionRecord("s1")
	rec.DocumentName = "report.pdf"
	rec.ChunkCount = 42
	rec.Ready = true
	rec.AppendExchange("q", "a", 10)

	info := rec.Info(rec.LastActiveAt.Add(10*time.Second), 30*time.Second)
	assert.Equal(t, "s1", info.ID)
	assert.Equal(t, "report.pdf", info.Filename)
	assert.Equal(t, 42, info.ChunkCount)
	assert.False(t, info.HasDocuments, "no index handle installed yet")
	assert.True(t, info.Ready)
	assert.Equal(t, int64(20), info.ExpiresInSeconds)
	assert.Equal(t, 1, info.ConversationLength)
}

func TestInfoExpiryClampedAtZero(t *testing.T) {
	rec := NewSessionRecord("s1")
	info := rec.Info(rec.LastActiveAt.Add(time.Hour), time.Minute)
	assert.Equal(t, int64(0), info.ExpiresInSeconds)
}

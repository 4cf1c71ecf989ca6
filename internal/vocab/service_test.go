package vocab

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/fluentpath/internal/progression"
	"github.com/abhisek/fluentpath/internal/store"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestService(t *testing.T) (*Service, *clock) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "vocab.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clk := &clock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	return NewService(st.Vocabulary(), WithClock(clk.now)), clk
}

func TestLearn(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	words, err := svc.Learn(ctx, "ana", []Entry{
		{Word: "Resilient", Meaning: "able to recover quickly"},
		{Word: "abroad", Meaning: "in another country"},
		{Word: "resilient", Meaning: "recovers quickly", Example: "She is resilient."},
	})
	require.NoError(t, err)
	require.Len(t, words, 2)

	assert.Equal(t, "abroad", words[0].Word)
	assert.Equal(t, "resilient", words[1].Word)
	assert.Equal(t, "recovers quickly", words[1].Meaning, "last duplicate wins")
	assert.Equal(t, "She is resilient.", words[1].Example)
	assert.True(t, words[1].NextReview.Equal(clk.t.AddDate(0, 0, 1)))
	assert.Equal(t, StatusNew, words[1].Status(clk.t))
}

func TestLearn_InvalidInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		learner string
		entries []Entry
	}{
		{"no learner", "", []Entry{{Word: "hello"}}},
		{"no entries", "ana", nil},
		{"blank word", "ana", []Entry{{Word: "   "}}},
		{"too long", "ana", []Entry{{Word: strings.Repeat("a", maxWordLen+1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Learn(ctx, tt.learner, tt.entries)
			assert.ErrorIs(t, err, progression.ErrInvalidInput)
		})
	}
}

func TestLearn_RelearnResetsSchedule(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	_, err := svc.Learn(ctx, "ana", []Entry{{Word: "commute", Meaning: "travel to work"}})
	require.NoError(t, err)

	clk.t = clk.t.AddDate(0, 0, 1)
	reviewed, err := svc.Review(ctx, "ana", "Commute", true)
	require.NoError(t, err)
	require.Equal(t, 1, reviewed.Stage)

	clk.t = clk.t.AddDate(0, 0, 1)
	words, err := svc.Learn(ctx, "ana", []Entry{{Word: "commute", Meaning: "a journey to work"}})
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, "a journey to work", words[0].Meaning)
	assert.Equal(t, 0, words[0].Stage)
	assert.Equal(t, 0, words[0].ReviewCount)
	assert.Zero(t, words[0].ConsecutiveHits)
	assert.True(t, words[0].LastReview.IsZero())
	assert.True(t, words[0].LearnedAt.Equal(clk.t))
	assert.True(t, words[0].NextReview.Equal(clk.t.AddDate(0, 0, 1)))
}

func TestDue(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()
	start := clk.t

	_, err := svc.Learn(ctx, "ana", []Entry{{Word: "early"}})
	require.NoError(t, err)
	clk.t = start.Add(12 * time.Hour)
	_, err = svc.Learn(ctx, "ana", []Entry{{Word: "late"}, {Word: "later"}})
	require.NoError(t, err)

	clk.t = start.Add(20 * time.Hour)
	due, err := svc.Due(ctx, "ana", 0)
	require.NoError(t, err)
	assert.Empty(t, due, "only words learned at least a day ago are due")

	clk.t = start.AddDate(0, 0, 4)
	due, err = svc.Due(ctx, "ana", 0)
	require.NoError(t, err)
	require.Len(t, due, 3)
	assert.Equal(t, "early", due[0].Word, "most overdue first")

	due, err = svc.Due(ctx, "ana", 2)
	require.NoError(t, err)
	assert.Len(t, due, 2)
}

func TestReview(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	_, err := svc.Learn(ctx, "ana", []Entry{{Word: "take off", Meaning: "leave the ground"}})
	require.NoError(t, err)

	clk.t = clk.t.AddDate(0, 0, 1)
	w, err := svc.Review(ctx, "ana", "  Take   Off ", true)
	require.NoError(t, err)
	assert.Equal(t, 1, w.Stage)
	assert.Equal(t, 1, w.ConsecutiveHits)
	assert.True(t, w.LastReview.Equal(clk.t))
	assert.True(t, w.NextReview.Equal(clk.t.AddDate(0, 0, 3)))

	clk.t = clk.t.AddDate(0, 0, 3)
	w, err = svc.Review(ctx, "ana", "take off", false)
	require.NoError(t, err)
	assert.Equal(t, 0, w.Stage)
	assert.Equal(t, 2, w.ReviewCount)
	assert.True(t, w.NextReview.Equal(clk.t.AddDate(0, 0, 1)))

	words, err := svc.List(ctx, "ana")
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, 2, words[0].ReviewCount)
}

func TestReview_UnknownWord(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Review(ctx, "ana", "ghost", true)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.Review(ctx, "ana", " ", true)
	assert.ErrorIs(t, err, progression.ErrInvalidInput)
}

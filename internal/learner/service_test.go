package learner

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/fluentpath/internal/progression"
	"github.com/abhisek/fluentpath/internal/pronunciation"
	"github.com/abhisek/fluentpath/internal/store"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advanceDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.AddDate(0, 0, n)
}

func newTestService(t *testing.T, opts ...Option) (*Service, *store.Store, *clock) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "learner.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clk := &clock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clk.now)}, opts...)
	return NewService(st, opts...), st, clk
}

func TestAwardXP(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.AwardXP(ctx, "ana", 150, "bonus")
	require.NoError(t, err)
	assert.Equal(t, 150, res.XP)
	assert.Equal(t, 1, res.Streak)
	assert.Equal(t, "A1", res.Level.Level)
	assert.False(t, res.LevelUp)
	require.Len(t, res.Unlocked, 1)
	assert.Equal(t, "xp-100", res.Unlocked[0].ID)

	res, err = svc.AwardXP(ctx, "ana", 60, "")
	require.NoError(t, err)
	assert.Equal(t, 210, res.XP)
	assert.Equal(t, "A1+", res.Level.Level)
	assert.True(t, res.LevelUp)
	assert.Equal(t, 1, res.Streak, "same day keeps the streak")
	assert.Empty(t, res.Unlocked)

	history, err := svc.History(ctx, "ana", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "manual", history[0].Source)
	assert.Equal(t, 210, history[0].TotalAfter)
	assert.Equal(t, "2025-03-10", history[0].Day)
	assert.Equal(t, "bonus", history[1].Source)

	limited, err := svc.History(ctx, "ana", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestAwardXP_InvalidInput(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		id     string
		amount int
	}{
		{"negative amount", "ana", -5},
		{"empty id", "", 10},
		{"blank id", "   ", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AwardXP(ctx, tt.id, tt.amount, "x")
			if !errors.Is(err, progression.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestAwardXP_ZeroAmountStillCountsForStreak(t *testing.T) {
	svc, _, clk := newTestService(t)
	ctx := context.Background()

	_, err := svc.AwardXP(ctx, "ana", 0, "checkin")
	require.NoError(t, err)
	clk.advanceDays(1)
	res, err := svc.AwardXP(ctx, "ana", 0, "checkin")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Streak)
	assert.Equal(t, 0, res.XP)
}

func TestCompleteLesson(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	out, err := svc.CompleteLesson(ctx, "ana", "greetings", 10, 10)
	require.NoError(t, err)
	assert.True(t, out.FirstPass)
	assert.Equal(t, 125, out.Result.XPAwarded)
	assert.Equal(t, 125, out.Award.XP)
	assert.Contains(t, ids(out.Award.Unlocked), "first-lesson")

	// Retaking a passed lesson awards XP but does not count again.
	out, err = svc.CompleteLesson(ctx, "ana", "greetings", 6, 10)
	require.NoError(t, err)
	assert.False(t, out.FirstPass)
	assert.Equal(t, 80, out.Result.XPAwarded)

	// A failed attempt keeps the base award and counts nothing.
	out, err = svc.CompleteLesson(ctx, "ana", "travel", 2, 10)
	require.NoError(t, err)
	assert.False(t, out.Result.Passed)
	assert.False(t, out.FirstPass)
	assert.Equal(t, 50, out.Award.Awarded)

	out, err = svc.CompleteLesson(ctx, "ana", "travel", 7, 10)
	require.NoError(t, err)
	assert.True(t, out.FirstPass)

	sum, err := svc.Summary(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Progress.LessonsCompleted)
	assert.Equal(t, 125+80+50+80, sum.Progress.XP)
	assert.True(t, sum.Today.Quiz)
	require.Len(t, sum.Lessons, 2)
}

// failingActivities fails the first Record after the learner record has
// been computed, inside the write transaction.
type failingActivities struct {
	store.ActivityRepo
	failed bool
}

func (f *failingActivities) Record(ctx context.Context, act store.ActivityData, fn func(*store.LearnerRecord, bool) (store.ActivityChange, error)) (*store.LearnerRecord, error) {
	return f.ActivityRepo.Record(ctx, act, func(rec *store.LearnerRecord, firstPass bool) (store.ActivityChange, error) {
		change, err := fn(rec, firstPass)
		if err != nil || f.failed {
			return change, err
		}
		f.failed = true
		return change, errors.New("transient write failure")
	})
}

type failingStore struct {
	*store.Store
	activities *failingActivities
}

func (s failingStore) Activities() store.ActivityRepo { return s.activities }

func TestCompleteLesson_FailedWriteCountsOnRetry(t *testing.T) {
	_, st, clk := newTestService(t)
	svc := NewService(failingStore{Store: st, activities: &failingActivities{ActivityRepo: st.Activities()}}, WithClock(clk.now))
	ctx := context.Background()

	_, err := svc.CompleteLesson(ctx, "ana", "l1", 8, 10)
	require.Error(t, err)

	lessons, err := st.Lessons().LessonResults(ctx, "ana")
	require.NoError(t, err)
	assert.Empty(t, lessons, "failed attempt must not be stored")
	events, err := st.XPEvents().QueryXP(ctx, "ana", store.QueryOpts{})
	require.NoError(t, err)
	assert.Empty(t, events)

	out, err := svc.CompleteLesson(ctx, "ana", "l1", 8, 10)
	require.NoError(t, err)
	assert.True(t, out.FirstPass)

	sum, err := svc.Summary(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Progress.LessonsCompleted)
	assert.Equal(t, out.Award.XP, sum.Progress.XP)
	assert.True(t, sum.Today.Quiz)
}

func TestCompleteLesson_InvalidInput(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		lesson         string
		correct, total int
	}{
		{"greetings", 1, 0},
		{"greetings", -1, 5},
		{"greetings", 6, 5},
		{"", 1, 1},
	}
	for _, tt := range tests {
		_, err := svc.CompleteLesson(ctx, "ana", tt.lesson, tt.correct, tt.total)
		if !errors.Is(err, progression.ErrInvalidInput) {
			t.Errorf("CompleteLesson(%q, %d, %d) err = %v", tt.lesson, tt.correct, tt.total, err)
		}
	}

	_, err := st.Learners().Get(ctx, "ana")
	assert.ErrorIs(t, err, store.ErrNotFound, "invalid input must not create the learner")
}

func TestPracticePronunciation(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	out, err := svc.PracticePronunciation(ctx, "ana", "", "hello")
	require.NoError(t, err)
	assert.Equal(t, pronunciation.BandNoSpeech, out.Comparison.Band)
	assert.Nil(t, out.Award)
	_, err = st.Learners().Get(ctx, "ana")
	assert.ErrorIs(t, err, store.ErrNotFound)

	out, err = svc.PracticePronunciation(ctx, "ana", "helo", "Hello!")
	require.NoError(t, err)
	assert.Equal(t, 80, out.Comparison.Score)
	assert.Equal(t, pronunciation.BandGood, out.Comparison.Band)
	require.NotNil(t, out.Award)
	assert.Equal(t, 15, out.Award.Awarded)

	sum, err := svc.Summary(ctx, "ana")
	require.NoError(t, err)
	assert.True(t, sum.Today.Practice)
	assert.Equal(t, 1, sum.Today.Count)
}

func TestRecordChatAndWriting(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	var res *AwardResult
	var err error
	for range 10 {
		res, err = svc.RecordChat(ctx, "ana")
		require.NoError(t, err)
	}
	assert.Equal(t, 100, res.XP)
	assert.Contains(t, ids(res.Unlocked), "chatter")

	res, err = svc.RecordWriting(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, 20, res.Awarded)

	res, err = svc.RecordSpeaking(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, 15, res.Awarded)

	sum, err := svc.Summary(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, 10, sum.Progress.ChatSessions)
	assert.True(t, sum.Today.Chat)
	assert.True(t, sum.Today.Writing)
	assert.Equal(t, 10*ChatMinutes+WritingMinutes+PronunciationMinutes, sum.Today.Minutes)
	assert.Len(t, sum.RecentSessions, 12)
}

func TestStreakAndCachedAchievements(t *testing.T) {
	svc, _, clk := newTestService(t)
	ctx := context.Background()

	for range 3 {
		_, err := svc.AwardXP(ctx, "ana", 10, "daily")
		require.NoError(t, err)
		clk.advanceDays(1)
	}
	sum, err := svc.Summary(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, 3, sum.CurrentStreak, "yesterday's activity keeps the streak alive")
	assert.Len(t, sum.XPByDay, 3)

	clk.advanceDays(2)
	sum, err = svc.Summary(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, 0, sum.CurrentStreak)
	assert.Equal(t, progression.StreakDormant, sum.StreakState)

	streak3 := find(sum.Achievements, "streak-3")
	require.NotNil(t, streak3)
	assert.True(t, streak3.Earned)
	require.NotNil(t, streak3.UnlockedAt)

	res, err := svc.AwardXP(ctx, "ana", 10, "daily")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Streak, "a gap restarts the streak")
	assert.NotContains(t, ids(res.Unlocked), "streak-3")
}

func TestLocationDecidesDay(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	svc, _, clk := newTestService(t, WithLocation(tokyo))
	clk.t = time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC) // 05:00 on the 11th in Tokyo

	_, err = svc.AwardXP(context.Background(), "ken", 5, "x")
	require.NoError(t, err)
	h, err := svc.History(context.Background(), "ken", 1)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-11", h[0].Day)
}

func TestSummaryUnknownLearner(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Summary(context.Background(), "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReset(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CompleteLesson(ctx, "ana", "greetings", 10, 10)
	require.NoError(t, err)
	require.NoError(t, svc.Reset(ctx, "ana"))

	_, err = svc.Summary(ctx, "ana")
	assert.ErrorIs(t, err, store.ErrNotFound)
	h, err := svc.History(ctx, "ana", 0)
	require.NoError(t, err)
	assert.Empty(t, h)

	out, err := svc.CompleteLesson(ctx, "ana", "greetings", 10, 10)
	require.NoError(t, err)
	assert.True(t, out.FirstPass, "lesson history was wiped")
}

func TestConcurrentAwardsAreNotLost(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AwardXP(ctx, "ana", 10, "burst")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	sum, err := svc.Summary(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, 200, sum.Progress.XP)

	h, err := svc.History(ctx, "ana", 0)
	require.NoError(t, err)
	assert.Len(t, h, 20)
}

func ids(as []progression.Achievement) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.ID
	}
	return out
}

func find(views []AchievementView, id string) *AchievementView {
	for i := range views {
		if views[i].ID == id {
			return &views[i]
		}
	}
	return nil
}

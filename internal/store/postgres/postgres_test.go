package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/fluentpath/internal/store"
)

var (
	_ store.LearnerRepo     = (*LearnerRepository)(nil)
	_ store.XPEventRepo     = (*XPEventRepository)(nil)
	_ store.LessonRepo      = (*LessonRepository)(nil)
	_ store.SessionRepo     = (*SessionRepository)(nil)
	_ store.AchievementRepo = (*AchievementRepository)(nil)
	_ store.EventRepo       = (*EventRepository)(nil)
	_ store.VocabularyRepo  = (*VocabularyRepository)(nil)
	_ store.ActivityRepo    = (*ActivityRepository)(nil)
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("FLUENTPATH_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FLUENTPATH_TEST_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := Open(ctx, dsn, PoolConfig{MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// learnerID returns an id unique to this run so tests can share a database.
func learnerID(t *testing.T) string {
	t.Helper()
	return "test-" + uuid.NewString()
}

func TestLearnerUpdateAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id := learnerID(t)

	_, err := s.Learners().Get(ctx, id)
	require.True(t, errors.Is(err, store.ErrNotFound))

	rec, err := s.Learners().Update(ctx, id, func(rec *store.LearnerRecord) error {
		rec.XP = 75
		rec.Streak = 1
		rec.StreakLastDate = "2024-05-01"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 75, rec.XP)

	got, err := s.Learners().Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", got.StreakLastDate)

	require.NoError(t, s.Learners().Delete(ctx, id))
	_, err = s.Learners().Get(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLearnerUpdateConcurrent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id := learnerID(t)
	defer s.Learners().Delete(ctx, id)

	const workers = 10
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			_, err := s.Learners().Update(ctx, id, func(rec *store.LearnerRecord) error {
				rec.XP += 5
				return nil
			})
			errs <- err
		}()
	}
	for i := 0; i < workers; i++ {
		require.NoError(t, <-errs)
	}

	got, err := s.Learners().Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, workers*5, got.XP)
}

func TestHistoryLessonsSessions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id := learnerID(t)
	defer s.Learners().Delete(ctx, id)

	require.NoError(t, s.XPEvents().AppendXP(ctx, store.XPEventData{LearnerID: id, Amount: 50, Source: "lesson:a", TotalAfter: 50, Day: "2024-05-01"}))
	require.NoError(t, s.XPEvents().AppendXP(ctx, store.XPEventData{LearnerID: id, Amount: 10, Source: "chat", TotalAfter: 60, Day: "2024-05-02"}))

	events, err := s.XPEvents().QueryXP(ctx, id, store.QueryOpts{Limit: 1})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "chat", events[0].Source)

	byDay, err := s.XPEvents().XPByDay(ctx, id, "2024-05-01")
	require.NoError(t, err)
	assert.Len(t, byDay, 2)

	first, err := s.Lessons().SaveResult(ctx, store.LessonResultData{LearnerID: id, LessonID: "a", Correct: 7, Total: 10, Percentage: 70, Passed: true})
	require.NoError(t, err)
	assert.True(t, first)
	again, err := s.Lessons().SaveResult(ctx, store.LessonResultData{LearnerID: id, LessonID: "a", Correct: 9, Total: 10, Percentage: 90, Passed: true})
	require.NoError(t, err)
	assert.False(t, again)

	_, err = s.Sessions().LogSession(ctx, store.SessionData{LearnerID: id, Kind: store.SessionQuiz, DurationMins: 10, Day: "2024-05-02"})
	require.NoError(t, err)
	act, err := s.Sessions().DailyActivity(ctx, id, "2024-05-02")
	require.NoError(t, err)
	assert.True(t, act.Quiz)
	assert.Equal(t, 1, act.Count)

	at := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Achievements().RecordUnlocks(ctx, id, []string{"first-lesson", "xp-100"}, at))
	require.NoError(t, s.Achievements().RecordUnlocks(ctx, id, []string{"first-lesson"}, at.Add(time.Hour)))
	unlocks, err := s.Achievements().Unlocked(ctx, id)
	require.NoError(t, err)
	assert.Len(t, unlocks, 2)
}

func TestVocabulary(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id := learnerID(t)
	t.Cleanup(func() { s.Learners().Delete(context.Background(), id) })

	learned := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.Vocabulary().SaveWords(ctx, id, []store.VocabRecord{
		{Word: "commute", Meaning: "travel to work", LearnedAt: learned, NextReview: learned.AddDate(0, 0, 1)},
	}))

	rec, err := s.Vocabulary().UpdateWord(ctx, id, "commute", func(rec *store.VocabRecord) error {
		rec.ReviewCount = 1
		rec.Stage = 1
		rec.LastReview = learned.AddDate(0, 0, 1)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Stage)

	require.NoError(t, s.Vocabulary().SaveWords(ctx, id, []store.VocabRecord{
		{Word: "commute", Meaning: "a journey to work", LearnedAt: learned.AddDate(0, 0, 2), NextReview: learned.AddDate(0, 0, 3)},
	}))
	words, err := s.Vocabulary().Words(ctx, id)
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, "a journey to work", words[0].Meaning)
	assert.Equal(t, 0, words[0].Stage)
	assert.Equal(t, 0, words[0].ReviewCount)
	assert.True(t, words[0].LastReview.IsZero())
	assert.True(t, words[0].NextReview.Equal(learned.AddDate(0, 0, 3)))

	_, err = s.Vocabulary().UpdateWord(ctx, id, "missing", func(*store.VocabRecord) error { return nil })
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestActivityRecordIsAtomic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id := learnerID(t)
	t.Cleanup(func() { s.Learners().Delete(context.Background(), id) })

	act := store.ActivityData{
		LearnerID: id,
		Source:    "lesson:l1",
		Day:       "2024-05-01",
		Lesson:    &store.LessonResultData{LearnerID: id, LessonID: "l1", Correct: 8, Total: 10, Percentage: 80, Passed: true},
		Session:   &store.SessionData{LearnerID: id, Kind: store.SessionQuiz, DurationMins: 10, Day: "2024-05-01"},
	}
	credit := func(rec *store.LearnerRecord, firstPass bool) (store.ActivityChange, error) {
		rec.XP += 125
		if firstPass {
			rec.LessonsCompleted++
		}
		return store.ActivityChange{Awarded: 125, Unlocked: []string{"first-lesson"}}, nil
	}

	_, err := s.Activities().Record(ctx, act, func(*store.LearnerRecord, bool) (store.ActivityChange, error) {
		return store.ActivityChange{}, errors.New("boom")
	})
	require.Error(t, err)
	lessons, err := s.Lessons().LessonResults(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, lessons)

	rec, err := s.Activities().Record(ctx, act, credit)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.LessonsCompleted)
	assert.Equal(t, 125, rec.XP)

	events, err := s.XPEvents().QueryXP(ctx, id, store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 125, events[0].TotalAfter)
	unlocks, err := s.Achievements().Unlocked(ctx, id)
	require.NoError(t, err)
	assert.Len(t, unlocks, 1)
}

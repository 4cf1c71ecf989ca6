package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// LearnerRecord is the persisted progress record of one learner.
type LearnerRecord struct {
	ID               string    `json:"id"`
	XP               int       `json:"xp"`
	Streak           int       `json:"streak"`
	StreakLastDate   string    `json:"streakLastDate"`
	LessonsCompleted int       `json:"lessonsCompleted"`
	ChatSessions     int       `json:"chatSessions"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// LearnerRepo owns learner progress records.
type LearnerRepo interface {
	// Get returns the learner, or ErrNotFound.
	Get(ctx context.Context, id string) (*LearnerRecord, error)

	// Update runs fn against the current record inside the store's
	// single-writer boundary and persists whatever fn leaves in it. A
	// missing learner is created with zero progress first. If fn returns
	// an error nothing is written.
	Update(ctx context.Context, id string, fn func(rec *LearnerRecord) error) (*LearnerRecord, error)

	// Delete removes the learner together with its history.
	Delete(ctx context.Context, id string) error
}

// XPEventData is one XP award in a learner's history.
type XPEventData struct {
	LearnerID  string `json:"learnerId"`
	Amount     int    `json:"amount"`
	Source     string `json:"source"`
	TotalAfter int    `json:"totalAfter"`
	Day        string `json:"day"`
}

// XPEventRecord is a persisted XP award.
type XPEventRecord struct {
	XPEventData
	Sequence  int64     `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
}

// DayTotal is the XP earned on one calendar day.
type DayTotal struct {
	Day string `json:"day"`
	XP  int    `json:"xp"`
}

// XPEventRepo appends and queries XP history.
type XPEventRepo interface {
	AppendXP(ctx context.Context, data XPEventData) error

	// QueryXP returns a learner's events newest first.
	QueryXP(ctx context.Context, learnerID string, opts QueryOpts) ([]XPEventRecord, error)

	// XPByDay sums awards per day from sinceDay (inclusive), oldest first.
	XPByDay(ctx context.Context, learnerID, sinceDay string) ([]DayTotal, error)
}

// LessonResultData is one completed lesson quiz.
type LessonResultData struct {
	LearnerID  string
	LessonID   string
	Correct    int
	Total      int
	Percentage int
	Passed     bool
}

// LessonResultRecord is the stored progress on one lesson.
type LessonResultRecord struct {
	LearnerID   string    `json:"learnerId"`
	LessonID    string    `json:"lessonId"`
	BestScore   int       `json:"bestScore"`
	LastScore   int       `json:"lastScore"`
	RawScore    string    `json:"rawScore"` // "correct/total" of the last attempt
	Attempts    int       `json:"attempts"`
	Passed      bool      `json:"passed"`
	CompletedAt time.Time `json:"completedAt"`
}

// LessonRepo stores per-lesson quiz results.
type LessonRepo interface {
	// SaveResult records an attempt. firstPass is true only for the attempt
	// that moves the lesson from not-passed to passed.
	SaveResult(ctx context.Context, data LessonResultData) (firstPass bool, err error)

	LessonResults(ctx context.Context, learnerID string) ([]LessonResultRecord, error)
}

// Session kinds.
const (
	SessionLesson        = "lesson"
	SessionQuiz          = "quiz"
	SessionChat          = "chat"
	SessionPronunciation = "pronunciation"
	SessionWriting       = "writing"
)

// SessionData is one practice session.
type SessionData struct {
	LearnerID    string `json:"learnerId"`
	Kind         string `json:"kind"`
	DurationMins int    `json:"durationMins"`
	Day          string `json:"day"`
}

// SessionRecord is a persisted practice session.
type SessionRecord struct {
	SessionData
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// DailyActivity reports which kinds of practice a learner did on one day.
type DailyActivity struct {
	Day      string `json:"day"`
	Lesson   bool   `json:"lesson"`
	Practice bool   `json:"practice"`
	Quiz     bool   `json:"quiz"`
	Chat     bool   `json:"chat"`
	Writing  bool   `json:"writing"`
	Count    int    `json:"count"`   // distinct kinds
	Minutes  int    `json:"minutes"` // total duration
}

// SessionRepo logs practice sessions.
type SessionRepo interface {
	LogSession(ctx context.Context, data SessionData) (*SessionRecord, error)

	// RecentSessions returns sessions on or after sinceDay, newest first.
	RecentSessions(ctx context.Context, learnerID, sinceDay string) ([]SessionRecord, error)

	DailyActivity(ctx context.Context, learnerID, day string) (DailyActivity, error)
}

// UnlockRecord is a cached achievement unlock.
type UnlockRecord struct {
	AchievementID string    `json:"achievementId"`
	UnlockedAt    time.Time `json:"unlockedAt"`
}

// AchievementRepo caches the moment each achievement was first unlocked.
// Earned state is always derived from progress; this only remembers when.
type AchievementRepo interface {
	// RecordUnlocks stores ids not already recorded. Existing rows keep
	// their original timestamp.
	RecordUnlocks(ctx context.Context, learnerID string, ids []string, at time.Time) error

	Unlocked(ctx context.Context, learnerID string) ([]UnlockRecord, error)
}

// ActivityData is everything one learner activity writes besides the
// learner record itself. Lesson and Session are optional.
type ActivityData struct {
	LearnerID string
	Source    string
	Day       string
	At        time.Time
	Lesson    *LessonResultData
	Session   *SessionData
}

// ActivityChange is what fn in ActivityRepo.Record reports back: the XP it
// awarded and the achievements it newly unlocked.
type ActivityChange struct {
	Awarded  int
	Unlocked []string
}

// ActivityRepo writes a whole learner activity atomically.
type ActivityRepo interface {
	// Record saves the lesson attempt, runs fn against the learner record
	// with firstPass set when that attempt moved the lesson to passed,
	// persists the record, appends the XP event, caches unlocks and logs the
	// session, all in one transaction. If fn or any write fails nothing is
	// written.
	Record(ctx context.Context, act ActivityData, fn func(rec *LearnerRecord, firstPass bool) (ActivityChange, error)) (*LearnerRecord, error)
}

// VocabRecord is one word a learner has studied plus its review schedule.
// A zero LastReview means the word has never been reviewed.
type VocabRecord struct {
	LearnerID       string    `json:"learnerId"`
	Word            string    `json:"word"`
	Meaning         string    `json:"meaning"`
	Example         string    `json:"example"`
	LearnedAt       time.Time `json:"learnedAt"`
	ReviewCount     int       `json:"reviewCount"`
	Stage           int       `json:"stage"`
	ConsecutiveHits int       `json:"consecutiveHits"`
	Graduated       bool      `json:"graduated"`
	NextReview      time.Time `json:"nextReview"`
	LastReview      time.Time `json:"lastReview"`
}

// VocabularyRepo stores learned words.
type VocabularyRepo interface {
	// SaveWords upserts words. A word already stored is overwritten, so its
	// review schedule starts again from the record given.
	SaveWords(ctx context.Context, learnerID string, words []VocabRecord) error

	// UpdateWord applies fn to a stored word inside the write boundary.
	// Unknown words return ErrNotFound.
	UpdateWord(ctx context.Context, learnerID, word string, fn func(rec *VocabRecord) error) (*VocabRecord, error)

	// Words lists the learner's words ordered by word.
	Words(ctx context.Context, learnerID string) ([]VocabRecord, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	Purpose      string `json:"purpose"`
	InputTokens  int    `json:"inputTokens"`
	OutputTokens int    `json:"outputTokens"`
	LatencyMs    int64  `json:"latencyMs"`
	Success      bool   `json:"success"`
	ErrorMessage string `json:"errorMessage"`
}

// LLMRequestEventRecord is a persisted LLM request event.
type LLMRequestEventRecord struct {
	LLMRequestEventData
	Sequence  int64     `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
}

// LLMUsageStats aggregates LLM request events per provider and purpose.
type LLMUsageStats struct {
	Provider     string `json:"provider"`
	Purpose      string `json:"purpose"`
	Requests     int    `json:"requests"`
	Failures     int    `json:"failures"`
	InputTokens  int    `json:"inputTokens"`
	OutputTokens int    `json:"outputTokens"`
	AvgLatencyMs int64  `json:"avgLatencyMs"`
}

// EventRepo provides append access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	QueryLLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	LLMUsage(ctx context.Context) ([]LLMUsageStats, error)
}

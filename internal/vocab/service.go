package vocab

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/fluentpath/internal/progression"
	"github.com/abhisek/fluentpath/internal/store"
)

// maxWordLen bounds a stored word or phrase in bytes.
const maxWordLen = 64

// Entry is a word to learn.
type Entry struct {
	Word    string `json:"word"`
	Meaning string `json:"meaning"`
	Example string `json:"example"`
}

// Service records learned words and runs their reviews.
type Service struct {
	repo store.VocabularyRepo
	now  func() time.Time
	log  *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates a vocabulary service over repo.
func NewService(repo store.VocabularyRepo, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time { return s.now() }

// Learn stores entries for the learner and returns them as stored, ordered by
// word. Entries repeating a word keep the last meaning given. A word learned
// again is reset: its review count drops to zero and it is due tomorrow.
func (s *Service) Learn(ctx context.Context, learnerID string, entries []Entry) ([]Word, error) {
	if learnerID == "" {
		return nil, fmt.Errorf("%w: learner id is required", progression.ErrInvalidInput)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no words given", progression.ErrInvalidInput)
	}

	now := s.now()
	index := make(map[string]int, len(entries))
	var words []Word
	for _, e := range entries {
		w := NewWord(e.Word, e.Meaning, e.Example, now)
		if w.Word == "" {
			return nil, fmt.Errorf("%w: word is required", progression.ErrInvalidInput)
		}
		if len(w.Word) > maxWordLen {
			return nil, fmt.Errorf("%w: word %q longer than %d bytes", progression.ErrInvalidInput, w.Word, maxWordLen)
		}
		if i, ok := index[w.Word]; ok {
			words[i] = w
			continue
		}
		index[w.Word] = len(words)
		words = append(words, w)
	}

	recs := make([]store.VocabRecord, len(words))
	for i, w := range words {
		recs[i] = fromWord(learnerID, w)
	}
	if err := s.repo.SaveWords(ctx, learnerID, recs); err != nil {
		return nil, fmt.Errorf("save words: %w", err)
	}
	s.log.Debug("words learned", zap.String("learner", learnerID), zap.Int("count", len(words)))

	stored, err := s.List(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	out := make([]Word, 0, len(words))
	for _, w := range stored {
		if _, ok := index[w.Word]; ok {
			out = append(out, w)
		}
	}
	return out, nil
}

// List returns every word the learner has studied, ordered by word.
func (s *Service) List(ctx context.Context, learnerID string) ([]Word, error) {
	recs, err := s.repo.Words(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("list words: %w", err)
	}
	words := make([]Word, len(recs))
	for i, rec := range recs {
		words[i] = toWord(rec)
	}
	return words, nil
}

// Due returns the words due for review, most overdue first. A limit of zero
// or less returns all of them.
func (s *Service) Due(ctx context.Context, learnerID string, limit int) ([]Word, error) {
	words, err := s.List(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var due []Word
	for _, w := range words {
		if w.IsDue(now) {
			due = append(due, w)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].OverdueDays(now) > due[j].OverdueDays(now)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// Review records whether the learner remembered word. Unknown words return
// store.ErrNotFound.
func (s *Service) Review(ctx context.Context, learnerID, word string, remembered bool) (*Word, error) {
	key := Normalize(word)
	if key == "" {
		return nil, fmt.Errorf("%w: word is required", progression.ErrInvalidInput)
	}
	now := s.now()
	rec, err := s.repo.UpdateWord(ctx, learnerID, key, func(rec *store.VocabRecord) error {
		w := toWord(*rec)
		w.Record(remembered, now)
		*rec = fromWord(learnerID, w)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("review %q: %w", key, err)
	}
	w := toWord(*rec)
	s.log.Debug("word reviewed",
		zap.String("learner", learnerID),
		zap.String("word", key),
		zap.Bool("remembered", remembered),
		zap.Int("stage", w.Stage),
	)
	return &w, nil
}

func toWord(rec store.VocabRecord) Word {
	return Word{
		Word:            rec.Word,
		Meaning:         rec.Meaning,
		Example:         rec.Example,
		LearnedAt:       rec.LearnedAt,
		ReviewCount:     rec.ReviewCount,
		Stage:           rec.Stage,
		ConsecutiveHits: rec.ConsecutiveHits,
		Graduated:       rec.Graduated,
		NextReview:      rec.NextReview,
		LastReview:      rec.LastReview,
	}
}

func fromWord(learnerID string, w Word) store.VocabRecord {
	return store.VocabRecord{
		LearnerID:       learnerID,
		Word:            w.Word,
		Meaning:         w.Meaning,
		Example:         w.Example,
		LearnedAt:       w.LearnedAt,
		ReviewCount:     w.ReviewCount,
		Stage:           w.Stage,
		ConsecutiveHits: w.ConsecutiveHits,
		Graduated:       w.Graduated,
		NextReview:      w.NextReview,
		LastReview:      w.LastReview,
	}
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abhisek/fluentpath/internal/coach"
	"github.com/abhisek/fluentpath/internal/learner"
	"github.com/abhisek/fluentpath/internal/llm"
	"github.com/abhisek/fluentpath/internal/store"
	"github.com/abhisek/fluentpath/internal/vocab"
)

const feedbackJSON = `{"grammarScore":82,"toneScore":75,"styleScore":70,"overallScore":76,` +
	`"corrections":[{"original":"I goes","corrected":"I go","explanation":"subject-verb agreement"}],` +
	`"strengths":["clear"],"suggestions":["vary sentence length"]}`

func newTestServer(t *testing.T, responses ...llm.MockResponse) http.Handler {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	now := func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }
	svc := learner.NewService(st, learner.WithClock(now))

	mock := llm.NewMockProvider(responses...)
	log := zap.NewNop()
	srv := New(svc,
		WithCoaches(
			coach.NewTutor(mock, coach.DefaultTutorConfig(), log),
			coach.NewWritingCoach(mock, coach.DefaultWritingConfig(), log),
		),
		WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("# metrics\n"))
		})),
		WithVocabulary(vocab.NewService(st.Vocabulary(), vocab.WithClock(now))),
		WithReadiness(Checker{Name: "store", Check: st.Ping}),
		WithLogger(log),
	)
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, w.Code)
	res := decodeBody[healthResult](t, w)
	assert.Equal(t, "ok", res.Checks["store"])

	w = do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadyzFailing(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	srv := New(learner.NewService(st), WithReadiness(Checker{
		Name:  "llm",
		Check: func(context.Context) error { return errors.New("no key") },
	}))
	w := do(t, srv.Handler(), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	res := decodeBody[healthResult](t, w)
	assert.Equal(t, "fail", res.Status)
	assert.Equal(t, "fail: no key", res.Checks["llm"])
}

func TestLevelsAndScenarios(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, http.MethodGet, "/v1/levels", "")
	require.Equal(t, http.StatusOK, w.Code)
	levels := decodeBody[levelsResponse](t, w)
	require.NotEmpty(t, levels.Levels)
	assert.Equal(t, "A1", levels.Levels[0].Level)
	assert.Equal(t, 50, levels.Rewards.LessonComplete)

	w = do(t, h, http.MethodGet, "/v1/scenarios", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cafe"`)
}

func TestCompare(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, http.MethodPost, "/v1/pronunciation/compare", `{"spoken":"hello world","target":"Hello, world!"}`)
	require.Equal(t, http.StatusOK, w.Code)
	res := decodeBody[map[string]any](t, w)
	assert.EqualValues(t, 100, res["score"])

	w = do(t, h, http.MethodPost, "/v1/pronunciation/compare", `{"spoken":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/v1/pronunciation/compare", `{"voice":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAwardAndSummary(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, http.MethodGet, "/v1/learners/ana", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodPost, "/v1/learners/ana/xp", `{"amount":120,"source":"bonus"}`)
	require.Equal(t, http.StatusOK, w.Code)
	award := decodeBody[learner.AwardResult](t, w)
	assert.Equal(t, 120, award.XP)
	assert.Equal(t, 1, award.Streak)

	w = do(t, h, http.MethodPost, "/v1/learners/ana/xp", `{"amount":-5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/v1/learners/ana", "")
	require.Equal(t, http.StatusOK, w.Code)
	sum := decodeBody[learner.Summary](t, w)
	assert.Equal(t, 120, sum.Progress.XP)
	assert.Equal(t, 1, sum.CurrentStreak)

	w = do(t, h, http.MethodGet, "/v1/learners/ana/history?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	hist := decodeBody[struct {
		Events []store.XPEventRecord `json:"events"`
	}](t, w)
	require.Len(t, hist.Events, 1)
	assert.Equal(t, "bonus", hist.Events[0].Source)

	w = do(t, h, http.MethodGet, "/v1/learners/ana/history?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompleteLesson(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, http.MethodPost, "/v1/learners/ana/lessons/greetings/complete", `{"correct":10,"total":10}`)
	require.Equal(t, http.StatusOK, w.Code)
	out := decodeBody[learner.LessonOutcome](t, w)
	assert.True(t, out.FirstPass)
	assert.Equal(t, 125, out.Result.XPAwarded)
	assert.Equal(t, 125, out.Award.XP)

	w = do(t, h, http.MethodPost, "/v1/learners/ana/lessons/greetings/complete", `{"correct":11,"total":10}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPronunciation(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, http.MethodPost, "/v1/learners/ana/pronunciation", `{"spoken":"good morning","target":"Good morning"}`)
	require.Equal(t, http.StatusOK, w.Code)
	out := decodeBody[learner.PronunciationOutcome](t, w)
	assert.Equal(t, 100, out.Comparison.Score)
	require.NotNil(t, out.Award)
	assert.Equal(t, 15, out.Award.XP)

	w = do(t, h, http.MethodPost, "/v1/learners/bo/pronunciation", `{"spoken":"  ","target":"Good morning"}`)
	require.Equal(t, http.StatusOK, w.Code)
	out = decodeBody[learner.PronunciationOutcome](t, w)
	assert.Nil(t, out.Award)
}

func TestChat(t *testing.T) {
	h := newTestServer(t,
		llm.MockReply("Nice to meet you! What would you like?"),
		llm.MockReply("A latte is a great choice."),
	)

	w := do(t, h, http.MethodPost, "/v1/learners/ana/chat",
		`{"messages":[{"role":"user","text":"Hello, I would like a coffee."}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	first := decodeBody[chatResponse](t, w)
	assert.Equal(t, "Nice to meet you! What would you like?", first.Reply)
	require.NotNil(t, first.Award)
	assert.Equal(t, 10, first.Award.XP)

	w = do(t, h, http.MethodPost, "/v1/learners/ana/chat", `{"messages":[`+
		`{"role":"user","text":"Hello, I would like a coffee."},`+
		`{"role":"assistant","text":"Nice to meet you! What would you like?"},`+
		`{"role":"user","text":"A latte, please."}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	second := decodeBody[chatResponse](t, w)
	assert.Equal(t, "A latte is a great choice.", second.Reply)
	assert.Nil(t, second.Award)

	// Queue exhausted: the mock reports the provider as unavailable.
	w = do(t, h, http.MethodPost, "/v1/learners/ana/chat", `{"messages":[{"role":"user","text":"Hi"}]}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	failed := decodeBody[chatResponse](t, w)
	assert.Equal(t, coach.FallbackReply, failed.Reply)
	assert.Nil(t, failed.Award)

	w = do(t, h, http.MethodPost, "/v1/learners/ana/chat", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	credited := decodeBody[chatResponse](t, w)
	require.NotNil(t, credited.Award)
	assert.Equal(t, 20, credited.Award.XP)
}

func TestWriting(t *testing.T) {
	h := newTestServer(t, llm.MockResponse{Content: json.RawMessage(feedbackJSON)})

	w := do(t, h, http.MethodPost, "/v1/learners/ana/writing", `{"text":"too short"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/v1/learners/ana/writing",
		`{"prompt":"Describe your weekend.","text":"On Saturday I goes to the park with my friends."}`)
	require.Equal(t, http.StatusOK, w.Code)
	res := decodeBody[writingResponse](t, w)
	require.NotNil(t, res.Feedback)
	assert.Equal(t, 76, res.Feedback.OverallScore)
	require.Len(t, res.Feedback.Corrections, 1)
	assert.Equal(t, 20, res.Award.XP)
}

func TestCoachDisabled(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	h := New(learner.NewService(st)).Handler()

	w := do(t, h, http.MethodPost, "/v1/learners/ana/chat", `{"messages":[{"role":"user","text":"Hi"}]}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(t, h, http.MethodPost, "/v1/learners/ana/writing", `{}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReset(t *testing.T) {
	h := newTestServer(t)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/v1/learners/ana/xp", `{"amount":10}`).Code)
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/v1/learners/ana", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/v1/learners/ana", "").Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"too short", coach.ErrTooShort, http.StatusBadRequest},
		{"not found", store.ErrNotFound, http.StatusNotFound},
		{"rate limit", &llm.ErrRateLimit{Err: errors.New("429")}, http.StatusBadGateway},
		{"invalid response", &llm.ErrInvalidResponse{Err: errors.New("bad")}, http.StatusBadGateway},
		{"wrapped refusal", fmt.Errorf("tutor reply: %w", &llm.ErrInvalidResponse{Err: llm.ErrRefused}), http.StatusBadGateway},
		{"truncated feedback", &llm.ErrMaxTokensExceeded{Limit: 1024}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestServeShutdown(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(learner.NewService(st)).Serve(ctx, ln, time.Second) }()

	resp, err := http.Post("http://"+ln.Addr().String()+"/v1/pronunciation/compare", "application/json",
		bytes.NewBufferString(`{"spoken":"cat","target":"cat"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestVocabulary(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, http.MethodPost, "/v1/learners/ana/vocabulary",
		`{"words":[{"word":"Take Off","meaning":"leave the ground"},{"word":"abroad"}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	learned := decodeBody[wordsResponse](t, w)
	require.Len(t, learned.Words, 2)
	assert.Equal(t, "abroad", learned.Words[0].Word.Word)
	assert.Equal(t, vocab.StatusNew, learned.Words[1].Status)
	assert.Equal(t, 1, learned.Words[1].DaysUntilReview)

	w = do(t, h, http.MethodGet, "/v1/learners/ana/vocabulary?due=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody[wordsResponse](t, w).Words)

	w = do(t, h, http.MethodPost, "/v1/learners/ana/vocabulary/take%20off/review", `{"remembered":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	reviewed := decodeBody[wordView](t, w)
	assert.Equal(t, 1, reviewed.Stage)
	assert.Equal(t, vocab.StatusScheduled, reviewed.Status)

	w = do(t, h, http.MethodGet, "/v1/learners/ana/vocabulary", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[wordsResponse](t, w).Words, 2)

	w = do(t, h, http.MethodPost, "/v1/learners/ana/vocabulary/ghost/review", `{"remembered":true}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodPost, "/v1/learners/ana/vocabulary", `{"words":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/v1/learners/ana/vocabulary?due=true&limit=x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

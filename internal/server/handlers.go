package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/abhisek/fluentpath/internal/coach"
	"github.com/abhisek/fluentpath/internal/learner"
	"github.com/abhisek/fluentpath/internal/llm"
	"github.com/abhisek/fluentpath/internal/observe"
	"github.com/abhisek/fluentpath/internal/progression"
	"github.com/abhisek/fluentpath/internal/pronunciation"
	"github.com/abhisek/fluentpath/internal/store"
)

var errCoachDisabled = errors.New("no LLM provider is configured")

type errorBody struct {
	Error string `json:"error"`
}

type levelsResponse struct {
	Levels  []progression.Threshold `json:"levels"`
	Rewards progression.Rewards     `json:"rewards"`
}

func (s *Server) handleLevels(w http.ResponseWriter, _ *http.Request) {
	e := s.learners.Engine()
	writeJSON(w, http.StatusOK, levelsResponse{Levels: e.Thresholds(), Rewards: e.Rewards()})
}

func (s *Server) handleScenarios(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"scenarios":      coach.Scenarios,
		"writingPrompts": coach.WritingPrompts,
	})
}

type compareRequest struct {
	Spoken string `json:"spoken"`
	Target string `json:"target"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if !s.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, pronunciation.Compare(req.Spoken, req.Target))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.learners.Summary(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.learners.Reset(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.fail(w, r, fmt.Errorf("%w: limit must be a non-negative integer", progression.ErrInvalidInput))
			return
		}
		limit = n
	}
	events, err := s.learners.History(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

type awardRequest struct {
	Amount int    `json:"amount"`
	Source string `json:"source"`
}

func (s *Server) handleAward(w http.ResponseWriter, r *http.Request) {
	var req awardRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.learners.AwardXP(r.Context(), r.PathValue("id"), req.Amount, req.Source)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type lessonRequest struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

func (s *Server) handleCompleteLesson(w http.ResponseWriter, r *http.Request) {
	var req lessonRequest
	if !s.decode(w, r, &req) {
		return
	}
	out, err := s.learners.CompleteLesson(r.Context(), r.PathValue("id"), r.PathValue("lesson"), req.Correct, req.Total)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePronunciation(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if !s.decode(w, r, &req) {
		return
	}
	out, err := s.learners.PracticePronunciation(r.Context(), r.PathValue("id"), req.Spoken, req.Target)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type chatRequest struct {
	Messages []coach.Turn `json:"messages"`
}

type chatResponse struct {
	Reply string               `json:"reply,omitempty"`
	Award *learner.AwardResult `json:"award,omitempty"`
	Error string               `json:"error,omitempty"`
}

// handleChat answers the conversation when messages are sent. A
// conversation is credited once, on the tutor's first successful reply.
// An empty body credits a chat held elsewhere.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !s.decode(w, r, &req) {
		return
	}
	id := r.PathValue("id")

	if len(req.Messages) == 0 {
		award, err := s.learners.RecordChat(r.Context(), id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, chatResponse{Award: award})
		return
	}

	if s.tutor == nil {
		s.fail(w, r, errCoachDisabled)
		return
	}
	reply, err := s.tutor.Reply(r.Context(), req.Messages)
	if err != nil {
		if errors.Is(err, coach.ErrEmptyConversation) {
			s.fail(w, r, err)
			return
		}
		observe.Logger(r.Context(), s.log).Warn("tutor unavailable", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, chatResponse{Reply: coach.FallbackReply, Error: err.Error()})
		return
	}

	resp := chatResponse{Reply: reply}
	if userTurns(req.Messages) == 1 {
		award, err := s.learners.RecordChat(r.Context(), id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		resp.Award = award
	}
	writeJSON(w, http.StatusOK, resp)
}

func userTurns(turns []coach.Turn) int {
	n := 0
	for _, t := range turns {
		if t.Role == llm.RoleUser || t.Role == "" {
			n++
		}
	}
	return n
}

type writingRequest struct {
	Prompt string `json:"prompt"`
	Text   string `json:"text"`
}

type writingResponse struct {
	Feedback *coach.Feedback      `json:"feedback,omitempty"`
	Award    *learner.AwardResult `json:"award"`
}

// handleWriting reviews text and credits the exercise. Without text it only
// credits writing practised elsewhere.
func (s *Server) handleWriting(w http.ResponseWriter, r *http.Request) {
	var req writingRequest
	if !s.decode(w, r, &req) {
		return
	}
	id := r.PathValue("id")

	var resp writingResponse
	if req.Text != "" {
		if s.writing == nil {
			s.fail(w, r, errCoachDisabled)
			return
		}
		fb, err := s.writing.Review(r.Context(), req.Prompt, req.Text)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		resp.Feedback = fb
	}

	award, err := s.learners.RecordWriting(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp.Award = award
	writeJSON(w, http.StatusOK, resp)
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		s.fail(w, r, fmt.Errorf("%w: malformed JSON body: %v", progression.ErrInvalidInput, err))
		return false
	}
	return true
}

// fail maps err to a status code and writes it as JSON.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	log := observe.Logger(r.Context(), s.log)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		log.Debug("request rejected", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, progression.ErrInvalidInput),
		errors.Is(err, coach.ErrTooShort),
		errors.Is(err, coach.ErrEmptyConversation):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errCoachDisabled):
		return http.StatusServiceUnavailable
	case llm.IsModelError(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding failed"}`, http.StatusInternalServerError)
	}
}

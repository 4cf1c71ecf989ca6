package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/abhisek/fluentpath/internal/progression"
	"github.com/abhisek/fluentpath/internal/vocab"
)

type learnWordsRequest struct {
	Words []vocab.Entry `json:"words"`
}

type wordsResponse struct {
	Words []wordView `json:"words"`
}

type wordView struct {
	vocab.Word
	Status          vocab.Status `json:"status"`
	DaysUntilReview int          `json:"daysUntilReview"`
}

type reviewRequest struct {
	Remembered bool `json:"remembered"`
}

// handleListWords lists the learner's words. With ?due=true only words due
// for review are returned, most overdue first, capped by ?limit.
func (s *Server) handleListWords(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	q := r.URL.Query()

	var (
		words []vocab.Word
		err   error
	)
	if q.Get("due") == "true" {
		limit := 0
		if v := q.Get("limit"); v != "" {
			limit, err = strconv.Atoi(v)
			if err != nil || limit < 0 {
				s.fail(w, r, fmt.Errorf("%w: limit must be a non-negative integer", progression.ErrInvalidInput))
				return
			}
		}
		words, err = s.vocab.Due(r.Context(), id, limit)
	} else {
		words, err = s.vocab.List(r.Context(), id)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.wordsResponse(words))
}

func (s *Server) handleLearnWords(w http.ResponseWriter, r *http.Request) {
	var req learnWordsRequest
	if !s.decode(w, r, &req) {
		return
	}
	words, err := s.vocab.Learn(r.Context(), r.PathValue("id"), req.Words)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.wordsResponse(words))
}

func (s *Server) handleReviewWord(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !s.decode(w, r, &req) {
		return
	}
	word, err := s.vocab.Review(r.Context(), r.PathValue("id"), r.PathValue("word"), req.Remembered)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(*word))
}

func (s *Server) wordsResponse(words []vocab.Word) wordsResponse {
	out := wordsResponse{Words: make([]wordView, len(words))}
	for i, w := range words {
		out.Words[i] = s.view(w)
	}
	return out
}

func (s *Server) view(w vocab.Word) wordView {
	now := s.vocab.Now()
	return wordView{Word: w, Status: w.Status(now), DaysUntilReview: w.DaysUntilReview(now)}
}

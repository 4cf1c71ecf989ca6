// Package server exposes the learner service and the AI coaches over a JSON
// HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/fluentpath/internal/coach"
	"github.com/abhisek/fluentpath/internal/learner"
	"github.com/abhisek/fluentpath/internal/observe"
	"github.com/abhisek/fluentpath/internal/vocab"
)

// maxBodyBytes bounds request bodies. Writing submissions are the largest.
const maxBodyBytes = 1 << 20

// Server routes HTTP requests to the learner service.
type Server struct {
	learners *learner.Service
	tutor    *coach.Tutor
	writing  *coach.WritingCoach
	vocab    *vocab.Service

	metricsHandler http.Handler
	metrics        *observe.Metrics
	checkers       []Checker
	log            *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithCoaches enables the chat and writing endpoints that call the model.
func WithCoaches(t *coach.Tutor, w *coach.WritingCoach) Option {
	return func(s *Server) {
		s.tutor = t
		s.writing = w
	}
}

// WithVocabulary enables the vocabulary review endpoints.
func WithVocabulary(v *vocab.Service) Option {
	return func(s *Server) { s.vocab = v }
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// WithMetrics records request durations.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithReadiness adds checks run by /readyz.
func WithReadiness(checks ...Checker) Option {
	return func(s *Server) { s.checkers = append(s.checkers, checks...) }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a Server.
func New(svc *learner.Service, opts ...Option) *Server {
	s := &Server{learners: svc, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the instrumented router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.healthz)
	mux.HandleFunc("GET /readyz", s.readyz)
	if s.metricsHandler != nil {
		mux.Handle("GET /metrics", s.metricsHandler)
	}

	mux.HandleFunc("GET /v1/levels", s.handleLevels)
	mux.HandleFunc("GET /v1/scenarios", s.handleScenarios)
	mux.HandleFunc("POST /v1/pronunciation/compare", s.handleCompare)

	mux.HandleFunc("GET /v1/learners/{id}", s.handleSummary)
	mux.HandleFunc("DELETE /v1/learners/{id}", s.handleReset)
	mux.HandleFunc("GET /v1/learners/{id}/history", s.handleHistory)
	mux.HandleFunc("POST /v1/learners/{id}/xp", s.handleAward)
	mux.HandleFunc("POST /v1/learners/{id}/lessons/{lesson}/complete", s.handleCompleteLesson)
	mux.HandleFunc("POST /v1/learners/{id}/pronunciation", s.handlePronunciation)
	mux.HandleFunc("POST /v1/learners/{id}/chat", s.handleChat)
	mux.HandleFunc("POST /v1/learners/{id}/writing", s.handleWriting)
	if s.vocab != nil {
		mux.HandleFunc("GET /v1/learners/{id}/vocabulary", s.handleListWords)
		mux.HandleFunc("POST /v1/learners/{id}/vocabulary", s.handleLearnWords)
		mux.HandleFunc("POST /v1/learners/{id}/vocabulary/{word}/review", s.handleReviewWord)
	}

	return observe.Middleware(s.metrics, s.log)(mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests for up to shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, shutdownTimeout)
}

// Serve is ListenAndServe over an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	s.log.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

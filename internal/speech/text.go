package speech

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ReaderListener treats each line of an io.Reader as one transcript. It
// backs the CLI, where the learner types (or pipes in) what they said.
type ReaderListener struct {
	mu sync.Mutex
	r  *bufio.Reader
}

// NewReaderListener returns a Listener reading lines from r.
func NewReaderListener(r io.Reader) *ReaderListener {
	return &ReaderListener{r: bufio.NewReader(r)}
}

// Listen reads the next line. End of input is a capture with no speech.
func (l *ReaderListener) Listen(ctx context.Context, cfg ListenConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	line, err := l.r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	transcript := strings.TrimSpace(line)
	if cfg.OnInterim != nil && transcript != "" {
		cfg.OnInterim("", transcript)
	}
	return transcript, nil
}

// WriterSpeaker writes each utterance as a line of text.
type WriterSpeaker struct {
	mu     sync.Mutex
	w      io.Writer
	prefix string
}

// NewWriterSpeaker returns a Speaker writing to w. prefix is written before
// every utterance.
func NewWriterSpeaker(w io.Writer, prefix string) *WriterSpeaker {
	return &WriterSpeaker{w: w, prefix: prefix}
}

func (s *WriterSpeaker) Speak(ctx context.Context, text string, _ SpeakConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintf(s.w, "%s%s\n", s.prefix, text); err != nil {
		return fmt.Errorf("speak: %w", err)
	}
	return nil
}

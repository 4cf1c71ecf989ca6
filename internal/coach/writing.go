package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"text/template"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/abhisek/fluentpath/internal/llm"
)

// MinWritingLength is the shortest submission worth reviewing, in runes
// after trimming.
const MinWritingLength = 20

// ErrTooShort is returned for submissions under MinWritingLength.
var ErrTooShort = fmt.Errorf("writing must be at least %d characters", MinWritingLength)

// Correction is one suggested fix.
type Correction struct {
	Original    string `json:"original"`
	Corrected   string `json:"corrected"`
	Explanation string `json:"explanation"`
}

// Feedback is the writing coach's verdict.
type Feedback struct {
	GrammarScore int          `json:"grammarScore"`
	ToneScore    int          `json:"toneScore"`
	StyleScore   int          `json:"styleScore"`
	OverallScore int          `json:"overallScore"`
	Corrections  []Correction `json:"corrections"`
	Strengths    []string     `json:"strengths"`
	Suggestions  []string     `json:"suggestions"`
}

// WritingConfig holds generation settings for the writing coach.
type WritingConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultWritingConfig returns sensible defaults.
func DefaultWritingConfig() WritingConfig {
	return WritingConfig{
		MaxTokens:   1024,
		Temperature: 0.3,
	}
}

// WritingCoach reviews short compositions written against a prompt.
type WritingCoach struct {
	provider llm.Provider
	cfg      WritingConfig
	log      *zap.Logger
}

// NewWritingCoach creates a writing coach. log may be nil.
func NewWritingCoach(provider llm.Provider, cfg WritingConfig, log *zap.Logger) *WritingCoach {
	if log == nil {
		log = zap.NewNop()
	}
	return &WritingCoach{provider: provider, cfg: cfg, log: log}
}

// Review asks the model to grade text written for prompt.
func (c *WritingCoach) Review(ctx context.Context, prompt, text string) (*Feedback, error) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < MinWritingLength {
		return nil, ErrTooShort
	}
	if strings.TrimSpace(prompt) == "" {
		prompt = WritingPrompts[0]
	}

	userMsg, err := buildReviewMessage(prompt, text)
	if err != nil {
		return nil, fmt.Errorf("build review prompt: %w", err)
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeWritingFeedback)
	resp, err := c.provider.Generate(ctx, llm.Request{
		System:      WritingSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: userMsg}},
		Schema:      FeedbackSchema,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		c.log.Warn("writing review failed", zap.Error(err))
		return nil, fmt.Errorf("writing review: %w", err)
	}

	var fb Feedback
	if err := json.Unmarshal(resp.Content, &fb); err != nil {
		return nil, fmt.Errorf("parse writing feedback: %w",
			&llm.ErrInvalidResponse{Content: resp.Content, Err: err})
	}
	fb.clamp()
	return &fb, nil
}

func (f *Feedback) clamp() {
	for _, s := range []*int{&f.GrammarScore, &f.ToneScore, &f.StyleScore, &f.OverallScore} {
		*s = min(max(*s, 0), 100)
	}
	if f.Corrections == nil {
		f.Corrections = []Correction{}
	}
	if f.Strengths == nil {
		f.Strengths = []string{}
	}
	if f.Suggestions == nil {
		f.Suggestions = []string{}
	}
}

// WritingPrompts are the topics offered to learners.
var WritingPrompts = []string{
	"Write about your favorite holiday memory.",
	"Describe your ideal weekend.",
	"Write about the importance of learning English.",
	"Describe a person who inspires you.",
	"Write about a challenge you overcame.",
	"Describe your dream job.",
}

// NextPrompt picks a writing prompt different from current.
func NextPrompt(current string, r *rand.Rand) string {
	var choices []string
	for _, p := range WritingPrompts {
		if p != current {
			choices = append(choices, p)
		}
	}
	if r == nil {
		return choices[rand.IntN(len(choices))]
	}
	return choices[r.IntN(len(choices))]
}

const WritingSystemPrompt = `You are FluentPath Writing Assistant, an expert English writing coach.
Your role:
- Review and provide feedback on user's writing
- Score their writing on Grammar, Tone, and Style from 0 to 100
- Provide specific suggestions for improvement
- Be encouraging while being constructive
- Quote the learner's exact words in each correction's "original" field`

var reviewTemplate = template.Must(template.New("review").Parse(`Prompt: "{{.Prompt}}"

Student's writing:
{{.Text}}`))

func buildReviewMessage(prompt, text string) (string, error) {
	var buf bytes.Buffer
	err := reviewTemplate.Execute(&buf, struct{ Prompt, Text string }{prompt, text})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

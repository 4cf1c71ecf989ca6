// Package coach holds the generative tutors: a conversational English tutor
// and a writing coach that returns scored feedback.
package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/fluentpath/internal/llm"
)

// FallbackReply is shown to the learner when the tutor cannot be reached.
const FallbackReply = "I'm having trouble connecting right now. Please try again in a moment."

// ErrEmptyConversation is returned when there is no user turn to answer.
var ErrEmptyConversation = errors.New("conversation must end with a user message")

// Turn is one message in a tutor conversation.
type Turn struct {
	Role llm.Role `json:"role"`
	Text string   `json:"text"`
}

// TutorConfig holds generation settings for the chat tutor.
type TutorConfig struct {
	MaxTokens   int
	Temperature float64
	// MaxTurns caps how much history is sent. 0 sends everything.
	MaxTurns int
}

// DefaultTutorConfig returns sensible defaults.
func DefaultTutorConfig() TutorConfig {
	return TutorConfig{
		MaxTokens:   512,
		Temperature: 0.7,
		MaxTurns:    20,
	}
}

// Tutor answers learner messages in a roleplay-friendly conversation.
type Tutor struct {
	provider llm.Provider
	cfg      TutorConfig
	log      *zap.Logger
}

// NewTutor creates a chat tutor. log may be nil.
func NewTutor(provider llm.Provider, cfg TutorConfig, log *zap.Logger) *Tutor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tutor{provider: provider, cfg: cfg, log: log}
}

// Reply sends the conversation to the model and returns the tutor's next
// message. On provider failure the error is returned and callers are
// expected to show FallbackReply.
func (t *Tutor) Reply(ctx context.Context, history []Turn) (string, error) {
	msgs := toMessages(history, t.cfg.MaxTurns)
	if len(msgs) == 0 || msgs[len(msgs)-1].Role != llm.RoleUser {
		return "", ErrEmptyConversation
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeTutorChat)
	resp, err := t.provider.Generate(ctx, llm.Request{
		System:      TutorSystemPrompt,
		Messages:    msgs,
		MaxTokens:   t.cfg.MaxTokens,
		Temperature: t.cfg.Temperature,
	})
	if err != nil {
		t.log.Warn("tutor reply failed", zap.Int("turns", len(msgs)), zap.Error(err))
		return "", fmt.Errorf("tutor reply: %w", err)
	}

	reply := strings.TrimSpace(resp.Text())
	if reply == "" {
		return "", fmt.Errorf("tutor reply: %w", &llm.ErrInvalidResponse{Content: resp.Content, Err: llm.ErrEmptyReply})
	}
	return reply, nil
}

// toMessages drops blank turns, normalizes roles, and keeps at most the
// last max turns.
func toMessages(history []Turn, max int) []llm.Message {
	msgs := make([]llm.Message, 0, len(history))
	for _, turn := range history {
		text := strings.TrimSpace(turn.Text)
		if text == "" {
			continue
		}
		role := llm.RoleAssistant
		if turn.Role == llm.RoleUser || turn.Role == "" {
			role = llm.RoleUser
		}
		msgs = append(msgs, llm.Message{Role: role, Content: text})
	}
	if max > 0 && len(msgs) > max {
		msgs = msgs[len(msgs)-max:]
	}
	return msgs
}

// Scenario is a canned roleplay opener.
type Scenario struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Prompt string `json:"prompt"`
}

// Scenarios lists the roleplay openers offered to learners.
var Scenarios = []Scenario{
	{"cafe", "Café Order", "Let's practice ordering coffee at a café. You're the customer and I'm the barista. Start the roleplay."},
	{"airport", "Airport", "Let's practice a conversation at the airport. You're checking in for a flight. I'm the airline agent. Start the roleplay."},
	{"doctor", "Doctor", "Let's practice visiting a doctor. You describe your symptoms and I'll be the doctor. Start the roleplay."},
	{"shopping", "Shopping", "Let's practice shopping for clothes at a store. You're the customer and I'm the salesperson. Start the roleplay."},
	{"phone", "Phone Call", "Let's practice a phone conversation. You need to schedule an appointment. I'll be the receptionist. Start the roleplay."},
	{"restaurant", "Restaurant", "Let's practice dining at a restaurant. You're the customer ordering food. I'm the waiter. Start the roleplay."},
}

// ScenarioByID returns the scenario with the given id.
func ScenarioByID(id string) (Scenario, bool) {
	for _, s := range Scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}

const TutorSystemPrompt = `You are FluentPath AI Tutor, a friendly, encouraging English language tutor.
Your role:
- Help users practice English through natural conversations
- Gently correct grammar and vocabulary mistakes
- Provide explanations when asked
- Adapt to the user's proficiency level
- Use scenario-based conversations (ordering at cafés, job interviews, travel, etc.)
- Be warm, supportive, and never condescending
- After each user message, provide brief feedback on grammar if needed
- Use emojis occasionally to keep the tone friendly

Format your responses naturally. When correcting grammar, use a format like:
💡 Grammar tip: [correction and explanation]`

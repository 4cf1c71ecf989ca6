package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMockProvider_ScriptedTutorChat(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Text: "Hi! What can I get you?", Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockReply("💡 Grammar tip: say \"I would like\" instead of \"I want\"."),
	)

	resp1, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "Let's practice at a café."}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp1.Text() != "Hi! What can I get you?" {
		t.Fatalf("unexpected reply %q", resp1.Text())
	}
	if !json.Valid(resp1.Content) {
		t.Fatalf("tutor reply should be carried as JSON, got %s", resp1.Content)
	}
	if resp1.Usage.InputTokens != 10 {
		t.Fatalf("expected 10 input tokens, got %d", resp1.Usage.InputTokens)
	}
	if resp1.StopReason != StopEnd {
		t.Fatalf("expected stop reason %q, got %q", StopEnd, resp1.StopReason)
	}

	resp2, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "I want latte"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp2.Text() != `💡 Grammar tip: say "I would like" instead of "I want".` {
		t.Fatalf("unexpected reply %q", resp2.Text())
	}
}

func TestMockProvider_Feedback(t *testing.T) {
	mock := NewMockProvider(MockFeedback(map[string]any{"grammarScore": 82, "strengths": []string{"clear"}}))

	resp, err := mock.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got struct {
		GrammarScore int      `json:"grammarScore"`
		Strengths    []string `json:"strengths"`
	}
	if err := json.Unmarshal(resp.Content, &got); err != nil {
		t.Fatalf("feedback is not JSON: %v", err)
	}
	if got.GrammarScore != 82 || len(got.Strengths) != 1 {
		t.Fatalf("unexpected feedback %+v", got)
	}

	bad := MockFeedback(func() {})
	if bad.Err == nil {
		t.Fatal("unencodable feedback should script an error")
	}
}

func TestMockProvider_ScriptExhausted(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T", err)
	}
	if !errors.Is(err, errScriptExhausted) {
		t.Fatalf("expected script exhausted, got: %v", err)
	}
}

func TestMockProvider_RecordsCalls(t *testing.T) {
	mock := NewMockProvider(MockReply("ok"))
	if _, ok := mock.LastRequest(); ok {
		t.Fatal("no request yet")
	}

	req := Request{
		System:   "You are FluentPath Writing Assistant.",
		Messages: []Message{{Role: RoleUser, Content: "Review my paragraph."}},
	}
	_, _ = mock.Generate(context.Background(), req)

	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
	last, ok := mock.LastRequest()
	if !ok || last.System != req.System {
		t.Fatalf("unexpected last request %+v", last)
	}
}

func TestMockProvider_ReturnsScriptedError(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrRateLimit{RetryAfter: 2 * time.Second}})

	_, err := mock.Generate(context.Background(), Request{})
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got: %T", err)
	}
	if !strings.Contains(err.Error(), "retry after 2s") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestMockProvider_ModelID(t *testing.T) {
	if NewMockProvider().ModelID() != "mock" {
		t.Fatal("expected 'mock'")
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != PurposeUnknown {
		t.Fatalf("expected %q, got %q", PurposeUnknown, p)
	}

	ctx = WithPurpose(ctx, PurposeTutorChat)
	if p := PurposeFrom(ctx); p != PurposeTutorChat {
		t.Fatalf("expected %q, got %q", PurposeTutorChat, p)
	}
}

func TestParsePurpose(t *testing.T) {
	p, err := ParsePurpose("Writing-Feedback")
	if err != nil || p != PurposeWritingFeedback {
		t.Fatalf("ParsePurpose = %q, %v", p, err)
	}
	if _, err := ParsePurpose("grading"); err == nil || !strings.Contains(err.Error(), "tutor-chat") {
		t.Fatalf("expected error listing purposes, got %v", err)
	}
}

func TestAlternate(t *testing.T) {
	got := alternate([]Message{
		{Role: RoleUser, Content: "Hello?"},
		{Role: RoleUser, Content: "Are you there?"},
		{Role: RoleAssistant, Content: "Yes! Sorry for the wait."},
		{Role: RoleUser, Content: "Can we practice ordering food?"},
	})
	if len(got) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(got))
	}
	if got[0].Content != "Hello?\n\nAre you there?" {
		t.Fatalf("unexpected merged turn %q", got[0].Content)
	}
	if got[1].Role != RoleAssistant || got[2].Role != RoleUser {
		t.Fatalf("roles should alternate: %+v", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "anthropic without key",
			cfg:     Config{Provider: "anthropic"},
			wantErr: true,
		},
		{
			name:    "anthropic with key",
			cfg:     Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "sk-test"}},
			wantErr: false,
		},
		{
			name:    "openai without key",
			cfg:     Config{Provider: "openai"},
			wantErr: true,
		},
		{
			name:    "openai with key",
			cfg:     Config{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "sk-test"}},
			wantErr: false,
		},
		{
			name:    "gemini without key",
			cfg:     Config{Provider: "gemini"},
			wantErr: true,
		},
		{
			name:    "gemini with key",
			cfg:     Config{Provider: "gemini", Gemini: GeminiConfig{APIKey: "g-test"}},
			wantErr: false,
		},
		{
			name:    "mock needs no key",
			cfg:     Config{Provider: "mock"},
			wantErr: false,
		},
		{
			name:    "unknown provider",
			cfg:     Config{Provider: "unknown"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResponseText(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{`Hello there`, "Hello there"},
		{`"quoted \"reply\""`, `quoted "reply"`},
		{"  padded\n", "padded"},
		{`{"a":1}`, `{"a":1}`},
		{`"unterminated`, `"unterminated`},
	}
	for _, tt := range tests {
		r := &Response{Content: json.RawMessage(tt.content)}
		if got := r.Text(); got != tt.want {
			t.Errorf("Text(%q) = %q, want %q", tt.content, got, tt.want)
		}
	}

	var nilResp *Response
	if nilResp.Text() != "" {
		t.Error("nil response should have empty text")
	}
}

func TestDiscoverConfig(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	base := DefaultConfig()
	if _, ok := DiscoverConfig(base); ok {
		t.Fatal("expected no provider without keys")
	}

	t.Setenv("OPENAI_API_KEY", "sk-openai")
	cfg, ok := DiscoverConfig(base)
	if !ok || cfg.Provider != "openai" || cfg.OpenAI.APIKey != "sk-openai" {
		t.Fatalf("got %+v, %v", cfg, ok)
	}

	t.Setenv("GEMINI_API_KEY", "g-key")
	cfg, _ = DiscoverConfig(base)
	if cfg.Provider != "gemini" {
		t.Fatalf("gemini should win, got %q", cfg.Provider)
	}
}

func TestAvailable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OpenAI.APIKey = "x"
	cfg.Anthropic.APIKey = "y"

	got := Available(cfg)
	if len(got) != 2 || got[0] != "openai" || got[1] != "anthropic" {
		t.Fatalf("Available = %v", got)
	}
}

func TestNewProvider_Mock(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: "mock", Retry: RetryConfig{MaxAttempts: 1}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("ModelID = %q", p.ModelID())
	}
	if _, err := NewProvider(context.Background(), Config{Provider: "nope"}, nil); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

package llm

import (
	"errors"
	"slices"
	"testing"

	"google.golang.org/genai"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.5-flash"},
		{"gemini-pro", "gemini-2.5-pro"},
		{"gemini-2.0-flash", "gemini-2.0-flash"}, // Pass-through
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, geminiModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"overallScore": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
			"feedback":     map[string]any{"type": "string"},
			"band":         map[string]any{"type": "string", "enum": []any{"good", "excellent", "perfect"}},
			"strengths": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"ratio": map[string]any{"type": "number"},
		},
		"required": []any{"overallScore", "feedback"},
	}

	schema := buildGeminiSchema(def)

	if schema.Type != "OBJECT" {
		t.Fatalf("expected OBJECT type, got %s", schema.Type)
	}
	want := map[string]string{
		"overallScore": "INTEGER",
		"feedback":     "STRING",
		"band":         "STRING",
		"strengths":    "ARRAY",
		"ratio":        "NUMBER",
	}
	if len(schema.Properties) != len(want) {
		t.Fatalf("expected %d properties, got %d", len(want), len(schema.Properties))
	}
	for name, typ := range want {
		if got := string(schema.Properties[name].Type); got != typ {
			t.Errorf("%s: expected %s, got %s", name, typ, got)
		}
	}
	if len(schema.Properties["band"].Enum) != 3 {
		t.Fatalf("expected 3 enum values, got %d", len(schema.Properties["band"].Enum))
	}
	if schema.Properties["strengths"].Items.Type != "STRING" {
		t.Fatalf("expected STRING for strengths items, got %s", schema.Properties["strengths"].Items.Type)
	}
	if len(schema.Required) != 2 {
		t.Fatalf("expected 2 required fields, got %d", len(schema.Required))
	}
	score := schema.Properties["overallScore"]
	if score.Minimum == nil || *score.Minimum != 0 || score.Maximum == nil || *score.Maximum != 100 {
		t.Fatalf("score bounds lost: %+v", score)
	}
	wantOrder := []string{"overallScore", "feedback", "band", "ratio", "strengths"}
	if !slices.Equal(schema.PropertyOrdering, wantOrder) {
		t.Fatalf("PropertyOrdering = %v, want %v", schema.PropertyOrdering, wantOrder)
	}
}

func TestBuildGeminiContents(t *testing.T) {
	got := buildGeminiContents([]Message{
		{Role: RoleUser, Content: "Let's practice a phone call."},
		{Role: RoleAssistant, Content: "Good morning, Dr. Lee's office."},
		{Role: RoleUser, Content: "Hello,"},
		{Role: RoleUser, Content: "I need an appointment."},
	})
	if len(got) != 3 {
		t.Fatalf("expected 3 contents, got %d", len(got))
	}
	if got[1].Role != genai.RoleModel {
		t.Fatalf("tutor turns should use the model role, got %q", got[1].Role)
	}
	if got[2].Parts[0].Text != "Hello,\n\nI need an appointment." {
		t.Fatalf("unexpected merged turn %q", got[2].Parts[0].Text)
	}
}

func TestMapGeminiStopReason(t *testing.T) {
	candidate := func(r genai.FinishReason) *genai.GenerateContentResponse {
		return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: r}}}
	}
	tests := []struct {
		name   string
		result *genai.GenerateContentResponse
		want   string
	}{
		{"stop", candidate(genai.FinishReasonStop), StopEnd},
		{"max tokens", candidate(genai.FinishReasonMaxTokens), StopMaxTokens},
		{"safety", candidate(genai.FinishReasonSafety), StopRefused},
		{"blocked prompt", &genai.GenerateContentResponse{
			PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
		}, StopRefused},
		{"no candidates", &genai.GenerateContentResponse{}, StopEnd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapGeminiStopReason(tt.result); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMapGeminiError(t *testing.T) {
	var rl *ErrRateLimit
	if !errors.As(mapGeminiError(genai.APIError{Code: 429}), &rl) {
		t.Fatal("429 should map to ErrRateLimit")
	}
	var unavail *ErrProviderUnavailable
	if !errors.As(mapGeminiError(genai.APIError{Code: 503}), &unavail) {
		t.Fatal("503 should map to ErrProviderUnavailable")
	}
}

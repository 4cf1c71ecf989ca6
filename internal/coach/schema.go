package coach

import "github.com/abhisek/fluentpath/internal/llm"

func scoreProperty(desc string) map[string]any {
	return map[string]any{
		"type":        "integer",
		"minimum":     0,
		"maximum":     100,
		"description": desc,
	}
}

// FeedbackSchema defines the JSON schema for writing feedback responses.
var FeedbackSchema = &llm.Schema{
	Name:        "writing-feedback",
	Description: "Scored feedback on a learner's written English",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"grammarScore": scoreProperty("Grammar accuracy, 0-100"),
			"toneScore":    scoreProperty("Appropriateness of tone for the prompt, 0-100"),
			"styleScore":   scoreProperty("Vocabulary range and sentence variety, 0-100"),
			"overallScore": scoreProperty("Overall quality, 0-100"),
			"corrections": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"original":    map[string]any{"type": "string"},
						"corrected":   map[string]any{"type": "string"},
						"explanation": map[string]any{"type": "string"},
					},
					"required":             []any{"original", "corrected", "explanation"},
					"additionalProperties": false,
				},
			},
			"strengths": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"suggestions": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []any{
			"grammarScore", "toneScore", "styleScore", "overallScore",
			"corrections", "strengths", "suggestions",
		},
		"additionalProperties": false,
	},
}

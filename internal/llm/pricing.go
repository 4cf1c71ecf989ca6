package llm

// ModelCost holds per-million-token pricing for a model in USD.
type ModelCost struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost calculates the total USD cost for the given token counts.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*c.InputPerMTok/1_000_000 +
		float64(outputTokens)*c.OutputPerMTok/1_000_000
}

// LookupCost returns the pricing for a model ID, or nil if unknown.
func LookupCost(modelID string) *ModelCost {
	if c, ok := modelCosts[modelID]; ok {
		return &c
	}
	return nil
}

// ModelFor returns the concrete model ID the named provider would call with
// cfg. Unknown providers yield "".
func ModelFor(cfg Config, provider string) string {
	switch provider {
	case "anthropic":
		return resolveModel(cfg.Anthropic.Model, anthropicModels)
	case "openai":
		return cfg.OpenAI.Model
	case "gemini":
		return resolveModel(cfg.Gemini.Model, geminiModels)
	case "mock":
		return "mock"
	}
	return ""
}

// modelCosts covers the models reachable through the provider aliases plus
// the common OpenAI chat models. Last updated: 2026-02-15.
var modelCosts = map[string]ModelCost{
	"claude-haiku-4-5-20251001": {1, 5},
	"claude-sonnet-4-20250514":  {3, 15},

	"gpt-4o":       {2.5, 10},
	"gpt-4o-mini":  {0.15, 0.6},
	"gpt-4.1":      {2, 8},
	"gpt-4.1-mini": {0.4, 1.6},
	"gpt-4.1-nano": {0.1, 0.4},

	"gemini-2.5-flash": {0.3, 2.5},
	"gemini-2.5-pro":   {1.25, 10},

	"mock": {0, 0},
}

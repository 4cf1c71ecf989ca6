package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// errScriptExhausted is returned once every scripted reply has been used.
var errScriptExhausted = errors.New("mock: no scripted reply left")

// MockResponse scripts one reply of a MockProvider. Text is a tutor message,
// Content a raw payload such as writing feedback, and Err fails the call.
type MockResponse struct {
	Text       string
	Content    json.RawMessage
	Usage      Usage
	StopReason string
	Err        error
}

// MockReply scripts a tutor chat message.
func MockReply(text string) MockResponse {
	return MockResponse{Text: text}
}

// MockFeedback scripts a writing review. v is encoded as the reply body, so
// it can be a coach feedback struct or a map.
func MockFeedback(v any) MockResponse {
	raw, err := json.Marshal(v)
	if err != nil {
		return MockResponse{Err: err}
	}
	return MockResponse{Content: raw}
}

// MockProvider is a scripted Provider for tests and offline runs. Replies
// are served in order and every request is kept in Calls.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request
}

// NewMockProvider returns a provider that answers with responses in order.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(m.responses) == 0 {
		return nil, &ErrProviderUnavailable{Err: errScriptExhausted}
	}

	next := m.responses[0]
	m.responses = m.responses[1:]
	if next.Err != nil {
		return nil, next.Err
	}

	content := next.Content
	if content == nil {
		content, _ = json.Marshal(next.Text)
	}
	stop := next.StopReason
	if stop == "" {
		stop = StopEnd
	}
	return &Response{
		Content:    content,
		Usage:      next.Usage,
		Model:      "mock",
		StopReason: stop,
	}, nil
}

func (m *MockProvider) ModelID() string { return "mock" }

// AddResponse queues another reply.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns how many requests the provider has seen.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastRequest returns the most recent request, if any.
func (m *MockProvider) LastRequest() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return Request{}, false
	}
	return m.Calls[len(m.Calls)-1], true
}

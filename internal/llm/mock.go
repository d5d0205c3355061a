package llm

import (
	"context"
	"strings"
)

// MockClient is used when no provider is configured and in tests. Responses
// can be scripted per call; unscripted calls fall back to simple heuristics.
type MockClient struct {
	// Responses are consumed in order by Complete. When exhausted, the
	// heuristic fallback answers instead.
	Responses []string
	// Err, when set, is returned by every call.
	Err error

	calls int
	// Prompts records every user prompt seen, for assertions.
	Prompts []string
}

func (m *MockClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.Prompts = append(m.Prompts, userPrompt)
	if m.Err != nil {
		return "", m.Err
	}
	if m.calls < len(m.Responses) {
		r := m.Responses[m.calls]
		m.calls++
		return r, nil
	}
	if strings.Contains(strings.ToLower(userPrompt), "question") {
		return "none", nil
	}
	return "ok", nil
}

func (m *MockClient) SummarizeChunks(ctx context.Context, systemPrompt string, chunks []string) (string, error) {
	return summarizeChunks(ctx, m, systemPrompt, chunks)
}

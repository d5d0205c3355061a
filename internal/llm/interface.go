// Package llm provides the language-model collaborator used by the clarifier,
// planner, and summarization flow. Providers are selected by configuration;
// the rest of the agent only sees the Client interface.
package llm

import (
	"context"
	"strconv"
	"strings"
)

// Client is the minimal contract the orchestration core depends on.
type Client interface {
	// Complete sends one system+user exchange and returns the model text.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// SummarizeChunks summarizes each chunk under the system prompt, then
	// merges the partial summaries into a single deduplicated result.
	SummarizeChunks(ctx context.Context, systemPrompt string, chunks []string) (string, error)
}

// summarizeChunks is the shared map-reduce implementation: per-chunk summary
// followed by a merge pass. All providers delegate here.
func summarizeChunks(ctx context.Context, c Client, systemPrompt string, chunks []string) (string, error) {
	partials := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		if len(chunk) > 8000 {
			chunk = chunk[:8000]
		}
		out, err := c.Complete(ctx, systemPrompt, "Chunk "+strconv.Itoa(i+1)+":\n"+chunk)
		if err != nil {
			return "", err
		}
		partials = append(partials, out)
	}
	if len(partials) == 1 {
		return partials[0], nil
	}
	merged := strings.Join(partials, "\n\n")
	return c.Complete(ctx, systemPrompt, "Merge and deduplicate:\n"+merged)
}

package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockScriptedResponses(t *testing.T) {
	m := &MockClient{Responses: []string{"one", "two"}}

	out, err := m.Complete(context.Background(), "sys", "first")
	require.NoError(t, err)
	assert.Equal(t, "one", out)

	out, err = m.Complete(context.Background(), "sys", "second")
	require.NoError(t, err)
	assert.Equal(t, "two", out)

	assert.Equal(t, []string{"first", "second"}, m.Prompts)
}

func TestMockHeuristicFallback(t *testing.T) {
	m := &MockClient{}

	out, err := m.Complete(context.Background(), "sys", "list up to 3 short, critical questions")
	require.NoError(t, err)
	assert.Equal(t, "none", out)

	out, err = m.Complete(context.Background(), "sys", "anything else")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestMockError(t *testing.T) {
	m := &MockClient{Err: errors.New("down")}
	_, err := m.Complete(context.Background(), "sys", "x")
	require.Error(t, err)
}

func TestSummarizeChunksSingle(t *testing.T) {
	m := &MockClient{Responses: []string{"summary"}}
	out, err := m.SummarizeChunks(context.Background(), "sys", []string{"chunk text"})
	require.NoError(t, err)
	assert.Equal(t, "summary", out)
	require.Len(t, m.Prompts, 1)
	assert.Contains(t, m.Prompts[0], "Chunk 1:")
}

func TestSummarizeChunksMerges(t *testing.T) {
	m := &MockClient{Responses: []string{"s1", "s2", "merged"}}
	out, err := m.SummarizeChunks(context.Background(), "sys", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "merged", out)
	require.Len(t, m.Prompts, 3)
	assert.Contains(t, m.Prompts[2], "Merge and deduplicate:")
	assert.Contains(t, m.Prompts[2], "s1")
	assert.Contains(t, m.Prompts[2], "s2")
}

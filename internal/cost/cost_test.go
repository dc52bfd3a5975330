package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lawndlwd/repair-bench/internal/types"
)

func TestLookup(t *testing.T) {
	p, ok := Lookup("openrouter", "deepseek-v3")
	require.True(t, ok)
	assert.Equal(t, Price{Prompt: 0.14, Completion: 0.28}, p)

	p, ok = Lookup("openrouter", "deepseek/deepseek-r1")
	require.True(t, ok)
	assert.Equal(t, 2.19, p.Completion)

	_, ok = Lookup("openrouter", "meta-llama/llama-3.1-405b-instruct")
	assert.True(t, ok)

	_, ok = Lookup("openrouter", "unknown-model")
	assert.False(t, ok)
	_, ok = Lookup("nowhere", "deepseek-v3")
	assert.False(t, ok)
}

func TestCompute(t *testing.T) {
	samples := []types.Sample{
		{Generations: []types.Generation{
			{Usage: &types.Usage{PromptTokens: 1_000_000, CompletionTokens: 500_000}},
			{Content: "no usage"},
		}},
		{Generations: []types.Generation{
			{Usage: &types.Usage{PromptTokens: 2_000_000, CompletionTokens: 0}},
		}},
		{},
	}

	costs, ok := Compute(samples, "openrouter", "mistral-large-2407")
	require.True(t, ok)
	assert.InDelta(t, 6.0, costs.PromptCost, 1e-9)
	assert.InDelta(t, 3.0, costs.CompletionCost, 1e-9)
	assert.InDelta(t, 9.0, costs.TotalCost, 1e-9)

	_, ok = Compute(samples, "anthropic", "claude")
	assert.False(t, ok)
}

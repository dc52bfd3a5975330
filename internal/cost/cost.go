// Package cost estimates the spend of generated samples from per-provider
// price tables.
package cost

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lawndlwd/repair-bench/internal/types"
)

// Price is in dollars per million tokens.
type Price struct {
	Prompt     float64
	Completion float64
}

var openRouter = map[string]Price{
	"meta-llama:llama-3.1-405b-instruct": {Prompt: 2.8, Completion: 2.8},
	"deepseek-v2.5":                      {Prompt: 2, Completion: 2},
	"mistral-large-2407":                 {Prompt: 2, Completion: 6},
	"qwen-2.5-72b-instruct":              {Prompt: 0.35, Completion: 0.4},
	"llama-3.1-nemotron-70b-instruct":    {Prompt: 0.35, Completion: 0.4},
	"qwen-2.5-coder-32b-instruct":        {Prompt: 0.2, Completion: 0.2},
	"qwq-32b-preview":                    {Prompt: 0.15, Completion: 0.6},
	"llama-3.3-70b-instruct":             {Prompt: 0.13, Completion: 0.4},
	"grok-2-1212":                        {Prompt: 2.0, Completion: 10.0},
	"deepseek-v3":                        {Prompt: 0.14, Completion: 0.28},
	"deepseek-r1":                        {Prompt: 0.55, Completion: 2.19},
	"deepseek-r1-distill-llama-70b":      {Prompt: 0.23, Completion: 0.69},
}

var tables = map[string]map[string]Price{
	"openrouter": openRouter,
}

// Lookup finds the price of model at provider. Models may be given with
// their vendor prefix ("deepseek/deepseek-v3").
func Lookup(provider, model string) (Price, bool) {
	table, ok := tables[provider]
	if !ok {
		return Price{}, false
	}
	candidates := []string{model, strings.ReplaceAll(model, "/", ":")}
	if i := strings.LastIndex(model, "/"); i >= 0 {
		candidates = append(candidates, model[i+1:])
	}
	for _, name := range candidates {
		if p, ok := table[name]; ok {
			return p, true
		}
	}
	return Price{}, false
}

// Compute sums the cost of every generation in samples. It reports false
// when there is no price for provider and model. Generations without usage
// are skipped.
func Compute(samples []types.Sample, provider, model string) (types.Costs, bool) {
	price, ok := Lookup(provider, model)
	if !ok {
		return types.Costs{}, false
	}

	var costs types.Costs
	for _, sample := range samples {
		for _, g := range sample.Generations {
			if g.Usage == nil {
				log.Warn().Str("bug", sample.Identifier).Msg("generation has no usage, skipping")
				continue
			}
			costs.PromptCost += price.Prompt * float64(g.Usage.PromptTokens) / 1_000_000
			costs.CompletionCost += price.Completion * float64(g.Usage.CompletionTokens) / 1_000_000
		}
	}
	costs.TotalCost = costs.PromptCost + costs.CompletionCost
	return costs, true
}

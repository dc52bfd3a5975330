package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/lawndlwd/repair-bench/internal/ai"
	"github.com/lawndlwd/repair-bench/internal/config"
	"github.com/lawndlwd/repair-bench/internal/cost"
	"github.com/lawndlwd/repair-bench/internal/instructions"
	"github.com/lawndlwd/repair-bench/internal/logging"
	"github.com/lawndlwd/repair-bench/internal/output"
	"github.com/lawndlwd/repair-bench/internal/runner"
	"github.com/lawndlwd/repair-bench/internal/types"
)

type options struct {
	Records      string
	Output       string
	Instructions string
	Samples      int
	Workers      int
	Provider     string
	AIToken      string
	AIEndpoint   string
	AIModel      string
	Temperature  float64
	MaxTokens    int
	LogLevel     string
	Pretty       bool
}

func main() {
	opts, err := loadOptions()
	if err != nil {
		exitWithError(err)
	}

	logging.Setup(opts.LogLevel, opts.Pretty)
	ctx := context.Background()

	records, err := output.ReadRecords(opts.Records)
	if err != nil {
		exitWithError(err)
	}

	var extracted []types.Record
	for _, rec := range records {
		if rec.Status == types.StatusExtracted {
			extracted = append(extracted, rec)
		}
	}
	fmt.Printf("📊 %d of %d record(s) are extracted bugs\n", len(extracted), len(records))

	var guidance string
	if opts.Instructions != "" {
		guidance, err = instructions.Load(opts.Instructions)
		if err != nil {
			exitWithError(err)
		}
	}

	client := ai.NewClient(opts.AIToken, opts.AIEndpoint, opts.AIModel, opts.Temperature, opts.MaxTokens)

	results := runner.Run(ctx, extracted, opts.Workers, func(ctx context.Context, rec types.Record) (types.Sample, error) {
		sample := types.Sample{
			Record:   rec,
			Provider: opts.Provider,
			Model:    client.Model(),
			Prompt:   ai.BuildInstructPrompt(rec, rec.Language, guidance),
		}
		for i := 0; i < opts.Samples; i++ {
			gen, err := client.Complete(ctx, sample.Prompt)
			if err != nil {
				return sample, fmt.Errorf("bug %s: sample %d: %w", rec.Identifier, i, err)
			}
			sample.Generations = append(sample.Generations, gen)
		}
		return sample, nil
	})

	var samples []types.Sample
	failed := 0
	for i, res := range results {
		if res.Err != nil {
			failed++
			log.Error().Err(res.Err).Str("bug", extracted[i].Identifier).Msg("generation failed")
			continue
		}
		samples = append(samples, res.Value)
	}

	if err := output.AppendJSONL(opts.Output, samples...); err != nil {
		exitWithError(err)
	}

	fmt.Printf("✅ Wrote %d sample(s) to %s (%d failed)\n", len(samples), opts.Output, failed)

	if costs, ok := cost.Compute(samples, opts.Provider, client.Model()); ok {
		fmt.Printf("💰 Cost: $%.4f (prompt $%.4f, completion $%.4f)\n", costs.TotalCost, costs.PromptCost, costs.CompletionCost)
	} else {
		fmt.Printf("💰 No price table for %s/%s\n", opts.Provider, client.Model())
	}
}

func loadOptions() (options, error) {
	env := func(fallback string, keys ...string) string {
		for _, key := range keys {
			if val := os.Getenv(key); val != "" {
				return val
			}
		}
		return fallback
	}

	fs := pflag.NewFlagSet("generate", pflag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Generate candidate fixes for extracted bugs\n\nExamples:\n  generate --records records.jsonl --output samples.jsonl --samples 5\n  generate --records records.jsonl --instructions ./instructions --ai-model openai/gpt-4o\n\nFlags:\n")
		fs.PrintDefaults()
	}
	configPath := fs.String("config", os.Getenv("REPAIRBENCH_CONFIG"), "Path to the TOML configuration file")
	recordsPath := fs.String("records", "", "JSONL file of extraction records (defaults to output.path)")
	out := fs.String("output", "samples.jsonl", "JSONL file samples are appended to")
	instructionsPath := fs.String("instructions", "", "Markdown file or directory appended to every prompt")
	samples := fs.Int("samples", 1, "Number of generations requested per bug")
	workers := fs.Int("workers", 0, "Number of bugs prompted concurrently (overrides general.workers)")
	aiToken := fs.String("ai-token", env("", "REPAIRBENCH_AI_TOKEN", "OPENROUTER_API_KEY", "AI_TOKEN"), "API token for the chat completions endpoint")
	aiEndpoint := fs.String("ai-endpoint", "", "Chat completions base URL (overrides ai.endpoint)")
	aiModel := fs.String("ai-model", "", "Model name (overrides ai.model)")
	temp := fs.Float64("temperature", envFloat("REPAIRBENCH_TEMPERATURE", -1), "Sampling temperature (overrides ai.temperature)")
	logLevel := fs.String("log-level", "", "Log level (overrides general.log_level)")
	pretty := fs.Bool("pretty", envBool("REPAIRBENCH_PRETTY", false), "Human-readable console logs")

	fs.AddGoFlagSet(flag.CommandLine)
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return options{}, err
	}
	if *workers > 0 {
		cfg.General.Workers = *workers
	}
	if err := config.Validate(cfg); err != nil {
		return options{}, err
	}

	opts := options{
		Records:      firstNonEmpty(*recordsPath, cfg.Output.Path),
		Output:       *out,
		Instructions: *instructionsPath,
		Samples:      *samples,
		Workers:      cfg.General.Workers,
		Provider:     cfg.AI.Provider,
		AIToken:      firstNonEmpty(*aiToken, cfg.AI.Token),
		AIEndpoint:   firstNonEmpty(*aiEndpoint, cfg.AI.Endpoint),
		AIModel:      firstNonEmpty(*aiModel, cfg.AI.Model),
		Temperature:  cfg.AI.Temperature,
		MaxTokens:    cfg.AI.MaxTokens,
		LogLevel:     firstNonEmpty(*logLevel, cfg.General.LogLevel),
		Pretty:       *pretty || cfg.General.LogPretty,
	}
	if *temp >= 0 {
		opts.Temperature = *temp
	}

	if opts.AIToken == "" {
		return options{}, errors.New("ai token is required")
	}
	if opts.AIModel == "" {
		return options{}, errors.New("ai model is required. Use --ai-model or set ai.model")
	}
	if opts.Samples <= 0 {
		return options{}, fmt.Errorf("samples must be positive, got %d", opts.Samples)
	}

	return opts, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func envFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

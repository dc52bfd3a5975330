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

	"github.com/lawndlwd/repair-bench/internal/benchmark"
	"github.com/lawndlwd/repair-bench/internal/config"
	"github.com/lawndlwd/repair-bench/internal/evaluate"
	"github.com/lawndlwd/repair-bench/internal/lang"
	"github.com/lawndlwd/repair-bench/internal/logging"
	"github.com/lawndlwd/repair-bench/internal/output"
	"github.com/lawndlwd/repair-bench/internal/runner"
	"github.com/lawndlwd/repair-bench/internal/types"
	"github.com/lawndlwd/repair-bench/internal/workdir"
)

type options struct {
	Samples  string
	Manifest string
	Output   string
	Workers  int
	Reverse  bool
	LogLevel string
	Pretty   bool
}

func main() {
	opts, cfg, err := loadOptions()
	if err != nil {
		exitWithError(err)
	}

	logging.Setup(opts.LogLevel, opts.Pretty)
	ctx := context.Background()

	samples, err := output.ReadSamples(opts.Samples)
	if err != nil {
		exitWithError(err)
	}

	markers := benchmark.Markers{Pass: cfg.Tests.PassMarkers, Fail: cfg.Tests.FailMarkers}
	bench, err := benchmark.Load(ctx, opts.Manifest, markers)
	if err != nil {
		exitWithError(err)
	}
	language, err := lang.Lookup(bench.Language)
	if err != nil {
		exitWithError(err)
	}

	evaluator := &evaluate.Evaluator{
		Workdirs: &workdir.Allocator{Prefix: cfg.General.WorkdirPrefix, Root: cfg.General.WorkdirRoot},
		Language: language,
		Reverse:  opts.Reverse,
	}

	fmt.Printf("📊 Evaluating %d sample(s) against %s\n", len(samples), bench.Name)

	results := runner.Run(ctx, samples, opts.Workers, func(ctx context.Context, sample types.Sample) (types.Evaluation, error) {
		bug, ok := bench.Get(sample.Identifier)
		if !ok {
			return types.Evaluation{}, fmt.Errorf("bug %s is not in manifest %s", sample.Identifier, opts.Manifest)
		}
		return evaluator.Evaluate(ctx, bug, sample)
	})

	evaluations := make([]types.Evaluation, len(samples))
	for i, res := range results {
		eval := res.Value
		if res.Err != nil {
			eval.Identifier = samples[i].Identifier
			eval.Model = samples[i].Model
			eval.Error = res.Err.Error()
			log.Error().Err(res.Err).Str("bug", eval.Identifier).Msg("evaluation failed")
		}
		evaluations[i] = eval
	}

	if err := output.AppendJSONL(opts.Output, evaluations...); err != nil {
		exitWithError(err)
	}

	var plausible, exact, errored int
	for _, eval := range evaluations {
		if eval.Error != "" {
			errored++
			continue
		}
		p, e := false, false
		for _, c := range eval.Candidates {
			p = p || c.TestsPass
			e = e || c.ExactMatch
		}
		if p {
			plausible++
		}
		if e {
			exact++
		}
	}

	fmt.Printf("✅ %d bug(s) with a plausible patch, %d with an exact match, %d error(s) out of %d\n",
		plausible, exact, errored, len(evaluations))
}

func loadOptions() (options, *config.Config, error) {
	fs := pflag.NewFlagSet("evaluate", pflag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Evaluate generated candidate fixes\n\nExamples:\n  evaluate --samples samples.jsonl --manifest ./benchmarks/quixbugs.yaml --output evaluations.jsonl\n\nFlags:\n")
		fs.PrintDefaults()
	}
	configPath := fs.String("config", os.Getenv("REPAIRBENCH_CONFIG"), "Path to the TOML configuration file")
	samplesPath := fs.String("samples", "samples.jsonl", "JSONL file of generated samples")
	manifest := fs.String("manifest", "", "Path to the benchmark manifest (YAML)")
	out := fs.String("output", "evaluations.jsonl", "JSONL file evaluations are appended to")
	workers := fs.Int("workers", 0, "Number of samples evaluated concurrently (overrides general.workers)")
	reverse := fs.Bool("reverse", envBool("REPAIRBENCH_REVERSE", false), "Use the last code block of each generation instead of the first")
	logLevel := fs.String("log-level", "", "Log level (overrides general.log_level)")
	pretty := fs.Bool("pretty", envBool("REPAIRBENCH_PRETTY", false), "Human-readable console logs")

	fs.AddGoFlagSet(flag.CommandLine)
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return options{}, nil, err
	}
	if *workers > 0 {
		cfg.General.Workers = *workers
	}
	if err := config.Validate(cfg); err != nil {
		return options{}, nil, err
	}

	if *manifest == "" {
		return options{}, nil, errors.New("manifest is required. Use --manifest to point at a benchmark YAML file")
	}

	logLevelValue := *logLevel
	if logLevelValue == "" {
		logLevelValue = cfg.General.LogLevel
	}

	opts := options{
		Samples:  *samplesPath,
		Manifest: *manifest,
		Output:   *out,
		Workers:  cfg.General.Workers,
		Reverse:  *reverse,
		LogLevel: logLevelValue,
		Pretty:   *pretty || cfg.General.LogPretty,
	}
	return opts, cfg, nil
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

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
	"github.com/lawndlwd/repair-bench/internal/extractor"
	"github.com/lawndlwd/repair-bench/internal/filter"
	"github.com/lawndlwd/repair-bench/internal/lang"
	"github.com/lawndlwd/repair-bench/internal/logging"
	"github.com/lawndlwd/repair-bench/internal/output"
	"github.com/lawndlwd/repair-bench/internal/reconcile"
	"github.com/lawndlwd/repair-bench/internal/runner"
	"github.com/lawndlwd/repair-bench/internal/workdir"
)

type options struct {
	ConfigPath   string
	Manifest     string
	Output       string
	Limit        int
	Workers      int
	FailingTests bool
	LogLevel     string
	Pretty       bool
}

func main() {
	opts, cfg, err := loadOptions()
	if err != nil {
		exitWithError(err)
	}

	logging.Setup(opts.LogLevel, opts.Pretty)
	ctx := context.Background()

	markers := benchmark.Markers{Pass: cfg.Tests.PassMarkers, Fail: cfg.Tests.FailMarkers}
	bench, err := benchmark.Load(ctx, opts.Manifest, markers)
	if err != nil {
		exitWithError(err)
	}

	registry, err := extractor.FromConfig(cfg.Extractors)
	if err != nil {
		exitWithError(err)
	}
	defer registry.Close()

	language, err := lang.Lookup(bench.Language)
	if err != nil {
		exitWithError(err)
	}
	ex, err := registry.Lookup(language.Tag)
	if err != nil {
		exitWithError(err)
	}

	fmt.Printf("📊 Loaded %d bug(s) from %s\n", len(bench.Bugs()), bench.Name)

	bugs := filter.EligibleBugs(bench.Bugs(), opts.Limit)

	fmt.Printf("🔍 Filtered to %d single-file %s bug(s)\n", len(bugs), language.Tag)

	r := &reconcile.Reconciler{
		Extractor: ex,
		Workdirs:  &workdir.Allocator{Prefix: cfg.General.WorkdirPrefix, Root: cfg.General.WorkdirRoot},
		Language:  language,
	}

	records := runner.ExtractAll(ctx, r, bugs, runner.ExtractOptions{
		Workers:      opts.Workers,
		FailingTests: opts.FailingTests,
	})

	if err := output.AppendJSONL(opts.Output, records...); err != nil {
		exitWithError(err)
	}
	log.Info().Str("path", opts.Output).Int("records", len(records)).Msg("records written")

	output.PrintSummary(os.Stdout, records)
}

func loadOptions() (options, *config.Config, error) {
	fs := pflag.NewFlagSet("repair-bench", pflag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Extract single-function bugs from a benchmark\n\nExamples:\n  repair-bench --manifest ./benchmarks/quixbugs.yaml --output records.jsonl\n  repair-bench --init-config ./repair-bench.toml\n\nFlags:\n")
		fs.PrintDefaults()
	}
	configPath := fs.String("config", os.Getenv("REPAIRBENCH_CONFIG"), "Path to the TOML configuration file")
	initConfig := fs.String("init-config", "", "Write a sample configuration file to this path and exit")
	manifest := fs.String("manifest", "", "Path to the benchmark manifest (YAML)")
	out := fs.String("output", "", "JSONL file records are appended to (overrides output.path)")
	limit := fs.Int("limit", 0, "Maximum number of bugs to process (0 = no limit)")
	workers := fs.Int("workers", 0, "Number of bugs processed concurrently (overrides general.workers)")
	failingTests := fs.Bool("failing-tests", envBool("REPAIRBENCH_FAILING_TESTS", false), "Also extract the source of each failing test")
	logLevel := fs.String("log-level", "", "Log level (overrides general.log_level)")
	pretty := fs.Bool("pretty", envBool("REPAIRBENCH_PRETTY", false), "Human-readable console logs")

	fs.AddGoFlagSet(flag.CommandLine)
	_ = fs.Parse(os.Args[1:])

	if *initConfig != "" {
		if err := config.InitConfig(*initConfig); err != nil {
			exitWithError(err)
		}
		fmt.Printf("✅ Wrote sample configuration to %s\n", *initConfig)
		os.Exit(0)
	}

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

	opts := options{
		ConfigPath:   *configPath,
		Manifest:     *manifest,
		Output:       firstNonEmpty(*out, cfg.Output.Path),
		Limit:        *limit,
		Workers:      cfg.General.Workers,
		FailingTests: *failingTests,
		LogLevel:     firstNonEmpty(*logLevel, cfg.General.LogLevel),
		Pretty:       *pretty || cfg.General.LogPretty,
	}
	return opts, cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
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

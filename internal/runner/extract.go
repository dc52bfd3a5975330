package runner

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lawndlwd/repair-bench/internal/benchmark"
	"github.com/lawndlwd/repair-bench/internal/reconcile"
	"github.com/lawndlwd/repair-bench/internal/types"
)

type ExtractOptions struct {
	Workers int
	// FailingTests also extracts the source of each failing test.
	FailingTests bool
}

// ExtractAll reconciles every bug and returns one record per bug, in input
// order. A bug that fails never affects the others.
func ExtractAll(ctx context.Context, r *reconcile.Reconciler, bugs []benchmark.Bug, opts ExtractOptions) []types.Record {
	results := Run(ctx, bugs, opts.Workers, func(ctx context.Context, bug benchmark.Bug) (types.Record, error) {
		return extractOne(ctx, r, bug, opts)
	})

	records := make([]types.Record, len(bugs))
	for i, res := range results {
		rec := res.Value
		if res.Err != nil {
			rec = newRecord(bugs[i])
			rec.Status = types.StatusError
			rec.Error = res.Err.Error()
			log.Error().Err(res.Err).Str("bug", rec.Identifier).Msg("extraction failed")
		}
		records[i] = rec
	}
	return records
}

func extractOne(ctx context.Context, r *reconcile.Reconciler, bug benchmark.Bug, opts ExtractOptions) (types.Record, error) {
	rec := newRecord(bug)

	outcome, err := r.Extract(ctx, bug)
	if err != nil {
		return rec, err
	}
	rec.Hypothesis = string(outcome.Hypothesis)
	if !outcome.Found() {
		rec.Status = types.StatusSkipped
		log.Info().Str("bug", rec.Identifier).Msg("no equivalent extraction, skipping")
		return rec, nil
	}

	rec.Status = types.StatusExtracted
	rec.BuggyCode = outcome.Pair.Buggy
	rec.FixedCode = outcome.Pair.Fixed

	if opts.FailingTests {
		tests, err := r.ExtractFailingTestCases(ctx, bug)
		if err != nil {
			return rec, err
		}
		rec.FailingTests = tests
	}

	log.Info().Str("bug", rec.Identifier).Str("hypothesis", rec.Hypothesis).Msg("extracted")
	return rec, nil
}

func newRecord(bug benchmark.Bug) types.Record {
	id := bug.Identifier()
	project := id
	if i := strings.LastIndex(id, "-"); i > 0 {
		project = id[:i]
	}
	return types.Record{
		Identifier:  id,
		Project:     project,
		Language:    bug.Language(),
		GroundTruth: bug.GroundTruth(),
	}
}

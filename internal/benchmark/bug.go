// Package benchmark loads bug corpora and exposes each bug to the extraction
// pipeline through the Bug interface.
package benchmark

import (
	"context"
	"errors"

	"github.com/lawndlwd/repair-bench/internal/types"
)

var (
	// ErrCheckoutFailed is returned when a bug reports that materializing a
	// version did not succeed.
	ErrCheckoutFailed = errors.New("checkout failed")
	// ErrDuplicateIdentifier is returned when a manifest registers the same
	// identifier twice.
	ErrDuplicateIdentifier = errors.New("duplicate bug identifier")
)

// Bug is one entry of a benchmark.
type Bug interface {
	// Identifier is stable and unique within a benchmark, conventionally
	// "{project}-{bug}".
	Identifier() string
	Language() string
	GroundTruth() string
	// GroundTruthInverted reports that the diff's target side holds the
	// buggy code.
	GroundTruthInverted() bool
	FailingTests() map[string]string
	// Checkout materializes the buggy or fixed version at path, clearing
	// whatever was there.
	Checkout(ctx context.Context, path string, fixed bool) (bool, error)
	Compile(ctx context.Context, path string) (types.CompileResult, error)
	Test(ctx context.Context, path string) (types.TestResult, error)
	SrcTestDir(path string) string
}

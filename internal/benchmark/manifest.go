package benchmark

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/lawndlwd/repair-bench/internal/command"
	"github.com/lawndlwd/repair-bench/internal/git"
	"github.com/lawndlwd/repair-bench/internal/types"
)

const (
	CheckoutCommand = "command"
	CheckoutGit     = "git"
)

// Manifest is the YAML description of a benchmark.
type Manifest struct {
	Name     string       `yaml:"name"`
	Language string       `yaml:"language"`
	Inverted bool         `yaml:"inverted"`
	TestDir  string       `yaml:"test_dir"`
	Markers  Markers      `yaml:"markers"`
	Checkout CheckoutSpec `yaml:"checkout"`
	Compile  string       `yaml:"compile"`
	Test     string       `yaml:"test"`
	Bugs     []BugSpec    `yaml:"bugs"`
}

type CheckoutSpec struct {
	Kind    string `yaml:"kind"`
	Command string `yaml:"command"`
	Repo    string `yaml:"repo"`
}

type BugSpec struct {
	Project         string            `yaml:"project"`
	Bug             string            `yaml:"bug"`
	GroundTruth     string            `yaml:"ground_truth"`
	GroundTruthFile string            `yaml:"ground_truth_file"`
	Inverted        *bool             `yaml:"inverted"`
	Repo            string            `yaml:"repo"`
	BuggyCommit     string            `yaml:"buggy_commit"`
	FixedCommit     string            `yaml:"fixed_commit"`
	FailingTests    map[string]string `yaml:"failing_tests"`
}

// Benchmark is a loaded manifest.
type Benchmark struct {
	Name     string
	Language string
	bugs     []*ManifestBug
	byID     map[string]*ManifestBug
}

// Bugs returns the bugs in manifest order.
func (b *Benchmark) Bugs() []Bug {
	out := make([]Bug, len(b.bugs))
	for i, bug := range b.bugs {
		out[i] = bug
	}
	return out
}

func (b *Benchmark) Get(identifier string) (Bug, bool) {
	bug, ok := b.byID[identifier]
	return bug, ok
}

// Load reads the manifest at path. Markers are used when the manifest does
// not define its own.
func Load(ctx context.Context, path string, markers Markers) (*Benchmark, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.Language == "" {
		return nil, fmt.Errorf("manifest %s: language is required", path)
	}
	if m.Markers.empty() {
		m.Markers = markers
	}
	if m.Checkout.Kind == "" {
		m.Checkout.Kind = CheckoutCommand
	}

	dir := filepath.Dir(path)
	bench := &Benchmark{
		Name:     m.Name,
		Language: m.Language,
		byID:     make(map[string]*ManifestBug, len(m.Bugs)),
	}

	for i, spec := range m.Bugs {
		bug, err := newManifestBug(ctx, &m, spec, dir)
		if err != nil {
			return nil, fmt.Errorf("manifest %s: bug %d: %w", path, i, err)
		}
		if _, dup := bench.byID[bug.Identifier()]; dup {
			return nil, fmt.Errorf("manifest %s: %w: %s", path, ErrDuplicateIdentifier, bug.Identifier())
		}
		bench.byID[bug.Identifier()] = bug
		bench.bugs = append(bench.bugs, bug)
	}

	log.Debug().Str("benchmark", m.Name).Int("bugs", len(bench.bugs)).Msg("loaded manifest")
	return bench, nil
}

func newManifestBug(ctx context.Context, m *Manifest, spec BugSpec, dir string) (*ManifestBug, error) {
	if spec.Project == "" || spec.Bug == "" {
		return nil, errors.New("project and bug are required")
	}

	bug := &ManifestBug{
		manifest:     m,
		dir:          dir,
		project:      spec.Project,
		bug:          spec.Bug,
		groundTruth:  spec.GroundTruth,
		inverted:     m.Inverted,
		repo:         spec.Repo,
		buggyCommit:  spec.BuggyCommit,
		fixedCommit:  spec.FixedCommit,
		failingTests: spec.FailingTests,
	}
	if spec.Inverted != nil {
		bug.inverted = *spec.Inverted
	}
	if bug.repo == "" {
		bug.repo = m.Checkout.Repo
	}
	bug.repo = resolveRepo(dir, bug.repo)
	if bug.failingTests == nil {
		bug.failingTests = map[string]string{}
	}

	switch m.Checkout.Kind {
	case CheckoutCommand:
		if m.Checkout.Command == "" {
			return nil, errors.New("checkout.command is required")
		}
	case CheckoutGit:
		if bug.repo == "" || bug.buggyCommit == "" || bug.fixedCommit == "" {
			return nil, errors.New("git checkout needs repo, buggy_commit and fixed_commit")
		}
	default:
		return nil, fmt.Errorf("unknown checkout kind %q", m.Checkout.Kind)
	}

	if spec.GroundTruthFile != "" {
		p := spec.GroundTruthFile
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read ground truth: %w", err)
		}
		bug.groundTruth = string(data)
	}
	if bug.groundTruth == "" && m.Checkout.Kind == CheckoutGit {
		d, err := git.Diff(ctx, bug.repo, bug.buggyCommit, bug.fixedCommit)
		if err != nil {
			return nil, fmt.Errorf("ground truth from git: %w", err)
		}
		bug.groundTruth = d
	}
	return bug, nil
}

func resolveRepo(dir, repo string) string {
	if repo == "" || filepath.IsAbs(repo) || strings.Contains(repo, "://") || strings.HasPrefix(repo, "git@") {
		return repo
	}
	return filepath.Join(dir, repo)
}

// ManifestBug is a Bug backed by command templates from a manifest.
// Templates may use {path}, {project}, {bug}, {version} (0 buggy, 1 fixed)
// and {fixed}.
type ManifestBug struct {
	manifest     *Manifest
	dir          string
	project      string
	bug          string
	groundTruth  string
	inverted     bool
	repo         string
	buggyCommit  string
	fixedCommit  string
	failingTests map[string]string
}

func (b *ManifestBug) Identifier() string { return b.project + "-" + b.bug }
func (b *ManifestBug) Language() string { return b.manifest.Language }
func (b *ManifestBug) GroundTruth() string { return b.groundTruth }
func (b *ManifestBug) GroundTruthInverted() bool { return b.inverted }
func (b *ManifestBug) FailingTests() map[string]string { return b.failingTests }

func (b *ManifestBug) SrcTestDir(path string) string {
	return filepath.Join(path, b.manifest.TestDir)
}

func (b *ManifestBug) vars(path string, fixed bool) map[string]string {
	version := "0"
	if fixed {
		version = "1"
	}
	return map[string]string{
		"path":    path,
		"project": b.project,
		"bug":     b.bug,
		"version": version,
		"fixed":   strconv.FormatBool(fixed),
	}
}

func (b *ManifestBug) Checkout(ctx context.Context, path string, fixed bool) (bool, error) {
	if err := os.RemoveAll(path); err != nil {
		return false, fmt.Errorf("clear %s: %w", path, err)
	}

	if b.manifest.Checkout.Kind == CheckoutGit {
		commit := b.buggyCommit
		if fixed {
			commit = b.fixedCommit
		}
		if err := git.CheckoutCommit(ctx, b.repo, commit, path); err != nil {
			if errors.Is(err, exec.ErrNotFound) {
				return false, err
			}
			log.Warn().Err(err).Str("bug", b.Identifier()).Msg("git checkout failed")
			return false, nil
		}
		return true, nil
	}

	res, err := b.run(ctx, b.manifest.Checkout.Command, b.vars(path, fixed))
	if err != nil {
		return false, err
	}
	if !res.Success() {
		log.Warn().Str("bug", b.Identifier()).Int("exit", res.ExitCode).Str("stderr", res.Stderr).Msg("checkout command failed")
	}
	return res.Success(), nil
}

// Compile runs the compile template in path. Without one, every checkout
// counts as compiled.
func (b *ManifestBug) Compile(ctx context.Context, path string) (types.CompileResult, error) {
	if b.manifest.Compile == "" {
		return types.CompileResult{Passing: true}, nil
	}
	res, err := b.runIn(ctx, path, b.manifest.Compile, b.vars(path, false))
	if err != nil {
		return types.CompileResult{}, err
	}
	return types.CompileResult{Passing: res.Success()}, nil
}

func (b *ManifestBug) Test(ctx context.Context, path string) (types.TestResult, error) {
	if b.manifest.Test == "" {
		return types.TestResult{}, fmt.Errorf("bug %s: no test command configured", b.Identifier())
	}
	res, err := b.runIn(ctx, path, b.manifest.Test, b.vars(path, false))
	if err != nil {
		return types.TestResult{}, err
	}
	output := res.Stdout
	if strings.TrimSpace(output) == "" {
		output = res.Stderr
	}
	return DetectTestResult(output, b.manifest.Markers), nil
}

func (b *ManifestBug) run(ctx context.Context, template string, vars map[string]string) (command.Result, error) {
	return b.runIn(ctx, b.dir, template, vars)
}

func (b *ManifestBug) runIn(ctx context.Context, dir, template string, vars map[string]string) (command.Result, error) {
	argv, err := command.Expand(template, vars)
	if err != nil {
		return command.Result{}, err
	}
	return command.Run(ctx, dir, argv)
}

// Package command expands configured command-line templates and runs them.
//
// A template is split with shell quoting rules first and placeholders of the
// form {name} are substituted per argument afterwards, so substituted values
// never need quoting.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/google/shlex"
)

// Expand splits template and replaces every {key} in each argument with
// vars[key]. Unknown placeholders are left as written.
func Expand(template string, vars map[string]string) ([]string, error) {
	argv, err := shlex.Split(template)
	if err != nil {
		return nil, fmt.Errorf("invalid command %q: %w", template, err)
	}
	for i, arg := range argv {
		argv[i] = Substitute(arg, vars)
	}
	return argv, nil
}

// Substitute replaces every {key} in arg with vars[key].
func Substitute(arg string, vars map[string]string) string {
	if !strings.Contains(arg, "{") {
		return arg
	}
	pairs := make([]string, 0, 2*len(vars))
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(arg)
}

type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Success reports a zero exit status.
func (r Result) Success() bool { return r.ExitCode == 0 }

// Run executes argv in dir. A process that starts and exits non-zero is not
// an error; its exit code is reported in the result. Failing to start the
// process (missing binary, bad directory) is.
func Run(ctx context.Context, dir string, argv []string) (Result, error) {
	if len(argv) == 0 {
		return Result{}, errors.New("empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("run %s: %w", argv[0], err)
	}
	return res, nil
}

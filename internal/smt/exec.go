package smt

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ExecSolver shells out to a real SMT-LIB2-speaking solver binary (z3, or
// anything accepting a script on stdin and replying sat/unsat/unknown
// followed by a model). This is the production Solver: the solving process
// itself is treated as an external oracle, so beyond invoking it and
// parsing its reply there is no solver logic here to own.
type ExecSolver struct {
	// Path to the solver binary, e.g. "z3".
	Path string
	// Args is the full argument list passed to the binary; NewExecSolver
	// sets it to "-in", which z3 needs to read the script from stdin.
	Args []string
	// Timeout bounds a single check-sat call. Zero means no timeout.
	Timeout time.Duration
}

func NewExecSolver(path string, timeout time.Duration) *ExecSolver {
	return &ExecSolver{Path: path, Args: []string{"-in"}, Timeout: timeout}
}

func (s *ExecSolver) CheckSat(ctx context.Context, f *Formula) (Result, Model, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, s.Path, s.Args...)
	cmd.Stdin = strings.NewReader(f.ToSMTLIB2())

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Unknown, nil, nil
		}
		return Unknown, nil, errors.Wrapf(err, "running solver %s: %s", s.Path, stderr.String())
	}

	if stdout.Len() == 0 {
		return Unknown, nil, errors.New("solver produced no output")
	}
	first, rest, _ := strings.Cut(stdout.String(), "\n")

	switch strings.TrimSpace(first) {
	case "unsat":
		return Unsat, nil, nil
	case "unknown":
		return Unknown, nil, nil
	case "sat":
		model, err := ParseModel(strings.NewReader(rest))
		if err != nil {
			return Sat, nil, errors.Wrap(err, "parsing solver model")
		}
		return Sat, model, nil
	default:
		return Unknown, nil, errors.Errorf("unrecognized solver response: %q", first)
	}
}

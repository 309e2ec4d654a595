// Package repl SPDX-License-Identifier: Apache-2.0
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"boundedverify/internal/diagnostics"
	"boundedverify/internal/ir"
	"boundedverify/internal/irtext"
	"boundedverify/internal/smt"
	"boundedverify/internal/verify"
)

const PROMPT = ">> "

// Start reads IR text function definitions from in, one submission at a
// time terminated by a blank line, and reports the verdict for every
// function the submission defines. Submissions accumulate into a single
// module so a later function can call an earlier one.
func Start(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	solver := smt.NewMemSolver()
	mod := &ir.Module{Name: "repl"}

	var source strings.Builder

	for {
		fmt.Fprint(out, PROMPT)
		if !scanner.Scan() {
			return
		}

		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if source.Len() == 0 {
				continue
			}
			runSubmission(out, mod, source.String(), solver)
			source.Reset()
			continue
		}

		source.WriteString(line)
		source.WriteString("\n")
	}
}

// runSubmission parses src, appends its functions to mod (replacing any
// earlier definition of the same name so redefining a function works as
// expected), and reports the verdict for each function src just defined.
func runSubmission(out io.Writer, mod *ir.Module, src string, solver smt.Solver) {
	file, err := irtext.ParseString("<repl>", src)
	if err != nil {
		fmt.Fprintf(out, "parse error: %s\n", err)
		return
	}

	submitted, err := irtext.Lower(mod.Name, file)
	if err != nil {
		fmt.Fprintf(out, "lowering error: %s\n", err)
		return
	}

	for _, fn := range submitted.Functions {
		addOrReplaceFunction(mod, fn)
	}

	for _, fn := range submitted.Functions {
		report, err := verify.RunTarget(context.Background(), mod, fn.Name, solver, diagnostics.Discard)
		if err != nil {
			fmt.Fprintf(out, "%s: error: %s\n", fn.Name, err)
			continue
		}
		switch report.Verdict {
		case verify.Safe:
			fmt.Fprintf(out, "%s: safe\n", fn.Name)
		case verify.Unsafe:
			fmt.Fprintf(out, "%s: unsafe, witness %v\n", fn.Name, report.Witness)
		default:
			fmt.Fprintf(out, "%s: unknown (%s)\n", fn.Name, report.Reason)
		}
	}
}

func addOrReplaceFunction(mod *ir.Module, fn *ir.Function) {
	for i, existing := range mod.Functions {
		if existing.Name == fn.Name {
			mod.Functions[i] = fn
			return
		}
	}
	mod.Functions = append(mod.Functions, fn)
}

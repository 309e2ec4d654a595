// SPDX-License-Identifier: Apache-2.0
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"
	"github.com/iancoleman/strcase"
	"github.com/tliron/commonlog"

	"boundedverify/internal/config"
	"boundedverify/internal/diagnostics"
	vErrors "boundedverify/internal/errors"
	"boundedverify/internal/ir"
	"boundedverify/internal/irtext"
	"boundedverify/internal/smt"
	"boundedverify/internal/verify"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML run configuration")
	target := flag.String("target", "", "function name prefix to verify (default: every function)")
	trace := flag.Bool("trace", false, "enable debug-level logging")
	flag.Parse()

	if *trace {
		commonlog.Configure(1, nil)
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Println("Usage: boundedverify-cli [-config FILE] [-target PREFIX] <file.vir>")
		os.Exit(1)
	}
	path := args[0]

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			color.Red("failed to load config: %s", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *target != "" {
		cfg.TargetPrefix = *target
	}

	rawSource, err := os.ReadFile(path)
	if err != nil {
		color.Red("failed to read file: %s", err)
		os.Exit(1)
	}
	source := string(rawSource)
	reporter := vErrors.NewErrorReporter(path, source)

	file, err := irtext.ParseString(path, source)
	if err != nil {
		reportParseError(reporter, err)
		os.Exit(1)
	}

	mod, err := irtext.Lower(path, file)
	if err != nil {
		color.Red("failed to lower %s: %s", path, err)
		os.Exit(1)
	}

	solver := smt.NewExecSolver(cfg.Solver.Path, cfg.Solver.Timeout)

	exitCode := 0
	for i, fn := range mod.Functions {
		if cfg.TargetPrefix != "" && !strings.HasPrefix(fn.Name, cfg.TargetPrefix) {
			continue
		}
		if *trace {
			fmt.Print(ir.PrintFunction(fn))
		}

		declLine := 0
		if i < len(file.Functions) {
			declLine = file.Functions[i].Pos.Line
		}

		warnings := &diagnostics.Collector{}
		report, err := verify.RunTarget(context.Background(), mod, fn.Name, solver, warnings)
		if err != nil {
			color.Red("error verifying %s: %s", fn.Name, err)
			exitCode = 1
			continue
		}

		for _, w := range warnings.Warnings {
			printWarning(reporter, fn.Name, declLine, w)
		}

		printReport(reporter, fn.Name, declLine, report)
		if report.Verdict == verify.Unsafe {
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func printReport(reporter *vErrors.ErrorReporter, function string, line int, report *verify.Report) {
	header := strcase.ToScreamingSnake(report.Verdict.String())
	switch report.Verdict {
	case verify.Safe:
		color.Green("[%s] %s: no panic-reaching input found", header, function)
	case verify.Unsafe:
		color.Red("[%s] %s: panics with witness %v", header, function, report.Witness)
	default:
		printUnknownReport(reporter, function, line, report)
	}
}

// printUnknownReport renders an Unknown verdict through the same
// VerifierError/ErrorReporter machinery parse errors use, tagged with the
// verifier error code the driver classified the reason under.
func printUnknownReport(reporter *vErrors.ErrorReporter, function string, line int, report *verify.Report) {
	if report.Code == "" {
		color.Yellow("[UNKNOWN] %s: %s", function, report.Reason)
		return
	}

	verr := vErrors.NewVerifierWarning(report.Code, fmt.Sprintf("%s: %s", function, report.Reason), vErrors.Position{Line: line, Column: 1}).
		WithNote(vErrors.GetErrorCategory(report.Code) + " diagnostic").
		Build()
	fmt.Print(reporter.FormatError(verr))
}

// printWarning renders one encoder-collected warning (a conservative
// encoding choice) through the same diagnostic format.
func printWarning(reporter *vErrors.ErrorReporter, function string, line int, message string) {
	verr := vErrors.ConservativeEncoding(function, message, vErrors.Position{Line: line, Column: 1})
	fmt.Print(reporter.FormatError(verr))
}

// reportParseError formats a syntax error with the caret-annotated,
// Rust-style rendering every verifier diagnostic uses.
func reportParseError(reporter *vErrors.ErrorReporter, err error) {
	pe, ok := err.(participle.Error)
	if !ok {
		color.Red("Unexpected error: %s", err)
		return
	}

	pos := pe.Position()
	verr := vErrors.NewVerifierError("", pe.Message(), vErrors.Position{Line: pos.Line, Column: pos.Column}).Build()
	fmt.Print(reporter.FormatError(verr))
}

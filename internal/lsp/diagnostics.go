package lsp

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"boundedverify/internal/verify"
)

// ConvertParseError transforms a parse failure from internal/irtext into an
// LSP diagnostic. participle.Error carries a source position; any other
// error is reported at the top of the file.
func ConvertParseError(err error) []protocol.Diagnostic {
	if err == nil {
		return nil
	}

	line, col := 1, 1
	if perr, ok := err.(participle.Error); ok {
		pos := perr.Position()
		line, col = pos.Line, pos.Column
	}

	return []protocol.Diagnostic{{
		Range: protocol.Range{
			Start: protocol.Position{Line: uint32(line - 1), Character: uint32(col - 1)},
			End:   protocol.Position{Line: uint32(line - 1), Character: uint32(col + 3)},
		},
		Severity: ptrSeverity(protocol.DiagnosticSeverityError),
		Source:   ptrString("irtext-parser"),
		Message:  err.Error(),
	}}
}

// ConvertVerifyReport turns a verification report into diagnostics attached
// to the function's declaration line: one error when the target can panic
// (with the counterexample inlined into the message), one information
// diagnostic when the verdict is unknown.
func ConvertVerifyReport(functionName string, line int, report *verify.Report) []protocol.Diagnostic {
	pos := protocol.Position{Line: uint32(line), Character: 0}
	rng := protocol.Range{Start: pos, End: protocol.Position{Line: uint32(line), Character: uint32(len(functionName) + 3)}}

	switch report.Verdict {
	case verify.Unsafe:
		return []protocol.Diagnostic{{
			Range:    rng,
			Severity: ptrSeverity(protocol.DiagnosticSeverityError),
			Source:   ptrString("boundedverify"),
			Message:  fmt.Sprintf("%s can panic: witness %v", functionName, report.Witness),
		}}
	case verify.Unknown:
		return []protocol.Diagnostic{{
			Range:    rng,
			Severity: ptrSeverity(protocol.DiagnosticSeverityInformation),
			Source:   ptrString("boundedverify"),
			Message:  fmt.Sprintf("%s: %s", functionName, report.Reason),
		}}
	default:
		return nil
	}
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func ptrString(s string) *string {
	return &s
}

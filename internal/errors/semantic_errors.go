package errors

import (
	"fmt"
	"strings"
)

// VerifierErrorBuilder provides a fluent interface for creating verifier
// errors with suggestions.
type VerifierErrorBuilder struct {
	err VerifierError
}

// NewVerifierError creates a new error builder.
func NewVerifierError(code, message string, pos Position) *VerifierErrorBuilder {
	return &VerifierErrorBuilder{
		err: VerifierError{
			Level:    Error,
			Code:     code,
			Message:  message,
			Position: pos,
			Length:   1,
		},
	}
}

// NewVerifierWarning creates a new warning builder.
func NewVerifierWarning(code, message string, pos Position) *VerifierErrorBuilder {
	return &VerifierErrorBuilder{
		err: VerifierError{
			Level:    Warning,
			Code:     code,
			Message:  message,
			Position: pos,
			Length:   1,
		},
	}
}

func (b *VerifierErrorBuilder) WithLength(length int) *VerifierErrorBuilder {
	b.err.Length = length
	return b
}

func (b *VerifierErrorBuilder) WithSuggestion(message string) *VerifierErrorBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{Message: message})
	return b
}

func (b *VerifierErrorBuilder) WithNote(note string) *VerifierErrorBuilder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

func (b *VerifierErrorBuilder) WithHelp(help string) *VerifierErrorBuilder {
	b.err.HelpText = help
	return b
}

func (b *VerifierErrorBuilder) Build() VerifierError {
	return b.err
}

// Verifier error constructors, one per error kind.

// UnsupportedOpcode creates an error for an instruction the encoder has no
// SMT translation for.
func UnsupportedOpcode(mnemonic, function string, pos Position) VerifierError {
	return NewVerifierError(ErrorUnsupportedOpcode, fmt.Sprintf("instruction %q has no SMT encoding", mnemonic), pos).
		WithNote(fmt.Sprintf("encountered in function %q", function)).
		WithHelp("only load/store/icmp/xor/trunc/zext/select/extractvalue/checked-arith/expect/call/panic are encoded").
		Build()
}

// UnsupportedType creates an error for a value whose type isn't one of the
// supported integer widths or i1.
func UnsupportedType(typeName, function string, pos Position) VerifierError {
	return NewVerifierError(ErrorUnsupportedType, fmt.Sprintf("type %q is not supported", typeName), pos).
		WithNote(fmt.Sprintf("encountered in function %q", function)).
		WithHelp("supported types are i1, i8, i16, i32, i64").
		Build()
}

// CyclicCFG creates an error for a function whose control-flow graph
// contains a cycle.
func CyclicCFG(function string, pos Position) VerifierError {
	return NewVerifierError(ErrorCyclicCFG, fmt.Sprintf("function %q has a cyclic control-flow graph", function), pos).
		WithHelp("this verifier only handles bounded, loop-free functions; the verdict is reported as unknown").
		Build()
}

// RecursiveCall creates an error for a call chain that re-enters a function
// already on its own ancestry stack.
func RecursiveCall(callee string, stack []string, pos Position) VerifierError {
	return NewVerifierError(ErrorRecursiveCall, fmt.Sprintf("call to %q re-enters a function already being inlined", callee), pos).
		WithNote(fmt.Sprintf("call chain: %s", strings.Join(stack, " -> "))).
		WithHelp("recursive and mutually recursive calls cannot be fully inlined; the verdict is reported as unknown").
		Build()
}

// MissingTarget creates an error for a target prefix matching no function in
// the module, suggesting the closest available name.
func MissingTarget(prefix string, available []string) VerifierError {
	builder := NewVerifierError(ErrorMissingTarget, fmt.Sprintf("no function matches target prefix %q", prefix), Position{})

	similar := findSimilarNames(prefix, available)
	if len(similar) > 0 {
		if len(similar) == 1 {
			builder = builder.WithSuggestion(fmt.Sprintf("did you mean %q?", similar[0]))
		} else {
			builder = builder.WithSuggestion(fmt.Sprintf("did you mean one of: %q?", strings.Join(similar, `", "`)))
		}
	}

	return builder.Build()
}

// SolverUnknown creates an error for a solver run that returned "unknown"
// rather than sat or unsat.
func SolverUnknown(function, reason string) VerifierError {
	return NewVerifierError(ErrorSolverUnknown, fmt.Sprintf("solver returned unknown for %q", function), Position{}).
		WithNote(reason).
		Build()
}

// UnknownCallee creates an error for a call referencing a function not
// present in the module.
func UnknownCallee(callee, caller string, pos Position) VerifierError {
	return NewVerifierError(ErrorUnknownCallee, fmt.Sprintf("call to %q has no matching function in this module", callee), pos).
		WithNote(fmt.Sprintf("encountered in function %q", caller)).
		WithHelp("the call's result is left unconstrained rather than failing the whole run").
		Build()
}

// ConservativeEncoding creates a warning for a terminator the encoder
// treated conservatively as unconditionally panic-reachable.
func ConservativeEncoding(function, detail string, pos Position) VerifierError {
	return NewVerifierWarning(WarningConservativeEncoding, fmt.Sprintf("encoded conservatively in %q: %s", function, detail), pos).
		Build()
}

func findSimilarNames(target string, candidates []string) []string {
	var similar []string
	for _, candidate := range candidates {
		if levenshteinDistance(target, candidate) <= 2 && len(candidate) > 2 {
			similar = append(similar, candidate)
		}
	}
	return similar
}

// levenshteinDistance is a small edit-distance implementation used only to
// suggest a likely-intended target name.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
	}
	for i := 0; i <= len(a); i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			matrix[i][j] = min3(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)
		}
	}

	return matrix[len(a)][len(b)]
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}

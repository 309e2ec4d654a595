package repl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartReportsSafeVerdict(t *testing.T) {
	in := strings.NewReader("fn f(%x: i64) -> i64 {\nentry:\n  ret %x\n}\n\n")
	var out strings.Builder

	Start(in, &out)

	assert.Contains(t, out.String(), "f: safe")
}

func TestStartReportsUnsafeVerdictWithWitness(t *testing.T) {
	in := strings.NewReader(
		"fn f(%x: i32) -> i32 {\nentry:\n" +
			"  %0 = ssub.with.overflow.i32 0, %x\n" +
			"  %1 = extractvalue %0, 1\n" +
			"  br %1, bad, good\n" +
			"bad:\n  unreachable\n" +
			"good:\n  ret %x\n}\n\n")
	var out strings.Builder

	Start(in, &out)

	assert.Contains(t, out.String(), "f: unsafe")
}

func TestStartReportsParseError(t *testing.T) {
	in := strings.NewReader("not valid ir text\n\n")
	var out strings.Builder

	Start(in, &out)

	assert.Contains(t, out.String(), "parse error")
}

func TestStartAccumulatesSubmissionsIntoOneModule(t *testing.T) {
	in := strings.NewReader(
		"fn callee(%a: i64) -> i64 {\nentry:\n  ret %a\n}\n\n" +
			"fn caller(%x: i64) -> i64 {\nentry:\n  %0 = call callee, %x\n  ret %0\n}\n\n")
	var out strings.Builder

	Start(in, &out)

	s := out.String()
	assert.Contains(t, s, "callee: safe")
	assert.Contains(t, s, "caller: safe")
}

func TestStartPrintsPromptForEachSubmission(t *testing.T) {
	in := strings.NewReader("fn f() -> i1 {\nentry:\n  ret true\n}\n\n")
	var out strings.Builder

	Start(in, &out)

	assert.True(t, strings.HasPrefix(out.String(), PROMPT))
}

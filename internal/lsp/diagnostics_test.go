package lsp

import (
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"boundedverify/internal/irtext"
	"boundedverify/internal/smt"
	"boundedverify/internal/verify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertParseErrorReportsPosition(t *testing.T) {
	_, err := irtext.ParseString("<test>", "fn f(%x: i32) -> {\nentry:\n  ret %x\n}")
	require.Error(t, err)

	diags := ConvertParseError(err)
	require.Len(t, diags, 1)
	assert.Equal(t, "irtext-parser", *diags[0].Source)
	assert.Equal(t, protocol.DiagnosticSeverityError, *diags[0].Severity)
	assert.Equal(t, uint32(0), diags[0].Range.Start.Line)
}

func TestConvertParseErrorNilReturnsNoDiagnostics(t *testing.T) {
	assert.Nil(t, ConvertParseError(nil))
}

func TestConvertVerifyReportUnsafeIncludesWitness(t *testing.T) {
	report := &verify.Report{
		Verdict: verify.Unsafe,
		Witness: verify.Counterexample{"%x": smt.ModelValue{Int: 5}},
	}

	diags := ConvertVerifyReport("f", 3, report)
	require.Len(t, diags, 1)
	assert.Equal(t, protocol.DiagnosticSeverityError, *diags[0].Severity)
	assert.Equal(t, uint32(3), diags[0].Range.Start.Line)
	assert.Contains(t, diags[0].Message, "f can panic")
}

func TestConvertVerifyReportUnknownIsInformational(t *testing.T) {
	report := &verify.Report{Verdict: verify.Unknown, Reason: "solver returned unknown"}

	diags := ConvertVerifyReport("g", 0, report)
	require.Len(t, diags, 1)
	assert.Equal(t, protocol.DiagnosticSeverityInformation, *diags[0].Severity)
	assert.Contains(t, diags[0].Message, "solver returned unknown")
}

func TestConvertVerifyReportSafeProducesNoDiagnostics(t *testing.T) {
	report := &verify.Report{Verdict: verify.Safe}
	assert.Nil(t, ConvertVerifyReport("h", 0, report))
}

func TestUriToPathStripsFileScheme(t *testing.T) {
	path, err := uriToPath("file:///home/user/foo.vir")
	require.NoError(t, err)
	assert.Equal(t, "/home/user/foo.vir", path)
}

func TestUriToPathRejectsMalformedURI(t *testing.T) {
	_, err := uriToPath("://bad uri")
	assert.Error(t, err)
}

package irtext_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boundedverify/internal/irtext"
)

// Regression test for the terminator/instruction lexing ambiguity: without a
// dedicated Keyword token, a greedy InstrLine could consume a "br" line
// before BlockDecl's terminator field got a chance to match it, so any block
// with a preceding ordinary instruction followed by a branch would fail to
// parse.
func TestParseBlockWithInstructionsBeforeBranch(t *testing.T) {
	src := `
fn f(%x: i32) -> i32 {
entry:
  %0 = icmp slt %x, 0
  br %0, negative, positive
negative:
  ret %x
positive:
  ret %x
}`
	file, err := irtext.ParseString("<test>", src)
	require.NoError(t, err)
	require.Len(t, file.Functions, 1)

	fn := file.Functions[0]
	require.Len(t, fn.Blocks, 3)
	entry := fn.Blocks[0]
	assert.Len(t, entry.Instructions, 1)
	require.NotNil(t, entry.Terminator.Br)
	assert.Equal(t, "negative", entry.Terminator.Br.True)
	assert.Equal(t, "positive", entry.Terminator.Br.False)
}

func TestParseFunctionSignature(t *testing.T) {
	src := `
fn add(%a: i32, %b: i32) -> i32 {
entry:
  ret %a
}`
	file, err := irtext.ParseString("<test>", src)
	require.NoError(t, err)
	require.Len(t, file.Functions, 1)

	fn := file.Functions[0]
	assert.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "%a", fn.Params[0].Name)
	assert.Equal(t, "i32", fn.Params[0].Type)
	require.NotNil(t, fn.Return)
	assert.Equal(t, "i32", *fn.Return)
}

func TestParseUnreachableTerminator(t *testing.T) {
	src := `
fn f() -> i32 {
entry:
  unreachable
}`
	file, err := irtext.ParseString("<test>", src)
	require.NoError(t, err)
	require.NotNil(t, file.Functions[0].Blocks[0].Terminator.Unreachable)
}

func TestParseSwitchTerminator(t *testing.T) {
	src := `
fn f(%x: i64) -> i64 {
entry:
  switch %x, default fallback, [0, zero], [1, one]
zero:
  ret %x
one:
  ret %x
fallback:
  ret %x
}`
	file, err := irtext.ParseString("<test>", src)
	require.NoError(t, err)
	sw := file.Functions[0].Blocks[0].Terminator.Switch
	require.NotNil(t, sw)
	assert.Equal(t, "fallback", sw.Default)
	require.Len(t, sw.Cases, 2)
	assert.Equal(t, "zero", sw.Cases[0].Label)
	assert.Equal(t, "one", sw.Cases[1].Label)
}

func TestParseRejectsMalformedFunction(t *testing.T) {
	_, err := irtext.ParseString("<test>", "fn f(")
	assert.Error(t, err)
}

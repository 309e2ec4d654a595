package encode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boundedverify/internal/diagnostics"
	"boundedverify/internal/encode"
	"boundedverify/internal/ir"
	"boundedverify/internal/irtext"
)

func TestExpandCallsInlinesSimpleCall(t *testing.T) {
	src := `
fn callee(%a: i32) -> i32 {
entry:
  ret %a
}
fn caller(%x: i32) -> i32 {
entry:
  %0 = call callee, %x
  ret %0
}`
	file, err := irtext.ParseString("<test>", src)
	require.NoError(t, err)
	mod, err := irtext.Lower("test", file)
	require.NoError(t, err)

	expanded, err := encode.ExpandCalls(mod, mod.FunctionByName("caller"), diagnostics.Discard)
	require.NoError(t, err)

	for _, b := range expanded.Blocks {
		for _, inst := range b.Instructions {
			_, isCall := inst.(*ir.CallInstruction)
			assert.False(t, isCall)
		}
	}
	assert.Greater(t, len(expanded.Blocks), 1)
}

func TestExpandCallsDetectsRecursion(t *testing.T) {
	src := `
fn f(%x: i32) -> i32 {
entry:
  %0 = call f, %x
  ret %0
}`
	file, err := irtext.ParseString("<test>", src)
	require.NoError(t, err)
	mod, err := irtext.Lower("test", file)
	require.NoError(t, err)

	_, err = encode.ExpandCalls(mod, mod.FunctionByName("f"), diagnostics.Discard)
	require.Error(t, err)
	var recErr *encode.RecursiveCallError
	assert.ErrorAs(t, err, &recErr)
	assert.Equal(t, "f", recErr.Callee)
}

func TestExpandCallsWarnsOnUnknownCallee(t *testing.T) {
	src := `
fn caller(%x: i32) -> i32 {
entry:
  %0 = call missing, %x
  ret %0
}`
	file, err := irtext.ParseString("<test>", src)
	require.NoError(t, err)
	mod, err := irtext.Lower("test", file)
	require.NoError(t, err)

	collector := &diagnostics.Collector{}
	expanded, err := encode.ExpandCalls(mod, mod.FunctionByName("caller"), collector)
	require.NoError(t, err)
	assert.NotEmpty(t, collector.Warnings)
	assert.Len(t, expanded.Blocks, 1)
}

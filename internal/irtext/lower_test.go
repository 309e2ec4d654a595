package irtext_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boundedverify/internal/ir"
	"boundedverify/internal/irtext"
)

func lowerSrc(t *testing.T, src string) *ir.Module {
	t.Helper()
	file, err := irtext.ParseString("<test>", src)
	require.NoError(t, err)
	mod, err := irtext.Lower("test", file)
	require.NoError(t, err)
	return mod
}

func TestLowerParamsAndReturnType(t *testing.T) {
	mod := lowerSrc(t, `
fn f(%x: i32, %y: i1) -> i64 {
entry:
  ret %x
}`)
	require.Len(t, mod.Functions, 1)
	fn := mod.Functions[0]
	assert.Equal(t, "f", fn.Name)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, ir.IntType{Bits: 32}, fn.Params[0].Type)
	assert.Equal(t, ir.BoolType{}, fn.Params[1].Type)
	assert.Equal(t, ir.IntType{Bits: 64}, fn.ReturnType)
}

func TestLowerUnsupportedTypeIsNotAnError(t *testing.T) {
	mod := lowerSrc(t, `
fn f(%x: f32) -> f32 {
entry:
  ret %x
}`)
	fn := mod.Functions[0]
	assert.Equal(t, ir.UnsupportedType{Name: "f32"}, fn.Params[0].Type)
}

// A phi operand naming a register defined in a later block still resolves,
// proving the two-pass registration handles forward references.
func TestLowerForwardPhiReference(t *testing.T) {
	mod := lowerSrc(t, `
fn f(%c: i1) -> i64 {
entry:
  br %c, a, b
a:
  br later
b:
  %1 = phi [%2, later]
  ret %1
later:
  %2 = icmp eq %c, %c
  br b
}`)
	fn := mod.Functions[0]
	b := fn.BlockByName("b")
	require.NotNil(t, b)
	require.Len(t, b.Instructions, 1)
	phiInst, ok := b.Instructions[0].(*ir.PhiInstruction)
	require.True(t, ok)
	require.Len(t, phiInst.Incoming, 1)
	assert.Equal(t, "%2", phiInst.Incoming[0].Value.Text)
	assert.Equal(t, ir.BoolType{}, phiInst.Incoming[0].Value.Type)
}

func TestLowerCheckedArithWidthFromMnemonicSuffix(t *testing.T) {
	mod := lowerSrc(t, `
fn f(%x: i32) -> i32 {
entry:
  %0 = ssub.with.overflow.i32 0, %x
  %1 = extractvalue %0, 0
  %2 = extractvalue %0, 1
  br %2, bad, good
bad:
  unreachable
good:
  ret %1
}`)
	fn := mod.Functions[0]
	arith := fn.Entry.Instructions[0].(*ir.CheckedArithInstruction)
	assert.Equal(t, ir.CheckedSub, arith.Op)
	assert.Equal(t, 32, arith.Width)
}

func TestLowerUnconditionalBranch(t *testing.T) {
	mod := lowerSrc(t, `
fn f(%x: i64) -> i64 {
entry:
  br done
done:
  ret %x
}`)
	fn := mod.Functions[0]
	br, ok := fn.Entry.Terminator.(*ir.BranchTerminator)
	require.True(t, ok)
	assert.Nil(t, br.Cond)
	assert.Equal(t, "done", br.TrueLabel)
}

func TestLowerSwitchTerminator(t *testing.T) {
	mod := lowerSrc(t, `
fn f(%x: i64) -> i64 {
entry:
  switch %x, default fallback, [0, zero], [1, one]
zero:
  ret %x
one:
  ret %x
fallback:
  ret %x
}`)
	fn := mod.Functions[0]
	sw, ok := fn.Entry.Terminator.(*ir.SwitchTerminator)
	require.True(t, ok)
	assert.Equal(t, "fallback", sw.DefaultLabel)
	require.Len(t, sw.Cases, 2)
	assert.Equal(t, "zero", sw.Cases[0].Label)
	assert.Equal(t, "one", sw.Cases[1].Label)
}

func TestLowerUnsupportedMnemonicErrors(t *testing.T) {
	file, err := irtext.ParseString("<test>", `
fn f(%x: i64) -> i64 {
entry:
  %0 = frobnicate %x
  ret %0
}`)
	require.NoError(t, err)
	_, err = irtext.Lower("test", file)
	assert.Error(t, err)
}

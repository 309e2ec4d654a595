package resolve_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boundedverify/internal/ir"
	"boundedverify/internal/resolve"
)

func TestNameNamespacesRegisters(t *testing.T) {
	r := resolve.New("f_")
	reg := ir.Reg("%0", ir.IntType{Bits: 64})
	assert.Equal(t, "f_%0", r.Name(reg))
}

func TestNameIsIdempotentForConstants(t *testing.T) {
	r := resolve.New("f_")
	c := ir.ConstInt(42, ir.IntType{Bits: 64})

	name1 := r.Name(c)
	name2 := r.Name(ir.ConstInt(42, ir.IntType{Bits: 64}))

	assert.Equal(t, name1, name2)
	require.Len(t, r.PendingAssertions(), 1)
	assert.Equal(t, name1, r.PendingAssertions()[0].Name)
}

func TestNameSanitizesNegativeLiterals(t *testing.T) {
	r := resolve.New("f_")
	c := ir.ConstInt(-5, ir.IntType{Bits: 64})
	name := r.Name(c)
	assert.Contains(t, name, "neg_5")
	assert.NotContains(t, name, "-5")
}

func TestDistinctConstantsGetDistinctAssertions(t *testing.T) {
	r := resolve.New("f_")
	r.Name(ir.ConstInt(1, ir.IntType{Bits: 64}))
	r.Name(ir.ConstInt(2, ir.IntType{Bits: 64}))
	assert.Len(t, r.PendingAssertions(), 2)
}

func TestMinMaxSignedInt(t *testing.T) {
	min, max, ok := resolve.MinMaxSignedInt(8)
	require.True(t, ok)
	assert.Equal(t, int64(-128), min)
	assert.Equal(t, int64(127), max)

	min, max, ok = resolve.MinMaxSignedInt(32)
	require.True(t, ok)
	assert.Equal(t, int64(-2147483648), min)
	assert.Equal(t, int64(2147483647), max)

	_, _, ok = resolve.MinMaxSignedInt(128)
	assert.False(t, ok)
}

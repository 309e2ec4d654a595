package cfg_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boundedverify/internal/cfg"
	"boundedverify/internal/diagnostics"
	"boundedverify/internal/irtext"
)

func TestExtractStraightLineIsAcyclic(t *testing.T) {
	src := `
fn straight(%x: i64) -> i64 {
entry:
  ret %x
}`
	file, err := irtext.ParseString("<test>", src)
	require.NoError(t, err)
	mod, err := irtext.Lower("test", file)
	require.NoError(t, err)

	fn := mod.Functions[0]
	g := cfg.Extract(fn, "", cfg.CommonEndNode, diagnostics.Discard)
	assert.False(t, g.Cyclic)
	assert.True(t, g.Forward.Contains("entry", cfg.CommonEndNode))
}

func TestExtractLoopIsCyclic(t *testing.T) {
	src := `
fn spin(%x: i64) -> i64 {
entry:
  %0 = icmp eq %x, 0
  br %0, done, entry
done:
  ret %x
}`
	file, err := irtext.ParseString("<test>", src)
	require.NoError(t, err)
	mod, err := irtext.Lower("test", file)
	require.NoError(t, err)

	fn := mod.Functions[0]
	g := cfg.Extract(fn, "", cfg.CommonEndNode, diagnostics.Discard)
	assert.True(t, g.Cyclic)
}

func TestExtractBranchBothTargets(t *testing.T) {
	src := `
fn branchy(%x: i64) -> i64 {
entry:
  %0 = icmp eq %x, 0
  br %0, a, b
a:
  ret %x
b:
  ret %x
}`
	file, err := irtext.ParseString("<test>", src)
	require.NoError(t, err)
	mod, err := irtext.Lower("test", file)
	require.NoError(t, err)

	fn := mod.Functions[0]
	g := cfg.Extract(fn, "", cfg.CommonEndNode, diagnostics.Discard)
	assert.False(t, g.Cyclic)
	assert.True(t, g.Forward.Contains("entry", "a"))
	assert.True(t, g.Forward.Contains("entry", "b"))
	assert.True(t, g.Backward.Contains("a", "entry"))
	assert.True(t, g.Backward.Contains("b", "entry"))
}

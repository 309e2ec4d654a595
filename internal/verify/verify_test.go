package verify_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boundedverify/internal/diagnostics"
	"boundedverify/internal/irtext"
	"boundedverify/internal/smt"
	"boundedverify/internal/verify"
)

func runSource(t *testing.T, src, target string) *verify.Report {
	t.Helper()
	file, err := irtext.ParseString("<test>", src)
	require.NoError(t, err)

	mod, err := irtext.Lower("test", file)
	require.NoError(t, err)

	report, err := verify.RunTarget(context.Background(), mod, target, smt.NewMemSolver(), diagnostics.Discard)
	require.NoError(t, err)
	return report
}

// abs(i32::MIN) overflows negating the minimum value, so abs must be unsafe.
func TestAbsIsUnsafe(t *testing.T) {
	src := `
fn abs(%x: i32) -> i32 {
entry:
  %0 = icmp slt %x, 0
  br %0, negate, done
negate:
  %1 = ssub.with.overflow.i32 0, %x
  %2 = extractvalue %1, 0
  %3 = extractvalue %1, 1
  br %3, bad, good
bad:
  unreachable
good:
  ret %2
done:
  ret %x
}`
	report := runSource(t, src, "abs")
	assert.Equal(t, verify.Unsafe, report.Verdict)
	assert.Contains(t, report.Witness, "x")
}

// neg_abs checks the overflow flag and takes a safe exit instead of
// reaching the panic block, so it must be safe.
func TestNegAbsIsSafe(t *testing.T) {
	src := `
fn neg_abs(%x: i32) -> i32 {
entry:
  %0 = icmp slt %x, 0
  br %0, negate, done
negate:
  %1 = ssub.with.overflow.i32 0, %x
  %2 = extractvalue %1, 0
  %3 = extractvalue %1, 1
  br %3, overflowed, ok
overflowed:
  ret %x
ok:
  ret %2
done:
  ret %x
}`
	report := runSource(t, src, "neg_abs")
	assert.Equal(t, verify.Safe, report.Verdict)
}

// assert(x == x) can never fail.
func TestAssertSelfEqualityIsSafe(t *testing.T) {
	src := `
fn check(%x: i64) -> i1 {
entry:
  %0 = icmp eq %x, %x
  br %0, ok, bad
bad:
  unreachable
ok:
  ret %0
}`
	report := runSource(t, src, "check")
	assert.Equal(t, verify.Safe, report.Verdict)
}

// assert(x < 13) fails whenever x >= 13.
func TestAssertBoundIsUnsafe(t *testing.T) {
	src := `
fn check(%x: i64) -> i1 {
entry:
  %0 = icmp slt %x, 13
  br %0, ok, bad
bad:
  unreachable
ok:
  ret %0
}`
	report := runSource(t, src, "check")
	require.Equal(t, verify.Unsafe, report.Verdict)
	w, ok := report.Witness["x"]
	require.True(t, ok)
	assert.GreaterOrEqual(t, w.Int, int64(13))
}

// A switch with no matching case falls to the default, which subtracts one
// from an i64 at its minimum value and overflows — unsafe.
func TestSwitchDefaultOverflowIsUnsafe(t *testing.T) {
	src := `
fn pick(%x: i64) -> i64 {
entry:
  switch %x, default fallback, [0, zero], [1, one]
zero:
  ret %x
one:
  ret %x
fallback:
  %0 = ssub.with.overflow.i64 %x, 1
  %1 = extractvalue %0, 0
  %2 = extractvalue %0, 1
  br %2, bad, good
bad:
  unreachable
good:
  ret %1
}`
	report := runSource(t, src, "pick")
	assert.Equal(t, verify.Unsafe, report.Verdict)
}

// A self-recursive function is unsupported input: the driver reports
// Unknown rather than recursing forever or crashing.
func TestSelfRecursiveFunctionIsUnknown(t *testing.T) {
	src := `
fn loopy(%x: i64) -> i64 {
entry:
  %0 = icmp eq %x, 0
  br %0, done, again
again:
  %1 = call loopy, %x
  ret %1
done:
  ret %x
}`
	report := runSource(t, src, "loopy")
	require.NoError(t, nil)
	assert.Equal(t, verify.Unknown, report.Verdict)
	assert.NotEmpty(t, report.Reason)
}

// A missing target prefix reports Unknown with a reason rather than a nil
// dereference or a Go error.
func TestMissingTargetIsUnknown(t *testing.T) {
	src := `
fn known(%x: i64) -> i64 {
entry:
  ret %x
}`
	report := runSource(t, src, "nosuchfunction")
	assert.Equal(t, verify.Unknown, report.Verdict)
	assert.Contains(t, report.Reason, "nosuchfunction")
}

// A cyclic CFG (a loop) is unsupported input and reports Unknown instead of
// an infinite encode.
func TestLoopIsUnknown(t *testing.T) {
	src := `
fn spin(%x: i64) -> i64 {
entry:
  br nounexitcond, entry, entry
}`
	// entry branches back to itself whenever %x != 0, forming a one-block cycle.
	src = `
fn spin(%x: i64) -> i64 {
entry:
  %0 = icmp eq %x, 0
  br %0, done, entry
done:
  ret %x
}`
	report := runSource(t, src, "spin")
	assert.Equal(t, verify.Unknown, report.Verdict)
}

// RunTargetCached populates and reuses the cache across identical calls.
func TestRunTargetCachedHitsCache(t *testing.T) {
	src := `
fn check(%x: i64) -> i1 {
entry:
  %0 = icmp eq %x, %x
  br %0, ok, bad
bad:
  unreachable
ok:
  ret %0
}`
	file, err := irtext.ParseString("<test>", src)
	require.NoError(t, err)
	mod, err := irtext.Lower("test", file)
	require.NoError(t, err)

	cache := verify.NewCache()
	solver := smt.NewMemSolver()

	r1, err := verify.RunTargetCached(context.Background(), mod, "check", solver, diagnostics.Discard, cache)
	require.NoError(t, err)
	r2, err := verify.RunTargetCached(context.Background(), mod, "check", solver, diagnostics.Discard, cache)
	require.NoError(t, err)

	assert.Equal(t, r1.Verdict, r2.Verdict)
	assert.Equal(t, verify.Safe, r1.Verdict)
}

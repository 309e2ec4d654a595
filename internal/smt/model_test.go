package smt_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boundedverify/internal/smt"
)

func TestParseModelEmptyReaderYieldsEmptyModel(t *testing.T) {
	m, err := smt.ParseModel(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestParseModelParsesBooleansAndIntegers(t *testing.T) {
	body := `(model
  (define-fun x () Int 5)
  (define-fun ok () Bool true)
  (define-fun bad () Bool false)
)`
	m, err := smt.ParseModel(strings.NewReader(body))
	require.NoError(t, err)

	assert.Equal(t, int64(5), m["x"].Int)
	assert.True(t, m["ok"].IsBool)
	assert.True(t, m["ok"].Bool)
	assert.True(t, m["bad"].IsBool)
	assert.False(t, m["bad"].Bool)
}

func TestParseModelParsesNegativeIntegers(t *testing.T) {
	body := `(model (define-fun x () Int (- 2147483648)))`
	m, err := smt.ParseModel(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, int64(-2147483648), m["x"].Int)
}

func TestParseModelWithoutOuterWrapperStillParses(t *testing.T) {
	body := `((define-fun y () Int 42))`
	m, err := smt.ParseModel(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, int64(42), m["y"].Int)
}

func TestParseModelMalformedInputErrors(t *testing.T) {
	_, err := smt.ParseModel(strings.NewReader("not an s-expression at all {"))
	assert.Error(t, err)
}

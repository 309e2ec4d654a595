package ir_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"boundedverify/internal/ir"
)

func TestPrintFunctionRendersSignatureAndBlocks(t *testing.T) {
	fn := &ir.Function{
		Name:       "abs",
		Params:     []*ir.Parameter{{Name: "%x", Type: ir.IntType{Bits: 32}}},
		ReturnType: ir.IntType{Bits: 32},
		Blocks: []*ir.BasicBlock{
			{
				Label:      "entry",
				Terminator: &ir.ReturnTerminator{Value: ir.Reg("%x", ir.IntType{Bits: 32})},
			},
		},
	}

	out := ir.PrintFunction(fn)
	assert.True(t, strings.HasPrefix(out, "fn abs(%x: i32) -> i32 {"))
	assert.Contains(t, out, "entry:")
	assert.Contains(t, out, "ret %x")
}

func TestPrintModuleIncludesEveryFunction(t *testing.T) {
	mod := &ir.Module{
		Name: "test",
		Functions: []*ir.Function{
			{Name: "a", Blocks: []*ir.BasicBlock{{Label: "entry", Terminator: &ir.UnreachableTerminator{}}}},
			{Name: "b", Blocks: []*ir.BasicBlock{{Label: "entry", Terminator: &ir.UnreachableTerminator{}}}},
		},
	}

	out := ir.Print(mod)
	assert.Contains(t, out, "module test")
	assert.Contains(t, out, "fn a(")
	assert.Contains(t, out, "fn b(")
}

func TestPrintFunctionVoidReturnType(t *testing.T) {
	fn := &ir.Function{
		Name:   "noop",
		Blocks: []*ir.BasicBlock{{Label: "entry", Terminator: &ir.UnreachableTerminator{}}},
	}
	out := ir.PrintFunction(fn)
	assert.Contains(t, out, "-> void")
}

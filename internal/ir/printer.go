package ir

import (
	"fmt"
	"strings"
)

// Printer provides pretty-printing for IR, in an indent-tracking,
// strings.Builder-backed style.
type Printer struct {
	indent int
	output strings.Builder
}

// NewPrinter creates a new IR printer.
func NewPrinter() *Printer {
	return &Printer{indent: 0}
}

// Print returns the textual form of an entire module.
func Print(m *Module) string {
	p := NewPrinter()
	p.printModule(m)
	return p.output.String()
}

// PrintFunction returns the textual form of a single function, used for
// tracing a function right before it is encoded.
func PrintFunction(f *Function) string {
	p := NewPrinter()
	p.printFunction(f)
	return p.output.String()
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("  ")
	}
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.writeIndent()
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

func (p *Printer) printModule(m *Module) {
	p.writeLine("module %s", m.Name)
	p.writeLine("")
	for _, fn := range m.Functions {
		p.printFunction(fn)
		p.writeLine("")
	}
}

func (p *Printer) printFunction(f *Function) {
	params := make([]string, len(f.Params))
	for i, param := range f.Params {
		params[i] = fmt.Sprintf("%s: %s", param.Name, param.Type)
	}
	retType := "void"
	if f.ReturnType != nil {
		retType = f.ReturnType.String()
	}
	p.writeLine("fn %s(%s) -> %s {", f.Name, strings.Join(params, ", "), retType)
	p.indent++
	for _, b := range f.Blocks {
		p.printBlock(b)
	}
	p.indent--
	p.writeLine("}")
}

func (p *Printer) printBlock(b *BasicBlock) {
	p.writeLine("%s:", b.Label)
	p.indent++
	for _, inst := range b.Instructions {
		p.writeLine("%s", inst)
	}
	if b.Terminator != nil {
		p.writeLine("%s", b.Terminator)
	}
	p.indent--
}

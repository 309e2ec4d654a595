package lsp

import (
	"github.com/alecthomas/participle/v2/lexer"

	"boundedverify/internal/irtext"
)

// SemanticToken represents a single LSP semantic token entry.
// Line and StartChar are 0-based positions. TokenType is an index into
// SemanticTokenTypes, TokenModifiers a bitmask over SemanticTokenModifiers.
type SemanticToken struct {
	Line           uint32
	StartChar      uint32
	Length         uint32
	TokenType      int
	TokenModifiers int
}

func collectSemanticTokens(file *irtext.File) []SemanticToken {
	var tokens []SemanticToken
	if file == nil {
		return tokens
	}
	for _, fn := range file.Functions {
		tokens = append(tokens, walkFunction(fn)...)
	}
	return tokens
}

func walkFunction(fn *irtext.FnDecl) []SemanticToken {
	var tokens []SemanticToken

	tokens = append(tokens, makeToken(fn.Pos, fn.Name, "function", 1))
	for _, p := range fn.Params {
		tokens = append(tokens, makeToken(p.Pos, p.Name, "parameter", 1))
	}
	for _, b := range fn.Blocks {
		tokens = append(tokens, walkBlock(b)...)
	}

	return tokens
}

func walkBlock(b *irtext.BlockDecl) []SemanticToken {
	var tokens []SemanticToken

	tokens = append(tokens, makeToken(b.Pos, b.Label, "namespace", 1))
	for _, il := range b.Instructions {
		tokens = append(tokens, walkInstruction(il)...)
	}
	tokens = append(tokens, walkTerminator(b.Terminator)...)

	return tokens
}

func walkInstruction(il *irtext.InstrLine) []SemanticToken {
	var tokens []SemanticToken

	if il.Dst != "" {
		tokens = append(tokens, makeToken(il.Pos, il.Dst, "variable", 1))
	}
	tokens = append(tokens, makeToken(il.Pos, il.Op, "keyword", 0))
	for _, op := range il.Operands {
		tokens = append(tokens, walkOperand(il.Pos, op)...)
	}

	return tokens
}

func walkOperand(pos lexer.Position, op *irtext.Operand) []SemanticToken {
	var tokens []SemanticToken
	if op.Phi != nil {
		tokens = append(tokens, walkValueRef(pos, op.Phi.Value)...)
		tokens = append(tokens, makeToken(pos, op.Phi.Label, "namespace", 0))
		return tokens
	}
	return walkValueRef(pos, op.Value)
}

func walkValueRef(pos lexer.Position, v *irtext.ValueRef) []SemanticToken {
	if v == nil {
		return nil
	}
	if v.Register != "" {
		return []SemanticToken{makeToken(pos, v.Register, "variable", 0)}
	}
	if v.Number != nil {
		return []SemanticToken{makeToken(pos, *v.Number, "number", 0)}
	}
	return nil
}

func walkTerminator(t *irtext.TermLine) []SemanticToken {
	if t == nil {
		return nil
	}
	var tokens []SemanticToken
	switch {
	case t.Ret != nil:
		tokens = append(tokens, makeToken(t.Pos, "ret", "keyword", 0))
		tokens = append(tokens, walkValueRef(t.Pos, t.Ret.Value)...)
	case t.Br != nil:
		tokens = append(tokens, makeToken(t.Pos, "br", "keyword", 0))
		tokens = append(tokens, walkValueRef(t.Pos, t.Br.Cond)...)
	case t.Switch != nil:
		tokens = append(tokens, makeToken(t.Pos, "switch", "keyword", 0))
		tokens = append(tokens, walkValueRef(t.Pos, t.Switch.Discriminant)...)
	case t.Unreachable != nil:
		tokens = append(tokens, makeToken(t.Pos, "unreachable", "keyword", 0))
	}
	return tokens
}

func makeToken(pos lexer.Position, value, tokenType string, decl int) SemanticToken {
	line := pos.Line - 1
	if line < 0 {
		line = 0
	}
	col := pos.Column - 1
	if col < 0 {
		col = 0
	}
	return SemanticToken{
		Line:           uint32(line),
		StartChar:      uint32(col),
		Length:         uint32(len(value)),
		TokenType:      indexOf(tokenType, SemanticTokenTypes),
		TokenModifiers: decl << indexOf("declaration", SemanticTokenModifiers),
	}
}

// indexOf returns the index of a string in a list, or -1 if not found.
func indexOf(target string, list []string) int {
	for i, v := range list {
		if v == target {
			return i
		}
	}
	return -1
}

// Package irtext parses a textual IR surface syntax (one
// function/block/instruction per line) and lowers it into internal/ir
// values. Nothing under internal/cfg, internal/phi, internal/resolve,
// internal/encode, or internal/verify imports this package — it exists
// purely so the CLI, LSP, and tests have a way to load a function, since
// this repository has no upstream compiler of its own.
//
// Built the same stateful-lexer + participle.Build[...] way a language
// source parser would be, over a grammar shaped for IR text rather than
// source syntax.
package irtext

import "github.com/alecthomas/participle/v2/lexer"

// Keyword tokenizes the terminator mnemonics as their own token type, ahead
// of the generic Ident rule. Without this, "br"/"ret"/"switch"/"unreachable"
// would lex as plain identifiers and InstrLine's `@Ident` mnemonic capture
// would happily consume a terminator line as if it were an ordinary
// instruction, leaving BlockDecl's trailing `Terminator *TermLine` with
// nothing to match.
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"Register", `%[a-zA-Z0-9_.]+`, nil},
		{"Arrow", `->`, nil},
		{"Keyword", `\b(ret|br|switch|unreachable|default)\b`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_.]*(?:::[a-zA-Z_][a-zA-Z0-9_.]*)*`, nil},
		{"Number", `-?[0-9]+`, nil},
		{"Punctuation", `[(){}\[\],:=]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})

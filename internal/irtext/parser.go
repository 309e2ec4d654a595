package irtext

import (
	"github.com/alecthomas/participle/v2"
)

var parser = participle.MustBuild[File](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(4),
)

// ParseString parses one IR text document.
func ParseString(filename, source string) (*File, error) {
	return parser.ParseString(filename, source)
}

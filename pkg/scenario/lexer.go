package scenario

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer tokenizes scenario files. Keywords are lower case and directions
// upper case, so neither needs an identifier rule.
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "Whitespace", Pattern: `[\s]+`},

	{Name: "KwScenario", Pattern: `\bscenario\b`},
	{Name: "KwPins", Pattern: `\bpins\b`},
	{Name: "KwSeed", Pattern: `\bseed\b`},
	{Name: "KwParticle", Pattern: `\bparticle\b`},
	{Name: "KwLine", Pattern: `\bline\b`},
	{Name: "KwChain", Pattern: `\bchain\b`},

	// Roles
	{Name: "KwSource", Pattern: `\bsource\b`},
	{Name: "KwDestination", Pattern: `\bdestination\b`},
	{Name: "KwCandidate", Pattern: `\bcandidate\b`},
	{Name: "KwPortal", Pattern: `\bportal\b`},
	{Name: "KwRegion", Pattern: `\bregion\b`},

	// Chain operands
	{Name: "KwA", Pattern: `\ba\b`},
	{Name: "KwB", Pattern: `\bb\b`},

	{Name: "Direction", Pattern: `\b(NE|NW|SW|SE|E|W)\b`},
	{Name: "String", Pattern: `"[^"\n]*"`},
	{Name: "Integer", Pattern: `-?[0-9]+`},
	{Name: "Semicolon", Pattern: `;`},
})

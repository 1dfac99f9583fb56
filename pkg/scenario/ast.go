package scenario

import "github.com/alecthomas/participle/v2/lexer"

// File is a parsed scenario.
//
//	scenario "name" pins 8 seed 42;
//	particle 0 0 source;
//	line 1 0 E 3 destination;
//	chain 0 1 E 4 a "0110" b "0011";
type File struct {
	Header *Header      `@@`
	Stmts  []*Statement `@@*`
}

// Header names the scenario. Pins and seed fall back to the run
// configuration when omitted.
type Header struct {
	Name string `KwScenario @String`
	Pins *int   `( KwPins @Integer )?`
	Seed *int   `( KwSeed @Integer )? Semicolon`
}

// Statement is one line of a scenario.
type Statement struct {
	Particle *ParticleStmt `  @@`
	Line     *LineStmt     `| @@`
	Chain    *ChainStmt    `| @@`
}

// ParticleStmt places a single particle.
type ParticleStmt struct {
	Pos lexer.Position

	X     int     `KwParticle @Integer`
	Y     int     `@Integer`
	Roles []*Role `@@* Semicolon`
}

// LineStmt places Count particles starting at (X, Y) and walking in Dir.
// The roles apply to every particle of the line.
type LineStmt struct {
	Pos lexer.Position

	X     int     `KwLine @Integer`
	Y     int     `@Integer`
	Dir   string  `@Direction`
	Count int     `@Integer`
	Roles []*Role `@@* Semicolon`
}

// ChainStmt is a line that carries two binary operands, least significant
// bit first at (X, Y).
type ChainStmt struct {
	Pos lexer.Position

	X     int     `KwChain @Integer`
	Y     int     `@Integer`
	Dir   string  `@Direction`
	Count int     `@Integer`
	A     *string `( KwA @String )?`
	B     *string `( KwB @String )?`
	Roles []*Role `@@* Semicolon`
}

// Role labels the particles of a statement.
type Role struct {
	Source      bool `  @KwSource`
	Destination bool `| @KwDestination`
	Candidate   bool `| @KwCandidate`
	Portal      bool `| @KwPortal`
	Region      *int `| KwRegion @Integer`
}

package grammarfe

import "regexp"

// SequenceType discriminates the four bracket forms a Sequence may be
// written with, plus the synthetic Alternating form the parser produces
// when a sequence contains one or more top-level '|'s.
type SequenceType int

const (
	// SeqPlain is a parenthesized (...) grouping: match the parts in order.
	SeqPlain SequenceType = iota
	// SeqOptional is a bracketed [...] grouping: match zero or one time.
	SeqOptional
	// SeqRepetition is a braced {...} grouping: match zero or more times.
	SeqRepetition
	// SeqNonemptyRepetition is an angle-bracketed <...> grouping: match one
	// or more times.
	SeqNonemptyRepetition
	// SeqAlternating is synthesized for a sequence containing top-level
	// '|'s; Parts then holds one Part per alternative rather than a flat
	// part list.
	SeqAlternating
)

// Part is one element of a production: a bracketed sub-sequence, a literal
// string, a reference to a declared token or another rule, or a named field
// match wrapping one of those. Exactly one of the typed fields is set,
// selected by Kind.
type Part struct {
	Kind PartKind

	Sequence     *Sequence
	Param        *ParameterizedSequence
	LiteralText  string
	TokenName    string
	FieldName    string
	FieldMatch   *Part
	RuleName     string
}

// PartKind discriminates the six variants of Part.
type PartKind int

const (
	PartKindSequence PartKind = iota
	PartKindParameterizedSequence
	PartKindLiteral
	PartKindDeclaredToken
	PartKindPatternMatch
	PartKindRuleMatch
)

// Sequence is a bracketed grouping of parts, or (when Type is
// SeqAlternating) a list of alternative parts.
type Sequence struct {
	Type  SequenceType
	Parts []Part
}

// ParameterizedSequence pairs a sequence with a second sequence used as its
// parameter - for example a repetition paired with a separator sequence.
type ParameterizedSequence struct {
	Sequence  Sequence
	Parameter Sequence
}

// Production is one alternative right-hand side of a Rule: either a named
// production listing its own parts, or an alias production that simply
// refers to another rule's productions by name.
type Production struct {
	Kind ProductionKind

	Name  string // NamedProduction
	Parts []Part // NamedProduction

	Alias string // AliasProduction
}

// ProductionKind discriminates the two variants of Production.
type ProductionKind int

const (
	ProductionKindNamed ProductionKind = iota
	ProductionKindAlias
)

// Rule is a named nonterminal with one or more alternative productions.
type Rule struct {
	Name        string
	Productions []Production
}

// TokenMatcher recognizes a token in the input stream, either by exact
// literal text or by regular expression.
type TokenMatcher struct {
	Kind    TokenMatcherKind
	Name    string
	Literal string         // MatcherKindLiteral
	Pattern *regexp.Regexp // MatcherKindRegex
}

// TokenMatcherKind discriminates the two variants of TokenMatcher.
type TokenMatcherKind int

const (
	MatcherKindLiteral TokenMatcherKind = iota
	MatcherKindRegex
)

// ParsedGrammar is the result of parsing a grammar source: a mapping of rule
// names to rule ASTs, a mapping of token-matcher names to matchers, and a
// set of start symbols.
type ParsedGrammar struct {
	Rules         map[string]Rule
	TokenMatchers map[string]TokenMatcher
	StartSymbols  map[string]bool
}

package grammarfe

import "regexp"

// Parse tokenizes and parses a full grammar source into a ParsedGrammar.
// This is the package's main entry point.
func Parse(src string) (ParsedGrammar, error) {
	toks, err := lex(src)
	if err != nil {
		return ParsedGrammar{}, err
	}
	p := &parser{tokens: toks}
	return p.parse()
}

// endOfRule signals that a lower-case identifier the caller thought was a
// RuleMatch is actually the start of the next rule (it is immediately
// followed by ::=). It unwinds parse_named_production's part loop without
// consuming the identifier.
type endOfRule struct{}

func (endOfRule) Error() string { return "end of rule" }

type parser struct {
	tokens []Token
	index  int

	rules         map[string]Rule
	tokenMatchers map[string]TokenMatcher
	startSymbols  map[string]bool
}

func (p *parser) tok() Token {
	return p.tokens[p.index]
}

func (p *parser) peekNext() *Token {
	return p.peekAt(1)
}

func (p *parser) peekAt(off int) *Token {
	if p.index+off >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.index+off]
}

// sectionKeywords are the only identifiers that may open a section header;
// restricting to these (rather than any bracketed lower-case word) is what
// lets a lower-case rule name be used as an ordinary optional part, e.g.
// [expr], without being mistaken for a new section.
var sectionKeywords = map[string]bool{"rules": true, "tokens": true, "start": true}

// atSectionHeader reports whether the parser is positioned at a genuine
// section header: '[' keyword ']', with nothing else between the brackets.
// This is what distinguishes a [rules]/[tokens]/[start] header from an
// ordinary optional-group bracket such as [A] or [expr] in a production,
// which the lexer cannot tell apart from a header on its own since both are
// just a bracketed word.
func (p *parser) atSectionHeader() bool {
	if p.tok().Kind != TokLBracket {
		return false
	}
	name := p.peekAt(1)
	if name == nil || name.Kind != TokLowerIdent || !sectionKeywords[name.Text] {
		return false
	}
	close := p.peekAt(2)
	return close != nil && close.Kind == TokRBracket
}

// parseSectionHeader consumes a '[' identifier ']' triple and returns the
// identifier. Callers must check atSectionHeader first.
func (p *parser) parseSectionHeader() string {
	p.advance() // '['
	name := p.tok().Text
	p.advance() // identifier
	p.advance() // ']'
	return name
}

func (p *parser) hasTokens() bool {
	return p.tok().Kind != TokEOF
}

func (p *parser) advance() {
	p.index++
}

func (p *parser) parse() (ParsedGrammar, error) {
	p.rules = make(map[string]Rule)
	p.tokenMatchers = make(map[string]TokenMatcher)
	p.startSymbols = make(map[string]bool)

	for p.hasTokens() {
		if !p.atSectionHeader() {
			return ParsedGrammar{}, newErrorf(p.tok().Line, "expected a [section] header, found %s", p.tok())
		}
		name := p.parseSectionHeader()

		var err error
		switch name {
		case "rules":
			err = p.parseRules()
		case "tokens":
			err = p.parseTokenMatchers()
		case "start":
			err = p.parseStart()
		}
		if err != nil {
			return ParsedGrammar{}, err
		}
	}

	if len(p.startSymbols) == 0 {
		for name := range p.rules {
			p.startSymbols[name] = true
			break
		}
	}

	return ParsedGrammar{Rules: p.rules, TokenMatchers: p.tokenMatchers, StartSymbols: p.startSymbols}, nil
}

func (p *parser) parseRules() error {
	for p.hasTokens() && !p.atSectionHeader() {
		rule, err := p.parseRule()
		if err != nil {
			return err
		}
		if _, exists := p.rules[rule.Name]; exists {
			return newErrorf(p.tok().Line, "rule %q declared more than once", rule.Name)
		}
		p.rules[rule.Name] = rule
	}
	return nil
}

func (p *parser) parseRule() (Rule, error) {
	if p.tok().Kind != TokLowerIdent {
		return Rule{}, newErrorf(p.tok().Line, "expected a rule name, found %s", p.tok())
	}
	name := p.tok().Text
	p.advance()

	var productions []Production
	for p.tok().Kind == TokAssign || p.tok().Kind == TokPipe {
		p.advance()
		prod, err := p.parseProduction()
		if err != nil {
			return Rule{}, err
		}
		productions = append(productions, prod)
	}
	if len(productions) == 0 {
		return Rule{}, newErrorf(p.tok().Line, "rule %q has no productions (expected ::=)", name)
	}
	return Rule{Name: name, Productions: productions}, nil
}

func (p *parser) parseProduction() (Production, error) {
	if p.tok().Kind == TokUpperIdent {
		return p.parseNamedProduction()
	}
	if p.tok().Kind == TokLowerIdent {
		return p.parseAliasProduction()
	}
	return Production{}, newErrorf(p.tok().Line, "expected a production, found %s", p.tok())
}

func (p *parser) parseNamedProduction() (Production, error) {
	name := p.tok().Text
	p.advance()

	var parts []Part
	for p.hasTokens() && !p.atSectionHeader() && p.tok().Kind != TokAssign && p.tok().Kind != TokPipe {
		part, err := p.parsePart()
		if err != nil {
			if _, ok := err.(endOfRule); ok {
				break
			}
			return Production{}, err
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return Production{}, newErrorf(p.tok().Line, "production %q has no parts", name)
	}
	return Production{Kind: ProductionKindNamed, Name: name, Parts: parts}, nil
}

func (p *parser) parseAliasProduction() (Production, error) {
	alias := p.tok().Text
	p.advance()
	return Production{Kind: ProductionKindAlias, Alias: alias}, nil
}

func (p *parser) parsePart() (Part, error) {
	switch p.tok().Kind {
	case TokLParen, TokLBracket, TokLBrace, TokLAngle:
		return p.parseSequencePart()
	case TokString:
		text := p.tok().Text
		p.advance()
		return Part{Kind: PartKindLiteral, LiteralText: text}, nil
	case TokUpperIdent:
		text := p.tok().Text
		p.advance()
		return Part{Kind: PartKindDeclaredToken, TokenName: text}, nil
	case TokLowerIdent:
		if next := p.peekNext(); next != nil {
			if next.Kind == TokAssign {
				return Part{}, endOfRule{}
			}
			if next.Kind == TokColon {
				field := p.tok().Text
				p.advance()
				p.advance()
				match, err := p.parsePart()
				if err != nil {
					return Part{}, err
				}
				return Part{Kind: PartKindPatternMatch, FieldName: field, FieldMatch: &match}, nil
			}
		}
		name := p.tok().Text
		p.advance()
		return Part{Kind: PartKindRuleMatch, RuleName: name}, nil
	default:
		return Part{}, newErrorf(p.tok().Line, "expected a part of a production, found %s", p.tok())
	}
}

var closeOf = map[TokenKind]TokenKind{
	TokLParen:   TokRParen,
	TokLBracket: TokRBracket,
	TokLBrace:   TokRBrace,
	TokLAngle:   TokRAngle,
}

func seqTypeOf(open TokenKind) SequenceType {
	switch open {
	case TokLParen:
		return SeqPlain
	case TokLBracket:
		return SeqOptional
	case TokLBrace:
		return SeqRepetition
	case TokLAngle:
		return SeqNonemptyRepetition
	default:
		panic("grammarfe: seqTypeOf given a non-opening-bracket token")
	}
}

func (p *parser) parseSequencePart() (Part, error) {
	seq, err := p.parseSequence()
	if err != nil {
		return Part{}, err
	}
	if p.tok().Kind == TokPercent {
		p.advance()
		param, err := p.parseSequence()
		if err != nil {
			return Part{}, err
		}
		return Part{Kind: PartKindParameterizedSequence, Param: &ParameterizedSequence{Sequence: seq, Parameter: param}}, nil
	}
	return Part{Kind: PartKindSequence, Sequence: &seq}, nil
}

func (p *parser) parseSequence() (Sequence, error) {
	open := p.tok().Kind
	closeKind, ok := closeOf[open]
	if !ok {
		return Sequence{}, newErrorf(p.tok().Line, "expected an opening bracket, found %s", p.tok())
	}
	seqType := seqTypeOf(open)
	p.advance()

	var parts []Part
	var alternates [][]Part

	for p.tok().Kind != closeKind {
		if p.tok().Kind == TokPipe {
			alternates = append(alternates, parts)
			parts = nil
			p.advance()
			continue
		}
		part, err := p.parsePart()
		if err != nil {
			if _, ok := err.(endOfRule); ok {
				break
			}
			return Sequence{}, err
		}
		parts = append(parts, part)
	}
	if p.tok().Kind != closeKind {
		return Sequence{}, newErrorf(p.tok().Line, "unterminated bracketed sequence")
	}
	p.advance()

	if len(alternates) == 0 {
		return Sequence{Type: seqType, Parts: parts}, nil
	}

	alternates = append(alternates, parts)
	altParts := make([]Part, 0, len(alternates))
	for _, altParts2 := range alternates {
		if len(altParts2) == 1 {
			altParts = append(altParts, altParts2[0])
		} else {
			altParts = append(altParts, Part{Kind: PartKindSequence, Sequence: &Sequence{Type: seqType, Parts: altParts2}})
		}
	}
	return Sequence{Type: SeqAlternating, Parts: altParts}, nil
}

func (p *parser) parseTokenMatchers() error {
	for p.hasTokens() && !p.atSectionHeader() {
		m, err := p.parseTokenMatcher()
		if err != nil {
			return err
		}
		if _, exists := p.tokenMatchers[m.Name]; exists {
			return newErrorf(p.tok().Line, "token %q declared more than once", m.Name)
		}
		p.tokenMatchers[m.Name] = m
	}
	return nil
}

func (p *parser) parseTokenMatcher() (TokenMatcher, error) {
	if p.tok().Kind != TokUpperIdent {
		return TokenMatcher{}, newErrorf(p.tok().Line, "expected a token name, found %s", p.tok())
	}
	name := p.tok().Text
	p.advance()

	switch p.tok().Kind {
	case TokEqual:
		p.advance()
		if p.tok().Kind != TokString && p.tok().Kind != TokLowerIdent && p.tok().Kind != TokUpperIdent {
			return TokenMatcher{}, newErrorf(p.tok().Line, "expected a literal after '=' in token %q", name)
		}
		lit := p.tok().Text
		p.advance()
		return TokenMatcher{Kind: MatcherKindLiteral, Name: name, Literal: lit}, nil
	case TokTildeEqual:
		p.advance()
		if p.tok().Kind != TokRegex {
			return TokenMatcher{}, newErrorf(p.tok().Line, "expected a /regex/ after '~=' in token %q", name)
		}
		pattern, err := regexp.Compile(p.tok().Text)
		if err != nil {
			return TokenMatcher{}, newErrorf(p.tok().Line, "invalid regex for token %q: %s", name, err.Error())
		}
		p.advance()
		return TokenMatcher{Kind: MatcherKindRegex, Name: name, Pattern: pattern}, nil
	default:
		return TokenMatcher{}, newErrorf(p.tok().Line, "expected '=' or '~=' after token name %q", name)
	}
}

func (p *parser) parseStart() error {
	for p.hasTokens() && !p.atSectionHeader() {
		if p.tok().Kind != TokLowerIdent {
			return newErrorf(p.tok().Line, "expected a rule name in [start], found %s", p.tok())
		}
		name := p.tok().Text
		if p.startSymbols[name] {
			return newErrorf(p.tok().Line, "rule %q listed more than once in [start]", name)
		}
		p.startSymbols[name] = true
		p.advance()
	}
	return nil
}

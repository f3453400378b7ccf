package grammarfe

import (
	"github.com/dekarrin/derivparse/internal/derive"
)

// TranslateOptions customizes how Translate turns matched parts into
// caller-visible tree payloads.
type TranslateOptions struct {
	// Reduce, if set, is called once per production with the flattened
	// list of trees the production's parts matched (in declaration order)
	// and returns the caller-visible value for that match. If nil, the
	// default reduction is the identity: the flattened []derive.Tree slice
	// itself, wrapped in a derive.Reduced tree.
	Reduce func(ruleName, productionName string, parts []derive.Tree) any
}

// Translate turns a ParsedGrammar into a derive.Term graph: one node per
// rule name, plus the subset of those naming the grammar's start symbols.
//
// Because rules may be mutually or directly recursive, every named rule's
// node is allocated up front via derive.Placeholder before any rule's
// productions are translated, so a RuleMatch referring to a not-yet-built
// rule resolves to the same shared node once translation completes - this
// preserves the identity contract derive.Term requires for cyclic grammars.
func Translate(g ParsedGrammar, opts TranslateOptions) (rules map[string]*derive.Term, start []*derive.Term, err error) {
	rules = make(map[string]*derive.Term, len(g.Rules))
	for name := range g.Rules {
		rules[name] = derive.Placeholder()
	}

	for name, rule := range g.Rules {
		term, err := translateRule(rule, g, rules, opts)
		if err != nil {
			return nil, nil, err
		}
		rules[name].Become(term)
	}

	for name := range g.StartSymbols {
		term, ok := rules[name]
		if !ok {
			return nil, nil, newExhaustedError("start symbol \"" + name + "\" names no declared rule")
		}
		start = append(start, term)
	}

	return rules, start, nil
}

func translateRule(rule Rule, g ParsedGrammar, rules map[string]*derive.Term, opts TranslateOptions) (*derive.Term, error) {
	terms := make([]*derive.Term, 0, len(rule.Productions))
	for _, prod := range rule.Productions {
		term, err := translateProduction(rule.Name, prod, g, rules, opts)
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	return altFold(terms), nil
}

func translateProduction(ruleName string, prod Production, g ParsedGrammar, rules map[string]*derive.Term, opts TranslateOptions) (*derive.Term, error) {
	if prod.Kind == ProductionKindAlias {
		aliased, ok := rules[prod.Alias]
		if !ok {
			return nil, newExhaustedError("production in rule \"" + ruleName + "\" aliases undeclared rule \"" + prod.Alias + "\"")
		}
		return aliased, nil
	}

	partTerms := make([]*derive.Term, 0, len(prod.Parts))
	for _, part := range prod.Parts {
		term, err := translatePart(part, g, rules)
		if err != nil {
			return nil, err
		}
		partTerms = append(partTerms, term)
	}

	flat := foldPartsFlatten(partTerms)
	if opts.Reduce == nil {
		return flat
	}
	return derive.Red(flat, func(t derive.Tree) any {
		parts := t.Payload().([]derive.Tree)
		return opts.Reduce(ruleName, prod.Name, parts)
	})
}

func translatePart(part Part, g ParsedGrammar, rules map[string]*derive.Term) (*derive.Term, error) {
	switch part.Kind {
	case PartKindLiteral:
		return derive.Tok(derive.NewValue(part.LiteralText)), nil

	case PartKindDeclaredToken:
		if _, ok := g.TokenMatchers[part.TokenName]; !ok {
			return nil, newExhaustedError("reference to undeclared token \"" + part.TokenName + "\"")
		}
		return derive.Tok(derive.NewValue(part.TokenName)), nil

	case PartKindRuleMatch:
		term, ok := rules[part.RuleName]
		if !ok {
			return nil, newExhaustedError("reference to undeclared rule \"" + part.RuleName + "\"")
		}
		return term, nil

	case PartKindPatternMatch:
		return translatePart(*part.FieldMatch, g, rules)

	case PartKindSequence:
		return translateSequence(*part.Sequence, g, rules)

	case PartKindParameterizedSequence:
		return translateParameterizedSequence(*part.Param, g, rules)

	default:
		panic("grammarfe: translatePart given an unrecognized Part kind")
	}
}

func translateSequence(seq Sequence, g ParsedGrammar, rules map[string]*derive.Term) (*derive.Term, error) {
	switch seq.Type {
	case SeqAlternating:
		terms := make([]*derive.Term, 0, len(seq.Parts))
		for _, alt := range seq.Parts {
			term, err := translatePart(alt, g, rules)
			if err != nil {
				return nil, err
			}
			terms = append(terms, term)
		}
		return altFold(terms), nil

	case SeqOptional:
		inner, err := translatePlainParts(seq.Parts, g, rules)
		if err != nil {
			return nil, err
		}
		return derive.Alt(inner, derive.Eps(derive.EmptyTree())), nil

	case SeqRepetition:
		inner, err := translatePlainParts(seq.Parts, g, rules)
		if err != nil {
			return nil, err
		}
		return derive.Rep(inner), nil

	case SeqNonemptyRepetition:
		inner, err := translatePlainParts(seq.Parts, g, rules)
		if err != nil {
			return nil, err
		}
		return derive.Seq(inner, derive.Rep(inner)), nil

	case SeqPlain:
		return translatePlainParts(seq.Parts, g, rules)

	default:
		panic("grammarfe: translateSequence given an unrecognized SequenceType")
	}
}

// translateParameterizedSequence builds the common "zero-or-more, separated
// by" shape: empty, or one match of seq followed by zero or more
// (param, seq) pairs.
func translateParameterizedSequence(pseq ParameterizedSequence, g ParsedGrammar, rules map[string]*derive.Term) (*derive.Term, error) {
	body, err := translateSequence(pseq.Sequence, g, rules)
	if err != nil {
		return nil, err
	}
	sep, err := translateSequence(pseq.Parameter, g, rules)
	if err != nil {
		return nil, err
	}
	rest := derive.Rep(derive.Seq(sep, body))
	nonEmpty := derive.Seq(body, rest)
	return derive.Alt(nonEmpty, derive.Eps(derive.EmptyTree())), nil
}

func translatePlainParts(parts []Part, g ParsedGrammar, rules map[string]*derive.Term) (*derive.Term, error) {
	terms := make([]*derive.Term, 0, len(parts))
	for _, part := range parts {
		term, err := translatePart(part, g, rules)
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	return seqFold(terms), nil
}

// altFold folds terms into a single Alt chain. It panics if terms is empty;
// every caller only reaches it with at least one production or alternative,
// which the parser already guarantees.
func altFold(terms []*derive.Term) *derive.Term {
	acc := terms[0]
	for _, t := range terms[1:] {
		acc = derive.Alt(acc, t)
	}
	return acc
}

// seqFold folds terms into a single Seq chain, without tracking individual
// tree boundaries. Used where the caller doesn't need to recover the
// original parts (e.g. inside Rep/Optional bodies); foldPartsFlatten is used
// instead wherever the flat part list needs to survive into the tree.
func seqFold(terms []*derive.Term) *derive.Term {
	if len(terms) == 0 {
		return derive.Eps(derive.EmptyTree())
	}
	acc := terms[0]
	for _, t := range terms[1:] {
		acc = derive.Seq(acc, t)
	}
	return acc
}

// foldPartsFlatten folds terms into a single term whose ParseNull result is
// a single Reduced([]derive.Tree) tree listing, in order, the tree each
// input term produced. Building this via an incremental Red-wrapped
// accumulator (rather than trying to recover part boundaries by inspecting
// an anonymous nested Seq/Branch chain after the fact) keeps recovering the
// original part list unambiguous regardless of what each term's own tree
// shape looks like.
func foldPartsFlatten(terms []*derive.Term) *derive.Term {
	if len(terms) == 0 {
		return derive.Red(derive.Eps(derive.EmptyTree()), func(derive.Tree) any {
			return []derive.Tree{}
		})
	}

	acc := derive.Red(terms[0], func(t derive.Tree) any {
		return []derive.Tree{t}
	})

	for _, next := range terms[1:] {
		prev := acc
		acc = derive.Red(derive.Seq(prev, next), func(branch derive.Tree) any {
			left := branch.Left().Payload().([]derive.Tree)
			out := make([]derive.Tree, len(left)+1)
			copy(out, left)
			out[len(left)] = branch.Right()
			return out
		})
	}

	return acc
}

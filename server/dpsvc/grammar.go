package dpsvc

import (
	"context"
	"errors"
	"strings"

	"github.com/dekarrin/derivparse/internal/derive"
	"github.com/dekarrin/derivparse/internal/grammarfe"
	"github.com/dekarrin/derivparse/server/dao"
	"github.com/dekarrin/derivparse/server/serr"
	"github.com/google/uuid"
)

// CreateGrammar parses and stores a new grammar definition owned by ownerID.
// The source text is validated by compiling it before it is persisted; a
// grammar that fails to compile is never stored.
//
// The returned error, if non-nil, will match serr.ErrBadArgument if source
// does not describe a valid grammar, or serr.ErrDB if persistence failed.
func (svc Service) CreateGrammar(ctx context.Context, ownerID uuid.UUID, name, source string) (dao.Grammar, error) {
	if name == "" {
		return dao.Grammar{}, serr.New("name cannot be blank", serr.ErrBadArgument)
	}

	if _, _, _, err := compileGrammar(source); err != nil {
		return dao.Grammar{}, serr.New("grammar is not valid: "+err.Error(), err, serr.ErrBadArgument)
	}

	newGrammar := dao.Grammar{
		OwnerID: ownerID,
		Name:    name,
		Source:  source,
	}

	g, err := svc.DB.Grammars().Create(ctx, newGrammar)
	if err != nil {
		return dao.Grammar{}, serr.WrapDB("could not create grammar", err)
	}

	return g, nil
}

// GetGrammar returns the grammar with the given ID.
func (svc Service) GetGrammar(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	g, err := svc.DB.Grammars().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Grammar{}, serr.ErrNotFound
		}
		return dao.Grammar{}, serr.WrapDB("could not get grammar", err)
	}
	return g, nil
}

// GetAllGrammars returns all grammars owned by the given user, or all
// grammars in the system if ownerID is the zero UUID.
func (svc Service) GetAllGrammars(ctx context.Context, ownerID uuid.UUID) ([]dao.Grammar, error) {
	if ownerID == uuid.Nil {
		all, err := svc.DB.Grammars().GetAll(ctx)
		if err != nil {
			return nil, serr.WrapDB("could not get grammars", err)
		}
		return all, nil
	}

	all, err := svc.DB.Grammars().GetAllByUser(ctx, ownerID)
	if err != nil {
		return nil, serr.WrapDB("could not get grammars", err)
	}
	return all, nil
}

// DeleteGrammar deletes the grammar with the given ID and returns it as it
// existed just before deletion.
func (svc Service) DeleteGrammar(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	g, err := svc.DB.Grammars().Delete(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Grammar{}, serr.ErrNotFound
		}
		return dao.Grammar{}, serr.WrapDB("could not delete grammar", err)
	}
	return g, nil
}

// ParseInput tokenizes input on whitespace and parses it against the named
// start symbol of the grammar with the given ID, recording the result as a
// new ParseRun owned by ownerID. If startSymbol is "", the grammar's own
// start declaration is used.
//
// The returned error will match serr.ErrNotFound if no such grammar exists,
// and serr.ErrBadArgument if the grammar fails to compile or startSymbol does
// not name one of its rules.
func (svc Service) ParseInput(ctx context.Context, ownerID, grammarID uuid.UUID, input, startSymbol string) (dao.ParseRun, error) {
	g, err := svc.DB.Grammars().GetByID(ctx, grammarID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.ParseRun{}, serr.ErrNotFound
		}
		return dao.ParseRun{}, serr.WrapDB("could not get grammar", err)
	}

	parsed, rules, start, err := compileGrammar(g.Source)
	if err != nil {
		return dao.ParseRun{}, serr.New("grammar is not valid: "+err.Error(), err, serr.ErrBadArgument)
	}

	startTerms := start
	if startSymbol != "" {
		ruleStart, ok := rules[startSymbol]
		if !ok {
			return dao.ParseRun{}, serr.New("no such start symbol: "+startSymbol, serr.ErrBadArgument)
		}
		startTerms = []*derive.Term{ruleStart}
	}

	values := lexTokens(strings.Fields(input), parsed.TokenMatchers)

	var treeStrs []string
	for _, s := range startTerms {
		for _, tree := range derive.ParseCompact(values, s) {
			treeStrs = append(treeStrs, tree.String())
		}
	}

	newRun := dao.ParseRun{
		GrammarID: grammarID,
		OwnerID:   ownerID,
		Input:     input,
		Trees:     treeStrs,
	}

	run, err := svc.DB.ParseRuns().Create(ctx, newRun)
	if err != nil {
		return dao.ParseRun{}, serr.WrapDB("could not record parse run", err)
	}

	return run, nil
}

// GetParseRun returns the parse run with the given ID.
func (svc Service) GetParseRun(ctx context.Context, id uuid.UUID) (dao.ParseRun, error) {
	r, err := svc.DB.ParseRuns().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.ParseRun{}, serr.ErrNotFound
		}
		return dao.ParseRun{}, serr.WrapDB("could not get parse run", err)
	}
	return r, nil
}

// GetAllParseRunsForGrammar returns all parse runs recorded against the
// given grammar.
func (svc Service) GetAllParseRunsForGrammar(ctx context.Context, grammarID uuid.UUID) ([]dao.ParseRun, error) {
	all, err := svc.DB.ParseRuns().GetAllByGrammar(ctx, grammarID)
	if err != nil {
		return nil, serr.WrapDB("could not get parse runs", err)
	}
	return all, nil
}

func compileGrammar(source string) (parsed grammarfe.ParsedGrammar, rules map[string]*derive.Term, start []*derive.Term, err error) {
	parsed, err = grammarfe.Parse(source)
	if err != nil {
		return grammarfe.ParsedGrammar{}, nil, nil, err
	}
	rules, start, err = grammarfe.Translate(parsed, grammarfe.TranslateOptions{})
	if err != nil {
		return grammarfe.ParsedGrammar{}, nil, nil, err
	}
	return parsed, rules, start, nil
}

// lexTokens converts whitespace-split raw text into the Values a translated
// grammar's Tok nodes expect: a token is recognized by name if it matches one
// of matchers (literal equality or a full regex match), and falls back to
// its own raw text otherwise, which lets inline literal parts (e.g. 'a' used
// directly in a rule, with no corresponding [tokens] entry) match as-is.
func lexTokens(raw []string, matchers map[string]grammarfe.TokenMatcher) []derive.Value {
	values := make([]derive.Value, len(raw))
	for i, text := range raw {
		values[i] = derive.NewValue(lexOne(text, matchers))
	}
	return values
}

func lexOne(text string, matchers map[string]grammarfe.TokenMatcher) string {
	for name, m := range matchers {
		switch m.Kind {
		case grammarfe.MatcherKindLiteral:
			if m.Literal == text {
				return name
			}
		case grammarfe.MatcherKindRegex:
			if m.Pattern != nil && m.Pattern.MatchString(text) && m.Pattern.FindString(text) == text {
				return name
			}
		}
	}
	return text
}

package search

import (
	"fmt"
	"strings"

	domcat "github.com/kailas-cloud/catalogdex/internal/domain/catalog"
	"github.com/kailas-cloud/catalogdex/internal/domain/dataset"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/aggregation"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/filter"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/request"
)

// buildExpression combines text, structural and negative clauses:
// text AND structural AND NOT negative.
func buildExpression(meta domcat.Metadata, req *request.Request, scope domcat.Path) (filter.Expression, error) {
	text, err := buildTextClauses(meta.TextFields(), req)
	if err != nil {
		return filter.Expression{}, err
	}
	must, err := buildStructuralFilters(meta.FilterFields(), req, scope)
	if err != nil {
		return filter.Expression{}, err
	}
	mustNot, err := buildNegativeFilters(req)
	if err != nil {
		return filter.Expression{}, err
	}
	return filter.NewExpression(text, must, mustNot)
}

// buildTextClauses emits one phrase-prefix clause for Term, then one for Scope.
// Blank parameters contribute nothing.
func buildTextClauses(textFields []string, req *request.Request) ([]filter.Text, error) {
	if len(textFields) == 0 {
		return nil, nil
	}

	var clauses []filter.Text
	for _, phrase := range []string{req.Term(), req.Scope()} {
		if strings.TrimSpace(phrase) == "" {
			continue
		}
		t, err := filter.NewText(textFields, phrase)
		if err != nil {
			return nil, fmt.Errorf("text clause: %w", err)
		}
		clauses = append(clauses, t)
	}
	return clauses, nil
}

// buildStructuralFilters always scopes to the catalog path, then adds one
// condition per filterable field selected in the request.
func buildStructuralFilters(filterFields []string, req *request.Request, scope domcat.Path) ([]filter.Condition, error) {
	sc, err := filter.NewScope(dataset.FieldCatalogPath, scope.String())
	if err != nil {
		return nil, fmt.Errorf("scope filter: %w", err)
	}
	conds := []filter.Condition{sc}

	for _, name := range filterFields {
		sel, ok := req.Facet(name)
		if !ok {
			continue
		}
		var c filter.Condition
		if sel.IsMulti() {
			c, err = filter.NewAll(name, nonEmpty(sel.Values()))
		} else {
			c, err = filter.NewMatch(name, sel.Values()[0])
		}
		if err != nil {
			return nil, fmt.Errorf("facet %s: %w", name, err)
		}
		conds = append(conds, c)
	}
	return conds, nil
}

func buildNegativeFilters(req *request.Request) ([]filter.Condition, error) {
	if req.ExcludeID() == "" {
		return nil, nil
	}
	c, err := filter.NewMatch(dataset.FieldID, req.ExcludeID())
	if err != nil {
		return nil, fmt.Errorf("exclude filter: %w", err)
	}
	return []filter.Condition{c}, nil
}

// buildAggregations requests one terms aggregation per filterable field, named as the field.
func buildAggregations(filterFields []string, limit int) (aggregation.Request, error) {
	return aggregation.NewRequest(filterFields, limit)
}

func nonEmpty(vs []string) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

package filter

import (
	"fmt"
	"strings"
)

// MaxConditionsPerGroup is the maximum number of conditions per clause group.
const MaxConditionsPerGroup = 32

// Expression is the composite query sent to the index:
// every text clause AND every must condition AND none of the must-not conditions.
// Text clauses affect ranking; conditions only affect membership.
type Expression struct {
	text    []Text
	must    []Condition
	mustNot []Condition
}

// NewExpression validates and creates an Expression.
func NewExpression(text []Text, must, mustNot []Condition) (Expression, error) {
	if len(text) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many text clauses (max %d)", MaxConditionsPerGroup)
	}
	if len(must) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must conditions (max %d)", MaxConditionsPerGroup)
	}
	if len(mustNot) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must_not conditions (max %d)", MaxConditionsPerGroup)
	}
	return Expression{text: text, must: must, mustNot: mustNot}, nil
}

// Text returns the full-text clauses.
func (e Expression) Text() []Text { return e.text }

// Must returns the structural filters.
func (e Expression) Must() []Condition { return e.must }

// MustNot returns the negative filters.
func (e Expression) MustNot() []Condition { return e.mustNot }

// IsEmpty reports whether the expression has no clauses.
func (e Expression) IsEmpty() bool {
	return len(e.text) == 0 && len(e.must) == 0 && len(e.mustNot) == 0
}

// Text is a phrase-prefix match of one phrase across several fields.
// Terms must appear in order; the last term may match as a prefix.
type Text struct {
	fields []string
	terms  []string
}

// NewText splits phrase into terms and creates a text clause.
func NewText(fields []string, phrase string) (Text, error) {
	if len(fields) == 0 {
		return Text{}, fmt.Errorf("text clause needs at least one field")
	}
	terms := strings.Fields(phrase)
	if len(terms) == 0 {
		return Text{}, fmt.Errorf("text clause needs a non-blank phrase")
	}
	return Text{fields: fields, terms: terms}, nil
}

// Fields returns the searched fields.
func (t Text) Fields() []string { return t.fields }

// Terms returns the phrase terms in order.
func (t Text) Terms() []string { return t.terms }

type conditionKind int

const (
	kindMatch conditionKind = iota + 1
	kindAll
	kindScope
)

// Condition is a single exact-value filter clause.
type Condition struct {
	key    string
	kind   conditionKind
	values []string
}

// NewMatch creates an exact term condition.
func NewMatch(key, value string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if value == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, kind: kindMatch, values: []string{value}}, nil
}

// NewAll creates a condition requiring every value to be present on the field.
func NewAll(key string, values []string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if len(values) == 0 {
		return Condition{}, fmt.Errorf("at least one value is required for key %q", key)
	}
	for _, v := range values {
		if v == "" {
			return Condition{}, fmt.Errorf("empty value for key %q", key)
		}
	}
	return Condition{key: key, kind: kindAll, values: values}, nil
}

// NewScope creates a hierarchical condition: the field equals path or starts with path + ".".
func NewScope(key, path string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if path == "" {
		return Condition{}, fmt.Errorf("scope path is required for key %q", key)
	}
	return Condition{key: key, kind: kindScope, values: []string{path}}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Values returns the condition values. Match and Scope carry exactly one.
func (c Condition) Values() []string { return c.values }

// IsMatch reports whether this is a single exact term condition.
func (c Condition) IsMatch() bool { return c.kind == kindMatch }

// IsAll reports whether this is an all-of condition.
func (c Condition) IsAll() bool { return c.kind == kindAll }

// IsScope reports whether this is a hierarchical scope condition.
func (c Condition) IsScope() bool { return c.kind == kindScope }

package filter

import (
	"slices"
	"strings"
	"testing"
)

func TestNewText(t *testing.T) {
	tx, err := NewText([]string{"title", "description"}, "  world   bank ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(tx.Terms(), []string{"world", "bank"}) {
		t.Errorf("Terms() = %v", tx.Terms())
	}
	if !slices.Equal(tx.Fields(), []string{"title", "description"}) {
		t.Errorf("Fields() = %v", tx.Fields())
	}
}

func TestNewText_Errors(t *testing.T) {
	if _, err := NewText(nil, "x"); err == nil {
		t.Error("expected error for no fields")
	}
	if _, err := NewText([]string{"title"}, "   "); err == nil {
		t.Error("expected error for blank phrase")
	}
}

func TestConditions(t *testing.T) {
	m, err := NewMatch("license", "mit")
	if err != nil || !m.IsMatch() || m.Key() != "license" {
		t.Fatalf("NewMatch = %+v, %v", m, err)
	}
	a, err := NewAll("tags", []string{"finance", "e-commerce"})
	if err != nil || !a.IsAll() || len(a.Values()) != 2 {
		t.Fatalf("NewAll = %+v, %v", a, err)
	}
	s, err := NewScope("catalog_path", "0.1")
	if err != nil || !s.IsScope() || s.Values()[0] != "0.1" {
		t.Fatalf("NewScope = %+v, %v", s, err)
	}
	if m.IsAll() || a.IsScope() || s.IsMatch() {
		t.Error("condition kinds must be exclusive")
	}
}

func TestConditions_Errors(t *testing.T) {
	tests := []struct {
		name string
		fn   func() error
	}{
		{"match no key", func() error { _, err := NewMatch("", "v"); return err }},
		{"match no value", func() error { _, err := NewMatch("k", ""); return err }},
		{"all no key", func() error { _, err := NewAll("", []string{"v"}); return err }},
		{"all no values", func() error { _, err := NewAll("k", nil); return err }},
		{"all empty value", func() error { _, err := NewAll("k", []string{"a", ""}); return err }},
		{"scope no path", func() error { _, err := NewScope("k", ""); return err }},
	}
	for _, tc := range tests {
		if tc.fn() == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestNewExpression_TooMany(t *testing.T) {
	conds := make([]Condition, MaxConditionsPerGroup+1)
	_, err := NewExpression(nil, conds, nil)
	if err == nil || !strings.Contains(err.Error(), "too many must") {
		t.Errorf("expected too many must error, got %v", err)
	}
	_, err = NewExpression(nil, nil, conds)
	if err == nil || !strings.Contains(err.Error(), "too many must_not") {
		t.Errorf("expected too many must_not error, got %v", err)
	}
}

func TestExpression_IsEmpty(t *testing.T) {
	e, _ := NewExpression(nil, nil, nil)
	if !e.IsEmpty() {
		t.Error("expected empty expression")
	}
	m, _ := NewMatch("k", "v")
	e, _ = NewExpression(nil, nil, []Condition{m})
	if e.IsEmpty() {
		t.Error("expression with must_not is not empty")
	}
}

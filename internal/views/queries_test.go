package views

import (
	"strings"
	"testing"
)

func TestPredicateBuilderEqSkipsEmptyValues(t *testing.T) {
	b := &predicateBuilder{}
	b.eq("status", "")
	b.eq("slug", "active-slug")

	if len(b.conditions) != 1 {
		t.Fatalf("expected 1 condition, got %d", len(b.conditions))
	}
	if len(b.args) != 1 || b.args[0] != "active-slug" {
		t.Errorf("expected args [active-slug], got %v", b.args)
	}
	if b.conditions[0] != "slug = $1" {
		t.Errorf("expected condition slug = $1, got %s", b.conditions[0])
	}
}

func TestPredicateBuilderBuildWithoutConditions(t *testing.T) {
	b := &predicateBuilder{}
	query, args := b.build("SELECT *", "FROM products", "updated_at DESC", Filter{})

	if strings.Contains(query, "WHERE") {
		t.Errorf("expected no WHERE clause, got %s", query)
	}
	if !strings.Contains(query, "OFFSET $1") {
		t.Errorf("expected an offset placeholder even with no limit, got %s", query)
	}
	if len(args) != 1 || args[0] != 0 {
		t.Errorf("expected args [0] for a zero-value filter offset, got %v", args)
	}
}

func TestPredicateBuilderBuildWithConditionsAndPagination(t *testing.T) {
	b := &predicateBuilder{}
	b.eq("status", "active")
	b.eq("slug", "summer-sale")
	query, args := b.build("SELECT *", "FROM collections", "name ASC", Filter{Limit: 20, Offset: 40})

	if !strings.Contains(query, "WHERE status = $1 AND slug = $2") {
		t.Errorf("expected both conditions joined with AND, got %s", query)
	}
	if !strings.Contains(query, "LIMIT $3") || !strings.Contains(query, "OFFSET $4") {
		t.Errorf("expected limit and offset placeholders after the conditions, got %s", query)
	}
	if len(args) != 4 {
		t.Fatalf("expected 4 positional args, got %d", len(args))
	}
	if args[0] != "active" || args[1] != "summer-sale" || args[2] != 20 || args[3] != 40 {
		t.Errorf("unexpected arg ordering: %v", args)
	}
}

func TestPredicateBuilderOmitsLimitWhenUnset(t *testing.T) {
	b := &predicateBuilder{}
	query, args := b.build("SELECT *", "FROM variants", "sku ASC", Filter{Offset: 10})

	if strings.Contains(query, "LIMIT") {
		t.Errorf("expected no LIMIT clause for an offset-only filter, got %s", query)
	}
	if len(args) != 1 || args[0] != 10 {
		t.Errorf("expected args [10], got %v", args)
	}
}

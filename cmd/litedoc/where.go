package main

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/aretw0/litedoc/pkg/query"
)

// operators in match order: two-character operators first.
var operators = []string{">=", "<=", "!=", "~=", "=", ">", "<"}

// parseWhere turns expressions like "Age>=30", "Name~=A%" or "_id=42"
// into a predicate. Several expressions are combined with AND.
func parseWhere(exprs []string) (query.Predicate, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	preds := make([]query.Predicate, 0, len(exprs))
	for _, expr := range exprs {
		p, err := parseExpr(expr)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	if len(preds) == 1 {
		return preds[0], nil
	}
	return query.All(preds...), nil
}

func parseExpr(expr string) (query.Predicate, error) {
	for _, op := range operators {
		field, raw, ok := strings.Cut(expr, op)
		if !ok {
			continue
		}
		field = strings.TrimSpace(field)
		if field == "" {
			return nil, fmt.Errorf("invalid expression %q: missing field", expr)
		}
		value := parseValue(strings.TrimSpace(raw))

		switch op {
		case "=":
			return query.Eq(field, value), nil
		case "!=":
			return query.Ne(field, value), nil
		case ">":
			return query.Gt(field, value), nil
		case ">=":
			return query.Gte(field, value), nil
		case "<":
			return query.Lt(field, value), nil
		case "<=":
			return query.Lte(field, value), nil
		case "~=":
			return query.Matches(field, fmt.Sprint(value)), nil
		}
	}
	return nil, fmt.Errorf("invalid expression %q: expected field<op>value", expr)
}

// parseValue reads raw as JSON (numbers, booleans, null, quoted strings) and
// falls back to the raw text.
func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	switch v.(type) {
	case map[string]any, []any:
		return raw
	}
	return v
}

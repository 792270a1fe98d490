package sqlite

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/goccy/go-json"

	"github.com/aretw0/litedoc/pkg/core"
	"github.com/aretw0/litedoc/pkg/query"
)

var segmentRe = regexp.MustCompile(`^[A-Za-z0-9_$\-]+$`)

// jsonPath converts a dotted field name ("Address.City") into a SQLite JSON
// path with every segment quoted ($."Address"."City").
func jsonPath(field string) (string, error) {
	field = strings.TrimPrefix(strings.TrimPrefix(field, "$"), ".")
	if field == "" {
		return "", fmt.Errorf("%w: empty field", core.ErrInvalidPath)
	}

	var b strings.Builder
	b.WriteString("$")
	for _, seg := range strings.Split(field, ".") {
		if !segmentRe.MatchString(seg) {
			return "", fmt.Errorf("%w: %q", core.ErrInvalidPath, field)
		}
		b.WriteString(`."`)
		b.WriteString(seg)
		b.WriteString(`"`)
	}
	return b.String(), nil
}

// fieldExpr returns the SQL expression extracting field from the doc column.
// Paths are validated, so inlining them is safe; they must be inlined for
// expression indexes to match.
func fieldExpr(field string) (string, error) {
	path, err := jsonPath(field)
	if err != nil {
		return "", err
	}
	return "json_extract(doc, '" + path + "')", nil
}

// compileWhere renders the conjunction of preds. No predicates match everything.
func compileWhere(preds []query.Predicate) (string, []any, error) {
	if len(preds) == 0 {
		return "1 = 1", nil, nil
	}
	if len(preds) == 1 {
		return compile(preds[0])
	}
	return compile(query.And{Predicates: preds})
}

func compile(p query.Predicate) (string, []any, error) {
	switch t := p.(type) {
	case query.Compare:
		return compileCompare(t)
	case query.In:
		return compileIn(t)
	case query.Like:
		expr, err := fieldExpr(t.Field)
		if err != nil {
			return "", nil, err
		}
		return expr + " LIKE ?", []any{t.Pattern}, nil
	case query.Contains:
		path, err := jsonPath(t.Field)
		if err != nil {
			return "", nil, err
		}
		v, err := sqlValue(t.Value)
		if err != nil {
			return "", nil, err
		}
		return "EXISTS (SELECT 1 FROM json_each(doc, '" + path + "') WHERE json_each.value = ?)", []any{v}, nil
	case query.IsNull:
		expr, err := fieldExpr(t.Field)
		if err != nil {
			return "", nil, err
		}
		return expr + " IS NULL", nil, nil
	case query.And:
		return compileGroup(t.Predicates, " AND ", "1 = 1")
	case query.Or:
		return compileGroup(t.Predicates, " OR ", "1 = 0")
	case query.Not:
		if t.Predicate == nil {
			return "1 = 0", nil, nil
		}
		sql, args, err := compile(t.Predicate)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + sql + ")", args, nil
	case nil:
		return "1 = 1", nil, nil
	default:
		return "", nil, fmt.Errorf("%w: %T", core.ErrUnsupportedPredicate, p)
	}
}

func compileGroup(preds []query.Predicate, sep, empty string) (string, []any, error) {
	if len(preds) == 0 {
		return empty, nil, nil
	}
	parts := make([]string, 0, len(preds))
	var args []any
	for _, p := range preds {
		sql, a, err := compile(p)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+sql+")")
		args = append(args, a...)
	}
	return strings.Join(parts, sep), args, nil
}

func compileCompare(c query.Compare) (string, []any, error) {
	switch c.Op {
	case query.OpEq, query.OpNe, query.OpGt, query.OpGte, query.OpLt, query.OpLte:
	default:
		return "", nil, fmt.Errorf("%w: operator %q", core.ErrUnsupportedPredicate, c.Op)
	}

	if c.Field == core.IDKey && (c.Op == query.OpEq || c.Op == query.OpNe) {
		key, err := idKey(c.Value)
		if err != nil {
			if c.Op == query.OpEq {
				return "1 = 0", nil, nil
			}
			return "1 = 1", nil, nil
		}
		if c.Op == query.OpEq {
			return "id = ?", []any{key}, nil
		}
		return "id != ?", []any{key}, nil
	}

	expr, err := fieldExpr(c.Field)
	if err != nil {
		return "", nil, err
	}
	v, err := sqlValue(c.Value)
	if err != nil {
		return "", nil, err
	}

	if v == nil {
		switch c.Op {
		case query.OpEq:
			return expr + " IS NULL", nil, nil
		case query.OpNe:
			return expr + " IS NOT NULL", nil, nil
		default:
			return "1 = 0", nil, nil
		}
	}
	if c.Op == query.OpNe {
		return expr + " IS NOT ?", []any{v}, nil
	}
	return expr + " " + string(c.Op) + " ?", []any{v}, nil
}

func compileIn(p query.In) (string, []any, error) {
	if len(p.Values) == 0 {
		return "1 = 0", nil, nil
	}

	placeholders := make([]string, 0, len(p.Values))
	args := make([]any, 0, len(p.Values))

	if p.Field == core.IDKey {
		for _, v := range p.Values {
			key, err := idKey(v)
			if err != nil {
				continue
			}
			placeholders = append(placeholders, "?")
			args = append(args, key)
		}
		if len(args) == 0 {
			return "1 = 0", nil, nil
		}
		return "id IN (" + strings.Join(placeholders, ", ") + ")", args, nil
	}

	expr, err := fieldExpr(p.Field)
	if err != nil {
		return "", nil, err
	}
	for _, v := range p.Values {
		sv, err := sqlValue(v)
		if err != nil {
			return "", nil, err
		}
		placeholders = append(placeholders, "?")
		args = append(args, sv)
	}
	return expr + " IN (" + strings.Join(placeholders, ", ") + ")", args, nil
}

// sqlValue converts a Go value to the scalar json_extract would produce for
// its stored form: strings, numbers, 1/0 for booleans, or nil.
func sqlValue(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case string, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return t, nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		return t.Float64()
	}

	// Values with a custom JSON form (uuid.UUID, time.Time, named types)
	// are compared by that form.
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %T: %v", core.ErrUnsupportedPredicate, v, err)
	}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %T: %v", core.ErrUnsupportedPredicate, v, err)
	}
	switch out.(type) {
	case nil, bool, string, json.Number:
		return sqlValue(out)
	}
	return nil, fmt.Errorf("%w: %T is not a scalar", core.ErrUnsupportedPredicate, v)
}

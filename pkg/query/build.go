package query

// Eq matches field == value.
func Eq(field string, value any) Predicate { return Compare{Field: field, Op: OpEq, Value: value} }

// Ne matches field != value.
func Ne(field string, value any) Predicate { return Compare{Field: field, Op: OpNe, Value: value} }

// Gt matches field > value.
func Gt(field string, value any) Predicate { return Compare{Field: field, Op: OpGt, Value: value} }

// Gte matches field >= value.
func Gte(field string, value any) Predicate { return Compare{Field: field, Op: OpGte, Value: value} }

// Lt matches field < value.
func Lt(field string, value any) Predicate { return Compare{Field: field, Op: OpLt, Value: value} }

// Lte matches field <= value.
func Lte(field string, value any) Predicate { return Compare{Field: field, Op: OpLte, Value: value} }

// AnyOf matches field equal to one of values.
func AnyOf(field string, values ...any) Predicate { return In{Field: field, Values: values} }

// Matches applies a LIKE pattern to a string field.
func Matches(field, pattern string) Predicate { return Like{Field: field, Pattern: pattern} }

// Has matches array fields containing value.
func Has(field string, value any) Predicate { return Contains{Field: field, Value: value} }

// Null matches missing or null fields.
func Null(field string) Predicate { return IsNull{Field: field} }

// All combines predicates with AND. Nil entries are dropped.
func All(preds ...Predicate) Predicate { return And{Predicates: compact(preds)} }

// Any combines predicates with OR. Nil entries are dropped.
func Any(preds ...Predicate) Predicate { return Or{Predicates: compact(preds)} }

// Negate wraps a predicate in NOT.
func Negate(p Predicate) Predicate { return Not{Predicate: p} }

// ByID matches the document identity.
func ByID(id any) Predicate { return Eq("_id", id) }

func compact(preds []Predicate) []Predicate {
	out := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// Rename returns p with every field name passed through fn. Predicates
// are values, so p itself is left unchanged.
func Rename(p Predicate, fn func(string) string) Predicate {
	switch t := p.(type) {
	case Compare:
		t.Field = fn(t.Field)
		return t
	case In:
		t.Field = fn(t.Field)
		return t
	case Like:
		t.Field = fn(t.Field)
		return t
	case Contains:
		t.Field = fn(t.Field)
		return t
	case IsNull:
		t.Field = fn(t.Field)
		return t
	case And:
		return And{Predicates: renameAll(t.Predicates, fn)}
	case Or:
		return Or{Predicates: renameAll(t.Predicates, fn)}
	case Not:
		if t.Predicate == nil {
			return t
		}
		return Not{Predicate: Rename(t.Predicate, fn)}
	}
	return p
}

func renameAll(preds []Predicate, fn func(string) string) []Predicate {
	out := make([]Predicate, len(preds))
	for i, p := range preds {
		out[i] = Rename(p, fn)
	}
	return out
}

package query

import "fmt"

// Predicate is a filter condition evaluated by the storage engine.
type Predicate interface {
	predicateNode()
	fmt.Stringer
}

// Op is a binary comparison operator.
type Op string

const (
	OpEq  Op = "="
	OpNe  Op = "!="
	OpGt  Op = ">"
	OpGte Op = ">="
	OpLt  Op = "<"
	OpLte Op = "<="
)

// Compare matches documents whose field compares to Value with Op.
type Compare struct {
	Field string
	Op    Op
	Value any
}

func (Compare) predicateNode() {}

func (c Compare) String() string {
	return fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value)
}

// In matches documents whose field equals any of Values.
type In struct {
	Field  string
	Values []any
}

func (In) predicateNode() {}

func (p In) String() string {
	return fmt.Sprintf("%s IN %v", p.Field, p.Values)
}

// Like matches string fields against a SQL LIKE pattern (% and _ wildcards).
type Like struct {
	Field   string
	Pattern string
}

func (Like) predicateNode() {}

func (p Like) String() string {
	return fmt.Sprintf("%s LIKE %q", p.Field, p.Pattern)
}

// Contains matches array fields holding Value as one of their elements.
type Contains struct {
	Field string
	Value any
}

func (Contains) predicateNode() {}

func (p Contains) String() string {
	return fmt.Sprintf("%s CONTAINS %v", p.Field, p.Value)
}

// IsNull matches documents where the field is null or missing.
type IsNull struct {
	Field string
}

func (IsNull) predicateNode() {}

func (p IsNull) String() string {
	return p.Field + " IS NULL"
}

// And matches when every predicate matches. An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

func (p And) String() string {
	return join("AND", p.Predicates)
}

// Or matches when any predicate matches. An empty Or is always false.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

func (p Or) String() string {
	return join("OR", p.Predicates)
}

// Not negates a predicate.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

func (p Not) String() string {
	return fmt.Sprintf("NOT (%v)", p.Predicate)
}

func join(op string, preds []Predicate) string {
	s := "("
	for i, p := range preds {
		if i > 0 {
			s += " " + op + " "
		}
		s += fmt.Sprint(p)
	}
	return s + ")"
}

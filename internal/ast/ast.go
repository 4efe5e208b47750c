// Package ast defines the statement/term tree produced by the Parser
// and consumed by the Encoder: identifiers, holes, references,
// literals, and lists.
package ast

// Term is an argument to a statement: an Identifier, Hole, Reference,
// Literal, or List.
type Term interface {
	termNode()
}

// Identifier is a plain name resolved through the Vocabulary.
type Identifier struct {
	Name string
}

func (Identifier) termNode() {}

// Hole is a query placeholder ?h.
type Hole struct {
	Name string
}

func (Hole) termNode() {}

// Reference is $a, resolved against the current learn batch's Scope.
type Reference struct {
	Alias string
}

func (Reference) termNode() {}

// Literal is a number or string constant; Value holds its canonical
// string form (the form that gets stamped).
type Literal struct {
	Value string
}

func (Literal) termNode() {}

// List is [a, b, c]; an empty list has no Items.
type List struct {
	Items []Term
}

func (List) termNode() {}

// Statement is one parsed line: an optional binding/persistence name, an
// operator, and an ordered argument list.
type Statement struct {
	// Line is the 1-based source line number, used for diagnostics.
	Line int

	// BindingName is the local alias @a, or "" if none was given.
	BindingName string
	// Persist is true when the statement used @a:id form (binding AND
	// persistence) or had no binding at all (anonymous persistence).
	// A statement with only @a (binding, no colon) does not persist.
	Persist bool
	// PersistenceName is the :id suffix of @a:id, if any. Anonymous
	// persisted statements (no @ at all) leave this empty.
	PersistenceName string

	Operator  string
	Arguments []Term
}

// HasBinding reports whether the statement introduced a local alias.
func (s Statement) HasBinding() bool { return s.BindingName != "" }

package encoder

import (
	"hdcmind/internal/ast"
	"hdcmind/internal/bitvector"
)

// Binding is what a local alias @a resolves to within the current learn
// batch: the statement's vector plus its AST, so rule registration can
// chase compound conditions (And/Or/Not) by re-inspecting the referenced
// statement's shape.
type Binding struct {
	Vector    bitvector.BitVector
	Statement ast.Statement
}

// Scope maps alias -> Binding for the local names introduced by @a in
// the current learn batch. Non-persistent: forgotten at the caller's
// discretion.
type Scope struct {
	bindings map[string]Binding
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{bindings: make(map[string]Binding)}
}

// Bind records alias -> (vector, statement).
func (s *Scope) Bind(alias string, vector bitvector.BitVector, stmt ast.Statement) {
	s.bindings[alias] = Binding{Vector: vector, Statement: stmt}
}

// Lookup returns the binding for alias, or false if undefined.
func (s *Scope) Lookup(alias string) (Binding, bool) {
	b, ok := s.bindings[alias]
	return b, ok
}

// UndefinedReferenceError reports a $alias with no matching @alias in
// scope.
type UndefinedReferenceError struct {
	Alias string
}

func (e *UndefinedReferenceError) Error() string {
	return "encoder: undefined reference $" + e.Alias
}

// Package encoder turns ast.Statement nodes into BitVectors and the
// structured Metadata the prover uses for exact lookup:
// enc(stmt) = stamp(op) (+) (P1 (+) stamp(a1)) (+) ... , XOR being
// associative/commutative so argument order is carried solely by the
// position codes.
package encoder

import (
	"fmt"
	"strings"

	"hdcmind/internal/algebra"
	"hdcmind/internal/ast"
	"hdcmind/internal/bitvector"
	"hdcmind/internal/knowledge"
	"hdcmind/internal/position"
	"hdcmind/internal/vocabulary"
)

// Encoder holds the shared, session-owned vocabulary and position cache.
type Encoder struct {
	Vocab     *vocabulary.Vocabulary
	Positions *position.Cache
	D         int
}

// New builds an Encoder over the given vocabulary and position cache.
func New(vocab *vocabulary.Vocabulary, positions *position.Cache, d int) *Encoder {
	return &Encoder{Vocab: vocab, Positions: positions, D: d}
}

// EncodeTerm resolves a single argument term to its vector and its
// canonical name text (used to build Metadata.Args).
func (e *Encoder) EncodeTerm(term ast.Term, scope *Scope) (bitvector.BitVector, string, error) {
	switch t := term.(type) {
	case ast.Identifier:
		v, err := e.Vocab.GetOrCreate(t.Name)
		return v, t.Name, err

	case ast.Hole:
		v, err := e.Vocab.GetOrCreate(vocabulary.HoleName(t.Name))
		return v, "?" + t.Name, err

	case ast.Reference:
		b, ok := scope.Lookup(t.Alias)
		if !ok {
			return bitvector.BitVector{}, "", &UndefinedReferenceError{Alias: t.Alias}
		}
		return b.Vector, "$" + t.Alias, nil

	case ast.Literal:
		v, err := e.Vocab.GetOrCreate(t.Value)
		return v, t.Value, err

	case ast.List:
		if len(t.Items) == 0 {
			v, err := e.Vocab.GetOrCreate(vocabulary.EmptyListName)
			return v, "[]", err
		}
		vecs := make([]bitvector.BitVector, len(t.Items))
		texts := make([]string, len(t.Items))
		for i, item := range t.Items {
			v, text, err := e.EncodeTerm(item, scope)
			if err != nil {
				return bitvector.BitVector{}, "", err
			}
			vecs[i] = v
			texts[i] = text
		}
		bundled, err := algebra.Bundle(vecs, nil)
		if err != nil {
			return bitvector.BitVector{}, "", err
		}
		return bundled, "[" + strings.Join(texts, ",") + "]", nil

	default:
		return bitvector.BitVector{}, "", fmt.Errorf("encoder: unknown term type %T", term)
	}
}

// EncodeStatement encodes a full statement, returning its vector and
// the structured Metadata exposing the operator and arg names in
// declared order.
func (e *Encoder) EncodeStatement(stmt ast.Statement, scope *Scope) (bitvector.BitVector, knowledge.Metadata, error) {
	acc, err := e.Vocab.GetOrCreate(stmt.Operator)
	if err != nil {
		return bitvector.BitVector{}, knowledge.Metadata{}, err
	}

	args := make([]string, len(stmt.Arguments))
	for i, arg := range stmt.Arguments {
		pos, err := e.Positions.Position(i+1, e.D)
		if err != nil {
			return bitvector.BitVector{}, knowledge.Metadata{}, err
		}
		argVec, argText, err := e.EncodeTerm(arg, scope)
		if err != nil {
			return bitvector.BitVector{}, knowledge.Metadata{}, err
		}
		bound, err := algebra.Bind(pos, argVec)
		if err != nil {
			return bitvector.BitVector{}, knowledge.Metadata{}, err
		}
		acc, err = algebra.Bind(acc, bound)
		if err != nil {
			return bitvector.BitVector{}, knowledge.Metadata{}, err
		}
		args[i] = argText
	}

	return acc, knowledge.Metadata{Operator: stmt.Operator, Args: args}, nil
}

// FirstArgVector is a convenience used by the Contradiction Monitor: it
// resolves a statement's single argument to its vector without
// re-encoding the whole statement. Callers use it for "Not $x" facts,
// where the monitor needs the target vector, not the bound text.
func (e *Encoder) FirstArgVector(stmt ast.Statement, scope *Scope) (*bitvector.BitVector, error) {
	if len(stmt.Arguments) != 1 {
		return nil, nil
	}
	v, _, err := e.EncodeTerm(stmt.Arguments[0], scope)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

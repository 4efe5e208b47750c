package encoder

import (
	"fmt"

	"hdcmind/internal/ast"
	"hdcmind/internal/knowledge"
)

// CycleInReferencesError reports that chasing compound condition
// references revisited an alias already being resolved in the same
// chase -- a cycle introduced by rebinding an alias to a statement that
// (directly or transitively) refers back to it.
type CycleInReferencesError struct {
	Alias string
}

func (e *CycleInReferencesError) Error() string {
	return "encoder: cycle in references at $" + e.Alias
}

// BuildRule resolves an Implies statement's two reference arguments
// against scope and assembles a knowledge.Rule, including the recursive
// ConditionParts decomposition for compound (And/Or/Not) antecedents.
// It does not register the rule into any KB; callers do that.
func (e *Encoder) BuildRule(stmt ast.Statement, name, sourceText string, scope *Scope) (knowledge.Rule, error) {
	if stmt.Operator != "Implies" || len(stmt.Arguments) != 2 {
		return knowledge.Rule{}, fmt.Errorf("encoder: BuildRule requires Implies(ref, ref), got %s/%d args", stmt.Operator, len(stmt.Arguments))
	}
	condRef, ok := stmt.Arguments[0].(ast.Reference)
	if !ok {
		return knowledge.Rule{}, fmt.Errorf("encoder: Implies condition must be a reference")
	}
	conclRef, ok := stmt.Arguments[1].(ast.Reference)
	if !ok {
		return knowledge.Rule{}, fmt.Errorf("encoder: Implies conclusion must be a reference")
	}

	condBinding, ok := scope.Lookup(condRef.Alias)
	if !ok {
		return knowledge.Rule{}, &UndefinedReferenceError{Alias: condRef.Alias}
	}
	conclBinding, ok := scope.Lookup(conclRef.Alias)
	if !ok {
		return knowledge.Rule{}, &UndefinedReferenceError{Alias: conclRef.Alias}
	}

	_, condMeta, err := e.EncodeStatement(condBinding.Statement, scope)
	if err != nil {
		return knowledge.Rule{}, err
	}
	_, conclMeta, err := e.EncodeStatement(conclBinding.Statement, scope)
	if err != nil {
		return knowledge.Rule{}, err
	}

	parts, err := e.buildConditionParts(condBinding.Statement, scope, map[string]bool{condRef.Alias: true})
	if err != nil {
		return knowledge.Rule{}, err
	}

	condVars := collectVariables(condBinding.Statement)
	conclVars := collectVariables(conclBinding.Statement)

	return knowledge.Rule{
		Name:                name,
		SourceText:          sourceText,
		ConditionVector:     condBinding.Vector,
		ConclusionVector:    conclBinding.Vector,
		ConditionAST:        condBinding.Statement,
		ConclusionAST:       conclBinding.Statement,
		ConditionMetadata:   condMeta,
		ConclusionMetadata:  conclMeta,
		ConditionVariables:  condVars,
		ConclusionVariables: conclVars,
		HasVariables:        len(condVars) > 0 || len(conclVars) > 0,
		ConditionParts:      parts,
	}, nil
}

// buildConditionParts recursively decomposes a condition statement into
// And/Or/Not/Leaf. A plain (non And/Or/Not) statement
// yields nil, meaning "atomic" (the rule's ConditionVector/AST alone
// describe it); compound statements return the nested shape.
//
// visiting tracks the aliases currently being chased in this call chain
// (the gray set of a DFS): an alias rebound later in the same batch to a
// statement that refers back to an ancestor alias would otherwise chase
// forever, so re-entering a gray alias fails with
// CycleInReferencesError.
func (e *Encoder) buildConditionParts(stmt ast.Statement, scope *Scope, visiting map[string]bool) (*knowledge.ConditionPart, error) {
	switch stmt.Operator {
	case "And", "Or":
		if len(stmt.Arguments) < 1 {
			return nil, fmt.Errorf("encoder: %s requires at least one argument", stmt.Operator)
		}
		parts := make([]knowledge.ConditionPart, 0, len(stmt.Arguments))
		for _, arg := range stmt.Arguments {
			ref, ok := arg.(ast.Reference)
			if !ok {
				return nil, fmt.Errorf("encoder: %s argument must be a reference", stmt.Operator)
			}
			part, err := e.chaseReference(ref.Alias, scope, visiting)
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		}
		kind := knowledge.ConditionAnd
		if stmt.Operator == "Or" {
			kind = knowledge.ConditionOr
		}
		return &knowledge.ConditionPart{Kind: kind, Parts: parts}, nil

	case "Not":
		if len(stmt.Arguments) != 1 {
			return nil, fmt.Errorf("encoder: Not requires exactly one argument")
		}
		ref, ok := stmt.Arguments[0].(ast.Reference)
		if !ok {
			return nil, fmt.Errorf("encoder: Not argument must be a reference")
		}
		inner, err := e.chaseReference(ref.Alias, scope, visiting)
		if err != nil {
			return nil, err
		}
		return &knowledge.ConditionPart{Kind: knowledge.ConditionNot, Inner: &inner}, nil

	default:
		return nil, nil
	}
}

// chaseReference resolves alias through scope and builds its
// ConditionPart, guarding against re-entering an alias already gray in
// this chase.
func (e *Encoder) chaseReference(alias string, scope *Scope, visiting map[string]bool) (knowledge.ConditionPart, error) {
	if visiting[alias] {
		return knowledge.ConditionPart{}, &CycleInReferencesError{Alias: alias}
	}
	binding, ok := scope.Lookup(alias)
	if !ok {
		return knowledge.ConditionPart{}, &UndefinedReferenceError{Alias: alias}
	}
	visiting[alias] = true
	part, err := e.conditionPartFor(binding, scope, visiting)
	delete(visiting, alias)
	return part, err
}

// conditionPartFor builds the ConditionPart for a single resolved
// binding, recursing if it is itself compound, and producing a Leaf
// otherwise.
func (e *Encoder) conditionPartFor(binding Binding, scope *Scope, visiting map[string]bool) (knowledge.ConditionPart, error) {
	nested, err := e.buildConditionParts(binding.Statement, scope, visiting)
	if err != nil {
		return knowledge.ConditionPart{}, err
	}
	if nested != nil {
		return *nested, nil
	}
	_, meta, err := e.EncodeStatement(binding.Statement, scope)
	if err != nil {
		return knowledge.ConditionPart{}, err
	}
	return knowledge.ConditionPart{
		Kind: knowledge.ConditionLeaf,
		Leaf: &knowledge.LeafCondition{
			Vector:   binding.Vector,
			Metadata: meta,
			AST:      binding.Statement,
		},
	}, nil
}

// collectVariables gathers the distinct hole names (?x) appearing
// anywhere in a statement's arguments, including inside lists.
func collectVariables(stmt ast.Statement) []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(t ast.Term)
	walk = func(t ast.Term) {
		switch v := t.(type) {
		case ast.Hole:
			if !seen[v.Name] {
				seen[v.Name] = true
				out = append(out, v.Name)
			}
		case ast.List:
			for _, item := range v.Items {
				walk(item)
			}
		}
	}
	for _, arg := range stmt.Arguments {
		walk(arg)
	}
	return out
}

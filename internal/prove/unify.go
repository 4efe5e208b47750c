package prove

import "hdcmind/internal/ast"

// unifyConclusion attempts to unify a ground goal (operator plus its
// flattened argument names) against a quantified rule's conclusion AST:
// operators and arity must match, each Hole slot binds consistently to
// the goal's term at that position, and each constant slot must equal
// the goal's term exactly.
func unifyConclusion(operator string, args []string, concl ast.Statement) (map[string]string, bool) {
	if concl.Operator != operator || len(concl.Arguments) != len(args) {
		return nil, false
	}
	bindings := make(map[string]string)
	for i, arg := range concl.Arguments {
		text := args[i]
		switch t := arg.(type) {
		case ast.Hole:
			if existing, ok := bindings[t.Name]; ok {
				if existing != text {
					return nil, false
				}
				continue
			}
			bindings[t.Name] = text
		case ast.Identifier:
			if t.Name != text {
				return nil, false
			}
		case ast.Literal:
			if t.Value != text {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return bindings, true
}

// substituteStatement returns a copy of stmt with every bound Hole
// argument replaced by the concrete Identifier it maps to in bindings;
// unbound holes are left as-is.
func substituteStatement(stmt ast.Statement, bindings map[string]string) ast.Statement {
	out := stmt
	out.Arguments = make([]ast.Term, len(stmt.Arguments))
	for i, arg := range stmt.Arguments {
		out.Arguments[i] = substituteTerm(arg, bindings)
	}
	return out
}

func substituteTerm(t ast.Term, bindings map[string]string) ast.Term {
	switch v := t.(type) {
	case ast.Hole:
		if name, ok := bindings[v.Name]; ok {
			return ast.Identifier{Name: name}
		}
		return v
	case ast.List:
		items := make([]ast.Term, len(v.Items))
		for i, item := range v.Items {
			items[i] = substituteTerm(item, bindings)
		}
		return ast.List{Items: items}
	default:
		return t
	}
}

// substituteArgs replaces "?name" entries with bindings[name] where
// bound, leaving unbound variables and ordinary constants untouched.
func substituteArgs(args []string, bindings map[string]string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if len(a) > 0 && a[0] == '?' {
			if v, ok := bindings[a[1:]]; ok {
				out[i] = v
				continue
			}
		}
		out[i] = a
	}
	return out
}

// unboundVariables returns the distinct "?x"-style variable names still
// present in args after substitution.
func unboundVariables(args []string, bindings map[string]string) []string {
	var out []string
	seen := map[string]bool{}
	for _, a := range args {
		if len(a) == 0 || a[0] != '?' {
			continue
		}
		name := a[1:]
		if _, ok := bindings[name]; ok {
			continue
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// copyBindings returns an independent copy of b (nil becomes an empty,
// non-nil map so callers can merge into it freely).
func copyBindings(b map[string]string) map[string]string {
	out := make(map[string]string, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// mergeBindings combines a and b, returning nil if they disagree on any
// shared key.
func mergeBindings(a, b map[string]string) map[string]string {
	out := copyBindings(a)
	for k, v := range b {
		if existing, ok := out[k]; ok && existing != v {
			return nil
		}
		out[k] = v
	}
	return out
}

// isBoundSlot reports how a condition argument's slot resolves: if it is
// a variable, returns ("", varName, true) when unbound or (value, "",
// true) when bound; if it is a plain constant, returns (arg, "", false).
func isBoundSlot(arg string, bindings map[string]string) (value, varName string, isVariable bool) {
	if len(arg) == 0 || arg[0] != '?' {
		return arg, "", false
	}
	name := arg[1:]
	if v, ok := bindings[name]; ok {
		return v, "", true
	}
	return "", name, true
}

// Package parser reads the line-oriented surface syntax and produces
// ast.Statement values: one statement per line, optional @alias or
// @alias:id destination, then an operator and its arguments; blank
// lines and // comments are skipped.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"hdcmind/internal/ast"
)

// ParseError reports a malformed source line.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// ReservedOperators are the operator names reserved for logical
// connectives and quantifiers, plus the two theory directives.
var ReservedOperators = map[string]bool{
	"Implies": true, "And": true, "Or": true, "Not": true,
	"ForAll": true, "Exists": true,
	"Load": true, "Unload": true,
}

// ParseText splits text into lines and parses each non-blank,
// non-comment line into a Statement. It stops and returns the first
// ParseError encountered, with whatever statements parsed before it.
func ParseText(text string) ([]ast.Statement, error) {
	var stmts []ast.Statement
	for i, raw := range strings.Split(text, "\n") {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		stmt, err := ParseLine(line, lineNo)
		if err != nil {
			return stmts, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

// ParseLine parses a single non-blank, non-comment source line.
func ParseLine(line string, lineNo int) (ast.Statement, error) {
	tokens, err := tokenize(line, lineNo)
	if err != nil {
		return ast.Statement{}, err
	}
	if len(tokens) == 0 {
		return ast.Statement{}, &ParseError{Line: lineNo, Message: "empty statement"}
	}

	stmt := ast.Statement{Line: lineNo}
	idx := 0

	if strings.HasPrefix(tokens[0], "@") {
		dest := tokens[0][1:]
		if dest == "" {
			return ast.Statement{}, &ParseError{Line: lineNo, Message: "empty binding name after @"}
		}
		if colon := strings.IndexByte(dest, ':'); colon >= 0 {
			stmt.BindingName = dest[:colon]
			stmt.PersistenceName = dest[colon+1:]
			stmt.Persist = true
			if stmt.BindingName == "" || stmt.PersistenceName == "" {
				return ast.Statement{}, &ParseError{Line: lineNo, Message: "malformed @alias:id destination"}
			}
		} else {
			stmt.BindingName = dest
			stmt.Persist = false
		}
		idx = 1
	} else {
		stmt.Persist = true
	}

	if idx >= len(tokens) {
		return ast.Statement{}, &ParseError{Line: lineNo, Message: "missing operator"}
	}
	stmt.Operator = tokens[idx]
	idx++

	for ; idx < len(tokens); idx++ {
		term, consumed, err := parseTerm(tokens, idx, lineNo)
		if err != nil {
			return ast.Statement{}, err
		}
		stmt.Arguments = append(stmt.Arguments, term)
		idx += consumed - 1
	}

	return stmt, nil
}

// tokenize splits a line into whitespace-separated tokens, keeping
// double-quoted strings and bracketed lists intact as single tokens so
// parseTerm can re-scan them.
func tokenize(line string, lineNo int) ([]string, error) {
	var tokens []string
	i := 0
	n := len(line)
	for i < n {
		for i < n && isSpace(line[i]) {
			i++
		}
		if i >= n {
			break
		}
		switch line[i] {
		case '"':
			start := i
			i++
			for i < n && line[i] != '"' {
				i++
			}
			if i >= n {
				return nil, &ParseError{Line: lineNo, Message: "unterminated string literal"}
			}
			i++
			tokens = append(tokens, line[start:i])
		case '[':
			depth := 0
			start := i
			for i < n {
				if line[i] == '[' {
					depth++
				} else if line[i] == ']' {
					depth--
					if depth == 0 {
						i++
						break
					}
				}
				i++
			}
			if depth != 0 {
				return nil, &ParseError{Line: lineNo, Message: "unterminated list literal"}
			}
			tokens = append(tokens, line[start:i])
		default:
			if strings.HasPrefix(line[i:], "//") {
				return tokens, nil
			}
			start := i
			for i < n && !isSpace(line[i]) && line[i] != '"' {
				i++
			}
			tokens = append(tokens, line[start:i])
		}
	}
	return tokens, nil
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' }

// parseTerm parses the token at tokens[idx] into a Term. It always
// consumes exactly one token (list tokens are already a single bracketed
// unit from tokenize); the consumed count is kept for symmetry with a
// future multi-token term.
func parseTerm(tokens []string, idx, lineNo int) (ast.Term, int, error) {
	tok := tokens[idx]
	switch {
	case tok == "":
		return nil, 0, &ParseError{Line: lineNo, Message: "empty argument token"}
	case strings.HasPrefix(tok, "?"):
		name := tok[1:]
		if name == "" {
			return nil, 0, &ParseError{Line: lineNo, Message: "empty hole name"}
		}
		return ast.Hole{Name: name}, 1, nil
	case strings.HasPrefix(tok, "$"):
		alias := tok[1:]
		if alias == "" {
			return nil, 0, &ParseError{Line: lineNo, Message: "empty reference alias"}
		}
		return ast.Reference{Alias: alias}, 1, nil
	case strings.HasPrefix(tok, "\"") && strings.HasSuffix(tok, "\"") && len(tok) >= 2:
		return ast.Literal{Value: tok[1 : len(tok)-1]}, 1, nil
	case strings.HasPrefix(tok, "["):
		items, err := parseList(tok, lineNo)
		if err != nil {
			return nil, 0, err
		}
		return ast.List{Items: items}, 1, nil
	case isNumber(tok):
		return ast.Literal{Value: canonicalNumber(tok)}, 1, nil
	default:
		return ast.Identifier{Name: tok}, 1, nil
	}
}

func parseList(tok string, lineNo int) ([]ast.Term, error) {
	inner := strings.TrimSpace(tok[1 : len(tok)-1])
	if inner == "" {
		return nil, nil
	}
	parts := splitTopLevel(inner)
	items := make([]ast.Term, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		sub, _, err := parseTerm([]string{p}, 0, lineNo)
		if err != nil {
			return nil, err
		}
		items = append(items, sub)
	}
	return items, nil
}

// splitTopLevel splits a comma-separated list, respecting nested
// brackets so [a,[b,c]] splits into "a" and "[b,c]".
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func isNumber(tok string) bool {
	if tok == "" {
		return false
	}
	_, err := strconv.ParseFloat(tok, 64)
	return err == nil
}

// canonicalNumber reparses tok through ParseFloat and reformats it so
// "42" and "42.0" stamp to the same literal.
func canonicalNumber(tok string) string {
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return tok
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

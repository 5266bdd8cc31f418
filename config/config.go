// Package config is the minimal textual front-end the core expects (§6):
// it parses a router's flatconfig grammar into the declarations
// router.Router.Build consumes, and is deliberately not a claim of lexer
// completeness — quoting, expression-valued configuration, and compound
// connections are Non-goals here.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/clickgo/swrouter/router"
)

// Parse accepts the grammar:
//
//	name :: Class(config, string, here);
//	from[0] -> [1]to;
//
// one declaration or connection per statement, "//" line comments,
// matching flatconfig's emission format exactly so Parse ∘
// Router.Flatconfig round-trips (§8 property 6).
func Parse(text string) ([]router.ElementDecl, []router.ConnectionDecl, error) {
	var elements []router.ElementDecl
	var conns []router.ConnectionDecl

	for i, stmt := range statements(text) {
		lineNo := i + 1
		if strings.Contains(stmt, "::") {
			decl, err := parseElement(stmt)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			elements = append(elements, decl)
			continue
		}
		if strings.Contains(stmt, "->") {
			conn, err := parseConnection(stmt)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			conns = append(conns, conn)
			continue
		}
		return nil, nil, fmt.Errorf("line %d: unrecognized statement %q", lineNo, stmt)
	}

	return elements, conns, nil
}

// statements strips "//" comments, splits text on ';', and yields each
// trimmed non-empty statement in source order; Parse numbers them 1-based
// by position in that order (the statement's ordinal, which equals its
// source line only when every statement sits on its own line), so the
// result must stay a slice: a map here would let
// Go's randomized iteration order reshuffle element/connection declarations
// between Parse calls on the same text, breaking element-index stability.
func statements(text string) []string {
	var out []string
	var b strings.Builder
	for _, raw := range strings.Split(text, "\n") {
		if c := strings.Index(raw, "//"); c >= 0 {
			raw = raw[:c]
		}
		b.WriteString(raw)
		b.WriteByte('\n')
	}
	joined := b.String()

	for _, stmt := range strings.Split(joined, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		out = append(out, strings.Join(strings.Fields(stmt), " "))
	}
	return out
}

// parseElement parses "name :: Class(arg, arg, ...)".
func parseElement(stmt string) (router.ElementDecl, error) {
	parts := strings.SplitN(stmt, "::", 2)
	if len(parts) != 2 {
		return router.ElementDecl{}, fmt.Errorf("malformed element declaration %q", stmt)
	}
	name := strings.TrimSpace(parts[0])
	rest := strings.TrimSpace(parts[1])

	open := strings.IndexByte(rest, '(')
	close := strings.LastIndexByte(rest, ')')
	if open < 0 || close < 0 || close < open {
		return router.ElementDecl{}, fmt.Errorf("malformed class call %q", rest)
	}
	class := strings.TrimSpace(rest[:open])
	argsText := strings.TrimSpace(rest[open+1 : close])

	var args []string
	if argsText != "" {
		for _, a := range strings.Split(argsText, ",") {
			args = append(args, strings.TrimSpace(a))
		}
	}

	if name == "" || class == "" {
		return router.ElementDecl{}, fmt.Errorf("empty name or class in %q", stmt)
	}
	return router.ElementDecl{Name: name, Class: class, ConfigArgs: args}, nil
}

// parseConnection parses "from[N] -> [M]to".
func parseConnection(stmt string) (router.ConnectionDecl, error) {
	sides := strings.SplitN(stmt, "->", 2)
	if len(sides) != 2 {
		return router.ConnectionDecl{}, fmt.Errorf("malformed connection %q", stmt)
	}
	fromElem, fromPort, err := parseEndpoint(strings.TrimSpace(sides[0]), true)
	if err != nil {
		return router.ConnectionDecl{}, err
	}
	toElem, toPort, err := parseEndpoint(strings.TrimSpace(sides[1]), false)
	if err != nil {
		return router.ConnectionDecl{}, err
	}
	return router.ConnectionDecl{FromElement: fromElem, FromPort: fromPort, ToElement: toElem, ToPort: toPort}, nil
}

// parseEndpoint parses "name[N]" (fromSide=true) or "[N]name" (fromSide=false).
func parseEndpoint(s string, fromSide bool) (string, int, error) {
	open := strings.IndexByte(s, '[')
	close := strings.IndexByte(s, ']')
	if open < 0 || close < 0 || close < open {
		return "", 0, fmt.Errorf("malformed port endpoint %q", s)
	}
	portText := s[open+1 : close]
	idx, err := strconv.Atoi(strings.TrimSpace(portText))
	if err != nil {
		return "", 0, fmt.Errorf("malformed port index in %q: %w", s, err)
	}

	var name string
	if fromSide {
		name = strings.TrimSpace(s[:open])
	} else {
		name = strings.TrimSpace(s[close+1:])
	}
	if name == "" {
		return "", 0, fmt.Errorf("missing element name in %q", s)
	}
	return name, idx, nil
}

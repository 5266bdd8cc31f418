package port

import (
	"fmt"

	"github.com/clickgo/swrouter/errors"
)

// key addresses a single declared port within a graph.
type key struct {
	element string
	dir     Direction
	index   int
}

// Resolve runs the §4.2 discipline-resolution algorithm once, after the
// graph is fully built and before any element's Initialize is called. It
// mutates each Port's Discipline field in place and each Connection's
// Resolved field, or returns a Topology error naming the first offending
// connection.
func Resolve(ports []*Port, conns []*Connection) error {
	index := make(map[key]*Port, len(ports))
	for _, p := range ports {
		index[key{p.Element, p.Dir, p.Index}] = p
	}

	lookup := func(element string, dir Direction, idx int) (*Port, error) {
		p, ok := index[key{element, dir, idx}]
		if !ok {
			return nil, errors.WrapTopology(errors.ErrDanglingPort, element,
				"Resolve", fmt.Sprintf("%s port %d not declared", dir, idx))
		}
		return p, nil
	}

	// effective returns a port's already-resolved discipline if a prior
	// connection fixed it (relevant for fan-out/fan-in), else its raw
	// declaration.
	effective := func(p *Port) Discipline {
		if p.resolved {
			return p.Discipline
		}
		return p.Declared
	}

	// merge applies the §4.2 table: push⊕push=push, pull⊕pull=pull,
	// push⊕agnostic=push, pull⊕agnostic=pull, push⊕pull=invalid,
	// agnostic⊕agnostic=ambiguous.
	merge := func(conn *Connection, out, in *Port) error {
		o, n := effective(out), effective(in)
		switch {
		case o == Push && n == Push:
			return assign(conn, out, in, Push)
		case o == Pull && n == Pull:
			return assign(conn, out, in, Pull)
		case o == Push && n == Agnostic:
			return assign(conn, out, in, Push)
		case o == Agnostic && n == Push:
			return assign(conn, out, in, Push)
		case o == Pull && n == Agnostic:
			return assign(conn, out, in, Pull)
		case o == Agnostic && n == Pull:
			return assign(conn, out, in, Pull)
		case o == Agnostic && n == Agnostic:
			return errors.WrapTopology(errors.ErrDisciplineAmbig, out.Element, "Resolve", conn.String())
		default: // Push⊕Pull in either order
			return errors.WrapTopology(errors.ErrDisciplineInvalid, out.Element, "Resolve", conn.String())
		}
	}

	fanout := make(map[key][]*Connection) // by output port
	fanin := make(map[key][]*Connection)   // by input port

	for i := range conns {
		conn := conns[i]
		out, err := lookup(conn.FromElement, Output, conn.FromPort)
		if err != nil {
			return err
		}
		in, err := lookup(conn.ToElement, Input, conn.ToPort)
		if err != nil {
			return err
		}
		if err := merge(conn, out, in); err != nil {
			return err
		}

		fanout[key{conn.FromElement, Output, conn.FromPort}] = append(fanout[key{conn.FromElement, Output, conn.FromPort}], conn)
		fanin[key{conn.ToElement, Input, conn.ToPort}] = append(fanin[key{conn.ToElement, Input, conn.ToPort}], conn)
	}

	// Fan-out of a pull output to more than one input is invalid unless all
	// participating inputs are marked pull. Fan-in to a push input from
	// more than one output is always valid, so no check is needed there.
	for k, group := range fanout {
		if len(group) < 2 {
			continue
		}
		out := index[k]
		if out.Discipline != Pull {
			continue
		}
		for _, conn := range group {
			if conn.Resolved != Pull {
				return errors.WrapTopology(errors.ErrFanoutPullInvalid, out.Element, "Resolve", conn.String())
			}
		}
	}

	return nil
}

func assign(conn *Connection, out, in *Port, d Discipline) error {
	out.Discipline, out.resolved = d, true
	in.Discipline, in.resolved = d, true
	conn.Resolved = d
	return nil
}

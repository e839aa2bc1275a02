package waypoint

import (
	"errors"
	"fmt"
)

// Validate reports every broken prev/next pairing and every link to a node that
// does not exist. Loops are valid.
func (g *Graph) Validate() error {
	if g.Len() == 0 {
		return ErrEmptyGraph
	}
	var errs []error
	dangling := func(from ID, field string, to ID) {
		if to != None && !g.Has(to) {
			errs = append(errs, fmt.Errorf("%d.%s -> %d: %w", from, field, to, ErrUnknownNode))
		}
	}
	for _, n := range g.nodes {
		if n == nil {
			continue
		}
		dangling(n.ID, "prev", n.Prev)
		dangling(n.ID, "next", n.Next)
		for i, b := range n.Branches {
			dangling(n.ID, fmt.Sprintf("branches[%d]", i), b)
		}
		if n.Intersection != nil {
			dangling(n.ID, "left", n.Intersection.Left)
			dangling(n.ID, "right", n.Intersection.Right)
		}

		if next, ok := g.Node(n.Next); ok && next.Prev != n.ID {
			errs = append(errs, fmt.Errorf("%d.next = %d but %d.prev = %d: %w", n.ID, next.ID, next.ID, next.Prev, ErrInconsistentLink))
		}
		if prev, ok := g.Node(n.Prev); ok && prev.Next != n.ID {
			errs = append(errs, fmt.Errorf("%d.prev = %d but %d.next = %d: %w", n.ID, prev.ID, prev.ID, prev.Next, ErrInconsistentLink))
		}
	}
	return errors.Join(errs...)
}

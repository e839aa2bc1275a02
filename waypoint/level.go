package waypoint

import (
	"errors"
	"fmt"
	"strings"

	"github.com/milk9111/busline/levels"
)

// FromLevel builds a graph from an authored level. Names are resolved to
// handles; unknown names and inconsistent links are configuration errors.
func FromLevel(lvl *levels.Level) (*Graph, error) {
	if lvl == nil || len(lvl.Waypoints) == 0 {
		return nil, ErrEmptyGraph
	}
	g := New()
	for i, w := range lvl.Waypoints {
		if w.Name == "" {
			return nil, fmt.Errorf("waypoint %d has no name", i)
		}
		if _, dup := g.Lookup(w.Name); dup {
			return nil, fmt.Errorf("duplicate waypoint name %q", w.Name)
		}
		g.Add(Node{
			Name:        w.Name,
			Position:    w.Position,
			Forward:     w.Forward,
			Width:       w.Width,
			BranchRatio: w.BranchRatio,
		})
	}

	var errs []error
	resolve := func(owner, field, name string) ID {
		if name == "" {
			return None
		}
		id, ok := g.Lookup(name)
		if !ok {
			errs = append(errs, fmt.Errorf("%s.%s -> %q: %w", owner, field, name, ErrUnknownNode))
			return None
		}
		return id
	}

	for _, w := range lvl.Waypoints {
		id, _ := g.Lookup(w.Name)
		n, _ := g.Node(id)
		n.Prev = resolve(w.Name, "prev", w.Prev)
		n.Next = resolve(w.Name, "next", w.Next)
		for _, b := range w.Branches {
			if bid := resolve(w.Name, "branches", b); bid != None {
				n.Branches = append(n.Branches, bid)
			}
		}
		if w.Intersection != nil {
			kind, err := ParseKind(w.Intersection.Kind)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", w.Name, err))
			}
			n.Intersection = &Intersection{
				Left:  resolve(w.Name, "left", w.Intersection.Left),
				Right: resolve(w.Name, "right", w.Intersection.Right),
				Kind:  kind,
			}
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// ToLevel exports the graph. Obstacles and checkpoints are left to the caller.
func (g *Graph) ToLevel(name string) *levels.Level {
	lvl := &levels.Level{Name: name}
	nameOf := func(id ID) string {
		if n, ok := g.Node(id); ok {
			return n.Name
		}
		return ""
	}
	for _, id := range g.IDs() {
		n, _ := g.Node(id)
		w := levels.Waypoint{
			Name:        n.Name,
			Position:    n.Position,
			Forward:     n.Forward,
			Width:       n.Width,
			Prev:        nameOf(n.Prev),
			Next:        nameOf(n.Next),
			BranchRatio: n.BranchRatio,
		}
		for _, b := range n.Branches {
			w.Branches = append(w.Branches, nameOf(b))
		}
		if n.Intersection != nil {
			w.Intersection = &levels.Intersection{
				Left:  nameOf(n.Intersection.Left),
				Right: nameOf(n.Intersection.Right),
				Kind:  n.Intersection.Kind.String(),
			}
		}
		lvl.Waypoints = append(lvl.Waypoints, w)
	}
	return lvl
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return KindNormal, nil
	case "stop":
		return KindStop, nil
	default:
		return KindNormal, fmt.Errorf("unknown intersection kind %q", s)
	}
}

package waypoint

import (
	"fmt"
	"slices"

	"github.com/milk9111/busline/common"
)

// Authoring operations keep prev/next links mutually consistent and move the
// selection to the node they create. They must not run while a simulation is
// ticking over the same graph.

func (g *Graph) newNodeLike(src *Node, name string) ID {
	n := Node{Width: 1, BranchRatio: 0.5}
	if src != nil {
		n.Position = src.Position
		n.Forward = src.Forward
		n.Width = src.Width
	}
	id := g.Add(n)
	node, _ := g.Node(id)
	if name == "" {
		name = fmt.Sprintf("Waypoint %d", id)
	}
	node.Name = name
	return id
}

// lastLive returns the most recently created node that still exists.
func (g *Graph) lastLive() *Node {
	for i := len(g.nodes) - 1; i >= 0; i-- {
		if g.nodes[i] != nil {
			return g.nodes[i]
		}
	}
	return nil
}

// Append creates a node after the last node in the graph, copying its placement.
func (g *Graph) Append() ID {
	prev := g.lastLive()
	id := g.newNodeLike(prev, "")
	if prev != nil {
		node, _ := g.Node(id)
		node.Prev = prev.ID
		if next, ok := g.Node(prev.Next); ok && next.Prev == prev.ID {
			next.Prev = None
		}
		prev.Next = id
	}
	g.Selection = id
	return id
}

// InsertBefore creates a node between sel and its predecessor.
func (g *Graph) InsertBefore(sel ID) (ID, error) {
	selected, ok := g.Node(sel)
	if !ok {
		return None, fmt.Errorf("insert before %d: %w", sel, ErrUnknownNode)
	}
	id := g.newNodeLike(selected, "")
	node, _ := g.Node(id)
	if prev, ok := g.Node(selected.Prev); ok {
		node.Prev = prev.ID
		prev.Next = id
	}
	node.Next = sel
	selected.Prev = id
	g.Selection = id
	return id, nil
}

// InsertAfter creates a node between sel and its successor.
func (g *Graph) InsertAfter(sel ID) (ID, error) {
	return g.insertAfter(sel, nil)
}

// InsertIntersectionAfter is InsertAfter for an intersection node of the given kind.
func (g *Graph) InsertIntersectionAfter(sel ID, kind Kind) (ID, error) {
	return g.insertAfter(sel, &Intersection{Kind: kind})
}

func (g *Graph) insertAfter(sel ID, in *Intersection) (ID, error) {
	selected, ok := g.Node(sel)
	if !ok {
		return None, fmt.Errorf("insert after %d: %w", sel, ErrUnknownNode)
	}
	id := g.newNodeLike(selected, "")
	node, _ := g.Node(id)
	if in != nil {
		node.Name = fmt.Sprintf("Intersection %d", id)
		node.Intersection = in
	}
	node.Prev = sel
	if next, ok := g.Node(selected.Next); ok {
		next.Prev = id
		node.Next = next.ID
	}
	selected.Next = id
	g.Selection = id
	return id, nil
}

// SpliceBranch creates an unlinked node and adds it to sel's branch list.
func (g *Graph) SpliceBranch(sel ID) (ID, error) {
	selected, ok := g.Node(sel)
	if !ok {
		return None, fmt.Errorf("splice branch %d: %w", sel, ErrUnknownNode)
	}
	id := g.newNodeLike(selected, "")
	selected.Branches = append(selected.Branches, id)
	g.Selection = id
	return id, nil
}

// Remove deletes a node, joining its neighbours and dropping every reference to
// it from branch lists and intersection links.
func (g *Graph) Remove(id ID) error {
	n, ok := g.Node(id)
	if !ok {
		return fmt.Errorf("remove %d: %w", id, ErrUnknownNode)
	}
	if next, ok := g.Node(n.Next); ok {
		next.Prev = n.Prev
	}
	prev, hasPrev := g.Node(n.Prev)
	if hasPrev {
		prev.Next = n.Next
	}
	// a node linked to itself would otherwise keep the removed handle
	if hasPrev && prev.Next == id {
		prev.Next = None
	}

	for _, other := range g.nodes {
		if other == nil || other.ID == id {
			continue
		}
		other.Branches = slices.DeleteFunc(other.Branches, func(b ID) bool { return b == id })
		if other.Intersection != nil {
			if other.Intersection.Left == id {
				other.Intersection.Left = None
			}
			if other.Intersection.Right == id {
				other.Intersection.Right = None
			}
		}
	}

	g.nodes[id-1] = nil
	if g.Selection == id {
		if hasPrev {
			g.Selection = prev.ID
		} else {
			g.Selection = None
		}
	}
	return nil
}

// ResetLinks clears prev/next of id together with the neighbours' back links.
func (g *Graph) ResetLinks(id ID) error {
	n, ok := g.Node(id)
	if !ok {
		return fmt.Errorf("reset links %d: %w", id, ErrUnknownNode)
	}
	if prev, ok := g.Node(n.Prev); ok && prev.Next == id {
		prev.Next = None
	}
	if next, ok := g.Node(n.Next); ok && next.Prev == id {
		next.Prev = None
	}
	n.Prev = None
	n.Next = None
	return nil
}

// Connect makes b the successor of a, detaching whatever a and b were linked to.
func (g *Graph) Connect(a, b ID) error {
	from, ok := g.Node(a)
	if !ok {
		return fmt.Errorf("connect %d: %w", a, ErrUnknownNode)
	}
	to, ok := g.Node(b)
	if !ok {
		return fmt.Errorf("connect %d: %w", b, ErrUnknownNode)
	}
	if old, ok := g.Node(from.Next); ok && old.Prev == a {
		old.Prev = None
	}
	if old, ok := g.Node(to.Prev); ok && old.Next == b {
		old.Next = None
	}
	from.Next = b
	to.Prev = a
	return nil
}

// SetTurns configures the intersection links of id, turning it into an
// intersection when it is not one yet. None clears a link.
func (g *Graph) SetTurns(id ID, kind Kind, left, right ID) error {
	n, ok := g.Node(id)
	if !ok {
		return fmt.Errorf("set turns %d: %w", id, ErrUnknownNode)
	}
	for _, link := range []ID{left, right} {
		if link != None && !g.Has(link) {
			return fmt.Errorf("set turns %d -> %d: %w", id, link, ErrUnknownNode)
		}
	}
	n.Intersection = &Intersection{Left: left, Right: right, Kind: kind}
	return nil
}

// ClearTurns turns an intersection back into a plain waypoint.
func (g *Graph) ClearTurns(id ID) error {
	n, ok := g.Node(id)
	if !ok {
		return fmt.Errorf("clear turns %d: %w", id, ErrUnknownNode)
	}
	n.Intersection = nil
	return nil
}

// Place moves a node. A zero forward keeps the current heading.
func (g *Graph) Place(id ID, pos, forward common.Vec3, width float64) error {
	n, ok := g.Node(id)
	if !ok {
		return fmt.Errorf("place %d: %w", id, ErrUnknownNode)
	}
	n.Position = pos
	if f := forward.Flat().Normalized(); f != (common.Vec3{}) {
		n.Forward = f
	}
	if width > 0 {
		n.Width = clampWidth(width)
	}
	return nil
}

func (g *Graph) SetBranchRatio(id ID, ratio float64) error {
	n, ok := g.Node(id)
	if !ok {
		return fmt.Errorf("set branch ratio %d: %w", id, ErrUnknownNode)
	}
	n.BranchRatio = common.Clamp01(ratio)
	return nil
}

func (g *Graph) Rename(id ID, name string) error {
	n, ok := g.Node(id)
	if !ok {
		return fmt.Errorf("rename %d: %w", id, ErrUnknownNode)
	}
	if other, ok := g.Lookup(name); ok && other != id {
		return fmt.Errorf("rename %d: name %q already used by %d", id, name, other)
	}
	n.Name = name
	return nil
}

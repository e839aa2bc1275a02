// Package waypoint stores the road network as an arena of nodes addressed by
// stable handles. Links between nodes are handles, never pointers, so editing a
// node cannot leave another node holding a stale reference.
package waypoint

import (
	"errors"
	"math/rand/v2"

	"github.com/milk9111/busline/common"
)

// ID is a handle into a Graph. The zero ID is "no node".
type ID int

const None ID = 0

const (
	MinWidth = 0.1
	MaxWidth = 5.0
)

var (
	ErrUnknownNode      = errors.New("waypoint: unknown node")
	ErrInconsistentLink = errors.New("waypoint: inconsistent link")
	ErrEmptyGraph       = errors.New("waypoint: graph has no nodes")
)

type Kind int

const (
	KindNormal Kind = iota
	KindStop
)

func (k Kind) String() string {
	if k == KindStop {
		return "stop"
	}
	return "normal"
}

// Intersection marks a node where the road splits to the left and/or right.
type Intersection struct {
	Left  ID
	Right ID
	Kind  Kind
}

type Node struct {
	ID          ID
	Name        string
	Position    common.Vec3
	Forward     common.Vec3
	Width       float64
	Prev        ID
	Next        ID
	Branches    []ID
	BranchRatio float64

	Intersection *Intersection
}

// Graph owns every node. Removed slots stay nil so handles are never reused.
type Graph struct {
	nodes []*Node

	// Selection is the authoring focus. Edits move it to the node they create.
	Selection ID
}

func New() *Graph {
	return &Graph{}
}

// Add stores a copy of n without touching any links and returns its handle.
func (g *Graph) Add(n Node) ID {
	id := ID(len(g.nodes) + 1)
	n.ID = id
	if n.Width == 0 {
		n.Width = 1
	}
	n.Width = clampWidth(n.Width)
	n.BranchRatio = common.Clamp01(n.BranchRatio)
	if n.Forward == (common.Vec3{}) {
		n.Forward = common.Forward
	}
	n.Forward = n.Forward.Flat().Normalized()
	if n.Branches != nil {
		n.Branches = append([]ID(nil), n.Branches...)
	}
	if n.Intersection != nil {
		in := *n.Intersection
		n.Intersection = &in
	}
	g.nodes = append(g.nodes, &n)
	return id
}

func (g *Graph) Node(id ID) (*Node, bool) {
	if g == nil || id <= None || int(id) > len(g.nodes) {
		return nil, false
	}
	n := g.nodes[id-1]
	return n, n != nil
}

func (g *Graph) Has(id ID) bool {
	_, ok := g.Node(id)
	return ok
}

// Len returns the number of live nodes.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	count := 0
	for _, n := range g.nodes {
		if n != nil {
			count++
		}
	}
	return count
}

// IDs returns the live handles in creation order.
func (g *Graph) IDs() []ID {
	if g == nil {
		return nil
	}
	out := make([]ID, 0, len(g.nodes))
	for _, n := range g.nodes {
		if n != nil {
			out = append(out, n.ID)
		}
	}
	return out
}

func (g *Graph) Lookup(name string) (ID, bool) {
	if g == nil || name == "" {
		return None, false
	}
	for _, n := range g.nodes {
		if n != nil && n.Name == name {
			return n.ID, true
		}
	}
	return None, false
}

func (g *Graph) Next(id ID) ID {
	if n, ok := g.Node(id); ok {
		return n.Next
	}
	return None
}

func (g *Graph) Prev(id ID) ID {
	if n, ok := g.Node(id); ok {
		return n.Prev
	}
	return None
}

func (g *Graph) Branches(id ID) []ID {
	if n, ok := g.Node(id); ok {
		return n.Branches
	}
	return nil
}

func (g *Graph) Intersection(id ID) (*Intersection, bool) {
	n, ok := g.Node(id)
	if !ok || n.Intersection == nil {
		return nil, false
	}
	return n.Intersection, true
}

func (g *Graph) IsIntersection(id ID) bool {
	_, ok := g.Intersection(id)
	return ok
}

// SamplePosition returns a uniformly random point on the node's lateral span so
// vehicles do not all drive along one line.
func (g *Graph) SamplePosition(id ID, rng *rand.Rand) common.Vec3 {
	n, ok := g.Node(id)
	if !ok {
		return common.Vec3{}
	}
	half := common.Right(n.Forward).Scale(n.Width / 2)
	minBound := n.Position.Add(half)
	maxBound := n.Position.Sub(half)
	t := 0.5
	if rng != nil {
		t = rng.Float64()
	}
	return common.LerpVec3(minBound, maxBound, t)
}

func clampWidth(w float64) float64 {
	if w < MinWidth {
		return MinWidth
	}
	if w > MaxWidth {
		return MaxWidth
	}
	return w
}

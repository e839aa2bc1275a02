// Package route assigns bus liveries. A Selector hands out RoutePacks with a
// configurable bias toward repeating one "sticky" pack, which makes the
// pattern easier to spot at low difficulty settings.
package route

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

var (
	ErrNoRoutes       = errors.New("route: no routes configured")
	ErrDuplicateRoute = errors.New("route: duplicate route")
	ErrDifficulty     = errors.New("route: difficulty must be within [0, 100]")
)

// Pack identifies one configured route. Index is the number checkpoints compare.
type Pack struct {
	Name  string
	Index int
}

func (p Pack) String() string {
	return fmt.Sprintf("%s#%d", p.Name, p.Index)
}

type Selector struct {
	routes     []string
	difficulty float64
	sticky     *Pack
	rng        *rand.Rand
}

// NewSelector validates the route list up front so a bad configuration never
// surfaces in the middle of a run.
func NewSelector(routes []string, difficulty float64, rng *rand.Rand) (*Selector, error) {
	if len(routes) == 0 {
		return nil, ErrNoRoutes
	}
	seen := make(map[string]struct{}, len(routes))
	for _, r := range routes {
		if _, dup := seen[r]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRoute, r)
		}
		seen[r] = struct{}{}
	}
	if difficulty < 0 || difficulty > 100 {
		return nil, fmt.Errorf("%w: got %v", ErrDifficulty, difficulty)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Selector{
		routes:     append([]string(nil), routes...),
		difficulty: difficulty,
		rng:        rng,
	}, nil
}

func (s *Selector) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Selector) Difficulty() float64 {
	return s.difficulty
}

// Pick draws a fresh pack uniformly over the route list.
func (s *Selector) Pick() Pack {
	i := s.rng.IntN(len(s.routes))
	return Pack{Name: s.routes[i], Index: i}
}

func (s *Selector) Sticky() (Pack, bool) {
	if s.sticky == nil {
		return Pack{}, false
	}
	return *s.sticky, true
}

func (s *Selector) SetSticky(p Pack) {
	s.sticky = &p
}

// InitSticky draws the sticky pack. Call it once when the scene is set up.
func (s *Selector) InitSticky() Pack {
	p := s.Pick()
	s.SetSticky(p)
	return p
}

// GetRandomRoute returns the sticky pack when a percentage roll lands under the
// difficulty threshold, otherwise a fresh draw. Fresh draws never replace the
// sticky pack.
func (s *Selector) GetRandomRoute() Pack {
	roll := s.rng.Float64() * 100
	if roll < s.difficulty {
		if p, ok := s.Sticky(); ok {
			return p
		}
	}
	return s.Pick()
}

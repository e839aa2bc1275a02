package route

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestNewSelectorValidation(t *testing.T) {
	cases := []struct {
		name       string
		routes     []string
		difficulty float64
		want       error
	}{
		{"empty", nil, 50, ErrNoRoutes},
		{"duplicate", []string{"red", "blue", "red"}, 50, ErrDuplicateRoute},
		{"negative_difficulty", []string{"red"}, -1, ErrDifficulty},
		{"difficulty_over_100", []string{"red"}, 101, ErrDifficulty},
		{"ok", []string{"red", "blue"}, 100, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewSelector(c.routes, c.difficulty, seeded(1))
			if c.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, c.want) {
				t.Fatalf("expected %v, got %v", c.want, err)
			}
		})
	}
}

func TestFullyStickyRepeatsFirstPack(t *testing.T) {
	s, err := NewSelector([]string{"red", "blue", "green", "yellow"}, 100, seeded(7))
	if err != nil {
		t.Fatalf("new selector: %v", err)
	}
	s.InitSticky()
	first := s.GetRandomRoute()
	for i := 0; i < 1000; i++ {
		if got := s.GetRandomRoute(); got != first {
			t.Fatalf("call %d: expected %v, got %v", i, first, got)
		}
	}
}

func TestWithoutStickyPackEveryCallDraws(t *testing.T) {
	s, err := NewSelector([]string{"red", "blue"}, 100, seeded(3))
	if err != nil {
		t.Fatalf("new selector: %v", err)
	}
	seen := map[Pack]bool{}
	for i := 0; i < 200; i++ {
		seen[s.GetRandomRoute()] = true
	}
	if len(seen) != 2 {
		t.Fatalf("expected both routes without a sticky pack, saw %v", seen)
	}
	if _, ok := s.Sticky(); ok {
		t.Fatalf("fresh draws must not set the sticky pack")
	}
}

func TestZeroDifficultyIsUniform(t *testing.T) {
	routes := []string{"red", "blue", "green", "yellow", "purple"}
	s, err := NewSelector(routes, 0, seeded(42))
	if err != nil {
		t.Fatalf("new selector: %v", err)
	}
	sticky := s.InitSticky()

	const draws = 10000
	counts := make([]int, len(routes))
	for i := 0; i < draws; i++ {
		p := s.GetRandomRoute()
		if p.Name != routes[p.Index] {
			t.Fatalf("pack name %q does not match index %d", p.Name, p.Index)
		}
		counts[p.Index]++
	}

	expected := float64(draws) / float64(len(routes))
	for i, c := range counts {
		if math.Abs(float64(c)-expected) > 0.05*expected {
			t.Fatalf("route %d drawn %d times, expected %.0f +-5%%", i, c, expected)
		}
	}
	if got, _ := s.Sticky(); got != sticky {
		t.Fatalf("sticky pack changed from %v to %v", sticky, got)
	}
}

func TestPartialDifficultyBiasesTowardSticky(t *testing.T) {
	routes := []string{"red", "blue", "green", "yellow"}
	s, err := NewSelector(routes, 50, seeded(11))
	if err != nil {
		t.Fatalf("new selector: %v", err)
	}
	s.SetSticky(Pack{Name: "green", Index: 2})

	const draws = 10000
	hits := 0
	for i := 0; i < draws; i++ {
		if s.GetRandomRoute().Index == 2 {
			hits++
		}
	}
	// 50% sticky plus a quarter of the remaining fresh draws.
	expected := draws * (0.5 + 0.5/4)
	if math.Abs(float64(hits)-expected) > 0.05*expected {
		t.Fatalf("sticky route drawn %d times, expected about %.0f", hits, expected)
	}
}

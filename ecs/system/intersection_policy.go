package system

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/busline/ecs"
	"github.com/milk9111/busline/ecs/component"
	"github.com/milk9111/busline/logging"
	"github.com/milk9111/busline/prefabs"
	"github.com/milk9111/busline/waypoint"
)

// Scripts define `choose := func(ctx) { ... }` returning "left", "right" or
// "forward". The dispatch line stores the answer where Go can read it.
const policyDispatchScript = `
__choice := choose(__ctx)
`

// ScriptPolicy runs tengo intersection scripts. Compiled scripts are cached by
// name until Invalidate is called.
type ScriptPolicy struct {
	rng    *rand.Rand
	logger *slog.Logger
	cache  map[string]*tengo.Compiled
}

func NewScriptPolicy(rng *rand.Rand, logger *slog.Logger) *ScriptPolicy {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &ScriptPolicy{rng: rng, logger: logging.OrDefault(logger), cache: map[string]*tengo.Compiled{}}
}

func compilePolicy(name string) (*tengo.Compiled, error) {
	src, err := prefabs.LoadScript(name)
	if err != nil {
		return nil, fmt.Errorf("load script %q: %w", name, err)
	}
	script := tengo.NewScript([]byte(string(src) + "\n" + policyDispatchScript))
	_ = script.Add("__ctx", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))
	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile script %q: %w", name, err)
	}
	return compiled, nil
}

// CheckPolicyScript compiles a script without running it, so prefab loading
// can reject a broken policy up front.
func CheckPolicyScript(name string) error {
	_, err := compilePolicy(name)
	return err
}

// Check compiles name into the cache, so each script is validated once per
// Invalidate rather than once per vehicle.
func (p *ScriptPolicy) Check(name string) error {
	_, err := p.compiled(name)
	return err
}

// Invalidate drops a cached script; the next vehicle to use it recompiles.
func (p *ScriptPolicy) Invalidate(name string) {
	delete(p.cache, prefabs.ScriptName(name))
}

func (p *ScriptPolicy) compiled(name string) (*tengo.Compiled, error) {
	key := prefabs.ScriptName(name)
	if c, ok := p.cache[key]; ok {
		return c, nil
	}
	c, err := compilePolicy(name)
	if err != nil {
		return nil, err
	}
	p.cache[key] = c
	p.logger.Debug("intersection policy compiled", "script", key)
	return c, nil
}

func (p *ScriptPolicy) Choose(w *ecs.World, e ecs.Entity, script string, node *waypoint.Node, options []Command) (Command, error) {
	compiled, err := p.compiled(script)
	if err != nil {
		return CommandForward, err
	}
	if err := compiled.Set("__ctx", p.buildContext(w, e, node, options)); err != nil {
		return CommandForward, err
	}
	if err := compiled.Run(); err != nil {
		return CommandForward, fmt.Errorf("run script %q: %w", script, err)
	}
	answer := strings.ToLower(strings.TrimSpace(compiled.Get("__choice").String()))
	cmd, ok := ParseCommand(answer)
	if !ok {
		return CommandForward, fmt.Errorf("script %q returned %q", script, answer)
	}
	return cmd, nil
}

func (p *ScriptPolicy) buildContext(w *ecs.World, e ecs.Entity, node *waypoint.Node, options []Command) *tengo.ImmutableMap {
	opts := make([]tengo.Object, 0, len(options))
	for _, o := range options {
		opts = append(opts, &tengo.String{Value: o.String()})
	}

	values := map[string]tengo.Object{
		"node":    &tengo.String{Value: node.Name},
		"kind":    &tengo.String{Value: node.Intersection.Kind.String()},
		"options": &tengo.ImmutableArray{Value: opts},
		"tick":    &tengo.Int{Value: int64(w.Clock().Tick)},
		"label":   &tengo.String{Value: ""},
	}
	if v, ok := ecs.Get(w, e, component.VehicleComponent.Kind()); ok {
		values["label"] = &tengo.String{Value: v.Label}
	}
	if nav, ok := ecs.Get(w, e, component.NavigatorComponent.Kind()); ok {
		values["backward"] = tengo.FalseValue
		if nav.Backward {
			values["backward"] = tengo.TrueValue
		}
	}
	values["random"] = &tengo.UserFunction{Name: "random", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Float{Value: p.rng.Float64()}, nil
	}}
	return &tengo.ImmutableMap{Value: values}
}

func ParseCommand(s string) (Command, bool) {
	switch s {
	case "left":
		return CommandLeft, true
	case "right":
		return CommandRight, true
	case "stop":
		return CommandStop, true
	case "forward", "straight":
		return CommandForward, true
	default:
		return CommandForward, false
	}
}

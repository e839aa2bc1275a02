// Package sim drives a traffic simulation at a fixed timestep. It owns the ECS
// world, the waypoint graph, the route selector and the system schedule, and
// exposes the commands a presentation layer or a headless runner needs.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/milk9111/busline/ecs"
	"github.com/milk9111/busline/ecs/component"
	"github.com/milk9111/busline/ecs/entity"
	"github.com/milk9111/busline/ecs/system"
	"github.com/milk9111/busline/levels"
	"github.com/milk9111/busline/logging"
	"github.com/milk9111/busline/prefabs"
	"github.com/milk9111/busline/route"
	"github.com/milk9111/busline/waypoint"
)

// Config is the sim.yaml spec.
type Config = prefabs.SimSpec

type options struct {
	graph     *waypoint.Graph
	level     *levels.Level
	seed      *uint64
	presenter system.Presenter
	logger    *slog.Logger
	routes    *route.Selector
	trace     *logging.TraceWriter
}

type Option func(*options)

// WithGraph runs on g instead of the configured level. No obstacles or
// checkpoints are loaded.
func WithGraph(g *waypoint.Graph) Option {
	return func(o *options) { o.graph = g }
}

// WithLevel runs on an already loaded level.
func WithLevel(lvl *levels.Level) Option {
	return func(o *options) { o.level = lvl }
}

func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = &seed }
}

func WithPresenter(p system.Presenter) Option {
	return func(o *options) { o.presenter = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRouteSelector replaces the selector built from the routes section.
func WithRouteSelector(s *route.Selector) Option {
	return func(o *options) { o.routes = s }
}

// WithTrace mirrors every drained event to a JSONL trace.
func WithTrace(tw *logging.TraceWriter) Option {
	return func(o *options) { o.trace = tw }
}

type Simulation struct {
	cfg    Config
	world  *ecs.World
	graph  *waypoint.Graph
	level  *levels.Level
	routes *route.Selector
	rng    *rand.Rand

	scheduler *ecs.Scheduler
	nav       *system.NavigationSystem
	policy    *system.ScriptPolicy

	logger *slog.Logger
	log    *SimLog
	trace  *logging.TraceWriter

	checkpoints []ecs.Entity
	player      ecs.Entity
	prefabs     map[string]prefabs.EntityBuildSpec
}

// New builds a simulation from cfg. Every configuration problem is reported
// here; once running, faults stay confined to the vehicle that caused them.
func New(cfg Config, opts ...Option) (*Simulation, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}

	seed := cfg.Seed
	if o.seed != nil {
		seed = *o.seed
	}
	if seed == 0 {
		seed = rand.Uint64()
	}
	master := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	fork := func() *rand.Rand {
		return rand.New(rand.NewPCG(master.Uint64(), master.Uint64()))
	}

	s := &Simulation{
		cfg:     cfg,
		rng:     fork(),
		logger:  logging.OrDefault(o.logger),
		log:     NewSimLog(),
		trace:   o.trace,
		prefabs: map[string]prefabs.EntityBuildSpec{},
	}

	s.graph, s.level = o.graph, o.level
	if s.graph == nil {
		if s.level == nil {
			lvl, err := levels.Load(cfg.Level)
			if err != nil {
				return nil, fmt.Errorf("sim: %w", err)
			}
			s.level = lvl
		}
		g, err := waypoint.FromLevel(s.level)
		if err != nil {
			return nil, fmt.Errorf("sim: level %q: %w", s.level.Name, err)
		}
		s.graph = g
	}

	s.routes = o.routes
	if s.routes == nil {
		sel, err := route.NewSelector(cfg.Routes.Names, cfg.Routes.Difficulty, fork())
		if err != nil {
			return nil, fmt.Errorf("sim: %w", err)
		}
		s.routes = sel
	}
	sticky := s.routes.InitSticky()

	s.world = ecs.NewWorld()
	s.world.SetTimestep(1 / float64(cfg.TickRate))
	s.world.SetPhysicsWorld(ecs.NewPhysicsWorld())

	if s.level != nil && o.graph == nil {
		cps, err := entity.LoadLevelToWorld(s.world, s.level, s.routes)
		if err != nil {
			return nil, fmt.Errorf("sim: %w", err)
		}
		s.checkpoints = cps
	}

	s.policy = system.NewScriptPolicy(fork(), s.logger)
	s.nav = system.NewNavigationSystem(s.graph, fork(), s.logger)
	s.nav.SetPolicy(s.policy)
	s.nav.SetPresenter(o.presenter)

	s.scheduler = ecs.NewScheduler(
		system.NewSuspensionSystem(),
		system.NewSpawnSystem(s.graph, fork(), s.buildVehicle, s.logger),
		system.NewBodySyncSystem(),
		system.NewSensorSystem(),
		system.NewSteeringSystem(),
		s.nav,
		system.NewCheckpointSystem(s.logger),
	)

	if cfg.Spawner.Count > 0 {
		if _, err := entity.BuildSpawner(s.world, s.graph, cfg.Spawner); err != nil {
			return nil, fmt.Errorf("sim: %w", err)
		}
	}

	if cfg.Player.Prefab != "" {
		start, err := s.startNode(cfg.Player.Start)
		if err != nil {
			return nil, err
		}
		e, err := s.SpawnVehicle(cfg.Player.Prefab, start)
		if err != nil {
			return nil, fmt.Errorf("sim: player: %w", err)
		}
		s.player = e
	}

	s.logger.Info("simulation ready",
		"name", cfg.Name,
		"seed", seed,
		"nodes", s.graph.Len(),
		"checkpoints", len(s.checkpoints),
		"sticky_route", sticky.String(),
	)
	return s, nil
}

func (s *Simulation) startNode(name string) (waypoint.ID, error) {
	if name == "" {
		ids := s.graph.IDs()
		if len(ids) == 0 {
			return waypoint.None, fmt.Errorf("sim: %w", waypoint.ErrEmptyGraph)
		}
		return ids[0], nil
	}
	id, ok := s.graph.Lookup(name)
	if !ok {
		return waypoint.None, fmt.Errorf("sim: player start %q: %w", name, waypoint.ErrUnknownNode)
	}
	return id, nil
}

// Step advances one tick and returns the events it produced.
func (s *Simulation) Step() []ecs.Event {
	s.scheduler.Update(s.world)
	events := s.world.Events().Drain()
	for _, ev := range events {
		s.record(ev)
	}
	return events
}

// Run steps until ticks have elapsed or ctx is done.
func (s *Simulation) Run(ctx context.Context, ticks int) error {
	for i := 0; i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Step()
	}
	return nil
}

func (s *Simulation) record(ev ecs.Event) {
	category, key, ok := strings.Cut(ev.Type, ".")
	if !ok {
		category, key = "sim", ev.Type
	}
	label := "--"
	if ev.Entity.Valid() {
		label = ev.Entity.String()
	}
	value, num := s.describe(ev)
	s.log.Add(ev.Tick, label, category, key, value, num)

	if err := s.trace.Write(map[string]any{
		"tick":   ev.Tick,
		"type":   ev.Type,
		"entity": label,
		"detail": value,
		"value":  num,
	}); err != nil {
		s.logger.Warn("trace write failed", "err", err)
	}
	s.logger.Log(context.Background(), logging.LevelTrace, "event", "tick", ev.Tick, "type", ev.Type, "entity", label, "detail", value)
}

func (s *Simulation) nodeName(id waypoint.ID) string {
	if n, ok := s.graph.Node(id); ok {
		return n.Name
	}
	return "none"
}

func (s *Simulation) describe(ev ecs.Event) (string, float64) {
	switch d := ev.Data.(type) {
	case system.NavigationPayload:
		return s.nodeName(d.From) + " -> " + s.nodeName(d.To), 0
	case system.ChoicePayload:
		who := "auto"
		if d.Player {
			who = "player"
		}
		return fmt.Sprintf("%s %s at %s -> %s", who, d.Command, s.nodeName(d.Node), s.nodeName(d.Next)), 0
	case system.QTEPayload:
		return fmt.Sprintf("%s %s", s.nodeName(d.Node), d.Buttons), 0
	case system.SpawnPayload:
		return fmt.Sprintf("%s at %s", d.Prefab, s.nodeName(d.Node)), 0
	case component.CheckpointResult:
		return fmt.Sprintf("%s expected %s got %s", d.Checkpoint, d.Expected, d.Got), float64(d.Score)
	case float64:
		return fmt.Sprintf("%.2fs", d), d
	case nil:
		return "", 0
	default:
		return fmt.Sprint(d), 0
	}
}

func (s *Simulation) World() *ecs.World {
	return s.world
}

func (s *Simulation) Graph() *waypoint.Graph {
	return s.graph
}

// Level returns the loaded level, or nil when running on a bare graph.
func (s *Simulation) Level() *levels.Level {
	return s.level
}

func (s *Simulation) Routes() *route.Selector {
	return s.routes
}

func (s *Simulation) Tick() int {
	return s.world.Clock().Tick
}

func (s *Simulation) Log() *SimLog {
	return s.log
}

func (s *Simulation) Config() Config {
	return s.cfg
}

func (s *Simulation) Checkpoints() []ecs.Entity {
	return append([]ecs.Entity(nil), s.checkpoints...)
}

// Player returns the player's vehicle while it exists.
func (s *Simulation) Player() (ecs.Entity, bool) {
	if !s.player.Valid() || !ecs.IsAlive(s.world, s.player) {
		return 0, false
	}
	return s.player, true
}

func (s *Simulation) SetPresenter(p system.Presenter) {
	s.nav.SetPresenter(p)
}

// Close flushes the trace, if any.
func (s *Simulation) Close() error {
	return s.trace.Close()
}

package main

import (
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/busline/common"
	"github.com/milk9111/busline/ecs"
	"github.com/milk9111/busline/ecs/component"
	"github.com/milk9111/busline/ecs/system"
	"github.com/milk9111/busline/prefabs"
	"github.com/milk9111/busline/sim"
	"github.com/milk9111/busline/waypoint"
	"golang.org/x/image/colornames"
)

const (
	baseWidth  = 1280
	baseHeight = 720
	margin     = 60
)

type Game struct {
	frames int
	paused bool
	debug  bool
	score  int

	cfg     sim.Config
	logger  *slog.Logger
	sim     *sim.Simulation
	qte     *QTEPanel
	ui      *ebitenui.UI
	watcher *prefabs.Watcher

	// world XZ -> screen
	scale      float64
	minX, maxZ float64
}

func NewGame(cfg sim.Config, logger *slog.Logger, debug, watch bool) (*Game, error) {
	g := &Game{cfg: cfg, logger: logger, debug: debug}
	g.qte, g.ui = NewQTEUI(g)
	if err := g.restart(); err != nil {
		return nil, err
	}
	if watch {
		w, err := prefabs.NewWatcher(existingDirs("prefabs", filepath.Join("prefabs", "scripts"), "levels")...)
		if err != nil {
			logger.Warn("hot reload disabled", "err", err)
		} else {
			g.watcher = w
		}
	}
	return g, nil
}

func existingDirs(dirs ...string) []string {
	var out []string
	for _, d := range dirs {
		if info, err := os.Stat(d); err == nil && info.IsDir() {
			out = append(out, d)
		}
	}
	return out
}

// restart builds a fresh simulation from the current config and level files.
func (g *Game) restart() error {
	s, err := sim.New(g.cfg, sim.WithLogger(g.logger), sim.WithPresenter(g.qte))
	if err != nil {
		return err
	}
	if g.sim != nil {
		_ = g.sim.Close()
	}
	g.sim = s
	g.score = 0
	g.qte.HideButtons(0)
	g.fitCamera()
	return nil
}

func (g *Game) fitCamera() {
	graph := g.sim.Graph()
	minX, maxX := math.Inf(1), math.Inf(-1)
	minZ, maxZ := math.Inf(1), math.Inf(-1)
	for _, id := range graph.IDs() {
		n, _ := graph.Node(id)
		minX, maxX = math.Min(minX, n.Position.X), math.Max(maxX, n.Position.X)
		minZ, maxZ = math.Min(minZ, n.Position.Z), math.Max(maxZ, n.Position.Z)
	}
	spanX, spanZ := math.Max(maxX-minX, 1), math.Max(maxZ-minZ, 1)
	g.scale = math.Min((baseWidth-2*margin)/spanX, (baseHeight-2*margin)/spanZ)
	g.minX, g.maxZ = minX, maxZ
}

func (g *Game) toScreen(p common.Vec3) (float32, float32) {
	return float32((p.X-g.minX)*g.scale + margin), float32((g.maxZ-p.Z)*g.scale + margin)
}

func (g *Game) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
	_ = g.sim.Close()
}

// command sends a turn to the player's vehicle, from a key or a QTE button.
func (g *Game) command(cmd system.Command) {
	player, ok := g.sim.Player()
	if !ok {
		return
	}
	var err error
	switch cmd {
	case system.CommandLeft:
		err = g.sim.TurnLeft(player)
	case system.CommandRight:
		err = g.sim.TurnRight(player)
	case system.CommandStop:
		err = g.sim.Stop(player)
	}
	if err != nil {
		g.logger.Debug("command ignored", "command", cmd.String(), "err", err)
	}
}

func (g *Game) pollReload() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case change, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			g.applyChange(change)
		case err := <-g.watcher.Errors:
			if err != nil {
				g.logger.Warn("watcher error", "err", err)
			}
		default:
			return
		}
	}
}

func (g *Game) applyChange(change prefabs.Change) {
	name := filepath.Base(change.Path)
	g.logger.Info("reloading", "kind", change.Kind.String(), "file", name)
	switch change.Kind {
	case prefabs.ChangeScript:
		g.sim.ReloadScript(name)
	case prefabs.ChangeLevel:
		if err := g.restart(); err != nil {
			g.logger.Error("level reload failed, keeping the running scene", "err", err)
		}
	default:
		g.sim.ReloadPrefab(name)
	}
}

func (g *Game) Update() error {
	g.frames++
	g.pollReload()

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyA):
		g.command(system.CommandLeft)
	case inpututil.IsKeyJustPressed(ebiten.KeyD):
		g.command(system.CommandRight)
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		g.command(system.CommandStop)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.sim.ResetRoutes()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		g.debug = !g.debug
	}

	g.ui.Update()
	if g.paused {
		return nil
	}
	for _, ev := range g.sim.Step() {
		if res, ok := ev.Data.(component.CheckpointResult); ok && ev.Entity == g.playerEntity() {
			g.score += res.Score
		}
	}
	return nil
}

func (g *Game) playerEntity() ecs.Entity {
	e, _ := g.sim.Player()
	return e
}

var routeColors = []color.Color{colornames.Red, colornames.Royalblue, colornames.Limegreen, colornames.Gold, colornames.Orchid, colornames.Orange}

func routeColor(index int) color.Color {
	return routeColors[index%len(routeColors)]
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Darkslategray)
	g.drawObstacles(screen)
	g.drawGraph(screen)
	g.drawCheckpoints(screen)
	g.drawVehicles(screen)
	g.ui.Draw(screen)

	status := fmt.Sprintf("Tick: %d    FPS: %.2f    Score: %d    [A] left [D] right [S] stop [R] reset routes [P] pause",
		g.sim.Tick(), ebiten.ActualFPS(), g.score)
	if g.paused {
		status += "    PAUSED"
	}
	ebitenutil.DebugPrint(screen, status)
}

func (g *Game) drawObstacles(screen *ebiten.Image) {
	for _, bb := range g.sim.World().PhysicsWorld().ObstacleBounds() {
		x0, y0 := g.toScreen(common.Vec3{X: bb.L, Z: bb.T})
		x1, y1 := g.toScreen(common.Vec3{X: bb.R, Z: bb.B})
		vector.FillRect(screen, x0, y0, x1-x0, y1-y0, colornames.Dimgray, false)
	}
}

func (g *Game) drawGraph(screen *ebiten.Image) {
	graph := g.sim.Graph()
	link := func(from, to waypoint.ID, clr color.Color, width float32) {
		a, okA := graph.Node(from)
		b, okB := graph.Node(to)
		if !okA || !okB {
			return
		}
		x0, y0 := g.toScreen(a.Position)
		x1, y1 := g.toScreen(b.Position)
		vector.StrokeLine(screen, x0, y0, x1, y1, width, clr, true)
	}
	for _, id := range graph.IDs() {
		n, _ := graph.Node(id)
		link(id, n.Next, colornames.Lightgrey, 2)
		for _, b := range n.Branches {
			link(id, b, colornames.Steelblue, 1)
		}
		if n.Intersection != nil {
			link(id, n.Intersection.Left, colornames.Yellow, 1)
			link(id, n.Intersection.Right, colornames.Yellow, 1)
		}

		// lateral span the sampler draws from
		right := common.Right(n.Forward).Scale(n.Width / 2)
		x0, y0 := g.toScreen(n.Position.Add(right))
		x1, y1 := g.toScreen(n.Position.Sub(right))
		vector.StrokeLine(screen, x0, y0, x1, y1, 1, colornames.Darkgray, true)

		x, y := g.toScreen(n.Position)
		clr := color.Color(colornames.Lightgray)
		if n.Intersection != nil {
			clr = colornames.Yellow
			if n.Intersection.Kind == waypoint.KindStop {
				clr = colornames.Crimson
			}
		}
		vector.FillCircle(screen, x, y, 4, clr, true)
		if g.debug {
			ebitenutil.DebugPrintAt(screen, n.Name, int(x)+6, int(y)-6)
		}
	}
}

func (g *Game) drawCheckpoints(screen *ebiten.Image) {
	w := g.sim.World()
	for _, e := range g.sim.Checkpoints() {
		cp, ok := ecs.Get(w, e, component.CheckpointComponent.Kind())
		if !ok {
			continue
		}
		x, y := g.toScreen(cp.Position)
		vector.StrokeCircle(screen, x, y, float32(cp.Radius*g.scale), 2, routeColor(cp.Route.Index), true)
		ebitenutil.DebugPrintAt(screen, cp.Name, int(x)+8, int(y)+8)
	}
}

func (g *Game) drawVehicles(screen *ebiten.Image) {
	w := g.sim.World()
	player := g.playerEntity()
	ecs.ForEach2(w, component.TransformComponent.Kind(), component.NavigatorComponent.Kind(), func(e ecs.Entity, t *component.Transform, nav *component.Navigator) {
		radius := 1.0
		if b, ok := ecs.Get(w, e, component.BodyComponent.Kind()); ok {
			radius = b.Radius
		}
		clr := color.Color(colornames.White)
		if ra, ok := ecs.Get(w, e, component.RouteAssignmentComponent.Kind()); ok {
			clr = routeColor(ra.Pack.Index)
		}
		x, y := g.toScreen(t.Position)
		r := float32(radius * g.scale)
		vector.FillCircle(screen, x, y, r, clr, true)
		if e == player {
			vector.StrokeCircle(screen, x, y, r+3, 2, colornames.White, true)
		}
		if nav.Halted {
			vector.StrokeCircle(screen, x, y, r+1, 2, colornames.Black, true)
		}
		hx, hy := g.toScreen(t.Position.Add(t.Forward().Scale(radius * 1.5)))
		vector.StrokeLine(screen, x, y, hx, hy, 2, colornames.Black, true)

		if !g.debug {
			return
		}
		arr, ok := ecs.Get(w, e, component.SensorArrayComponent.Kind())
		if !ok {
			return
		}
		for i, s := range arr.Sensors {
			origin := t.Position.Add(common.RotateYaw(s.Offset, t.Yaw))
			end := origin.Add(common.YawForward(t.Yaw + s.Angle*math.Pi/180).Scale(arr.Range(i)))
			clr := color.Color(colornames.Lime)
			if arr.HasHit && arr.Hit.Sensor == i {
				end = arr.Hit.Point
				clr = colornames.Red
			}
			x0, y0 := g.toScreen(origin)
			x1, y1 := g.toScreen(end)
			vector.StrokeLine(screen, x0, y0, x1, y1, 1, clr, true)
		}
	})
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return baseWidth, baseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}

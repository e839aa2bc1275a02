package main

import (
	"image/color"

	"github.com/ebitenui/ebitenui"
	imageui "github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/milk9111/busline/ecs"
	"github.com/milk9111/busline/ecs/component"
	"github.com/milk9111/busline/ecs/system"
	"github.com/milk9111/busline/waypoint"
	"golang.org/x/image/font/basicfont"
)

// QTEPanel shows the intersection buttons offered to the player. It is the
// simulation's presenter: the navigation system calls it only when the
// offered set changes.
type QTEPanel struct {
	game  *Game
	root  *widget.Container
	face  ebtext.Face
}

var buttonCommands = map[component.Button]system.Command{
	component.ButtonLeft:  system.CommandLeft,
	component.ButtonRight: system.CommandRight,
	component.ButtonStop:  system.CommandStop,
}

var buttonKeys = map[component.Button]string{
	component.ButtonLeft:  "[A] Left",
	component.ButtonRight: "[D] Right",
	component.ButtonStop:  "[S] Stop",
}

// NewQTEUI builds an empty panel anchored to the bottom of the screen.
func NewQTEUI(g *Game) (*QTEPanel, *ebitenui.UI) {
	root := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewAnchorLayout()),
	)
	p := &QTEPanel{
		game: g,
		root: root,
		face: ebtext.NewGoXFace(basicfont.Face7x13),
	}
	return p, &ebitenui.UI{Container: root}
}

func (p *QTEPanel) ShowButtons(_ ecs.Entity, _ waypoint.ID, buttons component.ButtonSet) {
	p.root.RemoveChildren()

	panelImg := imageui.NewNineSliceColor(color.NRGBA{A: 200})
	btnImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 255})
	btnPressed := imageui.NewNineSliceColor(color.NRGBA{R: 0x55, G: 0x55, B: 0x55, A: 255})
	btnTextColor := &widget.ButtonTextColor{Idle: color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}}

	panel := widget.NewContainer(
		widget.ContainerOpts.BackgroundImage(panelImg),
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionHorizontal),
			widget.RowLayoutOpts.Spacing(16),
			widget.RowLayoutOpts.Padding(&widget.Insets{Top: 12, Bottom: 12, Left: 20, Right: 20}),
		)),
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{
				HorizontalPosition: widget.AnchorLayoutPositionCenter,
				VerticalPosition:   widget.AnchorLayoutPositionEnd,
			}),
		),
	)

	for _, b := range buttons.Buttons() {
		cmd := buttonCommands[b]
		btn := widget.NewButton(
			widget.ButtonOpts.Image(&widget.ButtonImage{Idle: btnImg, Pressed: btnPressed}),
			widget.ButtonOpts.Text(buttonKeys[b], &p.face, btnTextColor),
			widget.ButtonOpts.WidgetOpts(widget.WidgetOpts.LayoutData(widget.RowLayoutData{Position: widget.RowLayoutPositionCenter})),
			widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
				p.game.command(cmd)
			}),
		)
		panel.AddChild(btn)
	}
	p.root.AddChild(panel)
}

func (p *QTEPanel) HideButtons(ecs.Entity) {
	p.root.RemoveChildren()
}

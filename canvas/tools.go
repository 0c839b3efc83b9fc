package canvas

import (
	"fmt"
	"math"
)

// ToolMode identifies the currently armed input behavior.
type ToolMode string

const (
	ToolSelect    ToolMode = "select"
	ToolBrush     ToolMode = "brush"
	ToolEraser    ToolMode = "eraser"
	ToolRectangle ToolMode = "rectangle"
	ToolCircle    ToolMode = "circle"
	ToolLine      ToolMode = "line"
	ToolArrow     ToolMode = "arrow"
	ToolText      ToolMode = "text"
)

// Default sizes for click-inserted shapes.
const (
	defaultShapeW   = 120.0
	defaultShapeH   = 80.0
	defaultCircleD  = 100.0
	defaultLineLen  = 120.0
	arrowheadLength = 14.0
	arrowheadSpread = 0.5
)

// placeholderText seeds newly inserted text objects.
const placeholderText = "Text"

// Tools routes pointer input to the surface according to the armed tool.
// Exactly one tool is armed at a time; switching tools cancels any gesture
// in progress, so two tools can never both act on the same stroke. Every
// pointer method is a no-op while no surface is bound, which is the normal
// state between slide transitions.
type Tools struct {
	surface *Surface
	history *History

	mode        ToolMode
	stroke      string
	fill        string
	strokeWidth float64

	pressed bool
	points  []Point
	last    Point
	erased  int
	moved   bool
}

// NewTools creates a tool state machine armed with the select tool.
func NewTools() *Tools {
	return &Tools{
		mode:        ToolSelect,
		stroke:      "#000",
		strokeWidth: 2,
	}
}

// Bind attaches the tools to a surface and its history. A nil history
// disables undo tracking.
func (t *Tools) Bind(surface *Surface, history *History) {
	t.cancelGesture()
	t.surface = surface
	t.history = history
}

// Unbind detaches the tools; subsequent pointer input is ignored.
func (t *Tools) Unbind() {
	t.cancelGesture()
	t.surface = nil
	t.history = nil
}

// Mode returns the armed tool.
func (t *Tools) Mode() ToolMode { return t.mode }

// SetMode arms a tool, tearing down the previous tool's gesture first.
func (t *Tools) SetMode(mode ToolMode) error {
	switch mode {
	case ToolSelect, ToolBrush, ToolEraser, ToolRectangle, ToolCircle, ToolLine, ToolArrow, ToolText:
	default:
		return fmt.Errorf("unknown tool mode %q", mode)
	}
	t.cancelGesture()
	t.mode = mode
	return nil
}

// SetStroke sets the active stroke color.
func (t *Tools) SetStroke(color string) { t.stroke = color }

// SetFill sets the active fill color.
func (t *Tools) SetFill(color string) { t.fill = color }

// SetStrokeWidth sets the active stroke width.
func (t *Tools) SetStrokeWidth(width float64) {
	if width > 0 {
		t.strokeWidth = width
	}
}

func (t *Tools) cancelGesture() {
	t.pressed = false
	t.points = nil
	t.erased = 0
	t.moved = false
}

func (t *Tools) ready() bool {
	return t.surface != nil && !t.surface.Disposed()
}

func (t *Tools) commit() {
	if t.history != nil && t.surface != nil {
		t.history.Push(t.surface.ExportSnapshot())
	}
}

// PointerDown begins a gesture at (x, y).
func (t *Tools) PointerDown(x, y float64) {
	if !t.ready() {
		return
	}
	t.pressed = true
	t.last = Point{X: x, Y: y}

	switch t.mode {
	case ToolBrush, ToolArrow:
		t.points = []Point{{X: x, Y: y}}
	case ToolEraser:
		t.eraseAt(x, y)
	case ToolRectangle:
		t.insertShape(&Object{
			Kind:     KindRectangle,
			Geometry: Geometry{X: x, Y: y, W: defaultShapeW, H: defaultShapeH},
			Style:    Style{Stroke: t.stroke, Fill: t.fill, StrokeWidth: t.strokeWidth},
			Erasable: true,
		})
	case ToolCircle:
		t.insertShape(&Object{
			Kind:     KindCircle,
			Geometry: Geometry{X: x, Y: y, W: defaultCircleD, H: defaultCircleD},
			Style:    Style{Stroke: t.stroke, Fill: t.fill, StrokeWidth: t.strokeWidth},
			Erasable: true,
		})
	case ToolLine:
		t.insertShape(&Object{
			Kind: KindLine,
			Geometry: Geometry{
				X: x, Y: y,
				Points: []Point{{X: x, Y: y}, {X: x + defaultLineLen, Y: y}},
			},
			Style:    Style{Stroke: t.stroke, StrokeWidth: t.strokeWidth},
			Erasable: true,
		})
	case ToolText:
		t.insertShape(&Object{
			Kind:     KindText,
			Geometry: Geometry{X: x, Y: y},
			Style:    Style{Fill: t.stroke},
			Text:     placeholderText,
			Erasable: true,
		})
	case ToolSelect:
		if hit := t.surface.ObjectAt(x, y); hit != nil {
			t.surface.Select(hit)
		} else {
			t.surface.ClearSelection()
		}
	}
}

// PointerMove continues the gesture at (x, y).
func (t *Tools) PointerMove(x, y float64) {
	if !t.ready() || !t.pressed {
		return
	}

	switch t.mode {
	case ToolBrush, ToolArrow:
		t.points = append(t.points, Point{X: x, Y: y})
	case ToolEraser:
		t.eraseAt(x, y)
	case ToolSelect:
		dx, dy := x-t.last.X, y-t.last.Y
		if dx != 0 || dy != 0 {
			for _, obj := range t.surface.Selected() {
				obj.Move(dx, dy)
			}
			if len(t.surface.Selected()) > 0 {
				t.moved = true
			}
		}
	}
	t.last = Point{X: x, Y: y}
}

// PointerUp completes the gesture at (x, y). Completed mutating gestures
// push one history entry. The arrow tool is self-terminating: its drag
// synthesizes one grouped line-plus-arrowhead object and arms select.
func (t *Tools) PointerUp(x, y float64) {
	if !t.ready() || !t.pressed {
		return
	}
	t.pressed = false

	switch t.mode {
	case ToolBrush:
		t.points = append(t.points, Point{X: x, Y: y})
		if len(t.points) >= 2 {
			path := &Object{
				Kind:     KindPath,
				Geometry: Geometry{X: t.points[0].X, Y: t.points[0].Y, Points: t.points},
				Style:    Style{Stroke: t.stroke, StrokeWidth: t.strokeWidth},
				Erasable: true,
			}
			t.surface.AddObject(path)
			t.commit()
		}
		t.points = nil
	case ToolEraser:
		if t.erased > 0 {
			t.commit()
		}
		t.erased = 0
	case ToolArrow:
		from := t.points[0]
		to := Point{X: x, Y: y}
		t.points = nil
		if arrow := makeArrow(from, to, t.stroke, t.strokeWidth); arrow != nil {
			t.surface.AddObject(arrow)
			t.commit()
		}
		t.mode = ToolSelect
	case ToolSelect:
		if t.moved {
			t.commit()
		}
		t.moved = false
	}
}

// DeleteSelection removes the selected objects, as the select tool's
// delete action, and records one history entry if anything was removed.
func (t *Tools) DeleteSelection() {
	if !t.ready() {
		return
	}
	if t.surface.DeleteSelected() > 0 {
		t.commit()
	}
}

func (t *Tools) insertShape(obj *Object) {
	t.surface.AddObject(obj)
	t.commit()
}

func (t *Tools) eraseAt(x, y float64) {
	hit := t.surface.ObjectAt(x, y)
	if hit == nil || !hit.Erasable {
		return
	}
	t.surface.RemoveObject(hit)
	t.erased++
}

// makeArrow builds the composite arrow object: a line shaft grouped with a
// triangular head at the release point. A degenerate drag returns nil.
func makeArrow(from, to Point, stroke string, width float64) *Object {
	dx, dy := to.X-from.X, to.Y-from.Y
	length := math.Hypot(dx, dy)
	if length < 1 {
		return nil
	}
	dx /= length
	dy /= length

	base1 := Point{
		X: to.X - arrowheadLength*dx + arrowheadLength*dy*arrowheadSpread,
		Y: to.Y - arrowheadLength*dy - arrowheadLength*dx*arrowheadSpread,
	}
	base2 := Point{
		X: to.X - arrowheadLength*dx - arrowheadLength*dy*arrowheadSpread,
		Y: to.Y - arrowheadLength*dy + arrowheadLength*dx*arrowheadSpread,
	}

	shaft := &Object{
		Kind:     KindLine,
		Geometry: Geometry{X: from.X, Y: from.Y, Points: []Point{from, to}},
		Style:    Style{Stroke: stroke, StrokeWidth: width},
		Erasable: true,
	}
	head := &Object{
		Kind:     KindTriangle,
		Geometry: Geometry{X: to.X, Y: to.Y, Points: []Point{to, base1, base2}},
		Style:    Style{Fill: stroke},
		Erasable: true,
	}
	return &Object{
		Kind:     KindGroup,
		Geometry: Geometry{X: from.X, Y: from.Y},
		Label:    "arrow",
		Erasable: true,
		Children: []*Object{shaft, head},
	}
}

package canvas

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// Kind identifies the shape of a drawable object.
type Kind string

const (
	KindPath      Kind = "path"
	KindRectangle Kind = "rectangle"
	KindCircle    Kind = "circle"
	KindLine      Kind = "line"
	KindTriangle  Kind = "triangle"
	KindText      Kind = "text"
	KindImage     Kind = "image"
	KindGroup     Kind = "group"
)

type (
	// Point is a single coordinate on the canvas.
	Point struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}

	// Geometry holds position, size and transform of an object. Points is
	// used by path, line and triangle kinds; W/H by the box-shaped kinds.
	Geometry struct {
		X        float64 `json:"x"`
		Y        float64 `json:"y"`
		W        float64 `json:"w,omitempty"`
		H        float64 `json:"h,omitempty"`
		Rotation float64 `json:"rotation,omitempty"`
		ScaleX   float64 `json:"scaleX,omitempty"`
		ScaleY   float64 `json:"scaleY,omitempty"`
		Points   []Point `json:"points,omitempty"`
	}

	// Style holds the visual attributes of an object. Zero Opacity is
	// treated as fully opaque so that omitted values render sensibly.
	Style struct {
		Stroke      string  `json:"stroke,omitempty"`
		Fill        string  `json:"fill,omitempty"`
		StrokeWidth float64 `json:"strokeWidth,omitempty"`
		Opacity     float64 `json:"opacity,omitempty"`
	}

	// Object is one visual primitive on a surface. A group object owns its
	// children; every other kind is a leaf. Label is a free-form tag kept
	// through serialization so callers can filter objects on export.
	Object struct {
		ID       string    `json:"id,omitempty"`
		Kind     Kind      `json:"kind"`
		Geometry Geometry  `json:"geometry"`
		Style    Style     `json:"style"`
		Label    string    `json:"label,omitempty"`
		Erasable bool      `json:"erasable"`
		Text     string    `json:"text,omitempty"`
		ImageRef string    `json:"imageRef,omitempty"`
		Children []*Object `json:"children,omitempty"`
	}

	// Rect is an axis-aligned bounding box.
	Rect struct {
		X, Y, W, H float64
	}
)

func newObjectID() string {
	return ulid.Make().String()
}

// Validate checks that the object has a known kind and the geometry that
// kind requires. Children of a group are validated transitively.
func (o *Object) Validate() error {
	switch o.Kind {
	case KindPath:
		if len(o.Geometry.Points) < 2 {
			return fmt.Errorf("path requires at least 2 points, got %d", len(o.Geometry.Points))
		}
	case KindLine:
		if len(o.Geometry.Points) != 2 {
			return fmt.Errorf("line requires exactly 2 points, got %d", len(o.Geometry.Points))
		}
	case KindTriangle:
		if len(o.Geometry.Points) != 3 {
			return fmt.Errorf("triangle requires exactly 3 points, got %d", len(o.Geometry.Points))
		}
	case KindRectangle, KindCircle, KindImage:
		if o.Geometry.W <= 0 || o.Geometry.H <= 0 {
			return fmt.Errorf("%s requires positive w and h", o.Kind)
		}
	case KindText:
		// Position only; empty text is allowed while the user edits.
	case KindGroup:
		if len(o.Children) == 0 {
			return fmt.Errorf("group requires at least one child")
		}
		for i, child := range o.Children {
			if err := child.Validate(); err != nil {
				return fmt.Errorf("child %d: %w", i, err)
			}
		}
	default:
		return fmt.Errorf("unknown object kind %q", o.Kind)
	}
	return nil
}

// Clone returns a deep copy of the object, including children and points.
func (o *Object) Clone() *Object {
	dup := *o
	if len(o.Geometry.Points) > 0 {
		dup.Geometry.Points = make([]Point, len(o.Geometry.Points))
		copy(dup.Geometry.Points, o.Geometry.Points)
	}
	if len(o.Children) > 0 {
		dup.Children = make([]*Object, len(o.Children))
		for i, child := range o.Children {
			dup.Children[i] = child.Clone()
		}
	}
	return &dup
}

// Bounds returns the axis-aligned bounding box of the object. Rotation is
// ignored; hit-testing and eraser intersection work on unrotated bounds.
func (o *Object) Bounds() Rect {
	switch o.Kind {
	case KindPath, KindLine, KindTriangle:
		return boundsOfPoints(o.Geometry.Points)
	case KindText:
		w := o.Geometry.W
		h := o.Geometry.H
		if w <= 0 {
			w = approximateTextWidth(o.Text)
		}
		if h <= 0 {
			h = defaultTextHeight
		}
		return Rect{X: o.Geometry.X, Y: o.Geometry.Y, W: w, H: h}
	case KindGroup:
		var union Rect
		for i, child := range o.Children {
			b := child.Bounds()
			if i == 0 {
				union = b
				continue
			}
			union = union.Union(b)
		}
		return union
	default:
		return Rect{X: o.Geometry.X, Y: o.Geometry.Y, W: o.Geometry.W, H: o.Geometry.H}
	}
}

func boundsOfPoints(points []Point) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Union returns the smallest rect covering both r and other.
func (r Rect) Union(other Rect) Rect {
	minX := r.X
	if other.X < minX {
		minX = other.X
	}
	minY := r.Y
	if other.Y < minY {
		minY = other.Y
	}
	maxX := r.X + r.W
	if ox := other.X + other.W; ox > maxX {
		maxX = ox
	}
	maxY := r.Y + r.H
	if oy := other.Y + other.H; oy > maxY {
		maxY = oy
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Contains reports whether the point (x, y) lies inside the rect.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

// Move translates the object (and any children) by (dx, dy).
func (o *Object) Move(dx, dy float64) {
	o.Geometry.X += dx
	o.Geometry.Y += dy
	for i := range o.Geometry.Points {
		o.Geometry.Points[i].X += dx
		o.Geometry.Points[i].Y += dy
	}
	for _, child := range o.Children {
		child.Move(dx, dy)
	}
}

const defaultTextHeight = 24.0

func approximateTextWidth(text string) float64 {
	// Rough monospace estimate used only for hit-testing unsized text.
	return float64(len(text)) * 12.0
}

package canvas

import (
	"testing"
)

func TestBoundsOfPointKinds(t *testing.T) {
	path := &Object{
		Kind:     KindPath,
		Geometry: Geometry{Points: []Point{{X: 30, Y: 5}, {X: 10, Y: 25}, {X: 50, Y: 15}}},
	}
	b := path.Bounds()
	want := Rect{X: 10, Y: 5, W: 40, H: 20}
	if b != want {
		t.Errorf("Expected bounds %+v, got %+v", want, b)
	}
}

func TestBoundsOfGroupUnionsChildren(t *testing.T) {
	group := &Object{
		Kind: KindGroup,
		Children: []*Object{
			{Kind: KindRectangle, Geometry: Geometry{X: 0, Y: 0, W: 10, H: 10}},
			{Kind: KindRectangle, Geometry: Geometry{X: 40, Y: 40, W: 10, H: 10}},
		},
	}
	b := group.Bounds()
	want := Rect{X: 0, Y: 0, W: 50, H: 50}
	if b != want {
		t.Errorf("Expected bounds %+v, got %+v", want, b)
	}
}

func TestBoundsOfUnsizedText(t *testing.T) {
	text := &Object{Kind: KindText, Geometry: Geometry{X: 5, Y: 5}, Text: "abc"}
	b := text.Bounds()
	if b.W <= 0 || b.H <= 0 {
		t.Errorf("Expected a hit-testable box for unsized text, got %+v", b)
	}
	if !b.Contains(6, 6) {
		t.Error("Expected the text origin corner to be inside the bounds")
	}
}

func TestMoveTranslatesPointsAndChildren(t *testing.T) {
	group := &Object{
		Kind:     KindGroup,
		Geometry: Geometry{X: 0, Y: 0},
		Children: []*Object{
			{
				Kind:     KindLine,
				Geometry: Geometry{X: 0, Y: 0, Points: []Point{{X: 0, Y: 0}, {X: 10, Y: 10}}},
			},
		},
	}

	group.Move(5, -3)

	if group.Geometry.X != 5 || group.Geometry.Y != -3 {
		t.Errorf("Expected group origin (5, -3), got (%v, %v)", group.Geometry.X, group.Geometry.Y)
	}
	child := group.Children[0]
	if child.Geometry.Points[0] != (Point{X: 5, Y: -3}) {
		t.Errorf("Expected first child point (5, -3), got %+v", child.Geometry.Points[0])
	}
	if child.Geometry.Points[1] != (Point{X: 15, Y: 7}) {
		t.Errorf("Expected second child point (15, 7), got %+v", child.Geometry.Points[1])
	}
}

func TestValidateRequiresKindGeometry(t *testing.T) {
	valid := []*Object{
		{Kind: KindPath, Geometry: Geometry{Points: []Point{{}, {X: 1}}}},
		{Kind: KindLine, Geometry: Geometry{Points: []Point{{}, {X: 1}}}},
		{Kind: KindTriangle, Geometry: Geometry{Points: []Point{{}, {X: 1}, {Y: 1}}}},
		{Kind: KindRectangle, Geometry: Geometry{W: 1, H: 1}},
		{Kind: KindCircle, Geometry: Geometry{W: 1, H: 1}},
		{Kind: KindImage, Geometry: Geometry{W: 1, H: 1}},
		{Kind: KindText},
		{Kind: KindGroup, Children: []*Object{{Kind: KindText}}},
	}
	for _, obj := range valid {
		if err := obj.Validate(); err != nil {
			t.Errorf("Expected %q to validate, got %v", obj.Kind, err)
		}
	}

	invalid := []*Object{
		{Kind: KindPath, Geometry: Geometry{Points: []Point{{}}}},
		{Kind: KindLine, Geometry: Geometry{Points: []Point{{}, {X: 1}, {Y: 2}}}},
		{Kind: KindTriangle, Geometry: Geometry{Points: []Point{{}, {X: 1}}}},
		{Kind: KindRectangle},
		{Kind: KindCircle, Geometry: Geometry{W: 5}},
		{Kind: KindGroup},
		{Kind: KindGroup, Children: []*Object{{Kind: "bogus"}}},
		{Kind: "bogus"},
		{},
	}
	for _, obj := range invalid {
		if err := obj.Validate(); err == nil {
			t.Errorf("Expected %q with geometry %+v to fail validation", obj.Kind, obj.Geometry)
		}
	}
}

package canvas

import (
	"errors"
	"testing"
)

func testRect(x, y, w, h float64) *Object {
	return &Object{
		Kind:     KindRectangle,
		Geometry: Geometry{X: x, Y: y, W: w, H: h},
		Style:    Style{Fill: "#000"},
		Erasable: true,
	}
}

func TestNewSurfaceRejectsBadDimensions(t *testing.T) {
	for _, dims := range [][2]int{{0, 600}, {800, 0}, {-1, 600}, {800, -5}} {
		_, err := NewSurface(dims[0], dims[1], "#fff")
		var initErr *InitializationError
		if !errors.As(err, &initErr) {
			t.Errorf("Expected *InitializationError for %dx%d, got %v", dims[0], dims[1], err)
		}
	}
}

func TestNewSurfaceDefaultsBackground(t *testing.T) {
	surface, err := NewSurface(800, 600, "")
	if err != nil {
		t.Fatalf("NewSurface failed: %v", err)
	}
	if surface.Background() != "#fff" {
		t.Errorf("Expected default background #fff, got %q", surface.Background())
	}
}

func TestAddObjectAssignsIDAndSelects(t *testing.T) {
	surface, _ := NewSurface(800, 600, "#fff")
	handle := surface.AddObject(testRect(10, 10, 50, 50))

	if handle == nil {
		t.Fatal("Expected AddObject to return a handle")
	}
	if handle.ID == "" {
		t.Error("Expected AddObject to assign an ID")
	}
	if surface.ObjectCount() != 1 {
		t.Errorf("Expected 1 object, got %d", surface.ObjectCount())
	}
	selected := surface.Selected()
	if len(selected) != 1 || selected[0] != handle {
		t.Error("Expected the new object to be selected")
	}
}

func TestRemoveObjectStaleHandleIsNoop(t *testing.T) {
	surface, _ := NewSurface(800, 600, "#fff")
	handle := surface.AddObject(testRect(10, 10, 50, 50))

	surface.RemoveObject(handle)
	if surface.ObjectCount() != 0 {
		t.Fatalf("Expected 0 objects after removal, got %d", surface.ObjectCount())
	}
	if len(surface.Selected()) != 0 {
		t.Error("Expected removal to clear the selection")
	}

	// Removing again with the now-stale handle must not change anything.
	other := surface.AddObject(testRect(20, 20, 30, 30))
	surface.RemoveObject(handle)
	if surface.ObjectCount() != 1 {
		t.Errorf("Expected stale handle removal to be a no-op, got %d objects", surface.ObjectCount())
	}
	if surface.Objects()[0] != other {
		t.Error("Expected the remaining object to be untouched")
	}
}

func TestObjectAtPicksTopmost(t *testing.T) {
	surface, _ := NewSurface(800, 600, "#fff")
	bottom := surface.AddObject(testRect(0, 0, 100, 100))
	top := surface.AddObject(testRect(50, 50, 100, 100))

	if hit := surface.ObjectAt(75, 75); hit != top {
		t.Error("Expected the overlap to hit the topmost object")
	}
	if hit := surface.ObjectAt(10, 10); hit != bottom {
		t.Error("Expected the uncovered area to hit the bottom object")
	}
	if hit := surface.ObjectAt(500, 500); hit != nil {
		t.Error("Expected empty space to hit nothing")
	}
}

func TestObjectAtGroupUsesChildUnion(t *testing.T) {
	surface, _ := NewSurface(800, 600, "#fff")
	group := surface.AddObject(&Object{
		Kind:     KindGroup,
		Erasable: true,
		Children: []*Object{
			testRect(0, 0, 10, 10),
			testRect(90, 90, 10, 10),
		},
	})

	if hit := surface.ObjectAt(50, 50); hit != group {
		t.Error("Expected a point inside the union of child bounds to hit the group")
	}
}

func TestDeleteSelected(t *testing.T) {
	surface, _ := NewSurface(800, 600, "#fff")
	a := surface.AddObject(testRect(0, 0, 10, 10))
	b := surface.AddObject(testRect(20, 0, 10, 10))
	keep := surface.AddObject(testRect(40, 0, 10, 10))
	surface.Select(a, b)

	if n := surface.DeleteSelected(); n != 2 {
		t.Errorf("Expected 2 deletions, got %d", n)
	}
	if surface.ObjectCount() != 1 || surface.Objects()[0] != keep {
		t.Error("Expected only the unselected object to survive")
	}
	if n := surface.DeleteSelected(); n != 0 {
		t.Errorf("Expected 0 deletions with empty selection, got %d", n)
	}
}

func TestSelectIgnoresForeignHandles(t *testing.T) {
	surface, _ := NewSurface(800, 600, "#fff")
	owned := surface.AddObject(testRect(0, 0, 10, 10))
	foreign := testRect(50, 50, 10, 10)

	surface.Select(owned, foreign)
	selected := surface.Selected()
	if len(selected) != 1 || selected[0] != owned {
		t.Errorf("Expected only the owned handle in selection, got %d entries", len(selected))
	}
}

func TestLoadSnapshotKeepsPriorStateOnFailure(t *testing.T) {
	surface, _ := NewSurface(800, 600, "#fff")
	surface.AddObject(testRect(10, 10, 50, 50))

	bad := &Snapshot{
		Width:      400,
		Height:     300,
		Background: "#eee",
		Objects:    []*Object{{Kind: "nonsense"}},
	}
	if err := surface.LoadSnapshot(bad); err == nil {
		t.Fatal("Expected LoadSnapshot to reject the invalid snapshot")
	}

	if surface.Width() != 800 || surface.Height() != 600 {
		t.Errorf("Expected dimensions to stay 800x600, got %dx%d", surface.Width(), surface.Height())
	}
	if surface.ObjectCount() != 1 {
		t.Errorf("Expected prior objects to survive a failed load, got %d", surface.ObjectCount())
	}
}

func TestLoadSnapshotReplacesStateAtomically(t *testing.T) {
	surface, _ := NewSurface(800, 600, "#fff")
	surface.AddObject(testRect(10, 10, 50, 50))
	surface.AddObject(testRect(20, 20, 50, 50))

	snap := &Snapshot{
		Width:      1024,
		Height:     768,
		Background: "#333",
		Objects:    []*Object{testRect(0, 0, 5, 5)},
	}
	if err := surface.LoadSnapshot(snap); err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if surface.Width() != 1024 || surface.Height() != 768 {
		t.Errorf("Expected 1024x768, got %dx%d", surface.Width(), surface.Height())
	}
	if surface.ObjectCount() != 1 {
		t.Errorf("Expected 1 object after load, got %d", surface.ObjectCount())
	}
	if len(surface.Selected()) != 0 {
		t.Error("Expected load to clear the selection")
	}

	// The surface owns copies; mutating the source snapshot afterwards
	// must not reach the loaded objects.
	snap.Objects[0].Geometry.X = 999
	if surface.Objects()[0].Geometry.X == 999 {
		t.Error("Expected the surface to own deep copies of loaded objects")
	}
}

func TestExportSnapshotIsolation(t *testing.T) {
	surface, _ := NewSurface(800, 600, "#fff")
	handle := surface.AddObject(testRect(10, 10, 50, 50))

	snap := surface.ExportSnapshot()
	handle.Geometry.X = 500

	if snap.Objects[0].Geometry.X != 10 {
		t.Errorf("Expected exported snapshot to be immune to later edits, got x=%v", snap.Objects[0].Geometry.X)
	}
}

func TestDisposeIsIdempotent(t *testing.T) {
	surface, _ := NewSurface(800, 600, "#fff")
	surface.AddObject(testRect(10, 10, 50, 50))

	surface.Dispose()
	surface.Dispose()
	surface.Dispose()

	if !surface.Disposed() {
		t.Error("Expected surface to report disposed")
	}
	if surface.ObjectCount() != 0 {
		t.Error("Expected dispose to release objects")
	}
	if handle := surface.AddObject(testRect(0, 0, 10, 10)); handle != nil {
		t.Error("Expected AddObject on a disposed surface to be a no-op")
	}
	if err := surface.LoadSnapshot(snapWithCount(1)); !errors.Is(err, ErrDisposed) {
		t.Errorf("Expected ErrDisposed from LoadSnapshot, got %v", err)
	}
}

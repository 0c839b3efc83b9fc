package canvas

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Surface is the live, mutable canvas state for exactly one slide. It owns
// its objects exclusively; selection holds weak references into the object
// sequence. Z-order is the sequence order, first object at the bottom.
//
// A surface is not safe for concurrent use. The editor runs it from a single
// event loop; Session serializes all access.
type Surface struct {
	width      int
	height     int
	background string
	objects    []*Object
	selection  []*Object
	disposed   bool
}

// NewSurface allocates an empty surface. It fails with an
// *InitializationError when the requested dimensions cannot back a
// rendering context.
func NewSurface(width, height int, background string) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, &InitializationError{Reason: fmt.Sprintf("invalid dimensions %dx%d", width, height)}
	}
	if background == "" {
		background = "#fff"
	}
	return &Surface{
		width:      width,
		height:     height,
		background: background,
	}, nil
}

func (s *Surface) Width() int          { return s.width }
func (s *Surface) Height() int         { return s.height }
func (s *Surface) Background() string  { return s.background }
func (s *Surface) Disposed() bool      { return s.disposed }
func (s *Surface) ObjectCount() int    { return len(s.objects) }
func (s *Surface) Objects() []*Object  { return s.objects }
func (s *Surface) Selected() []*Object { return s.selection }

// AddObject appends the object to the top of the z-order and makes it the
// active selection. An ID is assigned if the object does not carry one. The
// returned pointer is the object's handle for later removal or selection.
func (s *Surface) AddObject(obj *Object) *Object {
	if s.disposed || obj == nil {
		return nil
	}
	if obj.ID == "" {
		obj.ID = newObjectID()
	}
	s.objects = append(s.objects, obj)
	s.selection = []*Object{obj}
	return obj
}

// RemoveObject removes the object identified by the handle. A stale or
// unknown handle is a no-op. Removing a selected object clears it from the
// selection.
func (s *Surface) RemoveObject(handle *Object) {
	if s.disposed || handle == nil {
		return
	}
	for i, obj := range s.objects {
		if obj == handle {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			s.deselect(handle)
			return
		}
	}
}

func (s *Surface) deselect(handle *Object) {
	for i, sel := range s.selection {
		if sel == handle {
			s.selection = append(s.selection[:i], s.selection[i+1:]...)
			return
		}
	}
}

// ObjectAt returns the topmost object whose bounds contain (x, y), or nil.
func (s *Surface) ObjectAt(x, y float64) *Object {
	for i := len(s.objects) - 1; i >= 0; i-- {
		if s.objects[i].Bounds().Contains(x, y) {
			return s.objects[i]
		}
	}
	return nil
}

// Select replaces the current selection. Handles not owned by the surface
// are ignored.
func (s *Surface) Select(handles ...*Object) {
	if s.disposed {
		return
	}
	s.selection = s.selection[:0]
	for _, handle := range handles {
		for _, obj := range s.objects {
			if obj == handle {
				s.selection = append(s.selection, handle)
				break
			}
		}
	}
}

// ClearSelection drops all selection references without touching objects.
func (s *Surface) ClearSelection() {
	s.selection = s.selection[:0]
}

// DeleteSelected removes every selected object and returns how many were
// removed.
func (s *Surface) DeleteSelected() int {
	if s.disposed || len(s.selection) == 0 {
		return 0
	}
	doomed := make([]*Object, len(s.selection))
	copy(doomed, s.selection)
	for _, handle := range doomed {
		s.RemoveObject(handle)
	}
	return len(doomed)
}

// LoadSnapshot clears the surface and repopulates it from the snapshot.
// The snapshot is validated up front: on failure the surface keeps its
// prior state untouched, never a half-populated one.
func (s *Surface) LoadSnapshot(snap *Snapshot) error {
	if s.disposed {
		return ErrDisposed
	}
	if snap == nil {
		return &DeserializationError{Index: -1, Err: fmt.Errorf("snapshot is nil")}
	}
	if err := snap.Validate(); err != nil {
		logrus.WithError(err).Warn("Rejected malformed snapshot")
		return err
	}
	loaded := snap.Clone()
	s.width = loaded.Width
	s.height = loaded.Height
	s.background = loaded.Background
	s.objects = loaded.Objects
	s.selection = nil
	return nil
}

// ExportSnapshot produces an immutable snapshot of current state. The
// surface is not modified and later surface mutations never leak into the
// returned snapshot.
func (s *Surface) ExportSnapshot() *Snapshot {
	snap := &Snapshot{
		Width:      s.width,
		Height:     s.height,
		Background: s.background,
		Objects:    make([]*Object, len(s.objects)),
	}
	for i, obj := range s.objects {
		snap.Objects[i] = obj.Clone()
	}
	return snap
}

// ExportRaster renders the current visible state through the renderer.
// The output is deterministic for identical surface state.
func (s *Surface) ExportRaster(r Renderer, opts RasterOptions) ([]byte, error) {
	if s.disposed {
		return nil, ErrDisposed
	}
	return r.Render(s.ExportSnapshot(), opts)
}

// Dispose releases the surface. All objects and selection references are
// dropped and every subsequent mutation becomes a no-op. Dispose is
// idempotent.
func (s *Surface) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.objects = nil
	s.selection = nil
}

package canvas

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

type (
	// SnapshotFetcher loads the persisted snapshot bytes for a slide. It
	// may block (network, disk); a nil fetcher or nil bytes means the
	// slide has no saved drawing yet.
	SnapshotFetcher func(ctx context.Context) ([]byte, error)

	// SaveResult carries both artifacts of a save: the structured
	// snapshot plus its encoded JSON, and the rendered raster preview.
	// The caller owns persistence of both.
	SaveResult struct {
		SlideID  string
		Snapshot *Snapshot
		Encoded  []byte
		Raster   []byte
	}

	// Session is the bridge between the live surface and the externally
	// owned slide record. It keeps exactly one surface active, disposes
	// the previous surface before constructing the next, and tags every
	// asynchronous load and save with a generation counter so results
	// that straggle in after a slide switch are discarded instead of
	// mutating a surface that is no longer current.
	Session struct {
		mu         sync.Mutex
		width      int
		height     int
		background string
		renderer   Renderer

		surface    *Surface
		tools      *Tools
		history    *History
		slideID    string
		generation uint64
		saving     bool
	}
)

// NewSession creates a session that sizes every surface to the standard
// slide canvas dimensions.
func NewSession(width, height int, background string, renderer Renderer) (*Session, error) {
	if width <= 0 || height <= 0 {
		return nil, &InitializationError{Reason: "invalid slide dimensions"}
	}
	return &Session{
		width:      width,
		height:     height,
		background: background,
		renderer:   renderer,
		tools:      NewTools(),
	}, nil
}

// Tools exposes the tool state machine bound to the active surface.
func (s *Session) Tools() *Tools { return s.tools }

// SlideID returns the identity of the currently active slide.
func (s *Session) SlideID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slideID
}

// Surface returns the active surface, or nil between slides.
func (s *Session) Surface() *Surface {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface
}

// ActivateSlide makes slideID the active slide. The previous surface is
// disposed before the new one is initialized. When fetch is non-nil the
// persisted snapshot is loaded into the fresh surface; a fetch or decode
// failure leaves the surface empty and usable, with the error returned for
// logging. A load that completes after another ActivateSlide call has taken
// over returns ErrStale and changes nothing.
func (s *Session) ActivateSlide(ctx context.Context, slideID string, fetch SnapshotFetcher) error {
	s.mu.Lock()
	s.generation++
	generation := s.generation

	if s.surface != nil {
		s.tools.Unbind()
		s.surface.Dispose()
		s.surface = nil
	}

	surface, err := NewSurface(s.width, s.height, s.background)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.surface = surface
	s.slideID = slideID
	s.history = NewHistory(DefaultHistoryLimit, surface.ExportSnapshot())
	s.tools.Bind(surface, s.history)
	s.mu.Unlock()

	if fetch == nil {
		return nil
	}

	data, fetchErr := fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation {
		// A newer slide took over while the fetch was in flight.
		logrus.WithField("slide_id", slideID).Debug("Discarding stale snapshot load")
		return ErrStale
	}
	if fetchErr != nil {
		logrus.WithFields(logrus.Fields{"slide_id": slideID, "error": fetchErr}).Warn("Snapshot fetch failed, starting from empty surface")
		return fetchErr
	}
	if len(data) == 0 {
		return nil
	}

	snap, decodeErr := DecodeSnapshot(data)
	if decodeErr != nil {
		logrus.WithFields(logrus.Fields{"slide_id": slideID, "error": decodeErr}).Warn("Snapshot decode failed, starting from empty surface")
		return decodeErr
	}
	if err := s.surface.LoadSnapshot(snap); err != nil {
		return err
	}
	s.history.Reset(s.surface.ExportSnapshot())
	return nil
}

// Deactivate disposes the active surface without activating another slide.
func (s *Session) Deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if s.surface != nil {
		s.tools.Unbind()
		s.surface.Dispose()
		s.surface = nil
	}
	s.slideID = ""
	s.history = nil
}

// Save exports the active surface as snapshot plus raster. Only one save
// may be in flight at a time; re-entrant calls fail with ErrSaveInProgress.
// A save that finishes after the active slide changed returns ErrStale and
// its artifacts must be discarded.
func (s *Session) Save(ctx context.Context, opts RasterOptions) (*SaveResult, error) {
	s.mu.Lock()
	if s.surface == nil {
		s.mu.Unlock()
		return nil, ErrDisposed
	}
	if s.saving {
		s.mu.Unlock()
		return nil, ErrSaveInProgress
	}
	s.saving = true
	generation := s.generation
	slideID := s.slideID
	snap := s.surface.ExportSnapshot()
	s.mu.Unlock()

	// Rendering happens outside the lock; pointer input stays responsive
	// while a large slide rasterizes.
	raster, renderErr := s.renderer.Render(snap, opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.generation != generation {
		logrus.WithField("slide_id", slideID).Debug("Discarding stale save result")
		return nil, ErrStale
	}
	if renderErr != nil {
		return nil, renderErr
	}

	encoded, err := snap.Encode()
	if err != nil {
		return nil, err
	}
	return &SaveResult{
		SlideID:  slideID,
		Snapshot: snap,
		Encoded:  encoded,
		Raster:   raster,
	}, nil
}

// Undo restores the previous history entry on the active surface. It
// reports whether anything changed.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.surface == nil || s.history == nil {
		return false
	}
	snap, ok := s.history.Undo()
	if !ok {
		return false
	}
	return s.surface.LoadSnapshot(snap) == nil
}

// Redo restores the next history entry on the active surface.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.surface == nil || s.history == nil {
		return false
	}
	snap, ok := s.history.Redo()
	if !ok {
		return false
	}
	return s.surface.LoadSnapshot(snap) == nil
}

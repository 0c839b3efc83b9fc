package canvas

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// stubRenderer produces a fixed payload and can optionally block until
// released, to hold a save in flight.
type stubRenderer struct {
	started chan struct{}
	release chan struct{}
	err     error
}

func (r *stubRenderer) Render(snap *Snapshot, opts RasterOptions) ([]byte, error) {
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.release != nil {
		<-r.release
	}
	if r.err != nil {
		return nil, r.err
	}
	return []byte(fmt.Sprintf("raster:%dx%d:%d", snap.Width, snap.Height, len(snap.Objects))), nil
}

func TestNewSessionRejectsBadDimensions(t *testing.T) {
	_, err := NewSession(0, 600, "#fff", &stubRenderer{})
	var initErr *InitializationError
	if !errors.As(err, &initErr) {
		t.Errorf("Expected *InitializationError, got %v", err)
	}
}

func TestActivateSlideLoadsPersistedSnapshot(t *testing.T) {
	session, err := NewSession(800, 600, "#fff", &stubRenderer{})
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	stored, _ := snapWithCount(3).Encode()
	fetch := func(ctx context.Context) ([]byte, error) { return stored, nil }

	if err := session.ActivateSlide(context.Background(), "slide-1", fetch); err != nil {
		t.Fatalf("ActivateSlide failed: %v", err)
	}

	if session.SlideID() != "slide-1" {
		t.Errorf("Expected slide-1 active, got %q", session.SlideID())
	}
	if got := session.Surface().ObjectCount(); got != 3 {
		t.Errorf("Expected 3 loaded objects, got %d", got)
	}
}

func TestActivateSlideWithoutFetchStartsEmpty(t *testing.T) {
	session, _ := NewSession(800, 600, "#fff", &stubRenderer{})
	if err := session.ActivateSlide(context.Background(), "slide-1", nil); err != nil {
		t.Fatalf("ActivateSlide failed: %v", err)
	}
	if got := session.Surface().ObjectCount(); got != 0 {
		t.Errorf("Expected an empty surface, got %d objects", got)
	}
}

func TestActivateSlideFetchFailureLeavesUsableSurface(t *testing.T) {
	session, _ := NewSession(800, 600, "#fff", &stubRenderer{})
	fetchErr := errors.New("store unavailable")
	fetch := func(ctx context.Context) ([]byte, error) { return nil, fetchErr }

	if err := session.ActivateSlide(context.Background(), "slide-1", fetch); !errors.Is(err, fetchErr) {
		t.Fatalf("Expected the fetch error back, got %v", err)
	}

	// The surface is empty but fully editable.
	surface := session.Surface()
	if surface == nil || surface.Disposed() {
		t.Fatal("Expected a live surface after a failed fetch")
	}
	if surface.AddObject(testRect(10, 10, 50, 50)) == nil {
		t.Error("Expected the surface to accept edits after a failed fetch")
	}
}

func TestActivateSlideDecodeFailureLeavesUsableSurface(t *testing.T) {
	session, _ := NewSession(800, 600, "#fff", &stubRenderer{})
	fetch := func(ctx context.Context) ([]byte, error) { return []byte("{broken"), nil }

	err := session.ActivateSlide(context.Background(), "slide-1", fetch)
	var deserr *DeserializationError
	if !errors.As(err, &deserr) {
		t.Fatalf("Expected *DeserializationError, got %v", err)
	}
	if session.Surface() == nil || session.Surface().Disposed() {
		t.Fatal("Expected a live empty surface after a decode failure")
	}
}

func TestActivateSlideDiscardsStaleLoad(t *testing.T) {
	session, _ := NewSession(800, 600, "#fff", &stubRenderer{})

	started := make(chan struct{})
	release := make(chan struct{})
	stored, _ := snapWithCount(5).Encode()
	slowFetch := func(ctx context.Context) ([]byte, error) {
		close(started)
		<-release
		return stored, nil
	}

	result := make(chan error, 1)
	go func() {
		result <- session.ActivateSlide(context.Background(), "slide-old", slowFetch)
	}()

	<-started
	// Navigate away while the old slide's snapshot is still in flight.
	if err := session.ActivateSlide(context.Background(), "slide-new", nil); err != nil {
		t.Fatalf("ActivateSlide failed: %v", err)
	}
	close(release)

	select {
	case err := <-result:
		if !errors.Is(err, ErrStale) {
			t.Errorf("Expected ErrStale from the superseded load, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for the stale load to finish")
	}

	if session.SlideID() != "slide-new" {
		t.Errorf("Expected slide-new active, got %q", session.SlideID())
	}
	if got := session.Surface().ObjectCount(); got != 0 {
		t.Errorf("Expected the stale snapshot to be discarded, got %d objects", got)
	}
}

func TestActivateSlideDisposesPreviousSurface(t *testing.T) {
	session, _ := NewSession(800, 600, "#fff", &stubRenderer{})
	session.ActivateSlide(context.Background(), "slide-1", nil)
	first := session.Surface()

	session.ActivateSlide(context.Background(), "slide-2", nil)

	if !first.Disposed() {
		t.Error("Expected the previous surface to be disposed")
	}
	if session.Surface() == first {
		t.Error("Expected a fresh surface for the new slide")
	}
}

func TestSaveProducesSnapshotAndRaster(t *testing.T) {
	session, _ := NewSession(800, 600, "#fff", &stubRenderer{})
	session.ActivateSlide(context.Background(), "slide-1", nil)
	session.Surface().AddObject(testRect(10, 10, 50, 50))

	result, err := session.Save(context.Background(), RasterOptions{Format: FormatPNG})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if result.SlideID != "slide-1" {
		t.Errorf("Expected slide-1 in the result, got %q", result.SlideID)
	}
	if len(result.Snapshot.Objects) != 1 {
		t.Errorf("Expected 1 object in the saved snapshot, got %d", len(result.Snapshot.Objects))
	}
	if len(result.Encoded) == 0 || len(result.Raster) == 0 {
		t.Error("Expected both encoded snapshot and raster payloads")
	}

	decoded, err := DecodeSnapshot(result.Encoded)
	if err != nil {
		t.Fatalf("Saved snapshot does not round-trip: %v", err)
	}
	if decoded.Width != 800 || decoded.Height != 600 {
		t.Errorf("Expected 800x600 in the saved snapshot, got %dx%d", decoded.Width, decoded.Height)
	}
}

func TestSaveRejectsReentrantCall(t *testing.T) {
	renderer := &stubRenderer{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	session, _ := NewSession(800, 600, "#fff", renderer)
	session.ActivateSlide(context.Background(), "slide-1", nil)

	result := make(chan error, 1)
	go func() {
		_, err := session.Save(context.Background(), RasterOptions{})
		result <- err
	}()

	<-renderer.started
	if _, err := session.Save(context.Background(), RasterOptions{}); !errors.Is(err, ErrSaveInProgress) {
		t.Errorf("Expected ErrSaveInProgress, got %v", err)
	}
	close(renderer.release)

	if err := <-result; err != nil {
		t.Errorf("Expected the first save to succeed, got %v", err)
	}

	// With the first save finished a new one is allowed again.
	renderer.started = nil
	renderer.release = nil
	if _, err := session.Save(context.Background(), RasterOptions{}); err != nil {
		t.Errorf("Expected a follow-up save to succeed, got %v", err)
	}
}

func TestSaveDiscardsStaleResult(t *testing.T) {
	renderer := &stubRenderer{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	session, _ := NewSession(800, 600, "#fff", renderer)
	session.ActivateSlide(context.Background(), "slide-old", nil)

	result := make(chan error, 1)
	go func() {
		_, err := session.Save(context.Background(), RasterOptions{})
		result <- err
	}()

	<-renderer.started
	// Navigate away while the render is still in flight, then let the
	// save finish.
	if err := session.ActivateSlide(context.Background(), "slide-new", nil); err != nil {
		t.Fatalf("ActivateSlide failed: %v", err)
	}
	close(renderer.release)

	if err := <-result; !errors.Is(err, ErrStale) {
		t.Errorf("Expected ErrStale from the superseded save, got %v", err)
	}
}

func TestSaveWithoutActiveSlide(t *testing.T) {
	session, _ := NewSession(800, 600, "#fff", &stubRenderer{})
	if _, err := session.Save(context.Background(), RasterOptions{}); !errors.Is(err, ErrDisposed) {
		t.Errorf("Expected ErrDisposed with no active slide, got %v", err)
	}
}

func TestSaveHonorsContextCancellation(t *testing.T) {
	renderer := &stubRenderer{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	session, _ := NewSession(800, 600, "#fff", renderer)
	session.ActivateSlide(context.Background(), "slide-1", nil)

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		_, err := session.Save(ctx, RasterOptions{})
		result <- err
	}()

	<-renderer.started
	cancel()
	close(renderer.release)

	if err := <-result; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestSessionUndoRedo(t *testing.T) {
	session, _ := NewSession(800, 600, "#fff", &stubRenderer{})
	session.ActivateSlide(context.Background(), "slide-1", nil)

	tools := session.Tools()
	tools.SetMode(ToolRectangle)
	tools.PointerDown(100, 100)
	tools.PointerUp(100, 100)
	tools.PointerDown(300, 100)
	tools.PointerUp(300, 100)

	if got := session.Surface().ObjectCount(); got != 2 {
		t.Fatalf("Expected 2 objects, got %d", got)
	}

	if !session.Undo() {
		t.Fatal("Expected undo to succeed")
	}
	if got := session.Surface().ObjectCount(); got != 1 {
		t.Errorf("Expected 1 object after undo, got %d", got)
	}

	if !session.Undo() {
		t.Fatal("Expected second undo to succeed")
	}
	if got := session.Surface().ObjectCount(); got != 0 {
		t.Errorf("Expected 0 objects after undoing everything, got %d", got)
	}
	if session.Undo() {
		t.Error("Expected undo to fail at the base state")
	}

	if !session.Redo() {
		t.Fatal("Expected redo to succeed")
	}
	if got := session.Surface().ObjectCount(); got != 1 {
		t.Errorf("Expected 1 object after redo, got %d", got)
	}
}

func TestDeactivateDisposesSurface(t *testing.T) {
	session, _ := NewSession(800, 600, "#fff", &stubRenderer{})
	session.ActivateSlide(context.Background(), "slide-1", nil)
	surface := session.Surface()

	session.Deactivate()

	if !surface.Disposed() {
		t.Error("Expected the surface to be disposed")
	}
	if session.Surface() != nil {
		t.Error("Expected no active surface after deactivation")
	}
	if session.Undo() || session.Redo() {
		t.Error("Expected undo and redo to be no-ops after deactivation")
	}
}

package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"slideforge/core"
)

func newTestStore(t *testing.T) core.DeckStore {
	t.Helper()
	if !CGOEnabled {
		t.Skip("sqlite store requires cgo")
	}
	return NewDeckStore(filepath.Join(t.TempDir(), "test.db"))
}

func TestDeckLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	deck, err := store.CreateDeck(ctx, "Sqlite Deck")
	if err != nil {
		t.Fatalf("CreateDeck failed: %v", err)
	}

	got, err := store.GetDeck(ctx, deck.ID)
	if err != nil {
		t.Fatalf("GetDeck failed: %v", err)
	}
	if got.Name != "Sqlite Deck" {
		t.Errorf("Expected name to round-trip, got %q", got.Name)
	}

	decks, err := store.ListDecks(ctx)
	if err != nil {
		t.Fatalf("ListDecks failed: %v", err)
	}
	if len(decks) != 1 {
		t.Fatalf("Expected 1 deck, got %d", len(decks))
	}

	if err := store.DeleteDeck(ctx, deck.ID); err != nil {
		t.Fatalf("DeleteDeck failed: %v", err)
	}
	if _, err := store.GetDeck(ctx, deck.ID); err == nil {
		t.Error("Expected the deck to be gone")
	}
	if err := store.DeleteDeck(ctx, deck.ID); err == nil {
		t.Error("Expected an error deleting a missing deck")
	}
}

func TestSlideUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	deck, _ := store.CreateDeck(ctx, "Deck")
	slide := &core.Slide{
		DeckID:    deck.ID,
		Position:  1,
		Snapshot:  json.RawMessage(`{"width":800,"height":600,"background":"#fff","objects":[]}`),
		Thumbnail: []byte{0x89, 0x50},
	}

	if err := store.SaveSlide(ctx, slide); err != nil {
		t.Fatalf("SaveSlide failed: %v", err)
	}
	if slide.ID == "" {
		t.Fatal("Expected an assigned slide ID")
	}

	created := slide.CreatedAt
	slide.Position = 4
	slide.Snapshot = json.RawMessage(`{"width":800,"height":600,"background":"#000","objects":[]}`)
	if err := store.SaveSlide(ctx, slide); err != nil {
		t.Fatalf("SaveSlide update failed: %v", err)
	}

	got, err := store.GetSlide(ctx, deck.ID, slide.ID)
	if err != nil {
		t.Fatalf("GetSlide failed: %v", err)
	}
	if got.Position != 4 {
		t.Errorf("Expected position 4, got %d", got.Position)
	}
	if string(got.Snapshot) != string(slide.Snapshot) {
		t.Error("Expected the updated snapshot to be stored")
	}
	if !got.CreatedAt.Equal(created) {
		t.Error("Expected CreatedAt to survive the upsert")
	}

	slides, err := store.ListSlides(ctx, deck.ID)
	if err != nil {
		t.Fatalf("ListSlides failed: %v", err)
	}
	if len(slides) != 1 {
		t.Fatalf("Expected 1 slide, got %d", len(slides))
	}
	if slides[0].Snapshot != nil {
		t.Error("Expected list responses to omit the snapshot payload")
	}
	if len(slides[0].Thumbnail) == 0 {
		t.Error("Expected list responses to include thumbnails")
	}
}

func TestSaveSlideRequiresDeck(t *testing.T) {
	store := newTestStore(t)
	if err := store.SaveSlide(context.Background(), &core.Slide{DeckID: "missing"}); err == nil {
		t.Error("Expected an error for an unknown deck")
	}
}

func TestDeleteSlide(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	deck, _ := store.CreateDeck(ctx, "Deck")
	slide := &core.Slide{DeckID: deck.ID}
	if err := store.SaveSlide(ctx, slide); err != nil {
		t.Fatalf("SaveSlide failed: %v", err)
	}

	if err := store.DeleteSlide(ctx, deck.ID, slide.ID); err != nil {
		t.Fatalf("DeleteSlide failed: %v", err)
	}
	if err := store.DeleteSlide(ctx, deck.ID, slide.ID); err == nil {
		t.Error("Expected an error deleting a missing slide")
	}
}

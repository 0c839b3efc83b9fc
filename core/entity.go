package core

import (
	"context"
	"encoding/json"
	"time"
)

type (
	// Slide is one page of a deck. Snapshot holds the persisted canvas
	// state as the structured JSON tree produced by the canvas codec;
	// Thumbnail is the PNG raster rendered from it on save. The slide
	// record is the system of record for the drawing surface.
	Slide struct {
		ID        string          `json:"id"`
		DeckID    string          `json:"deckId"`
		Position  int             `json:"position"`
		Snapshot  json.RawMessage `json:"snapshot,omitempty"`
		Thumbnail []byte          `json:"thumbnail,omitempty"`
		CreatedAt time.Time       `json:"createdAt"`
		UpdatedAt time.Time       `json:"updatedAt"`
	}

	// Deck is a named collection of slides.
	Deck struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// DeckStore defines the persistence layer for decks and their slides.
	DeckStore interface {
		// ListDecks returns metadata for all decks.
		ListDecks(ctx context.Context) ([]*Deck, error)

		// GetDeck returns a single deck by ID.
		GetDeck(ctx context.Context, id string) (*Deck, error)

		// CreateDeck stores a new deck and returns its assigned ID.
		CreateDeck(ctx context.Context, name string) (*Deck, error)

		// DeleteDeck removes a deck and all of its slides.
		DeleteDeck(ctx context.Context, id string) error

		// ListSlides returns the slides of a deck ordered by position.
		// The returned slides omit the Snapshot payload to keep list
		// responses light; thumbnails are included.
		ListSlides(ctx context.Context, deckID string) ([]*Slide, error)

		// GetSlide returns a single slide with its full snapshot.
		GetSlide(ctx context.Context, deckID, slideID string) (*Slide, error)

		// SaveSlide creates or replaces a slide record.
		SaveSlide(ctx context.Context, slide *Slide) error

		// DeleteSlide removes a slide from its deck.
		DeleteSlide(ctx context.Context, deckID, slideID string) error
	}
)

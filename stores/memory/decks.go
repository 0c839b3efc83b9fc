package memory

import (
	"context"
	"fmt"
	"slideforge/core"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

type deckStore struct {
	mu     sync.RWMutex
	decks  map[string]core.Deck
	slides map[string]map[string]core.Slide // deckID -> slideID -> slide
}

// NewDeckStore creates an in-memory store, the default when no storage
// backend is configured.
func NewDeckStore() core.DeckStore {
	return &deckStore{
		decks:  make(map[string]core.Deck),
		slides: make(map[string]map[string]core.Slide),
	}
}

func (s *deckStore) ListDecks(ctx context.Context) ([]*core.Deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	decks := make([]*core.Deck, 0, len(s.decks))
	for id := range s.decks {
		deck := s.decks[id]
		decks = append(decks, &deck)
	}
	sort.Slice(decks, func(i, j int) bool {
		if decks[i].UpdatedAt.Equal(decks[j].UpdatedAt) {
			return decks[i].ID < decks[j].ID
		}
		return decks[i].UpdatedAt.After(decks[j].UpdatedAt)
	})
	return decks, nil
}

func (s *deckStore) GetDeck(ctx context.Context, id string) (*core.Deck, error) {
	s.mu.RLock()
	deck, ok := s.decks[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("deck with id %s not found", id)
	}
	return &deck, nil
}

func (s *deckStore) CreateDeck(ctx context.Context, name string) (*core.Deck, error) {
	now := time.Now()
	deck := core.Deck{
		ID:        ulid.Make().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.decks[deck.ID] = deck
	s.slides[deck.ID] = make(map[string]core.Slide)
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"deck_id": deck.ID,
		"name":    name,
	}).Info("Deck created successfully")
	return &deck, nil
}

func (s *deckStore) DeleteDeck(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.decks[id]; !ok {
		return fmt.Errorf("deck with id %s not found", id)
	}
	delete(s.decks, id)
	delete(s.slides, id)
	return nil
}

func (s *deckStore) ListSlides(ctx context.Context, deckID string) ([]*core.Slide, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deckSlides, ok := s.slides[deckID]
	if !ok {
		return nil, fmt.Errorf("deck with id %s not found", deckID)
	}

	slides := make([]*core.Slide, 0, len(deckSlides))
	for id := range deckSlides {
		slide := deckSlides[id]
		slide.Snapshot = nil // list views stay light
		slides = append(slides, &slide)
	}
	sort.Slice(slides, func(i, j int) bool {
		if slides[i].Position == slides[j].Position {
			return slides[i].ID < slides[j].ID
		}
		return slides[i].Position < slides[j].Position
	})
	return slides, nil
}

func (s *deckStore) GetSlide(ctx context.Context, deckID, slideID string) (*core.Slide, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deckSlides, ok := s.slides[deckID]
	if !ok {
		return nil, fmt.Errorf("deck with id %s not found", deckID)
	}
	slide, ok := deckSlides[slideID]
	if !ok {
		return nil, fmt.Errorf("slide with id %s not found", slideID)
	}
	return &slide, nil
}

func (s *deckStore) SaveSlide(ctx context.Context, slide *core.Slide) error {
	if slide.DeckID == "" {
		return fmt.Errorf("deck id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	deckSlides, ok := s.slides[slide.DeckID]
	if !ok {
		return fmt.Errorf("deck with id %s not found", slide.DeckID)
	}

	if slide.ID == "" {
		slide.ID = ulid.Make().String()
		slide.CreatedAt = time.Now()
	} else if existing, ok := deckSlides[slide.ID]; ok {
		slide.CreatedAt = existing.CreatedAt
	} else if slide.CreatedAt.IsZero() {
		slide.CreatedAt = time.Now()
	}
	slide.UpdatedAt = time.Now()
	deckSlides[slide.ID] = *slide

	if deck, ok := s.decks[slide.DeckID]; ok {
		deck.UpdatedAt = slide.UpdatedAt
		s.decks[slide.DeckID] = deck
	}

	logrus.WithFields(logrus.Fields{
		"deck_id":     slide.DeckID,
		"slide_id":    slide.ID,
		"data_length": len(slide.Snapshot),
	}).Info("Slide saved successfully")
	return nil
}

func (s *deckStore) DeleteSlide(ctx context.Context, deckID, slideID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deckSlides, ok := s.slides[deckID]
	if !ok {
		return fmt.Errorf("deck with id %s not found", deckID)
	}
	if _, ok := deckSlides[slideID]; !ok {
		return fmt.Errorf("slide with id %s not found", slideID)
	}
	delete(deckSlides, slideID)
	return nil
}

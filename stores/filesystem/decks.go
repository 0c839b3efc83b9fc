package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slideforge/core"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// Layout: <base>/<deckID>/deck.json and <base>/<deckID>/slides/<slideID>.json.
type deckStore struct {
	basePath string
}

// NewDeckStore creates a filesystem-backed store rooted at basePath.
func NewDeckStore(basePath string) core.DeckStore {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		logrus.WithError(err).Fatal("Failed to create base directory")
	}
	return &deckStore{basePath: basePath}
}

func (s *deckStore) deckDir(deckID string) (string, error) {
	// Deck IDs are ULIDs; anything that looks like a path is rejected to
	// keep reads inside the base directory.
	if deckID == "" || filepath.Base(deckID) != deckID || strings.HasPrefix(deckID, ".") {
		return "", fmt.Errorf("invalid deck id %q", deckID)
	}
	return filepath.Join(s.basePath, deckID), nil
}

func (s *deckStore) slidePath(deckID, slideID string) (string, error) {
	dir, err := s.deckDir(deckID)
	if err != nil {
		return "", err
	}
	if slideID == "" || filepath.Base(slideID) != slideID || strings.HasPrefix(slideID, ".") {
		return "", fmt.Errorf("invalid slide id %q", slideID)
	}
	return filepath.Join(dir, "slides", slideID+".json"), nil
}

func (s *deckStore) readDeck(dir string) (*core.Deck, error) {
	data, err := os.ReadFile(filepath.Join(dir, "deck.json"))
	if err != nil {
		return nil, err
	}
	var deck core.Deck
	if err := json.Unmarshal(data, &deck); err != nil {
		return nil, err
	}
	return &deck, nil
}

func (s *deckStore) writeDeck(dir string, deck *core.Deck) error {
	data, err := json.Marshal(deck)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "deck.json"), data, 0644)
}

func (s *deckStore) ListDecks(ctx context.Context) ([]*core.Deck, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, err
	}

	decks := make([]*core.Deck, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		deck, err := s.readDeck(filepath.Join(s.basePath, entry.Name()))
		if err != nil {
			logrus.WithError(err).Warnf("Skipping unreadable deck directory %s", entry.Name())
			continue
		}
		decks = append(decks, deck)
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
	dir, err := s.deckDir(id)
	if err != nil {
		return nil, err
	}
	deck, err := s.readDeck(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("deck with id %s not found", id)
		}
		return nil, err
	}
	return deck, nil
}

func (s *deckStore) CreateDeck(ctx context.Context, name string) (*core.Deck, error) {
	now := time.Now()
	deck := &core.Deck{
		ID:        ulid.Make().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	dir, err := s.deckDir(deck.ID)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(dir, "slides"), 0755); err != nil {
		logrus.WithError(err).Error("Failed to create deck directory")
		return nil, err
	}
	if err := s.writeDeck(dir, deck); err != nil {
		logrus.WithError(err).Error("Failed to write deck metadata")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"deck_id": deck.ID, "path": dir}).Info("Deck created successfully")
	return deck, nil
}

func (s *deckStore) DeleteDeck(ctx context.Context, id string) error {
	dir, err := s.deckDir(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("deck with id %s not found", id)
	}
	return os.RemoveAll(dir)
}

func (s *deckStore) ListSlides(ctx context.Context, deckID string) ([]*core.Slide, error) {
	dir, err := s.deckDir(deckID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(dir, "slides"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("deck with id %s not found", deckID)
		}
		return nil, err
	}

	slides := make([]*core.Slide, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, "slides", entry.Name()))
		if err != nil {
			logrus.WithError(err).Warnf("Skipping unreadable slide file %s", entry.Name())
			continue
		}
		var slide core.Slide
		if err := json.Unmarshal(data, &slide); err != nil {
			logrus.WithError(err).Warnf("Skipping malformed slide file %s", entry.Name())
			continue
		}
		slide.Snapshot = nil
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
	path, err := s.slidePath(deckID, slideID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("slide with id %s not found", slideID)
		}
		return nil, err
	}
	var slide core.Slide
	if err := json.Unmarshal(data, &slide); err != nil {
		return nil, err
	}
	return &slide, nil
}

func (s *deckStore) SaveSlide(ctx context.Context, slide *core.Slide) error {
	if slide.ID == "" {
		slide.ID = ulid.Make().String()
		slide.CreatedAt = time.Now()
	}
	path, err := s.slidePath(slide.DeckID, slide.ID)
	if err != nil {
		return err
	}

	deckDir, _ := s.deckDir(slide.DeckID)
	deck, err := s.readDeck(deckDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("deck with id %s not found", slide.DeckID)
		}
		return err
	}

	if existing, err := s.GetSlide(ctx, slide.DeckID, slide.ID); err == nil {
		slide.CreatedAt = existing.CreatedAt
	} else if slide.CreatedAt.IsZero() {
		slide.CreatedAt = time.Now()
	}
	slide.UpdatedAt = time.Now()

	data, err := json.Marshal(slide)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		logrus.WithError(err).Error("Failed to write slide file")
		return err
	}

	deck.UpdatedAt = slide.UpdatedAt
	if err := s.writeDeck(deckDir, deck); err != nil {
		logrus.WithError(err).Warn("Failed to touch deck metadata")
	}
	return nil
}

func (s *deckStore) DeleteSlide(ctx context.Context, deckID, slideID string) error {
	path, err := s.slidePath(deckID, slideID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("slide with id %s not found", slideID)
		}
		return err
	}
	return nil
}

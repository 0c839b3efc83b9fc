package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"slideforge/core"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

type deckStore struct {
	db *sql.DB
}

// NewDeckStore opens (and if needed initializes) the sqlite database at
// dataSourceName.
func NewDeckStore(dataSourceName string) core.DeckStore {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		logrus.Fatal(err)
	}

	decksTable := `CREATE TABLE IF NOT EXISTS decks (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`
	if _, err = db.Exec(decksTable); err != nil {
		logrus.Fatal(err)
	}

	slidesTable := `CREATE TABLE IF NOT EXISTS slides (
		id TEXT PRIMARY KEY,
		deck_id TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		snapshot BLOB,
		thumbnail BLOB,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		FOREIGN KEY (deck_id) REFERENCES decks(id)
	);`
	if _, err = db.Exec(slidesTable); err != nil {
		logrus.Fatal(err)
	}
	if _, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_slides_deck ON slides(deck_id, position);`); err != nil {
		logrus.Fatal(err)
	}

	return &deckStore{db}
}

func (s *deckStore) ListDecks(ctx context.Context) ([]*core.Deck, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at, updated_at FROM decks ORDER BY updated_at DESC, id ASC")
	if err != nil {
		logrus.WithError(err).Error("Failed to list decks")
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			logrus.WithError(cerr).Warn("Failed to close deck rows")
		}
	}()

	var decks []*core.Deck
	for rows.Next() {
		var deck core.Deck
		var created, updated int64
		if err := rows.Scan(&deck.ID, &deck.Name, &created, &updated); err != nil {
			logrus.WithError(err).Error("Failed to scan deck")
			continue
		}
		deck.CreatedAt = time.UnixMilli(created)
		deck.UpdatedAt = time.UnixMilli(updated)
		decks = append(decks, &deck)
	}
	return decks, rows.Err()
}

func (s *deckStore) GetDeck(ctx context.Context, id string) (*core.Deck, error) {
	var deck core.Deck
	var created, updated int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at, updated_at FROM decks WHERE id = ?", id).
		Scan(&deck.ID, &deck.Name, &created, &updated)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("deck with id %s not found", id)
		}
		logrus.WithError(err).Error("Failed to retrieve deck")
		return nil, err
	}
	deck.CreatedAt = time.UnixMilli(created)
	deck.UpdatedAt = time.UnixMilli(updated)
	return &deck, nil
}

func (s *deckStore) CreateDeck(ctx context.Context, name string) (*core.Deck, error) {
	now := time.Now()
	deck := &core.Deck{
		ID:        ulid.Make().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO decks (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)",
		deck.ID, deck.Name, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		logrus.WithError(err).Error("Failed to create deck")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"deck_id": deck.ID, "name": name}).Info("Deck created successfully")
	return deck, nil
}

func (s *deckStore) DeleteDeck(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM slides WHERE deck_id = ?", id); err != nil {
		logrus.WithError(err).Error("Failed to delete deck slides")
		return err
	}
	result, err := s.db.ExecContext(ctx, "DELETE FROM decks WHERE id = ?", id)
	if err != nil {
		logrus.WithError(err).Error("Failed to delete deck")
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("deck with id %s not found", id)
	}
	return nil
}

func (s *deckStore) ListSlides(ctx context.Context, deckID string) ([]*core.Slide, error) {
	if _, err := s.GetDeck(ctx, deckID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, deck_id, position, thumbnail, created_at, updated_at FROM slides WHERE deck_id = ? ORDER BY position ASC, id ASC",
		deckID)
	if err != nil {
		logrus.WithError(err).Error("Failed to list slides")
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			logrus.WithError(cerr).Warn("Failed to close slide rows")
		}
	}()

	slides := make([]*core.Slide, 0)
	for rows.Next() {
		var slide core.Slide
		var created, updated int64
		if err := rows.Scan(&slide.ID, &slide.DeckID, &slide.Position, &slide.Thumbnail, &created, &updated); err != nil {
			logrus.WithError(err).Error("Failed to scan slide")
			continue
		}
		slide.CreatedAt = time.UnixMilli(created)
		slide.UpdatedAt = time.UnixMilli(updated)
		slides = append(slides, &slide)
	}
	return slides, rows.Err()
}

func (s *deckStore) GetSlide(ctx context.Context, deckID, slideID string) (*core.Slide, error) {
	var slide core.Slide
	var created, updated int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id, deck_id, position, snapshot, thumbnail, created_at, updated_at FROM slides WHERE deck_id = ? AND id = ?",
		deckID, slideID).
		Scan(&slide.ID, &slide.DeckID, &slide.Position, &slide.Snapshot, &slide.Thumbnail, &created, &updated)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("slide with id %s not found", slideID)
		}
		logrus.WithError(err).Error("Failed to retrieve slide")
		return nil, err
	}
	slide.CreatedAt = time.UnixMilli(created)
	slide.UpdatedAt = time.UnixMilli(updated)
	return &slide, nil
}

func (s *deckStore) SaveSlide(ctx context.Context, slide *core.Slide) error {
	if _, err := s.GetDeck(ctx, slide.DeckID); err != nil {
		return err
	}

	now := time.Now()
	if slide.ID == "" {
		slide.ID = ulid.Make().String()
		slide.CreatedAt = now
	} else if existing, err := s.GetSlide(ctx, slide.DeckID, slide.ID); err == nil {
		slide.CreatedAt = existing.CreatedAt
	} else if slide.CreatedAt.IsZero() {
		slide.CreatedAt = now
	}
	slide.UpdatedAt = now

	log := logrus.WithFields(logrus.Fields{
		"deck_id":     slide.DeckID,
		"slide_id":    slide.ID,
		"data_length": len(slide.Snapshot),
	})

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO slides (id, deck_id, position, snapshot, thumbnail, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET position = ?, snapshot = ?, thumbnail = ?, updated_at = ?`,
		slide.ID, slide.DeckID, slide.Position, []byte(slide.Snapshot), slide.Thumbnail,
		slide.CreatedAt.UnixMilli(), slide.UpdatedAt.UnixMilli(),
		slide.Position, []byte(slide.Snapshot), slide.Thumbnail, slide.UpdatedAt.UnixMilli())
	if err != nil {
		log.WithField("error", err).Error("Failed to save slide")
		return err
	}

	if _, err := s.db.ExecContext(ctx, "UPDATE decks SET updated_at = ? WHERE id = ?",
		slide.UpdatedAt.UnixMilli(), slide.DeckID); err != nil {
		log.WithField("error", err).Warn("Failed to touch deck")
	}

	log.Info("Slide saved successfully")
	return nil
}

func (s *deckStore) DeleteSlide(ctx context.Context, deckID, slideID string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM slides WHERE deck_id = ? AND id = ?", deckID, slideID)
	if err != nil {
		logrus.WithError(err).Error("Failed to delete slide")
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("slide with id %s not found", slideID)
	}
	return nil
}

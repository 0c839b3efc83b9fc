package aws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"slideforge/core"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// Keys: decks/<deckID>/deck.json and decks/<deckID>/slides/<slideID>.json.
type deckStore struct {
	client *s3.Client
	bucket string
}

// NewDeckStore creates an S3-backed store using the default AWS config
// chain for credentials and region.
func NewDeckStore(bucketName string) core.DeckStore {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		logrus.WithError(err).Fatal("Unable to load AWS SDK config")
	}
	return &deckStore{
		client: s3.NewFromConfig(cfg),
		bucket: bucketName,
	}
}

func deckKey(deckID string) (string, error) {
	if deckID == "" || path.Base(deckID) != deckID {
		return "", fmt.Errorf("invalid deck id %q", deckID)
	}
	return path.Join("decks", deckID, "deck.json"), nil
}

func slideKey(deckID, slideID string) (string, error) {
	if _, err := deckKey(deckID); err != nil {
		return "", err
	}
	if slideID == "" || path.Base(slideID) != slideID {
		return "", fmt.Errorf("invalid slide id %q", slideID)
	}
	return path.Join("decks", deckID, "slides", slideID+".json"), nil
}

func (s *deckStore) getJSON(ctx context.Context, key string, out any) error {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read object body: %v", err)
	}
	return json.Unmarshal(data, out)
}

func (s *deckStore) putJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	return err
}

func isNoSuchKey(err error) bool {
	var nsk *s3types.NoSuchKey
	return errors.As(err, &nsk)
}

func (s *deckStore) ListDecks(ctx context.Context) ([]*core.Deck, error) {
	output, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String("decks/"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %v", err)
	}

	decks := make([]*core.Deck, 0)
	for _, object := range output.Contents {
		if object.Key == nil || !strings.HasSuffix(*object.Key, "/deck.json") {
			continue
		}
		var deck core.Deck
		if err := s.getJSON(ctx, *object.Key, &deck); err != nil {
			logrus.WithError(err).Warnf("Skipping unreadable deck object %s", *object.Key)
			continue
		}
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
	key, err := deckKey(id)
	if err != nil {
		return nil, err
	}
	var deck core.Deck
	if err := s.getJSON(ctx, key, &deck); err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("deck with id %s not found", id)
		}
		return nil, err
	}
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
	key, err := deckKey(deck.ID)
	if err != nil {
		return nil, err
	}
	if err := s.putJSON(ctx, key, deck); err != nil {
		return nil, fmt.Errorf("failed to create deck: %v", err)
	}
	return deck, nil
}

func (s *deckStore) DeleteDeck(ctx context.Context, id string) error {
	if _, err := s.GetDeck(ctx, id); err != nil {
		return err
	}

	prefix := path.Join("decks", id) + "/"
	output, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return fmt.Errorf("failed to list deck objects: %v", err)
	}
	for _, object := range output.Contents {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    object.Key,
		})
		if err != nil {
			return fmt.Errorf("failed to delete %s: %v", *object.Key, err)
		}
	}
	return nil
}

func (s *deckStore) ListSlides(ctx context.Context, deckID string) ([]*core.Slide, error) {
	if _, err := s.GetDeck(ctx, deckID); err != nil {
		return nil, err
	}

	prefix := path.Join("decks", deckID, "slides") + "/"
	output, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list slides: %v", err)
	}

	slides := make([]*core.Slide, 0, len(output.Contents))
	for _, object := range output.Contents {
		var slide core.Slide
		if err := s.getJSON(ctx, *object.Key, &slide); err != nil {
			logrus.WithError(err).Warnf("Skipping unreadable slide object %s", *object.Key)
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
	key, err := slideKey(deckID, slideID)
	if err != nil {
		return nil, err
	}
	var slide core.Slide
	if err := s.getJSON(ctx, key, &slide); err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("slide with id %s not found", slideID)
		}
		return nil, err
	}
	return &slide, nil
}

func (s *deckStore) SaveSlide(ctx context.Context, slide *core.Slide) error {
	deck, err := s.GetDeck(ctx, slide.DeckID)
	if err != nil {
		return err
	}

	if slide.ID == "" {
		slide.ID = ulid.Make().String()
		slide.CreatedAt = time.Now()
	} else if existing, err := s.GetSlide(ctx, slide.DeckID, slide.ID); err == nil {
		slide.CreatedAt = existing.CreatedAt
	} else if slide.CreatedAt.IsZero() {
		slide.CreatedAt = time.Now()
	}
	slide.UpdatedAt = time.Now()

	key, err := slideKey(slide.DeckID, slide.ID)
	if err != nil {
		return err
	}
	if err := s.putJSON(ctx, key, slide); err != nil {
		return fmt.Errorf("failed to save slide %s: %v", slide.ID, err)
	}

	deck.UpdatedAt = slide.UpdatedAt
	deckObjKey, _ := deckKey(deck.ID)
	if err := s.putJSON(ctx, deckObjKey, deck); err != nil {
		logrus.WithError(err).Warn("Failed to touch deck metadata")
	}
	return nil
}

func (s *deckStore) DeleteSlide(ctx context.Context, deckID, slideID string) error {
	key, err := slideKey(deckID, slideID)
	if err != nil {
		return err
	}
	if _, err := s.GetSlide(ctx, deckID, slideID); err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete slide %s: %v", slideID, err)
	}
	return nil
}

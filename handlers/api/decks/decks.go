package decks

import (
	"encoding/json"
	"io"
	"net/http"
	"slideforge/canvas"
	"slideforge/core"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type (
	CreateDeckRequest struct {
		Name string `json:"name"`
	}

	// SaveSlideRequest is the payload the editor submits on save: the
	// structured snapshot exported from the drawing surface, plus the
	// slide's position in the deck.
	SaveSlideRequest struct {
		Position int             `json:"position"`
		Snapshot json.RawMessage `json:"snapshot"`
	}

	SaveSlideResponse struct {
		ID        string `json:"id"`
		DeckID    string `json:"deckId"`
		Position  int    `json:"position"`
		UpdatedAt int64  `json:"updatedAt"`
	}

	// Notifier is told about persisted slide changes so live viewers of
	// the same deck can refresh. A nil Notifier disables notifications.
	Notifier interface {
		SlideUpdated(deckID, slideID string)
	}
)

func HandleListDecks(store core.DeckStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decks, err := store.ListDecks(r.Context())
		if err != nil {
			logrus.WithField("error", err).Error("Failed to list decks")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to list decks"})
			return
		}
		if decks == nil {
			decks = []*core.Deck{}
		}
		render.JSON(w, r, decks)
	}
}

func HandleCreateDeck(store core.DeckStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateDeckRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithField("error", err).Error("Failed to decode request")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid request body"})
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Deck name is required"})
			return
		}

		deck, err := store.CreateDeck(r.Context(), req.Name)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to create deck")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to create deck"})
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, deck)
	}
}

func HandleGetDeck(store core.DeckStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deckID := chi.URLParam(r, "deckID")
		deck, err := store.GetDeck(r.Context(), deckID)
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "deck_id": deckID}).Warn("Failed to get deck")
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Deck not found"})
			return
		}
		render.JSON(w, r, deck)
	}
}

func HandleDeleteDeck(store core.DeckStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deckID := chi.URLParam(r, "deckID")
		if err := store.DeleteDeck(r.Context(), deckID); err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "deck_id": deckID}).Warn("Failed to delete deck")
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Deck not found"})
			return
		}
		render.Status(r, http.StatusOK)
		render.JSON(w, r, map[string]string{"status": "deleted"})
	}
}

func HandleListSlides(store core.DeckStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deckID := chi.URLParam(r, "deckID")
		slides, err := store.ListSlides(r.Context(), deckID)
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "deck_id": deckID}).Warn("Failed to list slides")
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Deck not found"})
			return
		}
		if slides == nil {
			slides = []*core.Slide{}
		}
		render.JSON(w, r, slides)
	}
}

func HandleGetSlide(store core.DeckStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deckID := chi.URLParam(r, "deckID")
		slideID := chi.URLParam(r, "slideID")
		slide, err := store.GetSlide(r.Context(), deckID, slideID)
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "deck_id": deckID, "slide_id": slideID}).Warn("Failed to get slide")
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Slide not found"})
			return
		}
		render.JSON(w, r, slide)
	}
}

// HandleSaveSlide persists a slide's canvas state. The submitted snapshot
// is validated through the canvas codec and the PNG thumbnail is rendered
// server-side from the validated snapshot, so the store only ever holds
// well-formed artifacts.
func HandleSaveSlide(store core.DeckStore, renderer canvas.Renderer, notifier Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deckID := chi.URLParam(r, "deckID")
		slideID := chi.URLParam(r, "slideID")
		log := logrus.WithFields(logrus.Fields{"deck_id": deckID, "slide_id": slideID})

		body, err := io.ReadAll(r.Body)
		if err != nil {
			log.WithField("error", err).Error("Failed to read request body")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to read request body"})
			return
		}
		defer r.Body.Close()

		var req SaveSlideRequest
		if err := json.Unmarshal(body, &req); err != nil {
			log.WithField("error", err).Warn("Failed to decode save request")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid request body"})
			return
		}

		snap, err := canvas.DecodeSnapshot(req.Snapshot)
		if err != nil {
			log.WithField("error", err).Warn("Rejected malformed snapshot")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": err.Error()})
			return
		}

		thumbnail, err := renderer.Render(snap, canvas.RasterOptions{Format: canvas.FormatPNG})
		if err != nil {
			log.WithField("error", err).Error("Failed to render thumbnail")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to render thumbnail"})
			return
		}

		slide := &core.Slide{
			ID:        slideID,
			DeckID:    deckID,
			Position:  req.Position,
			Snapshot:  req.Snapshot,
			Thumbnail: thumbnail,
		}
		if err := store.SaveSlide(r.Context(), slide); err != nil {
			log.WithField("error", err).Error("Failed to save slide")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to save slide"})
			return
		}

		if notifier != nil {
			notifier.SlideUpdated(deckID, slide.ID)
		}

		render.JSON(w, r, SaveSlideResponse{
			ID:        slide.ID,
			DeckID:    slide.DeckID,
			Position:  slide.Position,
			UpdatedAt: slide.UpdatedAt.UnixMilli(),
		})
	}
}

func HandleDeleteSlide(store core.DeckStore, notifier Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deckID := chi.URLParam(r, "deckID")
		slideID := chi.URLParam(r, "slideID")
		if err := store.DeleteSlide(r.Context(), deckID, slideID); err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "deck_id": deckID, "slide_id": slideID}).Warn("Failed to delete slide")
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Slide not found"})
			return
		}
		if notifier != nil {
			notifier.SlideUpdated(deckID, slideID)
		}
		render.Status(r, http.StatusOK)
		render.JSON(w, r, map[string]string{"status": "deleted"})
	}
}

// HandleGetThumbnail serves the slide's rendered PNG preview.
func HandleGetThumbnail(store core.DeckStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deckID := chi.URLParam(r, "deckID")
		slideID := chi.URLParam(r, "slideID")
		slide, err := store.GetSlide(r.Context(), deckID, slideID)
		if err != nil {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Slide not found"})
			return
		}
		if len(slide.Thumbnail) == 0 {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Slide has no thumbnail"})
			return
		}
		w.Header().Set("Content-Type", "image/png")
		if _, err := w.Write(slide.Thumbnail); err != nil {
			logrus.WithField("error", err).Warn("Failed to write thumbnail response")
		}
	}
}

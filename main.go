package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"slideforge/canvas"
	"slideforge/core"
	"slideforge/handlers/api/decks"
	"slideforge/handlers/websocket"
	"slideforge/stores"
	"sort"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

func setupRouter(store core.DeckStore, renderer canvas.Renderer, hub *websocket.Hub) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	corsOptions := cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			if origin == "" {
				return false
			}
			parsed, err := url.Parse(origin)
			if err != nil {
				return false
			}
			switch parsed.Scheme {
			case "http", "https":
				switch parsed.Hostname() {
				case "localhost", "127.0.0.1", "::1":
					return true
				}
			}
			return false
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	r.Use(cors.Handler(corsOptions))

	r.Route("/api/decks", func(r chi.Router) {
		r.Get("/", decks.HandleListDecks(store))
		r.Post("/", decks.HandleCreateDeck(store))

		r.Route("/{deckID}", func(r chi.Router) {
			r.Get("/", decks.HandleGetDeck(store))
			r.Delete("/", decks.HandleDeleteDeck(store))

			r.Route("/slides", func(r chi.Router) {
				r.Get("/", decks.HandleListSlides(store))
				r.Route("/{slideID}", func(r chi.Router) {
					r.Get("/", decks.HandleGetSlide(store))
					r.Put("/", decks.HandleSaveSlide(store, renderer, hub))
					r.Delete("/", decks.HandleDeleteSlide(store, hub))
					r.Get("/thumbnail", decks.HandleGetThumbnail(store))
				})
			})
		})
	})

	r.Get("/api/decks-active", func(w http.ResponseWriter, r *http.Request) {
		active := websocket.GetActiveDecks()
		type entry struct {
			ID      string `json:"id"`
			Viewers int    `json:"viewers"`
		}
		list := make([]entry, 0, len(active))
		for id, viewers := range active {
			list = append(list, entry{ID: id, Viewers: viewers})
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].Viewers == list[j].Viewers {
				return list[i].ID < list[j].ID
			}
			return list[i].Viewers > list[j].Viewers
		})
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(list); err != nil {
			http.Error(w, "failed to encode response", http.StatusInternalServerError)
		}
	})

	return r
}

func waitForShutdown(ioo *socketio.Server) {
	exit := make(chan struct{})
	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	fmt.Println("Shutting down...")
	ioo.Close(nil)
	os.Exit(0)
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	logLevel := flag.String("loglevel", "info", "Set the logging level: debug, info, warn, error, fatal, panic")
	listenAddr := flag.String("listen", ":3002", "Set the server listen address")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	renderer, err := canvas.NewRenderer()
	if err != nil {
		logrus.WithField("event", "init renderer").Fatal(err)
	}

	store := stores.GetStore()

	ioo, hub := websocket.SetupSocketIO()
	r := setupRouter(store, renderer, hub)
	r.Handle("/socket.io/", ioo.ServeHandler(nil))

	logrus.WithField("addr", *listenAddr).Info("starting server")
	go func() {
		if err := http.ListenAndServe(*listenAddr, r); err != nil {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(ioo)
}

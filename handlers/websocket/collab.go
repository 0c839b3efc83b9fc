package websocket

import (
	"regexp"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

var (
	activeDecks = make(map[string]int)
	decksMutex  sync.RWMutex
)

// GetActiveDecks returns the deck IDs with connected viewers and how many
// sockets each deck room holds.
func GetActiveDecks() map[string]int {
	decksMutex.RLock()
	defer decksMutex.RUnlock()

	decks := make(map[string]int, len(activeDecks))
	for k, v := range activeDecks {
		decks[k] = v
	}
	return decks
}

// Hub broadcasts persisted slide changes into the deck rooms. It satisfies
// the decks.Notifier interface.
type Hub struct {
	srv *socketio.Server
}

// SlideUpdated tells every viewer of the deck that a slide was saved or
// removed so thumbnails and open editors can refresh.
func (h *Hub) SlideUpdated(deckID, slideID string) {
	if h == nil || h.srv == nil {
		return
	}
	err := h.srv.In(socketio.Room(deckID)).Emit("slide-updated", map[string]any{
		"deckId":  deckID,
		"slideId": slideID,
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"deck_id":  deckID,
			"slide_id": slideID,
			"error":    err,
		}).Warn("Failed to broadcast slide update")
	}
}

// SetupSocketIO configures the live-collaboration server. Clients join one
// room per deck; editing gestures are relayed between viewers of the same
// deck, and the Hub pushes save notifications into the room.
func SetupSocketIO() (*socketio.Server, *Hub) {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(5000000)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	localhostOrigin := regexp.MustCompile(`^https?://(localhost|127\.0\.0\.1|\[::1\])(:\d+)?$`)
	opts.SetCors(&types.Cors{
		Origin:      []any{localhostOrigin},
		Credentials: true,
	})
	srv := socketio.NewServer(nil, opts)

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}

		me := socket.Id()
		myRoom := socketio.Room(me)
		_ = srv.To(myRoom).Emit("init-room")

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("join-deck", func(datas ...any) {
			if len(datas) == 0 {
				_ = socket.Emit("join-deck-error", "deck id is required")
				return
			}
			deckID, ok := datas[0].(string)
			if !ok || deckID == "" {
				_ = socket.Emit("join-deck-error", "invalid deck id")
				return
			}

			room := socketio.Room(deckID)
			socket.Join(room)
			logrus.WithFields(logrus.Fields{"socket": me, "deck_id": deckID}).Debug("Socket joined deck")

			srv.In(room).FetchSockets()(func(users []*socketio.RemoteSocket, fetchErr error) {
				if fetchErr != nil {
					_ = socket.Emit("join-deck-error", fetchErr.Error())
					return
				}

				decksMutex.Lock()
				activeDecks[deckID] = len(users)
				decksMutex.Unlock()

				if len(users) <= 1 {
					_ = srv.To(myRoom).Emit("first-in-deck")
				} else {
					_ = socket.Broadcast().To(room).Emit("new-user", me)
				}

				viewers := make([]socketio.SocketId, 0, len(users))
				for _, user := range users {
					viewers = append(viewers, user.Id())
				}
				_ = srv.In(room).Emit("deck-user-change", viewers)
			})
		})

		// Live gesture relay: pointer positions, in-progress strokes and
		// tool changes go viewer-to-viewer without touching the store.
		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("server-broadcast", func(datas ...any) {
			relayBroadcast(socket, datas, false)
		})

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("server-volatile-broadcast", func(datas ...any) {
			relayBroadcast(socket, datas, true)
		})

		socket.On("disconnecting", func(datas ...any) {
			for _, currentRoom := range socket.Rooms().Keys() {
				deckID := string(currentRoom)
				srv.In(currentRoom).FetchSockets()(func(users []*socketio.RemoteSocket, _ error) {
					others := make([]socketio.SocketId, 0, len(users))
					for _, user := range users {
						if user.Id() != me {
							others = append(others, user.Id())
						}
					}

					decksMutex.Lock()
					if len(others) == 0 {
						delete(activeDecks, deckID)
					} else {
						activeDecks[deckID] = len(others)
					}
					decksMutex.Unlock()

					if len(others) > 0 {
						_ = srv.In(currentRoom).Emit("deck-user-change", others)
					}
				})
			}
		})

		socket.On("disconnect", func(datas ...any) {
			socket.RemoveAllListeners("")
			socket.Disconnect(true)
		})
	})

	return srv, &Hub{srv: srv}
}

func relayBroadcast(socket *socketio.Socket, datas []any, volatile bool) {
	if len(datas) < 2 {
		return
	}
	deckID, ok := datas[0].(string)
	if !ok || deckID == "" {
		return
	}

	var err error
	if volatile {
		err = socket.Volatile().Broadcast().To(socketio.Room(deckID)).Emit("client-broadcast", datas[1:]...)
	} else {
		err = socket.Broadcast().To(socketio.Room(deckID)).Emit("client-broadcast", datas[1:]...)
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{"deck_id": deckID, "error": err}).Warn("Failed to relay broadcast")
	}
}

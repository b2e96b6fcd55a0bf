// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/rummy/internal/actions"
	"github.com/jason-s-yu/rummy/internal/game"
	"github.com/jason-s-yu/rummy/internal/room"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Subprotocol is the WebSocket subprotocol clients must request.
const Subprotocol = "rummy"

// ErrRateLimited is sent when a connection sends messages too quickly.
var ErrRateLimited = game.NewError(game.KindPrecondition, "RATE_LIMITED", "too many messages, slow down")

// Dispatcher handles decoded actions. room.Coordinator implements it.
type Dispatcher interface {
	Dispatch(playerID uuid.UUID, a actions.Action)
	Reject(playerID uuid.UUID, action actions.Type, err error)
}

// WSOptions tunes the per-connection behaviour of the game socket.
type WSOptions struct {
	// RateLimit is the sustained inbound message rate per connection.
	RateLimit rate.Limit
	// Burst is the number of messages allowed above RateLimit.
	Burst        int
	WriteTimeout time.Duration
	PingInterval time.Duration
	// OriginPatterns is passed to websocket.Accept. Empty allows any origin.
	OriginPatterns []string
}

func (o WSOptions) withDefaults() WSOptions {
	if o.RateLimit <= 0 {
		o.RateLimit = 5
	}
	if o.Burst <= 0 {
		o.Burst = 10
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if len(o.OriginPatterns) == 0 {
		o.OriginPatterns = []string{"*"}
	}
	return o
}

// connectedMessage tells a client the handle it plays under.
type connectedMessage struct {
	Type     string    `json:"type"`
	PlayerID uuid.UUID `json:"playerId"`
}

// GameWSHandler upgrades the connection to a WebSocket and binds it to a fresh
// player handle for its lifetime. Closing the socket leaves any room the
// player is in.
func GameWSHandler(logger *logrus.Logger, hub *Hub, d Dispatcher, opts WSOptions) http.HandlerFunc {
	opts = opts.withDefaults()
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{Subprotocol},
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			logger.Warnf("WebSocket accept error from %s: %v", r.RemoteAddr, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != Subprotocol {
			logger.Warnf("Client %s connected with invalid subprotocol: %q", r.RemoteAddr, c.Subprotocol())
			c.Close(BadSubprotocolError, "Client must use the 'rummy' subprotocol.")
			return
		}

		playerID := uuid.New()
		log := logger.WithFields(logrus.Fields{"player": playerID, "remote": r.RemoteAddr})
		log.Info("WebSocket connected")

		conn := hub.Register(playerID)
		hub.Send(playerID, connectedMessage{Type: "connected", PlayerID: playerID})

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go writePump(ctx, cancel, c, conn, opts, log)

		err = readPump(ctx, c, playerID, d, rate.NewLimiter(opts.RateLimit, opts.Burst), log)

		d.Dispatch(playerID, actions.Disconnect{})
		hub.Unregister(playerID)
		log.WithError(err).Info("WebSocket disconnected")
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// readPump decodes inbound messages and hands them to the dispatcher until the
// connection fails or ctx ends.
func readPump(ctx context.Context, c *websocket.Conn, playerID uuid.UUID, d Dispatcher, limiter *rate.Limiter, log *logrus.Entry) error {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if msgType != websocket.MessageText {
			log.Warnf("Received non-text message type %d. Ignoring.", msgType)
			continue
		}
		if !limiter.Allow() {
			d.Reject(playerID, "", ErrRateLimited)
			continue
		}

		a, err := actions.Decode(data)
		if err != nil {
			log.Debugf("Rejected malformed message: %v", err)
			d.Reject(playerID, "", err)
			continue
		}
		d.Dispatch(playerID, a)
	}
}

// writePump drains the player's queue onto the socket and keeps it alive with
// pings. A failed write cancels the connection.
func writePump(ctx context.Context, cancel context.CancelFunc, c *websocket.Conn, conn *PlayerConnection, opts WSOptions, log *logrus.Entry) {
	defer cancel()
	ticker := time.NewTicker(opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-conn.OutChan:
			if !ok {
				return
			}
			writeCtx, writeCancel := context.WithTimeout(ctx, opts.WriteTimeout)
			err := c.Write(writeCtx, websocket.MessageText, data)
			writeCancel()
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					c.Close(SlowConsumerError, "write timeout")
				}
				log.Warnf("Failed to write to websocket: %v", err)
				return
			}
		case <-ticker.C:
			pingCtx, pingCancel := context.WithTimeout(ctx, opts.WriteTimeout)
			err := c.Ping(pingCtx)
			pingCancel()
			if err != nil {
				log.Warnf("Failed to send ping: %v. Assuming disconnect.", err)
				return
			}
		}
	}
}

// HealthHandler reports liveness along with the number of rooms and connections.
func HealthHandler(hub *Hub, reg *room.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":      "ok",
			"rooms":       reg.Len(),
			"connections": hub.Len(),
		})
	}
}

// internal/room/coordinator.go
package room

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jason-s-yu/rummy/internal/actions"
	"github.com/jason-s-yu/rummy/internal/game"
	"github.com/sirupsen/logrus"
)

// Outbound message types produced by the coordinator. Game events carry their
// own types.
const (
	MsgRoomCreated = "room-created"
	MsgRoomJoined  = "room-joined"
	MsgRoomUpdate  = "room-update"
	MsgRoomLeft    = "room-left"
	MsgPong        = "pong"
	MsgError       = "error"
)

// Message is a non-game server message.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// ErrorMessage reports a rejected action to the player who sent it.
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
}

// NewErrorMessage converts an error into its wire form. Errors that are not
// GameErrors are reported as INTERNAL without their text.
func NewErrorMessage(err error, action actions.Type) ErrorMessage {
	msg := ErrorMessage{Type: MsgError, Code: "INTERNAL", Message: "internal error", Action: string(action)}
	var ge *game.GameError
	if errors.As(err, &ge) {
		msg.Code = ge.Code
		msg.Message = ge.Message
	}
	return msg
}

// Notifier delivers messages to connected players. Send must not block and must
// not call back into the coordinator, registry or game.
type Notifier interface {
	Send(playerID uuid.UUID, msg interface{})
}

// Coordinator routes inbound actions to the registry or to the player's game
// and turns the results into outbound messages.
type Coordinator struct {
	Registry *Registry
	notifier Notifier

	// Publisher receives the action log of every game. Optional.
	Publisher game.ActionPublisher
	// Clock drives game timers. Nil uses the system clock.
	Clock game.Clock

	log *logrus.Entry
}

// NewCoordinator wires the registry's game factory to the notifier.
func NewCoordinator(reg *Registry, notifier Notifier, log *logrus.Entry) *Coordinator {
	c := &Coordinator{Registry: reg, notifier: notifier, log: log}
	reg.NewGame = c.newGame
	return c
}

// newGame builds a game whose events go to the room's audience.
func (c *Coordinator) newGame(r *Room) *game.RummyGame {
	g := game.NewRummyGame(r.Code, r.Rules)
	g.Log = c.log.WithFields(logrus.Fields{"game": g.ID, "room": r.Code})
	g.Publisher = c.Publisher
	if c.Clock != nil {
		g.Clock = c.Clock
	}

	aud := r.audience
	g.BroadcastFn = func(ev game.GameEvent) {
		for _, id := range aud.list() {
			c.notifier.Send(id, ev)
		}
	}
	g.BroadcastToPlayerFn = func(playerID uuid.UUID, ev game.GameEvent) {
		if aud.contains(playerID) {
			c.notifier.Send(playerID, ev)
		}
	}
	g.OnGameEnd = func(roomCode string, winner uuid.UUID, scores map[uuid.UUID]int) {
		c.log.WithFields(logrus.Fields{"room": roomCode, "winner": winner}).Info("match finished")
		if snap, ok := c.Registry.finish(roomCode, g); ok {
			c.broadcast(snap, Message{Type: MsgRoomUpdate, Payload: snap})
		}
	}
	return g
}

// Dispatch handles one action from a player. Rejections are sent back to that
// player only.
func (c *Coordinator) Dispatch(playerID uuid.UUID, a actions.Action) {
	log := c.log.WithFields(logrus.Fields{"player": playerID, "action": a.Type()})
	log.Debug("dispatching action")
	if err := c.dispatch(playerID, a); err != nil {
		var ge *game.GameError
		if errors.As(err, &ge) {
			log.WithField("code", ge.Code).Debug("action rejected")
		} else {
			log.Errorf("action failed: %v", err)
		}
		c.Reject(playerID, a.Type(), err)
	}
}

// Reject sends an error message to a single player.
func (c *Coordinator) Reject(playerID uuid.UUID, action actions.Type, err error) {
	c.notifier.Send(playerID, NewErrorMessage(err, action))
}

func (c *Coordinator) dispatch(playerID uuid.UUID, a actions.Action) error {
	switch act := a.(type) {
	case actions.CreateRoom:
		snap, err := c.Registry.Create(playerID, act.PlayerName, act.Rules)
		if err != nil {
			return err
		}
		c.notifier.Send(playerID, Message{Type: MsgRoomCreated, Payload: snap})
		return nil

	case actions.JoinRoom:
		snap, err := c.Registry.Join(act.RoomCode, playerID, act.PlayerName)
		if err != nil {
			return err
		}
		c.notifier.Send(playerID, Message{Type: MsgRoomJoined, Payload: snap})
		c.broadcast(snap, Message{Type: MsgRoomUpdate, Payload: snap})
		return nil

	case actions.StartGame:
		snap, err := c.Registry.Start(act.RoomCode, playerID)
		if err != nil {
			return err
		}
		c.broadcast(snap, Message{Type: MsgRoomUpdate, Payload: snap})
		return nil

	case actions.LeaveRoom:
		snap, destroyed, err := c.Registry.Leave(act.RoomCode, playerID)
		if err != nil {
			return err
		}
		c.notifier.Send(playerID, Message{Type: MsgRoomLeft, Payload: map[string]string{"roomCode": snap.RoomCode}})
		if !destroyed {
			c.broadcast(snap, Message{Type: MsgRoomUpdate, Payload: snap})
		}
		return nil

	case actions.Disconnect:
		snap, destroyed, ok := c.Registry.Disconnect(playerID)
		if ok && !destroyed {
			c.broadcast(snap, Message{Type: MsgRoomUpdate, Payload: snap})
		}
		return nil

	case actions.Ping:
		c.notifier.Send(playerID, Message{Type: MsgPong})
		return nil

	case actions.DrawCard:
		g, err := c.Registry.Game(act.RoomCode, playerID)
		if err != nil {
			return err
		}
		_, err = g.Draw(playerID, act.Source)
		return err

	case actions.DiscardCard:
		g, err := c.Registry.Game(act.RoomCode, playerID)
		if err != nil {
			return err
		}
		return g.Discard(playerID, act.CardID)

	case actions.DeclareWin:
		g, err := c.Registry.Game(act.RoomCode, playerID)
		if err != nil {
			return err
		}
		// Both outcomes are announced through game events.
		_, err = g.DeclareWin(playerID, act.Groups, act.Leftover)
		return err

	case actions.PlayerDrop:
		g, err := c.Registry.Game(act.RoomCode, playerID)
		if err != nil {
			return err
		}
		_, err = g.Drop(playerID, act.DropType)
		return err

	default:
		return actions.ErrUnknownAction
	}
}

// broadcast sends msg to every member listed in snap.
func (c *Coordinator) broadcast(snap Snapshot, msg interface{}) {
	for _, m := range snap.Players {
		c.notifier.Send(m.ID, msg)
	}
}

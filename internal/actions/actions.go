// Package actions decodes inbound client messages into a closed set of typed
// actions. Every payload is validated here, before it reaches a room or game.
package actions

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/rummy/internal/game"
)

// Type is the wire name of an inbound action.
type Type string

const (
	TypeCreateRoom  Type = "create-room"
	TypeJoinRoom    Type = "join-room"
	TypeStartGame   Type = "start-game"
	TypeDrawCard    Type = "draw-card"
	TypeDiscardCard Type = "discard-card"
	TypeDeclareWin  Type = "declare-win"
	TypePlayerDrop  Type = "player-drop"
	TypeLeaveRoom   Type = "leave-room"
	TypePing        Type = "ping"
	// TypeDisconnect is never sent by a client; the transport raises it when a
	// connection closes.
	TypeDisconnect Type = "disconnect"
)

// Envelope is the frame every client message arrives in.
type Envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Action is one validated inbound action. The set of implementations is closed.
type Action interface {
	Type() Type
	action()
}

// payload is a pointer to an action being decoded.
type payload interface {
	validate() error
}

// RoomAction is implemented by actions addressed to an existing room.
type RoomAction interface {
	Action
	Room() string
}

type CreateRoom struct {
	PlayerName string `json:"playerName"`
	// Rules optionally overrides the server's default house rules.
	Rules map[string]interface{} `json:"rules,omitempty"`
}

type JoinRoom struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type StartGame struct {
	RoomCode string `json:"roomCode"`
}

type DrawCard struct {
	RoomCode string          `json:"roomCode"`
	Source   game.DrawSource `json:"source"`
}

type DiscardCard struct {
	RoomCode string    `json:"roomCode"`
	CardID   uuid.UUID `json:"cardId"`
}

// DeclareWin proposes a show: the player's hand split into groups plus at most
// one leftover card, all by card ID.
type DeclareWin struct {
	RoomCode string        `json:"roomCode"`
	Groups   [][]uuid.UUID `json:"groups"`
	Leftover []uuid.UUID   `json:"leftover"`
}

type PlayerDrop struct {
	RoomCode string        `json:"roomCode"`
	DropType game.DropType `json:"dropType"`
}

type LeaveRoom struct {
	RoomCode string `json:"roomCode"`
}

type Ping struct{}

type Disconnect struct{}

func (CreateRoom) Type() Type  { return TypeCreateRoom }
func (JoinRoom) Type() Type    { return TypeJoinRoom }
func (StartGame) Type() Type   { return TypeStartGame }
func (DrawCard) Type() Type    { return TypeDrawCard }
func (DiscardCard) Type() Type { return TypeDiscardCard }
func (DeclareWin) Type() Type  { return TypeDeclareWin }
func (PlayerDrop) Type() Type  { return TypePlayerDrop }
func (LeaveRoom) Type() Type   { return TypeLeaveRoom }
func (Ping) Type() Type        { return TypePing }
func (Disconnect) Type() Type  { return TypeDisconnect }

func (CreateRoom) action()  {}
func (JoinRoom) action()    {}
func (StartGame) action()   {}
func (DrawCard) action()    {}
func (DiscardCard) action() {}
func (DeclareWin) action()  {}
func (PlayerDrop) action()  {}
func (LeaveRoom) action()   {}
func (Ping) action()        {}
func (Disconnect) action()  {}

func (a JoinRoom) Room() string    { return a.RoomCode }
func (a StartGame) Room() string   { return a.RoomCode }
func (a DrawCard) Room() string    { return a.RoomCode }
func (a DiscardCard) Room() string { return a.RoomCode }
func (a DeclareWin) Room() string  { return a.RoomCode }
func (a PlayerDrop) Room() string  { return a.RoomCode }
func (a LeaveRoom) Room() string   { return a.RoomCode }

var (
	ErrBadJSON        = game.NewError(game.KindMalformed, "BAD_JSON", "message is not valid JSON")
	ErrUnknownAction  = game.NewError(game.KindMalformed, "UNKNOWN_ACTION", "unknown action type")
	ErrInvalidPayload = game.NewError(game.KindMalformed, "INVALID_PAYLOAD", "invalid payload")
)

// invalid reports a payload that parsed but failed validation.
func invalid(format string, args ...interface{}) error {
	return ErrInvalidPayload.WithMessage(format, args...)
}

// NormalizeRoomCode trims and upper-cases a room code typed by a player.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Decode parses a raw client message into a validated Action.
func Decode(data []byte) (Action, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, ErrBadJSON
	}
	return DecodeEnvelope(env)
}

// DecodeEnvelope decodes and validates the payload of an already parsed envelope.
func DecodeEnvelope(env Envelope) (Action, error) {
	var p payload
	switch env.Type {
	case TypeCreateRoom:
		p = &CreateRoom{}
	case TypeJoinRoom:
		p = &JoinRoom{}
	case TypeStartGame:
		p = &StartGame{}
	case TypeDrawCard:
		p = &DrawCard{}
	case TypeDiscardCard:
		p = &DiscardCard{}
	case TypeDeclareWin:
		p = &DeclareWin{}
	case TypePlayerDrop:
		p = &PlayerDrop{}
	case TypeLeaveRoom:
		p = &LeaveRoom{}
	case TypePing:
		return Ping{}, nil
	default:
		// disconnect is transport-only and is rejected like any unknown type.
		return nil, ErrUnknownAction.WithMessage("unknown action type %q", env.Type)
	}

	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		return nil, invalid("%s requires a payload", env.Type)
	}
	if err := json.Unmarshal(env.Payload, p); err != nil {
		return nil, invalid("%s payload: %v", env.Type, err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return deref(p), nil
}

// deref hands actions out by value so handlers can switch on concrete types.
func deref(p payload) Action {
	switch v := p.(type) {
	case *CreateRoom:
		return *v
	case *JoinRoom:
		return *v
	case *StartGame:
		return *v
	case *DrawCard:
		return *v
	case *DiscardCard:
		return *v
	case *DeclareWin:
		return *v
	case *PlayerDrop:
		return *v
	case *LeaveRoom:
		return *v
	}
	panic(fmt.Sprintf("actions: unhandled payload %T", p))
}

func requireRoom(code *string) error {
	*code = NormalizeRoomCode(*code)
	if *code == "" {
		return invalid("roomCode is required")
	}
	return nil
}

func requireName(name *string) error {
	*name = strings.TrimSpace(*name)
	if *name == "" {
		return invalid("playerName is required")
	}
	return nil
}

func (a *CreateRoom) validate() error {
	return requireName(&a.PlayerName)
}

func (a *JoinRoom) validate() error {
	if err := requireRoom(&a.RoomCode); err != nil {
		return err
	}
	return requireName(&a.PlayerName)
}

func (a *StartGame) validate() error { return requireRoom(&a.RoomCode) }

func (a *LeaveRoom) validate() error { return requireRoom(&a.RoomCode) }

func (a *DrawCard) validate() error {
	if err := requireRoom(&a.RoomCode); err != nil {
		return err
	}
	switch a.Source {
	case game.SourceDeck, game.SourceDiscard:
		return nil
	case "":
		return invalid("source is required")
	default:
		return game.ErrInvalidSource
	}
}

func (a *DiscardCard) validate() error {
	if err := requireRoom(&a.RoomCode); err != nil {
		return err
	}
	if a.CardID == uuid.Nil {
		return invalid("cardId is required")
	}
	return nil
}

func (a *DeclareWin) validate() error {
	if err := requireRoom(&a.RoomCode); err != nil {
		return err
	}
	if len(a.Groups) == 0 {
		return invalid("groups are required")
	}
	for i, g := range a.Groups {
		if len(g) == 0 {
			return invalid("group %d is empty", i)
		}
	}
	if a.Leftover == nil {
		a.Leftover = []uuid.UUID{}
	}
	return nil
}

func (a *PlayerDrop) validate() error {
	if err := requireRoom(&a.RoomCode); err != nil {
		return err
	}
	switch a.DropType {
	case game.DropFirst, game.DropMiddle:
		return nil
	case "":
		return invalid("dropType is required")
	default:
		return game.ErrInvalidDropType
	}
}

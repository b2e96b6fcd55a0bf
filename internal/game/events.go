// internal/game/events.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/rummy/internal/models"
)

// GameEventType names an outbound game event.
type GameEventType string

const (
	EventGameStarted       GameEventType = "game-started"        // private, first deal of the match
	EventRoundStarted      GameEventType = "round-started"       // private, every later deal
	EventGameState         GameEventType = "game-state"          // private, after every mutation
	EventTimerStarted      GameEventType = "timer-started"       // public, a turn began
	EventAutoPlayExecuted  GameEventType = "auto-play-executed"  // public, timeout draw+discard
	EventPlayerAutoDropped GameEventType = "player-auto-dropped" // public, repeated timeouts
	EventPlayerDropped     GameEventType = "player-dropped"      // public
	EventPlayerEliminated  GameEventType = "player-eliminated"   // public
	EventWrongShow         GameEventType = "wrong-show"          // public
	EventRoundWon          GameEventType = "round-won"           // public
	EventGameWon           GameEventType = "game-won"            // public
	EventDeckReshuffled    GameEventType = "deck-reshuffled"     // public
)

// EventUser identifies the subject of an event.
type EventUser struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name,omitempty"`
}

// EventCard is a face-up card referenced by an event.
type EventCard struct {
	ID   uuid.UUID   `json:"id"`
	Rank models.Rank `json:"rank"`
	Suit models.Suit `json:"suit"`
}

func eventCard(c *models.Card) *EventCard {
	if c == nil {
		return nil
	}
	return &EventCard{ID: c.ID, Rank: c.Rank, Suit: c.Suit}
}

func eventUser(p *models.Player) *EventUser {
	if p == nil {
		return nil
	}
	return &EventUser{ID: p.ID, Name: p.Name}
}

// GameEvent holds data about an event that can be broadcast to the clients in a consistent format.
type GameEvent struct {
	Type    GameEventType          `json:"type"`
	User    *EventUser             `json:"user,omitempty"`
	Card    *EventCard             `json:"card,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	State   *PlayerView            `json:"state,omitempty"`
}

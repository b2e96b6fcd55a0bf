package models

import (
	"github.com/google/uuid"
)

// Player is a seated participant in a rummy match. Hand, HasDrawn, Dropped and
// ConsecutiveTimeouts are reset at every deal; Score and Eliminated carry over.
type Player struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Hand []*Card   `json:"hand"`

	// HasDrawn is set once the player has drawn during their current turn.
	HasDrawn bool `json:"hasDrawn"`
	// Dropped marks a player out of the current round (drop, wrong show, auto-drop).
	Dropped bool `json:"dropped"`
	// Eliminated marks a player out of the match. Never reset.
	Eliminated bool `json:"eliminated"`

	Score               int `json:"score"`
	ConsecutiveTimeouts int `json:"-"`
	// TurnsTaken counts the turns this player completed in the current round.
	TurnsTaken int `json:"-"`
}

// Active reports whether the player still takes turns in the current round.
func (p *Player) Active() bool {
	return !p.Dropped && !p.Eliminated
}

// CardIndex returns the index of the card with the given ID in the hand, or -1.
func (p *Player) CardIndex(cardID uuid.UUID) int {
	for i, c := range p.Hand {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}

// RemoveCard takes the card with the given ID out of the hand.
func (p *Player) RemoveCard(cardID uuid.UUID) (*Card, bool) {
	idx := p.CardIndex(cardID)
	if idx < 0 {
		return nil, false
	}
	c := p.Hand[idx]
	p.Hand = append(p.Hand[:idx], p.Hand[idx+1:]...)
	return c, true
}

// ResetForDeal clears all round-scoped state.
func (p *Player) ResetForDeal() {
	p.Hand = make([]*Card, 0, 14)
	p.HasDrawn = false
	p.Dropped = false
	p.ConsecutiveTimeouts = 0
	p.TurnsTaken = 0
}

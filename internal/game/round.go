// internal/game/round.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/rummy/internal/declaration"
	"github.com/jason-s-yu/rummy/internal/deck"
	"github.com/jason-s-yu/rummy/internal/models"
)

// Round is the state of a single deal. A new Round replaces the old one at every
// deal; only player identity and cumulative score survive.
type Round struct {
	Number      int
	Deck        *deck.Deck
	DiscardPile []*models.Card
	// Dead holds the hands of players who left the round. They stay out of play.
	Dead     []*models.Card
	CutJoker *models.Card
	Wilds    declaration.Wilds

	// TurnCount is the number of completed turns.
	TurnCount int
	// SeatsAtDeal is the number of players dealt in.
	SeatsAtDeal int
	// TotalCards is the size of the deck before the cut joker was drawn.
	TotalCards int

	Over     bool
	WinnerID uuid.UUID
}

// DiscardTop returns the visible discard card, or nil.
func (r *Round) DiscardTop() *models.Card {
	if len(r.DiscardPile) == 0 {
		return nil
	}
	return r.DiscardPile[len(r.DiscardPile)-1]
}

// popDiscard removes the top of the discard pile.
func (r *Round) popDiscard() *models.Card {
	top := r.DiscardTop()
	if top != nil {
		r.DiscardPile[len(r.DiscardPile)-1] = nil
		r.DiscardPile = r.DiscardPile[:len(r.DiscardPile)-1]
	}
	return top
}

// reshuffleDiscard moves every discard except the top back into the deck.
// It reports false when there is nothing to move.
func (r *Round) reshuffleDiscard() bool {
	if len(r.DiscardPile) <= 1 {
		return false
	}
	top := r.DiscardTop()
	rest := make([]*models.Card, len(r.DiscardPile)-1)
	copy(rest, r.DiscardPile[:len(r.DiscardPile)-1])
	r.DiscardPile = []*models.Card{top}
	r.Deck.Refill(rest)
	return true
}

// cardsAccountedFor counts every card of the round: stock, discards, dead
// cards, hands and the cut joker.
func (r *Round) cardsAccountedFor(players []*models.Player) int {
	n := r.Deck.Len() + len(r.DiscardPile) + len(r.Dead) + 1
	for _, p := range players {
		n += len(p.Hand)
	}
	return n
}

// Package deck holds the undealt stock of a rummy round.
package deck

import (
	"errors"
	"math/rand/v2"

	"github.com/jason-s-yu/rummy/internal/models"
)

// ErrEmptyDeck is returned by Draw when no cards remain.
var ErrEmptyDeck = errors.New("deck is empty")

// SuitedDecks is the number of 52-card decks combined into one stock.
const SuitedDecks = 2

// Deck is an ordered stack of cards. The top of the deck is the end of the slice.
type Deck struct {
	cards []*models.Card
	rng   *rand.Rand
}

// New builds two suited decks plus the given number of printed jokers, assigns
// each card a unique ID and shuffles. A nil rng uses the global source.
func New(jokers int, rng *rand.Rand) *Deck {
	cards := make([]*models.Card, 0, SuitedDecks*52+jokers)
	for i := 0; i < SuitedDecks; i++ {
		for _, suit := range models.Suits {
			for _, rank := range models.Ranks {
				cards = append(cards, models.NewCard(suit, rank))
			}
		}
	}
	for i := 0; i < jokers; i++ {
		cards = append(cards, models.NewCard(models.SuitJoker, models.RankJoker))
	}
	d := &Deck{cards: cards, rng: rng}
	d.Shuffle()
	return d
}

// FromCards wraps cards in a Deck without shuffling. The last card is drawn first.
func FromCards(cards []*models.Card, rng *rand.Rand) *Deck {
	cp := make([]*models.Card, len(cards))
	copy(cp, cards)
	return &Deck{cards: cp, rng: rng}
}

// Len returns the number of cards left.
func (d *Deck) Len() int {
	return len(d.cards)
}

// Draw removes and returns the top card.
func (d *Deck) Draw() (*models.Card, error) {
	n := len(d.cards)
	if n == 0 {
		return nil, ErrEmptyDeck
	}
	c := d.cards[n-1]
	d.cards[n-1] = nil
	d.cards = d.cards[:n-1]
	return c, nil
}

// Shuffle permutes the remaining cards uniformly (Fisher-Yates).
func (d *Deck) Shuffle() {
	swap := func(i, j int) { d.cards[i], d.cards[j] = d.cards[j], d.cards[i] }
	if d.rng != nil {
		d.rng.Shuffle(len(d.cards), swap)
		return
	}
	rand.Shuffle(len(d.cards), swap)
}

// Refill adds cards to the deck and reshuffles the whole stack.
func (d *Deck) Refill(cards []*models.Card) {
	d.cards = append(d.cards, cards...)
	d.Shuffle()
}

// internal/models/card.go
package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Suit is a single-letter suit code. Printed jokers use SuitJoker.
type Suit string

const (
	SuitSpades   Suit = "S"
	SuitHearts   Suit = "H"
	SuitDiamonds Suit = "D"
	SuitClubs    Suit = "C"
	SuitJoker    Suit = "X"
)

// Suits lists the four standard suits in deck-construction order.
var Suits = []Suit{SuitSpades, SuitHearts, SuitDiamonds, SuitClubs}

// Rank is a card face. RankJoker marks a printed joker.
type Rank string

const (
	RankAce   Rank = "A"
	RankTwo   Rank = "2"
	RankThree Rank = "3"
	RankFour  Rank = "4"
	RankFive  Rank = "5"
	RankSix   Rank = "6"
	RankSeven Rank = "7"
	RankEight Rank = "8"
	RankNine  Rank = "9"
	RankTen   Rank = "10"
	RankJack  Rank = "J"
	RankQueen Rank = "Q"
	RankKing  Rank = "K"
	RankJoker Rank = "JOKER"
)

// Ranks lists the thirteen standard ranks, Ace low.
var Ranks = []Rank{
	RankAce, RankTwo, RankThree, RankFour, RankFive, RankSix, RankSeven,
	RankEight, RankNine, RankTen, RankJack, RankQueen, RankKing,
}

var rankIndex = func() map[Rank]int {
	m := make(map[Rank]int, len(Ranks))
	for i, r := range Ranks {
		m[r] = i
	}
	return m
}()

// Index returns the position of r in Ranks, or -1 for jokers and unknown ranks.
func (r Rank) Index() int {
	if i, ok := rankIndex[r]; ok {
		return i
	}
	return -1
}

// Valid reports whether r is a standard rank or the joker sentinel.
func (r Rank) Valid() bool {
	return r == RankJoker || r.Index() >= 0
}

// Next returns the following rank in cyclic order, wrapping K to A.
// A printed joker has no position, so its successor is A.
func (r Rank) Next() Rank {
	return Ranks[(r.Index()+1)%len(Ranks)]
}

// Card is a single physical card. Two decks are in play, so suit and rank do not
// identify a card; ID does.
type Card struct {
	ID   uuid.UUID `json:"id"`
	Suit Suit      `json:"suit"`
	Rank Rank      `json:"rank"`
}

// NewCard builds a card with a fresh random ID.
func NewCard(suit Suit, rank Rank) *Card {
	return &Card{ID: uuid.New(), Suit: suit, Rank: rank}
}

// IsJoker reports whether c is a printed joker.
func (c *Card) IsJoker() bool {
	return c.Rank == RankJoker
}

func (c *Card) String() string {
	if c.IsJoker() {
		return "JOKER"
	}
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// Points returns the face value used when a hand is counted: A, J, Q, K are 10,
// jokers are 0 and number cards count their pip value.
func (c *Card) Points() int {
	switch c.Rank {
	case RankJoker:
		return 0
	case RankAce, RankJack, RankQueen, RankKing:
		return 10
	default:
		return c.Rank.Index() + 1
	}
}

// Package declaration decides whether a proposed grouping of a rummy hand is a
// legal show.
//
// A show is a partition of the hand into groups, each a set (same rank, distinct
// suits) or a sequence (same suit, consecutive ranks, Ace low), plus at most one
// leftover card. Printed jokers and cards of the wild rank may stand in for
// missing cards. The wild rank is the rank following the round's cut joker.
package declaration

import (
	"sort"

	"github.com/jason-s-yu/rummy/internal/models"
)

// Reason explains why a declaration was rejected.
type Reason string

const (
	ReasonTooManyLeftover Reason = "too many ungrouped cards"
	ReasonTooFewGroups    Reason = "at least two groups required"
	ReasonShortGroup      Reason = "every group needs at least three cards"
	ReasonInvalidGroup    Reason = "group is neither a set nor a sequence"
	ReasonNoPureSequence  Reason = "no pure sequence"
	ReasonTooFewSequences Reason = "at least two sequences required"
)

// Kind is the classification of a valid group.
type Kind string

const (
	KindSequence Kind = "sequence"
	KindSet      Kind = "set"
)

// Options tunes wild card rules.
type Options struct {
	// ExcludeCutJokerSuit makes a wild-rank card of the cut joker's own suit an
	// ordinary card. By default every card of the wild rank is wild.
	ExcludeCutJokerSuit bool `json:"excludeCutJokerSuit"`
}

// GroupResult describes one validated group.
type GroupResult struct {
	Kind Kind `json:"kind"`
	Pure bool `json:"pure"`
}

// Result is the outcome of Validate. On failure Reason is set, and BadGroup holds
// the index of the offending group for the group-level rules (otherwise -1).
type Result struct {
	Valid    bool          `json:"valid"`
	Reason   Reason        `json:"reason,omitempty"`
	BadGroup int           `json:"badGroup"`
	Groups   []GroupResult `json:"groups,omitempty"`
}

// WildRank returns the rank that is wild for a round with the given cut joker.
func WildRank(cutJoker *models.Card) models.Rank {
	return cutJoker.Rank.Next()
}

// Wilds decides which cards may act as substitutes in a round.
type Wilds struct {
	rank        models.Rank
	cutSuit     models.Suit
	excludeSuit bool
}

// NewWilds builds the wild card rule for a round.
func NewWilds(cutJoker *models.Card, opts Options) Wilds {
	return Wilds{
		rank:        WildRank(cutJoker),
		cutSuit:     cutJoker.Suit,
		excludeSuit: opts.ExcludeCutJokerSuit && !cutJoker.IsJoker(),
	}
}

// Rank returns the wild rank.
func (w Wilds) Rank() models.Rank { return w.rank }

// IsWild reports whether c may substitute for another card.
func (w Wilds) IsWild(c *models.Card) bool {
	if c.IsJoker() {
		return true
	}
	if c.Rank != w.rank {
		return false
	}
	return !(w.excludeSuit && c.Suit == w.cutSuit)
}

func printedJoker(c *models.Card) bool { return c.IsJoker() }

// CheckSet reports whether group is a valid set and whether it is pure.
//
// The group is first read with only printed jokers as substitutes, so a
// wild-rank card standing at its own rank is not counted as a substitute.
func CheckSet(group []*models.Card, w Wilds) (valid, pure bool) {
	if ok, used := evalSet(group, printedJoker); ok {
		return true, used == 0
	}
	ok, used := evalSet(group, w.IsWild)
	return ok, ok && used == 0
}

// CheckSequence reports whether group is a valid sequence and whether it is pure.
// It uses the same natural-first reading as CheckSet.
func CheckSequence(group []*models.Card, w Wilds) (valid, pure bool) {
	if ok, used := evalSequence(group, printedJoker); ok {
		return true, used == 0
	}
	ok, used := evalSequence(group, w.IsWild)
	return ok, ok && used == 0
}

func partition(group []*models.Card, isWild func(*models.Card) bool) (naturals []*models.Card, wilds int) {
	naturals = make([]*models.Card, 0, len(group))
	for _, c := range group {
		if isWild(c) {
			wilds++
			continue
		}
		naturals = append(naturals, c)
	}
	return naturals, wilds
}

func evalSet(group []*models.Card, isWild func(*models.Card) bool) (bool, int) {
	naturals, wilds := partition(group, isWild)
	if len(naturals) == 0 {
		return false, 0
	}
	rank := naturals[0].Rank
	suits := make(map[models.Suit]bool, len(naturals))
	for _, c := range naturals {
		if c.Rank != rank || suits[c.Suit] {
			return false, 0
		}
		suits[c.Suit] = true
	}
	return true, wilds
}

func evalSequence(group []*models.Card, isWild func(*models.Card) bool) (bool, int) {
	if len(group) > len(models.Ranks) {
		return false, 0
	}
	naturals, wilds := partition(group, isWild)
	if len(naturals) == 0 {
		return false, 0
	}
	suit := naturals[0].Suit
	idx := make([]int, 0, len(naturals))
	for _, c := range naturals {
		if c.Suit != suit {
			return false, 0
		}
		idx = append(idx, c.Rank.Index())
	}
	sort.Ints(idx)

	budget := wilds
	for i := 0; i+1 < len(idx); i++ {
		gap := idx[i+1] - idx[i] - 1
		if gap < 0 {
			return false, 0
		}
		budget -= gap
		if budget < 0 {
			return false, 0
		}
	}
	// Wilds not spent on gaps extend the run at either end.
	return true, wilds
}

// Classify validates one group, preferring the sequence reading. A group that
// reads both ways, such as one natural card padded with two jokers, counts
// toward the sequence requirement.
func Classify(group []*models.Card, w Wilds) (GroupResult, bool) {
	if ok, pure := CheckSequence(group, w); ok {
		return GroupResult{Kind: KindSequence, Pure: pure}, true
	}
	if ok, pure := CheckSet(group, w); ok {
		return GroupResult{Kind: KindSet, Pure: pure}, true
	}
	return GroupResult{}, false
}

// Validate applies the show rules in order and reports the first one broken.
// It does not check that the cards belong to the declaring player; callers
// reconcile the partition against the hand first.
func Validate(groups [][]*models.Card, leftover []*models.Card, cutJoker *models.Card, opts Options) Result {
	fail := func(r Reason, group int) Result {
		return Result{Reason: r, BadGroup: group}
	}

	if len(leftover) > 1 {
		return fail(ReasonTooManyLeftover, -1)
	}
	if len(groups) < 2 {
		return fail(ReasonTooFewGroups, -1)
	}
	for i, g := range groups {
		if len(g) < 3 {
			return fail(ReasonShortGroup, i)
		}
	}

	w := NewWilds(cutJoker, opts)
	results := make([]GroupResult, 0, len(groups))
	sequences, pureSequences := 0, 0
	for i, g := range groups {
		gr, ok := Classify(g, w)
		if !ok {
			return fail(ReasonInvalidGroup, i)
		}
		if gr.Kind == KindSequence {
			sequences++
			if gr.Pure {
				pureSequences++
			}
		}
		results = append(results, gr)
	}

	if pureSequences == 0 {
		return Result{Reason: ReasonNoPureSequence, BadGroup: -1, Groups: results}
	}
	if sequences < 2 {
		return Result{Reason: ReasonTooFewSequences, BadGroup: -1, Groups: results}
	}
	return Result{Valid: true, BadGroup: -1, Groups: results}
}

// internal/game/rules.go
package game

import (
	"fmt"
	"time"

	"github.com/jason-s-yu/rummy/internal/declaration"
)

// HandSize is the number of cards dealt to each player.
const HandSize = 13

// Upper bounds for client-supplied timer overrides.
const (
	MaxTurnTimerSec = 3600
	MaxRoundBreakMs = 60000
)

// DropScope controls when a first drop is still available.
type DropScope string

const (
	// DropScopePlayer allows a first drop until the player has completed a turn.
	DropScopePlayer DropScope = "player"
	// DropScopeRound allows a first drop only during the round's first turn cycle.
	DropScopeRound DropScope = "round"
)

// HouseRules defines the table rules for a room.
type HouseRules struct {
	TurnTimerSec           int       `json:"turnTimerSec"`           // seconds before a turn times out; 0 disables the timer
	RoundBreakMs           int       `json:"roundBreakMs"`           // pause between rounds; 0 deals the next round immediately
	JokerCount             int       `json:"jokerCount"`             // printed jokers added to the two decks
	MaxPlayers             int       `json:"maxPlayers"`             // seats per room
	EliminationScore       int       `json:"eliminationScore"`       // cumulative score that knocks a player out of the match
	FirstDropPenalty       int       `json:"firstDropPenalty"`       // points for dropping before the first turn
	MiddleDropPenalty      int       `json:"middleDropPenalty"`      // points for dropping later, or after repeated timeouts
	WrongShowPenalty       int       `json:"wrongShowPenalty"`       // points for an invalid declaration
	DeclareLossPenalty     int       `json:"declareLossPenalty"`     // points charged to every active loser of a valid declaration
	MaxConsecutiveTimeouts int       `json:"maxConsecutiveTimeouts"` // timeouts in a row that auto-drop a player; 0 never drops
	FirstDropScope         DropScope `json:"firstDropScope"`
	WildExcludesCutSuit    bool      `json:"wildExcludesCutSuit"` // wild-rank cards of the cut joker's suit are not wild
}

// DefaultHouseRules returns the standard table rules.
func DefaultHouseRules() HouseRules {
	return HouseRules{
		TurnTimerSec:           45,
		RoundBreakMs:           3000,
		JokerCount:             2,
		MaxPlayers:             6,
		EliminationScore:       250,
		FirstDropPenalty:       25,
		MiddleDropPenalty:      50,
		WrongShowPenalty:       80,
		DeclareLossPenalty:     80,
		MaxConsecutiveTimeouts: 2,
		FirstDropScope:         DropScopePlayer,
	}
}

// TurnDuration is the turn timer length.
func (rules HouseRules) TurnDuration() time.Duration {
	return time.Duration(rules.TurnTimerSec) * time.Second
}

// RoundBreak is the pause before the next deal.
func (rules HouseRules) RoundBreak() time.Duration {
	return time.Duration(rules.RoundBreakMs) * time.Millisecond
}

// DeclarationOptions returns the validator options implied by the rules.
func (rules HouseRules) DeclarationOptions() declaration.Options {
	return declaration.Options{ExcludeCutJokerSuit: rules.WildExcludesCutSuit}
}

// Validate checks that the rules describe a playable table.
func (rules HouseRules) Validate() error {
	if rules.JokerCount < 2 || rules.JokerCount > 3 {
		return fmt.Errorf("jokerCount must be 2 or 3")
	}
	if rules.MaxPlayers < 2 {
		return fmt.Errorf("maxPlayers must be at least 2")
	}
	// Two cards leave the deck before dealing: the cut joker and the first discard.
	if rules.MaxPlayers*HandSize+2 > 104+rules.JokerCount {
		return fmt.Errorf("not enough cards to deal %d hands", rules.MaxPlayers)
	}
	if rules.TurnTimerSec < 0 || rules.TurnTimerSec > MaxTurnTimerSec {
		return fmt.Errorf("turnTimerSec must be between 0 and %d", MaxTurnTimerSec)
	}
	if rules.RoundBreakMs < 0 || rules.RoundBreakMs > MaxRoundBreakMs {
		return fmt.Errorf("roundBreakMs must be between 0 and %d", MaxRoundBreakMs)
	}
	if rules.EliminationScore <= 0 {
		return fmt.Errorf("eliminationScore must be positive")
	}
	if rules.FirstDropScope != DropScopePlayer && rules.FirstDropScope != DropScopeRound {
		return fmt.Errorf("firstDropScope must be %q or %q", DropScopePlayer, DropScopeRound)
	}
	return nil
}

// Update will update the house rules with the new rules provided.
// If a rule is not set or defined, it will be ignored, and the old value will persist.
func (rules *HouseRules) Update(newRules map[string]interface{}) error {
	assignBool := func(field *bool, key string) error {
		if val, exists := newRules[key]; exists && val != nil {
			b, ok := val.(bool)
			if !ok {
				return fmt.Errorf("invalid type for %s", key)
			}
			*field = b
		}
		return nil
	}

	assignInt := func(field *int, key string, minVal, maxVal int) error {
		val, exists := newRules[key]
		if !exists || val == nil {
			return nil
		}
		var n int
		switch v := val.(type) {
		case float64: // JSON numbers decode as float64
			// Bound before converting so huge values cannot wrap.
			if v < float64(minVal) || v > float64(maxVal) {
				return fmt.Errorf("%s must be between %d and %d", key, minVal, maxVal)
			}
			n = int(v)
		case int:
			n = v
		default:
			return fmt.Errorf("invalid type for %s", key)
		}
		if n < minVal || n > maxVal {
			return fmt.Errorf("%s must be between %d and %d", key, minVal, maxVal)
		}
		*field = n
		return nil
	}

	ints := []struct {
		field    *int
		key      string
		min, max int
	}{
		{&rules.TurnTimerSec, "turnTimerSec", 0, MaxTurnTimerSec},
		{&rules.RoundBreakMs, "roundBreakMs", 0, MaxRoundBreakMs},
		{&rules.JokerCount, "jokerCount", 2, 3},
		{&rules.MaxPlayers, "maxPlayers", 2, 8},
		{&rules.EliminationScore, "eliminationScore", 1, 10000},
		{&rules.FirstDropPenalty, "firstDropPenalty", 0, 1000},
		{&rules.MiddleDropPenalty, "middleDropPenalty", 0, 1000},
		{&rules.WrongShowPenalty, "wrongShowPenalty", 0, 1000},
		{&rules.DeclareLossPenalty, "declareLossPenalty", 0, 1000},
		{&rules.MaxConsecutiveTimeouts, "maxConsecutiveTimeouts", 0, 10},
	}
	for _, r := range ints {
		if err := assignInt(r.field, r.key, r.min, r.max); err != nil {
			return err
		}
	}
	if err := assignBool(&rules.WildExcludesCutSuit, "wildExcludesCutSuit"); err != nil {
		return err
	}
	if val, exists := newRules["firstDropScope"]; exists && val != nil {
		s, ok := val.(string)
		if !ok {
			return fmt.Errorf("invalid type for firstDropScope")
		}
		rules.FirstDropScope = DropScope(s)
	}
	return rules.Validate()
}

// ParseRules applies a map of overrides to a copy of current.
func ParseRules(overrides map[string]interface{}, current HouseRules) (HouseRules, error) {
	houseRules := current
	err := houseRules.Update(overrides)
	return houseRules, err
}

// internal/game/errors.go
package game

import "fmt"

// ErrorKind groups rejected actions by how callers should treat them.
type ErrorKind string

const (
	// KindPrecondition covers actions taken out of turn or in the wrong phase.
	KindPrecondition ErrorKind = "precondition"
	// KindResourceExhausted covers draws from an empty source.
	KindResourceExhausted ErrorKind = "resource_exhausted"
	// KindSetup covers room and lobby rejections.
	KindSetup ErrorKind = "setup"
	// KindMalformed covers payloads that fail validation.
	KindMalformed ErrorKind = "malformed"
)

// GameError is a rejected action. It never changes game state and is reported
// only to the acting player.
type GameError struct {
	Code    string    `json:"code"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *GameError) Error() string {
	return e.Code + ": " + e.Message
}

// Is matches any GameError with the same code, so a sentinel matches errors
// built with a more specific message.
func (e *GameError) Is(target error) bool {
	t, ok := target.(*GameError)
	return ok && t.Code == e.Code
}

// WithMessage returns a copy of e carrying a more specific message.
func (e *GameError) WithMessage(format string, args ...interface{}) *GameError {
	return &GameError{Code: e.Code, Kind: e.Kind, Message: fmt.Sprintf(format, args...)}
}

// NewError builds a GameError. Compare with errors.Is against the sentinels below.
func NewError(kind ErrorKind, code, message string) *GameError {
	return &GameError{Code: code, Kind: kind, Message: message}
}

var (
	ErrNotYourTurn          = NewError(KindPrecondition, "NOT_YOUR_TURN", "it is not your turn")
	ErrAlreadyDrawn         = NewError(KindPrecondition, "ALREADY_DRAWN", "you have already drawn this turn")
	ErrMustDrawFirst        = NewError(KindPrecondition, "MUST_DRAW_FIRST", "draw a card before discarding or declaring")
	ErrPlayerOut            = NewError(KindPrecondition, "PLAYER_OUT", "you are out of this round")
	ErrCardNotInHand        = NewError(KindPrecondition, "CARD_NOT_IN_HAND", "that card is not in your hand")
	ErrHandMismatch         = NewError(KindPrecondition, "HAND_MISMATCH", "declaration must use every card in your hand exactly once")
	ErrCannotDropAfterDraw  = NewError(KindPrecondition, "CANNOT_DROP", "you can only drop before drawing")
	ErrFirstDropUnavailable = NewError(KindPrecondition, "FIRST_DROP_UNAVAILABLE", "first drop is no longer available")
	ErrRoundOver            = NewError(KindPrecondition, "ROUND_OVER", "no round is in progress")
	ErrGameNotStarted       = NewError(KindPrecondition, "GAME_NOT_STARTED", "the game has not started")
	ErrUnknownPlayer        = NewError(KindPrecondition, "UNKNOWN_PLAYER", "you are not seated in this game")
	ErrSourceEmpty          = NewError(KindResourceExhausted, "SOURCE_EMPTY", "nothing left to draw from that pile")
	ErrInvalidSource        = NewError(KindMalformed, "INVALID_SOURCE", "draw source must be deck or discard")
	ErrInvalidDropType      = NewError(KindMalformed, "INVALID_DROP_TYPE", "drop type must be first or middle")
)

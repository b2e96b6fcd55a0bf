// internal/game/sync_state.go
package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/rummy/internal/models"
)

// PlayerSummary is another seat as seen by the viewer: no cards, only a count.
type PlayerSummary struct {
	PlayerID      uuid.UUID `json:"playerId"`
	Name          string    `json:"name"`
	HandSize      int       `json:"handSize"`
	Score         int       `json:"score"`
	HasDrawn      bool      `json:"hasDrawn"`
	Dropped       bool      `json:"dropped"`
	Eliminated    bool      `json:"eliminated"`
	IsCurrentTurn bool      `json:"isCurrentTurn"`
}

// PlayerView is the game as one player may see it. It carries the viewer's own
// hand and nothing else that is face down; the stock is reduced to its size.
type PlayerView struct {
	GameID          uuid.UUID       `json:"gameId"`
	RoomCode        string          `json:"roomCode"`
	RoundNumber     int             `json:"roundNumber"`
	Phase           Phase           `json:"phase"`
	TurnID          int             `json:"turnId"`
	CurrentPlayerID uuid.UUID       `json:"currentPlayerId"`
	TurnRemainingMs int64           `json:"turnRemainingMs"`
	CutJoker        *models.Card    `json:"cutJoker,omitempty"`
	WildRank        models.Rank     `json:"wildRank,omitempty"`
	DeckSize        int             `json:"deckSize"`
	DiscardSize     int             `json:"discardSize"`
	DiscardTop      *models.Card    `json:"discardTop,omitempty"`
	Hand            []*models.Card  `json:"hand"`
	HasDrawn        bool            `json:"hasDrawn"`
	Players         []PlayerSummary `json:"players"`
	GameOver        bool            `json:"gameOver"`
	WinnerID        *uuid.UUID      `json:"winnerId,omitempty"`
}

// View generates a snapshot of the game for the requesting player.
func (g *RummyGame) View(forPlayer uuid.UUID) PlayerView {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.viewFor(forPlayer)
}

// viewFor builds the projection for one player. Assumes lock is held.
func (g *RummyGame) viewFor(forPlayer uuid.UUID) PlayerView {
	v := PlayerView{
		GameID:      g.ID,
		RoomCode:    g.RoomCode,
		RoundNumber: g.RoundNumber,
		Phase:       g.phase(),
		TurnID:      g.TurnID,
		GameOver:    g.GameOver,
		Hand:        []*models.Card{},
	}
	if g.GameOver && g.WinnerID != uuid.Nil {
		w := g.WinnerID
		v.WinnerID = &w
	}

	r := g.Round
	if r != nil {
		v.CutJoker = r.CutJoker
		v.WildRank = r.Wilds.Rank()
		v.DeckSize = r.Deck.Len()
		v.DiscardSize = len(r.DiscardPile)
		v.DiscardTop = r.DiscardTop()
	}

	inPlay := g.roundInPlay() == nil
	if inPlay {
		v.CurrentPlayerID = g.currentPlayer().ID
		v.TurnRemainingMs = g.turnTimeLeft().Milliseconds()
	}

	v.Players = make([]PlayerSummary, 0, len(g.Players))
	for i, p := range g.Players {
		v.Players = append(v.Players, PlayerSummary{
			PlayerID:      p.ID,
			Name:          p.Name,
			HandSize:      len(p.Hand),
			Score:         p.Score,
			HasDrawn:      p.HasDrawn,
			Dropped:       p.Dropped,
			Eliminated:    p.Eliminated,
			IsCurrentTurn: inPlay && i == g.CurrentPlayerIndex,
		})
		if p.ID == forPlayer {
			v.Hand = append(v.Hand, p.Hand...)
			v.HasDrawn = p.HasDrawn
		}
	}
	return v
}

func (g *RummyGame) phase() Phase {
	switch {
	case g.GameOver:
		return PhaseGameOver
	case !g.Started || g.Round == nil:
		return PhaseNotStarted
	case g.Round.Over:
		return PhaseRoundOver
	case g.currentPlayer().HasDrawn:
		return PhaseAwaitingDiscard
	default:
		return PhaseAwaitingDraw
	}
}

// sendStateToAll sends every seated player their own projection.
// Assumes lock is held.
func (g *RummyGame) sendStateToAll(evType GameEventType) {
	for _, p := range g.Players {
		v := g.viewFor(p.ID)
		g.fireEventToPlayer(p.ID, GameEvent{Type: evType, State: &v})
	}
}

// turnTimeLeft is the time until the pending turn timer fires. Assumes lock is held.
func (g *RummyGame) turnTimeLeft() time.Duration {
	if g.turnDeadline.IsZero() {
		return 0
	}
	return max(g.turnDeadline.Sub(g.Clock.Now()), 0)
}

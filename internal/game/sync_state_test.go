package game

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jason-s-yu/rummy/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewHidesOtherHands(t *testing.T) {
	g, players, _, _ := setupTestGame(t, 3, nil)
	a, b, c := players[0], players[1], players[2]
	_, err := g.Draw(a.ID, SourceDeck)
	require.NoError(t, err)

	v := g.View(b.ID)
	assert.Equal(t, b.Hand, v.Hand)
	assert.False(t, v.HasDrawn)
	assert.Equal(t, a.ID, v.CurrentPlayerID)
	assert.Equal(t, PhaseAwaitingDiscard, v.Phase)
	assert.Equal(t, g.Round.Deck.Len(), v.DeckSize)
	assert.Equal(t, g.Round.CutJoker.Rank.Next(), v.WildRank)

	want := []PlayerSummary{
		{PlayerID: a.ID, Name: "player1", HandSize: 14, HasDrawn: true, IsCurrentTurn: true},
		{PlayerID: b.ID, Name: "player2", HandSize: 13},
		{PlayerID: c.ID, Name: "player3", HandSize: 13},
	}
	if diff := cmp.Diff(want, v.Players); diff != "" {
		t.Errorf("player summaries mismatch (-want +got):\n%s", diff)
	}

	raw, err := json.Marshal(v)
	require.NoError(t, err)
	body := string(raw)
	hidden := append([]*models.Card{}, a.Hand...)
	hidden = append(hidden, c.Hand...)
	for _, card := range hidden {
		assert.False(t, strings.Contains(body, card.ID.String()), "card %s of another player leaked", card)
	}
	for _, card := range g.Round.DiscardPile[:len(g.Round.DiscardPile)-1] {
		assert.False(t, strings.Contains(body, card.ID.String()), "buried discard %s leaked", card)
	}
	assert.NotContains(t, body, `"deck"`)
}

func TestViewTracksTimer(t *testing.T) {
	g, players, _, clk := setupTestGame(t, 2, nil)
	v := g.View(players[0].ID)
	assert.Equal(t, int64(45000), v.TurnRemainingMs)
	assert.Equal(t, 1, v.TurnID)

	clk.fire(t)
	v = g.View(players[0].ID)
	assert.Equal(t, 2, v.TurnID)
	assert.Equal(t, players[1].ID, v.CurrentPlayerID)
	assert.Equal(t, int64(45000), v.TurnRemainingMs)
}

func TestViewForSpectator(t *testing.T) {
	g, _, _, _ := setupTestGame(t, 2, nil)
	v := g.View(g.ID)
	assert.Empty(t, v.Hand)
	assert.Len(t, v.Players, 2)
	assert.Nil(t, v.WinnerID)
}

package deck

import (
	"math/rand/v2"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/rummy/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeckComposition(t *testing.T) {
	for _, jokers := range []int{2, 3} {
		d := New(jokers, rand.New(rand.NewPCG(1, 2)))
		require.Equal(t, 104+jokers, d.Len())

		ids := make(map[uuid.UUID]bool)
		faces := make(map[string]int)
		jokerCount := 0
		for d.Len() > 0 {
			c, err := d.Draw()
			require.NoError(t, err)
			assert.False(t, ids[c.ID], "duplicate card id %s", c.ID)
			ids[c.ID] = true
			if c.IsJoker() {
				jokerCount++
				continue
			}
			faces[c.String()]++
		}
		assert.Equal(t, jokers, jokerCount)
		assert.Len(t, faces, 52)
		for face, n := range faces {
			assert.Equal(t, 2, n, "face %s", face)
		}
	}
}

func TestDrawEmptyDeck(t *testing.T) {
	d := FromCards(nil, nil)
	c, err := d.Draw()
	assert.Nil(t, c)
	assert.ErrorIs(t, err, ErrEmptyDeck)
}

func TestDrawTakesFromTop(t *testing.T) {
	a := models.NewCard(models.SuitHearts, models.RankTwo)
	b := models.NewCard(models.SuitClubs, models.RankKing)
	d := FromCards([]*models.Card{a, b}, nil)

	c, err := d.Draw()
	require.NoError(t, err)
	assert.Equal(t, b.ID, c.ID)
	c, err = d.Draw()
	require.NoError(t, err)
	assert.Equal(t, a.ID, c.ID)
	assert.Equal(t, 0, d.Len())
}

func TestRefillKeepsEveryCard(t *testing.T) {
	d := FromCards(nil, rand.New(rand.NewPCG(7, 7)))
	var cards []*models.Card
	for _, r := range models.Ranks {
		cards = append(cards, models.NewCard(models.SuitSpades, r))
	}
	d.Refill(cards)
	require.Equal(t, len(cards), d.Len())

	seen := make(map[uuid.UUID]bool)
	for d.Len() > 0 {
		c, _ := d.Draw()
		seen[c.ID] = true
	}
	for _, c := range cards {
		assert.True(t, seen[c.ID])
	}
}

// A seeded shuffle of a small deck should visit every position for a given card.
func TestShuffleIsNotBiasedToStart(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 99))
	positions := make(map[int]bool)
	for i := 0; i < 500; i++ {
		cards := []*models.Card{
			models.NewCard(models.SuitSpades, models.RankAce),
			models.NewCard(models.SuitSpades, models.RankTwo),
			models.NewCard(models.SuitSpades, models.RankThree),
			models.NewCard(models.SuitSpades, models.RankFour),
		}
		d := FromCards(cards, rng)
		d.Shuffle()
		for pos := 0; d.Len() > 0; pos++ {
			c, _ := d.Draw()
			if c.ID == cards[0].ID {
				positions[pos] = true
			}
		}
	}
	assert.Len(t, positions, 4)
}

func TestRankNextWraps(t *testing.T) {
	assert.Equal(t, models.RankAce, models.RankKing.Next())
	assert.Equal(t, models.RankSix, models.RankFive.Next())
	assert.Equal(t, models.RankAce, models.RankJoker.Next())
}

// internal/game/game.go
package game

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/rummy/internal/cache"
	"github.com/jason-s-yu/rummy/internal/declaration"
	"github.com/jason-s-yu/rummy/internal/deck"
	"github.com/jason-s-yu/rummy/internal/models"
	"github.com/sirupsen/logrus"
)

// Phase is the turn phase of the current player.
type Phase string

const (
	PhaseAwaitingDraw    Phase = "awaiting_draw"
	PhaseAwaitingDiscard Phase = "awaiting_discard"
	PhaseRoundOver       Phase = "round_over"
	PhaseGameOver        Phase = "game_over"
	PhaseNotStarted      Phase = "not_started"
)

// DrawSource selects the pile a player draws from.
type DrawSource string

const (
	SourceDeck    DrawSource = "deck"
	SourceDiscard DrawSource = "discard"
)

// DropType is the kind of drop a player asks for.
type DropType string

const (
	DropFirst  DropType = "first"
	DropMiddle DropType = "middle"
)

// OnGameEndFunc is invoked once the match has a winner (uuid.Nil when nobody is left).
type OnGameEndFunc func(roomCode string, winner uuid.UUID, scores map[uuid.UUID]int)

// ActionPublisher receives a record of every game action. The Redis action queue
// implements it.
type ActionPublisher interface {
	Publish(ctx context.Context, record cache.ActionRecord) error
}

// RummyGame holds the entire state for a single match in memory. Every exported
// method takes Mu for its whole duration, so actions on one game never interleave.
type RummyGame struct {
	ID       uuid.UUID
	RoomCode string
	Rules    HouseRules

	// Players in seat order, including eliminated players.
	Players []*models.Player
	Round   *Round

	RoundNumber        int
	CurrentPlayerIndex int
	TurnID             int // increments each turn

	Started  bool
	GameOver bool
	WinnerID uuid.UUID

	Mu sync.Mutex

	// BroadcastFn is used to send events to all players. If nil, no broadcast is done.
	BroadcastFn func(ev GameEvent)
	// BroadcastToPlayerFn sends an event to a single specific player.
	BroadcastToPlayerFn func(playerID uuid.UUID, ev GameEvent)
	// OnGameEnd is invoked asynchronously when the match ends.
	OnGameEnd OnGameEndFunc
	// Publisher receives the action log. Optional.
	Publisher ActionPublisher

	// Clock schedules timers. Replace before Start in tests.
	Clock Clock
	// Rand drives shuffling. Nil uses the global source.
	Rand *rand.Rand
	Log  *logrus.Entry

	turnTimer    Timer
	turnDeadline time.Time
	breakTimer   Timer
	actionIndex  int
}

// NewRummyGame builds an empty game for a room.
func NewRummyGame(roomCode string, rules HouseRules) *RummyGame {
	id := uuid.New()
	return &RummyGame{
		ID:       id,
		RoomCode: roomCode,
		Rules:    rules,
		Clock:    SystemClock,
		Log: logrus.NewEntry(logrus.StandardLogger()).WithFields(logrus.Fields{
			"game": id,
			"room": roomCode,
		}),
	}
}

// AddPlayer seats a player. Only allowed before Start.
func (g *RummyGame) AddPlayer(id uuid.UUID, name string) *models.Player {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.Started {
		return nil
	}
	p := &models.Player{ID: id, Name: name}
	g.Players = append(g.Players, p)
	return p
}

// Start deals the first round.
func (g *RummyGame) Start() error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.Started {
		return nil
	}
	if err := g.Rules.Validate(); err != nil {
		return err
	}
	g.Started = true
	g.logAction(uuid.Nil, "game_start", map[string]interface{}{"players": len(g.Players)})
	g.dealRound()
	return nil
}

// dealRound builds a fresh deck and deals a new round to every player not yet
// eliminated. Assumes lock is held.
func (g *RummyGame) dealRound() {
	seated := g.remainingPlayers()
	if len(seated) <= 1 {
		g.endGame(seated)
		return
	}

	g.RoundNumber++
	d := deck.New(g.Rules.JokerCount, g.Rand)
	total := d.Len()
	cut, _ := d.Draw()
	first, _ := d.Draw()

	for _, p := range g.Players {
		p.ResetForDeal()
	}
	for i := 0; i < HandSize; i++ {
		for _, p := range seated {
			c, err := d.Draw()
			if err != nil {
				// Validate keeps MaxPlayers within the deck size.
				g.Log.Errorf("deal ran out of cards: %v", err)
				break
			}
			p.Hand = append(p.Hand, c)
		}
	}

	g.Round = &Round{
		Number:      g.RoundNumber,
		Deck:        d,
		DiscardPile: []*models.Card{first},
		CutJoker:    cut,
		Wilds:       declaration.NewWilds(cut, g.Rules.DeclarationOptions()),
		SeatsAtDeal: len(seated),
		TotalCards:  total,
	}

	starter := seated[(g.RoundNumber-1)%len(seated)]
	g.CurrentPlayerIndex = g.seatOf(starter.ID)

	g.Log.WithFields(logrus.Fields{
		"round":    g.RoundNumber,
		"cutJoker": cut.String(),
		"players":  len(seated),
	}).Info("dealt round")
	g.logAction(uuid.Nil, "round_start", map[string]interface{}{
		"round":    g.RoundNumber,
		"cutJoker": cut.ID,
		"starter":  starter.ID,
	})

	evType := EventRoundStarted
	if g.RoundNumber == 1 {
		evType = EventGameStarted
	}
	g.beginTurn()
	g.sendStateToAll(evType)
	g.announceTurn()
}

// Draw moves one card from the chosen pile into the player's hand.
func (g *RummyGame) Draw(playerID uuid.UUID, source DrawSource) (*models.Card, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	p, err := g.actingPlayer(playerID)
	if err != nil {
		return nil, err
	}
	if p.HasDrawn {
		return nil, ErrAlreadyDrawn
	}

	var c *models.Card
	switch source {
	case SourceDeck:
		c, err = g.drawFromDeck()
	case SourceDiscard:
		c, err = g.drawFromDiscard()
	default:
		return nil, ErrInvalidSource
	}
	if err != nil {
		return nil, err
	}

	p.Hand = append(p.Hand, c)
	p.HasDrawn = true
	p.ConsecutiveTimeouts = 0

	payload := map[string]interface{}{"source": source, "cardId": c.ID}
	g.logAction(p.ID, "draw", payload)
	g.sendStateToAll(EventGameState)
	return c, nil
}

// Discard moves a card from the player's hand to the top of the discard pile
// and passes the turn.
func (g *RummyGame) Discard(playerID, cardID uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	p, err := g.actingPlayer(playerID)
	if err != nil {
		return err
	}
	if !p.HasDrawn {
		return ErrMustDrawFirst
	}
	if p.CardIndex(cardID) < 0 {
		return ErrCardNotInHand
	}

	g.stopTurnTimer()
	c, _ := p.RemoveCard(cardID)
	g.Round.DiscardPile = append(g.Round.DiscardPile, c)
	g.logAction(p.ID, "discard", map[string]interface{}{"cardId": c.ID})

	g.advanceTurn()
	g.sendStateToAll(EventGameState)
	return nil
}

// DeclareWin validates the player's proposed show. The returned result tells a
// winning show from a wrong show; an error means the action was rejected.
func (g *RummyGame) DeclareWin(playerID uuid.UUID, groups [][]uuid.UUID, leftover []uuid.UUID) (declaration.Result, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	p, err := g.actingPlayer(playerID)
	if err != nil {
		return declaration.Result{}, err
	}
	if !p.HasDrawn {
		return declaration.Result{}, ErrMustDrawFirst
	}
	groupCards, leftCards, ok := reconcileHand(p.Hand, groups, leftover)
	if !ok {
		return declaration.Result{}, ErrHandMismatch
	}

	g.stopTurnTimer()
	res := declaration.Validate(groupCards, leftCards, g.Round.CutJoker, g.Rules.DeclarationOptions())
	log := g.Log.WithField("player", p.ID)

	if res.Valid {
		for _, c := range leftCards {
			p.RemoveCard(c.ID)
			g.Round.DiscardPile = append(g.Round.DiscardPile, c)
		}
		log.Info("valid declaration")
		g.logAction(p.ID, "declare", map[string]interface{}{"valid": true})
		g.finishRound(p, "declared")
		g.sendStateToAll(EventGameState)
		return res, nil
	}

	p.Score += g.Rules.WrongShowPenalty
	g.markOut(p)
	log.WithField("reason", res.Reason).Info("wrong show")
	g.logAction(p.ID, "declare", map[string]interface{}{"valid": false, "reason": string(res.Reason)})
	g.fireEvent(GameEvent{
		Type: EventWrongShow,
		User: eventUser(p),
		Payload: map[string]interface{}{
			"reason":   res.Reason,
			"badGroup": res.BadGroup,
			"penalty":  g.Rules.WrongShowPenalty,
			"score":    p.Score,
		},
	})
	if !g.checkSingleSurvivor() {
		g.advanceTurn()
	}
	g.sendStateToAll(EventGameState)
	return res, nil
}

// Drop takes the player out of the current round for a point penalty.
// Players may drop out of turn, but never after drawing.
func (g *RummyGame) Drop(playerID uuid.UUID, dropType DropType) (int, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if err := g.roundInPlay(); err != nil {
		return 0, err
	}
	p := g.getPlayerByID(playerID)
	if p == nil {
		return 0, ErrUnknownPlayer
	}
	if !p.Active() {
		return 0, ErrPlayerOut
	}
	if p.HasDrawn {
		return 0, ErrCannotDropAfterDraw
	}

	var penalty int
	switch dropType {
	case DropFirst:
		if !g.firstDropAvailable(p) {
			return 0, ErrFirstDropUnavailable
		}
		penalty = g.Rules.FirstDropPenalty
	case DropMiddle:
		penalty = g.Rules.MiddleDropPenalty
	default:
		return 0, ErrInvalidDropType
	}

	wasCurrent := g.isCurrent(p)
	if wasCurrent {
		g.stopTurnTimer()
	}
	p.Score += penalty
	g.markOut(p)

	g.Log.WithFields(logrus.Fields{"player": p.ID, "type": dropType, "penalty": penalty}).Info("player dropped")
	g.logAction(p.ID, "drop", map[string]interface{}{"type": dropType, "penalty": penalty})
	g.fireEvent(GameEvent{
		Type: EventPlayerDropped,
		User: eventUser(p),
		Payload: map[string]interface{}{
			"dropType": dropType,
			"penalty":  penalty,
			"score":    p.Score,
		},
	})

	if !g.checkSingleSurvivor() && wasCurrent {
		g.advanceTurn()
	}
	g.sendStateToAll(EventGameState)
	return penalty, nil
}

// Leave removes a player from the match. The player is eliminated without a
// penalty and the match carries on without them.
func (g *RummyGame) Leave(playerID uuid.UUID) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	p := g.getPlayerByID(playerID)
	if p == nil || p.Eliminated || g.GameOver || !g.Started {
		return
	}

	inPlay := g.roundInPlay() == nil
	wasCurrent := inPlay && g.isCurrent(p)
	if wasCurrent {
		g.stopTurnTimer()
	}
	if inPlay && !p.Dropped {
		g.markOut(p)
	}
	p.Eliminated = true

	g.Log.WithField("player", p.ID).Info("player left the match")
	g.logAction(p.ID, "leave", nil)
	g.fireEvent(GameEvent{
		Type:    EventPlayerEliminated,
		User:    eventUser(p),
		Payload: map[string]interface{}{"reason": "left", "score": p.Score},
	})

	if inPlay {
		if !g.checkSingleSurvivor() && wasCurrent {
			g.advanceTurn()
		}
	} else if remaining := g.remainingPlayers(); len(remaining) <= 1 {
		g.endGame(remaining)
	}
	g.sendStateToAll(EventGameState)
}

// HandleTimeout runs when the turn timer for turnID fires. Timers from earlier
// turns are ignored.
func (g *RummyGame) HandleTimeout(turnID int) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.roundInPlay() != nil || turnID != g.TurnID {
		g.Log.WithFields(logrus.Fields{"turn": turnID, "current": g.TurnID}).Debug("stale turn timer ignored")
		return
	}
	g.turnTimer = nil
	g.handleTimeout()
	g.sendStateToAll(EventGameState)
}

// handleTimeout auto-drops a player who keeps timing out and otherwise plays
// their turn for them. Assumes lock is held.
func (g *RummyGame) handleTimeout() {
	p := g.currentPlayer()
	p.ConsecutiveTimeouts++
	log := g.Log.WithFields(logrus.Fields{"player": p.ID, "timeouts": p.ConsecutiveTimeouts})

	if g.Rules.MaxConsecutiveTimeouts > 0 && p.ConsecutiveTimeouts >= g.Rules.MaxConsecutiveTimeouts {
		penalty := g.Rules.MiddleDropPenalty
		p.Score += penalty
		g.markOut(p)
		log.Info("player auto-dropped after repeated timeouts")
		g.logAction(p.ID, "auto_drop", map[string]interface{}{"penalty": penalty})
		g.fireEvent(GameEvent{
			Type: EventPlayerAutoDropped,
			User: eventUser(p),
			Payload: map[string]interface{}{
				"penalty":  penalty,
				"score":    p.Score,
				"timeouts": p.ConsecutiveTimeouts,
			},
		})
		if !g.checkSingleSurvivor() {
			g.advanceTurn()
		}
		return
	}

	drew := false
	var toDiscard *models.Card
	if !p.HasDrawn {
		c, err := g.drawFromDeck()
		if err != nil {
			c, err = g.drawFromDiscard()
		}
		if err != nil {
			log.Warn("timeout with both piles empty, skipping turn")
			g.logAction(p.ID, "auto_play", map[string]interface{}{"skipped": true})
			g.fireEvent(GameEvent{
				Type:    EventAutoPlayExecuted,
				User:    eventUser(p),
				Payload: map[string]interface{}{"skipped": true},
			})
			g.advanceTurn()
			return
		}
		p.Hand = append(p.Hand, c)
		drew = true
		toDiscard = c
	} else {
		// The most recent draw is the last card in hand.
		toDiscard = p.Hand[len(p.Hand)-1]
	}

	p.RemoveCard(toDiscard.ID)
	g.Round.DiscardPile = append(g.Round.DiscardPile, toDiscard)
	log.WithField("card", toDiscard.String()).Info("auto-played timed out turn")
	g.logAction(p.ID, "auto_play", map[string]interface{}{"drew": drew, "cardId": toDiscard.ID})
	g.fireEvent(GameEvent{
		Type:    EventAutoPlayExecuted,
		User:    eventUser(p),
		Card:    eventCard(toDiscard),
		Payload: map[string]interface{}{"drew": drew},
	})
	g.advanceTurn()
}

// drawFromDeck draws the top stock card, reshuffling the discard pile (minus its
// top card) into the stock when it runs out. Assumes lock is held.
func (g *RummyGame) drawFromDeck() (*models.Card, error) {
	r := g.Round
	c, err := r.Deck.Draw()
	if err == nil {
		return c, nil
	}
	if !r.reshuffleDiscard() {
		return nil, ErrSourceEmpty
	}
	g.Log.WithField("deckSize", r.Deck.Len()).Info("stock exhausted, reshuffled discard pile")
	g.logAction(uuid.Nil, "reshuffle", map[string]interface{}{"deckSize": r.Deck.Len()})
	g.fireEvent(GameEvent{
		Type:    EventDeckReshuffled,
		Payload: map[string]interface{}{"deckSize": r.Deck.Len()},
	})
	c, err = r.Deck.Draw()
	if err != nil {
		return nil, ErrSourceEmpty
	}
	return c, nil
}

// drawFromDiscard takes the top discard. Assumes lock is held.
func (g *RummyGame) drawFromDiscard() (*models.Card, error) {
	c := g.Round.popDiscard()
	if c == nil {
		return nil, ErrSourceEmpty
	}
	return c, nil
}

// markOut removes a player from the rest of the round and buries their hand.
// Assumes lock is held.
func (g *RummyGame) markOut(p *models.Player) {
	p.Dropped = true
	p.HasDrawn = false
	g.Round.Dead = append(g.Round.Dead, p.Hand...)
	p.Hand = nil
}

// checkSingleSurvivor ends the round when at most one active player is left.
// Assumes lock is held.
func (g *RummyGame) checkSingleSurvivor() bool {
	active := g.activePlayers()
	if len(active) > 1 {
		return false
	}
	var winner *models.Player
	if len(active) == 1 {
		winner = active[0]
	}
	g.finishRound(winner, "last active player")
	return true
}

// finishRound closes the round, charges the losers and moves the match on.
// winner may be nil when nobody is left. Assumes lock is held.
func (g *RummyGame) finishRound(winner *models.Player, reason string) {
	g.stopTurnTimer()
	r := g.Round
	r.Over = true

	penalties := make(map[string]int)
	handPoints := make(map[string]int)
	for _, p := range g.Players {
		if p == winner || !p.Active() {
			continue
		}
		p.Score += g.Rules.DeclareLossPenalty
		penalties[p.ID.String()] = g.Rules.DeclareLossPenalty
		pts := 0
		for _, c := range p.Hand {
			pts += c.Points()
		}
		handPoints[p.ID.String()] = pts
	}

	payload := map[string]interface{}{
		"reason":     reason,
		"round":      r.Number,
		"penalties":  penalties,
		"handPoints": handPoints,
		"scores":     g.scoreBoard(),
	}
	if winner != nil {
		r.WinnerID = winner.ID
	}
	g.Log.WithFields(logrus.Fields{"round": r.Number, "winner": r.WinnerID, "reason": reason}).Info("round over")
	g.logAction(r.WinnerID, "round_end", map[string]interface{}{"round": r.Number, "reason": reason})
	g.fireEvent(GameEvent{Type: EventRoundWon, User: eventUser(winner), Payload: payload})

	g.afterRound()
}

// afterRound eliminates players over the score limit and either ends the match
// or schedules the next deal. Assumes lock is held.
func (g *RummyGame) afterRound() {
	for _, p := range g.Players {
		if p.Eliminated || p.Score < g.Rules.EliminationScore {
			continue
		}
		p.Eliminated = true
		g.Log.WithFields(logrus.Fields{"player": p.ID, "score": p.Score}).Info("player eliminated")
		g.logAction(p.ID, "eliminated", map[string]interface{}{"score": p.Score})
		g.fireEvent(GameEvent{
			Type:    EventPlayerEliminated,
			User:    eventUser(p),
			Payload: map[string]interface{}{"reason": "score", "score": p.Score},
		})
	}

	remaining := g.remainingPlayers()
	if len(remaining) <= 1 {
		g.endGame(remaining)
		return
	}

	if g.Rules.RoundBreak() <= 0 {
		g.dealRound()
		return
	}
	round := g.Round
	g.breakTimer = g.Clock.AfterFunc(g.Rules.RoundBreak(), func() {
		g.Mu.Lock()
		defer g.Mu.Unlock()
		if g.GameOver || g.Round != round {
			return
		}
		g.breakTimer = nil
		g.dealRound()
	})
}

// endGame records the match result. Assumes lock is held.
func (g *RummyGame) endGame(remaining []*models.Player) {
	if g.GameOver {
		return
	}
	g.GameOver = true
	g.stopTurnTimer()
	if g.breakTimer != nil {
		g.breakTimer.Stop()
		g.breakTimer = nil
	}

	var winner *models.Player
	if len(remaining) == 1 {
		winner = remaining[0]
		g.WinnerID = winner.ID
	}

	scores := make(map[uuid.UUID]int, len(g.Players))
	for _, p := range g.Players {
		scores[p.ID] = p.Score
	}

	g.Log.WithField("winner", g.WinnerID).Info("match over")
	g.logAction(g.WinnerID, "game_end", map[string]interface{}{"rounds": g.RoundNumber})
	g.fireEvent(GameEvent{
		Type: EventGameWon,
		User: eventUser(winner),
		Payload: map[string]interface{}{
			"reason": "last player remaining",
			"rounds": g.RoundNumber,
			"scores": g.scoreBoard(),
		},
	})

	if g.OnGameEnd != nil {
		go g.OnGameEnd(g.RoomCode, g.WinnerID, scores)
	}
}

// beginTurn starts the current player's turn and its timer. Assumes lock is held.
func (g *RummyGame) beginTurn() {
	g.currentPlayer().HasDrawn = false
	g.TurnID++
	g.scheduleTurnTimer()
}

// announceTurn tells everyone whose turn it is. Assumes lock is held.
func (g *RummyGame) announceTurn() {
	p := g.currentPlayer()
	payload := map[string]interface{}{
		"turnId":     g.TurnID,
		"durationMs": g.Rules.TurnDuration().Milliseconds(),
	}
	g.fireEvent(GameEvent{Type: EventTimerStarted, User: eventUser(p), Payload: payload})
}

// advanceTurn passes the turn to the next active player in seat order.
// Assumes lock is held.
func (g *RummyGame) advanceTurn() {
	if g.Round == nil || g.Round.Over || g.GameOver {
		return
	}
	prev := g.currentPlayer()
	prev.HasDrawn = false
	prev.TurnsTaken++
	g.Round.TurnCount++

	next := g.nextActiveIndex(g.CurrentPlayerIndex)
	if next < 0 {
		g.checkSingleSurvivor()
		return
	}
	g.CurrentPlayerIndex = next
	g.beginTurn()
	g.announceTurn()
}

// scheduleTurnTimer replaces the pending turn timer. Assumes lock is held.
func (g *RummyGame) scheduleTurnTimer() {
	g.stopTurnTimer()
	d := g.Rules.TurnDuration()
	if d <= 0 {
		return
	}
	turnID := g.TurnID
	g.turnDeadline = g.Clock.Now().Add(d)
	g.turnTimer = g.Clock.AfterFunc(d, func() {
		g.HandleTimeout(turnID)
	})
}

// stopTurnTimer cancels the pending turn timer, if any. Assumes lock is held.
func (g *RummyGame) stopTurnTimer() {
	if g.turnTimer != nil {
		g.turnTimer.Stop()
		g.turnTimer = nil
	}
	g.turnDeadline = time.Time{}
}

// roundInPlay reports why no action can be taken, or nil.
func (g *RummyGame) roundInPlay() error {
	if !g.Started || g.Round == nil {
		return ErrGameNotStarted
	}
	if g.GameOver || g.Round.Over {
		return ErrRoundOver
	}
	return nil
}

// actingPlayer checks that playerID may take a turn action now.
// Assumes lock is held.
func (g *RummyGame) actingPlayer(playerID uuid.UUID) (*models.Player, error) {
	if err := g.roundInPlay(); err != nil {
		return nil, err
	}
	p := g.getPlayerByID(playerID)
	if p == nil {
		return nil, ErrUnknownPlayer
	}
	if !p.Active() {
		return nil, ErrPlayerOut
	}
	if !g.isCurrent(p) {
		return nil, ErrNotYourTurn
	}
	return p, nil
}

func (g *RummyGame) firstDropAvailable(p *models.Player) bool {
	if g.Rules.FirstDropScope == DropScopeRound {
		return g.Round.TurnCount < g.Round.SeatsAtDeal
	}
	return p.TurnsTaken == 0
}

func (g *RummyGame) currentPlayer() *models.Player {
	return g.Players[g.CurrentPlayerIndex]
}

func (g *RummyGame) isCurrent(p *models.Player) bool {
	return g.Players[g.CurrentPlayerIndex] == p
}

// nextActiveIndex returns the seat after from holding an active player, or -1.
func (g *RummyGame) nextActiveIndex(from int) int {
	n := len(g.Players)
	for i := 1; i <= n; i++ {
		idx := (from + i) % n
		if g.Players[idx].Active() && idx != from {
			return idx
		}
	}
	return -1
}

func (g *RummyGame) activePlayers() []*models.Player {
	var out []*models.Player
	for _, p := range g.Players {
		if p.Active() {
			out = append(out, p)
		}
	}
	return out
}

func (g *RummyGame) remainingPlayers() []*models.Player {
	var out []*models.Player
	for _, p := range g.Players {
		if !p.Eliminated {
			out = append(out, p)
		}
	}
	return out
}

func (g *RummyGame) seatOf(playerID uuid.UUID) int {
	for i, p := range g.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// getPlayerByID is a helper to find a player struct by their ID.
// Assumes lock is held by caller.
func (g *RummyGame) getPlayerByID(playerID uuid.UUID) *models.Player {
	if i := g.seatOf(playerID); i >= 0 {
		return g.Players[i]
	}
	return nil
}

func (g *RummyGame) scoreBoard() map[string]int {
	scores := make(map[string]int, len(g.Players))
	for _, p := range g.Players {
		scores[p.ID.String()] = p.Score
	}
	return scores
}

// reconcileHand resolves the declared card IDs against the hand. Every card in
// the hand must appear exactly once and nothing else may appear.
func reconcileHand(hand []*models.Card, groups [][]uuid.UUID, leftover []uuid.UUID) ([][]*models.Card, []*models.Card, bool) {
	byID := make(map[uuid.UUID]*models.Card, len(hand))
	for _, c := range hand {
		byID[c.ID] = c
	}
	used := make(map[uuid.UUID]bool, len(hand))
	take := func(ids []uuid.UUID) ([]*models.Card, bool) {
		out := make([]*models.Card, 0, len(ids))
		for _, id := range ids {
			c, ok := byID[id]
			if !ok || used[id] {
				return nil, false
			}
			used[id] = true
			out = append(out, c)
		}
		return out, true
	}

	groupCards := make([][]*models.Card, 0, len(groups))
	for _, ids := range groups {
		cs, ok := take(ids)
		if !ok {
			return nil, nil, false
		}
		groupCards = append(groupCards, cs)
	}
	leftCards, ok := take(leftover)
	if !ok || len(used) != len(hand) {
		return nil, nil, false
	}
	return groupCards, leftCards, true
}

// fireEvent broadcasts an event to all connected players.
// Assumes lock is held.
func (g *RummyGame) fireEvent(ev GameEvent) {
	if g.BroadcastFn != nil {
		g.BroadcastFn(ev)
	}
}

// fireEventToPlayer sends an event only to a specific player.
// Assumes lock is held.
func (g *RummyGame) fireEventToPlayer(playerID uuid.UUID, ev GameEvent) {
	if g.BroadcastToPlayerFn != nil {
		g.BroadcastToPlayerFn(playerID, ev)
	}
}

// logAction sends the action details to the historian queue.
// Assumes lock is held by caller.
func (g *RummyGame) logAction(actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	g.actionIndex++
	if g.Publisher == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.ActionRecord{
		GameID:        g.ID,
		RoomCode:      g.RoomCode,
		ActionIndex:   g.actionIndex,
		ActorID:       actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     g.Clock.Now().UnixMilli(),
	}
	pub := g.Publisher
	log := g.Log
	go func(rec cache.ActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := pub.Publish(ctx, rec); err != nil {
			log.Warnf("failed to publish action %d: %v", rec.ActionIndex, err)
		}
	}(record)
}

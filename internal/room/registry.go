// internal/room/registry.go
package room

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/rummy/internal/actions"
	"github.com/jason-s-yu/rummy/internal/game"
	"github.com/sirupsen/logrus"
)

// GameFactory builds the game for a room that is about to start. The returned
// game has no players yet.
type GameFactory func(r *Room) *game.RummyGame

// Registry manages live rooms in memory. A player is in at most one room.
type Registry struct {
	mu       sync.Mutex
	rooms    map[string]*Room
	byPlayer map[uuid.UUID]string

	defaults   game.HouseRules
	minPlayers int

	// NewCode generates room codes. Replace in tests for fixed codes.
	NewCode func(inUse func(code string) bool) string
	// NewGame builds games on Start. Nil builds an unwired game.
	NewGame GameFactory

	log *logrus.Entry
}

// NewRegistry initializes an empty Registry.
func NewRegistry(defaults game.HouseRules, minPlayers int, log *logrus.Entry) *Registry {
	if minPlayers < 2 {
		minPlayers = 2
	}
	return &Registry{
		rooms:      make(map[string]*Room),
		byPlayer:   make(map[uuid.UUID]string),
		defaults:   defaults,
		minPlayers: minPlayers,
		NewCode:    GenerateCode,
		log:        log,
	}
}

// Create opens a new room with the player as host. overrides may adjust the
// default house rules for this room.
func (reg *Registry) Create(playerID uuid.UUID, name string, overrides map[string]interface{}) (Snapshot, error) {
	name, err := ValidateName(name)
	if err != nil {
		return Snapshot{}, err
	}
	rules, err := game.ParseRules(overrides, reg.defaults)
	if err != nil {
		return Snapshot{}, ErrInvalidRules.WithMessage("invalid house rules: %v", err)
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, in := reg.byPlayer[playerID]; in {
		return Snapshot{}, ErrAlreadyInRoom
	}
	code := reg.NewCode(func(c string) bool {
		_, exists := reg.rooms[c]
		return exists
	})
	r := newRoom(code, Member{ID: playerID, Name: name}, rules)
	reg.rooms[code] = r
	reg.byPlayer[playerID] = code

	reg.log.WithFields(logrus.Fields{"room": code, "player": playerID}).Info("room created")
	return r.snapshot(), nil
}

// Join seats the player in an existing room that is not mid-match.
func (reg *Registry) Join(code string, playerID uuid.UUID, name string) (Snapshot, error) {
	code = actions.NormalizeRoomCode(code)

	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[code]
	if !ok {
		return Snapshot{}, ErrRoomNotFound
	}
	if _, in := reg.byPlayer[playerID]; in {
		return Snapshot{}, ErrAlreadyInRoom
	}
	name, err := ValidateName(name)
	if err != nil {
		return Snapshot{}, err
	}
	if r.inProgress() {
		return Snapshot{}, ErrGameStarted
	}
	if len(r.Members) >= r.Rules.MaxPlayers {
		return Snapshot{}, ErrRoomFull
	}
	if r.nameTaken(name) {
		return Snapshot{}, ErrNameTaken
	}

	r.Members = append(r.Members, Member{ID: playerID, Name: name})
	reg.byPlayer[playerID] = code
	reg.log.WithFields(logrus.Fields{"room": code, "player": playerID, "seats": len(r.Members)}).Info("player joined room")
	return r.snapshot(), nil
}

// Start deals the first round of a new match. Only the host may start, and a
// room whose previous match has finished may start again.
func (reg *Registry) Start(code string, playerID uuid.UUID) (Snapshot, error) {
	code = actions.NormalizeRoomCode(code)

	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[code]
	if !ok {
		return Snapshot{}, ErrRoomNotFound
	}
	if r.memberIndex(playerID) < 0 {
		return Snapshot{}, ErrNotInRoom
	}
	if r.HostID != playerID {
		return Snapshot{}, ErrNotHost
	}
	if r.inProgress() {
		return Snapshot{}, ErrGameStarted
	}
	if len(r.Members) < reg.minPlayers {
		return Snapshot{}, ErrNotEnoughPlayers.WithMessage("at least %d players are needed to start", reg.minPlayers)
	}

	var g *game.RummyGame
	if reg.NewGame != nil {
		g = reg.NewGame(r)
	} else {
		g = game.NewRummyGame(r.Code, r.Rules)
	}
	for _, m := range r.Members {
		g.AddPlayer(m.ID, m.Name)
	}
	r.audience.set(r.memberIDs())
	if err := g.Start(); err != nil {
		r.audience.set(nil)
		return Snapshot{}, fmt.Errorf("starting game in room %s: %w", code, err)
	}
	r.Game = g
	r.finished = false

	reg.log.WithFields(logrus.Fields{"room": code, "game": g.ID, "players": len(r.Members)}).Info("game started")
	return r.snapshot(), nil
}

// Leave removes the player from the room. A player leaving mid-match is
// eliminated from it. The room is destroyed when its last member leaves, which
// the returned flag reports.
func (reg *Registry) Leave(code string, playerID uuid.UUID) (Snapshot, bool, error) {
	code = actions.NormalizeRoomCode(code)

	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[code]
	if !ok {
		return Snapshot{}, false, ErrRoomNotFound
	}
	if r.memberIndex(playerID) < 0 {
		return Snapshot{}, false, ErrNotInRoom
	}
	snap, destroyed := reg.leaveLocked(r, playerID)
	return snap, destroyed, nil
}

// Disconnect removes the player from whatever room they are in. ok is false
// when the player was not in a room.
func (reg *Registry) Disconnect(playerID uuid.UUID) (snap Snapshot, destroyed, ok bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	code, in := reg.byPlayer[playerID]
	if !in {
		return Snapshot{}, false, false
	}
	snap, destroyed = reg.leaveLocked(reg.rooms[code], playerID)
	return snap, destroyed, true
}

// leaveLocked assumes reg.mu is held.
func (reg *Registry) leaveLocked(r *Room, playerID uuid.UUID) (Snapshot, bool) {
	log := reg.log.WithFields(logrus.Fields{"room": r.Code, "player": playerID})
	r.removeMember(playerID)
	delete(reg.byPlayer, playerID)
	if r.inProgress() {
		r.Game.Leave(playerID)
	}
	log.Info("player left room")

	if len(r.Members) == 0 {
		delete(reg.rooms, r.Code)
		log.Info("room empty, destroyed")
		return r.snapshot(), true
	}
	return r.snapshot(), false
}

// Get returns the current roster of a room.
func (reg *Registry) Get(code string) (Snapshot, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[actions.NormalizeRoomCode(code)]
	if !ok {
		return Snapshot{}, false
	}
	return r.snapshot(), true
}

// RoomOf returns the code of the room the player is in.
func (reg *Registry) RoomOf(playerID uuid.UUID) (string, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	code, ok := reg.byPlayer[playerID]
	return code, ok
}

// Game returns the running game of the player's room. The caller acts on it
// without holding the registry lock.
func (reg *Registry) Game(code string, playerID uuid.UUID) (*game.RummyGame, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[actions.NormalizeRoomCode(code)]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if r.memberIndex(playerID) < 0 {
		return nil, ErrNotInRoom
	}
	if r.Game == nil {
		return nil, game.ErrGameNotStarted
	}
	return r.Game, nil
}

// Len is the number of live rooms.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

// finish marks the room's match as over so the room can start another.
func (reg *Registry) finish(code string, g *game.RummyGame) (Snapshot, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[code]
	if !ok || r.Game != g {
		return Snapshot{}, false
	}
	r.finished = true
	return r.snapshot(), true
}

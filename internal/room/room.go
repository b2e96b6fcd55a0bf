// internal/room/room.go
package room

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jason-s-yu/rummy/internal/game"
)

const (
	// CodeLength is the number of characters in a room code.
	CodeLength = 6
	// MaxNameLength is the longest player name accepted, in characters.
	MaxNameLength = 20

	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateCode returns a random room code for which inUse reports false.
func GenerateCode(inUse func(code string) bool) string {
	for {
		code := make([]byte, CodeLength)
		for i := range code {
			code[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
		}
		if !inUse(string(code)) {
			return string(code)
		}
	}
}

// ValidateName trims a player name and checks its length.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}

// Member is one player seated in a room.
type Member struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Room is a group of players sharing one table. Members are in seat order.
// All fields are guarded by the owning Registry's mutex.
type Room struct {
	Code      string
	HostID    uuid.UUID
	Members   []Member
	Rules     game.HouseRules
	Game      *game.RummyGame
	CreatedAt time.Time

	// finished is set once Game has a match winner.
	finished bool
	audience *audience
}

func newRoom(code string, host Member, rules game.HouseRules) *Room {
	return &Room{
		Code:      code,
		HostID:    host.ID,
		Members:   []Member{host},
		Rules:     rules,
		CreatedAt: time.Now(),
		audience:  &audience{},
	}
}

// inProgress reports whether a match is being played.
func (r *Room) inProgress() bool {
	return r.Game != nil && !r.finished
}

func (r *Room) memberIndex(playerID uuid.UUID) int {
	for i, m := range r.Members {
		if m.ID == playerID {
			return i
		}
	}
	return -1
}

func (r *Room) nameTaken(name string) bool {
	for _, m := range r.Members {
		if strings.EqualFold(m.Name, name) {
			return true
		}
	}
	return false
}

func (r *Room) memberIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(r.Members))
	for i, m := range r.Members {
		ids[i] = m.ID
	}
	return ids
}

// removeMember drops the player from the roster and hands the host role to the
// next member in seat order.
func (r *Room) removeMember(playerID uuid.UUID) {
	idx := r.memberIndex(playerID)
	if idx < 0 {
		return
	}
	r.Members = append(r.Members[:idx], r.Members[idx+1:]...)
	r.audience.remove(playerID)
	if r.HostID == playerID && len(r.Members) > 0 {
		r.HostID = r.Members[0].ID
	}
}

// Snapshot is the roster view sent in room events.
type Snapshot struct {
	RoomCode   string          `json:"roomCode"`
	HostID     uuid.UUID       `json:"hostId"`
	Players    []Member        `json:"players"`
	MaxPlayers int             `json:"maxPlayers"`
	InProgress bool            `json:"inProgress"`
	Rules      game.HouseRules `json:"rules"`
}

func (r *Room) snapshot() Snapshot {
	players := make([]Member, len(r.Members))
	copy(players, r.Members)
	return Snapshot{
		RoomCode:   r.Code,
		HostID:     r.HostID,
		Players:    players,
		MaxPlayers: r.Rules.MaxPlayers,
		InProgress: r.inProgress(),
		Rules:      r.Rules,
	}
}

// audience is the set of players receiving a room's game events. Game callbacks
// run with the game lock held, so it has its own lock instead of the registry's.
type audience struct {
	mu  sync.RWMutex
	ids []uuid.UUID
}

func (a *audience) set(ids []uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ids = append([]uuid.UUID(nil), ids...)
}

func (a *audience) remove(playerID uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, id := range a.ids {
		if id == playerID {
			a.ids = append(a.ids[:i], a.ids[i+1:]...)
			return
		}
	}
}

func (a *audience) contains(playerID uuid.UUID) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, id := range a.ids {
		if id == playerID {
			return true
		}
	}
	return false
}

func (a *audience) list() []uuid.UUID {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]uuid.UUID(nil), a.ids...)
}

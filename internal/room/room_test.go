package room

import (
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/rummy/internal/actions"
	"github.com/jason-s-yu/rummy/internal/game"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent map[uuid.UUID][]interface{}
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{sent: make(map[uuid.UUID][]interface{})}
}

func (n *recordingNotifier) Send(playerID uuid.UUID, msg interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent[playerID] = append(n.sent[playerID], msg)
}

func (n *recordingNotifier) messages(playerID uuid.UUID) []interface{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]interface{}(nil), n.sent[playerID]...)
}

// last returns the most recent message of the given type sent to the player.
func (n *recordingNotifier) last(playerID uuid.UUID, typ string) interface{} {
	msgs := n.messages(playerID)
	for i := len(msgs) - 1; i >= 0; i-- {
		switch m := msgs[i].(type) {
		case Message:
			if m.Type == typ {
				return m
			}
		case ErrorMessage:
			if m.Type == typ {
				return m
			}
		case game.GameEvent:
			if string(m.Type) == typ {
				return m
			}
		}
	}
	return nil
}

func (n *recordingNotifier) lastError(t *testing.T, playerID uuid.UUID) ErrorMessage {
	t.Helper()
	m, ok := n.last(playerID, MsgError).(ErrorMessage)
	require.True(t, ok, "expected an error message")
	return m
}

type idleTimer struct{}

func (idleTimer) Stop() bool { return true }

// idleClock never fires timers.
type idleClock struct{}

func (idleClock) Now() time.Time                            { return time.Now() }
func (idleClock) AfterFunc(time.Duration, func()) game.Timer { return idleTimer{} }

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func setupCoordinator(t *testing.T) (*Coordinator, *recordingNotifier) {
	t.Helper()
	rules := game.DefaultHouseRules()
	rules.RoundBreakMs = 0
	reg := NewRegistry(rules, 2, quietLogger())
	reg.NewCode = func(func(string) bool) string { return "ABC123" }
	n := newRecordingNotifier()
	c := NewCoordinator(reg, n, quietLogger())
	c.Clock = idleClock{}
	return c, n
}

func TestRoomLifecycleAndFirstTurn(t *testing.T) {
	c, n := setupCoordinator(t)
	host, p2, p3 := uuid.New(), uuid.New(), uuid.New()

	c.Dispatch(host, actions.CreateRoom{PlayerName: "host"})
	created, ok := n.last(host, MsgRoomCreated).(Message)
	require.True(t, ok)
	snap := created.Payload.(Snapshot)
	assert.Equal(t, "ABC123", snap.RoomCode)
	assert.Equal(t, host, snap.HostID)

	c.Dispatch(p2, actions.JoinRoom{RoomCode: "abc123", PlayerName: "two"})
	c.Dispatch(p3, actions.JoinRoom{RoomCode: "ABC123", PlayerName: "three"})
	joined, ok := n.last(p3, MsgRoomJoined).(Message)
	require.True(t, ok)
	assert.Len(t, joined.Payload.(Snapshot).Players, 3)
	update, ok := n.last(host, MsgRoomUpdate).(Message)
	require.True(t, ok)
	assert.Len(t, update.Payload.(Snapshot).Players, 3)

	c.Dispatch(host, actions.StartGame{RoomCode: "ABC123"})
	for _, id := range []uuid.UUID{host, p2, p3} {
		ev, ok := n.last(id, string(game.EventGameStarted)).(game.GameEvent)
		require.True(t, ok, "every player gets their own game-started state")
		assert.Len(t, ev.State.Hand, game.HandSize)
	}
	snap, _ = c.Registry.Get("ABC123")
	assert.True(t, snap.InProgress)

	c.Dispatch(p2, actions.DrawCard{RoomCode: "ABC123", Source: game.SourceDeck})
	assert.Equal(t, game.ErrNotYourTurn.Code, n.lastError(t, p2).Code)

	c.Dispatch(host, actions.DrawCard{RoomCode: "ABC123", Source: game.SourceDeck})
	state, ok := n.last(host, string(game.EventGameState)).(game.GameEvent)
	require.True(t, ok)
	require.Len(t, state.State.Hand, 14)

	c.Dispatch(host, actions.DiscardCard{RoomCode: "ABC123", CardID: state.State.Hand[0].ID})
	state, ok = n.last(p2, string(game.EventGameState)).(game.GameEvent)
	require.True(t, ok)
	assert.Equal(t, p2, state.State.CurrentPlayerID)
	assert.Nil(t, n.last(host, MsgError))
}

func TestJoinRejections(t *testing.T) {
	c, n := setupCoordinator(t)
	host, p2, p3 := uuid.New(), uuid.New(), uuid.New()

	c.Dispatch(p2, actions.JoinRoom{RoomCode: "ZZZZZZ", PlayerName: "two"})
	assert.Equal(t, ErrRoomNotFound.Code, n.lastError(t, p2).Code)

	c.Dispatch(host, actions.CreateRoom{PlayerName: "Alice", Rules: map[string]interface{}{"maxPlayers": float64(2)}})
	c.Dispatch(host, actions.JoinRoom{RoomCode: "ABC123", PlayerName: "again"})
	assert.Equal(t, ErrAlreadyInRoom.Code, n.lastError(t, host).Code)

	c.Dispatch(p2, actions.JoinRoom{RoomCode: "ABC123", PlayerName: "ALICE"})
	assert.Equal(t, ErrNameTaken.Code, n.lastError(t, p2).Code)

	c.Dispatch(p2, actions.JoinRoom{RoomCode: "ABC123", PlayerName: strings.Repeat("x", MaxNameLength+1)})
	assert.Equal(t, ErrInvalidName.Code, n.lastError(t, p2).Code)

	c.Dispatch(p2, actions.JoinRoom{RoomCode: "ABC123", PlayerName: "Bob"})
	c.Dispatch(p3, actions.JoinRoom{RoomCode: "ABC123", PlayerName: "Carol"})
	assert.Equal(t, ErrRoomFull.Code, n.lastError(t, p3).Code)

	snap, ok := c.Registry.Get("abc123")
	require.True(t, ok)
	assert.Len(t, snap.Players, 2)
}

func TestJoinStartedRoom(t *testing.T) {
	c, n := setupCoordinator(t)
	host, p2, late := uuid.New(), uuid.New(), uuid.New()
	c.Dispatch(host, actions.CreateRoom{PlayerName: "host"})
	c.Dispatch(p2, actions.JoinRoom{RoomCode: "ABC123", PlayerName: "two"})
	c.Dispatch(host, actions.StartGame{RoomCode: "ABC123"})

	c.Dispatch(late, actions.JoinRoom{RoomCode: "ABC123", PlayerName: "late"})
	assert.Equal(t, ErrGameStarted.Code, n.lastError(t, late).Code)
	c.Dispatch(host, actions.StartGame{RoomCode: "ABC123"})
	assert.Equal(t, ErrGameStarted.Code, n.lastError(t, host).Code)
}

func TestStartRejections(t *testing.T) {
	c, n := setupCoordinator(t)
	host, p2, outsider := uuid.New(), uuid.New(), uuid.New()

	c.Dispatch(host, actions.CreateRoom{PlayerName: "host"})
	c.Dispatch(host, actions.StartGame{RoomCode: "ABC123"})
	assert.Equal(t, ErrNotEnoughPlayers.Code, n.lastError(t, host).Code)

	c.Dispatch(p2, actions.JoinRoom{RoomCode: "ABC123", PlayerName: "two"})
	c.Dispatch(p2, actions.StartGame{RoomCode: "ABC123"})
	assert.Equal(t, ErrNotHost.Code, n.lastError(t, p2).Code)

	c.Dispatch(outsider, actions.StartGame{RoomCode: "ABC123"})
	assert.Equal(t, ErrNotInRoom.Code, n.lastError(t, outsider).Code)

	c.Dispatch(p2, actions.DrawCard{RoomCode: "ABC123", Source: game.SourceDeck})
	assert.Equal(t, game.ErrGameNotStarted.Code, n.lastError(t, p2).Code)

	c.Dispatch(outsider, actions.CreateRoom{PlayerName: "x", Rules: map[string]interface{}{"jokerCount": float64(7)}})
	assert.Equal(t, ErrInvalidRules.Code, n.lastError(t, outsider).Code)
}

func TestHostTransferAndDestroyOnEmpty(t *testing.T) {
	c, n := setupCoordinator(t)
	host, p2 := uuid.New(), uuid.New()

	c.Dispatch(host, actions.CreateRoom{PlayerName: "host"})
	c.Dispatch(p2, actions.JoinRoom{RoomCode: "ABC123", PlayerName: "two"})
	c.Dispatch(host, actions.LeaveRoom{RoomCode: "ABC123"})

	_, ok := n.last(host, MsgRoomLeft).(Message)
	assert.True(t, ok)
	snap, ok := c.Registry.Get("ABC123")
	require.True(t, ok)
	assert.Equal(t, p2, snap.HostID)
	assert.Len(t, snap.Players, 1)

	c.Dispatch(host, actions.LeaveRoom{RoomCode: "ABC123"})
	assert.Equal(t, ErrNotInRoom.Code, n.lastError(t, host).Code)

	c.Dispatch(p2, actions.Disconnect{})
	_, ok = c.Registry.Get("ABC123")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Registry.Len())

	// The departed player may open a new room.
	c.Dispatch(host, actions.CreateRoom{PlayerName: "host"})
	_, ok = c.Registry.RoomOf(host)
	assert.True(t, ok)
}

func TestDisconnectMidMatchEndsGame(t *testing.T) {
	c, n := setupCoordinator(t)
	host, p2, p3 := uuid.New(), uuid.New(), uuid.New()
	c.Dispatch(host, actions.CreateRoom{PlayerName: "host"})
	c.Dispatch(p2, actions.JoinRoom{RoomCode: "ABC123", PlayerName: "two"})
	c.Dispatch(host, actions.StartGame{RoomCode: "ABC123"})

	c.Dispatch(p2, actions.Disconnect{})
	won, ok := n.last(host, string(game.EventGameWon)).(game.GameEvent)
	require.True(t, ok)
	assert.Equal(t, host, won.User.ID)
	assert.Nil(t, n.last(p2, string(game.EventGameWon)), "departed players get no further game events")

	assert.Eventually(t, func() bool {
		snap, ok := c.Registry.Get("ABC123")
		return ok && !snap.InProgress
	}, time.Second, 10*time.Millisecond)

	// A finished room accepts players and can start a new match.
	c.Dispatch(p3, actions.JoinRoom{RoomCode: "ABC123", PlayerName: "three"})
	c.Dispatch(host, actions.StartGame{RoomCode: "ABC123"})
	ev, ok := n.last(p3, string(game.EventGameStarted)).(game.GameEvent)
	require.True(t, ok)
	assert.Len(t, ev.State.Players, 2)
}

func TestPing(t *testing.T) {
	c, n := setupCoordinator(t)
	p := uuid.New()
	c.Dispatch(p, actions.Ping{})
	_, ok := n.last(p, MsgPong).(Message)
	assert.True(t, ok)
}

func TestGenerateCode(t *testing.T) {
	used := map[string]bool{}
	for i := 0; i < 200; i++ {
		code := GenerateCode(func(c string) bool { return used[c] })
		require.Len(t, code, CodeLength)
		for _, ch := range code {
			assert.True(t, strings.ContainsRune(codeAlphabet, ch))
		}
		assert.False(t, used[code])
		used[code] = true
	}
}

func TestValidateName(t *testing.T) {
	name, err := ValidateName("  Bob ")
	require.NoError(t, err)
	assert.Equal(t, "Bob", name)

	_, err = ValidateName("   ")
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = ValidateName(strings.Repeat("é", MaxNameLength))
	assert.NoError(t, err)
}

func TestNewErrorMessage(t *testing.T) {
	msg := NewErrorMessage(game.ErrNotYourTurn, actions.TypeDrawCard)
	assert.Equal(t, ErrorMessage{Type: "error", Code: "NOT_YOUR_TURN", Message: "it is not your turn", Action: "draw-card"}, msg)

	msg = NewErrorMessage(io.EOF, actions.TypeStartGame)
	assert.Equal(t, "INTERNAL", msg.Code)
}

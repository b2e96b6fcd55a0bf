package actions

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/rummy/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeValidActions(t *testing.T) {
	card := uuid.New()
	g1, g2, left := uuid.New(), uuid.New(), uuid.New()

	tests := []struct {
		name string
		raw  string
		want Action
	}{
		{
			name: "create room",
			raw:  `{"type":"create-room","payload":{"playerName":"  alice "}}`,
			want: CreateRoom{PlayerName: "alice"},
		},
		{
			name: "create room with rules",
			raw:  `{"type":"create-room","payload":{"playerName":"alice","rules":{"turnTimerSec":30}}}`,
			want: CreateRoom{PlayerName: "alice", Rules: map[string]interface{}{"turnTimerSec": float64(30)}},
		},
		{
			name: "join room normalizes code",
			raw:  `{"type":"join-room","payload":{"roomCode":" abc123","playerName":"bob"}}`,
			want: JoinRoom{RoomCode: "ABC123", PlayerName: "bob"},
		},
		{
			name: "start game",
			raw:  `{"type":"start-game","payload":{"roomCode":"ABC123"}}`,
			want: StartGame{RoomCode: "ABC123"},
		},
		{
			name: "draw from discard",
			raw:  `{"type":"draw-card","payload":{"roomCode":"ABC123","source":"discard"}}`,
			want: DrawCard{RoomCode: "ABC123", Source: game.SourceDiscard},
		},
		{
			name: "discard",
			raw:  `{"type":"discard-card","payload":{"roomCode":"ABC123","cardId":"` + card.String() + `"}}`,
			want: DiscardCard{RoomCode: "ABC123", CardID: card},
		},
		{
			name: "declare without leftover",
			raw: `{"type":"declare-win","payload":{"roomCode":"ABC123","groups":[["` + g1.String() + `"],["` +
				g2.String() + `"]]}}`,
			want: DeclareWin{RoomCode: "ABC123", Groups: [][]uuid.UUID{{g1}, {g2}}, Leftover: []uuid.UUID{}},
		},
		{
			name: "declare with leftover",
			raw: `{"type":"declare-win","payload":{"roomCode":"ABC123","groups":[["` + g1.String() + `","` +
				g2.String() + `"]],"leftover":["` + left.String() + `"]}}`,
			want: DeclareWin{RoomCode: "ABC123", Groups: [][]uuid.UUID{{g1, g2}}, Leftover: []uuid.UUID{left}},
		},
		{
			name: "drop",
			raw:  `{"type":"player-drop","payload":{"roomCode":"ABC123","dropType":"middle"}}`,
			want: PlayerDrop{RoomCode: "ABC123", DropType: game.DropMiddle},
		},
		{
			name: "leave",
			raw:  `{"type":"leave-room","payload":{"roomCode":"ABC123"}}`,
			want: LeaveRoom{RoomCode: "ABC123"},
		},
		{
			name: "ping without payload",
			raw:  `{"type":"ping"}`,
			want: Ping{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Type(), got.Type())
		})
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"not json", `{"type":`, ErrBadJSON},
		{"unknown type", `{"type":"shuffle","payload":{}}`, ErrUnknownAction},
		{"client disconnect", `{"type":"disconnect"}`, ErrUnknownAction},
		{"missing payload", `{"type":"join-room"}`, ErrInvalidPayload},
		{"null payload", `{"type":"start-game","payload":null}`, ErrInvalidPayload},
		{"missing name", `{"type":"create-room","payload":{"playerName":"   "}}`, ErrInvalidPayload},
		{"missing room", `{"type":"start-game","payload":{}}`, ErrInvalidPayload},
		{"wrong field type", `{"type":"start-game","payload":{"roomCode":42}}`, ErrInvalidPayload},
		{"bad source", `{"type":"draw-card","payload":{"roomCode":"X","source":"stock"}}`, game.ErrInvalidSource},
		{"missing source", `{"type":"draw-card","payload":{"roomCode":"X"}}`, ErrInvalidPayload},
		{"bad card id", `{"type":"discard-card","payload":{"roomCode":"X","cardId":"nope"}}`, ErrInvalidPayload},
		{"missing card id", `{"type":"discard-card","payload":{"roomCode":"X"}}`, ErrInvalidPayload},
		{"no groups", `{"type":"declare-win","payload":{"roomCode":"X","groups":[]}}`, ErrInvalidPayload},
		{"empty group", `{"type":"declare-win","payload":{"roomCode":"X","groups":[[]]}}`, ErrInvalidPayload},
		{"bad drop type", `{"type":"player-drop","payload":{"roomCode":"X","dropType":"late"}}`, game.ErrInvalidDropType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Decode([]byte(tt.raw))
			assert.Nil(t, a)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var ge *game.GameError
			require.True(t, errors.As(err, &ge))
			assert.Equal(t, game.KindMalformed, ge.Kind)
		})
	}
}

func TestRoomActions(t *testing.T) {
	a, err := Decode([]byte(`{"type":"leave-room","payload":{"roomCode":"abc123"}}`))
	require.NoError(t, err)
	ra, ok := a.(RoomAction)
	require.True(t, ok)
	assert.Equal(t, "ABC123", ra.Room())

	a, err = Decode([]byte(`{"type":"create-room","payload":{"playerName":"x"}}`))
	require.NoError(t, err)
	_, ok = a.(RoomAction)
	assert.False(t, ok)
}

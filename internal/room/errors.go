package room

import "github.com/jason-s-yu/rummy/internal/game"

var (
	ErrRoomNotFound     = game.NewError(game.KindSetup, "ROOM_NOT_FOUND", "room not found")
	ErrRoomFull         = game.NewError(game.KindSetup, "ROOM_FULL", "room is full")
	ErrNameTaken        = game.NewError(game.KindSetup, "NAME_TAKEN", "that name is already taken in this room")
	ErrInvalidName      = game.NewError(game.KindSetup, "NAME_INVALID", "names must be 1 to 20 characters")
	ErrGameStarted      = game.NewError(game.KindSetup, "GAME_ALREADY_STARTED", "a game is already in progress in this room")
	ErrNotHost          = game.NewError(game.KindSetup, "NOT_HOST", "only the host can start the game")
	ErrNotEnoughPlayers = game.NewError(game.KindSetup, "NOT_ENOUGH_PLAYERS", "not enough players to start")
	ErrNotInRoom        = game.NewError(game.KindSetup, "NOT_IN_ROOM", "you are not in this room")
	ErrAlreadyInRoom    = game.NewError(game.KindSetup, "ALREADY_IN_ROOM", "leave your current room first")
	ErrInvalidRules     = game.NewError(game.KindMalformed, "INVALID_RULES", "invalid house rules")
)

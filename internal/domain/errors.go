package domain

import "errors"

var (
	// ErrRoomNotFound is returned when no room is registered under a code.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomNotJoinable is returned when the roster can no longer change.
	ErrRoomNotJoinable = errors.New("room is not accepting players")
	// ErrRoomFull is returned when the room has reached its player limit.
	ErrRoomFull = errors.New("room is full")
	// ErrPlayerNotInRoom is returned when a user acts on a room they have not joined.
	ErrPlayerNotInRoom = errors.New("player not in room")
	// ErrNotHost is returned when a host-only action is attempted by someone else.
	ErrNotHost = errors.New("only the host can perform this action")
	// ErrInsufficientPlayers is returned when a battle is started with fewer than two players.
	ErrInsufficientPlayers = errors.New("not enough players to start")
	// ErrInsufficientQuestions is returned when the question bank cannot fill the battle.
	ErrInsufficientQuestions = errors.New("not enough questions available")
	// ErrInvalidQuestionIndex is returned for answers to a question outside the battle.
	ErrInvalidQuestionIndex = errors.New("invalid question index")
	// ErrDuplicateAnswer is returned when a player answers the same question twice.
	ErrDuplicateAnswer = errors.New("answer already submitted")
	// ErrBattleNotActive is returned when answers arrive outside an in-progress battle.
	ErrBattleNotActive = errors.New("battle is not active")
	// ErrAlreadyFinished is returned when ending a battle that already ended.
	ErrAlreadyFinished = errors.New("battle already finished")

	// ErrQuestionNotFound indicates a referenced question is missing from the bank.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidTransition guards the lifecycle against backward moves.
	ErrInvalidTransition = errors.New("invalid status transition")
)

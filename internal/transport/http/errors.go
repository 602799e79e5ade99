package http

import (
	"errors"
	"net/http"

	"quiz-battle-service/internal/domain"
)

var (
	errBadPayload  = errors.New("invalid message payload")
	errUnsupported = errors.New("unsupported message type")
)

// errorCodes maps domain errors to stable client-facing codes and HTTP statuses.
var errorCodes = []struct {
	err    error
	code   string
	status int
}{
	{domain.ErrRoomNotFound, "ROOM_NOT_FOUND", http.StatusNotFound},
	{domain.ErrRoomNotJoinable, "ROOM_NOT_JOINABLE", http.StatusConflict},
	{domain.ErrRoomFull, "ROOM_FULL", http.StatusConflict},
	{domain.ErrPlayerNotInRoom, "PLAYER_NOT_IN_ROOM", http.StatusForbidden},
	{domain.ErrNotHost, "NOT_HOST", http.StatusForbidden},
	{domain.ErrInsufficientPlayers, "INSUFFICIENT_PLAYERS", http.StatusConflict},
	{domain.ErrInsufficientQuestions, "INSUFFICIENT_QUESTIONS", http.StatusServiceUnavailable},
	{domain.ErrInvalidQuestionIndex, "INVALID_QUESTION_INDEX", http.StatusUnprocessableEntity},
	{domain.ErrDuplicateAnswer, "DUPLICATE_ANSWER", http.StatusConflict},
	{domain.ErrBattleNotActive, "BATTLE_NOT_ACTIVE", http.StatusConflict},
	{domain.ErrAlreadyFinished, "ALREADY_FINISHED", http.StatusConflict},
	{domain.ErrInvalidTransition, "INVALID_TRANSITION", http.StatusConflict},
	{errBadPayload, "BAD_REQUEST", http.StatusBadRequest},
	{errUnsupported, "UNSUPPORTED", http.StatusBadRequest},
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func describeError(err error) (errorPayload, int) {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return errorPayload{Code: e.code, Message: err.Error()}, e.status
		}
	}
	return errorPayload{Code: "INTERNAL", Message: "internal error"}, http.StatusInternalServerError
}

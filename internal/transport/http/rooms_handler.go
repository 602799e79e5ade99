package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"quiz-battle-service/internal/app"
	"quiz-battle-service/internal/domain"
)

// UserIDHeader carries the caller identity established by the upstream gateway.
const UserIDHeader = "X-User-ID"

var validate = validator.New()

type createRoomRequest struct {
	DisplayName     string `json:"displayName" validate:"required,max=64"`
	Avatar          string `json:"avatar" validate:"omitempty,max=256"`
	MaxPlayers      int    `json:"maxPlayers" validate:"gte=0"`
	QuestionsCount  int    `json:"questionsCount" validate:"gte=0"`
	TimePerQuestion int    `json:"timePerQuestion" validate:"gte=0"`
	Subject         string `json:"subject" validate:"omitempty,max=64"`
	Difficulty      string `json:"difficulty" validate:"omitempty,oneof=easy medium hard mixed"`
	IsPrivate       bool   `json:"isPrivate"`
}

// RoomsHandler serves the JSON room endpoints.
type RoomsHandler struct {
	service *app.BattleService
	logger  *zap.Logger
}

func NewRoomsHandler(service *app.BattleService, logger *zap.Logger) *RoomsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomsHandler{service: service, logger: logger}
}

// Register mounts the room routes on mux.
func (h *RoomsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /rooms", h.create)
	mux.HandleFunc("GET /rooms", h.list)
	mux.HandleFunc("GET /rooms/{code}", h.detail)
}

func (h *RoomsHandler) create(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(UserIDHeader)
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, errorPayload{Code: "UNAUTHENTICATED", Message: "missing caller identity"})
		return
	}
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Code: "BAD_REQUEST", Message: "invalid JSON body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Code: "VALIDATION_FAILED", Message: err.Error()})
		return
	}

	view, err := h.service.CreateRoom(r.Context(), userID,
		domain.Profile{DisplayName: req.DisplayName, Avatar: req.Avatar},
		domain.RoomConfig{
			MaxPlayers:      req.MaxPlayers,
			QuestionsCount:  req.QuestionsCount,
			TimePerQuestion: req.TimePerQuestion,
			Subject:         req.Subject,
			Difficulty:      domain.Difficulty(req.Difficulty),
			IsPrivate:       req.IsPrivate,
		})
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *RoomsHandler) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.ListPublic(r.Context()))
}

func (h *RoomsHandler) detail(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Detail(r.Context(), r.PathValue("code"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *RoomsHandler) fail(w http.ResponseWriter, err error) {
	payload, status := describeError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("room request failed", zap.Error(err))
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-battle-service/internal/app"
	"quiz-battle-service/internal/domain"
)

type WSHandler struct {
	service  *app.BattleService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.BattleService, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type readyPayload struct {
	Ready bool `json:"ready"`
}

type answerPayload struct {
	QuestionIndex int     `json:"questionIndex"`
	Answer        string  `json:"answer"`
	TimeSpent     float64 `json:"timeSpent"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the battle use cases.
// Connecting joins the room; messages drive ready/start/answer/end/cancel/leave.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	code := domain.NormalizeCode(r.URL.Query().Get("code"))
	userID := r.URL.Query().Get("userId")
	displayName := r.URL.Query().Get("name")
	if code == "" || userID == "" || displayName == "" {
		http.Error(w, "missing code, userId, or name", http.StatusBadRequest)
		return
	}
	profile := domain.Profile{DisplayName: displayName, Avatar: r.URL.Query().Get("avatar")}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := r.Context()
	joined, err := h.service.Join(ctx, code, userID, profile)
	if err != nil {
		payload, _ := describeError(err)
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: payload})
		return
	}
	if err := h.service.SetOnline(ctx, code, userID, true); err != nil {
		h.logger.Debug("set online failed", zap.String("code", code), zap.String("user_id", userID), zap.Error(err))
	}

	updates, cancel, err := h.service.Subscribe(ctx, code)
	if err != nil {
		payload, _ := describeError(err)
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: payload})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", zap.String("code", code), zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "room", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "joined", Payload: joined}

	left := false
	for !left {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		reply, err := h.dispatch(ctx, code, userID, inbound)
		if err != nil {
			payload, _ := describeError(err)
			send <- outboundMessage[any]{Type: "error", Payload: payload}
			continue
		}
		if reply.Type == "left" {
			left = true
		}
		send <- reply
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone

	if !left {
		h.disconnect(context.WithoutCancel(ctx), code, userID)
	}
}

func (h *WSHandler) dispatch(ctx context.Context, code, userID string, inbound inboundMessage) (outboundMessage[any], error) {
	switch inbound.Type {
	case "ready":
		var payload readyPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return outboundMessage[any]{}, errBadPayload
		}
		view, err := h.service.SetReady(ctx, code, userID, payload.Ready)
		return outboundMessage[any]{Type: "ready", Payload: view}, err
	case "start":
		started, err := h.service.Start(ctx, code, userID)
		return outboundMessage[any]{Type: "started", Payload: started}, err
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return outboundMessage[any]{}, errBadPayload
		}
		outcome, err := h.service.SubmitAnswer(ctx, code, userID, domain.AnswerSubmission{
			QuestionIndex:    payload.QuestionIndex,
			AnswerValue:      payload.Answer,
			TimeSpentSeconds: payload.TimeSpent,
		})
		return outboundMessage[any]{Type: "answerResult", Payload: outcome}, err
	case "end":
		ended, err := h.service.End(ctx, code, userID)
		return outboundMessage[any]{Type: "ended", Payload: ended}, err
	case "cancel":
		view, err := h.service.Cancel(ctx, code, userID)
		return outboundMessage[any]{Type: "cancelled", Payload: view}, err
	case "leave":
		err := h.service.Leave(ctx, code, userID)
		return outboundMessage[any]{Type: "left", Payload: struct{}{}}, err
	default:
		return outboundMessage[any]{}, errUnsupported
	}
}

// disconnect frees the seat in a waiting room; in a started room the player
// stays ranked and is only marked offline.
func (h *WSHandler) disconnect(ctx context.Context, code, userID string) {
	view, err := h.service.Detail(ctx, code)
	if err != nil {
		return
	}
	if view.Status == domain.StatusWaiting {
		if err := h.service.Leave(ctx, code, userID); err != nil {
			h.logger.Debug("leave on disconnect failed", zap.String("code", code), zap.String("user_id", userID), zap.Error(err))
		}
		return
	}
	if err := h.service.SetOnline(ctx, code, userID, false); err != nil {
		h.logger.Debug("set offline failed", zap.String("code", code), zap.String("user_id", userID), zap.Error(err))
	}
}

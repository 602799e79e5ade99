package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"

	"quiz-battle-service/internal/domain"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestPublishBattleFinishedKeysByRoomCode(t *testing.T) {
	w := &recordingWriter{}
	p := NewPublisherWithWriter(w)

	result := domain.BattleResult{Code: "ABC234", WinnerID: "u1", QuestionsCount: 3}
	if err := p.PublishBattleFinished(context.Background(), result); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "ABC234" {
		t.Fatalf("expected key ABC234, got %q", msg.Key)
	}

	var env Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Type != EventBattleFinished || env.ID == "" {
		t.Fatalf("unexpected envelope %+v", env)
	}
	var got domain.BattleResult
	if err := json.Unmarshal(env.Payload, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got.WinnerID != "u1" {
		t.Fatalf("expected winner u1, got %s", got.WinnerID)
	}
}

func TestPublishBattleFinishedWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewPublisherWithWriter(&recordingWriter{err: boom})

	err := p.PublishBattleFinished(context.Background(), domain.BattleResult{Code: "ABC234"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped broker error, got %v", err)
	}
}

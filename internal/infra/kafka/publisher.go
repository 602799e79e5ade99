package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"quiz-battle-service/internal/domain"
)

const (
	DefaultTopic = "battle-events"

	EventBattleFinished = "battle.finished"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Envelope wraps every published event.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// Publisher writes battle events keyed by room code, so events for one
// room land on one partition.
type Publisher struct {
	writer MessageWriter
	now    func() time.Time
}

func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return NewPublisherWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	})
}

func NewPublisherWithWriter(writer MessageWriter) *Publisher {
	return &Publisher{writer: writer, now: time.Now}
}

func (p *Publisher) PublishBattleFinished(ctx context.Context, result domain.BattleResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal battle result: %w", err)
	}
	value, err := json.Marshal(Envelope{
		ID:         uuid.NewString(),
		Type:       EventBattleFinished,
		OccurredAt: p.now(),
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(result.Code),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(EventBattleFinished)},
		},
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", EventBattleFinished, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

package ticket

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	EventCreated = "ticket.created"
	EventUpdated = "ticket.updated"
	EventClosed  = "ticket.closed"
)

type Event struct {
	Type       string    `json:"type"`
	TicketID   string    `json:"ticket_id"`
	Status     string    `json:"status,omitempty"`
	UpdateType string    `json:"update_type,omitempty"`
	At         time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

type KafkaConfig struct {
	Brokers      []string      `envconfig:"BROKERS" split_words:"true"`
	Topic        string        `envconfig:"TOPIC" split_words:"true" default:"driftdesk.tickets"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" split_words:"true" default:"5s"`
}

func (c KafkaConfig) Enabled() bool {
	for _, b := range c.Brokers {
		if strings.TrimSpace(b) != "" {
			return true
		}
	}
	return false
}

// KafkaPublisher writes ticket events keyed by ticket id. The hash balancer
// maps a key to a fixed partition, so events of one ticket stay ordered.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(cfg KafkaConfig) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			WriteTimeout: cfg.WriteTimeout,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal ticket event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.TicketID),
		Value: data,
		Time:  ev.At,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write ticket event %s: %w", ev.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

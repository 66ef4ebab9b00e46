// Package kafka publishes audit events to per-category Kafka topics.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	id "civreg/pkg/domain"
	audit "civreg/pkg/platform/audit"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer is the subset of *kgo.Client used by Store.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Store produces each audit event to the topic of its category and, when a
// mirror is configured, appends it there too so it can be listed back.
// Kafka is the source of truth; the mirror is a local read model.
type Store struct {
	producer    Producer
	topicPrefix string
	mirror      audit.Store
}

type Option func(*Store)

// WithTopicPrefix sets the topic prefix. Topics are "<prefix>.<category>".
func WithTopicPrefix(prefix string) Option {
	return func(s *Store) {
		s.topicPrefix = prefix
	}
}

// WithMirror appends every produced event to store as well.
func WithMirror(store audit.Store) Option {
	return func(s *Store) {
		s.mirror = store
	}
}

func New(producer Producer, opts ...Option) *Store {
	s := &Store{producer: producer, topicPrefix: "audit"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Topic returns the topic events of category c are produced to.
func (s *Store) Topic(c audit.EventCategory) string {
	return s.topicPrefix + "." + string(c)
}

type payload struct {
	ID             string `json:"ID"`
	Category       string `json:"Category"`
	Timestamp      string `json:"Timestamp"`
	SessionID      string `json:"SessionID,omitempty"`
	RecordID       string `json:"RecordID,omitempty"`
	RegistryNumber string `json:"RegistryNumber,omitempty"`
	Action         string `json:"Action"`
	Decision       string `json:"Decision,omitempty"`
	Reason         string `json:"Reason,omitempty"`
	Operator       string `json:"Operator,omitempty"`
	RequestID      string `json:"RequestID,omitempty"`
}

// Append produces the event synchronously. Records are keyed by session so a
// session's events stay ordered within a partition.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	category := audit.AuditEvent(event.Action).Category()
	p := payload{
		ID:             uuid.NewString(),
		Category:       string(category),
		Timestamp:      event.Timestamp.UTC().Format(time.RFC3339Nano),
		RegistryNumber: event.RegistryNumber,
		Action:         event.Action,
		Decision:       event.Decision,
		Reason:         event.Reason,
		Operator:       event.Operator,
		RequestID:      event.RequestID,
	}
	if !event.SessionID.IsNil() {
		p.SessionID = event.SessionID.String()
	}
	if !event.RecordID.IsNil() {
		p.RecordID = event.RecordID.String()
	}
	value, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	record := &kgo.Record{
		Topic: s.Topic(category),
		Key:   []byte(p.SessionID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(event.Action)},
		},
	}
	if err := s.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}

	if s.mirror != nil {
		event.Category = category
		if err := s.mirror.Append(ctx, event); err != nil {
			return fmt.Errorf("mirror audit event: %w", err)
		}
	}
	return nil
}

func (s *Store) ListBySession(ctx context.Context, sessionID id.SessionID) ([]audit.Event, error) {
	if s.mirror == nil {
		return nil, nil
	}
	return s.mirror.ListBySession(ctx, sessionID)
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	if s.mirror == nil {
		return nil, nil
	}
	return s.mirror.ListRecent(ctx, limit)
}

package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/careaxis/clinic-api/internal/model"
	"github.com/careaxis/clinic-api/internal/repository"
)

// Emitter is the slice of the event service the domain services need.
// The event is recorded on the caller's transaction, so the mutation
// and its event commit or roll back together.
type Emitter interface {
	Emit(ctx context.Context, tx *sqlx.Tx, eventType string, payload interface{}) error
}

// Service records domain events in the outbox. Publishing to the broker
// is the worker's job.
type Service struct {
	outboxRepo repository.OutboxRepository
}

func NewService(outboxRepo repository.OutboxRepository) *Service {
	return &Service{outboxRepo: outboxRepo}
}

func (s *Service) Emit(ctx context.Context, tx *sqlx.Tx, eventType string, payload interface{}) error {
	event, err := newEvent(eventType, payload)
	if err != nil {
		return err
	}
	if err := s.outboxRepo.Create(ctx, tx, event); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

func newEvent(eventType string, payload interface{}) (*model.OutboxEvent, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	now := time.Now()
	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   payloadJSON,
		Status:    model.OutboxStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

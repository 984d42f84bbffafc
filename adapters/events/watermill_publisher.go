package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/phanstudios/what-the-burn/core"
	"github.com/phanstudios/what-the-burn/ports"
)

const (
	// TopicAttempts carries saga state transitions.
	TopicAttempts = "burn.attempts"

	// TopicLogout carries session teardown notifications.
	TopicLogout = "burn.logout"
)

// TransitionEvent is the published form of a saga transition.
type TransitionEvent struct {
	RequestID       string `json:"request_id"`
	State           string `json:"state"`
	TransactionHash string `json:"transaction_hash,omitempty"`
	Error           string `json:"error,omitempty"`
}

// LogoutEvent is the published form of a session teardown.
type LogoutEvent struct {
	Address string `json:"address"`
}

// WatermillPublisher publishes orchestration events over any Watermill
// backend (redis stream in production, gochannel in a single process).
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher wraps a Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher}
}

var _ ports.EventPublisher = (*WatermillPublisher)(nil)

// PublishTransition announces a saga state change.
func (p *WatermillPublisher) PublishTransition(ctx context.Context, attempt core.BurnAttempt) error {
	event := TransitionEvent{
		RequestID:       attempt.RequestID,
		State:           attempt.State.String(),
		TransactionHash: attempt.TxHash,
	}
	if attempt.Err != nil {
		event.Error = attempt.Err.Error()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal transition event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	if err := p.publisher.Publish(TopicAttempts, msg); err != nil {
		return fmt.Errorf("failed to publish transition event: %w", err)
	}
	return nil
}

// PublishLogout announces a session teardown.
func (p *WatermillPublisher) PublishLogout(ctx context.Context, address string) error {
	payload, err := json.Marshal(LogoutEvent{Address: address})
	if err != nil {
		return fmt.Errorf("failed to marshal logout event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	if err := p.publisher.Publish(TopicLogout, msg); err != nil {
		return fmt.Errorf("failed to publish logout event: %w", err)
	}
	return nil
}

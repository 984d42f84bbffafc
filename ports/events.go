package ports

import (
	"context"

	"github.com/phanstudios/what-the-burn/core"
)

// EventPublisher notifies observers of saga progress and session teardown.
type EventPublisher interface {
	// PublishTransition announces a saga state change.
	PublishTransition(ctx context.Context, attempt core.BurnAttempt) error

	// PublishLogout announces a session teardown for the address.
	PublishLogout(ctx context.Context, address string) error
}

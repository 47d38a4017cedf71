package port

import (
	"context"

	"github.com/yitao-mall/stock-engine/internal/core/domain"
)

// EventPublisher notifies downstream consumers after successful mutations.
// Best effort: callers log a failed publish and move on; it never rolls back
// the mutation that triggered it.
type EventPublisher interface {
	Publish(ctx context.Context, eventType domain.EventType, entityID string) error
}

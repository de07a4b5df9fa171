package orders

import (
	"context"

	"github.com/google/uuid"

	"github.com/mnldiecast/storefront-backend/pkg/logger"
	"github.com/mnldiecast/storefront-backend/pkg/pubsub"
)

// ApprovalEvent is published when an order lands in the approval queue.
type ApprovalEvent struct {
	OrderID          uuid.UUID  `json:"order_id"`
	OwnerID          *uuid.UUID `json:"owner_id,omitempty"`
	TotalCents       int        `json:"total_cents"`
	PaymentMethod    string     `json:"payment_method"`
	ShippingApproval bool       `json:"shipping_approval"`
	Reason           string     `json:"reason,omitempty"`
}

// Notifier announces new orders to the approvals workflow.
type Notifier interface {
	OrderCreated(ctx context.Context, event ApprovalEvent) error
}

// PubSubNotifier publishes approval events on the configured topic.
type PubSubNotifier struct {
	client *pubsub.Client
	logg   *logger.Logger
}

// NewPubSubNotifier wires the notifier; a nil client yields a no-op.
func NewPubSubNotifier(client *pubsub.Client, logg *logger.Logger) *PubSubNotifier {
	return &PubSubNotifier{client: client, logg: logg}
}

func (n *PubSubNotifier) OrderCreated(ctx context.Context, event ApprovalEvent) error {
	if n == nil || n.client == nil {
		return nil
	}
	return n.client.PublishJSON(ctx, event)
}

// NoopNotifier is used when pubsub is not configured.
type NoopNotifier struct{}

func (NoopNotifier) OrderCreated(context.Context, ApprovalEvent) error { return nil }

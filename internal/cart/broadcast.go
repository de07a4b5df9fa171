package cart

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/mnldiecast/storefront-backend/pkg/instance"
	"github.com/mnldiecast/storefront-backend/pkg/logger"
	"github.com/mnldiecast/storefront-backend/pkg/redis"
)

// ChangeEvent announces that a cart changed on some instance, so other
// instances (and their connected clients) can refresh their view.
type ChangeEvent struct {
	Key    string `json:"key"`
	Guest  bool   `json:"guest"`
	Op     string `json:"op"`
	Origin string `json:"origin"`
}

// Broadcaster fans cart changes out to the other app instances.
type Broadcaster interface {
	CartChanged(ctx context.Context, id Identity, op string)
}

type pubsubClient interface {
	Publish(ctx context.Context, channel string, payload any) error
	Subscribe(ctx context.Context, channels ...string) (*goredis.PubSub, error)
}

// RedisBroadcaster publishes cart changes on a shared redis channel and
// filters out its own echoes by instance ID.
type RedisBroadcaster struct {
	client pubsubClient
	logg   *logger.Logger
	origin string
}

// NewRedisBroadcaster constructs a broadcaster for this instance.
func NewRedisBroadcaster(client *redis.Client, logg *logger.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{
		client: client,
		logg:   logg,
		origin: instance.GetID(),
	}
}

// CartChanged publishes the change event. Delivery is best effort: a dead
// broker never blocks a cart write.
func (b *RedisBroadcaster) CartChanged(ctx context.Context, id Identity, op string) {
	if b == nil || b.client == nil {
		return
	}
	event := ChangeEvent{
		Key:    id.Key(),
		Guest:  id.IsGuest(),
		Op:     op,
		Origin: b.origin,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := b.client.Publish(ctx, redis.ChannelCartChanged, payload); err != nil && b.logg != nil {
		b.logg.Warn(b.logg.WithField(ctx, "op", op), "cart change broadcast failed")
	}
}

// Listen consumes cart change events from other instances and invokes
// handle for each. Events originating from this instance are dropped.
// Blocks until ctx is canceled.
func (b *RedisBroadcaster) Listen(ctx context.Context, handle func(ChangeEvent)) error {
	sub, err := b.client.Subscribe(ctx, redis.ChannelCartChanged)
	if err != nil {
		return err
	}
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if event, ok := b.decodeChange(msg.Payload); ok {
				handle(event)
			}
		}
	}
}

// decodeChange parses a raw cart-change payload, dropping malformed
// messages and this instance's own echoes.
func (b *RedisBroadcaster) decodeChange(payload string) (ChangeEvent, bool) {
	var event ChangeEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return ChangeEvent{}, false
	}
	if event.Origin == b.origin {
		return ChangeEvent{}, false
	}
	return event, true
}

// StockEvent announces that a variant's available quantity changed. The
// inventory system publishes these; this service only subscribes.
type StockEvent struct {
	VariantID    uuid.UUID `json:"variant_id"`
	AvailableQty int       `json:"available_qty"`
}

// ListenStock consumes stock change events and invokes handle for each.
// Blocks until ctx is canceled.
func (b *RedisBroadcaster) ListenStock(ctx context.Context, handle func(StockEvent)) error {
	sub, err := b.client.Subscribe(ctx, redis.ChannelStockChanged)
	if err != nil {
		return err
	}
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if event, ok := decodeStock(msg.Payload); ok {
				handle(event)
			}
		}
	}
}

func decodeStock(payload string) (StockEvent, bool) {
	var event StockEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return StockEvent{}, false
	}
	if event.VariantID == uuid.Nil {
		return StockEvent{}, false
	}
	return event, true
}

// NoopBroadcaster is used when redis pub/sub is unavailable (tests, single
// instance deployments).
type NoopBroadcaster struct{}

func (NoopBroadcaster) CartChanged(context.Context, Identity, string) {}

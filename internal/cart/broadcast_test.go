package cart

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/mnldiecast/storefront-backend/pkg/instance"
	"github.com/mnldiecast/storefront-backend/pkg/redis"
)

type recordingPubSub struct {
	channel  string
	payloads [][]byte
}

func (r *recordingPubSub) Publish(_ context.Context, channel string, payload any) error {
	r.channel = channel
	r.payloads = append(r.payloads, payload.([]byte))
	return nil
}

func (r *recordingPubSub) Subscribe(context.Context, ...string) (*goredis.PubSub, error) {
	return nil, errors.New("not wired in this test")
}

func TestCartChangedStampsOrigin(t *testing.T) {
	t.Parallel()

	client := &recordingPubSub{}
	b := &RedisBroadcaster{client: client, origin: instance.GetID()}

	b.CartChanged(t.Context(), GuestIdentity("tok-b"), "add")

	require.Equal(t, redis.ChannelCartChanged, client.channel)
	require.Len(t, client.payloads, 1)

	var event ChangeEvent
	require.NoError(t, json.Unmarshal(client.payloads[0], &event))
	require.Equal(t, "tok-b", event.Key)
	require.True(t, event.Guest)
	require.Equal(t, "add", event.Op)
	require.Equal(t, instance.GetID(), event.Origin)
}

func TestDecodeChangeDropsOwnOrigin(t *testing.T) {
	t.Parallel()

	b := &RedisBroadcaster{origin: "instance-a"}

	own, _ := json.Marshal(ChangeEvent{Key: "tok-1", Op: "add", Origin: "instance-a"})
	_, ok := b.decodeChange(string(own))
	require.False(t, ok, "own echo must be dropped")

	foreign, _ := json.Marshal(ChangeEvent{Key: "tok-1", Op: "merge", Origin: "instance-b"})
	event, ok := b.decodeChange(string(foreign))
	require.True(t, ok)
	require.Equal(t, "merge", event.Op)
	require.Equal(t, "instance-b", event.Origin)
}

func TestDecodeChangeDropsMalformedPayload(t *testing.T) {
	t.Parallel()

	b := &RedisBroadcaster{origin: "instance-a"}
	_, ok := b.decodeChange("{not json")
	require.False(t, ok)
}

func TestDecodeStock(t *testing.T) {
	t.Parallel()

	variantID := uuid.New()
	raw, _ := json.Marshal(StockEvent{VariantID: variantID, AvailableQty: 2})
	event, ok := decodeStock(string(raw))
	require.True(t, ok)
	require.Equal(t, variantID, event.VariantID)
	require.Equal(t, 2, event.AvailableQty)

	_, ok = decodeStock(`{"variant_id":"00000000-0000-0000-0000-000000000000"}`)
	require.False(t, ok, "nil variant id must be dropped")

	_, ok = decodeStock("{broken")
	require.False(t, ok)
}

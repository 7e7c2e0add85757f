package adapters

import (
	"context"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"parcel-tracker/internal/core/cache"
	"parcel-tracker/internal/core/pubsub"
	"parcel-tracker/internal/features/parcels/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleParcel() *domain.Parcel {
	return &domain.Parcel{
		ID:             "0b7f7b4e-0b36-4c8e-a3b2-3d3c1b2f9a10",
		TrackingNumber: "TRK17000000001230042",
		CustomerID:     "5f0c6a52-8f52-4a8e-9a47-0f8f8b0d4c11",
		Delivery:       domain.Delivery{Status: domain.StatusPending},
		Tracking: []domain.TrackingEvent{
			{Status: domain.StatusCreated, Notes: "Parcel booking created"},
			{Status: domain.StatusPending},
		},
	}
}

func TestRedisTrackCache(t *testing.T) {
	mr := miniredis.RunT(t)
	adapter, err := cache.NewRedis("redis://"+mr.Addr(), "")
	require.NoError(t, err)
	defer adapter.Close()

	ctx := context.Background()
	c := NewRedisTrackCache(adapter, 30*time.Second)
	p := sampleParcel()

	_, version, ok := c.Get(ctx, p.TrackingNumber)
	assert.False(t, ok)
	assert.Empty(t, version)

	c.Set(ctx, p, version)
	assert.True(t, mr.Exists("parcels:track:"+p.TrackingNumber))
	assert.Equal(t, 30*time.Second, mr.TTL("parcels:track:"+p.TrackingNumber))

	got, _, ok := c.Get(ctx, p.TrackingNumber)
	require.True(t, ok)
	assert.Equal(t, p.TrackingNumber, got.TrackingNumber)
	require.Len(t, got.Tracking, 2)
	assert.Equal(t, domain.StatusCreated, got.Tracking[0].Status, "log order is preserved")

	c.Invalidate(ctx, p.TrackingNumber)
	_, next, ok := c.Get(ctx, p.TrackingNumber)
	assert.False(t, ok)
	assert.NotEmpty(t, next)
	assert.Equal(t, time.Minute, mr.TTL("parcels:track:"+p.TrackingNumber+":version"))

	c.Set(ctx, p, next)
	_, _, ok = c.Get(ctx, p.TrackingNumber)
	assert.True(t, ok)
}

func TestRedisTrackCache_StaleWriteAfterInvalidate(t *testing.T) {
	mr := miniredis.RunT(t)
	adapter, err := cache.NewRedis("redis://"+mr.Addr(), "")
	require.NoError(t, err)
	defer adapter.Close()

	ctx := context.Background()
	c := NewRedisTrackCache(adapter, 30*time.Second)
	old := sampleParcel()

	// Lookup misses and reads the parcel, a transition invalidates,
	// then the lookup stores what it read.
	_, version, ok := c.Get(ctx, old.TrackingNumber)
	require.False(t, ok)
	c.Invalidate(ctx, old.TrackingNumber)
	c.Set(ctx, old, version)

	_, current, ok := c.Get(ctx, old.TrackingNumber)
	assert.False(t, ok, "an entry written with a superseded version is a miss")

	fresh := sampleParcel()
	fresh.Delivery.Status = domain.StatusInTransit
	c.Set(ctx, fresh, current)
	got, _, ok := c.Get(ctx, old.TrackingNumber)
	require.True(t, ok)
	assert.Equal(t, domain.StatusInTransit, got.Delivery.Status)
}

func TestRedisTrackCache_FailuresAreMisses(t *testing.T) {
	mr := miniredis.RunT(t)
	adapter, err := cache.NewRedis("redis://"+mr.Addr(), "")
	require.NoError(t, err)
	defer adapter.Close()

	ctx := context.Background()
	c := NewRedisTrackCache(adapter, time.Minute)

	require.NoError(t, mr.Set("parcels:track:TRK1", "{not json"))
	_, _, ok := c.Get(ctx, "TRK1")
	assert.False(t, ok)

	mr.Close()
	_, _, ok = c.Get(ctx, "TRK1")
	assert.False(t, ok)
	c.Set(ctx, sampleParcel(), "")
	c.Invalidate(ctx, "TRK1")
}

func TestBrokerPublisher(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	broker := pubsub.NewRedisBroker(client)
	p := sampleParcel()
	p.Delivery.AgentID = "agent-7"

	sub, err := broker.Subscribe(ctx, domain.AgentChannel("agent-7"))
	require.NoError(t, err)
	defer sub.Close()

	ev := domain.NewChangeEvent(domain.EventStatusUpdated, p, domain.TrackingEvent{Status: domain.StatusAssigned})
	require.NoError(t, NewBrokerPublisher(broker).Publish(ctx, ev))

	select {
	case msg := <-sub.Messages():
		var got domain.ChangeEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, domain.EventStatusUpdated, got.Type)
		assert.Equal(t, domain.StatusAssigned, got.Status)
		assert.Equal(t, p.TrackingNumber, got.TrackingNumber)
	case <-ctx.Done():
		t.Fatal("no event received on agent channel")
	}
}

func TestQRGenerator(t *testing.T) {
	dir := t.TempDir()
	p := sampleParcel()

	qr, barcode, err := NewQRGenerator(dir).Generate(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, "/uploads/qrcodes/qr_"+p.ID+".png", qr)
	assert.Equal(t, p.TrackingNumber, barcode)

	f, err := os.Open(filepath.Join(dir, "qrcodes", "qr_"+p.ID+".png"))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
}

package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuqie6/SkillForge/internal/schema"
)

func TestHubPublishSubscribe(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := hub.Subscribe(ctx, 4)
	hub.Publish(NewSkillEvent(TypeSkillCreated, schema.Skill{ID: 3, Name: "Go", CurrentLevel: 1}))

	select {
	case evt := <-sub:
		assert.Equal(t, TypeSkillCreated, evt.Type)
		assert.NotZero(t, evt.Timestamp)
		id, ok := Int64(evt.Data, "skill_id")
		require.True(t, ok)
		assert.Equal(t, int64(3), id)
		assert.Equal(t, "Go", String(evt.Data, "name"))
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestHubUnsubscribeOnCancel(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	sub := hub.Subscribe(ctx, 1)
	require.Equal(t, 1, hub.Subscribers())

	cancel()
	_, ok := <-sub
	assert.False(t, ok, "channel should be closed after cancel")
	assert.Equal(t, 0, hub.Subscribers())
}

func TestHubSlowConsumerDoesNotBlock(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = hub.Subscribe(ctx, 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			hub.Publish(Event{Type: TypeSessionLogged})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on slow consumer")
	}
	assert.Equal(t, int64(9), hub.Dropped())
}

func TestHubClose(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(context.Background(), 4)
	require.Equal(t, 1, hub.Subscribers())

	hub.Close()
	_, ok := <-sub
	assert.False(t, ok)
	assert.Zero(t, hub.Subscribers())
	assert.NotPanics(t, func() { hub.Publish(Event{Type: TypeSkillCreated}) })

	late := hub.Subscribe(context.Background(), 1)
	_, ok = <-late
	assert.False(t, ok, "subscribing to a closed hub yields a closed channel")
	hub.Close()
}

func TestEventAccessors(t *testing.T) {
	evt := NewSkillEvent(TypeSessionLogged, schema.Skill{ID: 12, Name: "Pottery", TotalXP: 340})
	id, ok := evt.SkillID()
	require.True(t, ok)
	assert.Equal(t, int64(12), id)
	assert.Equal(t, int64(340), evt.TotalXP())
	assert.Equal(t, "Pottery", evt.SkillName())
	assert.NotZero(t, evt.Timestamp)

	_, ok = Event{Type: TypeSkillDeleted}.SkillID()
	assert.False(t, ok)
}

func TestNilHubPublish(t *testing.T) {
	var hub *Hub
	assert.NotPanics(t, func() { hub.Publish(Event{Type: TypeSkillDeleted}) })
}

func TestInt64Conversions(t *testing.T) {
	data := map[string]any{"a": int64(1), "b": 2, "c": float64(3), "d": "x"}
	for key, want := range map[string]int64{"a": 1, "b": 2, "c": 3} {
		got, ok := Int64(data, key)
		assert.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
	_, ok := Int64(data, "d")
	assert.False(t, ok)
}

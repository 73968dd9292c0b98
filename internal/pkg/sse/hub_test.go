package sse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesOnlyTheTopic(t *testing.T) {
	hub := NewHub[string]()
	alice, cancelAlice := hub.Subscribe("user-alice")
	defer cancelAlice()
	bob, cancelBob := hub.Subscribe("user-bob")
	defer cancelBob()

	assert.Equal(t, 1, hub.Publish("user-alice", "hello", false))

	select {
	case msg := <-alice:
		assert.Equal(t, "hello", msg)
	case <-time.After(time.Second):
		t.Fatal("alice did not receive the message")
	}

	select {
	case msg := <-bob:
		t.Fatalf("bob received a message meant for alice: %q", msg)
	default:
	}
}

func TestHub_PublishWithoutSubscribers(t *testing.T) {
	hub := NewHub[int]()
	assert.Zero(t, hub.Publish("nobody", 1, true))
}

func TestHub_CancelIsIdempotent(t *testing.T) {
	hub := NewHub[int]()
	ch, cancel := hub.Subscribe("user-1")
	require.Equal(t, 1, hub.Subscribers("user-1"))

	cancel()
	cancel()

	assert.Zero(t, hub.Subscribers("user-1"))
	_, open := <-ch
	assert.False(t, open)
}

func TestHub_FullBufferDropsNormalMessages(t *testing.T) {
	hub := NewHub[int]()
	ch, cancel := hub.Subscribe("user-1")
	defer cancel()

	dropped := 0
	for i := 0; i < BufferSize+5; i++ {
		if hub.Publish("user-1", i, false) == 0 {
			dropped++
		}
	}
	assert.Equal(t, 5, dropped)
	assert.Len(t, ch, BufferSize)
}

func TestHub_UrgentMessageWaitsForRoom(t *testing.T) {
	hub := NewHub[string]()
	ch, cancel := hub.Subscribe("user-1")
	defer cancel()

	for i := 0; i < BufferSize; i++ {
		hub.Publish("user-1", "filler", false)
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		<-ch
	}()
	assert.Equal(t, 1, hub.Publish("user-1", "urgent", true))

	var last string
	for len(ch) > 0 {
		last = <-ch
	}
	assert.Equal(t, "urgent", last)
}

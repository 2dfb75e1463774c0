package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBroadcaster_LatestWins(t *testing.T) {
	b := NewBroadcaster[int]()
	ch := b.Subscribe()
	b.Broadcast(1)
	b.Broadcast(2)
	b.Broadcast(3)
	assert.Equal(t, 3, <-ch)
	select {
	case v := <-ch:
		t.Errorf("unexpected pending value %d", v)
	default:
	}
}

func TestBroadcaster_LateSubscriberGetsLastValue(t *testing.T) {
	b := NewBroadcaster[string]()
	b.Broadcast("first")
	b.Broadcast("second")
	ch := b.Subscribe()
	assert.Equal(t, "second", <-ch)
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	b := NewBroadcaster[int]()
	ch1 := b.Subscribe()
	ch2 := b.Subscribe()
	b.Unsubscribe(ch1)
	b.Broadcast(7)

	_, ok := <-ch1
	assert.False(t, ok, "unsubscribed channel should be closed")
	assert.Equal(t, 7, <-ch2)
}

func TestBroadcaster_Close(t *testing.T) {
	b := NewBroadcaster[int]()
	ch := b.Subscribe()
	b.Close()
	b.Broadcast(1)
	b.Close()

	_, ok := <-ch
	assert.False(t, ok)
	_, ok = <-b.Subscribe()
	assert.False(t, ok, "subscribing after close yields a closed channel")
}

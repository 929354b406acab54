package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestBusDeliversToEverySubscriber(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t))

	a, cancelA := bus.Subscribe(4)
	defer cancelA()
	b, cancelB := bus.Subscribe(4)
	defer cancelB()

	bus.Publish(Logout("unauthorized"))

	for _, ch := range []<-chan Event{a, b} {
		ev := <-ch
		assert.Equal(t, KindLogout, ev.Kind)
		assert.Equal(t, "unauthorized", ev.Reason)
		assert.False(t, ev.At.IsZero())
	}
}

func TestBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewBus(nil)
	ch, cancel := bus.Subscribe(1)
	defer cancel()

	bus.Publish(Notify(LevelInfo, "first"))
	bus.Publish(Notify(LevelInfo, "second"))

	ev := <-ch
	assert.Equal(t, "first", ev.Message)
	select {
	case extra := <-ch:
		t.Fatalf("unexpected event %+v", extra)
	default:
	}
}

func TestCancelClosesChannelOnce(t *testing.T) {
	bus := NewBus(nil)
	ch, cancel := bus.Subscribe(1)
	cancel()
	cancel()

	_, open := <-ch
	require.False(t, open)

	bus.Publish(RecordSaved("clientes", 3))
}

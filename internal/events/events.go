// Package events is the typed application channel for cross-cutting signals
// such as session teardown and transient notifications.
package events

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type Kind string

const (
	KindLogout       Kind = "logout"
	KindNotification Kind = "notification"
	KindRecordSaved  Kind = "record_saved"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

type Event struct {
	Kind    Kind
	Level   Level
	Message string

	// Reason is set on logout events ("unauthorized", "user").
	Reason string

	// Record identifies the entity on record_saved events.
	RecordKind string
	RecordID   int64

	At time.Time
}

func Logout(reason string) Event {
	return Event{Kind: KindLogout, Reason: reason, At: time.Now()}
}

func Notify(level Level, message string) Event {
	return Event{Kind: KindNotification, Level: level, Message: message, At: time.Now()}
}

func RecordSaved(kind string, id int64) Event {
	return Event{Kind: KindRecordSaved, RecordKind: kind, RecordID: id, At: time.Now()}
}

// Bus fans events out to subscribers. Publish never blocks: a subscriber
// whose buffer is full loses the event.
type Bus struct {
	log  *zap.Logger
	mu   sync.RWMutex
	next int
	subs map[int]chan Event
}

func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		log:  log,
		subs: make(map[int]chan Event),
	}
}

// Subscribe returns the event channel and a cancel func that closes it.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.log.Warn("event subscriber full, dropping event", zap.String("kind", string(ev.Kind)))
		}
	}
}

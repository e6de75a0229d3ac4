package sync

import (
	"sync"

	"github.com/mkravets/fieldops/internal/client/models"
)

// Status is the lifecycle tag carried by progress events.
type Status string

const (
	StatusStarting   Status = "starting"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// StatusEvent is a progress notification for one sync scope. EntityType is
// models.EntityAll when the event covers a whole pass.
type StatusEvent struct {
	EntityType models.EntityType
	Status     Status
	Completed  int
	Total      int
}

// broadcaster fans StatusEvents out to subscribers. Channels are buffered
// and events are dropped when a subscriber falls behind, so a slow consumer
// never blocks a sync pass.
type broadcaster struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan StatusEvent
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan StatusEvent)}
}

func (b *broadcaster) subscribe() (<-chan StatusEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan StatusEvent, 16)
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
}

func (b *broadcaster) publish(e StatusEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

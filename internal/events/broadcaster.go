package events

import (
	"context"
	"sync"
)

// Broadcaster fans events out to in-process subscribers of an auction,
// feeding the server-sent event stream.
type Broadcaster struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]chan Event // key: auctionID -> subscriber id -> channel
	buffer int
}

func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = 64
	}
	return &Broadcaster{
		subs:   make(map[string]map[int]chan Event),
		buffer: buffer,
	}
}

func (b *Broadcaster) Name() string { return "broadcaster" }

// Subscribe registers a listener for one auction. The returned cancel func must be called.
func (b *Broadcaster) Subscribe(auctionID string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, b.buffer)
	if b.subs[auctionID] == nil {
		b.subs[auctionID] = make(map[int]chan Event)
	}
	b.subs[auctionID][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[auctionID], id)
			if len(b.subs[auctionID]) == 0 {
				delete(b.subs, auctionID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers returns the number of listeners on an auction
func (b *Broadcaster) Subscribers(auctionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[auctionID])
}

// Deliver never blocks; a slow subscriber misses events rather than stalling the others.
func (b *Broadcaster) Deliver(_ context.Context, evt Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[evt.AuctionID] {
		select {
		case ch <- evt:
		default:
		}
	}
	return nil
}

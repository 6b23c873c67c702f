package server

import (
	"sync"

	"github.com/geoclash/geoclash/internal/match"
)

// Broker is an in-process pub/sub for match events, keyed by player ID. It
// implements match.Notifier: publishing never blocks, so the orchestrator
// can emit while holding a match lock. Each subscriber owns one buffered
// channel, which preserves per-player event order.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan match.Event]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan match.Event]struct{}),
	}
}

// Subscribe returns a channel that receives events for the given player.
func (b *Broker) Subscribe(playerID string) chan match.Event {
	ch := make(chan match.Event, 32)
	b.mu.Lock()
	if b.subs[playerID] == nil {
		b.subs[playerID] = make(map[chan match.Event]struct{})
	}
	b.subs[playerID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the player's subscribers.
func (b *Broker) Unsubscribe(playerID string, ch chan match.Event) {
	b.mu.Lock()
	delete(b.subs[playerID], ch)
	if len(b.subs[playerID]) == 0 {
		delete(b.subs, playerID)
	}
	b.mu.Unlock()
}

// Notify sends an event to all subscribers of the given player.
func (b *Broker) Notify(playerID string, ev match.Event) {
	b.mu.RLock()
	for ch := range b.subs[playerID] {
		select {
		case ch <- ev:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}

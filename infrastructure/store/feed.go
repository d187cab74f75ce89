// Package store provides ports.ContestStore implementations: an in-memory
// store for tests and embedded use, and a SQLite-backed store. Both push
// change events to subscribers after every committed write.
package store

import (
	"context"
	"sync"

	"github.com/ahrav/go-joute/internal/ports"
)

var _ ports.ChangeFeed = (*Feed)(nil)

// Feed fans committed writes out to subscribers. The zero value is ready
// to use.
type Feed struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(ports.ChangeEvent)
}

// Subscribe implements ports.ChangeFeed.
func (f *Feed) Subscribe(fn func(ports.ChangeEvent)) (cancel func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs == nil {
		f.subs = make(map[int]func(ports.ChangeEvent))
	}
	id := f.next
	f.next++
	f.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// Publish delivers ev to every subscriber. It must be called without
// holding store locks, since subscribers may read back synchronously.
func (f *Feed) Publish(ev ports.ChangeEvent) {
	f.mu.RLock()
	subs := make([]func(ports.ChangeEvent), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}

func (f *Feed) publish(ctx context.Context, collection, roundID, candidateID string) {
	f.Publish(ports.ChangeEvent{
		Collection:  collection,
		RoundID:     roundID,
		CandidateID: candidateID,
		SessionID:   ports.SessionFrom(ctx),
	})
}

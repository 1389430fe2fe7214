package store

import (
	"sync"

	"quantum-social/internal/signals"
)

// Subscription streams store snapshots. Each subscription queues snapshots
// without bound, so a slow reader never stalls the store and never misses a
// snapshot.
type Subscription struct {
	store *Store
	out   chan []signals.Signal

	mu    sync.Mutex
	queue [][]signals.Signal

	wake chan struct{}
	done chan struct{}
	once sync.Once
}

func newSubscription(s *Store) *Subscription {
	return &Subscription{
		store: s,
		out:   make(chan []signals.Signal),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// C delivers snapshots in mutation order, newest signal first. Snapshots are
// shared between subscribers and must not be modified. The channel is closed
// after Close.
func (sub *Subscription) C() <-chan []signals.Signal {
	return sub.out
}

// Close detaches the subscription from the store. Pending snapshots are dropped.
func (sub *Subscription) Close() {
	sub.once.Do(func() {
		sub.store.unsubscribe(sub)
		close(sub.done)
	})
}

// Pending reports how many snapshots are queued but not yet received.
func (sub *Subscription) Pending() int {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return len(sub.queue)
}

func (sub *Subscription) push(snapshot []signals.Signal) {
	sub.mu.Lock()
	sub.queue = append(sub.queue, snapshot)
	sub.mu.Unlock()
	select {
	case sub.wake <- struct{}{}:
	default:
	}
}

func (sub *Subscription) run() {
	defer close(sub.out)
	for {
		sub.mu.Lock()
		batch := sub.queue
		sub.queue = nil
		sub.mu.Unlock()

		if len(batch) == 0 {
			select {
			case <-sub.wake:
				continue
			case <-sub.done:
				return
			}
		}
		for _, snapshot := range batch {
			select {
			case sub.out <- snapshot:
			case <-sub.done:
				return
			}
		}
	}
}

package session

import (
	"sort"
	"sync"
)

// observers is a subscriber list with individual unsubscribe handles.
type observers[T any] struct {
	mu   sync.RWMutex
	next uint64
	subs map[uint64]func(T)
}

func newObservers[T any]() *observers[T] {
	return &observers[T]{subs: make(map[uint64]func(T))}
}

// Subscribe returns an idempotent unsubscribe func.
func (o *observers[T]) Subscribe(fn func(T)) func() {
	o.mu.Lock()
	id := o.next
	o.next++
	o.subs[id] = fn
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subs, id)
			o.mu.Unlock()
		})
	}
}

// Notify calls subscribers in subscription order.
func (o *observers[T]) Notify(v T) {
	o.mu.RLock()
	ids := make([]uint64, 0, len(o.subs))
	for id := range o.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]func(T), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, o.subs[id])
	}
	o.mu.RUnlock()

	for _, fn := range fns {
		fn(v)
	}
}

func (o *observers[T]) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.subs)
}

package state

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Slot is a single observable value. Reads are safe from any goroutine; Set
// must only be called by the goroutine that owns the store.
type Slot[T any] struct {
	name string

	mu     sync.RWMutex
	val    T
	subs   []subscriber[T]
	nextID uint64

	notifying atomic.Int32
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// NewSlot creates a slot holding initial.
func NewSlot[T any](name string, initial T) *Slot[T] {
	return &Slot[T]{name: name, val: initial}
}

// Name returns the slot name used in diagnostics.
func (s *Slot[T]) Name() string { return s.name }

// Get returns the current value.
func (s *Slot[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.val
}

// Set replaces the value and synchronously calls every subscriber with it, in
// subscription order. Calling Set on this slot from one of its own subscribers
// panics: it would start an unbounded notification chain.
func (s *Slot[T]) Set(v T) {
	if s.notifying.Load() > 0 {
		panic(fmt.Sprintf("state: Set on slot %q called while notifying its subscribers", s.name))
	}

	s.mu.Lock()
	s.val = v
	subs := make([]subscriber[T], len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	s.notify(subs, v)
}

// Subscribe registers fn and immediately calls it once with the current value.
// The returned func removes the subscription.
func (s *Slot[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})
	cur := s.val
	s.mu.Unlock()

	s.notify([]subscriber[T]{{id: id, fn: fn}}, cur)

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

func (s *Slot[T]) notify(subs []subscriber[T], v T) {
	s.notifying.Add(1)
	defer s.notifying.Add(-1)
	for _, sub := range subs {
		sub.fn(v)
	}
}

func (s *Slot[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

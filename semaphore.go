package dispatch

import "sync/atomic"

// Semaphore is the dispatcher's coordination primitive. It carries its
// own Id, drawn from the same allocator as every other registration, so
// it is identity-hashable and totally ordered by allocation order.
//
// Semaphore itself only tracks ready/not-ready state; the pairing between
// a signal and a waiting continuation is owned by the Dispatcher's
// pending table (see pending.go, and Wait/Signal/SignalAll in suspend.go).
type Semaphore struct {
	id    Id
	ready atomic.Bool
}

// newSemaphore constructs a Semaphore with the given Id. Dispatcher.NewSemaphore
// is the public entry point; it is responsible for drawing id from the
// dispatcher's allocator.
func newSemaphore(id Id) *Semaphore {
	return &Semaphore{id: id}
}

// Id returns the semaphore's allocation Id.
func (s *Semaphore) Id() Id {
	return s.id
}

// signal marks the semaphore ready. It is idempotent: signalling an
// already-ready semaphore is a no-op observation-wise. Signal/SignalAll
// only call this when no waiter was available to transfer to directly,
// so that a later Wait's fast path can observe the pending signal.
func (s *Semaphore) signal() {
	s.ready.Store(true)
}

// IsReady reports whether the semaphore currently holds a signal.
func (s *Semaphore) IsReady() bool {
	return s.ready.Load()
}

// consume atomically claims a pending signal, returning true at most
// once per signal. Wait's fast path uses this instead of a plain
// IsReady/Store pair so that a signal can be handed to exactly one
// waiter even if observed more than once.
func (s *Semaphore) consume() bool {
	return s.ready.CompareAndSwap(true, false)
}

package dispatch

import (
	"sync"
	"time"
)

// fakeReg is what fakeSelector remembers about a registered Fd.
type fakeReg struct {
	id     Id
	events IOEvent
}

// fakeSelector is an in-memory Selector test double. Oneshot and periodic
// timers fire the instant they are registered (there is no real clock to
// wait on), so tests drive timing deterministically by controlling when
// RegisterTimerOneshot/RegisterTimerPeriodic are called rather than by
// sleeping. SelectBlocking never actually blocks: it drains whatever is
// ready and returns immediately, which is sufficient because every test
// using it fully controls when readiness is manufactured.
type fakeSelector struct {
	mu     sync.Mutex
	fds    map[Fd]fakeReg
	ready  []ReadyEvent
	nextFd Fd
	closed bool
}

func newFakeSelector() (Selector, error) {
	return &fakeSelector{fds: make(map[Fd]fakeReg)}, nil
}

func (s *fakeSelector) RegisterFD(fd Fd, events IOEvent, id Id) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fds[fd] = fakeReg{id: id, events: events}
	return nil
}

func (s *fakeSelector) RegisterTimerOneshot(_ time.Duration, id Id) (Fd, error) {
	return s.registerFiring(id)
}

func (s *fakeSelector) RegisterTimerPeriodic(_ time.Duration, id Id) (Fd, error) {
	return s.registerFiring(id)
}

func (s *fakeSelector) registerFiring(id Id) (Fd, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fd := s.nextFd
	s.nextFd++
	s.fds[fd] = fakeReg{id: id, events: EventRead}
	s.ready = append(s.ready, ReadyEvent{Fd: fd, Events: EventRead, Id: id})
	return fd, nil
}

func (s *fakeSelector) RegisterUserEvent(id Id) (Fd, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fd := s.nextFd
	s.nextFd++
	s.fds[fd] = fakeReg{id: id, events: EventRead}
	return fd, nil
}

func (s *fakeSelector) Unregister(fd Fd) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fds, fd)
	return nil
}

func (s *fakeSelector) TriggerUserEvent(fd Fd) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.fds[fd]
	if !ok {
		return nil
	}
	s.ready = append(s.ready, ReadyEvent{Fd: fd, Events: EventRead, Id: reg.id})
	return nil
}

// makeReady manufactures readiness for an already-registered Fd, letting
// tests simulate an IO event firing.
func (s *fakeSelector) makeReady(fd Fd, events IOEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.fds[fd]
	if !ok {
		return
	}
	s.ready = append(s.ready, ReadyEvent{Fd: fd, Events: events, Id: reg.id})
}

func (s *fakeSelector) SelectBlocking(time.Duration) ([]ReadyEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.ready
	s.ready = nil
	return events, nil
}

func (s *fakeSelector) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

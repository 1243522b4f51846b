//go:build darwin

package dispatch

import (
	"time"

	"golang.org/x/sys/unix"
)

// kqueueSelector is the Darwin/BSD Selector backend. Timers use
// EVFILT_TIMER directly (kqueue has native oneshot/periodic timer
// filters, unlike epoll which needs a timerfd), and the user wake-up
// event uses EVFILT_USER rather than a pipe, since kqueue can express a
// user-triggerable event natively.
type kqueueSelector struct {
	kq      int
	events  [256]unix.Kevent_t
	idents  map[uintptr]Id
	nextFd  int
	closed  bool
}

func NewSelector() (Selector, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(kq)
	return &kqueueSelector{kq: kq, idents: make(map[uintptr]Id), nextFd: syntheticFdBase}, nil
}

// syntheticFdBase is where allocFd starts handing out idents for timers
// and the user event, which kqueue does not back with a real OS
// descriptor the way epoll's timerfd/eventfd do. It sits comfortably
// above the default open-file-descriptor limit on most systems, so a
// real caller-supplied socket Fd passed to RegisterFD is very unlikely
// to reach this range; a process configured with a much higher rlimit
// could still collide; this is a theoretical concern, not handled.
const syntheticFdBase = 1 << 16

// allocFd hands out the next synthetic ident.
func (s *kqueueSelector) allocFd() Fd {
	fd := s.nextFd
	s.nextFd++
	return Fd(fd)
}

func (s *kqueueSelector) RegisterFD(fd Fd, events IOEvent, id Id) error {
	var kevents []unix.Kevent_t
	if events&EventRead != 0 {
		kevents = append(kevents, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_ADD | unix.EV_ENABLE})
	}
	if events&EventWrite != 0 {
		kevents = append(kevents, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_ADD | unix.EV_ENABLE})
	}
	if len(kevents) == 0 {
		return newInvalidArgumentError("io", "events must be non-empty")
	}
	if _, err := unix.Kevent(s.kq, kevents, nil, nil); err != nil {
		return err
	}
	s.idents[uint64Key(fd)] = id
	return nil
}

func (s *kqueueSelector) RegisterTimerOneshot(d time.Duration, id Id) (Fd, error) {
	return s.registerTimer(d, false, id)
}

func (s *kqueueSelector) RegisterTimerPeriodic(d time.Duration, id Id) (Fd, error) {
	return s.registerTimer(d, true, id)
}

func (s *kqueueSelector) registerTimer(d time.Duration, periodic bool, id Id) (Fd, error) {
	fd := s.allocFd()
	flags := uint16(unix.EV_ADD | unix.EV_ENABLE)
	if !periodic {
		flags |= unix.EV_ONESHOT
	}
	if d <= 0 {
		d = time.Nanosecond
	}
	kevents := []unix.Kevent_t{{
		Ident:  uint64(fd),
		Filter: unix.EVFILT_TIMER,
		Flags:  flags,
		Fflags: unix.NOTE_NSECONDS,
		Data:   int64(d.Nanoseconds()),
	}}
	if _, err := unix.Kevent(s.kq, kevents, nil, nil); err != nil {
		return InvalidFd, err
	}
	s.idents[uint64Key(fd)] = id
	return fd, nil
}

func (s *kqueueSelector) RegisterUserEvent(id Id) (Fd, error) {
	fd := s.allocFd()
	kevents := []unix.Kevent_t{{
		Ident:  uint64(fd),
		Filter: unix.EVFILT_USER,
		Flags:  unix.EV_ADD | unix.EV_ENABLE | unix.EV_CLEAR,
	}}
	if _, err := unix.Kevent(s.kq, kevents, nil, nil); err != nil {
		return InvalidFd, err
	}
	s.idents[uint64Key(fd)] = id
	return fd, nil
}

func (s *kqueueSelector) Unregister(fd Fd) error {
	delete(s.idents, uint64Key(fd))
	kevents := []unix.Kevent_t{
		{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_DELETE},
		{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_DELETE},
		{Ident: uint64(fd), Filter: unix.EVFILT_TIMER, Flags: unix.EV_DELETE},
		{Ident: uint64(fd), Filter: unix.EVFILT_USER, Flags: unix.EV_DELETE},
	}
	unix.Kevent(s.kq, kevents, nil, nil)
	return nil
}

func (s *kqueueSelector) TriggerUserEvent(fd Fd) error {
	kevents := []unix.Kevent_t{{
		Ident:  uint64(fd),
		Filter: unix.EVFILT_USER,
		Fflags: unix.NOTE_TRIGGER,
	}}
	_, err := unix.Kevent(s.kq, kevents, nil, nil)
	return err
}

func (s *kqueueSelector) SelectBlocking(timeout time.Duration) ([]ReadyEvent, error) {
	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}
	n, err := unix.Kevent(s.kq, nil, s.events[:], ts)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	out := make([]ReadyEvent, 0, n)
	for i := 0; i < n; i++ {
		ev := &s.events[i]
		fd := Fd(ev.Ident)
		id, ok := s.idents[uint64Key(fd)]
		if !ok {
			continue
		}
		out = append(out, ReadyEvent{Fd: fd, Events: keventToIOEvent(ev), Id: id})
	}
	return out, nil
}

func (s *kqueueSelector) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return unix.Close(s.kq)
}

func uint64Key(fd Fd) uintptr {
	return uintptr(fd)
}

func keventToIOEvent(kev *unix.Kevent_t) IOEvent {
	var events IOEvent
	switch kev.Filter {
	case unix.EVFILT_READ:
		events |= EventRead
	case unix.EVFILT_WRITE:
		events |= EventWrite
	case unix.EVFILT_TIMER, unix.EVFILT_USER:
		events |= EventRead
	}
	if kev.Flags&unix.EV_ERROR != 0 {
		events |= EventError
	}
	if kev.Flags&unix.EV_EOF != 0 {
		events |= EventHangup
	}
	return events
}

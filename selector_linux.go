//go:build linux

package dispatch

import (
	"time"

	"golang.org/x/sys/unix"
)

// epollSelector is the Linux Selector backend: epoll for readiness,
// timerfd for both oneshot and periodic timers (a timerfd is, from
// epoll's perspective, just another readable Fd, so timers and sockets
// share one registration path), and eventfd for the user wake-up event.
type epollSelector struct {
	epfd     int
	events   [256]unix.EpollEvent
	idByFd   map[Fd]Id
	internal map[Fd]bool // timerfd/eventfd Fds this selector created itself
	closed   bool
}

// NewSelector constructs the production Selector for the current
// platform.
func NewSelector() (Selector, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollSelector{epfd: epfd, idByFd: make(map[Fd]Id), internal: make(map[Fd]bool)}, nil
}

func (s *epollSelector) ctl(op int, fd Fd, events IOEvent) error {
	var ev unix.EpollEvent
	ev.Fd = int32(fd)
	ev.Events = toEpollEvents(events)
	return unix.EpollCtl(s.epfd, op, int(fd), &ev)
}

func (s *epollSelector) RegisterFD(fd Fd, events IOEvent, id Id) error {
	if err := s.ctl(unix.EPOLL_CTL_ADD, fd, events); err != nil {
		return err
	}
	s.idByFd[fd] = id
	return nil
}

func (s *epollSelector) RegisterTimerOneshot(d time.Duration, id Id) (Fd, error) {
	return s.registerTimer(d, 0, id)
}

func (s *epollSelector) RegisterTimerPeriodic(d time.Duration, id Id) (Fd, error) {
	return s.registerTimer(d, d, id)
}

func (s *epollSelector) registerTimer(initial, interval time.Duration, id Id) (Fd, error) {
	tfd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_CLOEXEC|unix.TFD_NONBLOCK)
	if err != nil {
		return InvalidFd, err
	}
	if initial <= 0 {
		initial = 1
	}
	spec := &unix.ItimerSpec{
		Value:    unix.NsecToTimespec(initial.Nanoseconds()),
		Interval: unix.NsecToTimespec(interval.Nanoseconds()),
	}
	if err := unix.TimerfdSettime(tfd, 0, spec, nil); err != nil {
		unix.Close(tfd)
		return InvalidFd, err
	}
	fd := Fd(tfd)
	if err := s.RegisterFD(fd, EventRead, id); err != nil {
		unix.Close(tfd)
		return InvalidFd, err
	}
	s.internal[fd] = true
	return fd, nil
}

func (s *epollSelector) RegisterUserEvent(id Id) (Fd, error) {
	efd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return InvalidFd, err
	}
	fd := Fd(efd)
	if err := s.RegisterFD(fd, EventRead, id); err != nil {
		unix.Close(efd)
		return InvalidFd, err
	}
	s.internal[fd] = true
	return fd, nil
}

func (s *epollSelector) Unregister(fd Fd) error {
	owned := s.internal[fd]
	delete(s.idByFd, fd)
	delete(s.internal, fd)
	err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_DEL, int(fd), nil)
	if owned {
		// only timerfd/eventfd Fds created here are closed; a caller's
		// RegisterFD descriptor stays open.
		unix.Close(int(fd))
	}
	return err
}

func (s *epollSelector) TriggerUserEvent(fd Fd) error {
	var buf [8]byte
	buf[7] = 1
	_, err := unix.Write(int(fd), buf[:])
	if err == unix.EAGAIN {
		// already pending, nothing further to do
		return nil
	}
	return err
}

func (s *epollSelector) SelectBlocking(timeout time.Duration) ([]ReadyEvent, error) {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}
	n, err := unix.EpollWait(s.epfd, s.events[:], ms)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	out := make([]ReadyEvent, 0, n)
	for i := 0; i < n; i++ {
		fd := Fd(s.events[i].Fd)
		id, ok := s.idByFd[fd]
		if !ok {
			continue
		}
		if s.internal[fd] {
			// drain the eventfd/timerfd payload so it doesn't re-trigger;
			// caller-registered FDs (RegisterFD) are left untouched, since
			// reading from them here would steal application data.
			var buf [8]byte
			unix.Read(int(fd), buf[:])
		}
		out = append(out, ReadyEvent{Fd: fd, Events: fromEpollEvents(s.events[i].Events), Id: id})
	}
	return out, nil
}

func (s *epollSelector) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return unix.Close(s.epfd)
}

func toEpollEvents(events IOEvent) uint32 {
	var e uint32
	if events&EventRead != 0 {
		e |= unix.EPOLLIN
	}
	if events&EventWrite != 0 {
		e |= unix.EPOLLOUT
	}
	return e
}

func fromEpollEvents(e uint32) IOEvent {
	var events IOEvent
	if e&unix.EPOLLIN != 0 {
		events |= EventRead
	}
	if e&unix.EPOLLOUT != 0 {
		events |= EventWrite
	}
	if e&unix.EPOLLERR != 0 {
		events |= EventError
	}
	if e&unix.EPOLLHUP != 0 {
		events |= EventHangup
	}
	return events
}


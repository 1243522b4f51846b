package dispatch

import (
	"errors"
	"time"
)

// Fd is an opaque handle to an OS-registered resource: a socket, a timer,
// or the dispatcher's internal wake-up event. InvalidFd denotes the
// absence of a resource.
type Fd int

const InvalidFd Fd = -1

// IOEvent is a bitmask of readiness conditions a Selector can report.
type IOEvent uint32

const (
	EventRead IOEvent = 1 << iota
	EventWrite
	EventError
	EventHangup
)

// ReadyEvent is one element of the slice SelectBlocking delivers: an Fd
// that became ready, carrying the events observed and the Id it was
// registered under.
type ReadyEvent struct {
	Fd     Fd
	Events IOEvent
	Id     Id
}

// ErrUnsupportedPlatform is returned by NewSelector on platforms with no
// production Selector backend (see selector_other.go). Full IOCP support
// is out of scope: IOCP is a completion-based model rather than the
// readiness-based select/epoll/kqueue contract this dispatcher assumes.
var ErrUnsupportedPlatform = errors.New("dispatch: no selector backend for this platform")

// Selector abstracts the OS readiness primitive behind the small
// capability set a continuation dispatcher actually needs: register an
// FD or timer against an Id, unregister it, trigger a user event, and
// block until something is ready. Two production backends exist, one
// per supported platform (selector_linux.go, selector_darwin.go); both
// are driven exclusively through this interface by dispatcher.go.
type Selector interface {
	// RegisterFD watches fd for the given events, associating it with id.
	RegisterFD(fd Fd, events IOEvent, id Id) error
	// RegisterTimerOneshot creates and registers a one-shot timer that
	// fires after d elapses, returning its Fd.
	RegisterTimerOneshot(d time.Duration, id Id) (Fd, error)
	// RegisterTimerPeriodic creates and registers a repeating timer with
	// period d, returning its Fd.
	RegisterTimerPeriodic(d time.Duration, id Id) (Fd, error)
	// RegisterUserEvent creates the selector's user-triggerable wake-up
	// resource and registers it with id, returning its Fd.
	RegisterUserEvent(id Id) (Fd, error)
	// Unregister removes fd from the selector and releases any OS
	// resource it owns (closing a timer FD, for instance).
	Unregister(fd Fd) error
	// TriggerUserEvent signals the user event registered via
	// RegisterUserEvent, causing a blocked SelectBlocking call to return.
	// Safe to call from another goroutine or a signal handler.
	TriggerUserEvent(fd Fd) error
	// SelectBlocking blocks until at least one registered Fd is ready (or
	// timeout elapses, when timeout >= 0), returning the ready events.
	SelectBlocking(timeout time.Duration) ([]ReadyEvent, error)
	// Close releases the selector's own OS resources. Registered FDs that
	// own a resource (timers) must be unregistered first.
	Close() error
}

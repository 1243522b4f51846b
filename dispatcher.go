package dispatch

import (
	"sync/atomic"
	"time"
)

// Dispatcher is a single-threaded cooperative continuation scheduler. It
// is not safe for concurrent use except for WakeUp and Stop, which may
// be called from another goroutine or a signal handler to interrupt a
// blocked poll.
type Dispatcher struct {
	state atomicState
	alloc idAllocator

	waiting  *waitingTable
	gotos    *gotoTable
	pendingT *pendingTable

	yields    []Continuation
	yieldHead int

	selectorFactory func() (Selector, error)
	selector        Selector
	manager         Selector

	wakeFd        Fd
	managerWakeFd Fd
	timerFd       Fd

	stopRequested atomic.Bool

	logger Logger
	tel    telemetry
}

// New constructs a Dispatcher. It starts in the Unready state; the
// dispatcher initializes its selectors lazily on first use, exactly as
// spec'd for init()'s idempotent Unready→Stopped transition.
func New(opts ...Option) (*Dispatcher, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	d := &Dispatcher{
		selectorFactory: cfg.selectorFactory,
		logger:          cfg.logger,
		wakeFd:          InvalidFd,
		managerWakeFd:   InvalidFd,
		timerFd:         InvalidFd,
	}
	d.gotos = newGotoTable()
	d.pendingT = newPendingTable()
	d.waiting = newWaitingTable(cfg.waitingCapacity)
	d.tel = newTelemetry(cfg.logger, cfg.telemetry)
	return d, nil
}

// init is the idempotent Unready→Stopped transition: it creates both
// selectors and the wake-up event, and resets per-lifetime state
// (the yields queue, the Id allocator). The wake-up Fd is obtained
// directly from RegisterUserEvent rather than by triggering the event
// and inspecting the next ready set (see DESIGN.md for why the direct
// route was chosen over the trigger-then-inspect approach).
func (d *Dispatcher) init() error {
	if d.state.load() != Unready {
		return nil
	}

	selector, err := d.selectorFactory()
	if err != nil {
		return err
	}
	manager, err := d.selectorFactory()
	if err != nil {
		selector.Close()
		return err
	}

	wakeFd, err := selector.RegisterUserEvent(Wakeup)
	if err != nil {
		selector.Close()
		manager.Close()
		return err
	}
	managerWakeFd, err := manager.RegisterUserEvent(Wakeup)
	if err != nil {
		selector.Unregister(wakeFd)
		selector.Close()
		manager.Close()
		return err
	}

	d.selector = selector
	d.manager = manager
	d.wakeFd = wakeFd
	d.managerWakeFd = managerWakeFd
	d.timerFd = InvalidFd

	d.waiting.put(wakeFd, Wakeup)

	d.yields = d.yields[:0]
	d.yieldHead = 0
	d.alloc.reset()

	d.state.store(Stopped)
	return nil
}

// nextId lazily initializes the dispatcher (if Unready) then returns the
// next allocator Id.
func (d *Dispatcher) nextId() Id {
	if d.state.load() == Unready {
		d.init()
	}
	return d.alloc.next()
}

// Run enters the poll loop. interval == 0 means "return when idle";
// interval > 0 registers a periodic wall-clock polling timer on the
// manager selector with no upper bound on how long Run blocks.
func (d *Dispatcher) Run(interval time.Duration) error {
	if d.state.load() == Unready {
		if err := d.init(); err != nil {
			return err
		}
	}
	if !d.state.compareAndSwap(Stopped, Running) {
		return ErrNotStopped
	}
	if interval > 0 {
		fd, err := d.manager.RegisterTimerPeriodic(interval, Wakeup)
		if err != nil {
			return err
		}
		d.timerFd = fd
	}
	for d.state.load() == Running {
		if d.stopRequested.CompareAndSwap(true, false) {
			return d.stop()
		}
		if err := d.poll(); err != nil {
			return err
		}
	}
	return nil
}

// Poll runs a single iteration of the loop; a no-op unless Running.
func (d *Dispatcher) Poll() error {
	return d.poll()
}

func (d *Dispatcher) poll() error {
	if d.state.load() != Running {
		return nil
	}

	if d.waiting.liveWaiters() > 0 {
		events, err := d.selector.SelectBlocking(-1)
		if err != nil {
			d.stop()
			return newOsError("selector poll failed", err)
		}
		for _, ev := range events {
			id := d.waiting.get(ev.Fd)
			if id == Wakeup || id == Invalid {
				continue
			}
			d.selector.Unregister(ev.Fd)
			c, ok := d.gotos.take(id)
			if !ok {
				panic(&MissingRegistrationError{Id: id, Fd: ev.Fd})
			}
			d.tel.unregistered(id, ev.Fd)
			token := d.tel.stepStarted(id)
			lenBefore := d.Len()
			Trampoline(d, c)
			d.tel.stepFinished(id, token, d.Len() > lenBefore)
		}
	}

	n := d.yieldLen()
	for i := 0; i < n; i++ {
		Trampoline(d, d.popYield())
	}

	if d.gotos.len() == 0 && d.yieldLen() == 0 && d.pendingT.len() == 0 {
		if d.timerFd == InvalidFd {
			return d.stop()
		}
		events, err := d.manager.SelectBlocking(-1)
		if err != nil {
			d.stop()
			return newOsError("manager poll failed", err)
		}
		for _, ev := range events {
			if ev.Events&EventError != 0 {
				d.stop()
				return newOsError("manager reported an error event", nil)
			}
		}
	}
	return nil
}

// stop tears the dispatcher down from Running, dropping every pending
// continuation without invoking its step function, then re-initializes
// so the dispatcher lands back in Stopped ready for another Run.
func (d *Dispatcher) stop() error {
	if !d.state.compareAndSwap(Running, Stopping) {
		return ErrNotRunning
	}
	d.stopRequested.Store(false)
	if d.timerFd != InvalidFd {
		d.manager.Unregister(d.timerFd)
		d.timerFd = InvalidFd
	}
	d.manager.Unregister(d.managerWakeFd)
	d.manager.Close()
	d.selector.Unregister(d.wakeFd)
	d.selector.Close()

	d.pendingT.clear()
	d.gotos.clear()
	d.yields = d.yields[:0]
	d.yieldHead = 0

	d.state.store(Unready)
	return d.init()
}

// Stop requests dispatcher teardown. It is safe to call from any
// goroutine: it only sets a flag and wakes the poll loop, so the actual
// mutation of goto/yields/pending happens on the dispatcher's own
// goroutine inside Run, preserving the single-threaded data-structure
// invariant.
func (d *Dispatcher) Stop() error {
	if d.state.load() != Running {
		return nil
	}
	d.stopRequested.Store(true)
	return d.WakeUp()
}

// WakeUp interrupts a blocked poll so the dispatcher re-evaluates its
// state. Safe to call from another goroutine or a signal handler.
func (d *Dispatcher) WakeUp() error {
	switch d.state.load() {
	case Running:
		if err := d.selector.TriggerUserEvent(d.wakeFd); err != nil {
			return err
		}
		return d.manager.TriggerUserEvent(d.managerWakeFd)
	case Unready:
		return d.init()
	default: // Stopped, Stopping
		return nil
	}
}

// Len returns the total pending count across goto, yields, and pending.
func (d *Dispatcher) Len() int {
	return d.gotos.len() + d.yieldLen() + d.pendingT.len()
}

// NewSemaphore allocates a fresh Semaphore drawn from the dispatcher's
// own Id allocator.
func (d *Dispatcher) NewSemaphore() *Semaphore {
	return newSemaphore(d.nextId())
}

// pushYield lazily initializes the dispatcher (if Unready) before
// appending c, so that init's reset of the yields queue cannot drop c.
func (d *Dispatcher) pushYield(c Continuation) {
	if d.state.load() == Unready {
		d.init()
	}
	d.yields = append(d.yields, c)
}

func (d *Dispatcher) popYield() Continuation {
	c := d.yields[d.yieldHead]
	d.yields[d.yieldHead] = nil
	d.yieldHead++
	if d.yieldHead == len(d.yields) {
		d.yields = d.yields[:0]
		d.yieldHead = 0
	}
	return c
}

func (d *Dispatcher) yieldLen() int {
	return len(d.yields) - d.yieldHead
}

package dispatch

import "time"

// Yield appends c to the yields queue and wakes the dispatcher. c is
// guaranteed to resume no earlier than the current poll iteration's
// yield-drain completes.
func (d *Dispatcher) Yield(c Continuation) Continuation {
	defer d.WakeUp()
	d.pushYield(c)
	return nil
}

// Sleep suspends c until ms milliseconds elapse. It panics with an
// *InvalidArgumentError if ms is sub-millisecond, matching the "raised
// synchronously" contract: the failure happens inside the calling
// continuation's Step, so it propagates the same way any other Step
// panic does, out through Trampoline to the caller of Run.
func (d *Dispatcher) Sleep(c Continuation, ms int64) Continuation {
	defer d.WakeUp()
	if ms < 1 {
		panic(newInvalidArgumentError("sleep", "interval must be >= 1ms"))
	}
	id := d.nextId()
	d.gotos.put(id, c)
	fd, err := d.selector.RegisterTimerOneshot(time.Duration(ms)*time.Millisecond, id)
	if err != nil {
		panic(newOsError("failed to register sleep timer", err))
	}
	d.waiting.put(fd, id)
	d.tel.registered(id, fd, "sleep")
	return nil
}

// SleepSeconds is a thin conversion to Sleep: secs is multiplied by 1000
// and truncated to milliseconds.
func (d *Dispatcher) SleepSeconds(c Continuation, secs float64) Continuation {
	return d.Sleep(c, int64(secs*1000))
}

// IO suspends c until fd reports one of events. It panics with an
// *InvalidArgumentError if events is empty.
func (d *Dispatcher) IO(c Continuation, fd Fd, events IOEvent) Continuation {
	defer d.WakeUp()
	if events == 0 {
		panic(newInvalidArgumentError("io", "events must be non-empty"))
	}
	id := d.nextId()
	d.gotos.put(id, c)
	if err := d.selector.RegisterFD(fd, events, id); err != nil {
		panic(newOsError("failed to register fd", err))
	}
	d.waiting.put(fd, id)
	d.tel.registered(id, fd, "io")
	return nil
}

// Wait suspends c on sem. If sem already holds a signal (the fast
// path), that signal is consumed, c joins the yields queue directly
// without ever touching the pending table, and the dispatcher is woken.
// Otherwise c is parked in pending and goto; per spec there is nothing
// new to schedule in that case, so WakeUp is deliberately not called.
func (d *Dispatcher) Wait(c Continuation, sem *Semaphore) Continuation {
	if sem.consume() {
		d.pushYield(c)
		d.WakeUp()
		return nil
	}
	id := d.nextId()
	d.pendingT.put(sem, id)
	d.gotos.put(id, c)
	return nil
}

// Signal transfers at most one waiting continuation from pending/goto
// to the tail of yields. If no continuation is currently waiting, the
// signal is stored on sem instead, so a later Wait's fast path observes
// it. The dispatcher is woken only if a transfer occurred.
func (d *Dispatcher) Signal(sem *Semaphore) {
	id, ok := d.pendingT.take(sem)
	if !ok {
		sem.signal()
		return
	}
	c, ok := d.gotos.take(id)
	if !ok {
		panic(&MissingRegistrationError{Id: id, Fd: InvalidFd})
	}
	d.pushYield(c)
	d.WakeUp()
}

// SignalAll drains every pending waiter on sem, in enqueue order, to
// the tail of yields. If none were waiting, the signal is stored on sem
// for a later Wait's fast path, exactly as Signal does. The dispatcher
// is woken once if any transfer occurred.
func (d *Dispatcher) SignalAll(sem *Semaphore) {
	transferred := false
	for {
		id, ok := d.pendingT.take(sem)
		if !ok {
			break
		}
		c, ok := d.gotos.take(id)
		if !ok {
			panic(&MissingRegistrationError{Id: id, Fd: InvalidFd})
		}
		d.pushYield(c)
		transferred = true
	}
	if !transferred {
		sem.signal()
		return
	}
	d.WakeUp()
}

// Fork clones c via Cloner, appends the clone to yields, wakes the
// dispatcher, and returns c itself so both the original and the clone
// continue: the original resumes synchronously in the caller's
// trampoline, the clone resumes on a later poll iteration.
func (d *Dispatcher) Fork(c Continuation) Continuation {
	defer d.WakeUp()
	cloner, ok := c.(Cloner)
	if !ok {
		panic("dispatch: Fork requires a Continuation implementing Cloner")
	}
	d.pushYield(cloner.Clone())
	return c
}

// Spawn enqueues an unstarted continuation for the next poll iteration.
// Unlike the other primitives, Spawn is called directly from ordinary
// code (not from within a running Step) to seed the dispatcher with
// initial work.
func (d *Dispatcher) Spawn(c Continuation) {
	defer d.WakeUp()
	d.pushYield(c)
}

// Discard ends the current continuation: it always returns the
// terminal sentinel.
func (d *Dispatcher) Discard() Continuation {
	return nil
}

// Package dispatch implements a single-threaded cooperative continuation
// dispatcher: a scheduler that multiplexes resumable computations
// ("continuations") over OS readiness notifications, timers, a
// user-triggerable wake-up event, and semaphore-based coordination.
//
// A continuation is an opaque, resumable unit of work shaped as "given the
// current state, return the next state". The dispatcher drives continuations
// to completion via a trampoline, suspending them whenever they call one of
// the suspension primitives: Yield, Sleep, SleepSeconds, IO, Wait, Signal,
// SignalAll, Fork, Spawn, or Discard.
//
// # Platform support
//
// The dispatcher is backed by epoll on Linux and kqueue on Darwin/BSD. Other
// platforms report ErrUnsupportedPlatform from NewSelector; the dispatcher
// itself has no platform-specific code outside the Selector implementation.
//
// # Thread safety
//
// A Dispatcher is not safe for concurrent use by multiple goroutines except
// for WakeUp and Stop, which may be called from another goroutine or a signal
// handler to interrupt a blocking poll.
//
// # Usage
//
//	d, err := dispatch.New()
//	if err != nil {
//		log.Fatal(err)
//	}
//	d.Spawn(myContinuation)
//	if err := d.Run(0); err != nil {
//		log.Fatal(err)
//	}
package dispatch

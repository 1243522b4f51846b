package dispatch

// Continuation is an opaque, resumable unit of work. Step is invoked with
// the owning Dispatcher and returns either another Continuation to resume
// next, or nil to signal termination. Continuations are single-owner: at
// any instant exactly one of the goto table, the yields queue, or a
// trampoline's local variable holds a given Continuation.
type Continuation interface {
	Step(d *Dispatcher) Continuation
}

// Cloner is implemented by continuations that support Fork. Clone must
// return a shallow copy preserving whatever state the step function
// needs to run independently of the original.
type Cloner interface {
	Continuation
	Clone() Continuation
}

// ContinuationFunc adapts a plain function to the Continuation interface,
// for callers who would rather write a closure than a struct with a Step
// method. It does not implement Cloner; continuations built with Fork in
// mind should use a struct type instead.
type ContinuationFunc func(d *Dispatcher) Continuation

func (f ContinuationFunc) Step(d *Dispatcher) Continuation {
	return f(d)
}

package dispatch

// Trampoline drives c to completion on the caller's stack: while c is
// non-nil, c is replaced with the result of c.Step(d). It never touches
// the goto table, the yields queue, or the pending table directly —
// those are mutated exclusively by the suspension primitives a Step
// implementation calls (see suspend.go).
func Trampoline(d *Dispatcher, c Continuation) {
	for c != nil {
		c = c.Step(d)
	}
}

package dispatch

// gotoTable maps an Id to the Continuation that should resume when the
// corresponding event fires. It is a plain map keyed by Id; entries are
// only ever looked up by Id, never iterated, so it keeps no order.
type gotoTable struct {
	entries map[Id]Continuation
}

func newGotoTable() *gotoTable {
	return &gotoTable{entries: make(map[Id]Continuation)}
}

func (g *gotoTable) put(id Id, c Continuation) {
	g.entries[id] = c
}

// take removes and returns the continuation registered for id. The
// second return value is false if id has no registration, which the
// dispatcher's poll loop treats as a fatal MissingRegistration condition.
func (g *gotoTable) take(id Id) (Continuation, bool) {
	c, ok := g.entries[id]
	if ok {
		delete(g.entries, id)
	}
	return c, ok
}

func (g *gotoTable) len() int {
	return len(g.entries)
}

func (g *gotoTable) clear() {
	g.entries = make(map[Id]Continuation)
}

// pendingTable maps a Semaphore to the FIFO queue of Ids parked awaiting
// its next signal. Multiple continuations may wait on the same
// semaphore at once (see the signalAll scenario with five waiters), so
// each semaphore owns an ordered queue rather than a single Id; signal
// takes the head, signalAll drains the whole queue in enqueue order.
type pendingTable struct {
	entries map[*Semaphore][]Id
	count   int
}

func newPendingTable() *pendingTable {
	return &pendingTable{entries: make(map[*Semaphore][]Id)}
}

func (p *pendingTable) put(sem *Semaphore, id Id) {
	p.entries[sem] = append(p.entries[sem], id)
	p.count++
}

// take removes and returns the oldest Id waiting on sem, if any.
func (p *pendingTable) take(sem *Semaphore) (Id, bool) {
	q := p.entries[sem]
	if len(q) == 0 {
		return Invalid, false
	}
	id := q[0]
	q = q[1:]
	if len(q) == 0 {
		delete(p.entries, sem)
	} else {
		p.entries[sem] = q
	}
	p.count--
	return id, true
}

func (p *pendingTable) len() int {
	return p.count
}

func (p *pendingTable) clear() {
	p.entries = make(map[*Semaphore][]Id)
	p.count = 0
}

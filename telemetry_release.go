//go:build !dispatch_debug

package dispatch

// noopTelemetry is the default build's telemetry implementation: every
// method is empty so the compiler can inline it away entirely.
type noopTelemetry struct{}

func newTelemetryImpl(Logger, bool) telemetry {
	return noopTelemetry{}
}

func (noopTelemetry) registered(Id, Fd, string)   {}
func (noopTelemetry) unregistered(Id, Fd)         {}
func (noopTelemetry) stepStarted(Id) any          { return nil }
func (noopTelemetry) stepFinished(Id, any, bool)  {}

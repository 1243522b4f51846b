//go:build dispatch_debug

package dispatch

import "time"

// debugTelemetry is a thread-safe, low-overhead recorder attached to the
// dispatcher, covering exactly two events — per-continuation timing and
// registration tracing — routed through the configured Logger rather
// than a separate metrics struct, since this dispatcher has no polling
// consumer for numeric metrics outside of log lines.
type debugTelemetry struct {
	logger  Logger
	enabled bool
}

func newTelemetryImpl(logger Logger, enabled bool) telemetry {
	return &debugTelemetry{logger: logger, enabled: enabled}
}

func (t *debugTelemetry) registered(id Id, fd Fd, kind string) {
	if !t.enabled {
		return
	}
	logDispatcher(t.logger, LevelDebug, "telemetry.registered", id, fd, kind, nil)
}

func (t *debugTelemetry) unregistered(id Id, fd Fd) {
	if !t.enabled {
		return
	}
	logDispatcher(t.logger, LevelDebug, "telemetry.unregistered", id, fd, "", nil)
}

func (t *debugTelemetry) stepStarted(id Id) any {
	if !t.enabled {
		return nil
	}
	return &stepTiming{id: id, start: time.Now()}
}

func (t *debugTelemetry) stepFinished(id Id, token any, suspended bool) {
	if !t.enabled {
		return
	}
	timing, ok := token.(*stepTiming)
	if !ok || timing == nil {
		return
	}
	elapsed := time.Since(timing.start)
	status := "terminated"
	if suspended {
		status = "suspended"
	}
	logDispatcher(t.logger, LevelDebug, "telemetry.step", id, InvalidFd,
		status+" in "+elapsed.String(), nil)
}

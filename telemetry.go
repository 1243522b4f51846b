package dispatch

import "time"

// telemetry records per-continuation timing and registration tracing
// when enabled via WithTelemetry. Two build-tag-selected implementations
// exist (telemetry_debug.go, telemetry_release.go); the release build is
// a zero-cost no-op so the feature carries no overhead unless compiled
// in with -tags dispatch_debug, mirroring the selector's own
// per-platform build-tag split.
type telemetry interface {
	registered(id Id, fd Fd, kind string)
	unregistered(id Id, fd Fd)
	stepStarted(id Id) (token any)
	stepFinished(id Id, token any, suspended bool)
}

// newTelemetry constructs the telemetry implementation compiled into
// this build, wired to logger when the debug build is active. enabled
// gates the debug build at runtime (WithTelemetry); it has no effect on
// the release build, which is always a no-op regardless.
func newTelemetry(logger Logger, enabled bool) telemetry {
	return newTelemetryImpl(logger, enabled)
}

// stepTiming is the token type the debug implementation hands back from
// stepStarted; the release implementation never allocates one.
type stepTiming struct {
	id    Id
	start time.Time
}

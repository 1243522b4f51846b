//go:build !linux && !darwin

package dispatch

import "time"

// unsupportedSelector is returned wrapped in an error by NewSelector on
// platforms without a production backend. Every method is unreachable
// in practice since NewSelector never hands one out successfully, but
// the type exists so the package still satisfies the Selector interface
// shape on every GOOS during cross-compilation.
type unsupportedSelector struct{}

func NewSelector() (Selector, error) {
	return nil, ErrUnsupportedPlatform
}

func (unsupportedSelector) RegisterFD(Fd, IOEvent, Id) error                { return ErrUnsupportedPlatform }
func (unsupportedSelector) RegisterTimerOneshot(time.Duration, Id) (Fd, error)  { return InvalidFd, ErrUnsupportedPlatform }
func (unsupportedSelector) RegisterTimerPeriodic(time.Duration, Id) (Fd, error) { return InvalidFd, ErrUnsupportedPlatform }
func (unsupportedSelector) RegisterUserEvent(Id) (Fd, error)                { return InvalidFd, ErrUnsupportedPlatform }
func (unsupportedSelector) Unregister(Fd) error                            { return ErrUnsupportedPlatform }
func (unsupportedSelector) TriggerUserEvent(Fd) error                      { return ErrUnsupportedPlatform }
func (unsupportedSelector) SelectBlocking(time.Duration) ([]ReadyEvent, error) {
	return nil, ErrUnsupportedPlatform
}
func (unsupportedSelector) Close() error { return nil }

package meterhub

import "errors"

var (
	// ErrEmptyMeterName is returned when a meter is registered with an
	// empty name.
	ErrEmptyMeterName = errors.New("meter name is empty")

	// ErrInvalidMeterName is returned when a meter name fails the
	// canonical-name validator.
	ErrInvalidMeterName = errors.New("meter name is not valid")

	// ErrKindConflict is returned when a meter id is already bound to an
	// instrument of a different kind. This is a programmer mistake and is
	// surfaced at registration time.
	ErrKindConflict = errors.New("meter id is already registered with a different kind")
)

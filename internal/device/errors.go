package device

import "errors"

var (
	// ErrInvalidIndex is returned by AssignSensor for an out-of-range slot.
	ErrInvalidIndex = errors.New("invalid sensor index")
	// ErrInvalidSubdevice is returned by Sensor for an out-of-range index.
	ErrInvalidSubdevice = errors.New("invalid subdevice value")
	// ErrSensorNotFound is returned by FindSensorIndex.
	ErrSensorNotFound = errors.New("sensor not from this device")
	// ErrNotImplemented is returned by HardwareReset on devices that cannot
	// reset themselves.
	ErrNotImplemented = errors.New("not implemented")
	// ErrStreamNotRegistered is returned for streams that were never
	// registered to an extrinsics group.
	ErrStreamNotRegistered = errors.New("requested stream was not registered")
	// ErrTransformUnavailable is returned when no transform from the group
	// pin to the stream is known.
	ErrTransformUnavailable = errors.New("failed to fetch extrinsics")
	// ErrFeedUnavailable is returned by New when the change feed cannot be
	// subscribed to.
	ErrFeedUnavailable = errors.New("device change feed unavailable")
)

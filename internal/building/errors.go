package building

import "errors"

// Domain-specific errors for building state operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrRoomNotFound is returned when a room lookup fails.
	ErrRoomNotFound = errors.New("building: room not found")

	// ErrSensorNotFound is returned when a sensor lookup fails.
	ErrSensorNotFound = errors.New("building: sensor not found")

	// ErrDeviceNotFound is returned when a device lookup fails.
	ErrDeviceNotFound = errors.New("building: device not found")

	// ErrScheduleNotFound is returned when a schedule entry lookup fails.
	ErrScheduleNotFound = errors.New("building: schedule entry not found")

	// ErrRoomExists is returned when creating a room with a duplicate ID.
	ErrRoomExists = errors.New("building: room already exists")

	// ErrInvalidStatus is returned for device statuses outside {ON, OFF}.
	ErrInvalidStatus = errors.New("building: invalid device status")
)

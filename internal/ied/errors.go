package ied

import "errors"

// Domain errors for the ied package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, ied.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a device ID does not exist.
	ErrDeviceNotFound = errors.New("ied: device not found")

	// ErrDeviceExists is returned when creating a device with an ID that already exists.
	ErrDeviceExists = errors.New("ied: device already exists")

	// ErrInvalidDevice is returned when a device fails basic validation.
	ErrInvalidDevice = errors.New("ied: invalid device")

	// ErrStoreUnavailable is returned when the underlying store cannot be
	// reached. Read paths surface it; connectivity updates swallow it.
	ErrStoreUnavailable = errors.New("ied: store unavailable")

	// ErrValueNotFound is returned when a configuration value has no match.
	ErrValueNotFound = errors.New("ied: configuration value not found")
)

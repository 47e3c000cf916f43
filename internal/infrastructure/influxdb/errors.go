package influxdb

import "errors"

// Sentinel errors for the telemetry client, matched with errors.Is.
// Asynchronous write failures never surface here; they go to the error
// callback set via SetOnError.
var (
	// ErrNotConnected: no verified InfluxDB session exists.
	ErrNotConnected = errors.New("influxdb: no active connection")

	// ErrConnectionFailed: the server could not be reached or is unhealthy.
	ErrConnectionFailed = errors.New("influxdb: server connection failed")

	// ErrDisabled: the integration is switched off in configuration.
	ErrDisabled = errors.New("influxdb: integration disabled")
)

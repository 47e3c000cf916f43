package ied

import "context"

// StatusSink receives connectivity transitions for fan-out to telemetry
// backends. Implementations must not block; failures are theirs to handle.
type StatusSink interface {
	ConnectionChanged(deviceID string, connected bool)
}

// Tracker records device reachability as pollers observe it.
//
// Connectivity is operational telemetry, not ingestion: a failed status
// write must never take down a polling cycle that is otherwise delivering
// recordings. Every failure path here is logged and swallowed, and
// MarkConnected never returns an error.
type Tracker struct {
	repo   Repository
	sinks  []StatusSink
	logger Logger
}

// NewTracker creates a connectivity tracker. Sinks are optional; each one
// is notified after a successful status write.
func NewTracker(repo Repository, logger Logger, sinks ...StatusSink) *Tracker {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Tracker{repo: repo, sinks: sinks, logger: logger}
}

// MarkConnected records whether a device is currently reachable.
// Unknown devices and store failures are logged and otherwise ignored.
func (t *Tracker) MarkConnected(ctx context.Context, deviceID string, connected bool) {
	found, err := t.repo.SetConnected(ctx, deviceID, connected)
	if err != nil {
		t.logger.Error("failed to update connection status",
			"device_id", deviceID,
			"connected", connected,
			"error", err)
		return
	}
	if !found {
		t.logger.Warn("connection status for unknown device", "device_id", deviceID)
		return
	}

	t.logger.Debug("connection status updated",
		"device_id", deviceID,
		"connected", connected)

	for _, sink := range t.sinks {
		sink.ConnectionChanged(deviceID, connected)
	}
}

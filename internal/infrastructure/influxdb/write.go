package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteConnectivity records a device reachability transition.
//
// The write is non-blocking; data is batched and sent asynchronously.
// Fleet availability dashboards are built from this measurement.
func (c *Client) WriteConnectivity(deviceID string, connected bool) {
	if !c.IsConnected() {
		return
	}

	value := 0
	if connected {
		value = 1
	}

	point := write.NewPoint(
		"connectivity",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"connected": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// ConnectionChanged satisfies the connectivity sink interface in
// internal/ied, so the tracker can fan transitions out to InfluxDB.
func (c *Client) ConnectionChanged(deviceID string, connected bool) {
	c.WriteConnectivity(deviceID, connected)
}

// WriteIngestCount records how many artefacts a device delivered.
//
// The kind tag distinguishes disturbance recordings from plain files.
func (c *Client) WriteIngestCount(deviceID string, kind string, count int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"ingest",
		map[string]string{
			"device_id": deviceID,
			"kind":      kind,
		},
		map[string]interface{}{
			"count": count,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// RecordingsStored satisfies the event publisher interface in internal/ied.
func (c *Client) RecordingsStored(deviceID string, count int) {
	c.WriteIngestCount(deviceID, "recordings", count)
}

// FilesStored satisfies the event publisher interface in internal/ied.
func (c *Client) FilesStored(deviceID string, count int) {
	c.WriteIngestCount(deviceID, "files", count)
}

// WritePollCycle records the outcome of one collector cycle.
func (c *Client) WritePollCycle(devices int, failures int, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"poll_cycle",
		nil,
		map[string]interface{}{
			"devices":     devices,
			"failures":    failures,
			"duration_ms": duration.Milliseconds(),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

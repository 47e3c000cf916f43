package mqtt

import (
	"encoding/json"
	"time"
)

// EventPublisher publishes fleet events to the Ordos topic hierarchy.
// It satisfies the sink interfaces in internal/ied: connectivity
// transitions are retained (subscribers see each device's last state),
// ingest announcements are not.
//
// Publishing is best-effort. Failures are logged through the client's
// logger and never surfaced to callers, since a broker outage must not
// interfere with collection.
type EventPublisher struct {
	client *Client
	topics Topics
}

// NewEventPublisher creates a publisher over an established client.
func NewEventPublisher(client *Client) *EventPublisher {
	return &EventPublisher{client: client}
}

// connectionEvent is the payload for reachability transitions.
type connectionEvent struct {
	DeviceID  string `json:"device_id"`
	Connected bool   `json:"connected"`
	Timestamp string `json:"timestamp"`
}

// ingestEvent is the payload for ingest announcements.
type ingestEvent struct {
	DeviceID  string `json:"device_id"`
	Count     int    `json:"count"`
	Timestamp string `json:"timestamp"`
}

// ConnectionChanged publishes a device reachability transition.
func (p *EventPublisher) ConnectionChanged(deviceID string, connected bool) {
	p.publish(p.topics.DeviceConnection(deviceID), connectionEvent{
		DeviceID:  deviceID,
		Connected: connected,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, true)
}

// RecordingsStored publishes a disturbance-recording ingest announcement.
func (p *EventPublisher) RecordingsStored(deviceID string, count int) {
	p.publish(p.topics.DeviceRecordings(deviceID), ingestEvent{
		DeviceID:  deviceID,
		Count:     count,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, false)
}

// FilesStored publishes a file ingest announcement.
func (p *EventPublisher) FilesStored(deviceID string, count int) {
	p.publish(p.topics.DeviceFiles(deviceID), ingestEvent{
		DeviceID:  deviceID,
		Count:     count,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, false)
}

func (p *EventPublisher) publish(topic string, event any, retained bool) {
	payload, err := json.Marshal(event)
	if err != nil {
		if logger := p.client.getLogger(); logger != nil {
			logger.Error("failed to marshal event", "topic", topic, "error", err)
		}
		return
	}

	var publishErr error
	if retained {
		publishErr = p.client.PublishRetained(topic, payload)
	} else {
		publishErr = p.client.Publish(topic, payload, byte(p.client.cfg.QoS), false)
	}
	if publishErr != nil {
		if logger := p.client.getLogger(); logger != nil {
			logger.Warn("failed to publish event", "topic", topic, "error", publishErr)
		}
	}
}

package mqtt

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"device connection", topics.DeviceConnection("relay-bay1"), "ordos/core/device/relay-bay1/connection"},
		{"device recordings", topics.DeviceRecordings("relay-bay1"), "ordos/core/device/relay-bay1/recordings"},
		{"device files", topics.DeviceFiles("relay-bay1"), "ordos/core/device/relay-bay1/files"},
		{"command poll", topics.CommandPoll(), "ordos/core/command/poll"},
		{"system status", topics.SystemStatus(), "ordos/system/status"},
		{"all connections", topics.AllDeviceConnections(), "ordos/core/device/+/connection"},
		{"all device events", topics.AllDeviceEvents(), "ordos/core/device/#"},
		{"everything", topics.AllTopics(), "ordos/#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestStatusPayloads(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantStatus string
		wantReason string
	}{
		{"online", buildOnlinePayload("ordos-core"), "online", ""},
		{"graceful offline", buildOfflinePayload("ordos-core"), "offline", "graceful_shutdown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg struct {
				Status    string `json:"status"`
				ClientID  string `json:"client_id"`
				Reason    string `json:"reason"`
				Timestamp string `json:"timestamp"`
			}
			if err := json.Unmarshal([]byte(tt.payload), &msg); err != nil {
				t.Fatalf("payload is not valid JSON: %v", err)
			}
			if msg.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", msg.Status, tt.wantStatus)
			}
			if msg.ClientID != "ordos-core" {
				t.Errorf("client_id = %q, want ordos-core", msg.ClientID)
			}
			if msg.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", msg.Reason, tt.wantReason)
			}
			if msg.Timestamp == "" {
				t.Error("timestamp missing")
			}
		})
	}
}

func TestPublishValidation(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	if err := c.Publish("", []byte("x"), 1, false); err != ErrInvalidTopic {
		t.Errorf("empty topic: got %v, want ErrInvalidTopic", err)
	}
	if err := c.Publish("ordos/system/status", []byte("x"), 3, false); err != ErrInvalidQoS {
		t.Errorf("bad qos: got %v, want ErrInvalidQoS", err)
	}

	huge := []byte(strings.Repeat("a", maxPayloadSize+1))
	err := c.Publish("ordos/system/status", huge, 1, false)
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("oversized payload: got %v", err)
	}
}

func TestSubscribeValidation(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	if err := c.Subscribe("", 1, func(string, []byte) error { return nil }); err != ErrInvalidTopic {
		t.Errorf("empty topic: got %v, want ErrInvalidTopic", err)
	}
	if err := c.Subscribe("ordos/#", 3, func(string, []byte) error { return nil }); err != ErrInvalidQoS {
		t.Errorf("bad qos: got %v, want ErrInvalidQoS", err)
	}
	if err := c.Subscribe("ordos/#", 1, nil); err == nil {
		t.Error("nil handler: expected error")
	}
}

func TestUnsubscribeValidation(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	if err := c.Unsubscribe(""); err != ErrInvalidTopic {
		t.Errorf("empty topic: got %v, want ErrInvalidTopic", err)
	}
	if err := c.Unsubscribe("ordos/core/command/poll"); err != ErrNotConnected {
		t.Errorf("disconnected: got %v, want ErrNotConnected", err)
	}
}

func TestSubscriptionTracking(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	if c.SubscriptionCount() != 0 {
		t.Errorf("initial count = %d, want 0", c.SubscriptionCount())
	}
	if c.HasSubscription("ordos/core/command/poll") {
		t.Error("HasSubscription true for untracked topic")
	}

	c.subscriptions["ordos/core/command/poll"] = subscription{topic: "ordos/core/command/poll", qos: 1}

	if c.SubscriptionCount() != 1 {
		t.Errorf("count = %d, want 1", c.SubscriptionCount())
	}
	if !c.HasSubscription("ordos/core/command/poll") {
		t.Error("HasSubscription false for tracked topic")
	}
}

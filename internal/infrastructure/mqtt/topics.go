package mqtt

import "fmt"

// Topic prefixes for the Ordos MQTT hierarchy.
//
// Core publishes under ordos/core and ordos/system; operator tooling and
// SCADA gateways publish commands under ordos/core/command.
const (
	// TopicPrefixCore is the base for all core topics.
	TopicPrefixCore = "ordos/core"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "ordos/system"
)

// Topics provides builders for Ordos MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	topic := topics.DeviceConnection("relay-bay1")
//	// Returns: "ordos/core/device/relay-bay1/connection"
type Topics struct{}

// DeviceConnection returns the topic for device reachability transitions.
//
// Example: ordos/core/device/relay-bay1/connection
func (Topics) DeviceConnection(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/connection", TopicPrefixCore, deviceID)
}

// DeviceRecordings returns the topic for disturbance-recording ingest events.
//
// Example: ordos/core/device/relay-bay1/recordings
func (Topics) DeviceRecordings(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/recordings", TopicPrefixCore, deviceID)
}

// DeviceFiles returns the topic for file ingest events.
//
// Example: ordos/core/device/relay-bay1/files
func (Topics) DeviceFiles(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/files", TopicPrefixCore, deviceID)
}

// CommandPoll returns the topic operators publish to for an immediate
// polling cycle.
//
// Example: ordos/core/command/poll
func (Topics) CommandPoll() string {
	return fmt.Sprintf("%s/command/poll", TopicPrefixCore)
}

// SystemStatus returns the system status topic, also used for the LWT.
//
// Example: ordos/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllDeviceConnections returns a pattern matching every device's
// reachability transitions.
//
// Pattern: ordos/core/device/+/connection
func (Topics) AllDeviceConnections() string {
	return fmt.Sprintf("%s/device/+/connection", TopicPrefixCore)
}

// AllDeviceEvents returns a pattern matching every device event.
//
// Pattern: ordos/core/device/#
func (Topics) AllDeviceEvents() string {
	return fmt.Sprintf("%s/device/#", TopicPrefixCore)
}

// AllTopics returns a pattern matching all Ordos topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: ordos/#
func (Topics) AllTopics() string {
	return "ordos/#"
}

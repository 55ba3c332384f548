package mqtt

import "fmt"

// Topic prefixes for the Wattson MQTT namespace.
//
// Device bridges consume commands on wattson/command/{protocol}/{device_id}
// and publish sensor telemetry on wattson/telemetry/{room_id}/{sensor_id}.
const (
	// TopicPrefix is the base for all Wattson topics.
	TopicPrefix = "wattson"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "wattson/system"
)

// Topics provides builders for Wattson MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	cmdTopic := topics.DeviceCommand("generic", "AC_LAB_A")
//	// Returns: "wattson/command/generic/AC_LAB_A"
type Topics struct{}

// DeviceCommand returns the topic for actuation commands to a device bridge.
//
// Example: wattson/command/generic/AC_LAB_A
func (Topics) DeviceCommand(protocol, deviceID string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefix, protocol, deviceID)
}

// Telemetry returns the topic a bridge publishes a sensor reading on.
//
// Example: wattson/telemetry/lab-a/temp-lab-a
func (Topics) Telemetry(roomID, sensorID string) string {
	return fmt.Sprintf("%s/telemetry/%s/%s", TopicPrefix, roomID, sensorID)
}

// Alert returns the topic for published alerts.
//
// Example: wattson/alert/alr-9f2c
func (Topics) Alert(alertID string) string {
	return fmt.Sprintf("%s/alert/%s", TopicPrefix, alertID)
}

// SystemStatus returns the system status topic.
//
// Example: wattson/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllTelemetry returns a pattern matching all telemetry updates.
//
// Pattern: wattson/telemetry/+/+
func (Topics) AllTelemetry() string {
	return fmt.Sprintf("%s/telemetry/+/+", TopicPrefix)
}

// AllCommands returns a pattern matching all device commands.
//
// Pattern: wattson/command/+/+
func (Topics) AllCommands() string {
	return fmt.Sprintf("%s/command/+/+", TopicPrefix)
}

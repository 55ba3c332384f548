// Package mqtt provides the Wattson Core MQTT transport.
//
// The service publishes actuation commands for device bridges and consumes
// sensor telemetry they report back:
//
//	wattson/command/{protocol}/{device_id}   commands out (ON/OFF payloads)
//	wattson/telemetry/{room_id}/{sensor_id}  readings in
//	wattson/system/status                    online/offline status (retained + LWT)
//
// The client wraps eclipse/paho.mqtt.golang with auto-reconnect, subscription
// restoration, panic-safe handlers, and health checks.
package mqtt

// Package telemetry lands broker-published sensor readings in the building
// repository and mirrors them to the time-series store.
package telemetry

// Package actuation is the single write path for device state.
//
// Policies and the command dispatcher never touch the devices table
// directly; they call Gateway.Apply, which atomically pairs the status
// update with an actuation_log row and then fans the command out to the
// device bridge over MQTT. A publish failure is logged and swallowed:
// SQLite holds the authoritative state.
package actuation

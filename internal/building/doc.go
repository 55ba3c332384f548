// Package building is the state repository for Wattson Core: rooms, sensors,
// sensor readings, devices, and occupancy schedules.
//
// Reads are served from SQLite; the sensors table caches each sensor's most
// recent value so snapshot and policy queries avoid scanning the readings
// history. Device status is mutated only through the actuation gateway.
//
// The Snapshot operation assembles the realtime view (per-room temperature,
// occupancy, power, device states) consumed by the command interpreter
// prompt and its offline fallback.
package building

// Package influxdb provides the optional time-series mirror for Wattson Core.
//
// SQLite remains the source of truth; when influxdb.enabled is set, sensor
// readings and aggregate power draw are additionally written to InfluxDB
// for high-resolution dashboards and retention policies SQLite can't serve.
//
// Writes are non-blocking and batched. A mirror failure never affects the
// ingest path: errors surface only through the async error callback.
package influxdb

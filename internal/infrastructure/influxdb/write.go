package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteSensorReading mirrors a sensor reading to InfluxDB.
//
// This is the primary method for recording high-resolution telemetry.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - sensorID: Sensor identifier (e.g., "temp-lab-a")
//   - roomID: Room the sensor belongs to
//   - sensorType: Sensor type tag (e.g., "temperature", "occupancy", "power")
//   - value: The reading value
//   - timestamp: When the reading was taken
//
// Example:
//
//	client.WriteSensorReading("temp-lab-a", "lab-a", "temperature", 23.4, time.Now())
func (c *Client) WriteSensorReading(sensorID, roomID, sensorType string, value float64, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"sensor_readings",
		map[string]string{
			"sensor_id": sensorID,
			"room_id":   roomID,
			"type":      sensorType,
		},
		map[string]interface{}{
			"value": value,
		},
		timestamp,
	)

	c.writeAPI.WritePoint(point)
}

// WriteAggregatePower records the building-wide power draw computed by
// the load-shedding policy on each duty cycle.
//
// Parameters:
//   - siteID: Site identifier tag
//   - powerWatts: Aggregate power draw in watts
func (c *Client) WriteAggregatePower(siteID string, powerWatts float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"aggregate_power",
		map[string]string{
			"site_id": siteID,
		},
		map[string]interface{}{
			"power_watts": powerWatts,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

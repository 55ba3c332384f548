package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wattson-io/wattson-core/internal/building"
	wmqtt "github.com/wattson-io/wattson-core/internal/infrastructure/mqtt"
)

// Subscriber registers a handler for a topic filter. Satisfied by the
// infrastructure mqtt.Client.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler wmqtt.MessageHandler) error
}

// Mirror forwards accepted readings to the time-series store. Satisfied by
// the InfluxDB client; nil-able when export is disabled.
type Mirror interface {
	WriteSensorReading(sensorID, roomID, sensorType string, value float64, timestamp time.Time)
}

// Logger is the minimal logging interface the ingestor needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger discards all log output.
type noopLogger struct{}

func (noopLogger) Info(msg string, args ...any) {}
func (noopLogger) Warn(msg string, args ...any) {}

// readingPayload is the wire format published by sensor bridges.
type readingPayload struct {
	SensorID  string   `json:"sensor_id"`
	Value     *float64 `json:"value"`
	Quality   *int     `json:"quality"`
	Timestamp string   `json:"timestamp"`
}

// Ingestor consumes telemetry off the broker and lands it in the building
// repository.
//
// Malformed payloads and readings for unknown sensors are logged and
// dropped; ingestion never halts the subscription.
type Ingestor struct {
	repo   building.Repository
	mirror Mirror
	logger Logger
	qos    byte
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithMirror attaches a time-series mirror.
func WithMirror(m Mirror) Option {
	return func(i *Ingestor) { i.mirror = m }
}

// WithLogger attaches a logger.
func WithLogger(l Logger) Option {
	return func(i *Ingestor) { i.logger = l }
}

// NewIngestor creates a telemetry ingestor over the given repository.
func NewIngestor(repo building.Repository, opts ...Option) *Ingestor {
	i := &Ingestor{
		repo:   repo,
		logger: noopLogger{},
		qos:    1,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Start subscribes to the telemetry wildcard and begins ingesting.
func (i *Ingestor) Start(sub Subscriber) error {
	topic := wmqtt.Topics{}.AllTelemetry()
	if err := sub.Subscribe(topic, i.qos, i.Handle); err != nil {
		return fmt.Errorf("subscribing to telemetry: %w", err)
	}
	i.logger.Info("telemetry ingestion started", "topic", topic)
	return nil
}

// Handle processes one telemetry message.
//
// The topic carries the addressing (wattson/telemetry/{room_id}/{sensor_id});
// the payload carries the measurement. A sensor_id in the payload must agree
// with the topic or the message is dropped.
func (i *Ingestor) Handle(topic string, payload []byte) error {
	roomID, sensorID, err := parseTelemetryTopic(topic)
	if err != nil {
		i.logger.Warn("dropping telemetry with bad topic", "topic", topic, "error", err)
		return err
	}

	var p readingPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		i.logger.Warn("dropping malformed telemetry", "topic", topic, "error", err)
		return fmt.Errorf("decoding telemetry payload: %w", err)
	}
	if p.Value == nil {
		i.logger.Warn("dropping telemetry without value", "topic", topic)
		return errors.New("telemetry payload missing value")
	}
	if p.SensorID != "" && p.SensorID != sensorID {
		i.logger.Warn("dropping telemetry with mismatched sensor",
			"topic", topic, "payload_sensor_id", p.SensorID)
		return errors.New("telemetry sensor mismatch")
	}

	quality := 100
	if p.Quality != nil {
		quality = *p.Quality
	}
	timestamp := time.Now().UTC()
	if p.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339, p.Timestamp); err == nil {
			timestamp = parsed.UTC()
		}
	}

	ctx := context.Background()
	sensor, err := i.repo.GetSensor(ctx, sensorID)
	if err != nil {
		if errors.Is(err, building.ErrSensorNotFound) {
			i.logger.Warn("dropping telemetry for unknown sensor", "sensor_id", sensorID)
			return err
		}
		return fmt.Errorf("looking up sensor %s: %w", sensorID, err)
	}

	reading := &building.SensorReading{
		ID:        "rdg-" + uuid.NewString()[:8],
		SensorID:  sensorID,
		Value:     *p.Value,
		Quality:   quality,
		Timestamp: timestamp,
	}
	if err := i.repo.RecordReading(ctx, reading); err != nil {
		return fmt.Errorf("recording reading for %s: %w", sensorID, err)
	}

	if i.mirror != nil {
		i.mirror.WriteSensorReading(sensorID, roomID, sensor.Type, *p.Value, timestamp)
	}
	return nil
}

// parseTelemetryTopic extracts the room and sensor segments.
func parseTelemetryTopic(topic string) (roomID, sensorID string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[2] == "" || parts[3] == "" {
		return "", "", fmt.Errorf("unexpected telemetry topic %q", topic)
	}
	return parts[2], parts[3], nil
}

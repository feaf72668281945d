// Package mqtt publishes controller telemetry to an MQTT broker and feeds
// remote operator commands back into the control loop. It is the
// display/alarm indicator surface of the controller; rendering is left to
// whatever subscribes.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	domain "github.com/verdantlabs/plantguard/internal/domain/irrigation"
)

// Topics for controller telemetry and remote commands.
const (
	// TopicEvents carries one message per actuator transition.
	TopicEvents = "plantguard/irrigation/events"
	// TopicStatus carries periodic full status snapshots, retained.
	TopicStatus = "plantguard/irrigation/status"
	// TopicCommand receives remote operator commands.
	TopicCommand = "plantguard/irrigation/command"
)

// Publisher publishes telemetry and exposes remote commands.
type Publisher interface {
	// PublishEvent sends an actuator transition event.
	// Failures must not crash the control loop.
	PublishEvent(event Event) error

	// PublishStatus sends a full status snapshot.
	PublishStatus(status Status) error

	// Commands yields remote commands received from the broker.
	Commands() <-chan domain.Command

	// Close disconnects from the broker.
	Close() error
}

// Event describes one actuator transition.
type Event struct {
	// Time is the wall-clock instant of the transition.
	Time time.Time
	// Actuator is "pump" or "heater".
	Actuator string
	// Action is "start", "stop" or "forced_stop".
	Action string
	// Delta is the volume (ml) or on-time (s) accounted by a stop.
	Delta uint32
}

// Status is a full controller snapshot for external renderers.
type Status struct {
	// Time is the controller's corrected wall-clock time.
	Time time.Time
	// PumpRunning and HeaterRunning mirror the actuator outputs.
	PumpRunning   bool
	HeaterRunning bool
	// PumpedTodayML and PumpedTotalML come from the statistics.
	PumpedTodayML uint32
	PumpedTotalML uint32
	// RemainingML is the estimated water left in the container.
	RemainingML uint32
	// LowWater is the container alarm.
	LowWater bool
	// SensorFault reports a failed probe substituted by a safe value.
	SensorFault bool
	// Inhibited is true while the cooldown policy blocks starting.
	Inhibited bool
	// DisplayMode is the persisted display-mode selector.
	DisplayMode uint8
}

// eventPayload is the wire form of an Event.
type eventPayload struct {
	Irrigation struct {
		Timestamp string `json:"timestamp"`
		Actuator  string `json:"actuator"`
		Action    string `json:"action"`
		Delta     uint32 `json:"delta"`
	} `json:"irrigation"`
}

// statusPayload is the wire form of a Status.
type statusPayload struct {
	Status struct {
		Timestamp     string `json:"timestamp"`
		PumpRunning   bool   `json:"pump_running"`
		HeaterRunning bool   `json:"heater_running"`
		PumpedTodayML uint32 `json:"pumped_today_ml"`
		PumpedTotalML uint32 `json:"pumped_total_ml"`
		RemainingML   uint32 `json:"remaining_ml"`
		LowWater      bool   `json:"low_water"`
		SensorFault   bool   `json:"sensor_fault"`
		Inhibited     bool   `json:"inhibited"`
		DisplayMode   uint8  `json:"display_mode"`
	} `json:"status"`
}

// commandPayload is the wire form of a remote command.
type commandPayload struct {
	Command string `json:"command"`
	On      bool   `json:"on"`
}

// FormatEvent creates the JSON payload for a transition event.
func FormatEvent(event Event) ([]byte, error) {
	var p eventPayload
	p.Irrigation.Timestamp = event.Time.UTC().Format(time.RFC3339)
	p.Irrigation.Actuator = event.Actuator
	p.Irrigation.Action = event.Action
	p.Irrigation.Delta = event.Delta

	return json.Marshal(p)
}

// FormatStatus creates the JSON payload for a status snapshot.
func FormatStatus(status Status) ([]byte, error) {
	var p statusPayload
	p.Status.Timestamp = status.Time.UTC().Format(time.RFC3339)
	p.Status.PumpRunning = status.PumpRunning
	p.Status.HeaterRunning = status.HeaterRunning
	p.Status.PumpedTodayML = status.PumpedTodayML
	p.Status.PumpedTotalML = status.PumpedTotalML
	p.Status.RemainingML = status.RemainingML
	p.Status.LowWater = status.LowWater
	p.Status.SensorFault = status.SensorFault
	p.Status.Inhibited = status.Inhibited
	p.Status.DisplayMode = status.DisplayMode

	return json.Marshal(p)
}

// ParseCommand decodes a remote command message. Unknown command names
// yield an error so malformed traffic never reaches the control loop.
func ParseCommand(payload []byte) (domain.Command, error) {
	var p commandPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return domain.Command{}, fmt.Errorf("decode command: %w", err)
	}

	switch p.Command {
	case "reset_statistics":
		return domain.Command{Type: domain.CommandResetStatistics}, nil
	case "reset_container_total":
		return domain.Command{Type: domain.CommandResetContainerTotal}, nil
	case "force_stop":
		return domain.Command{Type: domain.CommandForceStop}, nil
	case "force_run":
		return domain.Command{Type: domain.CommandForceRun, On: p.On}, nil
	case "change_display_mode":
		return domain.Command{Type: domain.CommandChangeDisplayMode}, nil
	default:
		return domain.Command{}, fmt.Errorf("unknown command %q", p.Command)
	}
}

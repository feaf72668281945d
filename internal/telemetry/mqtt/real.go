package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/verdantlabs/plantguard/internal/config"
	domain "github.com/verdantlabs/plantguard/internal/domain/irrigation"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second

	// commandBuffer bounds queued remote commands; the control loop drains
	// the channel every cycle, so overflow only happens when the loop is
	// stuck, and then dropping is the right call.
	commandBuffer = 16
)

// RealPublisher publishes to an actual MQTT broker and subscribes to the
// command topic.
type RealPublisher struct {
	client   paho.Client
	commands chan domain.Command
}

// NewRealPublisher connects to the configured broker and subscribes to
// remote commands.
func NewRealPublisher(cfg *config.MQTTConfig) (*RealPublisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connection timeout")
	}

	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	p := &RealPublisher{
		client:   client,
		commands: make(chan domain.Command, commandBuffer),
	}

	token = client.Subscribe(TopicCommand, 0, p.onCommand)
	if !token.WaitTimeout(connectTimeout) {
		client.Disconnect(0)

		return nil, fmt.Errorf("subscribe timeout")
	}

	if err := token.Error(); err != nil {
		client.Disconnect(0)

		return nil, fmt.Errorf("subscribe to %s: %w", TopicCommand, err)
	}

	return p, nil
}

func (p *RealPublisher) onCommand(_ paho.Client, msg paho.Message) {
	command, err := ParseCommand(msg.Payload())
	if err != nil {
		return
	}

	select {
	case p.commands <- command:
	default:
		// Drop when the loop is not draining.
	}
}

// PublishEvent sends an actuator transition event, QoS 0, not retained.
func (p *RealPublisher) PublishEvent(event Event) error {
	payload, err := FormatEvent(event)
	if err != nil {
		return fmt.Errorf("format event: %w", err)
	}

	return p.publish(TopicEvents, payload, false)
}

// PublishStatus sends a status snapshot, QoS 0, retained so late
// subscribers see the last known state.
func (p *RealPublisher) PublishStatus(status Status) error {
	payload, err := FormatStatus(status)
	if err != nil {
		return fmt.Errorf("format status: %w", err)
	}

	return p.publish(TopicStatus, payload, true)
}

func (p *RealPublisher) publish(topic string, payload []byte, retained bool) error {
	token := p.client.Publish(topic, 0, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout")
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	return nil
}

// Commands yields remote commands received from the broker.
func (p *RealPublisher) Commands() <-chan domain.Command {
	return p.commands
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(250)

	return nil
}

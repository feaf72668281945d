package mqtt

import domain "github.com/verdantlabs/plantguard/internal/domain/irrigation"

// FakePublisher records telemetry for assertions and feeds scripted
// remote commands.
type FakePublisher struct {
	// Events and Statuses record every publish in order.
	Events   []Event
	Statuses []Status

	// PublishError, if set, is returned by the publish methods.
	PublishError error

	// Closed tracks whether Close was called.
	Closed bool

	commands chan domain.Command
}

// NewFakePublisher creates a fake with a buffered command channel.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{commands: make(chan domain.Command, 16)}
}

// PublishEvent records the event.
func (f *FakePublisher) PublishEvent(event Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	f.Events = append(f.Events, event)

	return nil
}

// PublishStatus records the snapshot.
func (f *FakePublisher) PublishStatus(status Status) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	f.Statuses = append(f.Statuses, status)

	return nil
}

// Commands yields the scripted remote commands.
func (f *FakePublisher) Commands() <-chan domain.Command {
	return f.commands
}

// Remote queues a remote command as if it arrived from the broker.
func (f *FakePublisher) Remote(command domain.Command) {
	f.commands <- command
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true

	return nil
}

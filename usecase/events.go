package usecase

// Toy lifecycle event types pushed to connected parent sessions.
const (
	EventToyActivated = "toy_activated"
	EventToyUpdated   = "toy_updated"
	EventToyUnbound   = "toy_unbound"
)

// ToyEvent describes a toy lifecycle change.
type ToyEvent struct {
	Type  string `json:"type"`
	ToyID string `json:"toy_id"`
	MacID string `json:"toy_mac_id,omitempty"`
	Name  string `json:"name,omitempty"`
}

// EventPublisher pushes toy lifecycle events to a user's connected clients.
type EventPublisher interface {
	Publish(userID string, event ToyEvent)
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, ToyEvent) {}

// NoopPublisher returns a publisher that drops every event.
func NoopPublisher() EventPublisher {
	return noopPublisher{}
}

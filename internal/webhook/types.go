// Package webhook notifies external endpoints when profile definitions change.
package webhook

import (
	"slices"
	"time"
)

// Event types that can trigger webhooks
const (
	EventDefinitionCreated = "definition.created"
	EventDefinitionUpdated = "definition.updated"
	EventDefinitionDeleted = "definition.deleted"
)

// Event is the JSON body POSTed to every subscribed endpoint.
type Event struct {
	ID          string    `json:"id"`
	Type        string    `json:"event"`
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment,omitempty"`
	Resource    Resource  `json:"resource"`
	// ETag is the registry version after the change was applied.
	ETag     string    `json:"etag"`
	Data     EventData `json:"data"`
	Metadata Metadata  `json:"metadata"`
}

// Resource identifies the definition that changed.
type Resource struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// EventData contains the before/after state and changes
type EventData struct {
	Before  map[string]any `json:"before,omitempty"`
	After   map[string]any `json:"after,omitempty"`
	Changes map[string]any `json:"changes,omitempty"`
}

type Metadata struct {
	IPAddress string `json:"ipAddress,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// Endpoint is a subscriber. An empty Events list subscribes to every event.
type Endpoint struct {
	URL        string
	Secret     string
	Events     []string
	MaxRetries int
	Timeout    time.Duration
}

func (e Endpoint) matches(event Event) bool {
	return len(e.Events) == 0 || slices.Contains(e.Events, event.Type)
}

// EventType maps an audit action to its webhook event type.
func EventType(action string) (string, bool) {
	switch action {
	case "created":
		return EventDefinitionCreated, true
	case "updated":
		return EventDefinitionUpdated, true
	case "deleted":
		return EventDefinitionDeleted, true
	default:
		return "", false
	}
}

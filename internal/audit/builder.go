package audit

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// EventBuilder provides a fluent API for constructing audit events from a request.
//
//	event := audit.NewEventBuilder(r).
//		ForDefinition(def.ID).
//		WithAction(audit.ActionCreated).
//		WithAfterState(audit.StateOf(def)).
//		Build()
type EventBuilder struct {
	event Event
}

// NewEventBuilder starts an event attributed to the admin key holder, with the
// request ID and client address taken from r.
func NewEventBuilder(r *http.Request) *EventBuilder {
	return &EventBuilder{
		event: Event{
			RequestID: middleware.GetReqID(r.Context()),
			Actor:     Actor{Kind: ActorKindAdmin, Display: "admin"},
			Source: Source{
				IPAddress: clientIP(r),
				UserAgent: r.UserAgent(),
			},
			Status: StatusSuccess,
		},
	}
}

func (b *EventBuilder) ForDefinition(id string) *EventBuilder {
	b.event.ResourceType = ResourceTypeDefinition
	b.event.ResourceID = id
	return b
}

func (b *EventBuilder) WithAction(action string) *EventBuilder {
	b.event.Action = action
	return b
}

func (b *EventBuilder) WithBeforeState(state map[string]any) *EventBuilder {
	b.event.BeforeState = state
	return b
}

func (b *EventBuilder) WithAfterState(state map[string]any) *EventBuilder {
	b.event.AfterState = state
	return b
}

// Failure marks the event as failed.
func (b *EventBuilder) Failure(msg string) *EventBuilder {
	b.event.Status = StatusFailure
	b.event.ErrorMessage = msg
	return b
}

func (b *EventBuilder) Build() Event {
	return b.event
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

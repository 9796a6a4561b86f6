// Package audit records who changed which profile definition.
package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

const ResourceTypeDefinition = "profile_definition"

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

const (
	ActorKindAdmin  = "admin"
	ActorKindSystem = "system"
)

// Clock interface for testable time operations
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using time.Now()
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// IDGenerator interface for testable ID generation
type IDGenerator interface {
	Generate() string
}

// UUIDGenerator issues random v4 UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) Generate() string { return uuid.NewString() }

// Redactor removes sensitive values from recorded state.
type Redactor interface {
	Redact(data map[string]any) map[string]any
}

type DefaultRedactor struct {
	sensitiveKeys map[string]struct{}
}

func NewDefaultRedactor() *DefaultRedactor {
	keys := []string{"password", "secret", "token", "api_key", "authorization", "cookie"}
	r := &DefaultRedactor{sensitiveKeys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		r.sensitiveKeys[k] = struct{}{}
	}
	return r
}

func (r *DefaultRedactor) Redact(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	redacted := make(map[string]any, len(data))
	for k, v := range data {
		if _, ok := r.sensitiveKeys[k]; ok {
			redacted[k] = "[REDACTED]"
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			redacted[k] = r.Redact(nested)
			continue
		}
		redacted[k] = v
	}
	return redacted
}

// Actor represents who performed the action
type Actor struct {
	Kind    string `json:"kind"`
	Display string `json:"display"`
}

// Source represents request metadata
type Source struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
}

// Event is a single audit record.
type Event struct {
	ID           string         `json:"id"`
	OccurredAt   time.Time      `json:"occurred_at"`
	RequestID    string         `json:"request_id,omitempty"`
	Actor        Actor          `json:"actor"`
	Source       Source         `json:"source"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	BeforeState  map[string]any `json:"before_state,omitempty"`
	AfterState   map[string]any `json:"after_state,omitempty"`
	Changes      map[string]any `json:"changes,omitempty"`
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// Sink persists audit events.
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// Service writes events to its sink from a background worker. Log never blocks;
// events are dropped when the queue is full.
type Service struct {
	sink     Sink
	clock    Clock
	idgen    IDGenerator
	redactor Redactor
	logger   zerolog.Logger

	queue     chan Event
	stopCh    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewService(sink Sink, logger zerolog.Logger, queueSize int) *Service {
	return NewServiceWith(sink, logger, queueSize, SystemClock{}, UUIDGenerator{}, NewDefaultRedactor())
}

// NewServiceWith is NewService with explicit clock, ID generator and redactor.
func NewServiceWith(sink Sink, logger zerolog.Logger, queueSize int, clock Clock, idgen IDGenerator, redactor Redactor) *Service {
	if queueSize <= 0 {
		queueSize = 1
	}
	s := &Service{
		sink:     sink,
		clock:    clock,
		idgen:    idgen,
		redactor: redactor,
		logger:   logger,
		queue:    make(chan Event, queueSize),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.worker()
	return s
}

func (s *Service) worker() {
	defer close(s.done)
	for {
		select {
		case event := <-s.queue:
			s.write(event)
		case <-s.stopCh:
			for {
				select {
				case event := <-s.queue:
					s.write(event)
				default:
					return
				}
			}
		}
	}
}

func (s *Service) write(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.sink.Write(ctx, event); err != nil {
		s.logger.Error().Err(err).Str("event_id", event.ID).Msg("audit: write event")
	}
}

// Close stops the worker after draining queued events. It is safe to call more
// than once.
func (s *Service) Close() error {
	s.closeOnce.Do(func() { close(s.stopCh) })
	<-s.done
	return nil
}

// Log fills in ID, time and changes, redacts state and queues the event.
func (s *Service) Log(event Event) {
	if event.ID == "" {
		event.ID = s.idgen.Generate()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.clock.Now()
	}
	event.BeforeState = s.redactor.Redact(event.BeforeState)
	event.AfterState = s.redactor.Redact(event.AfterState)
	if event.Changes == nil {
		event.Changes = ComputeChanges(event.BeforeState, event.AfterState)
	}

	select {
	case <-s.stopCh:
		s.logger.Warn().Str("resource_id", event.ResourceID).Msg("audit: service closed, dropping event")
		return
	default:
	}
	select {
	case s.queue <- event:
	default:
		s.logger.Warn().Str("resource_id", event.ResourceID).Msg("audit: queue full, dropping event")
	}
}

// ComputeChanges returns {key: {before, after}} for every key that differs.
func ComputeChanges(before, after map[string]any) map[string]any {
	if before == nil && after == nil {
		return nil
	}
	changes := make(map[string]any)
	for key, afterVal := range after {
		beforeVal, existed := before[key]
		if !existed || !sameJSON(beforeVal, afterVal) {
			changes[key] = map[string]any{"before": beforeVal, "after": afterVal}
		}
	}
	for key, beforeVal := range before {
		if _, ok := after[key]; !ok {
			changes[key] = map[string]any{"before": beforeVal, "after": nil}
		}
	}
	if len(changes) == 0 {
		return nil
	}
	return changes
}

func sameJSON(a, b any) bool {
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	return string(ja) == string(jb)
}

// StateOf converts v to a generic map through its JSON form. It returns nil
// when v is nil or does not encode to an object.
func StateOf(v any) map[string]any {
	if v == nil {
		return nil
	}
	blob, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(blob, &out); err != nil {
		return nil
	}
	return out
}

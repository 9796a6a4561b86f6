package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/TimurManjosov/goprofiles/internal/audit"
	"github.com/TimurManjosov/goprofiles/internal/providers"
	"github.com/TimurManjosov/goprofiles/internal/store"
	"github.com/TimurManjosov/goprofiles/internal/validation"
	"github.com/TimurManjosov/goprofiles/internal/webhook"
)

type definitionsResponse struct {
	Definitions []store.Definition `json:"definitions"`
}

type mutationResponse struct {
	OK         bool              `json:"ok"`
	ETag       string            `json:"etag"`
	Definition *store.Definition `json:"definition,omitempty"`
}

func (s *Server) handleListDefinitions(w http.ResponseWriter, r *http.Request) {
	defs, err := s.store.ListDefinitions(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list definitions")
		InternalError(w, r, "Failed to list definitions")
		return
	}
	if defs == nil {
		defs = []store.Definition{}
	}
	writeJSON(w, http.StatusOK, definitionsResponse{Definitions: defs})
}

func (s *Server) handleGetDefinition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	def, err := s.store.GetDefinition(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		NotFoundError(w, r, notFoundMessage(id))
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("definition", id).Msg("get definition")
		InternalError(w, r, "Failed to load definition")
		return
	}
	writeJSON(w, http.StatusOK, def)
}

// handleUpsertDefinition validates and stores a definition, then rebuilds the
// registry so the change takes effect immediately.
func (s *Server) handleUpsertDefinition(w http.ResponseWriter, r *http.Request) {
	var def store.Definition
	if !decodeBody(w, r, &def, "expected a profile definition object") {
		return
	}

	if result := validation.ValidateDefinition(def, providers.BuiltinIDs()...); !result.Valid {
		ValidationError(w, r, "Validation failed for one or more fields", result.Errors)
		return
	}

	before, err := s.store.GetDefinition(r.Context(), def.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.logger.Error().Err(err).Str("definition", def.ID).Msg("get definition")
		InternalError(w, r, "Failed to load definition")
		return
	}

	saved, err := s.store.UpsertDefinition(r.Context(), def)
	if err != nil {
		s.logger.Error().Err(err).Str("definition", def.ID).Msg("upsert definition")
		InternalError(w, r, "Failed to save definition")
		return
	}

	action, status := audit.ActionCreated, http.StatusCreated
	if before != nil {
		action, status = audit.ActionUpdated, http.StatusOK
	}
	s.recordChange(r, def.ID, action, before, &saved)

	etag, ok := s.afterMutation(w, r)
	if !ok {
		return
	}
	s.notify(r, def.ID, action, etag, before, &saved)
	writeJSON(w, status, mutationResponse{OK: true, ETag: etag, Definition: &saved})
}

func (s *Server) handleDeleteDefinition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	before, err := s.store.GetDefinition(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		NotFoundError(w, r, notFoundMessage(id))
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("definition", id).Msg("get definition")
		InternalError(w, r, "Failed to load definition")
		return
	}

	if err := s.store.DeleteDefinition(r.Context(), id); err != nil {
		s.logger.Error().Err(err).Str("definition", id).Msg("delete definition")
		InternalError(w, r, "Failed to delete definition")
		return
	}
	s.recordChange(r, id, audit.ActionDeleted, before, nil)

	etag, ok := s.afterMutation(w, r)
	if !ok {
		return
	}
	s.notify(r, id, audit.ActionDeleted, etag, before, nil)
	writeJSON(w, http.StatusOK, mutationResponse{OK: true, ETag: etag})
}

// afterMutation rebuilds the registry and tells other instances about it. A
// failed broadcast is logged; the local change already took effect.
func (s *Server) afterMutation(w http.ResponseWriter, r *http.Request) (string, bool) {
	reg, err := s.Rebuild(r.Context(), TriggerAdmin)
	if err != nil {
		InternalError(w, r, "Registry rebuild failed")
		return "", false
	}
	if s.opts.Publisher != nil {
		if err := s.opts.Publisher.Publish(context.WithoutCancel(r.Context()), reg.ETag); err != nil {
			s.logger.Warn().Err(err).Str("etag", reg.ETag).Msg("registry broadcast failed")
		}
	}
	return reg.ETag, true
}

func (s *Server) recordChange(r *http.Request, id, action string, before, after *store.Definition) {
	if s.opts.Audit == nil {
		return
	}
	b := audit.NewEventBuilder(r).ForDefinition(id).WithAction(action)
	if before != nil {
		b.WithBeforeState(audit.StateOf(before))
	}
	if after != nil {
		b.WithAfterState(audit.StateOf(after))
	}
	s.opts.Audit.Log(b.Build())
}

// notify hands the change to the webhook dispatcher, which delivers it in the
// background.
func (s *Server) notify(r *http.Request, id, action, etag string, before, after *store.Definition) {
	if s.opts.Notifier == nil {
		return
	}
	eventType, ok := webhook.EventType(action)
	if !ok {
		return
	}
	ev := webhook.Event{
		Type:        eventType,
		Environment: s.opts.Environment,
		Resource:    webhook.Resource{Type: audit.ResourceTypeDefinition, ID: id},
		ETag:        etag,
		Metadata: webhook.Metadata{
			IPAddress: clientIP(r),
			RequestID: middleware.GetReqID(r.Context()),
		},
	}
	if before != nil {
		ev.Data.Before = audit.StateOf(before)
	}
	if after != nil {
		ev.Data.After = audit.StateOf(after)
	}
	ev.Data.Changes = audit.ComputeChanges(ev.Data.Before, ev.Data.After)
	s.opts.Notifier.Dispatch(ev)
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func notFoundMessage(id string) string {
	return fmt.Sprintf("Profile definition %s not found", id)
}

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/TimurManjosov/goprofiles/internal/profile"
	"github.com/TimurManjosov/goprofiles/internal/snapshot"
	"github.com/TimurManjosov/goprofiles/internal/telemetry"
)

type profilesResponse struct {
	ETag        string                          `json:"etag"`
	UpdatedAt   time.Time                       `json:"updatedAt"`
	Definitions int                             `json:"definitions"`
	Skipped     map[string]string               `json:"skipped,omitempty"`
	Tiers       map[profile.Tier][]profile.Info `json:"tiers"`
}

// handleProfiles lists the registered providers of every tier in resolution order.
func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	reg := snapshot.Load()
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == reg.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	resp := profilesResponse{
		ETag:        reg.ETag,
		UpdatedAt:   reg.UpdatedAt,
		Definitions: reg.Definitions,
		Skipped:     reg.Skipped,
		Tiers:       make(map[profile.Tier][]profile.Info, len(profile.Tiers)),
	}
	for _, t := range profile.Tiers {
		resp.Tiers[t] = []profile.Info{}
	}
	for _, info := range reg.Providers {
		resp.Tiers[info.Tier] = append(resp.Tiers[info.Tier], info)
	}

	w.Header().Set("ETag", reg.ETag)
	writeJSON(w, http.StatusOK, resp)
}

// handleStream sends an "init" event with the current ETag, then an "update"
// event whenever the registry changes.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		InternalError(w, r, "Streaming unsupported")
		return
	}

	ch, unsubscribe := snapshot.Subscribe()
	defer unsubscribe()
	telemetry.SSEClients.Inc()
	defer telemetry.SSEClients.Dec()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeEvent(w, "init", snapshot.Load().ETag)
	flusher.Flush()

	keepAlive := time.NewTicker(25 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case etag, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(w, "update", etag)
			flusher.Flush()
		case <-keepAlive.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event, etag string) {
	data, _ := json.Marshal(map[string]string{"etag": etag})
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

package api

import (
	"bytes"
	"net/http"
	"strconv"

	"airtracker/panel/internal/logging"
	"airtracker/panel/internal/models/dtos/responses"
)

type Handlers struct {
	deps *Dependencies
}

// NewHandlers creates a new handlers instance with injected dependencies
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		deps: deps,
	}
}

// StateHandler handles GET /api/v1/state
func (h *Handlers) StateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.deps.State == nil {
			respondWithError(w, http.StatusServiceUnavailable, "flight state not available")
			return
		}
		resp := responses.StateResponse{State: h.deps.State.Snapshot()}
		resp.Applied, resp.Changed = h.deps.State.Counts()
		if h.deps.Inbox != nil {
			resp.Received, resp.Dropped = h.deps.Inbox.Counts()
		}
		respondWithSuccess(w, http.StatusOK, &resp)
	}
}

// AssetsHandler handles GET /api/v1/assets
func (h *Handlers) AssetsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.deps.Assets == nil {
			respondWithError(w, http.StatusServiceUnavailable, "asset manager not available")
			return
		}
		snap := h.deps.Assets.Snapshot()
		resp := responses.AssetsResponse{
			Logo:  snap.Logo,
			Photo: snap.Photo,
			Stats: h.deps.Assets.Stats(),
		}
		respondWithSuccess(w, http.StatusOK, &resp)
	}
}

// DisplayHandler handles GET /api/v1/display
func (h *Handlers) DisplayHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.deps.Frame == nil || h.deps.Scheduler == nil {
			respondWithError(w, http.StatusServiceUnavailable, "display not available")
			return
		}
		resp := responses.DisplayResponse{
			Width:     h.deps.Frame.Width(),
			Height:    h.deps.Frame.Height(),
			Frames:    h.deps.Frame.Frames(),
			Scheduler: h.deps.Scheduler.Stats(),
		}
		respondWithSuccess(w, http.StatusOK, &resp)
	}
}

// FrameHandler handles GET /api/v1/frame.png with the last flushed frame.
func (h *Handlers) FrameHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.deps.Frame == nil {
			respondWithError(w, http.StatusServiceUnavailable, "display not available")
			return
		}
		var buf bytes.Buffer
		if err := h.deps.Frame.EncodePNG(&buf); err != nil {
			logging.Error("Frame encode failed", "error", err)
			respondWithError(w, http.StatusInternalServerError, "failed to encode frame")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.Header().Set("X-Frame-Count", strconv.FormatInt(h.deps.Frame.Frames(), 10))
		_, _ = w.Write(buf.Bytes())
	}
}

package handlers

import (
	"net/http"

	"github.com/avvvet/race-services/internal/racesvc/engine"
	"github.com/avvvet/race-services/internal/racesvc/models"
	"github.com/go-chi/chi"
)

// Admin handlers run behind the JWT verifier; the engine still checks the
// signer against the settlement authority on every call.

func (h *Handler) InitPolicyHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Authority string                `json:"authority"`
		Policy    models.EntryFeePolicy `json:"policy"`
	}
	if err := decode(r, &req); err != nil {
		h.CreateResponse(w, Response{Message: "invalid request body", Code: http.StatusBadRequest, Error: err.Error()})
		return
	}

	if err := h.engine.InitEntryFeePolicy(r.Context(), req.Authority, req.Policy); err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, "entry fee policy created", nil)
}

func (h *Handler) UpdatePolicyHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Authority string                `json:"authority"`
		Policy    models.EntryFeePolicy `json:"policy"`
	}
	if err := decode(r, &req); err != nil {
		h.CreateResponse(w, Response{Message: "invalid request body", Code: http.StatusBadRequest, Error: err.Error()})
		return
	}

	if err := h.engine.UpdateEntryFeePolicy(r.Context(), req.Authority, req.Policy); err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, "entry fee policy updated", nil)
}

func (h *Handler) ClosePolicyHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Authority string `json:"authority"`
	}
	if err := decode(r, &req); err != nil {
		h.CreateResponse(w, Response{Message: "invalid request body", Code: http.StatusBadRequest, Error: err.Error()})
		return
	}

	if err := h.engine.AdminCloseEntryFeePolicy(r.Context(), req.Authority, chi.URLParam(r, "feeAsset")); err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, "entry fee policy closed", nil)
}

func (h *Handler) AdminCloseLobbyHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Authority  string `json:"authority"`
		Lobby      string `json:"lobby"`
		RebateDest string `json:"rebate_dest"`
	}
	if err := decode(r, &req); err != nil {
		h.CreateResponse(w, Response{Message: "invalid request body", Code: http.StatusBadRequest, Error: err.Error()})
		return
	}

	if err := h.engine.AdminCloseLobby(r.Context(), req.Authority, req.Lobby, req.RebateDest); err != nil {
		h.fail(w, err)
		return
	}
	h.notify("lobby_closed", req.Lobby, "")
	h.ok(w, "lobby closed", nil)
}

func (h *Handler) ExtendLobbyHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Authority string `json:"authority"`
		Lobby     string `json:"lobby"`
	}
	if err := decode(r, &req); err != nil {
		h.CreateResponse(w, Response{Message: "invalid request body", Code: http.StatusBadRequest, Error: err.Error()})
		return
	}

	if err := h.engine.ExtendLobbyCapacityStorage(r.Context(), req.Authority, req.Lobby); err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, "lobby storage extended", nil)
}

func (h *Handler) FlushStaleRacerHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Authority string `json:"authority"`
		Racer     string `json:"racer"`
		Lobby     string `json:"lobby"`
	}
	if err := decode(r, &req); err != nil {
		h.CreateResponse(w, Response{Message: "invalid request body", Code: http.StatusBadRequest, Error: err.Error()})
		return
	}

	if err := h.engine.FlushStaleRacer(r.Context(), req.Authority, req.Racer, req.Lobby); err != nil {
		h.fail(w, err)
		return
	}
	h.notify("racer_flushed", req.Lobby, req.Racer)
	h.ok(w, "stale racer flushed", nil)
}

func (h *Handler) AdminCloseRacerHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Authority string `json:"authority"`
	}
	if err := decode(r, &req); err != nil {
		h.CreateResponse(w, Response{Message: "invalid request body", Code: http.StatusBadRequest, Error: err.Error()})
		return
	}

	if err := h.engine.AdminCloseRacer(r.Context(), req.Authority, chi.URLParam(r, "address")); err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, "racer registration closed", nil)
}

func (h *Handler) ConcludeRaceHandler(w http.ResponseWriter, r *http.Request) {
	var in engine.ConcludeInput
	if err := decode(r, &in); err != nil {
		h.CreateResponse(w, Response{Message: "invalid request body", Code: http.StatusBadRequest, Error: err.Error()})
		return
	}

	if err := h.engine.ConcludeRace(r.Context(), in); err != nil {
		h.fail(w, err)
		return
	}
	h.notify("race_settled", in.Lobby, in.Racer)
	h.ok(w, "race concluded", nil)
}

func (h *Handler) CacheRaceHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Authority string `json:"authority"`
		Lobby     string `json:"lobby"`
		Winner    string `json:"winner"`
		StartedAt uint64 `json:"started_at"`
	}
	if err := decode(r, &req); err != nil {
		h.CreateResponse(w, Response{Message: "invalid request body", Code: http.StatusBadRequest, Error: err.Error()})
		return
	}

	snap, err := h.engine.CacheRace(r.Context(), req.Authority, req.Lobby, req.Winner, req.StartedAt)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, "race snapshot cached", snap)
}

func (h *Handler) AdminCloseSnapshotHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Authority string `json:"authority"`
		Lobby     string `json:"lobby"`
		Winner    string `json:"winner"`
		StartedAt uint64 `json:"started_at"`
	}
	if err := decode(r, &req); err != nil {
		h.CreateResponse(w, Response{Message: "invalid request body", Code: http.StatusBadRequest, Error: err.Error()})
		return
	}

	if err := h.engine.AdminCloseRaceSnapshot(r.Context(), req.Authority, req.StartedAt, req.Lobby, req.Winner); err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, "race snapshot closed", nil)
}

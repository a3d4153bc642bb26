package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/avvvet/race-services/internal/comm"
	"github.com/avvvet/race-services/internal/racesvc/engine"
	"github.com/avvvet/race-services/internal/racesvc/ledger"
	"github.com/avvvet/race-services/internal/racesvc/service"
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
)

// EventPublisher pushes lobby notifications for the socket gateway.
type EventPublisher interface {
	PublishEvent(event comm.RaceEvent)
}

type Handler struct {
	tokenAuth *jwtauth.JWTAuth
	engine    *engine.Engine
	view      *service.ViewService
	events    EventPublisher
}

func NewHandler(eng *engine.Engine, view *service.ViewService, events EventPublisher) *Handler {
	return &Handler{engine: eng, view: view, events: events}
}

func (h *Handler) notify(eventType, lobby, racer string) {
	if h.events == nil {
		return
	}
	h.events.PublishEvent(comm.RaceEvent{Type: eventType, Lobby: lobby, Racer: racer})
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	json.NewEncoder(w).Encode(rsp)
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	rsp := Response{
		Message: "race service is running at port " + os.Getenv("RACE_SERVICE_PORT"),
		Code:    200,
		Data:    nil,
	}
	json.NewEncoder(w).Encode(rsp)
}

// statusFor maps lifecycle errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrLobbyNotFound),
		errors.Is(err, engine.ErrRacerNotFound),
		errors.Is(err, engine.ErrAssetNotFound),
		errors.Is(err, engine.ErrVaultNotFound),
		errors.Is(err, engine.ErrPolicyNotFound),
		errors.Is(err, engine.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrUnauthorized),
		errors.Is(err, engine.ErrUnauthorizedOwner),
		errors.Is(err, engine.ErrUnauthorizedRacer):
		return http.StatusForbidden
	case errors.Is(err, engine.ErrAlreadyExists),
		errors.Is(err, engine.ErrSnapshotExists),
		errors.Is(err, engine.ErrAlreadyRacing),
		errors.Is(err, engine.ErrLobbyFull),
		errors.Is(err, engine.ErrLobbyOccupied),
		errors.Is(err, engine.ErrLobbyLocked),
		errors.Is(err, engine.ErrRaceStarted),
		errors.Is(err, engine.ErrRaceNotStarted),
		errors.Is(err, engine.ErrRacerNotStale),
		errors.Is(err, engine.ErrVaultNotEmpty),
		errors.Is(err, engine.ErrLobbyNotFull):
		return http.StatusConflict
	case errors.Is(err, engine.ErrMaintenance):
		return http.StatusServiceUnavailable
	case errors.Is(err, engine.ErrInsufficientFee),
		errors.Is(err, engine.ErrInsufficientNetwork),
		errors.Is(err, engine.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, engine.ErrInvalidTrack),
		errors.Is(err, engine.ErrInvalidLobbyMetadata),
		errors.Is(err, engine.ErrInvalidStatsRecord),
		errors.Is(err, engine.ErrInvalidVault),
		errors.Is(err, engine.ErrInvalidFeePolicy),
		errors.Is(err, engine.ErrNonFungibleFeeAsset),
		errors.Is(err, engine.ErrInvalidCapacity),
		errors.Is(err, engine.ErrInvalidSlot):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	h.CreateResponse(w, Response{
		Message: "request failed",
		Code:    statusFor(err),
		Error:   err.Error(),
	})
}

func (h *Handler) ok(w http.ResponseWriter, message string, data interface{}) {
	h.CreateResponse(w, Response{
		Message: message,
		Code:    http.StatusOK,
		Data:    data,
	})
}

func decode(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func (h *Handler) CreateLobbyHandler(w http.ResponseWriter, r *http.Request) {
	var in engine.CreateLobbyInput
	if err := decode(r, &in); err != nil {
		h.CreateResponse(w, Response{Message: "invalid request body", Code: http.StatusBadRequest, Error: err.Error()})
		return
	}

	lobby, err := h.engine.CreateLobby(r.Context(), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.notify("lobby_created", lobby.Address, "")
	h.ok(w, "lobby created", lobby)
}

func (h *Handler) CloseLobbyHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Owner      string `json:"owner"`
		TrackAsset string `json:"track_asset"`
	}
	if err := decode(r, &req); err != nil {
		h.CreateResponse(w, Response{Message: "invalid request body", Code: http.StatusBadRequest, Error: err.Error()})
		return
	}

	if err := h.engine.CloseLobby(r.Context(), req.Owner, req.TrackAsset); err != nil {
		h.fail(w, err)
		return
	}
	h.notify("lobby_closed", ledger.LobbyAddress(req.Owner, req.TrackAsset), "")
	h.ok(w, "lobby closed", nil)
}

func (h *Handler) GetLobbyHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.view.LobbyView(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, "lobby", view)
}

func (h *Handler) RegisterRacerHandler(w http.ResponseWriter, r *http.Request) {
	var in engine.RegisterRacerInput
	if err := decode(r, &in); err != nil {
		h.CreateResponse(w, Response{Message: "invalid request body", Code: http.StatusBadRequest, Error: err.Error()})
		return
	}

	racer, err := h.engine.RegisterRacer(r.Context(), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, "racer registered", racer)
}

func (h *Handler) JoinRaceHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Holder string `json:"holder"`
		Racer  string `json:"racer"`
		Lobby  string `json:"lobby"`
	}
	if err := decode(r, &req); err != nil {
		h.CreateResponse(w, Response{Message: "invalid request body", Code: http.StatusBadRequest, Error: err.Error()})
		return
	}

	started, err := h.engine.JoinRace(r.Context(), req.Holder, req.Racer, req.Lobby)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.notify("racer_joined", req.Lobby, req.Racer)
	if started {
		h.notify("race_started", req.Lobby, "")
	}
	h.ok(w, "racer joined", nil)
}

func (h *Handler) LeaveRaceHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Holder string `json:"holder"`
		Racer  string `json:"racer"`
		Lobby  string `json:"lobby"`
	}
	if err := decode(r, &req); err != nil {
		h.CreateResponse(w, Response{Message: "invalid request body", Code: http.StatusBadRequest, Error: err.Error()})
		return
	}

	if err := h.engine.LeaveRace(r.Context(), req.Holder, req.Racer, req.Lobby); err != nil {
		h.fail(w, err)
		return
	}
	h.notify("racer_left", req.Lobby, req.Racer)
	h.ok(w, "racer left", nil)
}

func (h *Handler) GetRacerHandler(w http.ResponseWriter, r *http.Request) {
	racer, err := h.engine.GetRacer(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, "racer", racer)
}

func (h *Handler) GetPolicyHandler(w http.ResponseWriter, r *http.Request) {
	policy, err := h.engine.GetPolicy(r.Context(), chi.URLParam(r, "feeAsset"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, "entry fee policy", policy)
}

func (h *Handler) GetVaultHandler(w http.ResponseWriter, r *http.Request) {
	vault, err := h.engine.GetVault(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, "vault", vault)
}

func (h *Handler) GetSnapshotHandler(w http.ResponseWriter, r *http.Request) {
	startedAt, err := strconv.ParseUint(chi.URLParam(r, "startedAt"), 10, 64)
	if err != nil {
		h.CreateResponse(w, Response{Message: "invalid started_at", Code: http.StatusBadRequest, Error: err.Error()})
		return
	}

	snap, err := h.engine.GetRaceSnapshot(r.Context(), startedAt, chi.URLParam(r, "lobby"), chi.URLParam(r, "winner"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, "race snapshot", snap)
}

package handlers

import (
	"os"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) SetRoutes(r *chi.Mux) {
	r.Route("/v1", func(r chi.Router) {

		// public routes
		r.Get("/health", h.HealthHandler)
		r.Get("/lobby/{address}", h.GetLobbyHandler)
		r.Get("/racer/{address}", h.GetRacerHandler)
		r.Get("/policy/{feeAsset}", h.GetPolicyHandler)
		r.Get("/vault/{address}", h.GetVaultHandler)
		r.Get("/snapshot/{startedAt}/{lobby}/{winner}", h.GetSnapshotHandler)

		r.Post("/lobby", h.CreateLobbyHandler)
		r.Post("/lobby/close", h.CloseLobbyHandler)
		r.Post("/racer", h.RegisterRacerHandler)
		r.Post("/racer/join", h.JoinRaceHandler)
		r.Post("/racer/leave", h.LeaveRaceHandler)

		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)

			r.Route("/admin", func(r chi.Router) {
				r.Post("/policy", h.InitPolicyHandler)
				r.Put("/policy", h.UpdatePolicyHandler)
				r.Delete("/policy/{feeAsset}", h.ClosePolicyHandler)

				r.Post("/lobby/close", h.AdminCloseLobbyHandler)
				r.Post("/lobby/extend", h.ExtendLobbyHandler)

				r.Post("/racer/flush", h.FlushStaleRacerHandler)
				r.Delete("/racer/{address}", h.AdminCloseRacerHandler)

				r.Post("/race/conclude", h.ConcludeRaceHandler)
				r.Post("/race/cache", h.CacheRaceHandler)
				r.Delete("/race/snapshot", h.AdminCloseSnapshotHandler)
			})
		})
	})
}

func (h *Handler) InitAuth() {
	var jwtKey = os.Getenv("JWT_SECRET_KEY")
	h.tokenAuth = jwtauth.New("HS256", []byte(jwtKey), nil)

	expirationTime := time.Now().Add(7 * 24 * time.Hour).Unix()

	_, tokenString, _ := h.tokenAuth.Encode(map[string]interface{}{
		"service_id": 8003022,
		"exp":        expirationTime,
	})

	// For debugging only, comment it out in production
	log.Infof("DEBUG: JWT for testing expires soon : %s", tokenString)
}

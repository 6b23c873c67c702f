package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("GeoClash API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, deps.DB))
	if deps.Metrics != nil {
		r.Method("GET", "/metrics", deps.Metrics.Handler())
	}

	// Multiplayer: one duplex channel carries the whole queue/match
	// conversation.
	r.Get("/ws/play", handleWSPlay(logger, deps.Orchestrator, deps.Broker))

	// Solo play and persisted outcomes.
	r.Route("/api", func(r chi.Router) {
		r.Post("/solo/start", handleSoloStart(deps.Solo))
		r.Post("/solo/guess", handleSoloGuess(deps.Solo))
		r.Post("/solo/giveup", handleSoloGiveUp(deps.Solo))
		r.Get("/solo/{sessionID}", handleSoloState(deps.Solo))
		r.Get("/outcomes/recent", handleRecentOutcomes(deps.Store))
	})
}

package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/geoclash/geoclash/internal/match"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "GeoClash API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the GeoClash geography trivia games.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /ws/play
	getPlay, _ := r.NewOperationContext(http.MethodGet, "/ws/play")
	getPlay.SetSummary("Multiplayer play channel")
	getPlay.SetDescription("Upgrades to a WebSocket carrying queue, match, and round events as JSON messages. Pass playerId to resume after a disconnect.")
	getPlay.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getPlay)

	// POST /api/solo/start
	postStart, _ := r.NewOperationContext(http.MethodPost, "/api/solo/start")
	postStart.SetSummary("Start a solo session")
	postStart.SetDescription("Opens a single-player session for the given game type and returns the first round.")
	postStart.AddReqStructure(SoloStartRequest{})
	postStart.AddRespStructure(match.SoloState{}, openapi.WithHTTPStatus(http.StatusCreated))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postStart)

	// POST /api/solo/guess
	postGuess, _ := r.NewOperationContext(http.MethodPost, "/api/solo/guess")
	postGuess.SetSummary("Submit a solo guess")
	postGuess.SetDescription("Verifies one guess: returns the verdict, hot/cold feedback for wrong geographic guesses, and the next round when the target was found.")
	postGuess.AddReqStructure(SoloGuessRequest{})
	postGuess.AddRespStructure(match.SoloGuessResult{}, openapi.WithHTTPStatus(http.StatusOK))
	postGuess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postGuess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postGuess)

	// POST /api/solo/giveup
	postGiveUp, _ := r.NewOperationContext(http.MethodPost, "/api/solo/giveup")
	postGiveUp.SetSummary("Give up a solo session")
	postGiveUp.SetDescription("Ends the session. Giving up always counts as a loss with zero score.")
	postGiveUp.AddReqStructure(SoloGiveUpRequest{})
	postGiveUp.AddRespStructure(match.SoloGuessResult{}, openapi.WithHTTPStatus(http.StatusOK))
	postGiveUp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postGiveUp)

	// GET /api/solo/{sessionID}
	getState, _ := r.NewOperationContext(http.MethodGet, "/api/solo/{sessionID}")
	getState.SetSummary("Solo session state")
	getState.SetDescription("Returns the current snapshot of a solo session.")
	getState.AddRespStructure(match.SoloState{}, openapi.WithHTTPStatus(http.StatusOK))
	getState.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getState)

	// GET /api/outcomes/recent
	getRecent, _ := r.NewOperationContext(http.MethodGet, "/api/outcomes/recent")
	getRecent.SetSummary("Recent outcomes")
	getRecent.SetDescription("Returns the most recently recorded game outcomes.")
	getRecent.AddRespStructure([]OutcomeRow{}, openapi.WithHTTPStatus(http.StatusOK))
	getRecent.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getRecent)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		json.NewEncoder(w).Encode(spec)
	}
}

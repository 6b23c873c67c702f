package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/geoclash/geoclash/internal/geoclash"
	"github.com/geoclash/geoclash/internal/match"
)

type SoloStartRequest struct {
	GameType geoclash.GameType `json:"gameType"`
}

type SoloGuessRequest struct {
	SessionID string `json:"sessionId"`
	Guess     string `json:"guess"`
}

type SoloGiveUpRequest struct {
	SessionID string `json:"sessionId"`
}

func handleSoloStart(solo *match.SoloManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SoloStartRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		state, err := solo.Start(req.GameType)
		if errors.Is(err, match.ErrUnknownGameType) {
			writeError(w, http.StatusBadRequest, "unknown game type")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, state)
	}
}

func handleSoloGuess(solo *match.SoloManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SoloGuessRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.SessionID == "" || req.Guess == "" {
			writeError(w, http.StatusBadRequest, "sessionId and guess are required")
			return
		}

		res, err := solo.Guess(req.SessionID, req.Guess)
		switch {
		case errors.Is(err, match.ErrUnknownSession):
			writeError(w, http.StatusNotFound, "session not found")
			return
		case errors.Is(err, match.ErrDuplicateGuess):
			writeError(w, http.StatusConflict, "guess already submitted")
			return
		case errors.Is(err, match.ErrRoundClosed), errors.Is(err, match.ErrNoAttemptsLeft), errors.Is(err, match.ErrAlreadyAnswered):
			writeError(w, http.StatusConflict, "round is not accepting guesses")
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleSoloGiveUp(solo *match.SoloManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SoloGiveUpRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		res, err := solo.GiveUp(req.SessionID)
		if errors.Is(err, match.ErrUnknownSession) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleSoloState(solo *match.SoloManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")

		state, err := solo.State(id)
		if errors.Is(err, match.ErrUnknownSession) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"github.com/geoclash/geoclash/internal/geoclash"
	"github.com/geoclash/geoclash/internal/match"
)

// Event types owned by the transport layer, not the match engine.
const (
	eventWelcome = "welcome"
	eventError   = "error"
)

// wsRequest is a client-to-server message on the play channel.
type wsRequest struct {
	Type     string            `json:"type"`
	GameType geoclash.GameType `json:"gameType,omitempty"`
	MatchID  string            `json:"matchId,omitempty"`
	Guess    string            `json:"guess,omitempty"`
	Name     string            `json:"name,omitempty"`
}

// handleWSPlay runs one player's duplex channel: inbound queue/guess/leave
// requests, outbound match events. Dropping the connection starts the
// disconnect grace period; reconnecting with the same playerId resumes.
func handleWSPlay(logger *slog.Logger, orch *match.Orchestrator, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		playerID := r.URL.Query().Get("playerId")
		resuming := playerID != ""
		if playerID == "" {
			playerID = uuid.NewString()
		}
		name := r.URL.Query().Get("name")
		if name == "" {
			name = "Player-" + playerID[:8]
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		ch := broker.Subscribe(playerID)
		defer broker.Unsubscribe(playerID, ch)
		defer orch.Disconnect(playerID)

		if resuming {
			orch.Resume(playerID)
		}

		welcome := match.Event{Type: eventWelcome, PlayerID: playerID}
		if matchID, ok := orch.MatchFor(playerID); ok {
			welcome.MatchID = matchID
		}
		if err := writeEvent(ctx, conn, welcome); err != nil {
			return
		}

		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case ev := <-ch:
					if err := writeEvent(ctx, conn, ev); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				logger.Debug("websocket read ended", "player_id", playerID, "error", err)
				return
			}

			var req wsRequest
			if err := json.Unmarshal(data, &req); err != nil {
				broker.Notify(playerID, match.Event{Type: eventError, Reason: "invalid message"})
				continue
			}
			dispatch(orch, broker, playerID, name, req)
		}
	}
}

func dispatch(orch *match.Orchestrator, broker *Broker, playerID, name string, req wsRequest) {
	switch req.Type {
	case "joinQueue":
		p := match.Participant{ID: playerID, Name: name}
		if req.Name != "" {
			p.Name = req.Name
		}
		if err := orch.JoinQueue(p, req.GameType); err != nil {
			broker.Notify(playerID, match.Event{Type: match.EventQueueError, Reason: errorReason(err)})
		}

	case "submitAnswer":
		if _, err := orch.SubmitAnswer(req.MatchID, playerID, req.Guess); err != nil {
			broker.Notify(playerID, match.Event{
				Type:    eventError,
				MatchID: req.MatchID,
				Reason:  errorReason(err),
			})
		}

	case "leaveMatch":
		orch.LeaveMatch(req.MatchID, playerID)

	default:
		broker.Notify(playerID, match.Event{Type: eventError, Reason: "unknown request type"})
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, ev match.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

// errorReason maps game errors to stable wire strings.
func errorReason(err error) string {
	switch {
	case errors.Is(err, match.ErrAlreadyQueued):
		return match.ReasonAlreadyQueued
	case errors.Is(err, match.ErrAlreadyInMatch):
		return "already_in_match"
	case errors.Is(err, match.ErrUnknownGameType):
		return "unknown_game_type"
	case errors.Is(err, match.ErrUnknownMatch):
		return "unknown_match"
	case errors.Is(err, match.ErrMatchClosed):
		return "match_closed"
	case errors.Is(err, match.ErrRoundClosed):
		return "round_closed"
	case errors.Is(err, match.ErrDuplicateGuess):
		return "duplicate_guess"
	case errors.Is(err, match.ErrAlreadyAnswered):
		return "already_answered"
	case errors.Is(err, match.ErrNoAttemptsLeft):
		return "no_attempts_left"
	case errors.Is(err, match.ErrNotParticipant):
		return "not_participant"
	default:
		return "internal_error"
	}
}

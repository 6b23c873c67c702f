package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/geoclash/geoclash/internal/answer"
	"github.com/geoclash/geoclash/internal/geodata"
	"github.com/geoclash/geoclash/internal/match"
)

func newPlayServer(t *testing.T) *httptest.Server {
	t.Helper()
	data, err := geodata.Load()
	if err != nil {
		t.Fatalf("loading dataset: %v", err)
	}
	cfg := match.Config{
		Countdown:       time.Hour,
		RoundTime:       time.Hour,
		WinThreshold:    2,
		QueueTimeout:    time.Hour,
		DisconnectGrace: time.Hour,
		AttemptBudget:   3,
		RecentWindow:    3,
	}
	broker := NewBroker()
	orch := match.NewOrchestrator(cfg, data, answer.NewVerifier(data.Aliases()), broker, nil, nil, slog.Default())

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/play", handleWSPlay(slog.Default(), orch, broker))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dialPlay(t *testing.T, ctx context.Context, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + srv.URL[len("http"):] + "/ws/play" + query
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn) match.Event {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev match.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return ev
}

// readUntil skips events until one of the wanted type arrives.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, eventType string) match.Event {
	t.Helper()
	for {
		ev := readEvent(t, ctx, conn)
		if ev.Type == eventType {
			return ev
		}
	}
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, msg string) {
	t.Helper()
	if err := conn.Write(ctx, websocket.MessageText, []byte(msg)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestWSPlayWelcomeAndQueue(t *testing.T) {
	srv := newPlayServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialPlay(t, ctx, srv, "")

	welcome := readEvent(t, ctx, conn)
	if welcome.Type != eventWelcome {
		t.Fatalf("first event = %q, want welcome", welcome.Type)
	}
	if welcome.PlayerID == "" {
		t.Fatal("welcome carries no player id")
	}

	send(t, ctx, conn, `{"type":"joinQueue","gameType":"countries"}`)
	ev := readUntil(t, ctx, conn, match.EventQueueJoined)
	if ev.GameType != "countries" {
		t.Errorf("queue_joined game type = %q, want countries", ev.GameType)
	}

	// Joining again on the same connection is rejected.
	send(t, ctx, conn, `{"type":"joinQueue","gameType":"countries"}`)
	errEv := readUntil(t, ctx, conn, match.EventQueueError)
	if errEv.Reason != match.ReasonAlreadyQueued {
		t.Errorf("reason = %q, want %q", errEv.Reason, match.ReasonAlreadyQueued)
	}
}

func TestWSPlayPairsTwoClients(t *testing.T) {
	srv := newPlayServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a := dialPlay(t, ctx, srv, "?playerId=alice&name=Alice")
	b := dialPlay(t, ctx, srv, "?playerId=bob&name=Bob")
	readEvent(t, ctx, a) // welcome
	readEvent(t, ctx, b)

	send(t, ctx, a, `{"type":"joinQueue","gameType":"capitals"}`)
	readUntil(t, ctx, a, match.EventQueueJoined)
	send(t, ctx, b, `{"type":"joinQueue","gameType":"capitals"}`)

	foundA := readUntil(t, ctx, a, match.EventMatchFound)
	foundB := readUntil(t, ctx, b, match.EventMatchFound)
	if foundA.MatchID == "" || foundA.MatchID != foundB.MatchID {
		t.Fatalf("match ids %q vs %q, want one shared id", foundA.MatchID, foundB.MatchID)
	}
	if len(foundA.Participants) != 2 {
		t.Errorf("participants = %v, want both players", foundA.Participants)
	}

	cd := readUntil(t, ctx, b, match.EventCountdown)
	if cd.Seconds <= 0 {
		t.Errorf("countdown seconds = %d, want positive", cd.Seconds)
	}
}

func TestWSPlayRejectsBadMessages(t *testing.T) {
	srv := newPlayServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialPlay(t, ctx, srv, "")
	readEvent(t, ctx, conn) // welcome

	send(t, ctx, conn, `{not json`)
	ev := readUntil(t, ctx, conn, eventError)
	if ev.Reason != "invalid message" {
		t.Errorf("reason = %q, want invalid message", ev.Reason)
	}

	send(t, ctx, conn, `{"type":"fly"}`)
	ev = readUntil(t, ctx, conn, eventError)
	if ev.Reason != "unknown request type" {
		t.Errorf("reason = %q, want unknown request type", ev.Reason)
	}

	send(t, ctx, conn, `{"type":"submitAnswer","matchId":"nope","guess":"France"}`)
	ev = readUntil(t, ctx, conn, eventError)
	if ev.Reason != "unknown_match" {
		t.Errorf("reason = %q, want unknown_match", ev.Reason)
	}
}

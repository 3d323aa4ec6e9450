package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"voicelink/internal/app/signal"
	"voicelink/internal/app/user"
	"voicelink/internal/configs"
	"voicelink/internal/pkg/auth/jwt"
)

const testSecret = "integration_test_secret"

// newTestServer spins up the full router on an httptest server with an empty hub.
// The account store is nil: the signaling path never touches the database.
func newTestServer(t *testing.T) (*httptest.Server, *AppDeps) {
	t.Helper()

	cfg := &configs.AppConfig{
		Environment:    "development",
		Port:           8080,
		AllowedOrigins: []string{},
		JWTSecret:      testSecret,
	}

	deps := &AppDeps{
		Hub:    signal.NewHub(),
		Config: cfg,
	}

	srv := httptest.NewServer(Router(deps))
	t.Cleanup(srv.Close)

	return srv, deps
}

// dial connects an authenticated signaling client for the given identity.
func dial(t *testing.T, srv *httptest.Server, userID, name string) *websocket.Conn {
	t.Helper()

	token, err := jwt.GenerateToken(userID, name, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("failed to mint test token: %v", err)
	}

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed for %s: %v", userID, err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

type wireEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readEnvelope(t *testing.T, conn *websocket.Conn) wireEnvelope {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading signaling frame failed: %v", err)
	}

	var env wireEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("frame is not a valid envelope: %v", err)
	}
	return env
}

// readUsers reads frames until a users snapshot arrives and returns it.
func readUsers(t *testing.T, conn *websocket.Conn) []user.User {
	t.Helper()

	for i := 0; i < 5; i++ {
		env := readEnvelope(t, conn)
		if env.Type != "users" {
			continue
		}
		var users []user.User
		if err := json.Unmarshal(env.Payload, &users); err != nil {
			t.Fatalf("users payload did not decode: %v", err)
		}
		return users
	}

	t.Fatal("no users snapshot arrived")
	return nil
}

func TestHandshakeRejectsMissingAndInvalidTokens(t *testing.T) {
	srv, deps := newTestServer(t)

	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(base, nil)
	if err == nil {
		t.Fatal("handshake succeeded with no token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token response = %v, want 401", resp)
	}

	_, resp, err = websocket.DefaultDialer.Dial(base+"?token=garbage", nil)
	if err == nil {
		t.Fatal("handshake succeeded with a garbage token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("invalid token response = %v, want 401", resp)
	}

	// A failed handshake never touches presence.
	if entries := deps.Hub.Registry().Entries(); len(entries) != 0 {
		t.Fatalf("registry has %d records after failed handshakes, want 0", len(entries))
	}
}

func TestTwoClientsSeeEachOtherAndRelayCalls(t *testing.T) {
	srv, _ := newTestServer(t)

	conn1 := dial(t, srv, "u1", "Alice")

	// The first client starts with an empty list.
	if users := readUsers(t, conn1); len(users) != 0 {
		t.Fatalf("first snapshot = %+v, want empty", users)
	}

	conn2 := dial(t, srv, "u2", "Bob")

	// Both clients now see exactly the other party, online.
	users1 := readUsers(t, conn1)
	if len(users1) != 1 || users1[0].ID != "u2" || users1[0].Name != "Bob" || !users1[0].IsOnline {
		t.Fatalf("u1 snapshot = %+v, want only Bob online", users1)
	}

	users2 := readUsers(t, conn2)
	if len(users2) != 1 || users2[0].ID != "u1" || !users2[0].IsOnline {
		t.Fatalf("u2 snapshot = %+v, want only Alice online", users2)
	}

	// u1 calls u2; the offer arrives untouched with the caller's identity added.
	call := map[string]any{
		"type":    "call",
		"payload": map[string]any{"to": "u2", "offer": "X"},
	}
	if err := conn1.WriteJSON(call); err != nil {
		t.Fatalf("writing call failed: %v", err)
	}

	env := readEnvelope(t, conn2)
	if env.Type != "incomingCall" {
		t.Fatalf("u2 received %q, want incomingCall", env.Type)
	}

	var incoming struct {
		From     string          `json:"from"`
		FromName string          `json:"fromName"`
		Offer    json.RawMessage `json:"offer"`
	}
	if err := json.Unmarshal(env.Payload, &incoming); err != nil {
		t.Fatalf("incomingCall payload did not decode: %v", err)
	}
	if incoming.From != "u1" || incoming.FromName != "Alice" || string(incoming.Offer) != `"X"` {
		t.Fatalf("incomingCall = %+v, want offer X from u1/Alice", incoming)
	}

	// u2 hangs up abruptly; u1 learns it went offline.
	conn2.Close()

	usersAfter := readUsers(t, conn1)
	if len(usersAfter) != 1 || usersAfter[0].ID != "u2" || usersAfter[0].IsOnline {
		t.Fatalf("u1 snapshot after disconnect = %+v, want Bob offline", usersAfter)
	}
}

func TestReconnectReplacesOldConnection(t *testing.T) {
	srv, deps := newTestServer(t)

	oldConn := dial(t, srv, "u1", "Alice")
	readUsers(t, oldConn)

	newConn := dial(t, srv, "u1", "Alice")
	readUsers(t, newConn)

	// The old connection is closed with the session-replaced code.
	oldConn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, _, err := oldConn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, signal.WsCloseCodeSessionReplaced) {
				t.Fatalf("old connection closed with %v, want close code %d", err, signal.WsCloseCodeSessionReplaced)
			}
			break
		}
	}

	// A call to u1 reaches the surviving connection.
	caller := dial(t, srv, "u2", "Bob")
	readUsers(t, caller)

	call := map[string]any{
		"type":    "call",
		"payload": map[string]any{"to": "u1", "offer": "Y"},
	}
	if err := caller.WriteJSON(call); err != nil {
		t.Fatalf("writing call failed: %v", err)
	}

	for {
		env := readEnvelope(t, newConn)
		if env.Type == "incomingCall" {
			break
		}
	}

	// The registry still shows u1 online on the new handle.
	entry, ok := deps.Hub.Registry().Find("u1")
	if !ok || !entry.User.IsOnline {
		t.Fatal("u1 not online after reconnect")
	}
}

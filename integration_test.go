package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// ---------- helpers ----------

var uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// startTestServer spins up an httptest.Server around a Game that the test steps by hand.
// It returns the game, the server, and the WebSocket URL.
func startTestServer(t *testing.T, auth *Auth) (*Game, *httptest.Server, string) {
	t.Helper()

	game := NewGameFromConfig(DefaultConfig(), nil)
	hub := NewHub(game, auth, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(SetupRoutes(hub))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	return game, srv, wsURL
}

// dialWS opens a WebSocket connection to the test server.
func dialWS(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial WS: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendMsg(t *testing.T, conn *websocket.Conn, typ string, data interface{}) {
	t.Helper()
	if err := conn.WriteJSON(Envelope{T: typ, Data: data}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readText reads until a text message of the given type arrives
func readText(t *testing.T, conn *websocket.Conn, typ string) json.RawMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		mt, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		if mt != websocket.TextMessage {
			continue
		}
		var env InEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if env.T == typ {
			return env.D
		}
	}
}

// readFrame reads until a binary frame arrives
func readFrame(t *testing.T, conn *websocket.Conn) *Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		mt, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for frame: %v", err)
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		f, err := DecodeFrame(raw)
		if err != nil {
			t.Fatal(err)
		}
		return f
	}
}

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// ---------- tests ----------

func TestHealthAndStats(t *testing.T) {
	game, srv, _ := startTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}

	game.Step()
	resp, err = http.Get(srv.URL + "/stats")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var stats StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if !uuidRegex.MatchString(stats.MatchID) {
		t.Errorf("match id %q is not a uuid", stats.MatchID)
	}
	if stats.Tick != 1 || stats.TickRate != DefaultTickSpeed {
		t.Errorf("stats = %+v", stats)
	}
}

func TestJoinFireOverWebSocket(t *testing.T) {
	game, _, wsURL := startTestServer(t, nil)
	conn := dialWS(t, wsURL)

	sendMsg(t, conn, MsgFire, FireMsg{Weapon: "gun", DX: 1})
	var e ErrorMsg
	if err := json.Unmarshal(readText(t, conn, MsgError), &e); err != nil || e.Msg != "join before firing" {
		t.Fatalf("error = %+v, %v", e, err)
	}

	sendMsg(t, conn, MsgJoin, JoinMsg{Name: "  alice  ", X: 300, Y: 400})
	var welcome WelcomeMsg
	if err := json.Unmarshal(readText(t, conn, MsgWelcome), &welcome); err != nil {
		t.Fatal(err)
	}
	if welcome.MatchID != game.MatchID() || welcome.CharacterID == NoOwner {
		t.Fatalf("welcome = %+v", welcome)
	}

	sendMsg(t, conn, MsgFire, FireMsg{Weapon: "grenade", X: 300, Y: 400, DX: 1, Explosive: true})
	waitFor(t, "projectile spawn", func() bool { return game.ProjectileCount() == 1 })

	game.Step()
	f := readFrame(t, conn)
	if len(f.Projectiles) != 1 || f.Projectiles[0].Owner != welcome.CharacterID {
		t.Fatalf("frame projectiles = %+v", f.Projectiles)
	}
	if len(f.Characters) != 1 || f.Characters[0].Name != "alice" {
		t.Fatalf("frame characters = %+v", f.Characters)
	}

	sendMsg(t, conn, MsgFire, FireMsg{Weapon: "bfg"})
	if err := json.Unmarshal(readText(t, conn, MsgError), &e); err != nil || !strings.Contains(e.Msg, "unknown weapon") {
		t.Fatalf("error = %+v, %v", e, err)
	}
}

func TestDisconnectRemovesCharacter(t *testing.T) {
	game, _, wsURL := startTestServer(t, nil)
	conn := dialWS(t, wsURL)
	sendMsg(t, conn, MsgJoin, JoinMsg{Name: "bob", X: 300, Y: 400})
	readText(t, conn, MsgWelcome)

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	waitFor(t, "character removal", func() bool {
		game.mu.Lock()
		defer game.mu.Unlock()
		return len(game.world.Characters()) == 0
	})
}

func TestAuthRequired(t *testing.T) {
	auth, err := NewAuth(testSecret)
	if err != nil {
		t.Fatal(err)
	}
	_, _, wsURL := startTestServer(t, auth)

	world := NewGameWorld(WorldConfig{}, NewArena(64, 48), nil, DefaultTickSpeed)
	if _, err := DialPredictClient(context.Background(), wsURL, "", world, 0); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("dial without token = %v, want ErrInvalidToken", err)
	}

	tok, err := auth.IssueToken("carol", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	pc, err := DialPredictClient(context.Background(), wsURL, tok, world, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := pc.Close(); err != nil {
		t.Errorf("close = %v", err)
	}
	if err := pc.Join(JoinMsg{Name: "carol"}); err == nil {
		t.Error("join after close should fail")
	}
	if err := pc.Close(); err == nil {
		t.Error("second close should report the closed connection")
	}
}

func TestPredictClientConfirmsOwnShot(t *testing.T) {
	game, _, wsURL := startTestServer(t, nil)

	cfg := DefaultConfig()
	world := NewGameWorld(cfg.World, cfg.Arena.Build(), nil, cfg.TickRate)
	pc, err := DialPredictClient(context.Background(), wsURL, "", world, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer pc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pc.Run(ctx)

	if err := pc.Join(JoinMsg{Name: "dave", X: 300, Y: 400}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "welcome", func() bool { return pc.CharacterID() != NoOwner })

	game.Step()
	waitFor(t, "first frame", func() bool { n, _ := pc.Stats(); return n >= 1 })

	if err := pc.Fire(FireMsg{Weapon: "grenade", X: 320, Y: 400, DX: 1, Explosive: true}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "server spawn", func() bool { return game.ProjectileCount() == 1 })

	game.Step()
	waitFor(t, "second frame", func() bool { n, _ := pc.Stats(); return n >= 2 })

	_, totals := pc.Stats()
	if totals.Kept != 1 || totals.Added != 0 || totals.Pruned != 0 {
		t.Fatalf("totals = %+v, want the prediction kept", totals)
	}
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ReconcileResult counts what happened to each projectile during a reconcile pass
type ReconcileResult struct {
	Kept     int // predicted projectile matched a snapshot and was kept
	Replaced int // stale entry with the snapshot's id was swapped for the snapshot
	Added    int // snapshot had no local counterpart
	Pruned   int // prediction the server never confirmed
}

// Reconcile merges a server frame into a predicting world. A snapshot that matches a
// predicted projectile leaves the prediction in place so it does not snap; anything else
// is rebuilt from the snapshot, replacing an older server record with the same id. Predictions spawned at or before the frame tick that no
// snapshot confirmed are dropped. Each prediction confirms at most one snapshot and ties
// go to the earliest registered.
func Reconcile(w *GameWorld, f *Frame) ReconcileResult {
	var res ReconcileResult
	confirmed := make(map[int]bool, len(f.Projectiles))
	for _, s := range f.Projectiles {
		cand := ProjectileFromSnapshot(w, s, s.ID)
		if pred := findUnconfirmedMatch(w, cand, confirmed); pred != nil {
			confirmed[pred.Key()] = true
			res.Kept++
			continue
		}
		if stale := staleSnapshotEntry(w, s.ID, confirmed); stale != nil {
			w.Remove(stale.Key())
			res.Replaced++
		} else {
			res.Added++
		}
		confirmed[w.Insert(cand)] = true
	}
	for _, p := range w.Projectiles() {
		if !confirmed[p.Key()] && p.SpawnTick <= f.Tick {
			w.Remove(p.Key())
			res.Pruned++
		}
	}
	return res
}

func findUnconfirmedMatch(w *GameWorld, cand *Projectile, confirmed map[int]bool) *Projectile {
	for _, p := range w.Projectiles() {
		if !confirmed[p.Key()] && p.Matches(cand) {
			return p
		}
	}
	return nil
}

// staleSnapshotEntry finds an earlier server record with id. Local predictions draw ids
// from the same counter, so they never count as stale.
func staleSnapshotEntry(w *GameWorld, id int, confirmed map[int]bool) *Projectile {
	for _, p := range w.Projectiles() {
		if p.FromSnapshot && p.ID == id && !confirmed[p.Key()] {
			return p
		}
	}
	return nil
}

// syncCharacters replaces the world's characters with the frame's
func syncCharacters(w *GameWorld, states []CharacterState) {
	seen := make(map[int]bool, len(states))
	for _, s := range states {
		seen[s.ID] = true
		c := w.Character(s.ID)
		if c == nil {
			c = NewCharacter(s.ID, s.Name, s.Pos, s.Team)
			w.AddCharacter(c)
		}
		c.Pos = s.Pos
		c.Team = s.Team
		c.Alive = s.Alive
		c.Frozen = s.Frozen
	}
	for _, c := range w.Characters() {
		if !seen[c.ID] {
			w.RemoveCharacter(c.ID)
		}
	}
	w.CharactersMoved()
}

// PredictClient follows a server's frames and keeps a local world running a fixed number
// of ticks ahead of the last confirmed tick.
type PredictClient struct {
	conn *websocket.Conn
	lead int

	mu          sync.Mutex
	world       *GameWorld
	characterID int
	matchID     string
	frames      int
	totals      ReconcileResult

	// OnFrame is called after each frame is reconciled, with the world lock held
	OnFrame func(w *GameWorld, f *Frame, res ReconcileResult)
}

// DialPredictClient connects to a server's websocket endpoint
func DialPredictClient(ctx context.Context, wsURL, token string, world *GameWorld, lead int) (*PredictClient, error) {
	if token != "" {
		u, err := url.Parse(wsURL)
		if err != nil {
			return nil, fmt.Errorf("parse url: %w", err)
		}
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
		wsURL = u.String()
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("dial %s: %w", wsURL, ErrInvalidToken)
		}
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}
	if lead < 0 {
		lead = 0
	}
	return &PredictClient{conn: conn, lead: lead, world: world, characterID: NoOwner}, nil
}

// Join places the client's character in the arena
func (c *PredictClient) Join(msg JoinMsg) error {
	return c.send(Envelope{T: MsgJoin, Data: msg})
}

// Fire sends a fire event and predicts the projectile locally
func (c *PredictClient) Fire(msg FireMsg) error {
	kind, err := ParseWeaponKind(msg.Weapon)
	if err != nil {
		return err
	}
	c.mu.Lock()
	if c.characterID != NoOwner {
		p := NewProjectile(c.world, fireSpawn(c.world, kind, c.characterID, msg))
		c.world.Insert(p)
	}
	c.mu.Unlock()
	return c.send(Envelope{T: MsgFire, Data: msg})
}

func (c *PredictClient) send(env Envelope) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	return c.conn.WriteJSON(env)
}

// Run reads frames until the connection closes or ctx is done
func (c *PredictClient) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { c.conn.Close() })
	defer stop()

	for {
		msgType, raw, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if msgType == websocket.BinaryMessage {
			f, err := DecodeFrame(raw)
			if err != nil {
				log.Printf("predict: %v", err)
				continue
			}
			c.apply(f)
			continue
		}
		c.handleText(raw)
	}
}

func (c *PredictClient) handleText(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("predict: unmarshal error: %v", err)
		return
	}
	switch env.T {
	case MsgWelcome:
		var w WelcomeMsg
		if err := json.Unmarshal(env.D, &w); err != nil {
			return
		}
		c.mu.Lock()
		c.characterID = w.CharacterID
		c.matchID = w.MatchID
		if c.world.GameTick() < w.Tick {
			c.world.SetGameTick(w.Tick)
		}
		c.mu.Unlock()
	case MsgError:
		var e ErrorMsg
		if err := json.Unmarshal(env.D, &e); err == nil {
			log.Printf("predict: server error: %s", e.Msg)
		}
	}
}

func (c *PredictClient) apply(f *Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.world.GameTick() < f.Tick {
		c.world.SetGameTick(f.Tick)
	}
	syncCharacters(c.world, f.Characters)
	res := Reconcile(c.world, f)
	for c.world.GameTick() < f.Tick+c.lead {
		c.world.Step()
	}
	c.world.DrainEvents()

	c.frames++
	c.totals.Kept += res.Kept
	c.totals.Replaced += res.Replaced
	c.totals.Added += res.Added
	c.totals.Pruned += res.Pruned
	if c.OnFrame != nil {
		c.OnFrame(c.world, f, res)
	}
}

// Stats returns the number of frames applied and the running reconcile totals
func (c *PredictClient) Stats() (int, ReconcileResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames, c.totals
}

// CharacterID returns the id assigned by the server's welcome, NoOwner before it
func (c *PredictClient) CharacterID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.characterID
}

// Close sends a close frame and closes the connection. Both errors are reported.
func (c *PredictClient) Close() error {
	werr := c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	if werr != nil {
		werr = fmt.Errorf("write close: %w", werr)
	}
	return errors.Join(werr, c.conn.Close())
}

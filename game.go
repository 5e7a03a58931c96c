package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

var ErrTooManyProjectiles = errors.New("projectile limit reached")

// Broadcaster sends messages to one connected client
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// Game runs the authoritative world for one match
type Game struct {
	mu             sync.Mutex
	world          *GameWorld
	matchID        string
	clients        map[Broadcaster]bool
	nextCharacter  int
	maxProjectiles int

	replay    *ReplayWriter
	analytics *Analytics
}

// NewGame creates a Game around world, placing the configured dummies
func NewGame(cfg Config, world *GameWorld) *Game {
	g := &Game{
		world:          world,
		matchID:        GenerateUUID(),
		clients:        make(map[Broadcaster]bool),
		maxProjectiles: cfg.MaxProjectiles,
	}
	for _, d := range cfg.Arena.Dummies {
		g.nextCharacter++
		world.AddCharacter(NewCharacter(g.nextCharacter, d.Name, Vec2{d.X, d.Y}, d.Team))
	}
	return g
}

// NewGameFromConfig builds the world described by cfg
func NewGameFromConfig(cfg Config, tunings *Tunings) *Game {
	world := NewGameWorld(cfg.World, cfg.Arena.Build(), tunings, cfg.TickRate)
	return NewGame(cfg, world)
}

// SetReplay attaches a replay log that receives every frame
func (g *Game) SetReplay(r *ReplayWriter) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replay = r
}

// SetAnalytics attaches the event recorder
func (g *Game) SetAnalytics(a *Analytics) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.analytics = a
}

// MatchID returns the match identifier
func (g *Game) MatchID() string { return g.matchID }

// Tick returns the current world tick
func (g *Game) Tick() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.world.GameTick()
}

// TickRate returns the world's ticks per second
func (g *Game) TickRate() int { return g.world.TickSpeed() }

// ProjectileCount returns the number of live projectiles
func (g *Game) ProjectileCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.world.ProjectileCount()
}

// Run steps the world at its tick rate until ctx is done
func (g *Game) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(g.world.TickSpeed()))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.Step()
		case <-ctx.Done():
			return nil
		}
	}
}

// Step advances the match one tick and publishes the resulting frame
func (g *Game) Step() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.world.Step()
	events := g.world.DrainEvents()
	frame := BuildFrame(g.world, events)

	data, err := EncodeFrame(frame)
	if err != nil {
		log.Printf("frame encode error: %v", err)
	} else {
		for c := range g.clients {
			c.SendBinary(data)
		}
	}
	if g.replay != nil {
		if err := g.replay.Write(frame); err != nil {
			log.Printf("replay write error: %v", err)
			g.replay = nil
		}
	}
	if g.analytics != nil && len(events) > 0 {
		g.analytics.Track(g.matchID, events)
	}
}

// AddClient subscribes a client to frames
func (g *Game) AddClient(c Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients[c] = true
}

// RemoveClient unsubscribes a client and removes its character
func (g *Game) RemoveClient(c Broadcaster, characterID int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.clients, c)
	if characterID != NoOwner {
		g.world.RemoveCharacter(characterID)
	}
}

// ClientCount returns the number of subscribed clients
func (g *Game) ClientCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.clients)
}

// Join creates a character for a player and returns the welcome for it
func (g *Game) Join(msg JoinMsg) WelcomeMsg {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nextCharacter++
	c := NewCharacter(g.nextCharacter, msg.Name, Vec2{msg.X, msg.Y}, msg.Team)
	g.world.AddCharacter(c)
	return WelcomeMsg{
		CharacterID: c.ID,
		MatchID:     g.matchID,
		Tick:        g.world.GameTick(),
		TickRate:    g.world.TickSpeed(),
	}
}

// Leave removes a player's character
func (g *Game) Leave(characterID int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.world.RemoveCharacter(characterID)
}

// HandleFire spawns the projectile described by a fire event on behalf of owner
func (g *Game) HandleFire(owner int, msg FireMsg) (*Projectile, error) {
	kind, err := ParseWeaponKind(msg.Weapon)
	if err != nil {
		return nil, err
	}
	if msg.Bounce < BounceNone || msg.Bounce > BounceVertical {
		return nil, fmt.Errorf("bounce axis %d out of range", msg.Bounce)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.maxProjectiles > 0 && g.world.ProjectileCount() >= g.maxProjectiles {
		return nil, ErrTooManyProjectiles
	}
	p := NewProjectile(g.world, fireSpawn(g.world, kind, owner, msg))
	g.world.Insert(p)
	return p, nil
}

// fireSpawn converts a fire event into spawn parameters. Without an explicit lifespan
// the tuned lifetime of the zone at the muzzle applies.
func fireSpawn(w *GameWorld, kind WeaponKind, owner int, msg FireMsg) ProjectileSpawn {
	s := ProjectileSpawn{
		Kind:      kind,
		Owner:     owner,
		Pos:       Vec2{msg.X, msg.Y},
		Dir:       Vec2{msg.DX, msg.DY},
		Freeze:    msg.Freeze,
		Explosive: msg.Explosive,
		Force:     msg.Force,
		Layer:     msg.Layer,
		Number:    msg.Number,
		Bounce:    msg.Bounce,
	}
	if msg.LifeSpan != nil {
		s.LifeSpan = *msg.LifeSpan
		return s
	}
	zone := 0
	if w.Config.UseTuneZones {
		zone = w.Collision.TuneZoneAt(s.Pos)
	}
	s.LifeSpan = lifetimeTicks(w, kind, zone)
	return s
}

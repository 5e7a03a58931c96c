package main

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Client -> Server message types
const (
	MsgJoin  = "join"
	MsgLeave = "leave"
	MsgFire  = "fire"
)

// Server -> Client message types
const (
	MsgWelcome = "welcome"
	MsgError   = "error"
)

// Envelope wraps all outgoing JSON messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// JoinMsg places the sender's character in the arena
type JoinMsg struct {
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Team int     `json:"team"`
}

// FireMsg is a weapon fire event. The owner is always the sender's character.
type FireMsg struct {
	Weapon    string  `json:"w"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	DX        float64 `json:"dx"`
	DY        float64 `json:"dy"`
	Explosive bool    `json:"explosive,omitempty"`
	Freeze    bool    `json:"freeze,omitempty"`
	Bounce    int     `json:"bounce,omitempty"`
	Force     float64 `json:"force,omitempty"`
	Layer     int     `json:"layer,omitempty"`
	Number    int     `json:"number,omitempty"`
	// LifeSpan overrides the tuned lifetime when set; -1 expires on the first tick
	LifeSpan *int `json:"span,omitempty"`
}

// WelcomeMsg is sent to a client after it joins
type WelcomeMsg struct {
	CharacterID int    `json:"cid"`
	MatchID     string `json:"mid"`
	Tick        int    `json:"tick"`
	TickRate    int    `json:"tr"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// ProjectileSnapshot is the compact wire record of a projectile. Without ExtraInfo the
// owner, explosive, bounce and freeze fields are absent and get inferred.
type ProjectileSnapshot struct {
	ID        int        `json:"id" msgpack:"id"`
	Kind      WeaponKind `json:"k" msgpack:"k"`
	StartPos  Vec2       `json:"p" msgpack:"p"`
	StartVel  Vec2       `json:"v" msgpack:"v"`
	StartTick int        `json:"st" msgpack:"st"`
	TuneZone  int        `json:"tz" msgpack:"tz"`
	ExtraInfo bool       `json:"x" msgpack:"x"`
	Owner     int        `json:"o" msgpack:"o"`
	Explosive bool       `json:"e" msgpack:"e"`
	Bounce    int        `json:"b" msgpack:"b"`
	Freeze    bool       `json:"f" msgpack:"f"`
}

// CharacterState is broadcast per character
type CharacterState struct {
	ID     int    `json:"id" msgpack:"id"`
	Name   string `json:"n" msgpack:"n"`
	Pos    Vec2   `json:"p" msgpack:"p"`
	Team   int    `json:"team" msgpack:"team"`
	Alive  bool   `json:"a" msgpack:"a"`
	Frozen bool   `json:"fz" msgpack:"fz"`
}

// Frame is the per-tick state broadcast, also the unit of the replay log
type Frame struct {
	Tick        int                  `json:"tick" msgpack:"tick"`
	TickRate    int                  `json:"tr" msgpack:"tr"`
	Projectiles []ProjectileSnapshot `json:"pr" msgpack:"pr"`
	Characters  []CharacterState     `json:"c" msgpack:"c"`
	Events      []WorldEvent         `json:"ev,omitempty" msgpack:"ev,omitempty"`
}

// EncodeFrame serializes a frame for the wire
func EncodeFrame(f *Frame) ([]byte, error) {
	b, err := msgpack.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return b, nil
}

// DecodeFrame parses a frame produced by EncodeFrame
func DecodeFrame(b []byte) (*Frame, error) {
	var f Frame
	if err := msgpack.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return &f, nil
}

// BuildFrame captures the world's state after a step along with its drained events
func BuildFrame(w *GameWorld, events []WorldEvent) *Frame {
	projs := w.Projectiles()
	f := &Frame{
		Tick:        w.GameTick(),
		TickRate:    w.TickSpeed(),
		Projectiles: make([]ProjectileSnapshot, 0, len(projs)),
		Events:      events,
	}
	for _, p := range projs {
		f.Projectiles = append(f.Projectiles, p.Snapshot())
	}
	chars := w.Characters()
	f.Characters = make([]CharacterState, 0, len(chars))
	for _, c := range chars {
		f.Characters = append(f.Characters, c.ToState())
	}
	return f
}

package main

import (
	"encoding/json"
	"testing"
)

func TestFrameEncodeDecode(t *testing.T) {
	w := newOpenWorld(WorldConfig{}, nil)
	w.AddCharacter(NewCharacter(1, "alice", Vec2{50, 60}, 2))
	spawn(w, ProjectileSpawn{Kind: WeaponGrenade, Owner: 1, Pos: Vec2{100, 100}, Dir: Vec2{0.6, -0.8}, LifeSpan: 100, Explosive: true, Bounce: BounceVertical})
	w.Step()
	w.CreateExplosion(Vec2{50, 60}, 1, WeaponGrenade, false, NoTeam, TeamMaskAll)

	f := BuildFrame(w, w.DrainEvents())
	raw, err := EncodeFrame(f)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeFrame(raw)
	if err != nil {
		t.Fatal(err)
	}

	if got.Tick != 1 || got.TickRate != DefaultTickSpeed {
		t.Errorf("tick/rate = %d/%d", got.Tick, got.TickRate)
	}
	if len(got.Projectiles) != 1 || got.Projectiles[0] != f.Projectiles[0] {
		t.Errorf("projectiles = %+v, want %+v", got.Projectiles, f.Projectiles)
	}
	if len(got.Characters) != 1 || got.Characters[0] != f.Characters[0] {
		t.Errorf("characters = %+v, want %+v", got.Characters, f.Characters)
	}
	if len(got.Events) != 1 || got.Events[0].Type != EvtExplosion || len(got.Events[0].Victims) != 1 {
		t.Errorf("events = %+v", got.Events)
	}
}

func TestDecodeFrameRejectsGarbage(t *testing.T) {
	if _, err := DecodeFrame([]byte{0xc1}); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFireMsgLifeSpan(t *testing.T) {
	var env InEnvelope
	if err := json.Unmarshal([]byte(`{"t":"fire","d":{"w":"grenade","x":1,"y":2,"dx":1,"span":-1}}`), &env); err != nil {
		t.Fatal(err)
	}
	var msg FireMsg
	if err := json.Unmarshal(env.D, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.LifeSpan == nil || *msg.LifeSpan != LifeSpanExpire {
		t.Fatalf("span = %v, want -1", msg.LifeSpan)
	}

	w := newOpenWorld(WorldConfig{}, nil)
	if s := fireSpawn(w, WeaponGrenade, 1, msg); s.LifeSpan != LifeSpanExpire {
		t.Errorf("explicit span not honored: %d", s.LifeSpan)
	}
	msg.LifeSpan = nil
	if s := fireSpawn(w, WeaponGrenade, 1, msg); s.LifeSpan != 100 {
		t.Errorf("tuned span = %d, want 100", s.LifeSpan)
	}
}

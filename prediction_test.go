package main

import "testing"

func shotgunSnapshot(id int, pos, vel Vec2, tick int) ProjectileSnapshot {
	return ProjectileSnapshot{
		ID:        id,
		Kind:      WeaponShotgun,
		StartPos:  pos,
		StartVel:  vel,
		StartTick: tick,
		ExtraInfo: true,
		Owner:     1,
	}
}

func TestReconcileKeepsMatchingPrediction(t *testing.T) {
	w := newOpenWorld(WorldConfig{}, nil)
	pred := &Projectile{ID: 1, Kind: WeaponShotgun, Pos: Vec2{100, 100}, Direction: Vec2{0, 1}, SpawnTick: 5, OwnerID: 1, LifeSpan: 10}
	w.Insert(pred)

	res := Reconcile(w, &Frame{Tick: 6, Projectiles: []ProjectileSnapshot{
		shotgunSnapshot(77, Vec2{101, 99}, Vec2{0.2, 1}, 5),
	}})
	if res != (ReconcileResult{Kept: 1}) {
		t.Fatalf("result = %+v, want one kept", res)
	}
	if w.ProjectileCount() != 1 || w.Projectiles()[0] != pred {
		t.Fatal("prediction should stay registered")
	}
	if pred.Pos != (Vec2{100, 100}) {
		t.Errorf("prediction snapped to %v", pred.Pos)
	}
}

func TestReconcileAddsUnknownSnapshot(t *testing.T) {
	w := newOpenWorld(WorldConfig{}, nil)
	w.SetGameTick(6)
	res := Reconcile(w, &Frame{Tick: 6, Projectiles: []ProjectileSnapshot{
		shotgunSnapshot(77, Vec2{300, 300}, Vec2{1, 0}, 5),
	}})
	if res != (ReconcileResult{Added: 1}) {
		t.Fatalf("result = %+v, want one added", res)
	}
	p := w.ProjectileByID(77)
	if p == nil {
		t.Fatal("snapshot not registered")
	}
	if p.OwnerID != 1 || p.SpawnTick != 5 {
		t.Errorf("rebuilt projectile = %+v", p)
	}
	if id := w.NextID(); id <= 77 {
		t.Errorf("next local id %d collides with server ids", id)
	}
}

func TestReconcileReplacesStaleEntry(t *testing.T) {
	w := newOpenWorld(WorldConfig{}, nil)
	w.Insert(&Projectile{ID: 77, Kind: WeaponGrenade, Pos: Vec2{0, 0}, Direction: Vec2{1, 0}, SpawnTick: 1, LifeSpan: 100, FromSnapshot: true})

	res := Reconcile(w, &Frame{Tick: 6, Projectiles: []ProjectileSnapshot{
		{ID: 77, Kind: WeaponGrenade, StartPos: Vec2{500, 500}, StartVel: Vec2{-1, 0}, StartTick: 4, ExtraInfo: true, Bounce: BounceHorizontal},
	}})
	if res != (ReconcileResult{Replaced: 1}) {
		t.Fatalf("result = %+v, want one replaced", res)
	}
	p := w.ProjectileByID(77)
	if p == nil || p.SpawnTick != 4 || p.Pos != (Vec2{500, 500}) || p.Bounce != BounceHorizontal {
		t.Fatalf("entry not replaced: %+v", p)
	}
	if w.ProjectileCount() != 1 {
		t.Errorf("count = %d, want 1", w.ProjectileCount())
	}
}

func TestReconcileKeepsPredictionSharingServerID(t *testing.T) {
	w := newOpenWorld(WorldConfig{}, nil)
	w.SetGameTick(100)
	server := ProjectileSnapshot{ID: 5, Kind: WeaponGrenade, StartPos: Vec2{100, 100}, StartVel: Vec2{1, 0}, StartTick: 99, ExtraInfo: true, Owner: 2, Explosive: true}
	if res := Reconcile(w, &Frame{Tick: 100, Projectiles: []ProjectileSnapshot{server}}); res != (ReconcileResult{Added: 1}) {
		t.Fatalf("seed result = %+v, want one added", res)
	}

	w.SetGameTick(103)
	pred := spawn(w, ProjectileSpawn{Kind: WeaponGrenade, Owner: 1, Pos: Vec2{400, 400}, Dir: Vec2{0, -1}, LifeSpan: 50, Explosive: true})
	if pred.ID != 6 {
		t.Fatalf("prediction id = %d, want 6", pred.ID)
	}

	res := Reconcile(w, &Frame{Tick: 101, Projectiles: []ProjectileSnapshot{
		server,
		shotgunSnapshot(6, Vec2{900, 900}, Vec2{1, 0}, 100),
	}})
	if res != (ReconcileResult{Kept: 1, Added: 1}) {
		t.Fatalf("result = %+v, want one kept and one added", res)
	}
	if w.Projectile(pred.Key()) != pred || pred.SpawnTick != 103 || pred.Kind != WeaponGrenade {
		t.Error("prediction newer than the frame was replaced by an unrelated server record")
	}
	if w.ProjectileCount() != 3 {
		t.Errorf("count = %d, want 3", w.ProjectileCount())
	}
}

func TestReconcilePrunesUnconfirmed(t *testing.T) {
	w := newOpenWorld(WorldConfig{}, nil)
	old := &Projectile{ID: 1, Kind: WeaponGun, Pos: Vec2{100, 100}, Direction: Vec2{1, 0}, SpawnTick: 5}
	ahead := &Projectile{ID: 2, Kind: WeaponGun, Pos: Vec2{100, 100}, Direction: Vec2{1, 0}, SpawnTick: 8}
	w.Insert(old)
	w.Insert(ahead)

	res := Reconcile(w, &Frame{Tick: 6})
	if res != (ReconcileResult{Pruned: 1}) {
		t.Fatalf("result = %+v, want one pruned", res)
	}
	if w.Projectile(old.Key()) != nil {
		t.Error("prediction the server should have confirmed by now must go")
	}
	if w.Projectile(ahead.Key()) == nil {
		t.Error("prediction newer than the frame must stay")
	}
}

func TestReconcileTieGoesToEarliest(t *testing.T) {
	w := newOpenWorld(WorldConfig{}, nil)
	first := &Projectile{ID: 1, Kind: WeaponShotgun, Pos: Vec2{100, 100}, Direction: Vec2{0, 1}, SpawnTick: 5}
	second := &Projectile{ID: 2, Kind: WeaponShotgun, Pos: Vec2{100, 100}, Direction: Vec2{0, 1}, SpawnTick: 5}
	w.Insert(first)
	w.Insert(second)

	res := Reconcile(w, &Frame{Tick: 6, Projectiles: []ProjectileSnapshot{
		shotgunSnapshot(50, Vec2{100, 100}, Vec2{0, 1}, 5),
	}})
	if res.Kept != 1 || res.Pruned != 1 {
		t.Fatalf("result = %+v, want one kept and one pruned", res)
	}
	if w.Projectile(first.Key()) == nil || w.Projectile(second.Key()) != nil {
		t.Error("the earliest registered prediction should win the tie")
	}
}

func TestReconcileEachPredictionConfirmsOnce(t *testing.T) {
	w := newOpenWorld(WorldConfig{}, nil)
	w.Insert(&Projectile{ID: 1, Kind: WeaponShotgun, Pos: Vec2{100, 100}, Direction: Vec2{0, 1}, SpawnTick: 5})

	res := Reconcile(w, &Frame{Tick: 6, Projectiles: []ProjectileSnapshot{
		shotgunSnapshot(50, Vec2{100, 100}, Vec2{0, 1}, 5),
		shotgunSnapshot(51, Vec2{100.5, 100}, Vec2{0, 1}, 5),
	}})
	if res.Kept != 1 || res.Added != 1 {
		t.Fatalf("result = %+v, want one kept and one added", res)
	}
	if w.ProjectileCount() != 2 {
		t.Errorf("count = %d, want 2", w.ProjectileCount())
	}
}

func TestSyncCharacters(t *testing.T) {
	w := newOpenWorld(WorldConfig{}, nil)
	w.AddCharacter(NewCharacter(9, "gone", Vec2{}, 0))
	stay := NewCharacter(1, "stay", Vec2{}, 0)
	w.AddCharacter(stay)

	syncCharacters(w, []CharacterState{
		{ID: 1, Name: "stay", Pos: Vec2{10, 20}, Team: 2, Alive: true, Frozen: true},
		{ID: 3, Name: "new", Pos: Vec2{5, 5}, Alive: true},
	})
	if w.Character(9) != nil {
		t.Error("character missing from the frame should be removed")
	}
	if w.Character(1) != stay || stay.Pos != (Vec2{10, 20}) || stay.Team != 2 || !stay.Frozen {
		t.Errorf("existing character not updated in place: %+v", stay)
	}
	if c := w.Character(3); c == nil || c.Name != "new" {
		t.Error("new character not added")
	}
}

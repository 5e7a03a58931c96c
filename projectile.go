package main

import "math"

const (
	hitRadius       = 6.0
	freezeHitRadius = 1.0
	// matchTolerance covers a tick or two of prediction drift
	matchTolerance = 2.0
	// explosiveDirTolerance separates unit-length grenade launches from other encodings
	explosiveDirTolerance = 0.015
	// bounceBackoff pulls a bounced projectile back along its old direction
	bounceBackoff = 4.0
	// LifeSpanExpire makes a projectile fire its expiry action on its first tick
	LifeSpanExpire = -1
)

// Bounce axes
const (
	BounceNone       = 0
	BounceHorizontal = 1
	BounceVertical   = 2
)

// Projectile is a projectile in flight. Its trajectory is a closed-form curve anchored
// at Pos and Direction with time measured from SpawnTick.
type Projectile struct {
	key int

	ID        int
	Kind      WeaponKind
	Pos       Vec2
	Direction Vec2
	SpawnTick int
	LifeSpan  int
	OwnerID   int
	Force     float64
	Explosive bool
	Freeze    bool
	Bounce    int
	// Layer and SwitchNumber gate freeze hits on a switch
	Layer        int
	SwitchNumber int
	TuneZone     int
	// FromSnapshot marks entries rebuilt from a server record rather than predicted
	FromSnapshot bool

	MarkedForDestroy bool
}

// ProjectileSpawn carries everything a weapon supplies when it fires
type ProjectileSpawn struct {
	Kind      WeaponKind
	Owner     int
	Pos       Vec2
	Dir       Vec2
	LifeSpan  int
	Freeze    bool
	Explosive bool
	Force     float64
	Layer     int
	Number    int
	Bounce    int
}

// NewProjectile creates a projectile fired this tick. The caller registers it with
// w.Insert.
func NewProjectile(w *GameWorld, s ProjectileSpawn) *Projectile {
	p := &Projectile{
		ID:           w.NextID(),
		Kind:         s.Kind,
		Pos:          s.Pos,
		Direction:    s.Dir,
		SpawnTick:    w.GameTick(),
		LifeSpan:     s.LifeSpan,
		OwnerID:      s.Owner,
		Force:        s.Force,
		Explosive:    s.Explosive,
		Freeze:       s.Freeze,
		Bounce:       s.Bounce,
		Layer:        s.Layer,
		SwitchNumber: s.Number,
	}
	if w.Config.UseTuneZones {
		p.TuneZone = w.Collision.TuneZoneAt(s.Pos)
	}
	return p
}

// ProjectileFromSnapshot rebuilds a projectile from a network record. Without extended
// info the owner, bounce and freeze are unknown and explosiveness is inferred: only a
// grenade launched with a unit-length direction explodes.
func ProjectileFromSnapshot(w *GameWorld, s ProjectileSnapshot, id int) *Projectile {
	p := &Projectile{
		ID:           id,
		Kind:         s.Kind,
		Pos:          s.StartPos,
		Direction:    s.StartVel,
		SpawnTick:    s.StartTick,
		TuneZone:     s.TuneZone,
		FromSnapshot: true,
	}
	if s.ExtraInfo {
		p.OwnerID = s.Owner
		p.Explosive = s.Explosive
		p.Bounce = s.Bounce
		p.Freeze = s.Freeze
	} else {
		p.OwnerID = NoOwner
		p.Explosive = s.Kind == WeaponGrenade &&
			math.Abs(1-s.StartVel.Length()) < explosiveDirTolerance
	}
	p.LifeSpan = lifetimeTicks(w, s.Kind, s.TuneZone) - (w.GameTick() - s.StartTick)
	return p
}

// lifetimeTicks converts the tuned lifetime of a kind to ticks
func lifetimeTicks(w *GameWorld, kind WeaponKind, zone int) int {
	ts := w.TickSpeed()
	info := kind.info()
	if info.Curve == nil || (info.FixedLifetimeInDDRace && w.Config.IsDDRace) {
		return defaultLifetimeSeconds * ts
	}
	return int(w.Tunings.Curve(kind, zone).Lifetime * float64(ts))
}

// Key returns the registry key, 0 if unregistered
func (p *Projectile) Key() int { return p.key }

// Snapshot projects the projectile onto its wire record, always with extended info
func (p *Projectile) Snapshot() ProjectileSnapshot {
	return ProjectileSnapshot{
		ID:        p.ID,
		Kind:      p.Kind,
		StartPos:  p.Pos,
		StartVel:  p.Direction,
		StartTick: p.SpawnTick,
		TuneZone:  p.TuneZone,
		ExtraInfo: true,
		Owner:     p.OwnerID,
		Explosive: p.Explosive,
		Bounce:    p.Bounce,
		Freeze:    p.Freeze,
	}
}

// CalcPos evaluates the trajectory curve t seconds after launch
func CalcPos(pos, dir Vec2, curvature, speed, t float64) Vec2 {
	t *= speed
	return Vec2{
		X: pos.X + dir.X*t,
		Y: pos.Y + dir.Y*t + curvature/10000*(t*t),
	}
}

// PositionAt returns the point on the trajectory t seconds after SpawnTick
func (p *Projectile) PositionAt(w *GameWorld, t float64) Vec2 {
	c := w.Tunings.Curve(p.Kind, p.TuneZone)
	return CalcPos(p.Pos, p.Direction, c.Curvature, c.Speed, t)
}

// Tick advances the projectile by one world tick
func (p *Projectile) Tick(w *GameWorld) {
	tick := w.GameTick()
	ts := float64(w.TickSpeed())
	prevPos := p.PositionAt(w, float64(tick-p.SpawnTick-1)/ts)
	curPos := p.PositionAt(w, float64(tick-p.SpawnTick)/ts)

	collide, colPos, restPos := w.Collision.IntersectLine(prevPos, curPos)
	owner := w.Character(p.OwnerID)

	radius := hitRadius
	if p.Freeze {
		radius = freezeHitRadius
	}
	target, hitPos := w.IntersectCharacter(prevPos, colPos, radius, owner)
	if target != nil {
		colPos = hitPos
	}
	if w.Config.IsSolo && !(p.Kind == WeaponShotgun && w.Config.IsDDRace) {
		target = nil
	}

	if p.LifeSpan > LifeSpanExpire {
		p.LifeSpan--
	}

	suppressed := owner != nil && target != nil && owner.Alive && target.Alive &&
		!target.CanCollide(p.OwnerID)

	exploded := false
	if !suppressed && ((target != nil && p.hitAllowed(w, owner)) || collide || w.Collision.Clipped(curPos)) {
		exploded = p.resolveImpact(w, target, collide, colPos, restPos)
	}

	if p.LifeSpan == LifeSpanExpire {
		if p.Explosive && !exploded {
			team := NoTeam
			if owner != nil {
				team = owner.Team
			}
			w.CreateExplosion(colPos, p.OwnerID, p.Kind, p.OwnerID == NoOwner, team, TeamMaskAll)
		}
		p.MarkedForDestroy = true
	}
}

// hitAllowed reports whether a direct hit counts. An owner can disable its weapon's hits;
// ownerless shots fall back to the world's hit rule.
func (p *Projectile) hitAllowed(w *GameWorld, owner *Character) bool {
	if owner != nil {
		return owner.Hit&p.Kind.info().HitFlag == 0
	}
	return w.Config.SvHit || p.OwnerID == NoOwner
}

// resolveImpact applies exactly one outcome for this tick's impact and reports whether
// it requested an explosion.
func (p *Projectile) resolveImpact(w *GameWorld, target *Character, collide bool, colPos, restPos Vec2) bool {
	exploded := false
	if p.Explosive && (target == nil || !p.Freeze || (p.Kind == WeaponShotgun && collide)) {
		team := NoTeam
		if target != nil {
			team = target.Team
		}
		w.CreateExplosion(colPos, p.OwnerID, p.Kind, p.OwnerID == NoOwner, team, TeamMaskAll)
		exploded = true
	} else if target != nil && p.Freeze && p.freezeGateOpen(w, target) {
		w.ApplyFreeze(target, p)
	}

	switch {
	case collide && p.Bounce != BounceNone:
		p.bounce(w.GameTick(), restPos)
		w.emit(WorldEvent{
			Type:         EvtBounce,
			ProjectileID: p.ID,
			Weapon:       p.Kind,
			Owner:        p.OwnerID,
			Target:       NoOwner,
			Pos:          p.Pos,
			Team:         NoTeam,
		})
	case p.Kind.info().DestroyOnImpact:
		p.MarkedForDestroy = true
	case !p.Freeze:
		p.MarkedForDestroy = true
	}
	return exploded
}

func (p *Projectile) freezeGateOpen(w *GameWorld, target *Character) bool {
	if p.Layer != LayerSwitch {
		return true
	}
	return p.SwitchNumber > 0 && w.Collision.SwitchActive(p.SwitchNumber, target.Team)
}

// bounce restarts the trajectory from the wall: the clock origin moves to tick, the
// anchor to just before the rest point, and one direction component flips.
func (p *Projectile) bounce(tick int, rest Vec2) {
	p.SpawnTick = tick
	p.Pos = rest.Sub(p.Direction.Scale(bounceBackoff))
	switch p.Bounce {
	case BounceHorizontal:
		p.Direction.X = -p.Direction.X
	case BounceVertical:
		p.Direction.Y = -p.Direction.Y
	}
	if math.Abs(p.Direction.X) < 1e-6 {
		p.Direction.X = 0
	}
	if math.Abs(p.Direction.Y) < 1e-6 {
		p.Direction.Y = 0
	}
	p.Pos = p.Pos.Add(p.Direction)
}

// Matches reports whether other is plausibly the same projectile, e.g. a server record
// of one this client predicted. Two same-kind shots fired together can false-positive.
func (p *Projectile) Matches(other *Projectile) bool {
	if other == nil {
		return false
	}
	if other.Kind != p.Kind || other.SpawnTick != p.SpawnTick {
		return false
	}
	if Distance(other.Pos, p.Pos) > matchTolerance {
		return false
	}
	return Distance(other.Direction, p.Direction) <= matchTolerance
}

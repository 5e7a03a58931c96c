package main

import "sort"

const (
	DefaultTickSpeed = 50
	// ExplosionRadius is how far an explosion reaches characters
	ExplosionRadius = 135.0
	// TeamMaskAll lets an explosion affect every team
	TeamMaskAll int64 = -1
)

// World event types
const (
	EvtExplosion = "explosion"
	EvtFreeze    = "freeze"
	EvtBounce    = "bounce"
	EvtDestroy   = "destroy"
)

// WorldEvent is a side effect produced during a tick
type WorldEvent struct {
	Type          string     `json:"t" msgpack:"t"`
	Tick          int        `json:"tick" msgpack:"tick"`
	ProjectileID  int        `json:"pid" msgpack:"pid"`
	Weapon        WeaponKind `json:"w" msgpack:"w"`
	Owner         int        `json:"o" msgpack:"o"`
	Target        int        `json:"tg" msgpack:"tg"`
	Pos           Vec2       `json:"p" msgpack:"p"`
	Team          int        `json:"team" msgpack:"team"`
	Mask          int64      `json:"mask,omitempty" msgpack:"mask,omitempty"`
	Environmental bool       `json:"env,omitempty" msgpack:"env,omitempty"`
	Victims       []int      `json:"v,omitempty" msgpack:"v,omitempty"`
}

// WorldConfig holds the rule switches that change projectile resolution
type WorldConfig struct {
	UseTuneZones bool `yaml:"use_tune_zones"`
	IsSolo       bool `yaml:"solo"`
	IsDDRace     bool `yaml:"ddrace"`
	SvHit        bool `yaml:"sv_hit"`
}

// GameWorld owns the tick counter, the entity registry and the collaborators a
// projectile calls into. It is not safe for concurrent use; Game serializes access.
type GameWorld struct {
	Config    WorldConfig
	Collision CollisionQuerier
	Tunings   *Tunings

	tick      int
	tickSpeed int
	nextKey   int
	nextID    int

	order      []int
	entities   map[int]*Projectile
	characters map[int]*Character
	events     []WorldEvent

	// grid is rebuilt lazily, at most once per tick unless characters change
	grid      *CharacterGrid
	gridTick  int
	gridDirty bool
}

// NewGameWorld creates an empty world. A nil col means open space with no walls.
func NewGameWorld(cfg WorldConfig, col CollisionQuerier, tunings *Tunings, tickSpeed int) *GameWorld {
	if col == nil {
		col = openSpace{}
	}
	if tickSpeed <= 0 {
		tickSpeed = DefaultTickSpeed
	}
	if tunings == nil {
		tunings = NewTunings(DefaultTuning())
	}
	return &GameWorld{
		Config:     cfg,
		Collision:  col,
		Tunings:    tunings,
		tickSpeed:  tickSpeed,
		entities:   make(map[int]*Projectile),
		characters: make(map[int]*Character),
		grid:       NewCharacterGrid(),
		gridDirty:  true,
	}
}

func (w *GameWorld) GameTick() int  { return w.tick }
func (w *GameWorld) TickSpeed() int { return w.tickSpeed }

// SetGameTick moves the clock, used when a client adopts the server's tick
func (w *GameWorld) SetGameTick(tick int) { w.tick = tick }

// NextID allocates a network id
func (w *GameWorld) NextID() int {
	w.nextID++
	return w.nextID
}

// Insert registers a projectile and returns its registry key
func (w *GameWorld) Insert(p *Projectile) int {
	w.nextKey++
	p.key = w.nextKey
	w.entities[p.key] = p
	w.order = append(w.order, p.key)
	if p.ID > w.nextID {
		w.nextID = p.ID
	}
	return p.key
}

// Remove drops a projectile from the registry
func (w *GameWorld) Remove(key int) {
	if _, ok := w.entities[key]; !ok {
		return
	}
	delete(w.entities, key)
	for i, k := range w.order {
		if k == key {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

// Projectile returns the projectile registered under key
func (w *GameWorld) Projectile(key int) *Projectile {
	return w.entities[key]
}

// Projectiles returns the registered projectiles in insertion order
func (w *GameWorld) Projectiles() []*Projectile {
	out := make([]*Projectile, 0, len(w.order))
	for _, k := range w.order {
		out = append(out, w.entities[k])
	}
	return out
}

// ProjectileCount returns the number of registered projectiles
func (w *GameWorld) ProjectileCount() int {
	return len(w.order)
}

// ProjectileByID finds a projectile by network id
func (w *GameWorld) ProjectileByID(id int) *Projectile {
	for _, k := range w.order {
		if p := w.entities[k]; p.ID == id {
			return p
		}
	}
	return nil
}

// FindMatch returns the earliest registered projectile that matches p, skipping p itself
func (w *GameWorld) FindMatch(p *Projectile) *Projectile {
	for _, k := range w.order {
		e := w.entities[k]
		if e == p {
			continue
		}
		if e.Matches(p) {
			return e
		}
	}
	return nil
}

// AddCharacter registers a character, replacing any with the same id
func (w *GameWorld) AddCharacter(c *Character) {
	w.characters[c.ID] = c
	w.gridDirty = true
}

// RemoveCharacter drops a character
func (w *GameWorld) RemoveCharacter(id int) {
	delete(w.characters, id)
	w.gridDirty = true
}

// CharactersMoved invalidates the character index after positions were changed in place
func (w *GameWorld) CharactersMoved() {
	w.gridDirty = true
}

// nearbyCharacters returns the characters that may lie within r of segment a-b
func (w *GameWorld) nearbyCharacters(a, b Vec2, r float64) []*Character {
	if w.gridDirty || w.gridTick != w.tick {
		w.grid.Rebuild(w.Characters())
		w.gridTick = w.tick
		w.gridDirty = false
	}
	return w.grid.Query(a, b, r)
}

// Character returns the character with id, or nil
func (w *GameWorld) Character(id int) *Character {
	if id == NoOwner {
		return nil
	}
	return w.characters[id]
}

// Characters returns all characters ordered by id
func (w *GameWorld) Characters() []*Character {
	out := make([]*Character, 0, len(w.characters))
	for _, c := range w.characters {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IntersectCharacter finds the live character closest to a along segment a-b whose hit
// circle, grown by radius, the segment passes through. notThis is never returned. The
// second result is the point on the segment nearest the character.
func (w *GameWorld) IntersectCharacter(a, b Vec2, radius float64, notThis *Character) (*Character, Vec2) {
	closestLen := Distance(a, b) * 100
	var closest *Character
	var at Vec2
	for _, c := range w.nearbyCharacters(a, b, ProximityRadius+radius) {
		if c == notThis || !c.Alive {
			continue
		}
		p, ok := segmentCircleIntersect(a, b, c.Pos, ProximityRadius+radius)
		if !ok {
			continue
		}
		if l := Distance(a, p); l < closestLen {
			closestLen = l
			closest = c
			at = p
		}
	}
	return closest, at
}

// CreateExplosion records an area effect. Victims are the live characters in range whose
// team is in scope: activeTeam NoTeam means all teams, and mask filters by team bit.
func (w *GameWorld) CreateExplosion(pos Vec2, owner int, kind WeaponKind, environmental bool, activeTeam int, mask int64) {
	var victims []int
	for _, c := range w.nearbyCharacters(pos, pos, ExplosionRadius+ProximityRadius) {
		if !c.Alive || Distance(pos, c.Pos) > ExplosionRadius+ProximityRadius {
			continue
		}
		if activeTeam != NoTeam && c.Team != activeTeam {
			continue
		}
		if mask != TeamMaskAll && (c.Team < 0 || c.Team >= MaxTeams || mask&(1<<uint(c.Team)) == 0) {
			continue
		}
		victims = append(victims, c.ID)
	}
	w.emit(WorldEvent{
		Type:          EvtExplosion,
		Weapon:        kind,
		Owner:         owner,
		Target:        NoOwner,
		Pos:           pos,
		Team:          activeTeam,
		Mask:          mask,
		Environmental: environmental,
		Victims:       victims,
	})
}

// ApplyFreeze freezes target on behalf of p
func (w *GameWorld) ApplyFreeze(target *Character, p *Projectile) {
	if !target.Freeze() {
		return
	}
	w.emit(WorldEvent{
		Type:         EvtFreeze,
		ProjectileID: p.ID,
		Weapon:       p.Kind,
		Owner:        p.OwnerID,
		Target:       target.ID,
		Pos:          target.Pos,
		Team:         target.Team,
	})
}

// Step advances the world one tick: every projectile ticks in registration order, then
// those marked for destruction are removed.
func (w *GameWorld) Step() {
	w.tick++
	keys := append([]int(nil), w.order...)
	for _, k := range keys {
		if p, ok := w.entities[k]; ok {
			p.Tick(w)
		}
	}
	for _, k := range keys {
		p, ok := w.entities[k]
		if !ok || !p.MarkedForDestroy {
			continue
		}
		w.emit(WorldEvent{
			Type:         EvtDestroy,
			ProjectileID: p.ID,
			Weapon:       p.Kind,
			Owner:        p.OwnerID,
			Target:       NoOwner,
			Pos:          p.Pos,
			Team:         NoTeam,
		})
		w.Remove(k)
	}
}

// DrainEvents returns and clears the events recorded since the last drain
func (w *GameWorld) DrainEvents() []WorldEvent {
	ev := w.events
	w.events = nil
	return ev
}

func (w *GameWorld) emit(e WorldEvent) {
	e.Tick = w.tick
	w.events = append(w.events, e)
}

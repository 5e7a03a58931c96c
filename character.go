package main

const (
	// ProximityRadius is a character's hit radius
	ProximityRadius = 28.0
	// NoOwner marks environment-caused projectiles
	NoOwner = -1
	// NoTeam scopes an explosion to every team
	NoTeam = -1
)

// Hit-disable bits a character sets to stop its own weapons from hitting others
const (
	DisableHitHammer  uint8 = 1 << 0
	DisableHitShotgun uint8 = 1 << 1
	DisableHitGrenade uint8 = 1 << 2
	DisableHitLaser   uint8 = 1 << 3
)

// Character is the damageable target surface a projectile interacts with. Movement is
// owned elsewhere; the world only reads position and collision policy.
type Character struct {
	ID     int
	Name   string
	Pos    Vec2
	Team   int
	Alive  bool
	Frozen bool
	Hit    uint8
	// Solo characters neither hit nor are hit by others
	Solo bool
	// NoCollide lists owner ids whose projectiles pass through this character
	NoCollide map[int]bool
}

// NewCharacter creates a live character
func NewCharacter(id int, name string, pos Vec2, team int) *Character {
	return &Character{
		ID:    id,
		Name:  name,
		Pos:   pos,
		Team:  team,
		Alive: true,
	}
}

// CanCollide reports whether shots from ownerID may hit this character
func (c *Character) CanCollide(ownerID int) bool {
	if ownerID == c.ID {
		return true
	}
	if c.Solo {
		return false
	}
	return !c.NoCollide[ownerID]
}

// SetNoCollide toggles whether ownerID's shots pass through this character
func (c *Character) SetNoCollide(ownerID int, on bool) {
	if c.NoCollide == nil {
		c.NoCollide = make(map[int]bool)
	}
	if on {
		c.NoCollide[ownerID] = true
	} else {
		delete(c.NoCollide, ownerID)
	}
}

// Freeze stops the character. Returns false if it was already frozen.
func (c *Character) Freeze() bool {
	if c.Frozen {
		return false
	}
	c.Frozen = true
	return true
}

// ToState converts to protocol state
func (c *Character) ToState() CharacterState {
	return CharacterState{
		ID:     c.ID,
		Name:   c.Name,
		Pos:    c.Pos,
		Team:   c.Team,
		Alive:  c.Alive,
		Frozen: c.Frozen,
	}
}

package main

import "math"

const (
	TileSize = 32.0
	// clipMarginTiles is how far outside the map a position may go before it counts as
	// having left the playable area
	clipMarginTiles = 200
	// LayerSwitch identifies projectiles gated by a switch number
	LayerSwitch = 1
	// MaxTeams bounds per-team switch state
	MaxTeams = 64
)

//go:generate go tool mockgen -source=collision.go -destination=mock_collision_test.go -package=main CollisionQuerier

// CollisionQuerier answers static-geometry questions for the simulation
type CollisionQuerier interface {
	// IntersectLine walks a to b. On a hit it returns the first solid point and the last
	// free point before it; otherwise both points are b.
	IntersectLine(a, b Vec2) (hit bool, collision Vec2, rest Vec2)
	// Clipped reports whether pos is outside the playable bounds
	Clipped(pos Vec2) bool
	// TuneZoneAt returns the tune zone covering pos, 0 if none
	TuneZoneAt(pos Vec2) int
	// SwitchActive reports whether switch number is on for team
	SwitchActive(number, team int) bool
}

// openSpace is an unbounded world with no geometry, used when a world has no map
type openSpace struct{}

func (openSpace) IntersectLine(_, b Vec2) (bool, Vec2, Vec2) { return false, b, b }
func (openSpace) Clipped(Vec2) bool                          { return false }
func (openSpace) TuneZoneAt(Vec2) int                        { return 0 }
func (openSpace) SwitchActive(int, int) bool                 { return false }

// TileRect is a rectangle in tile coordinates, inclusive of both corners
type TileRect struct {
	X0 int `yaml:"x0"`
	Y0 int `yaml:"y0"`
	X1 int `yaml:"x1"`
	Y1 int `yaml:"y1"`
}

// TileMap is a grid of 32-unit tiles with a solid layer and a tune layer
type TileMap struct {
	width, height int
	solid         []bool
	tune          []uint8
	switches      map[int]*[MaxTeams]bool
}

// NewTileMap creates an empty map of w x h tiles
func NewTileMap(w, h int) *TileMap {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return &TileMap{
		width:    w,
		height:   h,
		solid:    make([]bool, w*h),
		tune:     make([]uint8, w*h),
		switches: make(map[int]*[MaxTeams]bool),
	}
}

// NewArena creates a map with a solid one-tile border
func NewArena(w, h int) *TileMap {
	m := NewTileMap(w, h)
	m.FillSolid(TileRect{0, 0, m.width - 1, 0})
	m.FillSolid(TileRect{0, m.height - 1, m.width - 1, m.height - 1})
	m.FillSolid(TileRect{0, 0, 0, m.height - 1})
	m.FillSolid(TileRect{m.width - 1, 0, m.width - 1, m.height - 1})
	return m
}

func (m *TileMap) Width() int  { return m.width }
func (m *TileMap) Height() int { return m.height }

// tileIdx clamps tile coordinates into the grid
func (m *TileMap) tileIdx(tx, ty int) int {
	if tx < 0 {
		tx = 0
	} else if tx >= m.width {
		tx = m.width - 1
	}
	if ty < 0 {
		ty = 0
	} else if ty >= m.height {
		ty = m.height - 1
	}
	return ty*m.width + tx
}

func (m *TileMap) forRect(r TileRect, fn func(idx int)) {
	x0, x1 := min(r.X0, r.X1), max(r.X0, r.X1)
	y0, y1 := min(r.Y0, r.Y1), max(r.Y0, r.Y1)
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, m.width-1), min(y1, m.height-1)
	for ty := y0; ty <= y1; ty++ {
		for tx := x0; tx <= x1; tx++ {
			fn(ty*m.width + tx)
		}
	}
}

// FillSolid marks every tile in r as solid
func (m *TileMap) FillSolid(r TileRect) {
	m.forRect(r, func(idx int) { m.solid[idx] = true })
}

// FillTune assigns a tune zone to every tile in r
func (m *TileMap) FillTune(r TileRect, zone uint8) {
	m.forRect(r, func(idx int) { m.tune[idx] = zone })
}

// SetSwitch sets switch number on or off for one team
func (m *TileMap) SetSwitch(number, team int, on bool) {
	if team < 0 || team >= MaxTeams {
		return
	}
	s, ok := m.switches[number]
	if !ok {
		s = new([MaxTeams]bool)
		m.switches[number] = s
	}
	s[team] = on
}

// SwitchActive implements CollisionQuerier
func (m *TileMap) SwitchActive(number, team int) bool {
	if team < 0 || team >= MaxTeams {
		return false
	}
	s, ok := m.switches[number]
	return ok && s[team]
}

// solidAt reports whether a world point lies in a solid tile. Outside the grid counts
// as solid.
func (m *TileMap) solidAt(x, y int) bool {
	tx := int(math.Floor(float64(x) / TileSize))
	ty := int(math.Floor(float64(y) / TileSize))
	if tx < 0 || ty < 0 || tx >= m.width || ty >= m.height {
		return true
	}
	return m.solid[ty*m.width+tx]
}

// IntersectLine implements CollisionQuerier by probing one point per unit of distance
func (m *TileMap) IntersectLine(a, b Vec2) (bool, Vec2, Vec2) {
	end := int(Distance(a, b) + 1)
	last := a
	for i := 0; i <= end; i++ {
		p := Mix(a, b, float64(i)/float64(end))
		if m.solidAt(roundToInt(p.X), roundToInt(p.Y)) {
			return true, p, last
		}
		last = p
	}
	return false, b, b
}

// Clipped implements CollisionQuerier
func (m *TileMap) Clipped(pos Vec2) bool {
	tx := roundToInt(pos.X) / int(TileSize)
	ty := roundToInt(pos.Y) / int(TileSize)
	return tx < -clipMarginTiles || tx > m.width+clipMarginTiles ||
		ty < -clipMarginTiles || ty > m.height+clipMarginTiles
}

// TuneZoneAt implements CollisionQuerier
func (m *TileMap) TuneZoneAt(pos Vec2) int {
	tx := int(math.Floor(pos.X / TileSize))
	ty := int(math.Floor(pos.Y / TileSize))
	if tx < 0 || ty < 0 || tx >= m.width || ty >= m.height {
		return 0
	}
	return int(m.tune[m.tileIdx(tx, ty)])
}

// segmentCircleIntersect checks if segment a-b passes within r of c, returning the
// closest point on the segment. A zero-length segment never intersects.
func segmentCircleIntersect(a, b, c Vec2, r float64) (Vec2, bool) {
	p, ok := ClosestPointOnLine(a, b, c)
	if !ok {
		return a, false
	}
	return p, Distance(p, c) < r
}

package main

import (
	"math"
	"slices"
)

// CharacterCellSize is the grid cell edge, two tiles
const CharacterCellSize = 2 * TileSize

type cellKey struct{ X, Y int }

// CharacterGrid is a sparse uniform grid for broad-phase character queries. Each
// character sits in the cell holding its position, so queries widen their box by the
// hit radius instead.
type CharacterGrid struct {
	cells map[cellKey][]*Character
	count int
}

// NewCharacterGrid creates an empty grid
func NewCharacterGrid() *CharacterGrid {
	return &CharacterGrid{cells: make(map[cellKey][]*Character)}
}

func cellCoord(v float64) int {
	return int(math.Floor(v / CharacterCellSize))
}

// Rebuild re-indexes chars by their current positions (keeps allocated cells)
func (g *CharacterGrid) Rebuild(chars []*Character) {
	for k, cell := range g.cells {
		if len(cell) == 0 {
			delete(g.cells, k)
			continue
		}
		g.cells[k] = cell[:0]
	}
	for _, c := range chars {
		k := cellKey{cellCoord(c.Pos.X), cellCoord(c.Pos.Y)}
		g.cells[k] = append(g.cells[k], c)
	}
	g.count = len(chars)
}

// Len returns the number of indexed characters
func (g *CharacterGrid) Len() int { return g.count }

// Query returns the characters whose position may lie within r of segment a-b,
// ordered by id
func (g *CharacterGrid) Query(a, b Vec2, r float64) []*Character {
	minCX, maxCX := cellCoord(min(a.X, b.X)-r), cellCoord(max(a.X, b.X)+r)
	minCY, maxCY := cellCoord(min(a.Y, b.Y)-r), cellCoord(max(a.Y, b.Y)+r)

	var result []*Character
	// A long segment covers more cells than there are characters; scan them all instead
	if span := (maxCX - minCX + 1) * (maxCY - minCY + 1); span <= 0 || span > 4*g.count+16 {
		for _, cell := range g.cells {
			result = append(result, cell...)
		}
	} else {
		for cy := minCY; cy <= maxCY; cy++ {
			for cx := minCX; cx <= maxCX; cx++ {
				result = append(result, g.cells[cellKey{cx, cy}]...)
			}
		}
	}
	slices.SortFunc(result, func(x, y *Character) int { return x.ID - y.ID })
	return result
}

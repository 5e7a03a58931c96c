package main

import (
	"math"

	"github.com/google/uuid"
)

// Vec2 is a world-space vector. The world is y-down, 32 units per tile.
type Vec2 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Dot(o Vec2) float64 { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Length() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y) }
func (v Vec2) Equal(o Vec2) bool { return v.X == o.X && v.Y == o.Y }

// Distance returns the distance between two points
func Distance(a, b Vec2) float64 {
	return b.Sub(a).Length()
}

// Mix linearly interpolates from a to b
func Mix(a, b Vec2, t float64) Vec2 {
	return a.Add(b.Sub(a).Scale(t))
}

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// ClosestPointOnLine projects p onto segment a-b. Returns false for a degenerate segment,
// in which case the result is a.
func ClosestPointOnLine(a, b, p Vec2) (Vec2, bool) {
	ab := b.Sub(a)
	sq := ab.Dot(ab)
	if sq <= 0 {
		return a, false
	}
	t := p.Sub(a).Dot(ab) / sq
	return a.Add(ab.Scale(Clamp(t, 0, 1))), true
}

// roundToInt rounds half away from zero, matching the tile probe used by the server.
func roundToInt(f float64) int {
	if f > 0 {
		return int(f + 0.5)
	}
	return int(f - 0.5)
}

// GenerateUUID returns a random v4 UUID string
func GenerateUUID() string {
	return uuid.NewString()
}

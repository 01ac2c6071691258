// Package geom provides plane coordinates and distance helpers for the
// combat simulation.
package geom

import "math"

// Vec2 is a point or displacement in the simulation plane.
type Vec2 struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }

// Len returns the Euclidean length of v.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Distance returns the Euclidean distance between a and b.
//
// Postcondition: Returns >= 0.
func Distance(a, b Vec2) float64 {
	return b.Sub(a).Len()
}

// StepToward moves from toward to by at most maxStep units.
//
// Postcondition: the result lies on the segment [from, to]; when the distance is 0
// or maxStep <= 0, from is returned unchanged.
func StepToward(from, to Vec2, maxStep float64) Vec2 {
	d := Distance(from, to)
	if d == 0 || maxStep <= 0 {
		return from
	}
	if maxStep >= d {
		return to
	}
	scale := maxStep / d
	return Vec2{
		X: from.X + (to.X-from.X)*scale,
		Y: from.Y + (to.Y-from.Y)*scale,
	}
}

// OnCircle returns the point at angle radians on the circle of radius r around center.
func OnCircle(center Vec2, r, angle float64) Vec2 {
	return Vec2{X: center.X + r*math.Cos(angle), Y: center.Y + r*math.Sin(angle)}
}

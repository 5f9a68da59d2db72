package visualization

import (
	"math"
	"slices"
)

// Simulation constants, matching the usual force layout schedule: alpha
// decays from 1 to AlphaMin in about 300 ticks.
const (
	AlphaStart    = 1.0
	AlphaMin      = 0.001
	VelocityDecay = 0.4
)

// AlphaDecay is the per-tick decay that takes alpha from AlphaStart to
// AlphaMin in 300 ticks.
var AlphaDecay = 1 - math.Pow(AlphaMin, 1.0/300)

// Body is the physical state of one node: position, velocity and the
// position its x and y forces pull it towards.
type Body struct {
	X, Y             float64
	VX, VY           float64
	TargetX, TargetY float64
}

// Forces parameterises Step.
type Forces struct {
	// CollideRadius is half the minimum distance between two centres.
	CollideRadius   float64
	CollideStrength float64
	XStrength       float64
	YStrength       float64
}

// ForcesFrom derives the forces of a timeline from its config.
func ForcesFrom(c Config) Forces {
	return Forces{
		CollideRadius:   c.collideRadius(),
		CollideStrength: c.CollideStrength,
		XStrength:       c.XStrength,
		YStrength:       c.YStrength,
	}
}

// Step advances the bodies by one tick at the given alpha: collision,
// then the x pull, then the y pull, then velocity decay and integration.
// It does not modify bodies.
func Step(bodies []Body, alpha float64, f Forces) []Body {
	out := slices.Clone(bodies)
	collide(out, f.CollideRadius, f.CollideStrength)
	for i := range out {
		b := &out[i]
		b.VX += (b.TargetX - b.X) * f.XStrength * alpha
		b.VY += (b.TargetY - b.Y) * f.YStrength * alpha
	}
	for i := range out {
		b := &out[i]
		b.VX *= 1 - VelocityDecay
		b.VY *= 1 - VelocityDecay
		b.X += b.VX
		b.Y += b.VY
	}
	return out
}

type cell struct{ x, y int }

// collide pushes apart every pair of bodies whose predicted positions are
// closer than twice the radius. Candidate pairs come from a uniform grid
// with cells as large as the collision distance.
func collide(bodies []Body, radius, strength float64) {
	if len(bodies) < 2 || radius <= 0 || strength == 0 {
		return
	}
	size := 2 * radius
	at := func(x, y float64) cell {
		return cell{int(math.Floor(x / size)), int(math.Floor(y / size))}
	}

	grid := make(map[cell][]int, len(bodies))
	for i, b := range bodies {
		c := at(b.X+b.VX, b.Y+b.VY)
		grid[c] = append(grid[c], i)
	}

	r := 2 * radius
	for i := range bodies {
		bi := &bodies[i]
		xi, yi := bi.X+bi.VX, bi.Y+bi.VY
		home := at(xi, yi)
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				for _, j := range grid[cell{home.x + dx, home.y + dy}] {
					if j <= i {
						continue
					}
					bj := &bodies[j]
					x := xi - bj.X - bj.VX
					y := yi - bj.Y - bj.VY
					l := x*x + y*y
					if l >= r*r {
						continue
					}
					if x == 0 {
						x = jiggle(i, j)
						l += x * x
					}
					if y == 0 {
						y = jiggle(j, i)
						l += y * y
					}
					l = math.Sqrt(l)
					l = (r - l) / l * strength
					x *= l
					y *= l
					// Equal radii: each body takes half of the correction.
					bi.VX += x / 2
					bi.VY += y / 2
					bj.VX -= x / 2
					bj.VY -= y / 2
				}
			}
		}
	}
}

// jiggle separates coincident bodies by a tiny offset derived from their
// indices, keeping Step deterministic.
func jiggle(i, j int) float64 {
	v := (float64((i*7919+j*104729)%1000)/1000 - 0.5) * 1e-6
	if v == 0 {
		return 1e-7
	}
	return v
}

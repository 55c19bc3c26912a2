package sgp4

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// OrbitalElements holds mean Keplerian elements. Angles are in radians and the
// mean motion is in radians per minute.
//
// The type is a plain value: the propagation stages take one and return a new
// one, so a Propagator's epoch elements are never modified.
type OrbitalElements struct {
	Eccentricity  float64
	Inclination   float64 // rad
	MeanMotion    float64 // rad/min
	MeanAnomaly   float64 // rad
	ArgPerigee    float64 // rad
	AscendingNode float64 // rad
}

// Period returns the orbital period in minutes.
func (e OrbitalElements) Period() float64 {
	return twoPi / e.MeanMotion
}

// Reflect folds a negative inclination back into [0, π]: the inclination is
// negated, the node is advanced by π and the perigee moved back by π.
// Elements with a non-negative inclination are returned unchanged.
func (e OrbitalElements) Reflect() OrbitalElements {
	if e.Inclination >= 0 {
		return e
	}
	e.Inclination = -e.Inclination
	e.AscendingNode = e.AscendingNode + math.Pi
	e.ArgPerigee = e.ArgPerigee - math.Pi
	return e
}

// MotionState is a Cartesian state in the model's native (TEME) frame.
type MotionState struct {
	Position [3]float64 // m
	Velocity [3]float64 // m/s
}

// Radius returns the distance from the Earth's center in meters.
func (s MotionState) Radius() float64 {
	return floats.Norm(s.Position[:], 2)
}

// Speed returns the velocity magnitude in meters per second.
func (s MotionState) Speed() float64 {
	return floats.Norm(s.Velocity[:], 2)
}

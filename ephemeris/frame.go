package ephemeris

import (
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
	"gonum.org/v1/gonum/mat"

	"github.com/edpier/sky-sub002/sgp4"
)

// omegaEarth is the Earth's rotation rate in rad/s.
const omegaEarth = 7.292115146706979e-5

// Frame selects the coordinate frame of the rows a Pool produces.
type Frame int

const (
	// FrameTEME leaves states in the propagator's true equator, mean equinox frame.
	FrameTEME Frame = iota
	// FrameEarthFixed rotates states into a pseudo Earth-fixed frame.
	FrameEarthFixed
)

func (f Frame) String() string {
	switch f {
	case FrameTEME:
		return "teme"
	case FrameEarthFixed:
		return "earth-fixed"
	default:
		return "unknown"
	}
}

// ParseFrame accepts "teme" or "earth-fixed", case insensitive.
func ParseFrame(s string) (Frame, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "teme":
		return FrameTEME, nil
	case "earth-fixed", "ecef", "pef":
		return FrameEarthFixed, nil
	}
	return 0, errors.Errorf("unknown frame %q", s)
}

// EarthFixed rotates a TEME state at UTC time t about the pole by the mean
// sidereal angle. Polar motion and the equation of the equinoxes are ignored.
func EarthFixed(state sgp4.MotionState, t time.Time) sgp4.MotionState {
	theta := sidereal.Mean(julian.TimeToJD(t.UTC())).Angle().Rad()
	sinT, cosT := math.Sincos(theta)
	rot := mat.NewDense(3, 3, []float64{
		cosT, sinT, 0,
		-sinT, cosT, 0,
		0, 0, 1,
	})

	var r, v mat.VecDense
	r.MulVec(rot, mat.NewVecDense(3, []float64{state.Position[0], state.Position[1], state.Position[2]}))
	v.MulVec(rot, mat.NewVecDense(3, []float64{state.Velocity[0], state.Velocity[1], state.Velocity[2]}))

	// v_ef = R v - ω × r_ef
	return sgp4.MotionState{
		Position: [3]float64{r.AtVec(0), r.AtVec(1), r.AtVec(2)},
		Velocity: [3]float64{
			v.AtVec(0) + omegaEarth*r.AtVec(1),
			v.AtVec(1) - omegaEarth*r.AtVec(0),
			v.AtVec(2),
		},
	}
}

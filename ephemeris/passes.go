package ephemeris

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/edpier/sky-sub002/sgp4"
)

// Pass is one interval during which an object stays above an Observer's
// minimum elevation.
type Pass struct {
	AOS          time.Time // rise, or the search start if already up
	TCA          time.Time // highest elevation
	LOS          time.Time // set, or the search end if still up
	MaxElevation float64   // degrees
	AOSLook      Look
	TCALook      Look
	LOSLook      Look
}

// Duration is the time between AOS and LOS.
func (p Pass) Duration() time.Duration {
	return p.LOS.Sub(p.AOS)
}

const (
	passStep       = 1.0  // coarse sampling, minutes
	crossingTol    = 1e-4 // minutes
	maxBisections  = 50
	maxSearchSteps = 100
)

type lookFunc func(m float64) (Look, error)

// FindPasses returns the passes of p over obs between start and end whose
// elevation reaches minElevation degrees. When the propagator reports decay
// the passes found before it are returned along with the error.
func FindPasses(ctx context.Context, p *sgp4.Propagator, obs Observer, start, end time.Time, minElevation float64) ([]Pass, error) {
	if err := obs.validate(); err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, errors.Errorf("pass window end %v is not after start %v", end, start)
	}

	at := func(m float64) time.Time {
		return start.Add(time.Duration(m * float64(time.Minute)))
	}
	look := func(m float64) (Look, error) {
		t := at(m)
		state, err := p.PropagateAt(t)
		if err != nil {
			return Look{}, err
		}
		return obs.LookAngles(EarthFixed(state, t))
	}

	span := end.Sub(start).Minutes()
	var (
		passes []Pass
		up     bool
		aos    float64
		aosLk  Look
		prev   float64
	)
	for t := 0.0; ; t += passStep {
		if t > span {
			t = span
		}
		if err := ctx.Err(); err != nil {
			return passes, errors.Wrap(err, "pass search cancelled")
		}
		lk, err := look(t)
		if err != nil {
			return passes, errors.Wrapf(err, "pass search at %v", at(t).UTC().Format(time.RFC3339))
		}
		above := lk.Elevation >= minElevation

		switch {
		case above && !up && t == 0:
			aos, aosLk = 0, lk
			up = true
		case above && !up:
			aos, aosLk = crossing(look, prev, t, minElevation, true)
			up = true
		case !above && up:
			los, losLk := crossing(look, prev, t, minElevation, false)
			passes = append(passes, closePass(look, at, aos, los, aosLk, losLk))
			up = false
		}

		if t >= span {
			if up {
				passes = append(passes, closePass(look, at, aos, span, aosLk, lk))
			}
			return passes, nil
		}
		prev = t
	}
}

// crossing bisects [lo, hi] for the time elevation crosses threshold.
// Samples that fail to propagate count as below the horizon.
func crossing(look lookFunc, lo, hi, threshold float64, rising bool) (float64, Look) {
	above := func(m float64) (bool, Look) {
		lk, err := look(m)
		if err != nil {
			return false, lk
		}
		return lk.Elevation >= threshold, lk
	}
	for i := 0; i < maxBisections && hi-lo > crossingTol; i++ {
		mid := (lo + hi) / 2
		if up, _ := above(mid); up == rising {
			hi = mid
		} else {
			lo = mid
		}
	}
	t := hi
	if !rising {
		t = lo
	}
	_, lk := above(t)
	return t, lk
}

func closePass(look lookFunc, at func(float64) time.Time, aos, los float64, aosLk, losLk Look) Pass {
	tca, tcaLk := highest(look, aos, los)
	return Pass{
		AOS:          at(aos),
		TCA:          at(tca),
		LOS:          at(los),
		MaxElevation: tcaLk.Elevation,
		AOSLook:      aosLk,
		TCALook:      tcaLk,
		LOSLook:      losLk,
	}
}

// highest searches [lo, hi] for maximum elevation: a coarse scan, then a
// finer one around the best coarse sample.
func highest(look lookFunc, lo, hi float64) (float64, Look) {
	best, bestLk := lo, Look{Elevation: math.Inf(-1)}
	scan := func(from, to float64) {
		dt := (to - from) / maxSearchSteps
		for i := 0; i <= maxSearchSteps; i++ {
			t := from + float64(i)*dt
			lk, err := look(t)
			if err == nil && lk.Elevation > bestLk.Elevation {
				best, bestLk = t, lk
			}
		}
	}
	scan(lo, hi)
	dt := (hi - lo) / maxSearchSteps
	scan(math.Max(lo, best-dt), math.Min(hi, best+dt))
	return best, bestLk
}

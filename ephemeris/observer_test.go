package ephemeris

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/edpier/sky-sub002/sgp4"
)

func TestSubPointRoundTrip(t *testing.T) {
	tests := []Observer{
		{Latitude: 0, Longitude: 0, Altitude: 0},
		{Latitude: 48.8566, Longitude: 2.3522, Altitude: 35},
		{Latitude: -33.8688, Longitude: 151.2093, Altitude: 58},
		{Latitude: 64.1, Longitude: -21.9, Altitude: 400e3},
		{Latitude: 89.9, Longitude: -120, Altitude: 1500},
	}
	for _, obs := range tests {
		got := SubPoint(sgp4.MotionState{Position: obs.position()})
		if !scalar.EqualWithinAbs(got.Latitude, obs.Latitude, 1e-9) ||
			!scalar.EqualWithinAbs(got.Longitude, obs.Longitude, 1e-9) ||
			!scalar.EqualWithinAbs(got.Altitude, obs.Altitude, 1e-3) {
			t.Errorf("SubPoint(%+v) = %+v", obs, got)
		}
	}
}

func TestLookAngles(t *testing.T) {
	obs := Observer{Latitude: 0, Longitude: 0}
	site := obs.position()

	tests := []struct {
		name   string
		state  sgp4.MotionState
		az, el float64
		rng    float64
		rate   float64
	}{
		{
			name:  "zenith",
			state: sgp4.MotionState{Position: [3]float64{site[0] + 500e3, 0, 0}, Velocity: [3]float64{1000, 0, 7000}},
			el:    90, rng: 500e3, rate: 1000,
		},
		{
			name:  "east horizon",
			state: sgp4.MotionState{Position: [3]float64{site[0], 2000e3, 0}},
			az:    90, el: 0, rng: 2000e3,
		},
		{
			name:  "north horizon",
			state: sgp4.MotionState{Position: [3]float64{site[0], 0, 1000e3}, Velocity: [3]float64{0, 0, -10}},
			az:    0, el: 0, rng: 1000e3, rate: -10,
		},
		{
			name:  "south west, 45 up",
			state: sgp4.MotionState{Position: [3]float64{site[0] + 1000e3, -1000e3 / math.Sqrt2, -1000e3 / math.Sqrt2}},
			az:    225, el: 45, rng: 1000e3 * math.Sqrt2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := obs.LookAngles(tt.state)
			if err != nil {
				t.Fatalf("LookAngles: %v", err)
			}
			if tt.el != 90 && !scalar.EqualWithinAbs(got.Azimuth, tt.az, 1e-9) {
				t.Errorf("azimuth = %v, want %v", got.Azimuth, tt.az)
			}
			if !scalar.EqualWithinAbs(got.Elevation, tt.el, 1e-9) {
				t.Errorf("elevation = %v, want %v", got.Elevation, tt.el)
			}
			if !scalar.EqualWithinAbs(got.Range, tt.rng, 1e-6) {
				t.Errorf("range = %v, want %v", got.Range, tt.rng)
			}
			if !scalar.EqualWithinAbs(got.RangeRate, tt.rate, 1e-9) {
				t.Errorf("range rate = %v, want %v", got.RangeRate, tt.rate)
			}
		})
	}
}

func TestLookAnglesRejectsBadObserver(t *testing.T) {
	for _, obs := range []Observer{{Latitude: 91}, {Latitude: math.NaN()}, {Longitude: math.Inf(1)}} {
		if _, err := obs.LookAngles(sgp4.MotionState{Position: [3]float64{7000e3, 0, 0}}); err == nil {
			t.Errorf("LookAngles accepted observer %+v", obs)
		}
	}
}

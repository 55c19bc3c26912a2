package sgp4

import (
	"math"
	"testing"
	"time"
)

func TestDaysSince1950(t *testing.T) {
	tests := []struct {
		t    time.Time
		want float64
	}{
		{time.Date(1949, time.December, 31, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC), 18263.5},
		{time.Date(2000, time.January, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600)), 18263.5 - 1.0/24},
	}
	for _, tt := range tests {
		if got := daysSince1950(tt.t); math.Abs(got-tt.want) > 1e-8 {
			t.Errorf("daysSince1950(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestGreenwichAngle(t *testing.T) {
	// J2000.0: GMST 280.46061837 degrees
	got := greenwichAngle(18263.5)
	want := 280.46061837 * deg2rad
	if math.Abs(got-want) > 1e-8 {
		t.Errorf("greenwichAngle(J2000) = %v, want %v", got, want)
	}
	for _, ds50 := range []float64{-3000.2, 0, 7305, 20630.33, 27000.9} {
		if g := greenwichAngle(ds50); g < 0 || g >= twoPi {
			t.Errorf("greenwichAngle(%v) = %v outside [0, 2π)", ds50, g)
		}
	}
}

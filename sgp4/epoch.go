package sgp4

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// daysSince1950 returns the days elapsed since 1950 Jan 0.0 UT.
func daysSince1950(t time.Time) float64 {
	return julian.TimeToJD(t.UTC()) - jd1950
}

// greenwichAngle returns the Greenwich sidereal angle in radians for ds50 days
// since 1950, using the 1970-anchored series the element sets were fitted with.
func greenwichAngle(ds50 float64) float64 {
	const (
		c1     = 1.72027916940703639e-2
		thgr70 = 1.7321343856509374
		fk5r   = 5.07551419432269442e-15
	)
	ts70 := ds50 - 7305.0
	ds70 := math.Floor(ts70 + 1.0e-8)
	tfrac := ts70 - ds70
	gsto := math.Mod(thgr70+c1*ds70+(c1+twoPi)*tfrac+ts70*ts70*fk5r, twoPi)
	if gsto < 0 {
		gsto += twoPi
	}
	return gsto
}

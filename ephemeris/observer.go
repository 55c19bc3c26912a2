package ephemeris

import (
	"math"

	"github.com/pkg/errors"
	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/floats"

	"github.com/edpier/sky-sub002/sgp4"
)

// WGS-84 ellipsoid, used for ground sites and sub-satellite points.
const (
	equatorialRadius = 6378137.0 // m
	flattening       = 1 / 298.257223563
	eccSquared       = flattening * (2 - flattening)
)

// Observer is a ground site.
type Observer struct {
	Latitude  float64 // geodetic, degrees north
	Longitude float64 // degrees east
	Altitude  float64 // meters above the ellipsoid
}

// Look is the topocentric view of an object from an Observer.
type Look struct {
	Azimuth   float64 // degrees clockwise from north, [0, 360)
	Elevation float64 // degrees above the horizon
	Range     float64 // m
	RangeRate float64 // m/s, positive when receding
}

// Geodetic is a point given by latitude, longitude and height on the ellipsoid.
type Geodetic struct {
	Latitude  float64 // degrees
	Longitude float64 // degrees, (-180, 180]
	Altitude  float64 // m
}

func (o Observer) validate() error {
	if math.IsNaN(o.Latitude) || o.Latitude < -90 || o.Latitude > 90 {
		return errors.Errorf("observer latitude %v outside [-90, 90]", o.Latitude)
	}
	if math.IsNaN(o.Longitude) || math.IsInf(o.Longitude, 0) {
		return errors.Errorf("invalid observer longitude %v", o.Longitude)
	}
	return nil
}

// position returns the site's Earth-fixed position in meters.
func (o Observer) position() [3]float64 {
	sinLat, cosLat := math.Sincos(unit.AngleFromDeg(o.Latitude).Rad())
	sinLon, cosLon := math.Sincos(unit.AngleFromDeg(o.Longitude).Rad())
	n := equatorialRadius / math.Sqrt(1-eccSquared*sinLat*sinLat)
	return [3]float64{
		(n + o.Altitude) * cosLat * cosLon,
		(n + o.Altitude) * cosLat * sinLon,
		(n*(1-eccSquared) + o.Altitude) * sinLat,
	}
}

// LookAngles returns the view of an object whose Earth-fixed state is ef,
// as produced by EarthFixed.
func (o Observer) LookAngles(ef sgp4.MotionState) (Look, error) {
	if err := o.validate(); err != nil {
		return Look{}, err
	}
	site := o.position()
	rel := make([]float64, 3)
	floats.SubTo(rel, ef.Position[:], site[:])

	rng := floats.Norm(rel, 2)
	if rng == 0 {
		return Look{Elevation: 90}, nil
	}

	sinLat, cosLat := math.Sincos(unit.AngleFromDeg(o.Latitude).Rad())
	sinLon, cosLon := math.Sincos(unit.AngleFromDeg(o.Longitude).Rad())

	// south, east, zenith components
	s := sinLat*cosLon*rel[0] + sinLat*sinLon*rel[1] - cosLat*rel[2]
	e := -sinLon*rel[0] + cosLon*rel[1]
	z := cosLat*cosLon*rel[0] + cosLat*sinLon*rel[1] + sinLat*rel[2]

	az := unit.Angle(math.Atan2(e, -s)).Deg()
	if az < 0 {
		az += 360
	}
	return Look{
		Azimuth:   az,
		Elevation: unit.Angle(math.Asin(math.Max(-1, math.Min(1, z/rng)))).Deg(),
		Range:     rng,
		RangeRate: floats.Dot(rel, ef.Velocity[:]) / rng,
	}, nil
}

// SubPoint returns the geodetic point below an Earth-fixed position.
func SubPoint(ef sgp4.MotionState) Geodetic {
	x, y, z := ef.Position[0], ef.Position[1], ef.Position[2]
	r := math.Hypot(x, y)
	lon := math.Atan2(y, x)
	lat := math.Atan2(z, r*(1-eccSquared))

	var n float64
	for i := 0; i < 10; i++ {
		sinLat := math.Sin(lat)
		n = equatorialRadius / math.Sqrt(1-eccSquared*sinLat*sinLat)
		next := math.Atan2(z+n*eccSquared*sinLat, r)
		if math.Abs(next-lat) < 1e-12 {
			lat = next
			break
		}
		lat = next
	}

	sinLat, cosLat := math.Sincos(lat)
	n = equatorialRadius / math.Sqrt(1-eccSquared*sinLat*sinLat)
	var alt float64
	if math.Abs(cosLat) < 1e-10 {
		alt = math.Abs(z) - equatorialRadius*math.Sqrt(1-eccSquared)
	} else {
		alt = r/cosLat - n
	}
	return Geodetic{
		Latitude:  unit.Angle(lat).Deg(),
		Longitude: unit.Angle(lon).Deg(),
		Altitude:  alt,
	}
}

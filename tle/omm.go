package tle

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/edpier/sky-sub002/sgp4"
)

// OMM represents a single Orbit Mean-elements Message object from a JSON representation.
// Fields are based on the CCSDS OMM standard and the JSON served by space-track.org and CelesTrak.
type OMM struct {
	ObjectName         string  `json:"OBJECT_NAME"`
	ObjectID           string  `json:"OBJECT_ID"`   // e.g., "1998-067A"
	EpochStr           string  `json:"EPOCH"`       // ISO 8601 e.g., "2025-05-26T13:06:57.824640"
	MeanMotion         float64 `json:"MEAN_MOTION"` // rev/day
	Eccentricity       float64 `json:"ECCENTRICITY"`
	Inclination        float64 `json:"INCLINATION"`         // degrees
	RAOfAscNode        float64 `json:"RA_OF_ASC_NODE"`      // degrees
	ArgOfPericenter    float64 `json:"ARG_OF_PERICENTER"`   // degrees
	MeanAnomaly        float64 `json:"MEAN_ANOMALY"`        // degrees
	EphemerisType      int     `json:"EPHEMERIS_TYPE"`      // 0 for SGP4 mean elements
	ClassificationType string  `json:"CLASSIFICATION_TYPE"` // e.g., "U" for unclassified
	NoradCatID         int     `json:"NORAD_CAT_ID"`
	ElementSetNo       int     `json:"ELEMENT_SET_NO"`
	RevAtEpoch         int     `json:"REV_AT_EPOCH"`
	BStar              float64 `json:"BSTAR"`            // 1/earth radii
	MeanMotionDot      float64 `json:"MEAN_MOTION_DOT"`  // rev/day^2, already halved
	MeanMotionDDot     float64 `json:"MEAN_MOTION_DDOT"` // rev/day^3, already divided by six

	CenterName        string `json:"CENTER_NAME,omitempty"`
	RefFrame          string `json:"REF_FRAME,omitempty"`
	TimeSystem        string `json:"TIME_SYSTEM,omitempty"`
	MeanElementTheory string `json:"MEAN_ELEMENT_THEORY,omitempty"`
}

// ParseOMMs parses a JSON byte slice containing an array of OMM objects.
func ParseOMMs(jsonData []byte) ([]OMM, error) {
	var omms []OMM
	if err := json.Unmarshal(jsonData, &omms); err != nil {
		return nil, errors.Wrap(err, "decoding OMM JSON")
	}
	return omms, nil
}

var (
	// layouts that carry their own zone
	zonedEpochLayouts = []string{time.RFC3339Nano, time.RFC3339}
	// layouts read as UTC
	plainEpochLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
	}
)

// parseOMMEpoch reads an ISO 8601 epoch. Strings without a zone are UTC.
// It returns the full year, the fractional day of year (1.0 is Jan 1st 00:00)
// and the UTC time.
func parseOMMEpoch(epochStr string) (year int, day float64, epoch time.Time, err error) {
	var parsed bool
	for _, layout := range zonedEpochLayouts {
		if t, perr := time.Parse(layout, epochStr); perr == nil {
			epoch, parsed = t, true
			break
		}
	}
	if !parsed {
		for _, layout := range plainEpochLayouts {
			if t, perr := time.ParseInLocation(layout, epochStr, time.UTC); perr == nil {
				epoch, parsed = t, true
				break
			}
		}
	}
	if !parsed {
		return 0, 0, time.Time{}, errors.Wrapf(ErrFormat, "invalid OMM epoch %q", epochStr)
	}

	epoch = epoch.UTC()
	year = epoch.Year()
	startOfDay := time.Date(year, epoch.Month(), epoch.Day(), 0, 0, 0, 0, time.UTC)
	fraction := float64(epoch.Sub(startOfDay).Nanoseconds()) / float64(24*time.Hour)
	day = float64(epoch.YearDay()) + fraction
	return year, day, epoch, nil
}

// internationalDesignator converts an OMM OBJECT_ID ("1998-067A") to the
// two-line form ("98067A").
func internationalDesignator(objectID string) (string, error) {
	parts := strings.Split(objectID, "-")
	if len(parts) != 2 {
		return "", errors.Wrapf(ErrFormat, "invalid OBJECT_ID %q, expected YYYY-NNNP", objectID)
	}
	year, piece := parts[0], parts[1]
	if len(year) < 2 {
		return "", errors.Wrapf(ErrFormat, "invalid OBJECT_ID year %q", year)
	}
	if len(piece) < 4 {
		return "", errors.Wrapf(ErrFormat, "invalid OBJECT_ID launch piece %q", piece)
	}
	return year[len(year)-2:] + piece, nil
}

// ToTLE converts an OMM object to a TLE object. Checksums are not part of an
// OMM and are left at zero.
func (o *OMM) ToTLE() (*TLE, error) {
	tle := &TLE{
		Name:            o.ObjectName,
		SatelliteNumber: o.NoradCatID,
		Classification:  'U',
		MeanMotionDot:   o.MeanMotionDot,
		MeanMotionDot2:  o.MeanMotionDDot,
		Bstar:           o.BStar,
		ElementNumber:   o.ElementSetNo,

		Inclination:      o.Inclination,
		RightAscension:   o.RAOfAscNode,
		Eccentricity:     o.Eccentricity,
		ArgOfPerigee:     o.ArgOfPericenter,
		MeanAnomaly:      o.MeanAnomaly,
		MeanMotion:       o.MeanMotion,
		RevolutionNumber: o.RevAtEpoch,
	}
	if len(o.ClassificationType) > 0 {
		tle.Classification = rune(o.ClassificationType[0])
	}

	var err error
	if tle.International, err = internationalDesignator(o.ObjectID); err != nil {
		return nil, errors.Wrapf(err, "object %d", o.NoradCatID)
	}
	if tle.EpochYear, tle.EpochDay, _, err = parseOMMEpoch(o.EpochStr); err != nil {
		return nil, errors.Wrapf(err, "object %d", o.NoradCatID)
	}

	if tle.Eccentricity >= 1.0 || tle.Eccentricity < 0.0 {
		return nil, errors.Wrapf(ErrFormat, "object %d: eccentricity %.10f outside [0,1)", o.NoradCatID, tle.Eccentricity)
	}
	if tle.Inclination < 0.0 || tle.Inclination > 180.0 {
		return nil, errors.Wrapf(ErrFormat, "object %d: inclination %.4f outside [0,180]", o.NoradCatID, tle.Inclination)
	}
	return tle, nil
}

// Propagator converts the message and builds a propagator for it.
func (o *OMM) Propagator(opts ...sgp4.Option) (*sgp4.Propagator, error) {
	tle, err := o.ToTLE()
	if err != nil {
		return nil, err
	}
	return tle.Propagator(opts...)
}

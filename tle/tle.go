// Package tle decodes NORAD two-line element sets and CCSDS OMM messages into
// the mean elements consumed by the sgp4 propagator.
package tle

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/soniakeys/unit"

	"github.com/edpier/sky-sub002/sgp4"
)

const (
	lineLength    = 69
	minutesPerDay = 1440.0
)

var (
	// ErrFormat is the cause of every error about the layout of an element set.
	ErrFormat = errors.New("tle: malformed element set")
	// ErrChecksum is the cause of a modulo-10 checksum mismatch.
	ErrChecksum = errors.New("tle: checksum mismatch")
)

// TLE represents a Two-Line Element set used for satellite tracking
type TLE struct {
	// Line 0 (optional name)
	Name string

	// Line 1 fields
	SatelliteNumber int
	Classification  rune
	International   string // International Designator
	EpochYear       int
	EpochDay        float64
	MeanMotionDot   float64
	MeanMotionDot2  float64
	Bstar           float64
	ElementNumber   int
	CheckSum1       int

	// Line 2 fields
	Inclination      float64 // deg
	RightAscension   float64 // deg
	Eccentricity     float64
	ArgOfPerigee     float64 // deg
	MeanAnomaly      float64 // deg
	MeanMotion       float64 // rev/day
	RevolutionNumber int
	CheckSum2        int
}

// Epoch returns the UTC time of the element set.
func (t *TLE) Epoch() time.Time {
	days := int(t.EpochDay)
	fractionalDay := t.EpochDay - float64(days)

	// day 1 is Jan 1st 00:00
	base := time.Date(t.EpochYear, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days-1)

	// rounding to the nanosecond avoids off-by-one errors from the float day
	nanos := int64(math.Round(fractionalDay * 86400.0 * 1e9))
	return base.Add(time.Duration(nanos))
}

// Elements returns the mean elements in radians and radians per minute.
func (t *TLE) Elements() sgp4.OrbitalElements {
	return sgp4.OrbitalElements{
		Eccentricity:  t.Eccentricity,
		Inclination:   unit.AngleFromDeg(t.Inclination).Rad(),
		MeanMotion:    t.MeanMotion * 2 * math.Pi / minutesPerDay,
		MeanAnomaly:   unit.AngleFromDeg(t.MeanAnomaly).Rad(),
		ArgPerigee:    unit.AngleFromDeg(t.ArgOfPerigee).Rad(),
		AscendingNode: unit.AngleFromDeg(t.RightAscension).Rad(),
	}
}

// Period returns the orbital period in minutes.
func (t *TLE) Period() float64 {
	return minutesPerDay / t.MeanMotion
}

// Propagator builds an SGP4/SDP4 propagator for the element set.
func (t *TLE) Propagator(opts ...sgp4.Option) (*sgp4.Propagator, error) {
	p, err := sgp4.NewPropagator(t.Epoch(), t.Elements(), t.Bstar, t.Period(), opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "satellite %05d", t.SatelliteNumber)
	}
	return p, nil
}

// IsGeostationary reports whether the mean elements describe a near
// geostationary orbit: about one sidereal revolution per day, low inclination
// and low eccentricity.
func (t *TLE) IsGeostationary() bool {
	const (
		siderealMeanMotion  = 1.0027379093509 // rev/day
		meanMotionTolerance = 0.05
		maxInclinationDeg   = 5.0
		maxEccentricity     = 0.05
	)
	if math.Abs(t.MeanMotion-siderealMeanMotion) > meanMotionTolerance {
		return false
	}
	return t.Inclination <= maxInclinationDeg && t.Eccentricity <= maxEccentricity
}

// Parse parses a two-line element set. It accepts either a two-line or
// three-line format (with satellite name).
func Parse(input string) (*TLE, error) {
	lines := strings.Split(strings.TrimSpace(input), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}

	if len(lines) < 2 || len(lines) > 3 {
		return nil, errors.Wrapf(ErrFormat, "expected 2 or 3 lines, got %d", len(lines))
	}

	tle := &TLE{}
	if len(lines) == 3 {
		tle.Name = lines[0]
		lines = lines[1:]
	}
	line1, line2 := lines[0], lines[1]

	if err := tle.parseLine1(line1); err != nil {
		return nil, errors.Wrap(err, "line 1")
	}
	if err := tle.parseLine2(line2); err != nil {
		return nil, errors.Wrap(err, "line 2")
	}

	if sum := checksum(line1); sum != tle.CheckSum1 {
		return nil, errors.Wrapf(ErrChecksum, "line 1: expected %d, computed %d", tle.CheckSum1, sum)
	}
	if sum := checksum(line2); sum != tle.CheckSum2 {
		return nil, errors.Wrapf(ErrChecksum, "line 2: expected %d, computed %d", tle.CheckSum2, sum)
	}
	return tle, nil
}

// ParseAll reads consecutive element sets, with or without name lines, until
// EOF. Blank lines are skipped. A set that fails to parse is passed to skip
// and reading continues with the next one; with a nil skip the first such
// failure is returned. Read errors are always returned.
func ParseAll(r io.Reader, skip func(error)) ([]*TLE, error) {
	var (
		sets    []*TLE
		pending []string
		lineNo  int
	)
	bad := func(err error) error {
		if skip == nil {
			return err
		}
		skip(err)
		return nil
	}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		pending = append(pending, line)
		if !strings.HasPrefix(line, "2 ") || len(pending) < 2 {
			continue
		}
		tle, err := Parse(strings.Join(pending, "\n"))
		pending = pending[:0]
		if err != nil {
			if err := bad(errors.Wrapf(err, "element set ending at line %d", lineNo)); err != nil {
				return nil, err
			}
			continue
		}
		sets = append(sets, tle)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading element sets")
	}
	if len(pending) > 0 {
		err := errors.Wrapf(ErrFormat, "incomplete element set at end of input (%d lines)", len(pending))
		if err := bad(err); err != nil {
			return nil, err
		}
	}
	return sets, nil
}

func (t *TLE) parseLine1(line string) error {
	if len(line) != lineLength {
		return errors.Wrapf(ErrFormat, "must be %d characters, got %d", lineLength, len(line))
	}
	if line[0] != '1' {
		return errors.Wrap(ErrFormat, "must begin with '1'")
	}

	var err error
	if t.SatelliteNumber, err = parseInt(line, 2, 7, "satellite number"); err != nil {
		return err
	}
	t.Classification = rune(line[7])
	t.International = strings.TrimSpace(line[9:17])

	year, err := parseInt(line, 18, 20, "epoch year")
	if err != nil {
		return err
	}
	// two digit years below 57 are in the 21st century
	if year < 57 {
		t.EpochYear = 2000 + year
	} else {
		t.EpochYear = 1900 + year
	}

	if t.EpochDay, err = parseFloat(line, 20, 32, "epoch day"); err != nil {
		return err
	}
	if t.MeanMotionDot, err = parseFloat(line, 33, 43, "mean motion dot"); err != nil {
		return err
	}
	if t.MeanMotionDot2, err = parseImpliedDecimal(line, 44, 52, "mean motion dot 2"); err != nil {
		return err
	}
	if t.Bstar, err = parseImpliedDecimal(line, 53, 61, "B*"); err != nil {
		return err
	}
	if t.ElementNumber, err = parseInt(line, 64, 68, "element number"); err != nil {
		return err
	}
	t.CheckSum1, err = parseInt(line, 68, 69, "checksum")
	return err
}

func (t *TLE) parseLine2(line string) error {
	if len(line) != lineLength {
		return errors.Wrapf(ErrFormat, "must be %d characters, got %d", lineLength, len(line))
	}
	if line[0] != '2' {
		return errors.Wrap(ErrFormat, "must begin with '2'")
	}

	satNum, err := parseInt(line, 2, 7, "satellite number")
	if err != nil {
		return err
	}
	if satNum != t.SatelliteNumber {
		return errors.Wrapf(ErrFormat, "satellite numbers do not match between lines (%d vs %d)", t.SatelliteNumber, satNum)
	}

	if t.Inclination, err = parseFloat(line, 8, 16, "inclination"); err != nil {
		return err
	}
	if t.RightAscension, err = parseFloat(line, 17, 25, "right ascension"); err != nil {
		return err
	}

	// decimal point assumed: XXXXXXX -> 0.XXXXXXX
	ecc, err := strconv.ParseFloat("0."+strings.TrimSpace(line[26:33]), 64)
	if err != nil {
		return errors.Wrapf(ErrFormat, "invalid eccentricity %q", line[26:33])
	}
	t.Eccentricity = ecc

	if t.ArgOfPerigee, err = parseFloat(line, 34, 42, "argument of perigee"); err != nil {
		return err
	}
	if t.MeanAnomaly, err = parseFloat(line, 43, 51, "mean anomaly"); err != nil {
		return err
	}
	if t.MeanMotion, err = parseFloat(line, 52, 63, "mean motion"); err != nil {
		return err
	}
	if t.RevolutionNumber, err = parseInt(line, 63, 68, "revolution number"); err != nil {
		return err
	}
	t.CheckSum2, err = parseInt(line, 68, 69, "checksum")
	return err
}

func parseInt(line string, lo, hi int, name string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(line[lo:hi]))
	if err != nil {
		return 0, errors.Wrapf(ErrFormat, "invalid %s %q", name, line[lo:hi])
	}
	return v, nil
}

func parseFloat(line string, lo, hi int, name string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(line[lo:hi]), 64)
	if err != nil {
		return 0, errors.Wrapf(ErrFormat, "invalid %s %q", name, line[lo:hi])
	}
	return v, nil
}

// parseImpliedDecimal decodes fields such as " 28098-4" (0.28098e-4) or
// "-11606-4", where the sign and five mantissa digits are followed by a signed
// power of ten.
func parseImpliedDecimal(line string, lo, hi int, name string) (float64, error) {
	field := line[lo:hi]
	mantissa, err := strconv.ParseFloat(strings.TrimSpace(field[:len(field)-2]), 64)
	if err != nil {
		return 0, errors.Wrapf(ErrFormat, "invalid %s mantissa %q", name, field)
	}
	exponent, err := strconv.Atoi(strings.TrimSpace(field[len(field)-2:]))
	if err != nil {
		return 0, errors.Wrapf(ErrFormat, "invalid %s exponent %q", name, field)
	}
	return mantissa * 1e-5 * math.Pow(10, float64(exponent)), nil
}

// checksum returns the modulo-10 checksum of the first 68 characters of a
// line: digits count their value, '-' counts 1, everything else 0.
func checksum(line string) int {
	sum := 0
	for i := 0; i < lineLength-1 && i < len(line); i++ {
		c := line[i]
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}

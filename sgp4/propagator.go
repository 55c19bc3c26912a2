package sgp4

import (
	"math"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// Propagator evaluates the SGP4/SDP4 model for one element set. All fields are
// set by NewPropagator and read-only afterwards, so Propagate may be called from
// several goroutines at once.
type Propagator struct {
	epoch    time.Time
	elements OrbitalElements // as supplied, Kozai mean motion
	bstar    float64
	period   float64

	no  float64 // de-biased mean motion (rad/min)
	ao  float64 // de-biased semi-major axis (Earth radii)
	eta float64

	simple    bool
	deepSpace bool

	// secular rates
	mdot    float64
	argpdot float64
	nodedot float64
	nodecf  float64

	// drag
	cc1    float64
	cc4    float64
	cc5    float64
	t2cof  float64
	omgcof float64
	xmcof  float64
	delmo  float64
	sinmao float64
	d2     float64
	d3     float64
	d4     float64
	t3cof  float64
	t4cof  float64
	t5cof  float64

	sp   shortPeriodCoef
	deep *DeepSpaceModel

	logger log.Logger
}

// Option configures a Propagator.
type Option func(*Propagator)

// WithLogger sets the logger used to report the model classification.
func WithLogger(logger log.Logger) Option {
	return func(p *Propagator) {
		p.logger = logger
	}
}

// shortPeriodCoef holds the inclination-dependent coefficients of the
// long-period and J2 short-period corrections.
type shortPeriodCoef struct {
	sinio  float64
	cosio  float64
	con41  float64 // 3cos²i - 1
	x1mth2 float64 // 1 - cos²i
	x7thm1 float64 // 7cos²i - 1
	xlcof  float64
	aycof  float64
}

func newShortPeriodCoef(incl float64) shortPeriodCoef {
	sinio, cosio := math.Sincos(incl)
	theta2 := cosio * cosio

	c := shortPeriodCoef{
		sinio:  sinio,
		cosio:  cosio,
		con41:  3.0*theta2 - 1.0,
		x1mth2: 1.0 - theta2,
		x7thm1: 7.0*theta2 - 1.0,
		aycof:  -0.5 * j3oj2 * sinio,
	}
	// Calculate xlcof with protection against division by zero
	if math.Abs(cosio+1.0) > cosioGuard {
		c.xlcof = -0.25 * j3oj2 * sinio * (3.0 + 5.0*cosio) / (1.0 + cosio)
	} else {
		c.xlcof = -0.25 * j3oj2 * sinio * (3.0 + 5.0*cosio) / cosioGuard
	}
	return c
}

// NewPropagator derives the model constants for the mean elements at epoch.
// bstar is the drag term (per Earth radius) and period the orbital period in
// minutes as published with the element set; a period of 225 minutes or more
// selects the deep-space model.
//
// A *DecayError is returned when the elements do not describe an orbit the
// model can represent.
func NewPropagator(epoch time.Time, elements OrbitalElements, bstar, period float64, opts ...Option) (*Propagator, error) {
	p := &Propagator{
		epoch:    epoch,
		elements: elements,
		bstar:    bstar,
		period:   period,
		logger:   log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}

	n := elements.MeanMotion
	if !(n > 0) || math.IsInf(n, 0) {
		return nil, decayed(0, ReasonMeanMotion, n)
	}

	ecco := elements.Eccentricity
	eccsq := ecco * ecco
	omeosq := 1.0 - eccsq
	if !(omeosq >= 0) {
		return nil, decayed(0, ReasonEccentricity, ecco)
	}
	rteosq := math.Sqrt(omeosq)
	cosio := math.Cos(elements.Inclination)
	cosio2 := cosio * cosio

	// Recover original mean motion (no) and semimajor axis (ao)
	ak := math.Pow(xke/n, x2o3)
	d1 := 0.75 * xj2 * (3.0*cosio2 - 1.0) / (rteosq * omeosq)
	del := d1 / (ak * ak)
	adel := ak * (1.0 - del*del - del*(1.0/3.0+134.0*del*del/81.0))
	del = d1 / (adel * adel)
	p.no = n / (1.0 + del)
	if !(p.no > 0) || math.IsInf(p.no, 0) {
		return nil, decayed(0, ReasonMeanMotion, p.no)
	}
	p.ao = math.Pow(xke/p.no, x2o3)

	sinio := math.Sin(elements.Inclination)
	po := p.ao * omeosq
	con42 := 1.0 - 5.0*cosio2
	con41 := -con42 - cosio2 - cosio2
	posq := po * po
	rp := p.ao * (1.0 - ecco)
	if rp < 1.0 {
		return nil, decayed(0, ReasonPerigeeBelowSurface, rp)
	}

	p.deepSpace = period >= deepSpacePeriod
	p.simple = rp < simplePerigee/xkmper+1.0 || p.deepSpace

	// For perigee below 156 km, the values of s4 and qoms24 are altered
	sfour := ss
	qzms24 := qzms2t
	perigee := (rp - 1.0) * xkmper
	if perigee < lowPerigee {
		sfour = perigee - 78.0
		if perigee < floorPerigee {
			sfour = 20.0
		}
		qzms24 = math.Pow((120.0-sfour)/xkmper, 4)
		sfour = sfour/xkmper + 1.0
	}

	pinvsq := 1.0 / posq
	tsi := 1.0 / (p.ao - sfour)
	p.eta = p.ao * ecco * tsi
	etasq := p.eta * p.eta
	eeta := ecco * p.eta
	psisq := math.Abs(1.0 - etasq)
	coef := qzms24 * math.Pow(tsi, 4)
	coef1 := coef / math.Pow(psisq, 3.5)

	cc2 := coef1 * p.no * (p.ao*(1.0+1.5*etasq+eeta*(4.0+etasq)) +
		0.375*xj2*tsi/psisq*con41*(8.0+3.0*etasq*(8.0+etasq)))
	p.cc1 = bstar * cc2
	var cc3 float64
	if ecco > 1.0e-4 {
		cc3 = -2.0 * coef * tsi * j3oj2 * p.no * sinio / ecco
	}
	x1mth2 := 1.0 - cosio2
	p.cc4 = 2.0 * p.no * coef1 * p.ao * omeosq *
		(p.eta*(2.0+0.5*etasq) + ecco*(0.5+2.0*etasq) -
			xj2*tsi/(p.ao*psisq)*
				(-3.0*con41*(1.0-2.0*eeta+etasq*(1.5-0.5*eeta))+
					0.75*x1mth2*(2.0*etasq-eeta*(1.0+etasq))*math.Cos(2.0*elements.ArgPerigee)))
	p.cc5 = 2.0 * coef1 * p.ao * omeosq * (1.0 + 2.75*(etasq+eeta) + eeta*etasq)

	cosio4 := cosio2 * cosio2
	temp1 := 1.5 * xj2 * pinvsq * p.no
	temp2 := 0.5 * temp1 * xj2 * pinvsq
	temp3 := -0.46875 * xj4 * pinvsq * pinvsq * p.no
	p.mdot = p.no + 0.5*temp1*rteosq*con41 +
		0.0625*temp2*rteosq*(13.0-78.0*cosio2+137.0*cosio4)
	p.argpdot = -0.5*temp1*con42 +
		0.0625*temp2*(7.0-114.0*cosio2+395.0*cosio4) +
		temp3*(3.0-36.0*cosio2+49.0*cosio4)
	xhdot1 := -temp1 * cosio
	p.nodedot = xhdot1 + (0.5*temp2*(4.0-19.0*cosio2)+
		2.0*temp3*(3.0-7.0*cosio2))*cosio

	p.omgcof = bstar * cc3 * math.Cos(elements.ArgPerigee)
	if ecco > 1.0e-4 {
		p.xmcof = -x2o3 * coef * bstar / eeta
	}
	p.nodecf = 3.5 * omeosq * xhdot1 * p.cc1
	p.t2cof = 1.5 * p.cc1
	p.delmo = math.Pow(1.0+p.eta*math.Cos(elements.MeanAnomaly), 3)
	p.sinmao = math.Sin(elements.MeanAnomaly)
	p.sp = newShortPeriodCoef(elements.Inclination)

	if p.deepSpace {
		p.deep = newDeepSpaceModel(deepSpaceInput{
			ds50:     daysSince1950(epoch),
			elements: elements,
			no:       p.no,
			mdot:     p.mdot,
			argpdot:  p.argpdot,
			nodedot:  p.nodedot,
		})
	}

	if !p.simple {
		cc1sq := p.cc1 * p.cc1
		p.d2 = 4.0 * p.ao * tsi * cc1sq
		temp := p.d2 * tsi * p.cc1 / 3.0
		p.d3 = (17.0*p.ao + sfour) * temp
		p.d4 = 0.5 * temp * p.ao * tsi * (221.0*p.ao + 31.0*sfour) * p.cc1
		p.t3cof = p.d2 + 2.0*cc1sq
		p.t4cof = 0.25 * (3.0*p.d3 + p.cc1*(12.0*p.d2+10.0*cc1sq))
		p.t5cof = 0.2 * (3.0*p.d4 + 12.0*p.cc1*p.d3 + 6.0*p.d2*p.d2 +
			15.0*cc1sq*(2.0*p.d2+cc1sq))
	}

	level.Debug(p.logger).Log(
		"msg", "propagator initialised",
		"epoch", epoch.Format(time.RFC3339Nano),
		"perigee_km", perigee,
		"simple", p.simple,
		"deep_space", p.deepSpace,
		"resonance", p.Resonance().String(),
	)
	return p, nil
}

// Epoch returns the epoch of the element set.
func (p *Propagator) Epoch() time.Time {
	return p.epoch
}

// Elements returns the epoch elements as supplied to NewPropagator.
func (p *Propagator) Elements() OrbitalElements {
	return p.elements
}

// Bstar returns the drag term.
func (p *Propagator) Bstar() float64 {
	return p.bstar
}

// IsDeepSpace reports whether the lunar-solar model is applied.
func (p *Propagator) IsDeepSpace() bool {
	return p.deepSpace
}

// IsSimple reports whether the reduced drag formula set is used.
func (p *Propagator) IsSimple() bool {
	return p.simple
}

// Resonance returns the geopotential resonance class of the orbit.
func (p *Propagator) Resonance() ResonanceKind {
	if p.deep == nil {
		return NoResonance
	}
	return p.deep.Resonance()
}

// PropagateAt evaluates the model at an absolute time. t must be in the same
// time scale as the epoch.
func (p *Propagator) PropagateAt(t time.Time) (MotionState, error) {
	return p.Propagate(t.Sub(p.epoch).Minutes())
}

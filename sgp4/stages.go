package sgp4

import "math"

// dragTerms are the polynomial drag factors at one evaluation time.
type dragTerms struct {
	tempa float64 // semi-major axis scale
	tempe float64 // eccentricity decrement
	templ float64 // mean anomaly phase
}

// Propagate returns the state tsince minutes after epoch (negative values
// propagate backwards). Every call works on its own copy of the elements, so
// a Propagator is safe for concurrent use.
//
// The returned error is a *DecayError when the model no longer applies.
func (p *Propagator) Propagate(tsince float64) (MotionState, error) {
	el, drag := p.secular(tsince)

	if p.deepSpace {
		el.MeanMotion = p.no
		el = p.deep.secular(tsince, el)
	}

	el, am, err := p.meanElements(tsince, el, drag)
	if err != nil {
		return MotionState{}, err
	}

	sp := p.sp
	if p.deepSpace {
		el = p.deep.periodic(tsince, el)
		el = el.Reflect()
		if el.Eccentricity < 0 || el.Eccentricity > 1 {
			return MotionState{}, decayed(tsince, ReasonEccentricity, el.Eccentricity)
		}
		sp = newShortPeriodCoef(el.Inclination)
	}

	return p.shortPeriod(tsince, el, am, sp)
}

// secular applies the constant secular rates and the drag polynomials.
func (p *Propagator) secular(t float64) (OrbitalElements, dragTerms) {
	ep := p.elements
	el := OrbitalElements{
		Eccentricity: ep.Eccentricity,
		Inclination:  ep.Inclination,
		MeanMotion:   p.no,
	}

	xmdf := ep.MeanAnomaly + p.mdot*t
	argpdf := ep.ArgPerigee + p.argpdot*t
	nodedf := ep.AscendingNode + p.nodedot*t
	t2 := t * t

	el.MeanAnomaly = xmdf
	el.ArgPerigee = argpdf
	el.AscendingNode = nodedf + p.nodecf*t2

	drag := dragTerms{
		tempa: 1.0 - p.cc1*t,
		tempe: p.bstar * p.cc4 * t,
		templ: p.t2cof * t2,
	}

	if !p.simple {
		delomg := p.omgcof * t
		delmtemp := 1.0 + p.eta*math.Cos(xmdf)
		delm := p.xmcof * (delmtemp*delmtemp*delmtemp - p.delmo)
		temp := delomg + delm
		el.MeanAnomaly = xmdf + temp
		el.ArgPerigee = argpdf - temp
		t3 := t2 * t
		t4 := t3 * t
		drag.tempa = drag.tempa - p.d2*t2 - p.d3*t3 - p.d4*t4
		drag.tempe = drag.tempe + p.bstar*p.cc5*(math.Sin(el.MeanAnomaly)-p.sinmao)
		drag.templ = drag.templ + p.t3cof*t3 + t4*(p.t4cof+t*p.t5cof)
	}
	return el, drag
}

// meanElements recovers the semi-major axis, applies the drag eccentricity
// decrement and renormalizes the angles. It returns the updated elements and
// the semi-major axis in Earth radii.
func (p *Propagator) meanElements(t float64, el OrbitalElements, drag dragTerms) (OrbitalElements, float64, error) {
	nm := el.MeanMotion
	if !(nm > 0) {
		return el, 0, decayed(t, ReasonMeanMotion, nm)
	}
	am := math.Pow(xke/nm, x2o3) * drag.tempa * drag.tempa
	if !(am >= minSemiMajorAxis) {
		return el, 0, decayed(t, ReasonSemiMajorAxis, am)
	}
	el.MeanMotion = xke / math.Pow(am, 1.5)

	em := el.Eccentricity - drag.tempe
	if em < minEccentricity || em >= 1.0 {
		return el, 0, decayed(t, ReasonEccentricity, em)
	}
	if em < 0 {
		em = eccentricityFloor
	}
	el.Eccentricity = em

	mm := el.MeanAnomaly + p.no*drag.templ
	xlm := mm + el.ArgPerigee + el.AscendingNode
	el.AscendingNode = math.Mod(el.AscendingNode, twoPi)
	el.ArgPerigee = math.Mod(el.ArgPerigee, twoPi)
	xlm = math.Mod(xlm, twoPi)
	el.MeanAnomaly = math.Mod(xlm-el.ArgPerigee-el.AscendingNode, twoPi)
	return el, am, nil
}

// solveKepler solves Kepler's equation in equinoctial form for the
// eccentric longitude. It returns the sine and cosine of the last iterate
// evaluated and the number of iterations used.
func solveKepler(u, axnl, aynl float64) (sineo1, coseo1 float64, iterations int) {
	eo1 := u
	tem5 := 9999.9
	for iterations = 0; math.Abs(tem5) >= keplerTolerance && iterations < keplerMaxIteration; iterations++ {
		sineo1, coseo1 = math.Sincos(eo1)
		tem5 = 1.0 - coseo1*axnl - sineo1*aynl
		tem5 = (u - aynl*coseo1 + axnl*sineo1 - eo1) / tem5
		if math.Abs(tem5) >= keplerMaxStep {
			tem5 = math.Copysign(keplerMaxStep, tem5)
		}
		eo1 += tem5
	}
	return sineo1, coseo1, iterations
}

// shortPeriod adds the long-period and J2 short-period terms and projects the
// osculating orbit into Cartesian coordinates.
func (p *Propagator) shortPeriod(t float64, el OrbitalElements, am float64, sp shortPeriodCoef) (MotionState, error) {
	ep := el.Eccentricity
	nm := el.MeanMotion

	// long period periodics
	sinargp, cosargp := math.Sincos(el.ArgPerigee)
	axnl := ep * cosargp
	temp := 1.0 / (am * (1.0 - ep*ep))
	aynl := ep*sinargp + temp*sp.aycof
	xl := el.MeanAnomaly + el.ArgPerigee + el.AscendingNode + temp*sp.xlcof*axnl

	u := math.Mod(xl-el.AscendingNode, twoPi)
	sineo1, coseo1, _ := solveKepler(u, axnl, aynl)

	ecose := axnl*coseo1 + aynl*sineo1
	esine := axnl*sineo1 - aynl*coseo1
	el2 := axnl*axnl + aynl*aynl
	pl := am * (1.0 - el2)
	if pl < 0 {
		return MotionState{}, decayed(t, ReasonSemiLatusRectum, pl)
	}

	rl := am * (1.0 - ecose)
	rdotl := math.Sqrt(am) * esine / rl
	rvdotl := math.Sqrt(pl) / rl
	betal := math.Sqrt(1.0 - el2)
	temp = esine / (1.0 + betal)
	sinu := am / rl * (sineo1 - aynl - axnl*temp)
	cosu := am / rl * (coseo1 - axnl + aynl*temp)
	su := math.Atan2(sinu, cosu)
	sin2u := (cosu + cosu) * sinu
	cos2u := 1.0 - 2.0*sinu*sinu
	temp = 1.0 / pl
	temp1 := 0.5 * xj2 * temp
	temp2 := temp1 * temp

	// short period periodics
	mrt := rl*(1.0-1.5*temp2*betal*sp.con41) + 0.5*temp1*sp.x1mth2*cos2u
	su = su - 0.25*temp2*sp.x7thm1*sin2u
	xnode := el.AscendingNode + 1.5*temp2*sp.cosio*sin2u
	xinc := el.Inclination + 1.5*temp2*sp.cosio*sp.sinio*cos2u
	mvt := rdotl - nm*temp1*sp.x1mth2*sin2u/xke
	rvdot := rvdotl + nm*temp1*(sp.x1mth2*cos2u+1.5*sp.con41)/xke

	// orientation vectors
	sinsu, cossu := math.Sincos(su)
	snod, cnod := math.Sincos(xnode)
	sini, cosi := math.Sincos(xinc)
	xmx := -snod * cosi
	xmy := cnod * cosi
	ux := xmx*sinsu + cnod*cossu
	uy := xmy*sinsu + snod*cossu
	uz := sini * sinsu
	vx := xmx*cossu - cnod*sinsu
	vy := xmy*cossu - snod*sinsu
	vz := sini * cossu

	rscale := mrt * xkmper * metersPerKm
	vscale := vkmpersec * metersPerKm
	return MotionState{
		Position: [3]float64{rscale * ux, rscale * uy, rscale * uz},
		Velocity: [3]float64{
			(mvt*ux + rvdot*vx) * vscale,
			(mvt*uy + rvdot*vy) * vscale,
			(mvt*uz + rvdot*vz) * vscale,
		},
	}, nil
}

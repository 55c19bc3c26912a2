package sgp4

import "math"

// ResonanceKind classifies the commensurability of a deep-space orbit with
// the Earth's rotation.
type ResonanceKind int

const (
	NoResonance ResonanceKind = iota
	// Synchronous orbits complete one revolution per sidereal day.
	Synchronous
	// HalfDay orbits are eccentric and complete two revolutions per day.
	HalfDay
)

func (k ResonanceKind) String() string {
	switch k {
	case NoResonance:
		return "none"
	case Synchronous:
		return "synchronous"
	case HalfDay:
		return "half-day"
	default:
		return "unknown"
	}
}

// classifyResonance selects the resonance class from the de-biased mean
// motion (rad/min) and eccentricity.
func classifyResonance(no, ecc float64) ResonanceKind {
	if no > syncLow && no < syncHigh {
		return Synchronous
	}
	if no >= halfDayLow && no <= halfDayHigh && ecc >= halfDayEcc {
		return HalfDay
	}
	return NoResonance
}

// resonance is one of noResonance, synchronousResonance or halfDayResonance.
// Each variant carries only the coefficients its own forcing terms use.
type resonance interface {
	Kind() ResonanceKind
}

type noResonance struct{}

func (noResonance) Kind() ResonanceKind { return NoResonance }

type synchronousResonance struct {
	del1, del2, del3 float64
	xlamo            float64 // phase at epoch
	xfact            float64 // phase rate less the mean motion
}

func (synchronousResonance) Kind() ResonanceKind { return Synchronous }

type halfDayResonance struct {
	d2201, d2211 float64
	d3210, d3222 float64
	d4410, d4422 float64
	d5220, d5232 float64
	d5421, d5433 float64
	xlamo        float64 // phase at epoch
	xfact        float64 // phase rate less the mean motion
	argpo        float64
	argpdot      float64
}

func (halfDayResonance) Kind() ResonanceKind { return HalfDay }

type resonanceInput struct {
	elements OrbitalElements
	no       float64
	gsto     float64
	mdot     float64
	argpdot  float64
	nodedot  float64
	dmdt     float64
	domdt    float64
	dnodt    float64
}

func newResonance(in resonanceInput) resonance {
	el := in.elements
	kind := classifyResonance(in.no, el.Eccentricity)
	if kind == NoResonance {
		return noResonance{}
	}

	sinim, cosim := math.Sincos(el.Inclination)
	em := el.Eccentricity
	emsq := em * em
	aonv := math.Pow(in.no/xke, x2o3)
	theta := math.Mod(in.gsto, twoPi)

	if kind == Synchronous {
		g200 := 1.0 + emsq*(-2.5+0.8125*emsq)
		g310 := 1.0 + 2.0*emsq
		g300 := 1.0 + emsq*(-6.0+6.60937*emsq)
		f220 := 0.75 * (1.0 + cosim) * (1.0 + cosim)
		f311 := 0.9375*sinim*sinim*(1.0+3.0*cosim) - 0.75*(1.0+cosim)
		f330 := 1.0 + cosim
		f330 = 1.875 * f330 * f330 * f330
		del1 := 3.0 * in.no * in.no * aonv * aonv
		r := synchronousResonance{
			del2: 2.0 * del1 * f220 * g200 * q22,
			del3: 3.0 * del1 * f330 * g300 * q33 * aonv,
			del1: del1 * f311 * g310 * q31 * aonv,
		}
		r.xlamo = math.Mod(el.MeanAnomaly+el.AscendingNode+el.ArgPerigee-theta, twoPi)
		xpidot := in.argpdot + in.nodedot
		r.xfact = in.mdot + xpidot - rptim + in.dmdt + in.domdt + in.dnodt - in.no
		return r
	}

	eoc := em * emsq
	g201 := -0.306 - (em-0.64)*0.440
	var g211, g310, g322, g410, g422, g520 float64
	if em <= 0.65 {
		g211 = 3.616 - 13.2470*em + 16.2900*emsq
		g310 = -19.302 + 117.3900*em - 228.4190*emsq + 156.5910*eoc
		g322 = -18.9068 + 109.7927*em - 214.6334*emsq + 146.5816*eoc
		g410 = -41.122 + 242.6940*em - 471.0940*emsq + 313.9530*eoc
		g422 = -146.407 + 841.8800*em - 1629.014*emsq + 1083.4350*eoc
		g520 = -532.114 + 3017.977*em - 5740.032*emsq + 3708.2760*eoc
	} else {
		g211 = -72.099 + 331.819*em - 508.738*emsq + 266.724*eoc
		g310 = -346.844 + 1582.851*em - 2415.925*emsq + 1246.113*eoc
		g322 = -342.585 + 1554.908*em - 2366.899*emsq + 1215.972*eoc
		g410 = -1052.797 + 4758.686*em - 7193.992*emsq + 3651.957*eoc
		g422 = -3581.690 + 16178.110*em - 24462.770*emsq + 12422.520*eoc
		if em > 0.715 {
			g520 = -5149.66 + 29936.92*em - 54087.36*emsq + 31324.56*eoc
		} else {
			g520 = 1464.74 - 4664.75*em + 3763.64*emsq
		}
	}
	var g533, g521, g532 float64
	if em < 0.7 {
		g533 = -919.22770 + 4988.6100*em - 9064.7700*emsq + 5542.21*eoc
		g521 = -822.71072 + 4568.6173*em - 8491.4146*emsq + 5337.524*eoc
		g532 = -853.66600 + 4690.2500*em - 8624.7700*emsq + 5341.4*eoc
	} else {
		g533 = -37995.780 + 161616.52*em - 229838.20*emsq + 109377.94*eoc
		g521 = -51752.104 + 218913.95*em - 309468.16*emsq + 146349.42*eoc
		g532 = -40023.880 + 170470.89*em - 242699.48*emsq + 115605.82*eoc
	}

	cosisq := cosim * cosim
	sini2 := sinim * sinim
	f220 := 0.75 * (1.0 + 2.0*cosim + cosisq)
	f221 := 1.5 * sini2
	f321 := 1.875 * sinim * (1.0 - 2.0*cosim - 3.0*cosisq)
	f322 := -1.875 * sinim * (1.0 + 2.0*cosim - 3.0*cosisq)
	f441 := 35.0 * sini2 * f220
	f442 := 39.3750 * sini2 * sini2
	f522 := 9.84375 * sinim * (sini2*(1.0-2.0*cosim-5.0*cosisq) +
		0.33333333*(-2.0+4.0*cosim+6.0*cosisq))
	f523 := sinim * (4.92187512*sini2*(-2.0-4.0*cosim+10.0*cosisq) +
		6.56250012*(1.0+2.0*cosim-3.0*cosisq))
	f542 := 29.53125 * sinim * (2.0 - 8.0*cosim +
		cosisq*(-12.0+8.0*cosim+10.0*cosisq))
	f543 := 29.53125 * sinim * (-2.0 - 8.0*cosim +
		cosisq*(12.0+8.0*cosim-10.0*cosisq))

	var r halfDayResonance
	xno2 := in.no * in.no
	ainv2 := aonv * aonv
	temp1 := 3.0 * xno2 * ainv2
	temp := temp1 * root22
	r.d2201 = temp * f220 * g201
	r.d2211 = temp * f221 * g211
	temp1 = temp1 * aonv
	temp = temp1 * root32
	r.d3210 = temp * f321 * g310
	r.d3222 = temp * f322 * g322
	temp1 = temp1 * aonv
	temp = 2.0 * temp1 * root44
	r.d4410 = temp * f441 * g410
	r.d4422 = temp * f442 * g422
	temp1 = temp1 * aonv
	temp = temp1 * root52
	r.d5220 = temp * f522 * g520
	r.d5232 = temp * f523 * g532
	temp = 2.0 * temp1 * root54
	r.d5421 = temp * f542 * g521
	r.d5433 = temp * f543 * g533

	r.xlamo = math.Mod(el.MeanAnomaly+el.AscendingNode+el.AscendingNode-theta-theta, twoPi)
	r.xfact = in.mdot + in.dmdt + 2.0*(in.nodedot+in.dnodt-rptim) - in.no
	r.argpo = el.ArgPerigee
	r.argpdot = in.argpdot
	return r
}

// forcing returns the first and second time derivatives of the mean motion at
// resonance phase xli, atime minutes after epoch. The second derivative still
// has to be scaled by the phase rate.
func forcing(r resonance, xli, atime float64) (xndt, xnddt float64) {
	switch r := r.(type) {
	case synchronousResonance:
		xndt = r.del1*math.Sin(xli-fasx2) + r.del2*math.Sin(2.0*(xli-fasx4)) +
			r.del3*math.Sin(3.0*(xli-fasx6))
		xnddt = r.del1*math.Cos(xli-fasx2) + 2.0*r.del2*math.Cos(2.0*(xli-fasx4)) +
			3.0*r.del3*math.Cos(3.0*(xli-fasx6))
	case halfDayResonance:
		xomi := r.argpo + r.argpdot*atime
		x2omi := xomi + xomi
		x2li := xli + xli
		xndt = r.d2201*math.Sin(x2omi+xli-g22) + r.d2211*math.Sin(xli-g22) +
			r.d3210*math.Sin(xomi+xli-g32) + r.d3222*math.Sin(-xomi+xli-g32) +
			r.d4410*math.Sin(x2omi+x2li-g44) + r.d4422*math.Sin(x2li-g44) +
			r.d5220*math.Sin(xomi+xli-g52) + r.d5232*math.Sin(-xomi+xli-g52) +
			r.d5421*math.Sin(xomi+x2li-g54) + r.d5433*math.Sin(-xomi+x2li-g54)
		xnddt = r.d2201*math.Cos(x2omi+xli-g22) + r.d2211*math.Cos(xli-g22) +
			r.d3210*math.Cos(xomi+xli-g32) + r.d3222*math.Cos(-xomi+xli-g32) +
			r.d5220*math.Cos(xomi+xli-g52) + r.d5232*math.Cos(-xomi+xli-g52) +
			2.0*(r.d4410*math.Cos(x2omi+x2li-g44)+r.d4422*math.Cos(x2li-g44)+
				r.d5421*math.Cos(xomi+x2li-g54)+r.d5433*math.Cos(-xomi+x2li-g54))
	}
	return
}

func phaseAndRate(r resonance) (xlamo, xfact float64) {
	switch r := r.(type) {
	case synchronousResonance:
		return r.xlamo, r.xfact
	case halfDayResonance:
		return r.xlamo, r.xfact
	}
	return 0, 0
}

// integrateResonance integrates the resonance phase and mean motion from epoch
// to t minutes in fixed 720 minute steps, finishing with a partial step of
// the remaining time. It starts from the epoch values on every call and
// returns the phase xl and the mean motion nm at t.
func integrateResonance(r resonance, no, t float64) (xl, nm float64) {
	xli, xfact := phaseAndRate(r)
	xni := no
	atime := 0.0
	delt := stepn
	if t > 0 {
		delt = stepp
	}

	var xndt, xnddt, xldot, ft float64
	for {
		xndt, xnddt = forcing(r, xli, atime)
		xldot = xni + xfact
		xnddt *= xldot
		if math.Abs(t-atime) < stepp {
			ft = t - atime
			break
		}
		xli += xldot*delt + xndt*step2
		xni += xndt*delt + xnddt*step2
		atime += delt
	}

	nm = xni + xndt*ft + xnddt*ft*ft*0.5
	xl = xli + xldot*ft + xndt*ft*ft*0.5
	return xl, nm
}

package sgp4

import "math"

// DeepSpaceModel carries the lunar-solar perturbation coefficients for orbits
// with a period of 225 minutes or more. It is built once by NewPropagator and
// never modified afterwards.
type DeepSpaceModel struct {
	gsto float64 // Greenwich sidereal angle at epoch
	no   float64 // de-biased mean motion at epoch

	solar periodicAmplitudes
	lunar periodicAmplitudes

	// secular rates from sun and moon
	dedt  float64
	didt  float64
	dmdt  float64
	domdt float64
	dnodt float64

	res resonance
}

// periodicAmplitudes are the long-period amplitudes contributed by one
// perturbing body.
type periodicAmplitudes struct {
	e2, e3         float64
	i2, i3         float64
	l2, l3, l4     float64
	gh2, gh3, gh4  float64
	h2, h3         float64
	zn, ze, phase0 float64
}

// perturbingBody is the orbital geometry of the sun or moon as seen by the
// disturbing-function series.
type perturbingBody struct {
	zcosg, zsing float64
	zcosi, zsini float64
	zcosh, zsinh float64
	cc           float64
	zn           float64
	ze           float64
}

// epochGeometry holds the trigonometric values of the epoch elements shared by
// the solar and lunar evaluations.
type epochGeometry struct {
	em, emsq       float64
	betasq, rtemsq float64
	sinim, cosim   float64
	sinomm, cosomm float64
	snodm, cnodm   float64
	xnoi           float64
}

// disturbance is one evaluation of the lunisolar disturbing function.
type disturbance struct {
	s1, s2, s3, s4, s5, s6, s7 float64
	z1, z2, z3                 float64
	z11, z12, z13              float64
	z21, z22, z23              float64
	z31, z32, z33              float64
}

func (b perturbingBody) disturbance(g epochGeometry) disturbance {
	a1 := b.zcosg*b.zcosh + b.zsing*b.zcosi*b.zsinh
	a3 := -b.zsing*b.zcosh + b.zcosg*b.zcosi*b.zsinh
	a7 := -b.zcosg*b.zsinh + b.zsing*b.zcosi*b.zcosh
	a8 := b.zsing * b.zsini
	a9 := b.zsing*b.zsinh + b.zcosg*b.zcosi*b.zcosh
	a10 := b.zcosg * b.zsini
	a2 := g.cosim*a7 + g.sinim*a8
	a4 := g.cosim*a9 + g.sinim*a10
	a5 := -g.sinim*a7 + g.cosim*a8
	a6 := -g.sinim*a9 + g.cosim*a10

	x1 := a1*g.cosomm + a2*g.sinomm
	x2 := a3*g.cosomm + a4*g.sinomm
	x3 := -a1*g.sinomm + a2*g.cosomm
	x4 := -a3*g.sinomm + a4*g.cosomm
	x5 := a5 * g.sinomm
	x6 := a6 * g.sinomm
	x7 := a5 * g.cosomm
	x8 := a6 * g.cosomm

	var d disturbance
	d.z31 = 12.0*x1*x1 - 3.0*x3*x3
	d.z32 = 24.0*x1*x2 - 6.0*x3*x4
	d.z33 = 12.0*x2*x2 - 3.0*x4*x4
	d.z1 = 3.0*(a1*a1+a2*a2) + d.z31*g.emsq
	d.z2 = 6.0*(a1*a3+a2*a4) + d.z32*g.emsq
	d.z3 = 3.0*(a3*a3+a4*a4) + d.z33*g.emsq
	d.z11 = -6.0*a1*a5 + g.emsq*(-24.0*x1*x7-6.0*x3*x5)
	d.z12 = -6.0*(a1*a6+a3*a5) + g.emsq*(-24.0*(x2*x7+x1*x8)-6.0*(x3*x6+x4*x5))
	d.z13 = -6.0*a3*a6 + g.emsq*(-24.0*x2*x8-6.0*x4*x6)
	d.z21 = 6.0*a2*a5 + g.emsq*(24.0*x1*x5-6.0*x3*x7)
	d.z22 = 6.0*(a4*a5+a2*a6) + g.emsq*(24.0*(x2*x5+x1*x6)-6.0*(x4*x7+x3*x8))
	d.z23 = 6.0*a4*a6 + g.emsq*(24.0*x2*x6-6.0*x4*x8)
	d.z1 = d.z1 + d.z1 + g.betasq*d.z31
	d.z2 = d.z2 + d.z2 + g.betasq*d.z32
	d.z3 = d.z3 + d.z3 + g.betasq*d.z33

	d.s3 = b.cc * g.xnoi
	d.s2 = -0.5 * d.s3 / g.rtemsq
	d.s4 = d.s3 * g.rtemsq
	d.s1 = -15.0 * g.em * d.s4
	d.s5 = x1*x3 + x2*x4
	d.s6 = x2*x3 + x1*x4
	d.s7 = x2*x4 - x1*x3
	return d
}

func (d disturbance) amplitudes(b perturbingBody, emsq, phase0 float64) periodicAmplitudes {
	return periodicAmplitudes{
		e2:     2.0 * d.s1 * d.s6,
		e3:     2.0 * d.s1 * d.s7,
		i2:     2.0 * d.s2 * d.z12,
		i3:     2.0 * d.s2 * (d.z13 - d.z11),
		l2:     -2.0 * d.s3 * d.z2,
		l3:     -2.0 * d.s3 * (d.z3 - d.z1),
		l4:     -2.0 * d.s3 * (-21.0 - 9.0*emsq) * b.ze,
		gh2:    2.0 * d.s4 * d.z32,
		gh3:    2.0 * d.s4 * (d.z33 - d.z31),
		gh4:    -18.0 * d.s4 * b.ze,
		h2:     -2.0 * d.s2 * d.z22,
		h3:     -2.0 * d.s2 * (d.z23 - d.z21),
		zn:     b.zn,
		ze:     b.ze,
		phase0: phase0,
	}
}

// secularRates returns the body's contribution to the rates of e, i, M, the
// combined perigee/node term and the node (before division by sin i).
func (d disturbance) secularRates(zn, emsq float64) (de, di, dm, dgh, dh float64) {
	de = d.s1 * zn * d.s5
	di = d.s2 * zn * (d.z11 + d.z13)
	dm = -zn * d.s3 * (d.z1 + d.z3 - 14.0 - 6.0*emsq)
	dgh = d.s4 * zn * (d.z31 + d.z33 - 6.0)
	dh = -zn * d.s2 * (d.z21 + d.z23)
	return
}

// deepSpaceInput collects the epoch quantities NewPropagator has already
// derived.
type deepSpaceInput struct {
	ds50     float64
	elements OrbitalElements
	no       float64
	mdot     float64
	argpdot  float64
	nodedot  float64
}

func newDeepSpaceModel(in deepSpaceInput) *DeepSpaceModel {
	el := in.elements
	d := &DeepSpaceModel{
		gsto: greenwichAngle(in.ds50),
		no:   in.no,
	}

	g := epochGeometry{
		em:   el.Eccentricity,
		emsq: el.Eccentricity * el.Eccentricity,
		xnoi: 1.0 / in.no,
	}
	g.betasq = 1.0 - g.emsq
	g.rtemsq = math.Sqrt(g.betasq)
	g.sinim, g.cosim = math.Sincos(el.Inclination)
	g.sinomm, g.cosomm = math.Sincos(el.ArgPerigee)
	g.snodm, g.cnodm = math.Sincos(el.AscendingNode)

	// mean lunar orbit, days since 1900 Jan 0.5
	day := in.ds50 + 18261.5
	xnodce := math.Mod(4.5236020-9.2422029e-4*day, twoPi)
	stem, ctem := math.Sincos(xnodce)
	zcosil := 0.91375164 - 0.03568096*ctem
	zsinil := math.Sqrt(1.0 - zcosil*zcosil)
	zsinhl := 0.089683511 * stem / zsinil
	zcoshl := math.Sqrt(1.0 - zsinhl*zsinhl)
	gam := 5.8351514 + 0.0019443680*day
	zx := 0.39785416 * stem / zsinil
	zy := zcoshl*ctem + 0.91744867*zsinhl*stem
	zx = math.Atan2(zx, zy)
	zx = gam + zx - xnodce
	zsingl, zcosgl := math.Sincos(zx)
	zmol := math.Mod(4.7199672+0.22997150*day-gam, twoPi)
	zmos := math.Mod(6.2565837+0.017201977*day, twoPi)

	sun := perturbingBody{
		zcosg: zcosgs,
		zsing: zsings,
		zcosi: zcosis,
		zsini: zsinis,
		zcosh: g.cnodm,
		zsinh: g.snodm,
		cc:    c1ss,
		zn:    zns,
		ze:    zes,
	}
	moon := perturbingBody{
		zcosg: zcosgl,
		zsing: zsingl,
		zcosi: zcosil,
		zsini: zsinil,
		zcosh: zcoshl*g.cnodm + zsinhl*g.snodm,
		zsinh: g.snodm*zcoshl - g.cnodm*zsinhl,
		cc:    c1l,
		zn:    znl,
		ze:    zel,
	}
	ds := sun.disturbance(g)
	dl := moon.disturbance(g)
	d.solar = ds.amplitudes(sun, g.emsq, zmos)
	d.lunar = dl.amplitudes(moon, g.emsq, zmol)

	// secular rates
	ses, sis, sls, sghs, shs := ds.secularRates(zns, g.emsq)
	sel, sil, sll, sghl, shll := dl.secularRates(znl, g.emsq)
	if el.Inclination < minNodeInclination || el.Inclination > math.Pi-minNodeInclination {
		shs = 0
		shll = 0
	}
	if g.sinim != 0 {
		shs = shs / g.sinim
	}
	d.dedt = ses + sel
	d.didt = sis + sil
	d.dmdt = sls + sll
	d.domdt = sghs - g.cosim*shs + sghl
	d.dnodt = shs
	if g.sinim != 0 {
		d.domdt -= g.cosim / g.sinim * shll
		d.dnodt += shll / g.sinim
	}

	d.res = newResonance(resonanceInput{
		elements: el,
		no:       in.no,
		gsto:     d.gsto,
		mdot:     in.mdot,
		argpdot:  in.argpdot,
		nodedot:  in.nodedot,
		dmdt:     d.dmdt,
		domdt:    d.domdt,
		dnodt:    d.dnodt,
	})
	return d
}

// Resonance returns the resonance class chosen at construction.
func (d *DeepSpaceModel) Resonance() ResonanceKind {
	return d.res.Kind()
}

// secular advances the lunisolar secular rates to t and, for resonant orbits,
// integrates the resonance phase and mean motion. The returned elements
// replace e, i, n, M, ω and Ω of el; el.MeanMotion is expected to hold the
// de-biased epoch mean motion.
func (d *DeepSpaceModel) secular(t float64, el OrbitalElements) OrbitalElements {
	el.Eccentricity += d.dedt * t
	el.Inclination += d.didt * t
	el.ArgPerigee += d.domdt * t
	el.AscendingNode += d.dnodt * t
	el.MeanAnomaly += d.dmdt * t

	switch r := d.res.(type) {
	case synchronousResonance:
		theta := math.Mod(d.gsto+t*rptim, twoPi)
		xl, nm := integrateResonance(r, d.no, t)
		el.MeanAnomaly = xl - el.AscendingNode - el.ArgPerigee + theta
		el.MeanMotion = nm
	case halfDayResonance:
		theta := math.Mod(d.gsto+t*rptim, twoPi)
		xl, nm := integrateResonance(r, d.no, t)
		el.MeanAnomaly = xl - 2.0*el.AscendingNode + 2.0*theta
		el.MeanMotion = nm
	}
	return el
}

// terms evaluates the body's periodic argument at t and returns the
// corrections to e, i, M, the perigee/node term and the node.
func (a periodicAmplitudes) terms(t float64) (pe, pinc, pl, pgh, ph float64) {
	zm := a.phase0 + a.zn*t
	zf := zm + 2.0*a.ze*math.Sin(zm)
	sinzf, coszf := math.Sincos(zf)
	f2 := 0.5*sinzf*sinzf - 0.25
	f3 := -0.5 * sinzf * coszf
	pe = a.e2*f2 + a.e3*f3
	pinc = a.i2*f2 + a.i3*f3
	pl = a.l2*f2 + a.l3*f3 + a.l4*sinzf
	pgh = a.gh2*f2 + a.gh3*f3 + a.gh4*sinzf
	ph = a.h2*f2 + a.h3*f3
	return
}

// periodic adds the lunisolar long-period terms at t. Below 0.2 rad of
// inclination the node and perigee corrections are applied through
// (sin i sin Ω, sin i cos Ω), which stays finite as i goes to zero.
func (d *DeepSpaceModel) periodic(t float64, el OrbitalElements) OrbitalElements {
	ses, sis, sls, sghs, shs := d.solar.terms(t)
	sel, sil, sll, sghl, shl := d.lunar.terms(t)
	pe := ses + sel
	pinc := sis + sil
	pl := sls + sll
	pgh := sghs + sghl
	ph := shs + shl

	el.Inclination += pinc
	el.Eccentricity += pe
	sinip, cosip := math.Sincos(el.Inclination)

	if el.Inclination >= lyddaneInclination {
		ph = ph / sinip
		pgh = pgh - cosip*ph
		el.ArgPerigee += pgh
		el.AscendingNode += ph
		el.MeanAnomaly += pl
		return el
	}

	sinop, cosop := math.Sincos(el.AscendingNode)
	alfdp := sinip * sinop
	betdp := sinip * cosop
	dalf := ph*cosop + pinc*cosip*sinop
	dbet := -ph*sinop + pinc*cosip*cosop
	alfdp += dalf
	betdp += dbet
	nodep := math.Mod(el.AscendingNode, twoPi)
	xls := el.MeanAnomaly + el.ArgPerigee + cosip*nodep
	dls := pl + pgh - pinc*nodep*sinip
	xls += dls
	xnoh := nodep
	nodep = math.Atan2(alfdp, betdp)
	if math.Abs(xnoh-nodep) > math.Pi {
		if nodep < xnoh {
			nodep += twoPi
		} else {
			nodep -= twoPi
		}
	}
	el.AscendingNode = nodep
	el.MeanAnomaly += pl
	el.ArgPerigee = xls - el.MeanAnomaly - cosip*nodep
	return el
}

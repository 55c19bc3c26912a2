package sgp4

import (
	"bytes"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats/scalar"
)

const deg2rad = math.Pi / 180.0

// tleEpoch converts a TLE style year and fractional day of year to UTC.
func tleEpoch(year int, day float64) time.Time {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start.Add(time.Duration((day - 1.0) * 24 * float64(time.Hour)))
}

type testElementSet struct {
	epoch     time.Time
	incl      float64 // deg
	node      float64 // deg
	ecc       float64
	argp      float64 // deg
	ma        float64 // deg
	revPerDay float64
	bstar     float64
}

func (s testElementSet) elements() OrbitalElements {
	return OrbitalElements{
		Eccentricity:  s.ecc,
		Inclination:   s.incl * deg2rad,
		MeanMotion:    s.revPerDay * twoPi / minutesPerDay,
		MeanAnomaly:   s.ma * deg2rad,
		ArgPerigee:    s.argp * deg2rad,
		AscendingNode: s.node * deg2rad,
	}
}

func (s testElementSet) propagator(t *testing.T, opts ...Option) *Propagator {
	t.Helper()
	p, err := NewPropagator(s.epoch, s.elements(), s.bstar, minutesPerDay/s.revPerDay, opts...)
	if err != nil {
		t.Fatalf("NewPropagator: %v", err)
	}
	return p
}

var (
	// 1 00005U 58002B   00179.78495062  .00000023  00000-0  28098-4 0  4753
	// 2 00005  34.2682 348.7242 1859667 331.7664  19.3264 10.82419157413667
	vanguard = testElementSet{
		epoch:     tleEpoch(2000, 179.78495062),
		incl:      34.2682,
		node:      348.7242,
		ecc:       0.1859667,
		argp:      331.7664,
		ma:        19.3264,
		revPerDay: 10.82419157,
		bstar:     0.28098e-4,
	}

	// 1 08195U 75081A   06176.33215444  .00000099  00000-0  11873-3 0   813
	// 2 08195  64.1586 279.0717 6877146 264.7651  20.2257  2.00491383225656
	molniya = testElementSet{
		epoch:     tleEpoch(2006, 176.33215444),
		incl:      64.1586,
		node:      279.0717,
		ecc:       0.6877146,
		argp:      264.7651,
		ma:        20.2257,
		revPerDay: 2.00491383,
		bstar:     0.11873e-3,
	}

	// 1 25544U 98067A   25138.37048074  .00007749  00000+0  14567-3 0  9994
	// 2 25544  51.6369  94.7823 0002558 120.7586  15.7840 15.49587957510533
	iss = testElementSet{
		epoch:     tleEpoch(2025, 138.37048074),
		incl:      51.6369,
		node:      94.7823,
		ecc:       0.0002558,
		argp:      120.7586,
		ma:        15.7840,
		revPerDay: 15.49587957,
		bstar:     0.14567e-3,
	}

	// 1 28626U 05008A   06176.46683397 -.00000205  00000-0  10000-3 0  2190
	// 2 28626   0.0019 286.9433 0000335  13.7918  55.6504  1.00270176  4943
	synchronous = testElementSet{
		epoch:     tleEpoch(2006, 176.46683397),
		incl:      0.0019,
		node:      286.9433,
		ecc:       0.0000335,
		argp:      13.7918,
		ma:        55.6504,
		revPerDay: 1.00270176,
		bstar:     0.1e-3,
	}

	geostationary = testElementSet{
		epoch:     tleEpoch(2006, 176.5),
		incl:      0.05,
		node:      171.9,
		ecc:       0.0002,
		argp:      114.6,
		ma:        57.3,
		revPerDay: 1.0027,
	}
)

func TestPropagateReference(t *testing.T) {
	// Positions in km and velocities in km/s from the published SGP4
	// verification run.
	tests := []struct {
		name   string
		set    testElementSet
		tsince float64
		pos    [3]float64
		vel    [3]float64
	}{
		{
			name:   "00005 at epoch",
			set:    vanguard,
			tsince: 0,
			pos:    [3]float64{7022.46529266, -1400.08296755, 0.03995155},
			vel:    [3]float64{1.893841015, 6.405893759, 4.534807250},
		},
		{
			name:   "00005 after 360 min",
			set:    vanguard,
			tsince: 360,
			pos:    [3]float64{-7154.03120202, -3783.17682504, -3536.19412294},
			vel:    [3]float64{4.741887409, -4.151817765, -2.093935425},
		},
		{
			name:   "00005 after 720 min",
			set:    vanguard,
			tsince: 720,
			pos:    [3]float64{-7134.59340119, 6531.68641334, 3260.27186483},
			vel:    [3]float64{-4.113793027, -2.911922039, -2.557327851},
		},
		{
			name:   "08195 at epoch",
			set:    molniya,
			tsince: 0,
			pos:    [3]float64{2349.89483350, -14785.93811562, 0.02119378},
			vel:    [3]float64{2.721488096, -3.256811655, 4.498416672},
		},
		{
			name:   "08195 after 120 min",
			set:    molniya,
			tsince: 120,
			pos:    [3]float64{15223.91713658, -17852.95881713, 25280.39558224},
			vel:    [3]float64{1.079041732, 0.875187372, 2.485682813},
		},
		{
			name:   "08195 after 1440 min",
			set:    molniya,
			tsince: 1440,
			pos:    [3]float64{2890.80638268, -15446.43952300, 948.77010176},
			vel:    [3]float64{2.654407490, -2.909344895, 4.486437362},
		},
		{
			name:   "08195 after 2880 min",
			set:    molniya,
			tsince: 2880,
			pos:    [3]float64{3417.20931586, -16038.79510665, 1894.74934058},
			vel:    [3]float64{2.585515864, -2.596818146, 4.456882556},
		},
		{
			name:   "28626 at epoch",
			set:    synchronous,
			tsince: 0,
			pos:    [3]float64{42080.71852213, -2646.86387436, 0.81851294},
			vel:    [3]float64{0.193105177, 3.068688251, 0.000438449},
		},
		{
			name:   "28626 after 1440 min",
			set:    synchronous,
			tsince: 1440,
			pos:    [3]float64{42119.96263499, -1925.77567263, -0.19827433},
			vel:    [3]float64{0.140521206, 3.071541613, 0.000179561},
		},
		{
			name:   "28626 after 2880 min",
			set:    synchronous,
			tsince: 2880,
			pos:    [3]float64{42146.81714550, -1205.30681787, 0.30657928},
			vel:    [3]float64{0.087982664, 3.073491493, -0.000068888},
		},
		{
			name:   "28626 after 4320 min",
			set:    synchronous,
			tsince: 4320,
			pos:    [3]float64{42161.33385295, -485.77639230, 2.10542802},
			vel:    [3]float64{0.035512832, 3.074541667, -0.000258784},
		},
	}

	const (
		posTolerance = 0.01 // m
		velTolerance = 1e-5 // m/s
	)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.set.propagator(t)
			state, err := p.Propagate(tt.tsince)
			if err != nil {
				t.Fatalf("Propagate(%v): %v", tt.tsince, err)
			}
			for i := 0; i < 3; i++ {
				wantPos := tt.pos[i] * metersPerKm
				if !scalar.EqualWithinAbs(state.Position[i], wantPos, posTolerance) {
					t.Errorf("position[%d] = %.4f m, want %.4f m", i, state.Position[i], wantPos)
				}
				wantVel := tt.vel[i] * metersPerKm
				if !scalar.EqualWithinAbs(state.Velocity[i], wantVel, velTolerance) {
					t.Errorf("velocity[%d] = %.7f m/s, want %.7f m/s", i, state.Velocity[i], wantVel)
				}
			}
		})
	}
}

func TestModelClassification(t *testing.T) {
	tests := []struct {
		name      string
		set       testElementSet
		deepSpace bool
		simple    bool
		resonance ResonanceKind
	}{
		{"near earth", vanguard, false, false, NoResonance},
		{"iss", iss, false, false, NoResonance},
		{"molniya", molniya, true, true, HalfDay},
		{"geostationary", geostationary, true, true, Synchronous},
		{"28626", synchronous, true, true, Synchronous},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.set.propagator(t)
			if got := p.IsDeepSpace(); got != tt.deepSpace {
				t.Errorf("IsDeepSpace() = %v, want %v", got, tt.deepSpace)
			}
			if got := p.IsSimple(); got != tt.simple {
				t.Errorf("IsSimple() = %v, want %v", got, tt.simple)
			}
			if got := p.Resonance(); got != tt.resonance {
				t.Errorf("Resonance() = %v, want %v", got, tt.resonance)
			}
		})
	}
}

func TestSimpleBelow220km(t *testing.T) {
	low := iss
	low.revPerDay = 16.2 // perigee about 218 km
	p := low.propagator(t)
	if !p.IsSimple() {
		t.Error("expected the reduced drag model below 220 km")
	}
	if p.IsDeepSpace() {
		t.Error("a 90 minute orbit is not deep space")
	}
}

func TestNewPropagatorDecay(t *testing.T) {
	tests := []struct {
		name   string
		el     OrbitalElements
		reason DecayReason
	}{
		{
			name:   "perigee inside the earth",
			el:     OrbitalElements{Eccentricity: 0.5, Inclination: 0.9, MeanMotion: 16 * twoPi / minutesPerDay},
			reason: ReasonPerigeeBelowSurface,
		},
		{
			name:   "zero mean motion",
			el:     OrbitalElements{Eccentricity: 0.001, Inclination: 0.9},
			reason: ReasonMeanMotion,
		},
		{
			name:   "negative mean motion",
			el:     OrbitalElements{Eccentricity: 0.001, Inclination: 0.9, MeanMotion: -0.06},
			reason: ReasonMeanMotion,
		},
		{
			name:   "hyperbolic",
			el:     OrbitalElements{Eccentricity: 1.2, Inclination: 0.9, MeanMotion: 0.06},
			reason: ReasonEccentricity,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPropagator(time.Unix(0, 0).UTC(), tt.el, 0, 90)
			if err == nil {
				t.Fatalf("expected an error, got propagator %+v", p)
			}
			if !errors.Is(err, ErrDecayed) {
				t.Errorf("errors.Is(%v, ErrDecayed) = false", err)
			}
			var de *DecayError
			if !errors.As(err, &de) {
				t.Fatalf("error %T is not a *DecayError", err)
			}
			if de.Reason != tt.reason {
				t.Errorf("reason = %q, want %q", de.Reason, tt.reason)
			}
			if de.Tsince != 0 {
				t.Errorf("tsince = %v, want 0", de.Tsince)
			}
		})
	}
}

func TestEccentricityDecay(t *testing.T) {
	// Equatorial orbit with negative drag: the eccentricity grows linearly and
	// crosses 1 at tStar.
	el := OrbitalElements{
		Eccentricity:  0.01,
		MeanMotion:    16 * twoPi / minutesPerDay,
		MeanAnomaly:   0.5,
		ArgPerigee:    1.0,
		AscendingNode: 2.0,
	}
	p, err := NewPropagator(time.Unix(0, 0).UTC(), el, -0.5, minutesPerDay/16)
	if err != nil {
		t.Fatalf("NewPropagator: %v", err)
	}
	if !p.IsSimple() {
		t.Fatal("expected the reduced drag model")
	}
	tStar := (1 - el.Eccentricity) / (-p.bstar * p.cc4)

	for _, f := range []float64{0.25, 0.5, 0.9, 0.999} {
		if _, err := p.Propagate(f * tStar); err != nil {
			t.Errorf("Propagate(%.4f t*) = %v, want no error", f, err)
		}
	}
	for _, f := range []float64{1.0001, 1.5, 3} {
		_, err := p.Propagate(f * tStar)
		var de *DecayError
		if !errors.As(err, &de) {
			t.Fatalf("Propagate(%.4f t*) = %v, want *DecayError", f, err)
		}
		if de.Reason != ReasonEccentricity {
			t.Errorf("reason = %q, want %q", de.Reason, ReasonEccentricity)
		}
		if de.Tsince != f*tStar {
			t.Errorf("tsince = %v, want %v", de.Tsince, f*tStar)
		}
	}
}

func TestDragEccentricityClamp(t *testing.T) {
	set := vanguard
	set.ecc = 5e-7
	set.bstar = 0
	p := set.propagator(t)
	el, drag := p.secular(100)

	tests := []struct {
		name  string
		tempe float64
		want  float64
	}{
		{"small positive kept", 0, 5e-7},
		{"reduced but positive", 2e-7, 3e-7},
		{"negative raised", 1e-4, eccentricityFloor},
		{"just inside the decay bound", 9e-4, eccentricityFloor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := drag
			d.tempe = tt.tempe
			got, _, err := p.meanElements(100, el, d)
			if err != nil {
				t.Fatalf("meanElements: %v", err)
			}
			if !scalar.EqualWithinAbs(got.Eccentricity, tt.want, 1e-15) {
				t.Errorf("eccentricity = %g, want %g", got.Eccentricity, tt.want)
			}
		})
	}

	drag.tempe = 2e-3
	if _, _, err := p.meanElements(100, el, drag); !errors.Is(err, ErrDecayed) {
		t.Errorf("meanElements with e = %g: %v, want ErrDecayed", el.Eccentricity-drag.tempe, err)
	}
}

func TestDragDecay(t *testing.T) {
	tests := []struct {
		name   string
		set    testElementSet
		ok     float64 // last sampled time that still propagates
		decay  []float64
		reason DecayReason
	}{
		{
			// heavy drag shrinks the semi-major axis below 0.95 Earth radii
			name: "semi-major axis",
			set: testElementSet{
				epoch: tleEpoch(2006, 176.5), incl: 51.6, ecc: 0.05, argp: 90,
				revPerDay: 15, bstar: 0.5,
			},
			ok:     330,
			decay:  []float64{340, 360, 400},
			reason: ReasonSemiMajorAxis,
		},
		{
			// negative drag pushes e toward 1 while the long-period
			// aycof term tips axnl² + aynl² over 1
			name: "semi-latus rectum",
			set: testElementSet{
				epoch: tleEpoch(2006, 176.5), incl: 63.4, ecc: 0.72, argp: 90,
				revPerDay: 2.5, bstar: -1e-3,
			},
			ok:     1300,
			decay:  []float64{1320, 1330, 1345},
			reason: ReasonSemiLatusRectum,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.set.propagator(t)
			if _, err := p.Propagate(tt.ok); err != nil {
				t.Fatalf("Propagate(%v) = %v, want no error", tt.ok, err)
			}
			for _, tsince := range tt.decay {
				_, err := p.Propagate(tsince)
				if !errors.Is(err, ErrDecayed) {
					t.Fatalf("Propagate(%v) = %v, want ErrDecayed", tsince, err)
				}
				var de *DecayError
				if !errors.As(err, &de) {
					t.Fatalf("error %T is not a *DecayError", err)
				}
				if de.Reason != tt.reason {
					t.Errorf("Propagate(%v) reason = %q, want %q", tsince, de.Reason, tt.reason)
				}
				if de.Tsince != tsince {
					t.Errorf("tsince = %v, want %v", de.Tsince, tsince)
				}
			}
		})
	}
}

func TestDeterminism(t *testing.T) {
	for _, set := range []testElementSet{vanguard, molniya, geostationary, iss} {
		a := set.propagator(t)
		b := set.propagator(t)
		for _, tsince := range []float64{-1440, -17.5, 0, 1, 719.9, 4320} {
			sa, errA := a.Propagate(tsince)
			sb, errB := b.Propagate(tsince)
			if (errA == nil) != (errB == nil) {
				t.Fatalf("errors differ at %v: %v / %v", tsince, errA, errB)
			}
			if sa != sb {
				t.Errorf("states differ at %v: %+v / %+v", tsince, sa, sb)
			}
		}
	}
}

func TestConcurrentPropagate(t *testing.T) {
	p := molniya.propagator(t)

	const samples = 64
	want := make([]MotionState, samples)
	for i := range want {
		s, err := p.Propagate(float64(i) * 97.0)
		if err != nil {
			t.Fatalf("Propagate: %v", err)
		}
		want[i] = s
	}

	got := make([]MotionState, samples)
	var wg sync.WaitGroup
	for i := 0; i < samples; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := p.Propagate(float64(i) * 97.0)
			if err != nil {
				t.Errorf("Propagate: %v", err)
				return
			}
			got[i] = s
		}(i)
	}
	wg.Wait()

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: concurrent %+v, sequential %+v", i, got[i], want[i])
		}
	}
}

func TestLowEarthOrbitRadius(t *testing.T) {
	p := iss.propagator(t)
	period := p.Elements().Period()
	minRadius := xkmper * metersPerKm
	maxRadius := (xkmper + 1000.0) * metersPerKm

	for tsince := 0.0; tsince <= 5*period; tsince += 0.5 {
		s, err := p.Propagate(tsince)
		if err != nil {
			t.Fatalf("Propagate(%v): %v", tsince, err)
		}
		if r := s.Radius(); r < minRadius || r > maxRadius {
			t.Fatalf("radius at %v min = %.0f m, outside [%.0f, %.0f]", tsince, r, minRadius, maxRadius)
		}
		// circular LEO speed is close to 7.7 km/s
		if v := s.Speed(); v < 7000 || v > 8500 {
			t.Fatalf("speed at %v min = %.1f m/s", tsince, v)
		}
	}
}

func TestSynchronousRadius(t *testing.T) {
	p := geostationary.propagator(t)
	const geoRadius = 42164e3
	for _, tsince := range []float64{-10000, -1440, 0, 720, 1440, 10000} {
		s, err := p.Propagate(tsince)
		if err != nil {
			t.Fatalf("Propagate(%v): %v", tsince, err)
		}
		if r := s.Radius(); math.Abs(r-geoRadius) > 50e3 {
			t.Errorf("radius at %v min = %.0f m, want within 50 km of %.0f", tsince, r, geoRadius)
		}
	}
}

func TestNoResonanceSkipsIntegration(t *testing.T) {
	// 0.01 rad/min is deep space (period about 628 min) but not resonant.
	el := OrbitalElements{
		Eccentricity:  0.3,
		Inclination:   0.5,
		MeanMotion:    0.01,
		MeanAnomaly:   0.3,
		ArgPerigee:    0.2,
		AscendingNode: 1.0,
	}
	p, err := NewPropagator(time.Date(2004, 9, 15, 0, 0, 0, 0, time.UTC), el, 1e-4, el.Period())
	if err != nil {
		t.Fatalf("NewPropagator: %v", err)
	}
	if !p.IsDeepSpace() {
		t.Fatal("expected deep space")
	}
	if got := p.Resonance(); got != NoResonance {
		t.Fatalf("Resonance() = %v, want none", got)
	}
	if _, ok := p.deep.res.(noResonance); !ok {
		t.Fatalf("resonance variant = %T, want noResonance", p.deep.res)
	}

	for _, tsince := range []float64{-5000, 0, 1000, 1e4} {
		working := OrbitalElements{MeanMotion: p.no}
		out := p.deep.secular(tsince, working)
		if out.MeanMotion != p.no {
			t.Errorf("mean motion at %v = %v, want the de-biased %v", tsince, out.MeanMotion, p.no)
		}
		if _, err := p.Propagate(tsince); err != nil {
			t.Errorf("Propagate(%v): %v", tsince, err)
		}
	}
}

func TestPropagateAt(t *testing.T) {
	p := vanguard.propagator(t)
	at, err := p.PropagateAt(p.Epoch().Add(360 * time.Minute))
	if err != nil {
		t.Fatalf("PropagateAt: %v", err)
	}
	want, err := p.Propagate(360)
	if err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	for i := 0; i < 3; i++ {
		if !scalar.EqualWithinAbs(at.Position[i], want.Position[i], 1e-6) {
			t.Errorf("position[%d] = %v, want %v", i, at.Position[i], want.Position[i])
		}
	}
}

func TestElementsUnchangedByPropagate(t *testing.T) {
	p := molniya.propagator(t)
	before := p.Elements()
	for _, tsince := range []float64{0, 500, -500} {
		if _, err := p.Propagate(tsince); err != nil {
			t.Fatalf("Propagate: %v", err)
		}
	}
	if after := p.Elements(); after != before {
		t.Errorf("epoch elements changed: %+v -> %+v", before, after)
	}
	if before != molniya.elements() {
		t.Errorf("Elements() = %+v, want the supplied %+v", before, molniya.elements())
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	molniya.propagator(t, WithLogger(log.NewLogfmtLogger(&buf)))
	out := buf.String()
	for _, want := range []string{"deep_space=true", "simple=true", "resonance=half-day"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q does not contain %q", out, want)
		}
	}
}

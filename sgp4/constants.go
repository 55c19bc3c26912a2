package sgp4

import "math"

// Mathematical and physical constants (WGS-72, the gravity model element sets are fitted with)
const (
	twoPi         = 2 * math.Pi
	x2o3          = 2.0 / 3.0
	mu            = 398600.8       // Earth's gravitational parameter (km³/s²)
	xkmper        = 6378.135       // Earth's radius in km
	xj2           = 0.001082616    // J2 harmonic
	xj3           = -0.00000253881 // J3 harmonic
	xj4           = -0.00000165597 // J4 harmonic
	j3oj2         = xj3 / xj2
	minutesPerDay = 1440.0
	metersPerKm   = 1000.0

	deepSpacePeriod = 225.0 // minutes
	simplePerigee   = 220.0 // km
	lowPerigee      = 156.0 // km
	floorPerigee    = 98.0  // km

	minSemiMajorAxis   = 0.95 // Earth radii
	minEccentricity    = -0.001
	eccentricityFloor  = 1.0e-6
	keplerTolerance    = 1.0e-12
	keplerMaxStep      = 0.95
	keplerMaxIteration = 10
	cosioGuard         = 1.5e-12
	jd1950             = 2433281.5 // 1950 Jan 0.0 UT
)

// Computed values (non-constants)
var (
	xke       = 60.0 / math.Sqrt(xkmper*xkmper*xkmper/mu) // sqrt(GM/R³), per minute
	vkmpersec = xkmper * xke / 60.0
	qzms2t    = math.Pow((120.0-78.0)/xkmper, 4) // (km/earth radii)^4
	ss        = 78.0/xkmper + 1.0
)

// Lunar-solar constants
const (
	zes    = 0.01675
	zel    = 0.05490
	zns    = 1.19459e-5
	znl    = 1.5835218e-4
	c1ss   = 2.9864797e-6
	c1l    = 4.7968065e-7
	zsinis = 0.39785416
	zcosis = 0.91744867
	zcosgs = 0.1945905
	zsings = -0.98088458

	// node rates are not applied below 3 degrees of inclination
	minNodeInclination = 5.2359877e-2
	// periodics switch to the Lyddane form below this inclination
	lyddaneInclination = 0.2
)

// Geopotential resonance constants
const (
	q22    = 1.7891679e-6
	q31    = 2.1460748e-6
	q33    = 2.2123015e-7
	root22 = 1.7891679e-6
	root32 = 3.7393792e-7
	root44 = 7.3636953e-9
	root52 = 1.1428639e-7
	root54 = 2.1765803e-9
	rptim  = 4.37526908801129966e-3 // Earth rotation rate (rad/min)

	fasx2 = 0.13130908
	fasx4 = 2.8843198
	fasx6 = 0.37448087
	g22   = 5.7686396
	g32   = 0.95240898
	g44   = 1.8014998
	g52   = 1.0508330
	g54   = 4.4108898

	syncLow     = 0.0034906585 // rad/min
	syncHigh    = 0.0052359877 // rad/min
	halfDayLow  = 8.26e-3      // rad/min
	halfDayHigh = 9.24e-3      // rad/min
	halfDayEcc  = 0.5

	stepp = 720.0
	stepn = -720.0
	step2 = 259200.0 // stepp²/2
)

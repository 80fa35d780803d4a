package conics

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

const (
	eccentricityε = 5e-5                         // 0.00005
	angleε        = (5e-3 / 360) * (2 * math.Pi) // 0.005 degrees
	distanceε     = 2e1                          // 20 km

	// degenerateε is the smallest magnitude allowed for inputs which would otherwise be singular.
	degenerateε = 1e-6

	// parabolicε moves a parabolic eccentricity onto the hyperbolic branch.
	parabolicε = 1e-10

	// asymptoteFraction keeps open arcs strictly inside their asymptotes.
	asymptoteFraction = 0.99999

	distanceTolerance = 1.0
	distanceMaxIter   = 50
)

// NoTrueAnomaly is returned by TrueAnomalyAtDistance when the distance is never reached.
const NoTrueAnomaly = -1.0

// Orbit is one two-body conic arc around a parent body. The elements are fixed at construction;
// only the end of the valid window may be narrowed while a chain is being patched.
type Orbit struct {
	rP, rA, a    float64
	e, i, Ω, ω   float64
	eVec         []float64
	h            float64
	hVec         []float64
	νStart, νEnd float64
	epoch, M0    float64
	period, n    float64
	endTime      float64
	parent       *Body
}

// NewOrbitFromRV returns an orbit from the position and velocity relative to the parent at the epoch.
func NewOrbitFromRV(R, V []float64, parent *Body, epoch float64) *Orbit {
	o := &Orbit{parent: parent, epoch: epoch}
	o.fromRV(R, V)
	return o
}

// NewOrbitFromOE creates an orbit from the periapsis radius, the eccentricity, and the inclination,
// RAAN, argument of periapsis and true anomaly in radians. The cartesian state is derived from the
// elements and converted back so that both constructors yield a self-consistent element set.
func NewOrbitFromOE(rP, e, i, Ω, ω, ν float64, parent *Body, epoch float64) *Orbit {
	if e == 1 {
		e = 1 + parabolicε
	} else if e < degenerateε {
		e = degenerateε
	}
	if math.Abs(i) < degenerateε {
		i = degenerateε
	}
	o := &Orbit{rP: rP, e: e, i: i, Ω: Ω, ω: ω, νStart: ν, parent: parent, epoch: epoch}
	o.h = math.Sqrt(parent.μ * rP * (1 + e))
	o.a = rP / (1 - e)
	o.M0 = TrueToMean(ν, e)
	R, V := o.CartesianAtTrueAnomaly(ν)
	o.fromRV(R, V)
	return o
}

// fromRV computes all the elements from the provided state (Vallado's RV2COE in a Y-up frame).
func (o *Orbit) fromRV(R, V []float64) {
	R, V = vec3(R), vec3(V)
	for j := 0; j < 3; j++ {
		if math.Abs(R[j]) < degenerateε {
			R[j] = degenerateε
		}
		if math.Abs(V[j]) < degenerateε {
			V[j] = degenerateε
		}
	}
	μ := o.parent.μ
	r := norm(R)
	v2 := dot(V, V)
	rDotV := dot(R, V)

	o.hVec = scale(-1, cross(R, V))
	o.h = norm(o.hVec)
	o.i = math.Acos(clamp1(o.hVec[1] / o.h))
	if math.Abs(o.i) < degenerateε {
		o.i = degenerateε
	}

	n := scale(-1, cross([]float64{0, 1, 0}, o.hVec))
	nNorm := norm(n)
	o.Ω = 0
	if nNorm > 0 {
		o.Ω = math.Acos(clamp1(n[0] / nNorm))
	}
	if n[2] < 0 {
		o.Ω = twoπ - o.Ω
	}

	o.eVec = make([]float64, 3)
	for j := 0; j < 3; j++ {
		o.eVec[j] = (v2/μ-1/r)*R[j] - (rDotV/μ)*V[j]
	}
	o.e = norm(o.eVec)
	if o.e == 1 {
		o.e = 1 + parabolicε
	}

	o.ω = 0
	if nNorm*o.e > 0 {
		o.ω = math.Acos(clamp1(dot(n, o.eVec) / (nNorm * o.e)))
	}
	if o.eVec[1] < 0 {
		o.ω = twoπ - o.ω
	}

	o.νStart = 0
	if o.e*r > 0 {
		o.νStart = math.Acos(clamp1(dot(o.eVec, R) / (o.e * r)))
	}
	if rDotV < 0 {
		o.νStart = twoπ - o.νStart
	}

	o.a = -μ / (2 * (0.5*v2 - μ/r))
	o.rP = o.h * o.h / (μ * (1 + o.e))
	if o.e >= 1 {
		o.rA = math.Inf(1)
	} else {
		o.rA = 2*o.a - o.rP
	}
	o.n = o.meanMotion()
	o.period = twoπ / o.n
	o.ResetEndWindow()
}

// ResetEndWindow recomputes the valid true anomaly window and the end time: one revolution for closed
// orbits, up to just short of the asymptote for open ones.
func (o *Orbit) ResetEndWindow() {
	if o.e < 1 {
		o.νEnd = o.νStart + twoπ
	} else {
		o.νEnd = math.Acos(-1/o.e) * asymptoteFraction
		if o.νStart >= o.νEnd {
			o.νStart -= twoπ
		}
	}
	o.M0 = TrueToMean(o.νStart, o.e)
	if o.e < 1 {
		o.endTime = o.epoch + o.period
	} else {
		o.endTime = o.TimeAtTrueAnomaly(o.νEnd)
	}
}

// narrow ends the arc at the provided patch point.
func (o *Orbit) narrow(ν, t float64) {
	o.νEnd = ν
	if o.νEnd <= o.νStart {
		o.νEnd += twoπ
	}
	o.endTime = t
}

func (o *Orbit) meanMotion() float64 {
	mult := math.Abs(1 - o.e*o.e)
	if o.e == 1 {
		mult = 1
	}
	μ := o.parent.μ
	return math.Sqrt(mult*mult*mult) * μ * μ / (o.h * o.h * o.h)
}

// CartesianAtTrueAnomaly returns the position and velocity relative to the parent at the true anomaly.
func (o *Orbit) CartesianAtTrueAnomaly(ν float64) (R, V []float64) {
	sinν, cosν := math.Sincos(ν)
	p := o.SemiParameter()
	r := p / (1 + o.e*cosν)
	k := o.parent.μ / o.h
	R = PQW2Inertial(o.i, o.ω, o.Ω, []float64{r * cosν, r * sinν, 0})
	V = PQW2Inertial(o.i, o.ω, o.Ω, []float64{-k * sinν, k * (o.e + cosν), 0})
	return
}

// CartesianAtTime returns the position and velocity relative to the parent at the time.
func (o *Orbit) CartesianAtTime(t float64) (R, V []float64) {
	return o.CartesianAtTrueAnomaly(o.TrueAnomalyAtTime(t))
}

// TrueAnomalyAtTime returns the true anomaly reached at the time.
func (o *Orbit) TrueAnomalyAtTime(t float64) float64 {
	M := o.M0 + (t-o.epoch)*o.n
	if o.e < 1 {
		M = math.Remainder(M, twoπ)
	}
	return MeanToTrue(M, o.e, o.νStart)
}

// TimeAtTrueAnomaly returns the first time at or after the epoch at which the true anomaly is reached;
// the end of a full revolution window is reached one period after the epoch.
// On open orbits, a true anomaly before the epoch's is never reached again: +Inf.
func (o *Orbit) TimeAtTrueAnomaly(ν float64) float64 {
	ΔM := TrueToMean(ν, o.e) - o.M0
	if o.e >= 1 {
		if ΔM < 0 {
			return math.Inf(1)
		}
		return o.epoch + ΔM/o.n
	}
	if ΔM < 0 {
		ΔM += twoπ
	}
	// One full revolution after the epoch maps back onto M0.
	if ΔM < anomalyTolerance && ν-o.νStart > math.Pi {
		ΔM += twoπ
	}
	return o.epoch + ΔM/o.n
}

// RadiusAt returns the distance to the parent at the true anomaly.
func (o *Orbit) RadiusAt(ν float64) float64 {
	return math.Abs(o.SemiParameter() / (1 + o.e*math.Cos(ν)))
}

// TrueAnomalyAtDistance returns the first true anomaly after periapsis at which the distance to the
// parent is reached (within one distance unit), or NoTrueAnomaly outside [periapsis, apoapsis].
func (o *Orbit) TrueAnomalyAtDistance(d float64) float64 {
	return o.trueAnomalyAtDistance(d, distanceTolerance)
}

func (o *Orbit) trueAnomalyAtDistance(d, tolerance float64) float64 {
	if d > o.rA || d < o.rP {
		return NoTrueAnomaly
	}
	guess := math.Pi
	if o.e >= 1 {
		guess = math.Acos(-1/o.e) * asymptoteFraction
	}
	step := guess / 2
	dist := o.RadiusAt(guess)
	iter := 0
	for ; iter < distanceMaxIter && (math.IsNaN(dist) || math.IsInf(dist, 0) || math.Abs(d-dist) > tolerance); iter++ {
		if dist > d {
			guess -= step
		} else {
			guess += step
		}
		step *= 0.5
		dist = o.RadiusAt(guess)
	}
	if iter == distanceMaxIter && !(math.Abs(d-dist) <= tolerance) {
		Logger().Log("level", "warning", "subsys", "orbit", "message", "distance search did not converge", "distance", d, "error", dist-d, "ν", guess)
	}
	return guess
}

// DistanceTo returns the distance between this orbit and the other at the same time.
// Both orbits must share the same parent, otherwise NaN is returned.
func (o *Orbit) DistanceTo(other *Orbit, t float64) float64 {
	if o.parent != other.parent {
		return math.NaN()
	}
	R0, _ := o.CartesianAtTime(t)
	R1, _ := other.CartesianAtTime(t)
	return norm(sub(R0, R1))
}

// PeriapsisVector returns the position at periapsis.
func (o *Orbit) PeriapsisVector() []float64 {
	R, _ := o.CartesianAtTrueAnomaly(0)
	return R
}

// ApoapsisVector returns the position at apoapsis (meaningless for open orbits).
func (o *Orbit) ApoapsisVector() []float64 {
	R, _ := o.CartesianAtTrueAnomaly(math.Pi)
	return R
}

// AscendingNodeVector returns the position at the ascending node.
func (o *Orbit) AscendingNodeVector() []float64 {
	R, _ := o.CartesianAtTrueAnomaly(-o.ω)
	return R
}

// DescendingNodeVector returns the position at the descending node.
func (o *Orbit) DescendingNodeVector() []float64 {
	R, _ := o.CartesianAtTrueAnomaly(math.Pi - o.ω)
	return R
}

// Periapsis returns the periapsis radius.
func (o *Orbit) Periapsis() float64 { return o.rP }

// Apoapsis returns the apoapsis radius, +Inf for open orbits.
func (o *Orbit) Apoapsis() float64 { return o.rA }

// SemiMajorAxis returns the semi major axis (negative for hyperbolas).
func (o *Orbit) SemiMajorAxis() float64 { return o.a }

// Eccentricity returns the eccentricity.
func (o *Orbit) Eccentricity() float64 { return o.e }

// EccentricityVector returns a copy of the eccentricity vector.
func (o *Orbit) EccentricityVector() []float64 { return vec3(o.eVec) }

// Inclination returns the inclination in radians.
func (o *Orbit) Inclination() float64 { return o.i }

// RAAN returns the right ascension of the ascending node Ω.
func (o *Orbit) RAAN() float64 { return o.Ω }

// ArgPeriapsis returns the argument of periapsis ω.
func (o *Orbit) ArgPeriapsis() float64 { return o.ω }

// StartingTrueAnomaly returns the true anomaly at the epoch.
func (o *Orbit) StartingTrueAnomaly() float64 { return o.νStart }

// EndingTrueAnomaly returns the true anomaly at which the arc ends.
func (o *Orbit) EndingTrueAnomaly() float64 { return o.νEnd }

// Epoch returns the time at which the elements are defined.
func (o *Orbit) Epoch() float64 { return o.epoch }

// MeanAnomalyAtEpoch returns M0.
func (o *Orbit) MeanAnomalyAtEpoch() float64 { return o.M0 }

// Period returns the period of this orbit (only meaningful for closed orbits).
func (o *Orbit) Period() float64 { return o.period }

// OrbitEndTime returns the time at which the arc ends.
func (o *Orbit) OrbitEndTime() float64 { return o.endTime }

// MeanMotion returns the mean motion n.
func (o *Orbit) MeanMotion() float64 { return o.n }

// HNorm returns the norm of orbital angular momentum.
func (o *Orbit) HNorm() float64 { return o.h }

// H returns a copy of the orbital angular momentum vector.
func (o *Orbit) H() []float64 { return vec3(o.hVec) }

// Parent returns the body whose μ governs this arc.
func (o *Orbit) Parent() *Body { return o.parent }

// Energyξ returns the specific mechanical energy ξ.
func (o *Orbit) Energyξ() float64 {
	return -o.parent.μ / (2 * o.a)
}

// SemiParameter returns the semi parameter p.
func (o *Orbit) SemiParameter() float64 {
	return o.h * o.h / o.parent.μ
}

// Tildeω returns the longitude of periapsis.
func (o *Orbit) Tildeω() float64 {
	return math.Mod(o.ω+o.Ω, twoπ)
}

// ArgLatitudeU returns the argument of latitude at the epoch.
func (o *Orbit) ArgLatitudeU() float64 {
	return math.Mod(o.νStart+o.ω+twoπ, twoπ)
}

// Elements returns the six classical elements at the epoch.
func (o *Orbit) Elements() (a, e, i, Ω, ω, ν float64) {
	return o.a, o.e, o.i, o.Ω, o.ω, o.νStart
}

// String implements the stringer interface.
func (o *Orbit) String() string {
	return fmt.Sprintf("rP=%.1f e=%.4f i=%.3f Ω=%.3f ω=%.3f ν=%.3f around %s", o.rP, o.e, Rad2deg(o.i), Rad2deg(o.Ω), Rad2deg(o.ω), Rad2deg(o.νStart), o.parent)
}

// Equals returns whether two orbits are identical with free true anomaly.
// Use StrictlyEquals to also check true anomaly.
func (o *Orbit) Equals(o1 *Orbit) (bool, error) {
	if o.parent != o1.parent {
		return false, errors.New("different parent")
	}
	if !scalar.EqualWithinAbsOrRel(o.rP, o1.rP, distanceε, 1e-9) {
		return false, errors.New("periapsis invalid")
	}
	if !scalar.EqualWithinAbs(o.e, o1.e, eccentricityε) {
		return false, errors.New("eccentricity invalid")
	}
	if ok, _ := anglesEqual(o.i, o1.i); !ok {
		return false, errors.New("inclination invalid")
	}
	if ok, _ := anglesEqual(o.Ω, o1.Ω); !ok {
		return false, errors.New("RAAN invalid")
	}
	if ok, _ := anglesEqual(o.ω, o1.ω); !ok {
		return false, errors.New("argument of periapsis invalid")
	}
	return true, nil
}

// StrictlyEquals returns whether two orbits are identical, including the starting true anomaly.
func (o *Orbit) StrictlyEquals(o1 *Orbit) (bool, error) {
	if ok, err := anglesEqual(o.νStart, o1.νStart); !ok {
		return false, fmt.Errorf("true anomaly invalid: %s", err)
	}
	return o.Equals(o1)
}

// anglesEqual returns whether two angles in radians are equal modulo 2π.
func anglesEqual(a, b float64) (bool, error) {
	diff := math.Mod(math.Abs(a-b), twoπ)
	if diff < angleε || twoπ-diff < angleε {
		return true, nil
	}
	return false, fmt.Errorf("difference of %3.10f degrees", Rad2deg(diff))
}

// Radii2ae returns the semi major axis and the eccentricty from the radii.
func Radii2ae(rA, rP float64) (a, e float64, err error) {
	if rA < rP {
		return 0, 0, errors.New("periapsis cannot be greater than apoapsis")
	}
	a = (rP + rA) / 2
	e = (rA - rP) / (rA + rP)
	return
}

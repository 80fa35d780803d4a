package conics

import (
	"math"
	"time"

	kitlog "github.com/go-kit/kit/log"
)

const (
	// DefaultMinSOI is the SOI below which a sibling is never considered for patching.
	DefaultMinSOI = 100

	closestApproachTolerance = 1.0 // time unit
	closestApproachMaxIter   = 50
	boundaryTolerance        = 0.1 // distance unit
	boundaryMaxIter          = 50
	// maxIntervalsPerCandidate bounds the interval scan; only two crossings per band are expected.
	maxIntervalsPerCandidate = 5
)

var φGolden = (1 + math.Sqrt(5)) / 2

// Solver predicts the next SOI transition of an arc.
type Solver struct {
	MinSOI  float64
	logger  kitlog.Logger
	metrics *Metrics
}

// NewSolver returns a solver ignoring siblings whose SOI is below minSOI.
func NewSolver(minSOI float64, metrics *Metrics) *Solver {
	return &Solver{MinSOI: minSOI, logger: kitlog.With(Logger(), "subsys", "solver"), metrics: metrics}
}

// Solve returns the earliest transition of the arc out of its parent's SOI or into the SOI of one of
// the provided siblings (all of which must orbit the arc's parent).
// NOTE: an inbound patch found for a candidate overwrites any inbound patch of a previously scanned
// candidate without comparing their times.
func (s *Solver) Solve(arc *Orbit, siblings []*Body) TransitionEvent {
	start := time.Now()
	defer func() {
		s.metrics.observeSolve(time.Since(start))
	}()

	parent := arc.Parent()
	var candidates []*crossingCandidate
	for _, sibling := range siblings {
		if sibling.Parent() != parent || sibling.Chain().Len() == 0 {
			continue
		}
		c := newCrossingCandidate(sibling)
		if c.soi > s.MinSOI && !(arc.Apoapsis() < c.minApproach()) && !(arc.Periapsis() > c.maxApproach()) {
			candidates = append(candidates, c)
		}
	}

	event := NoTransition
	if parent.Parent() != nil && arc.Apoapsis() > parent.SOI() {
		// An arc entirely outside of the parent's SOI never crosses it.
		if ν := arc.trueAnomalyAtDistance(parent.SOI(), boundaryTolerance); ν != NoTrueAnomaly {
			if ν <= arc.StartingTrueAnomaly() {
				ν += twoπ
			}
			R, V := arc.CartesianAtTrueAnomaly(ν)
			event = TransitionEvent{
				Found:     true,
				Point:     NewOrbitPoint(R, V, ν, arc.TimeAtTrueAnomaly(ν)),
				Target:    parent.Parent(),
				Direction: OutboundToParent,
			}
		}
	}

	startR, _ := arc.CartesianAtTime(arc.Epoch())
	startDistance := norm(startR)
	for _, c := range candidates {
		s.crossings(arc, c, event)
		finalTime := arc.OrbitEndTime()
		if event.Found {
			finalTime = event.Point.Time
		}

		patched := false
		inbound := func(from, to float64) bool {
			tca := s.closestApproach(from, to, arc, c.orbit)
			if arc.DistanceTo(c.orbit, tca) < c.soi {
				event = TransitionEvent{
					Found:     true,
					Point:     s.boundary(from, tca, arc, c),
					Target:    c.body,
					Direction: InboundToSibling,
				}
				return true
			}
			return false
		}

		switch {
		case len(c.crossings) == 0:
			// Not culled by the prefilter and never crossing the band: within it until the end.
			patched = inbound(arc.Epoch(), finalTime)
		case c.withinBand(startDistance):
			if patched = inbound(arc.Epoch(), c.crossings[0].Time); !patched {
				c.crossings = c.crossings[1:]
			}
		}

		for itt := 0; !patched && itt < maxIntervalsPerCandidate && len(c.crossings) > 0; itt++ {
			if len(c.crossings) == 1 {
				if patched = inbound(c.crossings[0].Time, finalTime); !patched {
					c.crossings = c.crossings[1:]
				}
				continue
			}
			if patched = inbound(c.crossings[0].Time, c.crossings[1].Time); !patched {
				c.crossings = c.crossings[2:]
			}
		}
		if patched {
			s.logger.Log("level", "debug", "candidate", c.body, "t", event.Point.Time)
		}
	}
	return event
}

// crossings fills in the times at which the arc crosses the candidate's approach band, ignoring
// crossings at or after the current best patch.
func (s *Solver) crossings(arc *Orbit, c *crossingCandidate, best TransitionEvent) {
	for _, radius := range []float64{c.minApproach(), c.maxApproach()} {
		ν := arc.TrueAnomalyAtDistance(radius)
		if ν == NoTrueAnomaly || math.IsNaN(ν) {
			continue
		}
		for _, νc := range []float64{ν, -ν} {
			t := arc.TimeAtTrueAnomaly(νc)
			if math.IsNaN(t) || math.IsInf(t, 0) || (best.Found && t >= best.Point.Time) {
				continue
			}
			R, V := arc.CartesianAtTrueAnomaly(νc)
			c.crossings = append(c.crossings, NewOrbitPoint(R, V, νc, t))
		}
	}
	c.sortCrossings()
}

// closestApproach returns the time of closest approach between both orbits within [from, to], using
// a golden section search.
func (s *Solver) closestApproach(from, to float64, arc, other *Orbit) float64 {
	f := func(t float64) float64 { return arc.DistanceTo(other, t) }
	a, d := from, to
	b := d + (a-d)/φGolden
	c := a + (d-a)/φGolden
	fb, fc := f(b), f(c)
	itr := 0
	for ; math.Abs(d-a) > closestApproachTolerance && itr < closestApproachMaxIter; itr++ {
		if fb < fc {
			d, c = c, b
			b = d + (a-d)/φGolden
			fc, fb = fb, f(b)
		} else {
			a, b = b, c
			c = a + (d-a)/φGolden
			fb, fc = fc, f(c)
		}
	}
	if itr == closestApproachMaxIter && math.Abs(d-a) > closestApproachTolerance {
		s.metrics.nonConverged("closest_approach")
		s.logger.Log("level", "warning", "message", "closest approach search did not converge", "from", from, "to", to, "width", d-a)
	}
	return (a + d) / 2
}

// boundary bisects [from, to] for the point where the distance to the candidate equals its SOI.
func (s *Solver) boundary(from, to float64, arc *Orbit, c *crossingCandidate) OrbitPoint {
	f := func(t float64) float64 { return arc.DistanceTo(c.orbit, t) }
	a, cc := from, to
	b := (a + cc) / 2
	distance := f(b)
	itr := 0
	for ; math.Abs(distance-c.soi) > boundaryTolerance && itr < boundaryMaxIter; itr++ {
		if distance > c.soi {
			a = b
		} else {
			cc = b
		}
		b = (a + cc) / 2
		distance = f(b)
	}
	if itr == boundaryMaxIter {
		s.metrics.nonConverged("soi_boundary")
		s.logger.Log("level", "warning", "message", "SOI boundary search did not converge", "candidate", c.body, "error", distance-c.soi)
	}
	R, V := arc.CartesianAtTime(b)
	ν := arc.TrueAnomalyAtTime(b)
	if ν <= arc.StartingTrueAnomaly() {
		ν += twoπ
	}
	return NewOrbitPoint(R, V, ν, b)
}

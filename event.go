package conics

import (
	"fmt"
	"sort"
)

// OrbitPoint is a point on an orbit along with the time at said point.
type OrbitPoint struct {
	R, V []float64 // position and velocity relative to the orbit's parent
	ν    float64
	Time float64
}

// NewOrbitPoint returns a point, copying the provided vectors.
func NewOrbitPoint(R, V []float64, ν, t float64) OrbitPoint {
	return OrbitPoint{vec3(R), vec3(V), ν, t}
}

// TrueAnomaly returns the true anomaly of this point on its orbit.
func (p OrbitPoint) TrueAnomaly() float64 {
	return p.ν
}

// String implements the Stringer interface.
func (p OrbitPoint) String() string {
	return fmt.Sprintf("t=%.3f ν=%.5f r=%.3f v=%.5f", p.Time, p.ν, norm(p.R), norm(p.V))
}

// Direction tells whether a transition leaves the parent or enters a sibling.
type Direction uint8

const (
	// OutboundToParent is a transition out of the parent's SOI, into the grand-parent's.
	OutboundToParent Direction = iota + 1
	// InboundToSibling is a transition into the SOI of a body sharing the same parent.
	InboundToSibling
)

func (d Direction) String() string {
	switch d {
	case OutboundToParent:
		return "outbound"
	case InboundToSibling:
		return "inbound"
	default:
		return "none"
	}
}

// TransitionEvent is the result of a patched conics solve. Point, Target and Direction are only
// meaningful when Found is set.
type TransitionEvent struct {
	Found     bool
	Point     OrbitPoint
	Target    *Body
	Direction Direction
}

// NoTransition is the empty result.
var NoTransition = TransitionEvent{}

func (e TransitionEvent) String() string {
	if !e.Found {
		return "no transition"
	}
	return fmt.Sprintf("%s into %s @ %s", e.Direction, e.Target, e.Point)
}

// Transition is emitted when a body leaves its first chain segment and is re-parented.
type Transition struct {
	Body, From, To *Body
	Point          OrbitPoint // state relative to To
}

// crossingCandidate is the scratch state of one sibling during a single solve.
type crossingCandidate struct {
	body      *Body
	orbit     *Orbit // the sibling's primary orbit
	soi       float64
	crossings []OrbitPoint
}

func newCrossingCandidate(b *Body) *crossingCandidate {
	return &crossingCandidate{body: b, orbit: b.Chain().Primary(), soi: b.SOI()}
}

// sortCrossings orders the crossings by time.
func (c *crossingCandidate) sortCrossings() {
	sort.SliceStable(c.crossings, func(i, j int) bool {
		return c.crossings[i].Time < c.crossings[j].Time
	})
}

// minApproach and maxApproach bound the parent distances at which the sibling's SOI may be reached.
func (c *crossingCandidate) minApproach() float64 {
	return c.orbit.Periapsis() - c.soi
}

func (c *crossingCandidate) maxApproach() float64 {
	return c.orbit.Apoapsis() + c.soi
}

// withinBand returns whether the provided parent distance lies within the approach band.
func (c *crossingCandidate) withinBand(r float64) bool {
	return c.minApproach() <= r && r <= c.maxApproach()
}

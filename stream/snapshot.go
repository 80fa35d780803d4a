package stream

import (
	"math"
	"time"

	"github.com/JakePhillips-Davies/conics"
)

// Segment describes one conic of a chain, enough for a renderer to draw it.
type Segment struct {
	Parent       string  `json:"parent"`
	Epoch        float64 `json:"epoch"`
	End          float64 `json:"end"`
	Periapsis    float64 `json:"periapsis"`
	Eccentricity float64 `json:"eccentricity"`
	Inclination  float64 `json:"inclination"`
	RAAN         float64 `json:"raan"`
	ArgPeriapsis float64 `json:"argPeriapsis"`
	StartAnomaly float64 `json:"startAnomaly"`
	EndAnomaly   float64 `json:"endAnomaly"`
}

// BodyState is the state of one body at the snapshot time.
type BodyState struct {
	Name     string    `json:"name"`
	Parent   string    `json:"parent,omitempty"`
	SOI      float64   `json:"soi"` // zero when unbounded
	R        []float64 `json:"r,omitempty"`
	V        []float64 `json:"v,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
}

// Snapshot is the state of a whole system, parents listed before their children.
type Snapshot struct {
	Time   float64     `json:"t"`
	Date   time.Time   `json:"date"`
	Bodies []BodyState `json:"bodies"`
}

// SnapshotOf returns the current snapshot of the system. It must be called from the goroutine which
// steps the system.
func SnapshotOf(sys *conics.System) Snapshot {
	clock := sys.Clock()
	snap := Snapshot{Time: clock.Time, Date: clock.Now()}
	for _, b := range sys.Bodies() {
		state := BodyState{Name: b.Name}
		if soi := b.SOI(); !math.IsInf(soi, 0) {
			state.SOI = soi
		}
		if b.Parent() != nil {
			state.Parent = b.Parent().Name
			pt := b.CurrentPoint()
			state.R, state.V = pt.R, pt.V
			for _, o := range b.Chain().Orbits() {
				state.Segments = append(state.Segments, segmentOf(o))
			}
		}
		snap.Bodies = append(snap.Bodies, state)
	}
	return snap
}

func segmentOf(o *conics.Orbit) Segment {
	return Segment{
		Parent:       o.Parent().Name,
		Epoch:        o.Epoch(),
		End:          o.OrbitEndTime(),
		Periapsis:    o.Periapsis(),
		Eccentricity: o.Eccentricity(),
		Inclination:  o.Inclination(),
		RAAN:         o.RAAN(),
		ArgPeriapsis: o.ArgPeriapsis(),
		StartAnomaly: o.StartingTrueAnomaly(),
		EndAnomaly:   o.EndingTrueAnomaly(),
	}
}

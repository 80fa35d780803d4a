package conics

import (
	"sync/atomic"
)

// Chain is the ordered list of conic segments predicted for one body. Segment 0 is computed from the
// live state; each following segment starts where the previous one ends, possibly around another
// parent. The list is swapped wholesale so that readers always see a complete chain.
type Chain struct {
	segments atomic.Pointer[[]*Orbit]
}

// Orbits returns the current segments. The returned slice and orbits must not be modified.
func (c *Chain) Orbits() []*Orbit {
	if p := c.segments.Load(); p != nil {
		return *p
	}
	return nil
}

// Len returns the number of segments.
func (c *Chain) Len() int {
	return len(c.Orbits())
}

// Primary returns segment 0, or nil if the chain is empty.
func (c *Chain) Primary() *Orbit {
	if segs := c.Orbits(); len(segs) > 0 {
		return segs[0]
	}
	return nil
}

func (c *Chain) swap(segs []*Orbit) {
	c.segments.Store(&segs)
}

// IndexAt returns the index of the first segment which ends after t, or the last segment.
// Returns -1 on an empty chain.
func (c *Chain) IndexAt(t float64) int {
	return indexAt(c.Orbits(), t)
}

func indexAt(segs []*Orbit, t float64) int {
	for i, o := range segs {
		if t < o.OrbitEndTime() || i == len(segs)-1 {
			return i
		}
	}
	return -1
}

// CartesianAtTime returns the state at t relative to the parent of the segment covering t, along with
// the index of that segment.
func (c *Chain) CartesianAtTime(t float64) (R, V []float64, idx int) {
	segs := c.Orbits()
	idx = indexAt(segs, t)
	if idx < 0 {
		return []float64{0, 0, 0}, []float64{0, 0, 0}, idx
	}
	R, V = segs[idx].CartesianAtTime(t)
	return
}

// extend appends predicted segments after the primary arc until no transition is found or the chain
// holds limit segments.
func (s *System) extend(body *Body, primary *Orbit) []*Orbit {
	segs := make([]*Orbit, 1, s.conf.PatchDepthLimit)
	segs[0] = primary
	for i := 0; i < s.conf.PatchDepthLimit-1; i++ {
		last := segs[i]
		event := s.solver.Solve(last, s.siblingsOf(last.Parent(), body))
		if !event.Found {
			break
		}
		last.narrow(event.Point.TrueAnomaly(), event.Point.Time)

		var R, V []float64
		switch event.Direction {
		case OutboundToParent:
			pR, pV := last.Parent().Chain().Primary().CartesianAtTime(event.Point.Time)
			R, V = add(event.Point.R, pR), add(event.Point.V, pV)
		case InboundToSibling:
			tR, tV := event.Target.Chain().Primary().CartesianAtTime(event.Point.Time)
			R, V = sub(event.Point.R, tR), sub(event.Point.V, tV)
		}
		segs = append(segs, NewOrbitFromRV(R, V, event.Target, event.Point.Time))
	}
	return segs
}

// StepBody recomputes the chain of a body at the provided time. If the body has left its first
// segment since the last step, it is re-parented to the body of the segment it is now on and its
// chain restarts from the current state.
func (s *System) StepBody(b *Body, now float64) {
	if b.parent == nil {
		return
	}
	segs := b.chain.Orbits()
	if len(segs) == 0 {
		if err := s.seed(b, now); err != nil {
			b.logger.Log("level", "critical", "subsys", "chain", "err", err)
			return
		}
		segs = b.chain.Orbits()
	}
	idx := indexAt(segs, now)
	seg := segs[idx]
	R, V := seg.CartesianAtTime(now)
	b.current = NewOrbitPoint(R, V, seg.TrueAnomalyAtTime(now), now)

	if idx > 0 {
		from := b.parent
		s.reparent(b, seg.Parent())
		b.chain.swap([]*Orbit{NewOrbitFromRV(R, V, b.parent, now)})
		b.RecalcSOI()
		b.logger.Log("level", "notice", "subsys", "chain", "transition", from, "into", b.parent, "t", now, "r", norm(R))
		s.metrics.transition(b.Name, b.parent.Name)
		s.metrics.chain(b.Name, 1)
		if s.onTransition != nil {
			s.onTransition(Transition{Body: b, From: from, To: b.parent, Point: b.current})
		}
		return
	}

	chain := s.extend(b, NewOrbitFromRV(R, V, b.parent, now))
	b.chain.swap(chain)
	s.metrics.chain(b.Name, len(chain))
}

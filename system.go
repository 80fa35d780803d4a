package conics

import (
	"context"
	"fmt"
	"time"

	kitlog "github.com/go-kit/kit/log"
)

// statusInterval is the wall clock period between two status reports of Run.
const statusInterval = 10 * time.Second

// System is the registry of all the bodies of one simulation, arranged as a tree under a root body.
// A System is not safe for concurrent use; concurrent readers should only use chain snapshots.
type System struct {
	conf         Config
	clock        *UniversalTime
	root         *Body
	bodies       map[string]*Body
	solver       *Solver
	metrics      *Metrics
	logger       kitlog.Logger
	onTransition func(Transition)
	onStep       func(now float64)
}

// NewSystem returns a system around the provided root body. The metrics may be nil.
func NewSystem(conf Config, root *Body, metrics *Metrics) (*System, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if root.parent != nil {
		return nil, fmt.Errorf("%s cannot be a root: it orbits %s", root, root.parent)
	}
	if root.logger == nil {
		root.logger = kitlog.With(Logger(), "body", root.Name)
	}
	root.RecalcSOI()
	return &System{
		conf:    conf,
		clock:   NewUniversalTime(conf),
		root:    root,
		bodies:  map[string]*Body{root.Name: root},
		solver:  NewSolver(conf.MinSOI, metrics),
		metrics: metrics,
		logger:  kitlog.With(Logger(), "subsys", "system"),
	}, nil
}

// Config returns the configuration of this system.
func (s *System) Config() Config { return s.conf }

// Clock returns the simulation clock.
func (s *System) Clock() *UniversalTime { return s.clock }

// Root returns the root body.
func (s *System) Root() *Body { return s.root }

// Body returns the body of the provided name.
func (s *System) Body(name string) (*Body, bool) {
	b, ok := s.bodies[name]
	return b, ok
}

// OnTransition registers the function called each time a body is re-parented.
func (s *System) OnTransition(f func(Transition)) {
	s.onTransition = f
}

// OnStep registers the function called after each step, once every chain is recomputed.
func (s *System) OnStep(f func(now float64)) {
	s.onStep = f
}

// Add registers a body orbiting the provided parent, which must already be part of the system, and
// computes its first chain at the current time.
func (s *System) Add(b, parent *Body) error {
	if _, exists := s.bodies[b.Name]; exists {
		return fmt.Errorf("a body named %s already exists", b.Name)
	}
	if known, ok := s.bodies[parent.Name]; !ok || known != parent {
		return fmt.Errorf("parent %s is not part of the system", parent)
	}
	if b.logger == nil {
		b.logger = kitlog.With(Logger(), "body", b.Name)
	}
	b.attach(parent)
	if err := s.seed(b, s.clock.Time); err != nil {
		b.detach()
		return err
	}
	s.bodies[b.Name] = b
	s.StepBody(b, s.clock.Time)
	return nil
}

// seed replaces the chain of the body with its initial orbit.
func (s *System) seed(b *Body, now float64) error {
	o, err := b.seedOrbit(now)
	if err != nil {
		return err
	}
	b.chain.swap([]*Orbit{o})
	b.RecalcSOI()
	return nil
}

// Siblings returns the other children of the body's parent.
func (s *System) Siblings(b *Body) []*Body {
	return s.siblingsOf(b.parent, b)
}

func (s *System) siblingsOf(parent, exclude *Body) []*Body {
	if parent == nil {
		return nil
	}
	siblings := make([]*Body, 0, len(parent.children))
	for _, c := range parent.children {
		if c != exclude {
			siblings = append(siblings, c)
		}
	}
	return siblings
}

// Bodies returns all the bodies, parents before their children.
func (s *System) Bodies() []*Body {
	bodies := []*Body{s.root}
	for i := 0; i < len(bodies); i++ {
		bodies = append(bodies, bodies[i].children...)
	}
	return bodies
}

func (s *System) reparent(b, parent *Body) {
	b.detach()
	b.attach(parent)
}

// Step advances the clock by dt (before time scaling) and recomputes every chain, parents first.
func (s *System) Step(dt float64) {
	now := s.clock.Advance(dt)
	for _, b := range s.Bodies() {
		s.StepBody(b, now)
	}
	if s.onStep != nil {
		s.onStep(now)
	}
}

// LogStatus logs the current time and the state of every moving body.
func (s *System) LogStatus() {
	s.logger.Log("level", "info", "t", s.clock.Time, "date", s.clock.Now(), "bodies", len(s.bodies))
	for _, b := range s.Bodies() {
		if b.parent == nil {
			continue
		}
		s.logger.Log("level", "debug", "body", b, "parent", b.parent, "segments", b.chain.Len(), "point", b.current)
	}
}

// Run performs the provided number of steps, reporting the status periodically. It stops early when
// the context is done.
func (s *System) Run(ctx context.Context, steps int, dt float64) error {
	s.LogStatus()
	start := time.Now()
	lastStatus := start
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			s.logger.Log("level", "warning", "status", "stopped", "step", i)
			return ctx.Err()
		default:
		}
		s.Step(dt)
		if time.Since(lastStatus) > statusInterval {
			s.LogStatus()
			lastStatus = time.Now()
		}
	}
	s.logger.Log("level", "notice", "status", "finished", "steps", steps, "sim(s)", s.clock.Time, "wall", time.Since(start))
	s.LogStatus()
	return nil
}

package conics

import (
	"errors"
	"fmt"
	"math"
	"strings"

	kitlog "github.com/go-kit/kit/log"
)

const (
	// AU is one astronomical unit in kilometers.
	AU = 1.49597870700e8

	// soiExponent is the exponent of the Laplace SOI approximation r_soi = a (m/M)^(2/5).
	soiExponent = 0.4
)

// Body is a gravitating object of the system tree. The root body has no parent and an infinite SOI;
// every other body moves on its own orbit chain around its parent.
type Body struct {
	Name   string
	Radius float64
	μ      float64
	soi    float64
	fixed  bool // SOI provided by the user rather than derived

	a    float64 // catalog semi-major axis around the parent, used to seed a circular orbit
	incl float64 // catalog inclination in degrees

	initR, initV []float64
	initOE       *elements

	parent   *Body
	children []*Body
	chain    *Chain
	current  OrbitPoint
	logger   kitlog.Logger
}

type elements struct {
	rP, e, i, Ω, ω, ν float64
}

// NewBody returns a new body. A non-positive SOI is derived from the body's first orbit once it is
// added to a system (or infinite for a root body).
func NewBody(name string, radius, μ, soi float64) *Body {
	b := &Body{Name: name, Radius: radius, μ: μ, chain: &Chain{}, logger: kitlog.With(Logger(), "body", name)}
	if soi > 0 {
		b.soi = soi
		b.fixed = true
	}
	return b
}

// GM returns μ (which is unexported because it's a lowercase letter)
func (b *Body) GM() float64 {
	return b.μ
}

// SOI returns the radius of the sphere of influence; +Inf for the root.
func (b *Body) SOI() float64 {
	if b.parent == nil && !b.fixed {
		return math.Inf(1)
	}
	return b.soi
}

// Parent returns the parent body, nil for the root.
func (b *Body) Parent() *Body {
	return b.parent
}

// Children returns a copy of the ordered children.
func (b *Body) Children() []*Body {
	c := make([]*Body, len(b.children))
	copy(c, b.children)
	return c
}

// Chain returns the orbit chain of this body.
func (b *Body) Chain() *Chain {
	return b.chain
}

// CurrentPoint returns the state computed during the last step, relative to the parent.
func (b *Body) CurrentPoint() OrbitPoint {
	return b.current
}

// SetInitialState sets the state relative to the parent used to seed the first orbit.
func (b *Body) SetInitialState(R, V []float64) {
	b.initR, b.initV = vec3(R), vec3(V)
	b.initOE = nil
}

// SetInitialElements seeds the first orbit from orbital elements instead (angles in radians).
func (b *Body) SetInitialElements(rP, e, i, Ω, ω, ν float64) {
	b.initOE = &elements{rP, e, i, Ω, ω, ν}
	b.initR, b.initV = nil, nil
}

// State returns the position and velocity relative to the parent at time t.
func (b *Body) State(t float64) (R, V []float64) {
	if b.parent == nil || b.chain.Len() == 0 {
		return []float64{0, 0, 0}, []float64{0, 0, 0}
	}
	R, V, _ = b.chain.CartesianAtTime(t)
	return
}

// RecalcSOI derives the SOI from the primary orbit: periapsis * (m/M)^0.4.
func (b *Body) RecalcSOI() {
	if b.fixed {
		return
	}
	if b.parent == nil || b.chain.Len() == 0 {
		b.soi = math.Inf(1)
		return
	}
	b.soi = b.chain.Primary().Periapsis() * math.Pow(b.μ/b.parent.μ, soiExponent)
}

// String implements the Stringer interface.
func (b *Body) String() string {
	if b == nil {
		return "<nil>"
	}
	return b.Name
}

// seedOrbit returns the first orbit of this body around its parent at the given epoch.
func (b *Body) seedOrbit(epoch float64) (*Orbit, error) {
	if b.parent == nil {
		return nil, errRootOrbit
	}
	switch {
	case b.initOE != nil:
		oe := b.initOE
		return NewOrbitFromOE(oe.rP, oe.e, oe.i, oe.Ω, oe.ω, oe.ν, b.parent, epoch), nil
	case b.initR != nil:
		return NewOrbitFromRV(b.initR, b.initV, b.parent, epoch), nil
	case b.a > 0:
		// Circular orbit from the catalog, starting on the +X axis.
		v := math.Sqrt(b.parent.μ / b.a)
		si, ci := math.Sincos(Deg2rad(b.incl))
		return NewOrbitFromRV([]float64{b.a, 0, 0}, []float64{0, v * si, v * ci}, b.parent, epoch), nil
	default:
		return nil, fmt.Errorf("%s has no initial state", b.Name)
	}
}

func (b *Body) detach() {
	if b.parent == nil {
		return
	}
	siblings := b.parent.children
	for i, c := range siblings {
		if c == b {
			b.parent.children = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	b.parent = nil
}

func (b *Body) attach(parent *Body) {
	b.parent = parent
	parent.children = append(parent.children, b)
}

// BodyFromString returns a fresh copy of a catalog body from its name.
func BodyFromString(name string) (*Body, error) {
	var tpl Body
	switch strings.ToLower(name) {
	case "sun":
		tpl = Sun
	case "venus":
		tpl = Venus
	case "earth":
		tpl = Earth
	case "moon":
		tpl = Moon
	case "mars":
		tpl = Mars
	case "jupiter":
		tpl = Jupiter
	default:
		return nil, fmt.Errorf("undefined body '%s'", name)
	}
	b := tpl
	b.chain = &Chain{}
	b.logger = kitlog.With(Logger(), "body", b.Name)
	return &b, nil
}

// errRootOrbit is returned when asking for the orbit of a parentless body.
var errRootOrbit = errors.New("root body has no orbit")

/* Definitions, in km and km^3/s^2 */

// Sun is our closest star.
var Sun = Body{Name: "Sun", Radius: 695700, μ: 1.32712440017987e11}

// Venus is poisonous.
var Venus = Body{Name: "Venus", Radius: 6051.8, μ: 3.24858599e5, soi: 0.616e6, fixed: true, a: 108208601, incl: 3.39458}

// Earth is home.
var Earth = Body{Name: "Earth", Radius: 6378.1363, μ: 3.98600433e5, soi: 924645.0, fixed: true, a: 149598023, incl: 0.00005}

// Moon is made of regolith, not cheese.
var Moon = Body{Name: "Moon", Radius: 1737.4, μ: 4.902800066e3, soi: 66100, fixed: true, a: 384400, incl: 5.145}

// Mars is the vacation place.
var Mars = Body{Name: "Mars", Radius: 3396.19, μ: 4.28283100e4, soi: 576000, fixed: true, a: 227939282.5616, incl: 1.85}

// Jupiter is big.
var Jupiter = Body{Name: "Jupiter", Radius: 71492.0, μ: 1.266865361e8, soi: 48.2e6, fixed: true, a: 778298361, incl: 1.30326966}

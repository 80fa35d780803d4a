package conics

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// UniversalTime is the simulation clock. Time is in seconds since Epoch.
type UniversalTime struct {
	Time        float64
	Delta       float64 // last scaled advance
	Scale       int
	Exponential bool
	Epoch       time.Time
}

// NewUniversalTime returns a clock at zero from the time settings of the configuration.
func NewUniversalTime(conf Config) *UniversalTime {
	return &UniversalTime{Scale: conf.TimeScale, Exponential: conf.ExponentialScale, Epoch: conf.Epoch}
}

// Factor returns the multiplier applied to each advance. In exponential mode, the factor is
// 2^(scale-1) truncated to an integer, and a scale of zero pauses the clock.
func (u *UniversalTime) Factor() float64 {
	if !u.Exponential {
		return float64(u.Scale)
	}
	if u.Scale == 0 {
		return 0
	}
	return math.Trunc(math.Pow(2, float64(u.Scale-1)))
}

// Advance moves the clock forward by the scaled delta and returns the new time.
func (u *UniversalTime) Advance(delta float64) float64 {
	u.Delta = delta * u.Factor()
	u.Time += u.Delta
	return u.Time
}

// DateAt returns the calendar date of the simulation time t.
func (u *UniversalTime) DateAt(t float64) time.Time {
	return u.Epoch.Add(time.Duration(t * float64(time.Second))).UTC()
}

// JDE returns the Julian date of the simulation time t.
func (u *UniversalTime) JDE(t float64) float64 {
	return julian.TimeToJD(u.DateAt(t))
}

// Now returns the calendar date of the current time.
func (u *UniversalTime) Now() time.Time {
	return u.DateAt(u.Time)
}

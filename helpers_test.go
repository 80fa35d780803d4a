package conics

import (
	"bytes"
	"math"
	"testing"

	kitlog "github.com/go-kit/kit/log"
	"gonum.org/v1/gonum/floats/scalar"
)

func vectorsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := len(a) - 1; i >= 0; i-- {
		if !scalar.EqualWithinRel(a[i], b[i], 1e-3) {
			return false
		}
	}
	return true
}

// relErr returns |a-b|/|a| for 3-vectors.
func relErr(a, b []float64) float64 {
	return norm(sub(a, b)) / norm(a)
}

// wrapped returns the difference between two angles, in (-π, π].
func wrapped(a, b float64) float64 {
	return math.Remainder(a-b, twoπ)
}

// testBody returns a registered body without going through a System.
func testBody(name string, μ, soi float64, parent *Body, o *Orbit) *Body {
	b := NewBody(name, 1, μ, soi)
	if parent != nil {
		b.attach(parent)
	}
	if o != nil {
		b.chain.swap([]*Orbit{o})
	}
	return b
}

func assertFinite(t *testing.T, name string, v []float64) {
	t.Helper()
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			t.Fatalf("%s[%d] = %f", name, i, x)
		}
	}
}

// captureLog redirects the package logger to a buffer for the duration of the test. Solvers and
// bodies created afterwards log to it as well.
func captureLog(t *testing.T) *bytes.Buffer {
	buf := new(bytes.Buffer)
	prev := Logger()
	SetLogger(kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(buf)))
	t.Cleanup(func() { SetLogger(prev) })
	return buf
}

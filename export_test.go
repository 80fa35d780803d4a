package conics

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestSampleChain(t *testing.T) {
	_, _, _, probe := outboundSystem(t, DefaultConfig())
	segs := probe.Chain().Orbits()
	samples := SampleChain(probe, 10)
	if len(samples) != 10*len(segs) {
		t.Fatalf("expected %d samples, got %d", 10*len(segs), len(samples))
	}
	for i, s := range samples {
		o := segs[s.Segment]
		if s.Parent != o.Parent().Name || s.Body != "probe" {
			t.Fatalf("sample %d: invalid names %s/%s", i, s.Body, s.Parent)
		}
		if s.Time < o.Epoch() || s.Time > o.OrbitEndTime()*(1+1e-12) {
			t.Fatalf("sample %d at %f outside of segment %d", i, s.Time, s.Segment)
		}
		assertFinite(t, "R", s.R)
		assertFinite(t, "V", s.V)
	}
	R, _ := segs[0].CartesianAtTime(segs[0].Epoch())
	if !vectorsEqual(samples[0].R, R) {
		t.Fatal("first sample is not at the epoch")
	}
	if len(SampleChain(probe, 0)) != 2*len(segs) {
		t.Fatal("expected at least two samples per segment")
	}
}

func TestWriteCSV(t *testing.T) {
	_, _, _, probe := outboundSystem(t, DefaultConfig())
	samples := SampleChain(probe, 5)
	var buf bytes.Buffer
	if err := WriteCSV(&buf, samples); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != len(samples)+1 || len(records[0]) != 11 || records[0][4] != "nu" {
		t.Fatalf("invalid CSV layout: %d records", len(records))
	}
	for i, rec := range records[1:] {
		x, err := strconv.ParseFloat(rec[5], 64)
		if err != nil {
			t.Fatal(err)
		}
		if x != samples[i].R[0] {
			t.Fatalf("record %d: x=%f, expected %f", i, x, samples[i].R[0])
		}
	}
}

func TestInterpolatedStates(t *testing.T) {
	sys, _, _, probe := outboundSystem(t, DefaultConfig())
	samples := SampleChain(probe, 7)
	var buf bytes.Buffer
	if err := WriteInterpolatedStates(&buf, samples, sys.Clock()); err != nil {
		t.Fatal(err)
	}
	states, err := ParseInterpolatedStates(buf.String())
	if err != nil {
		t.Fatal(err)
	}
	if len(states) != len(samples) {
		t.Fatalf("expected %d states, got %d", len(samples), len(states))
	}
	for i, st := range states {
		if !scalar.EqualWithinAbs(st.JD, sys.Clock().JDE(samples[i].Time), 1e-6) {
			t.Fatalf("state %d: JD %f", i, st.JD)
		}
		for j := 0; j < 3; j++ {
			if !scalar.EqualWithinAbs(st.Position[j], samples[i].R[j], 1e-5) || !scalar.EqualWithinAbs(st.Velocity[j], samples[i].V[j], 1e-5) {
				t.Fatalf("state %d differs from its sample", i)
			}
		}
	}
	if _, err := ParseInterpolatedStates("2451545.0 1 2 3\n"); err == nil {
		t.Fatal("expected an error on a short record")
	}
	if _, err := ParseInterpolatedStates("2451545.0 1 2 3 4 5 six\n"); err == nil {
		t.Fatal("expected an error on an invalid number")
	}
}

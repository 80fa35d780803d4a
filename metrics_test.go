package conics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewMetrics(reg); err == nil {
		t.Fatal("expected an error when registering twice")
	}

	sun, _ := BodyFromString("Sun")
	sys, err := NewSystem(DefaultConfig(), sun, m)
	if err != nil {
		t.Fatal(err)
	}
	earth, _ := BodyFromString("Earth")
	if err := sys.Add(earth, sun); err != nil {
		t.Fatal(err)
	}
	probe := NewBody("probe", 0.001, 1e-20, 0)
	probe.SetInitialElements(7000, 1.5, 0.3, 0.2, 0.5, 0)
	if err := sys.Add(probe, earth); err != nil {
		t.Fatal(err)
	}
	if n := testutil.ToFloat64(m.chainLength.WithLabelValues("probe")); int(n) != probe.Chain().Len() {
		t.Fatalf("chain length gauge is %f", n)
	}
	if testutil.CollectAndCount(m.solveDuration) != 1 {
		t.Fatal("solve duration not collected")
	}

	sys.Step(2e5)
	if n := testutil.ToFloat64(m.transitions.WithLabelValues("probe", "Sun")); n != 1 {
		t.Fatalf("expected one transition, got %f", n)
	}
	if n := testutil.ToFloat64(m.chainLength.WithLabelValues("probe")); n != 1 {
		t.Fatalf("chain restarted with %f segments", n)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.observeSolve(time.Second)
	m.transition("a", "b")
	m.nonConverged("golden")
	m.chain("a", 2)
}

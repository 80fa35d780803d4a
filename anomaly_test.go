package conics

import (
	"math"
	"testing"
)

func TestAnomalyInversionElliptic(t *testing.T) {
	for e := 0.0; e <= 0.999; e += 0.009 {
		for ν := -math.Pi; ν <= math.Pi; ν += math.Pi / 36 {
			M := TrueToMean(ν, e)
			if M < -math.Pi-1e-12 || M > math.Pi+1e-12 {
				t.Fatalf("M=%f out of range for e=%f ν=%f", M, e, ν)
			}
			if got := MeanToTrue(M, e, ν); math.Abs(wrapped(got, ν)) > 1e-6 {
				t.Fatalf("e=%f: ν=%.12f -> M=%f -> ν=%.12f", e, ν, M, got)
			}
		}
	}
}

func TestAnomalyInversionParabolic(t *testing.T) {
	for ν := -3.0; ν <= 3.0; ν += 0.05 {
		M := TrueToMean(ν, 1)
		if got := MeanToTrue(M, 1, ν); math.Abs(got-ν) > 1e-6 {
			t.Fatalf("ν=%.12f -> M=%f -> ν=%.12f", ν, M, got)
		}
	}
}

func TestAnomalyInversionHyperbolic(t *testing.T) {
	for _, e := range []float64{1.01, 1.5, 5, 20} {
		asymptote := math.Acos(-1 / e)
		for f := -0.95; f <= 0.95; f += 0.05 {
			ν := f * asymptote
			M := TrueToMean(ν, e)
			if got := MeanToTrue(M, e, ν); math.Abs(got-ν) > 1e-6 {
				t.Fatalf("e=%f: ν=%.12f -> M=%f -> ν=%.12f", e, ν, M, got)
			}
		}
	}
	// Same as above with e=5 and the hint away from the solution.
	for ν := -1.7; ν <= 1.7; ν += 0.1 {
		M := TrueToMean(ν, 5)
		if got := MeanToTrue(M, 5, 0); math.Abs(got-ν) > 1e-6 {
			t.Fatalf("e=5: ν=%.12f -> M=%f -> ν=%.12f (zero hint)", ν, M, got)
		}
	}
}

func TestAnomalyWraparound(t *testing.T) {
	// Mean anomalies beyond one revolution are reduced before solving.
	e := 0.3
	ν := 1.2
	M := TrueToMean(ν, e)
	for _, revs := range []float64{-2, 1, 5} {
		if got := MeanToTrue(M+revs*twoπ, e, ν); math.Abs(wrapped(got, ν)) > 1e-6 {
			t.Fatalf("%+.0f revolutions: got %f exp %f", revs, got, ν)
		}
	}
}

func TestAnomalyNaN(t *testing.T) {
	if got := MeanToTrue(math.NaN(), 0.5, 1.2); got != 1.2 {
		t.Fatalf("NaN mean anomaly should return the hint, got %f", got)
	}
	got := MeanToTrue(1, 0.5, math.NaN())
	if math.IsNaN(got) {
		t.Fatal("NaN hint should be replaced")
	}
	if math.Abs(TrueToMean(got, 0.5)-1) > 1e-9 {
		t.Fatalf("NaN hint: incorrect solution %f", got)
	}
	// Beyond the asymptote, the clamped conversion stays defined.
	if H := HyperbolicAnomaly(2.5, 1.5); !math.IsInf(H, 1) {
		t.Fatalf("expected +Inf beyond the asymptote, got %f", H)
	}
}

func TestEccentricAnomaly(t *testing.T) {
	// E=0.4 rad for e=0.4 is reached at ν=0.6006 rad.
	E := EccentricAnomaly(0.6006, 0.4)
	if math.Abs(E-0.4) > 1e-3 {
		t.Fatalf("E=%f", E)
	}
	if EccentricAnomaly(0, 0.7) != 0 || HyperbolicAnomaly(0, 2) != 0 {
		t.Fatal("anomalies at periapsis should be zero")
	}
}

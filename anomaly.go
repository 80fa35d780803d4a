package conics

import "math"

const (
	anomalyTolerance = 1e-9
	anomalyMaxIter   = 200
)

// EccentricAnomaly returns the eccentric anomaly E of an elliptic orbit (e < 1) for the given true anomaly.
func EccentricAnomaly(ν, e float64) float64 {
	return 2 * math.Atan(math.Tan(0.5*ν)*math.Sqrt((1-e)/(1+e)))
}

// HyperbolicAnomaly returns the hyperbolic anomaly H of an open orbit (e > 1) for the given true anomaly.
// The atanh argument is clamped to [-1, 1], so a true anomaly beyond the asymptote yields ±Inf.
func HyperbolicAnomaly(ν, e float64) float64 {
	return 2 * math.Atanh(clamp1(math.Tan(0.5*ν)*math.Sqrt((e-1)/(e+1))))
}

// TrueToMean converts a true anomaly into a mean anomaly for the regime selected by the eccentricity.
func TrueToMean(ν, e float64) float64 {
	switch {
	case e < 1:
		E := EccentricAnomaly(ν, e)
		return E - e*math.Sin(E)
	case e == 1:
		// Barker's equation.
		D := math.Tan(0.5 * ν)
		return 0.5 * D * (1 + D*D/3)
	default:
		H := HyperbolicAnomaly(ν, e)
		M := e*math.Sinh(H) - H
		if math.IsNaN(M) {
			Logger().Log("level", "warning", "subsys", "anomaly", "message", "mean anomaly is NaN", "ν", ν, "e", e, "H", H)
		}
		return M
	}
}

// MeanToTrue converts a mean anomaly into a true anomaly. The hint only selects the branch: the solver
// is seeded from it, which matters for open orbits and after wraparound on closed ones.
// Elliptic results are in (-π, π]. A NaN mean anomaly returns the hint; a NaN hint is replaced by zero.
func MeanToTrue(M, e, νHint float64) float64 {
	if math.IsNaN(νHint) {
		Logger().Log("level", "warning", "subsys", "anomaly", "message", "true anomaly hint is NaN")
		νHint = 0
	}
	if math.IsNaN(M) {
		Logger().Log("level", "warning", "subsys", "anomaly", "message", "mean anomaly is NaN", "e", e, "hint", νHint)
		return νHint
	}

	switch {
	case e < 1:
		M = math.Remainder(M, twoπ)
		E := EccentricAnomaly(νHint, e)
		lo, hi := M-e, M+e
		for iter := 0; iter < anomalyMaxIter; iter++ {
			E = math.Max(lo, math.Min(hi, E))
			δ := -(E - e*math.Sin(E) - M) / (1 - e*math.Cos(E))
			E += δ
			if math.Abs(δ) < anomalyTolerance {
				break
			}
			if iter+1 == anomalyMaxIter {
				Logger().Log("level", "warning", "subsys", "anomaly", "message", "Kepler solver did not converge", "M", M, "e", e, "hint", νHint)
			}
		}
		return 2 * math.Atan(math.Tan(0.5*E)*math.Sqrt((1+e)/(1-e)))

	case e == 1:
		z := math.Cbrt(3*M + math.Sqrt(1+9*M*M))
		return 2 * math.Atan(z-1/z)

	default:
		// Seed strictly inside the asymptotes so that the Newton iterate stays finite.
		s := math.Tan(0.5*νHint) * math.Sqrt((e-1)/(e+1))
		H := 2 * math.Atanh(math.Max(-1+1e-12, math.Min(1-1e-12, s)))
		if math.IsNaN(H) {
			H = 0
		}
		// The root satisfies e sinh H >= M + H and (e-1) sinh H <= M (for M >= 0).
		lo, hi := math.Asinh(M/e), math.Asinh(M/(e-1))
		if lo > hi {
			lo, hi = hi, lo
		}
		for iter := 0; iter < anomalyMaxIter; iter++ {
			H = math.Max(lo, math.Min(hi, H))
			δ := -(e*math.Sinh(H) - H - M) / (e*math.Cosh(H) - 1)
			H += δ
			if math.Abs(δ) < anomalyTolerance {
				break
			}
			if iter+1 == anomalyMaxIter {
				Logger().Log("level", "warning", "subsys", "anomaly", "message", "hyperbolic Kepler solver did not converge", "M", M, "e", e, "hint", νHint, "H", H)
			}
		}
		return 2 * math.Atan(math.Tanh(0.5*H)*math.Sqrt((e+1)/(e-1)))
	}
}

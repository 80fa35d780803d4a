package conics

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// R1 rotation about the 1st axis.
func R1(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, c, s, 0, -s, c})
}

// R3 rotation about the 3rd axis.
func R3(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{c, s, 0, -s, c, 0, 0, 0, 1})
}

// MxV33 multiplies a matrix with a vector. Note that there is no dimension check!
func MxV33(m mat.Matrix, v []float64) []float64 {
	var rVec mat.VecDense
	rVec.MulVec(m, mat.NewVecDense(len(v), v))
	return []float64{rVec.AtVec(0), rVec.AtVec(1), rVec.AtVec(2)}
}

// PQW2ECI converts a perifocal vector to the Z-up inertial frame, i.e. R3(-Ω)*R1(-i)*R3(-ω).
func PQW2ECI(i, ω, Ω float64, vI []float64) []float64 {
	var rot, tmp mat.Dense
	tmp.Mul(R1(-i), R3(-ω))
	rot.Mul(R3(-Ω), &tmp)
	return MxV33(&rot, vI)
}

// PQW2Inertial converts a perifocal vector to the Y-up inertial frame used by every orbit in this
// package: the Z-up result of PQW2ECI with its second and third axes swapped.
func PQW2Inertial(i, ω, Ω float64, vI []float64) []float64 {
	zUp := PQW2ECI(i, ω, Ω, vI)
	return []float64{zUp[0], zUp[2], zUp[1]}
}

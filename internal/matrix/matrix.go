// Package matrix implements the field-element matrix algebra behind the
// Poseidon linear layer. Besides the two mixers applied during permutation
// (dense and sparse), the operations here exist to construct parameters and
// are not used in the permutation hot path.
package matrix

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Matrix is a square matrix of field elements in row-major order.
type Matrix [][]fr.Element

// New returns a t by t zero matrix.
func New(t int) Matrix {
	m := make(Matrix, t)
	for i := range m {
		m[i] = make([]fr.Element, t)
	}
	return m
}

// Identity returns the t by t identity matrix.
func Identity(t int) Matrix {
	m := New(t)
	for i := 0; i < t; i++ {
		m[i][i].SetOne()
	}
	return m
}

// Cauchy constructs the t by t matrix m[i][j] = 1/(xs[i] + ys[j]). The
// generator sequences must be pairwise distinct and no pair may sum to zero,
// otherwise the result would not be maximum distance separable.
func Cauchy(xs, ys []fr.Element) (Matrix, error) {
	for i := range xs {
		for j := i + 1; j < len(xs); j++ {
			if xs[i].Equal(&xs[j]) || ys[i].Equal(&ys[j]) {
				return nil, fmt.Errorf("poseidon: duplicate cauchy generator at %d and %d", i, j)
			}
		}
	}
	m := New(len(xs))
	for i := range xs {
		for j := range ys {
			var sum fr.Element
			sum.Add(&xs[i], &ys[j])
			if sum.IsZero() {
				return nil, fmt.Errorf("poseidon: cauchy generators sum to zero at (%d,%d)", i, j)
			}
			m[i][j].Inverse(&sum)
		}
	}
	return m, nil
}

// Transpose returns the transpose of m.
func (m Matrix) Transpose() Matrix {
	r := New(len(m))
	for i, row := range m {
		for j := range row {
			r[j][i] = m[i][j]
		}
	}
	return r
}

// Mul returns the matrix product m * other.
func (m Matrix) Mul(other Matrix) Matrix {
	t := len(m)
	r := New(t)
	var tmp fr.Element
	for i := 0; i < t; i++ {
		for j := 0; j < t; j++ {
			for k := 0; k < t; k++ {
				tmp.Mul(&m[i][k], &other[k][j])
				r[i][j].Add(&r[i][j], &tmp)
			}
		}
	}
	return r
}

// MulVector returns the matrix-vector product m * v.
func (m Matrix) MulVector(v []fr.Element) []fr.Element {
	r := make([]fr.Element, len(m))
	var tmp fr.Element
	for i, row := range m {
		for j := range row {
			tmp.Mul(&row[j], &v[j])
			r[i].Add(&r[i], &tmp)
		}
	}
	return r
}

// Apply multiplies the state vector by m in place.
func (m Matrix) Apply(state []fr.Element) {
	copy(state, m.MulVector(state))
}

// Invert returns the inverse of m via Gauss-Jordan elimination. A singular
// matrix is reported as an error rather than a silently wrong result.
func (m Matrix) Invert() (Matrix, error) {
	t := len(m)
	aug := make([][]fr.Element, t)
	for i, row := range m {
		aug[i] = make([]fr.Element, 2*t)
		copy(aug[i], row)
		aug[i][t+i].SetOne()
	}

	var tmp fr.Element
	for col := 0; col < t; col++ {
		pivot := -1
		for r := col; r < t; r++ {
			if !aug[r][col].IsZero() {
				pivot = r
				break
			}
		}
		if pivot < 0 {
			return nil, fmt.Errorf("poseidon: matrix is not invertible")
		}
		aug[col], aug[pivot] = aug[pivot], aug[col]

		var inv fr.Element
		inv.Inverse(&aug[col][col])
		for k := col; k < 2*t; k++ {
			aug[col][k].Mul(&aug[col][k], &inv)
		}
		for r := 0; r < t; r++ {
			if r == col || aug[r][col].IsZero() {
				continue
			}
			factor := aug[r][col]
			for k := col; k < 2*t; k++ {
				tmp.Mul(&factor, &aug[col][k])
				aug[r][k].Sub(&aug[r][k], &tmp)
			}
		}
	}

	r := New(t)
	for i := range r {
		copy(r[i], aug[i][t:])
	}
	return r, nil
}

// Sub returns the submatrix of m with the first row and column removed.
func (m Matrix) Sub() Matrix {
	r := New(len(m) - 1)
	for i := 1; i < len(m); i++ {
		copy(r[i-1], m[i][1:])
	}
	return r
}

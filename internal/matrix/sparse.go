package matrix

import "github.com/consensys/gnark-crypto/ecc/bn254/fr"

// Sparse is an MDS matrix restricted to the form used during partial rounds:
// an arbitrary first row, an arbitrary first column and identity elsewhere.
// Applying it costs 2t-1 multiplications instead of t*t.
type Sparse struct {
	// Row is the full first row of the matrix.
	Row []fr.Element
	// ColHat is the first column without its first element.
	ColHat []fr.Element
}

// Apply multiplies the state vector by the sparse matrix in place.
func (s *Sparse) Apply(state []fr.Element) {
	var head, tmp fr.Element
	for i := range s.Row {
		tmp.Mul(&s.Row[i], &state[i])
		head.Add(&head, &tmp)
	}
	for i := range s.ColHat {
		tmp.Mul(&s.ColHat[i], &state[0])
		state[i+1].Add(&state[i+1], &tmp)
	}
	state[0] = head
}

// Factorise splits m into m' and m'' with m = m' * m'', following section B
// of the supplementary material of https://eprint.iacr.org/2019/458.pdf.
// m'' is returned in sparse form (already transposed for application to a
// column state vector); m' feeds the accumulator of the decomposition.
func (m Matrix) Factorise() (Matrix, *Sparse, error) {
	t := len(m)

	w := make([]fr.Element, t-1)
	for i := 1; i < t; i++ {
		w[i-1] = m[i][0]
	}
	hat := m.Sub()
	hatInv, err := hat.Invert()
	if err != nil {
		return nil, nil, err
	}
	wHat := hatInv.MulVector(w)

	prime := Identity(t)
	for i := 1; i < t; i++ {
		copy(prime[i][1:], hat[i-1])
	}

	sparse := &Sparse{
		Row:    make([]fr.Element, t),
		ColHat: make([]fr.Element, t-1),
	}
	sparse.Row[0] = m[0][0]
	copy(sparse.Row[1:], wHat)
	copy(sparse.ColHat, m[0][1:])

	return prime, sparse, nil
}

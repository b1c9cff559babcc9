package poseidon

import "github.com/consensys/gnark-crypto/ecc/bn254/fr"

// Permute applies the Poseidon permutation to the state in place. The state
// length must equal the spec width. Round order and counts are fixed by the
// plan built at construction: the S-box is the only nonlinearity and the
// MDS/sparse multiplications the only mixing, so the schedule is interpreted
// exactly as laid out.
func (s *Spec) Permute(state []fr.Element) {
	addConstants(state, s.initial)
	for i := range s.plan {
		r := &s.plan[i]
		switch r.kind {
		case fullRound:
			sboxFull(state)
			if r.constants != nil {
				addConstants(state, r.constants)
			}
		case partialRound:
			sboxPartial(state)
			state[0].Add(&state[0], &r.constants[0])
		}
		r.mix.Apply(state)
	}
}

func addConstants(state, constants []fr.Element) {
	for i := range state {
		state[i].Add(&state[i], &constants[i])
	}
}

func sboxFull(state []fr.Element) {
	for i := range state {
		exp5(&state[i])
	}
}

func sboxPartial(state []fr.Element) {
	exp5(&state[0])
}

// exp5 computes x^5, the S-box for fields where gcd(5, p-1) = 1.
func exp5(x *fr.Element) {
	var x2, x4 fr.Element
	x2.Square(x)
	x4.Square(&x2)
	x.Mul(&x4, x)
}

package poseidon

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/vocdoni/poseidon/internal/grain"
	"github.com/vocdoni/poseidon/internal/matrix"
)

// Spec bundles everything the permutation consumes: the MDS matrices, the
// optimized round constants and the round plan they are scheduled in. A Spec
// is immutable after construction and may be shared by any number of Hasher
// instances built with identical parameters; derivation is deterministic, so
// two independently built Specs over the same (t, rF, rP) are interchangeable.
//
// NewSpec derives the constants on every call. Should derivation ever be
// replaced by hardcoded tables, the replacement must produce byte-identical
// values behind the same signature.
type Spec struct {
	t    int
	rate int
	rF   int
	rP   int

	mds       matrix.Matrix
	preSparse matrix.Matrix
	sparse    []*matrix.Sparse

	// initial is added to the state before the first round. The remaining
	// constants live in the plan; the fold moved all partial round constant
	// work into single per-round additions.
	initial []fr.Element
	plan    []round
}

// roundKind distinguishes rounds that apply the S-box to the whole state
// from rounds that apply it to the capacity element only.
type roundKind uint8

const (
	fullRound roundKind = iota
	partialRound
)

// mixer is the linear layer of one round.
type mixer interface {
	Apply(state []fr.Element)
}

// round is one entry of the permutation schedule: S-box, constant addition,
// linear mix. A full round carries a width-t constant vector (nil for the
// final round, whose constants were folded away); a partial round carries a
// single folded constant for the capacity element.
type round struct {
	kind      roundKind
	constants []fr.Element
	mix       mixer
}

// NewSpec derives the parameter bundle for state width t with rF full rounds
// (split in two halves) and rP partial rounds. It fails on malformed round
// counts and on construction failures in the MDS machinery; there is no
// degraded mode.
func NewSpec(t, rF, rP int) (*Spec, error) {
	// Upper bounds come from the Grain header, which allots 12 bits to the
	// width and 10 to each round count.
	if t < 2 || t >= 1<<12 {
		return nil, fmt.Errorf("poseidon: width must be in [2, 4095], got %d", t)
	}
	if rF < 2 || rF%2 != 0 || rF >= 1<<10 {
		return nil, fmt.Errorf("poseidon: full round count must be even and in [2, 1022], got %d", rF)
	}
	if rP < 0 || rP >= 1<<10 {
		return nil, fmt.Errorf("poseidon: partial round count must be in [0, 1023], got %d", rP)
	}

	constants, mds, err := generate(t, rF, rP)
	if err != nil {
		return nil, err
	}
	start, partial, end, err := foldConstants(rF, rP, constants, mds)
	if err != nil {
		return nil, err
	}
	sparse, preSparse, err := decomposeMDS(mds, rP)
	if err != nil {
		return nil, err
	}

	s := &Spec{
		t:         t,
		rate:      t - 1,
		rF:        rF,
		rP:        rP,
		mds:       mds,
		preSparse: preSparse,
		sparse:    sparse,
		initial:   start[0],
	}
	s.plan = s.buildPlan(start, partial, end)
	return s, nil
}

// buildPlan lays out the round schedule as an explicit sequence so the
// permutation engine interprets a single inspectable value instead of
// scattering round arithmetic: rF/2 full rounds (the last one mixing with
// the pre-sparse transition matrix), rP partial rounds with their sparse
// factors, rF/2 closing full rounds.
func (s *Spec) buildPlan(start [][]fr.Element, partial []fr.Element, end [][]fr.Element) []round {
	half := s.rF / 2
	plan := make([]round, 0, s.rF+s.rP)

	for i := 1; i < half; i++ {
		plan = append(plan, round{kind: fullRound, constants: start[i], mix: s.mds})
	}
	plan = append(plan, round{kind: fullRound, constants: start[half], mix: s.preSparse})

	for i := range partial {
		plan = append(plan, round{kind: partialRound, constants: partial[i : i+1], mix: s.sparse[i]})
	}

	for i := range end {
		plan = append(plan, round{kind: fullRound, constants: end[i], mix: s.mds})
	}
	plan = append(plan, round{kind: fullRound, mix: s.mds})
	return plan
}

// Width returns the state width t.
func (s *Spec) Width() int { return s.t }

// Rate returns the number of state elements exposed to absorption and
// squeezing (t - 1; position 0 is the capacity element).
func (s *Spec) Rate() int { return s.rate }

// FullRounds returns the total number of full rounds.
func (s *Spec) FullRounds() int { return s.rF }

// PartialRounds returns the number of partial rounds.
func (s *Spec) PartialRounds() int { return s.rP }

// generate derives the unoptimized round constants and the Cauchy MDS matrix
// from one Grain LFSR stream seeded with (field, t, rF, rP). Constants come
// first, with rejection sampling; the 2t matrix generators follow without it.
func generate(t, rF, rP int) ([][]fr.Element, matrix.Matrix, error) {
	g := grain.New(t, rF, rP)

	constants := make([][]fr.Element, rF+rP)
	for i := range constants {
		row := make([]fr.Element, t)
		for j := range row {
			row[j] = g.NextFieldElement()
		}
		constants[i] = row
	}

	xs := make([]fr.Element, t)
	ys := make([]fr.Element, t)
	for i := range xs {
		xs[i] = g.NextFieldElementWithoutRejection()
	}
	for i := range ys {
		ys[i] = g.NextFieldElementWithoutRejection()
	}

	mds, err := matrix.Cauchy(xs, ys)
	if err != nil {
		return nil, nil, err
	}
	return constants, mds, nil
}

// foldConstants pushes the additive round constants through the MDS
// multiplications so that each partial round needs a single constant
// addition. The rewrite is exactly equivalent to adding the unoptimized
// constants round by round. It returns rF/2+1 vectors for the opening full
// rounds (the first is added before any round, the last is the compensation
// vector absorbed before the partial sequence), one scalar per partial round
// and rF/2-1 vectors for the closing full rounds.
func foldConstants(rF, rP int, constants [][]fr.Element, mds matrix.Matrix) ([][]fr.Element, []fr.Element, [][]fr.Element, error) {
	invMDS, err := mds.Invert()
	if err != nil {
		return nil, nil, nil, err
	}
	half := rF / 2

	start := make([][]fr.Element, 0, half+1)
	start = append(start, constants[0])
	for i := 1; i < half; i++ {
		start = append(start, invMDS.MulVector(constants[i]))
	}

	acc := make([]fr.Element, len(constants[half+rP]))
	copy(acc, constants[half+rP])
	partial := make([]fr.Element, rP)
	for i := rP - 1; i >= 0; i-- {
		tmp := invMDS.MulVector(acc)
		partial[i] = tmp[0]
		tmp[0].SetZero()
		for j := range acc {
			acc[j].Add(&tmp[j], &constants[half+i][j])
		}
	}
	start = append(start, invMDS.MulVector(acc))

	end := make([][]fr.Element, 0, half-1)
	for i := half + rP + 1; i < rF+rP; i++ {
		end = append(end, invMDS.MulVector(constants[i]))
	}
	return start, partial, end, nil
}

// decomposeMDS factorises the MDS matrix into rP sparse matrices plus the
// dense transition matrix applied right before the partial rounds. Applying
// the transition matrix followed by the sparse factors is mathematically
// identical to applying the MDS matrix in every partial round.
func decomposeMDS(mds matrix.Matrix, rP int) ([]*matrix.Sparse, matrix.Matrix, error) {
	mdsT := mds.Transpose()
	acc := mdsT
	sparse := make([]*matrix.Sparse, rP)
	for i := 0; i < rP; i++ {
		prime, factor, err := acc.Factorise()
		if err != nil {
			return nil, nil, err
		}
		acc = mdsT.Mul(prime)
		sparse[i] = factor
	}
	for i, j := 0, len(sparse)-1; i < j; i, j = i+1, j-1 {
		sparse[i], sparse[j] = sparse[j], sparse[i]
	}
	return sparse, acc.Transpose(), nil
}

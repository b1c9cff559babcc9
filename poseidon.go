// Package poseidon implements the Poseidon hash over the BN254 scalar field
// as a variable-length sponge: callers absorb any number of field elements
// and squeeze any number of challenge elements, which makes it suitable for
// Fiat-Shamir transcripts and other algebraic-hash settings. Round constants
// and the MDS matrix are derived deterministically from the construction
// parameters, so independently built hashers over the same parameters are
// interoperable.
package poseidon

import "github.com/consensys/gnark-crypto/ecc/bn254/fr"

// Hasher is a Poseidon sponge. The state splits into one capacity element at
// position 0, which is never exposed to the caller, and t-1 rate elements.
// A Hasher serves a single transcript: there is no reset beyond constructing
// a new instance. It is not safe for concurrent use; share the Spec instead
// and give each goroutine its own Hasher.
type Hasher struct {
	spec  *Spec
	state []fr.Element

	// absorbing buffers inputs that have not been permuted yet; it never
	// holds a full rate block.
	absorbing []fr.Element
	// cursor indexes the next rate element to squeeze.
	cursor    int
	squeezing bool
}

// New builds a hasher for state width t with rF full and rP partial rounds,
// deriving round constants and MDS matrices for these parameters. The state
// starts all zero.
func New(t, rF, rP int) (*Hasher, error) {
	spec, err := NewSpec(t, rF, rP)
	if err != nil {
		return nil, err
	}
	return NewWithSpec(spec), nil
}

// NewWithSpec builds a hasher on an already derived parameter bundle. Many
// hashers may share one Spec; this avoids recomputing constants per
// transcript.
func NewWithSpec(spec *Spec) *Hasher {
	return &Hasher{
		spec:      spec,
		state:     make([]fr.Element, spec.t),
		absorbing: make([]fr.Element, 0, spec.rate),
	}
}

// Update absorbs the given elements. Each full rate block is added into the
// state and permuted immediately; up to rate-1 leftover elements stay
// buffered until the next Update or Squeeze. Updating after a squeeze
// returns the sponge to absorbing mode.
func (h *Hasher) Update(elements ...fr.Element) {
	h.squeezing = false
	for _, e := range elements {
		h.absorbing = append(h.absorbing, e)
		if len(h.absorbing) == h.spec.rate {
			h.absorb()
		}
	}
}

// Squeeze returns the next challenge element. The first squeeze after
// absorbing appends the padding element, absorbs the pending buffer and
// permutes; the pad marks the end of the input so inputs of different
// lengths cannot collide. Further squeezes walk the rate region and permute
// again once all rate elements have been returned. The capacity element is
// never returned.
func (h *Hasher) Squeeze() fr.Element {
	if !h.squeezing {
		h.absorbing = append(h.absorbing, fr.One())
		h.absorb()
		h.squeezing = true
	} else if h.cursor == h.spec.rate {
		h.spec.Permute(h.state)
		h.cursor = 0
	}
	out := h.state[h.cursor+1]
	h.cursor++
	return out
}

// absorb adds the pending buffer into the rate region, permutes and resets
// the squeeze cursor.
func (h *Hasher) absorb() {
	for i := range h.absorbing {
		h.state[i+1].Add(&h.state[i+1], &h.absorbing[i])
	}
	h.spec.Permute(h.state)
	h.absorbing = h.absorbing[:0]
	h.cursor = 0
}

// Hash absorbs the elements into a fresh sponge and squeezes one element.
func Hash(t, rF, rP int, elements ...fr.Element) (fr.Element, error) {
	h, err := New(t, rF, rP)
	if err != nil {
		return fr.Element{}, err
	}
	h.Update(elements...)
	return h.Squeeze(), nil
}

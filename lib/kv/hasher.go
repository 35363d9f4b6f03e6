package kv

import (
	"github.com/cespare/xxhash/v2"

	"github.com/benz9527/xavl/lib/infra"
)

// Distinct strings may collide on the same 64-bit key. A collision is
// indistinguishable from a duplicate, so the second element is not
// indexed.

type hashSource interface {
	~string | ~[]byte
}

type Hasher[S hashSource] struct {
	seed   uint64
	seeded bool
}

func NewHasher[S hashSource]() Hasher[S] {
	return Hasher[S]{}
}

func NewSeedHasher[S hashSource](seed uint64) Hasher[S] {
	return Hasher[S]{seed: seed, seeded: true}
}

func (h Hasher[S]) Hash(src S) uint64 {
	if !h.seeded {
		switch v := any(src).(type) {
		case string:
			return xxhash.Sum64String(v)
		case []byte:
			return xxhash.Sum64(v)
		}
		return xxhash.Sum64([]byte(src))
	}
	d := xxhash.NewWithSeed(h.seed)
	_, _ = d.Write([]byte(src))
	return d.Sum64()
}

// HashFieldOf builds a tree key extractor from a string or bytes field of
// the element.
func HashFieldOf[E any, S hashSource](h Hasher[S], field func(elem E) S) infra.HashField[E] {
	return func(elem E) infra.HashKey {
		return h.Hash(field(elem))
	}
}

func StringHashField[E any](field func(elem E) string) infra.HashField[E] {
	return HashFieldOf[E, string](NewHasher[string](), field)
}

func BytesHashField[E any](field func(elem E) []byte) infra.HashField[E] {
	return HashFieldOf[E, []byte](NewHasher[[]byte](), field)
}

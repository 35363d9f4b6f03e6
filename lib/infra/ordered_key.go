package infra

// HashKey is the 64-bit ordering key of an indexed element.
type HashKey = uint64

// HashField extracts the ordering key from an element.
// It must be pure: the same element always yields the same key for as
// long as the element stays indexed.
type HashField[E any] func(elem E) HashKey

// Hashable is the capability of an element to report its own key.
type Hashable interface {
	HashKey() HashKey
}

// HashFieldOf adapts the Hashable capability into a HashField.
func HashFieldOf[E Hashable]() HashField[E] {
	return func(elem E) HashKey {
		return elem.HashKey()
	}
}

type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Unsigned is a constraint that permits any unsigned integer type.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Integer is a constraint that permits any integer type.
type Integer interface {
	Signed | Unsigned
}

// IdentityHashField keys integer elements by their own value.
// Negative signed values wrap around, so mixing signs breaks ordering.
func IdentityHashField[E Integer]() HashField[E] {
	return func(elem E) HashKey {
		return HashKey(elem)
	}
}

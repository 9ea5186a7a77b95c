package value

import "math"

// StrictEquals implements IsStrictlyEqual (`===`): no coercion, NaN !== NaN, +0 === -0.
func StrictEquals(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		if a.typ == TypeInteger && b.typ == TypeInteger {
			return a.payload == b.payload
		}
		// NaN compares unequal to itself in float arithmetic
		return a.Float64() == b.Float64()
	}
	return sameNonNumber(a, b)
}

// SameValue implements SameValue: NaN is NaN and +0 differs from -0.
func SameValue(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		x, y := a.Float64(), b.Float64()
		if math.IsNaN(x) {
			return math.IsNaN(y)
		}
		if x == 0 && y == 0 {
			return math.Signbit(x) == math.Signbit(y)
		}
		return x == y
	}
	return sameNonNumber(a, b)
}

// SameValueZero implements SameValueZero: NaN is NaN and +0 equals -0.
func SameValueZero(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		x, y := a.Float64(), b.Float64()
		if math.IsNaN(x) {
			return math.IsNaN(y)
		}
		return x == y
	}
	return sameNonNumber(a, b)
}

// sameNonNumber compares values of which at most one is a Number.
func sameNonNumber(a, b Value) bool {
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case TypeUndefined, TypeNull:
		return true
	case TypeBoolean:
		return a.payload == b.payload
	case TypeBigInt:
		return a.AsBigInt().Cmp(b.AsBigInt()) == 0
	case TypeString:
		as, bs := a.AsJSString(), b.AsJSString()
		if as == bs {
			return true
		}
		if as.units != bs.units {
			return false
		}
		return as.Flatten() == bs.Flatten()
	case TypeSymbol, TypeObject:
		return a.ref == b.ref
	}
	return false
}

package ops

import (
	"math"
	"math/big"

	"strata/pkg/convert"
	"strata/pkg/errors"
	"strata/pkg/value"
)

func errMixedBigInt() error {
	return errors.NewTypeError("Cannot mix BigInt and other types, use explicit conversions")
}

// bigIntResult enforces the BigInt size limit.
func (r *Realm) bigIntResult(z *big.Int) (value.Value, error) {
	if z.BitLen() > r.Limits.MaxBigIntBits {
		return value.Undefined, errors.NewRangeError("Maximum BigInt size exceeded")
	}
	return value.NewBigInt(z), nil
}

// concat joins two string values, enforcing the string length limit.
func (r *Realm) concat(a, b value.Value) (value.Value, error) {
	if a.AsJSString().Len()+b.AsJSString().Len() > r.Limits.MaxStringLength {
		return value.Undefined, errors.NewRangeError("Invalid string length")
	}
	return value.Concat(a, b), nil
}

func fitsInt32(i int64) bool {
	return i >= math.MinInt32 && i <= math.MaxInt32
}

func isSafe(i int64) bool {
	return i >= value.MinSafeInteger && i <= value.MaxSafeInteger
}

// integerOp computes k on exact integers. ok is false when the exact integer
// result would differ from the double result: overflow, a fraction, or a
// result that must be -0.
func integerOp(k Kind, x, y int64) (int64, bool) {
	switch k {
	case Add:
		return x + y, true
	case Sub:
		return x - y, true
	case Mul:
		if (x == 0 || y == 0) && (x < 0 || y < 0) {
			// 0 * negative is -0
			return 0, false
		}
		return mulExact(x, y)
	case Div:
		// a positive divisor rules out MinInt32 / -1 and -0 results
		if y <= 0 || x%y != 0 {
			return 0, false
		}
		return x / y, true
	case Mod:
		if y == 0 {
			return 0, false
		}
		if x >= 0 && y > 0 && y&(y-1) == 0 {
			return x & (y - 1), true
		}
		m := x % y
		if m == 0 && x < 0 {
			return 0, false
		}
		return m, true
	case Exp:
		return integerPow(x, y)
	}
	return 0, false
}

// mulExact multiplies two safe integers, failing on int64 overflow.
func mulExact(x, y int64) (int64, bool) {
	if x == 0 || y == 0 {
		return 0, true
	}
	p := x * y
	if p/y != x {
		return 0, false
	}
	return p, true
}

// integerPow computes x**y by squaring while the result stays a safe integer.
func integerPow(x, y int64) (int64, bool) {
	if y < 0 {
		return 0, false
	}
	result := int64(1)
	for ; y > 0; y >>= 1 {
		var ok bool
		if y&1 == 1 {
			if result, ok = mulExact(result, x); !ok || !isSafe(result) {
				return 0, false
			}
		}
		if y > 1 {
			if x, ok = mulExact(x, x); !ok || !isSafe(x) {
				return 0, false
			}
		}
	}
	return result, true
}

// floatOp computes k on doubles with ECMAScript semantics.
func floatOp(k Kind, x, y float64) float64 {
	switch k {
	case Add:
		return x + y
	case Sub:
		return x - y
	case Mul:
		return x * y
	case Div:
		return x / y
	case Mod:
		return math.Mod(x, y)
	case Exp:
		return jsPow(x, y)
	}
	panic("ops: floatOp on " + k.String())
}

// jsPow differs from math.Pow where ECMAScript says NaN.
func jsPow(x, y float64) float64 {
	if math.IsNaN(y) {
		return math.NaN()
	}
	if y == 0 {
		return 1
	}
	if (x == 1 || x == -1) && math.IsInf(y, 0) {
		return math.NaN()
	}
	return math.Pow(x, y)
}

// bigIntOp computes k on BigInts.
func (r *Realm) bigIntOp(k Kind, x, y *big.Int) (value.Value, error) {
	z := new(big.Int)
	switch k {
	case Add:
		z.Add(x, y)
	case Sub:
		z.Sub(x, y)
	case Mul:
		if x.BitLen()+y.BitLen() > r.Limits.MaxBigIntBits+1 {
			return value.Undefined, errors.NewRangeError("Maximum BigInt size exceeded")
		}
		z.Mul(x, y)
	case Div:
		if y.Sign() == 0 {
			return value.Undefined, errors.NewRangeError("Division by zero")
		}
		z.Quo(x, y)
	case Mod:
		if y.Sign() == 0 {
			return value.Undefined, errors.NewRangeError("Division by zero")
		}
		z.Rem(x, y)
	case Exp:
		return r.bigIntPow(x, y)
	case BitAnd:
		z.And(x, y)
	case BitOr:
		z.Or(x, y)
	case BitXor:
		z.Xor(x, y)
	case Shl, Sar:
		return r.bigIntShift(k, x, y)
	case Shr:
		return value.Undefined, errors.NewTypeError("BigInts have no unsigned right shift, use >> instead")
	default:
		return value.Undefined, errors.NewUnexpectedError("bigIntOp on %s", k)
	}
	return r.bigIntResult(z)
}

func (r *Realm) bigIntPow(x, y *big.Int) (value.Value, error) {
	if y.Sign() < 0 {
		return value.Undefined, errors.NewRangeError("Exponent must be non-negative")
	}
	// 0, 1 and -1 stay small whatever the exponent
	if x.Sign() == 0 || x.CmpAbs(big.NewInt(1)) == 0 {
		if y.Sign() == 0 {
			return value.BigIntFromInt64(1), nil
		}
		if x.Sign() < 0 && y.Bit(0) == 0 {
			return value.BigIntFromInt64(1), nil
		}
		return value.NewBigInt(new(big.Int).Set(x)), nil
	}
	limit := int64(r.Limits.MaxBigIntBits)
	if !y.IsInt64() || y.Int64() > limit || int64(x.BitLen()-1)*y.Int64() > limit {
		return value.Undefined, errors.NewRangeError("Maximum BigInt size exceeded")
	}
	return r.bigIntResult(new(big.Int).Exp(x, y, nil))
}

func (r *Realm) bigIntShift(k Kind, x, y *big.Int) (value.Value, error) {
	left := k == Shl
	if y.Sign() < 0 {
		left = !left
		y = new(big.Int).Neg(y)
	}
	if !left {
		if !y.IsInt64() || y.Int64() > int64(x.BitLen()) {
			// everything shifted out: floor rounds negatives to -1
			if x.Sign() < 0 {
				return value.BigIntFromInt64(-1), nil
			}
			return value.BigIntFromInt64(0), nil
		}
		return value.NewBigInt(new(big.Int).Rsh(x, uint(y.Int64()))), nil
	}
	if x.Sign() == 0 {
		return value.BigIntFromInt64(0), nil
	}
	if !y.IsInt64() || int64(x.BitLen())+y.Int64() > int64(r.Limits.MaxBigIntBits) {
		return value.Undefined, errors.NewRangeError("Maximum BigInt size exceeded")
	}
	return value.NewBigInt(new(big.Int).Lsh(x, uint(y.Int64()))), nil
}

// numericOp applies an arithmetic or bitwise operator to two numeric values
// produced by ToNumeric. Mixing BigInt with Number is a TypeError.
func (r *Realm) numericOp(k Kind, a, b value.Value) (value.Value, error) {
	if a.IsBigInt() || b.IsBigInt() {
		if !a.IsBigInt() || !b.IsBigInt() {
			return value.Undefined, errMixedBigInt()
		}
		return r.bigIntOp(k, a.AsBigInt(), b.AsBigInt())
	}
	switch {
	case k.IsArithmetic():
		return value.Number(floatOp(k, a.Float64(), b.Float64())), nil
	case k.IsBitwise():
		return value.Int32(bitwiseOp(k, convert.NumberToInt32(a), convert.NumberToInt32(b))), nil
	case k.IsShift():
		return shiftOp(k, convert.NumberToInt32(a), uint32(convert.NumberToInt32(b))), nil
	}
	return value.Undefined, errors.NewUnexpectedError("numericOp on %s", k)
}

// compareBigIntNumber orders a BigInt against a finite or infinite double.
// ok is false when f is NaN.
func compareBigIntNumber(x *big.Int, f float64) (int, bool) {
	if math.IsNaN(f) {
		return 0, false
	}
	if math.IsInf(f, 1) {
		return -1, true
	}
	if math.IsInf(f, -1) {
		return 1, true
	}
	return new(big.Float).SetInt(x).Cmp(big.NewFloat(f)), true
}

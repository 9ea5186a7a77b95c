package value

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
)

type ValueType uint8

const (
	TypeUndefined ValueType = iota
	TypeNull

	TypeBoolean

	TypeInteger     // int32
	TypeSafeInteger // int64 outside int32 but within +-(2^53-1)
	TypeFloat       // IEEE double
	TypeBigInt

	TypeString
	TypeSymbol

	TypeObject
	TypeHole // Internal marker for array holes
)

// String returns a human-readable string representation of the ValueType
func (vt ValueType) String() string {
	switch vt {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		return "boolean"
	case TypeInteger:
		return "int32"
	case TypeSafeInteger:
		return "safe integer"
	case TypeFloat:
		return "double"
	case TypeBigInt:
		return "bigint"
	case TypeString:
		return "string"
	case TypeSymbol:
		return "symbol"
	case TypeObject:
		return "object"
	case TypeHole:
		return "hole"
	default:
		return "unknown"
	}
}

// Object is an opaque reference into the host object model. Two object values
// are the same object when their references compare equal.
type Object interface {
	ClassName() string
}

// Value is the tagged runtime value shared by every operator node.
type Value struct {
	typ     ValueType
	payload uint64
	ref     any
}

const (
	// MaxSafeInteger is 2^53-1, the largest integer a double represents exactly
	// together with all of its neighbours.
	MaxSafeInteger = 1<<53 - 1
	MinSafeInteger = -MaxSafeInteger
)

var (
	Undefined = Value{typ: TypeUndefined}
	Null      = Value{typ: TypeNull}
	Hole      = Value{typ: TypeHole} // Internal marker for array holes
	True      = Value{typ: TypeBoolean, payload: 1}
	False     = Value{typ: TypeBoolean, payload: 0}
	NaN       = Value{typ: TypeFloat, payload: math.Float64bits(math.NaN())}
	NegZero   = Value{typ: TypeFloat, payload: math.Float64bits(math.Copysign(0, -1))}
	Zero      = Value{typ: TypeInteger}
)

// Int32 creates an int32 number.
func Int32(v int32) Value {
	return Value{typ: TypeInteger, payload: uint64(int64(v))}
}

// Float creates a double without any narrowing.
func Float(f float64) Value {
	return Value{typ: TypeFloat, payload: math.Float64bits(f)}
}

// Number creates the narrowest number representation for f: int32 when f is an
// integral int32 other than -0, a double otherwise.
func Number(f float64) Value {
	if i := int32(f); float64(i) == f && (i != 0 || !math.Signbit(f)) {
		return Int32(i)
	}
	return Float(f)
}

// Integer creates a number from an exact int64. Values outside the int32 range
// stay exact while they are safe integers and degrade to a double beyond that.
func Integer(i int64) Value {
	if i >= math.MinInt32 && i <= math.MaxInt32 {
		return Int32(int32(i))
	}
	if i >= MinSafeInteger && i <= MaxSafeInteger {
		return Value{typ: TypeSafeInteger, payload: uint64(i)}
	}
	return Float(float64(i))
}

func Boolean(b bool) Value {
	if b {
		return True
	}
	return False
}

// NewBigInt wraps a big.Int. The caller hands over ownership: BigInt values are immutable.
func NewBigInt(i *big.Int) Value {
	return Value{typ: TypeBigInt, ref: i}
}

func BigIntFromInt64(i int64) Value {
	return NewBigInt(big.NewInt(i))
}

func NewObject(o Object) Value {
	if o == nil {
		return Null
	}
	return Value{typ: TypeObject, ref: o}
}

func NewSymbolValue(s *Symbol) Value {
	return Value{typ: TypeSymbol, ref: s}
}

// --- Predicates ---

func (v Value) Type() ValueType     { return v.typ }
func (v Value) IsUndefined() bool   { return v.typ == TypeUndefined }
func (v Value) IsNull() bool        { return v.typ == TypeNull }
func (v Value) IsNullish() bool     { return v.typ == TypeUndefined || v.typ == TypeNull }
func (v Value) IsBoolean() bool     { return v.typ == TypeBoolean }
func (v Value) IsInt32() bool       { return v.typ == TypeInteger }
func (v Value) IsSafeInteger() bool { return v.typ == TypeSafeInteger }
func (v Value) IsFloat() bool       { return v.typ == TypeFloat }
func (v Value) IsBigInt() bool      { return v.typ == TypeBigInt }
func (v Value) IsString() bool      { return v.typ == TypeString }
func (v Value) IsSymbol() bool      { return v.typ == TypeSymbol }
func (v Value) IsObject() bool      { return v.typ == TypeObject }
func (v Value) IsHole() bool        { return v.typ == TypeHole }

// IsIntegral reports whether v is an exact int32 or safe integer.
func (v Value) IsIntegral() bool {
	return v.typ == TypeInteger || v.typ == TypeSafeInteger
}

// IsNumber reports whether v is a Number, whatever its internal representation.
func (v Value) IsNumber() bool {
	return v.typ == TypeInteger || v.typ == TypeSafeInteger || v.typ == TypeFloat
}

// IsNumeric reports whether v is a Number or a BigInt.
func (v Value) IsNumeric() bool {
	return v.IsNumber() || v.typ == TypeBigInt
}

func (v Value) IsPrimitive() bool {
	return v.typ != TypeObject
}

// IsNaN reports whether v is the NaN double.
func (v Value) IsNaN() bool {
	return v.typ == TypeFloat && math.IsNaN(v.AsFloat())
}

// IsNegativeZero reports whether v is the -0 double.
func (v Value) IsNegativeZero() bool {
	return v.typ == TypeFloat && v.payload == NegZero.payload
}

// --- Accessors ---

func (v Value) AsBoolean() bool {
	if v.typ != TypeBoolean {
		panic("value is not a boolean")
	}
	return v.payload == 1
}

func (v Value) AsInt32() int32 {
	if v.typ != TypeInteger {
		panic("value is not an int32")
	}
	return int32(v.payload)
}

// AsInt64 returns the exact integer of an int32 or safe integer value.
func (v Value) AsInt64() int64 {
	switch v.typ {
	case TypeInteger:
		return int64(int32(v.payload))
	case TypeSafeInteger:
		return int64(v.payload)
	}
	panic("value is not an integer")
}

func (v Value) AsFloat() float64 {
	if v.typ != TypeFloat {
		panic("value is not a double")
	}
	return math.Float64frombits(v.payload)
}

// Float64 returns the numeric value of any Number representation.
func (v Value) Float64() float64 {
	switch v.typ {
	case TypeInteger:
		return float64(int32(v.payload))
	case TypeSafeInteger:
		return float64(int64(v.payload))
	case TypeFloat:
		return math.Float64frombits(v.payload)
	}
	panic("value is not a number")
}

func (v Value) AsBigInt() *big.Int {
	if v.typ != TypeBigInt {
		panic("value is not a bigint")
	}
	return v.ref.(*big.Int)
}

func (v Value) AsJSString() *String {
	if v.typ != TypeString {
		panic("value is not a string")
	}
	return v.ref.(*String)
}

// AsString returns the flattened Go string of a string value.
func (v Value) AsString() string {
	return v.AsJSString().Flatten()
}

func (v Value) AsSymbol() *Symbol {
	if v.typ != TypeSymbol {
		panic("value is not a symbol")
	}
	return v.ref.(*Symbol)
}

func (v Value) AsObject() Object {
	if v.typ != TypeObject {
		panic("value is not an object")
	}
	return v.ref.(Object)
}

// TypeName returns the `typeof`-style name of the value.
func (v Value) TypeName() string {
	switch v.typ {
	case TypeInteger, TypeSafeInteger, TypeFloat:
		return "number"
	case TypeNull:
		return "object"
	default:
		return v.typ.String()
	}
}

// Inspect returns a developer-friendly representation of Value, similar to a REPL.
func (v Value) Inspect() string {
	switch v.typ {
	case TypeString:
		return strconv.Quote(v.AsString())
	case TypeBigInt:
		return v.AsBigInt().String() + "n"
	case TypeFloat:
		if v.IsNegativeZero() {
			return "-0"
		}
		return NumberToString(v.AsFloat())
	case TypeSymbol:
		return v.AsSymbol().String()
	case TypeObject:
		return fmt.Sprintf("[object %s]", v.AsObject().ClassName())
	default:
		return v.String()
	}
}

// String renders primitives the way ToString does; objects render as [object Class].
func (v Value) String() string {
	switch v.typ {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		if v.AsBoolean() {
			return "true"
		}
		return "false"
	case TypeInteger:
		return strconv.FormatInt(int64(v.AsInt32()), 10)
	case TypeSafeInteger:
		return strconv.FormatInt(v.AsInt64(), 10)
	case TypeFloat:
		return NumberToString(v.AsFloat())
	case TypeBigInt:
		return v.AsBigInt().String()
	case TypeString:
		return v.AsString()
	case TypeSymbol:
		return v.AsSymbol().String()
	case TypeObject:
		return fmt.Sprintf("[object %s]", v.AsObject().ClassName())
	case TypeHole:
		return "<hole>"
	}
	return fmt.Sprintf("<unknown type %d>", v.typ)
}

// --- Truthiness ---

// ToBoolean implements ECMAScript ToBoolean. It never calls back into user code.
// null, undefined, false, +0, -0, NaN, 0n and "" are falsy; everything else is truthy.
func (v Value) ToBoolean() bool {
	switch v.typ {
	case TypeNull, TypeUndefined, TypeHole:
		return false
	case TypeBoolean:
		return v.payload == 1
	case TypeInteger, TypeSafeInteger:
		return v.payload != 0
	case TypeFloat:
		f := v.AsFloat()
		return f != 0 && !math.IsNaN(f)
	case TypeBigInt:
		return v.AsBigInt().Sign() != 0
	case TypeString:
		return v.AsJSString().Len() != 0
	default:
		// Symbols and objects are always truthy
		return true
	}
}

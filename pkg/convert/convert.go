// Package convert implements the ECMAScript abstract coercion operations.
//
// Every operation that may touch an object goes through the host object model
// and may therefore run arbitrary user code (valueOf, toString, @@toPrimitive).
// Results of user callbacks are never trusted: they are re-validated before use.
package convert

import (
	"math"
	"strconv"

	"strata/pkg/errors"
	"strata/pkg/host"
	"strata/pkg/value"
)

// Hint selects the callback order of ToPrimitive.
type Hint uint8

const (
	HintDefault Hint = iota
	HintNumber
	HintString
)

func (h Hint) String() string {
	switch h {
	case HintNumber:
		return "number"
	case HintString:
		return "string"
	default:
		return "default"
	}
}

var (
	keyValueOf  = value.NewStringKey("valueOf")
	keyToString = value.NewStringKey("toString")
	keyToPrim   = value.NewSymbolKey(value.SymbolToPrimitive)
)

// ToPrimitive implements ECMAScript ToPrimitive. Primitives are returned as-is.
func ToPrimitive(m host.ObjectModel, v value.Value, hint Hint) (value.Value, error) {
	if !v.IsObject() {
		return v, nil
	}
	obj := v.AsObject()
	exotic, err := m.Get(obj, keyToPrim)
	if err != nil {
		return value.Undefined, err
	}
	if !exotic.IsNullish() {
		if !m.IsCallable(exotic) {
			return value.Undefined, errors.NewTypeError("Symbol.toPrimitive is not a function")
		}
		res, err := m.Call(exotic, v, []value.Value{value.NewString(hint.String())})
		if err != nil {
			return value.Undefined, err
		}
		if res.IsObject() {
			return value.Undefined, errors.NewTypeError("Cannot convert object to primitive value")
		}
		return res, nil
	}
	if hint == HintDefault {
		hint = HintNumber
	}
	return OrdinaryToPrimitive(m, v, hint)
}

// OrdinaryToPrimitive calls valueOf then toString (toString first for the string
// hint) and returns the first primitive result.
func OrdinaryToPrimitive(m host.ObjectModel, v value.Value, hint Hint) (value.Value, error) {
	order := [2]value.PropertyKey{keyValueOf, keyToString}
	if hint == HintString {
		order = [2]value.PropertyKey{keyToString, keyValueOf}
	}
	obj := v.AsObject()
	for _, key := range order {
		method, err := m.Get(obj, key)
		if err != nil {
			return value.Undefined, err
		}
		if !m.IsCallable(method) {
			continue
		}
		res, err := m.Call(method, v, nil)
		if err != nil {
			return value.Undefined, err
		}
		if !res.IsObject() {
			return res, nil
		}
	}
	return value.Undefined, errors.NewTypeError("Cannot convert object to primitive value")
}

// PrimitiveToNumber converts a primitive to a Number without user code.
func PrimitiveToNumber(v value.Value) (value.Value, error) {
	switch v.Type() {
	case value.TypeInteger, value.TypeSafeInteger, value.TypeFloat:
		return v, nil
	case value.TypeBoolean:
		if v.AsBoolean() {
			return value.Int32(1), nil
		}
		return value.Zero, nil
	case value.TypeNull:
		return value.Zero, nil
	case value.TypeUndefined, value.TypeHole:
		return value.NaN, nil
	case value.TypeString:
		return value.StringToNumber(v.AsString()), nil
	case value.TypeSymbol:
		return value.Undefined, errors.NewTypeError("Cannot convert a Symbol value to a number")
	case value.TypeBigInt:
		return value.Undefined, errors.NewTypeError("Cannot convert a BigInt value to a number")
	}
	return value.Undefined, errors.NewUnexpectedError("PrimitiveToNumber on %s", v.Type())
}

// PrimitiveToNumeric is PrimitiveToNumber that lets BigInts through.
func PrimitiveToNumeric(v value.Value) (value.Value, error) {
	if v.IsBigInt() {
		return v, nil
	}
	return PrimitiveToNumber(v)
}

// ToNumber implements ECMAScript ToNumber.
func ToNumber(m host.ObjectModel, v value.Value) (value.Value, error) {
	if v.IsNumber() {
		return v, nil
	}
	prim, err := ToPrimitive(m, v, HintNumber)
	if err != nil {
		return value.Undefined, err
	}
	return PrimitiveToNumber(prim)
}

// ToNumeric implements ECMAScript ToNumeric: BigInts pass through, everything
// else becomes a Number.
func ToNumeric(m host.ObjectModel, v value.Value) (value.Value, error) {
	if v.IsNumeric() {
		return v, nil
	}
	prim, err := ToPrimitive(m, v, HintNumber)
	if err != nil {
		return value.Undefined, err
	}
	return PrimitiveToNumeric(prim)
}

// ToFloat64 is ToNumber followed by extracting the double.
func ToFloat64(m host.ObjectModel, v value.Value) (float64, error) {
	n, err := ToNumber(m, v)
	if err != nil {
		return math.NaN(), err
	}
	return n.Float64(), nil
}

// PrimitiveToString converts a primitive to a string value without user code.
func PrimitiveToString(v value.Value) (value.Value, error) {
	switch v.Type() {
	case value.TypeString:
		return v, nil
	case value.TypeHole:
		return value.NewString("undefined"), nil
	case value.TypeInteger:
		return value.NewString(strconv.FormatInt(int64(v.AsInt32()), 10)), nil
	case value.TypeSymbol:
		return value.Undefined, errors.NewTypeError("Cannot convert a Symbol value to a string")
	case value.TypeObject:
		return value.Undefined, errors.NewUnexpectedError("PrimitiveToString on object")
	}
	return value.NewString(v.String()), nil
}

// ToString implements ECMAScript ToString and returns a string value.
func ToString(m host.ObjectModel, v value.Value) (value.Value, error) {
	if v.IsString() {
		return v, nil
	}
	prim, err := ToPrimitive(m, v, HintString)
	if err != nil {
		return value.Undefined, err
	}
	return PrimitiveToString(prim)
}

// ToInt32 implements ECMAScript ToInt32.
func ToInt32(m host.ObjectModel, v value.Value) (int32, error) {
	if v.IsInt32() {
		return v.AsInt32(), nil
	}
	n, err := ToNumber(m, v)
	if err != nil {
		return 0, err
	}
	return NumberToInt32(n), nil
}

// ToUint32 implements ECMAScript ToUint32.
func ToUint32(m host.ObjectModel, v value.Value) (uint32, error) {
	i, err := ToInt32(m, v)
	return uint32(i), err
}

// NumberToInt32 applies ToInt32 to an already numeric Number value.
func NumberToInt32(n value.Value) int32 {
	switch n.Type() {
	case value.TypeInteger:
		return n.AsInt32()
	case value.TypeSafeInteger:
		return int32(n.AsInt64())
	}
	return value.Float64ToInt32(n.Float64())
}

// ToBoolean implements ECMAScript ToBoolean. It never runs user code.
func ToBoolean(v value.Value) bool {
	return v.ToBoolean()
}

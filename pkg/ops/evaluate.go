package ops

import (
	"strata/pkg/errors"
	"strata/pkg/value"
)

// Evaluate applies operator k to two already evaluated operands using the fully
// generic strategy. It is the reference the specialized strategies agree with.
func Evaluate(r *Realm, k Kind, a, b value.Value) (value.Value, error) {
	switch {
	case k == Add:
		return r.genericAdd(a, b)
	case k.IsArithmetic(), k.IsBitwise(), k.IsShift():
		return r.genericNumeric(k, a, b)
	case k.IsRelational():
		return r.genericCompare(k, a, b)
	case k == Eq || k == Ne:
		eq, err := r.looseEquals(a, b)
		if err != nil {
			return value.Undefined, err
		}
		return value.Boolean(eq != (k == Ne)), nil
	case k == StrictNe:
		return value.Boolean(!identical(StrictEq, a, b)), nil
	case k == StrictEq, k == SameValue, k == SameValueZero:
		return value.Boolean(identical(k, a, b)), nil
	case k.IsLogical():
		if shortCircuits(k, a) {
			return a, nil
		}
		return b, nil
	}
	return value.Undefined, errors.NewUnexpectedError("unknown operator %s", k)
}

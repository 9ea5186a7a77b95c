package ops

import (
	"strata/pkg/convert"
	"strata/pkg/dispatch"
	"strata/pkg/errors"
	"strata/pkg/value"
)

// ArithmeticNode implements `-`, `*`, `/`, `%` and `**`.
type ArithmeticNode struct {
	Kind        Kind
	Left, Right Node
	site        *dispatch.Site
	pos         errors.Position
}

func (n *ArithmeticNode) Execute(r *Realm, f *Frame) (value.Value, error) {
	a, b, err := executePair(r, f, n.Left, n.Right)
	if err != nil {
		return value.Undefined, err
	}
	res, err := specialize(r, n.site, n, a, b)
	if err != nil {
		return value.Undefined, errors.At(err, n.pos)
	}
	return res, nil
}

func (n *ArithmeticNode) Site() *dispatch.Site { return n.site }

func (n *ArithmeticNode) try(r *Realm, s dispatch.Strategy, a, b value.Value) (value.Value, bool, error) {
	return arithmeticTry(r, n.Kind, s, a, b)
}

func (n *ArithmeticNode) next(r *Realm, s dispatch.Strategy) dispatch.Strategy {
	return nextRung(r, s, arithSafeInteger)
}

// ArithmeticConstantNode is an arithmetic operator with one literal operand.
type ArithmeticConstantNode struct {
	Kind         Kind
	Operand      Node
	Constant     value.Value
	ConstantLeft bool
	site         *dispatch.Site
	pos          errors.Position
	k            int64
	kIsInt32     bool
}

func newArithmeticConstant(kind Kind, operand Node, k value.Value, constantLeft bool, site *dispatch.Site, pos errors.Position) *ArithmeticConstantNode {
	n := &ArithmeticConstantNode{Kind: kind, Operand: operand, Constant: k, ConstantLeft: constantLeft, site: site, pos: pos}
	if k.IsInt32() {
		n.k, n.kIsInt32 = int64(k.AsInt32()), true
	}
	return n
}

func (n *ArithmeticConstantNode) Execute(r *Realm, f *Frame) (value.Value, error) {
	x, err := n.Operand.Execute(r, f)
	if err != nil {
		return value.Undefined, err
	}
	if n.kIsInt32 && x.IsInt32() && n.site.Strategy() == arithInt32 {
		a, b := int64(x.AsInt32()), n.k
		if n.ConstantLeft {
			a, b = b, a
		}
		if v, ok := integerOp(n.Kind, a, b); ok && fitsInt32(v) {
			n.site.Hit()
			return value.Int32(int32(v)), nil
		}
	}
	a, b := x, n.Constant
	if n.ConstantLeft {
		a, b = b, a
	}
	res, err := specialize(r, n.site, n, a, b)
	if err != nil {
		return value.Undefined, errors.At(err, n.pos)
	}
	return res, nil
}

func (n *ArithmeticConstantNode) Site() *dispatch.Site { return n.site }

func (n *ArithmeticConstantNode) try(r *Realm, s dispatch.Strategy, a, b value.Value) (value.Value, bool, error) {
	return arithmeticTry(r, n.Kind, s, a, b)
}

func (n *ArithmeticConstantNode) next(r *Realm, s dispatch.Strategy) dispatch.Strategy {
	return nextRung(r, s, arithSafeInteger)
}

func arithmeticTry(r *Realm, k Kind, s dispatch.Strategy, a, b value.Value) (value.Value, bool, error) {
	if a.IsInt32() && b.IsInt32() {
		if v, ok := integerOp(k, int64(a.AsInt32()), int64(b.AsInt32())); ok && fitsInt32(v) {
			return value.Int32(int32(v)), true, nil
		}
		if s == arithInt32 {
			return value.Undefined, false, nil
		}
	}
	if s >= arithSafeInteger && r.Limits.SafeIntegerLane && a.IsIntegral() && b.IsIntegral() {
		if v, ok := integerOp(k, a.AsInt64(), b.AsInt64()); ok && isSafe(v) {
			return value.Integer(v), true, nil
		}
		if s == arithSafeInteger {
			return value.Undefined, false, nil
		}
	}
	if s >= arithNumber && a.IsNumber() && b.IsNumber() {
		return value.Number(floatOp(k, a.Float64(), b.Float64())), true, nil
	}
	if s >= arithBigInt && a.IsBigInt() && b.IsBigInt() {
		res, err := r.bigIntOp(k, a.AsBigInt(), b.AsBigInt())
		return res, true, err
	}
	if s >= arithGeneric {
		res, err := r.genericNumeric(k, a, b)
		return res, true, err
	}
	return value.Undefined, false, nil
}

// genericNumeric applies ToNumeric to both operands, left first, then k.
func (r *Realm) genericNumeric(k Kind, a, b value.Value) (value.Value, error) {
	na, err := convert.ToNumeric(r.Model, a)
	if err != nil {
		return value.Undefined, err
	}
	nb, err := convert.ToNumeric(r.Model, b)
	if err != nil {
		return value.Undefined, err
	}
	return r.numericOp(k, na, nb)
}

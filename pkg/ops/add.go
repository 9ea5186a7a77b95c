package ops

import (
	"strata/pkg/convert"
	"strata/pkg/dispatch"
	"strata/pkg/errors"
	"strata/pkg/value"
)

// AddNode implements `+`, which is numeric addition or string concatenation
// depending on the primitive operands.
type AddNode struct {
	Left, Right Node
	site        *dispatch.Site
	pos         errors.Position
	truncate    bool
}

func (n *AddNode) Execute(r *Realm, f *Frame) (value.Value, error) {
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

func (n *AddNode) Site() *dispatch.Site { return n.site }

// IsTruncating reports whether the node only feeds a `| 0` and may wrap.
func (n *AddNode) IsTruncating() bool { return n.truncate }

func (n *AddNode) try(r *Realm, s dispatch.Strategy, a, b value.Value) (value.Value, bool, error) {
	return addTry(r, s, a, b)
}

func (n *AddNode) next(r *Realm, s dispatch.Strategy) dispatch.Strategy {
	return addNext(r, n.truncate, s)
}

// AddConstantNode is `x + k` or `k + x` with a primitive literal k.
type AddConstantNode struct {
	Operand      Node
	Constant     value.Value
	ConstantLeft bool
	site         *dispatch.Site
	pos          errors.Position
	truncate     bool
	k            int32
	kIsInt32     bool
}

func newAddConstant(operand Node, k value.Value, constantLeft bool, site *dispatch.Site, pos errors.Position) *AddConstantNode {
	n := &AddConstantNode{Operand: operand, Constant: k, ConstantLeft: constantLeft, site: site, pos: pos}
	if k.IsInt32() {
		n.k, n.kIsInt32 = k.AsInt32(), true
	}
	return n
}

func (n *AddConstantNode) Execute(r *Realm, f *Frame) (value.Value, error) {
	x, err := n.Operand.Execute(r, f)
	if err != nil {
		return value.Undefined, err
	}
	if n.kIsInt32 && x.IsInt32() {
		sum := int64(x.AsInt32()) + int64(n.k)
		switch n.site.Strategy() {
		case addInt32:
			if fitsInt32(sum) {
				n.site.Hit()
				return value.Int32(int32(sum)), nil
			}
		case addInt32Truncate:
			n.site.Hit()
			return value.Int32(int32(sum)), nil
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

func (n *AddConstantNode) Site() *dispatch.Site { return n.site }
func (n *AddConstantNode) IsTruncating() bool   { return n.truncate }

func (n *AddConstantNode) try(r *Realm, s dispatch.Strategy, a, b value.Value) (value.Value, bool, error) {
	return addTry(r, s, a, b)
}

func (n *AddConstantNode) next(r *Realm, s dispatch.Strategy) dispatch.Strategy {
	return addNext(r, n.truncate, s)
}

func addNext(r *Realm, truncate bool, s dispatch.Strategy) dispatch.Strategy {
	s++
	if s == addInt32Truncate && !truncate {
		s++
	}
	if s == addSafeInteger && !r.Limits.SafeIntegerLane {
		s++
	}
	return s
}

func addTry(r *Realm, s dispatch.Strategy, a, b value.Value) (value.Value, bool, error) {
	if a.IsInt32() && b.IsInt32() {
		sum := int64(a.AsInt32()) + int64(b.AsInt32())
		switch {
		case s == addInt32Truncate:
			return value.Int32(int32(sum)), true, nil
		case fitsInt32(sum):
			return value.Int32(int32(sum)), true, nil
		case s == addInt32:
			return value.Undefined, false, nil
		}
	}
	if s >= addSafeInteger && r.Limits.SafeIntegerLane && a.IsIntegral() && b.IsIntegral() {
		if sum := a.AsInt64() + b.AsInt64(); isSafe(sum) {
			return value.Integer(sum), true, nil
		}
		if s == addSafeInteger {
			return value.Undefined, false, nil
		}
	}
	if s >= addNumber && a.IsNumber() && b.IsNumber() {
		return value.Number(a.Float64() + b.Float64()), true, nil
	}
	if s >= addString && (a.IsString() || b.IsString()) && a.IsPrimitive() && b.IsPrimitive() {
		res, err := r.addStrings(a, b)
		return res, true, err
	}
	if s >= addBigInt && a.IsBigInt() && b.IsBigInt() {
		res, err := r.bigIntOp(Add, a.AsBigInt(), b.AsBigInt())
		return res, true, err
	}
	if s >= addGeneric {
		res, err := r.genericAdd(a, b)
		return res, true, err
	}
	return value.Undefined, false, nil
}

// addStrings concatenates the string forms of two primitives.
func (r *Realm) addStrings(a, b value.Value) (value.Value, error) {
	sa, err := convert.PrimitiveToString(a)
	if err != nil {
		return value.Undefined, err
	}
	sb, err := convert.PrimitiveToString(b)
	if err != nil {
		return value.Undefined, err
	}
	return r.concat(sa, sb)
}

// genericAdd is the ApplyStringOrNumericBinaryOperator algorithm for `+`.
func (r *Realm) genericAdd(a, b value.Value) (value.Value, error) {
	pa, err := convert.ToPrimitive(r.Model, a, convert.HintDefault)
	if err != nil {
		return value.Undefined, err
	}
	pb, err := convert.ToPrimitive(r.Model, b, convert.HintDefault)
	if err != nil {
		return value.Undefined, err
	}
	if pa.IsString() || pb.IsString() {
		return r.addStrings(pa, pb)
	}
	na, err := convert.PrimitiveToNumeric(pa)
	if err != nil {
		return value.Undefined, err
	}
	nb, err := convert.PrimitiveToNumeric(pb)
	if err != nil {
		return value.Undefined, err
	}
	return r.numericOp(Add, na, nb)
}

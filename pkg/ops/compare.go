package ops

import (
	"math"

	"strata/pkg/convert"
	"strata/pkg/dispatch"
	"strata/pkg/errors"
	"strata/pkg/value"
)

// relation applies a relational operator to a three-way comparison result.
func relation(k Kind, c int) bool {
	switch k {
	case Lt:
		return c < 0
	case Le:
		return c <= 0
	case Gt:
		return c > 0
	case Ge:
		return c >= 0
	}
	panic("ops: relation on " + k.String())
}

func compareInts(x, y int64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// compareFloats is a three-way comparison; ok is false when either side is NaN.
func compareFloats(x, y float64) (int, bool) {
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return 0, false
	case x < y:
		return -1, true
	case x > y:
		return 1, true
	}
	return 0, true
}

// compareNumeric orders two numeric values, comparing a BigInt with a Number
// by mathematical value.
func compareNumeric(a, b value.Value) (int, bool) {
	switch {
	case a.IsBigInt() && b.IsBigInt():
		return a.AsBigInt().Cmp(b.AsBigInt()), true
	case a.IsBigInt():
		return compareBigIntNumber(a.AsBigInt(), b.Float64())
	case b.IsBigInt():
		c, ok := compareBigIntNumber(b.AsBigInt(), a.Float64())
		return -c, ok
	case a.IsIntegral() && b.IsIntegral():
		return compareInts(a.AsInt64(), b.AsInt64()), true
	}
	return compareFloats(a.Float64(), b.Float64())
}

// CompareNode implements `<`, `<=`, `>` and `>=`.
type CompareNode struct {
	Kind        Kind
	Left, Right Node
	site        *dispatch.Site
	pos         errors.Position
}

func (n *CompareNode) Execute(r *Realm, f *Frame) (value.Value, error) {
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

func (n *CompareNode) Site() *dispatch.Site { return n.site }

func (n *CompareNode) try(r *Realm, s dispatch.Strategy, a, b value.Value) (value.Value, bool, error) {
	return compareTry(r, n.Kind, s, a, b)
}

func (n *CompareNode) next(_ *Realm, s dispatch.Strategy) dispatch.Strategy {
	return s + 1
}

// CompareConstantNode compares a runtime value against a Number literal.
type CompareConstantNode struct {
	Kind         Kind
	Operand      Node
	Constant     value.Value
	ConstantLeft bool
	site         *dispatch.Site
	pos          errors.Position
}

func (n *CompareConstantNode) Execute(r *Realm, f *Frame) (value.Value, error) {
	x, err := n.Operand.Execute(r, f)
	if err != nil {
		return value.Undefined, err
	}
	a, b := x, n.Constant
	if n.ConstantLeft {
		a, b = b, a
	}
	if a.IsInt32() && b.IsInt32() {
		n.site.Hit()
		return value.Boolean(relation(n.Kind, compareInts(int64(a.AsInt32()), int64(b.AsInt32())))), nil
	}
	res, err := specialize(r, n.site, n, a, b)
	if err != nil {
		return value.Undefined, errors.At(err, n.pos)
	}
	return res, nil
}

func (n *CompareConstantNode) Site() *dispatch.Site { return n.site }

func (n *CompareConstantNode) try(r *Realm, s dispatch.Strategy, a, b value.Value) (value.Value, bool, error) {
	return compareTry(r, n.Kind, s, a, b)
}

func (n *CompareConstantNode) next(_ *Realm, s dispatch.Strategy) dispatch.Strategy {
	return s + 1
}

func compareTry(r *Realm, k Kind, s dispatch.Strategy, a, b value.Value) (value.Value, bool, error) {
	if a.IsInt32() && b.IsInt32() {
		return value.Boolean(relation(k, compareInts(int64(a.AsInt32()), int64(b.AsInt32())))), true, nil
	}
	if s >= cmpNumber && a.IsNumber() && b.IsNumber() {
		c, ok := compareNumeric(a, b)
		return value.Boolean(ok && relation(k, c)), true, nil
	}
	if s >= cmpString && a.IsString() && b.IsString() {
		return value.Boolean(relation(k, value.CompareStrings(a.AsString(), b.AsString()))), true, nil
	}
	if s >= cmpBigInt && a.IsBigInt() && b.IsBigInt() {
		return value.Boolean(relation(k, a.AsBigInt().Cmp(b.AsBigInt()))), true, nil
	}
	if s >= cmpGeneric {
		res, err := r.genericCompare(k, a, b)
		return res, true, err
	}
	return value.Undefined, false, nil
}

// genericCompare is IsLessThan with both operands converted left to right.
// An undefined comparison (NaN, unparsable BigInt string) is false for every
// relational operator.
func (r *Realm) genericCompare(k Kind, a, b value.Value) (value.Value, error) {
	pa, err := convert.ToPrimitive(r.Model, a, convert.HintNumber)
	if err != nil {
		return value.Undefined, err
	}
	pb, err := convert.ToPrimitive(r.Model, b, convert.HintNumber)
	if err != nil {
		return value.Undefined, err
	}
	if pa.IsString() && pb.IsString() {
		return value.Boolean(relation(k, value.CompareStrings(pa.AsString(), pb.AsString()))), nil
	}
	if pa.IsBigInt() && pb.IsString() {
		y, ok := value.StringToBigInt(pb.AsString())
		if !ok {
			return value.False, nil
		}
		pb = value.NewBigInt(y)
	} else if pa.IsString() && pb.IsBigInt() {
		x, ok := value.StringToBigInt(pa.AsString())
		if !ok {
			return value.False, nil
		}
		pa = value.NewBigInt(x)
	}
	na, err := convert.PrimitiveToNumeric(pa)
	if err != nil {
		return value.Undefined, err
	}
	nb, err := convert.PrimitiveToNumeric(pb)
	if err != nil {
		return value.Undefined, err
	}
	c, ok := compareNumeric(na, nb)
	return value.Boolean(ok && relation(k, c)), nil
}

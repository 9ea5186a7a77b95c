package ops

import (
	"math"

	"strata/pkg/convert"
	"strata/pkg/dispatch"
	"strata/pkg/errors"
	"strata/pkg/value"
)

func bitwiseOp(k Kind, x, y int32) int32 {
	switch k {
	case BitAnd:
		return x & y
	case BitOr:
		return x | y
	case BitXor:
		return x ^ y
	}
	panic("ops: bitwiseOp on " + k.String())
}

// shiftOp shifts x by the low five bits of count. An unsigned result above the
// int32 range is returned as a double.
func shiftOp(k Kind, x int32, count uint32) value.Value {
	count &= 31
	switch k {
	case Shl:
		return value.Int32(x << count)
	case Sar:
		return value.Int32(x >> count)
	case Shr:
		u := uint32(x) >> count
		if u > math.MaxInt32 {
			return value.Float(float64(u))
		}
		return value.Int32(int32(u))
	}
	panic("ops: shiftOp on " + k.String())
}

// BitwiseNode implements `&`, `|` and `^`.
type BitwiseNode struct {
	Kind        Kind
	Left, Right Node
	site        *dispatch.Site
	pos         errors.Position
}

func (n *BitwiseNode) Execute(r *Realm, f *Frame) (value.Value, error) {
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

func (n *BitwiseNode) Site() *dispatch.Site { return n.site }

func (n *BitwiseNode) try(r *Realm, s dispatch.Strategy, a, b value.Value) (value.Value, bool, error) {
	return bitwiseTry(r, n.Kind, s, a, b)
}

func (n *BitwiseNode) next(_ *Realm, s dispatch.Strategy) dispatch.Strategy {
	return s + 1
}

// BitwiseConstantNode is a bitwise operator with an int32 literal mask.
type BitwiseConstantNode struct {
	Kind         Kind
	Operand      Node
	Mask         int32
	ConstantLeft bool
	site         *dispatch.Site
	pos          errors.Position
}

func (n *BitwiseConstantNode) Execute(r *Realm, f *Frame) (value.Value, error) {
	x, err := n.Operand.Execute(r, f)
	if err != nil {
		return value.Undefined, err
	}
	if x.IsInt32() {
		n.site.Hit()
		return value.Int32(bitwiseOp(n.Kind, x.AsInt32(), n.Mask)), nil
	}
	a, b := x, value.Int32(n.Mask)
	if n.ConstantLeft {
		a, b = b, a
	}
	res, err := specialize(r, n.site, n, a, b)
	if err != nil {
		return value.Undefined, errors.At(err, n.pos)
	}
	return res, nil
}

func (n *BitwiseConstantNode) Site() *dispatch.Site { return n.site }

func (n *BitwiseConstantNode) try(r *Realm, s dispatch.Strategy, a, b value.Value) (value.Value, bool, error) {
	return bitwiseTry(r, n.Kind, s, a, b)
}

func (n *BitwiseConstantNode) next(_ *Realm, s dispatch.Strategy) dispatch.Strategy {
	return s + 1
}

func bitwiseTry(r *Realm, k Kind, s dispatch.Strategy, a, b value.Value) (value.Value, bool, error) {
	if a.IsInt32() && b.IsInt32() {
		return value.Int32(bitwiseOp(k, a.AsInt32(), b.AsInt32())), true, nil
	}
	if s >= bitsNumber && a.IsNumber() && b.IsNumber() {
		return value.Int32(bitwiseOp(k, convert.NumberToInt32(a), convert.NumberToInt32(b))), true, nil
	}
	if s >= bitsBigInt && a.IsBigInt() && b.IsBigInt() {
		res, err := r.bigIntOp(k, a.AsBigInt(), b.AsBigInt())
		return res, true, err
	}
	if s >= bitsGeneric {
		res, err := r.genericNumeric(k, a, b)
		return res, true, err
	}
	return value.Undefined, false, nil
}

// ShiftNode implements `<<`, `>>` and `>>>`.
type ShiftNode struct {
	Kind        Kind
	Left, Right Node
	site        *dispatch.Site
	pos         errors.Position
}

func (n *ShiftNode) Execute(r *Realm, f *Frame) (value.Value, error) {
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

func (n *ShiftNode) Site() *dispatch.Site { return n.site }

func (n *ShiftNode) try(r *Realm, s dispatch.Strategy, a, b value.Value) (value.Value, bool, error) {
	return shiftTry(r, n.Kind, s, a, b)
}

func (n *ShiftNode) next(_ *Realm, s dispatch.Strategy) dispatch.Strategy {
	return s + 1
}

// ShiftConstantNode shifts a runtime value by a literal Number amount. The
// amount is reduced to its five significant bits once, at construction.
type ShiftConstantNode struct {
	Kind     Kind
	Operand  Node
	Constant value.Value
	count    uint32
	site     *dispatch.Site
	pos      errors.Position
}

func newShiftConstant(kind Kind, operand Node, k value.Value, site *dispatch.Site, pos errors.Position) *ShiftConstantNode {
	return &ShiftConstantNode{
		Kind:     kind,
		Operand:  operand,
		Constant: k,
		count:    uint32(convert.NumberToInt32(k)) & 31,
		site:     site,
		pos:      pos,
	}
}

func (n *ShiftConstantNode) Execute(r *Realm, f *Frame) (value.Value, error) {
	x, err := n.Operand.Execute(r, f)
	if err != nil {
		return value.Undefined, err
	}
	if x.IsInt32() {
		n.site.Hit()
		return shiftOp(n.Kind, x.AsInt32(), n.count), nil
	}
	res, err := specialize(r, n.site, n, x, n.Constant)
	if err != nil {
		return value.Undefined, errors.At(err, n.pos)
	}
	return res, nil
}

func (n *ShiftConstantNode) Site() *dispatch.Site { return n.site }

func (n *ShiftConstantNode) try(r *Realm, s dispatch.Strategy, a, b value.Value) (value.Value, bool, error) {
	return shiftTry(r, n.Kind, s, a, b)
}

func (n *ShiftConstantNode) next(_ *Realm, s dispatch.Strategy) dispatch.Strategy {
	return s + 1
}

func shiftTry(r *Realm, k Kind, s dispatch.Strategy, a, b value.Value) (value.Value, bool, error) {
	if a.IsInt32() && b.IsInt32() {
		return shiftOp(k, a.AsInt32(), uint32(b.AsInt32())), true, nil
	}
	if s >= bitsNumber && a.IsNumber() && b.IsNumber() {
		return shiftOp(k, convert.NumberToInt32(a), uint32(convert.NumberToInt32(b))), true, nil
	}
	if s >= bitsBigInt && a.IsBigInt() && b.IsBigInt() {
		res, err := r.bigIntOp(k, a.AsBigInt(), b.AsBigInt())
		return res, true, err
	}
	if s >= bitsGeneric {
		res, err := r.genericNumeric(k, a, b)
		return res, true, err
	}
	return value.Undefined, false, nil
}

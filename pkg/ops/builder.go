package ops

import (
	"fmt"

	"strata/pkg/dispatch"
	"strata/pkg/errors"
	"strata/pkg/value"
)

const debugFold = false

// Builder creates operator nodes. It runs once per source position and performs
// the construction-time rewrites: folding of constant operands, constant-paired
// nodes, truncating additions and logical branch selection.
type Builder struct {
	realm *Realm
	sites *dispatch.Table
	// Fold enables every construction-time rewrite.
	Fold bool
}

// NewBuilder returns a folding builder. sites may be nil, in which case nodes
// get detached sites.
func NewBuilder(r *Realm, sites *dispatch.Table) *Builder {
	return &Builder{realm: r, sites: sites, Fold: true}
}

func (b *Builder) Constant(v value.Value) Node {
	return &Constant{Value: v}
}

func (b *Builder) Local(index int, name string) Node {
	return &Local{Index: index, Name: name}
}

func (b *Builder) newSite(l *dispatch.Ladder, k Kind) *dispatch.Site {
	var site *dispatch.Site
	if b.sites != nil {
		site = b.sites.NewSite(l)
	} else {
		site = dispatch.NewDetachedSite(l)
	}
	site.SetLabel(k.String())
	return site
}

// Binary builds the node for `left k right`.
func (b *Builder) Binary(k Kind, left, right Node, pos errors.Position) Node {
	if k.IsLogical() {
		return b.logical(k, left, right)
	}
	ca, leftConst := constantOf(left)
	cb, rightConst := constantOf(right)
	leftConst = leftConst && ca.IsPrimitive()
	rightConst = rightConst && cb.IsPrimitive()

	if b.Fold && leftConst && rightConst {
		// A folding error is raised at run time instead, with its position.
		if v, err := Evaluate(b.realm, k, ca, cb); err == nil {
			if debugFold {
				fmt.Printf("[fold] %s %s %s => %s\n", ca.Inspect(), k, cb.Inspect(), v.Inspect())
			}
			return &Constant{Value: v}
		}
	}

	switch {
	case k == Add:
		return b.add(left, right, ca, cb, leftConst, rightConst, pos)
	case k.IsArithmetic():
		return b.arithmetic(k, left, right, ca, cb, leftConst, rightConst, pos)
	case k.IsBitwise():
		return b.bitwise(k, left, right, ca, cb, leftConst, rightConst, pos)
	case k.IsShift():
		if b.Fold && rightConst && cb.IsNumber() && !leftConst {
			return newShiftConstant(k, left, cb, b.newSite(ShiftLadder, k), pos)
		}
		return &ShiftNode{Kind: k, Left: left, Right: right, site: b.newSite(ShiftLadder, k), pos: pos}
	case k.IsRelational():
		if b.Fold && rightConst != leftConst {
			operand, c := left, cb
			if leftConst {
				operand, c = right, ca
			}
			if c.IsNumber() {
				return &CompareConstantNode{Kind: k, Operand: operand, Constant: c, ConstantLeft: leftConst, site: b.newSite(CompareLadder, k), pos: pos}
			}
		}
		return &CompareNode{Kind: k, Left: left, Right: right, site: b.newSite(CompareLadder, k), pos: pos}
	case k == Eq || k == Ne:
		if b.Fold && rightConst != leftConst {
			operand, c := left, cb
			if leftConst {
				operand, c = right, ca
			}
			if c.IsNullish() {
				return &EqualNullishNode{Operand: operand, Negate: k == Ne}
			}
		}
		return &EqualNode{Left: left, Right: right, Negate: k == Ne, site: b.newSite(EqualLadder, k), pos: pos}
	case k.IsEquality():
		mode := k
		if k == StrictNe {
			mode = StrictEq
		}
		if b.Fold && rightConst != leftConst {
			operand, c := left, cb
			if leftConst {
				operand, c = right, ca
			}
			if isIdenticalConstant(c) {
				return &IdenticalConstantNode{Operand: operand, Constant: c, Mode: mode, Negate: k == StrictNe}
			}
		}
		return &IdenticalNode{Mode: mode, Left: left, Right: right, Negate: k == StrictNe, site: b.newSite(IdenticalLadder, k), pos: pos}
	}
	panic("ops: cannot build operator " + k.String())
}

func (b *Builder) add(left, right Node, ca, cb value.Value, leftConst, rightConst bool, pos errors.Position) Node {
	if b.Fold && rightConst && !leftConst && (cb.IsNumber() || cb.IsString()) {
		return newAddConstant(left, cb, false, b.newSite(AddLadder, Add), pos)
	}
	if b.Fold && leftConst && !rightConst && (ca.IsNumber() || ca.IsString()) {
		return newAddConstant(right, ca, true, b.newSite(AddLadder, Add), pos)
	}
	return &AddNode{Left: left, Right: right, site: b.newSite(AddLadder, Add), pos: pos}
}

func (b *Builder) arithmetic(k Kind, left, right Node, ca, cb value.Value, leftConst, rightConst bool, pos errors.Position) Node {
	l := arithmeticLadder(k)
	if b.Fold && rightConst && !leftConst && cb.IsNumber() {
		return newArithmeticConstant(k, left, cb, false, b.newSite(l, k), pos)
	}
	if b.Fold && leftConst && !rightConst && ca.IsNumber() {
		return newArithmeticConstant(k, right, ca, true, b.newSite(l, k), pos)
	}
	return &ArithmeticNode{Kind: k, Left: left, Right: right, site: b.newSite(l, k), pos: pos}
}

func (b *Builder) bitwise(k Kind, left, right Node, ca, cb value.Value, leftConst, rightConst bool, pos errors.Position) Node {
	if !b.Fold || leftConst == rightConst {
		return &BitwiseNode{Kind: k, Left: left, Right: right, site: b.newSite(BitwiseLadder, k), pos: pos}
	}
	operand, c := left, cb
	if leftConst {
		operand, c = right, ca
	}
	if !c.IsInt32() {
		return &BitwiseNode{Kind: k, Left: left, Right: right, site: b.newSite(BitwiseLadder, k), pos: pos}
	}
	if k == BitOr && c.AsInt32() == 0 {
		markTruncating(operand)
	}
	return &BitwiseConstantNode{Kind: k, Operand: operand, Mask: c.AsInt32(), ConstantLeft: leftConst, site: b.newSite(BitwiseLadder, k), pos: pos}
}

// markTruncating lets an addition whose only consumer is `| 0` wrap on int32
// overflow instead of widening: ToInt32 of the wider sum is the same value.
func markTruncating(n Node) {
	switch add := n.(type) {
	case *AddNode:
		add.truncate = true
		add.site.Seed(addInt32Truncate)
	case *AddConstantNode:
		add.truncate = true
		add.site.Seed(addInt32Truncate)
	}
}

// logical selects the branch at build time when the left operand is a literal.
func (b *Builder) logical(k Kind, left, right Node) Node {
	if c, ok := constantOf(left); ok && b.Fold && c.IsPrimitive() {
		if shortCircuits(k, c) {
			return left
		}
		return right
	}
	return &LogicalNode{Kind: k, Left: left, Right: right}
}

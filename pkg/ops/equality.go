package ops

import (
	"strata/pkg/convert"
	"strata/pkg/dispatch"
	"strata/pkg/errors"
	"strata/pkg/value"
)

// identical applies one of the non-coercing equality predicates.
func identical(mode Kind, a, b value.Value) bool {
	switch mode {
	case SameValue:
		return value.SameValue(a, b)
	case SameValueZero:
		return value.SameValueZero(a, b)
	}
	return value.StrictEquals(a, b)
}

func normalizeHole(v value.Value) value.Value {
	if v.IsHole() {
		return value.Undefined
	}
	return v
}

// looseEquals is IsLooselyEqual. Each round either answers or converts one
// operand one step closer to a common type.
func (r *Realm) looseEquals(a, b value.Value) (bool, error) {
	a, b = normalizeHole(a), normalizeHole(b)
	for {
		if a.Type() == b.Type() || (a.IsNumber() && b.IsNumber()) {
			return value.StrictEquals(a, b), nil
		}
		var err error
		switch {
		case a.IsNullish() && b.IsNullish():
			return true, nil
		case a.IsNumber() && b.IsString():
			b = value.StringToNumber(b.AsString())
		case a.IsString() && b.IsNumber():
			a = value.StringToNumber(a.AsString())
		case a.IsBigInt() && b.IsString():
			y, ok := value.StringToBigInt(b.AsString())
			if !ok {
				return false, nil
			}
			b = value.NewBigInt(y)
		case a.IsString() && b.IsBigInt():
			x, ok := value.StringToBigInt(a.AsString())
			if !ok {
				return false, nil
			}
			a = value.NewBigInt(x)
		case a.IsBoolean():
			a, err = convert.PrimitiveToNumber(a)
		case b.IsBoolean():
			b, err = convert.PrimitiveToNumber(b)
		case a.IsObject() && !b.IsNullish():
			a, err = convert.ToPrimitive(r.Model, a, convert.HintDefault)
		case b.IsObject() && !a.IsNullish():
			b, err = convert.ToPrimitive(r.Model, b, convert.HintDefault)
		case a.IsBigInt() && b.IsNumber():
			c, ok := compareBigIntNumber(a.AsBigInt(), b.Float64())
			return ok && c == 0, nil
		case a.IsNumber() && b.IsBigInt():
			c, ok := compareBigIntNumber(b.AsBigInt(), a.Float64())
			return ok && c == 0, nil
		default:
			return false, nil
		}
		if err != nil {
			return false, err
		}
	}
}

// EqualNode implements `==` and, negated, `!=`.
type EqualNode struct {
	Left, Right Node
	Negate      bool
	site        *dispatch.Site
	pos         errors.Position
}

func (n *EqualNode) Execute(r *Realm, f *Frame) (value.Value, error) {
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

func (n *EqualNode) Site() *dispatch.Site { return n.site }

func (n *EqualNode) try(r *Realm, s dispatch.Strategy, a, b value.Value) (value.Value, bool, error) {
	eq, ok, err := equalTry(r, s, a, b)
	return value.Boolean(eq != n.Negate), ok, err
}

func (n *EqualNode) next(_ *Realm, s dispatch.Strategy) dispatch.Strategy {
	return s + 1
}

func equalTry(r *Realm, s dispatch.Strategy, a, b value.Value) (bool, bool, error) {
	if a.IsInt32() && b.IsInt32() {
		return a.AsInt32() == b.AsInt32(), true, nil
	}
	if s >= eqNumber && a.IsNumber() && b.IsNumber() {
		return value.StrictEquals(a, b), true, nil
	}
	if s >= eqString && a.IsString() && b.IsString() {
		return value.StrictEquals(a, b), true, nil
	}
	if s >= eqBigInt && a.IsBigInt() && b.IsBigInt() {
		return a.AsBigInt().Cmp(b.AsBigInt()) == 0, true, nil
	}
	if s >= eqGeneric {
		eq, err := r.looseEquals(a, b)
		return eq, true, err
	}
	return false, false, nil
}

// EqualNullishNode is `x == null` (or `!= null`, or the undefined forms).
type EqualNullishNode struct {
	Operand Node
	Negate  bool
}

func (n *EqualNullishNode) Execute(r *Realm, f *Frame) (value.Value, error) {
	x, err := n.Operand.Execute(r, f)
	if err != nil {
		return value.Undefined, err
	}
	return value.Boolean((x.IsNullish() || x.IsHole()) != n.Negate), nil
}

// IdenticalNode implements `===`, `!==`, SameValue and SameValueZero.
type IdenticalNode struct {
	Mode        Kind
	Left, Right Node
	Negate      bool
	site        *dispatch.Site
	pos         errors.Position
}

func (n *IdenticalNode) Execute(r *Realm, f *Frame) (value.Value, error) {
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

func (n *IdenticalNode) Site() *dispatch.Site { return n.site }

func (n *IdenticalNode) try(_ *Realm, s dispatch.Strategy, a, b value.Value) (value.Value, bool, error) {
	var eq bool
	switch {
	case a.IsInt32() && b.IsInt32():
		eq = a.AsInt32() == b.AsInt32()
	case s >= identNumber && a.IsNumber() && b.IsNumber():
		eq = identical(n.Mode, a, b)
	case s >= identString && a.IsString() && b.IsString():
		eq = value.StrictEquals(a, b)
	case s >= identGeneric:
		eq = identical(n.Mode, a, b)
	default:
		return value.Undefined, false, nil
	}
	return value.Boolean(eq != n.Negate), true, nil
}

func (n *IdenticalNode) next(_ *Realm, s dispatch.Strategy) dispatch.Strategy {
	return s + 1
}

// IdenticalConstantNode is `x === k` for a null, undefined, boolean, int32 or
// string literal k. No strategy is needed: the literal fixes the comparison.
type IdenticalConstantNode struct {
	Operand  Node
	Constant value.Value
	Mode     Kind
	Negate   bool
}

func (n *IdenticalConstantNode) Execute(r *Realm, f *Frame) (value.Value, error) {
	x, err := n.Operand.Execute(r, f)
	if err != nil {
		return value.Undefined, err
	}
	return value.Boolean(identical(n.Mode, x, n.Constant) != n.Negate), nil
}

// isIdenticalConstant reports whether v is a literal IdenticalConstantNode accepts.
func isIdenticalConstant(v value.Value) bool {
	switch v.Type() {
	case value.TypeUndefined, value.TypeNull, value.TypeBoolean, value.TypeInteger, value.TypeString:
		return true
	}
	return false
}

package ops

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"strata/pkg/dispatch"
	"strata/pkg/errors"
	"strata/pkg/objects"
	"strata/pkg/value"
)

type sited interface {
	Node
	Site() *dispatch.Site
}

// unfolded builds `a k b` over two locals without any construction-time rewrite.
func unfolded(r *Realm, k Kind) Node {
	bld := NewBuilder(r, nil)
	bld.Fold = false
	return bld.Binary(k, bld.Local(0, "a"), bld.Local(1, "b"), errors.Position{})
}

func exec(t *testing.T, r *Realm, n Node, a, b value.Value) value.Value {
	t.Helper()
	v, err := n.Execute(r, NewFrame(a, b))
	require.NoError(t, err)
	return v
}

func rung(n Node) string {
	site := n.(sited).Site()
	return site.Ladder().Name(site.Strategy())
}

func TestArithmeticGeneralizes(t *testing.T) {
	r := newRealm()
	n := unfolded(r, Sub)
	site := n.(*ArithmeticNode).Site()

	assert.Equal(t, i32(-1), exec(t, r, n, i32(1), i32(2)))
	assert.Equal(t, "int32", rung(n))
	assert.Zero(t, site.Transitions())

	assert.True(t, value.SameValue(value.Integer(math.MinInt32-1), exec(t, r, n, i32(math.MinInt32), i32(1))))
	assert.Equal(t, "safe-integer", rung(n))

	assert.True(t, value.SameValue(f64(-0.5), exec(t, r, n, f64(0.5), i32(1))))
	assert.Equal(t, "number", rung(n))

	assert.True(t, value.SameValue(bi(-1), exec(t, r, n, bi(1), bi(2))))
	assert.Equal(t, "bigint", rung(n))

	assert.Equal(t, i32(4), exec(t, r, n, str("5"), i32(1)))
	assert.Equal(t, "generic", rung(n))
	assert.Equal(t, uint32(4), site.Transitions())

	// the generic rung still answers the narrow inputs
	assert.Equal(t, i32(-1), exec(t, r, n, i32(1), i32(2)))
	assert.Equal(t, uint32(4), site.Transitions())
	assert.Equal(t, uint64(6), site.Hits())
}

func TestSafeIntegerLaneDisabled(t *testing.T) {
	limits := DefaultLimits()
	limits.SafeIntegerLane = false
	r := NewRealm(objects.NewModel(), limits)

	n := unfolded(r, Sub)
	got := exec(t, r, n, i32(math.MinInt32), i32(1))
	assert.True(t, got.IsFloat())
	assert.Equal(t, float64(math.MinInt32-1), got.Float64())
	assert.Equal(t, "number", rung(n))
	assert.Equal(t, uint32(1), n.(sited).Site().Transitions())

	add := unfolded(r, Add)
	exec(t, r, add, i32(math.MaxInt32), i32(1))
	assert.Equal(t, "number", rung(add))
}

func TestAddGeneralizes(t *testing.T) {
	r := newRealm()
	n := unfolded(r, Add)

	assert.Equal(t, i32(3), exec(t, r, n, i32(1), i32(2)))
	assert.Equal(t, "a1", exec(t, r, n, str("a"), i32(1)).AsString())
	assert.Equal(t, "string", rung(n))
	assert.Equal(t, uint32(3), n.(sited).Site().Transitions())

	// int32-truncate is only reachable from a truncating addition
	n = unfolded(r, Add)
	exec(t, r, n, i32(math.MaxInt32), i32(1))
	assert.Equal(t, "safe-integer", rung(n))
}

func TestTruncatingAdd(t *testing.T) {
	r := newRealm()
	bld := NewBuilder(r, nil)
	sum := bld.Binary(Add, bld.Local(0, "x"), bld.Local(1, "y"), errors.Position{})
	n := bld.Binary(BitOr, sum, bld.Constant(i32(0)), errors.Position{})

	or, ok := n.(*BitwiseConstantNode)
	require.True(t, ok, "%T", n)
	add, ok := or.Operand.(*AddNode)
	require.True(t, ok)
	assert.True(t, add.IsTruncating())
	assert.Equal(t, "int32-truncate", rung(add))

	assert.Equal(t, i32(math.MinInt32), exec(t, r, n, i32(math.MaxInt32), i32(1)))
	assert.Equal(t, i32(-2), exec(t, r, n, i32(math.MaxInt32), i32(math.MaxInt32)))
	assert.Equal(t, "int32-truncate", rung(add))
	assert.Zero(t, add.Site().Transitions())

	// a fractional operand leaves the truncating rung, the result is unchanged
	assert.Equal(t, i32(1), exec(t, r, n, f64(0.5), i32(1)))
	assert.Equal(t, "number", rung(add))

	// constant additions truncate too
	n = bld.Binary(BitOr, bld.Binary(Add, bld.Local(0, "x"), bld.Constant(i32(1)), errors.Position{}), bld.Constant(i32(0)), errors.Position{})
	inc := n.(*BitwiseConstantNode).Operand.(*AddConstantNode)
	assert.True(t, inc.IsTruncating())
	assert.Equal(t, i32(math.MinInt32), exec(t, r, n, i32(math.MaxInt32), value.Undefined))
	assert.Zero(t, inc.Site().Transitions())
}

func TestConstantPairedNodes(t *testing.T) {
	r := newRealm()
	bld := NewBuilder(r, nil)
	x := bld.Local(0, "x")
	c := bld.Constant

	for _, tt := range []struct {
		node    Node
		want    string
		in      value.Value
		outcome value.Value
	}{
		{bld.Binary(Add, x, c(i32(1)), errors.Position{}), "*ops.AddConstantNode", i32(41), i32(42)},
		{bld.Binary(Add, c(str("n=")), x, errors.Position{}), "*ops.AddConstantNode", i32(1), str("n=1")},
		{bld.Binary(Add, x, c(value.True), errors.Position{}), "*ops.AddNode", i32(1), i32(2)},
		{bld.Binary(Sub, c(i32(10)), x, errors.Position{}), "*ops.ArithmeticConstantNode", i32(3), i32(7)},
		{bld.Binary(Div, x, c(f64(0.5)), errors.Position{}), "*ops.ArithmeticConstantNode", i32(3), i32(6)},
		{bld.Binary(BitAnd, x, c(i32(0xff)), errors.Position{}), "*ops.BitwiseConstantNode", i32(0x1234), i32(0x34)},
		{bld.Binary(BitAnd, x, c(f64(1.5)), errors.Position{}), "*ops.BitwiseNode", i32(3), i32(1)},
		{bld.Binary(Shl, x, c(f64(33)), errors.Position{}), "*ops.ShiftConstantNode", i32(1), i32(2)},
		{bld.Binary(Shl, c(i32(1)), x, errors.Position{}), "*ops.ShiftNode", i32(4), i32(16)},
		{bld.Binary(Lt, x, c(f64(1.5)), errors.Position{}), "*ops.CompareConstantNode", i32(1), value.True},
		{bld.Binary(Gt, c(i32(0)), x, errors.Position{}), "*ops.CompareConstantNode", i32(-1), value.True},
		{bld.Binary(Lt, x, c(str("b")), errors.Position{}), "*ops.CompareNode", str("a"), value.True},
		{bld.Binary(Eq, x, c(value.Null), errors.Position{}), "*ops.EqualNullishNode", value.Undefined, value.True},
		{bld.Binary(Ne, c(value.Undefined), x, errors.Position{}), "*ops.EqualNullishNode", i32(0), value.True},
		{bld.Binary(Eq, x, c(i32(1)), errors.Position{}), "*ops.EqualNode", str("1"), value.True},
		{bld.Binary(StrictEq, c(str("x")), x, errors.Position{}), "*ops.IdenticalConstantNode", str("x"), value.True},
		{bld.Binary(StrictNe, x, c(value.Null), errors.Position{}), "*ops.IdenticalConstantNode", value.Undefined, value.True},
		{bld.Binary(SameValue, x, c(i32(0)), errors.Position{}), "*ops.IdenticalConstantNode", value.NegZero, value.False},
		{bld.Binary(StrictEq, x, c(f64(0.5)), errors.Position{}), "*ops.IdenticalNode", f64(0.5), value.True},
	} {
		assert.Equal(t, tt.want, fmt.Sprintf("%T", tt.node))
		got := exec(t, r, tt.node, tt.in, value.Undefined)
		assert.True(t, value.SameValue(tt.outcome, got), "%s: got %s", tt.want, got.Inspect())
	}
}

func TestConstantNodeGeneralizes(t *testing.T) {
	r := newRealm()
	bld := NewBuilder(r, nil)
	n := bld.Binary(Add, bld.Local(0, "x"), bld.Constant(i32(1)), errors.Position{})

	assert.Equal(t, i32(2), exec(t, r, n, i32(1), value.Undefined))
	assert.True(t, value.SameValue(value.Integer(1<<31), exec(t, r, n, i32(math.MaxInt32), value.Undefined)))
	assert.Equal(t, "safe-integer", rung(n))
	assert.Equal(t, uint32(1), n.(sited).Site().Transitions())

	// the int32 fast path is skipped once generalized
	assert.Equal(t, i32(2), exec(t, r, n, i32(1), value.Undefined))
	assert.Equal(t, uint64(3), n.(sited).Site().Hits())
}

func TestFolding(t *testing.T) {
	r := newRealm()
	table := dispatch.NewTable(nil)
	bld := NewBuilder(r, table)
	c := bld.Constant

	n := bld.Binary(Mul, c(i32(-1)), c(i32(0)), errors.Position{})
	folded, ok := n.(*Constant)
	require.True(t, ok, "%T", n)
	assert.True(t, folded.Value.IsNegativeZero())

	n = bld.Binary(Add, c(str("a")), c(i32(1)), errors.Position{})
	assert.Equal(t, "a1", n.(*Constant).Value.AsString())
	assert.Zero(t, table.Len())

	// folding errors surface at run time with the position of the operator
	pos := errors.Position{Line: 3, Column: 7}
	n = bld.Binary(Add, c(bi(1)), c(i32(1)), pos)
	assert.IsType(t, &AddNode{}, n)
	assert.Equal(t, 1, table.Len())
	_, err := n.Execute(r, nil)
	te, ok := err.(*errors.TypeError)
	require.True(t, ok, "%v", err)
	assert.Equal(t, pos, te.Position)

	// object literals are never folded, they pair with the constant instead
	obj := value.NewObject(r.Model.(*objects.Model).NewObject())
	assert.IsType(t, &AddConstantNode{}, bld.Binary(Add, c(obj), c(i32(1)), errors.Position{}))

	bld.Fold = false
	assert.IsType(t, &AddNode{}, bld.Binary(Add, c(i32(1)), c(i32(2)), errors.Position{}))
	assert.IsType(t, &BitwiseNode{}, bld.Binary(BitOr, bld.Local(0, "x"), c(i32(0)), errors.Position{}))
	assert.Equal(t, 4, table.Len())
}

func TestLogicalSelection(t *testing.T) {
	r := newRealm()
	bld := NewBuilder(r, nil)
	x := bld.Local(0, "x")
	zero := bld.Constant(i32(0))

	assert.Same(t, x, bld.Binary(Or, zero, x, errors.Position{}))
	assert.Same(t, zero, bld.Binary(And, zero, x, errors.Position{}))
	assert.Same(t, zero, bld.Binary(Nullish, zero, x, errors.Position{}))
	assert.Same(t, x, bld.Binary(Nullish, bld.Constant(value.Null), x, errors.Position{}))
	assert.IsType(t, &LogicalNode{}, bld.Binary(Or, x, zero, errors.Position{}))
}

// stub records whether it ran and fails when err is set.
type stub struct {
	v     value.Value
	err   error
	calls int
}

func (p *stub) Execute(*Realm, *Frame) (value.Value, error) {
	p.calls++
	return p.v, p.err
}

func TestShortCircuit(t *testing.T) {
	r := newRealm()
	for _, tt := range []struct {
		kind Kind
		left value.Value
	}{
		{And, value.False},
		{And, str("")},
		{Or, i32(1)},
		{Or, bi(1)},
		{Nullish, i32(0)},
		{Nullish, value.False},
	} {
		right := &stub{err: errors.NewTypeError("boom")}
		n := &LogicalNode{Kind: tt.kind, Left: &Constant{Value: tt.left}, Right: right}
		got, err := n.Execute(r, nil)
		require.NoError(t, err)
		assert.True(t, value.SameValue(tt.left, got))
		assert.Zero(t, right.calls, "%s %s", tt.left.Inspect(), tt.kind)
	}

	right := &stub{v: str("r")}
	n := &LogicalNode{Kind: Nullish, Left: &Constant{Value: value.Undefined}, Right: right}
	got, err := n.Execute(r, nil)
	require.NoError(t, err)
	assert.Equal(t, "r", got.AsString())
	assert.Equal(t, 1, right.calls)

	// a failing left operand stops the evaluation of a binary operator
	left := &stub{err: errors.NewRangeError("left")}
	right = &stub{v: i32(1)}
	bld := NewBuilder(r, nil)
	_, err = bld.Binary(Sub, left, right, errors.Position{}).Execute(r, nil)
	assert.True(t, errors.IsRangeError(err))
	assert.Zero(t, right.calls)
}

func TestOperandOrder(t *testing.T) {
	r := newRealm()
	m := r.Model.(*objects.Model)
	var order []string
	operand := func(name string, v value.Value) value.Value {
		o := m.NewObject()
		fn := m.NewFunction("valueOf", func(*objects.Model, value.Value, []value.Value) (value.Value, error) {
			order = append(order, name)
			return v, nil
		})
		require.NoError(t, m.Set(o, value.NewStringKey("valueOf"), value.NewObject(fn)))
		return value.NewObject(o)
	}
	a, b := operand("a", i32(2)), operand("b", i32(3))

	for _, k := range []Kind{Add, Sub, Exp, BitXor, Shr, Lt, Ge, Eq} {
		order = nil
		_, err := run(r, k, a, b)
		require.NoError(t, err)
		if k == Eq {
			// two objects compare by identity
			assert.Empty(t, order)
			continue
		}
		assert.Equal(t, []string{"a", "b"}, order, k.String())
	}

	// the right operand is not converted when the left one throws
	order = nil
	bad := operand("bad", symbol())
	_, err := run(r, Mul, bad, b)
	assert.True(t, errors.IsTypeError(err))
	assert.Equal(t, []string{"bad"}, order)
}

func TestConcurrentSharedNode(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := newRealm()
	table := dispatch.NewTable(nil)
	bld := NewBuilder(r, table)
	bld.Fold = false
	n := bld.Binary(Add, bld.Local(0, "a"), bld.Local(1, "b"), errors.Position{})
	inputs := [][2]value.Value{
		{i32(1), i32(2)},
		{i32(math.MaxInt32), i32(1)},
		{f64(0.5), i32(1)},
		{str("a"), i32(1)},
		{bi(1), bi(2)},
		{value.Null, value.True},
	}

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				in := inputs[(g+i)%len(inputs)]
				got, err := n.Execute(r, NewFrame(in[0], in[1]))
				want, werr := Evaluate(r, Add, in[0], in[1])
				if !assert.NoError(t, err) || !assert.NoError(t, werr) {
					return
				}
				assert.True(t, value.SameValue(want, got))
			}
		}(g)
	}
	wg.Wait()

	site := n.(sited).Site()
	assert.True(t, site.IsGeneric())
	assert.Equal(t, uint64(16*200), site.Hits())
	assert.LessOrEqual(t, site.Transitions(), uint32(AddLadder.Generic()))
}

// sameOutcome reports whether two evaluations agree: equal by SameValue or
// failing with the same kind of error.
func sameOutcome(v1 value.Value, err1 error, v2 value.Value, err2 error) bool {
	if err1 != nil || err2 != nil {
		return err1 != nil && err2 != nil &&
			errors.IsTypeError(err1) == errors.IsTypeError(err2) &&
			errors.IsRangeError(err1) == errors.IsRangeError(err2)
	}
	return value.SameValue(v1, v2)
}

func genOperand() gopter.Gen {
	return gen.OneGenOf(
		gen.Int32().Map(func(i int32) value.Value { return value.Int32(i) }),
		gen.Int32Range(-8, 8).Map(func(i int32) value.Value { return value.Int32(i) }),
		gen.Int64Range(-1<<40, 1<<40).Map(func(i int64) value.Value { return value.Integer(i) }),
		gen.Float64Range(-1e6, 1e6).Map(func(f float64) value.Value { return value.Float(f) }),
		gen.Int64Range(-100, 100).Map(func(i int64) value.Value { return value.BigIntFromInt64(i) }),
		gen.Bool().Map(func(b bool) value.Value { return value.Boolean(b) }),
		gen.OneConstOf(
			value.NaN, value.NegZero, value.Zero, inf, ninf, value.Undefined, value.Null,
			str(""), str("a"), str("10"), str(" 3 "), str("0x1f"), str("12n"),
		),
	)
}

func genOperator() gopter.Gen {
	return gen.IntRange(int(Add), int(SameValueZero)).Map(func(i int) Kind { return Kind(i) })
}

func genConstant() gopter.Gen {
	return gen.OneGenOf(
		gen.Int32Range(-40, 40).Map(func(i int32) value.Value { return value.Int32(i) }),
		gen.OneConstOf(
			value.Zero, value.NegZero, value.NaN, f64(1.5), f64(-0.25), value.Integer(1<<35),
			value.Undefined, value.Null, value.True, value.False, str(""), str("7"), str("x"),
		),
	)
}

func TestSpecializedMatchesGeneric(t *testing.T) {
	r := newRealm()
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("a node agrees with the generic evaluation after any history", prop.ForAll(
		func(k Kind, a, b, c, d value.Value) bool {
			n := unfolded(r, k)
			for _, in := range [][2]value.Value{{a, b}, {c, d}, {a, b}} {
				got, err := n.Execute(r, NewFrame(in[0], in[1]))
				want, werr := Evaluate(r, k, in[0], in[1])
				if !sameOutcome(got, err, want, werr) {
					t.Logf("%s %s %s: node %s (%v), generic %s (%v)",
						in[0].Inspect(), k, in[1].Inspect(), got.Inspect(), err, want.Inspect(), werr)
					return false
				}
			}
			return true
		},
		genOperator(), genOperand(), genOperand(), genOperand(), genOperand(),
	))

	properties.Property("constant-paired nodes agree with the generic evaluation", prop.ForAll(
		func(k Kind, k0 value.Value, x, y value.Value) bool {
			bld := NewBuilder(r, nil)
			right := bld.Binary(k, bld.Local(0, "x"), bld.Constant(k0), errors.Position{})
			left := bld.Binary(k, bld.Constant(k0), bld.Local(0, "x"), errors.Position{})
			for _, in := range []value.Value{x, y, x} {
				got, err := right.Execute(r, NewFrame(in))
				want, werr := Evaluate(r, k, in, k0)
				if !sameOutcome(got, err, want, werr) {
					return false
				}
				got, err = left.Execute(r, NewFrame(in))
				want, werr = Evaluate(r, k, k0, in)
				if !sameOutcome(got, err, want, werr) {
					return false
				}
			}
			return true
		},
		genOperator(), genConstant(), genOperand(), genOperand(),
	))

	properties.Property("strategies only move up the ladder", prop.ForAll(
		func(k Kind, a, b, c, d value.Value) bool {
			n, ok := unfolded(r, k).(sited)
			if !ok {
				return true
			}
			prev := n.Site().Strategy()
			for _, in := range [][2]value.Value{{a, b}, {c, d}, {b, a}, {d, c}} {
				_, _ = n.Execute(r, NewFrame(in[0], in[1]))
				s := n.Site().Strategy()
				if s < prev || s > n.Site().Ladder().Generic() {
					return false
				}
				prev = s
			}
			return n.Site().Transitions() <= uint32(prev)
		},
		genOperator(), genOperand(), genOperand(), genOperand(), genOperand(),
	))

	properties.TestingRun(t)
}

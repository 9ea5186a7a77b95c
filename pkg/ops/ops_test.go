package ops

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strata/pkg/errors"
	"strata/pkg/objects"
	"strata/pkg/value"
)

func newRealm() *Realm {
	return NewRealm(objects.NewModel(), DefaultLimits())
}

// run builds `a k b` over two locals, so that nothing is folded, and executes it once.
func run(r *Realm, k Kind, a, b value.Value) (value.Value, error) {
	bld := NewBuilder(r, nil)
	bld.Fold = false
	n := bld.Binary(k, bld.Local(0, "a"), bld.Local(1, "b"), errors.Position{})
	return n.Execute(r, NewFrame(a, b))
}

type operatorCase struct {
	kind Kind
	a, b value.Value
	want value.Value
}

func checkCases(t *testing.T, r *Realm, cases []operatorCase) {
	t.Helper()
	for _, tt := range cases {
		got, err := run(r, tt.kind, tt.a, tt.b)
		require.NoError(t, err, "%s %s %s", tt.a.Inspect(), tt.kind, tt.b.Inspect())
		assert.True(t, value.SameValue(tt.want, got), "%s %s %s: want %s, got %s",
			tt.a.Inspect(), tt.kind, tt.b.Inspect(), tt.want.Inspect(), got.Inspect())

		generic, err := Evaluate(r, tt.kind, tt.a, tt.b)
		require.NoError(t, err)
		assert.True(t, value.SameValue(tt.want, generic), "generic %s %s %s: got %s",
			tt.a.Inspect(), tt.kind, tt.b.Inspect(), generic.Inspect())
	}
}

var (
	i32  = value.Int32
	f64  = value.Float
	str  = value.NewString
	bi   = value.BigIntFromInt64
	inf  = value.Float(math.Inf(1))
	ninf = value.Float(math.Inf(-1))
)

func symbol() value.Value {
	return value.NewSymbolValue(value.NewSymbol("s"))
}

func TestAdd(t *testing.T) {
	r := newRealm()
	m := r.Model.(*objects.Model)
	arr := value.NewObject(m.NewArray(i32(1), i32(2)))

	checkCases(t, r, []operatorCase{
		{Add, i32(1), i32(2), i32(3)},
		{Add, i32(math.MaxInt32), i32(1), value.Integer(1 << 31)},
		{Add, f64(0.1), f64(0.2), f64(0.30000000000000004)},
		{Add, value.NegZero, value.NegZero, value.NegZero},
		{Add, value.NegZero, i32(0), i32(0)},
		{Add, str("a"), i32(1), str("a1")},
		{Add, i32(1), str("a"), str("1a")},
		{Add, str("x"), value.Null, str("xnull")},
		{Add, str("x"), value.Undefined, str("xundefined")},
		{Add, value.Hole, str("a"), str("undefineda")},
		{Add, str("a"), value.Hole, str("aundefined")},
		{Add, str(""), bi(5), str("5")},
		{Add, value.True, i32(1), i32(2)},
		{Add, value.Null, i32(1), i32(1)},
		{Add, value.Undefined, i32(1), value.NaN},
		{Add, bi(1), bi(2), bi(3)},
		{Add, arr, i32(3), str("1,23")},
		{Add, inf, ninf, value.NaN},
	})

	_, err := run(r, Add, symbol(), i32(1))
	assert.True(t, errors.IsTypeError(err))
	_, err = run(r, Add, symbol(), str(""))
	assert.True(t, errors.IsTypeError(err))
}

func TestArithmetic(t *testing.T) {
	twoTo64 := value.NewBigInt(new(big.Int).Lsh(big.NewInt(1), 64))

	checkCases(t, newRealm(), []operatorCase{
		{Sub, i32(5), i32(7), i32(-2)},
		{Sub, value.NegZero, i32(0), value.NegZero},
		{Sub, i32(math.MinInt32), i32(1), value.Integer(math.MinInt32 - 1)},
		{Mul, i32(-1), i32(0), value.NegZero},
		{Mul, i32(0), i32(-3), value.NegZero},
		{Mul, i32(math.MaxInt32), i32(2), value.Integer(math.MaxInt32 * 2)},
		{Mul, i32(1 << 30), i32(1 << 30), f64(1 << 60)},
		{Div, i32(6), i32(3), i32(2)},
		{Div, i32(7), i32(2), f64(3.5)},
		{Div, i32(1), i32(0), inf},
		{Div, i32(-1), i32(0), ninf},
		{Div, i32(0), i32(0), value.NaN},
		{Div, i32(0), i32(-5), value.NegZero},
		{Div, i32(math.MinInt32), i32(-1), value.Integer(1 << 31)},
		{Mod, i32(7), i32(3), i32(1)},
		{Mod, i32(7), i32(4), i32(3)},
		{Mod, i32(-7), i32(3), i32(-1)},
		{Mod, i32(-6), i32(3), value.NegZero},
		{Mod, f64(5.5), i32(2), f64(1.5)},
		{Mod, i32(1), i32(0), value.NaN},
		{Mod, inf, i32(1), value.NaN},
		{Exp, i32(2), i32(10), i32(1024)},
		{Exp, i32(2), i32(-1), f64(0.5)},
		{Exp, i32(2), i32(53), f64(1 << 53)},
		{Exp, i32(1), inf, value.NaN},
		{Exp, value.NaN, i32(0), i32(1)},
		{Exp, i32(-8), f64(1.0 / 3), value.NaN},
		{Sub, str("10"), str("3"), i32(7)},
		{Mul, value.True, str("0x10"), i32(16)},
		{Sub, bi(7), bi(10), bi(-3)},
		{Div, bi(7), bi(2), bi(3)},
		{Div, bi(-7), bi(2), bi(-3)},
		{Mod, bi(-7), bi(2), bi(-1)},
		{Exp, bi(2), bi(64), twoTo64},
		{Exp, bi(-1), bi(1_000_001), bi(-1)},
		{Exp, bi(0), bi(0), bi(1)},
	})
}

func TestBitwise(t *testing.T) {
	checkCases(t, newRealm(), []operatorCase{
		{BitAnd, i32(5), i32(3), i32(1)},
		{BitOr, i32(5), i32(3), i32(7)},
		{BitXor, i32(5), i32(3), i32(6)},
		{BitOr, f64(2.7), i32(0), i32(2)},
		{BitOr, f64(-2.7), i32(0), i32(-2)},
		{BitOr, f64(1 << 32), i32(0), i32(0)},
		{BitOr, str("3"), i32(0), i32(3)},
		{BitAnd, value.NaN, i32(-1), i32(0)},
		{Shl, i32(1), i32(31), i32(math.MinInt32)},
		{Shl, i32(1), i32(32), i32(1)},
		{Sar, i32(-8), i32(1), i32(-4)},
		{Shr, i32(-1), i32(0), value.Integer(math.MaxUint32)},
		{Shr, i32(-8), i32(28), i32(15)},
		{Shl, i32(1), f64(33.9), i32(2)},
		{BitAnd, bi(5), bi(3), bi(1)},
		{BitOr, bi(-1), bi(0), bi(-1)},
		{Shl, bi(1), bi(3), bi(8)},
		{Shl, bi(8), bi(-2), bi(2)},
		{Sar, bi(-1), bi(100), bi(-1)},
		{Sar, bi(5), bi(100), bi(0)},
		{Sar, bi(-9), bi(1), bi(-5)},
	})
}

func TestNumericErrors(t *testing.T) {
	r := newRealm()
	for _, tt := range []struct {
		kind    Kind
		a, b    value.Value
		isRange bool
	}{
		{Div, bi(1), bi(0), true},
		{Mod, bi(1), bi(0), true},
		{Exp, bi(2), bi(-1), true},
		{Exp, bi(2), bi(1 << 21), true},
		{Shl, bi(1), bi(1 << 21), true},
		{Mul, value.NewBigInt(new(big.Int).Lsh(big.NewInt(1), 1<<19)), value.NewBigInt(new(big.Int).Lsh(big.NewInt(1), 1<<19+2)), true},
		{Shr, bi(1), bi(0), false},
		{BitAnd, bi(1), i32(1), false},
		{Shl, bi(1), i32(1), false},
		{Sub, i32(1), bi(1), false},
		{Mul, symbol(), i32(1), false},
		{BitOr, symbol(), i32(0), false},
	} {
		for name, eval := range map[string]func() (value.Value, error){
			"node":    func() (value.Value, error) { return run(r, tt.kind, tt.a, tt.b) },
			"generic": func() (value.Value, error) { return Evaluate(r, tt.kind, tt.a, tt.b) },
		} {
			_, err := eval()
			require.Error(t, err, "%s: %s %s %s", name, tt.a.Inspect(), tt.kind, tt.b.Inspect())
			if tt.isRange {
				assert.True(t, errors.IsRangeError(err), "%s: %v", name, err)
			} else {
				assert.True(t, errors.IsTypeError(err), "%s: %v", name, err)
			}
		}
	}
}

func TestStringLimit(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxStringLength = 3
	r := NewRealm(objects.NewModel(), limits)

	got, err := run(r, Add, str("ab"), str("c"))
	require.NoError(t, err)
	assert.Equal(t, "abc", got.AsString())

	_, err = run(r, Add, str("ab"), str("cd"))
	assert.True(t, errors.IsRangeError(err))
	_, err = run(r, Add, str("abc"), i32(1))
	assert.True(t, errors.IsRangeError(err))
}

func TestRelational(t *testing.T) {
	r := newRealm()
	m := r.Model.(*objects.Model)
	checkCases(t, r, []operatorCase{
		{Lt, i32(1), i32(2), value.True},
		{Ge, i32(2), i32(2), value.True},
		{Lt, str("a"), str("b"), value.True},
		{Lt, str("10"), str("9"), value.True},
		{Lt, str("10"), i32(9), value.False},
		{Lt, value.NaN, i32(1), value.False},
		{Ge, value.NaN, i32(1), value.False},
		{Le, value.Undefined, i32(0), value.False},
		{Ge, value.Null, i32(0), value.True},
		{Lt, bi(1), i32(2), value.True},
		{Gt, bi(2), f64(1.5), value.True},
		{Lt, bi(1), inf, value.True},
		{Gt, bi(2), str("1"), value.True},
		{Lt, bi(1), str("x"), value.False},
		{Ge, bi(1), str("x"), value.False},
		{Lt, value.Integer(1 << 40), value.Integer(1<<40 + 1), value.True},
		{Lt, value.NewObject(m.NewArray(i32(2))), i32(3), value.True},
		{Gt, str("b"), value.NewObject(m.NewArray(str("a"))), value.True},
	})

	_, err := run(r, Lt, symbol(), i32(1))
	assert.True(t, errors.IsTypeError(err))
}

func TestEquality(t *testing.T) {
	r := newRealm()
	m := r.Model.(*objects.Model)
	obj := value.NewObject(m.NewObject())
	checkCases(t, r, []operatorCase{
		{Eq, i32(1), str("1"), value.True},
		{Eq, i32(0), value.False, value.True},
		{Eq, value.Null, value.Undefined, value.True},
		{Eq, value.Null, i32(0), value.False},
		{Eq, value.NaN, value.NaN, value.False},
		{Eq, bi(1), i32(1), value.True},
		{Eq, bi(1), f64(1.5), value.False},
		{Eq, bi(1), str("1"), value.True},
		{Eq, bi(1), str("x"), value.False},
		{Eq, value.NewObject(m.NewArray(i32(1))), i32(1), value.True},
		{Eq, obj, str("[object Object]"), value.True},
		{Eq, obj, obj, value.True},
		{Eq, obj, value.NewObject(m.NewObject()), value.False},
		{Eq, value.Hole, value.Undefined, value.True},
		{Eq, value.True, str("1"), value.True},
		{Ne, i32(1), str("2"), value.True},
		{StrictEq, i32(1), f64(1), value.True},
		{StrictEq, i32(1), str("1"), value.False},
		{StrictEq, value.NaN, value.NaN, value.False},
		{StrictEq, value.Zero, value.NegZero, value.True},
		{StrictNe, str("a"), str("a"), value.False},
		{SameValue, value.NaN, value.NaN, value.True},
		{SameValue, value.Zero, value.NegZero, value.False},
		{SameValueZero, value.Zero, value.NegZero, value.True},
		{SameValueZero, bi(2), bi(2), value.True},
	})
}

func TestLogical(t *testing.T) {
	r := newRealm()
	checkCases(t, r, []operatorCase{
		{And, i32(0), str("x"), i32(0)},
		{And, i32(1), str("x"), str("x")},
		{Or, str(""), i32(5), i32(5)},
		{Or, value.NaN, value.Null, value.Null},
		{Or, bi(1), i32(5), bi(1)},
		{Nullish, value.Null, i32(3), i32(3)},
		{Nullish, value.Undefined, i32(3), i32(3)},
		{Nullish, i32(0), i32(3), i32(0)},
		{Nullish, value.False, i32(3), value.False},
	})
}

func TestKind(t *testing.T) {
	for k := Kind(0); k < kindCount; k++ {
		parsed, ok := ParseKind(k.String())
		require.True(t, ok, k.String())
		assert.Equal(t, k, parsed)
	}
	_, ok := ParseKind("<>")
	assert.False(t, ok)
	assert.Equal(t, "Kind(200)", Kind(200).String())

	assert.True(t, Exp.IsArithmetic())
	assert.True(t, Shr.IsShift())
	assert.False(t, Shr.IsBitwise())
	assert.True(t, SameValueZero.IsEquality())
	assert.True(t, Nullish.IsLogical())
}

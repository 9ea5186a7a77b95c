package objects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strata/pkg/errors"
	"strata/pkg/host"
	"strata/pkg/value"
)

func ints(vs ...int32) []value.Value {
	out := make([]value.Value, len(vs))
	for i, v := range vs {
		out[i] = value.Int32(v)
	}
	return out
}

func get(t *testing.T, m *Model, obj value.Object, key string) value.Value {
	t.Helper()
	v, err := m.Get(obj, value.NewStringKey(key))
	require.NoError(t, err)
	return v
}

func TestArrayRepresentations(t *testing.T) {
	m := NewModel()
	a := m.NewArray(ints(1, 2, 3)...)
	assert.Equal(t, host.TagDense, a.Tag())
	assert.Equal(t, int64(3), a.Length())

	// appending keeps the array dense
	require.NoError(t, m.Set(a, value.NewIndexKey(3), value.Int32(4)))
	assert.Equal(t, host.TagDense, a.Tag())

	// deleting from the end keeps it dense, from the middle makes it holey
	assert.True(t, m.Delete(a, value.NewIndexKey(3)))
	assert.Equal(t, host.TagDense, a.Tag())
	assert.Equal(t, int64(4), a.Length())
	assert.True(t, m.Delete(a, value.NewIndexKey(1)))
	assert.Equal(t, host.TagDenseWithHoles, a.Tag())
	assert.False(t, m.Delete(a, value.NewIndexKey(1)))
	assert.Equal(t, 2, a.Count())

	// a far write makes it sparse
	require.NoError(t, m.Set(a, value.NewIndexKey(1_000_000), value.True))
	assert.Equal(t, host.TagSparse, a.Tag())
	assert.Equal(t, int64(1_000_001), a.Length())
	assert.Equal(t, value.Int32(3), get(t, m, a, "2"))
	assert.True(t, get(t, m, a, "1").IsUndefined())

	keys, err := m.OwnIndexedKeys(a)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 2, 1_000_000}, keys)
}

func TestElementQueries(t *testing.T) {
	m := NewModel()
	for name, a := range map[string]*ArrayObject{
		"holey":  m.NewArray(value.Hole, value.Hole, value.Int32(3), value.Hole, value.Int32(5)),
		"sparse": sparse(m, 2, 4),
	} {
		t.Run(name, func(t *testing.T) {
			e, ok := m.Elements(a)
			require.True(t, ok)
			assert.Equal(t, int64(2), e.FirstIndex())
			assert.Equal(t, int64(4), e.LastIndex())
			assert.Equal(t, int64(2), e.NextIndex(-1))
			assert.Equal(t, int64(4), e.NextIndex(2))
			assert.Equal(t, int64(-1), e.NextIndex(4))
			assert.Equal(t, int64(2), e.PreviousIndex(4))
			assert.Equal(t, int64(-1), e.PreviousIndex(2))
			assert.Equal(t, int64(4), e.PreviousIndex(100))
			assert.True(t, e.HasIndex(4))
			assert.False(t, e.HasIndex(3))
		})
	}

	d := m.NewArray(value.Hole, value.Hole, value.Int32(3), value.Int32(4))
	assert.Equal(t, host.TagDense, d.Tag(), "leading holes are an offset")
	e, _ := m.Elements(d)
	assert.Equal(t, int64(2), e.FirstIndex())
	assert.Equal(t, int64(2), e.NextIndex(0))
	assert.Equal(t, int64(3), e.PreviousIndex(10))
	assert.Equal(t, int64(-1), e.PreviousIndex(2))

	_, ok := m.Elements(m.NewObject())
	assert.False(t, ok)
}

func sparse(m *Model, indices ...int64) *ArrayObject {
	a := m.NewArray()
	_ = m.Set(a, value.NewIndexKey(1<<30), value.True)
	for _, i := range indices {
		_ = m.Set(a, value.NewIndexKey(i), value.Int32(int32(i)))
	}
	m.Delete(a, value.NewIndexKey(1<<30))
	_ = m.SetLength(a, value.Int32(5))
	return a
}

func TestLength(t *testing.T) {
	m := NewModel()
	a := m.NewArray(ints(1, 2, 3, 4)...)

	require.NoError(t, m.Set(a, keyLength, value.Int32(2)))
	assert.Equal(t, int64(2), a.Length())
	assert.Equal(t, 2, a.Count())
	assert.True(t, get(t, m, a, "3").IsUndefined())

	require.NoError(t, m.Set(a, keyLength, value.NewString("10")))
	assert.Equal(t, int64(10), a.Length())
	assert.Equal(t, 2, a.Count())

	for _, bad := range []value.Value{value.Int32(-1), value.Float(1.5), value.Float(1 << 32)} {
		err := m.Set(a, keyLength, bad)
		assert.True(t, errors.IsRangeError(err), bad.Inspect())
	}
}

func TestPrototypeAssumption(t *testing.T) {
	m := NewModel()
	assumption := m.PrototypeNoElements()
	require.True(t, assumption.IsValid())

	// elements on ordinary objects do not matter
	o := m.NewObject()
	require.NoError(t, m.Set(o, value.NewIndexKey(0), value.True))
	assert.True(t, assumption.IsValid())

	// until the object becomes a prototype
	child := m.NewObjectWithPrototype(o)
	assert.False(t, assumption.IsValid())
	assert.Equal(t, value.True, get(t, m, child, "0"))

	has, err := m.Has(child, value.NewIndexKey(0))
	require.NoError(t, err)
	assert.True(t, has)

	m2 := NewModel()
	require.NoError(t, m2.Set(m2.ArrayPrototype, value.NewIndexKey(3), value.True))
	assert.False(t, m2.PrototypeNoElements().IsValid())
}

func TestGettersAndCalls(t *testing.T) {
	m := NewModel()
	o := m.NewObject()
	calls := 0
	getter := m.NewFunction("get", func(_ *Model, this value.Value, _ []value.Value) (value.Value, error) {
		calls++
		assert.Same(t, o, this.AsObject())
		return value.Int32(7), nil
	})
	require.NoError(t, m.DefineGetter(o, value.NewStringKey("x"), getter))
	assert.Equal(t, value.Int32(7), get(t, m, o, "x"))
	assert.Equal(t, 1, calls)

	// assignment to an accessor without setter is ignored
	require.NoError(t, m.Set(o, value.NewStringKey("x"), value.Int32(1)))
	assert.Equal(t, value.Int32(7), get(t, m, o, "x"))

	a := m.NewArray()
	assert.True(t, errors.IsTypeError(m.DefineGetter(a, value.NewIndexKey(0), getter)))

	_, err := m.Call(value.Int32(1), value.Undefined, nil)
	assert.True(t, errors.IsTypeError(err))
	assert.True(t, m.IsCallable(value.NewObject(getter)))
	assert.False(t, m.IsCallable(value.NewObject(o)))
}

func TestBuiltins(t *testing.T) {
	m := NewModel()
	call := func(obj value.Object, method string) value.Value {
		fn := get(t, m, obj, method)
		res, err := m.Call(fn, value.NewObject(obj), nil)
		require.NoError(t, err)
		return res
	}

	assert.Equal(t, "[object Object]", call(m.NewObject(), "toString").AsString())
	a := m.NewArray(value.Int32(1), value.Null, value.Hole, value.NewString("x"), value.Undefined)
	assert.Equal(t, "1,,,x,", call(a, "toString").AsString())
	assert.Equal(t, "function f() { [native code] }", call(m.NewFunction("f", nil), "toString").AsString())

	o := m.NewObject()
	assert.Same(t, o, call(o, "valueOf").AsObject())

	nested := m.NewArray(value.NewObject(m.NewArray(value.Int32(1), value.Int32(2))), value.Int32(3))
	assert.Equal(t, "1,2,3", call(nested, "toString").AsString())
}

func TestTypedArrays(t *testing.T) {
	m := NewModel()
	for _, tt := range []struct {
		kind TypedArrayKind
		in   value.Value
		want value.Value
	}{
		{TypedArrayInt8, value.Int32(200), value.Int32(-56)},
		{TypedArrayUint8, value.Int32(-1), value.Int32(255)},
		{TypedArrayInt16, value.Int32(40000), value.Int32(-25536)},
		{TypedArrayUint16, value.Float(65537.9), value.Int32(1)},
		{TypedArrayInt32, value.Float(4294967295), value.Int32(-1)},
		{TypedArrayUint32, value.Int32(-1), value.Integer(4294967295)},
		{TypedArrayFloat32, value.Float(0.5), value.Float(0.5)},
		{TypedArrayFloat64, value.NegZero, value.NegZero},
		{TypedArrayBigInt64, value.BigIntFromInt64(-3), value.BigIntFromInt64(-3)},
	} {
		ta := m.NewTypedArray(tt.kind, 2)
		require.NoError(t, m.Set(ta, value.NewIndexKey(1), tt.in))
		got := get(t, m, ta, "1")
		assert.True(t, value.SameValue(tt.want, got), "%s: got %s", tt.kind.Name(), got.Inspect())

		kind, ok := ParseTypedArrayKind(tt.kind.Name())
		assert.True(t, ok)
		assert.Equal(t, tt.kind, kind)
	}

	big := m.NewTypedArray(TypedArrayBigInt64, 1)
	assert.True(t, errors.IsTypeError(m.Set(big, value.NewIndexKey(0), value.Int32(1))))

	ta := m.NewTypedArray(TypedArrayInt32, 3)
	assert.Equal(t, host.TagTypedArray, m.ArrayTag(ta))
	assert.Equal(t, int64(2), ta.LastIndex())
	ta.Buffer().Detach()
	assert.Equal(t, int64(0), ta.Length())
	assert.Equal(t, int64(-1), ta.FirstIndex())
	assert.Equal(t, int64(-1), ta.NextIndex(-1))
	keys, err := m.OwnIndexedKeys(ta)
	require.NoError(t, err)
	assert.Empty(t, keys)

	_, ok := ParseTypedArrayKind("Float16Array")
	assert.False(t, ok)
}

func TestShapesAreShared(t *testing.T) {
	m := NewModel()
	a, b := m.NewObject(), m.NewObject()
	for _, o := range []*PlainObject{a, b} {
		require.NoError(t, m.Set(o, value.NewStringKey("x"), value.Int32(1)))
		require.NoError(t, m.Set(o, value.NewStringKey("y"), value.Int32(2)))
	}
	assert.Same(t, a.shape, b.shape)

	assert.True(t, m.Delete(a, value.NewStringKey("x")))
	assert.True(t, get(t, m, a, "x").IsUndefined())
	assert.Equal(t, value.Int32(2), get(t, m, a, "y"))
}

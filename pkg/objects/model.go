package objects

import (
	"math"
	"slices"
	"strings"

	"strata/pkg/convert"
	"strata/pkg/errors"
	"strata/pkg/host"
	"strata/pkg/value"
)

// maxJoinLength bounds the arrays Array.prototype.toString walks index by index.
const maxJoinLength = 1 << 24

var keyLength = value.NewStringKey("length")

var primitiveTags = map[string]string{
	"boolean": "Boolean",
	"number":  "Number",
	"bigint":  "BigInt",
	"string":  "String",
	"symbol":  "Symbol",
}

// Model implements host.ObjectModel over the objects of this package. Objects
// are not safe for concurrent mutation; shapes and the prototype assumption are.
type Model struct {
	ObjectPrototype   *PlainObject
	ArrayPrototype    *ArrayObject
	FunctionPrototype *PlainObject

	root       *Shape
	noElements *host.Assumption
}

var _ host.ObjectModel = (*Model)(nil)

func NewModel() *Model {
	m := &Model{
		root:       newRootShape(),
		noElements: host.NewAssumption("prototype-no-elements"),
	}
	m.ObjectPrototype = &PlainObject{header: m.newHeader(nil)}
	m.FunctionPrototype = &PlainObject{header: m.newHeader(m.ObjectPrototype)}
	m.ArrayPrototype = &ArrayObject{header: m.newHeader(m.ObjectPrototype), store: &denseStorage{}}
	for _, p := range []object{m.ObjectPrototype, m.FunctionPrototype, m.ArrayPrototype} {
		p.base().usedAsPrototype = true
	}
	m.installBuiltins()
	return m
}

func (m *Model) newHeader(proto value.Object) header {
	return header{properties: properties{shape: m.root}, proto: proto}
}

// NewObject returns an empty object inheriting from Object.prototype.
func (m *Model) NewObject() *PlainObject {
	return m.NewObjectWithPrototype(m.ObjectPrototype)
}

// NewObjectWithPrototype returns an empty object; a nil proto means null.
func (m *Model) NewObjectWithPrototype(proto value.Object) *PlainObject {
	o := &PlainObject{header: m.newHeader(nil)}
	if proto != nil {
		m.SetPrototype(o, proto)
	}
	return o
}

// NewArray returns an array of the given elements. value.Hole entries stay holes.
func (m *Model) NewArray(elements ...value.Value) *ArrayObject {
	a := &ArrayObject{
		header: m.newHeader(m.ArrayPrototype),
		store:  &denseStorage{values: make([]value.Value, 0, len(elements))},
	}
	for i, v := range elements {
		if !v.IsHole() {
			a.setElement(int64(i), v)
		}
	}
	a.length = int64(len(elements))
	return a
}

func (m *Model) NewArrayBuffer(size int) *ArrayBuffer {
	return &ArrayBuffer{header: m.newHeader(m.ObjectPrototype), data: make([]byte, size)}
}

// NewTypedArray returns a zero-filled typed array over a fresh buffer.
func (m *Model) NewTypedArray(kind TypedArrayKind, length int) *TypedArray {
	return &TypedArray{
		header: m.newHeader(m.ObjectPrototype),
		kind:   kind,
		buffer: m.NewArrayBuffer(length * kind.BytesPerElement()),
		length: length,
	}
}

func (m *Model) NewFunction(name string, fn NativeFunc) *NativeFunction {
	return &NativeFunction{header: m.newHeader(m.FunctionPrototype), Name: name, Fn: fn}
}

func asObject(obj value.Object) (object, error) {
	o, ok := obj.(object)
	if !ok {
		return nil, errors.NewUnexpectedError("foreign object %s", obj.ClassName())
	}
	return o, nil
}

// ownProperty looks key up on o alone. accessor reports a getter slot.
func (m *Model) ownProperty(o object, key value.PropertyKey) (v value.Value, accessor bool, found bool) {
	if idx, ok := key.ArrayIndex(); ok {
		switch o := o.(type) {
		case *ArrayObject:
			v, found = o.element(idx)
			return v, false, found
		case *TypedArray:
			v, found = o.element(idx)
			return v, false, found
		}
	}
	if key == keyLength {
		switch o := o.(type) {
		case *ArrayObject:
			return value.Integer(o.length), false, true
		case *TypedArray:
			return value.Integer(o.Length()), false, true
		}
	}
	v, f, found := o.base().own(key)
	return v, f.accessor, found
}

func (m *Model) Get(obj value.Object, key value.PropertyKey) (value.Value, error) {
	receiver := value.NewObject(obj)
	for cur := obj; cur != nil; {
		o, err := asObject(cur)
		if err != nil {
			return value.Undefined, err
		}
		if v, accessor, found := m.ownProperty(o, key); found {
			if accessor {
				return m.Call(v, receiver, nil)
			}
			return v, nil
		}
		cur = o.base().proto
	}
	return value.Undefined, nil
}

func (m *Model) Has(obj value.Object, key value.PropertyKey) (bool, error) {
	for cur := obj; cur != nil; {
		o, err := asObject(cur)
		if err != nil {
			return false, err
		}
		if _, _, found := m.ownProperty(o, key); found {
			return true, nil
		}
		cur = o.base().proto
	}
	return false, nil
}

func (m *Model) Prototype(obj value.Object) (value.Object, error) {
	o, err := asObject(obj)
	if err != nil {
		return nil, err
	}
	return o.base().proto, nil
}

func (m *Model) ArrayTag(obj value.Object) host.ArrayTag {
	switch o := obj.(type) {
	case *ArrayObject:
		return o.store.Tag()
	case *TypedArray:
		return host.TagTypedArray
	}
	return host.TagNone
}

func (m *Model) Elements(obj value.Object) (host.Elements, bool) {
	switch o := obj.(type) {
	case *ArrayObject:
		return o.store, true
	case *TypedArray:
		return o, true
	}
	return nil, false
}

func (m *Model) OwnIndexedKeys(obj value.Object) ([]int64, error) {
	o, err := asObject(obj)
	if err != nil {
		return nil, err
	}
	var keys []int64
	switch o := o.(type) {
	case *ArrayObject:
		keys = make([]int64, 0, o.store.count())
		o.store.each(func(i int64, _ value.Value) { keys = append(keys, i) })
		return keys, nil
	case *TypedArray:
		n := o.Length()
		keys = make([]int64, n)
		for i := range keys {
			keys[i] = int64(i)
		}
		return keys, nil
	}
	keys = o.base().indexKeys()
	slices.Sort(keys)
	return keys, nil
}

func (m *Model) IsCallable(v value.Value) bool {
	if !v.IsObject() {
		return false
	}
	_, ok := v.AsObject().(*NativeFunction)
	return ok
}

func (m *Model) Call(fn value.Value, this value.Value, args []value.Value) (value.Value, error) {
	if !m.IsCallable(fn) {
		return value.Undefined, errors.NewTypeError("%s is not a function", fn.Inspect())
	}
	return fn.AsObject().(*NativeFunction).Fn(m, this, args)
}

func (m *Model) PrototypeNoElements() *host.Assumption {
	return m.noElements
}

// hasIndexed reports whether o owns any array-index property.
func (m *Model) hasIndexed(o object) bool {
	switch o := o.(type) {
	case *ArrayObject:
		return o.store.count() > 0
	case *TypedArray:
		return o.Length() > 0
	}
	return len(o.base().indexKeys()) > 0
}

// noteIndexed breaks the prototype assumption when a prototype gains an element.
func (m *Model) noteIndexed(o object) {
	if o.base().usedAsPrototype {
		m.noElements.Invalidate()
	}
}

// Set assigns an own data property. Array indices go to the element store.
func (m *Model) Set(obj value.Object, key value.PropertyKey, v value.Value) error {
	o, err := asObject(obj)
	if err != nil {
		return err
	}
	if idx, ok := key.ArrayIndex(); ok {
		switch o := o.(type) {
		case *ArrayObject:
			o.setElement(idx, v)
			m.noteIndexed(o)
			return nil
		case *TypedArray:
			return m.setTypedElement(o, idx, v)
		}
		defer m.noteIndexed(o)
	}
	if key == keyLength {
		switch o := o.(type) {
		case *ArrayObject:
			return m.SetLength(o, v)
		case *TypedArray:
			return nil
		}
	}
	if _, f, found := o.base().own(key); found && f.accessor {
		// no setter: the assignment is ignored
		return nil
	}
	o.base().put(key, v, false)
	return nil
}

func (m *Model) setTypedElement(ta *TypedArray, index int64, v value.Value) error {
	if ta.kind == TypedArrayBigInt64 {
		if !v.IsBigInt() {
			return errors.NewTypeError("Cannot convert %s to a BigInt", v.Inspect())
		}
		ta.setElement(index, v)
		return nil
	}
	n, err := convert.ToNumber(m, v)
	if err != nil {
		return err
	}
	ta.setElement(index, n)
	return nil
}

// SetLength implements assignment to an array's length.
func (m *Model) SetLength(a *ArrayObject, v value.Value) error {
	n, err := convert.ToNumber(m, v)
	if err != nil {
		return err
	}
	f := n.Float64()
	if f < 0 || f != math.Trunc(f) || f > math.MaxUint32 {
		return errors.NewRangeError("Invalid array length")
	}
	if length := int64(f); length < a.length {
		a.truncate(length)
	} else {
		a.length = length
	}
	return nil
}

// DefineGetter installs an accessor property without setter.
func (m *Model) DefineGetter(obj value.Object, key value.PropertyKey, getter *NativeFunction) error {
	o, err := asObject(obj)
	if err != nil {
		return err
	}
	if _, ok := key.ArrayIndex(); ok {
		switch o.(type) {
		case *ArrayObject, *TypedArray:
			return errors.NewTypeError("Cannot define accessor on element %s of %s", key, obj.ClassName())
		}
		defer m.noteIndexed(o)
	}
	o.base().put(key, value.NewObject(getter), true)
	return nil
}

// Delete removes an own property and reports whether the object changed.
func (m *Model) Delete(obj value.Object, key value.PropertyKey) bool {
	o, err := asObject(obj)
	if err != nil {
		return false
	}
	if idx, ok := key.ArrayIndex(); ok {
		switch o := o.(type) {
		case *ArrayObject:
			had := o.store.HasIndex(idx)
			o.deleteElement(idx)
			return had
		case *TypedArray:
			return false
		}
	}
	return o.base().remove(key)
}

// SetPrototype replaces the prototype of obj; nil means null.
func (m *Model) SetPrototype(obj value.Object, proto value.Object) error {
	o, err := asObject(obj)
	if err != nil {
		return err
	}
	if proto == nil {
		o.base().proto = nil
		return nil
	}
	p, err := asObject(proto)
	if err != nil {
		return err
	}
	o.base().proto = proto
	p.base().usedAsPrototype = true
	if m.hasIndexed(p) {
		m.noElements.Invalidate()
	}
	return nil
}

func (m *Model) installBuiltins() {
	m.defineMethod(m.ObjectPrototype, "valueOf", func(_ *Model, this value.Value, _ []value.Value) (value.Value, error) {
		return this, nil
	})
	m.defineMethod(m.ObjectPrototype, "toString", func(_ *Model, this value.Value, _ []value.Value) (value.Value, error) {
		switch {
		case this.IsUndefined():
			return value.NewString("[object Undefined]"), nil
		case this.IsNull():
			return value.NewString("[object Null]"), nil
		case this.IsObject():
			return value.NewString("[object " + this.AsObject().ClassName() + "]"), nil
		}
		return value.NewString("[object " + primitiveTags[this.TypeName()] + "]"), nil
	})
	m.defineMethod(m.ArrayPrototype, "toString", arrayJoin)
	m.defineMethod(m.FunctionPrototype, "toString", func(_ *Model, this value.Value, _ []value.Value) (value.Value, error) {
		if this.IsObject() {
			if fn, ok := this.AsObject().(*NativeFunction); ok {
				return value.NewString("function " + fn.Name + "() { [native code] }"), nil
			}
		}
		return value.Undefined, errors.NewTypeError("Function.prototype.toString requires that 'this' be a Function")
	})
}

func (m *Model) defineMethod(o object, name string, fn NativeFunc) {
	o.base().put(value.NewStringKey(name), value.NewObject(m.NewFunction(name, fn)), false)
}

// arrayJoin is Array.prototype.toString: elements joined by commas, with
// null and undefined as empty strings.
func arrayJoin(m *Model, this value.Value, _ []value.Value) (value.Value, error) {
	if !this.IsObject() {
		return value.Undefined, errors.NewTypeError("Array.prototype.toString called on %s", this.Inspect())
	}
	obj := this.AsObject()
	lv, err := m.Get(obj, keyLength)
	if err != nil {
		return value.Undefined, err
	}
	length, err := convert.ToFloat64(m, lv)
	if err != nil {
		return value.Undefined, err
	}
	if length > maxJoinLength {
		return value.Undefined, errors.NewRangeError("Invalid string length")
	}
	var sb strings.Builder
	for i := int64(0); i < int64(length); i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		e, err := m.Get(obj, value.NewIndexKey(i))
		if err != nil {
			return value.Undefined, err
		}
		if e.IsNullish() {
			continue
		}
		s, err := convert.ToString(m, e)
		if err != nil {
			return value.Undefined, err
		}
		sb.WriteString(s.AsString())
	}
	return value.NewString(sb.String()), nil
}

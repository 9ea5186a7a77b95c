package objects

import (
	"strata/pkg/host"
	"strata/pkg/value"
)

// header is the state every object kind shares.
type header struct {
	properties
	proto           value.Object
	usedAsPrototype bool
}

func (h *header) base() *header { return h }

type object interface {
	value.Object
	base() *header
}

// PlainObject is an ordinary object. Array-index keys live among its named
// properties.
type PlainObject struct {
	header
}

func (o *PlainObject) ClassName() string { return "Object" }

// ArrayObject is an Array exotic object. Its elements are held by one of the
// dense, holey or sparse stores and move to a wider store when needed.
type ArrayObject struct {
	header
	length int64
	store  storage
}

func (a *ArrayObject) ClassName() string { return "Array" }

// Length returns the value of the length property.
func (a *ArrayObject) Length() int64 { return a.length }

// Tag returns the current element representation.
func (a *ArrayObject) Tag() host.ArrayTag { return a.store.Tag() }

// Count returns the number of populated elements.
func (a *ArrayObject) Count() int { return a.store.count() }

func (a *ArrayObject) element(index int64) (value.Value, bool) {
	return a.store.get(index)
}

func (a *ArrayObject) setElement(index int64, v value.Value) {
	if !a.store.set(index, v) {
		a.store = widen(a.store, index)
		a.store.set(index, v)
	}
	if index >= a.length {
		a.length = index + 1
	}
}

func (a *ArrayObject) deleteElement(index int64) {
	if !a.store.remove(index) {
		a.store = widen(a.store, index)
		a.store.remove(index)
	}
}

// truncate implements a length assignment.
func (a *ArrayObject) truncate(length int64) {
	for i := a.store.LastIndex(); i >= length; i = a.store.LastIndex() {
		a.deleteElement(i)
	}
	a.length = length
}

// NativeFunc is the Go implementation of a callable object.
type NativeFunc func(m *Model, this value.Value, args []value.Value) (value.Value, error)

// NativeFunction is a callable object backed by Go code.
type NativeFunction struct {
	header
	Name string
	Fn   NativeFunc
}

func (f *NativeFunction) ClassName() string { return "Function" }

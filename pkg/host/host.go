// Package host declares the services the evaluation core consumes from the
// embedding object model. The core never looks inside objects itself.
package host

import (
	"sync/atomic"

	"strata/pkg/value"
)

// ArrayTag identifies the backing representation of an object's indexed elements.
type ArrayTag uint8

const (
	TagNone           ArrayTag = iota // not array-like: generic property lookups only
	TagDense                          // every index in [first, last] is populated
	TagDenseWithHoles                 // contiguous storage that may contain holes
	TagSparse                         // ordered index map
	TagTypedArray                     // typed array view over a buffer
	TagForeign                        // host-provided array-like, checked generically
)

func (t ArrayTag) String() string {
	switch t {
	case TagNone:
		return "none"
	case TagDense:
		return "dense"
	case TagDenseWithHoles:
		return "holey"
	case TagSparse:
		return "sparse"
	case TagTypedArray:
		return "typed"
	case TagForeign:
		return "foreign"
	default:
		return "unknown"
	}
}

// HasHoleFreeLayout reports whether the tag guarantees the dense invariant.
func (t ArrayTag) HasHoleFreeLayout() bool {
	return t == TagDense || t == TagTypedArray
}

// IsArrayLike reports whether the representation can answer index queries itself.
func (t ArrayTag) IsArrayLike() bool {
	return t == TagDense || t == TagDenseWithHoles || t == TagSparse || t == TagTypedArray
}

// Elements answers index queries from an object's own element storage alone,
// without looking at the prototype chain. Methods report -1 when nothing is found.
type Elements interface {
	Tag() ArrayTag
	// FirstIndex returns the lowest populated index.
	FirstIndex() int64
	// LastIndex returns the highest populated index.
	LastIndex() int64
	// NextIndex returns the lowest populated index strictly greater than index.
	NextIndex(index int64) int64
	// PreviousIndex returns the highest populated index strictly lower than index.
	PreviousIndex(index int64) int64
	// HasIndex reports whether index is populated.
	HasIndex(index int64) bool
}

// ObjectModel is the object-model collaborator.
type ObjectModel interface {
	// Get reads a property, walking the prototype chain and invoking getters.
	Get(obj value.Object, key value.PropertyKey) (value.Value, error)
	// Has reports whether obj or its prototype chain has the property.
	Has(obj value.Object, key value.PropertyKey) (bool, error)
	// Prototype returns the prototype of obj, or nil for null.
	Prototype(obj value.Object) (value.Object, error)
	// ArrayTag returns the current element representation of obj.
	ArrayTag(obj value.Object) ArrayTag
	// Elements returns the element storage of obj; ok is false when obj has none.
	Elements(obj value.Object) (Elements, bool)
	// OwnIndexedKeys returns obj's own array-index keys in ascending order.
	OwnIndexedKeys(obj value.Object) ([]int64, error)
	// IsCallable reports whether v can be invoked with Call.
	IsCallable(v value.Value) bool
	// Call invokes a user-level callback such as valueOf or toString.
	Call(fn value.Value, this value.Value, args []value.Value) (value.Value, error)
	// PrototypeNoElements is valid while no object used as a prototype has indexed properties.
	PrototypeNoElements() *Assumption
}

// Assumption is a global fact that specialized code may rely on until it is
// invalidated. Invalidation is permanent.
type Assumption struct {
	name    string
	invalid atomic.Bool
}

func NewAssumption(name string) *Assumption {
	return &Assumption{name: name}
}

func (a *Assumption) Name() string { return a.name }

// IsValid reports whether the assumption still holds.
func (a *Assumption) IsValid() bool {
	return a != nil && !a.invalid.Load()
}

// Invalidate breaks the assumption for good.
func (a *Assumption) Invalidate() {
	a.invalid.Store(true)
}

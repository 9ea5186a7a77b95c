// Package objects is an in-memory object model for the evaluation core: plain
// objects with shapes and prototypes, arrays with dense, holey and sparse element
// storage, typed arrays over detachable buffers and native functions.
package objects

import (
	"sync"

	"strata/pkg/value"
)

type field struct {
	key      value.PropertyKey
	offset   int
	accessor bool // the slot holds a getter function
}

// Shape describes the ordered property layout shared by objects that gained the
// same keys in the same order.
type Shape struct {
	parent      *Shape
	fields      []field
	transitions map[transitionKey]*Shape
	mu          sync.RWMutex // Protects transitions map
}

type transitionKey struct {
	key      value.PropertyKey
	accessor bool
}

func newRootShape() *Shape {
	return &Shape{transitions: make(map[transitionKey]*Shape)}
}

func (s *Shape) lookup(key value.PropertyKey) (field, bool) {
	for _, f := range s.fields {
		if f.key == key {
			return f, true
		}
	}
	return field{}, false
}

// with returns the shape reached by appending key, sharing transitions.
func (s *Shape) with(key value.PropertyKey, accessor bool) *Shape {
	tk := transitionKey{key: key, accessor: accessor}
	s.mu.RLock()
	next, ok := s.transitions[tk]
	s.mu.RUnlock()
	if ok {
		return next
	}
	fields := make([]field, len(s.fields)+1)
	copy(fields, s.fields)
	fields[len(s.fields)] = field{key: key, offset: len(s.fields), accessor: accessor}
	next = &Shape{parent: s, fields: fields, transitions: make(map[transitionKey]*Shape)}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, exists := s.transitions[tk]; exists {
		return existing
	}
	s.transitions[tk] = next
	return next
}

// properties is the named-property storage shared by every object kind.
type properties struct {
	shape  *Shape
	values []value.Value
}

func (p *properties) own(key value.PropertyKey) (value.Value, field, bool) {
	f, ok := p.shape.lookup(key)
	if !ok {
		return value.Undefined, field{}, false
	}
	return p.values[f.offset], f, true
}

func (p *properties) put(key value.PropertyKey, v value.Value, accessor bool) {
	if f, ok := p.shape.lookup(key); ok && f.accessor == accessor {
		p.values[f.offset] = v
		return
	} else if ok {
		p.remove(key)
	}
	p.shape = p.shape.with(key, accessor)
	p.values = append(p.values, v)
}

// remove deletes key by replaying the remaining fields from the root shape.
func (p *properties) remove(key value.PropertyKey) bool {
	if _, ok := p.shape.lookup(key); !ok {
		return false
	}
	root := p.shape
	for root.parent != nil {
		root = root.parent
	}
	shape := root
	values := make([]value.Value, 0, len(p.values)-1)
	for _, f := range p.shape.fields {
		if f.key == key {
			continue
		}
		shape = shape.with(f.key, f.accessor)
		values = append(values, p.values[f.offset])
	}
	p.shape, p.values = shape, values
	return true
}

func (p *properties) keys() []value.PropertyKey {
	keys := make([]value.PropertyKey, len(p.shape.fields))
	for i, f := range p.shape.fields {
		keys[i] = f.key
	}
	return keys
}

// indexKeys returns the array-index keys among the named properties.
func (p *properties) indexKeys() []int64 {
	var out []int64
	for _, f := range p.shape.fields {
		if i, ok := f.key.ArrayIndex(); ok {
			out = append(out, i)
		}
	}
	return out
}

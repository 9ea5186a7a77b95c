// Package ops implements the self-specializing operator nodes: arithmetic,
// bitwise, relational, equality and logical families, their constant-paired
// variants and the construction-time folding performed by Builder.
package ops

import (
	"strata/pkg/host"
	"strata/pkg/value"
)

// Limits bounds the resources a single operation may produce.
type Limits struct {
	// MaxBigIntBits is the largest BigInt magnitude, in bits.
	MaxBigIntBits int
	// MaxStringLength is the largest string length, in UTF-16 code units.
	MaxStringLength int
	// SafeIntegerLane enables the exact 64-bit integer rung between int32 and double.
	SafeIntegerLane bool
}

func DefaultLimits() Limits {
	return Limits{
		MaxBigIntBits:   1 << 20,
		MaxStringLength: 1<<30 - 25,
		SafeIntegerLane: true,
	}
}

// Realm is the per-engine evaluation context handed to every node.
type Realm struct {
	Model  host.ObjectModel
	Limits Limits
}

func NewRealm(model host.ObjectModel, limits Limits) *Realm {
	return &Realm{Model: model, Limits: limits}
}

// Frame holds the local bindings of one evaluation.
type Frame struct {
	Locals []value.Value
}

func NewFrame(locals ...value.Value) *Frame {
	return &Frame{Locals: locals}
}

// Node is an executable expression tree node.
type Node interface {
	Execute(r *Realm, f *Frame) (value.Value, error)
}

// Constant is a literal leaf.
type Constant struct {
	Value value.Value
}

func (c *Constant) Execute(*Realm, *Frame) (value.Value, error) {
	return c.Value, nil
}

// Local reads a frame slot. Missing slots read as undefined.
type Local struct {
	Index int
	Name  string
}

func (l *Local) Execute(_ *Realm, f *Frame) (value.Value, error) {
	if f == nil || l.Index >= len(f.Locals) {
		return value.Undefined, nil
	}
	return f.Locals[l.Index], nil
}

// constantOf returns the literal value of n, if n is a Constant.
func constantOf(n Node) (value.Value, bool) {
	if c, ok := n.(*Constant); ok {
		return c.Value, true
	}
	return value.Undefined, false
}

// executePair evaluates both operands in source order.
func executePair(r *Realm, f *Frame, left, right Node) (value.Value, value.Value, error) {
	a, err := left.Execute(r, f)
	if err != nil {
		return value.Undefined, value.Undefined, err
	}
	b, err := right.Execute(r, f)
	if err != nil {
		return value.Undefined, value.Undefined, err
	}
	return a, b, nil
}

package ops

import "strata/pkg/value"

// LogicalNode implements `&&`, `||` and `??`. The left value only selects the
// branch; whichever operand is returned comes back unconverted.
type LogicalNode struct {
	Kind        Kind
	Left, Right Node
}

func (n *LogicalNode) Execute(r *Realm, f *Frame) (value.Value, error) {
	a, err := n.Left.Execute(r, f)
	if err != nil {
		return value.Undefined, err
	}
	if shortCircuits(n.Kind, a) {
		return a, nil
	}
	return n.Right.Execute(r, f)
}

// shortCircuits reports whether the left value of a logical operator is the result.
func shortCircuits(k Kind, a value.Value) bool {
	switch k {
	case And:
		return !a.ToBoolean()
	case Or:
		return a.ToBoolean()
	case Nullish:
		return !a.IsNullish() && !a.IsHole()
	}
	panic("ops: not a logical operator: " + k.String())
}

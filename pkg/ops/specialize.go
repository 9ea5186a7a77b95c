package ops

import (
	"strata/pkg/dispatch"
	"strata/pkg/value"
)

// Strategy ladders, narrowest first. Every rung also answers every input the
// rungs below it answer, so a generalized node never needs to step back.

const (
	addInt32 dispatch.Strategy = iota
	addInt32Truncate
	addSafeInteger
	addNumber
	addString
	addBigInt
	addGeneric
)

const (
	arithInt32 dispatch.Strategy = iota
	arithSafeInteger
	arithNumber
	arithBigInt
	arithGeneric
)

const (
	bitsInt32 dispatch.Strategy = iota
	bitsNumber
	bitsBigInt
	bitsGeneric
)

const (
	cmpInt32 dispatch.Strategy = iota
	cmpNumber
	cmpString
	cmpBigInt
	cmpGeneric
)

const (
	eqInt32 dispatch.Strategy = iota
	eqNumber
	eqString
	eqBigInt
	eqGeneric
)

const (
	identInt32 dispatch.Strategy = iota
	identNumber
	identString
	identGeneric
)

var (
	AddLadder = dispatch.NewLadder("add",
		"int32", "int32-truncate", "safe-integer", "number", "string", "bigint", "generic")

	arithmeticRungs = []string{"int32", "safe-integer", "number", "bigint", "generic"}
	SubLadder       = dispatch.NewLadder("sub", arithmeticRungs...)
	MulLadder       = dispatch.NewLadder("mul", arithmeticRungs...)
	DivLadder       = dispatch.NewLadder("div", arithmeticRungs...)
	ModLadder       = dispatch.NewLadder("mod", arithmeticRungs...)
	ExpLadder       = dispatch.NewLadder("exp", arithmeticRungs...)

	BitwiseLadder = dispatch.NewLadder("bitwise", "int32", "number", "bigint", "generic")
	ShiftLadder   = dispatch.NewLadder("shift", "int32", "number", "bigint", "generic")

	CompareLadder   = dispatch.NewLadder("compare", "int32", "number", "string", "bigint", "generic")
	EqualLadder     = dispatch.NewLadder("equal", "int32", "number", "string", "bigint", "generic")
	IdenticalLadder = dispatch.NewLadder("identical", "int32", "number", "string", "generic")
)

func arithmeticLadder(k Kind) *dispatch.Ladder {
	switch k {
	case Sub:
		return SubLadder
	case Mul:
		return MulLadder
	case Div:
		return DivLadder
	case Mod:
		return ModLadder
	case Exp:
		return ExpLadder
	}
	panic("ops: not an arithmetic operator: " + k.String())
}

// strategist is implemented by every specializing node: try runs one strategy
// and reports ok=false when its guard does not hold for the operands.
type strategist interface {
	try(r *Realm, s dispatch.Strategy, a, b value.Value) (value.Value, bool, error)
	next(r *Realm, s dispatch.Strategy) dispatch.Strategy
}

// specialize runs the current strategy of site and generalizes until a strategy
// accepts the operands. The generic rung accepts everything, so the loop ends.
func specialize(r *Realm, site *dispatch.Site, n strategist, a, b value.Value) (value.Value, error) {
	s := site.Strategy()
	for {
		res, ok, err := n.try(r, s, a, b)
		if ok {
			site.Hit()
			return res, err
		}
		s = site.Generalize(n.next(r, s))
	}
}

// nextRung is the common successor function: one rung up, skipping the exact
// integer rung when the lane is disabled.
func nextRung(r *Realm, s, safeRung dispatch.Strategy) dispatch.Strategy {
	s++
	if s == safeRung && !r.Limits.SafeIntegerLane {
		s++
	}
	return s
}

package ops

import "fmt"

// Kind identifies a binary operator.
type Kind uint8

const (
	Add Kind = iota
	Sub
	Mul
	Div
	Mod
	Exp
	BitAnd
	BitOr
	BitXor
	Shl // <<
	Sar // >>
	Shr // >>>
	Lt
	Le
	Gt
	Ge
	Eq // ==
	Ne // !=
	StrictEq
	StrictNe
	SameValue
	SameValueZero
	And
	Or
	Nullish // ??
	kindCount
)

var kindNames = [kindCount]string{
	Add:           "+",
	Sub:           "-",
	Mul:           "*",
	Div:           "/",
	Mod:           "%",
	Exp:           "**",
	BitAnd:        "&",
	BitOr:         "|",
	BitXor:        "^",
	Shl:           "<<",
	Sar:           ">>",
	Shr:           ">>>",
	Lt:            "<",
	Le:            "<=",
	Gt:            ">",
	Ge:            ">=",
	Eq:            "==",
	Ne:            "!=",
	StrictEq:      "===",
	StrictNe:      "!==",
	SameValue:     "sameValue",
	SameValueZero: "sameValueZero",
	And:           "&&",
	Or:            "||",
	Nullish:       "??",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ParseKind maps an operator symbol (or the sameValue/sameValueZero names) to its Kind.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return 0, false
}

func (k Kind) IsArithmetic() bool { return k <= Exp }
func (k Kind) IsBitwise() bool    { return k >= BitAnd && k <= BitXor }
func (k Kind) IsShift() bool      { return k >= Shl && k <= Shr }
func (k Kind) IsRelational() bool { return k >= Lt && k <= Ge }
func (k Kind) IsEquality() bool   { return k >= Eq && k <= SameValueZero }
func (k Kind) IsLogical() bool    { return k >= And && k <= Nullish }


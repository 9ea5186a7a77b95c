package value

import (
	"strings"
	"sync/atomic"
	"unicode/utf8"
)

// flatConcatLimit is the combined byte size below which concatenation copies
// eagerly instead of building a rope node.
const flatConcatLimit = 32

// String is an immutable JavaScript string. Concatenation produces a rope that
// is flattened lazily on first read; lengths are counted in UTF-16 code units.
type String struct {
	units       int
	flat        atomic.Pointer[string]
	left, right *String
}

var emptyString = newFlat("")

func newFlat(s string) *String {
	str := &String{units: utf16Len(s)}
	str.flat.Store(&s)
	return str
}

// NewString creates a flat string value.
func NewString(s string) Value {
	if s == "" {
		return Value{typ: TypeString, ref: emptyString}
	}
	return Value{typ: TypeString, ref: newFlat(s)}
}

func newStringValue(s *String) Value {
	return Value{typ: TypeString, ref: s}
}

// Len returns the length in UTF-16 code units.
func (s *String) Len() int {
	return s.units
}

// IsRope reports whether s has not been flattened yet.
func (s *String) IsRope() bool {
	return s.flat.Load() == nil
}

// Flatten returns the contents of s as a Go string, materialising a rope once.
// Concurrent flattening is benign: both readers compute the same content.
func (s *String) Flatten() string {
	if p := s.flat.Load(); p != nil {
		return *p
	}
	var sb strings.Builder
	// Explicit stack: ropes built by `a += x` loops are arbitrarily deep on the left.
	stack := []*String{s}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p := n.flat.Load(); p != nil {
			sb.WriteString(*p)
			continue
		}
		stack = append(stack, n.right, n.left)
	}
	res := sb.String()
	s.flat.Store(&res)
	return res
}

// Concat joins two strings. The caller is responsible for length limits.
func Concat(a, b Value) Value {
	l, r := a.AsJSString(), b.AsJSString()
	if l.units == 0 {
		return b
	}
	if r.units == 0 {
		return a
	}
	lf, rf := l.flat.Load(), r.flat.Load()
	if lf != nil && rf != nil && len(*lf)+len(*rf) < flatConcatLimit {
		return newStringValue(newFlat(*lf + *rf))
	}
	return newStringValue(&String{units: l.units + r.units, left: l, right: r})
}

func utf16Len(s string) int {
	n := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			n++
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
		i += size
	}
	return n
}

// firstUnit returns the first UTF-16 code unit of r.
func firstUnit(r rune) rune {
	if r >= 0x10000 {
		return 0xD800 + ((r - 0x10000) >> 10)
	}
	return r
}

// CompareStrings orders two strings by UTF-16 code units, the order used by the
// relational operators. UTF-8 byte order already agrees with code point order, so
// only the first differing code point pair needs the UTF-16 correction.
func CompareStrings(a, b string) int {
	if a == b {
		return 0
	}
	for len(a) > 0 && len(b) > 0 {
		ra, sa := utf8.DecodeRuneInString(a)
		rb, sb := utf8.DecodeRuneInString(b)
		if ra != rb {
			ua, ub := firstUnit(ra), firstUnit(rb)
			if ua != ub {
				if ua < ub {
					return -1
				}
				return 1
			}
			// Same high surrogate: the low surrogates order like the code points.
			if ra < rb {
				return -1
			}
			return 1
		}
		a, b = a[sa:], b[sb:]
	}
	switch {
	case len(a) == len(b):
		return 0
	case len(a) < len(b):
		return -1
	default:
		return 1
	}
}

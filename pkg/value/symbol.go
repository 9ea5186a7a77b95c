package value

import "strconv"

// Symbol is a unique property key. Two symbols are equal only by identity.
type Symbol struct {
	Description string
}

func NewSymbol(description string) *Symbol {
	return &Symbol{Description: description}
}

func (s *Symbol) String() string {
	return "Symbol(" + s.Description + ")"
}

// Well-known symbols consulted by the coercion primitives.
var (
	SymbolToPrimitive = NewSymbol("Symbol.toPrimitive")
	SymbolIterator    = NewSymbol("Symbol.iterator")
)

type KeyKind uint8

const (
	KeyKindString KeyKind = iota
	KeyKindSymbol
)

// PropertyKey is a string or symbol property key.
type PropertyKey struct {
	kind   KeyKind
	name   string
	symbol *Symbol
}

// NewStringKey constructs a PropertyKey for string-named properties.
func NewStringKey(name string) PropertyKey {
	return PropertyKey{kind: KeyKindString, name: name}
}

// NewSymbolKey constructs a PropertyKey for symbol-named properties.
func NewSymbolKey(sym *Symbol) PropertyKey {
	return PropertyKey{kind: KeyKindSymbol, symbol: sym}
}

// NewIndexKey constructs the canonical string key of an array index.
func NewIndexKey(index int64) PropertyKey {
	return NewStringKey(strconv.FormatInt(index, 10))
}

func (k PropertyKey) IsString() bool  { return k.kind == KeyKindString }
func (k PropertyKey) IsSymbol() bool  { return k.kind == KeyKindSymbol }
func (k PropertyKey) Name() string    { return k.name }
func (k PropertyKey) Symbol() *Symbol { return k.symbol }

// ArrayIndex returns the array index denoted by the key, if it is one.
func (k PropertyKey) ArrayIndex() (int64, bool) {
	if k.kind != KeyKindString {
		return 0, false
	}
	return ParseArrayIndex(k.name)
}

func (k PropertyKey) String() string {
	if k.kind == KeyKindSymbol {
		return k.symbol.String()
	}
	return k.name
}

// ParseArrayIndex checks if a string represents a canonical array index.
// Valid array indices are non-negative integers in range [0, 2^32-1) without leading zeros.
func ParseArrayIndex(key string) (int64, bool) {
	if key == "" || len(key) > 10 {
		return 0, false
	}
	if len(key) > 1 && key[0] == '0' {
		return 0, false
	}
	var idx int64
	for i := 0; i < len(key); i++ {
		ch := key[i]
		if ch < '0' || ch > '9' {
			return 0, false
		}
		idx = idx*10 + int64(ch-'0')
	}
	if idx > 4294967294 {
		return 0, false
	}
	return idx, true
}

package value

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"
	"golang.org/x/text/unicode/rangetable"
)

// jsWhitespace is StrWhiteSpaceChar: WhiteSpace (TAB, VT, FF, ZWNBSP, Zs) and
// LineTerminator (LF, CR, LS, PS). strings.TrimSpace misses U+FEFF and includes U+0085.
var jsWhitespace = rangetable.Merge(
	unicode.Zs,
	rangetable.New('\t', '\v', '\f', '\uFEFF', '\n', '\r', '\u2028', '\u2029'),
)

func isJSWhitespace(r rune) bool {
	return unicode.Is(jsWhitespace, r)
}

// TrimJSWhitespace strips leading and trailing StrWhiteSpaceChar runes.
func TrimJSWhitespace(s string) string {
	return strings.TrimFunc(s, isJSWhitespace)
}

// strNumericLiteral validates the StringNumericLiteral grammar. strconv is more
// permissive (underscores, "inf", hex floats), so input is checked first.
var (
	strDecimalLiteral = regexp2.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)$`, regexp2.ECMAScript)
	strNonDecimal     = regexp2.MustCompile(`^0(?:[xX][0-9a-fA-F]+|[oO][0-7]+|[bB][01]+)$`, regexp2.ECMAScript)
	strBigIntLiteral  = regexp2.MustCompile(`^(?:[+-]?\d+|0(?:[xX][0-9a-fA-F]+|[oO][0-7]+|[bB][01]+))$`, regexp2.ECMAScript)
)

func matches(re *regexp2.Regexp, s string) bool {
	ok, err := re.MatchString(s)
	return err == nil && ok
}

// nonDecimalBase returns the radix and digits of a 0x/0o/0b literal.
func nonDecimalBase(s string) (int, string) {
	switch s[1] {
	case 'x', 'X':
		return 16, s[2:]
	case 'o', 'O':
		return 8, s[2:]
	default:
		return 2, s[2:]
	}
}

// StringToNumber implements ECMAScript StringToNumber, producing NaN on malformed input.
// Integral results in int32 range come back as int32 values.
func StringToNumber(s string) Value {
	str := TrimJSWhitespace(s)
	if str == "" {
		return Zero
	}
	if len(str) > 2 && str[0] == '0' && matches(strNonDecimal, str) {
		base, digits := nonDecimalBase(str)
		i, ok := new(big.Int).SetString(digits, base)
		if !ok {
			return NaN
		}
		if i.IsInt64() {
			return Integer(i.Int64())
		}
		// big.Float rounds to nearest even, like the literal grammar requires
		f, _ := new(big.Float).SetInt(i).Float64()
		return Float(f)
	}
	if !matches(strDecimalLiteral, str) {
		return NaN
	}
	switch str {
	case "Infinity", "+Infinity":
		return Float(math.Inf(1))
	case "-Infinity":
		return Float(math.Inf(-1))
	}
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		// ErrRange still carries the correctly rounded +-Inf or zero
		if ne, ok := err.(*strconv.NumError); !ok || ne.Err != strconv.ErrRange {
			return NaN
		}
	}
	return Number(f)
}

// StringToBigInt implements ECMAScript StringToBigInt. ok is false when the string
// is not a valid StringIntegerLiteral (the caller decides between SyntaxError and false).
func StringToBigInt(s string) (*big.Int, bool) {
	str := TrimJSWhitespace(s)
	if str == "" {
		return new(big.Int), true
	}
	if !matches(strBigIntLiteral, str) {
		return nil, false
	}
	if len(str) > 2 && str[0] == '0' && (str[1] < '0' || str[1] > '9') {
		base, digits := nonDecimalBase(str)
		return new(big.Int).SetString(digits, base)
	}
	return new(big.Int).SetString(str, 10)
}

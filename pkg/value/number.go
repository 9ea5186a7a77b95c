package value

import (
	"math"
	"strconv"
)

// cleanExponentialFormat removes leading zeros from exponent to match JS format
// e.g., "1e-07" -> "1e-7", "1e+25" -> "1e+25"
func cleanExponentialFormat(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == 'e' || s[i] == 'E' {
			if i+1 < len(s) && (s[i+1] == '+' || s[i+1] == '-') {
				sign := s[i+1]
				j := i + 2
				for j < len(s) && s[j] == '0' {
					j++
				}
				if j >= len(s) {
					return s[:i+2] + "0"
				}
				return s[:i+1] + string(sign) + s[j:]
			}
			break
		}
	}
	return s
}

// NumberToString implements Number::toString(x) for radix 10.
func NumberToString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		// both +0 and -0
		return "0"
	}
	if i := int64(f); float64(i) == f && i > -1e15 && i < 1e15 {
		return strconv.FormatInt(i, 10)
	}
	abs := math.Abs(f)
	// Exponential notation when |f| < 1e-6 or |f| >= 1e21
	if abs < 1e-6 || abs >= 1e21 {
		return cleanExponentialFormat(strconv.FormatFloat(f, 'e', -1, 64))
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Float64ToInt32 implements ToInt32 on a double: truncate, then reduce modulo 2^32.
func Float64ToInt32(f float64) int32 {
	if f >= math.MinInt32 && f <= math.MaxInt32 {
		// NaN fails both comparisons
		return int32(f)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	t := math.Trunc(f)
	if t > -(1<<62) && t < 1<<62 {
		return int32(int64(t))
	}
	return int32(int64(math.Mod(t, 1<<32)))
}

// Float64ToUint32 implements ToUint32 on a double.
func Float64ToUint32(f float64) uint32 {
	return uint32(Float64ToInt32(f))
}

// IsSafeIntegerFloat reports whether f is integral and within the safe integer range.
func IsSafeIntegerFloat(f float64) bool {
	return f == math.Trunc(f) && f >= MinSafeInteger && f <= MaxSafeInteger
}

package coerce

import (
	"math"
	"math/big"
)

type numKind uint8

const (
	kindInt numKind = iota
	kindUint
	kindFloat
	kindBig
)

type number struct {
	b    *big.Int
	i    int64
	u    uint64
	f    float64
	kind numKind
}

func parse(value any) (number, bool) {
	switch v := value.(type) {
	case int:
		return number{i: int64(v), kind: kindInt}, true
	case int8:
		return number{i: int64(v), kind: kindInt}, true
	case int16:
		return number{i: int64(v), kind: kindInt}, true
	case int32:
		return number{i: int64(v), kind: kindInt}, true
	case int64:
		return number{i: v, kind: kindInt}, true
	case uint:
		return number{u: uint64(v), kind: kindUint}, true
	case uint8:
		return number{u: uint64(v), kind: kindUint}, true
	case uint16:
		return number{u: uint64(v), kind: kindUint}, true
	case uint32:
		return number{u: uint64(v), kind: kindUint}, true
	case uint64:
		return number{u: v, kind: kindUint}, true
	case uintptr:
		return number{u: uint64(v), kind: kindUint}, true
	case float32:
		return number{f: float64(v), kind: kindFloat}, true
	case float64:
		return number{f: v, kind: kindFloat}, true
	case *big.Int:
		if v == nil {
			return number{}, false
		}
		return number{b: v, kind: kindBig}, true
	}
	return number{}, false
}

var twoTo64 = new(big.Int).Lsh(big.NewInt(1), 64)

// Bits returns the low 64 bits of an integer-like value in two's complement.
// Floats are truncated toward zero first; NaN and infinities are rejected.
func Bits(value any) (uint64, bool) {
	n, ok := parse(value)
	if !ok {
		return 0, false
	}
	switch n.kind {
	case kindInt:
		return uint64(n.i), true
	case kindUint:
		return n.u, true
	case kindFloat:
		if math.IsNaN(n.f) || math.IsInf(n.f, 0) {
			return 0, false
		}
		t := math.Trunc(n.f)
		if t >= math.MinInt64 && t < math.MaxInt64 {
			return uint64(int64(t)), true
		}
		if t >= 0 && t < math.MaxUint64 {
			return uint64(t), true
		}
		return lowBits(floatToBig(t)), true
	default:
		return lowBits(n.b), true
	}
}

func lowBits(b *big.Int) uint64 {
	return new(big.Int).Mod(b, twoTo64).Uint64()
}

func floatToBig(f float64) *big.Int {
	bi, _ := big.NewFloat(f).Int(nil)
	return bi
}

func toBig(n number) *big.Int {
	switch n.kind {
	case kindInt:
		return big.NewInt(n.i)
	case kindUint:
		return new(big.Int).SetUint64(n.u)
	case kindFloat:
		return floatToBig(math.Trunc(n.f))
	default:
		return n.b
	}
}

// FitsSigned reports whether value is representable as a signed integer of
// the given bit width without truncation. Fractional floats never fit.
func FitsSigned(value any, bits uint) bool {
	n, ok := parse(value)
	if !ok || !integral(n) {
		return false
	}
	lo := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), bits-1))
	hi := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits-1), big.NewInt(1))
	v := toBig(n)
	return v.Cmp(lo) >= 0 && v.Cmp(hi) <= 0
}

// FitsUnsigned reports whether value is representable as an unsigned integer
// of the given bit width without truncation. Fractional floats never fit.
func FitsUnsigned(value any, bits uint) bool {
	n, ok := parse(value)
	if !ok || !integral(n) {
		return false
	}
	hi := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits), big.NewInt(1))
	v := toBig(n)
	return v.Sign() >= 0 && v.Cmp(hi) <= 0
}

func integral(n number) bool {
	if n.kind != kindFloat {
		return true
	}
	return !math.IsNaN(n.f) && !math.IsInf(n.f, 0) && n.f == math.Trunc(n.f)
}

// Float64 converts a numeric value to float64.
func Float64(value any) (float64, bool) {
	n, ok := parse(value)
	if !ok {
		return 0, false
	}
	switch n.kind {
	case kindInt:
		return float64(n.i), true
	case kindUint:
		return float64(n.u), true
	case kindFloat:
		return n.f, true
	default:
		f, _ := new(big.Float).SetInt(n.b).Float64()
		return f, true
	}
}

// FitsFloat32 reports whether a finite value stays finite as binary32.
func FitsFloat32(f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return true
	}
	return math.Abs(f) <= math.MaxFloat32
}

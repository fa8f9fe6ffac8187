package fixed

import "math/bits"

func Min(a, b Fixed) Fixed {
	if a < b {
		return a
	}
	return b
}

func Max(a, b Fixed) Fixed {
	if a > b {
		return a
	}
	return b
}

func Clamp(x, lo, hi Fixed) Fixed {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func Saturate(x Fixed) Fixed {
	return Clamp(x, Zero, One)
}

// Step returns 0 when x < edge and 1 otherwise.
func Step(edge, x Fixed) Fixed {
	if x < edge {
		return Zero
	}
	return One
}

func Lerp(a, b, t Fixed) Fixed {
	return a + Mul(b-a, t)
}

func Smoothstep(edge0, edge1, x Fixed) Fixed {
	if edge0 == edge1 {
		return Step(edge0, x)
	}
	t := Saturate(Div(x-edge0, edge1-edge0))
	return Mul(Mul(t, t), 3*One-2*t)
}

// Mod is the floored modulo x - y*floor(x/y). The result takes the sign of y.
// The caller is responsible for rejecting y == 0.
func Mod(x, y Fixed) Fixed {
	if x.IsInteger() && y.IsInteger() {
		r := x.Floor() % y.Floor()
		if r != 0 && (r < 0) != (y < 0) {
			r += y.Floor()
		}
		return FromInt(r)
	}
	q := Floor(Div(x, y))
	return x - Mul(q, y)
}

// Sqrt returns the square root of a, or zero for non-positive input.
func Sqrt(a Fixed) Fixed {
	if a <= 0 {
		return Zero
	}
	x := int64(a) << Shift
	var result int64
	bit := int64(1) << 46
	for bit > x {
		bit >>= 2
	}
	for bit != 0 {
		if x >= result+bit {
			x -= result + bit
			result = (result >> 1) + bit
		} else {
			result >>= 1
		}
		bit >>= 2
	}
	return Fixed(result)
}

// SqrtWide returns the square root of a Q32.32 value as Q16.16. It is used
// for vector lengths where the sum of squares exceeds the 32-bit range.
func SqrtWide(sum uint64) Fixed {
	if sum == 0 {
		return Zero
	}
	r := isqrt64(sum)
	if r > uint64(MaxValue) {
		return MaxValue
	}
	return Fixed(r)
}

func isqrt64(n uint64) uint64 {
	var result uint64
	bit := uint64(1) << 62
	for bit > n {
		bit >>= 2
	}
	for bit != 0 {
		if n >= result+bit {
			n -= result + bit
			result = (result >> 1) + bit
		} else {
			result >>= 1
		}
		bit >>= 2
	}
	return result
}

// PowInt raises base to an integer power by repeated squaring.
func PowInt(base Fixed, exp int32) Fixed {
	if exp < 0 {
		p := PowInt(base, -exp)
		if p == 0 {
			return Zero
		}
		return Div(One, p)
	}
	result := One
	for exp > 0 {
		if exp&1 == 1 {
			result = Mul(result, base)
		}
		base = Mul(base, base)
		exp >>= 1
	}
	return result
}

// Pow handles integral exponents exactly and falls back to exp2(e*log2(b))
// for fractional exponents of positive bases. Negative bases with a
// fractional exponent yield zero.
func Pow(base, exp Fixed) Fixed {
	if exp.IsInteger() {
		return PowInt(base, exp.Floor())
	}
	if base <= 0 {
		return Zero
	}
	return Exp2(Mul(exp, Log2(base)))
}

// Log2 returns the base-2 logarithm of a positive value.
func Log2(x Fixed) Fixed {
	if x <= 0 {
		return MinValue
	}
	msb := int32(bits.Len32(uint32(x))) - 1
	n := msb - Shift
	y := uint64(x)
	if n > 0 {
		y >>= uint(n)
	} else {
		y <<= uint(-n)
	}
	result := int64(n) << Shift
	for i := 0; i < Shift; i++ {
		y = (y * y) >> Shift
		if y >= 2<<Shift {
			y >>= 1
			result += 1 << (Shift - 1 - i)
		}
	}
	return Fixed(result)
}

// Exp2 returns 2 raised to x.
func Exp2(x Fixed) Fixed {
	ipart := x.Floor()
	if ipart >= 15 {
		return MaxValue
	}
	if ipart < -Shift {
		return Zero
	}
	f := x.Frac()
	// 2^f on [0,1) by a cubic fit.
	p := Mul(f, FromFloat(0.0781))
	p = Mul(f, FromFloat(0.2262)+p)
	p = Mul(f, FromFloat(0.6957)+p)
	p += One
	if ipart >= 0 {
		return p << uint(ipart)
	}
	return p >> uint(-ipart)
}

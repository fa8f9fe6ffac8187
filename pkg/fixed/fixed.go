package fixed

import (
	"math"
	"strconv"
	"strings"
)

// Fixed is a signed Q16.16 fixed-point number.
type Fixed int32

const Shift = 16

const (
	Zero   Fixed = 0
	One    Fixed = 1 << Shift
	Half   Fixed = One >> 1
	Pi     Fixed = 205887
	HalfPi Fixed = 102944
	Tau    Fixed = 411775

	MaxValue Fixed = math.MaxInt32
	MinValue Fixed = math.MinInt32

	fracMask = 1<<Shift - 1
)

// FromInt converts an integer to fixed point. Values outside ±32767 wrap.
func FromInt(i int32) Fixed {
	return Fixed(i << Shift)
}

// FromFloat converts a float to the nearest fixed-point value, saturating
// at the representable range.
func FromFloat(f float64) Fixed {
	v := math.Round(f * float64(One))
	switch {
	case math.IsNaN(v):
		return Zero
	case v >= math.MaxInt32:
		return MaxValue
	case v <= math.MinInt32:
		return MinValue
	}
	return Fixed(v)
}

func (f Fixed) Float() float64 {
	return float64(f) / float64(One)
}

// Floor returns the integer part rounded toward negative infinity.
func (f Fixed) Floor() int32 {
	return int32(f >> Shift)
}

// Trunc returns the integer part rounded toward zero.
func (f Fixed) Trunc() int32 {
	if f < 0 {
		return -int32((-int64(f)) >> Shift)
	}
	return int32(f >> Shift)
}

// Frac returns the fractional part, always in [0, 1).
func (f Fixed) Frac() Fixed {
	return f & fracMask
}

func (f Fixed) IsInteger() bool {
	return f&fracMask == 0
}

func (f Fixed) String() string {
	s := strconv.FormatFloat(f.Float(), 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}

func Mul(a, b Fixed) Fixed {
	return Fixed((int64(a) * int64(b)) >> Shift)
}

// Div divides a by b. The caller is responsible for rejecting b == 0.
func Div(a, b Fixed) Fixed {
	return Fixed((int64(a) << Shift) / int64(b))
}

func MulInt(a Fixed, n int32) Fixed {
	return Fixed(int64(a) * int64(n))
}

func Abs(a Fixed) Fixed {
	if a < 0 {
		return -a
	}
	return a
}

func Floor(a Fixed) Fixed {
	return a &^ fracMask
}

func Ceil(a Fixed) Fixed {
	return (a + fracMask) &^ fracMask
}

func Fract(a Fixed) Fixed {
	return a.Frac()
}

func Sign(a Fixed) Fixed {
	switch {
	case a > 0:
		return One
	case a < 0:
		return -One
	}
	return Zero
}

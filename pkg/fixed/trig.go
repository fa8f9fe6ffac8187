package fixed

import "math"

const (
	sinTableBits = 10
	sinTableSize = 1 << sinTableBits
	sinFracBits  = Shift - sinTableBits
)

// sinTable samples one full turn. The extra entry lets interpolation read
// index+1 without wrapping.
var sinTable = func() [sinTableSize + 1]Fixed {
	var t [sinTableSize + 1]Fixed
	for i := range t {
		t[i] = FromFloat(math.Sin(2 * math.Pi * float64(i) / sinTableSize))
	}
	return t
}()

// Sin uses a lookup table with linear interpolation.
func Sin(x Fixed) Fixed {
	phase := Div(x, Tau).Frac()
	idx := phase >> sinFracBits
	frac := phase & (1<<sinFracBits - 1)
	a := sinTable[idx]
	b := sinTable[idx+1]
	return a + Fixed((int64(b-a)*int64(frac))>>sinFracBits)
}

func Cos(x Fixed) Fixed {
	return Sin(x + HalfPi)
}

// Tan saturates at ±100 near the poles.
func Tan(x Fixed) Fixed {
	s := Sin(x)
	c := Cos(x)
	if Abs(c) < 100 {
		if s >= 0 {
			return 100 * One
		}
		return -100 * One
	}
	return Div(s, c)
}

var (
	quarterPi = FromFloat(math.Pi / 4)
	atanA     = FromFloat(0.2447)
	atanB     = FromFloat(0.0663)
)

// atanUnit approximates atan on [-1, 1].
func atanUnit(x Fixed) Fixed {
	ax := Abs(x)
	return Mul(quarterPi, x) - Mul(Mul(x, ax-One), atanA+Mul(atanB, ax))
}

func Atan(x Fixed) Fixed {
	ax := Abs(x)
	if ax <= One {
		return atanUnit(x)
	}
	r := HalfPi - atanUnit(Div(One, ax))
	if x < 0 {
		return -r
	}
	return r
}

// Atan2 returns the angle of (x, y) in (-pi, pi].
func Atan2(y, x Fixed) Fixed {
	if x == 0 {
		switch {
		case y > 0:
			return HalfPi
		case y < 0:
			return -HalfPi
		}
		return Zero
	}
	if y == 0 {
		if x > 0 {
			return Zero
		}
		return Pi
	}
	var angle Fixed
	if Abs(y) <= Abs(x) {
		angle = atanUnit(Div(y, x))
	} else {
		angle = Atan(Div(y, x))
	}
	switch {
	case x > 0:
		return angle
	case y >= 0:
		return angle + Pi
	}
	return angle - Pi
}

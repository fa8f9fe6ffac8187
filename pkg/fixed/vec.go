package fixed

// Vector and matrix kernels work on component slices of equal length.
// Matrices are nine components in row-major order.

// Dot accumulates in 64 bits before rescaling.
func Dot(a, b []Fixed) Fixed {
	var sum int64
	for i := range a {
		sum += int64(a[i]) * int64(b[i])
	}
	return Fixed(sum >> Shift)
}

func Length(v []Fixed) Fixed {
	var sum uint64
	for _, c := range v {
		sum += uint64(int64(c) * int64(c))
	}
	return SqrtWide(sum)
}

// Normalize writes v scaled to unit length into dst. A zero vector stays
// zero.
func Normalize(dst, v []Fixed) {
	l := Length(v)
	for i, c := range v {
		if l == 0 {
			dst[i] = 0
			continue
		}
		dst[i] = Div(c, l)
	}
}

func Distance(a, b []Fixed) Fixed {
	var d [4]Fixed
	for i := range a {
		d[i] = a[i] - b[i]
	}
	return Length(d[:len(a)])
}

func Cross(a, b []Fixed) [3]Fixed {
	return [3]Fixed{
		Mul(a[1], b[2]) - Mul(a[2], b[1]),
		Mul(a[2], b[0]) - Mul(a[0], b[2]),
		Mul(a[0], b[1]) - Mul(a[1], b[0]),
	}
}

func Mat3Mul(a, b []Fixed) [9]Fixed {
	var out [9]Fixed
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			var sum int64
			for k := 0; k < 3; k++ {
				sum += int64(a[r*3+k]) * int64(b[k*3+c])
			}
			out[r*3+c] = Fixed(sum >> Shift)
		}
	}
	return out
}

func Mat3MulVec3(m, v []Fixed) [3]Fixed {
	var out [3]Fixed
	for r := 0; r < 3; r++ {
		out[r] = Dot(m[r*3:r*3+3], v)
	}
	return out
}

func Transpose(m []Fixed) [9]Fixed {
	var out [9]Fixed
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[c*3+r] = m[r*3+c]
		}
	}
	return out
}

func Determinant(m []Fixed) Fixed {
	return Mul(m[0], Mul(m[4], m[8])-Mul(m[5], m[7])) -
		Mul(m[1], Mul(m[3], m[8])-Mul(m[5], m[6])) +
		Mul(m[2], Mul(m[3], m[7])-Mul(m[4], m[6]))
}

// Inverse returns the zero matrix for a singular input.
func Inverse(m []Fixed) [9]Fixed {
	var out [9]Fixed
	det := Determinant(m)
	if det == 0 {
		return out
	}
	cof := [9]Fixed{
		Mul(m[4], m[8]) - Mul(m[5], m[7]),
		Mul(m[2], m[7]) - Mul(m[1], m[8]),
		Mul(m[1], m[5]) - Mul(m[2], m[4]),
		Mul(m[5], m[6]) - Mul(m[3], m[8]),
		Mul(m[0], m[8]) - Mul(m[2], m[6]),
		Mul(m[2], m[3]) - Mul(m[0], m[5]),
		Mul(m[3], m[7]) - Mul(m[4], m[6]),
		Mul(m[1], m[6]) - Mul(m[0], m[7]),
		Mul(m[0], m[4]) - Mul(m[1], m[3]),
	}
	for i, c := range cof {
		out[i] = Div(c, det)
	}
	return out
}

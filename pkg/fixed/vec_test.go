package fixed

import "testing"

func vec(fs ...float64) []Fixed {
	out := make([]Fixed, len(fs))
	for i, f := range fs {
		out[i] = FromFloat(f)
	}
	return out
}

func TestVectorKernels(t *testing.T) {
	if got := Dot(vec(1, 2, 3), vec(4, 5, 6)); got != FromInt(32) {
		t.Errorf("dot wrong. want=32.0, got=%s", got)
	}
	if got := Length(vec(2, 3, 6)); got != FromInt(7) {
		t.Errorf("length wrong. want=7.0, got=%s", got)
	}
	// the sum of squares overflows 32 bits
	if got := Length(vec(300, 400)); got != FromInt(500) {
		t.Errorf("wide length wrong. want=500.0, got=%s", got)
	}
	if got := Distance(vec(1, 1), vec(4, 5)); got != FromInt(5) {
		t.Errorf("distance wrong. want=5.0, got=%s", got)
	}

	n := make([]Fixed, 2)
	Normalize(n, vec(3, 4))
	approx(t, "normalize.x", n[0], 0.6, 0.001)
	approx(t, "normalize.y", n[1], 0.8, 0.001)
	Normalize(n, vec(0, 0))
	if n[0] != 0 || n[1] != 0 {
		t.Errorf("normalize of zero wrong. got=%v", n)
	}

	c := Cross(vec(1, 0, 0), vec(0, 1, 0))
	if c != [3]Fixed{0, 0, One} {
		t.Errorf("cross wrong. got=%v", c)
	}
}

func TestMatrixKernels(t *testing.T) {
	m := vec(2, 0, 0, 0, 4, 0, 0, 0, 8)
	if got := Determinant(m); got != FromInt(64) {
		t.Errorf("determinant wrong. want=64.0, got=%s", got)
	}
	inv := Inverse(m)
	approx(t, "inverse[0]", inv[0], 0.5, 0.001)
	approx(t, "inverse[4]", inv[4], 0.25, 0.001)
	approx(t, "inverse[8]", inv[8], 0.125, 0.001)

	id := Mat3Mul(m, inv[:])
	for i, want := range []float64{1, 0, 0, 0, 1, 0, 0, 0, 1} {
		approx(t, "m*inverse", id[i], want, 0.001)
	}

	rows := vec(1, 2, 3, 4, 5, 6, 7, 8, 9)
	tr := Transpose(rows)
	if tr[1] != rows[3] || tr[5] != rows[7] {
		t.Errorf("transpose wrong. got=%v", tr)
	}
	if Inverse(rows) != [9]Fixed{} {
		t.Errorf("singular inverse should be zero")
	}

	v := Mat3MulVec3(rows, vec(1, 0, -1))
	if v != [3]Fixed{FromInt(-2), FromInt(-2), FromInt(-2)} {
		t.Errorf("mat3 * vec3 wrong. got=%v", v)
	}
}

func TestShifts(t *testing.T) {
	if Shl(5, 2) != 20 || Shr(20, 2) != 5 {
		t.Errorf("shift wrong")
	}
	if Shl(1, 33) != 2 {
		t.Errorf("shift count not masked. got=%d", Shl(1, 33))
	}
	if Shr(-8, 1) != -4 {
		t.Errorf("right shift not arithmetic. got=%d", Shr(-8, 1))
	}
}

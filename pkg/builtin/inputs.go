package builtin

import "lps/pkg/fixed"

const NumInputs = int(CenterAngle) + 1

// Inputs are the host values for one sample. XInt and YInt hold the pixel
// coordinate as whole fixed-point numbers.
type Inputs struct {
	XNorm, YNorm fixed.Fixed
	XInt, YInt   fixed.Fixed
	Time         fixed.Fixed
	Width        int
	Height       int
}

// PixelInputs samples the center of pixel (x, y) on a width x height grid.
func PixelInputs(x, y, width, height int, time fixed.Fixed) Inputs {
	in := Inputs{
		XInt:   fixed.FromInt(int32(x)),
		YInt:   fixed.FromInt(int32(y)),
		Time:   time,
		Width:  width,
		Height: height,
	}
	if width > 0 {
		in.XNorm = fixed.Fixed((int64(2*x+1) << fixed.Shift) / int64(2*width))
	}
	if height > 0 {
		in.YNorm = fixed.Fixed((int64(2*y+1) << fixed.Shift) / int64(2*height))
	}
	return in
}

// Values expands every input, the derived ones included, indexed by Input.
func (in Inputs) Values() [NumInputs]fixed.Fixed {
	var v [NumInputs]fixed.Fixed
	v[XNorm] = in.XNorm
	v[YNorm] = in.YNorm
	v[XInt] = in.XInt
	v[YInt] = in.YInt
	v[Time] = in.Time
	v[TimeNorm] = fixed.Mod(in.Time, fixed.One)

	cx := fixed.FromInt(int32(in.Width / 2))
	cy := fixed.FromInt(int32(in.Height / 2))
	dx := in.XInt - cx
	dy := in.YInt - cy
	// Manhattan distance, 1 at the farthest corner
	if span := cx + cy; span != 0 {
		v[CenterDist] = fixed.Div(fixed.Abs(dx)+fixed.Abs(dy), span)
	}
	v[CenterAngle] = fixed.Atan2(dy, dx)
	return v
}

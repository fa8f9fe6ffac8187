package vm

import (
	"fmt"
	"lps/pkg/builtin"
	"lps/pkg/fixed"
	"lps/pkg/types"
)

// Image holds one raw result per pixel, row-major. Channels is the slot
// width of the program's return type.
type Image struct {
	Width    int
	Height   int
	Channels int
	Pix      []fixed.Fixed
}

func NewImage(width, height int, ty types.Type) *Image {
	ch := ty.Size()
	return &Image{Width: width, Height: height, Channels: ch, Pix: make([]fixed.Fixed, width*height*ch)}
}

// At returns the slots of pixel (x, y).
func (img *Image) At(x, y int) []fixed.Fixed {
	i := (y*img.Width + x) * img.Channels
	return img.Pix[i : i+img.Channels]
}

// RGBA8 converts the image to 8-bit RGBA. One channel is gray, three or
// more map to color and a fourth to alpha. Values saturate to [0, 1].
func (img *Image) RGBA8() []byte {
	out := make([]byte, img.Width*img.Height*4)
	byteOf := func(v fixed.Fixed) byte {
		return byte(fixed.Mul(fixed.Saturate(v), fixed.FromInt(255)).Floor())
	}
	for p := 0; p < img.Width*img.Height; p++ {
		px := img.Pix[p*img.Channels : (p+1)*img.Channels]
		o := out[p*4 : p*4+4]
		o[3] = 255
		switch {
		case img.Channels == 0:
		case img.Channels < 3:
			g := byteOf(px[0])
			o[0], o[1], o[2] = g, g, g
		default:
			o[0], o[1], o[2] = byteOf(px[0]), byteOf(px[1]), byteOf(px[2])
			if img.Channels == 4 {
				o[3] = byteOf(px[3])
			}
		}
	}
	return out
}

// PixelError is the first failure of a render.
type PixelError struct {
	X, Y int
	Err  error
}

func (e *PixelError) Error() string {
	return fmt.Sprintf("pixel (%d, %d): %s", e.X, e.Y, e.Err)
}

func (e *PixelError) Unwrap() error { return e.Err }

// Render runs the program once per pixel of img. A pixel whose run fails
// gets the fallback value, zero slots when fallback is short. Render keeps
// going and reports how many pixels failed with the first error.
func (vm *VM) Render(img *Image, time fixed.Fixed, fallback []fixed.Fixed) (int, error) {
	if want := vm.prog.ReturnType().Size(); want != img.Channels {
		return 0, fmt.Errorf("vm: image has %d channels, program returns %s", img.Channels, vm.prog.ReturnType())
	}
	var first error
	failed := 0
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			dst := img.At(x, y)
			v, err := vm.Run(builtin.PixelInputs(x, y, img.Width, img.Height, time))
			if err != nil {
				failed++
				if first == nil {
					first = &PixelError{X: x, Y: y, Err: err}
				}
				clear(dst)
				copy(dst, fallback)
				continue
			}
			copy(dst, v)
		}
	}
	return failed, first
}

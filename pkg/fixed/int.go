package fixed

// Shl and Shr shift by the low five bits of n, so any count is defined.
func Shl(a, n int32) int32 {
	return a << (uint32(n) & 31)
}

func Shr(a, n int32) int32 {
	return a >> (uint32(n) & 31)
}


package ast

var swizzleSets = [...]string{"xyzw", "rgba", "stpq"}

// SwizzleIndices maps a component string such as "xy", "bgr" or "ts" to
// component positions. All characters must come from the same set.
func SwizzleIndices(s string) ([]int, bool) {
	if len(s) == 0 || len(s) > 4 {
		return nil, false
	}
	for _, set := range swizzleSets {
		indices := make([]int, 0, len(s))
		for i := 0; i < len(s); i++ {
			idx := -1
			for j := 0; j < len(set); j++ {
				if set[j] == s[i] {
					idx = j
					break
				}
			}
			if idx < 0 {
				break
			}
			indices = append(indices, idx)
		}
		if len(indices) == len(s) {
			return indices, true
		}
	}
	return nil, false
}

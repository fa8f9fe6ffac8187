package benchmarks

import (
	"lps/pkg/fixed"
	"testing"
)

// Go native benchmarks for comparison
func BenchmarkGoFixedAddition(b *testing.B) {
	var sum fixed.Fixed
	x := inputs.Values()[0]
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sum = 0
		for j := 0; j < 15; j++ {
			sum += fixed.One
		}
		sum += x
	}
	_ = sum
}

func BenchmarkGoFloatAddition(b *testing.B) {
	var sum float64
	x := inputs.Values()[0].Float()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sum = 1.0 + 1.0 + 1.0 + 1.0 + 1.0 + 1.0 + 1.0 + 1.0 + x + 1.0 + 1.0 + 1.0 + 1.0 + 1.0 + 1.0 + 1.0
	}
	_ = sum
}

func BenchmarkGoPerlin(b *testing.B) {
	var n fixed.Fixed
	half := fixed.FromFloat(0.5)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n = fixed.Perlin3(half, half, fixed.FromInt(int32(i&7)), 3)
	}
	_ = n
}

// Benchmark with VM instance reuse across programs
func BenchmarkVMAdditionReuse(b *testing.B) {
	prog := compileExpr(b, additions)
	machine := newVM(b, prog)
	defer machine.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := machine.Reset(prog); err != nil {
			b.Fatal(err)
		}
		result, _ = machine.Run(inputs)
	}
}

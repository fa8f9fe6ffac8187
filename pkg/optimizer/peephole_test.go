package optimizer

import (
	"lps/pkg/compiler"
	"lps/pkg/opcode"
	"testing"
)

func TestPeephole(t *testing.T) {
	tests := []struct {
		name     string
		input    []opcode.Instruction
		expected []opcode.Instruction
	}{
		{
			name: "push then drop",
			input: []opcode.Instruction{
				opcode.Make(opcode.OpPushFixed, 1),
				opcode.Make(opcode.OpDrop1),
				opcode.Make(opcode.OpPushFixed, 2),
				opcode.Make(opcode.OpReturn),
			},
			expected: []opcode.Instruction{
				opcode.Make(opcode.OpPushFixed, 2),
				opcode.Make(opcode.OpReturn),
			},
		},
		{
			name: "dup then drop",
			input: []opcode.Instruction{
				opcode.Make(opcode.OpLoad, 0),
				opcode.Make(opcode.OpDup1),
				opcode.Make(opcode.OpDrop1),
				opcode.Make(opcode.OpReturn),
			},
			expected: []opcode.Instruction{
				opcode.Make(opcode.OpLoad, 0),
				opcode.Make(opcode.OpReturn),
			},
		},
		{
			name: "vector load then drop",
			input: []opcode.Instruction{
				opcode.Make(opcode.OpLoadLocalVec3, 0),
				opcode.Make(opcode.OpDrop3),
				opcode.Make(opcode.OpPushFixed, 2),
				opcode.Make(opcode.OpReturn),
			},
			expected: []opcode.Instruction{
				opcode.Make(opcode.OpPushFixed, 2),
				opcode.Make(opcode.OpReturn),
			},
		},
		{
			name: "width mismatch kept",
			input: []opcode.Instruction{
				opcode.Make(opcode.OpLoadLocalVec2, 0),
				opcode.Make(opcode.OpDrop1),
				opcode.Make(opcode.OpReturn),
			},
			expected: []opcode.Instruction{
				opcode.Make(opcode.OpLoadLocalVec2, 0),
				opcode.Make(opcode.OpDrop1),
				opcode.Make(opcode.OpReturn),
			},
		},
		{
			name: "load then store of the same slot",
			input: []opcode.Instruction{
				opcode.Make(opcode.OpLoadLocalFixed, 1),
				opcode.Make(opcode.OpStoreLocalFixed, 1),
				opcode.Make(opcode.OpLoadLocalFixed, 0),
				opcode.Make(opcode.OpStoreLocalFixed, 1),
				opcode.Make(opcode.OpPushFixed, 0),
				opcode.Make(opcode.OpReturn),
			},
			expected: []opcode.Instruction{
				opcode.Make(opcode.OpLoadLocalFixed, 0),
				opcode.Make(opcode.OpStoreLocalFixed, 1),
				opcode.Make(opcode.OpPushFixed, 0),
				opcode.Make(opcode.OpReturn),
			},
		},
		{
			name: "nested pairs",
			input: []opcode.Instruction{
				opcode.Make(opcode.OpPushFixed, 1),
				opcode.Make(opcode.OpPushFixed, 2),
				opcode.Make(opcode.OpDrop1),
				opcode.Make(opcode.OpDrop1),
				opcode.Make(opcode.OpPushFixed, 3),
				opcode.Make(opcode.OpReturn),
			},
			expected: []opcode.Instruction{
				opcode.Make(opcode.OpPushFixed, 3),
				opcode.Make(opcode.OpReturn),
			},
		},
		{
			name: "jump target protects a pair",
			input: []opcode.Instruction{
				opcode.Make(opcode.OpLoad, 0),
				opcode.Make(opcode.OpJumpIfZero, 1),
				opcode.Make(opcode.OpPushFixed, 1),
				opcode.Make(opcode.OpDrop1),
				opcode.Make(opcode.OpPushFixed, 2),
				opcode.Make(opcode.OpReturn),
			},
			expected: []opcode.Instruction{
				opcode.Make(opcode.OpLoad, 0),
				opcode.Make(opcode.OpJumpIfZero, 1),
				opcode.Make(opcode.OpPushFixed, 1),
				opcode.Make(opcode.OpDrop1),
				opcode.Make(opcode.OpPushFixed, 2),
				opcode.Make(opcode.OpReturn),
			},
		},
		{
			name: "jump over a removed pair",
			input: []opcode.Instruction{
				opcode.Make(opcode.OpLoad, 0),
				opcode.Make(opcode.OpJumpIfZero, 3),
				opcode.Make(opcode.OpPushFixed, 1),
				opcode.Make(opcode.OpDrop1),
				opcode.Make(opcode.OpPushFixed, 5),
				opcode.Make(opcode.OpReturn),
			},
			expected: []opcode.Instruction{
				opcode.Make(opcode.OpLoad, 0),
				opcode.Make(opcode.OpJumpIfZero, 1),
				opcode.Make(opcode.OpPushFixed, 5),
				opcode.Make(opcode.OpReturn),
			},
		},
		{
			name: "unreachable after jump",
			input: []opcode.Instruction{
				opcode.Make(opcode.OpJump, 2),
				opcode.Make(opcode.OpPushFixed, 9),
				opcode.Make(opcode.OpReturn),
				opcode.Make(opcode.OpPushFixed, 1),
				opcode.Make(opcode.OpReturn),
			},
			expected: []opcode.Instruction{
				opcode.Make(opcode.OpJump, 0),
				opcode.Make(opcode.OpPushFixed, 1),
				opcode.Make(opcode.OpReturn),
			},
		},
		{
			name: "unreachable after return",
			input: []opcode.Instruction{
				opcode.Make(opcode.OpPushFixed, 1),
				opcode.Make(opcode.OpReturn),
				opcode.Make(opcode.OpPushFixed, 2),
				opcode.Make(opcode.OpReturn),
			},
			expected: []opcode.Instruction{
				opcode.Make(opcode.OpPushFixed, 1),
				opcode.Make(opcode.OpReturn),
			},
		},
		{
			name: "backward jump repaired",
			input: []opcode.Instruction{
				opcode.Make(opcode.OpLoad, 0),
				opcode.Make(opcode.OpPushFixed, 1),
				opcode.Make(opcode.OpDrop1),
				opcode.Make(opcode.OpJumpIfNonZero, -4),
				opcode.Make(opcode.OpPushFixed, 0),
				opcode.Make(opcode.OpReturn),
			},
			expected: []opcode.Instruction{
				opcode.Make(opcode.OpLoad, 0),
				opcode.Make(opcode.OpJumpIfNonZero, -2),
				opcode.Make(opcode.OpPushFixed, 0),
				opcode.Make(opcode.OpReturn),
			},
		},
	}

	for _, tt := range tests {
		got := Peephole(opcode.Instructions(tt.input))
		if len(got) != len(tt.expected) {
			t.Fatalf("%s: wrong length.\nwant=\n%s\ngot=\n%s", tt.name, opcode.Instructions(tt.expected), got)
		}
		for i, ins := range tt.expected {
			if got[i] != ins {
				t.Fatalf("%s: wrong instruction at %d.\nwant=\n%s\ngot=\n%s", tt.name, i, opcode.Instructions(tt.expected), got)
			}
		}
	}
}

func TestCodeRespectsOptions(t *testing.T) {
	code := opcode.Instructions{
		opcode.Make(opcode.OpPushFixed, 1),
		opcode.Make(opcode.OpDrop1),
		opcode.Make(opcode.OpPushFixed, 2),
		opcode.Make(opcode.OpReturn),
	}
	prog := &compiler.Program{Functions: []compiler.FunctionDef{{Name: "main", Code: code}}}
	New(nil, None()).Code(prog)
	if n := prog.OpcodeCount(); n != 4 {
		t.Fatalf("peephole ran while disabled. want=4, got=%d", n)
	}
	New(nil, All()).Code(prog)
	if n := prog.OpcodeCount(); n != 2 {
		t.Fatalf("wrong count after peephole. want=2, got=%d", n)
	}
}

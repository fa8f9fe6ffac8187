package eval

import (
	"lps/pkg/fixed"
	"lps/pkg/types"
	"strconv"
	"strings"
)

// Value holds a result in the VM's slot layout: one slot per scalar,
// vector component or matrix entry. Int32 values keep their raw bits.
type Value []fixed.Fixed

func (v Value) Scalar() fixed.Fixed { return v[0] }
func (v Value) Int32() int32        { return int32(v[0]) }
func (v Value) Bool() bool          { return v[0] != 0 }

// Format renders v as a value of type ty.
func (v Value) Format(ty types.Type) string {
	switch ty {
	case types.Void:
		return "void"
	case types.Int32:
		return strconv.Itoa(int(v.Int32()))
	case types.Bool:
		if v.Bool() {
			return "true"
		}
		return "false"
	case types.Fixed:
		return v[0].String()
	}
	parts := make([]string, len(v))
	for i, c := range v {
		parts[i] = c.String()
	}
	return ty.String() + "(" + strings.Join(parts, ", ") + ")"
}

func boolValue(b bool) Value {
	if b {
		return Value{fixed.One}
	}
	return Value{0}
}

type binding struct {
	ty    types.Type
	value Value
}

// Environment is one lexical scope of locals. Lookups walk outward.
type Environment struct {
	store map[string]*binding
	outer *Environment
}

func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]*binding)}
}

func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.outer = outer
	return env
}

func (e *Environment) lookup(name string) (*binding, bool) {
	for env := e; env != nil; env = env.outer {
		if b, ok := env.store[name]; ok {
			return b, true
		}
	}
	return nil, false
}

func (e *Environment) Get(name string) (Value, bool) {
	b, ok := e.lookup(name)
	if !ok {
		return nil, false
	}
	return b.value, true
}

// Define binds name in this scope, shadowing any outer binding.
func (e *Environment) Define(name string, ty types.Type, v Value) {
	e.store[name] = &binding{ty: ty, value: append(Value(nil), v...)}
}

// Set overwrites the nearest binding of name.
func (e *Environment) Set(name string, v Value) bool {
	b, ok := e.lookup(name)
	if !ok {
		return false
	}
	copy(b.value, v)
	return true
}

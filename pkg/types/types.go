package types

import "lps/pkg/token"

// Type is the closed set of LPS value types. The zero value marks an
// expression that has not been type checked yet.
type Type uint8

const (
	Unknown Type = iota
	Void
	Bool
	Int32
	Fixed
	Vec2
	Vec3
	Vec4
	Mat3
)

var names = [...]string{
	Unknown: "<unknown>",
	Void:    "void",
	Bool:    "bool",
	Int32:   "int",
	Fixed:   "float",
	Vec2:    "vec2",
	Vec3:    "vec3",
	Vec4:    "vec4",
	Mat3:    "mat3",
}

func (t Type) String() string {
	if int(t) < len(names) {
		return names[t]
	}
	return "<invalid>"
}

// Size is the number of 32-bit stack slots a value of this type occupies.
func (t Type) Size() int {
	switch t {
	case Bool, Int32, Fixed:
		return 1
	case Vec2:
		return 2
	case Vec3:
		return 3
	case Vec4:
		return 4
	case Mat3:
		return 9
	}
	return 0
}

func (t Type) IsScalar() bool {
	return t == Int32 || t == Fixed
}

func (t Type) IsVector() bool {
	return t == Vec2 || t == Vec3 || t == Vec4
}

// IsNumeric covers every type arithmetic operators accept.
func (t Type) IsNumeric() bool {
	return t.IsScalar() || t.IsVector() || t == Mat3
}

// Components is the number of fixed-point components of a scalar, vector or
// matrix, used when flattening constructor arguments.
func (t Type) Components() int {
	if t == Void || t == Unknown {
		return 0
	}
	return t.Size()
}

// VecOf returns the vector type with n components, or Fixed for n == 1.
func VecOf(n int) Type {
	switch n {
	case 1:
		return Fixed
	case 2:
		return Vec2
	case 3:
		return Vec3
	case 4:
		return Vec4
	}
	return Unknown
}

// FromToken maps a type keyword to its Type.
func FromToken(t token.TokenType) (Type, bool) {
	switch t {
	case token.FLOAT_TYPE:
		return Fixed, true
	case token.INT_TYPE:
		return Int32, true
	case token.BOOL_TYPE:
		return Bool, true
	case token.VEC2:
		return Vec2, true
	case token.VEC3:
		return Vec3, true
	case token.VEC4:
		return Vec4, true
	case token.MAT3:
		return Mat3, true
	case token.VOID:
		return Void, true
	}
	return Unknown, false
}

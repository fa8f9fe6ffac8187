package ast

import (
	"lps/pkg/builtin"
	"lps/pkg/fixed"
	"lps/pkg/token"
	"lps/pkg/types"
)

// ExprId and StmtId are handles into a Pool.
type ExprId int32
type StmtId int32

const (
	NoExpr ExprId = -1
	NoStmt StmtId = -1
)

type ExprKind uint8

const (
	NumberLit ExprKind = iota
	IntLit
	BoolLit
	Variable
	Binary
	Unary
	Call
	Constructor
	Swizzle
	Assign
	Ternary
	IncDec
	Convert
)

var exprKindNames = [...]string{
	NumberLit:   "NumberLit",
	IntLit:      "IntLit",
	BoolLit:     "BoolLit",
	Variable:    "Variable",
	Binary:      "Binary",
	Unary:       "Unary",
	Call:        "Call",
	Constructor: "Constructor",
	Swizzle:     "Swizzle",
	Assign:      "Assign",
	Ternary:     "Ternary",
	IncDec:      "IncDec",
	Convert:     "Convert",
}

func (k ExprKind) String() string { return exprKindNames[k] }

type Op uint8

const (
	NoOp Op = iota
	Add
	Sub
	Mul
	Div
	Mod
	Less
	Greater
	LessEq
	GreaterEq
	Eq
	NotEq
	And
	Or
	BitAnd
	BitOr
	BitXor
	Shl
	Shr
	Neg
	Not
	BitNot
	PreInc
	PreDec
	PostInc
	PostDec
)

var opSymbols = [...]string{
	NoOp:      "?",
	Add:       "+",
	Sub:       "-",
	Mul:       "*",
	Div:       "/",
	Mod:       "%",
	Less:      "<",
	Greater:   ">",
	LessEq:    "<=",
	GreaterEq: ">=",
	Eq:        "==",
	NotEq:     "!=",
	And:       "&&",
	Or:        "||",
	BitAnd:    "&",
	BitOr:     "|",
	BitXor:    "^",
	Shl:       "<<",
	Shr:       ">>",
	Neg:       "-",
	Not:       "!",
	BitNot:    "~",
	PreInc:    "++",
	PreDec:    "--",
	PostInc:   "++",
	PostDec:   "--",
}

func (o Op) String() string { return opSymbols[o] }

func (o Op) IsArithmetic() bool { return o >= Add && o <= Mod }
func (o Op) IsComparison() bool { return o >= Less && o <= NotEq }
func (o Op) IsLogical() bool    { return o == And || o == Or }
func (o Op) IsBitwise() bool    { return o >= BitAnd && o <= Shr }

// Expr is a single expression node. Which fields are meaningful depends on
// Kind:
//
//	NumberLit   Num
//	IntLit      Int
//	BoolLit     Bool
//	Variable    Name
//	Binary      Op, Left, Right
//	Unary       Op, Left
//	Call        Name, Args, Func (NoFunc for user functions)
//	Constructor Target, Args
//	Swizzle     Left, Swizzle
//	Assign      Left (target), Right (value)
//	Ternary     Left (condition), Right (then), Else
//	IncDec      Op, Left (target)
//	Convert     Target, Left
type Expr struct {
	Kind ExprKind
	Span token.Span
	Ty   types.Type

	Num  fixed.Fixed
	Int  int32
	Bool bool
	Name string
	Op   Op
	Func builtin.Func

	Left  ExprId
	Right ExprId
	Else  ExprId
	Args  []ExprId

	Target  types.Type
	Swizzle string
}

// IsLiteral reports whether the node is a constant.
func (e *Expr) IsLiteral() bool {
	return e.Kind == NumberLit || e.Kind == IntLit || e.Kind == BoolLit
}

type StmtKind uint8

const (
	VarDecl StmtKind = iota
	Return
	ExprStmt
	Block
	If
	While
	For
)

var stmtKindNames = [...]string{
	VarDecl:  "VarDecl",
	Return:   "Return",
	ExprStmt: "ExprStmt",
	Block:    "Block",
	If:       "If",
	While:    "While",
	For:      "For",
}

func (k StmtKind) String() string { return stmtKindNames[k] }

// Stmt is a single statement node:
//
//	VarDecl  DeclType, Name, Value (NoExpr without initializer)
//	Return   Value (NoExpr for a bare return)
//	ExprStmt Value
//	Block    Body
//	If       Cond, Then, Else (NoStmt without else)
//	While    Cond, Then
//	For      Init (NoStmt), Cond (NoExpr), Step (NoExpr), Then
type Stmt struct {
	Kind StmtKind
	Span token.Span

	DeclType types.Type
	Name     string
	Value    ExprId

	Body []StmtId

	Cond ExprId
	Then StmtId
	Else StmtId
	Init StmtId
	Step ExprId
}

type Param struct {
	Name string
	Ty   types.Type
	Span token.Span
}

type FunctionDecl struct {
	Name       string
	ReturnType types.Type
	Params     []Param
	Body       []StmtId
	Span       token.Span
}

// Program is a parsed script: user functions followed by the top-level
// statements that form the implicit entry point.
type Program struct {
	Functions []FunctionDecl
	Main      []StmtId

	// MainReturn is filled in by the type checker.
	MainReturn types.Type
}

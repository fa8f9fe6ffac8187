package ast

import (
	"bytes"
	"fmt"
	"strings"
)

// ExprString renders an expression fully parenthesized.
func (p *Pool) ExprString(id ExprId) string {
	var out bytes.Buffer
	p.writeExpr(&out, id)
	return out.String()
}

func (p *Pool) writeExpr(out *bytes.Buffer, id ExprId) {
	if id == NoExpr {
		return
	}
	e := p.Expr(id)
	switch e.Kind {
	case NumberLit:
		out.WriteString(e.Num.String())
	case IntLit:
		fmt.Fprintf(out, "%d", e.Int)
	case BoolLit:
		fmt.Fprintf(out, "%t", e.Bool)
	case Variable:
		out.WriteString(e.Name)
	case Binary:
		out.WriteString("(")
		p.writeExpr(out, e.Left)
		out.WriteString(" " + e.Op.String() + " ")
		p.writeExpr(out, e.Right)
		out.WriteString(")")
	case Unary:
		out.WriteString("(" + e.Op.String())
		p.writeExpr(out, e.Left)
		out.WriteString(")")
	case Call:
		out.WriteString(e.Name)
		p.writeArgs(out, e.Args)
	case Constructor:
		out.WriteString(e.Target.String())
		p.writeArgs(out, e.Args)
	case Swizzle:
		p.writeExpr(out, e.Left)
		out.WriteString("." + e.Swizzle)
	case Assign:
		out.WriteString("(")
		p.writeExpr(out, e.Left)
		out.WriteString(" = ")
		p.writeExpr(out, e.Right)
		out.WriteString(")")
	case Ternary:
		out.WriteString("(")
		p.writeExpr(out, e.Left)
		out.WriteString(" ? ")
		p.writeExpr(out, e.Right)
		out.WriteString(" : ")
		p.writeExpr(out, e.Else)
		out.WriteString(")")
	case IncDec:
		out.WriteString("(")
		if e.Op == PreInc || e.Op == PreDec {
			out.WriteString(e.Op.String())
			p.writeExpr(out, e.Left)
		} else {
			p.writeExpr(out, e.Left)
			out.WriteString(e.Op.String())
		}
		out.WriteString(")")
	case Convert:
		out.WriteString(e.Target.String() + "(")
		p.writeExpr(out, e.Left)
		out.WriteString(")")
	}
}

func (p *Pool) writeArgs(out *bytes.Buffer, args []ExprId) {
	out.WriteString("(")
	for i, a := range args {
		if i > 0 {
			out.WriteString(", ")
		}
		p.writeExpr(out, a)
	}
	out.WriteString(")")
}

func (p *Pool) StmtString(id StmtId) string {
	var out bytes.Buffer
	p.writeStmt(&out, id, 0)
	return out.String()
}

func (p *Pool) writeStmt(out *bytes.Buffer, id StmtId, depth int) {
	indent := strings.Repeat("    ", depth)
	s := p.Stmt(id)
	switch s.Kind {
	case VarDecl:
		out.WriteString(indent + s.DeclType.String() + " " + s.Name)
		if s.Value != NoExpr {
			out.WriteString(" = ")
			p.writeExpr(out, s.Value)
		}
		out.WriteString(";\n")
	case Return:
		out.WriteString(indent + "return")
		if s.Value != NoExpr {
			out.WriteString(" ")
			p.writeExpr(out, s.Value)
		}
		out.WriteString(";\n")
	case ExprStmt:
		out.WriteString(indent)
		p.writeExpr(out, s.Value)
		out.WriteString(";\n")
	case Block:
		out.WriteString(indent + "{\n")
		for _, b := range s.Body {
			p.writeStmt(out, b, depth+1)
		}
		out.WriteString(indent + "}\n")
	case If:
		out.WriteString(indent + "if ")
		p.writeExpr(out, s.Cond)
		out.WriteString("\n")
		p.writeStmt(out, s.Then, depth+1)
		if s.Else != NoStmt {
			out.WriteString(indent + "else\n")
			p.writeStmt(out, s.Else, depth+1)
		}
	case While:
		out.WriteString(indent + "while ")
		p.writeExpr(out, s.Cond)
		out.WriteString("\n")
		p.writeStmt(out, s.Then, depth+1)
	case For:
		out.WriteString(indent + "for (")
		if s.Init != NoStmt {
			out.WriteString(strings.TrimSuffix(strings.TrimSpace(p.StmtString(s.Init)), ";"))
		}
		out.WriteString("; ")
		p.writeExpr(out, s.Cond)
		out.WriteString("; ")
		p.writeExpr(out, s.Step)
		out.WriteString(")\n")
		p.writeStmt(out, s.Then, depth+1)
	}
}

// ProgramString renders every function followed by the top-level statements.
func (p *Pool) ProgramString(prog *Program) string {
	var out bytes.Buffer
	for _, fn := range prog.Functions {
		params := make([]string, len(fn.Params))
		for i, param := range fn.Params {
			params[i] = param.Ty.String() + " " + param.Name
		}
		fmt.Fprintf(&out, "%s %s(%s) {\n", fn.ReturnType, fn.Name, strings.Join(params, ", "))
		for _, s := range fn.Body {
			p.writeStmt(&out, s, 1)
		}
		out.WriteString("}\n")
	}
	for _, s := range prog.Main {
		p.writeStmt(&out, s, 0)
	}
	return out.String()
}

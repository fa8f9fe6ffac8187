package parser

import (
	"fmt"
	"lps/pkg/ast"
	"lps/pkg/fixed"
	"lps/pkg/token"
	"lps/pkg/types"
	"math"
	"strconv"
	"strings"
)

const (
	_ int = iota
	LOWEST
	ASSIGN      // = += -= ...
	TERNARY     // c ? a : b
	LOGIC_OR    // ||
	LOGIC_AND   // &&
	BIT_OR      // |
	BIT_XOR     // ^
	BIT_AND     // &
	EQUALS      // == !=
	LESSGREATER // < > <= >=
	SHIFT       // << >>
	SUM         // + -
	PRODUCT     // * / %
	PREFIX      // -X !X ~X ++X
	POSTFIX     // f(X) v.xy X++
)

var precedences = map[token.TokenType]int{
	token.ASSIGN:          ASSIGN,
	token.PLUS_ASSIGN:     ASSIGN,
	token.MINUS_ASSIGN:    ASSIGN,
	token.ASTERISK_ASSIGN: ASSIGN,
	token.SLASH_ASSIGN:    ASSIGN,
	token.PERCENT_ASSIGN:  ASSIGN,
	token.AMP_ASSIGN:      ASSIGN,
	token.PIPE_ASSIGN:     ASSIGN,
	token.CARET_ASSIGN:    ASSIGN,
	token.SHL_ASSIGN:      ASSIGN,
	token.SHR_ASSIGN:      ASSIGN,
	token.QUESTION:        TERNARY,
	token.OR:              LOGIC_OR,
	token.AND:             LOGIC_AND,
	token.PIPE:            BIT_OR,
	token.CARET:           BIT_XOR,
	token.AMP:             BIT_AND,
	token.EQ:              EQUALS,
	token.NOT_EQ:          EQUALS,
	token.LT:              LESSGREATER,
	token.GT:              LESSGREATER,
	token.LTE:             LESSGREATER,
	token.GTE:             LESSGREATER,
	token.SHL:             SHIFT,
	token.SHR:             SHIFT,
	token.PLUS:            SUM,
	token.MINUS:           SUM,
	token.ASTERISK:        PRODUCT,
	token.SLASH:           PRODUCT,
	token.PERCENT:         PRODUCT,
	token.LPAREN:          POSTFIX,
	token.DOT:             POSTFIX,
	token.PLUS_PLUS:       POSTFIX,
	token.MINUS_MINUS:     POSTFIX,
}

var binaryOps = map[token.TokenType]ast.Op{
	token.PLUS:     ast.Add,
	token.MINUS:    ast.Sub,
	token.ASTERISK: ast.Mul,
	token.SLASH:    ast.Div,
	token.PERCENT:  ast.Mod,
	token.LT:       ast.Less,
	token.GT:       ast.Greater,
	token.LTE:      ast.LessEq,
	token.GTE:      ast.GreaterEq,
	token.EQ:       ast.Eq,
	token.NOT_EQ:   ast.NotEq,
	token.AND:      ast.And,
	token.OR:       ast.Or,
	token.AMP:      ast.BitAnd,
	token.PIPE:     ast.BitOr,
	token.CARET:    ast.BitXor,
	token.SHL:      ast.Shl,
	token.SHR:      ast.Shr,
}

// compoundOps maps a compound assignment to the binary operator it applies.
var compoundOps = map[token.TokenType]ast.Op{
	token.PLUS_ASSIGN:     ast.Add,
	token.MINUS_ASSIGN:    ast.Sub,
	token.ASTERISK_ASSIGN: ast.Mul,
	token.SLASH_ASSIGN:    ast.Div,
	token.PERCENT_ASSIGN:  ast.Mod,
	token.AMP_ASSIGN:      ast.BitAnd,
	token.PIPE_ASSIGN:     ast.BitOr,
	token.CARET_ASSIGN:    ast.BitXor,
	token.SHL_ASSIGN:      ast.Shl,
	token.SHR_ASSIGN:      ast.Shr,
}

type (
	prefixParseFn func() ast.ExprId
	infixParseFn  func(ast.ExprId) ast.ExprId
)

type Config struct {
	MaxRecursion int
}

func DefaultConfig() Config {
	return Config{MaxRecursion: 128}
}

type Parser struct {
	tokens []token.Token
	pos    int
	pool   *ast.Pool
	err    error

	curToken  token.Token
	peekToken token.Token

	depth        int
	maxRecursion int

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

// New creates a parser over tokens, which must end with an EOF token as
// produced by lexer.Tokenize. Nodes are allocated from pool.
func New(tokens []token.Token, pool *ast.Pool, cfg Config) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != token.EOF {
		end := 0
		if len(tokens) > 0 {
			end = tokens[len(tokens)-1].End()
		}
		tokens = append(tokens, token.Token{Type: token.EOF, Pos: end})
	}
	p := &Parser{
		tokens:       tokens,
		pool:         pool,
		maxRecursion: cfg.MaxRecursion,
		pos:          -1,
	}
	if p.maxRecursion <= 0 {
		p.maxRecursion = DefaultConfig().MaxRecursion
	}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.INT, p.parseIntegerLiteral)
	p.registerPrefix(token.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(token.TRUE, p.parseBoolean)
	p.registerPrefix(token.FALSE, p.parseBoolean)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.MINUS, p.parsePrefixExpression)
	p.registerPrefix(token.PLUS, p.parsePrefixExpression)
	p.registerPrefix(token.BANG, p.parsePrefixExpression)
	p.registerPrefix(token.TILDE, p.parsePrefixExpression)
	p.registerPrefix(token.PLUS_PLUS, p.parsePrefixIncDec)
	p.registerPrefix(token.MINUS_MINUS, p.parsePrefixIncDec)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	for _, t := range []token.TokenType{token.VEC2, token.VEC3, token.VEC4, token.MAT3, token.FLOAT_TYPE, token.INT_TYPE, token.BOOL_TYPE} {
		p.registerPrefix(t, p.parseConstructor)
	}

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for t := range binaryOps {
		p.registerInfix(t, p.parseInfixExpression)
	}
	p.registerInfix(token.ASSIGN, p.parseAssignExpression)
	for t := range compoundOps {
		p.registerInfix(t, p.parseAssignExpression)
	}
	p.registerInfix(token.QUESTION, p.parseTernaryExpression)
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.DOT, p.parseSwizzleExpression)
	p.registerInfix(token.PLUS_PLUS, p.parsePostfixIncDec)
	p.registerInfix(token.MINUS_MINUS, p.parsePostfixIncDec)

	// Load curToken and peekToken
	p.nextToken()

	return p
}

func (p *Parser) registerPrefix(tokenType token.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

func (p *Parser) at(i int) token.Token {
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *Parser) nextToken() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	p.curToken = p.at(p.pos)
	p.peekToken = p.at(p.pos + 1)
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekError(t token.TokenType) {
	span := token.NewSpan(p.peekToken.Pos, p.peekToken.End())
	if p.peekTokenIs(token.EOF) {
		p.fail(UnexpectedEOF, span, fmt.Sprintf("expected %q", t))
		return
	}
	p.fail(UnexpectedToken, span, fmt.Sprintf("expected %q, got %q", t, p.peekToken.Literal))
}

// fail records the first error; later ones are dropped.
func (p *Parser) fail(kind ErrorKind, span token.Span, msg string) {
	if p.err == nil {
		p.err = &Error{Kind: kind, Span: span, Msg: msg}
	}
}

func (p *Parser) failed() bool {
	return p.err != nil
}

func (p *Parser) curSpan() token.Span {
	return token.NewSpan(p.curToken.Pos, p.curToken.End())
}

func (p *Parser) spanFrom(start int) token.Span {
	return token.NewSpan(start, p.curToken.End())
}

func (p *Parser) enter() bool {
	p.depth++
	if p.depth > p.maxRecursion {
		p.fail(RecursionLimitExceeded, p.curSpan(), fmt.Sprintf("nesting deeper than %d", p.maxRecursion))
		return false
	}
	return true
}

func (p *Parser) leave() {
	p.depth--
}

func (p *Parser) addExpr(e ast.Expr) ast.ExprId {
	id, err := p.pool.AddExpr(e)
	if err != nil {
		if p.err == nil {
			p.err = poolError(err, e.Span)
		}
		return ast.NoExpr
	}
	return id
}

func (p *Parser) addStmt(s ast.Stmt) ast.StmtId {
	id, err := p.pool.AddStmt(s)
	if err != nil {
		if p.err == nil {
			p.err = poolError(err, s.Span)
		}
		return ast.NoStmt
	}
	return id
}

// Parse parses a single expression that must span the whole input.
func (p *Parser) Parse() (ast.ExprId, error) {
	if err := firstLexError(p.tokens); err != nil {
		return ast.NoExpr, err
	}
	if p.curTokenIs(token.EOF) {
		p.fail(UnexpectedEOF, p.curSpan(), "empty expression")
		return ast.NoExpr, p.err
	}
	expr := p.parseExpression(LOWEST)
	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
	if !p.failed() && !p.peekTokenIs(token.EOF) {
		p.fail(UnexpectedToken, token.NewSpan(p.peekToken.Pos, p.peekToken.End()),
			fmt.Sprintf("unexpected %q after expression", p.peekToken.Literal))
	}
	if p.failed() {
		return ast.NoExpr, p.err
	}
	return expr, nil
}

// ParseProgram parses a script: function definitions first, then the
// top-level statements that become the entry point.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	if err := firstLexError(p.tokens); err != nil {
		return nil, err
	}
	program := &ast.Program{}
	seenStatement := false

	for !p.curTokenIs(token.EOF) && !p.failed() {
		if p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		if p.isFunctionDefinition() {
			if seenStatement {
				p.fail(UnexpectedToken, p.curSpan(), "function definitions must precede top-level statements")
				break
			}
			fn, ok := p.parseFunction()
			if !ok {
				break
			}
			for _, other := range program.Functions {
				if other.Name == fn.Name {
					p.fail(InvalidExpression, fn.Span, fmt.Sprintf("function %q defined twice", fn.Name))
				}
			}
			program.Functions = append(program.Functions, fn)
		} else {
			stmt := p.parseStatement()
			if stmt != ast.NoStmt {
				program.Main = append(program.Main, stmt)
			}
			seenStatement = true
		}
		p.nextToken()
	}

	if p.failed() {
		return nil, p.err
	}
	return program, nil
}

func (p *Parser) isFunctionDefinition() bool {
	return token.IsType(p.curToken.Type) &&
		p.peekTokenIs(token.IDENT) &&
		p.at(p.pos+2).Type == token.LPAREN
}

func (p *Parser) parseFunction() (ast.FunctionDecl, bool) {
	start := p.curToken.Pos
	retType, _ := types.FromToken(p.curToken.Type)
	p.nextToken()
	fn := ast.FunctionDecl{Name: p.curToken.Literal, ReturnType: retType}

	if !p.expectPeek(token.LPAREN) {
		return fn, false
	}
	if !p.peekTokenIs(token.RPAREN) {
		for {
			p.nextToken()
			paramStart := p.curToken.Pos
			ty, ok := types.FromToken(p.curToken.Type)
			if !ok {
				p.fail(UnexpectedToken, p.curSpan(), fmt.Sprintf("expected parameter type, got %q", p.curToken.Literal))
				return fn, false
			}
			if !p.expectPeek(token.IDENT) {
				return fn, false
			}
			fn.Params = append(fn.Params, ast.Param{Name: p.curToken.Literal, Ty: ty, Span: p.spanFrom(paramStart)})
			if !p.peekTokenIs(token.COMMA) {
				break
			}
			p.nextToken()
		}
	}
	if !p.expectPeek(token.RPAREN) || !p.expectPeek(token.LBRACE) {
		return fn, false
	}
	fn.Body = p.parseBlockBody()
	fn.Span = p.spanFrom(start)
	return fn, !p.failed()
}

func (p *Parser) parseStatement() ast.StmtId {
	if !p.enter() {
		return ast.NoStmt
	}
	defer p.leave()

	switch p.curToken.Type {
	case token.LBRACE:
		return p.parseBlockStatement()
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.SEMICOLON:
		return p.addStmt(ast.Stmt{Kind: ast.Block, Span: p.curSpan()})
	}
	if token.IsType(p.curToken.Type) && p.peekTokenIs(token.IDENT) {
		return p.parseVarDecl()
	}
	return p.parseExpressionStatement()
}

// endStatement consumes the ';' every simple statement ends with.
func (p *Parser) endStatement() bool {
	return p.expectPeek(token.SEMICOLON)
}

func (p *Parser) parseVarDecl() ast.StmtId {
	start := p.curToken.Pos
	ty, _ := types.FromToken(p.curToken.Type)
	p.nextToken()
	stmt := ast.Stmt{Kind: ast.VarDecl, DeclType: ty, Name: p.curToken.Literal, Value: ast.NoExpr}

	if p.peekTokenIs(token.ASSIGN) {
		p.nextToken()
		p.nextToken()
		stmt.Value = p.parseExpression(LOWEST)
	}
	if p.failed() || !p.endStatement() {
		return ast.NoStmt
	}
	stmt.Span = p.spanFrom(start)
	return p.addStmt(stmt)
}

func (p *Parser) parseReturnStatement() ast.StmtId {
	start := p.curToken.Pos
	stmt := ast.Stmt{Kind: ast.Return, Value: ast.NoExpr}

	if !p.peekTokenIs(token.SEMICOLON) && !p.peekTokenIs(token.RBRACE) && !p.peekTokenIs(token.EOF) {
		p.nextToken()
		stmt.Value = p.parseExpression(LOWEST)
	}
	if p.failed() || !p.endStatement() {
		return ast.NoStmt
	}
	stmt.Span = p.spanFrom(start)
	return p.addStmt(stmt)
}

func (p *Parser) parseExpressionStatement() ast.StmtId {
	start := p.curToken.Pos
	value := p.parseExpression(LOWEST)
	if p.failed() || !p.endStatement() {
		return ast.NoStmt
	}
	return p.addStmt(ast.Stmt{Kind: ast.ExprStmt, Value: value, Span: p.spanFrom(start)})
}

// parseBlockBody parses statements up to the closing '}' and leaves
// curToken on it.
func (p *Parser) parseBlockBody() []ast.StmtId {
	var body []ast.StmtId
	p.nextToken()
	for !p.curTokenIs(token.RBRACE) && !p.failed() {
		if p.curTokenIs(token.EOF) {
			p.fail(UnexpectedEOF, p.curSpan(), "expected \"}\"")
			return nil
		}
		stmt := p.parseStatement()
		if stmt != ast.NoStmt {
			body = append(body, stmt)
		}
		p.nextToken()
	}
	return body
}

func (p *Parser) parseBlockStatement() ast.StmtId {
	start := p.curToken.Pos
	body := p.parseBlockBody()
	if p.failed() {
		return ast.NoStmt
	}
	return p.addStmt(ast.Stmt{Kind: ast.Block, Body: body, Span: p.spanFrom(start)})
}

func (p *Parser) parseCondition() ast.ExprId {
	if !p.expectPeek(token.LPAREN) {
		return ast.NoExpr
	}
	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if !p.expectPeek(token.RPAREN) {
		return ast.NoExpr
	}
	return cond
}

func (p *Parser) parseIfStatement() ast.StmtId {
	start := p.curToken.Pos
	stmt := ast.Stmt{Kind: ast.If, Else: ast.NoStmt}
	stmt.Cond = p.parseCondition()
	if p.failed() {
		return ast.NoStmt
	}
	p.nextToken()
	stmt.Then = p.parseStatement()
	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		p.nextToken()
		stmt.Else = p.parseStatement()
	}
	if p.failed() {
		return ast.NoStmt
	}
	stmt.Span = p.spanFrom(start)
	return p.addStmt(stmt)
}

func (p *Parser) parseWhileStatement() ast.StmtId {
	start := p.curToken.Pos
	stmt := ast.Stmt{Kind: ast.While}
	stmt.Cond = p.parseCondition()
	if p.failed() {
		return ast.NoStmt
	}
	p.nextToken()
	stmt.Then = p.parseStatement()
	if p.failed() {
		return ast.NoStmt
	}
	stmt.Span = p.spanFrom(start)
	return p.addStmt(stmt)
}

func (p *Parser) parseForStatement() ast.StmtId {
	start := p.curToken.Pos
	stmt := ast.Stmt{Kind: ast.For, Init: ast.NoStmt, Cond: ast.NoExpr, Step: ast.NoExpr}
	if !p.expectPeek(token.LPAREN) {
		return ast.NoStmt
	}

	p.nextToken()
	if !p.curTokenIs(token.SEMICOLON) {
		initStart := p.curToken.Pos
		if token.IsType(p.curToken.Type) && p.peekTokenIs(token.IDENT) {
			ty, _ := types.FromToken(p.curToken.Type)
			p.nextToken()
			decl := ast.Stmt{Kind: ast.VarDecl, DeclType: ty, Name: p.curToken.Literal, Value: ast.NoExpr}
			if p.peekTokenIs(token.ASSIGN) {
				p.nextToken()
				p.nextToken()
				decl.Value = p.parseExpression(LOWEST)
			}
			decl.Span = p.spanFrom(initStart)
			stmt.Init = p.addStmt(decl)
		} else {
			value := p.parseExpression(LOWEST)
			stmt.Init = p.addStmt(ast.Stmt{Kind: ast.ExprStmt, Value: value, Span: p.spanFrom(initStart)})
		}
		if !p.expectPeek(token.SEMICOLON) {
			return ast.NoStmt
		}
	}

	p.nextToken()
	if !p.curTokenIs(token.SEMICOLON) {
		stmt.Cond = p.parseExpression(LOWEST)
		if !p.expectPeek(token.SEMICOLON) {
			return ast.NoStmt
		}
	}

	p.nextToken()
	if !p.curTokenIs(token.RPAREN) {
		stmt.Step = p.parseExpression(LOWEST)
		if !p.expectPeek(token.RPAREN) {
			return ast.NoStmt
		}
	}

	p.nextToken()
	stmt.Then = p.parseStatement()
	if p.failed() {
		return ast.NoStmt
	}
	stmt.Span = p.spanFrom(start)
	return p.addStmt(stmt)
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) parseExpression(precedence int) ast.ExprId {
	if p.failed() || !p.enter() {
		return ast.NoExpr
	}
	defer p.leave()

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError()
		return ast.NoExpr
	}
	leftExp := prefix()

	for !p.failed() && !p.peekTokenIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		leftExp = infix(leftExp)
	}

	if p.failed() {
		return ast.NoExpr
	}
	return leftExp
}

func (p *Parser) noPrefixParseFnError() {
	if p.curTokenIs(token.EOF) {
		p.fail(UnexpectedEOF, p.curSpan(), "expected expression")
		return
	}
	p.fail(UnexpectedToken, p.curSpan(), fmt.Sprintf("no expression starts with %q", p.curToken.Literal))
}

func (p *Parser) parseIdentifier() ast.ExprId {
	return p.addExpr(ast.Expr{Kind: ast.Variable, Name: p.curToken.Literal, Span: p.curSpan()})
}

// minInt32Magnitude is the one decimal literal that only fits negated.
const minInt32Magnitude = "2147483648"

func (p *Parser) parseIntegerLiteral() ast.ExprId {
	lit := p.curToken.Literal
	var value int64
	var err error
	if strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X") {
		var u uint64
		u, err = strconv.ParseUint(lit[2:], 16, 32)
		value = int64(int32(uint32(u)))
	} else {
		value, err = strconv.ParseInt(lit, 10, 32)
	}
	if err != nil {
		p.fail(InvalidExpression, p.curSpan(), fmt.Sprintf("could not parse %q as integer", lit))
		return ast.NoExpr
	}
	return p.addExpr(ast.Expr{Kind: ast.IntLit, Int: int32(value), Span: p.curSpan()})
}

func (p *Parser) parseFloatLiteral() ast.ExprId {
	lit := strings.TrimRight(p.curToken.Literal, "fF")
	value, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		p.fail(InvalidExpression, p.curSpan(), fmt.Sprintf("could not parse %q as float", p.curToken.Literal))
		return ast.NoExpr
	}
	return p.addExpr(ast.Expr{Kind: ast.NumberLit, Num: fixed.FromFloat(value), Span: p.curSpan()})
}

func (p *Parser) parseBoolean() ast.ExprId {
	return p.addExpr(ast.Expr{Kind: ast.BoolLit, Bool: p.curTokenIs(token.TRUE), Span: p.curSpan()})
}

func (p *Parser) parseStringLiteral() ast.ExprId {
	p.fail(InvalidExpression, p.curSpan(), "string literals are not supported")
	return ast.NoExpr
}

func (p *Parser) parsePrefixExpression() ast.ExprId {
	start := p.curToken.Pos
	var op ast.Op
	switch p.curToken.Type {
	case token.MINUS:
		if p.peekTokenIs(token.INT) && p.peekToken.Literal == minInt32Magnitude {
			p.nextToken()
			return p.addExpr(ast.Expr{Kind: ast.IntLit, Int: math.MinInt32, Span: p.spanFrom(start)})
		}
		op = ast.Neg
	case token.BANG:
		op = ast.Not
	case token.TILDE:
		op = ast.BitNot
	}
	p.nextToken()
	operand := p.parseExpression(PREFIX)
	if p.failed() || op == ast.NoOp {
		return operand
	}
	return p.addExpr(ast.Expr{Kind: ast.Unary, Op: op, Left: operand, Span: p.spanFrom(start)})
}

func (p *Parser) parsePrefixIncDec() ast.ExprId {
	start := p.curToken.Pos
	op := ast.PreInc
	if p.curTokenIs(token.MINUS_MINUS) {
		op = ast.PreDec
	}
	p.nextToken()
	target := p.parseExpression(PREFIX)
	if p.failed() {
		return ast.NoExpr
	}
	return p.addExpr(ast.Expr{Kind: ast.IncDec, Op: op, Left: target, Span: p.spanFrom(start)})
}

func (p *Parser) parsePostfixIncDec(target ast.ExprId) ast.ExprId {
	op := ast.PostInc
	if p.curTokenIs(token.MINUS_MINUS) {
		op = ast.PostDec
	}
	start := p.pool.Expr(target).Span.Start
	return p.addExpr(ast.Expr{Kind: ast.IncDec, Op: op, Left: target, Span: p.spanFrom(start)})
}

func (p *Parser) parseGroupedExpression() ast.ExprId {
	p.nextToken()
	exp := p.parseExpression(LOWEST)
	if !p.expectPeek(token.RPAREN) {
		return ast.NoExpr
	}
	return exp
}

func (p *Parser) parseInfixExpression(left ast.ExprId) ast.ExprId {
	op := binaryOps[p.curToken.Type]
	precedence := p.curPrecedence()
	start := p.pool.Expr(left).Span.Start
	p.nextToken()
	right := p.parseExpression(precedence)
	if p.failed() {
		return ast.NoExpr
	}
	return p.addExpr(ast.Expr{Kind: ast.Binary, Op: op, Left: left, Right: right, Span: p.spanFrom(start)})
}

// parseAssignExpression is right-associative. Compound forms desugar to
// target = target op value, sharing the target node.
func (p *Parser) parseAssignExpression(target ast.ExprId) ast.ExprId {
	opTok := p.curToken
	start := p.pool.Expr(target).Span.Start
	p.nextToken()
	value := p.parseExpression(ASSIGN - 1)
	if p.failed() {
		return ast.NoExpr
	}
	if op, ok := compoundOps[opTok.Type]; ok {
		value = p.addExpr(ast.Expr{Kind: ast.Binary, Op: op, Left: target, Right: value, Span: p.spanFrom(start)})
	}
	return p.addExpr(ast.Expr{Kind: ast.Assign, Left: target, Right: value, Span: p.spanFrom(start)})
}

func (p *Parser) parseTernaryExpression(cond ast.ExprId) ast.ExprId {
	start := p.pool.Expr(cond).Span.Start
	p.nextToken()
	then := p.parseExpression(LOWEST)
	if !p.expectPeek(token.COLON) {
		return ast.NoExpr
	}
	p.nextToken()
	otherwise := p.parseExpression(TERNARY - 1)
	if p.failed() {
		return ast.NoExpr
	}
	return p.addExpr(ast.Expr{Kind: ast.Ternary, Left: cond, Right: then, Else: otherwise, Span: p.spanFrom(start)})
}

func (p *Parser) parseCallExpression(function ast.ExprId) ast.ExprId {
	callee := p.pool.Expr(function)
	if callee.Kind != ast.Variable {
		p.fail(InvalidExpression, p.curSpan(), "expression is not callable")
		return ast.NoExpr
	}
	name, start := callee.Name, callee.Span.Start
	args := p.parseCallArguments()
	if p.failed() {
		return ast.NoExpr
	}
	return p.addExpr(ast.Expr{Kind: ast.Call, Name: name, Args: args, Span: p.spanFrom(start)})
}

// parseCallArguments expects curToken on '(' and leaves it on ')'.
func (p *Parser) parseCallArguments() []ast.ExprId {
	var args []ast.ExprId
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return args
	}
	p.nextToken()
	args = append(args, p.parseExpression(LOWEST))
	for p.peekTokenIs(token.COMMA) && !p.failed() {
		p.nextToken()
		p.nextToken()
		args = append(args, p.parseExpression(LOWEST))
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return args
}

// parseConstructor handles vecN(...), mat3(...) and the float(...), int(...)
// and bool(...) conversions.
func (p *Parser) parseConstructor() ast.ExprId {
	start := p.curToken.Pos
	target, _ := types.FromToken(p.curToken.Type)
	if !p.expectPeek(token.LPAREN) {
		return ast.NoExpr
	}
	args := p.parseCallArguments()
	if p.failed() {
		return ast.NoExpr
	}
	span := p.spanFrom(start)
	if target == types.Fixed || target == types.Int32 || target == types.Bool {
		if len(args) != 1 {
			p.fail(InvalidExpression, span, fmt.Sprintf("%s conversion takes exactly one argument", target))
			return ast.NoExpr
		}
		return p.addExpr(ast.Expr{Kind: ast.Convert, Target: target, Left: args[0], Span: span})
	}
	return p.addExpr(ast.Expr{Kind: ast.Constructor, Target: target, Args: args, Span: span})
}

func (p *Parser) parseSwizzleExpression(left ast.ExprId) ast.ExprId {
	start := p.pool.Expr(left).Span.Start
	if !p.expectPeek(token.IDENT) {
		return ast.NoExpr
	}
	return p.addExpr(ast.Expr{Kind: ast.Swizzle, Left: left, Swizzle: p.curToken.Literal, Span: p.spanFrom(start)})
}

package scoresheet

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrDivideByZero indicates a rule divided by a zero-valued operand.
var ErrDivideByZero = errors.New("division by zero")

// ErrNonNumericText indicates a text field that does not parse as a
// number was referenced in an expression.
var ErrNonNumericText = errors.New("text value is not numeric")

// Expr is a parsed rule expression, ready for repeated evaluation.
type Expr struct {
	root exprNode
	src  string
}

// String returns the original expression source.
func (e *Expr) String() string { return e.src }

// Identifiers returns every field id referenced by the expression, in
// first-appearance order without duplicates.
func (e *Expr) Identifiers() []string {
	var ids []string
	seen := make(map[string]bool)
	walkIdents(e.root, func(name string) {
		if !seen[name] {
			seen[name] = true
			ids = append(ids, name)
		}
	})
	return ids
}

// Eval computes the expression against one player's field values.
// Identifiers absent from values evaluate to 0.
func (e *Expr) Eval(values map[string]Value) (float64, error) {
	return evalNode(e.root, values)
}

// ParseExpression tokenizes and parses an arithmetic expression over
// numeric literals and field-id identifiers, with the usual precedence
// (* and / bind tighter than + and -) and parentheses for grouping.
func ParseExpression(src string) (*Expr, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &exprParser{toks: toks}
	root, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %q at position %d", tok.text, tok.pos)
	}
	return &Expr{root: root, src: src}, nil
}

// --- tokenizer ---

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp // + - * /
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

func tokenize(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case c == '+' || c == '-' || c == '*' || c == '/':
			toks = append(toks, token{kind: tokOp, text: string(c), pos: i})
			i++
		case c >= '0' && c <= '9' || c == '.':
			start := i
			for i < len(src) && (src[i] >= '0' && src[i] <= '9' || src[i] == '.') {
				i++
			}
			n, err := strconv.ParseFloat(src[start:i], 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q at position %d", src[start:i], start)
			}
			toks = append(toks, token{kind: tokNumber, text: src[start:i], num: n, pos: start})
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})
		default:
			return nil, fmt.Errorf("unexpected character %q at position %d", string(c), i)
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

// --- parser (precedence climbing) ---

type exprNode interface{}

type numNode float64

type identNode string

type negNode struct {
	operand exprNode
}

type binaryNode struct {
	op          byte
	left, right exprNode
}

type exprParser struct {
	toks []token
	pos  int
}

func (p *exprParser) peek() token { return p.toks[p.pos] }

func (p *exprParser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func precedence(op string) int {
	switch op {
	case "*", "/":
		return 2
	case "+", "-":
		return 1
	}
	return 0
}

func (p *exprParser) parseBinary(minPrec int) (exprNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokOp {
			break
		}
		prec := precedence(tok.text)
		if prec < minPrec {
			break
		}
		p.next()
		// Left associative: the right operand only claims strictly
		// tighter operators.
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: tok.text[0], left: left, right: right}
	}
	return left, nil
}

func (p *exprParser) parseUnary() (exprNode, error) {
	if tok := p.peek(); tok.kind == tokOp && tok.text == "-" {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return negNode{operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (exprNode, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		return numNode(tok.num), nil
	case tokIdent:
		return identNode(tok.text), nil
	case tokLParen:
		inner, err := p.parseBinary(0)
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis at position %d", closing.pos)
		}
		return inner, nil
	case tokEOF:
		return nil, fmt.Errorf("unexpected end of expression at position %d", tok.pos)
	default:
		return nil, fmt.Errorf("unexpected %q at position %d", tok.text, tok.pos)
	}
}

// --- evaluation ---

func evalNode(n exprNode, values map[string]Value) (float64, error) {
	switch node := n.(type) {
	case numNode:
		return float64(node), nil
	case identNode:
		v, ok := values[string(node)]
		if !ok {
			// Fields the player has not entered yet score as zero.
			return 0, nil
		}
		num, err := v.numeric()
		if err != nil {
			return 0, fmt.Errorf("field %q: %w", string(node), err)
		}
		return num, nil
	case negNode:
		operand, err := evalNode(node.operand, values)
		if err != nil {
			return 0, err
		}
		return -operand, nil
	case binaryNode:
		left, err := evalNode(node.left, values)
		if err != nil {
			return 0, err
		}
		right, err := evalNode(node.right, values)
		if err != nil {
			return 0, err
		}
		switch node.op {
		case '+':
			return left + right, nil
		case '-':
			return left - right, nil
		case '*':
			return left * right, nil
		default:
			if right == 0 {
				return 0, ErrDivideByZero
			}
			return left / right, nil
		}
	default:
		return 0, fmt.Errorf("unknown expression node %T", n)
	}
}

func walkIdents(n exprNode, visit func(string)) {
	switch node := n.(type) {
	case identNode:
		visit(string(node))
	case negNode:
		walkIdents(node.operand, visit)
	case binaryNode:
		walkIdents(node.left, visit)
		walkIdents(node.right, visit)
	}
}

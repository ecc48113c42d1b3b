package parser

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/leapplan/pkg/plan"
)

var cmpOps = map[TokenType]plan.CmpOp{
	TOKEN_EQ: plan.CmpEq,
	TOKEN_NE: plan.CmpNe,
	TOKEN_LT: plan.CmpLt,
	TOKEN_LE: plan.CmpLe,
	TOKEN_GT: plan.CmpGt,
	TOKEN_GE: plan.CmpGe,
}

// parseOp parses one operator line and the subtree it owns. Known heads
// get dedicated handling; any other identifier becomes an opaque node.
func (p *Parser) parseOp(col int) (plan.Expr, error) {
	ln, ok := p.cur()
	if !ok {
		return nil, &ParseError{Pos: p.eof, Message: "unexpected end of input, expected expression"}
	}
	if ln.col != col {
		return nil, &ParseError{Pos: ln.toks[0].Pos, Message: ErrUnexpectedIndent}
	}
	head := ln.toks[0]
	switch head.Type {
	case TOKEN_IDENT:
		switch head.Literal {
		case "Constant":
			return p.parseConstant(ln, col)
		case "Get":
			return p.parseGet(ln)
		case "Project":
			return p.parseProject(ln, col)
		case "Map":
			return p.parseMap(ln, col)
		case "Filter":
			return p.parseFilter(ln, col)
		case "Union":
			return p.parseUnion(ln, col)
		case "Distinct":
			return p.parseDistinct(ln, col)
		case "Negate":
			if err := newLineCursor(ln).done(); err != nil {
				return nil, err
			}
			p.idx++
			input, err := p.parseInput(col, "Negate")
			if err != nil {
				return nil, err
			}
			return &plan.Negate{Input: input}, nil
		case "Threshold":
			if err := newLineCursor(ln).done(); err != nil {
				return nil, err
			}
			p.idx++
			input, err := p.parseInput(col, "Threshold")
			if err != nil {
				return nil, err
			}
			return &plan.Threshold{Input: input}, nil
		default:
			return p.parseOpaque(ln, col)
		}
	case TOKEN_ILLEGAL:
		return nil, &LexError{Pos: head.Pos, Message: fmt.Sprintf("unexpected character %q", head.Literal)}
	default:
		return nil, &ParseError{Pos: head.Pos, Message: fmt.Sprintf(ErrUnexpectedToken, head.Type, "an operator")}
	}
}

func (p *Parser) parseConstant(ln planLine, col int) (plan.Expr, error) {
	c := newLineCursor(ln)
	if c.accept(TOKEN_EMPTY) {
		if err := c.done(); err != nil {
			return nil, err
		}
		p.idx++
		return &plan.Constant{}, nil
	}
	if err := c.done(); err != nil {
		return nil, err
	}
	p.idx++

	var rowsOut [][]int64
	for {
		ln, ok := p.cur()
		if !ok || ln.col != col+colStep || ln.toks[0].Type != TOKEN_MINUS {
			break
		}
		r, err := parseRow(ln)
		if err != nil {
			return nil, err
		}
		rowsOut = append(rowsOut, r)
		p.idx++
	}
	return &plan.Constant{Rows: rowsOut}, nil
}

// parseRow parses a "- (v, v, ...)" tuple line.
func parseRow(ln planLine) ([]int64, error) {
	c := newLineCursor(ln)
	if _, err := c.expect(TOKEN_LPAREN); err != nil {
		return nil, err
	}
	vals := []int64{}
	if !c.accept(TOKEN_RPAREN) {
		for {
			v, err := c.signedInt()
			if err != nil {
				return nil, err
			}
			vals = append(vals, v)
			if c.accept(TOKEN_COMMA) {
				continue
			}
			if _, err := c.expect(TOKEN_RPAREN); err != nil {
				return nil, err
			}
			break
		}
	}
	if err := c.done(); err != nil {
		return nil, err
	}
	return vals, nil
}

func (p *Parser) parseGet(ln planLine) (plan.Expr, error) {
	name := p.restOfLine(ln)
	if name == "" {
		return nil, &ParseError{Pos: ln.toks[0].Pos, Message: "Get requires a binding id or collection name"}
	}
	p.idx++
	if id, ok := localID(name); ok {
		return &plan.Get{ID: id}, nil
	}
	return &plan.Get{Name: name}, nil
}

func (p *Parser) parseProject(ln planLine, col int) (plan.Expr, error) {
	c := newLineCursor(ln)
	cols, err := c.columnList()
	if err != nil {
		return nil, err
	}
	if err := c.done(); err != nil {
		return nil, err
	}
	p.idx++
	input, err := p.parseInput(col, "Project")
	if err != nil {
		return nil, err
	}
	return &plan.Project{Input: input, Columns: cols}, nil
}

func (p *Parser) parseMap(ln planLine, col int) (plan.Expr, error) {
	c := newLineCursor(ln)
	if _, err := c.expect(TOKEN_LPAREN); err != nil {
		return nil, err
	}
	scalars := []int64{}
	if !c.accept(TOKEN_RPAREN) {
		for {
			v, err := c.signedInt()
			if err != nil {
				return nil, err
			}
			scalars = append(scalars, v)
			if c.accept(TOKEN_COMMA) {
				continue
			}
			if _, err := c.expect(TOKEN_RPAREN); err != nil {
				return nil, err
			}
			break
		}
	}
	if err := c.done(); err != nil {
		return nil, err
	}
	p.idx++
	input, err := p.parseInput(col, "Map")
	if err != nil {
		return nil, err
	}
	return &plan.Map{Input: input, Scalars: scalars}, nil
}

func (p *Parser) parseFilter(ln planLine, col int) (plan.Expr, error) {
	c := newLineCursor(ln)
	var preds []plan.Predicate
	for !c.atEnd() {
		pred, err := c.predicate()
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
		if !c.accept(TOKEN_AND) {
			break
		}
	}
	if err := c.done(); err != nil {
		return nil, err
	}
	p.idx++
	input, err := p.parseInput(col, "Filter")
	if err != nil {
		return nil, err
	}
	return &plan.Filter{Input: input, Predicates: preds}, nil
}

func (p *Parser) parseUnion(ln planLine, col int) (plan.Expr, error) {
	if err := newLineCursor(ln).done(); err != nil {
		return nil, err
	}
	p.idx++
	inputs, err := p.parseChildren(col + colStep)
	if err != nil {
		return nil, err
	}
	return &plan.Union{Inputs: inputs}, nil
}

func (p *Parser) parseDistinct(ln planLine, col int) (plan.Expr, error) {
	c := newLineCursor(ln)
	var groupBy []int
	if !c.atEnd() {
		key, err := c.expect(TOKEN_IDENT)
		if err != nil {
			return nil, err
		}
		if key.Literal != "group_by" {
			return nil, &ParseError{
				Pos:     key.Pos,
				Message: fmt.Sprintf(ErrUnexpectedToken, strconv.Quote(key.Literal), "group_by"),
			}
		}
		if _, err := c.expect(TOKEN_EQ); err != nil {
			return nil, err
		}
		groupBy, err = c.columnList()
		if err != nil {
			return nil, err
		}
	}
	if err := c.done(); err != nil {
		return nil, err
	}
	p.idx++
	input, err := p.parseInput(col, "Distinct")
	if err != nil {
		return nil, err
	}
	return &plan.Distinct{Input: input, GroupBy: groupBy}, nil
}

func (p *Parser) parseOpaque(ln planLine, col int) (plan.Expr, error) {
	tag := ln.toks[0].Literal
	detail := p.restOfLine(ln)
	p.idx++
	inputs, err := p.parseChildren(col + colStep)
	if err != nil {
		return nil, err
	}
	return &plan.Opaque{Tag: tag, Detail: detail, Inputs: inputs}, nil
}

// parseInput parses the single indented input an operator requires.
func (p *Parser) parseInput(col int, head string) (plan.Expr, error) {
	ln, ok := p.cur()
	if !ok || ln.col != col+colStep {
		pos := p.eof
		if ok {
			pos = ln.toks[0].Pos
		}
		return nil, &ParseError{Pos: pos, Message: fmt.Sprintf(ErrMissingInput, head)}
	}
	return p.parseScoped(col + colStep)
}

// parseChildren parses zero or more sibling subtrees at the given
// column.
func (p *Parser) parseChildren(col int) ([]plan.Expr, error) {
	var out []plan.Expr
	for {
		ln, ok := p.cur()
		if !ok || ln.col != col {
			break
		}
		child, err := p.parseScoped(col)
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	return out, nil
}

// lineCursor steps through one line's tokens after the head.
type lineCursor struct {
	toks []Token
	i    int
	end  Position
}

func newLineCursor(ln planLine) *lineCursor {
	last := ln.toks[len(ln.toks)-1]
	return &lineCursor{
		toks: ln.toks,
		i:    1,
		end: Position{
			Line:   last.Pos.Line,
			Column: last.Pos.Column + len(last.Literal),
			Offset: last.Pos.Offset + len(last.Literal),
		},
	}
}

func (c *lineCursor) atEnd() bool {
	return c.i >= len(c.toks)
}

func (c *lineCursor) accept(t TokenType) bool {
	if c.atEnd() || c.toks[c.i].Type != t {
		return false
	}
	c.i++
	return true
}

func (c *lineCursor) expect(t TokenType) (Token, error) {
	if c.atEnd() {
		return Token{}, &ParseError{
			Pos:     c.end,
			Message: fmt.Sprintf(ErrUnexpectedToken, "end of line", t),
		}
	}
	tok := c.toks[c.i]
	if tok.Type != t {
		return Token{}, &ParseError{
			Pos:     tok.Pos,
			Message: fmt.Sprintf(ErrUnexpectedToken, tok.Type, t),
		}
	}
	c.i++
	return tok, nil
}

func (c *lineCursor) done() error {
	if c.atEnd() {
		return nil
	}
	tok := c.toks[c.i]
	return &ParseError{
		Pos:     tok.Pos,
		Message: fmt.Sprintf(ErrUnexpectedToken, tok.Type, "end of line"),
	}
}

// signedInt parses an integer literal with an optional leading minus.
func (c *lineCursor) signedInt() (int64, error) {
	neg := c.accept(TOKEN_MINUS)
	tok, err := c.expect(TOKEN_NUMBER)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(tok.Literal, 10, 64)
	if err != nil {
		return 0, &ParseError{Pos: tok.Pos, Message: fmt.Sprintf(ErrInvalidNumber, tok.Literal)}
	}
	if neg {
		v = -v
	}
	return v, nil
}

// columnList parses a "(#c, #c, ...)" column reference list.
func (c *lineCursor) columnList() ([]int, error) {
	if _, err := c.expect(TOKEN_LPAREN); err != nil {
		return nil, err
	}
	cols := []int{}
	if c.accept(TOKEN_RPAREN) {
		return cols, nil
	}
	for {
		if _, err := c.expect(TOKEN_HASH); err != nil {
			return nil, err
		}
		tok, err := c.expect(TOKEN_NUMBER)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(tok.Literal)
		if err != nil {
			return nil, &ParseError{Pos: tok.Pos, Message: fmt.Sprintf(ErrInvalidNumber, tok.Literal)}
		}
		cols = append(cols, n)
		if c.accept(TOKEN_COMMA) {
			continue
		}
		if _, err := c.expect(TOKEN_RPAREN); err != nil {
			return nil, err
		}
		return cols, nil
	}
}

// predicate parses one "(#c OP operand)" comparison.
func (c *lineCursor) predicate() (plan.Predicate, error) {
	var pred plan.Predicate
	if _, err := c.expect(TOKEN_LPAREN); err != nil {
		return pred, err
	}
	if _, err := c.expect(TOKEN_HASH); err != nil {
		return pred, err
	}
	tok, err := c.expect(TOKEN_NUMBER)
	if err != nil {
		return pred, err
	}
	left, err := strconv.Atoi(tok.Literal)
	if err != nil {
		return pred, &ParseError{Pos: tok.Pos, Message: fmt.Sprintf(ErrInvalidNumber, tok.Literal)}
	}
	pred.Left = left

	if c.atEnd() {
		return pred, &ParseError{Pos: c.end, Message: fmt.Sprintf(ErrUnexpectedToken, "end of line", "a comparison operator")}
	}
	opTok := c.toks[c.i]
	op, ok := cmpOps[opTok.Type]
	if !ok {
		return pred, &ParseError{
			Pos:     opTok.Pos,
			Message: fmt.Sprintf(ErrUnexpectedToken, opTok.Type, "a comparison operator"),
		}
	}
	c.i++
	pred.Op = op

	if c.accept(TOKEN_HASH) {
		tok, err := c.expect(TOKEN_NUMBER)
		if err != nil {
			return pred, err
		}
		col, err := strconv.Atoi(tok.Literal)
		if err != nil {
			return pred, &ParseError{Pos: tok.Pos, Message: fmt.Sprintf(ErrInvalidNumber, tok.Literal)}
		}
		pred.Right = plan.Operand{Col: col, IsCol: true}
	} else {
		v, err := c.signedInt()
		if err != nil {
			return pred, err
		}
		pred.Right = plan.Operand{Literal: v}
	}

	if _, err := c.expect(TOKEN_RPAREN); err != nil {
		return pred, err
	}
	return pred, nil
}

package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapplan/pkg/plan"
)

// colStep is the column distance between an operator and its children.
const colStep = 2

// planLine is one non-blank source line as a token sequence.
type planLine struct {
	col  int // column of the first token, 1-based
	toks []Token
	end  int // byte offset just past the last content of the line
}

// Parser parses plan text into a plan.Expr. The format is line
// structured: each operator occupies one line and owns the lines
// indented beneath it, with scope blocks introduced by Return/With
// headers.
type Parser struct {
	src   string
	lines []planLine
	idx   int
	eof   Position
}

// NewParser creates a Parser for the given source text.
func NewParser(src string) *Parser {
	p := &Parser{src: src}
	lexer := NewLexer(src)
	var cur planLine
	for {
		tok := lexer.NextToken()
		switch tok.Type {
		case TOKEN_EOF:
			if len(cur.toks) > 0 {
				cur.end = tok.Pos.Offset
				p.lines = append(p.lines, cur)
			}
			p.eof = tok.Pos
			return p
		case TOKEN_NEWLINE:
			if len(cur.toks) > 0 {
				cur.end = tok.Pos.Offset
				p.lines = append(p.lines, cur)
				cur = planLine{}
			}
		default:
			if len(cur.toks) == 0 {
				cur.col = tok.Pos.Column
			}
			cur.toks = append(cur.toks, tok)
		}
	}
}

// Parse parses a complete plan document.
func Parse(src string) (plan.Expr, error) {
	p := NewParser(src)
	return p.Document()
}

// Document parses the whole source as one plan expression.
func (p *Parser) Document() (plan.Expr, error) {
	if len(p.lines) == 0 {
		return nil, &ParseError{Pos: Position{Line: 1, Column: 1}, Message: "empty input"}
	}
	root, err := p.parseScoped(1)
	if err != nil {
		return nil, err
	}
	if ln, ok := p.cur(); ok {
		return nil, &ParseError{Pos: ln.toks[0].Pos, Message: ErrUnexpectedIndent}
	}
	return root, nil
}

func (p *Parser) cur() (planLine, bool) {
	if p.idx >= len(p.lines) {
		return planLine{}, false
	}
	return p.lines[p.idx], true
}

// parseScoped parses either a scoped document (Return preamble followed
// by With blocks) or a bare operator tree, at the given column.
func (p *Parser) parseScoped(col int) (plan.Expr, error) {
	ln, ok := p.cur()
	if !ok {
		return nil, &ParseError{Pos: p.eof, Message: "unexpected end of input, expected expression"}
	}
	if ln.col != col {
		return nil, &ParseError{Pos: ln.toks[0].Pos, Message: ErrUnexpectedIndent}
	}
	if ln.toks[0].Type != TOKEN_RETURN {
		return p.parseOp(col)
	}
	if len(ln.toks) != 1 {
		return nil, &ParseError{
			Pos:     ln.toks[1].Pos,
			Message: fmt.Sprintf(ErrUnexpectedToken, ln.toks[1].Type, "end of line"),
		}
	}
	p.idx++

	acc, err := p.parseOp(col + colStep)
	if err != nil {
		return nil, err
	}

	// Blocks are listed innermost first; each wraps what came before.
	for {
		ln, ok := p.cur()
		if !ok || ln.col != col || ln.toks[0].Type != TOKEN_WITH {
			break
		}
		recursive, ids, values, err := p.parseWithBlock(col)
		if err != nil {
			return nil, err
		}
		if recursive {
			// Entries are rendered in reverse finalization order; the
			// group node lists members ascending.
			for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
				ids[i], ids[j] = ids[j], ids[i]
				values[i], values[j] = values[j], values[i]
			}
			acc = &plan.LetRec{IDs: ids, Values: values, Body: acc}
		} else {
			for i := range ids {
				acc = &plan.Let{ID: ids[i], Value: values[i], Body: acc}
			}
		}
	}
	return acc, nil
}

// parseWithBlock parses one With or With Mutually Recursive block and
// its cte entries, returned in the order they are listed.
func (p *Parser) parseWithBlock(col int) (bool, []plan.LocalID, []plan.Expr, error) {
	ln := p.lines[p.idx]
	blockPos := ln.toks[0].Pos
	recursive := false
	switch {
	case len(ln.toks) == 1:
	case len(ln.toks) == 3 && ln.toks[1].Type == TOKEN_MUTUALLY && ln.toks[2].Type == TOKEN_RECURSIVE:
		recursive = true
	default:
		return false, nil, nil, &ParseError{
			Pos:     ln.toks[1].Pos,
			Message: fmt.Sprintf(ErrUnexpectedToken, ln.toks[1].Type, "Mutually Recursive or end of line"),
		}
	}
	p.idx++

	var ids []plan.LocalID
	var values []plan.Expr
	for {
		ln, ok := p.cur()
		if !ok || ln.col != col+colStep || ln.toks[0].Type != TOKEN_CTE {
			break
		}
		id, value, err := p.parseCteEntry(col + colStep)
		if err != nil {
			return false, nil, nil, err
		}
		ids = append(ids, id)
		values = append(values, value)
	}
	if len(ids) == 0 {
		return false, nil, nil, &ParseError{Pos: blockPos, Message: ErrEmptyScopeBlock}
	}
	return recursive, ids, values, nil
}

// parseCteEntry parses a "cte l<n> =" header and its value block.
func (p *Parser) parseCteEntry(col int) (plan.LocalID, plan.Expr, error) {
	ln := p.lines[p.idx]
	if len(ln.toks) != 3 || ln.toks[1].Type != TOKEN_IDENT || ln.toks[2].Type != TOKEN_EQ {
		return 0, nil, &ParseError{Pos: ln.toks[0].Pos, Message: "malformed cte header, expected cte l<n> ="}
	}
	id, ok := localID(ln.toks[1].Literal)
	if !ok {
		return 0, nil, &ParseError{
			Pos:     ln.toks[1].Pos,
			Message: fmt.Sprintf("binding id %q is not of the form l<n>", ln.toks[1].Literal),
		}
	}
	p.idx++
	value, err := p.parseScoped(col + colStep)
	if err != nil {
		return 0, nil, err
	}
	return id, value, nil
}

// restOfLine returns the raw text of a line after its head token.
func (p *Parser) restOfLine(ln planLine) string {
	head := ln.toks[0]
	start := head.Pos.Offset + len(head.Literal)
	if start >= ln.end {
		return ""
	}
	return strings.TrimSpace(p.src[start:ln.end])
}

// localID extracts the numeric id from an l-prefixed binding name.
func localID(name string) (plan.LocalID, bool) {
	if len(name) < 2 || name[0] != 'l' {
		return 0, false
	}
	n := 0
	for i := 1; i < len(name); i++ {
		c := name[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return plan.LocalID(n), true
}

package format

import (
	"bytes"
	"strings"
)

const indentSize = 2

// Printer accumulates formatted output with indentation tracking.
type Printer struct {
	output      *bytes.Buffer
	depth       int
	atLineStart bool
}

func newPrinter() *Printer {
	return &Printer{
		output:      &bytes.Buffer{},
		atLineStart: true,
	}
}

// String returns the formatted output with a single trailing newline.
func (p *Printer) String() string {
	out := strings.TrimRight(p.output.String(), "\n")
	return out + "\n"
}

func (p *Printer) write(s string) {
	if p.atLineStart {
		p.writeIndent()
		p.atLineStart = false
	}
	p.output.WriteString(s)
}

func (p *Printer) writeln() {
	p.output.WriteString("\n")
	p.atLineStart = true
}

func (p *Printer) writeIndent() {
	p.output.WriteString(strings.Repeat(" ", p.depth*indentSize))
}

func (p *Printer) indent() {
	p.depth++
}

func (p *Printer) dedent() {
	if p.depth > 0 {
		p.depth--
	}
}

// Package wkt parses the Well-Known Text description of a coordinate
// reference system, as found in the .prj member of a shapefile.
package wkt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrEmpty is returned when there is nothing to parse.
var ErrEmpty = errors.New("wkt: empty input")

// MaxDepth bounds keyword nesting. Real CRS definitions stay well below it.
const MaxDepth = 64

// SyntaxError reports malformed WKT.
type SyntaxError struct {
	Offset int
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("wkt: syntax error at offset %d: %s", e.Offset, e.Reason)
}

// Node is a keyword with its bracketed arguments. Arguments are string,
// float64 or *Node values.
type Node struct {
	Keyword string
	Args    []any
}

// Name returns the first quoted argument of the node.
func (n *Node) Name() string {
	for _, a := range n.Args {
		if s, ok := a.(string); ok {
			return s
		}
	}
	return ""
}

// Child returns the first direct child with the given keyword.
func (n *Node) Child(keyword string) *Node {
	for _, a := range n.Args {
		if c, ok := a.(*Node); ok && strings.EqualFold(c.Keyword, keyword) {
			return c
		}
	}
	return nil
}

// CRS is a parsed coordinate reference system description.
type CRS struct {
	// Kind is the root keyword, e.g. PROJCS or GEOGCS.
	Kind string
	// Name is the declared name of the root object.
	Name string
	Root *Node
}

// Projected reports whether the root object is a projected system.
func (c CRS) Projected() bool {
	switch strings.ToUpper(c.Kind) {
	case "PROJCS", "PROJCRS", "PROJECTEDCRS":
		return true
	}
	return false
}

// Parser satisfies the projection resolver's parser dependency.
type Parser struct{}

// Parse implements the resolver parser contract.
func (Parser) Parse(text string) (CRS, error) {
	return Parse(text)
}

// Parse reads a single WKT object.
func Parse(text string) (CRS, error) {
	text = strings.TrimPrefix(strings.TrimSpace(text), "\ufeff")
	if text == "" {
		return CRS{}, ErrEmpty
	}

	p := &parser{src: text}
	root, err := p.node()
	if err != nil {
		return CRS{}, err
	}

	p.skipSpace()
	if p.pos < len(p.src) {
		return CRS{}, &SyntaxError{Offset: p.pos, Reason: "trailing content"}
	}

	return CRS{Kind: root.Keyword, Name: root.Name(), Root: root}, nil
}

type parser struct {
	src   string
	pos   int
	depth int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *parser) node() (*Node, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > MaxDepth {
		return nil, &SyntaxError{Offset: p.pos, Reason: "nesting too deep"}
	}

	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '_' || unicode.IsLetter(rune(c)) || (p.pos > start && unicode.IsDigit(rune(c))) {
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return nil, &SyntaxError{Offset: p.pos, Reason: "expected keyword"}
	}
	n := &Node{Keyword: p.src[start:p.pos]}

	p.skipSpace()
	if p.pos >= len(p.src) {
		return n, nil
	}

	var closer byte
	switch p.src[p.pos] {
	case '[':
		closer = ']'
	case '(':
		closer = ')'
	default:
		// bare keyword such as an axis direction
		return n, nil
	}
	p.pos++

	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, &SyntaxError{Offset: p.pos, Reason: "unterminated " + n.Keyword}
		}
		if p.src[p.pos] == closer {
			p.pos++
			return n, nil
		}

		arg, err := p.value()
		if err != nil {
			return nil, err
		}
		n.Args = append(n.Args, arg)

		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, &SyntaxError{Offset: p.pos, Reason: "unterminated " + n.Keyword}
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case closer:
		default:
			return nil, &SyntaxError{Offset: p.pos, Reason: fmt.Sprintf("unexpected %q", p.src[p.pos])}
		}
	}
}

func (p *parser) value() (any, error) {
	c := p.src[p.pos]
	switch {
	case c == '"':
		return p.quoted()
	case c == '-' || c == '+' || c == '.' || unicode.IsDigit(rune(c)):
		return p.number()
	default:
		return p.node()
	}
}

func (p *parser) quoted() (string, error) {
	start := p.pos
	p.pos++

	var sb strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '"' {
			// doubled quote is an escaped quote
			if p.pos+1 < len(p.src) && p.src[p.pos+1] == '"' {
				sb.WriteByte('"')
				p.pos += 2
				continue
			}
			p.pos++
			return sb.String(), nil
		}
		sb.WriteByte(c)
		p.pos++
	}

	return "", &SyntaxError{Offset: start, Reason: "unterminated string"}
}

func (p *parser) number() (float64, error) {
	start := p.pos
	for p.pos < len(p.src) && strings.IndexByte("+-.0123456789eE", p.src[p.pos]) >= 0 {
		p.pos++
	}

	v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return 0, &SyntaxError{Offset: start, Reason: "invalid number " + strconv.Quote(p.src[start:p.pos])}
	}

	return v, nil
}

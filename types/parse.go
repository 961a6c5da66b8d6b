package types

import (
	"fmt"
	"strings"
	"unicode"
)

// Parse builds a Type from a declaration such as "LowCardinality(Nullable(String))".
func Parse(decl string) (Type, error) {
	p := &parser{src: decl}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return t, nil
}

// MustParse is like Parse but panics on error.
func MustParse(decl string) Type {
	t, err := Parse(decl)
	if err != nil {
		panic(err)
	}
	return t
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w %q at offset %d: %s", ErrSyntax, p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *parser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *parser) token(accept func(rune) bool) string {
	start := p.pos
	for p.pos < len(p.src) && accept(rune(p.src[p.pos])) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func isIdent(r rune) bool { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }

func (p *parser) parseType() (Type, error) {
	p.skipSpace()
	name := p.token(isIdent)
	if name == "" || unicode.IsDigit(rune(name[0])) {
		return nil, p.errorf("expected type name")
	}
	args, err := p.parseArgs()
	if err != nil {
		return nil, err
	}
	f, ok := lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return f(args)
}

func (p *parser) parseArgs() ([]Arg, error) {
	p.skipSpace()
	if p.peek() != '(' {
		return nil, nil
	}
	p.pos++

	var args []Arg
	for {
		p.skipSpace()
		if p.peek() == ')' && len(args) == 0 {
			p.pos++
			return args, nil
		}
		arg, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return args, nil
		default:
			return nil, p.errorf("expected ',' or ')'")
		}
	}
}

func (p *parser) parseArg() (Arg, error) {
	switch c := p.peek(); {
	case c >= '0' && c <= '9':
		return Arg{Literal: p.token(unicode.IsDigit)}, nil
	case c == '\'':
		end := strings.IndexByte(p.src[p.pos+1:], '\'')
		if end < 0 {
			return Arg{}, p.errorf("unterminated string literal")
		}
		lit := p.src[p.pos+1 : p.pos+1+end]
		p.pos += end + 2
		return Arg{Literal: lit}, nil
	default:
		t, err := p.parseType()
		if err != nil {
			return Arg{}, err
		}
		return Arg{Type: t}, nil
	}
}

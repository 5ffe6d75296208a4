package builtin

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"unicode"
)

var (
	ErrSyntax   = errors.New("malformed expression")
	ErrDivZero  = errors.New("division by zero")
	ErrEmptyExp = errors.New("empty expression")
)

// Calculator evaluates + - * / and parentheses over floats, remembering the last result
type Calculator struct {
	mu   sync.Mutex
	last float64
	has  bool
}

// Eval computes expr; "ans" refers to the previous result
func (c *Calculator) Eval(expr string) (float64, error) {
	expr = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(expr), "="))
	if expr == "" {
		return 0, ErrEmptyExp
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	p := &parser{src: []rune(expr), ans: c.last}
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	p.skip()
	if p.pos != len(p.src) {
		return 0, fmt.Errorf("%w: unexpected %q", ErrSyntax, string(p.src[p.pos]))
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: result out of range", ErrSyntax)
	}
	c.last, c.has = v, true
	return v, nil
}

// Last returns the previous result
func (c *Calculator) Last() (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, c.has
}

// FormatNumber renders v without a trailing fraction when integral
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'g', 12, 64)
}

// parser is a recursive descent evaluator
// expr := term (('+'|'-') term)*; term := unary (('*'|'/') unary)*; unary := '-' unary | primary
type parser struct {
	src []rune
	pos int
	ans float64
}

func (p *parser) skip() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *parser) peek() rune {
	p.skip()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) expr() (float64, error) {
	v, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			r, err := p.term()
			if err != nil {
				return 0, err
			}
			v += r
		case '-':
			p.pos++
			r, err := p.term()
			if err != nil {
				return 0, err
			}
			v -= r
		default:
			return v, nil
		}
	}
}

func (p *parser) term() (float64, error) {
	v, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '*', 'x', '×':
			p.pos++
			r, err := p.unary()
			if err != nil {
				return 0, err
			}
			v *= r
		case '/', '÷':
			p.pos++
			r, err := p.unary()
			if err != nil {
				return 0, err
			}
			if r == 0 {
				return 0, ErrDivZero
			}
			v /= r
		default:
			return v, nil
		}
	}
}

func (p *parser) unary() (float64, error) {
	switch p.peek() {
	case '-':
		p.pos++
		v, err := p.unary()
		return -v, err
	case '+':
		p.pos++
		return p.unary()
	}
	return p.primary()
}

func (p *parser) primary() (float64, error) {
	c := p.peek()
	switch {
	case c == '(':
		p.pos++
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("%w: missing )", ErrSyntax)
		}
		p.pos++
		return v, nil
	case c >= '0' && c <= '9', c == '.':
		start := p.pos
		for p.pos < len(p.src) && (p.src[p.pos] >= '0' && p.src[p.pos] <= '9' || p.src[p.pos] == '.' || p.src[p.pos] == ',') {
			p.pos++
		}
		text := strings.ReplaceAll(string(p.src[start:p.pos]), ",", "")
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: bad number %q", ErrSyntax, text)
		}
		return v, nil
	case unicode.IsLetter(c):
		start := p.pos
		for p.pos < len(p.src) && unicode.IsLetter(p.src[p.pos]) {
			p.pos++
		}
		word := strings.ToLower(string(p.src[start:p.pos]))
		if word != "ans" {
			return 0, fmt.Errorf("%w: unknown name %q", ErrSyntax, word)
		}
		return p.ans, nil
	case c == 0:
		return 0, fmt.Errorf("%w: unexpected end", ErrSyntax)
	}
	return 0, fmt.Errorf("%w: unexpected %q", ErrSyntax, string(c))
}

// Package core provides money parsing and handling utilities.
//
// This file contains the price expression parser used when entering amounts
// and the conversions between decimal amounts and stored cents.
package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice evaluates a price typed by the user and rounds it to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and the
// four arithmetic operators with parentheses, so receipts can be split or
// summed at entry time. Evaluation is exact decimal; the result is rounded
// half away from zero to two places.
//
// Examples:
//   ParsePrice("10,5")          -> 10.50
//   ParsePrice("500/41,5")      -> 12.05
//   ParsePrice("(10+100)/42,8") -> 2.57
//   ParsePrice("5,3+10,1")      -> 15.40
func ParsePrice(s string) (decimal.Decimal, error) {
	p := &exprParser{src: strings.ReplaceAll(s, ",", ".")}
	p.skipSpace()
	if p.done() {
		return decimal.Zero, fmt.Errorf("%w: empty amount", ErrParse)
	}
	v, err := p.expr()
	if err != nil {
		return decimal.Zero, err
	}
	p.skipSpace()
	if !p.done() {
		return decimal.Zero, p.errorf("unexpected %q", p.src[p.pos])
	}
	return RoundPrice(v), nil
}

// maxCents is the largest magnitude a stored amount can hold.
var maxCents = decimal.NewFromInt(math.MaxInt64)

// CheckAmount rejects amounts whose cents do not fit the stored integer.
func CheckAmount(d decimal.Decimal) error {
	if RoundPrice(d).Shift(PriceScale).Abs().GreaterThan(maxCents) {
		return fmt.Errorf("%w: amount %s exceeds the storable range", ErrValidation, d)
	}
	return nil
}

// ToCents converts an amount to integer cents, rounding first. Callers check
// the amount with CheckAmount beforehand.
func ToCents(d decimal.Decimal) int64 {
	return RoundPrice(d).Shift(PriceScale).IntPart()
}

// FromCents converts stored cents back to a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -PriceScale)
}

// exprParser is a recursive descent evaluator over
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/") unary }
//	unary   = ("+" | "-") unary | primary
//	primary = number | "(" expr ")"
type exprParser struct {
	src string
	pos int
}

func (p *exprParser) expr() (decimal.Decimal, error) {
	left, err := p.term()
	if err != nil {
		return decimal.Zero, err
	}
	for {
		op, ok := p.accept('+', '-')
		if !ok {
			return left, nil
		}
		right, err := p.term()
		if err != nil {
			return decimal.Zero, err
		}
		if op == '+' {
			left = left.Add(right)
		} else {
			left = left.Sub(right)
		}
	}
}

func (p *exprParser) term() (decimal.Decimal, error) {
	left, err := p.unary()
	if err != nil {
		return decimal.Zero, err
	}
	for {
		op, ok := p.accept('*', '/')
		if !ok {
			return left, nil
		}
		right, err := p.unary()
		if err != nil {
			return decimal.Zero, err
		}
		if op == '*' {
			left = left.Mul(right)
			continue
		}
		if right.IsZero() {
			return decimal.Zero, fmt.Errorf("%w: division by zero", ErrParse)
		}
		left = left.Div(right)
	}
}

func (p *exprParser) unary() (decimal.Decimal, error) {
	if op, ok := p.accept('+', '-'); ok {
		v, err := p.unary()
		if err != nil {
			return decimal.Zero, err
		}
		if op == '-' {
			return v.Neg(), nil
		}
		return v, nil
	}
	return p.primary()
}

func (p *exprParser) primary() (decimal.Decimal, error) {
	if _, ok := p.accept('('); ok {
		v, err := p.expr()
		if err != nil {
			return decimal.Zero, err
		}
		if _, ok := p.accept(')'); !ok {
			return decimal.Zero, p.errorf("missing closing parenthesis")
		}
		return v, nil
	}
	return p.number()
}

func (p *exprParser) number() (decimal.Decimal, error) {
	p.skipSpace()
	start := p.pos
	digits, dots := 0, 0
	for !p.done() {
		c := p.src[p.pos]
		if c >= '0' && c <= '9' {
			digits++
		} else if c == '.' {
			dots++
		} else {
			break
		}
		p.pos++
	}
	if p.pos == start {
		if p.done() {
			return decimal.Zero, p.errorf("unexpected end of input")
		}
		return decimal.Zero, p.errorf("unexpected %q", p.src[p.pos])
	}
	lit := p.src[start:p.pos]
	if digits == 0 || dots > 1 || strings.HasSuffix(lit, ".") {
		return decimal.Zero, fmt.Errorf("%w: malformed number %q", ErrParse, lit)
	}
	v, err := decimal.NewFromString(lit)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: malformed number %q", ErrParse, lit)
	}
	return v, nil
}

// accept consumes the next non-space byte if it is one of ops.
func (p *exprParser) accept(ops ...byte) (byte, bool) {
	p.skipSpace()
	if p.done() {
		return 0, false
	}
	c := p.src[p.pos]
	for _, op := range ops {
		if c == op {
			p.pos++
			return c, true
		}
	}
	return 0, false
}

func (p *exprParser) skipSpace() {
	for !p.done() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *exprParser) done() bool {
	return p.pos >= len(p.src)
}

func (p *exprParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s at position %d", ErrParse, fmt.Sprintf(format, args...), p.pos+1)
}

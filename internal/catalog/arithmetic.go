package catalog

import (
	"strconv"
	"strings"

	"github.com/utafrali/FocusGate/internal/domain"
)

// Operator symbols as rendered in questions.
const (
	opAdd = "+"
	opSub = "-"
	opMul = "×"
	opDiv = "÷"
)

var arithmeticTimeLimits = [domain.MaxDifficulty]int{30, 45, 60, 90, 120}

// expr is a rendered sub-expression and its value.
type expr struct {
	text  string
	value int
}

func (e expr) grouped() string {
	if strings.ContainsAny(e.text, " ") {
		return "(" + e.text + ")"
	}
	return e.text
}

func leaf(n int) expr {
	return expr{text: strconv.Itoa(n), value: n}
}

// apply combines l and r with op. Callers guarantee the result is a
// non-negative integer.
func apply(l expr, op string, r expr) expr {
	var v int
	switch op {
	case opAdd:
		v = l.value + r.value
	case opSub:
		v = l.value - r.value
	case opMul:
		v = l.value * r.value
	case opDiv:
		v = l.value / r.value
	}
	return expr{text: l.grouped() + " " + op + " " + r.grouped(), value: v}
}

// SimpleArithmetic builds a difficulty 1 question from two operands. A
// subtraction is always rendered larger minus smaller.
func SimpleArithmetic(a, b int, op string) *domain.ArithmeticContent {
	if op == opSub && b > a {
		a, b = b, a
	}
	e := apply(leaf(a), op, leaf(b))
	return &domain.ArithmeticContent{
		Question:  e.text,
		Answer:    strconv.Itoa(e.value),
		TimeLimit: arithmeticTimeLimits[0],
	}
}

func (c *Catalog) arithmetic(d int) *domain.ArithmeticContent {
	var e expr
	switch d {
	case 1:
		op := opAdd
		if c.intN(2) == 1 {
			op = opSub
		}
		return SimpleArithmetic(c.between(1, 9), c.between(1, 9), op)
	case 2:
		e = c.twoDigitProduct()
	case 3, 4:
		// Chains of two or three operations, each step grouping what came
		// before it.
		e = leaf(c.between(2, 20))
		for range d - 1 {
			e = c.step(e)
		}
	default:
		e = c.groupedPair()
	}
	return &domain.ArithmeticContent{
		Question:  e.text,
		Answer:    strconv.Itoa(e.value),
		TimeLimit: arithmeticTimeLimits[d-1],
	}
}

// twoDigitProduct is a multiplication or an exact division of two-digit
// numbers. The division is built from divisor and quotient.
func (c *Catalog) twoDigitProduct() expr {
	a, b := c.between(10, 25), c.between(10, 15)
	if c.intN(2) == 0 {
		return apply(leaf(a), opMul, leaf(b))
	}
	return apply(leaf(a*b), opDiv, leaf(b))
}

// step extends cur with one operation that keeps the value a non-negative
// integer.
func (c *Catalog) step(cur expr) expr {
	ops := []string{opAdd}
	if cur.value >= 2 {
		ops = append(ops, opSub)
	}
	if cur.value > 0 && cur.value <= 50 {
		ops = append(ops, opMul)
	}
	divisors := smallDivisors(cur.value)
	if len(divisors) > 0 {
		ops = append(ops, opDiv)
	}

	switch op := ops[c.intN(len(ops))]; op {
	case opSub:
		return apply(cur, op, leaf(c.between(1, min(cur.value, 20))))
	case opMul:
		return apply(cur, op, leaf(c.between(2, 9)))
	case opDiv:
		return apply(cur, op, leaf(divisors[c.intN(len(divisors))]))
	default:
		return apply(cur, op, leaf(c.between(1, 20)))
	}
}

// smallDivisors lists the divisors of n in [2, 9].
func smallDivisors(n int) []int {
	var out []int
	for d := 2; d <= 9; d++ {
		if n > 0 && n%d == 0 {
			out = append(out, d)
		}
	}
	return out
}

// pair is a single random operation on fresh operands.
func (c *Catalog) pair() expr {
	switch c.intN(4) {
	case 0:
		return apply(leaf(c.between(2, 30)), opAdd, leaf(c.between(2, 30)))
	case 1:
		a := c.between(10, 40)
		return apply(leaf(a), opSub, leaf(c.between(1, a)))
	case 2:
		return apply(leaf(c.between(2, 12)), opMul, leaf(c.between(2, 12)))
	default:
		b := c.between(2, 9)
		return apply(leaf(b*c.between(1, 12)), opDiv, leaf(b))
	}
}

// groupedPair renders "(a op b) op (c op d)".
func (c *Catalog) groupedPair() expr {
	l, r := c.pair(), c.pair()
	ops := []string{opAdd}
	if l.value >= r.value {
		ops = append(ops, opSub)
	}
	if l.value*r.value <= 10000 {
		ops = append(ops, opMul)
	}
	if r.value > 0 && l.value%r.value == 0 {
		ops = append(ops, opDiv)
	}
	return apply(l, ops[c.intN(len(ops))], r)
}

func verifyArithmetic(ct *domain.ArithmeticContent, userAnswer string) bool {
	return strings.TrimSpace(userAnswer) == ct.Answer
}

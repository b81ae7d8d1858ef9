// Package notation parses and rolls dice expressions such as "2d6+3"
package notation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/KirkDiggler/rpg-tracker/internal/errors"
)

var expressionRegex = regexp.MustCompile(`^(\d*)d(\d+)\s*(?:([+-])\s*(\d+))?$`)

// Expression is a parsed dice expression
type Expression struct {
	Count    int
	Size     int
	Modifier int
}

// Roll is one evaluation of an Expression
type Roll struct {
	Dice  []int
	Total int
}

// Parse reads NdS, dS, NdS+M and NdS-M. A plain integer is a flat amount.
func Parse(s string) (Expression, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Expression{}, errors.InvalidArgument("dice notation is required")
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return Expression{}, errors.InvalidArgumentf("flat amount must not be negative: %s", s)
		}
		return Expression{Modifier: n}, nil
	}

	matches := expressionRegex.FindStringSubmatch(s)
	if matches == nil {
		return Expression{}, errors.InvalidArgumentf("invalid dice notation: %s (expected format: XdY+Z)", s)
	}

	expr := Expression{Count: 1}
	if matches[1] != "" {
		expr.Count, _ = strconv.Atoi(matches[1])
	}
	expr.Size, _ = strconv.Atoi(matches[2])
	if matches[4] != "" {
		expr.Modifier, _ = strconv.Atoi(matches[4])
		if matches[3] == "-" {
			expr.Modifier = -expr.Modifier
		}
	}

	if expr.Count <= 0 || expr.Size <= 0 {
		return Expression{}, errors.InvalidArgumentf("dice count and size must be positive: %s", s)
	}
	return expr, nil
}

// String renders the expression back to notation
func (e Expression) String() string {
	if e.Count == 0 {
		return strconv.Itoa(e.Modifier)
	}
	out := fmt.Sprintf("%dd%d", e.Count, e.Size)
	switch {
	case e.Modifier > 0:
		out += fmt.Sprintf("+%d", e.Modifier)
	case e.Modifier < 0:
		out += fmt.Sprintf("%d", e.Modifier)
	}
	return out
}

// Roll evaluates the expression. Totals never go below zero.
func (e Expression) Roll(roller dice.Roller) (*Roll, error) {
	out := &Roll{Total: e.Modifier}
	if e.Count > 0 {
		rolled, err := roller.RollN(e.Count, e.Size)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to roll %s", e)
		}
		out.Dice = rolled
		for _, d := range rolled {
			out.Total += d
		}
	}
	if out.Total < 0 {
		out.Total = 0
	}
	return out, nil
}

// Critical doubles the dice of the expression, leaving the modifier alone
func (e Expression) Critical() Expression {
	e.Count *= 2
	return e
}

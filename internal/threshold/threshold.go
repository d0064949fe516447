// Package threshold parses and evaluates pass/fail expressions such as
// "p(95)<500" or "rate<0.01" against the aggregated values of a metric.
package threshold

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrInvalidExpression is returned when an expression cannot be parsed
	ErrInvalidExpression = errors.New("invalid threshold expression")
	// ErrMissingValue is returned when the metric lacks the aggregated value
	// an expression refers to
	ErrMissingValue = errors.New("missing aggregated value")
)

var expressionPattern = regexp.MustCompile(`^\s*(avg|min|med|max|count|rate|value|p\(\s*\d+(?:\.\d+)?\s*\))\s*(<=|>=|==|!=|<|>)\s*(-?\d+(?:\.\d+)?(?:[eE][-+]?\d+)?)\s*$`)

// Expression is a parsed threshold
type Expression struct {
	Source      string
	Aggregation string // normalized, e.g. "p(95)"
	Operator    string
	Limit       float64
}

// Parse parses a threshold expression
func Parse(source string) (Expression, error) {
	m := expressionPattern.FindStringSubmatch(source)
	if m == nil {
		return Expression{}, fmt.Errorf("%w: %q", ErrInvalidExpression, source)
	}

	limit, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return Expression{}, fmt.Errorf("%w: %q: %v", ErrInvalidExpression, source, err)
	}

	return Expression{
		Source:      source,
		Aggregation: strings.ReplaceAll(m[1], " ", ""),
		Operator:    m[2],
		Limit:       limit,
	}, nil
}

// Evaluate checks the expression against a metric's aggregated values
func (e Expression) Evaluate(values map[string]float64) (bool, error) {
	actual, ok := values[e.Aggregation]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrMissingValue, e.Aggregation)
	}

	switch e.Operator {
	case "<":
		return actual < e.Limit, nil
	case "<=":
		return actual <= e.Limit, nil
	case ">":
		return actual > e.Limit, nil
	case ">=":
		return actual >= e.Limit, nil
	case "==":
		return actual == e.Limit, nil
	case "!=":
		return actual != e.Limit, nil
	}
	return false, fmt.Errorf("%w: unknown operator %q", ErrInvalidExpression, e.Operator)
}

// ValidateAll parses every expression and returns the first error
func ValidateAll(sources []string) error {
	for _, s := range sources {
		if _, err := Parse(s); err != nil {
			return err
		}
	}
	return nil
}

package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/jmespath/go-jmespath"
)

// Predicate is a compiled JMESPath expression evaluated against raw JSON
// records. A record matches when the expression yields a truthy value.
type Predicate struct {
	expression string
	jp         *jmespath.JMESPath
}

// Compile compiles expression into a Predicate
func Compile(expression string) (*Predicate, error) {
	jp, err := jmespath.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid JMESPath expression '%s': %w", expression, err)
	}
	return &Predicate{expression: expression, jp: jp}, nil
}

// String returns the source expression
func (p *Predicate) String() string {
	return p.expression
}

// Match reports whether the JSON document raw satisfies the predicate
func (p *Predicate) Match(raw []byte) (bool, error) {
	var data interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return false, fmt.Errorf("invalid JSON: %w", err)
	}

	result, err := p.jp.Search(data)
	if err != nil {
		return false, fmt.Errorf("JMESPath search failed: %w", err)
	}
	return truthy(result), nil
}

// truthy follows JMESPath truthiness: false, null, empty strings, empty
// arrays and empty objects are false, everything else is true
func truthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case []interface{}:
		return len(val) > 0
	case map[string]interface{}:
		return len(val) > 0
	default:
		return true
	}
}

// TagExpression builds an expression matching records whose data.tags carry
// ALL of the given key=value pairs
func TagExpression(pairs []string) (string, error) {
	if len(pairs) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return "", fmt.Errorf("invalid tag filter '%s' (expected key=value)", pair)
		}
		value := strings.ReplaceAll(parts[1], "'", `\'`)
		clauses = append(clauses, fmt.Sprintf("data.tags.\"%s\" == '%s'", parts[0], value))
	}
	sort.Strings(clauses)
	return strings.Join(clauses, " && "), nil
}

// Combine joins expressions with a logical AND, ignoring empty ones
func Combine(expressions ...string) string {
	var parts []string
	for _, e := range expressions {
		if strings.TrimSpace(e) != "" {
			parts = append(parts, "("+e+")")
		}
	}
	return strings.Join(parts, " && ")
}

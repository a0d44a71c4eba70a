package assertions

import (
	"fmt"
	"strconv"
	"strings"
)

type Operator string

const (
	OpEquals       Operator = "=="
	OpNotEquals    Operator = "!="
	OpGreaterThan  Operator = ">"
	OpGreaterEqual Operator = ">="
	OpLessThan     Operator = "<"
	OpLessEqual    Operator = "<="
	OpContains     Operator = "contains"
	OpNotContains  Operator = "!contains"
	OpStartsWith   Operator = "startsWith"
	OpEndsWith     Operator = "endsWith"
	OpMatches      Operator = "matches"
	OpExists       Operator = "exists"
	OpNotExists    Operator = "!exists"
	OpLength       Operator = "length"
	OpType         Operator = "type"
	OpSchema       Operator = "schema"
)

var operators = []Operator{
	OpEquals, OpNotEquals, OpGreaterEqual, OpLessEqual, OpGreaterThan, OpLessThan,
	OpNotContains, OpContains, OpStartsWith, OpEndsWith, OpMatches,
	OpNotExists, OpExists, OpLength, OpType, OpSchema,
}

// Assertion is a single check against a response.
type Assertion struct {
	Subject  string
	Operator Operator
	Expected any
}

func (a *Assertion) String() string {
	if a.Expected == nil {
		return fmt.Sprintf("%s %s", a.Subject, a.Operator)
	}
	return fmt.Sprintf("%s %s %v", a.Subject, a.Operator, a.Expected)
}

// Parse reads an expectation such as "status == 404" or "body.id exists".
// The subject may contain one space, as in "header Content-Type".
func Parse(expr string) (*Assertion, error) {
	fields := strings.Fields(expr)
	for i, f := range fields {
		op := Operator(f)
		if !isOperator(op) || i == 0 {
			continue
		}
		a := &Assertion{
			Subject:  strings.Join(fields[:i], " "),
			Operator: op,
		}
		if rest := strings.Join(fields[i+1:], " "); rest != "" {
			a.Expected = parseValue(rest)
		}
		return a, nil
	}
	return nil, fmt.Errorf("invalid expectation %q: no operator found", expr)
}

func isOperator(op Operator) bool {
	for _, o := range operators {
		if o == op {
			return true
		}
	}
	return false
}

func parseValue(s string) any {
	if len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"' || s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	return s
}

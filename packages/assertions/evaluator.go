package assertions

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/apitest/packages/http"
	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

type Result struct {
	Assertion *Assertion
	Passed    bool
	Message   string
	Actual    any
}

type Evaluator struct {
	response *http.Response
	bodyJSON gjson.Result
}

var bracketIndex = regexp.MustCompile(`\[(\d+)\]`)

func NewEvaluator(resp *http.Response) *Evaluator {
	e := &Evaluator{response: resp}
	if gjson.ValidBytes(resp.Body) && len(resp.Body) > 0 {
		e.bodyJSON = gjson.ParseBytes(resp.Body)
	}
	return e
}

func (e *Evaluator) Evaluate(a *Assertion) *Result {
	result := &Result{Assertion: a}

	actual, err := e.actualValue(a.Subject)
	if err != nil {
		result.Message = err.Error()
		return result
	}
	result.Actual = actual
	result.Passed, result.Message = e.compare(actual, a.Operator, a.Expected)

	if a.Operator == OpLength {
		result.Actual = computeLength(actual)
	}
	return result
}

// EvaluateAll runs every assertion against resp.
func EvaluateAll(resp *http.Response, assertions []*Assertion) []*Result {
	e := NewEvaluator(resp)
	results := make([]*Result, len(assertions))
	for i, a := range assertions {
		results[i] = e.Evaluate(a)
	}
	return results
}

func (e *Evaluator) actualValue(subject string) (any, error) {
	switch {
	case subject == "status":
		return e.response.StatusCode, nil
	case subject == "duration":
		return e.response.DurationMs(), nil
	case strings.HasPrefix(subject, "header"):
		name := strings.TrimSpace(strings.TrimPrefix(subject, "header"))
		if name == "" {
			return e.response.Headers, nil
		}
		if v := e.response.Header(name); v != "" {
			return v, nil
		}
		return nil, nil
	case subject == "body":
		if e.bodyJSON.Exists() {
			return e.bodyJSON.Value(), nil
		}
		return e.response.BodyString(), nil
	case strings.HasPrefix(subject, "body."):
		if !e.bodyJSON.Exists() {
			return nil, fmt.Errorf("response body is not JSON")
		}
		path := strings.TrimPrefix(bracketIndex.ReplaceAllString(strings.TrimPrefix(subject, "body."), ".$1"), ".")
		r := e.bodyJSON.Get(path)
		if !r.Exists() {
			return nil, nil
		}
		return r.Value(), nil
	default:
		return nil, fmt.Errorf("unknown subject %q", subject)
	}
}

func (e *Evaluator) compare(actual any, op Operator, expected any) (bool, string) {
	switch op {
	case OpEquals:
		return equals(actual, expected)
	case OpNotEquals:
		if ok, _ := equals(actual, expected); ok {
			return false, fmt.Sprintf("expected not to equal %v", expected)
		}
		return true, ""
	case OpGreaterThan, OpGreaterEqual, OpLessThan, OpLessEqual:
		return compareNumeric(actual, expected, op)
	case OpContains:
		if strings.Contains(fmt.Sprint(actual), fmt.Sprint(expected)) {
			return true, ""
		}
		return false, fmt.Sprintf("expected '%v' to contain '%v'", actual, expected)
	case OpNotContains:
		if strings.Contains(fmt.Sprint(actual), fmt.Sprint(expected)) {
			return false, fmt.Sprintf("expected '%v' not to contain '%v'", actual, expected)
		}
		return true, ""
	case OpStartsWith:
		if strings.HasPrefix(fmt.Sprint(actual), fmt.Sprint(expected)) {
			return true, ""
		}
		return false, fmt.Sprintf("expected '%v' to start with '%v'", actual, expected)
	case OpEndsWith:
		if strings.HasSuffix(fmt.Sprint(actual), fmt.Sprint(expected)) {
			return true, ""
		}
		return false, fmt.Sprintf("expected '%v' to end with '%v'", actual, expected)
	case OpMatches:
		return matches(actual, expected)
	case OpExists:
		if actual == nil {
			return false, "expected to exist"
		}
		return true, ""
	case OpNotExists:
		if actual != nil {
			return false, "expected not to exist"
		}
		return true, ""
	case OpLength:
		return length(actual, expected)
	case OpType:
		if got := typeName(actual); got != fmt.Sprint(expected) {
			return false, fmt.Sprintf("expected type %v, got %s", expected, got)
		}
		return true, ""
	case OpSchema:
		return schema(actual, expected)
	default:
		return false, fmt.Sprintf("unknown operator: %s", op)
	}
}

func equals(actual, expected any) (bool, string) {
	if reflect.DeepEqual(actual, expected) {
		return true, ""
	}

	actualNum, aOk := toFloat64(actual)
	expectedNum, eOk := toFloat64(expected)
	if aOk && eOk && actualNum == expectedNum {
		return true, ""
	}

	if actual != nil && expected != nil && fmt.Sprint(actual) == fmt.Sprint(expected) {
		return true, ""
	}

	return false, fmt.Sprintf("expected %v, got %v", expected, actual)
}

func compareNumeric(actual, expected any, op Operator) (bool, string) {
	a, aOk := toFloat64(actual)
	b, bOk := toFloat64(expected)
	if !aOk || !bOk {
		return false, fmt.Sprintf("cannot compare non-numeric values: %v %s %v", actual, op, expected)
	}

	var passed bool
	switch op {
	case OpGreaterThan:
		passed = a > b
	case OpGreaterEqual:
		passed = a >= b
	case OpLessThan:
		passed = a < b
	case OpLessEqual:
		passed = a <= b
	}
	if passed {
		return true, ""
	}
	return false, fmt.Sprintf("expected %v %s %v", actual, op, expected)
}

func matches(actual, expected any) (bool, string) {
	pattern := strings.TrimSuffix(strings.TrimPrefix(fmt.Sprint(expected), "/"), "/")
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Sprintf("invalid regex pattern: %v", err)
	}
	if re.MatchString(fmt.Sprint(actual)) {
		return true, ""
	}
	return false, fmt.Sprintf("expected '%v' to match /%v/", actual, pattern)
}

// computeLength returns the length of a value, or -1 if it has none
func computeLength(actual any) int {
	if actual == nil {
		return -1
	}
	rv := reflect.ValueOf(actual)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return rv.Len()
	default:
		return -1
	}
}

func length(actual, expected any) (bool, string) {
	want, ok := toFloat64(expected)
	if !ok {
		return false, fmt.Sprintf("expected length must be a number, got %v", expected)
	}
	got := computeLength(actual)
	if got == -1 {
		return false, fmt.Sprintf("cannot get length of %T", actual)
	}
	if got == int(want) {
		return true, ""
	}
	return false, fmt.Sprintf("expected length %d, got %d", int(want), got)
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64, float32, int, int64, int32:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return reflect.TypeOf(v).String()
	}
}

func schema(actual, expected any) (bool, string) {
	schemaData, err := os.ReadFile(fmt.Sprint(expected))
	if err != nil {
		return false, fmt.Sprintf("failed to read schema file: %v", err)
	}

	actualJSON, err := json.Marshal(actual)
	if err != nil {
		return false, fmt.Sprintf("failed to marshal actual value: %v", err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaData), gojsonschema.NewBytesLoader(actualJSON))
	if err != nil {
		return false, fmt.Sprintf("schema validation error: %v", err)
	}
	if result.Valid() {
		return true, ""
	}

	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return false, fmt.Sprintf("schema validation failed: %s", strings.Join(errs, "; "))
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

package scenario

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/apicheck/apicheck/client"
	"github.com/apicheck/apicheck/match"
	"github.com/apicheck/apicheck/should"
)

// Check names the kind of assertion an Expectation makes.
type Check string

const (
	CheckStatus     Check = "status"
	CheckEqual      Check = "equal"
	CheckLooseEqual Check = "loose-equal"
	CheckType       Check = "type"
	CheckPresent    Check = "present"
	CheckMissing    Check = "missing"
	CheckNonEmpty   Check = "nonempty"
	CheckCount      Check = "count"
	CheckEach       Check = "each"
	CheckHeader     Check = "header"
	CheckMatches    Check = "matches"
	CheckCompare    Check = "compare"
	CheckPredicate  Check = "predicate"
)

// Expectation is a single assertion against a response. Key is a gjson path and "" addresses the whole body.
//
// A Value written as "$name" refers to the variable `name` stored by an earlier step.
type Expectation struct {
	Check Check  `yaml:"check" json:"check"`
	Key   string `yaml:"key,omitempty" json:"key,omitempty"`
	// Value is the wanted value for equal, loose-equal, header and compare.
	Value interface{} `yaml:"value,omitempty" json:"value,omitempty"`
	// Status is the wanted status code.
	Status int        `yaml:"status,omitempty" json:"status,omitempty"`
	Type   match.Kind `yaml:"type,omitempty" json:"type,omitempty"`
	Size   int        `yaml:"size,omitempty" json:"size,omitempty"`
	// Header is the response header name, compared case-insensitively.
	Header  string   `yaml:"header,omitempty" json:"header,omitempty"`
	Pattern string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Op      match.Op `yaml:"op,omitempty" json:"op,omitempty"`
	// Each is applied to every element of the array under Key.
	Each []Expectation `yaml:"each,omitempty" json:"each,omitempty"`
	// Predicate is only available to scenarios built in code.
	Predicate match.JSON `yaml:"-" json:"-"`
	// Desc overrides the generated description.
	Desc string `yaml:"desc,omitempty" json:"desc,omitempty"`
}

func Status(code int) Expectation {
	return Expectation{Check: CheckStatus, Status: code}
}

func Equal(key string, value interface{}) Expectation {
	return Expectation{Check: CheckEqual, Key: key, Value: value}
}

// LooseEqual compares textual forms, so "1" equals 1.
func LooseEqual(key string, value interface{}) Expectation {
	return Expectation{Check: CheckLooseEqual, Key: key, Value: value}
}

func TypeOf(key string, kind match.Kind) Expectation {
	return Expectation{Check: CheckType, Key: key, Type: kind}
}

func Present(key string) Expectation {
	return Expectation{Check: CheckPresent, Key: key}
}

func Missing(key string) Expectation {
	return Expectation{Check: CheckMissing, Key: key}
}

func NonEmpty(key string) Expectation {
	return Expectation{Check: CheckNonEmpty, Key: key}
}

func Count(key string, size int) Expectation {
	return Expectation{Check: CheckCount, Key: key, Size: size}
}

func Each(key string, each ...Expectation) Expectation {
	return Expectation{Check: CheckEach, Key: key, Each: each}
}

func Header(name, value string) Expectation {
	return Expectation{Check: CheckHeader, Header: name, Value: value}
}

func Matches(key, pattern string) Expectation {
	return Expectation{Check: CheckMatches, Key: key, Pattern: pattern}
}

// Compare checks `key <op> value` numerically. `value` is a number or a "$name" variable reference.
func Compare(key string, op match.Op, value interface{}) Expectation {
	return Expectation{Check: CheckCompare, Key: key, Op: op, Value: value}
}

func Predicate(key, desc string, fn match.JSON) Expectation {
	return Expectation{Check: CheckPredicate, Key: key, Desc: desc, Predicate: fn}
}

// Describe returns a short human readable form of the expectation.
func (e Expectation) Describe() string {
	if e.Desc != "" {
		return e.Desc
	}
	key := e.Key
	if key == "" {
		key = "<body>"
	}
	switch e.Check {
	case CheckStatus:
		return fmt.Sprintf("status == %d", e.Status)
	case CheckEqual:
		return fmt.Sprintf("%s == %s", key, describeValue(e.Value))
	case CheckLooseEqual:
		return fmt.Sprintf("%s ~= %s", key, describeValue(e.Value))
	case CheckType:
		return fmt.Sprintf("%s is %s", key, e.Type)
	case CheckPresent:
		return fmt.Sprintf("%s present", key)
	case CheckMissing:
		return fmt.Sprintf("%s missing", key)
	case CheckNonEmpty:
		return fmt.Sprintf("%s non-empty", key)
	case CheckCount:
		return fmt.Sprintf("len(%s) == %d", key, e.Size)
	case CheckEach:
		parts := make([]string, len(e.Each))
		for i := range e.Each {
			parts[i] = e.Each[i].Describe()
		}
		return fmt.Sprintf("each %s: %s", key, strings.Join(parts, ", "))
	case CheckHeader:
		return fmt.Sprintf("header %s == %s", e.Header, describeValue(e.Value))
	case CheckMatches:
		return fmt.Sprintf("%s matches /%s/", key, e.Pattern)
	case CheckCompare:
		return fmt.Sprintf("%s %s %s", key, e.Op, describeValue(e.Value))
	case CheckPredicate:
		return fmt.Sprintf("%s satisfies predicate", key)
	}
	return string(e.Check)
}

func describeValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", v)
}

func (e Expectation) validate(nested bool) error {
	switch e.Check {
	case CheckStatus, CheckHeader:
		if nested {
			return fmt.Errorf("%s cannot be applied to array elements", e.Check)
		}
		if e.Check == CheckStatus && (e.Status < 100 || e.Status > 599) {
			return fmt.Errorf("status %d is not an HTTP status code", e.Status)
		}
		if e.Check == CheckHeader && e.Header == "" {
			return fmt.Errorf("header name is required")
		}
	case CheckEqual, CheckLooseEqual, CheckPresent, CheckMissing, CheckNonEmpty:
	case CheckType:
		if !e.Type.Valid() {
			return fmt.Errorf("unknown type '%s'", e.Type)
		}
	case CheckCount:
		if e.Size < 0 {
			return fmt.Errorf("count must not be negative")
		}
	case CheckEach:
		if len(e.Each) == 0 {
			return fmt.Errorf("each needs at least one nested expectation")
		}
		for i := range e.Each {
			if err := e.Each[i].validate(true); err != nil {
				return fmt.Errorf("each[%d]: %w", i, err)
			}
		}
	case CheckMatches:
		if _, err := regexp.Compile(e.Pattern); err != nil {
			return fmt.Errorf("pattern %q is invalid: %w", e.Pattern, err)
		}
	case CheckCompare:
		if !e.Op.Valid() {
			return fmt.Errorf("unknown comparison operator '%s'", e.Op)
		}
		if _, isVar := varRef(e.Value); !isVar {
			if _, ok := toFloat(e.Value); !ok {
				return fmt.Errorf("compare value '%v' is not a number", e.Value)
			}
		}
	case CheckPredicate:
		if e.Predicate == nil {
			return fmt.Errorf("predicate function is nil")
		}
	default:
		return fmt.Errorf("unknown check '%s'", e.Check)
	}
	return nil
}

// Evaluate checks the expectation against `res`. Returns a *client.ParseError if the expectation needs JSON and
// the body is not JSON, or a plain error describing the mismatch.
func (e Expectation) Evaluate(res *client.Response, vars Vars) error {
	switch e.Check {
	case CheckStatus:
		return should.MatchStatus(res, e.Status)
	case CheckHeader:
		return should.MatchHeader(res, e.Header, fmt.Sprint(e.Value))
	}
	body, err := res.JSON()
	if err != nil {
		return err
	}
	return e.evaluateJSON(body, vars)
}

func (e Expectation) evaluateJSON(body gjson.Result, vars Vars) error {
	m, err := e.matcher(vars)
	if err != nil {
		return err
	}
	return m(body)
}

// matcher converts the expectation into a match.JSON, resolving variable references against `vars`.
func (e Expectation) matcher(vars Vars) (match.JSON, error) {
	switch e.Check {
	case CheckEqual:
		v, err := resolve(e.Value, vars)
		if err != nil {
			return nil, err
		}
		return match.JSONKeyEqual(e.Key, v), nil
	case CheckLooseEqual:
		v, err := resolve(e.Value, vars)
		if err != nil {
			return nil, err
		}
		return match.JSONKeyLooseEqual(e.Key, v), nil
	case CheckType:
		return match.JSONKeyOfKind(e.Key, e.Type), nil
	case CheckPresent:
		return match.JSONKeyPresent(e.Key), nil
	case CheckMissing:
		return match.JSONKeyMissing(e.Key), nil
	case CheckNonEmpty:
		return match.JSONKeyNonEmpty(e.Key), nil
	case CheckCount:
		return match.JSONKeyArrayOfSize(e.Key, e.Size), nil
	case CheckMatches:
		return match.JSONKeyMatches(e.Key, e.Pattern), nil
	case CheckCompare:
		v, err := resolve(e.Value, vars)
		if err != nil {
			return nil, err
		}
		want, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("compare value '%v' is not a number", v)
		}
		return match.JSONKeyCompare(e.Key, e.Op, want), nil
	case CheckEach:
		nested := make([]match.JSON, len(e.Each))
		for i := range e.Each {
			m, err := e.Each[i].matcher(vars)
			if err != nil {
				return nil, err
			}
			nested[i] = m
		}
		return match.JSONArrayEach(e.Key, func(el gjson.Result) error {
			return match.AllOf(nested...)(el)
		}), nil
	case CheckPredicate:
		if e.Predicate == nil {
			return nil, fmt.Errorf("predicate function is nil")
		}
		return func(body gjson.Result) error {
			if e.Key != "" {
				body = body.Get(e.Key)
				if !body.Exists() {
					return fmt.Errorf("key '%s' missing", e.Key)
				}
			}
			return e.Predicate(body)
		}, nil
	}
	return nil, fmt.Errorf("check '%s' cannot be applied to a JSON value", e.Check)
}

// varRef returns the variable name if `v` is a "$name" reference.
func varRef(v interface{}) (string, bool) {
	s, ok := v.(string)
	if !ok || len(s) < 2 || s[0] != '$' || !varNameRegex.MatchString(s[1:]) {
		return "", false
	}
	return s[1:], true
}

// resolve returns `v`, or the stored value if `v` is a variable reference.
func resolve(v interface{}, vars Vars) (interface{}, error) {
	name, ok := varRef(v)
	if !ok {
		return v, nil
	}
	stored, ok := vars[name]
	if !ok {
		return nil, fmt.Errorf("variable '%s' was not stored", name)
	}
	return stored.Value(), nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

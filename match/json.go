// package match contains matchers for HTTP and JSON data.
//
// Matchers are composable functions which check for the data specified, returning a golang error if a matcher fails.
// They are typically used with the 'must' package in the following way:
//
//	res, err := github.Do(ctx, "GET", "/users/octocat")
//	must.NotError(t, "GET /users/octocat", err)
//	must.MatchResponse(t, res, match.HTTPResponse{
//		StatusCode: 200,
//		JSON: []match.JSON{
//			match.JSONKeyEqual("type", "User"),
//			match.JSONKeyOfKind("name", match.KindString),
//		},
//	})
//
// Matchers have no concept of tests, and do not automatically fail tests if the match fails. The scenario
// runner evaluates them directly and records each failure as an outcome. If you want matches to fail a test,
// you can use the 'must' package.
//
// Every key is a gjson path, see https://godoc.org/github.com/tidwall/gjson#Get for details. The empty key
// refers to the whole body.
package match

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// JSON will perform some matches on the given JSON body, returning an error on a mis-match.
// It can be assumed that the bytes are valid JSON.
type JSON func(body gjson.Result) error

// Kind is a JSON value category as seen by a contract check.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindBool    Kind = "bool"
	KindObject  Kind = "object"
	KindArray   Kind = "array"
	KindNull    Kind = "null"
)

// KindOf returns the kind of `res`. Integers report KindInteger, other numbers KindNumber.
func KindOf(res gjson.Result) Kind {
	switch res.Type {
	case gjson.String:
		return KindString
	case gjson.True, gjson.False:
		return KindBool
	case gjson.Null:
		return KindNull
	case gjson.Number:
		if isIntegerLiteral(res.Raw) {
			return KindInteger
		}
		return KindNumber
	}
	if res.IsArray() {
		return KindArray
	}
	return KindObject
}

// Accepts reports whether a value of kind `got` satisfies a check for kind `k`. Integers are numbers.
func (k Kind) Accepts(got Kind) bool {
	if k == got {
		return true
	}
	return k == KindNumber && got == KindInteger
}

// Valid reports whether `k` is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindString, KindNumber, KindInteger, KindBool, KindObject, KindArray, KindNull:
		return true
	}
	return false
}

func isIntegerLiteral(raw string) bool {
	return raw != "" && !strings.ContainsAny(raw, ".eE")
}

// lookup returns the value under `key`, or the whole body if `key` is empty.
func lookup(body gjson.Result, key string) gjson.Result {
	if key == "" {
		return body
	}
	return body.Get(key)
}

func keyName(key string) string {
	if key == "" {
		return "<body>"
	}
	return key
}

// JSONKeyEqual returns a matcher which will check that `wantKey` is present and its value matches `wantValue`.
// `wantValue` is matched via jsonDeepEqual and the JSON takes the forms according to https://godoc.org/github.com/tidwall/gjson#Result.Value
func JSONKeyEqual(wantKey string, wantValue interface{}) JSON {
	return func(body gjson.Result) error {
		res := lookup(body, wantKey)
		if !res.Exists() {
			return fmt.Errorf("key '%s' missing", keyName(wantKey))
		}
		gotValue := res.Value()
		if !jsonDeepEqual([]byte(res.Raw), wantValue) {
			return fmt.Errorf(
				"key '%s' got '%v' (type %T) want '%v' (type %T)",
				keyName(wantKey), gotValue, gotValue, wantValue, wantValue,
			)
		}
		return nil
	}
}

// JSONKeyLooseEqual returns a matcher which compares the textual form of `wantKey` with the textual form of
// `wantValue`, so the string "1" and the number 1 are equal. Use this for collaborators which echo submitted
// values back with a different JSON type.
func JSONKeyLooseEqual(wantKey string, wantValue interface{}) JSON {
	return func(body gjson.Result) error {
		res := lookup(body, wantKey)
		if !res.Exists() {
			return fmt.Errorf("key '%s' missing", keyName(wantKey))
		}
		want := fmt.Sprint(wantValue)
		if wantValue == nil {
			want = "null"
		}
		got := res.String()
		if res.Type == gjson.Null {
			got = "null"
		}
		if got != want {
			return fmt.Errorf("key '%s' got '%s' want '%s' (loose)", keyName(wantKey), got, want)
		}
		return nil
	}
}

// JSONKeyPresent returns a matcher which will check that `wantKey` is present in the JSON object.
func JSONKeyPresent(wantKey string) JSON {
	return func(body gjson.Result) error {
		res := lookup(body, wantKey)
		if !res.Exists() {
			return fmt.Errorf("key '%s' missing", keyName(wantKey))
		}
		return nil
	}
}

// JSONKeyMissing returns a matcher which will check that `forbiddenKey` is not present in the JSON object.
func JSONKeyMissing(forbiddenKey string) JSON {
	return func(body gjson.Result) error {
		res := lookup(body, forbiddenKey)
		if res.Exists() {
			return fmt.Errorf("key '%s' present", keyName(forbiddenKey))
		}
		return nil
	}
}

// JSONKeyOfKind returns a matcher which will check that `wantKey` is present and holds a value of `kind`.
// Objects are distinguished from arrays and integers from other numbers.
func JSONKeyOfKind(wantKey string, kind Kind) JSON {
	return func(body gjson.Result) error {
		res := lookup(body, wantKey)
		if !res.Exists() {
			return fmt.Errorf("key '%s' missing", keyName(wantKey))
		}
		if got := KindOf(res); !kind.Accepts(got) {
			return fmt.Errorf("key '%s' is of the wrong kind, got %s want %s", keyName(wantKey), got, kind)
		}
		return nil
	}
}

// JSONKeyNonEmpty returns a matcher which will check that `wantKey` is a non-empty array, object or string.
func JSONKeyNonEmpty(wantKey string) JSON {
	return func(body gjson.Result) error {
		res := lookup(body, wantKey)
		if !res.Exists() {
			return fmt.Errorf("key '%s' missing", keyName(wantKey))
		}
		switch {
		case res.IsArray():
			if len(res.Array()) == 0 {
				return fmt.Errorf("key '%s' is an empty array", keyName(wantKey))
			}
		case res.IsObject():
			if len(res.Map()) == 0 {
				return fmt.Errorf("key '%s' is an empty object", keyName(wantKey))
			}
		case res.Type == gjson.String:
			if res.Str == "" {
				return fmt.Errorf("key '%s' is an empty string", keyName(wantKey))
			}
		default:
			return fmt.Errorf("key '%s' is %s, which has no size", keyName(wantKey), KindOf(res))
		}
		return nil
	}
}

// JSONKeyArrayOfSize returns a matcher which will check that `wantKey` is present and
// its value is an array with the given size.
func JSONKeyArrayOfSize(wantKey string, wantSize int) JSON {
	return func(body gjson.Result) error {
		res := lookup(body, wantKey)
		if !res.Exists() {
			return fmt.Errorf("key '%s' missing", keyName(wantKey))
		}
		if !res.IsArray() {
			return fmt.Errorf("key '%s' is not an array", keyName(wantKey))
		}
		entries := res.Array()
		if len(entries) != wantSize {
			return fmt.Errorf("key '%s' is an array of the wrong size, got %v want %v", keyName(wantKey), len(entries), wantSize)
		}
		return nil
	}
}

// JSONKeyMatches returns a matcher which will check that `wantKey` is a string matching `pattern`.
// An invalid pattern makes every match fail.
func JSONKeyMatches(wantKey string, pattern string) JSON {
	re, compileErr := regexp.Compile(pattern)
	return func(body gjson.Result) error {
		if compileErr != nil {
			return fmt.Errorf("pattern %q is invalid: %s", pattern, compileErr)
		}
		res := lookup(body, wantKey)
		if !res.Exists() {
			return fmt.Errorf("key '%s' missing", keyName(wantKey))
		}
		if res.Type != gjson.String {
			return fmt.Errorf("key '%s' is %s, want a string matching %q", keyName(wantKey), KindOf(res), pattern)
		}
		if !re.MatchString(res.Str) {
			return fmt.Errorf("key '%s' value %q does not match %q", keyName(wantKey), res.Str, pattern)
		}
		return nil
	}
}

// Op is a numeric comparison operator.
type Op string

const (
	OpLT Op = "lt"
	OpLE Op = "le"
	OpGT Op = "gt"
	OpGE Op = "ge"
	OpEQ Op = "eq"
	OpNE Op = "ne"
)

// Valid reports whether `op` is a known operator.
func (op Op) Valid() bool {
	switch op {
	case OpLT, OpLE, OpGT, OpGE, OpEQ, OpNE:
		return true
	}
	return false
}

// Apply returns the result of `got <op> want`.
func (op Op) Apply(got, want float64) bool {
	switch op {
	case OpLT:
		return got < want
	case OpLE:
		return got <= want
	case OpGT:
		return got > want
	case OpGE:
		return got >= want
	case OpEQ:
		return got == want
	case OpNE:
		return got != want
	}
	return false
}

// JSONKeyCompare returns a matcher which will check that `wantKey` is a number and that `value <op> want` holds.
func JSONKeyCompare(wantKey string, op Op, want float64) JSON {
	return func(body gjson.Result) error {
		if !op.Valid() {
			return fmt.Errorf("unknown comparison operator '%s'", op)
		}
		res := lookup(body, wantKey)
		if !res.Exists() {
			return fmt.Errorf("key '%s' missing", keyName(wantKey))
		}
		if res.Type != gjson.Number {
			return fmt.Errorf("key '%s' is %s, want a number", keyName(wantKey), KindOf(res))
		}
		if !op.Apply(res.Num, want) {
			return fmt.Errorf("key '%s' got %v, want %s %v", keyName(wantKey), res.Num, op, want)
		}
		return nil
	}
}

// JSONArrayEach returns a matcher which will check that `wantKey` is an array then loops over each
// item calling `fn`. If `fn` returns an error, iterating stops and an error is returned.
func JSONArrayEach(wantKey string, fn func(gjson.Result) error) JSON {
	return func(body gjson.Result) error {
		body = lookup(body, wantKey)
		if !body.Exists() {
			return fmt.Errorf("missing key '%s'", keyName(wantKey))
		}
		if !body.IsArray() {
			return fmt.Errorf("key '%s' is not an array", keyName(wantKey))
		}
		var err error
		i := 0
		body.ForEach(func(_, val gjson.Result) bool {
			if err = fn(val); err != nil {
				err = fmt.Errorf("%s[%d]: %w", keyName(wantKey), i, err)
			}
			i++
			return err == nil
		})
		return err
	}
}

// JSONMapEach returns a matcher which will check that `wantKey` is a map then loops over each
// item calling `fn`. If `fn` returns an error, iterating stops and an error is returned.
func JSONMapEach(wantKey string, fn func(k, v gjson.Result) error) JSON {
	return func(body gjson.Result) error {
		res := lookup(body, wantKey)
		if !res.Exists() {
			return fmt.Errorf("missing key '%s'", keyName(wantKey))
		}
		if !res.IsObject() {
			return fmt.Errorf("key '%s' is not an object", keyName(wantKey))
		}
		var err error
		res.ForEach(func(key, val gjson.Result) bool {
			err = fn(key, val)
			return err == nil
		})
		return err
	}
}

// AllOf builds a checker which accepts a json body iff every one of `checkers` accepts it. The first
// failure is returned.
func AllOf(checkers ...JSON) JSON {
	return func(body gjson.Result) error {
		for _, check := range checkers {
			if err := check(body); err != nil {
				return err
			}
		}
		return nil
	}
}

// AnyOf takes 1 or more `checkers`, and builds a new checker which accepts a given
// json body iff it's accepted by at least one of the original `checkers`.
func AnyOf(checkers ...JSON) JSON {
	return func(body gjson.Result) error {
		if len(checkers) == 0 {
			return fmt.Errorf("must provide at least one checker to AnyOf")
		}

		errors := make([]error, len(checkers))
		for i, check := range checkers {
			errors[i] = check(body)
			if errors[i] == nil {
				return nil
			}
		}

		builder := strings.Builder{}
		builder.WriteString("all checks failed:")
		for _, err := range errors {
			builder.WriteString("\n    ")
			builder.WriteString(err.Error())
		}
		return fmt.Errorf("%s", builder.String())
	}
}

// jsonDeepEqual compares raw json with a json-serializable value, seeing if they're equal.
// It forces `gotJson` through a JSON parser to ensure keys/whitespace are identical to the marshalled form of `wantValue`.
func jsonDeepEqual(gotJson []byte, wantValue interface{}) bool {
	// marshal what the caller gave us
	wantBytes, _ := json.Marshal(wantValue)
	// re-marshal what the network gave us to account for key ordering
	var gotVal interface{}
	_ = json.Unmarshal(gotJson, &gotVal)
	gotBytes, _ := json.Marshal(gotVal)
	return bytes.Equal(gotBytes, wantBytes)
}

package match

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

const user = `{
	"id": 1,
	"name": "Leanne Graham",
	"email": "Sincere@april.biz",
	"score": 4.5,
	"active": true,
	"manager": null,
	"address": {"street": "Kulas Light", "city": "Gwenborough"},
	"tags": ["a", "b", "c"],
	"empty": [],
	"blank": ""
}`

func TestMatchers(t *testing.T) {
	body := gjson.Parse(user)
	testCases := []struct {
		name    string
		matcher JSON
		wantErr bool
	}{
		{"equal string", JSONKeyEqual("name", "Leanne Graham"), false},
		{"equal number", JSONKeyEqual("id", 1), false},
		{"equal wrong type", JSONKeyEqual("id", "1"), true},
		{"equal object ignores ordering", JSONKeyEqual("address", map[string]string{"city": "Gwenborough", "street": "Kulas Light"}), false},
		{"equal missing", JSONKeyEqual("nope", 1), true},
		{"loose string vs number", JSONKeyLooseEqual("id", "1"), false},
		{"loose bool", JSONKeyLooseEqual("active", true), false},
		{"loose null", JSONKeyLooseEqual("manager", nil), false},
		{"loose mismatch", JSONKeyLooseEqual("id", 2), true},
		{"present", JSONKeyPresent("address.city"), false},
		{"present null", JSONKeyPresent("manager"), false},
		{"present missing", JSONKeyPresent("address.zipcode"), true},
		{"missing", JSONKeyMissing("title"), false},
		{"missing but present", JSONKeyMissing("id"), true},
		{"kind integer", JSONKeyOfKind("id", KindInteger), false},
		{"kind integer accepted as number", JSONKeyOfKind("id", KindNumber), false},
		{"kind float is not integer", JSONKeyOfKind("score", KindInteger), true},
		{"kind object", JSONKeyOfKind("address", KindObject), false},
		{"kind array is not object", JSONKeyOfKind("tags", KindObject), true},
		{"kind null", JSONKeyOfKind("manager", KindNull), false},
		{"kind bool", JSONKeyOfKind("active", KindBool), false},
		{"kind of body", JSONKeyOfKind("", KindObject), false},
		{"nonempty array", JSONKeyNonEmpty("tags"), false},
		{"nonempty empty array", JSONKeyNonEmpty("empty"), true},
		{"nonempty empty string", JSONKeyNonEmpty("blank"), true},
		{"nonempty number", JSONKeyNonEmpty("id"), true},
		{"size", JSONKeyArrayOfSize("tags", 3), false},
		{"size wrong", JSONKeyArrayOfSize("tags", 2), true},
		{"size not array", JSONKeyArrayOfSize("address", 2), true},
		{"matches", JSONKeyMatches("email", `^[^@,.][^@,]*@[^@,]*\.[^@,]*[^@,.]$`), false},
		{"matches fails", JSONKeyMatches("name", `^\d+$`), true},
		{"matches bad pattern", JSONKeyMatches("name", `(`), true},
		{"compare gt", JSONKeyCompare("id", OpGT, 0), false},
		{"compare le fails", JSONKeyCompare("score", OpLE, 4), true},
		{"compare non number", JSONKeyCompare("name", OpEQ, 0), true},
		{"compare bad op", JSONKeyCompare("id", Op("approx"), 1), true},
		{"array each", JSONArrayEach("tags", func(r gjson.Result) error {
			if r.Type != gjson.String {
				return fmt.Errorf("not a string")
			}
			return nil
		}), false},
		{"array each not array", JSONArrayEach("address", func(gjson.Result) error { return nil }), true},
		{"map each", JSONMapEach("address", func(k, v gjson.Result) error {
			if v.Str == "" {
				return fmt.Errorf("%s empty", k.Str)
			}
			return nil
		}), false},
		{"any of", AnyOf(JSONKeyPresent("nope"), JSONKeyPresent("id")), false},
		{"any of none", AnyOf(JSONKeyPresent("nope"), JSONKeyPresent("nada")), true},
		{"all of", AllOf(JSONKeyPresent("id"), JSONKeyPresent("nope")), true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.matcher(body)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestArrayEachReportsIndex(t *testing.T) {
	body := gjson.Parse(`[{"completed":true},{"completed":"no"}]`)
	err := JSONArrayEach("", func(r gjson.Result) error {
		return JSONKeyOfKind("completed", KindBool)(r)
	})(body)
	assert.ErrorContains(t, err, "<body>[1]")
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindInteger, KindOf(gjson.Parse(`12`)))
	assert.Equal(t, KindNumber, KindOf(gjson.Parse(`1e3`)))
	assert.Equal(t, KindArray, KindOf(gjson.Parse(`[]`)))
	assert.Equal(t, KindObject, KindOf(gjson.Parse(`{}`)))
	assert.True(t, Kind("integer").Valid())
	assert.False(t, Kind("int").Valid())
}

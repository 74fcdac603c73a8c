package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringList_UnmarshalJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"null", `null`, []string{}},
		{"comma string", `" Diabetes , ,Celiaquía "`, []string{"Diabetes", "Celiaquía"}},
		{"single string", `"pescado"`, []string{"pescado"}},
		{"empty string", `""`, []string{}},
		{"array with junk", `["  nueces", 3, null, "", "leche"]`, []string{"nueces", "leche"}},
		{"object", `{"a":1}`, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var l StringList
			require.NoError(t, json.Unmarshal([]byte(tc.in), &l))
			assert.Equal(t, tc.want, []string(l))
		})
	}
}

func TestStringList_AbsentFieldDecodesEmpty(t *testing.T) {
	var p UserProfile
	require.NoError(t, json.Unmarshal([]byte(`{"uid":"u1","allergies":"Gluten, Lactosa"}`), &p))
	assert.Empty(t, p.Diseases)
	assert.Equal(t, StringList{"Gluten", "Lactosa"}, p.Allergies)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"diseases":[]`)
}

func TestStringList_Scan(t *testing.T) {
	var l StringList
	require.NoError(t, l.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, StringList{"a", "b"}, l)

	require.NoError(t, l.Scan("x, y"))
	assert.Equal(t, StringList{"x", "y"}, l)

	v, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestFlexString(t *testing.T) {
	var r struct {
		A FlexString `json:"a"`
		B FlexString `json:"b"`
		C FlexString `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":35,"b":" 30 min ","c":null}`), &r))
	assert.Equal(t, FlexString("35"), r.A)
	assert.Equal(t, FlexString("30 min"), r.B)
	assert.Equal(t, FlexString(""), r.C)

	assert.Error(t, json.Unmarshal([]byte(`{"a":true}`), &r))
}

func TestDecision_RetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 1, Decision{}.RetryAfterSeconds())
	assert.Equal(t, 450, Decision{RetryAfter: 450_000_000_000}.RetryAfterSeconds())
	assert.Equal(t, 2, Decision{RetryAfter: 1_000_000_001}.RetryAfterSeconds())
}

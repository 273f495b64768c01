package transformer

import (
	"encoding/json"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBoolEncoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    BoolEncoding
		wantErr bool
	}{
		{in: "token", want: BoolTokens},
		{in: " Yes/No ", want: BoolTokens},
		{in: "integer", want: BoolIntegers},
		{in: "1/0", want: BoolIntegers},
		{in: "", wantErr: true},
		{in: "bits", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseBoolEncoding(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

// TestNormalizeBooleans checks both encodings and that false never falls
// through to the zero rule.
func TestNormalizeBooleans(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "yes", Normalize(true, BoolTokens))
	assert.Equal(t, "no", Normalize(false, BoolTokens))
	assert.Equal(t, EncodedBool(1), Normalize(true, BoolIntegers))
	assert.Equal(t, EncodedBool(0), Normalize(false, BoolIntegers))

	// Zero value of BoolEncoding behaves like tokens.
	assert.Equal(t, "no", Normalize(false, ""))

	v, err := EncodedBool(0).Value()
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
}

func TestNormalizeEmptyValuesAreNull(t *testing.T) {
	t.Parallel()

	empties := []any{
		nil,
		"",
		[]any{},
		map[string]any{},
		0,
		int64(0),
		0.0,
		float32(0),
		json.Number("0"),
		json.Number("0.0"),
		json.Number("-0"),
		gojson.Number("0"),
	}
	for _, enc := range []BoolEncoding{BoolTokens, BoolIntegers} {
		for _, v := range empties {
			assert.Nil(t, Normalize(v, enc), "%#v under %s", v, enc)
		}
	}
}

func TestNormalizePassThrough(t *testing.T) {
	t.Parallel()

	values := []any{
		"X",
		" ",
		int64(42),
		-7,
		3.5,
		[]any{"a"},
		map[string]any{"k": "v"},
	}
	for _, v := range values {
		assert.Equal(t, v, Normalize(v, BoolTokens), "%#v", v)
	}
}

func TestNormalizeJSONNumbers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(1200000), Normalize(json.Number("1200000"), BoolTokens))
	assert.Equal(t, 7.25, Normalize(json.Number("7.25"), BoolTokens))
	assert.Equal(t, 100.0, Normalize(json.Number("1e2"), BoolTokens))
	assert.Equal(t, int64(-3), Normalize(gojson.Number("-3"), BoolTokens))
}

// TestNormalizeIdempotent applies Normalize twice to values that are already
// in storage form and to raw values.
func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []any{
		nil, "", "plot", true, false, 0, 12, 0.0, 4.5,
		json.Number("0"), json.Number("99"), json.Number("2.5"),
		[]any{}, map[string]any{},
	}
	for _, enc := range []BoolEncoding{BoolTokens, BoolIntegers} {
		for _, v := range inputs {
			once := Normalize(v, enc)
			assert.Equal(t, once, Normalize(once, enc), "%#v under %s", v, enc)
		}
	}
}

package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferValidationRule(t *testing.T) {
	tests := []struct {
		unit     string
		max      float64
		decimals int
	}{
		{"秒", 999.99, 2},
		{"cm", 999, 1},
		{"次", 9999, 0},
		{"kg", 999.9, 1},
		{"ml", 9999, 0},
		{"分秒", 5999.99, 2},
		{"furlongs", 99999, 2},
	}
	for _, tt := range tests {
		rule := InferValidationRule(tt.unit)
		require.NotNil(t, rule.Max, tt.unit)
		require.NotNil(t, rule.Decimals, tt.unit)
		assert.Equal(t, tt.max, *rule.Max, tt.unit)
		assert.Equal(t, tt.decimals, *rule.Decimals, tt.unit)
		assert.Equal(t, 0.0, *rule.Min, tt.unit)
	}
}

func TestValidationRuleResolution(t *testing.T) {
	assert.Equal(t, 0.01, ValidationRule{}.Resolution())
	assert.Equal(t, 1.0, ruleOf(0, 10, 0).Resolution())
	assert.InDelta(t, 0.1, ruleOf(0, 10, 1).Resolution(), 1e-12)
}

func TestValidateValue(t *testing.T) {
	numeric := ruleOf(0, 300, 1)
	required := numeric
	required.Required = true
	timed := ruleOf(60, 900, 0)

	tests := []struct {
		name    string
		value   Value
		rule    ValidationRule
		kind    ValueType
		wantErr bool
	}{
		{"absent optional", Value{}, numeric, TypeNumeric, false},
		{"absent required", Value{}, required, TypeNumeric, true},
		{"blank text required", Text("  "), required, TypeNumeric, true},
		{"within range", Number(56.5), numeric, TypeNumeric, false},
		{"numeric text", Text("56.5"), numeric, TypeNumeric, false},
		{"below min", Number(-1), numeric, TypeNumeric, true},
		{"above max", Number(300.5), numeric, TypeNumeric, true},
		{"too many decimals", Number(56.55), numeric, TypeNumeric, true},
		{"not a number", Text("abc"), numeric, TypeNumeric, true},
		{"time text", Text("3:24"), timed, TypeTime, false},
		{"time seconds number", Number(204), timed, TypeTime, false},
		{"time below min", Text("0:45"), timed, TypeTime, true},
		{"time fractional seconds", Text("3:24.5"), timed, TypeTime, true},
		{"malformed time", Text("3-24"), timed, TypeTime, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateValue(tt.value, tt.rule, tt.kind)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMeasurement)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestItemRule(t *testing.T) {
	c := DefaultCatalog()
	height, _ := c.Find(CodeHeight)
	rule := height.Rule()
	assert.True(t, rule.Required)
	assert.Equal(t, 250.0, *rule.Max)

	inferred := Item{Code: "x", Unit: "次", Required: true}.Rule()
	assert.True(t, inferred.Required)
	assert.Equal(t, 0, *inferred.Decimals)
}

package format

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCount(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"zero", "0", "0"},
		{"small", "5", "5"},
		{"thousands", "1234567", "1,234,567"},
		{"fraction", "1234.5", "1,234.5"},
		{"long fraction truncated", "0.123456789", "0.123456"},
		{"trailing zeros dropped", "10.500000", "10.5"},
		{"negative", "-1000", "-1,000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Count(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"zero", "0", "0%"},
		{"whole", "0.25", "25%"},
		{"full", "1", "100%"},
		{"two places", "0.3333333", "33.33%"},
		{"tiny share", "0.0000123", "0.001%"},
		{"under one percent", "0.005", "0.5%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percentage(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestAddress(t *testing.T) {
	addr := "hqdL4AZaFZ0huQHbAsYxdTwG6vpibK7ALWKNzmWaD4Q"

	assert.Equal(t, "hqdL4...WaD4Q", Address(addr, false))
	assert.Equal(t, "(hqdL4...WaD4Q)", Address(addr, true))
	assert.Equal(t, "short", Address("short", false))
	assert.Equal(t, "", Address("", true))
}

func TestValidAddress(t *testing.T) {
	assert.True(t, ValidAddress("hqdL4AZaFZ0huQHbAsYxdTwG6vpibK7ALWKNzmWaD4Q"))
	assert.True(t, ValidAddress("0x52908400098527886E0F7030069857D2E4169EE7"))
	assert.False(t, ValidAddress(""))
	assert.False(t, ValidAddress("not-an-address"))
	assert.False(t, ValidAddress("hqdL4AZaFZ0huQHbAsYxdTwG6vpibK7ALWKNzmWaD4Q!"))
}

func TestDenominate(t *testing.T) {
	assert.True(t, decimal.NewFromInt(5).Equal(Denominate(decimal.NewFromInt(5000000), 6)))
	assert.True(t, decimal.NewFromInt(42).Equal(Denominate(decimal.NewFromInt(42), 0)))
	assert.Equal(t, "5", Count(Denominate(decimal.NewFromInt(5000000), 6)))
}

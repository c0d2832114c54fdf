package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.07", "1.07"},
		{"0.535", "0.53"},
		{"0.539", "0.53"},
		{"3.9999", "3.99"},
		{"0.00", "0.00"},
	}
	for _, tt := range tests {
		d, err := decimal.NewFromString(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, Round(d).StringFixed(2), "Round(%s)", tt.in)
	}
}

func TestParse(t *testing.T) {
	d, err := Parse("0.35")
	require.NoError(t, err)
	assert.Equal(t, "0.35", d.StringFixed(2))

	d, err = Parse("25.999")
	require.NoError(t, err)
	assert.Equal(t, "25.99", d.StringFixed(2))

	_, err = Parse("not money")
	assert.Error(t, err)
}

func TestIsPositive(t *testing.T) {
	assert.True(t, IsPositive(decimal.NewFromInt(1)))
	assert.False(t, IsPositive(decimal.Zero))
	assert.False(t, IsPositive(decimal.NewFromInt(-1)))
}

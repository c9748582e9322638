package domain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnits(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		decimals int32
		want     string
		wantErr  bool
	}{
		{
			name:     "whole amount",
			input:    "100",
			decimals: 18,
			want:     "100000000000000000000",
		},
		{
			name:     "fractional amount",
			input:    "0.5",
			decimals: 18,
			want:     "500000000000000000",
		},
		{
			name:     "one smallest unit",
			input:    "0.000000000000000001",
			decimals: 18,
			want:     "1",
		},
		{
			name:     "below one smallest unit is rejected, not rounded",
			input:    "0.0000000000000000001",
			decimals: 18,
			wantErr:  true,
		},
		{
			name:     "negative",
			input:    "-1",
			decimals: 18,
			wantErr:  true,
		},
		{
			name:     "malformed",
			input:    "1.2.3",
			decimals: 18,
			wantErr:  true,
		},
		{
			name:     "empty",
			input:    "",
			decimals: 18,
			wantErr:  true,
		},
		{
			name:     "zero is valid",
			input:    "0",
			decimals: 18,
			want:     "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUnits(tt.input, tt.decimals)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFormatUnitsTruncates(t *testing.T) {
	raw, ok := new(big.Int).SetString("1999999999999999999", 10) // 1.999999999999999999
	require.True(t, ok)

	assert.Equal(t, "1.9999", FormatUnits(raw, 18, BalanceDisplayPlaces))
	assert.Equal(t, "1.99", FormatUnits(raw, 18, AmountDisplayPlaces))
	assert.Equal(t, "1.99999", FormatUnits(raw, 18, PriceDisplayPlaces))
	assert.Equal(t, "0.0000", FormatUnits(nil, 18, BalanceDisplayPlaces))
}

func TestAccountEqual(t *testing.T) {
	a := Account("0xABCDef0123456789abcdef0123456789ABCDEF01")
	b := Account("0xabcdef0123456789abcdef0123456789abcdef01")
	c := Account("0x1111111111111111111111111111111111111111")

	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))
	assert.False(t, a.Equal(c))
}

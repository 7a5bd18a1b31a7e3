package cmn

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wei(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad test value: " + s)
	}
	return v
}

func TestStr2Wei(t *testing.T) {
	v, err := Str2Wei("5", POLDecimals)
	require.NoError(t, err)
	assert.Equal(t, wei("5000000000000000000"), v)

	v, err = Str2Wei("1.5", POLDecimals)
	require.NoError(t, err)
	assert.Equal(t, wei("1500000000000000000"), v)

	v, err = Str2Wei("0.000000000000000001", POLDecimals)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1), v)

	v, err = Str2Wei(".5", POLDecimals)
	require.NoError(t, err)
	assert.Equal(t, wei("500000000000000000"), v)

	v, err = Str2Wei("-2", POLDecimals)
	require.NoError(t, err)
	assert.Equal(t, wei("-2000000000000000000"), v)

	v, err = Str2Wei(" 3 ", POLDecimals)
	require.NoError(t, err)
	assert.Equal(t, wei("3000000000000000000"), v)

	// sub-wei digits are truncated, not rounded
	v, err = Str2Wei("0.0000000000000000019", POLDecimals)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1), v)
}

func TestStr2WeiInvalid(t *testing.T) {
	for _, s := range []string{"", " ", "abc", "1.2.3", "1,5", ".", "5 POL"} {
		_, err := Str2Wei(s, POLDecimals)
		assert.Error(t, err, "expected error for %q", s)
	}
}

func TestFmtAmount(t *testing.T) {
	assert.Equal(t, "5", FmtAmount(wei("5000000000000000000"), POLDecimals))
	assert.Equal(t, "1.5", FmtAmount(wei("1500000000000000000"), POLDecimals))
	assert.Equal(t, "0.000000000000000001", FmtAmount(big.NewInt(1), POLDecimals))
	assert.Equal(t, "0", FmtAmount(big.NewInt(0), POLDecimals))
	assert.Equal(t, "0", FmtAmount(nil, POLDecimals))
	assert.Equal(t, "-2.25", FmtAmount(wei("-2250000000000000000"), POLDecimals))
}

func TestFmtAmountRoundTrip(t *testing.T) {
	for _, s := range []string{"5", "1.5", "0.1", "123456.789", "0.000000000000000001"} {
		v, err := Str2Wei(s, POLDecimals)
		require.NoError(t, err)
		assert.Equal(t, s, FmtAmount(v, POLDecimals))
	}
}

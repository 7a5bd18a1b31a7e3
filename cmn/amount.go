package cmn

import (
	"fmt"
	"math/big"
	"strings"
)

// POL amounts travel as decimal strings at the API boundary and as wei
// (18 decimals) internally.

const POLDecimals = 18

// Str2Wei parses a decimal string into a wei amount without going through
// floating point.
func Str2Wei(s string, decimals int) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	parts := strings.SplitN(s, ".", 2)
	whole := parts[0]
	frac := ""
	if len(parts) == 2 {
		frac = parts[1]
	}

	if whole == "" && frac == "" {
		return nil, fmt.Errorf("invalid amount: %s", s)
	}

	if len(frac) > decimals {
		frac = frac[:decimals] // truncate sub-wei precision
	}
	frac = frac + strings.Repeat("0", decimals-len(frac))

	v, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", s)
	}

	if neg {
		v.Neg(v)
	}

	return v, nil
}

// FmtAmount renders a wei amount as a decimal string with trailing zeros
// stripped.
func FmtAmount(v *big.Int, decimals int) string {
	if v == nil {
		return "0"
	}

	neg := v.Sign() < 0
	abs := new(big.Int).Abs(v)

	d := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole := new(big.Int).Div(abs, d)
	rem := new(big.Int).Mod(abs, d)

	s := whole.String()
	if rem.Sign() != 0 {
		frac := fmt.Sprintf("%0*s", decimals, rem.String())
		frac = strings.TrimRight(frac, "0")
		s = s + "." + frac
	}

	if neg {
		s = "-" + s
	}

	return s
}

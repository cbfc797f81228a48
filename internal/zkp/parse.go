package zkp

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/dmitrijs2005/zkauth/internal/common"
)

// maxDecimalDigits bounds what ParseInteger accepts; 8192-bit values have
// 2467 decimal digits.
const maxDecimalDigits = 2500

// ParseInteger parses a non-negative decimal string such as the "a" and "y"
// fields of a login request. Anything else is common.ErrMalformedNumber.
func ParseInteger(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty value", common.ErrMalformedNumber)
	}
	if len(s) > maxDecimalDigits {
		return nil, fmt.Errorf("%w: too many digits", common.ErrMalformedNumber)
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("%w: %q is not a decimal integer", common.ErrMalformedNumber, s)
		}
	}

	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrMalformedNumber, s)
	}
	return n, nil
}

package record

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseMoney converts an upstream money value into a decimal. Upstreams
// variously send JSON numbers, bare numeric strings, and formatted strings
// with currency symbols, thousands separators, or accounting-style
// parentheses for negatives. Anything unparseable comes back nil — a missing
// amount is an ordinary condition, never an error.
func ParseMoney(v any) *decimal.Decimal {
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		d := decimal.NewFromFloat(val)
		return &d
	case int:
		d := decimal.NewFromInt(int64(val))
		return &d
	case int64:
		d := decimal.NewFromInt(val)
		return &d
	case string:
		return parseMoneyString(val)
	default:
		return nil
	}
}

func parseMoneyString(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	if negative {
		d = d.Neg()
	}
	return &d
}

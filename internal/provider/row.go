package provider

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Alias-aware extraction helpers. Each getter walks the candidate keys
// in order and returns the first value that is present and convertible.

// FirstString returns the first string value found under any of the keys.
func FirstString(r Row, keys ...string) string {
	for _, key := range keys {
		if v, ok := r[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// FirstFloat returns the first numeric value found under any of the keys.
func FirstFloat(r Row, keys ...string) float64 {
	for _, key := range keys {
		if v, ok := r[key]; ok {
			switch n := v.(type) {
			case float64:
				return n
			case float32:
				return float64(n)
			case int64:
				return float64(n)
			case int:
				return float64(n)
			case string:
				if f, err := strconv.ParseFloat(n, 64); err == nil {
					return f
				}
			}
		}
	}
	return 0.0
}

// FirstInt returns the first integer value found under any of the keys.
func FirstInt(r Row, keys ...string) int {
	for _, key := range keys {
		if v, ok := r[key]; ok {
			switch n := v.(type) {
			case int64:
				return int(n)
			case int:
				return n
			case float64:
				return int(n)
			case string:
				if i, err := strconv.Atoi(n); err == nil {
					return i
				}
			}
		}
	}
	return 0
}

// FirstBool returns the first boolean value found under any of the keys.
// Accepts upstream "1"/"true"/"yes" string encodings.
func FirstBool(r Row, keys ...string) bool {
	for _, key := range keys {
		if v, ok := r[key]; ok {
			switch b := v.(type) {
			case bool:
				return b
			case string:
				if b == "1" || b == "true" || b == "yes" || b == "Y" {
					return true
				}
				if b == "0" || b == "false" || b == "no" || b == "N" {
					return false
				}
			case int:
				return b != 0
			case int64:
				return b != 0
			case float64:
				return b != 0
			}
		}
	}
	return false
}

// FirstDecimal returns the first quantity found under any of the keys.
func FirstDecimal(r Row, keys ...string) decimal.Decimal {
	for _, key := range keys {
		if v, ok := r[key]; ok {
			switch n := v.(type) {
			case float64:
				return decimal.NewFromFloat(n)
			case int64:
				return decimal.NewFromInt(n)
			case int:
				return decimal.NewFromInt(int64(n))
			case string:
				if d, err := decimal.NewFromString(n); err == nil {
					return d
				}
			}
		}
	}
	return decimal.Zero
}

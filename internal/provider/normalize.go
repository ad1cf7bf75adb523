package provider

import (
	"strconv"
	"strings"
	"unicode"
)

// NormalizePartID canonicalizes a part identifier: trimmed, underscores
// replaced with hyphens. ERP exports and the fixture matrix disagree on
// the separator, so everything downstream of the providers sees hyphens.
func NormalizePartID(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), "_", "-")
}

// OperationSuffix derives the canonical "<N>OP" suffix from a raw
// operation code, falling back to the routing line number and finally
// to "1OP" when nothing parses.
func OperationSuffix(rawCode string, lineNo int) string {
	digits := strings.TrimLeft(digitsOf(rawCode), "0")
	if digits == "" && lineNo > 0 {
		digits = strings.TrimLeft(strconv.Itoa(lineNo), "0")
	}
	if digits == "" {
		digits = "1"
	}
	return digits + "OP"
}

// EnsureOperationSuffix forces an already-derived suffix back into the
// digits+"OP" canonical form.
func EnsureOperationSuffix(suffix string) string {
	return OperationSuffix(suffix, 0)
}

// PieceCode builds the canonical fixture-matrix key for a part and
// operation, e.g. "1234-ABC-10OP".
func PieceCode(partID, operationSuffix string) string {
	return NormalizePartID(partID) + "-" + EnsureOperationSuffix(operationSuffix)
}

// NormalizePlaque canonicalizes a plaque/fixture code for comparison.
func NormalizePlaque(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// AllowedMachines extracts machine identifiers from a free-form flow
// description: any token that starts with a known machine-family prefix.
func AllowedMachines(flowDescription string, families []string) []string {
	if flowDescription == "" || len(families) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var machines []string
	for _, token := range splitTokens(flowDescription) {
		up := strings.ToUpper(token)
		for _, fam := range families {
			if strings.HasPrefix(up, strings.ToUpper(fam)) {
				if !seen[up] {
					seen[up] = true
					machines = append(machines, up)
				}
				break
			}
		}
	}
	return machines
}

func splitTokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

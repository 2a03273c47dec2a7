package domain

import (
	"strconv"
	"strings"
)

// StyleNumberFromSKU returns the numeric prefix of sku before the first "-".
// It returns 0 when the prefix is not a number.
func StyleNumberFromSKU(sku string) int {
	prefix, _, _ := strings.Cut(strings.TrimSpace(sku), "-")
	n, err := strconv.Atoi(prefix)
	if err != nil {
		return 0
	}
	return n
}

// SizeFromSKU extracts the size from the last "-" segment of sku, uppercased.
// XXL and XXXL are normalised to 2XL and 3XL; other values pass through unchanged.
func SizeFromSKU(sku string) string {
	if sku == "" {
		return ""
	}

	parts := strings.Split(sku, "-")
	size := strings.ToUpper(parts[len(parts)-1])

	switch size {
	case "XXL", "2XL":
		return "2XL"
	case "XXXL", "3XL":
		return "3XL"
	default:
		return size
	}
}

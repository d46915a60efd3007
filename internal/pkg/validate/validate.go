package validate

import "strings"

// Required reports whether a string field carries a non-blank value.
func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

// Quantity reports whether a cart line quantity is usable. Zero is
// allowed and normalized to one further down the pipeline.
func Quantity(n int) bool {
	return n >= 0
}

package utilities

import "slices"

// Contains checks if a string is present in a slice of strings.
func Contains(slice []string, s string) bool {
	return slices.Contains(slice, s)
}

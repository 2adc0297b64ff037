// Package utils contains helpers shared by the codecopy packages.
package utils

import "strings"

// DeduplicateStrings removes duplicates and blank entries while preserving order.
func DeduplicateStrings(values []string) []string {
	encountered := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, exists := encountered[trimmed]; exists {
			continue
		}
		encountered[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

// ContainsString checks if a slice of strings contains a specific target string.
func ContainsString(stringSlice []string, targetString string) bool {
	for _, currentString := range stringSlice {
		if currentString == targetString {
			return true
		}
	}
	return false
}

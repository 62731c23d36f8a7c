package domain

import (
	"strings"
)

// MatchPattern reports whether an agent name matches a delegation pattern.
// Pattern grammar: literal labels match themselves; a "*" label matches
// exactly one label; a leading "*." prefix matches one or more leading
// labels (hierarchical wildcard). The bare pattern "*" matches any name.
func MatchPattern(pattern, name string) bool {
	if name == "" || pattern == "" {
		return false
	}
	if pattern == "*" {
		return true
	}

	patternLabels := strings.Split(pattern, ".")
	nameLabels := strings.Split(name, ".")

	if patternLabels[0] == "*" && len(patternLabels) > 1 {
		rest := patternLabels[1:]
		if len(nameLabels) < len(rest)+1 {
			return false
		}
		return matchAligned(rest, nameLabels[len(nameLabels)-len(rest):])
	}

	if len(patternLabels) != len(nameLabels) {
		return false
	}
	return matchAligned(patternLabels, nameLabels)
}

// matchAligned matches equal-length label slices where "*" matches any
// single label.
func matchAligned(patternLabels, nameLabels []string) bool {
	for i, label := range patternLabels {
		if label != "*" && label != nameLabels[i] {
			return false
		}
	}
	return true
}

// PatternSpecificity counts the literal labels in a pattern. A more
// specific pattern matches a smaller set of names; candidate selection uses
// this to rank competing policies.
func PatternSpecificity(pattern string) int {
	specificity := 0
	for _, label := range strings.Split(pattern, ".") {
		if label != "*" {
			specificity++
		}
	}
	return specificity
}

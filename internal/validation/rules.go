// Package validation provides custom validation rules for the application.
package validation

import (
	"encoding/base64"
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/MCPTrustFramework/mcpf/internal/errors"
)

var (
	// agentNameRegex matches hierarchical agent names: non-empty dot-separated
	// lowercase labels terminating in the ".agent" suffix.
	// Example: "fraud-detector.risk.dbs.example.agent"
	agentNameRegex = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]*[a-z0-9])?\.)+agent$`)

	// agentNamePatternRegex additionally allows "*" wildcard labels, used by
	// delegation policy from/to patterns and wildcard directory records.
	agentNamePatternRegex = regexp.MustCompile(`^(([a-z0-9]([a-z0-9-]*[a-z0-9])?|\*)\.)+agent$`)

	// didRegex matches the supported DID grammar: did:<method>:<method-specific-id>.
	didRegex = regexp.MustCompile(`^did:(web|key):[A-Za-z0-9.\-_:%]+$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank validates that a string is not empty after trimming whitespace.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "cannot be blank"),
)

// AgentName validates the hierarchical agent naming grammar.
var AgentName = validation.NewStringRuleWithError(
	IsAgentName,
	validation.NewError("validation_agent_name", "must be dot-separated labels ending in .agent"),
)

// AgentNamePattern validates an agent name pattern, allowing wildcard labels.
var AgentNamePattern = validation.NewStringRuleWithError(
	IsAgentNamePattern,
	validation.NewError("validation_agent_name_pattern", "must be dot-separated labels or wildcards ending in .agent"),
)

// PolicyPattern validates a delegation policy pattern: the bare "*" matches
// any agent name, anything else follows the agent name pattern grammar.
var PolicyPattern = validation.NewStringRuleWithError(
	IsPolicyPattern,
	validation.NewError("validation_policy_pattern", `must be "*" or dot-separated labels or wildcards ending in .agent`),
)

// DID validates the supported decentralized identifier grammar.
var DID = validation.NewStringRuleWithError(
	IsDID,
	validation.NewError("validation_did", "must match did:<method>:<id> with method web or key"),
)

// Base64 validates that a string is valid base64-encoded data.
var Base64 = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_base64_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	_, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return validation.NewError("validation_base64", "must be valid base64-encoded data")
	}
	return nil
})

// IsAgentName reports whether name satisfies the agent naming grammar.
func IsAgentName(name string) bool {
	return len(name) <= 253 && agentNameRegex.MatchString(name)
}

// IsAgentNamePattern reports whether pattern satisfies the agent name pattern
// grammar (agent name grammar plus "*" wildcard labels).
func IsAgentNamePattern(pattern string) bool {
	return len(pattern) <= 253 && agentNamePatternRegex.MatchString(pattern)
}

// IsPolicyPattern reports whether pattern is a valid delegation policy
// pattern. The bare "*" is the match-anything pattern; every other pattern
// follows the agent name pattern grammar.
func IsPolicyPattern(pattern string) bool {
	return pattern == "*" || IsAgentNamePattern(pattern)
}

// IsDID reports whether s is a supported decentralized identifier.
func IsDID(s string) bool {
	return len(s) <= 512 && didRegex.MatchString(s)
}

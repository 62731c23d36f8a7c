// Package service provides the declarative policy document loader.
package service

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	delegationDomain "github.com/MCPTrustFramework/mcpf/internal/delegation/domain"
	apperrors "github.com/MCPTrustFramework/mcpf/internal/errors"
)

// policyEntry is one policy in a declarative document.
type policyEntry struct {
	Name        string                       `yaml:"name"`
	From        string                       `yaml:"from"`
	To          string                       `yaml:"to"`
	Actions     []string                     `yaml:"actions"`
	Constraints delegationDomain.Constraints `yaml:"constraints"`
}

// policyDocument is the root of a declarative policy file.
type policyDocument struct {
	Policies []policyEntry `yaml:"policies"`
}

// LoadPolicyFile parses and validates a declarative policy document. Any
// unknown field anywhere in the document fails the whole load: a typoed
// constraint must never degrade into a policy without that constraint.
func LoadPolicyFile(path string) ([]*delegationDomain.Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read policy file")
	}
	return ParsePolicyDocument(raw)
}

// ParsePolicyDocument parses and validates raw YAML policy content.
func ParsePolicyDocument(raw []byte) ([]*delegationDomain.Policy, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)

	var document policyDocument
	if err := decoder.Decode(&document); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, apperrors.Wrap(delegationDomain.ErrPolicyDocumentInvalid, err.Error())
	}

	policies := make([]*delegationDomain.Policy, 0, len(document.Policies))
	seen := make(map[string]struct{}, len(document.Policies))
	now := time.Now().UTC()
	for _, entry := range document.Policies {
		if _, duplicate := seen[entry.Name]; duplicate {
			return nil, apperrors.Wrap(delegationDomain.ErrPolicyDocumentInvalid, "duplicate policy name: "+entry.Name)
		}
		seen[entry.Name] = struct{}{}

		policy := &delegationDomain.Policy{
			ID:             uuid.Must(uuid.NewV7()),
			Name:           entry.Name,
			FromPattern:    entry.From,
			ToPattern:      entry.To,
			AllowedActions: entry.Actions,
			Constraints:    entry.Constraints,
			Version:        1,
			CreatedAt:      now,
		}
		if err := policy.Validate(); err != nil {
			return nil, apperrors.Wrap(err, "policy "+entry.Name)
		}
		policies = append(policies, policy)
	}
	return policies, nil
}

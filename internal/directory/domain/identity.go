// Package domain defines the agent identity entities owned by the directory.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PublicKey is one piece of declared key material attached to an identity.
// Material is the raw public key bytes for the stated algorithm.
type PublicKey struct {
	KeyID     string `json:"key_id"`
	Algorithm string `json:"algorithm"`
	Material  []byte `json:"material"`
}

// AgentIdentity maps a hierarchical agent name to a decentralized identifier
// and its public key material. Identities are immutable once registered:
// republishing a name produces a new identity version, never an in-place
// mutation, so resolvers can cache aggressively and compare versions.
type AgentIdentity struct {
	ID         uuid.UUID
	Name       string
	DID        string
	PublicKeys []PublicKey
	Metadata   map[string]string
	Version    int
	CreatedAt  time.Time
}

// Key returns the public key with the given key id, or nil if absent.
func (a *AgentIdentity) Key(keyID string) *PublicKey {
	for i := range a.PublicKeys {
		if a.PublicKeys[i].KeyID == keyID {
			return &a.PublicKeys[i]
		}
	}
	return nil
}

// ParentPatterns returns the wildcard record names that could answer for
// name, most specific first. For "detector.risk.bank.agent" that is
// ["*.risk.bank.agent", "*.bank.agent", "*.agent"].
func ParentPatterns(name string) []string {
	labels := strings.Split(name, ".")
	patterns := make([]string, 0, len(labels)-1)
	for i := 1; i < len(labels); i++ {
		patterns = append(patterns, "*."+strings.Join(labels[i:], "."))
	}
	return patterns
}

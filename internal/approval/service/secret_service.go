// Package service provides approver secret generation and hashing.
// Secrets are hashed with Argon2id; only the hash is stored.
package service

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/allisson/go-pwdhash"

	apperrors "github.com/MCPTrustFramework/mcpf/internal/errors"
)

// SecretService generates and checks approver secrets.
type SecretService interface {
	// GenerateSecret creates a random secret and its hash. The plain form
	// is returned once for the operator to hand to the approver.
	GenerateSecret() (plainSecret string, hashedSecret string, err error)

	// CompareSecret performs a constant-time comparison between a plain
	// secret and its stored hash.
	CompareSecret(plainSecret string, hashedSecret string) bool
}

// secretService implements SecretService using Argon2id.
type secretService struct {
	hasher *pwdhash.PasswordHasher
}

// NewSecretService creates a new SecretService with the moderate Argon2id
// policy.
func NewSecretService() SecretService {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyModerate),
	)
	if err != nil {
		// Only reachable with an invalid policy constant.
		panic(err)
	}
	return &secretService{hasher: hasher}
}

// GenerateSecret creates a new cryptographically secure 32-byte random
// secret, base64-encoded, plus its Argon2id hash.
func (s *secretService) GenerateSecret() (string, string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate random secret")
	}

	plainSecret := base64.URLEncoding.EncodeToString(randomBytes)

	hashedSecret, err := s.hasher.Hash([]byte(plainSecret))
	if err != nil {
		return "", "", apperrors.Wrap(err, "failed to hash secret")
	}

	return plainSecret, hashedSecret, nil
}

// CompareSecret checks a plain secret against its stored hash.
func (s *secretService) CompareSecret(plainSecret string, hashedSecret string) bool {
	ok, err := s.hasher.Verify([]byte(plainSecret), hashedSecret)
	if err != nil {
		return false
	}
	return ok
}

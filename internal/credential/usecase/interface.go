// Package usecase defines business logic interfaces for credential
// verification.
package usecase

import (
	"context"
	"time"

	credentialDomain "github.com/MCPTrustFramework/mcpf/internal/credential/domain"
	directoryDomain "github.com/MCPTrustFramework/mcpf/internal/directory/domain"
)

// CredentialRepository defines persistence operations for stored credentials.
// Implementations must support transaction-aware operations via context propagation.
type CredentialRepository interface {
	// Create stores a credential.
	Create(ctx context.Context, credential *credentialDomain.Credential) error

	// GetNewestBySubject retrieves the most recently issued credential for
	// the subject DID. Returns ErrCredentialNotFound when none is stored.
	GetNewestBySubject(ctx context.Context, subjectDID string) (*credentialDomain.Credential, error)
}

// RevocationRepository defines persistence operations for the revocation set.
type RevocationRepository interface {
	// Create records a revocation. Recording the same id twice is a
	// conflict.
	Create(ctx context.Context, revocationID string, revokedAt time.Time) error

	// ListIDs returns every recorded revocation id.
	ListIDs(ctx context.Context) ([]string, error)
}

// IssuerDirectory resolves an issuer DID to its registered identity. The
// directory feature provides the implementation.
type IssuerDirectory interface {
	GetByDID(ctx context.Context, did string) (*directoryDomain.AgentIdentity, error)
}

// UseCase defines the credential verifier operations.
type UseCase interface {
	// Verify produces a verdict for the credential. expectedSubjectDID,
	// when non-empty, must match the credential's subject. Checks run in a
	// fixed short-circuit order: subject, validity window, revocation,
	// cryptographic proof. A decidable credential always yields a verdict;
	// the error return is reserved for infrastructure failures. Every
	// verification is audited and fails if the audit entry cannot be
	// written.
	Verify(
		ctx context.Context,
		credential *credentialDomain.Credential,
		expectedSubjectDID string,
	) (*credentialDomain.VerificationResult, error)

	// VerifyAgent verifies the most recently issued stored credential for
	// the DID. No stored credential yields an invalid verdict with reason
	// "no_credential", not an error.
	VerifyAgent(ctx context.Context, did string) (*credentialDomain.VerificationResult, error)

	// Store persists a credential so VerifyAgent can find it later. The
	// credential must be wellformed; its proof is not checked here.
	Store(ctx context.Context, credential *credentialDomain.Credential) error

	// Revoke records a revocation id and applies it to the in-memory
	// revocation set immediately.
	Revoke(ctx context.Context, revocationID string) error

	// RefreshRevocations reloads the in-memory revocation set from storage.
	RefreshRevocations(ctx context.Context) error
}

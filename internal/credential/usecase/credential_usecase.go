package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/MCPTrustFramework/mcpf/internal/audit/domain"
	auditUseCase "github.com/MCPTrustFramework/mcpf/internal/audit/usecase"
	credentialDomain "github.com/MCPTrustFramework/mcpf/internal/credential/domain"
	credentialService "github.com/MCPTrustFramework/mcpf/internal/credential/service"
	apperrors "github.com/MCPTrustFramework/mcpf/internal/errors"
	"github.com/MCPTrustFramework/mcpf/internal/validation"
)

// verdictCacheEntry caches one verification verdict until expiresAt.
type verdictCacheEntry struct {
	result    *credentialDomain.VerificationResult
	expiresAt time.Time
}

// credentialUseCase implements UseCase.
type credentialUseCase struct {
	credentialRepo CredentialRepository
	revocationRepo RevocationRepository
	issuerDir      IssuerDirectory
	proofVerifier  credentialService.ProofVerifier
	auditUseCase   auditUseCase.UseCase
	verdictTTL     time.Duration
	clock          func() time.Time

	revocations *revocationSet

	// verdictCache holds digest -> verdictCacheEntry. Entries are clamped
	// to the credential's own expiry so a cached "valid" can never outlive
	// the credential, and the cache is dropped wholesale whenever the
	// revocation set changes.
	verdictCache sync.Map
}

// NewCredentialUseCase creates a new credential UseCase with the provided
// dependencies.
func NewCredentialUseCase(
	credentialRepo CredentialRepository,
	revocationRepo RevocationRepository,
	issuerDir IssuerDirectory,
	proofVerifier credentialService.ProofVerifier,
	auditUC auditUseCase.UseCase,
	verdictTTL time.Duration,
) UseCase {
	return &credentialUseCase{
		credentialRepo: credentialRepo,
		revocationRepo: revocationRepo,
		issuerDir:      issuerDir,
		proofVerifier:  proofVerifier,
		auditUseCase:   auditUC,
		verdictTTL:     verdictTTL,
		clock:          time.Now,
		revocations:    newRevocationSet(),
	}
}

// Verify runs the verification pipeline. The checks short-circuit in a fixed
// order so the reason code always names the first failing gate.
func (u *credentialUseCase) Verify(
	ctx context.Context,
	credential *credentialDomain.Credential,
	expectedSubjectDID string,
) (*credentialDomain.VerificationResult, error) {
	if !credential.Wellformed() {
		result := credentialDomain.Invalid(credentialDomain.ReasonMalformed, "credential is missing required fields")
		return u.audited(ctx, credential, result)
	}

	cacheKey, err := u.cacheKey(credential, expectedSubjectDID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode credential")
	}
	if cached, ok := u.cacheGet(cacheKey); ok {
		return u.audited(ctx, credential, cached)
	}

	result, err := u.decide(ctx, credential, expectedSubjectDID)
	if err != nil {
		return nil, err
	}

	u.cachePut(cacheKey, result, credential.ExpiresAt)

	return u.audited(ctx, credential, result)
}

// decide produces the verdict for a wellformed credential.
func (u *credentialUseCase) decide(
	ctx context.Context,
	credential *credentialDomain.Credential,
	expectedSubjectDID string,
) (*credentialDomain.VerificationResult, error) {
	if expectedSubjectDID != "" && expectedSubjectDID != credential.SubjectDID {
		return credentialDomain.Invalid(
			credentialDomain.ReasonSubjectMismatch,
			"credential subject does not match the expected agent",
		), nil
	}

	now := u.clock()
	if now.Before(credential.IssuedAt) {
		return credentialDomain.Invalid(credentialDomain.ReasonNotYetValid, "credential is not yet valid"), nil
	}
	if !now.Before(credential.ExpiresAt) {
		return credentialDomain.Invalid(credentialDomain.ReasonExpired, "credential has expired"), nil
	}

	if credential.RevocationID != "" && u.revocations.contains(credential.RevocationID) {
		return credentialDomain.Invalid(credentialDomain.ReasonRevoked, "credential has been revoked"), nil
	}

	identity, err := u.issuerDir.GetByDID(ctx, credential.IssuerDID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return credentialDomain.Invalid(
				credentialDomain.ReasonUnknownIssuer,
				"issuer has no registered identity",
			), nil
		}
		return nil, apperrors.Wrap(err, "failed to load issuer identity")
	}

	key := identity.Key(credential.Proof.KeyID)
	if key == nil || key.Algorithm != credential.Proof.Algorithm {
		return credentialDomain.Invalid(
			credentialDomain.ReasonUnknownKey,
			"issuer has no matching key for the proof",
		), nil
	}

	message, err := credential.SigningBytes()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode credential")
	}

	err = u.proofVerifier.Verify(credential.Proof.Algorithm, key.Material, message, credential.Proof.Signature)
	switch {
	case err == nil:
		return credentialDomain.ValidResult(), nil
	case apperrors.Is(err, credentialService.ErrUnsupportedAlgorithm):
		return credentialDomain.Invalid(
			credentialDomain.ReasonUnsupportedAlgorithm,
			"proof algorithm is not supported",
		), nil
	case apperrors.Is(err, credentialService.ErrBadKeyMaterial):
		return credentialDomain.Invalid(
			credentialDomain.ReasonUnknownKey,
			"issuer key material cannot be parsed",
		), nil
	default:
		return credentialDomain.Invalid(
			credentialDomain.ReasonBadSignature,
			"proof signature does not verify",
		), nil
	}
}

// VerifyAgent verifies the most recently issued stored credential for did.
func (u *credentialUseCase) VerifyAgent(ctx context.Context, did string) (*credentialDomain.VerificationResult, error) {
	if !validation.IsDID(did) {
		result := credentialDomain.Invalid(credentialDomain.ReasonMalformed, "identifier is not a supported DID")
		return u.auditedFor(ctx, []string{}, result)
	}

	credential, err := u.credentialRepo.GetNewestBySubject(ctx, did)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			result := credentialDomain.Invalid(credentialDomain.ReasonNoCredential, "no credential on record")
			return u.auditedFor(ctx, []string{did}, result)
		}
		return nil, apperrors.Wrap(err, "failed to load stored credential")
	}

	return u.Verify(ctx, credential, did)
}

// Store persists a credential for later VerifyAgent lookups.
func (u *credentialUseCase) Store(ctx context.Context, credential *credentialDomain.Credential) error {
	if !credential.Wellformed() {
		return credentialDomain.ErrCredentialMalformed
	}
	if credential.ID == uuid.Nil {
		credential.ID = uuid.Must(uuid.NewV7())
	}
	if credential.CreatedAt.IsZero() {
		credential.CreatedAt = u.clock().UTC()
	}
	if err := u.credentialRepo.Create(ctx, credential); err != nil {
		return apperrors.Wrap(err, "failed to store credential")
	}
	return nil
}

// Revoke records a revocation and applies it immediately, ahead of the next
// background refresh. Cached verdicts predate the revocation, so the whole
// verdict cache is dropped.
func (u *credentialUseCase) Revoke(ctx context.Context, revocationID string) error {
	if revocationID == "" {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "revocation id is required")
	}
	if err := u.revocationRepo.Create(ctx, revocationID, u.clock().UTC()); err != nil {
		return err
	}
	u.revocations.add(revocationID)
	u.cacheFlush()
	return nil
}

// RefreshRevocations reloads the in-memory revocation set from storage and
// drops cached verdicts that may predate new revocations.
func (u *credentialUseCase) RefreshRevocations(ctx context.Context) error {
	ids, err := u.revocationRepo.ListIDs(ctx)
	if err != nil {
		return apperrors.Wrap(err, "failed to list revocations")
	}
	u.revocations.replace(ids)
	u.cacheFlush()
	return nil
}

// cacheKey digests the full credential content plus the expected subject so
// distinct verification questions never share a verdict.
func (u *credentialUseCase) cacheKey(
	credential *credentialDomain.Credential,
	expectedSubjectDID string,
) ([32]byte, error) {
	message, err := credential.SigningBytes()
	if err != nil {
		return [32]byte{}, err
	}
	payload := make([]byte, 0, len(message)+len(credential.Proof.Signature)+64)
	payload = append(payload, message...)
	payload = append(payload, credential.Proof.Algorithm...)
	payload = append(payload, credential.Proof.KeyID...)
	payload = append(payload, credential.Proof.Signature...)
	payload = append(payload, credential.RevocationID...)
	payload = append(payload, expectedSubjectDID...)
	return credentialService.Digest(payload), nil
}

func (u *credentialUseCase) cacheGet(key [32]byte) (*credentialDomain.VerificationResult, bool) {
	value, ok := u.verdictCache.Load(key)
	if !ok {
		return nil, false
	}
	entry := value.(verdictCacheEntry)
	if u.clock().After(entry.expiresAt) {
		u.verdictCache.Delete(key)
		return nil, false
	}
	return entry.result, true
}

func (u *credentialUseCase) cacheFlush() {
	u.verdictCache.Range(func(key, _ any) bool {
		u.verdictCache.Delete(key)
		return true
	})
}

func (u *credentialUseCase) cachePut(key [32]byte, result *credentialDomain.VerificationResult, credentialExpiry time.Time) {
	if u.verdictTTL <= 0 {
		return
	}
	expiresAt := u.clock().Add(u.verdictTTL)
	if credentialExpiry.Before(expiresAt) {
		expiresAt = credentialExpiry
	}
	u.verdictCache.Store(key, verdictCacheEntry{result: result, expiresAt: expiresAt})
}

// audited appends the verification audit entry and returns the verdict. The
// verdict is withheld if the entry cannot be written.
func (u *credentialUseCase) audited(
	ctx context.Context,
	credential *credentialDomain.Credential,
	result *credentialDomain.VerificationResult,
) (*credentialDomain.VerificationResult, error) {
	subjects := make([]string, 0, 2)
	if credential.SubjectDID != "" {
		subjects = append(subjects, credential.SubjectDID)
	}
	if credential.IssuerDID != "" {
		subjects = append(subjects, credential.IssuerDID)
	}
	return u.auditedFor(ctx, subjects, result)
}

func (u *credentialUseCase) auditedFor(
	ctx context.Context,
	subjects []string,
	result *credentialDomain.VerificationResult,
) (*credentialDomain.VerificationResult, error) {
	outcome := auditDomain.OutcomeSuccess
	if !result.Valid {
		outcome = auditDomain.OutcomeInvalid
	}
	_, err := u.auditUseCase.Append(
		ctx,
		auditDomain.KindVerification,
		subjects,
		outcome,
		result.ReasonCode,
		nil,
	)
	if err != nil {
		return nil, err
	}
	return result, nil
}

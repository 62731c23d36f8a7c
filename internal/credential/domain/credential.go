// Package domain defines the credential entities and verification verdicts.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Proof algorithms accepted by the verifier. Anything else fails closed.
const (
	AlgorithmEd25519   = "ed25519"
	AlgorithmECDSAP256 = "ecdsa-p256"
)

// Proof is the cryptographic binding of a credential to its issuer. KeyID
// names an entry in the issuer's declared public key material.
type Proof struct {
	Algorithm string `json:"algorithm"`
	KeyID     string `json:"key_id"`
	Signature []byte `json:"signature"`
}

// Credential is a claim about a subject agent, signed by an issuer. The
// verifier never trusts any field until the proof checks out against the
// issuer's registered keys.
type Credential struct {
	ID           uuid.UUID
	SubjectDID   string
	IssuerDID    string
	Claims       map[string]any
	IssuedAt     time.Time
	ExpiresAt    time.Time
	Proof        Proof
	RevocationID string
	CreatedAt    time.Time
}

// Wellformed reports whether the credential carries the minimum structure
// needed to attempt verification. A credential that fails this check is
// verdict "malformed", not an error.
func (c *Credential) Wellformed() bool {
	if c.SubjectDID == "" || c.IssuerDID == "" {
		return false
	}
	if c.IssuedAt.IsZero() || c.ExpiresAt.IsZero() {
		return false
	}
	if !c.ExpiresAt.After(c.IssuedAt) {
		return false
	}
	if c.Proof.KeyID == "" || len(c.Proof.Signature) == 0 {
		return false
	}
	return true
}

// signingPayload is the canonical form covered by the proof signature.
// Timestamps are collapsed to Unix seconds so issuer and verifier agree
// regardless of sub-second precision or timezone representation.
type signingPayload struct {
	SubjectDID string         `json:"subject_did"`
	IssuerDID  string         `json:"issuer_did"`
	Claims     map[string]any `json:"claims"`
	IssuedAt   int64          `json:"issued_at"`
	ExpiresAt  int64          `json:"expires_at"`
}

// SigningBytes returns the canonical byte encoding the proof signature
// covers. encoding/json sorts map keys, so the output is deterministic for
// equal credentials.
func (c *Credential) SigningBytes() ([]byte, error) {
	return json.Marshal(signingPayload{
		SubjectDID: c.SubjectDID,
		IssuerDID:  c.IssuerDID,
		Claims:     c.Claims,
		IssuedAt:   c.IssuedAt.Unix(),
		ExpiresAt:  c.ExpiresAt.Unix(),
	})
}

// Reason codes carried on verification verdicts. Stable strings: they are
// audited and exposed over the API, so callers can branch on them.
const (
	ReasonMalformed            = "malformed"
	ReasonSubjectMismatch      = "subject_mismatch"
	ReasonNotYetValid          = "not_yet_valid"
	ReasonExpired              = "expired"
	ReasonRevoked              = "revoked"
	ReasonUnknownIssuer        = "unknown_issuer"
	ReasonUnknownKey           = "unknown_key"
	ReasonBadSignature         = "bad_signature"
	ReasonUnsupportedAlgorithm = "unsupported_algorithm"
	ReasonNoCredential         = "no_credential"
)

// VerificationResult is the verdict for one verification attempt. A verdict
// is always produced for a decidable credential; errors are reserved for
// infrastructure failures (storage, audit).
type VerificationResult struct {
	Valid      bool
	ReasonCode string
	Reason     string
}

// Invalid builds a negative verdict with a human-readable reason.
func Invalid(reasonCode, reason string) *VerificationResult {
	return &VerificationResult{Valid: false, ReasonCode: reasonCode, Reason: reason}
}

// ValidResult builds a positive verdict.
func ValidResult() *VerificationResult {
	return &VerificationResult{Valid: true}
}

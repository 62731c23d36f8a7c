// Package service provides the cryptographic building blocks for credential
// verification.
package service

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"crypto/x509"

	"github.com/cloudflare/circl/sign/ed25519"

	credentialDomain "github.com/MCPTrustFramework/mcpf/internal/credential/domain"
	apperrors "github.com/MCPTrustFramework/mcpf/internal/errors"
)

// Proof verification errors. Callers translate these into verdict reason
// codes; they never escape as infrastructure failures.
var (
	// ErrUnsupportedAlgorithm indicates an algorithm outside the accepted
	// set. Unknown algorithms fail closed.
	ErrUnsupportedAlgorithm = apperrors.New("unsupported proof algorithm")

	// ErrBadSignature indicates the signature does not verify against the
	// key material.
	ErrBadSignature = apperrors.New("signature verification failed")

	// ErrBadKeyMaterial indicates the declared key material cannot be
	// parsed for the stated algorithm.
	ErrBadKeyMaterial = apperrors.New("invalid public key material")
)

// ProofVerifier checks a credential proof signature against declared public
// key material.
type ProofVerifier interface {
	// Verify returns nil when signature is a valid signature of message
	// under the key material for the stated algorithm.
	Verify(algorithm string, material, message, signature []byte) error
}

// proofVerifier implements ProofVerifier for Ed25519 and ECDSA P-256.
type proofVerifier struct{}

// NewProofVerifier creates a new ProofVerifier.
func NewProofVerifier() ProofVerifier {
	return &proofVerifier{}
}

// Verify dispatches on algorithm. Ed25519 keys are raw 32-byte points;
// ECDSA keys are PKIX (SubjectPublicKeyInfo) encoded with ASN.1 DER
// signatures over a SHA-256 digest.
func (p *proofVerifier) Verify(algorithm string, material, message, signature []byte) error {
	switch algorithm {
	case credentialDomain.AlgorithmEd25519:
		return p.verifyEd25519(material, message, signature)
	case credentialDomain.AlgorithmECDSAP256:
		return p.verifyECDSAP256(material, message, signature)
	default:
		return ErrUnsupportedAlgorithm
	}
}

func (p *proofVerifier) verifyEd25519(material, message, signature []byte) error {
	if len(material) != ed25519.PublicKeySize {
		return ErrBadKeyMaterial
	}
	if !ed25519.Verify(ed25519.PublicKey(material), message, signature) {
		return ErrBadSignature
	}
	return nil
}

func (p *proofVerifier) verifyECDSAP256(material, message, signature []byte) error {
	parsed, err := x509.ParsePKIXPublicKey(material)
	if err != nil {
		return ErrBadKeyMaterial
	}
	publicKey, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return ErrBadKeyMaterial
	}
	digest := sha256.Sum256(message)
	if !ecdsa.VerifyASN1(publicKey, digest[:], signature) {
		return ErrBadSignature
	}
	return nil
}

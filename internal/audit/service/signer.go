// Package service provides technical services for the audit trail: entry
// signing and signing-key unwrapping through a KMS.
package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	auditDomain "github.com/MCPTrustFramework/mcpf/internal/audit/domain"
)

// Signer signs audit entries and verifies stored signatures.
type Signer interface {
	// Sign computes the signature over the entry's canonical encoding.
	Sign(rootKey []byte, entry *auditDomain.Entry) ([]byte, error)

	// Verify checks a stored entry against its signature.
	// Returns ErrSignatureMismatch if the entry was altered after writing.
	Verify(rootKey []byte, entry *auditDomain.Entry) error
}

type entrySigner struct{}

// NewSigner creates an HMAC-based audit entry signer using HKDF-SHA256 for
// key derivation and HMAC-SHA256 for signature generation.
func NewSigner() Signer {
	return &entrySigner{}
}

// deriveSigningKey uses HKDF-SHA256 to derive a 32-byte signing key from the
// root key. Keeps the signing key usage separate from any other use of the
// root key. Info parameter is versioned for future algorithm changes.
func (s *entrySigner) deriveSigningKey(rootKey []byte) ([]byte, error) {
	info := []byte("audit-entry-signing-v1")
	hkdf := hkdf.New(sha256.New, rootKey, nil, info)

	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(hkdf, signingKey); err != nil {
		return nil, err
	}

	return signingKey, nil
}

// canonicalize converts an entry to a canonical byte representation for
// signing. Variable-length fields are length-prefixed to prevent ambiguity.
// Format: id || sequence || kind || subjects || outcome || reason || metadata || created_at
func (s *entrySigner) canonicalize(entry *auditDomain.Entry) ([]byte, error) {
	buf := make([]byte, 0, 512)

	buf = append(buf, entry.ID[:]...)

	seqBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(seqBytes, uint64(entry.Sequence))
	buf = append(buf, seqBytes...)

	buf = appendLengthPrefixed(buf, []byte(string(entry.Kind)))

	// Subject DIDs: count followed by each length-prefixed value, so that
	// ["a","b"] and ["ab"] cannot collide.
	countBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(countBytes, uint32(len(entry.SubjectDIDs)))
	buf = append(buf, countBytes...)
	for _, did := range entry.SubjectDIDs {
		buf = appendLengthPrefixed(buf, []byte(did))
	}

	buf = appendLengthPrefixed(buf, []byte(entry.Outcome))
	buf = appendLengthPrefixed(buf, []byte(entry.ReasonCode))

	if entry.Metadata != nil {
		metadataBytes, err := json.Marshal(entry.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		buf = appendLengthPrefixed(buf, metadataBytes)
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	timeBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(timeBytes, uint64(entry.CreatedAt.UnixNano()))
	buf = append(buf, timeBytes...)

	return buf, nil
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	dataLen := len(data)
	if dataLen > 0xFFFFFFFF {
		panic("data length exceeds uint32 max")
	}
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(dataLen))
	buf = append(buf, length...)
	buf = append(buf, data...)
	return buf
}

// Sign generates the HMAC-SHA256 signature for the audit entry.
func (s *entrySigner) Sign(rootKey []byte, entry *auditDomain.Entry) ([]byte, error) {
	signingKey, err := s.deriveSigningKey(rootKey)
	if err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}
	defer zero(signingKey)

	canonical, err := s.canonicalize(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize entry: %w", err)
	}

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(canonical)
	return mac.Sum(nil), nil
}

// Verify checks if the audit entry signature is valid.
func (s *entrySigner) Verify(rootKey []byte, entry *auditDomain.Entry) error {
	expectedSig, err := s.Sign(rootKey, entry)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}

	if !hmac.Equal(entry.Signature, expectedSig) {
		return auditDomain.ErrSignatureMismatch
	}

	return nil
}

// zero overwrites sensitive data in memory with zeros.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

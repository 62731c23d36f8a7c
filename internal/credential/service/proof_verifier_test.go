package service

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"testing"

	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProofVerifier_Ed25519(t *testing.T) {
	verifier := NewProofVerifier()
	message := []byte(`{"subject_did":"did:web:detector.risk.bank"}`)

	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signature := ed25519.Sign(privateKey, message)

	t.Run("accepts a valid signature", func(t *testing.T) {
		assert.NoError(t, verifier.Verify("ed25519", publicKey, message, signature))
	})

	t.Run("rejects a tampered message", func(t *testing.T) {
		tampered := append([]byte(nil), message...)
		tampered[0] ^= 0xff

		err := verifier.Verify("ed25519", publicKey, tampered, signature)
		assert.ErrorIs(t, err, ErrBadSignature)
	})

	t.Run("rejects a signature from another key", func(t *testing.T) {
		otherPublic, _, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		err = verifier.Verify("ed25519", otherPublic, message, signature)
		assert.ErrorIs(t, err, ErrBadSignature)
	})

	t.Run("rejects truncated key material", func(t *testing.T) {
		err := verifier.Verify("ed25519", publicKey[:16], message, signature)
		assert.ErrorIs(t, err, ErrBadKeyMaterial)
	})
}

func TestProofVerifier_ECDSAP256(t *testing.T) {
	verifier := NewProofVerifier()
	message := []byte(`{"subject_did":"did:web:detector.risk.bank"}`)

	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	material, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	require.NoError(t, err)

	digest := sha256.Sum256(message)
	signature, err := ecdsa.SignASN1(rand.Reader, privateKey, digest[:])
	require.NoError(t, err)

	t.Run("accepts a valid signature", func(t *testing.T) {
		assert.NoError(t, verifier.Verify("ecdsa-p256", material, message, signature))
	})

	t.Run("rejects a tampered message", func(t *testing.T) {
		tampered := append([]byte(nil), message...)
		tampered[0] ^= 0xff

		err := verifier.Verify("ecdsa-p256", material, tampered, signature)
		assert.ErrorIs(t, err, ErrBadSignature)
	})

	t.Run("rejects unparseable key material", func(t *testing.T) {
		err := verifier.Verify("ecdsa-p256", []byte("not-a-key"), message, signature)
		assert.ErrorIs(t, err, ErrBadKeyMaterial)
	})
}

func TestProofVerifier_UnknownAlgorithmFailsClosed(t *testing.T) {
	verifier := NewProofVerifier()

	err := verifier.Verify("rsa-pss", []byte("key"), []byte("message"), []byte("signature"))
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}

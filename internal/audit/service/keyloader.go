package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"gocloud.dev/secrets"

	// Register KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// KeyLoader unwraps the audit signing root key through a KMS keeper.
// The wrapped key is stored in configuration; only the KMS can unwrap it,
// so a leaked configuration does not expose the signing key.
type KeyLoader interface {
	// LoadRootKey opens the keeper for keyURI and decrypts the wrapped,
	// base64-encoded signing root key.
	LoadRootKey(ctx context.Context, keyURI, wrappedKeyB64 string) ([]byte, error)
}

type kmsKeyLoader struct{}

// NewKeyLoader creates a KMS-backed key loader using gocloud.dev/secrets.
// Supports: gcpkms://, awskms://, azurekeyvault://, hashivault://, base64key://
func NewKeyLoader() KeyLoader {
	return &kmsKeyLoader{}
}

func (k *kmsKeyLoader) LoadRootKey(ctx context.Context, keyURI, wrappedKeyB64 string) ([]byte, error) {
	if keyURI == "" {
		return nil, fmt.Errorf("kms key uri is not configured")
	}
	if wrappedKeyB64 == "" {
		return nil, fmt.Errorf("wrapped audit signing key is not configured")
	}

	wrapped, err := base64.StdEncoding.DecodeString(wrappedKeyB64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode wrapped signing key: %w", err)
	}

	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer keeper.Close()

	rootKey, err := keeper.Decrypt(ctx, wrapped)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap signing key: %w", err)
	}

	if len(rootKey) != 32 {
		zero(rootKey)
		return nil, fmt.Errorf("audit signing key must be 32 bytes, got %d", len(rootKey))
	}

	return rootKey, nil
}

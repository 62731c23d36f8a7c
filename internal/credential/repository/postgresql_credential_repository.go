// Package repository implements credential and revocation persistence for
// PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	credentialDomain "github.com/MCPTrustFramework/mcpf/internal/credential/domain"
	"github.com/MCPTrustFramework/mcpf/internal/database"
	apperrors "github.com/MCPTrustFramework/mcpf/internal/errors"
)

// PostgreSQLCredentialRepository handles credential persistence for PostgreSQL.
type PostgreSQLCredentialRepository struct {
	db *sql.DB
}

// NewPostgreSQLCredentialRepository creates a new PostgreSQLCredentialRepository.
func NewPostgreSQLCredentialRepository(db *sql.DB) *PostgreSQLCredentialRepository {
	return &PostgreSQLCredentialRepository{db: db}
}

// Create stores a credential.
func (r *PostgreSQLCredentialRepository) Create(ctx context.Context, credential *credentialDomain.Credential) error {
	querier := database.GetTx(ctx, r.db)

	claimsJSON, err := json.Marshal(credential.Claims)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal credential claims")
	}

	query := `INSERT INTO credentials
			  (id, subject_did, issuer_did, claims, issued_at, expires_at,
			   proof_algorithm, proof_key_id, proof_signature, revocation_id, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = querier.ExecContext(
		ctx,
		query,
		credential.ID,
		credential.SubjectDID,
		credential.IssuerDID,
		claimsJSON,
		credential.IssuedAt,
		credential.ExpiresAt,
		credential.Proof.Algorithm,
		credential.Proof.KeyID,
		credential.Proof.Signature,
		credential.RevocationID,
		credential.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create credential")
	}
	return nil
}

// GetNewestBySubject retrieves the most recently issued credential for the
// subject DID.
func (r *PostgreSQLCredentialRepository) GetNewestBySubject(
	ctx context.Context,
	subjectDID string,
) (*credentialDomain.Credential, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, subject_did, issuer_did, claims, issued_at, expires_at,
			  proof_algorithm, proof_key_id, proof_signature, revocation_id, created_at
			  FROM credentials WHERE subject_did = $1
			  ORDER BY issued_at DESC LIMIT 1`

	return scanCredential(querier.QueryRowContext(ctx, query, subjectDID))
}

// scanCredential maps one row onto a Credential, decoding the claims JSON.
func scanCredential(row *sql.Row) (*credentialDomain.Credential, error) {
	var credential credentialDomain.Credential
	var claimsJSON []byte

	err := row.Scan(
		&credential.ID,
		&credential.SubjectDID,
		&credential.IssuerDID,
		&claimsJSON,
		&credential.IssuedAt,
		&credential.ExpiresAt,
		&credential.Proof.Algorithm,
		&credential.Proof.KeyID,
		&credential.Proof.Signature,
		&credential.RevocationID,
		&credential.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, credentialDomain.ErrCredentialNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get credential")
	}

	if len(claimsJSON) > 0 {
		if err := json.Unmarshal(claimsJSON, &credential.Claims); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal credential claims")
		}
	}

	return &credential, nil
}

// PostgreSQLRevocationRepository handles revocation persistence for PostgreSQL.
type PostgreSQLRevocationRepository struct {
	db *sql.DB
}

// NewPostgreSQLRevocationRepository creates a new PostgreSQLRevocationRepository.
func NewPostgreSQLRevocationRepository(db *sql.DB) *PostgreSQLRevocationRepository {
	return &PostgreSQLRevocationRepository{db: db}
}

// Create records a revocation.
func (r *PostgreSQLRevocationRepository) Create(ctx context.Context, revocationID string, revokedAt time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO revocations (revocation_id, revoked_at) VALUES ($1, $2)`

	_, err := querier.ExecContext(ctx, query, revocationID, revokedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return credentialDomain.ErrRevocationExists
		}
		return apperrors.Wrap(err, "failed to record revocation")
	}
	return nil
}

// ListIDs returns every recorded revocation id.
func (r *PostgreSQLRevocationRepository) ListIDs(ctx context.Context) ([]string, error) {
	querier := database.GetTx(ctx, r.db)

	rows, err := querier.QueryContext(ctx, `SELECT revocation_id FROM revocations`)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list revocations")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan revocation")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate revocations")
	}
	return ids, nil
}

// isUniqueViolation checks for unique constraint violations on either driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate key") ||
		strings.Contains(errMsg, "unique constraint") ||
		strings.Contains(errMsg, "duplicate entry") ||
		strings.Contains(errMsg, "1062")
}

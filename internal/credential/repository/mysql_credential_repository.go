package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	credentialDomain "github.com/MCPTrustFramework/mcpf/internal/credential/domain"
	"github.com/MCPTrustFramework/mcpf/internal/database"
	apperrors "github.com/MCPTrustFramework/mcpf/internal/errors"
)

// MySQLCredentialRepository handles credential persistence for MySQL.
// UUIDs are stored as CHAR(36) strings.
type MySQLCredentialRepository struct {
	db *sql.DB
}

// NewMySQLCredentialRepository creates a new MySQLCredentialRepository.
func NewMySQLCredentialRepository(db *sql.DB) *MySQLCredentialRepository {
	return &MySQLCredentialRepository{db: db}
}

// Create stores a credential.
func (r *MySQLCredentialRepository) Create(ctx context.Context, credential *credentialDomain.Credential) error {
	querier := database.GetTx(ctx, r.db)

	claimsJSON, err := json.Marshal(credential.Claims)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal credential claims")
	}

	query := `INSERT INTO credentials
			  (id, subject_did, issuer_did, claims, issued_at, expires_at,
			   proof_algorithm, proof_key_id, proof_signature, revocation_id, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		credential.ID.String(),
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
func (r *MySQLCredentialRepository) GetNewestBySubject(
	ctx context.Context,
	subjectDID string,
) (*credentialDomain.Credential, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, subject_did, issuer_did, claims, issued_at, expires_at,
			  proof_algorithm, proof_key_id, proof_signature, revocation_id, created_at
			  FROM credentials WHERE subject_did = ?
			  ORDER BY issued_at DESC LIMIT 1`

	return scanCredential(querier.QueryRowContext(ctx, query, subjectDID))
}

// MySQLRevocationRepository handles revocation persistence for MySQL.
type MySQLRevocationRepository struct {
	db *sql.DB
}

// NewMySQLRevocationRepository creates a new MySQLRevocationRepository.
func NewMySQLRevocationRepository(db *sql.DB) *MySQLRevocationRepository {
	return &MySQLRevocationRepository{db: db}
}

// Create records a revocation.
func (r *MySQLRevocationRepository) Create(ctx context.Context, revocationID string, revokedAt time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO revocations (revocation_id, revoked_at) VALUES (?, ?)`

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
func (r *MySQLRevocationRepository) ListIDs(ctx context.Context) ([]string, error) {
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

// Package repository implements agent identity persistence for PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/MCPTrustFramework/mcpf/internal/database"
	directoryDomain "github.com/MCPTrustFramework/mcpf/internal/directory/domain"
	apperrors "github.com/MCPTrustFramework/mcpf/internal/errors"
)

// PostgreSQLIdentityRepository handles identity persistence for PostgreSQL.
type PostgreSQLIdentityRepository struct {
	db *sql.DB
}

// NewPostgreSQLIdentityRepository creates a new PostgreSQLIdentityRepository.
func NewPostgreSQLIdentityRepository(db *sql.DB) *PostgreSQLIdentityRepository {
	return &PostgreSQLIdentityRepository{db: db}
}

// Create inserts a new identity version.
func (r *PostgreSQLIdentityRepository) Create(ctx context.Context, identity *directoryDomain.AgentIdentity) error {
	querier := database.GetTx(ctx, r.db)

	keysJSON, err := json.Marshal(identity.PublicKeys)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal public keys")
	}

	var metadataJSON []byte
	if identity.Metadata != nil {
		metadataJSON, err = json.Marshal(identity.Metadata)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal identity metadata")
		}
	}

	query := `INSERT INTO agent_identities (id, name, did, public_keys, metadata, version, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = querier.ExecContext(
		ctx,
		query,
		identity.ID,
		identity.Name,
		identity.DID,
		keysJSON,
		metadataJSON,
		identity.Version,
		identity.CreatedAt,
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return directoryDomain.ErrIdentityExists
		}
		return apperrors.Wrap(err, "failed to create agent identity")
	}
	return nil
}

// GetByName retrieves the newest identity version registered under name.
func (r *PostgreSQLIdentityRepository) GetByName(ctx context.Context, name string) (*directoryDomain.AgentIdentity, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, did, public_keys, metadata, version, created_at
			  FROM agent_identities WHERE name = $1
			  ORDER BY version DESC LIMIT 1`

	return scanIdentity(querier.QueryRowContext(ctx, query, name))
}

// GetByDID retrieves the newest identity version bound to did.
func (r *PostgreSQLIdentityRepository) GetByDID(ctx context.Context, did string) (*directoryDomain.AgentIdentity, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, did, public_keys, metadata, version, created_at
			  FROM agent_identities WHERE did = $1
			  ORDER BY version DESC LIMIT 1`

	return scanIdentity(querier.QueryRowContext(ctx, query, did))
}

// LatestVersion returns the highest version registered under name, or 0 when
// the name has never been registered.
func (r *PostgreSQLIdentityRepository) LatestVersion(ctx context.Context, name string) (int, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT COALESCE(MAX(version), 0) FROM agent_identities WHERE name = $1`

	var version int
	if err := querier.QueryRowContext(ctx, query, name).Scan(&version); err != nil {
		return 0, apperrors.Wrap(err, "failed to get latest identity version")
	}
	return version, nil
}

// scanIdentity maps one row onto an AgentIdentity, decoding the JSON columns.
func scanIdentity(row *sql.Row) (*directoryDomain.AgentIdentity, error) {
	var identity directoryDomain.AgentIdentity
	var keysJSON, metadataJSON []byte

	err := row.Scan(
		&identity.ID,
		&identity.Name,
		&identity.DID,
		&keysJSON,
		&metadataJSON,
		&identity.Version,
		&identity.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, directoryDomain.ErrIdentityNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get agent identity")
	}

	if err := json.Unmarshal(keysJSON, &identity.PublicKeys); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal public keys")
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &identity.Metadata); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal identity metadata")
		}
	}

	return &identity, nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/MCPTrustFramework/mcpf/internal/database"
	directoryDomain "github.com/MCPTrustFramework/mcpf/internal/directory/domain"
	apperrors "github.com/MCPTrustFramework/mcpf/internal/errors"
)

// MySQLIdentityRepository handles identity persistence for MySQL.
// UUIDs are stored as CHAR(36) strings.
type MySQLIdentityRepository struct {
	db *sql.DB
}

// NewMySQLIdentityRepository creates a new MySQLIdentityRepository.
func NewMySQLIdentityRepository(db *sql.DB) *MySQLIdentityRepository {
	return &MySQLIdentityRepository{db: db}
}

// Create inserts a new identity version.
func (r *MySQLIdentityRepository) Create(ctx context.Context, identity *directoryDomain.AgentIdentity) error {
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
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		identity.ID.String(),
		identity.Name,
		identity.DID,
		keysJSON,
		metadataJSON,
		identity.Version,
		identity.CreatedAt,
	)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return directoryDomain.ErrIdentityExists
		}
		return apperrors.Wrap(err, "failed to create agent identity")
	}
	return nil
}

// GetByName retrieves the newest identity version registered under name.
func (r *MySQLIdentityRepository) GetByName(ctx context.Context, name string) (*directoryDomain.AgentIdentity, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, did, public_keys, metadata, version, created_at
			  FROM agent_identities WHERE name = ?
			  ORDER BY version DESC LIMIT 1`

	return scanIdentity(querier.QueryRowContext(ctx, query, name))
}

// GetByDID retrieves the newest identity version bound to did.
func (r *MySQLIdentityRepository) GetByDID(ctx context.Context, did string) (*directoryDomain.AgentIdentity, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, did, public_keys, metadata, version, created_at
			  FROM agent_identities WHERE did = ?
			  ORDER BY version DESC LIMIT 1`

	return scanIdentity(querier.QueryRowContext(ctx, query, did))
}

// LatestVersion returns the highest version registered under name, or 0 when
// the name has never been registered.
func (r *MySQLIdentityRepository) LatestVersion(ctx context.Context, name string) (int, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT COALESCE(MAX(version), 0) FROM agent_identities WHERE name = ?`

	var version int
	if err := querier.QueryRowContext(ctx, query, name).Scan(&version); err != nil {
		return 0, apperrors.Wrap(err, "failed to get latest identity version")
	}
	return version, nil
}

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint violation.
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// MySQL: "Error 1062: Duplicate entry"
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "1062")
}

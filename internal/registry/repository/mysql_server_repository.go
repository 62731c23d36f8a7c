package repository

import (
	"context"
	"database/sql"

	"github.com/MCPTrustFramework/mcpf/internal/database"
	apperrors "github.com/MCPTrustFramework/mcpf/internal/errors"
	registryDomain "github.com/MCPTrustFramework/mcpf/internal/registry/domain"
)

// MySQLServerRepository handles server record persistence for MySQL.
type MySQLServerRepository struct {
	db *sql.DB
}

// NewMySQLServerRepository creates a new MySQLServerRepository.
func NewMySQLServerRepository(db *sql.DB) *MySQLServerRepository {
	return &MySQLServerRepository{db: db}
}

// Create stores a server record.
func (r *MySQLServerRepository) Create(ctx context.Context, server *registryDomain.ServerRecord) error {
	querier := database.GetTx(ctx, r.db)

	capabilitiesJSON, metadataJSON, err := encodeServer(server)
	if err != nil {
		return err
	}

	query := `INSERT INTO mcp_servers (id, name, endpoint, capabilities, metadata, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		server.ID,
		server.Name,
		server.Endpoint,
		capabilitiesJSON,
		metadataJSON,
		server.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return registryDomain.ErrServerExists
		}
		return apperrors.Wrap(err, "failed to create server record")
	}
	return nil
}

// Search retrieves servers advertising the capability, ordered by name.
func (r *MySQLServerRepository) Search(
	ctx context.Context,
	capability string,
	offset, limit int,
) ([]*registryDomain.ServerRecord, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, endpoint, capabilities, metadata, created_at
			  FROM mcp_servers
			  WHERE ? = '' OR JSON_CONTAINS(capabilities, JSON_QUOTE(?))
			  ORDER BY name LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, capability, capability, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to search servers")
	}
	return collectServers(rows)
}

// Package repository implements server record persistence for PostgreSQL
// and MySQL.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/MCPTrustFramework/mcpf/internal/database"
	apperrors "github.com/MCPTrustFramework/mcpf/internal/errors"
	registryDomain "github.com/MCPTrustFramework/mcpf/internal/registry/domain"
)

// PostgreSQLServerRepository handles server record persistence for PostgreSQL.
type PostgreSQLServerRepository struct {
	db *sql.DB
}

// NewPostgreSQLServerRepository creates a new PostgreSQLServerRepository.
func NewPostgreSQLServerRepository(db *sql.DB) *PostgreSQLServerRepository {
	return &PostgreSQLServerRepository{db: db}
}

// Create stores a server record.
func (r *PostgreSQLServerRepository) Create(ctx context.Context, server *registryDomain.ServerRecord) error {
	querier := database.GetTx(ctx, r.db)

	capabilitiesJSON, metadataJSON, err := encodeServer(server)
	if err != nil {
		return err
	}

	query := `INSERT INTO mcp_servers (id, name, endpoint, capabilities, metadata, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

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
func (r *PostgreSQLServerRepository) Search(
	ctx context.Context,
	capability string,
	offset, limit int,
) ([]*registryDomain.ServerRecord, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, endpoint, capabilities, metadata, created_at
			  FROM mcp_servers
			  WHERE $1 = '' OR capabilities @> jsonb_build_array($1::text)
			  ORDER BY name OFFSET $2 LIMIT $3`

	rows, err := querier.QueryContext(ctx, query, capability, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to search servers")
	}
	return collectServers(rows)
}

func collectServers(rows *sql.Rows) ([]*registryDomain.ServerRecord, error) {
	defer rows.Close()

	var servers []*registryDomain.ServerRecord
	for rows.Next() {
		var server registryDomain.ServerRecord
		var capabilitiesJSON, metadataJSON []byte

		err := rows.Scan(
			&server.ID,
			&server.Name,
			&server.Endpoint,
			&capabilitiesJSON,
			&metadataJSON,
			&server.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan server record")
		}
		if err := json.Unmarshal(capabilitiesJSON, &server.Capabilities); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal server capabilities")
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &server.Metadata); err != nil {
				return nil, apperrors.Wrap(err, "failed to unmarshal server metadata")
			}
		}
		servers = append(servers, &server)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate server records")
	}
	return servers, nil
}

func encodeServer(server *registryDomain.ServerRecord) (capabilitiesJSON, metadataJSON []byte, err error) {
	capabilitiesJSON, err = json.Marshal(server.Capabilities)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to marshal server capabilities")
	}
	metadataJSON, err = json.Marshal(server.Metadata)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to marshal server metadata")
	}
	return capabilitiesJSON, metadataJSON, nil
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

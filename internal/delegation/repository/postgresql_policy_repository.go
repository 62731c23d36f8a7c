// Package repository implements delegation policy persistence for
// PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/MCPTrustFramework/mcpf/internal/database"
	delegationDomain "github.com/MCPTrustFramework/mcpf/internal/delegation/domain"
	apperrors "github.com/MCPTrustFramework/mcpf/internal/errors"
)

// PostgreSQLPolicyRepository handles policy persistence for PostgreSQL.
type PostgreSQLPolicyRepository struct {
	db *sql.DB
}

// NewPostgreSQLPolicyRepository creates a new PostgreSQLPolicyRepository.
func NewPostgreSQLPolicyRepository(db *sql.DB) *PostgreSQLPolicyRepository {
	return &PostgreSQLPolicyRepository{db: db}
}

// Create stores a policy.
func (r *PostgreSQLPolicyRepository) Create(ctx context.Context, policy *delegationDomain.Policy) error {
	querier := database.GetTx(ctx, r.db)

	actionsJSON, constraintsJSON, err := encodePolicy(policy)
	if err != nil {
		return err
	}

	query := `INSERT INTO policies
			  (id, name, from_pattern, to_pattern, allowed_actions, constraints, version, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = querier.ExecContext(
		ctx,
		query,
		policy.ID,
		policy.Name,
		policy.FromPattern,
		policy.ToPattern,
		actionsJSON,
		constraintsJSON,
		policy.Version,
		policy.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return delegationDomain.ErrPolicyExists
		}
		return apperrors.Wrap(err, "failed to create policy")
	}
	return nil
}

// GetByID retrieves a policy.
func (r *PostgreSQLPolicyRepository) GetByID(ctx context.Context, id uuid.UUID) (*delegationDomain.Policy, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, from_pattern, to_pattern, allowed_actions, constraints, version, created_at
			  FROM policies WHERE id = $1`

	return scanPolicy(querier.QueryRowContext(ctx, query, id))
}

// List retrieves policies ordered by name.
func (r *PostgreSQLPolicyRepository) List(ctx context.Context, offset, limit int) ([]*delegationDomain.Policy, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, from_pattern, to_pattern, allowed_actions, constraints, version, created_at
			  FROM policies ORDER BY name OFFSET $1 LIMIT $2`

	rows, err := querier.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list policies")
	}
	return collectPolicies(rows)
}

// ListAll retrieves every stored policy.
func (r *PostgreSQLPolicyRepository) ListAll(ctx context.Context) ([]*delegationDomain.Policy, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, from_pattern, to_pattern, allowed_actions, constraints, version, created_at
			  FROM policies ORDER BY name`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list policies")
	}
	return collectPolicies(rows)
}

// rowScanner abstracts sql.Row and sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPolicyRow(row rowScanner) (*delegationDomain.Policy, error) {
	var policy delegationDomain.Policy
	var actionsJSON, constraintsJSON []byte

	err := row.Scan(
		&policy.ID,
		&policy.Name,
		&policy.FromPattern,
		&policy.ToPattern,
		&actionsJSON,
		&constraintsJSON,
		&policy.Version,
		&policy.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(actionsJSON, &policy.AllowedActions); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal policy actions")
	}
	if err := json.Unmarshal(constraintsJSON, &policy.Constraints); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal policy constraints")
	}
	return &policy, nil
}

func scanPolicy(row *sql.Row) (*delegationDomain.Policy, error) {
	policy, err := scanPolicyRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, delegationDomain.ErrPolicyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get policy")
	}
	return policy, nil
}

func collectPolicies(rows *sql.Rows) ([]*delegationDomain.Policy, error) {
	defer rows.Close()

	var policies []*delegationDomain.Policy
	for rows.Next() {
		policy, err := scanPolicyRow(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan policy")
		}
		policies = append(policies, policy)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate policies")
	}
	return policies, nil
}

func encodePolicy(policy *delegationDomain.Policy) (actionsJSON, constraintsJSON []byte, err error) {
	actionsJSON, err = json.Marshal(policy.AllowedActions)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to marshal policy actions")
	}
	constraintsJSON, err = json.Marshal(policy.Constraints)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to marshal policy constraints")
	}
	return actionsJSON, constraintsJSON, nil
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

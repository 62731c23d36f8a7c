package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/MCPTrustFramework/mcpf/internal/database"
	delegationDomain "github.com/MCPTrustFramework/mcpf/internal/delegation/domain"
	apperrors "github.com/MCPTrustFramework/mcpf/internal/errors"
)

// MySQLPolicyRepository handles policy persistence for MySQL.
type MySQLPolicyRepository struct {
	db *sql.DB
}

// NewMySQLPolicyRepository creates a new MySQLPolicyRepository.
func NewMySQLPolicyRepository(db *sql.DB) *MySQLPolicyRepository {
	return &MySQLPolicyRepository{db: db}
}

// Create stores a policy.
func (r *MySQLPolicyRepository) Create(ctx context.Context, policy *delegationDomain.Policy) error {
	querier := database.GetTx(ctx, r.db)

	actionsJSON, constraintsJSON, err := encodePolicy(policy)
	if err != nil {
		return err
	}

	query := `INSERT INTO policies
			  (id, name, from_pattern, to_pattern, allowed_actions, constraints, version, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

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
func (r *MySQLPolicyRepository) GetByID(ctx context.Context, id uuid.UUID) (*delegationDomain.Policy, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, from_pattern, to_pattern, allowed_actions, constraints, version, created_at
			  FROM policies WHERE id = ?`

	return scanPolicy(querier.QueryRowContext(ctx, query, id))
}

// List retrieves policies ordered by name.
func (r *MySQLPolicyRepository) List(ctx context.Context, offset, limit int) ([]*delegationDomain.Policy, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, from_pattern, to_pattern, allowed_actions, constraints, version, created_at
			  FROM policies ORDER BY name LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list policies")
	}
	return collectPolicies(rows)
}

// ListAll retrieves every stored policy.
func (r *MySQLPolicyRepository) ListAll(ctx context.Context) ([]*delegationDomain.Policy, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, from_pattern, to_pattern, allowed_actions, constraints, version, created_at
			  FROM policies ORDER BY name`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list policies")
	}
	return collectPolicies(rows)
}

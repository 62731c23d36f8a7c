package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	approvalDomain "github.com/MCPTrustFramework/mcpf/internal/approval/domain"
	"github.com/MCPTrustFramework/mcpf/internal/database"
	apperrors "github.com/MCPTrustFramework/mcpf/internal/errors"
)

// MySQLRequestRepository handles approval request persistence for MySQL.
// UUIDs are stored as CHAR(36) strings.
type MySQLRequestRepository struct {
	db *sql.DB
}

// NewMySQLRequestRepository creates a new MySQLRequestRepository.
func NewMySQLRequestRepository(db *sql.DB) *MySQLRequestRepository {
	return &MySQLRequestRepository{db: db}
}

// Create stores a new pending request.
func (r *MySQLRequestRepository) Create(ctx context.Context, request *approvalDomain.Request) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO approval_requests
			  (id, context_key, from_did, to_did, action, policy_id, status, requested_at, expires_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		request.ID.String(),
		request.ContextKey,
		request.FromDID,
		request.ToDID,
		request.Action,
		request.PolicyID.String(),
		string(request.Status),
		request.RequestedAt,
		request.ExpiresAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create approval request")
	}
	return nil
}

// Settle transitions a pending request to its final status. The conditional
// update serializes concurrent settlements.
func (r *MySQLRequestRepository) Settle(
	ctx context.Context,
	id uuid.UUID,
	status approvalDomain.Status,
	approverID uuid.UUID,
	respondedAt time.Time,
) error {
	querier := database.GetTx(ctx, r.db)

	var approver any
	if approverID != uuid.Nil {
		approver = approverID.String()
	}

	query := `UPDATE approval_requests
			  SET status = ?, approver_id = ?, responded_at = ?
			  WHERE id = ? AND status = 'pending'`

	result, err := querier.ExecContext(ctx, query, string(status), approver, respondedAt, id.String())
	if err != nil {
		return apperrors.Wrap(err, "failed to settle approval request")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to settle approval request")
	}
	if affected == 0 {
		return approvalDomain.ErrRequestNotPending
	}
	return nil
}

// GetByID retrieves a request.
func (r *MySQLRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*approvalDomain.Request, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, context_key, from_did, to_did, action, policy_id, status,
			  approver_id, requested_at, responded_at, expires_at
			  FROM approval_requests WHERE id = ?`

	return scanRequest(querier.QueryRowContext(ctx, query, id.String()))
}

// ListPending retrieves pending requests ordered by request time.
func (r *MySQLRequestRepository) ListPending(
	ctx context.Context,
	offset, limit int,
) ([]*approvalDomain.Request, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, context_key, from_did, to_did, action, policy_id, status,
			  approver_id, requested_at, responded_at, expires_at
			  FROM approval_requests WHERE status = 'pending'
			  ORDER BY requested_at ASC LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list pending approval requests")
	}
	defer rows.Close()

	var requests []*approvalDomain.Request
	for rows.Next() {
		request, err := scanRequestRow(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate approval requests")
	}
	return requests, nil
}

// MySQLApproverRepository handles approver persistence for MySQL.
type MySQLApproverRepository struct {
	db *sql.DB
}

// NewMySQLApproverRepository creates a new MySQLApproverRepository.
func NewMySQLApproverRepository(db *sql.DB) *MySQLApproverRepository {
	return &MySQLApproverRepository{db: db}
}

// Create stores a new approver.
func (r *MySQLApproverRepository) Create(ctx context.Context, approver *approvalDomain.Approver) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO approvers (id, name, secret_hash, created_at) VALUES (?, ?, ?, ?)`

	_, err := querier.ExecContext(ctx, query, approver.ID.String(), approver.Name, approver.SecretHash, approver.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return approvalDomain.ErrApproverExists
		}
		return apperrors.Wrap(err, "failed to create approver")
	}
	return nil
}

// GetByID retrieves an approver.
func (r *MySQLApproverRepository) GetByID(ctx context.Context, id uuid.UUID) (*approvalDomain.Approver, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, secret_hash, created_at FROM approvers WHERE id = ?`

	var approver approvalDomain.Approver
	err := querier.QueryRowContext(ctx, query, id.String()).Scan(
		&approver.ID, &approver.Name, &approver.SecretHash, &approver.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, approvalDomain.ErrApproverNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get approver")
	}
	return &approver, nil
}

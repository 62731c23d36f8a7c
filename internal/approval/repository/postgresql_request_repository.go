// Package repository implements approval request and approver persistence
// for PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	approvalDomain "github.com/MCPTrustFramework/mcpf/internal/approval/domain"
	"github.com/MCPTrustFramework/mcpf/internal/database"
	apperrors "github.com/MCPTrustFramework/mcpf/internal/errors"
)

// PostgreSQLRequestRepository handles approval request persistence for
// PostgreSQL.
type PostgreSQLRequestRepository struct {
	db *sql.DB
}

// NewPostgreSQLRequestRepository creates a new PostgreSQLRequestRepository.
func NewPostgreSQLRequestRepository(db *sql.DB) *PostgreSQLRequestRepository {
	return &PostgreSQLRequestRepository{db: db}
}

// Create stores a new pending request.
func (r *PostgreSQLRequestRepository) Create(ctx context.Context, request *approvalDomain.Request) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO approval_requests
			  (id, context_key, from_did, to_did, action, policy_id, status, requested_at, expires_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := querier.ExecContext(
		ctx,
		query,
		request.ID,
		request.ContextKey,
		request.FromDID,
		request.ToDID,
		request.Action,
		request.PolicyID,
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
// update serializes concurrent settlements: exactly one wins, the rest see
// ErrRequestNotPending.
func (r *PostgreSQLRequestRepository) Settle(
	ctx context.Context,
	id uuid.UUID,
	status approvalDomain.Status,
	approverID uuid.UUID,
	respondedAt time.Time,
) error {
	querier := database.GetTx(ctx, r.db)

	var approver any
	if approverID != uuid.Nil {
		approver = approverID
	}

	query := `UPDATE approval_requests
			  SET status = $1, approver_id = $2, responded_at = $3
			  WHERE id = $4 AND status = 'pending'`

	result, err := querier.ExecContext(ctx, query, string(status), approver, respondedAt, id)
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
func (r *PostgreSQLRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*approvalDomain.Request, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, context_key, from_did, to_did, action, policy_id, status,
			  approver_id, requested_at, responded_at, expires_at
			  FROM approval_requests WHERE id = $1`

	return scanRequest(querier.QueryRowContext(ctx, query, id))
}

// ListPending retrieves pending requests ordered by request time.
func (r *PostgreSQLRequestRepository) ListPending(
	ctx context.Context,
	offset, limit int,
) ([]*approvalDomain.Request, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, context_key, from_did, to_did, action, policy_id, status,
			  approver_id, requested_at, responded_at, expires_at
			  FROM approval_requests WHERE status = 'pending'
			  ORDER BY requested_at ASC LIMIT $1 OFFSET $2`

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

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row *sql.Row) (*approvalDomain.Request, error) {
	request, err := scanRequestFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, approvalDomain.ErrRequestNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get approval request")
	}
	return request, nil
}

func scanRequestRow(rows *sql.Rows) (*approvalDomain.Request, error) {
	request, err := scanRequestFrom(rows)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan approval request")
	}
	return request, nil
}

func scanRequestFrom(scanner rowScanner) (*approvalDomain.Request, error) {
	var request approvalDomain.Request
	var status string
	var approverID uuid.NullUUID
	var respondedAt sql.NullTime

	err := scanner.Scan(
		&request.ID,
		&request.ContextKey,
		&request.FromDID,
		&request.ToDID,
		&request.Action,
		&request.PolicyID,
		&status,
		&approverID,
		&request.RequestedAt,
		&respondedAt,
		&request.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	request.Status = approvalDomain.Status(status)
	if approverID.Valid {
		request.ApproverID = approverID.UUID
	}
	if respondedAt.Valid {
		request.RespondedAt = &respondedAt.Time
	}
	return &request, nil
}

// PostgreSQLApproverRepository handles approver persistence for PostgreSQL.
type PostgreSQLApproverRepository struct {
	db *sql.DB
}

// NewPostgreSQLApproverRepository creates a new PostgreSQLApproverRepository.
func NewPostgreSQLApproverRepository(db *sql.DB) *PostgreSQLApproverRepository {
	return &PostgreSQLApproverRepository{db: db}
}

// Create stores a new approver.
func (r *PostgreSQLApproverRepository) Create(ctx context.Context, approver *approvalDomain.Approver) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO approvers (id, name, secret_hash, created_at) VALUES ($1, $2, $3, $4)`

	_, err := querier.ExecContext(ctx, query, approver.ID, approver.Name, approver.SecretHash, approver.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return approvalDomain.ErrApproverExists
		}
		return apperrors.Wrap(err, "failed to create approver")
	}
	return nil
}

// GetByID retrieves an approver.
func (r *PostgreSQLApproverRepository) GetByID(ctx context.Context, id uuid.UUID) (*approvalDomain.Approver, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, secret_hash, created_at FROM approvers WHERE id = $1`

	var approver approvalDomain.Approver
	err := querier.QueryRowContext(ctx, query, id).Scan(
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

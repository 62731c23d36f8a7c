// Package repository implements audit entry persistence for PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	auditDomain "github.com/MCPTrustFramework/mcpf/internal/audit/domain"
	"github.com/MCPTrustFramework/mcpf/internal/database"
	apperrors "github.com/MCPTrustFramework/mcpf/internal/errors"
)

// PostgreSQLEntryRepository implements audit entry persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLEntryRepository struct {
	db *sql.DB
}

// NewPostgreSQLEntryRepository creates a new PostgreSQL audit entry repository.
func NewPostgreSQLEntryRepository(db *sql.DB) *PostgreSQLEntryRepository {
	return &PostgreSQLEntryRepository{db: db}
}

// Create inserts a new Entry. The unique index on sequence makes concurrent
// double-allocation fail loudly instead of silently reordering the trail.
func (p *PostgreSQLEntryRepository) Create(ctx context.Context, entry *auditDomain.Entry) error {
	querier := database.GetTx(ctx, p.db)

	subjectsJSON, err := json.Marshal(entry.SubjectDIDs)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal subject dids")
	}

	var metadataJSON []byte
	if entry.Metadata != nil {
		metadataJSON, err = json.Marshal(entry.Metadata)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal audit entry metadata")
		}
	}

	query := `INSERT INTO audit_entries (id, sequence, kind, subject_dids, outcome, reason_code, metadata, signature, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = querier.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.Sequence,
		string(entry.Kind),
		subjectsJSON,
		entry.Outcome,
		entry.ReasonCode,
		metadataJSON,
		entry.Signature,
		entry.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit entry")
	}

	return nil
}

// List retrieves entries matching the filter ordered by ascending sequence.
// Returns empty slice if no entries match.
func (p *PostgreSQLEntryRepository) List(
	ctx context.Context,
	filter auditDomain.Filter,
) ([]*auditDomain.Entry, error) {
	querier := database.GetTx(ctx, p.db)

	conditions := []string{"sequence >= $1"}
	args := []any{filter.FromSequence}

	if filter.Kind != "" {
		args = append(args, string(filter.Kind))
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)))
	}
	if filter.CreatedAtFrom != nil {
		args = append(args, *filter.CreatedAtFrom)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedAtTo != nil {
		args = append(args, *filter.CreatedAtTo)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	limitPos := len(args)
	args = append(args, filter.Offset)
	offsetPos := len(args)

	query := fmt.Sprintf(`SELECT id, sequence, kind, subject_dids, outcome, reason_code, metadata, signature, created_at
			  FROM audit_entries
			  WHERE %s
			  ORDER BY sequence ASC
			  LIMIT $%d OFFSET $%d`, strings.Join(conditions, " AND "), limitPos, offsetPos)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit entries")
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*auditDomain.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit entries")
	}

	return entries, nil
}

// MaxSequence returns the highest allocated sequence number, or 0 for an empty log.
func (p *PostgreSQLEntryRepository) MaxSequence(ctx context.Context) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	var maxSeq sql.NullInt64
	err := querier.QueryRowContext(ctx, `SELECT MAX(sequence) FROM audit_entries`).Scan(&maxSeq)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get max audit sequence")
	}

	if !maxSeq.Valid {
		return 0, nil
	}
	return maxSeq.Int64, nil
}

// scanEntry scans one row into an Entry, shared by both driver implementations.
func scanEntry(rows *sql.Rows) (*auditDomain.Entry, error) {
	var entry auditDomain.Entry
	var kind string
	var subjectsJSON []byte
	var metadataJSON []byte

	err := rows.Scan(
		&entry.ID,
		&entry.Sequence,
		&kind,
		&subjectsJSON,
		&entry.Outcome,
		&entry.ReasonCode,
		&metadataJSON,
		&entry.Signature,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan audit entry")
	}

	entry.Kind = auditDomain.Kind(kind)

	if err := json.Unmarshal(subjectsJSON, &entry.SubjectDIDs); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal subject dids")
	}
	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit entry metadata")
		}
	}

	return &entry, nil
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	auditDomain "github.com/MCPTrustFramework/mcpf/internal/audit/domain"
	"github.com/MCPTrustFramework/mcpf/internal/database"
	apperrors "github.com/MCPTrustFramework/mcpf/internal/errors"
)

// MySQLEntryRepository implements audit entry persistence for MySQL.
// UUIDs are stored as CHAR(36) strings; otherwise mirrors the PostgreSQL
// implementation with ? placeholders.
type MySQLEntryRepository struct {
	db *sql.DB
}

// NewMySQLEntryRepository creates a new MySQL audit entry repository.
func NewMySQLEntryRepository(db *sql.DB) *MySQLEntryRepository {
	return &MySQLEntryRepository{db: db}
}

// Create inserts a new Entry into the MySQL database.
func (m *MySQLEntryRepository) Create(ctx context.Context, entry *auditDomain.Entry) error {
	querier := database.GetTx(ctx, m.db)

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
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		entry.ID.String(),
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
func (m *MySQLEntryRepository) List(
	ctx context.Context,
	filter auditDomain.Filter,
) ([]*auditDomain.Entry, error) {
	querier := database.GetTx(ctx, m.db)

	conditions := []string{"sequence >= ?"}
	args := []any{filter.FromSequence}

	if filter.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.CreatedAtFrom != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, *filter.CreatedAtFrom)
	}
	if filter.CreatedAtTo != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, *filter.CreatedAtTo)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)

	query := `SELECT id, sequence, kind, subject_dids, outcome, reason_code, metadata, signature, created_at
			  FROM audit_entries
			  WHERE ` + strings.Join(conditions, " AND ") + `
			  ORDER BY sequence ASC
			  LIMIT ? OFFSET ?`

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
func (m *MySQLEntryRepository) MaxSequence(ctx context.Context) (int64, error) {
	querier := database.GetTx(ctx, m.db)

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

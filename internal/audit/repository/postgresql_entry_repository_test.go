package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/MCPTrustFramework/mcpf/internal/audit/domain"
)

func testAuditEntry() *auditDomain.Entry {
	return &auditDomain.Entry{
		ID:          uuid.Must(uuid.NewV7()),
		Sequence:    1,
		Kind:        auditDomain.KindResolution,
		SubjectDIDs: []string{"did:web:detector.risk.bank"},
		Outcome:     auditDomain.OutcomeSuccess,
		Metadata:    map[string]any{"name": "detector.risk.bank.agent"},
		Signature:   []byte("sig"),
		CreatedAt:   time.Now().UTC(),
	}
}

func TestPostgreSQLEntryRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLEntryRepository(db)
	entry := testAuditEntry()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO audit_entries`)).
		WithArgs(
			entry.ID,
			entry.Sequence,
			string(entry.Kind),
			sqlmock.AnyArg(),
			entry.Outcome,
			entry.ReasonCode,
			sqlmock.AnyArg(),
			entry.Signature,
			entry.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	assert.NoError(t, repo.Create(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLEntryRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLEntryRepository(db)

	t.Run("filters by kind and sequence", func(t *testing.T) {
		entry := testAuditEntry()
		rows := sqlmock.NewRows([]string{
			"id", "sequence", "kind", "subject_dids", "outcome", "reason_code", "metadata", "signature", "created_at",
		}).AddRow(
			entry.ID, entry.Sequence, string(entry.Kind), []byte(`["did:web:detector.risk.bank"]`),
			entry.Outcome, entry.ReasonCode, []byte(`{"name":"detector.risk.bank.agent"}`),
			entry.Signature, entry.CreatedAt,
		)

		mock.ExpectQuery("SELECT (.+) FROM audit_entries").
			WithArgs(int64(0), string(auditDomain.KindResolution), 50, 0).
			WillReturnRows(rows)

		entries, err := repo.List(context.Background(), auditDomain.Filter{Kind: auditDomain.KindResolution})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, entry.SubjectDIDs, entries[0].SubjectDIDs)
		assert.Equal(t, auditDomain.KindResolution, entries[0].Kind)
	})

	t.Run("empty result yields empty slice", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "sequence", "kind", "subject_dids", "outcome", "reason_code", "metadata", "signature", "created_at",
		})
		mock.ExpectQuery("SELECT (.+) FROM audit_entries").WillReturnRows(rows)

		entries, err := repo.List(context.Background(), auditDomain.Filter{})
		require.NoError(t, err)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	})
}

func TestPostgreSQLEntryRepository_MaxSequence(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLEntryRepository(db)

	t.Run("returns stored maximum", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT MAX(sequence) FROM audit_entries`)).
			WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(99))

		maxSeq, err := repo.MaxSequence(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(99), maxSeq)
	})

	t.Run("empty log returns zero", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT MAX(sequence) FROM audit_entries`)).
			WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

		maxSeq, err := repo.MaxSequence(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(0), maxSeq)
	})
}

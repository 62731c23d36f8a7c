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

	directoryDomain "github.com/MCPTrustFramework/mcpf/internal/directory/domain"
)

func testRepoIdentity() *directoryDomain.AgentIdentity {
	return &directoryDomain.AgentIdentity{
		ID:   uuid.Must(uuid.NewV7()),
		Name: "fraud-detector.risk.dbs.example.agent",
		DID:  "did:web:fraud-detector.risk.dbs.example.com",
		PublicKeys: []directoryDomain.PublicKey{
			{KeyID: "key-1", Algorithm: "ed25519", Material: make([]byte, 32)},
		},
		Metadata:  map[string]string{"team": "risk"},
		Version:   1,
		CreatedAt: time.Now().UTC(),
	}
}

func TestPostgreSQLIdentityRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLIdentityRepository(db)
	identity := testRepoIdentity()

	t.Run("inserts a new identity version", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO agent_identities`)).
			WithArgs(
				identity.ID,
				identity.Name,
				identity.DID,
				sqlmock.AnyArg(),
				sqlmock.AnyArg(),
				identity.Version,
				identity.CreatedAt,
			).
			WillReturnResult(sqlmock.NewResult(1, 1))

		assert.NoError(t, repo.Create(context.Background(), identity))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps unique violations to the conflict error", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO agent_identities`)).
			WillReturnError(assertableUniqueViolation{})

		err := repo.Create(context.Background(), identity)
		assert.ErrorIs(t, err, directoryDomain.ErrIdentityExists)
	})
}

// assertableUniqueViolation mimics the driver error text for a unique
// constraint violation.
type assertableUniqueViolation struct{}

func (assertableUniqueViolation) Error() string {
	return `pq: duplicate key value violates unique constraint "agent_identities_name_version_key"`
}

func TestPostgreSQLIdentityRepository_GetByName(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLIdentityRepository(db)

	t.Run("returns the newest version", func(t *testing.T) {
		identity := testRepoIdentity()
		rows := sqlmock.NewRows([]string{
			"id", "name", "did", "public_keys", "metadata", "version", "created_at",
		}).AddRow(
			identity.ID, identity.Name, identity.DID,
			[]byte(`[{"key_id":"key-1","algorithm":"ed25519","material":"AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="}]`),
			[]byte(`{"team":"risk"}`),
			identity.Version, identity.CreatedAt,
		)

		mock.ExpectQuery("SELECT (.+) FROM agent_identities").
			WithArgs(identity.Name).
			WillReturnRows(rows)

		got, err := repo.GetByName(context.Background(), identity.Name)
		require.NoError(t, err)
		assert.Equal(t, identity.DID, got.DID)
		assert.Equal(t, "key-1", got.PublicKeys[0].KeyID)
		assert.Equal(t, "risk", got.Metadata["team"])
	})

	t.Run("maps missing rows to not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM agent_identities").
			WithArgs("missing.example.agent").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "name", "did", "public_keys", "metadata", "version", "created_at",
			}))

		_, err := repo.GetByName(context.Background(), "missing.example.agent")
		assert.ErrorIs(t, err, directoryDomain.ErrIdentityNotFound)
	})
}

func TestPostgreSQLIdentityRepository_LatestVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLIdentityRepository(db)

	t.Run("returns the highest registered version", func(t *testing.T) {
		mock.ExpectQuery("SELECT COALESCE").
			WithArgs("fraud-detector.risk.dbs.example.agent").
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(3))

		version, err := repo.LatestVersion(context.Background(), "fraud-detector.risk.dbs.example.agent")
		require.NoError(t, err)
		assert.Equal(t, 3, version)
	})

	t.Run("returns zero for an unregistered name", func(t *testing.T) {
		mock.ExpectQuery("SELECT COALESCE").
			WithArgs("missing.example.agent").
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

		version, err := repo.LatestVersion(context.Background(), "missing.example.agent")
		require.NoError(t, err)
		assert.Equal(t, 0, version)
	})
}

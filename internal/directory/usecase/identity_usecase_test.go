package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	auditDomain "github.com/MCPTrustFramework/mcpf/internal/audit/domain"
	directoryDomain "github.com/MCPTrustFramework/mcpf/internal/directory/domain"
	apperrors "github.com/MCPTrustFramework/mcpf/internal/errors"
)

// mockIdentityRepository is a mock implementation of IdentityRepository for testing.
type mockIdentityRepository struct {
	mock.Mock
}

func (m *mockIdentityRepository) Create(ctx context.Context, identity *directoryDomain.AgentIdentity) error {
	args := m.Called(ctx, identity)
	return args.Error(0)
}

func (m *mockIdentityRepository) GetByName(ctx context.Context, name string) (*directoryDomain.AgentIdentity, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directoryDomain.AgentIdentity), args.Error(1)
}

func (m *mockIdentityRepository) GetByDID(ctx context.Context, did string) (*directoryDomain.AgentIdentity, error) {
	args := m.Called(ctx, did)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directoryDomain.AgentIdentity), args.Error(1)
}

func (m *mockIdentityRepository) LatestVersion(ctx context.Context, name string) (int, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(int), args.Error(1)
}

// mockAuditUseCase is a mock implementation of the audit UseCase for testing.
type mockAuditUseCase struct {
	mock.Mock
}

func (m *mockAuditUseCase) Append(
	ctx context.Context,
	kind auditDomain.Kind,
	subjectDIDs []string,
	outcome string,
	reasonCode string,
	metadata map[string]any,
) (int64, error) {
	args := m.Called(ctx, kind, subjectDIDs, outcome, reasonCode, metadata)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAuditUseCase) Query(ctx context.Context, filter auditDomain.Filter) ([]*auditDomain.Entry, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.Entry), args.Error(1)
}

func (m *mockAuditUseCase) VerifyEntries(ctx context.Context, filter auditDomain.Filter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int), args.Error(1)
}

func testIdentity(name, did string) *directoryDomain.AgentIdentity {
	return &directoryDomain.AgentIdentity{
		ID:   uuid.Must(uuid.NewV7()),
		Name: name,
		DID:  did,
		PublicKeys: []directoryDomain.PublicKey{
			{KeyID: "key-1", Algorithm: "ed25519", Material: make([]byte, 32)},
		},
		Version:   1,
		CreatedAt: time.Now().UTC(),
	}
}

func TestIdentityUseCase_Resolve(t *testing.T) {
	ctx := context.Background()
	name := "fraud-detector.risk.dbs.example.agent"
	did := "did:web:fraud-detector.risk.dbs.example.com"

	t.Run("resolves an exact match and audits it", func(t *testing.T) {
		mockRepo := &mockIdentityRepository{}
		mockAudit := &mockAuditUseCase{}

		identity := testIdentity(name, did)
		mockRepo.On("GetByName", ctx, name).Return(identity, nil).Once()
		mockAudit.On(
			"Append", ctx, auditDomain.KindResolution, []string{did},
			auditDomain.OutcomeSuccess, "", mock.Anything,
		).Return(int64(1), nil).Once()

		uc := NewIdentityUseCase(mockRepo, mockAudit, time.Minute)

		got, err := uc.Resolve(ctx, name)

		assert.NoError(t, err)
		assert.Equal(t, identity, got)
		mockRepo.AssertExpectations(t)
		mockAudit.AssertExpectations(t)
	})

	t.Run("falls back to the nearest wildcard parent", func(t *testing.T) {
		mockRepo := &mockIdentityRepository{}
		mockAudit := &mockAuditUseCase{}

		parent := testIdentity("*.risk.dbs.example.agent", "did:web:risk.dbs.example.com")
		mockRepo.On("GetByName", ctx, name).
			Return(nil, directoryDomain.ErrIdentityNotFound).Once()
		mockRepo.On("GetByName", ctx, "*.risk.dbs.example.agent").
			Return(parent, nil).Once()
		mockAudit.On(
			"Append", ctx, auditDomain.KindResolution, []string{parent.DID},
			auditDomain.OutcomeSuccess, "", mock.Anything,
		).Return(int64(1), nil).Once()

		uc := NewIdentityUseCase(mockRepo, mockAudit, time.Minute)

		got, err := uc.Resolve(ctx, name)

		assert.NoError(t, err)
		assert.Equal(t, parent, got)
		mockRepo.AssertExpectations(t)
	})

	t.Run("rejects a malformed name and audits the rejection", func(t *testing.T) {
		mockRepo := &mockIdentityRepository{}
		mockAudit := &mockAuditUseCase{}

		mockAudit.On(
			"Append", ctx, auditDomain.KindResolution, []string{},
			auditDomain.OutcomeInvalid, "malformed_name", mock.Anything,
		).Return(int64(1), nil).Once()

		uc := NewIdentityUseCase(mockRepo, mockAudit, time.Minute)

		got, err := uc.Resolve(ctx, "Not A Name")

		assert.Nil(t, got)
		assert.ErrorIs(t, err, apperrors.ErrMalformed)
		mockRepo.AssertNotCalled(t, "GetByName")
		mockAudit.AssertExpectations(t)
	})

	t.Run("reports not found when no record or wildcard matches", func(t *testing.T) {
		mockRepo := &mockIdentityRepository{}
		mockAudit := &mockAuditUseCase{}

		mockRepo.On("GetByName", ctx, mock.Anything).
			Return(nil, directoryDomain.ErrIdentityNotFound)
		mockAudit.On(
			"Append", ctx, auditDomain.KindResolution, []string{},
			auditDomain.OutcomeDenied, "not_found", mock.Anything,
		).Return(int64(1), nil).Once()

		uc := NewIdentityUseCase(mockRepo, mockAudit, time.Minute)

		got, err := uc.Resolve(ctx, name)

		assert.Nil(t, got)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		mockAudit.AssertExpectations(t)
	})

	t.Run("fails the resolution when the audit write fails", func(t *testing.T) {
		mockRepo := &mockIdentityRepository{}
		mockAudit := &mockAuditUseCase{}

		identity := testIdentity(name, did)
		mockRepo.On("GetByName", ctx, name).Return(identity, nil).Once()
		mockAudit.On("Append", ctx, auditDomain.KindResolution, []string{did},
			auditDomain.OutcomeSuccess, "", mock.Anything).
			Return(int64(0), auditDomain.ErrWriteFailed).Once()

		uc := NewIdentityUseCase(mockRepo, mockAudit, time.Minute)

		got, err := uc.Resolve(ctx, name)

		assert.Nil(t, got)
		assert.ErrorIs(t, err, apperrors.ErrAuditWrite)
	})

	t.Run("serves repeat resolutions from cache but still audits each one", func(t *testing.T) {
		mockRepo := &mockIdentityRepository{}
		mockAudit := &mockAuditUseCase{}

		identity := testIdentity(name, did)
		mockRepo.On("GetByName", ctx, name).Return(identity, nil).Once()
		mockAudit.On(
			"Append", ctx, auditDomain.KindResolution, []string{did},
			auditDomain.OutcomeSuccess, "", mock.Anything,
		).Return(int64(1), nil).Times(3)

		uc := NewIdentityUseCase(mockRepo, mockAudit, time.Minute)

		for i := 0; i < 3; i++ {
			got, err := uc.Resolve(ctx, name)
			assert.NoError(t, err)
			assert.Equal(t, identity, got)
		}
		mockRepo.AssertExpectations(t)
		mockAudit.AssertExpectations(t)
	})

	t.Run("expired cache entries trigger a fresh lookup", func(t *testing.T) {
		mockRepo := &mockIdentityRepository{}
		mockAudit := &mockAuditUseCase{}

		identity := testIdentity(name, did)
		mockRepo.On("GetByName", ctx, name).Return(identity, nil).Twice()
		mockAudit.On("Append", ctx, auditDomain.KindResolution, []string{did},
			auditDomain.OutcomeSuccess, "", mock.Anything).
			Return(int64(1), nil).Twice()

		uc := NewIdentityUseCase(mockRepo, mockAudit, time.Minute).(*identityUseCase)
		now := time.Now().UTC()
		uc.clock = func() time.Time { return now }

		_, err := uc.Resolve(ctx, name)
		assert.NoError(t, err)

		now = now.Add(2 * time.Minute)

		_, err = uc.Resolve(ctx, name)
		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})
}

func TestIdentityUseCase_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes the next version and invalidates the cache", func(t *testing.T) {
		mockRepo := &mockIdentityRepository{}
		mockAudit := &mockAuditUseCase{}

		name := "fraud-detector.risk.dbs.example.agent"
		did := "did:web:fraud-detector.risk.dbs.example.com"
		cached := testIdentity(name, did)

		mockRepo.On("GetByName", ctx, name).Return(cached, nil).Twice()
		mockAudit.On("Append", ctx, auditDomain.KindResolution, []string{did},
			auditDomain.OutcomeSuccess, "", mock.Anything).
			Return(int64(1), nil).Twice()
		mockRepo.On("LatestVersion", ctx, name).Return(2, nil).Once()
		mockRepo.On("Create", ctx, mock.MatchedBy(func(i *directoryDomain.AgentIdentity) bool {
			return i.Name == name && i.Version == 3
		})).Return(nil).Once()

		uc := NewIdentityUseCase(mockRepo, mockAudit, time.Minute)

		// Warm the cache, republish, then resolve again. The second resolve
		// must go back to the repository.
		_, err := uc.Resolve(ctx, name)
		assert.NoError(t, err)

		identity, err := uc.Register(ctx, &RegisterIdentityInput{
			Name: name,
			DID:  did,
			PublicKeys: []directoryDomain.PublicKey{
				{KeyID: "key-2", Algorithm: "ed25519", Material: make([]byte, 32)},
			},
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, identity.Version)

		_, err = uc.Resolve(ctx, name)
		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("wildcard republish invalidates cached child resolutions", func(t *testing.T) {
		mockRepo := &mockIdentityRepository{}
		mockAudit := &mockAuditUseCase{}

		childName := "fraud-detector.risk.dbs.example.agent"
		pattern := "*.risk.dbs.example.agent"
		oldParent := testIdentity(pattern, "did:web:risk.dbs.example.com")
		newParent := testIdentity(pattern, "did:web:risk-v2.dbs.example.com")
		newParent.Version = 2

		mockRepo.On("GetByName", ctx, childName).
			Return(nil, directoryDomain.ErrIdentityNotFound).Twice()
		mockRepo.On("GetByName", ctx, pattern).Return(oldParent, nil).Once()
		mockRepo.On("GetByName", ctx, pattern).Return(newParent, nil).Once()
		mockRepo.On("LatestVersion", ctx, pattern).Return(1, nil).Once()
		mockRepo.On("Create", ctx, mock.Anything).Return(nil).Once()
		mockAudit.On("Append", ctx, auditDomain.KindResolution, mock.Anything,
			auditDomain.OutcomeSuccess, "", mock.Anything).
			Return(int64(1), nil).Twice()

		uc := NewIdentityUseCase(mockRepo, mockAudit, time.Minute)

		// Warm the cache through the wildcard walk, republish the wildcard,
		// then resolve the child again. The cached entry must not survive.
		got, err := uc.Resolve(ctx, childName)
		assert.NoError(t, err)
		assert.Equal(t, oldParent.DID, got.DID)

		_, err = uc.Register(ctx, &RegisterIdentityInput{
			Name: pattern,
			DID:  newParent.DID,
		})
		assert.NoError(t, err)

		got, err = uc.Resolve(ctx, childName)
		assert.NoError(t, err)
		assert.Equal(t, newParent.DID, got.DID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("accepts wildcard record names", func(t *testing.T) {
		mockRepo := &mockIdentityRepository{}
		mockAudit := &mockAuditUseCase{}

		name := "*.risk.dbs.example.agent"
		mockRepo.On("LatestVersion", ctx, name).Return(0, nil).Once()
		mockRepo.On("Create", ctx, mock.Anything).Return(nil).Once()

		uc := NewIdentityUseCase(mockRepo, mockAudit, time.Minute)

		identity, err := uc.Register(ctx, &RegisterIdentityInput{
			Name: name,
			DID:  "did:web:risk.dbs.example.com",
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, identity.Version)
	})

	t.Run("rejects a malformed name", func(t *testing.T) {
		uc := NewIdentityUseCase(&mockIdentityRepository{}, &mockAuditUseCase{}, time.Minute)

		_, err := uc.Register(ctx, &RegisterIdentityInput{
			Name: "no-suffix.example",
			DID:  "did:web:example.com",
		})

		assert.ErrorIs(t, err, directoryDomain.ErrNameMalformed)
	})

	t.Run("rejects a malformed did", func(t *testing.T) {
		uc := NewIdentityUseCase(&mockIdentityRepository{}, &mockAuditUseCase{}, time.Minute)

		_, err := uc.Register(ctx, &RegisterIdentityInput{
			Name: "fraud-detector.risk.dbs.example.agent",
			DID:  "urn:not-a-did",
		})

		assert.ErrorIs(t, err, directoryDomain.ErrDIDMalformed)
	})
}

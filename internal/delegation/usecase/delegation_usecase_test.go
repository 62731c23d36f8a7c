package usecase

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	approvalDomain "github.com/MCPTrustFramework/mcpf/internal/approval/domain"
	approvalUsecase "github.com/MCPTrustFramework/mcpf/internal/approval/usecase"
	auditDomain "github.com/MCPTrustFramework/mcpf/internal/audit/domain"
	delegationDomain "github.com/MCPTrustFramework/mcpf/internal/delegation/domain"
	directoryDomain "github.com/MCPTrustFramework/mcpf/internal/directory/domain"
	apperrors "github.com/MCPTrustFramework/mcpf/internal/errors"
)

// mockPolicyRepository is a mock implementation of PolicyRepository for testing.
type mockPolicyRepository struct {
	mock.Mock
}

func (m *mockPolicyRepository) Create(ctx context.Context, policy *delegationDomain.Policy) error {
	args := m.Called(ctx, policy)
	return args.Error(0)
}

func (m *mockPolicyRepository) GetByID(ctx context.Context, id uuid.UUID) (*delegationDomain.Policy, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*delegationDomain.Policy), args.Error(1)
}

func (m *mockPolicyRepository) List(ctx context.Context, offset, limit int) ([]*delegationDomain.Policy, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*delegationDomain.Policy), args.Error(1)
}

func (m *mockPolicyRepository) ListAll(ctx context.Context) ([]*delegationDomain.Policy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*delegationDomain.Policy), args.Error(1)
}

// mockDelegateDirectory is a mock implementation of DelegateDirectory for testing.
type mockDelegateDirectory struct {
	mock.Mock
}

func (m *mockDelegateDirectory) GetByDID(ctx context.Context, did string) (*directoryDomain.AgentIdentity, error) {
	args := m.Called(ctx, did)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directoryDomain.AgentIdentity), args.Error(1)
}

// mockCoordinator is a mock implementation of the approval Coordinator for testing.
type mockCoordinator struct {
	mock.Mock
}

func (m *mockCoordinator) RequestApproval(
	ctx context.Context,
	input approvalUsecase.ApprovalInput,
	timeout time.Duration,
) (approvalDomain.Outcome, error) {
	args := m.Called(ctx, input, timeout)
	return args.Get(0).(approvalDomain.Outcome), args.Error(1)
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

const (
	delegatorDID  = "did:web:fraud-detector.risk.dbs.example.com"
	delegateDID   = "did:web:report-writer.risk.dbs.example.com"
	delegatorName = "fraud-detector.risk.dbs.example.agent"
	delegateName  = "report-writer.risk.dbs.example.agent"
)

// engineFixture wires a delegation engine around a preloaded policy
// snapshot and a fixed clock.
type engineFixture struct {
	useCase    *delegationUseCase
	policyRepo *mockPolicyRepository
	directory  *mockDelegateDirectory
	approvals  *mockCoordinator
	audit      *mockAuditUseCase
}

func newEngineFixture(t *testing.T, now time.Time, policies ...*delegationDomain.Policy) *engineFixture {
	t.Helper()

	fixture := &engineFixture{
		policyRepo: new(mockPolicyRepository),
		directory:  new(mockDelegateDirectory),
		approvals:  new(mockCoordinator),
		audit:      new(mockAuditUseCase),
	}
	fixture.useCase = NewDelegationUseCase(
		fixture.policyRepo,
		fixture.directory,
		fixture.approvals,
		fixture.audit,
		"",
		time.Minute,
	).(*delegationUseCase)
	fixture.useCase.clock = func() time.Time { return now }
	fixture.useCase.snapshot.Store(&policies)

	fixture.directory.On("GetByDID", mock.Anything, delegatorDID).
		Return(&directoryDomain.AgentIdentity{Name: delegatorName, DID: delegatorDID}, nil).Maybe()
	fixture.directory.On("GetByDID", mock.Anything, delegateDID).
		Return(&directoryDomain.AgentIdentity{Name: delegateName, DID: delegateDID}, nil).Maybe()

	return fixture
}

func (f *engineFixture) expectAudit(outcome, reasonCode string) *mock.Call {
	return f.audit.On(
		"Append",
		mock.Anything,
		auditDomain.KindDelegation,
		[]string{delegatorDID, delegateDID},
		outcome,
		reasonCode,
		mock.Anything,
	).Return(int64(1), nil)
}

func newPolicy(name, from, to string, actions []string, constraints delegationDomain.Constraints) *delegationDomain.Policy {
	return &delegationDomain.Policy{
		ID:             uuid.Must(uuid.NewV7()),
		Name:           name,
		FromPattern:    from,
		ToPattern:      to,
		AllowedActions: actions,
		Constraints:    constraints,
		Version:        1,
		CreatedAt:      time.Now().UTC(),
	}
}

// businessHours is a Monday 14:00 UTC instant for window tests.
var businessHours = time.Date(2026, time.March, 2, 14, 0, 0, 0, time.UTC)

func TestDelegationUseCase_CheckDelegation(t *testing.T) {
	t.Run("most specific matching policy wins", func(t *testing.T) {
		broad := newPolicy("broad", "*", "*", []string{"generate_report"}, delegationDomain.Constraints{})
		narrow := newPolicy("narrow", "*.risk.dbs.example.agent", delegateName, []string{"generate_report"}, delegationDomain.Constraints{})
		fixture := newEngineFixture(t, businessHours, broad, narrow)
		fixture.expectAudit(auditDomain.OutcomeSuccess, "").Once()

		decision, err := fixture.useCase.CheckDelegation(context.Background(), delegatorDID, delegateDID, "generate_report")

		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.False(t, decision.ApprovalRequired)
		require.NotNil(t, decision.Policy)
		assert.Equal(t, "narrow", decision.Policy.Name)
		assert.Equal(t, businessHours, decision.DecidedAt)
		fixture.audit.AssertExpectations(t)
	})

	t.Run("no policy covers the action", func(t *testing.T) {
		policy := newPolicy("reports-only", "*", "*", []string{"generate_report"}, delegationDomain.Constraints{})
		fixture := newEngineFixture(t, businessHours, policy)
		fixture.expectAudit(auditDomain.OutcomeDenied, delegationDomain.ReasonNoApplicablePolicy).Once()

		decision, err := fixture.useCase.CheckDelegation(context.Background(), delegatorDID, delegateDID, "delete_report")

		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, delegationDomain.ReasonNoApplicablePolicy, decision.ReasonCode)
		assert.Nil(t, decision.Policy)
		fixture.audit.AssertExpectations(t)
	})

	t.Run("equally specific policies deny as ambiguous", func(t *testing.T) {
		first := newPolicy("first", "*.risk.dbs.example.agent", "*.risk.dbs.example.agent", []string{"generate_report"}, delegationDomain.Constraints{})
		second := newPolicy("second", "*.risk.dbs.example.agent", "*.risk.dbs.example.agent", []string{"generate_report"}, delegationDomain.Constraints{})
		fixture := newEngineFixture(t, businessHours, first, second)
		fixture.expectAudit(auditDomain.OutcomeDenied, delegationDomain.ReasonAmbiguousPolicy).Once()

		decision, err := fixture.useCase.CheckDelegation(context.Background(), delegatorDID, delegateDID, "generate_report")

		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, delegationDomain.ReasonAmbiguousPolicy, decision.ReasonCode)
		fixture.audit.AssertExpectations(t)
	})

	t.Run("a more specific policy breaks the tie", func(t *testing.T) {
		loose := newPolicy("loose", "*.dbs.example.agent", "*.dbs.example.agent", []string{"generate_report"}, delegationDomain.Constraints{})
		tight := newPolicy("tight", delegatorName, "*.dbs.example.agent", []string{"generate_report"}, delegationDomain.Constraints{})
		fixture := newEngineFixture(t, businessHours, loose, tight)
		fixture.expectAudit(auditDomain.OutcomeSuccess, "").Once()

		decision, err := fixture.useCase.CheckDelegation(context.Background(), delegatorDID, delegateDID, "generate_report")

		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Equal(t, "tight", decision.Policy.Name)
	})

	t.Run("inside the allowed window", func(t *testing.T) {
		window := &delegationDomain.Window{
			Days:      []delegationDomain.Weekday{delegationDomain.Monday},
			StartHour: 9,
			EndHour:   17,
			Timezone:  "UTC",
		}
		policy := newPolicy("windowed", "*", "*", []string{"generate_report"}, delegationDomain.Constraints{AllowedWindow: window})
		fixture := newEngineFixture(t, businessHours, policy)
		fixture.expectAudit(auditDomain.OutcomeSuccess, "").Once()

		decision, err := fixture.useCase.CheckDelegation(context.Background(), delegatorDID, delegateDID, "generate_report")

		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	})

	t.Run("outside the allowed window", func(t *testing.T) {
		window := &delegationDomain.Window{
			Days:      []delegationDomain.Weekday{delegationDomain.Monday},
			StartHour: 9,
			EndHour:   17,
			Timezone:  "UTC",
		}
		policy := newPolicy("windowed", "*", "*", []string{"generate_report"}, delegationDomain.Constraints{AllowedWindow: window})
		evening := time.Date(2026, time.March, 2, 20, 0, 0, 0, time.UTC)
		fixture := newEngineFixture(t, evening, policy)
		fixture.expectAudit(auditDomain.OutcomeDenied, delegationDomain.ReasonOutsideWindow).Once()

		decision, err := fixture.useCase.CheckDelegation(context.Background(), delegatorDID, delegateDID, "generate_report")

		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, delegationDomain.ReasonOutsideWindow, decision.ReasonCode)
		assert.Equal(t, "windowed", decision.Policy.Name)
		fixture.audit.AssertExpectations(t)
	})

	t.Run("concurrent checks never exceed the rate limit", func(t *testing.T) {
		limit := 1
		policy := newPolicy("rate-limited", "*", "*", []string{"generate_report"}, delegationDomain.Constraints{
			MaxDelegationsPerWindow: &limit,
		})
		fixture := newEngineFixture(t, businessHours, policy)
		fixture.audit.On("Append", mock.Anything, auditDomain.KindDelegation, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(int64(1), nil)

		const attempts = 16
		decisions := make([]*delegationDomain.Decision, attempts)
		errs := make([]error, attempts)
		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				decisions[i], errs[i] = fixture.useCase.CheckDelegation(context.Background(), delegatorDID, delegateDID, "generate_report")
			}(i)
		}
		wg.Wait()

		allowed := 0
		for i, decision := range decisions {
			require.NoError(t, errs[i])
			if decision.Allowed {
				allowed++
			} else {
				assert.Equal(t, delegationDomain.ReasonRateLimitExceeded, decision.ReasonCode)
			}
		}
		assert.Equal(t, limit, allowed)
	})

	t.Run("rate counter resets in the next window", func(t *testing.T) {
		limit := 1
		policy := newPolicy("rate-limited", "*", "*", []string{"generate_report"}, delegationDomain.Constraints{
			MaxDelegationsPerWindow: &limit,
			WindowSeconds:           60,
		})
		fixture := newEngineFixture(t, businessHours, policy)
		fixture.audit.On("Append", mock.Anything, auditDomain.KindDelegation, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(int64(1), nil)

		first, err := fixture.useCase.CheckDelegation(context.Background(), delegatorDID, delegateDID, "generate_report")
		require.NoError(t, err)
		assert.True(t, first.Allowed)

		second, err := fixture.useCase.CheckDelegation(context.Background(), delegatorDID, delegateDID, "generate_report")
		require.NoError(t, err)
		assert.Equal(t, delegationDomain.ReasonRateLimitExceeded, second.ReasonCode)

		fixture.useCase.clock = func() time.Time { return businessHours.Add(time.Minute) }
		third, err := fixture.useCase.CheckDelegation(context.Background(), delegatorDID, delegateDID, "generate_report")
		require.NoError(t, err)
		assert.True(t, third.Allowed)
	})

	t.Run("approval required and granted", func(t *testing.T) {
		policy := newPolicy("approved-reports", "*", "*", []string{"generate_report"}, delegationDomain.Constraints{
			RequiresApproval: true,
		})
		fixture := newEngineFixture(t, businessHours, policy)
		fixture.approvals.On("RequestApproval", mock.Anything, approvalUsecase.ApprovalInput{
			ContextKey: delegatorDID + "|" + delegateDID + "|generate_report",
			FromDID:    delegatorDID,
			ToDID:      delegateDID,
			Action:     "generate_report",
			PolicyID:   policy.ID,
		}, time.Minute).Return(approvalDomain.OutcomeApproved, nil).Once()
		fixture.expectAudit(auditDomain.OutcomeSuccess, delegationDomain.ReasonApproved).Once()

		decision, err := fixture.useCase.CheckDelegation(context.Background(), delegatorDID, delegateDID, "generate_report")

		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.True(t, decision.ApprovalRequired)
		assert.Equal(t, delegationDomain.ReasonApproved, decision.ReasonCode)
		fixture.approvals.AssertExpectations(t)
		fixture.audit.AssertExpectations(t)
	})

	t.Run("approval denied", func(t *testing.T) {
		policy := newPolicy("approved-reports", "*", "*", []string{"generate_report"}, delegationDomain.Constraints{
			RequiresApproval: true,
		})
		fixture := newEngineFixture(t, businessHours, policy)
		fixture.approvals.On("RequestApproval", mock.Anything, mock.Anything, mock.Anything).
			Return(approvalDomain.OutcomeDenied, nil).Once()
		fixture.expectAudit(auditDomain.OutcomeDenied, delegationDomain.ReasonApprovalDenied).Once()

		decision, err := fixture.useCase.CheckDelegation(context.Background(), delegatorDID, delegateDID, "generate_report")

		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, delegationDomain.ReasonApprovalDenied, decision.ReasonCode)
	})

	t.Run("approval timeout", func(t *testing.T) {
		policy := newPolicy("approved-reports", "*", "*", []string{"generate_report"}, delegationDomain.Constraints{
			RequiresApproval: true,
		})
		fixture := newEngineFixture(t, businessHours, policy)
		fixture.approvals.On("RequestApproval", mock.Anything, mock.Anything, mock.Anything).
			Return(approvalDomain.OutcomeTimeout, nil).Once()
		fixture.expectAudit(auditDomain.OutcomeDenied, delegationDomain.ReasonApprovalTimeout).Once()

		decision, err := fixture.useCase.CheckDelegation(context.Background(), delegatorDID, delegateDID, "generate_report")

		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, delegationDomain.ReasonApprovalTimeout, decision.ReasonCode)
	})

	t.Run("unknown delegator is an error and is audited", func(t *testing.T) {
		fixture := newEngineFixture(t, businessHours)
		unknownDID := "did:web:stranger.example.com"
		fixture.directory.On("GetByDID", mock.Anything, unknownDID).
			Return(nil, directoryDomain.ErrIdentityNotFound).Once()
		fixture.audit.On("Append", mock.Anything, auditDomain.KindDelegation, []string{unknownDID, delegateDID},
			auditDomain.OutcomeError, "", mock.Anything).Return(int64(1), nil).Once()

		decision, err := fixture.useCase.CheckDelegation(context.Background(), unknownDID, delegateDID, "generate_report")

		require.ErrorIs(t, err, directoryDomain.ErrIdentityNotFound)
		assert.Nil(t, decision)
		fixture.audit.AssertExpectations(t)
	})

	t.Run("audit failure fails the check", func(t *testing.T) {
		policy := newPolicy("broad", "*", "*", []string{"generate_report"}, delegationDomain.Constraints{})
		fixture := newEngineFixture(t, businessHours, policy)
		fixture.audit.On("Append", mock.Anything, auditDomain.KindDelegation, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(int64(0), apperrors.ErrAuditWrite).Once()

		decision, err := fixture.useCase.CheckDelegation(context.Background(), delegatorDID, delegateDID, "generate_report")

		require.ErrorIs(t, err, apperrors.ErrAuditWrite)
		assert.Nil(t, decision)
	})
}

func TestDelegationUseCase_ReloadPolicies(t *testing.T) {
	t.Run("combines stored and declarative policies", func(t *testing.T) {
		stored := newPolicy("stored", "*", "*", []string{"generate_report"}, delegationDomain.Constraints{})
		fixture := newEngineFixture(t, businessHours)
		fixture.policyRepo.On("ListAll", mock.Anything).Return([]*delegationDomain.Policy{stored}, nil).Once()

		path := filepath.Join(t.TempDir(), "policies.yaml")
		document := `
policies:
  - name: declared
    from: "*"
    to: "*"
    actions: [read_dashboard]
`
		require.NoError(t, os.WriteFile(path, []byte(document), 0o600))
		fixture.useCase.policyFilePath = path

		count, err := fixture.useCase.ReloadPolicies(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.Len(t, *fixture.useCase.snapshot.Load(), 2)
	})

	t.Run("duplicate name across sources fails the reload", func(t *testing.T) {
		stored := newPolicy("same-name", "*", "*", []string{"generate_report"}, delegationDomain.Constraints{})
		fixture := newEngineFixture(t, businessHours, stored)
		fixture.policyRepo.On("ListAll", mock.Anything).Return([]*delegationDomain.Policy{stored}, nil).Once()

		path := filepath.Join(t.TempDir(), "policies.yaml")
		document := `
policies:
  - name: same-name
    from: "*"
    to: "*"
    actions: [read_dashboard]
`
		require.NoError(t, os.WriteFile(path, []byte(document), 0o600))
		fixture.useCase.policyFilePath = path

		previous := fixture.useCase.snapshot.Load()
		_, err := fixture.useCase.ReloadPolicies(context.Background())

		require.ErrorIs(t, err, delegationDomain.ErrPolicyDocumentInvalid)
		assert.Same(t, previous, fixture.useCase.snapshot.Load())
	})

	t.Run("first check loads the snapshot lazily", func(t *testing.T) {
		policy := newPolicy("stored", "*", "*", []string{"generate_report"}, delegationDomain.Constraints{})
		fixture := newEngineFixture(t, businessHours)
		fixture.useCase = NewDelegationUseCase(
			fixture.policyRepo,
			fixture.directory,
			fixture.approvals,
			fixture.audit,
			"",
			time.Minute,
		).(*delegationUseCase)
		fixture.useCase.clock = func() time.Time { return businessHours }
		fixture.policyRepo.On("ListAll", mock.Anything).Return([]*delegationDomain.Policy{policy}, nil).Once()
		fixture.expectAudit(auditDomain.OutcomeSuccess, "").Once()

		decision, err := fixture.useCase.CheckDelegation(context.Background(), delegatorDID, delegateDID, "generate_report")

		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		fixture.policyRepo.AssertExpectations(t)
	})
}

func TestDelegationUseCase_CreatePolicy(t *testing.T) {
	t.Run("stores the policy and refreshes the snapshot", func(t *testing.T) {
		fixture := newEngineFixture(t, businessHours)
		fixture.policyRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
		fixture.policyRepo.On("ListAll", mock.Anything).Return([]*delegationDomain.Policy{}, nil).Once()

		policy, err := fixture.useCase.CreatePolicy(context.Background(), &CreatePolicyInput{
			Name:           "new-policy",
			FromPattern:    "*.risk.dbs.example.agent",
			ToPattern:      delegateName,
			AllowedActions: []string{"generate_report"},
		})

		require.NoError(t, err)
		assert.Equal(t, "new-policy", policy.Name)
		assert.Equal(t, 1, policy.Version)
		assert.NotEqual(t, uuid.Nil, policy.ID)
		fixture.policyRepo.AssertExpectations(t)
	})

	t.Run("structurally invalid policy is rejected before storage", func(t *testing.T) {
		fixture := newEngineFixture(t, businessHours)
		limit := 0

		_, err := fixture.useCase.CreatePolicy(context.Background(), &CreatePolicyInput{
			Name:           "broken",
			FromPattern:    "*",
			ToPattern:      "*",
			AllowedActions: []string{"generate_report"},
			Constraints:    delegationDomain.Constraints{MaxDelegationsPerWindow: &limit},
		})

		require.ErrorIs(t, err, delegationDomain.ErrPolicyDocumentInvalid)
		fixture.policyRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestRateCounters(t *testing.T) {
	t.Run("cleanup drops expired windows", func(t *testing.T) {
		counters := newRateCounters()
		now := businessHours
		policyID := uuid.Must(uuid.NewV7())

		assert.True(t, counters.allow(policyID, delegatorDID, delegateDID, "generate_report", 1, time.Minute, now))
		assert.Len(t, counters.counts, 1)

		counters.cleanup(now.Add(2 * time.Minute))
		assert.Empty(t, counters.counts)
	})

	t.Run("distinct tuples count separately", func(t *testing.T) {
		counters := newRateCounters()
		now := businessHours
		policyID := uuid.Must(uuid.NewV7())

		assert.True(t, counters.allow(policyID, delegatorDID, delegateDID, "generate_report", 1, time.Minute, now))
		assert.True(t, counters.allow(policyID, delegatorDID, delegateDID, "read_dashboard", 1, time.Minute, now))
		assert.False(t, counters.allow(policyID, delegatorDID, delegateDID, "generate_report", 1, time.Minute, now))
	})
}

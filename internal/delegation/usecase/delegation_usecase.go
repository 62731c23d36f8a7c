package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	approvalDomain "github.com/MCPTrustFramework/mcpf/internal/approval/domain"
	approvalUsecase "github.com/MCPTrustFramework/mcpf/internal/approval/usecase"
	auditDomain "github.com/MCPTrustFramework/mcpf/internal/audit/domain"
	auditUsecase "github.com/MCPTrustFramework/mcpf/internal/audit/usecase"
	delegationDomain "github.com/MCPTrustFramework/mcpf/internal/delegation/domain"
	delegationService "github.com/MCPTrustFramework/mcpf/internal/delegation/service"
	directoryDomain "github.com/MCPTrustFramework/mcpf/internal/directory/domain"
	apperrors "github.com/MCPTrustFramework/mcpf/internal/errors"
)

type delegationUseCase struct {
	policyRepo      PolicyRepository
	directory       DelegateDirectory
	approvals       approvalUsecase.Coordinator
	auditUseCase    auditUsecase.UseCase
	policyFilePath  string
	approvalTimeout time.Duration
	clock           func() time.Time
	snapshot        atomic.Pointer[[]*delegationDomain.Policy]
	counters        *rateCounters
}

func (u *delegationUseCase) CheckDelegation(ctx context.Context, fromDID, toDID, action string) (*delegationDomain.Decision, error) {
	var from, to *directoryDomain.AgentIdentity
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		identity, err := u.directory.GetByDID(groupCtx, fromDID)
		if err != nil {
			return apperrors.Wrap(err, "unknown delegator")
		}
		from = identity
		return nil
	})
	group.Go(func() error {
		identity, err := u.directory.GetByDID(groupCtx, toDID)
		if err != nil {
			return apperrors.Wrap(err, "unknown delegate")
		}
		to = identity
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, u.checkFailed(ctx, fromDID, toDID, action, err)
	}

	policies, err := u.currentSnapshot(ctx)
	if err != nil {
		return nil, u.checkFailed(ctx, fromDID, toDID, action, err)
	}

	decision, err := u.decide(ctx, policies, from.Name, to.Name, fromDID, toDID, action)
	if err != nil {
		return nil, err
	}

	outcome := auditDomain.OutcomeDenied
	if decision.Allowed {
		outcome = auditDomain.OutcomeSuccess
	}
	metadata := map[string]any{"action": action}
	if decision.Policy != nil {
		metadata["policy_id"] = decision.Policy.ID.String()
	}
	if _, err := u.auditUseCase.Append(ctx, auditDomain.KindDelegation, []string{fromDID, toDID}, outcome, decision.ReasonCode, metadata); err != nil {
		return nil, err
	}
	return decision, nil
}

// decide evaluates the snapshot against one delegation attempt. The approval
// constraint blocks; every other predicate is local. Denials come back as
// decisions, never errors.
func (u *delegationUseCase) decide(
	ctx context.Context,
	policies []*delegationDomain.Policy,
	fromName, toName, fromDID, toDID, action string,
) (*delegationDomain.Decision, error) {
	now := u.clock()

	var candidates []*delegationDomain.Policy
	for _, policy := range policies {
		if policy.Matches(fromName, toName) && policy.AllowsAction(action) {
			candidates = append(candidates, policy)
		}
	}
	if len(candidates) == 0 {
		return delegationDomain.Denied(
			delegationDomain.ReasonNoApplicablePolicy,
			fmt.Sprintf("no policy allows %q from %s to %s", action, fromName, toName),
			nil,
			now,
		), nil
	}

	best := candidates[0]
	tied := false
	for _, candidate := range candidates[1:] {
		switch {
		case candidate.Specificity() > best.Specificity():
			best = candidate
			tied = false
		case candidate.Specificity() == best.Specificity():
			tied = true
		}
	}
	if tied {
		return delegationDomain.Denied(
			delegationDomain.ReasonAmbiguousPolicy,
			fmt.Sprintf("multiple policies match %q from %s to %s with equal specificity", action, fromName, toName),
			nil,
			now,
		), nil
	}

	if window := best.Constraints.AllowedWindow; window != nil {
		inside, err := window.Contains(now)
		if err != nil {
			return nil, err
		}
		if !inside {
			return delegationDomain.Denied(
				delegationDomain.ReasonOutsideWindow,
				fmt.Sprintf("policy %s only allows delegation within its time window", best.Name),
				best,
				now,
			), nil
		}
	}

	if limit := best.Constraints.MaxDelegationsPerWindow; limit != nil {
		if !u.counters.allow(best.ID, fromDID, toDID, action, *limit, best.Constraints.RateWindow(), now) {
			return delegationDomain.Denied(
				delegationDomain.ReasonRateLimitExceeded,
				fmt.Sprintf("policy %s allows at most %d delegations per window", best.Name, *limit),
				best,
				now,
			), nil
		}
	}

	if best.Constraints.RequiresApproval {
		return u.awaitApproval(ctx, best, fromDID, toDID, action)
	}

	return delegationDomain.AllowedDecision(best, false, "allowed by policy "+best.Name, "", now), nil
}

func (u *delegationUseCase) awaitApproval(
	ctx context.Context,
	policy *delegationDomain.Policy,
	fromDID, toDID, action string,
) (*delegationDomain.Decision, error) {
	input := approvalUsecase.ApprovalInput{
		ContextKey: fromDID + "|" + toDID + "|" + action,
		FromDID:    fromDID,
		ToDID:      toDID,
		Action:     action,
		PolicyID:   policy.ID,
	}
	outcome, err := u.approvals.RequestApproval(ctx, input, u.approvalTimeout)
	if err != nil {
		return nil, err
	}

	now := u.clock()
	switch outcome {
	case approvalDomain.OutcomeApproved:
		return delegationDomain.AllowedDecision(
			policy,
			true,
			"approved under policy "+policy.Name,
			delegationDomain.ReasonApproved,
			now,
		), nil
	case approvalDomain.OutcomeDenied:
		return delegationDomain.Denied(
			delegationDomain.ReasonApprovalDenied,
			"an approver denied the delegation",
			policy,
			now,
		), nil
	case approvalDomain.OutcomeTimeout:
		return delegationDomain.Denied(
			delegationDomain.ReasonApprovalTimeout,
			"no approver responded before the timeout",
			policy,
			now,
		), nil
	default:
		// Cancelled: the caller gave up, so there is nobody to hand a
		// decision to and the cancelled context could not carry the audit
		// write anyway.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apperrors.New("approval wait ended without a usable outcome")
	}
}

// checkFailed records a delegation check that erred before producing a
// decision. The original error wins over an audit failure.
func (u *delegationUseCase) checkFailed(ctx context.Context, fromDID, toDID, action string, cause error) error {
	metadata := map[string]any{"action": action, "error": cause.Error()}
	_, _ = u.auditUseCase.Append(ctx, auditDomain.KindDelegation, []string{fromDID, toDID}, auditDomain.OutcomeError, "", metadata)
	return cause
}

func (u *delegationUseCase) CreatePolicy(ctx context.Context, input *CreatePolicyInput) (*delegationDomain.Policy, error) {
	policy := &delegationDomain.Policy{
		ID:             uuid.Must(uuid.NewV7()),
		Name:           input.Name,
		FromPattern:    input.FromPattern,
		ToPattern:      input.ToPattern,
		AllowedActions: input.AllowedActions,
		Constraints:    input.Constraints,
		Version:        1,
		CreatedAt:      u.clock(),
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if err := u.policyRepo.Create(ctx, policy); err != nil {
		return nil, err
	}
	if _, err := u.ReloadPolicies(ctx); err != nil {
		return nil, err
	}
	return policy, nil
}

func (u *delegationUseCase) ListPolicies(ctx context.Context, offset, limit int) ([]*delegationDomain.Policy, error) {
	return u.policyRepo.List(ctx, offset, limit)
}

func (u *delegationUseCase) ReloadPolicies(ctx context.Context) (int, error) {
	stored, err := u.policyRepo.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	var declared []*delegationDomain.Policy
	if u.policyFilePath != "" {
		declared, err = delegationService.LoadPolicyFile(u.policyFilePath)
		if err != nil {
			return 0, err
		}
	}

	combined := make([]*delegationDomain.Policy, 0, len(stored)+len(declared))
	names := make(map[string]struct{}, len(stored)+len(declared))
	for _, policy := range append(stored, declared...) {
		if _, duplicate := names[policy.Name]; duplicate {
			return 0, apperrors.Wrap(delegationDomain.ErrPolicyDocumentInvalid, "policy name defined twice: "+policy.Name)
		}
		names[policy.Name] = struct{}{}
		combined = append(combined, policy)
	}

	u.snapshot.Store(&combined)
	return len(combined), nil
}

// currentSnapshot returns the active policy set, loading it on first use.
func (u *delegationUseCase) currentSnapshot(ctx context.Context) ([]*delegationDomain.Policy, error) {
	if snapshot := u.snapshot.Load(); snapshot != nil {
		return *snapshot, nil
	}
	if _, err := u.ReloadPolicies(ctx); err != nil {
		return nil, err
	}
	return *u.snapshot.Load(), nil
}

// NewDelegationUseCase creates the delegation policy engine. approvalTimeout
// bounds how long a check gated on RequiresApproval waits for a human
// response.
func NewDelegationUseCase(
	policyRepo PolicyRepository,
	directory DelegateDirectory,
	approvals approvalUsecase.Coordinator,
	auditUseCase auditUsecase.UseCase,
	policyFilePath string,
	approvalTimeout time.Duration,
) UseCase {
	return &delegationUseCase{
		policyRepo:      policyRepo,
		directory:       directory,
		approvals:       approvals,
		auditUseCase:    auditUseCase,
		policyFilePath:  policyFilePath,
		approvalTimeout: approvalTimeout,
		clock:           func() time.Time { return time.Now().UTC() },
		counters:        newRateCounters(),
	}
}

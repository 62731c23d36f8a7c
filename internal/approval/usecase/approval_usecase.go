package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	approvalDomain "github.com/MCPTrustFramework/mcpf/internal/approval/domain"
	approvalService "github.com/MCPTrustFramework/mcpf/internal/approval/service"
	auditDomain "github.com/MCPTrustFramework/mcpf/internal/audit/domain"
	auditUseCase "github.com/MCPTrustFramework/mcpf/internal/audit/usecase"
	apperrors "github.com/MCPTrustFramework/mcpf/internal/errors"
)

// pendingApproval is one in-flight approval wait. done is closed exactly
// once, after outcome is set; every coalesced waiter observes the same
// verdict.
type pendingApproval struct {
	request *approvalDomain.Request
	outcome approvalDomain.Outcome
	settled bool
	done    chan struct{}
}

// approvalUseCase implements UseCase. The mutex guards only the pending
// maps; it is never held across persistence calls or while waiting.
type approvalUseCase struct {
	requestRepo   RequestRepository
	approverRepo  ApproverRepository
	secretService approvalService.SecretService
	auditUseCase  auditUseCase.UseCase
	logger        *slog.Logger
	clock         func() time.Time
	after         func(time.Duration) <-chan time.Time

	mu           sync.Mutex
	byContextKey map[string]*pendingApproval
	byRequestID  map[uuid.UUID]*pendingApproval
}

// NewApprovalUseCase creates a new approval UseCase with the provided
// dependencies.
func NewApprovalUseCase(
	requestRepo RequestRepository,
	approverRepo ApproverRepository,
	secretService approvalService.SecretService,
	auditUC auditUseCase.UseCase,
	logger *slog.Logger,
) UseCase {
	return &approvalUseCase{
		requestRepo:   requestRepo,
		approverRepo:  approverRepo,
		secretService: secretService,
		auditUseCase:  auditUC,
		logger:        logger,
		clock:         time.Now,
		after:         func(d time.Duration) <-chan time.Time { return time.After(d) },
		byContextKey:  make(map[string]*pendingApproval),
		byRequestID:   make(map[uuid.UUID]*pendingApproval),
	}
}

// RequestApproval waits for an approver verdict. A duplicate request for an
// already-pending context key coalesces onto the existing wait instead of
// issuing a new request. Context cancellation resolves that caller's wait
// as cancelled immediately; the request itself stays open for any other
// waiters until it is answered or times out.
func (u *approvalUseCase) RequestApproval(
	ctx context.Context,
	input ApprovalInput,
	timeout time.Duration,
) (approvalDomain.Outcome, error) {
	pending, created, err := u.pendingFor(ctx, input, timeout)
	if err != nil {
		return approvalDomain.OutcomeDenied, err
	}
	if created {
		go u.expireAfter(pending, timeout)
	}

	select {
	case <-pending.done:
		return pending.outcome, nil
	case <-ctx.Done():
		return approvalDomain.OutcomeCancelled, nil
	}
}

// pendingFor returns the pending wait for the context key, creating and
// persisting a new request when none is outstanding.
func (u *approvalUseCase) pendingFor(
	ctx context.Context,
	input ApprovalInput,
	timeout time.Duration,
) (*pendingApproval, bool, error) {
	u.mu.Lock()
	if pending, ok := u.byContextKey[input.ContextKey]; ok {
		u.mu.Unlock()
		return pending, false, nil
	}

	now := u.clock().UTC()
	request := &approvalDomain.Request{
		ID:          uuid.Must(uuid.NewV7()),
		ContextKey:  input.ContextKey,
		FromDID:     input.FromDID,
		ToDID:       input.ToDID,
		Action:      input.Action,
		PolicyID:    input.PolicyID,
		Status:      approvalDomain.StatusPending,
		RequestedAt: now,
		ExpiresAt:   now.Add(timeout),
	}
	pending := &pendingApproval{
		request: request,
		done:    make(chan struct{}),
	}
	u.byContextKey[input.ContextKey] = pending
	u.byRequestID[request.ID] = pending
	u.mu.Unlock()

	if err := u.requestRepo.Create(ctx, request); err != nil {
		// Deny any waiter that coalesced on while the insert was failing.
		u.resolve(pending, approvalDomain.OutcomeDenied)
		return nil, false, apperrors.Wrap(err, "failed to persist approval request")
	}
	return pending, true, nil
}

// expireAfter settles the request as timed out unless it was answered first.
func (u *approvalUseCase) expireAfter(pending *pendingApproval, timeout time.Duration) {
	select {
	case <-pending.done:
		return
	case <-u.after(timeout):
	}

	ctx := context.Background()
	err := u.requestRepo.Settle(
		ctx,
		pending.request.ID,
		approvalDomain.StatusTimeout,
		uuid.Nil,
		u.clock().UTC(),
	)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrConflict) {
			u.logger.Error("failed to settle timed out approval request",
				"request_id", pending.request.ID, "error", err)
		}
		return
	}

	u.resolve(pending, approvalDomain.OutcomeTimeout)

	if auditErr := u.auditSettlement(ctx, pending.request, approvalDomain.StatusTimeout, uuid.Nil); auditErr != nil {
		u.logger.Error("failed to audit approval timeout",
			"request_id", pending.request.ID, "error", auditErr)
	}
}

// Respond settles a pending request with an authenticated approver verdict.
func (u *approvalUseCase) Respond(
	ctx context.Context,
	requestID uuid.UUID,
	approverID uuid.UUID,
	secret string,
	approve bool,
) error {
	approver, err := u.approverRepo.GetByID(ctx, approverID)
	if err != nil {
		return err
	}
	if !u.secretService.CompareSecret(secret, approver.SecretHash) {
		return approvalDomain.ErrApproverUnauthorized
	}

	status := approvalDomain.StatusDenied
	if approve {
		status = approvalDomain.StatusApproved
	}

	// The repository transitions pending -> settled conditionally, so two
	// concurrent responses cannot both win.
	if err := u.requestRepo.Settle(ctx, requestID, status, approverID, u.clock().UTC()); err != nil {
		return err
	}

	request := u.wake(requestID, status)
	if request == nil {
		// No in-memory waiter (e.g. settled after a restart); load the
		// record for the audit entry.
		stored, err := u.requestRepo.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		request = stored
	}

	if err := u.auditSettlement(ctx, request, status, approverID); err != nil {
		return err
	}
	return nil
}

// wake resolves the in-memory wait for requestID, returning its request or
// nil when no wait is outstanding.
func (u *approvalUseCase) wake(requestID uuid.UUID, status approvalDomain.Status) *approvalDomain.Request {
	u.mu.Lock()
	pending, ok := u.byRequestID[requestID]
	u.mu.Unlock()
	if !ok {
		return nil
	}

	outcome := approvalDomain.OutcomeDenied
	if status == approvalDomain.StatusApproved {
		outcome = approvalDomain.OutcomeApproved
	}
	u.resolve(pending, outcome)
	return pending.request
}

// resolve publishes the outcome and closes done exactly once.
func (u *approvalUseCase) resolve(pending *pendingApproval, outcome approvalDomain.Outcome) {
	u.mu.Lock()
	if pending.settled {
		u.mu.Unlock()
		return
	}
	pending.settled = true
	pending.outcome = outcome
	delete(u.byContextKey, pending.request.ContextKey)
	delete(u.byRequestID, pending.request.ID)
	u.mu.Unlock()
	close(pending.done)
}

// auditSettlement records the approval verdict with the approver identity.
func (u *approvalUseCase) auditSettlement(
	ctx context.Context,
	request *approvalDomain.Request,
	status approvalDomain.Status,
	approverID uuid.UUID,
) error {
	outcome := auditDomain.OutcomeDenied
	reasonCode := "approval_denied"
	switch status {
	case approvalDomain.StatusApproved:
		outcome = auditDomain.OutcomeSuccess
		reasonCode = ""
	case approvalDomain.StatusTimeout:
		reasonCode = "approval_timeout"
	}

	metadata := map[string]any{
		"request_id": request.ID.String(),
		"action":     request.Action,
	}
	if approverID != uuid.Nil {
		metadata["approver_id"] = approverID.String()
	}

	_, err := u.auditUseCase.Append(
		ctx,
		auditDomain.KindApproval,
		[]string{request.FromDID, request.ToDID},
		outcome,
		reasonCode,
		metadata,
	)
	return err
}

// ListPending retrieves pending requests for operator review.
func (u *approvalUseCase) ListPending(ctx context.Context, offset, limit int) ([]*approvalDomain.Request, error) {
	return u.requestRepo.ListPending(ctx, offset, limit)
}

// RegisterApprover stores a new approver with a freshly generated secret.
func (u *approvalUseCase) RegisterApprover(ctx context.Context, name string) (*RegisterApproverOutput, error) {
	if name == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "approver name is required")
	}

	plainSecret, hashedSecret, err := u.secretService.GenerateSecret()
	if err != nil {
		return nil, err
	}

	approver := &approvalDomain.Approver{
		ID:         uuid.Must(uuid.NewV7()),
		Name:       name,
		SecretHash: hashedSecret,
		CreatedAt:  u.clock().UTC(),
	}
	if err := u.approverRepo.Create(ctx, approver); err != nil {
		return nil, err
	}

	return &RegisterApproverOutput{Approver: approver, PlainSecret: plainSecret}, nil
}

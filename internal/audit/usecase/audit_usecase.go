// Package usecase implements business logic orchestration for the audit trail.
package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/MCPTrustFramework/mcpf/internal/audit/domain"
	auditService "github.com/MCPTrustFramework/mcpf/internal/audit/service"
	apperrors "github.com/MCPTrustFramework/mcpf/internal/errors"
)

// auditUseCase implements UseCase with in-process sequence allocation.
type auditUseCase struct {
	entryRepo EntryRepository
	signer    auditService.Signer
	rootKey   []byte
	clock     func() time.Time

	// mu serializes sequence allocation and the write that consumes it.
	// A failed write releases the number back, keeping the log gap-free.
	mu      sync.Mutex
	nextSeq int64
	seeded  bool
}

// NewAuditUseCase creates a new audit UseCase. The rootKey is the unwrapped
// signing root key; the usecase never persists it.
func NewAuditUseCase(entryRepo EntryRepository, signer auditService.Signer, rootKey []byte) UseCase {
	return &auditUseCase{
		entryRepo: entryRepo,
		signer:    signer,
		rootKey:   rootKey,
		clock:     time.Now,
	}
}

// Append signs and persists one entry under the sequence mutex. The database
// write happens inside the critical section: releasing the lock first would
// allow a later entry to commit while an earlier sequence number is still in
// flight, breaking the gap-free guarantee on failure.
func (a *auditUseCase) Append(
	ctx context.Context,
	kind auditDomain.Kind,
	subjectDIDs []string,
	outcome string,
	reasonCode string,
	metadata map[string]any,
) (int64, error) {
	if !kind.Valid() {
		return 0, auditDomain.ErrInvalidKind
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.seeded {
		maxSeq, err := a.entryRepo.MaxSequence(ctx)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", auditDomain.ErrWriteFailed, err)
		}
		a.nextSeq = maxSeq + 1
		a.seeded = true
	}

	entry := &auditDomain.Entry{
		ID:          uuid.Must(uuid.NewV7()),
		Sequence:    a.nextSeq,
		Kind:        kind,
		SubjectDIDs: subjectDIDs,
		Outcome:     outcome,
		ReasonCode:  reasonCode,
		Metadata:    metadata,
		CreatedAt:   a.clock().UTC(),
	}

	signature, err := a.signer.Sign(a.rootKey, entry)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", auditDomain.ErrWriteFailed, err)
	}
	entry.Signature = signature

	if err := a.entryRepo.Create(ctx, entry); err != nil {
		return 0, fmt.Errorf("%w: %w", auditDomain.ErrWriteFailed, err)
	}

	a.nextSeq++
	return entry.Sequence, nil
}

// Query retrieves entries matching the filter in ascending sequence order.
func (a *auditUseCase) Query(ctx context.Context, filter auditDomain.Filter) ([]*auditDomain.Entry, error) {
	entries, err := a.entryRepo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to query audit entries")
	}
	return entries, nil
}

// VerifyEntries re-checks stored signatures, failing on the first mismatch.
func (a *auditUseCase) VerifyEntries(ctx context.Context, filter auditDomain.Filter) (int, error) {
	entries, err := a.entryRepo.List(ctx, filter)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to list audit entries for verification")
	}

	for _, entry := range entries {
		if err := a.signer.Verify(a.rootKey, entry); err != nil {
			return 0, apperrors.Wrap(err, "audit entry verification failed")
		}
	}

	return len(entries), nil
}

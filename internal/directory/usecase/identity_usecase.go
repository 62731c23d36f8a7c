// Package usecase implements business logic orchestration for the agent directory.
package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/MCPTrustFramework/mcpf/internal/audit/domain"
	auditUseCase "github.com/MCPTrustFramework/mcpf/internal/audit/usecase"
	directoryDomain "github.com/MCPTrustFramework/mcpf/internal/directory/domain"
	apperrors "github.com/MCPTrustFramework/mcpf/internal/errors"
	"github.com/MCPTrustFramework/mcpf/internal/validation"
)

// cacheEntry holds a cached resolution with its expiry deadline.
type cacheEntry struct {
	identity  *directoryDomain.AgentIdentity
	expiresAt time.Time
}

// identityUseCase implements UseCase with a TTL resolution cache.
type identityUseCase struct {
	identityRepo IdentityRepository
	auditUseCase auditUseCase.UseCase
	cacheTTL     time.Duration
	clock        func() time.Time

	// cache holds name -> cacheEntry. Entries are immutable once stored;
	// readers never block writers and vice versa.
	cache sync.Map
}

// NewIdentityUseCase creates a new directory UseCase with the provided dependencies.
func NewIdentityUseCase(
	identityRepo IdentityRepository,
	auditUC auditUseCase.UseCase,
	cacheTTL time.Duration,
) UseCase {
	return &identityUseCase{
		identityRepo: identityRepo,
		auditUseCase: auditUC,
		cacheTTL:     cacheTTL,
		clock:        time.Now,
	}
}

// Resolve maps a name to an identity: cache, then exact lookup, then the
// wildcard parent walk. The audit write happens on every path; a resolution
// whose audit entry cannot be recorded reports the audit failure, not success.
func (u *identityUseCase) Resolve(ctx context.Context, name string) (*directoryDomain.AgentIdentity, error) {
	if !validation.IsAgentName(name) {
		if err := u.auditResolution(ctx, name, "", auditDomain.OutcomeInvalid, "malformed_name", false); err != nil {
			return nil, err
		}
		return nil, directoryDomain.ErrNameMalformed
	}

	if identity, ok := u.cacheGet(name); ok {
		if err := u.auditResolution(ctx, name, identity.DID, auditDomain.OutcomeSuccess, "", true); err != nil {
			return nil, err
		}
		return identity, nil
	}

	identity, err := u.lookup(ctx, name)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			if auditErr := u.auditResolution(ctx, name, "", auditDomain.OutcomeDenied, "not_found", false); auditErr != nil {
				return nil, auditErr
			}
			return nil, directoryDomain.ErrIdentityNotFound
		}
		return nil, apperrors.Wrap(err, "failed to resolve agent name")
	}

	u.cachePut(name, identity)

	if err := u.auditResolution(ctx, name, identity.DID, auditDomain.OutcomeSuccess, "", false); err != nil {
		return nil, err
	}
	return identity, nil
}

// lookup performs the backing-store resolution: first exact match wins; on a
// miss the namespace hierarchy is walked outward looking for a registered
// wildcard parent record. No further traversal happens after the first hit.
func (u *identityUseCase) lookup(ctx context.Context, name string) (*directoryDomain.AgentIdentity, error) {
	identity, err := u.identityRepo.GetByName(ctx, name)
	if err == nil {
		return identity, nil
	}
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	for _, pattern := range directoryDomain.ParentPatterns(name) {
		identity, err := u.identityRepo.GetByName(ctx, pattern)
		if err == nil {
			return identity, nil
		}
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	}

	return nil, directoryDomain.ErrIdentityNotFound
}

// Register publishes a new identity version and invalidates cached
// resolutions that could have been answered by the republished record, so
// subsequent resolutions observe the republish immediately. For a wildcard
// record that includes every child name cached through the parent walk.
func (u *identityUseCase) Register(
	ctx context.Context,
	input *RegisterIdentityInput,
) (*directoryDomain.AgentIdentity, error) {
	if !validation.IsAgentNamePattern(input.Name) {
		return nil, directoryDomain.ErrNameMalformed
	}
	if !validation.IsDID(input.DID) {
		return nil, directoryDomain.ErrDIDMalformed
	}

	latest, err := u.identityRepo.LatestVersion(ctx, input.Name)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to determine identity version")
	}

	identity := &directoryDomain.AgentIdentity{
		ID:         uuid.Must(uuid.NewV7()),
		Name:       input.Name,
		DID:        input.DID,
		PublicKeys: input.PublicKeys,
		Metadata:   input.Metadata,
		Version:    latest + 1,
		CreatedAt:  u.clock().UTC(),
	}

	if err := u.identityRepo.Create(ctx, identity); err != nil {
		return nil, apperrors.Wrap(err, "failed to register agent identity")
	}

	u.cacheInvalidate(input.Name)

	return identity, nil
}

// cacheInvalidate drops the entry cached under name and, when name is a
// wildcard record, every entry whose parent walk could have hit it.
func (u *identityUseCase) cacheInvalidate(name string) {
	u.cache.Delete(name)
	if !strings.HasPrefix(name, "*.") {
		return
	}
	u.cache.Range(func(key, _ any) bool {
		for _, pattern := range directoryDomain.ParentPatterns(key.(string)) {
			if pattern == name {
				u.cache.Delete(key)
				break
			}
		}
		return true
	})
}

func (u *identityUseCase) cacheGet(name string) (*directoryDomain.AgentIdentity, bool) {
	value, ok := u.cache.Load(name)
	if !ok {
		return nil, false
	}
	entry := value.(cacheEntry)
	if u.clock().After(entry.expiresAt) {
		u.cache.Delete(name)
		return nil, false
	}
	return entry.identity, true
}

func (u *identityUseCase) cachePut(name string, identity *directoryDomain.AgentIdentity) {
	if u.cacheTTL <= 0 {
		return
	}
	u.cache.Store(name, cacheEntry{
		identity:  identity,
		expiresAt: u.clock().Add(u.cacheTTL),
	})
}

func (u *identityUseCase) auditResolution(
	ctx context.Context,
	name, did, outcome, reasonCode string,
	cacheHit bool,
) error {
	subjects := []string{}
	if did != "" {
		subjects = append(subjects, did)
	}
	_, err := u.auditUseCase.Append(
		ctx,
		auditDomain.KindResolution,
		subjects,
		outcome,
		reasonCode,
		map[string]any{"name": name, "cache_hit": cacheHit},
	)
	return err
}

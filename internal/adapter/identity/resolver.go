// Package identity implements the identity oracle: it maps the verified
// identity of an authenticated caller to the caller's account id.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ogdenik/bankcore/internal/domain"
	"github.com/ogdenik/bankcore/internal/usecase"
)

const defaultCacheTTL = 10 * time.Minute

// Resolver implements usecase.IdentityResolver on top of the user and
// account stores, with an optional cache in front. Cache entries are
// invalidated by the user use case whenever a contact changes.
type Resolver struct {
	userRepo    usecase.UserRepository
	accountRepo usecase.AccountRepository
	cache       usecase.Cache
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewResolver creates a new Resolver. cache may be nil.
func NewResolver(userRepo usecase.UserRepository, accountRepo usecase.AccountRepository, cache usecase.Cache, logger zerolog.Logger) *Resolver {
	return &Resolver{
		userRepo:    userRepo,
		accountRepo: accountRepo,
		cache:       cache,
		cacheTTL:    defaultCacheTTL,
		logger:      logger,
	}
}

// ResolveAccountID maps an email-or-phone identifier to an account id.
func (r *Resolver) ResolveAccountID(ctx context.Context, identity string) (string, error) {
	if identity == "" {
		return "", domain.ErrIdentityNotFound
	}

	key := usecase.IdentityCacheKey(identity)

	if r.cache != nil {
		accountID, err := r.cache.Get(ctx, key)
		switch {
		case err == nil && accountID != "":
			return accountID, nil
		case err != nil && !errors.Is(err, usecase.ErrCacheMiss):
			// A broken cache degrades to a store lookup; a miss is silent.
			r.logger.Warn().Err(err).Msg("identity cache read failed")
		}
	}

	user, err := r.userRepo.GetByIdentifier(ctx, identity)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrIdentityNotFound
		}

		return "", fmt.Errorf("resolve identity: %w", err)
	}

	account, err := r.accountRepo.GetByOwnerID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return "", domain.ErrIdentityNotFound
		}

		return "", fmt.Errorf("resolve identity: %w", err)
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, account.ID, r.cacheTTL); err != nil {
			r.logger.Warn().Err(err).Msg("failed to cache identity resolution")
		}
	}

	return account.ID, nil
}

package service

import (
	"context"
	"log/slog"

	"roster/internal/auth/models"
	dErrors "roster/pkg/domain-errors"
	"roster/pkg/requestcontext"
)

// Verify runs the two-phase token check.
//
// Phase 1 decodes the claim payload locally, without a signature check, and
// rejects tokens whose expiry is missing or inside the refresh threshold.
// Phase 2 is authoritative: signature verification plus a live account check
// against the store. Identity claims in the result always come from the
// store's current record, never from the token, so role changes and
// deactivation take effect on the next Verify without a revocation list.
//
// Any phase-2 failure, cancellation and timeout included, fails closed and
// purges the cached identity for that JTI.
func (s *Service) Verify(ctx context.Context, token string) (models.Identity, error) {
	ctx, span := s.tracer.Start(ctx, "auth.verify")
	defer span.End()

	payload, err := decodePayload(token)
	if err != nil {
		verificationsTotal.WithLabelValues("malformed").Inc()
		return models.Identity{}, err
	}
	if err := checkFreshness(payload, requestcontext.Now(ctx), s.refreshThreshold); err != nil {
		verificationsTotal.WithLabelValues("stale").Inc()
		return models.Identity{}, err
	}
	jti := tokenID(payload)

	identity, err := s.verifyAuthoritative(ctx, token, payload, jti)
	if err != nil {
		verificationsTotal.WithLabelValues("rejected").Inc()
		s.purge(ctx, jti)
		return models.Identity{}, err
	}

	verificationsTotal.WithLabelValues("accepted").Inc()
	if s.cache != nil && s.cacheTTL > 0 {
		if cacheErr := s.cache.Put(ctx, jti, identity, s.cacheTTL); cacheErr != nil {
			s.logger.WarnContext(ctx, "token cache write failed", slog.Any("error", cacheErr))
		}
	}
	return identity, nil
}

func (s *Service) verifyAuthoritative(ctx context.Context, token string, payload map[string]any, jti string) (models.Identity, error) {
	if err := ctx.Err(); err != nil {
		return models.Identity{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "token verification aborted")
	}

	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return models.Identity{}, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return models.Identity{}, err
	}

	user, err := s.users.UserByID(ctx, userID)
	if err != nil {
		// transport errors and missing accounts both fail closed
		return models.Identity{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "account no longer valid")
	}
	if !user.Active {
		return models.Identity{}, errAccountDisabled
	}

	// identity claims come from the store, not the token
	return models.Identity{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
		Active: user.Active,
		JTI:    jti,
		Claims: parseClaims(payload),
	}, nil
}

func (s *Service) purge(ctx context.Context, jti string) {
	if s.cache == nil || jti == "" {
		return
	}
	if err := s.cache.Purge(ctx, jti); err != nil {
		s.logger.WarnContext(ctx, "token cache purge failed", slog.Any("error", err))
	}
}

// CachedIdentity exposes the verified-token cache to the middleware fast
// path. A miss is not an error.
func (s *Service) CachedIdentity(ctx context.Context, token string) (models.Identity, bool) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return models.Identity{}, false
	}
	payload, err := decodePayload(token)
	if err != nil {
		return models.Identity{}, false
	}
	if err := checkFreshness(payload, requestcontext.Now(ctx), s.refreshThreshold); err != nil {
		return models.Identity{}, false
	}
	identity, ok, err := s.cache.Get(ctx, tokenID(payload))
	if err != nil || !ok {
		return models.Identity{}, false
	}
	return identity, true
}

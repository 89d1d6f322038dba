package memory

import (
	"context"

	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
)

type magicLinkRepo struct{ s *store }

func (r *magicLinkRepo) Create(ctx context.Context, params model.CreateMagicLinkParams) (*model.MagicLinkToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	link := &model.MagicLinkToken{
		ID:        newID("magic"),
		TokenHash: params.TokenHash,
		TenantID:  params.TenantID,
		ClientID:  params.ClientID,
		SessionID: params.SessionID,
		ExpiresAt: params.ExpiresAt,
		CreatedAt: now(),
	}
	r.s.magicLinks[link.ID] = link
	out := *link
	return &out, nil
}

func (r *magicLinkRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.MagicLinkToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, link := range r.s.magicLinks {
		if link.TokenHash == tokenHash {
			out := *link
			return &out, nil
		}
	}
	return nil, nil
}

func (r *magicLinkRepo) MarkUsed(ctx context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	link, ok := r.s.magicLinks[id]
	if !ok || link.UsedAt != nil {
		return false, nil
	}
	link.UsedAt = timePtr(now())
	return true, nil
}

func (r *magicLinkRepo) DeleteExpired(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	cutoff := now()
	for id, link := range r.s.magicLinks {
		if link.ExpiresAt.Before(cutoff) {
			delete(r.s.magicLinks, id)
			count++
		}
	}
	return count, nil
}

type authSessionRepo struct{ s *store }

func (r *authSessionRepo) Create(ctx context.Context, params model.CreateAuthSessionParams) (*model.PortalAuthSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess := &model.PortalAuthSession{
		ID:        newID("portal_auth"),
		TenantID:  params.TenantID,
		ClientID:  params.ClientID,
		SessionID: params.SessionID,
		ExpiresAt: params.ExpiresAt,
		CreatedAt: now(),
	}
	r.s.authSessions[sess.ID] = sess
	out := *sess
	return &out, nil
}

func (r *authSessionRepo) FindByID(ctx context.Context, id string) (*model.PortalAuthSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.authSessions[id]
	if !ok {
		return nil, nil
	}
	out := *sess
	return &out, nil
}

func (r *authSessionRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.authSessions, id)
	return nil
}

func (r *authSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	cutoff := now()
	for id, sess := range r.s.authSessions {
		if sess.ExpiresAt.Before(cutoff) {
			delete(r.s.authSessions, id)
			count++
		}
	}
	return count, nil
}

package memory

import (
	"context"
	"time"

	"saas_backend/internal/models"
	"saas_backend/internal/repositories"
)

type refreshTokenRepo struct {
	db *DB
}

func (r *refreshTokenRepo) Create(_ context.Context, token *models.RefreshToken) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, t := range r.db.data.tokens {
		if t.TokenHash == token.TokenHash {
			return repositories.ErrDuplicate
		}
	}
	r.db.stamp(&token.BaseModel)
	r.db.data.tokens[token.ID] = *token
	return nil
}

func (r *refreshTokenRepo) FindByHash(_ context.Context, hash string) (*models.RefreshToken, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, t := range r.db.data.tokens {
		if t.TokenHash == hash {
			return &t, nil
		}
	}
	return nil, repositories.ErrRefreshTokenNotFound
}

func (r *refreshTokenRepo) FindByHashForUpdate(ctx context.Context, hash string) (*models.RefreshToken, error) {
	return r.FindByHash(ctx, hash)
}

func (r *refreshTokenRepo) Revoke(_ context.Context, id string, at time.Time, replacedByID *string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, ok := r.db.data.tokens[id]
	if !ok || t.RevokedAt != nil {
		return repositories.ErrRefreshTokenNotFound
	}
	t.RevokedAt = &at
	if replacedByID != nil {
		replaced := *replacedByID
		t.ReplacedByID = &replaced
	}
	r.db.data.tokens[id] = t
	return nil
}

func (r *refreshTokenRepo) RevokeAllForUser(_ context.Context, userID string, at time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for id, t := range r.db.data.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			revokedAt := at
			t.RevokedAt = &revokedAt
			r.db.data.tokens[id] = t
			n++
		}
	}
	return n, nil
}

func (r *refreshTokenRepo) DeleteStale(_ context.Context, cutoff time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for id, t := range r.db.data.tokens {
		if t.ExpiresAt.Before(cutoff) || (t.RevokedAt != nil && t.RevokedAt.Before(cutoff)) {
			delete(r.db.data.tokens, id)
			n++
		}
	}
	return n, nil
}

// TokenCount - тестовый хелпер
func (d *DB) TokenCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.data.tokens)
}

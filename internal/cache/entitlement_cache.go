package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"saas_backend/internal/entitlements"
)

const (
	entitlementNamespace = "entitlements"
	versionKey           = "catalog_version"
)

// Generation - поколение ключа тенанта. Set пишет снапшот под поколением,
// полученным из Get до чтения базы: если между ними прошла инвалидация,
// запись уходит на ключ, который больше никто не читает.
type Generation string

// EntitlementCache - кэш снапшотов по тенанту
type EntitlementCache interface {
	Get(ctx context.Context, tenantID string) (*entitlements.Snapshot, Generation, bool, error)
	Set(ctx context.Context, gen Generation, snap *entitlements.Snapshot) error
	// Invalidate сбрасывает снапшот одного тенанта
	Invalidate(ctx context.Context, tenantID string) error
	// InvalidateAll сбрасывает все снапшоты (изменение каталога фич)
	InvalidateAll(ctx context.Context) error
}

// RedisEntitlementCache хранит снапшоты JSON-ом под ключом
// entitlements:v{catalog}:g{tenant generation}:{tenant}.
// InvalidateAll поднимает версию каталога, Invalidate - поколение тенанта.
type RedisEntitlementCache struct {
	cache *Cache
	ttl   time.Duration
}

func NewRedisEntitlementCache(c *Cache, ttl time.Duration) *RedisEntitlementCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisEntitlementCache{cache: c, ttl: ttl}
}

func (r *RedisEntitlementCache) counter(ctx context.Context, k string) (string, error) {
	b, err := r.cache.Get(ctx, entitlementNamespace, k)
	if errors.Is(err, ErrMiss) {
		return "0", nil
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func generationKey(tenantID string) string {
	return "gen:" + tenantID
}

func (r *RedisEntitlementCache) generation(ctx context.Context, tenantID string) (Generation, error) {
	v, err := r.counter(ctx, versionKey)
	if err != nil {
		return "", err
	}
	g, err := r.counter(ctx, generationKey(tenantID))
	if err != nil {
		return "", err
	}
	return Generation("v" + v + ":g" + g), nil
}

func snapshotKey(gen Generation, tenantID string) string {
	return string(gen) + ":" + tenantID
}

func (r *RedisEntitlementCache) Get(ctx context.Context, tenantID string) (*entitlements.Snapshot, Generation, bool, error) {
	gen, err := r.generation(ctx, tenantID)
	if err != nil {
		return nil, "", false, err
	}
	k := snapshotKey(gen, tenantID)

	data, err := r.cache.Get(ctx, entitlementNamespace, k)
	if errors.Is(err, ErrMiss) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, "", false, err
	}

	var snap entitlements.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// битую запись считаем промахом
		_ = r.cache.Delete(ctx, entitlementNamespace, k)
		return nil, gen, false, nil
	}
	return &snap, gen, true, nil
}

func (r *RedisEntitlementCache) Set(ctx context.Context, gen Generation, snap *entitlements.Snapshot) error {
	if gen == "" {
		return errors.New("entitlement cache: empty generation")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return r.cache.Set(ctx, entitlementNamespace, snapshotKey(gen, snap.TenantID()), data, r.ttl)
}

func (r *RedisEntitlementCache) Invalidate(ctx context.Context, tenantID string) error {
	_, err := r.cache.Incr(ctx, entitlementNamespace, generationKey(tenantID))
	return err
}

func (r *RedisEntitlementCache) InvalidateAll(ctx context.Context) error {
	_, err := r.cache.Incr(ctx, entitlementNamespace, versionKey)
	return err
}

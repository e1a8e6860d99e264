package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saas_backend/internal/models"
	"saas_backend/pkg/apperrors"
)

func TestStoreAuditLogger_PersistsEvents(t *testing.T) {
	f := newFixture(t)
	f.svc = NewServiceContainer(f.store, f.codec, Options{
		Audit: NewStoreAuditLogger(f.store.Events),
		Clock: f.clock,
	})

	tenant := f.tenant("acme")
	basic := f.plan("basic", "29.00", 0)
	pro := f.plan("pro", "79.00", 0)
	sub := f.subscribe(tenant, basic)

	_, err := f.svc.Subscriptions.UpgradePlan(f.ctx, sub.ID, pro.ID, false)
	require.NoError(t, err)

	events, err := f.svc.Subscriptions.ListEvents(f.ctx, sub.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "create", events[0].Operation)
	assert.Nil(t, events[0].Before)
	assert.Equal(t, "upgrade", events[1].Operation)
	assert.Equal(t, systemActor, events[1].Actor)
	assert.Equal(t, tenant.ID, events[1].TenantID)

	var after map[string]interface{}
	require.NoError(t, json.Unmarshal(events[1].After, &after))
	assert.Equal(t, string(models.PendingKindUpgrade), after["pending_kind"])
}

func TestListEvents_UnknownSubscription(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Subscriptions.ListEvents(f.ctx, "00000000-0000-0000-0000-000000000000")
	assert.True(t, apperrors.Is(err, apperrors.ErrSubscriptionNotFound))
}

package memory

import (
	"context"
	"sort"
	"time"

	"saas_backend/internal/models"
	"saas_backend/internal/repositories"
)

type tenantRepo struct {
	db *DB
}

func (r *tenantRepo) Create(_ context.Context, tenant *models.Tenant) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, t := range r.db.data.tenants {
		if t.Slug == tenant.Slug {
			return repositories.ErrDuplicate
		}
	}
	r.db.stamp(&tenant.BaseModel)
	r.db.data.tenants[tenant.ID] = *tenant
	return nil
}

func (r *tenantRepo) find(id string) (*models.Tenant, error) {
	t, ok := r.db.data.tenants[id]
	if !ok || t.IsDeleted() {
		return nil, repositories.ErrTenantNotFound
	}
	return &t, nil
}

func (r *tenantRepo) FindByID(_ context.Context, id string) (*models.Tenant, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.find(id)
}

func (r *tenantRepo) FindByIDForUpdate(ctx context.Context, id string) (*models.Tenant, error) {
	return r.FindByID(ctx, id)
}

func (r *tenantRepo) ListByPartner(_ context.Context, partnerID string) ([]models.Tenant, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []models.Tenant
	for _, t := range r.db.data.tenants {
		if !t.IsDeleted() && t.PartnerID != nil && *t.PartnerID == partnerID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.db.seq[out[i].ID] < r.db.seq[out[j].ID] })
	return out, nil
}

func (r *tenantRepo) UpdateStatus(_ context.Context, id string, status models.OrgStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, err := r.find(id)
	if err != nil {
		return err
	}
	t.Status = status
	r.db.touch(&t.BaseModel)
	r.db.data.tenants[id] = *t
	return nil
}

func (r *tenantRepo) SoftDelete(_ context.Context, id string, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, err := r.find(id)
	if err != nil {
		return err
	}
	t.DeletedAt = &at
	r.db.data.tenants[id] = *t
	return nil
}

type partnerRepo struct {
	db *DB
}

func (r *partnerRepo) Create(_ context.Context, partner *models.Partner) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, p := range r.db.data.partners {
		if p.Slug == partner.Slug {
			return repositories.ErrDuplicate
		}
	}
	r.db.stamp(&partner.BaseModel)
	r.db.data.partners[partner.ID] = *partner
	return nil
}

func (r *partnerRepo) FindByID(_ context.Context, id string) (*models.Partner, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.data.partners[id]
	if !ok || p.IsDeleted() {
		return nil, repositories.ErrPartnerNotFound
	}
	return &p, nil
}

func (r *partnerRepo) AllowPlan(_ context.Context, partnerID, planID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.data.partnerPlans[partnerPlanKey{partnerID, planID}] = struct{}{}
	return nil
}

func (r *partnerRepo) IsPlanAllowed(_ context.Context, partnerID, planID string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	_, ok := r.db.data.partnerPlans[partnerPlanKey{partnerID, planID}]
	return ok, nil
}

type membershipRepo struct {
	db *DB
}

func (r *membershipRepo) CreateRole(_ context.Context, role *models.Role) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.stamp(&role.BaseModel)
	r.db.data.roles[role.ID] = *role
	return nil
}

func (r *membershipRepo) CreateTenantMembership(_ context.Context, m *models.TenantUser) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.data.tenantUsers {
		if existing.TenantID != m.TenantID {
			continue
		}
		if existing.UserID == m.UserID {
			return repositories.ErrDuplicate
		}
		if m.IsOwner && existing.IsOwner {
			return repositories.ErrOwnerExists
		}
	}
	r.db.stamp(&m.BaseModel)
	stored := *m
	stored.Tenant, stored.CustomRole = nil, nil
	r.db.data.tenantUsers[m.ID] = stored
	return nil
}

func (r *membershipRepo) CreatePartnerMembership(_ context.Context, m *models.PartnerUser) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.data.partnerUsers {
		if existing.PartnerID == m.PartnerID && existing.UserID == m.UserID {
			return repositories.ErrDuplicate
		}
	}
	r.db.stamp(&m.BaseModel)
	stored := *m
	stored.Partner = nil
	r.db.data.partnerUsers[m.ID] = stored
	return nil
}

func (r *membershipRepo) FindTenantMembership(_ context.Context, userID, tenantID string) (*models.TenantUser, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, m := range r.db.data.tenantUsers {
		if m.UserID != userID || m.TenantID != tenantID {
			continue
		}
		if t, ok := r.db.data.tenants[m.TenantID]; ok && !t.IsDeleted() {
			m.Tenant = &t
		}
		if m.RoleID != nil {
			if role, ok := r.db.data.roles[*m.RoleID]; ok {
				m.CustomRole = &role
			}
		}
		return &m, nil
	}
	return nil, repositories.ErrMembershipNotFound
}

func (r *membershipRepo) FindPartnerMembership(_ context.Context, userID, partnerID string) (*models.PartnerUser, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, m := range r.db.data.partnerUsers {
		if m.UserID != userID || m.PartnerID != partnerID {
			continue
		}
		if p, ok := r.db.data.partners[m.PartnerID]; ok && !p.IsDeleted() {
			m.Partner = &p
		}
		return &m, nil
	}
	return nil, repositories.ErrMembershipNotFound
}

func (r *membershipRepo) FindTenantOwner(_ context.Context, tenantID string) (*models.TenantUser, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, m := range r.db.data.tenantUsers {
		if m.TenantID == tenantID && m.IsOwner {
			return &m, nil
		}
	}
	return nil, repositories.ErrMembershipNotFound
}

func (r *membershipRepo) SetOwner(_ context.Context, membershipID string, isOwner bool) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	m, ok := r.db.data.tenantUsers[membershipID]
	if !ok {
		return repositories.ErrMembershipNotFound
	}
	if isOwner {
		for id, other := range r.db.data.tenantUsers {
			if id != membershipID && other.TenantID == m.TenantID && other.IsOwner {
				return repositories.ErrOwnerExists
			}
		}
	}
	m.IsOwner = isOwner
	r.db.touch(&m.BaseModel)
	r.db.data.tenantUsers[membershipID] = m
	return nil
}

// OwnerCount - тестовый хелпер для проверки инварианта владельца
func (d *DB) OwnerCount(tenantID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, m := range d.data.tenantUsers {
		if m.TenantID == tenantID && m.IsOwner {
			n++
		}
	}
	return n
}

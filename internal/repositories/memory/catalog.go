package memory

import (
	"context"
	"sort"

	"saas_backend/internal/models"
	"saas_backend/internal/repositories"
)

type planRepo struct {
	db *DB
}

func (r *planRepo) Create(_ context.Context, plan *models.Plan) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, p := range r.db.data.plans {
		if p.Code == plan.Code {
			return repositories.ErrDuplicate
		}
	}
	r.db.stamp(&plan.BaseModel)
	r.db.data.plans[plan.ID] = *plan
	return nil
}

func (r *planRepo) FindByID(_ context.Context, id string) (*models.Plan, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.data.plans[id]
	if !ok {
		return nil, repositories.ErrPlanNotFound
	}
	return &p, nil
}

func (r *planRepo) FindByCode(_ context.Context, code string) (*models.Plan, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, p := range r.db.data.plans {
		if p.Code == code {
			return &p, nil
		}
	}
	return nil, repositories.ErrPlanNotFound
}

func (r *planRepo) ListActive(_ context.Context) ([]models.Plan, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []models.Plan
	for _, p := range r.db.data.plans {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MonthlyPrice.LessThan(out[j].MonthlyPrice) })
	return out, nil
}

func (r *planRepo) CreateFeature(_ context.Context, feature *models.Feature) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, f := range r.db.data.features {
		if f.Code == feature.Code {
			return repositories.ErrDuplicate
		}
	}
	r.db.stamp(&feature.BaseModel)
	r.db.data.features[feature.ID] = *feature
	return nil
}

func (r *planRepo) FindFeatureByCode(_ context.Context, code string) (*models.Feature, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, f := range r.db.data.features {
		if f.Code == code {
			return &f, nil
		}
	}
	return nil, repositories.ErrFeatureNotFound
}

func (r *planRepo) SetFeatureEnabled(_ context.Context, featureID string, enabled bool) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	f, ok := r.db.data.features[featureID]
	if !ok {
		return repositories.ErrFeatureNotFound
	}
	f.IsEnabled = enabled
	r.db.touch(&f.BaseModel)
	r.db.data.features[featureID] = f
	return nil
}

func (r *planRepo) AttachFeature(_ context.Context, pf *models.PlanFeature) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.data.planFeatures {
		if existing.PlanID == pf.PlanID && existing.FeatureID == pf.FeatureID {
			return repositories.ErrDuplicate
		}
	}
	r.db.stamp(&pf.BaseModel)
	stored := *pf
	stored.Feature = nil
	r.db.data.planFeatures[pf.ID] = stored
	return nil
}

func (r *planRepo) FindPlanFeatures(_ context.Context, planID string) ([]models.PlanFeature, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []models.PlanFeature
	for _, pf := range r.db.data.planFeatures {
		if pf.PlanID != planID {
			continue
		}
		if f, ok := r.db.data.features[pf.FeatureID]; ok {
			pf.Feature = &f
		}
		out = append(out, pf)
	}
	sort.Slice(out, func(i, j int) bool { return r.db.seq[out[i].ID] < r.db.seq[out[j].ID] })
	return out, nil
}

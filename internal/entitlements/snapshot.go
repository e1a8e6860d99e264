package entitlements

import (
	"encoding/json"
	"sort"
	"time"

	"saas_backend/internal/models"
)

// Snapshot - неизменяемый набор фич и лимитов тенанта на момент резолва.
// Все методы безопасны для nil.
type Snapshot struct {
	tenantID       string
	subscriptionID string
	planID         string
	planCode       string
	status         models.SubscriptionStatus
	features       map[string]Limits
	resolvedAt     time.Time
}

// Source - данные подписки, из которых собран снапшот
type Source struct {
	TenantID       string
	SubscriptionID string
	PlanID         string
	PlanCode       string
	Status         models.SubscriptionStatus
	ResolvedAt     time.Time
}

// NewSnapshot копирует features, дальнейшие изменения карты не видны снапшоту
func NewSnapshot(src Source, features map[string]Limits) *Snapshot {
	copied := make(map[string]Limits, len(features))
	for code, limits := range features {
		copied[code] = limits.Clone()
	}
	return &Snapshot{
		tenantID:       src.TenantID,
		subscriptionID: src.SubscriptionID,
		planID:         src.PlanID,
		planCode:       src.PlanCode,
		status:         src.Status,
		features:       copied,
		resolvedAt:     src.ResolvedAt,
	}
}

// Empty - снапшот тенанта без live-подписки
func Empty(tenantID string, resolvedAt time.Time) *Snapshot {
	return &Snapshot{tenantID: tenantID, features: map[string]Limits{}, resolvedAt: resolvedAt}
}

func (s *Snapshot) Has(code string) bool {
	if s == nil {
		return false
	}
	_, ok := s.features[code]
	return ok
}

// Limits возвращает копию лимитов фичи
func (s *Snapshot) Limits(code string) (Limits, bool) {
	if s == nil {
		return nil, false
	}
	l, ok := s.features[code]
	if !ok {
		return nil, false
	}
	return l.Clone(), true
}

// FeatureCodes - отсортированный список кодов фич
func (s *Snapshot) FeatureCodes() []string {
	if s == nil {
		return nil
	}
	codes := make([]string, 0, len(s.features))
	for code := range s.features {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func (s *Snapshot) IsEmpty() bool {
	return s == nil || s.subscriptionID == ""
}

func (s *Snapshot) TenantID() string {
	if s == nil {
		return ""
	}
	return s.tenantID
}

func (s *Snapshot) SubscriptionID() string {
	if s == nil {
		return ""
	}
	return s.subscriptionID
}

func (s *Snapshot) PlanID() string {
	if s == nil {
		return ""
	}
	return s.planID
}

func (s *Snapshot) PlanCode() string {
	if s == nil {
		return ""
	}
	return s.planCode
}

func (s *Snapshot) Status() models.SubscriptionStatus {
	if s == nil {
		return ""
	}
	return s.status
}

func (s *Snapshot) ResolvedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.resolvedAt
}

type snapshotJSON struct {
	TenantID       string                    `json:"tenant_id"`
	SubscriptionID string                    `json:"subscription_id,omitempty"`
	PlanID         string                    `json:"plan_id,omitempty"`
	PlanCode       string                    `json:"plan_code,omitempty"`
	Status         models.SubscriptionStatus `json:"status,omitempty"`
	Features       map[string]Limits         `json:"features"`
	ResolvedAt     time.Time                 `json:"resolved_at"`
}

func (s *Snapshot) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	return json.Marshal(snapshotJSON{
		TenantID:       s.tenantID,
		SubscriptionID: s.subscriptionID,
		PlanID:         s.planID,
		PlanCode:       s.planCode,
		Status:         s.status,
		Features:       s.features,
		ResolvedAt:     s.resolvedAt,
	})
}

// UnmarshalJSON нужен кэшу; снапшот после декодирования так же неизменяем
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var v snapshotJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = *NewSnapshot(Source{
		TenantID:       v.TenantID,
		SubscriptionID: v.SubscriptionID,
		PlanID:         v.PlanID,
		PlanCode:       v.PlanCode,
		Status:         v.Status,
		ResolvedAt:     v.ResolvedAt,
	}, v.Features)
	return nil
}

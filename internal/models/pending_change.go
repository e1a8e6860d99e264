package models

import (
	"fmt"
	"time"
)

type PendingKind string

const (
	PendingKindNone      PendingKind = ""
	PendingKindUpgrade   PendingKind = "upgrade"
	PendingKindDowngrade PendingKind = "downgrade"
	PendingKindCancel    PendingKind = "cancel"
)

// PendingChange - отложенное изменение, применяемое на границе периода.
// Смена плана и отмена хранятся раздельно: новая смена плана заменяет
// прежнюю, но не трогает отложенную отмену.
type PendingChange interface {
	Kind() PendingKind
	EffectiveOn() time.Time
	isPendingChange()
}

type PendingUpgrade struct {
	PlanID      string
	EffectiveAt time.Time
}

type PendingDowngrade struct {
	PlanID      string
	EffectiveAt time.Time
}

type PendingCancel struct {
	Reason      string
	EffectiveAt time.Time
}

func (PendingUpgrade) Kind() PendingKind   { return PendingKindUpgrade }
func (PendingDowngrade) Kind() PendingKind { return PendingKindDowngrade }
func (PendingCancel) Kind() PendingKind    { return PendingKindCancel }

func (p PendingUpgrade) EffectiveOn() time.Time   { return p.EffectiveAt }
func (p PendingDowngrade) EffectiveOn() time.Time { return p.EffectiveAt }
func (p PendingCancel) EffectiveOn() time.Time    { return p.EffectiveAt }

func (PendingUpgrade) isPendingChange()   {}
func (PendingDowngrade) isPendingChange() {}
func (PendingCancel) isPendingChange()    {}

// PendingChangeRecord - плоское хранение отложенной смены плана в колонках pending_*
type PendingChangeRecord struct {
	Kind        PendingKind `gorm:"type:varchar(20)" json:"kind,omitempty"`
	PlanID      *string     `gorm:"type:uuid" json:"plan_id,omitempty"`
	EffectiveAt *time.Time  `json:"effective_at,omitempty"`
}

func (r PendingChangeRecord) IsZero() bool {
	return r.Kind == PendingKindNone
}

// PendingPlanChange декодирует отложенную смену плана. nil - смены нет.
func (s *Subscription) PendingPlanChange() (PendingChange, error) {
	r := s.Pending
	if r.IsZero() {
		return nil, nil
	}

	var effective time.Time
	if r.EffectiveAt != nil {
		effective = *r.EffectiveAt
	}

	switch r.Kind {
	case PendingKindUpgrade, PendingKindDowngrade:
		if r.PlanID == nil || *r.PlanID == "" {
			return nil, fmt.Errorf("pending %s without plan id", r.Kind)
		}
		if r.Kind == PendingKindUpgrade {
			return PendingUpgrade{PlanID: *r.PlanID, EffectiveAt: effective}, nil
		}
		return PendingDowngrade{PlanID: *r.PlanID, EffectiveAt: effective}, nil
	default:
		return nil, fmt.Errorf("unknown pending change kind %q", r.Kind)
	}
}

// PendingChanges - все отложенные изменения в порядке применения:
// сначала смена плана, затем отмена.
func (s *Subscription) PendingChanges() ([]PendingChange, error) {
	var out []PendingChange
	plan, err := s.PendingPlanChange()
	if err != nil {
		return nil, err
	}
	if plan != nil {
		out = append(out, plan)
	}
	if s.CancelAtPeriodEnd {
		out = append(out, PendingCancel{Reason: s.PendingCancelReason, EffectiveAt: s.CurrentPeriodEnd})
	}
	return out, nil
}

// PendingChange - изменение, которое применит ближайшая граница периода. nil - изменений нет.
func (s *Subscription) PendingChange() (PendingChange, error) {
	changes, err := s.PendingChanges()
	if err != nil || len(changes) == 0 {
		return nil, err
	}
	return changes[0], nil
}

// SetPendingChange ставит изменение в очередь. Смена плана заменяет
// прежнюю смену плана, отмена выставляет флаг cancel_at_period_end.
func (s *Subscription) SetPendingChange(pc PendingChange) {
	switch c := pc.(type) {
	case nil:
		s.ClearPendingChange()
	case PendingUpgrade:
		s.setPendingPlan(PendingKindUpgrade, c.PlanID, c.EffectiveAt)
	case PendingDowngrade:
		s.setPendingPlan(PendingKindDowngrade, c.PlanID, c.EffectiveAt)
	case PendingCancel:
		s.CancelAtPeriodEnd = true
		s.PendingCancelReason = c.Reason
	}
}

func (s *Subscription) setPendingPlan(kind PendingKind, planID string, effective time.Time) {
	s.Pending = PendingChangeRecord{Kind: kind, PlanID: &planID, EffectiveAt: &effective}
}

// ClearPendingChange снимает все отложенные изменения
func (s *Subscription) ClearPendingChange() {
	s.ClearPendingPlanChange()
	s.ClearPendingCancel()
}

func (s *Subscription) ClearPendingPlanChange() {
	s.Pending = PendingChangeRecord{}
}

func (s *Subscription) ClearPendingCancel() {
	s.CancelAtPeriodEnd = false
	s.PendingCancelReason = ""
}

// HasPendingChange - есть хотя бы одно отложенное изменение
func (s *Subscription) HasPendingChange() bool {
	return !s.Pending.IsZero() || s.CancelAtPeriodEnd
}

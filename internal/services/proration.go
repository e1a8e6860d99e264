package services

import (
	"time"

	"github.com/shopspring/decimal"
)

const prorationDaysInMonth = 30

var daysInMonth = decimal.NewFromInt(prorationDaysInMonth)

// Proration - расчет доплаты при немедленной смене плана.
// Остаток периода считается в календарных днях с округлением вверх.
type Proration struct {
	RemainingDays int             `json:"remaining_days"`
	OldMonthly    decimal.Decimal `json:"old_monthly"`
	NewMonthly    decimal.Decimal `json:"new_monthly"`
	Credit        decimal.Decimal `json:"credit"`
	Cost          decimal.Decimal `json:"cost"`
	Amount        decimal.Decimal `json:"amount"`
	PeriodEnd     time.Time       `json:"period_end"`
	ComputedAt    time.Time       `json:"computed_at"`
}

// RemainingDays - ceil((periodEnd-now)/24h), не меньше нуля
func RemainingDays(periodEnd, now time.Time) int {
	left := periodEnd.Sub(now)
	if left <= 0 {
		return 0
	}
	return int((left + 24*time.Hour - 1) / (24 * time.Hour))
}

// ComputeProration: credit = old*days/30, cost = new*days/30,
// amount = round2(cost-credit)
func ComputeProration(oldMonthly, newMonthly decimal.Decimal, periodEnd, now time.Time) Proration {
	days := RemainingDays(periodEnd, now)
	d := decimal.NewFromInt(int64(days))

	credit := oldMonthly.Mul(d).Div(daysInMonth)
	cost := newMonthly.Mul(d).Div(daysInMonth)

	return Proration{
		RemainingDays: days,
		OldMonthly:    oldMonthly,
		NewMonthly:    newMonthly,
		Credit:        credit,
		Cost:          cost,
		Amount:        cost.Sub(credit).Round(2),
		PeriodEnd:     periodEnd,
		ComputedAt:    now,
	}
}

// Chargeable - нужен ли счет
func (p Proration) Chargeable() bool {
	return p.Amount.IsPositive()
}

// Metadata - запись расчета для аудита в metadata подписки и счета
func (p Proration) Metadata() map[string]interface{} {
	return map[string]interface{}{
		"remaining_days": p.RemainingDays,
		"old_monthly":    p.OldMonthly.StringFixed(2),
		"new_monthly":    p.NewMonthly.StringFixed(2),
		"credit":         p.Credit.StringFixed(2),
		"cost":           p.Cost.StringFixed(2),
		"amount":         p.Amount.StringFixed(2),
		"period_end":     p.PeriodEnd.Format(time.RFC3339),
		"computed_at":    p.ComputedAt.Format(time.RFC3339),
	}
}

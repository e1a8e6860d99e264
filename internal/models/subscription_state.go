package models

// Transition - пара статусов (from -> to)
type Transition struct {
	From SubscriptionStatus
	To   SubscriptionStatus
}

// validTransitions - переходы, доступные операциям жизненного цикла.
// Смена плана и продление не меняют статус и сюда не входят.
var validTransitions = map[Transition]bool{
	{SubscriptionStatusTrial, SubscriptionStatusActive}:    true,
	{SubscriptionStatusTrial, SubscriptionStatusCancelled}: true,
	{SubscriptionStatusTrial, SubscriptionStatusExpired}:   true,

	{SubscriptionStatusActive, SubscriptionStatusCancelled}: true,
	{SubscriptionStatusActive, SubscriptionStatusSuspended}: true,
	{SubscriptionStatusActive, SubscriptionStatusExpired}:   true,

	{SubscriptionStatusCancelled, SubscriptionStatusActive}: true,
	{SubscriptionStatusExpired, SubscriptionStatusActive}:   true,
	{SubscriptionStatusSuspended, SubscriptionStatusActive}: true,
}

// rolloverOnly - переходы, которые делает только rollover на границе периода
var rolloverOnly = map[Transition]bool{
	{SubscriptionStatusTrial, SubscriptionStatusActive}:    true,
	{SubscriptionStatusTrial, SubscriptionStatusCancelled}: true,
	{SubscriptionStatusTrial, SubscriptionStatusExpired}:   true,
	{SubscriptionStatusActive, SubscriptionStatusExpired}:  true,
}

// CanTransition - допустим ли переход из операции по запросу
func CanTransition(from, to SubscriptionStatus) bool {
	t := Transition{from, to}
	return validTransitions[t] && !rolloverOnly[t]
}

// CanTransitionOnRollover - допустим ли переход при обработке границы периода
func CanTransitionOnRollover(from, to SubscriptionStatus) bool {
	return validTransitions[Transition{from, to}]
}

// IsLive - статусы, дающие доступ к фичам
func (s SubscriptionStatus) IsLive() bool {
	return s == SubscriptionStatusTrial || s == SubscriptionStatusActive
}

// IsTerminal - статусы, из которых выводит только Reactivate
func (s SubscriptionStatus) IsTerminal() bool {
	switch s {
	case SubscriptionStatusCancelled, SubscriptionStatusExpired, SubscriptionStatusSuspended:
		return true
	}
	return false
}

func (s SubscriptionStatus) IsValid() bool {
	return s.IsLive() || s.IsTerminal()
}

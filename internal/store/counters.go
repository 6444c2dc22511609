package store

import "github.com/hardwaylabs/partnerbot/internal/domain"

// counterDelta is the adjustment applied to a channel's aggregate counters
// when one of its payment requests is created or changes status. It is kept
// as a pure value so the transition table can be tested without a database.
type counterDelta struct {
	Total         int
	Pending       int
	Approved      int
	Rejected      int
	PendingAmount float64
	TotalEarned   float64
}

func (d counterDelta) isZero() bool {
	return d == counterDelta{}
}

// deltaForCreate returns the counter adjustment for a freshly inserted
// pending request.
func deltaForCreate(requested float64) counterDelta {
	return counterDelta{Total: 1, Pending: 1, PendingAmount: requested}
}

// deltaForTransition returns the counter adjustment for a status change and
// whether the transition is legal at all. The requested amount always leaves
// the pending pool when the request is decided; only the approved amount is
// added to earnings, so a partial approval shrinks pending by more than it
// grows earned.
func deltaForTransition(from, to domain.Status, requested, approved float64) (counterDelta, bool) {
	switch {
	case from == domain.StatusPending && to == domain.StatusApproved:
		return counterDelta{
			Pending:       -1,
			Approved:      1,
			PendingAmount: -requested,
			TotalEarned:   approved,
		}, true
	case from == domain.StatusPending && to == domain.StatusRejected:
		return counterDelta{
			Pending:       -1,
			Rejected:      1,
			PendingAmount: -requested,
		}, true
	case from == domain.StatusApproved && to == domain.StatusPaid:
		return counterDelta{}, true
	}
	return counterDelta{}, false
}

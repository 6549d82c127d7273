// Package ranking orders appointment collections for presentation.
package ranking

import (
	"slices"

	"printshop-scheduler/internal/model"
)

type View int

const (
	// Global is the admin view: status, urgency, then date and time, latest first.
	Global View = iota
	// PerUser is a requester's own list: status only, newest request first within a tier.
	PerUser
)

func statusRank(s model.Status) int {
	switch s {
	case model.StatusPending:
		return 1
	case model.StatusDone:
		return 2
	}
	return 3
}

func urgencyRank(u model.Urgency) int {
	switch u {
	case model.UrgencyUrgent:
		return 1
	case model.UrgencyNormal:
		return 2
	}
	return 3
}

// Rank returns a new slice in presentation order. The input is not modified.
// The result is a total order, so it does not depend on input order.
func Rank(appts []model.Appointment, view View) []model.Appointment {
	out := slices.Clone(appts)
	slices.SortFunc(out, compareFor(view))
	return out
}

func compareFor(view View) func(a, b model.Appointment) int {
	if view == PerUser {
		return comparePerUser
	}
	return compareGlobal
}

func compareGlobal(a, b model.Appointment) int {
	if c := statusRank(a.Status) - statusRank(b.Status); c != 0 {
		return c
	}
	if c := urgencyRank(a.Urgency) - urgencyRank(b.Urgency); c != 0 {
		return c
	}
	if c := b.Date.Compare(a.Date); c != 0 {
		return c
	}
	if c := b.Time.Compare(a.Time); c != 0 {
		return c
	}
	return tiebreak(a, b)
}

func comparePerUser(a, b model.Appointment) int {
	if c := statusRank(a.Status) - statusRank(b.Status); c != 0 {
		return c
	}
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return tiebreak(a, b)
}

func tiebreak(a, b model.Appointment) int {
	switch {
	case a.RequestID < b.RequestID:
		return -1
	case a.RequestID > b.RequestID:
		return 1
	}
	return 0
}

// Filter keeps appointments matching a saved status filter ("All" keeps everything).
func Filter(appts []model.Appointment, statusFilter string) []model.Appointment {
	if statusFilter == "" || statusFilter == model.FilterAll {
		return appts
	}
	out := make([]model.Appointment, 0, len(appts))
	for _, a := range appts {
		if string(a.Status) == statusFilter {
			out = append(out, a)
		}
	}
	return out
}

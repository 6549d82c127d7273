package ranking_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printshop-scheduler/internal/model"
	"printshop-scheduler/internal/ranking"
)

func appt(id string, st model.Status, u model.Urgency, day, hour int) model.Appointment {
	return model.Appointment{
		RequestID: id,
		Status:    st,
		Urgency:   u,
		Date:      model.Date{Year: 2025, Month: time.March, Day: day},
		Time:      model.Clock{Hour: hour},
	}
}

func ids(appts []model.Appointment) []string {
	out := make([]string, len(appts))
	for i, a := range appts {
		out[i] = a.RequestID
	}
	return out
}

func TestGlobalStatusOrder(t *testing.T) {
	in := []model.Appointment{
		appt("100001", model.StatusDone, model.UrgencyNormal, 5, 9),
		appt("100002", model.StatusPending, model.UrgencyNormal, 5, 9),
		appt("100003", model.StatusCancelled, model.UrgencyNormal, 5, 9),
	}
	got := ranking.Rank(in, ranking.Global)
	assert.Equal(t, []model.Status{model.StatusPending, model.StatusDone, model.StatusCancelled},
		[]model.Status{got[0].Status, got[1].Status, got[2].Status})
}

func TestGlobalUrgentBeforeNormal(t *testing.T) {
	in := []model.Appointment{
		appt("100001", model.StatusPending, model.UrgencyNormal, 5, 9),
		appt("100002", model.StatusPending, model.UrgencyMinor, 5, 9),
		appt("100003", model.StatusPending, model.UrgencyUrgent, 5, 9),
	}
	got := ranking.Rank(in, ranking.Global)
	assert.Equal(t, []string{"100003", "100001", "100002"}, ids(got))
}

func TestGlobalLaterDateTimeFirst(t *testing.T) {
	in := []model.Appointment{
		appt("100001", model.StatusPending, model.UrgencyNormal, 5, 9),
		appt("100002", model.StatusPending, model.UrgencyNormal, 6, 8),
		appt("100003", model.StatusPending, model.UrgencyNormal, 5, 14),
	}
	got := ranking.Rank(in, ranking.Global)
	assert.Equal(t, []string{"100002", "100003", "100001"}, ids(got))
}

func TestStatusOutranksUrgency(t *testing.T) {
	in := []model.Appointment{
		appt("100001", model.StatusDone, model.UrgencyUrgent, 9, 9),
		appt("100002", model.StatusPending, model.UrgencyMinor, 1, 1),
	}
	got := ranking.Rank(in, ranking.Global)
	assert.Equal(t, "100002", got[0].RequestID)
}

func TestPerUserIgnoresUrgency(t *testing.T) {
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	older := appt("100001", model.StatusPending, model.UrgencyUrgent, 5, 9)
	older.CreatedAt = base
	newer := appt("100002", model.StatusPending, model.UrgencyMinor, 5, 9)
	newer.CreatedAt = base.Add(time.Hour)
	done := appt("100003", model.StatusDone, model.UrgencyUrgent, 5, 9)
	done.CreatedAt = base.Add(2 * time.Hour)

	got := ranking.Rank([]model.Appointment{older, done, newer}, ranking.PerUser)
	assert.Equal(t, []string{"100002", "100001", "100003"}, ids(got))
}

func TestRankDeterministicAndPermutationStable(t *testing.T) {
	statuses := []model.Status{model.StatusPending, model.StatusDone, model.StatusCancelled}
	urg := []model.Urgency{model.UrgencyUrgent, model.UrgencyNormal, model.UrgencyMinor}
	var in []model.Appointment
	for i := 0; i < 40; i++ {
		a := appt(string(rune('A'+i%26))+string(rune('a'+i/26)), statuses[i%3], urg[(i/3)%3], 1+i%4, 8+i%3)
		in = append(in, a)
	}

	for _, view := range []ranking.View{ranking.Global, ranking.PerUser} {
		first := ranking.Rank(in, view)
		second := ranking.Rank(first, view)
		require.Equal(t, ids(first), ids(second), "rank is not idempotent")

		r := rand.New(rand.NewSource(42))
		for n := 0; n < 10; n++ {
			shuffled := append([]model.Appointment(nil), in...)
			r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
			require.Equal(t, ids(first), ids(ranking.Rank(shuffled, view)))
		}
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	in := []model.Appointment{
		appt("100001", model.StatusDone, model.UrgencyNormal, 5, 9),
		appt("100002", model.StatusPending, model.UrgencyNormal, 5, 9),
	}
	_ = ranking.Rank(in, ranking.Global)
	assert.Equal(t, "100001", in[0].RequestID)
}

func TestFilter(t *testing.T) {
	in := []model.Appointment{
		appt("100001", model.StatusDone, model.UrgencyNormal, 5, 9),
		appt("100002", model.StatusPending, model.UrgencyNormal, 5, 9),
	}
	assert.Len(t, ranking.Filter(in, model.FilterAll), 2)
	got := ranking.Filter(in, "Pending")
	require.Len(t, got, 1)
	assert.Equal(t, "100002", got[0].RequestID)
}

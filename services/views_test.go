package services

import (
	"testing"
	"time"

	"fithub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedFiltersAndSorts(t *testing.T) {
	st := DefaultState(refTime)
	st.Dismissed = []string{"e2"}

	items := Feed(st, "")
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	assert.Equal(t, []string{"e3", "e1", "e4"}, ids)
	assert.Equal(t, "Quadra 3 · Stiep", items[0].VenueLabel)
	assert.Equal(t, 3, items[0].OpenSlots)

	items = Feed(st, "VOLEI")
	require.Len(t, items, 1)
	assert.Equal(t, "e3", items[0].ID)
}

func TestFeedSkipsDanglingVenue(t *testing.T) {
	st := DefaultState(refTime)
	st.Events[0].VenueID = "demolished"
	items := Feed(st, "")
	for _, it := range items {
		assert.NotEqual(t, "e1", it.ID)
	}
	assert.Len(t, items, 3)
}

func TestEnrollmentsSkipsMissingEvents(t *testing.T) {
	st := DefaultState(refTime)
	st.Enrollments["e4"] = models.Enrollment{EventID: "e4"}
	st.Enrollments["e1"] = models.Enrollment{EventID: "e1"}
	st.Enrollments["gone"] = models.Enrollment{EventID: "gone"}

	views := Enrollments(st)
	require.Len(t, views, 2)
	assert.Equal(t, "e1", views[0].EventID)
	assert.Equal(t, "e4", views[1].EventID)
}

func TestProfileSummary(t *testing.T) {
	st := signedInState(futureEvent("e1", time.Hour, 10, 0))
	st.Ranking["u1"] = 12
	st.Enrollments["e1"] = models.Enrollment{EventID: "e1", Paid: true}
	st.Enrollments["e2"] = models.Enrollment{EventID: "e2"}
	for i := 0; i < 6; i++ {
		st.History = append(st.History, models.HistoryEntry{ID: string(rune('a' + i))})
	}

	p := Profile(st)
	assert.Equal(t, 12, p.Points)
	assert.Equal(t, 2, p.Enrollments)
	assert.Equal(t, 1, p.Unpaid)
	assert.Len(t, p.RecentHistory, 4)
	assert.Equal(t, "a", p.RecentHistory[0].ID)
}

func TestLeaderboard(t *testing.T) {
	st := DefaultState(refTime)
	st.User = &models.User{ID: "u1", Name: "Novato", City: "Recife"}
	st.Ranking["u1"] = 50

	all := Leaderboard(st, LeaderboardFilter{})
	require.Len(t, all, 5)
	assert.Equal(t, "Novato", all[0].Name)
	assert.Equal(t, 1, all[0].Rank)
	assert.Equal(t, "Lucas Santiago", all[1].Name)

	twenties := Leaderboard(st, LeaderboardFilter{AgeBand: "20-29"})
	names := make([]string, len(twenties))
	for i, e := range twenties {
		names[i] = e.Name
	}
	// players outside the directory are never filtered out
	assert.Equal(t, []string{"Novato", "Lucas Santiago", "Mariana Lopes"}, names)

	lauro := Leaderboard(st, LeaderboardFilter{City: "Lauro de Freitas"})
	require.Len(t, lauro, 2)
	assert.Equal(t, "Pedro Souza", lauro[1].Name)

	for i := 0; i < 20; i++ {
		st.Ranking[string(rune('A'+i))] = i
	}
	assert.Len(t, Leaderboard(st, LeaderboardFilter{}), 10)
}

func TestAgeBand(t *testing.T) {
	assert.Equal(t, "Sub-20", AgeBand(19))
	assert.Equal(t, "20-29", AgeBand(20))
	assert.Equal(t, "30-39", AgeBand(39))
	assert.Equal(t, "40+", AgeBand(40))
}

func TestBillingSummaryAndDashboard(t *testing.T) {
	eng := newTestEngine(newTestClock())
	st := DefaultState(refTime)
	st.User = &models.User{ID: "u1", Name: "Lucas"}
	st.Enrollments["e1"] = models.Enrollment{EventID: "e1"}
	st.Enrollments["e2"] = models.Enrollment{EventID: "e2"}

	b := eng.Billing(st)
	assert.Equal(t, 2, b.Enrollments)
	assert.InDelta(t, 2.0, b.Due, 1e-9)
	assert.NotEmpty(t, b.DueLabel)
	assert.Equal(t, "2025-03", b.Month)

	d := eng.AdminDashboard(st)
	assert.Equal(t, 4, d.Events)
	assert.Equal(t, 6+2+9+12, d.PlayersOnline)
	assert.Equal(t, (10-6)+(6-2)+(12-9)+(25-12), d.OpenSlots)
	assert.False(t, d.Suspended)
}

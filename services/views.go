package services

import (
	"log"
	"sort"
	"strings"
	"time"

	"fithub/models"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const leaderboardSize = 10

// FeedItem is an event as shown in the swipe deck.
type FeedItem struct {
	models.Event
	VenueLabel string `json:"venue_label"`
	OpenSlots  int    `json:"open_slots"`
	Enrolled   bool   `json:"enrolled"`
}

// Feed lists visible events matching search, soonest first.
func Feed(st *models.State, search string) []FeedItem {
	search = normalizeSport(strings.TrimSpace(search))
	items := make([]FeedItem, 0, len(st.Events))
	for _, ev := range st.Events {
		if st.IsDismissed(ev.ID) {
			continue
		}
		if search != "" && !strings.Contains(normalizeSport(ev.Sport), search) {
			continue
		}
		label, ok := venueLabel(st, ev)
		if !ok {
			log.Printf("[Views] event %s references missing venue %s, skipping", ev.ID, ev.VenueID)
			continue
		}
		_, enrolled := st.Enrollments[ev.ID]
		items = append(items, FeedItem{Event: ev, VenueLabel: label, OpenSlots: ev.OpenSlots(), Enrolled: enrolled})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Datetime.Before(items[j].Datetime)
	})
	return items
}

func venueLabel(st *models.State, ev models.Event) (string, bool) {
	if ev.VenueID == "" {
		return ev.Venue, true
	}
	v, ok := st.Venue(ev.VenueID)
	if !ok {
		return "", false
	}
	return v.Label, true
}

type EnrollmentView struct {
	models.Enrollment
	Event models.Event `json:"event"`
}

// Enrollments lists the session user's active enrollments, soonest first.
func Enrollments(st *models.State) []EnrollmentView {
	out := make([]EnrollmentView, 0, len(st.Enrollments))
	for id, en := range st.Enrollments {
		ev, ok := st.Event(id)
		if !ok {
			log.Printf("[Views] enrollment for missing event %s, skipping", id)
			continue
		}
		out = append(out, EnrollmentView{Enrollment: en, Event: ev})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Event.Datetime.Equal(out[j].Event.Datetime) {
			return out[i].EventID < out[j].EventID
		}
		return out[i].Event.Datetime.Before(out[j].Event.Datetime)
	})
	return out
}

type ProfileSummary struct {
	User           *models.User             `json:"user"`
	Points         int                      `json:"points"`
	Enrollments    int                      `json:"enrollments"`
	Unpaid         int                      `json:"unpaid"`
	Totals         models.PerformanceTotals `json:"totals"`
	Videos         []models.VideoLink       `json:"videos"`
	RecentHistory  []models.HistoryEntry    `json:"recent_history"`
	Cancellations  int                      `json:"cancellations"`
	SuspendedUntil *time.Time               `json:"suspended_until,omitempty"`
}

// Profile summarizes the session user's activity.
func Profile(st *models.State) ProfileSummary {
	p := ProfileSummary{
		User:           st.User,
		Enrollments:    len(st.Enrollments),
		Totals:         st.Performance.Totals,
		Videos:         st.Performance.Videos,
		Cancellations:  st.Cancellations.Count,
		SuspendedUntil: st.Cancellations.SuspendedUntil,
	}
	if st.User != nil {
		p.Points = st.Ranking[st.User.ID]
	}
	for _, en := range st.Enrollments {
		if !en.Paid {
			p.Unpaid++
		}
	}
	recent := st.History
	if len(recent) > 4 {
		recent = recent[:4]
	}
	p.RecentHistory = recent
	return p
}

// LeaderboardFilter narrows the ranking; empty fields match everyone.
type LeaderboardFilter struct {
	State   string
	City    string
	Venue   string
	AgeBand string
}

type LeaderboardEntry struct {
	Rank    int    `json:"rank"`
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	Points  int    `json:"points"`
	City    string `json:"city,omitempty"`
	Venue   string `json:"venue,omitempty"`
	AgeBand string `json:"age_band,omitempty"`
}

// AgeBand groups a player age into the ranking brackets.
func AgeBand(age int) string {
	switch {
	case age < 20:
		return "Sub-20"
	case age < 30:
		return "20-29"
	case age < 40:
		return "30-39"
	default:
		return "40+"
	}
}

func matchFilter(want, got string) bool {
	return want == "" || want == "todos" || strings.EqualFold(want, got)
}

// Leaderboard returns the top players by points. Players missing from the
// directory pass every filter.
func Leaderboard(st *models.State, f LeaderboardFilter) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(st.Ranking))
	for uid, pts := range st.Ranking {
		e := LeaderboardEntry{UserID: uid, Name: uid, Points: pts}
		if meta, ok := PlayerDirectory[uid]; ok {
			band := AgeBand(meta.Age)
			if !matchFilter(f.State, meta.State) || !matchFilter(f.City, meta.City) ||
				!matchFilter(f.Venue, meta.Venue) || !matchFilter(f.AgeBand, band) {
				continue
			}
			e.Name, e.City, e.Venue, e.AgeBand = meta.Name, meta.City, meta.Venue, band
		} else if st.User != nil && st.User.ID == uid {
			e.Name, e.City = st.User.Name, st.User.City
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points == entries[j].Points {
			return entries[i].UserID < entries[j].UserID
		}
		return entries[i].Points > entries[j].Points
	})
	if len(entries) > leaderboardSize {
		entries = entries[:leaderboardSize]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

type BillingSummary struct {
	Month       string     `json:"month"`
	Enrollments int        `json:"enrollments"`
	Fee         float64    `json:"fee"`
	Due         float64    `json:"due"`
	DueLabel    string     `json:"due_label"`
	Paid        bool       `json:"paid"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	AmountPaid  float64    `json:"amount_paid"`
	Fund        float64    `json:"fund"`
	FundLabel   string     `json:"fund_label"`
}

var billingPrinter = message.NewPrinter(language.BrazilianPortuguese)

// FormatAmount renders a value in Brazilian reais.
func FormatAmount(v float64) string {
	return billingPrinter.Sprint(currency.Symbol(currency.BRL.Amount(v)))
}

// Billing summarizes the current month. Callers roll the period first.
func (e *Engine) Billing(st *models.State) BillingSummary {
	due := e.Due(st)
	return BillingSummary{
		Month:       st.Billing.Month,
		Enrollments: len(st.Enrollments),
		Fee:         e.Policy.MonthlyFee,
		Due:         due,
		DueLabel:    FormatAmount(due),
		Paid:        st.Billing.Paid,
		PaidAt:      st.Billing.PaidAt,
		AmountPaid:  st.Billing.AmountPaid,
		Fund:        st.Fund,
		FundLabel:   FormatAmount(st.Fund),
	}
}

type Dashboard struct {
	Events        int     `json:"events"`
	OpenSlots     int     `json:"open_slots"`
	PlayersOnline int     `json:"players_online"`
	Fund          float64 `json:"fund"`
	Enrollments   int     `json:"enrollments"`
	Venues        int     `json:"venues"`
	Teams         int     `json:"teams"`
	Championships int     `json:"championships"`
	Stories       int     `json:"stories"`
	Reminders     int     `json:"reminders"`
	Suspended     bool    `json:"suspended"`
}

// AdminDashboard aggregates operator counters over the whole state.
func (e *Engine) AdminDashboard(st *models.State) Dashboard {
	d := Dashboard{
		Events:        len(st.Events),
		Fund:          st.Fund,
		Enrollments:   len(st.Enrollments),
		Venues:        len(st.Venues),
		Teams:         len(st.Teams),
		Championships: len(st.Championships),
		Stories:       len(st.Stories),
		Reminders:     len(st.Reminders),
	}
	for _, ev := range st.Events {
		d.OpenSlots += ev.OpenSlots()
		d.PlayersOnline += ev.SlotsTaken
	}
	_, d.Suspended = e.ActiveSuspension(st)
	return d
}

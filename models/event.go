package models

import (
	"time"
)

// CheckInMethod is the kind of proof a player attaches when confirming attendance.
type CheckInMethod string

const (
	CheckInPhoto CheckInMethod = "photo"
	CheckInVideo CheckInMethod = "video"
)

// Valid reports whether m is one of the accepted check-in methods.
func (m CheckInMethod) Valid() bool {
	return m == CheckInPhoto || m == CheckInVideo
}

// Event is a scheduled pickup session with a fixed number of slots.
type Event struct {
	ID             string    `json:"id"`
	Sport          string    `json:"sport"`
	VenueID        string    `json:"venue_id"`
	Venue          string    `json:"venue"` // label snapshot taken at creation
	Datetime       time.Time `json:"datetime"`
	SlotsTotal     int       `json:"slots_total"`
	SlotsTaken     int       `json:"slots_taken"`
	PricePerPlayer float64   `json:"price_per_player"`
	Creator        string    `json:"creator"`
	Level          string    `json:"level"`
	Stats          []string  `json:"stats"`
	TeamID         string    `json:"team_id,omitempty"`
}

// OpenSlots returns how many players can still join.
func (e Event) OpenSlots() int {
	if e.SlotsTaken >= e.SlotsTotal {
		return 0
	}
	return e.SlotsTotal - e.SlotsTaken
}

// Enrollment is the session user's active claim on a slot, pending check-in.
type Enrollment struct {
	EventID   string        `json:"event_id"`
	UserID    string        `json:"user_id"`
	CheckedIn bool          `json:"checked_in"`
	Method    CheckInMethod `json:"method,omitempty"`
	Proof     string        `json:"proof,omitempty"`
	Paid      bool          `json:"paid"`
	JoinedAt  time.Time     `json:"joined_at"`
}

// HistoryEntry is the snapshot of a finished or checked-in enrollment.
type HistoryEntry struct {
	ID         string        `json:"id"`
	EventID    string        `json:"event_id"`
	Sport      string        `json:"sport"`
	Venue      string        `json:"venue"`
	Datetime   time.Time     `json:"datetime"`
	Method     CheckInMethod `json:"method,omitempty"`
	Proof      string        `json:"proof,omitempty"`
	PhotoURL   string        `json:"photo_url,omitempty"`
	VideoURL   string        `json:"video_url,omitempty"`
	Goals      int           `json:"goals"`
	Passes     int           `json:"passes"`
	Distance   float64       `json:"distance"`
	Minutes    int           `json:"minutes,omitempty"`
	MVP        bool          `json:"mvp,omitempty"`
	Points     int           `json:"points"`
	RecordedAt time.Time     `json:"recorded_at"`
}

// VideoLink is a submitted match video kept on the performance card.
type VideoLink struct {
	EventID  string    `json:"event_id"`
	URL      string    `json:"url"`
	Sport    string    `json:"sport"`
	Datetime time.Time `json:"datetime"`
}

// PerformanceTotals are running sums across every finished event.
type PerformanceTotals struct {
	Goals    int     `json:"goals"`
	Passes   int     `json:"passes"`
	Distance float64 `json:"distance"`
}

type Performance struct {
	Totals PerformanceTotals `json:"totals"`
	Videos []VideoLink       `json:"videos"`
}

// Reminder is a durable one-shot notification scheduled ahead of an event.
type Reminder struct {
	ID      string    `json:"id"`
	EventID string    `json:"event_id"`
	FireAt  time.Time `json:"fire_at"`
	Message string    `json:"message"`
}

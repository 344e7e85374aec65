package models

import (
	"time"
)

// Venue is a court, field or track where events take place.
type Venue struct {
	ID           string   `json:"id"`
	Label        string   `json:"label"`
	Name         string   `json:"name,omitempty"`
	Neighborhood string   `json:"neighborhood"`
	Kind         string   `json:"kind"`
	Surface      string   `json:"surface"`
	PhotoURL     string   `json:"photo_url,omitempty"`
	Lat          *float64 `json:"lat,omitempty"`
	Lng          *float64 `json:"lng,omitempty"`
}

// HasLocation reports whether the venue carries coordinates.
func (v Venue) HasLocation() bool {
	return v.Lat != nil && v.Lng != nil
}

type PingStatus string

const (
	PingPending   PingStatus = "pending"
	PingConfirmed PingStatus = "confirmed"
	PingDeclined  PingStatus = "declined"
)

// TeamPing is a broadcast from the captain waiting on every member's answer.
type TeamPing struct {
	ID        string                `json:"id"`
	Message   string                `json:"message"`
	EventID   string                `json:"event_id,omitempty"`
	SentAt    time.Time             `json:"sent_at"`
	Responses map[string]PingStatus `json:"responses"`
}

type Team struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Sport   string    `json:"sport"`
	Captain string    `json:"captain"`
	Members []string  `json:"members"`
	Ping    *TeamPing `json:"ping,omitempty"`
}

// HasMember reports whether name is on the roster.
func (t Team) HasMember(name string) bool {
	for _, m := range t.Members {
		if m == name {
			return true
		}
	}
	return false
}

// EnrollmentMode selects how a registrant enters a championship.
type EnrollmentMode string

const (
	ModeSolo       EnrollmentMode = "solo"
	ModeCreateTeam EnrollmentMode = "create-team"
	ModeTeam       EnrollmentMode = "team"
)

type ChampionshipTeam struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Captain      string   `json:"captain"`
	Members      []string `json:"members"`
	SourceTeamID string   `json:"source_team_id,omitempty"`
}

// Championship is a multi-team competition with its own roster rules.
type Championship struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Sport          string             `json:"sport"`
	Category       string             `json:"category"`
	Fee            float64            `json:"fee"`
	StartDate      string             `json:"start_date"` // YYYY-MM-DD
	Description    string             `json:"description"`
	Prize          string             `json:"prize,omitempty"`
	Rules          string             `json:"rules,omitempty"`
	MaxTeams       int                `json:"max_teams"`
	PlayersPerTeam int                `json:"players_per_team"`
	Teams          []ChampionshipTeam `json:"teams"`
	Queue          []string           `json:"queue"`
	Registrations  []string           `json:"registrations"`
}

type Friend struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type ChatMessage struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to,omitempty"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type Notification struct {
	ID        string    `json:"id"`
	Team      string    `json:"team,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Story is a before/after post attached to a workout.
type Story struct {
	ID          string    `json:"id"`
	Athlete     string    `json:"athlete"`
	EventName   string    `json:"event_name"`
	Venue       string    `json:"venue"`
	BeforePhoto string    `json:"before_photo"`
	AfterPhoto  string    `json:"after_photo"`
	Caption     string    `json:"caption"`
	CreatedAt   time.Time `json:"created_at"`
}

type Kid struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Sport    string `json:"sport"`
	Guardian string `json:"guardian"`
}

// PlayerMeta is the public directory card used by ranking filters.
type PlayerMeta struct {
	Name  string `json:"name"`
	Venue string `json:"venue"`
	City  string `json:"city"`
	State string `json:"state"`
	Age   int    `json:"age"`
}

package remote

import (
	"time"

	"gorm.io/datatypes"
)

// Profile is a player account. Directory players that only exist in the
// ranking get a row with a null email.
type Profile struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Email        *string   `gorm:"uniqueIndex" json:"email,omitempty"`
	City         string    `json:"city"`
	PasswordHash string    `json:"-"`
	Points       int       `gorm:"not null;default:0;index" json:"points"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Venue struct {
	ID           string   `gorm:"primaryKey" json:"id"`
	Label        string   `gorm:"uniqueIndex;not null" json:"label"`
	Name         string   `json:"name"`
	Neighborhood string   `json:"neighborhood"`
	Kind         string   `json:"kind"`
	Surface      string   `json:"surface"`
	PhotoURL     string   `json:"photo_url"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	Position     int      `gorm:"not null;default:0" json:"-"`
}

type Event struct {
	ID             string        `gorm:"primaryKey" json:"id"`
	Sport          string        `gorm:"not null" json:"sport"`
	VenueID        string        `gorm:"index" json:"venue_id"`
	Venue          string        `json:"venue"`
	Datetime       time.Time     `gorm:"index;not null" json:"datetime"`
	SlotsTotal     int           `gorm:"not null" json:"slots_total"`
	SlotsTaken     int           `gorm:"not null;default:0" json:"slots_taken"`
	PricePerPlayer float64       `json:"price_per_player"`
	Creator        string        `json:"creator"`
	Level          string        `json:"level"`
	TeamID         string        `json:"team_id"`
	Stats          []EventStat   `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"stats"`
	Players        []EventPlayer `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"players"`
}

// EventStat is one tracked stat name of an event, kept in display order.
type EventStat struct {
	EventID  string `gorm:"primaryKey" json:"event_id"`
	Position int    `gorm:"primaryKey" json:"position"`
	Name     string `gorm:"not null" json:"name"`
}

// EventPlayer is an active enrollment of a profile in an event.
type EventPlayer struct {
	EventID   string    `gorm:"primaryKey" json:"event_id"`
	UserID    string    `gorm:"primaryKey;index" json:"user_id"`
	CheckedIn bool      `gorm:"default:false" json:"checked_in"`
	Method    string    `json:"method"`
	Proof     string    `json:"proof"`
	Paid      bool      `gorm:"default:false" json:"paid"`
	JoinedAt  time.Time `json:"joined_at"`
}

type Team struct {
	ID       string         `gorm:"primaryKey" json:"id"`
	Name     string         `gorm:"not null" json:"name"`
	Sport    string         `json:"sport"`
	Captain  string         `json:"captain"`
	Ping     datatypes.JSON `json:"ping"`
	Position int            `gorm:"not null;default:0" json:"-"`
	Members  []TeamMember   `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE" json:"members"`
}

type TeamMember struct {
	TeamID   string `gorm:"primaryKey" json:"team_id"`
	Position int    `gorm:"primaryKey" json:"position"`
	Name     string `gorm:"not null" json:"name"`
}

type Championship struct {
	ID             string             `gorm:"primaryKey" json:"id"`
	Name           string             `gorm:"not null" json:"name"`
	Sport          string             `json:"sport"`
	Category       string             `json:"category"`
	Fee            float64            `json:"fee"`
	StartDate      string             `json:"start_date"`
	Description    string             `json:"description"`
	Prize          string             `json:"prize"`
	Rules          string             `json:"rules"`
	MaxTeams       int                `json:"max_teams"`
	PlayersPerTeam int                `json:"players_per_team"`
	Queue          datatypes.JSON     `json:"queue"`
	Registrations  datatypes.JSON     `json:"registrations"`
	Position       int                `gorm:"not null;default:0" json:"-"`
	Teams          []ChampionshipTeam `gorm:"foreignKey:ChampionshipID;constraint:OnDelete:CASCADE" json:"teams"`
}

type ChampionshipTeam struct {
	ID             string         `gorm:"primaryKey" json:"id"`
	ChampionshipID string         `gorm:"index;not null" json:"championship_id"`
	Name           string         `json:"name"`
	Captain        string         `json:"captain"`
	Members        datatypes.JSON `json:"members"`
	SourceTeamID   string         `json:"source_team_id"`
	Position       int            `gorm:"not null;default:0" json:"position"`
}

// Performance is one history row of a profile.
type Performance struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"index;not null" json:"user_id"`
	EventID    string    `gorm:"index" json:"event_id"`
	Sport      string    `json:"sport"`
	Venue      string    `json:"venue"`
	Datetime   time.Time `json:"datetime"`
	Method     string    `json:"method"`
	Proof      string    `json:"proof"`
	PhotoURL   string    `json:"photo_url"`
	VideoURL   string    `json:"video_url"`
	Goals      int       `json:"goals"`
	Passes     int       `json:"passes"`
	Distance   float64   `json:"distance"`
	Minutes    int       `json:"minutes"`
	MVP        bool      `json:"mvp"`
	Points     int       `json:"points"`
	RecordedAt time.Time `gorm:"index" json:"recorded_at"`
}

// AllRows lists the tables in migration order.
func AllRows() []any {
	return []any{
		&Profile{},
		&Venue{},
		&Event{},
		&EventStat{},
		&EventPlayer{},
		&Team{},
		&TeamMember{},
		&Championship{},
		&ChampionshipTeam{},
		&Performance{},
	}
}

// WatchedTables get a change trigger on Postgres.
var WatchedTables = []string{
	"profiles", "venues", "events", "event_players", "teams",
	"team_members", "championships", "championship_teams", "performances",
}

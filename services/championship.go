package services

import (
	"fmt"
	"slices"
	"strings"

	"fithub/models"

	"github.com/google/uuid"
)

const (
	defaultMaxTeams       = 8
	defaultPlayersPerTeam = 5
	defaultChampFee       = 20
)

type ChampionshipInput struct {
	Name           string  `json:"name"`
	Sport          string  `json:"sport"`
	Category       string  `json:"category"`
	Fee            float64 `json:"fee"`
	StartDate      string  `json:"start_date"`
	Description    string  `json:"description"`
	Prize          string  `json:"prize"`
	Rules          string  `json:"rules"`
	MaxTeams       int     `json:"max_teams"`
	PlayersPerTeam int     `json:"players_per_team"`
}

// CreateChampionship opens a new competition; it is listed first.
func (e *Engine) CreateChampionship(st *models.State, in ChampionshipInput) (models.Championship, models.CollectionSet, error) {
	dirty := models.NewCollectionSet()
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Championship{}, dirty, models.NewValidationError("name", "is required")
	}
	if in.MaxTeams < 0 || in.PlayersPerTeam < 0 {
		return models.Championship{}, dirty, models.NewValidationError("max_teams", "must not be negative")
	}
	fee := in.Fee
	if fee <= 0 {
		fee = defaultChampFee
	}
	c := models.Championship{
		ID:             slugID(name, e.Now()),
		Name:           name,
		Sport:          orDefault(in.Sport, "Futebol Society"),
		Category:       orDefault(in.Category, "Aberto"),
		Fee:            fee,
		StartDate:      orDefault(in.StartDate, e.Now().Format(dateLayout)),
		Description:    orDefault(in.Description, "Rodadas confirmadas pelo app."),
		Prize:          in.Prize,
		Rules:          in.Rules,
		MaxTeams:       in.MaxTeams,
		PlayersPerTeam: in.PlayersPerTeam,
	}
	if c.MaxTeams == 0 {
		c.MaxTeams = defaultMaxTeams
	}
	if c.PlayersPerTeam == 0 {
		c.PlayersPerTeam = defaultPlayersPerTeam
	}
	st.Championships = append([]models.Championship{c}, st.Championships...)
	dirty.Add(models.CollChampionships)
	return c, dirty, nil
}

// EnrollInput names who enters a championship and how.
// RegistrantID is recorded in the registrations list; it defaults to the
// kid id when KidID is set, otherwise to the session user id.
type EnrollInput struct {
	Mode       models.EnrollmentMode `json:"mode"`
	Registrant string                `json:"registrant"`
	KidID      string                `json:"kid_id"`
	TeamID     string                `json:"team_id"`
	TeamName   string                `json:"team_name"`
}

// EnrollInChampionship places a registrant solo, as captain of a new team
// pulled from the queue, or brings a whole session team in.
func (e *Engine) EnrollInChampionship(st *models.State, champID string, in EnrollInput) (models.Championship, models.CollectionSet, error) {
	dirty := models.NewCollectionSet()
	if !st.Authenticated() {
		return models.Championship{}, dirty, models.ErrLoginRequired
	}
	ci := st.ChampionshipIndex(champID)
	if ci < 0 {
		return models.Championship{}, dirty, models.ErrChampionshipNotFound
	}
	switch in.Mode {
	case models.ModeSolo, models.ModeCreateTeam, models.ModeTeam:
	default:
		return models.Championship{}, dirty, models.ErrInvalidEnrollmentMode
	}

	registrant := strings.TrimSpace(in.Registrant)
	regID := st.User.ID
	if in.KidID != "" {
		kid, ok := findKid(st, in.KidID)
		if !ok {
			return models.Championship{}, dirty, models.NewValidationError("kid_id", "unknown kid")
		}
		regID = kid.ID
		if registrant == "" {
			registrant = kid.Name
		}
	}
	if registrant == "" {
		registrant = st.User.Name
	}

	c := &st.Championships[ci]
	players := c.PlayersPerTeam
	if players <= 0 {
		players = defaultPlayersPerTeam
	}
	maxTeams := c.MaxTeams
	if maxTeams <= 0 {
		maxTeams = defaultMaxTeams
	}

	switch in.Mode {
	case models.ModeSolo:
		if isRegistered(c, registrant) {
			return models.Championship{}, dirty, models.ErrAlreadyRegistered
		}
		placed := false
		for i := range c.Teams {
			if len(c.Teams[i].Members) < players {
				c.Teams[i].Members = append(c.Teams[i].Members, registrant)
				placed = true
				break
			}
		}
		if !placed {
			c.Queue = append(c.Queue, registrant)
		}

	case models.ModeCreateTeam:
		if isRegistered(c, registrant) {
			return models.Championship{}, dirty, models.ErrAlreadyRegistered
		}
		if len(c.Teams) >= maxTeams {
			return models.Championship{}, dirty, models.ErrChampionshipFull
		}
		members := []string{registrant}
		take := min(len(c.Queue), players-1)
		members = append(members, c.Queue[:take]...)
		c.Queue = slices.Clone(c.Queue[take:])
		c.Teams = append(c.Teams, models.ChampionshipTeam{
			ID:      uuid.NewString(),
			Name:    orDefault(in.TeamName, fmt.Sprintf("Time de %s", registrant)),
			Captain: registrant,
			Members: members,
		})

	case models.ModeTeam:
		src, ok := st.Team(in.TeamID)
		if !ok {
			return models.Championship{}, dirty, models.ErrTeamNotFound
		}
		for _, t := range c.Teams {
			if t.SourceTeamID == src.ID {
				return models.Championship{}, dirty, models.ErrAlreadyRegistered
			}
		}
		for _, m := range src.Members {
			if isRegistered(c, m) {
				return models.Championship{}, dirty, models.ErrAlreadyRegistered
			}
		}
		if len(c.Teams) >= maxTeams {
			return models.Championship{}, dirty, models.ErrChampionshipFull
		}
		c.Teams = append(c.Teams, models.ChampionshipTeam{
			ID:           uuid.NewString(),
			Name:         src.Name,
			Captain:      src.Captain,
			Members:      slices.Clone(src.Members),
			SourceTeamID: src.ID,
		})
	}

	if !slices.Contains(c.Registrations, regID) {
		c.Registrations = append(c.Registrations, regID)
	}
	dirty.Add(models.CollChampionships)
	return *c, dirty, nil
}

func isRegistered(c *models.Championship, name string) bool {
	if slices.Contains(c.Queue, name) {
		return true
	}
	for _, t := range c.Teams {
		if slices.Contains(t.Members, name) {
			return true
		}
	}
	return false
}

func findKid(st *models.State, id string) (models.Kid, bool) {
	i := slices.IndexFunc(st.Kids, func(k models.Kid) bool { return k.ID == id })
	if i < 0 {
		return models.Kid{}, false
	}
	return st.Kids[i], true
}

type KidInput struct {
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Sport    string `json:"sport"`
	Guardian string `json:"guardian"`
}

// AddKid registers a junior athlete under the session user's guardianship.
func (e *Engine) AddKid(st *models.State, in KidInput) (models.Kid, models.CollectionSet, error) {
	dirty := models.NewCollectionSet()
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Kid{}, dirty, models.NewValidationError("name", "is required")
	}
	guardian := "Responsável"
	if st.User != nil && st.User.Name != "" {
		guardian = st.User.Name
	}
	k := models.Kid{
		ID:       slugID(name, e.Now()),
		Name:     name,
		Age:      max(0, in.Age),
		Sport:    orDefault(in.Sport, "Multiesporte"),
		Guardian: orDefault(in.Guardian, guardian),
	}
	st.Kids = append(st.Kids, k)
	dirty.Add(models.CollKids)
	return k, dirty, nil
}

package services

import (
	"fmt"
	"strings"
	"time"

	"fithub/models"

	"github.com/google/uuid"
)

const (
	defaultTeamSport   = "Futebol 5x5"
	defaultBeforePhoto = "https://images.unsplash.com/photo-1517927033932-b3d18e61fb3a?auto=format&fit=crop&w=500&q=80"
	defaultAfterPhoto  = "https://images.unsplash.com/photo-1461897104016-0b3b00cc81ee?auto=format&fit=crop&w=500&q=80"
)

// CreateEventInput is the form for scheduling a new pickup event.
type CreateEventInput struct {
	Sport      string    `json:"sport"`
	VenueID    string    `json:"venue_id"`
	Datetime   time.Time `json:"datetime"`
	SlotsTotal int       `json:"slots_total"`
	Level      string    `json:"level"`
	Stats      []string  `json:"stats"`
	Price      *float64  `json:"price_per_player"`
	TeamID     string    `json:"team_id"`
}

// CreateEvent schedules an event at a known venue and optionally invites a team.
func (e *Engine) CreateEvent(st *models.State, in CreateEventInput) (models.Event, models.CollectionSet, error) {
	dirty := models.NewCollectionSet()
	if !st.Authenticated() {
		return models.Event{}, dirty, models.ErrLoginRequired
	}
	sport := strings.TrimSpace(in.Sport)
	if sport == "" {
		return models.Event{}, dirty, models.NewValidationError("sport", "is required")
	}
	if in.SlotsTotal <= 0 {
		return models.Event{}, dirty, models.NewValidationError("slots_total", "must be positive")
	}
	if in.Datetime.IsZero() {
		return models.Event{}, dirty, models.NewValidationError("datetime", "is required")
	}
	venue, ok := st.Venue(in.VenueID)
	if !ok {
		return models.Event{}, dirty, models.ErrVenueNotFound
	}
	var team models.Team
	if in.TeamID != "" {
		if team, ok = st.Team(in.TeamID); !ok {
			return models.Event{}, dirty, models.ErrTeamNotFound
		}
	}

	stats := in.Stats
	if len(stats) == 0 {
		stats = StatsPresetFor(sport)
	}
	price := e.Policy.MonthlyFee
	if in.Price != nil && *in.Price >= 0 {
		price = *in.Price
	}
	ev := models.Event{
		ID:             uuid.NewString(),
		Sport:          sport,
		VenueID:        venue.ID,
		Venue:          venue.Label,
		Datetime:       in.Datetime,
		SlotsTotal:     in.SlotsTotal,
		PricePerPlayer: price,
		Creator:        st.User.Name,
		Level:          in.Level,
		Stats:          stats,
		TeamID:         in.TeamID,
	}
	st.Events = append([]models.Event{ev}, st.Events...)
	dirty.Add(models.CollEvents)

	if in.TeamID != "" {
		e.notifyTeam(st, team, &ev, "Convite para jogo")
		dirty.Add(models.CollNotifications, models.CollChat)
	}
	return ev, dirty, nil
}

type VenueInput struct {
	Name         string   `json:"name"`
	Neighborhood string   `json:"neighborhood"`
	Kind         string   `json:"kind"`
	Surface      string   `json:"surface"`
	PhotoURL     string   `json:"photo_url"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
}

// AddVenue registers a venue; a venue with the same label is returned as is.
func (e *Engine) AddVenue(st *models.State, in VenueInput) (models.Venue, models.CollectionSet, error) {
	dirty := models.NewCollectionSet()
	name := strings.TrimSpace(in.Name)
	hood := strings.TrimSpace(in.Neighborhood)
	if name == "" {
		return models.Venue{}, dirty, models.NewValidationError("name", "is required")
	}
	if hood == "" {
		return models.Venue{}, dirty, models.NewValidationError("neighborhood", "is required")
	}
	label := name + " · " + hood
	for _, v := range st.Venues {
		if v.Label == label {
			return v, dirty, nil
		}
	}
	v := models.Venue{
		ID:           slugID(label, e.Now()),
		Label:        label,
		Name:         name,
		Neighborhood: hood,
		Kind:         orDefault(in.Kind, "Quadra"),
		Surface:      orDefault(in.Surface, "misto"),
		PhotoURL:     in.PhotoURL,
		Lat:          in.Lat,
		Lng:          in.Lng,
	}
	st.Venues = append(st.Venues, v)
	dirty.Add(models.CollVenues)
	return v, dirty, nil
}

type TeamInput struct {
	Name    string   `json:"name"`
	Sport   string   `json:"sport"`
	Members []string `json:"members"`
}

// CreateTeam founds a team captained by the session user and notifies its roster.
func (e *Engine) CreateTeam(st *models.State, in TeamInput) (models.Team, models.CollectionSet, error) {
	dirty := models.NewCollectionSet()
	if !st.Authenticated() {
		return models.Team{}, dirty, models.ErrLoginRequired
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Team{}, dirty, models.NewValidationError("name", "is required")
	}
	members := trimAll(in.Members)
	if len(members) == 0 {
		members = []string{st.User.Name}
	}
	t := models.Team{
		ID:      slugID(name, e.Now()),
		Name:    name,
		Sport:   orDefault(in.Sport, defaultTeamSport),
		Captain: st.User.Name,
		Members: members,
	}
	st.Teams = append(st.Teams, t)
	e.notifyTeam(st, t, nil, "Novo time criado")
	dirty.Add(models.CollTeams, models.CollNotifications, models.CollChat)
	return t, dirty, nil
}

// NotifyTeam sends a manual ping notification to every member of a team.
func (e *Engine) NotifyTeam(st *models.State, teamID, prefix string) (models.Notification, models.CollectionSet, error) {
	dirty := models.NewCollectionSet()
	t, ok := st.Team(teamID)
	if !ok {
		return models.Notification{}, dirty, models.ErrTeamNotFound
	}
	n := e.notifyTeam(st, t, nil, orDefault(prefix, "Ping manual"))
	dirty.Add(models.CollNotifications, models.CollChat)
	return n, dirty, nil
}

func (e *Engine) notifyTeam(st *models.State, t models.Team, ev *models.Event, prefix string) models.Notification {
	body := fmt.Sprintf("%s para o %s", prefix, t.Name)
	if ev != nil {
		body = fmt.Sprintf("%s: %s em %s. Ping para %s", prefix, ev.Sport, ev.Venue, strings.Join(t.Members, ", "))
	}
	now := e.Now()
	n := models.Notification{ID: uuid.NewString(), Team: t.Name, Body: body, CreatedAt: now}
	st.Notifications = capFront(st.Notifications, n, e.Policy.NotificationCap)
	e.appendChat(st, models.ChatMessage{ID: n.ID, From: t.Name, Text: body, Timestamp: now})
	return n
}

// PingTeam opens a broadcast waiting on a response from each member.
func (e *Engine) PingTeam(st *models.State, teamID, message, eventID string) (models.Team, models.CollectionSet, error) {
	dirty := models.NewCollectionSet()
	if !st.Authenticated() {
		return models.Team{}, dirty, models.ErrLoginRequired
	}
	i := st.TeamIndex(teamID)
	if i < 0 {
		return models.Team{}, dirty, models.ErrTeamNotFound
	}
	if eventID != "" {
		if _, ok := st.Event(eventID); !ok {
			return models.Team{}, dirty, models.ErrEventNotFound
		}
	}
	t := &st.Teams[i]
	ping := &models.TeamPing{
		ID:        uuid.NewString(),
		Message:   orDefault(message, "Bora jogar?"),
		EventID:   eventID,
		SentAt:    e.Now(),
		Responses: make(map[string]models.PingStatus, len(t.Members)),
	}
	for _, m := range t.Members {
		ping.Responses[m] = models.PingPending
	}
	t.Ping = ping
	e.notifyTeam(st, *t, nil, ping.Message)
	dirty.Add(models.CollTeams, models.CollNotifications, models.CollChat)
	return *t, dirty, nil
}

// RespondPing records a member's answer to the team's open ping.
func (e *Engine) RespondPing(st *models.State, teamID, member string, confirm bool) (models.Team, models.CollectionSet, error) {
	dirty := models.NewCollectionSet()
	if !st.Authenticated() {
		return models.Team{}, dirty, models.ErrLoginRequired
	}
	i := st.TeamIndex(teamID)
	if i < 0 {
		return models.Team{}, dirty, models.ErrTeamNotFound
	}
	t := &st.Teams[i]
	if t.Ping == nil {
		return models.Team{}, dirty, models.ErrNoActivePing
	}
	if member == "" {
		member = st.User.Name
	}
	if !t.HasMember(member) {
		return models.Team{}, dirty, models.ErrNotTeamMember
	}
	status := models.PingDeclined
	if confirm {
		status = models.PingConfirmed
	}
	t.Ping.Responses[member] = status
	dirty.Add(models.CollTeams)
	return *t, dirty, nil
}

// AddFriend adds a contact by name.
func (e *Engine) AddFriend(st *models.State, name string) (models.Friend, models.CollectionSet, error) {
	dirty := models.NewCollectionSet()
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Friend{}, dirty, models.NewValidationError("name", "is required")
	}
	f := models.Friend{ID: slugID(name, e.Now()), Name: name, Status: "Online"}
	st.Friends = append(st.Friends, f)
	dirty.Add(models.CollFriends)
	return f, dirty, nil
}

// SendChat posts a trimmed message from the session user.
func (e *Engine) SendChat(st *models.State, to, text string) (models.ChatMessage, models.CollectionSet, error) {
	dirty := models.NewCollectionSet()
	if !st.Authenticated() {
		return models.ChatMessage{}, dirty, models.ErrLoginRequired
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, dirty, models.NewValidationError("text", "is required")
	}
	msg := models.ChatMessage{
		ID:        uuid.NewString(),
		From:      st.User.Name,
		To:        orDefault(to, "Feed"),
		Text:      text,
		Timestamp: e.Now(),
	}
	e.appendChat(st, msg)
	dirty.Add(models.CollChat)
	return msg, dirty, nil
}

func (e *Engine) appendChat(st *models.State, msg models.ChatMessage) {
	st.Chat = append(st.Chat, msg)
	if limit := e.Policy.ChatCap; limit > 0 && len(st.Chat) > limit {
		st.Chat = st.Chat[len(st.Chat)-limit:]
	}
}

func (e *Engine) ClearNotifications(st *models.State) models.CollectionSet {
	st.Notifications = nil
	return models.NewCollectionSet(models.CollNotifications)
}

type StoryInput struct {
	EventName   string `json:"event_name"`
	Venue       string `json:"venue"`
	BeforePhoto string `json:"before_photo"`
	AfterPhoto  string `json:"after_photo"`
	Caption     string `json:"caption"`
}

// AddStory posts a before/after story; missing fields fall back to defaults.
func (e *Engine) AddStory(st *models.State, in StoryInput) (models.Story, models.CollectionSet) {
	s := e.newStory(st, in)
	return s, models.NewCollectionSet(models.CollStories)
}

func (e *Engine) newStory(st *models.State, in StoryInput) models.Story {
	athlete, city := "Atleta FitHub", "Salvador"
	if st.User != nil {
		athlete = orDefault(st.User.Name, athlete)
		city = orDefault(st.User.City, city)
	}
	s := models.Story{
		ID:          uuid.NewString(),
		Athlete:     athlete,
		EventName:   orDefault(in.EventName, "Treino livre"),
		Venue:       orDefault(in.Venue, city),
		BeforePhoto: orDefault(in.BeforePhoto, defaultBeforePhoto),
		AfterPhoto:  orDefault(in.AfterPhoto, defaultAfterPhoto),
		Caption:     orDefault(in.Caption, "Check-in registrado com foto antes/depois."),
		CreatedAt:   e.Now(),
	}
	st.Stories = capFront(st.Stories, s, e.Policy.StoryCap)
	return s
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

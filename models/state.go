package models

import (
	"maps"
	"slices"
)

// Collection names one independently persisted slice of the session state.
type Collection string

const (
	CollUser          Collection = "user"
	CollEvents        Collection = "events"
	CollEnrollments   Collection = "enrollments"
	CollFund          Collection = "fund"
	CollRanking       Collection = "ranking"
	CollPerformance   Collection = "performance"
	CollHistory       Collection = "history"
	CollVenues        Collection = "venues"
	CollTeams         Collection = "teams"
	CollFriends       Collection = "friends"
	CollChat          Collection = "chat"
	CollNotifications Collection = "notifications"
	CollStories       Collection = "stories"
	CollChampionships Collection = "championships"
	CollKids          Collection = "kids"
	CollCancellations Collection = "cancellations"
	CollBilling       Collection = "billing"
	CollReminders     Collection = "reminders"
	CollDismissed     Collection = "dismissed"
)

// AllCollections lists every collection in load order.
var AllCollections = []Collection{
	CollUser, CollEvents, CollEnrollments, CollFund, CollRanking, CollPerformance,
	CollHistory, CollVenues, CollTeams, CollFriends, CollChat, CollNotifications,
	CollStories, CollChampionships, CollKids, CollCancellations, CollBilling,
	CollReminders, CollDismissed,
}

// CollectionSet marks the collections touched by a mutation.
type CollectionSet map[Collection]struct{}

func NewCollectionSet(cs ...Collection) CollectionSet {
	set := make(CollectionSet, len(cs))
	for _, c := range cs {
		set[c] = struct{}{}
	}
	return set
}

func (s CollectionSet) Add(cs ...Collection) {
	for _, c := range cs {
		s[c] = struct{}{}
	}
}

func (s CollectionSet) Has(c Collection) bool {
	_, ok := s[c]
	return ok
}

// Sorted returns the members in AllCollections order.
func (s CollectionSet) Sorted() []Collection {
	out := make([]Collection, 0, len(s))
	for _, c := range AllCollections {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// State is the whole session: every collection a view can read or a mutator can write.
type State struct {
	User          *User                 `json:"user"`
	Events        []Event               `json:"events"`
	Enrollments   map[string]Enrollment `json:"enrollments"`
	Fund          float64               `json:"fund"`
	Ranking       map[string]int        `json:"ranking"`
	Performance   Performance           `json:"performance"`
	History       []HistoryEntry        `json:"history"`
	Venues        []Venue               `json:"venues"`
	Teams         []Team                `json:"teams"`
	Friends       []Friend              `json:"friends"`
	Chat          []ChatMessage         `json:"chat"`
	Notifications []Notification        `json:"notifications"`
	Stories       []Story               `json:"stories"`
	Championships []Championship        `json:"championships"`
	Kids          []Kid                 `json:"kids"`
	Cancellations CancellationCounter   `json:"cancellations"`
	Billing       BillingPeriod         `json:"billing"`
	Reminders     []Reminder            `json:"reminders"`
	Dismissed     []string              `json:"dismissed"`
}

// NewState returns an empty state with every map allocated.
func NewState() *State {
	return &State{
		Enrollments: make(map[string]Enrollment),
		Ranking:     make(map[string]int),
	}
}

// Authenticated reports whether a session user is present.
func (s *State) Authenticated() bool {
	return s.User != nil && s.User.ID != ""
}

// Event looks up an event by id.
func (s *State) Event(id string) (Event, bool) {
	i := s.eventIndex(id)
	if i < 0 {
		return Event{}, false
	}
	return s.Events[i], true
}

func (s *State) eventIndex(id string) int {
	return slices.IndexFunc(s.Events, func(e Event) bool { return e.ID == id })
}

// UpdateEvent applies fn to the stored event; it reports false for unknown ids.
func (s *State) UpdateEvent(id string, fn func(*Event)) bool {
	i := s.eventIndex(id)
	if i < 0 {
		return false
	}
	fn(&s.Events[i])
	return true
}

// RemoveEvent drops an event from the list, reporting whether it was present.
func (s *State) RemoveEvent(id string) bool {
	i := s.eventIndex(id)
	if i < 0 {
		return false
	}
	s.Events = slices.Delete(s.Events, i, i+1)
	return true
}

func (s *State) Venue(id string) (Venue, bool) {
	i := slices.IndexFunc(s.Venues, func(v Venue) bool { return v.ID == id })
	if i < 0 {
		return Venue{}, false
	}
	return s.Venues[i], true
}

func (s *State) TeamIndex(id string) int {
	return slices.IndexFunc(s.Teams, func(t Team) bool { return t.ID == id })
}

func (s *State) Team(id string) (Team, bool) {
	i := s.TeamIndex(id)
	if i < 0 {
		return Team{}, false
	}
	return s.Teams[i], true
}

func (s *State) ChampionshipIndex(id string) int {
	return slices.IndexFunc(s.Championships, func(c Championship) bool { return c.ID == id })
}

// IsDismissed reports whether the event was removed from this session's feed.
func (s *State) IsDismissed(id string) bool {
	return slices.Contains(s.Dismissed, id)
}

// Clone returns a deep copy so mutators can work on a private draft.
func (s *State) Clone() *State {
	c := &State{
		Events:        make([]Event, len(s.Events)),
		Enrollments:   maps.Clone(s.Enrollments),
		Fund:          s.Fund,
		Ranking:       maps.Clone(s.Ranking),
		History:       slices.Clone(s.History),
		Venues:        make([]Venue, len(s.Venues)),
		Teams:         make([]Team, len(s.Teams)),
		Friends:       slices.Clone(s.Friends),
		Chat:          slices.Clone(s.Chat),
		Notifications: slices.Clone(s.Notifications),
		Stories:       slices.Clone(s.Stories),
		Championships: make([]Championship, len(s.Championships)),
		Kids:          slices.Clone(s.Kids),
		Cancellations: s.Cancellations,
		Billing:       s.Billing,
		Reminders:     slices.Clone(s.Reminders),
		Dismissed:     slices.Clone(s.Dismissed),
	}
	if s.User != nil {
		u := *s.User
		c.User = &u
	}
	if c.Enrollments == nil {
		c.Enrollments = make(map[string]Enrollment)
	}
	if c.Ranking == nil {
		c.Ranking = make(map[string]int)
	}
	c.Performance = Performance{
		Totals: s.Performance.Totals,
		Videos: slices.Clone(s.Performance.Videos),
	}
	for i, e := range s.Events {
		e.Stats = slices.Clone(e.Stats)
		c.Events[i] = e
	}
	for i, v := range s.Venues {
		v.Lat = clonePtr(v.Lat)
		v.Lng = clonePtr(v.Lng)
		c.Venues[i] = v
	}
	for i, t := range s.Teams {
		t.Members = slices.Clone(t.Members)
		if t.Ping != nil {
			p := *t.Ping
			p.Responses = maps.Clone(p.Responses)
			t.Ping = &p
		}
		c.Teams[i] = t
	}
	for i, ch := range s.Championships {
		ch.Queue = slices.Clone(ch.Queue)
		ch.Registrations = slices.Clone(ch.Registrations)
		teams := make([]ChampionshipTeam, len(ch.Teams))
		for j, t := range ch.Teams {
			t.Members = slices.Clone(t.Members)
			teams[j] = t
		}
		ch.Teams = teams
		c.Championships[i] = ch
	}
	if s.Cancellations.SuspendedUntil != nil {
		c.Cancellations.SuspendedUntil = clonePtr(s.Cancellations.SuspendedUntil)
	}
	if s.Billing.PaidAt != nil {
		c.Billing.PaidAt = clonePtr(s.Billing.PaidAt)
	}
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"

	"fithub/models"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ChangeChannel is the LISTEN/NOTIFY channel fed by the table triggers.
const ChangeChannel = "fithub_changes"

const historyLimit = 30

// Remote keeps the shared collections in a relational database.
type Remote struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Remote {
	return &Remote{db: db}
}

// OpenPostgres connects to Postgres with GORM.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

func (r *Remote) DB() *gorm.DB { return r.db }

// Migrate creates the tables and, on Postgres, the change notification triggers.
func (r *Remote) Migrate(ctx context.Context) error {
	db := r.db.WithContext(ctx)
	if err := db.AutoMigrate(AllRows()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	fn := fmt.Sprintf(`
CREATE OR REPLACE FUNCTION fithub_notify_change() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('%s', TG_TABLE_NAME);
	RETURN NULL;
END;
$$ LANGUAGE plpgsql`, ChangeChannel)
	if err := db.Exec(fn).Error; err != nil {
		return fmt.Errorf("create notify function: %w", err)
	}
	for _, table := range WatchedTables {
		stmts := []string{
			fmt.Sprintf(`DROP TRIGGER IF EXISTS fithub_notify ON %s`, table),
			fmt.Sprintf(`CREATE TRIGGER fithub_notify AFTER INSERT OR UPDATE OR DELETE ON %s FOR EACH STATEMENT EXECUTE FUNCTION fithub_notify_change()`, table),
		}
		for _, stmt := range stmts {
			if err := db.Exec(stmt).Error; err != nil {
				return fmt.Errorf("trigger on %s: %w", table, err)
			}
		}
	}
	return nil
}

func sessionUserID(st *models.State) string {
	if st.User == nil {
		return ""
	}
	return st.User.ID
}

func (r *Remote) Load(ctx context.Context, st *models.State) error {
	return r.fetch(ctx, st)
}

func (r *Remote) Refresh(ctx context.Context, st *models.State) error {
	return r.fetch(ctx, st)
}

// fetch replaces the shared collections with what the database holds.
// Empty tables leave the defaults in place.
func (r *Remote) fetch(ctx context.Context, st *models.State) error {
	db := r.db.WithContext(ctx)
	uid := sessionUserID(st)

	var venues []Venue
	if err := db.Order("position, id").Find(&venues).Error; err != nil {
		return fmt.Errorf("load venues: %w", err)
	}
	if len(venues) > 0 {
		st.Venues = flattenVenues(venues)
	}

	var events []Event
	err := db.
		Preload("Stats", func(tx *gorm.DB) *gorm.DB { return tx.Order("position") }).
		Preload("Players", "user_id = ?", uid).
		Order("datetime, id").
		Find(&events).Error
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	if len(events) > 0 {
		st.Events, st.Enrollments = flattenEvents(events, st.Dismissed)
	}

	var teams []Team
	err = db.
		Preload("Members", func(tx *gorm.DB) *gorm.DB { return tx.Order("position") }).
		Order("position, id").
		Find(&teams).Error
	if err != nil {
		return fmt.Errorf("load teams: %w", err)
	}
	if len(teams) > 0 {
		st.Teams = flattenTeams(teams)
	}

	var champs []Championship
	err = db.
		Preload("Teams", func(tx *gorm.DB) *gorm.DB { return tx.Order("position") }).
		Order("position, id").
		Find(&champs).Error
	if err != nil {
		return fmt.Errorf("load championships: %w", err)
	}
	if len(champs) > 0 {
		st.Championships = flattenChampionships(champs)
	}

	if uid != "" {
		var perfs []Performance
		err = db.Where("user_id = ?", uid).
			Order("recorded_at DESC").
			Limit(historyLimit).
			Find(&perfs).Error
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		st.History = flattenHistory(perfs)
	}

	var profiles []Profile
	if err := db.Select("id", "points").Find(&profiles).Error; err != nil {
		return fmt.Errorf("load ranking: %w", err)
	}
	if len(profiles) > 0 {
		ranking := make(map[string]int, len(profiles))
		for _, p := range profiles {
			ranking[p.ID] = p.Points
		}
		st.Ranking = ranking
	}
	return nil
}

// Persist upserts the dirty shared collections in one transaction and then
// re-reads everything so st reflects the database.
func (r *Remote) Persist(ctx context.Context, st *models.State, dirty models.CollectionSet) error {
	if len(dirty) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range dirty.Sorted() {
			var err error
			switch c {
			case models.CollVenues:
				err = writeVenues(tx, st.Venues)
			case models.CollEvents:
				err = writeEvents(tx, st.Events)
			case models.CollEnrollments:
				err = writeEnrollments(tx, sessionUserID(st), st.Enrollments)
			case models.CollTeams:
				err = writeTeams(tx, st.Teams)
			case models.CollChampionships:
				err = writeChampionships(tx, st.Championships)
			case models.CollHistory:
				err = writeHistory(tx, sessionUserID(st), st.History)
			case models.CollRanking:
				err = writeRanking(tx, st.Ranking)
			}
			if err != nil {
				return fmt.Errorf("write %s: %w", c, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[Remote] transaction failed: %v", err)
		return err
	}
	return r.fetch(ctx, st)
}

func upsertAll(tx *gorm.DB, rows any) error {
	return tx.Omit(clause.Associations).Clauses(clause.OnConflict{UpdateAll: true}).Create(rows).Error
}

func writeVenues(tx *gorm.DB, venues []models.Venue) error {
	if len(venues) == 0 {
		return nil
	}
	rows := make([]Venue, len(venues))
	for i, v := range venues {
		rows[i] = Venue{
			ID: v.ID, Label: v.Label, Name: v.Name, Neighborhood: v.Neighborhood,
			Kind: v.Kind, Surface: v.Surface, PhotoURL: v.PhotoURL,
			Lat: v.Lat, Lng: v.Lng, Position: i,
		}
	}
	return upsertAll(tx, &rows)
}

func writeEvents(tx *gorm.DB, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]Event, len(events))
	ids := make([]string, len(events))
	var stats []EventStat
	for i, e := range events {
		ids[i] = e.ID
		rows[i] = Event{
			ID: e.ID, Sport: e.Sport, VenueID: e.VenueID, Venue: e.Venue,
			Datetime: e.Datetime, SlotsTotal: e.SlotsTotal, SlotsTaken: e.SlotsTaken,
			PricePerPlayer: e.PricePerPlayer, Creator: e.Creator, Level: e.Level, TeamID: e.TeamID,
		}
		for j, s := range e.Stats {
			stats = append(stats, EventStat{EventID: e.ID, Position: j, Name: s})
		}
	}
	if err := upsertAll(tx, &rows); err != nil {
		return err
	}
	if err := tx.Where("event_id IN ?", ids).Delete(&EventStat{}).Error; err != nil {
		return err
	}
	if len(stats) == 0 {
		return nil
	}
	return tx.Create(&stats).Error
}

func writeEnrollments(tx *gorm.DB, uid string, enrollments map[string]models.Enrollment) error {
	if uid == "" {
		return nil
	}
	ids := make([]string, 0, len(enrollments))
	rows := make([]EventPlayer, 0, len(enrollments))
	for id, en := range enrollments {
		ids = append(ids, id)
		rows = append(rows, EventPlayer{
			EventID: id, UserID: uid, CheckedIn: en.CheckedIn, Method: string(en.Method),
			Proof: en.Proof, Paid: en.Paid, JoinedAt: en.JoinedAt,
		})
	}
	del := tx.Where("user_id = ?", uid)
	if len(ids) > 0 {
		del = del.Where("event_id NOT IN ?", ids)
	}
	if err := del.Delete(&EventPlayer{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return upsertAll(tx, &rows)
}

func writeTeams(tx *gorm.DB, teams []models.Team) error {
	if len(teams) == 0 {
		return nil
	}
	rows := make([]Team, len(teams))
	ids := make([]string, len(teams))
	var members []TeamMember
	for i, t := range teams {
		ids[i] = t.ID
		ping, err := marshalJSON(t.Ping)
		if err != nil {
			return err
		}
		rows[i] = Team{ID: t.ID, Name: t.Name, Sport: t.Sport, Captain: t.Captain, Ping: ping, Position: i}
		for j, m := range t.Members {
			members = append(members, TeamMember{TeamID: t.ID, Position: j, Name: m})
		}
	}
	if err := upsertAll(tx, &rows); err != nil {
		return err
	}
	if err := tx.Where("team_id IN ?", ids).Delete(&TeamMember{}).Error; err != nil {
		return err
	}
	if len(members) == 0 {
		return nil
	}
	return tx.Create(&members).Error
}

func writeChampionships(tx *gorm.DB, champs []models.Championship) error {
	if len(champs) == 0 {
		return nil
	}
	rows := make([]Championship, len(champs))
	ids := make([]string, len(champs))
	var teams []ChampionshipTeam
	for i, c := range champs {
		ids[i] = c.ID
		queue, err := marshalJSON(orEmpty(c.Queue))
		if err != nil {
			return err
		}
		regs, err := marshalJSON(orEmpty(c.Registrations))
		if err != nil {
			return err
		}
		rows[i] = Championship{
			ID: c.ID, Name: c.Name, Sport: c.Sport, Category: c.Category, Fee: c.Fee,
			StartDate: c.StartDate, Description: c.Description, Prize: c.Prize, Rules: c.Rules,
			MaxTeams: c.MaxTeams, PlayersPerTeam: c.PlayersPerTeam,
			Queue: queue, Registrations: regs, Position: i,
		}
		for j, t := range c.Teams {
			members, err := marshalJSON(orEmpty(t.Members))
			if err != nil {
				return err
			}
			teams = append(teams, ChampionshipTeam{
				ID: t.ID, ChampionshipID: c.ID, Name: t.Name, Captain: t.Captain,
				Members: members, SourceTeamID: t.SourceTeamID, Position: j,
			})
		}
	}
	if err := upsertAll(tx, &rows); err != nil {
		return err
	}
	if err := tx.Where("championship_id IN ?", ids).Delete(&ChampionshipTeam{}).Error; err != nil {
		return err
	}
	if len(teams) == 0 {
		return nil
	}
	return tx.Create(&teams).Error
}

func writeHistory(tx *gorm.DB, uid string, history []models.HistoryEntry) error {
	if uid == "" || len(history) == 0 {
		return nil
	}
	rows := make([]Performance, len(history))
	for i, h := range history {
		rows[i] = Performance{
			ID: h.ID, UserID: uid, EventID: h.EventID, Sport: h.Sport, Venue: h.Venue,
			Datetime: h.Datetime, Method: string(h.Method), Proof: h.Proof,
			PhotoURL: h.PhotoURL, VideoURL: h.VideoURL, Goals: h.Goals, Passes: h.Passes,
			Distance: h.Distance, Minutes: h.Minutes, MVP: h.MVP, Points: h.Points,
			RecordedAt: h.RecordedAt,
		}
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// writeRanking stores points on profiles, creating placeholder rows for
// ranked players without an account.
func writeRanking(tx *gorm.DB, ranking map[string]int) error {
	if len(ranking) == 0 {
		return nil
	}
	rows := make([]Profile, 0, len(ranking))
	for id, pts := range ranking {
		rows = append(rows, Profile{ID: id, Name: id, Points: pts})
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"points", "updated_at"}),
	}).Create(&rows).Error
}

// FindAccount looks a profile up by email; nil means no such account.
func (r *Remote) FindAccount(ctx context.Context, email string) (*models.Account, error) {
	var p Profile
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	acc := models.Account{
		ID:           p.ID,
		Name:         p.Name,
		Email:        email,
		City:         p.City,
		PasswordHash: p.PasswordHash,
		CreatedAt:    p.CreatedAt,
	}
	return &acc, nil
}

// SaveAccount creates a profile row for a new account.
func (r *Remote) SaveAccount(ctx context.Context, acc models.Account) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Profile{}).Where("email = ?", acc.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return models.ErrEmailTaken
		}
		email := acc.Email
		return tx.Create(&Profile{
			ID:           acc.ID,
			Name:         acc.Name,
			Email:        &email,
			City:         acc.City,
			PasswordHash: acc.PasswordHash,
			CreatedAt:    acc.CreatedAt,
		}).Error
	})
}

func marshalJSON(v any) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func unmarshalStrings(raw datatypes.JSON) []string {
	var out []string
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Printf("[Remote] unreadable string list: %v", err)
	}
	return out
}

func flattenVenues(rows []Venue) []models.Venue {
	out := make([]models.Venue, len(rows))
	for i, v := range rows {
		out[i] = models.Venue{
			ID: v.ID, Label: v.Label, Name: v.Name, Neighborhood: v.Neighborhood,
			Kind: v.Kind, Surface: v.Surface, PhotoURL: v.PhotoURL, Lat: v.Lat, Lng: v.Lng,
		}
	}
	return out
}

// flattenEvents turns event rows into the feed list plus the session user's
// enrollments. Dismissed events stay hidden; their enrollments do not.
func flattenEvents(rows []Event, dismissed []string) ([]models.Event, map[string]models.Enrollment) {
	events := make([]models.Event, 0, len(rows))
	enrollments := make(map[string]models.Enrollment)
	for _, e := range rows {
		for _, p := range e.Players {
			enrollments[e.ID] = models.Enrollment{
				EventID: e.ID, UserID: p.UserID, CheckedIn: p.CheckedIn,
				Method: models.CheckInMethod(p.Method), Proof: p.Proof,
				Paid: p.Paid, JoinedAt: p.JoinedAt,
			}
		}
		if slices.Contains(dismissed, e.ID) {
			continue
		}
		stats := make([]string, len(e.Stats))
		for i, s := range e.Stats {
			stats[i] = s.Name
		}
		events = append(events, models.Event{
			ID: e.ID, Sport: e.Sport, VenueID: e.VenueID, Venue: e.Venue,
			Datetime: e.Datetime, SlotsTotal: e.SlotsTotal, SlotsTaken: e.SlotsTaken,
			PricePerPlayer: e.PricePerPlayer, Creator: e.Creator, Level: e.Level,
			Stats: stats, TeamID: e.TeamID,
		})
	}
	return events, enrollments
}

func flattenTeams(rows []Team) []models.Team {
	out := make([]models.Team, len(rows))
	for i, t := range rows {
		members := make([]string, len(t.Members))
		for j, m := range t.Members {
			members[j] = m.Name
		}
		team := models.Team{ID: t.ID, Name: t.Name, Sport: t.Sport, Captain: t.Captain, Members: members}
		if len(t.Ping) > 0 && string(t.Ping) != "null" {
			var ping models.TeamPing
			if err := json.Unmarshal(t.Ping, &ping); err != nil {
				log.Printf("[Remote] team %s has unreadable ping: %v", t.ID, err)
			} else {
				team.Ping = &ping
			}
		}
		out[i] = team
	}
	return out
}

func flattenChampionships(rows []Championship) []models.Championship {
	out := make([]models.Championship, len(rows))
	for i, c := range rows {
		teams := make([]models.ChampionshipTeam, len(c.Teams))
		for j, t := range c.Teams {
			teams[j] = models.ChampionshipTeam{
				ID: t.ID, Name: t.Name, Captain: t.Captain,
				Members: unmarshalStrings(t.Members), SourceTeamID: t.SourceTeamID,
			}
		}
		out[i] = models.Championship{
			ID: c.ID, Name: c.Name, Sport: c.Sport, Category: c.Category, Fee: c.Fee,
			StartDate: c.StartDate, Description: c.Description, Prize: c.Prize, Rules: c.Rules,
			MaxTeams: c.MaxTeams, PlayersPerTeam: c.PlayersPerTeam, Teams: teams,
			Queue: unmarshalStrings(c.Queue), Registrations: unmarshalStrings(c.Registrations),
		}
	}
	return out
}

func flattenHistory(rows []Performance) []models.HistoryEntry {
	out := make([]models.HistoryEntry, len(rows))
	for i, p := range rows {
		out[i] = models.HistoryEntry{
			ID: p.ID, EventID: p.EventID, Sport: p.Sport, Venue: p.Venue, Datetime: p.Datetime,
			Method: models.CheckInMethod(p.Method), Proof: p.Proof, PhotoURL: p.PhotoURL,
			VideoURL: p.VideoURL, Goals: p.Goals, Passes: p.Passes, Distance: p.Distance,
			Minutes: p.Minutes, MVP: p.MVP, Points: p.Points, RecordedAt: p.RecordedAt,
		}
	}
	return out
}

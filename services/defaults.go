package services

import (
	"time"

	"fithub/models"
)

func coord(v float64) *float64 { return &v }

// DefaultVenues are the Salvador courts every fresh session starts with.
func DefaultVenues() []models.Venue {
	return []models.Venue{
		{ID: "arena_x", Label: "Quadra Arena X · Pituba", Name: "Quadra Arena X", Neighborhood: "Pituba", Kind: "Sintética", Surface: "grama sintética", Lat: coord(-13.0012), Lng: coord(-38.4578)},
		{ID: "poliesportivo_y", Label: "Poliesportivo Y · Barris", Name: "Poliesportivo Y", Neighborhood: "Barris", Kind: "Ginásio coberto", Surface: "madeira", Lat: coord(-12.9873), Lng: coord(-38.5204)},
		{ID: "quadra_3", Label: "Quadra 3 · Stiep", Name: "Quadra 3", Neighborhood: "Stiep", Kind: "Areia", Surface: "areia", Lat: coord(-12.9935), Lng: coord(-38.4501)},
		{ID: "areia_ribeira", Label: "Arena de Areia Ribeira", Name: "Arena de Areia Ribeira", Neighborhood: "Ribeira", Kind: "Areia", Surface: "areia", Lat: coord(-12.9153), Lng: coord(-38.4965)},
		{ID: "condominio_lagos", Label: "Condomínio Lagos · Paralela", Name: "Condomínio Lagos", Neighborhood: "Paralela", Kind: "Quadra de condomínio", Surface: "piso flexível"},
		{ID: "orla_barra", Label: "Orla da Barra · Pista 5 km", Name: "Orla da Barra", Neighborhood: "Barra", Kind: "Corrida", Surface: "asfalto", Lat: coord(-13.0104), Lng: coord(-38.5325)},
		{ID: "condominio_mar_azul", Label: "Condomínio Mar Azul · Jaguaribe", Name: "Condomínio Mar Azul", Neighborhood: "Jaguaribe", Kind: "Quadra de areia", Surface: "areia"},
	}
}

// DefaultEvents schedules the demo matches relative to now.
func DefaultEvents(now time.Time) []models.Event {
	mk := func(id, sport, venueID, venue string, in time.Duration, total, taken int, creator, level string) models.Event {
		return models.Event{
			ID:             id,
			Sport:          sport,
			VenueID:        venueID,
			Venue:          venue,
			Datetime:       now.Add(in),
			SlotsTotal:     total,
			SlotsTaken:     taken,
			PricePerPlayer: DefaultPolicy.MonthlyFee,
			Creator:        creator,
			Level:          level,
			Stats:          StatsPresetFor(sport),
		}
	}
	return []models.Event{
		mk("e1", "Futebol 5x5", "arena_x", "Quadra Arena X — Salvador", time.Hour, 10, 6, "Lucas", "Intermediário"),
		mk("e2", "Basquete 3x3", "poliesportivo_y", "Poliesportivo Y — Salvador", 2*time.Hour, 6, 2, "Mariana", "Iniciante"),
		mk("e3", "Vôlei 6x6", "quadra_3", "Quadra 3 — Salvador", 30*time.Minute, 12, 9, "Pedro", "Avançado"),
		mk("e4", "Corrida em grupo · 5 km", "orla_barra", "Orla da Barra — Salvador", 90*time.Minute, 25, 12, "Ana Runner", "Todos os ritmos"),
	}
}

// PlayerDirectory backs the ranking filters.
var PlayerDirectory = map[string]models.PlayerMeta{
	"lucas":      {Name: "Lucas Santiago", Venue: "Arena X", City: "Salvador", State: "BA", Age: 29},
	"mariana":    {Name: "Mariana Lopes", Venue: "Poliesportivo Y", City: "Salvador", State: "BA", Age: 24},
	"pedro":      {Name: "Pedro Souza", Venue: "Quadra 3", City: "Lauro de Freitas", State: "BA", Age: 31},
	"ana_runner": {Name: "Ana Runner", Venue: "Orla Barra", City: "Salvador", State: "BA", Age: 34},
}

// DefaultRanking is the fallback ranking for a new or corrupted session.
func DefaultRanking() map[string]int {
	return map[string]int{"lucas": 42, "mariana": 36, "pedro": 28, "ana_runner": 31}
}

// DefaultState builds the complete fallback state used before anything is loaded.
func DefaultState(now time.Time) *models.State {
	st := models.NewState()
	st.Events = DefaultEvents(now)
	st.Ranking = DefaultRanking()
	st.Venues = DefaultVenues()
	st.Teams = []models.Team{{
		ID:      "tigers",
		Name:    "Salvador Tigers",
		Sport:   "Futebol 5x5",
		Captain: "Lucas Santiago",
		Members: []string{"Lucas Santiago", "João Vilar", "Caio Silva", "Igor Passos"},
	}}
	st.Friends = []models.Friend{
		{ID: "ana", Name: "Ana Runner", Status: "Correndo na orla"},
		{ID: "mariana", Name: "Mariana Lopes", Status: "Livre pra basquete"},
	}
	st.Chat = []models.ChatMessage{
		{ID: "msg1", From: "Ana Runner", Text: "Bora 5 km amanhã 6h?", Timestamp: now.Add(-30 * time.Minute)},
		{ID: "msg2", From: "Você", Text: "Confirmado! Levo o time.", Timestamp: now.Add(-15 * time.Minute)},
	}
	st.Stories = []models.Story{
		{
			ID:          "story1",
			Athlete:     "Lucas Santiago",
			EventName:   "Pelada 5x5 · Pituba",
			Venue:       "Quadra Arena X",
			BeforePhoto: "https://images.unsplash.com/photo-1509021436665-8f07dbf5bf1d?auto=format&fit=crop&w=500&q=80",
			AfterPhoto:  "https://images.unsplash.com/photo-1502810190503-830027aa7e2e?auto=format&fit=crop&w=500&q=80",
			Caption:     "Antes e depois do treino — check-in feito com o squad inteiro.",
			CreatedAt:   now.Add(-45 * time.Minute),
		},
	}
	st.Kids = []models.Kid{{ID: "kid1", Name: "Theo Santiago", Age: 10, Sport: "Futebol Society", Guardian: "Lucas Santiago"}}
	st.Championships = []models.Championship{{
		ID:             "champ1",
		Name:           "Copa FitHub Sub-11",
		Sport:          "Futebol Society",
		Category:       "Sub-11",
		Fee:            25,
		StartDate:      now.AddDate(0, 0, 7).Format(dateLayout),
		Description:    "Rodadas rápidas aos sábados · Pais confirmam via app.",
		MaxTeams:       8,
		PlayersPerTeam: 5,
		Registrations:  []string{"kid1"},
		Queue:          []string{"Theo Santiago"},
	}}
	st.Billing = models.BillingPeriod{Month: monthKey(now)}
	return st
}

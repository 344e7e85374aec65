package services

import (
	"testing"
	"time"

	"fithub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func champState(queue []string, players, maxTeams int) *models.State {
	st := signedInState(futureEvent("e1", time.Hour, 10, 0))
	st.Championships = []models.Championship{{
		ID:             "c1",
		Name:           "Copa",
		MaxTeams:       maxTeams,
		PlayersPerTeam: players,
		Queue:          queue,
	}}
	st.Teams = []models.Team{{ID: "tigers", Name: "Tigers", Captain: "Lucas", Members: []string{"Lucas", "João", "Caio"}}}
	return st
}

func TestCreateTeamFillsFromQueue(t *testing.T) {
	tests := []struct {
		name       string
		queued     int
		players    int
		wantFilled int
	}{
		{"short queue", 2, 5, 2},
		{"exact", 4, 5, 4},
		{"long queue", 9, 5, 4},
		{"empty queue", 0, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := make([]string, tt.queued)
			for i := range queue {
				queue[i] = string(rune('A' + i))
			}
			eng := newTestEngine(newTestClock())
			st := champState(queue, tt.players, 8)

			c, _, err := eng.EnrollInChampionship(st, "c1", EnrollInput{Mode: models.ModeCreateTeam, Registrant: "Captain"})
			require.NoError(t, err)
			require.Len(t, c.Teams, 1)
			assert.Equal(t, "Captain", c.Teams[0].Captain)
			assert.Len(t, c.Teams[0].Members, 1+tt.wantFilled)
			assert.Len(t, c.Queue, tt.queued-tt.wantFilled)
			if tt.wantFilled > 0 {
				assert.Equal(t, queue[0], c.Teams[0].Members[1])
			}
			assert.Equal(t, []string{"u1"}, c.Registrations)
		})
	}
}

func TestSoloEnrollment(t *testing.T) {
	eng := newTestEngine(newTestClock())
	st := champState(nil, 2, 8)

	c, _, err := eng.EnrollInChampionship(st, "c1", EnrollInput{Mode: models.ModeSolo, Registrant: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana"}, c.Queue)

	c, _, err = eng.EnrollInChampionship(st, "c1", EnrollInput{Mode: models.ModeCreateTeam, Registrant: "Pedro"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Pedro", "Ana"}, c.Teams[0].Members)
	assert.Empty(t, c.Queue)

	// team of two is full, next solo goes to the queue
	c, _, err = eng.EnrollInChampionship(st, "c1", EnrollInput{Mode: models.ModeSolo, Registrant: "Bia"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bia"}, c.Queue)

	_, _, err = eng.EnrollInChampionship(st, "c1", EnrollInput{Mode: models.ModeSolo, Registrant: "Bia"})
	assert.ErrorIs(t, err, models.ErrAlreadyRegistered)
}

func TestSoloJoinsOpenTeam(t *testing.T) {
	eng := newTestEngine(newTestClock())
	st := champState(nil, 3, 8)
	_, _, err := eng.EnrollInChampionship(st, "c1", EnrollInput{Mode: models.ModeCreateTeam, Registrant: "Pedro"})
	require.NoError(t, err)

	c, _, err := eng.EnrollInChampionship(st, "c1", EnrollInput{Mode: models.ModeSolo, Registrant: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Pedro", "Ana"}, c.Teams[0].Members)
	assert.Empty(t, c.Queue)
}

func TestTeamEnrollment(t *testing.T) {
	eng := newTestEngine(newTestClock())
	st := champState(nil, 5, 1)

	c, _, err := eng.EnrollInChampionship(st, "c1", EnrollInput{Mode: models.ModeTeam, TeamID: "tigers"})
	require.NoError(t, err)
	require.Len(t, c.Teams, 1)
	assert.Equal(t, []string{"Lucas", "João", "Caio"}, c.Teams[0].Members)
	assert.Equal(t, "tigers", c.Teams[0].SourceTeamID)

	_, _, err = eng.EnrollInChampionship(st, "c1", EnrollInput{Mode: models.ModeTeam, TeamID: "tigers"})
	assert.ErrorIs(t, err, models.ErrAlreadyRegistered)

	_, _, err = eng.EnrollInChampionship(st, "c1", EnrollInput{Mode: models.ModeCreateTeam, Registrant: "Zé"})
	assert.ErrorIs(t, err, models.ErrChampionshipFull)

	_, _, err = eng.EnrollInChampionship(st, "c1", EnrollInput{Mode: models.ModeTeam, TeamID: "ghost"})
	assert.ErrorIs(t, err, models.ErrTeamNotFound)
}

func TestEnrollmentErrors(t *testing.T) {
	eng := newTestEngine(newTestClock())
	st := champState(nil, 5, 8)

	_, _, err := eng.EnrollInChampionship(st, "c1", EnrollInput{Mode: "relay"})
	assert.ErrorIs(t, err, models.ErrInvalidEnrollmentMode)

	_, _, err = eng.EnrollInChampionship(st, "missing", EnrollInput{Mode: models.ModeSolo})
	assert.ErrorIs(t, err, models.ErrChampionshipNotFound)

	st.User = nil
	_, _, err = eng.EnrollInChampionship(st, "c1", EnrollInput{Mode: models.ModeSolo})
	assert.ErrorIs(t, err, models.ErrLoginRequired)
}

func TestKidEnrollmentRecordsKidID(t *testing.T) {
	eng := newTestEngine(newTestClock())
	st := champState(nil, 5, 8)
	kid, _, err := eng.AddKid(st, KidInput{Name: " Theo ", Age: 10})
	require.NoError(t, err)
	assert.Equal(t, "Theo", kid.Name)
	assert.Equal(t, "Multiesporte", kid.Sport)
	assert.Equal(t, "Lucas Santiago", kid.Guardian)

	c, _, err := eng.EnrollInChampionship(st, "c1", EnrollInput{Mode: models.ModeSolo, KidID: kid.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{kid.ID}, c.Registrations)
	assert.Equal(t, []string{"Theo"}, c.Queue)

	_, _, err = eng.AddKid(st, KidInput{Name: "  "})
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCreateChampionshipDefaults(t *testing.T) {
	eng := newTestEngine(newTestClock())
	st := champState(nil, 5, 8)

	c, _, err := eng.CreateChampionship(st, ChampionshipInput{Name: "Liga Verão"})
	require.NoError(t, err)
	assert.Equal(t, "Aberto", c.Category)
	assert.Equal(t, 20.0, c.Fee)
	assert.Equal(t, 8, c.MaxTeams)
	assert.Equal(t, 5, c.PlayersPerTeam)
	assert.Equal(t, "2025-03-14", c.StartDate)
	assert.Equal(t, c.ID, st.Championships[0].ID)
	assert.NotEmpty(t, c.ID)

	_, _, err = eng.CreateChampionship(st, ChampionshipInput{Name: ""})
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}

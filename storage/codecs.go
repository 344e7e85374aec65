package storage

import (
	"encoding/json"
	"errors"

	"fithub/models"
)

var errNullBlob = errors.New("blob is null")

// codec moves one collection between the state and its JSON blob.
type codec struct {
	encode func(st *models.State) any
	decode func(st *models.State, raw []byte) error
}

// into decodes into a fresh value and assigns it only when decoding succeeded,
// so a bad blob leaves the default in place.
func into[T any](assign func(st *models.State, v T)) func(*models.State, []byte) error {
	return func(st *models.State, raw []byte) error {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		assign(st, v)
		return nil
	}
}

// intoMap is into for map collections, which must never end up nil.
func intoMap[K comparable, V any](assign func(st *models.State, v map[K]V)) func(*models.State, []byte) error {
	return func(st *models.State, raw []byte) error {
		var v map[K]V
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		if v == nil {
			return errNullBlob
		}
		assign(st, v)
		return nil
	}
}

var codecs = map[models.Collection]codec{
	models.CollUser: {
		encode: func(st *models.State) any { return st.User },
		decode: into(func(st *models.State, v *models.User) { st.User = v }),
	},
	models.CollEvents: {
		encode: func(st *models.State) any { return st.Events },
		decode: into(func(st *models.State, v []models.Event) { st.Events = v }),
	},
	models.CollEnrollments: {
		encode: func(st *models.State) any { return st.Enrollments },
		decode: intoMap(func(st *models.State, v map[string]models.Enrollment) { st.Enrollments = v }),
	},
	models.CollFund: {
		encode: func(st *models.State) any { return st.Fund },
		decode: into(func(st *models.State, v float64) { st.Fund = v }),
	},
	models.CollRanking: {
		encode: func(st *models.State) any { return st.Ranking },
		decode: intoMap(func(st *models.State, v map[string]int) { st.Ranking = v }),
	},
	models.CollPerformance: {
		encode: func(st *models.State) any { return st.Performance },
		decode: into(func(st *models.State, v models.Performance) { st.Performance = v }),
	},
	models.CollHistory: {
		encode: func(st *models.State) any { return st.History },
		decode: into(func(st *models.State, v []models.HistoryEntry) { st.History = v }),
	},
	models.CollVenues: {
		encode: func(st *models.State) any { return st.Venues },
		decode: into(func(st *models.State, v []models.Venue) { st.Venues = v }),
	},
	models.CollTeams: {
		encode: func(st *models.State) any { return st.Teams },
		decode: into(func(st *models.State, v []models.Team) { st.Teams = v }),
	},
	models.CollFriends: {
		encode: func(st *models.State) any { return st.Friends },
		decode: into(func(st *models.State, v []models.Friend) { st.Friends = v }),
	},
	models.CollChat: {
		encode: func(st *models.State) any { return st.Chat },
		decode: into(func(st *models.State, v []models.ChatMessage) { st.Chat = v }),
	},
	models.CollNotifications: {
		encode: func(st *models.State) any { return st.Notifications },
		decode: into(func(st *models.State, v []models.Notification) { st.Notifications = v }),
	},
	models.CollStories: {
		encode: func(st *models.State) any { return st.Stories },
		decode: into(func(st *models.State, v []models.Story) { st.Stories = v }),
	},
	models.CollChampionships: {
		encode: func(st *models.State) any { return st.Championships },
		decode: into(func(st *models.State, v []models.Championship) { st.Championships = v }),
	},
	models.CollKids: {
		encode: func(st *models.State) any { return st.Kids },
		decode: into(func(st *models.State, v []models.Kid) { st.Kids = v }),
	},
	models.CollCancellations: {
		encode: func(st *models.State) any { return st.Cancellations },
		decode: into(func(st *models.State, v models.CancellationCounter) { st.Cancellations = v }),
	},
	models.CollBilling: {
		encode: func(st *models.State) any { return st.Billing },
		decode: into(func(st *models.State, v models.BillingPeriod) { st.Billing = v }),
	},
	models.CollReminders: {
		encode: func(st *models.State) any { return st.Reminders },
		decode: into(func(st *models.State, v []models.Reminder) { st.Reminders = v }),
	},
	models.CollDismissed: {
		encode: func(st *models.State) any { return st.Dismissed },
		decode: into(func(st *models.State, v []string) { st.Dismissed = v }),
	},
}

package services

import (
	"fmt"
	"slices"
	"time"

	"fithub/models"

	"github.com/google/uuid"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

func monthKey(t time.Time) string {
	return t.Format(monthLayout)
}

// Engine applies the event lifecycle rules to a state. It never persists
// anything: callers hand it a draft and decide whether to commit.
type Engine struct {
	Policy Policy
	Now    func() time.Time
}

func NewEngine(policy Policy, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{Policy: policy, Now: now}
}

// JoinResult describes a successful join. Reminder is nil when the event
// starts too soon for one.
type JoinResult struct {
	Event    models.Event     `json:"event"`
	Reminder *models.Reminder `json:"reminder,omitempty"`
}

// CheckInResult carries the recorded history row and the reminders that
// must be disarmed.
type CheckInResult struct {
	Entry    models.HistoryEntry `json:"entry"`
	Points   int                 `json:"points"`
	Disarmed []string            `json:"-"`
}

type CancelResult struct {
	Suspended      bool       `json:"suspended"`
	SuspendedUntil *time.Time `json:"suspended_until,omitempty"`
	Remaining      int        `json:"remaining"`
	Disarmed       []string   `json:"-"`
}

// FinishInput is the post-match report submitted by the player.
type FinishInput struct {
	Minutes     int     `json:"minutes"`
	MVP         bool    `json:"mvp"`
	Goals       int     `json:"goals"`
	Passes      int     `json:"passes"`
	Distance    float64 `json:"distance"`
	VideoURL    string  `json:"video_url"`
	BeforePhoto string  `json:"before_photo"`
	AfterPhoto  string  `json:"after_photo"`
	Caption     string  `json:"caption"`
}

type FinishResult struct {
	Entry    models.HistoryEntry `json:"entry"`
	Points   int                 `json:"points"`
	Story    *models.Story       `json:"story,omitempty"`
	Disarmed []string            `json:"-"`
}

// LiftExpiredSuspension clears a suspension whose end time has passed.
func (e *Engine) LiftExpiredSuspension(st *models.State) bool {
	until := st.Cancellations.SuspendedUntil
	if until == nil || e.Now().Before(*until) {
		return false
	}
	st.Cancellations.SuspendedUntil = nil
	return true
}

// ActiveSuspension returns the suspension end time when it is still in force.
func (e *Engine) ActiveSuspension(st *models.State) (time.Time, bool) {
	until := st.Cancellations.SuspendedUntil
	if until == nil || !e.Now().Before(*until) {
		return time.Time{}, false
	}
	return *until, true
}

// Join claims a slot for the session user. Preconditions are checked in a
// fixed order and nothing changes when one fails.
func (e *Engine) Join(st *models.State, eventID string) (JoinResult, models.CollectionSet, error) {
	dirty := models.NewCollectionSet()
	if !st.Authenticated() {
		return JoinResult{}, dirty, models.ErrLoginRequired
	}
	if e.LiftExpiredSuspension(st) {
		dirty.Add(models.CollCancellations)
	}
	if until, ok := e.ActiveSuspension(st); ok {
		return JoinResult{}, dirty, &models.SuspendedError{Until: until}
	}
	if _, ok := st.Enrollments[eventID]; ok {
		return JoinResult{}, dirty, models.ErrAlreadyEnrolled
	}

	now := e.Now()
	ev, found := st.Event(eventID)
	if found && ev.Datetime.Sub(now) <= e.Policy.EntryCutoff {
		return JoinResult{}, dirty, models.ErrEntryClosed
	}
	if !found {
		return JoinResult{}, dirty, models.ErrEventNotFound
	}
	if ev.SlotsTaken >= ev.SlotsTotal {
		return JoinResult{}, dirty, models.ErrEventFull
	}

	st.UpdateEvent(eventID, func(ev *models.Event) { ev.SlotsTaken++ })
	ev, _ = st.Event(eventID)
	st.Enrollments[eventID] = models.Enrollment{
		EventID:  eventID,
		UserID:   st.User.ID,
		JoinedAt: now,
	}
	st.Billing.Paid = false
	st.Billing.PaidAt = nil
	st.Billing.AmountPaid = 0
	e.addPoints(st, e.Policy.JoinPoints)
	dirty.Add(models.CollEvents, models.CollEnrollments, models.CollBilling, models.CollRanking)

	res := JoinResult{Event: ev}
	if fireAt := ev.Datetime.Add(-e.Policy.ReminderLead); fireAt.After(now) {
		r := models.Reminder{
			ID:      uuid.NewString(),
			EventID: eventID,
			FireAt:  fireAt,
			Message: fmt.Sprintf("Lembrete: sua partida de %s começa em %d minutos!", ev.Sport, int(e.Policy.ReminderLead.Minutes())),
		}
		st.Reminders = append(st.Reminders, r)
		res.Reminder = &r
		dirty.Add(models.CollReminders)
	}
	return res, dirty, nil
}

// Reject hides an event from this session's feed. Enrollments are left alone.
func (e *Engine) Reject(st *models.State, eventID string) models.CollectionSet {
	dirty := models.NewCollectionSet()
	if st.RemoveEvent(eventID) {
		dirty.Add(models.CollEvents)
	}
	if !st.IsDismissed(eventID) {
		st.Dismissed = append(st.Dismissed, eventID)
		dirty.Add(models.CollDismissed)
	}
	return dirty
}

// CheckIn confirms attendance with photo or video proof and moves the
// enrollment into history.
func (e *Engine) CheckIn(st *models.State, eventID string, method models.CheckInMethod, proof string) (CheckInResult, models.CollectionSet, error) {
	dirty := models.NewCollectionSet()
	if !st.Authenticated() {
		return CheckInResult{}, dirty, models.ErrLoginRequired
	}
	if _, ok := st.Enrollments[eventID]; !ok {
		return CheckInResult{}, dirty, models.ErrNotEnrolled
	}
	ev, ok := st.Event(eventID)
	if !ok {
		return CheckInResult{}, dirty, models.ErrEventNotFound
	}
	if !method.Valid() {
		return CheckInResult{}, dirty, models.ErrInvalidCheckInMethod
	}
	if proof == "" {
		return CheckInResult{}, dirty, models.ErrProofRequired
	}

	points := e.Policy.PhotoCheckInPoints
	entry := models.HistoryEntry{
		ID:         uuid.NewString(),
		EventID:    eventID,
		Sport:      ev.Sport,
		Venue:      ev.Venue,
		Datetime:   ev.Datetime,
		Method:     method,
		Proof:      proof,
		Points:     points,
		RecordedAt: e.Now(),
	}
	if method == models.CheckInVideo {
		points = e.Policy.VideoCheckInPoints
		entry.Points = points
		entry.VideoURL = proof
	} else {
		entry.PhotoURL = proof
	}

	delete(st.Enrollments, eventID)
	e.pushHistory(st, entry)
	e.addPoints(st, points)
	dirty.Add(models.CollEnrollments, models.CollHistory, models.CollRanking)

	disarmed := dropReminders(st, eventID)
	if len(disarmed) > 0 {
		dirty.Add(models.CollReminders)
	}
	return CheckInResult{Entry: entry, Points: points, Disarmed: disarmed}, dirty, nil
}

// Cancel gives up an enrollment. The slot is freed, a penalty is applied and
// the cancellation counter moves toward a suspension.
func (e *Engine) Cancel(st *models.State, eventID string) (CancelResult, models.CollectionSet, error) {
	dirty := models.NewCollectionSet()
	if !st.Authenticated() {
		return CancelResult{}, dirty, models.ErrLoginRequired
	}
	if _, ok := st.Enrollments[eventID]; !ok {
		return CancelResult{}, dirty, models.ErrNotEnrolled
	}

	delete(st.Enrollments, eventID)
	st.UpdateEvent(eventID, func(ev *models.Event) {
		if ev.SlotsTaken > 0 {
			ev.SlotsTaken--
		}
	})
	e.addPoints(st, -e.Policy.CancelPenalty)
	st.Cancellations.Count++
	dirty.Add(models.CollEnrollments, models.CollEvents, models.CollRanking, models.CollCancellations)

	var res CancelResult
	if st.Cancellations.Count >= e.Policy.CancelThreshold {
		until := e.Now().Add(e.Policy.SuspensionLength)
		st.Cancellations.Count = 0
		st.Cancellations.SuspendedUntil = &until
		res.Suspended = true
		res.SuspendedUntil = &until
	} else {
		res.Remaining = e.Policy.CancelThreshold - st.Cancellations.Count
	}

	res.Disarmed = dropReminders(st, eventID)
	if len(res.Disarmed) > 0 {
		dirty.Add(models.CollReminders)
	}
	return res, dirty, nil
}

// FinishEvent records a played match with its stats and releases the enrollment.
func (e *Engine) FinishEvent(st *models.State, eventID string, in FinishInput) (FinishResult, models.CollectionSet, error) {
	dirty := models.NewCollectionSet()
	if !st.Authenticated() {
		return FinishResult{}, dirty, models.ErrLoginRequired
	}
	if _, ok := st.Enrollments[eventID]; !ok {
		return FinishResult{}, dirty, models.ErrNotEnrolled
	}
	ev, ok := st.Event(eventID)
	if !ok {
		return FinishResult{}, dirty, models.ErrEventNotFound
	}
	if in.Minutes < 0 {
		return FinishResult{}, dirty, models.NewValidationError("minutes", "must not be negative")
	}
	if in.Goals < 0 || in.Passes < 0 || in.Distance < 0 {
		return FinishResult{}, dirty, models.NewValidationError("stats", "must not be negative")
	}

	per := e.Policy.MinutesPerPoint
	if per <= 0 {
		per = DefaultPolicy.MinutesPerPoint
	}
	points := max(1, in.Minutes/per)
	if in.MVP {
		points += e.Policy.MVPBonus
	}
	now := e.Now()
	entry := models.HistoryEntry{
		ID:         uuid.NewString(),
		EventID:    eventID,
		Sport:      ev.Sport,
		Venue:      ev.Venue,
		Datetime:   ev.Datetime,
		VideoURL:   in.VideoURL,
		Goals:      in.Goals,
		Passes:     in.Passes,
		Distance:   in.Distance,
		Minutes:    in.Minutes,
		MVP:        in.MVP,
		Points:     points,
		RecordedAt: now,
	}

	delete(st.Enrollments, eventID)
	e.pushHistory(st, entry)
	e.addPoints(st, points)
	st.Performance.Totals.Goals += in.Goals
	st.Performance.Totals.Passes += in.Passes
	st.Performance.Totals.Distance += in.Distance
	if in.VideoURL != "" {
		link := models.VideoLink{EventID: eventID, URL: in.VideoURL, Sport: ev.Sport, Datetime: ev.Datetime}
		st.Performance.Videos = capFront(st.Performance.Videos, link, e.Policy.VideoCap)
	}
	dirty.Add(models.CollEnrollments, models.CollHistory, models.CollRanking, models.CollPerformance)

	res := FinishResult{Entry: entry, Points: points}
	if in.BeforePhoto != "" || in.AfterPhoto != "" || in.Caption != "" {
		story := e.newStory(st, StoryInput{
			EventName:   ev.Sport,
			Venue:       ev.Venue,
			BeforePhoto: in.BeforePhoto,
			AfterPhoto:  in.AfterPhoto,
			Caption:     in.Caption,
		})
		res.Story = &story
		dirty.Add(models.CollStories)
	}

	res.Disarmed = dropReminders(st, eventID)
	if len(res.Disarmed) > 0 {
		dirty.Add(models.CollReminders)
	}
	return res, dirty, nil
}

// TogglePaid flips the per-event payment marker.
func (e *Engine) TogglePaid(st *models.State, eventID string) (models.Enrollment, models.CollectionSet, error) {
	dirty := models.NewCollectionSet()
	if !st.Authenticated() {
		return models.Enrollment{}, dirty, models.ErrLoginRequired
	}
	en, ok := st.Enrollments[eventID]
	if !ok {
		return models.Enrollment{}, dirty, models.ErrNotEnrolled
	}
	en.Paid = !en.Paid
	st.Enrollments[eventID] = en
	dirty.Add(models.CollEnrollments)
	return en, dirty, nil
}

// RollBillingPeriod starts a fresh unpaid period when the calendar month changed.
func (e *Engine) RollBillingPeriod(st *models.State) bool {
	key := monthKey(e.Now())
	if st.Billing.Month == key {
		return false
	}
	st.Billing = models.BillingPeriod{Month: key}
	return true
}

// Due is the amount owed for the current month.
func (e *Engine) Due(st *models.State) float64 {
	if st.Billing.Paid && st.Billing.Month == monthKey(e.Now()) {
		return 0
	}
	return float64(len(st.Enrollments)) * e.Policy.MonthlyFee
}

// Pay settles the current month and credits the community fund with its share.
func (e *Engine) Pay(st *models.State) (float64, models.CollectionSet, error) {
	dirty := models.NewCollectionSet()
	if !st.Authenticated() {
		return 0, dirty, models.ErrLoginRequired
	}
	if e.RollBillingPeriod(st) {
		dirty.Add(models.CollBilling)
	}
	if st.Billing.Paid {
		return 0, dirty, models.ErrAlreadyPaid
	}
	amount := e.Due(st)
	if amount <= 0 {
		return 0, dirty, models.ErrNothingDue
	}
	now := e.Now()
	st.Billing.Paid = true
	st.Billing.PaidAt = &now
	st.Billing.AmountPaid = amount
	st.Fund += amount * e.Policy.FundShare
	dirty.Add(models.CollBilling, models.CollFund)
	return amount, dirty, nil
}

func (e *Engine) addPoints(st *models.State, delta int) {
	id := st.User.ID
	st.Ranking[id] = max(0, st.Ranking[id]+delta)
}

func (e *Engine) pushHistory(st *models.State, entry models.HistoryEntry) {
	st.History = capFront(st.History, entry, e.Policy.HistoryCap)
}

// dropReminders removes every reminder record for the event and returns their ids.
func dropReminders(st *models.State, eventID string) []string {
	var ids []string
	st.Reminders = slices.DeleteFunc(st.Reminders, func(r models.Reminder) bool {
		if r.EventID == eventID {
			ids = append(ids, r.ID)
			return true
		}
		return false
	})
	return ids
}

// capFront prepends v and trims the slice to limit entries.
func capFront[T any](list []T, v T, limit int) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, v)
	out = append(out, list...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

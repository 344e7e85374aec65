package services

import (
	"time"
)

// Policy holds every tunable point, fee and threshold used by the engine.
// Values changed between releases of the app, so none of them are contracts.
type Policy struct {
	JoinPoints         int
	PhotoCheckInPoints int
	VideoCheckInPoints int
	CancelPenalty      int
	CancelThreshold    int
	SuspensionLength   time.Duration
	EntryCutoff        time.Duration
	ReminderLead       time.Duration
	MonthlyFee         float64
	FundShare          float64
	MVPBonus           int
	MinutesPerPoint    int

	HistoryCap      int
	VideoCap        int
	NotificationCap int
	StoryCap        int
	ChatCap         int
}

var DefaultPolicy = Policy{
	JoinPoints:         1,
	PhotoCheckInPoints: 5,
	VideoCheckInPoints: 7,
	CancelPenalty:      2,
	CancelThreshold:    3,
	SuspensionLength:   7 * 24 * time.Hour,
	EntryCutoff:        10 * time.Minute,
	ReminderLead:       30 * time.Minute,
	MonthlyFee:         1,
	FundShare:          0.5,
	MVPBonus:           10,
	MinutesPerPoint:    10,

	HistoryCap:      30,
	VideoCap:        10,
	NotificationCap: 30,
	StoryCap:        50,
	ChatCap:         200,
}

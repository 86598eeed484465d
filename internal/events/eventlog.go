package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/aprendia/aprendia-lms/internal/assess"
	"github.com/aprendia/aprendia-lms/internal/grading"
)

const TypeAttemptSubmitted = "AttemptSubmitted"

type Event struct {
	Offset    int64  `json:"offset"`
	SiteID    string `json:"site_id"`
	Type      string `json:"type"`
	Key       string `json:"key"` // natural key: attempt id
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

// LogRepo appends attempt events to the event_log table for later
// reconciliation and analytics export.
type LogRepo struct {
	db     *sql.DB
	siteID string
}

func NewLogRepo(db *sql.DB, siteID string) *LogRepo {
	if siteID == "" {
		siteID = "local"
	}
	return &LogRepo{db: db, siteID: siteID}
}

func (r *LogRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		r.siteID, e.Type, e.Key, e.DataJSON, time.Now().Unix())
	return err
}

// attemptEvent is the serialized payload for AttemptSubmitted.
type attemptEvent struct {
	AttemptID     string  `json:"attempt_id"`
	TestID        string  `json:"test_id"`
	StudentID     string  `json:"student_id"`
	AttemptNumber int     `json:"attempt_number"`
	Status        string  `json:"status"`
	Cause         string  `json:"cause"`
	Score         float64 `json:"score"`
	MaxScore      float64 `json:"max_score"`
	Percentage    float64 `json:"percentage"`
	Passed        bool    `json:"passed"`
	TimeSpentSec  int64   `json:"time_spent_sec"`
}

func marshalAttempt(a assess.Attempt, sum grading.Summary) (string, error) {
	buf, err := json.Marshal(attemptEvent{
		AttemptID:     a.ID,
		TestID:        a.TestID,
		StudentID:     a.StudentID,
		AttemptNumber: a.AttemptNumber,
		Status:        a.Status,
		Cause:         a.Cause,
		Score:         sum.Score,
		MaxScore:      sum.MaxScore,
		Percentage:    sum.Percentage,
		Passed:        sum.Passed,
		TimeSpentSec:  sum.TimeSpentSec,
	})
	return string(buf), err
}

// AttemptSubmitted implements grading.EventSink against the SQL log.
func (r *LogRepo) AttemptSubmitted(ctx context.Context, a assess.Attempt, sum grading.Summary) error {
	data, err := marshalAttempt(a, sum)
	if err != nil {
		return err
	}
	return r.Append(ctx, Event{Type: TypeAttemptSubmitted, Key: a.ID, DataJSON: data})
}

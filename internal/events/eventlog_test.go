package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aprendia/aprendia-lms/internal/assess"
	"github.com/aprendia/aprendia-lms/internal/db"
	"github.com/aprendia/aprendia-lms/internal/grading"
)

func newLogDB(t *testing.T) *sql.DB {
	t.Helper()
	dbh, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	dbh.SetMaxOpenConns(1)
	t.Cleanup(func() { dbh.Close() })
	require.NoError(t, db.EnsureSchema(context.Background(), dbh, db.DriverSQLite))
	return dbh
}

func TestLogRepoAppendsAttemptSubmitted(t *testing.T) {
	dbh := newLogDB(t)
	repo := NewLogRepo(dbh, "campus-7")

	a := assess.Attempt{
		ID: "a1", TestID: "t1", StudentID: "alice", AttemptNumber: 2,
		Status: assess.StatusTimedOut, Cause: assess.CauseTimeout,
	}
	sum := grading.Summary{Score: 7, MaxScore: 10, Percentage: 70, Passed: true, TimeSpentSec: 541}
	require.NoError(t, repo.AttemptSubmitted(context.Background(), a, sum))

	var siteID, typ, key, data string
	row := dbh.QueryRow(`SELECT site_id, typ, key, data FROM event_log WHERE key='a1'`)
	require.NoError(t, row.Scan(&siteID, &typ, &key, &data))
	require.Equal(t, "campus-7", siteID)
	require.Equal(t, TypeAttemptSubmitted, typ)

	var payload attemptEvent
	require.NoError(t, json.Unmarshal([]byte(data), &payload))
	require.Equal(t, "t1", payload.TestID)
	require.Equal(t, 2, payload.AttemptNumber)
	require.Equal(t, assess.CauseTimeout, payload.Cause)
	require.Equal(t, 70.0, payload.Percentage)
	require.Equal(t, int64(541), payload.TimeSpentSec)
}

func TestLogRepoDefaultSite(t *testing.T) {
	dbh := newLogDB(t)
	repo := NewLogRepo(dbh, "")
	require.NoError(t, repo.Append(context.Background(), Event{Type: TypeAttemptSubmitted, Key: "k", DataJSON: "{}"}))

	var siteID string
	require.NoError(t, dbh.QueryRow(`SELECT site_id FROM event_log`).Scan(&siteID))
	require.Equal(t, "local", siteID)
}

// Fanout keeps delivering to later sinks after an earlier one fails and
// reports the first error.
func TestFanoutContinuesOnError(t *testing.T) {
	calls := 0
	ok := sinkFunc(func(context.Context, assess.Attempt, grading.Summary) error {
		calls++
		return nil
	})
	boom := sinkFunc(func(context.Context, assess.Attempt, grading.Summary) error {
		calls++
		return context.DeadlineExceeded
	})

	err := Fanout{boom, ok}.AttemptSubmitted(context.Background(), assess.Attempt{ID: "a1"}, grading.Summary{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 2, calls)
}

type sinkFunc func(context.Context, assess.Attempt, grading.Summary) error

func (f sinkFunc) AttemptSubmitted(ctx context.Context, a assess.Attempt, s grading.Summary) error {
	return f(ctx, a, s)
}

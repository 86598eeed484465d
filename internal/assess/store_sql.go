package assess

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
	now    func() time.Time
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver, now: time.Now}
}

func (s *SQLStore) PutTest(ctx context.Context, t Test) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	qj, err := json.Marshal(t.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO tests (id,title,time_mode,time_limit_min,passing_score,max_attempts,published,owner_id,questions_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, time_mode=EXCLUDED.time_mode,
			time_limit_min=EXCLUDED.time_limit_min, passing_score=EXCLUDED.passing_score,
			max_attempts=EXCLUDED.max_attempts, published=EXCLUDED.published, questions_json=EXCLUDED.questions_json`,
		t.ID, t.Title, t.TimeMode, t.TimeLimitMin, t.PassingScore, t.MaxAttempts, t.Published, t.OwnerID, string(qj), s.now().Unix())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

func (s *SQLStore) getTest(ctx context.Context, id string) (Test, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,time_mode,time_limit_min,passing_score,max_attempts,published,owner_id,questions_json,created_at FROM tests WHERE id=$1`, id)
	var t Test
	var qjson string
	if err := row.Scan(&t.ID, &t.Title, &t.TimeMode, &t.TimeLimitMin, &t.PassingScore, &t.MaxAttempts, &t.Published, &t.OwnerID, &qjson, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Test{}, ErrTestNotFound
		}
		return Test{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := json.Unmarshal([]byte(qjson), &t.Questions); err != nil {
		return Test{}, err
	}
	return t, nil
}

// GetTest serves learners: drafts are invisible and answer keys stripped.
func (s *SQLStore) GetTest(ctx context.Context, id string) (Test, error) {
	t, err := s.getTest(ctx, id)
	if err != nil {
		return Test{}, err
	}
	if !t.Published {
		return Test{}, ErrTestNotPublished
	}
	return t.StudentView(), nil
}

func (s *SQLStore) GetTestAdmin(ctx context.Context, id string) (Test, error) {
	return s.getTest(ctx, id)
}

func (s *SQLStore) ListTests(ctx context.Context, opts TestListOpts) ([]TestSummary, error) {
	if opts.Limit <= 0 || opts.Limit > 200 {
		opts.Limit = 50
	}
	where := []string{"1=1"}
	args := []any{}
	n := 0
	arg := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}
	if q := strings.TrimSpace(opts.Q); q != "" {
		where = append(where, "title LIKE "+arg("%"+q+"%"))
	}
	switch opts.ViewerRole {
	case "admin":
		// everything
	case "teacher":
		where = append(where, "(published OR owner_id="+arg(opts.ViewerID)+")")
	default:
		where = append(where, "published")
	}
	query := `SELECT id,title,time_mode,time_limit_min,passing_score,max_attempts,published,questions_json,created_at
		FROM tests WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC LIMIT ` + arg(opts.Limit) + ` OFFSET ` + arg(opts.Offset)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	defer rows.Close()
	out := []TestSummary{}
	for rows.Next() {
		var ts TestSummary
		var qjson string
		if err := rows.Scan(&ts.ID, &ts.Title, &ts.TimeMode, &ts.TimeLimitMin, &ts.PassingScore, &ts.MaxAttempts, &ts.Published, &qjson, &ts.CreatedAt); err != nil {
			return nil, err
		}
		var qs []Question
		if err := json.Unmarshal([]byte(qjson), &qs); err == nil {
			ts.Questions = len(qs)
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

func (s *SQLStore) StartAttempt(ctx context.Context, testID, studentID string) (StartResult, error) {
	t, err := s.getTest(ctx, testID)
	if err != nil {
		return StartResult{}, err
	}
	if !t.Published {
		return StartResult{}, ErrTestNotPublished
	}

	// Resume an existing in_progress attempt if the student holds one.
	row := s.db.QueryRowContext(ctx,
		`SELECT id FROM attempts WHERE test_id=$1 AND student_id=$2 AND status=$3`,
		testID, studentID, StatusInProgress)
	var existingID string
	switch err := row.Scan(&existingID); {
	case err == nil:
		a, err := s.GetAttempt(ctx, existingID)
		if err != nil {
			return StartResult{}, err
		}
		return s.startResult(t, a, true), nil
	case errors.Is(err, sql.ErrNoRows):
		// fall through to create
	default:
		return StartResult{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	taken, err := s.CountTaken(ctx, testID, studentID)
	if err != nil {
		return StartResult{}, err
	}
	if t.MaxAttempts > 0 && taken >= t.MaxAttempts {
		return StartResult{}, ErrAttemptsExhausted
	}

	a := Attempt{
		ID:            uuid.NewString(),
		TestID:        testID,
		StudentID:     studentID,
		AttemptNumber: taken + 1,
		Status:        StatusInProgress,
		MaxScore:      t.MaxScore(),
		Answers:       map[string]Answer{},
		StartedAt:     s.now().Unix(),
	}
	aj, _ := json.Marshal(a.Answers)
	_, err = s.db.ExecContext(ctx, `INSERT INTO attempts (id,test_id,student_id,attempt_number,status,score,max_score,percentage,passed,answers_json,started_at)
		VALUES ($1,$2,$3,$4,$5,0,$6,0,FALSE,$7,$8)`,
		a.ID, a.TestID, a.StudentID, a.AttemptNumber, a.Status, a.MaxScore, string(aj), a.StartedAt)
	if err != nil {
		// The partial unique index rejects a second in_progress row for the
		// same (test, student); treat a race as a resume.
		if existing, rerr := s.inProgressFor(ctx, testID, studentID); rerr == nil {
			return s.startResult(t, existing, true), nil
		}
		return StartResult{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return s.startResult(t, a, false), nil
}

func (s *SQLStore) inProgressFor(ctx context.Context, testID, studentID string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id FROM attempts WHERE test_id=$1 AND student_id=$2 AND status=$3`,
		testID, studentID, StatusInProgress)
	var id string
	if err := row.Scan(&id); err != nil {
		return Attempt{}, err
	}
	return s.GetAttempt(ctx, id)
}

func (s *SQLStore) startResult(t Test, a Attempt, resumed bool) StartResult {
	res := StartResult{
		Test:         t.StudentView(),
		Attempt:      a,
		SavedAnswers: a.Answers,
		Resumed:      resumed,
	}
	if res.SavedAnswers == nil {
		res.SavedAnswers = map[string]Answer{}
	}
	if t.TimeMode == TimeModeTimed {
		remaining := int64(t.TimeLimitSec()) - (s.now().Unix() - a.StartedAt)
		if remaining < 0 {
			remaining = 0
		}
		res.RemainingSec = &remaining
	}
	return res
}

func (s *SQLStore) SaveAnswers(ctx context.Context, attemptID string, answers map[string]Answer) (Attempt, error) {
	a, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if a.Terminal() {
		return Attempt{}, ErrAttemptAlreadySubmitted
	}
	if a.Answers == nil {
		a.Answers = map[string]Answer{}
	}
	for k, v := range answers {
		a.Answers[k] = v
	}
	buf, _ := json.Marshal(a.Answers)
	if _, err := s.db.ExecContext(ctx, `UPDATE attempts SET answers_json=$1 WHERE id=$2 AND status=$3`,
		string(buf), attemptID, StatusInProgress); err != nil {
		return Attempt{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return a, nil
}

func (s *SQLStore) FinalizeAttempt(ctx context.Context, a Attempt) error {
	buf, err := json.Marshal(a.Answers)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE attempts
		SET status=$1, cause=$2, score=$3, max_score=$4, percentage=$5, passed=$6,
		    answers_json=$7, ended_at=$8, time_spent_sec=$9
		WHERE id=$10 AND status=$11`,
		a.Status, a.Cause, a.Score, a.MaxScore, a.Percentage, a.Passed,
		string(buf), a.EndedAt, a.TimeSpentSec, a.ID, StatusInProgress)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if n == 0 {
		if _, gerr := s.GetAttempt(ctx, a.ID); gerr != nil {
			return gerr
		}
		return ErrAttemptAlreadySubmitted
	}
	return nil
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,test_id,student_id,attempt_number,status,COALESCE(cause,''),score,max_score,percentage,passed,answers_json,started_at,COALESCE(ended_at,0),COALESCE(time_spent_sec,0) FROM attempts WHERE id=$1`, id)
	var a Attempt
	var ajson string
	if err := row.Scan(&a.ID, &a.TestID, &a.StudentID, &a.AttemptNumber, &a.Status, &a.Cause,
		&a.Score, &a.MaxScore, &a.Percentage, &a.Passed, &ajson, &a.StartedAt, &a.EndedAt, &a.TimeSpentSec); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrAttemptNotFound
		}
		return Attempt{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := json.Unmarshal([]byte(ajson), &a.Answers); err != nil {
		a.Answers = map[string]Answer{}
	}
	return a, nil
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	if opts.Limit <= 0 || opts.Limit > 200 {
		opts.Limit = 50
	}
	where := []string{"1=1"}
	args := []any{}
	n := 0
	arg := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}
	if opts.TestID != "" {
		where = append(where, "test_id="+arg(opts.TestID))
	}
	if opts.StudentID != "" {
		where = append(where, "student_id="+arg(opts.StudentID))
	}
	if opts.Status != "" {
		where = append(where, "status="+arg(opts.Status))
	}
	order := "started_at DESC"
	switch strings.ToLower(strings.TrimSpace(opts.Sort)) {
	case "started_at", "started_at asc":
		order = "started_at ASC"
	case "ended_at", "ended_at asc":
		order = "ended_at ASC"
	case "ended_at desc":
		order = "ended_at DESC"
	}
	query := `SELECT id,test_id,student_id,attempt_number,status,COALESCE(cause,''),score,max_score,percentage,passed,answers_json,started_at,COALESCE(ended_at,0),COALESCE(time_spent_sec,0)
		FROM attempts WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY ` + order + ` LIMIT ` + arg(opts.Limit) + ` OFFSET ` + arg(opts.Offset)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	defer rows.Close()
	out := []Attempt{}
	for rows.Next() {
		var a Attempt
		var ajson string
		if err := rows.Scan(&a.ID, &a.TestID, &a.StudentID, &a.AttemptNumber, &a.Status, &a.Cause,
			&a.Score, &a.MaxScore, &a.Percentage, &a.Passed, &ajson, &a.StartedAt, &a.EndedAt, &a.TimeSpentSec); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(ajson), &a.Answers); err != nil {
			a.Answers = map[string]Answer{}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) CountTaken(ctx context.Context, testID, studentID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attempts WHERE test_id=$1 AND student_id=$2 AND status IN ($3,$4)`,
		testID, studentID, StatusCompleted, StatusTimedOut).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return n, nil
}

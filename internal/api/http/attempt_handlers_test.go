package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/aprendia/aprendia-lms/internal/assess"
	"github.com/aprendia/aprendia-lms/internal/grading"
	"github.com/aprendia/aprendia-lms/internal/rbac"
)

// as injects an authenticated identity the way the JWT middleware would.
func as(sub, role string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := rbac.WithSubject(r.Context(), sub)
		ctx = rbac.WithRole(ctx, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newAPI(store assess.Store) *chi.Mux {
	engine := grading.NewEngine(store, grading.NewDefaultGrader())
	r := chi.NewRouter()
	r.Post("/tests", UploadTestHandler(store))
	r.Get("/tests/{testID}", GetTestHandler(store))
	r.Get("/tests", ListTestsHandler(store))
	r.Post("/attempts", StartAttemptHandler(store))
	r.Post("/attempts/{attemptID}/answers", SaveAnswersHandler(store))
	r.Post("/attempts/{attemptID}/submit", SubmitAttemptHandler(store, engine))
	r.Get("/attempts/{attemptID}", GetAttemptHandler(store))
	r.Get("/attempts", ListAttemptsHandler(store))
	return r
}

func do(t *testing.T, h http.Handler, sub, role, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	as(sub, role, h).ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func seedPublishedTest(t *testing.T, store assess.Store, maxAttempts int) string {
	t.Helper()
	tst := assess.Test{
		ID:           "t1",
		Title:        "Chapter 2 quiz",
		TimeMode:     assess.TimeModeTimed,
		TimeLimitMin: 5,
		PassingScore: 50,
		MaxAttempts:  maxAttempts,
		Published:    true,
		OwnerID:      "teach",
		Questions: []assess.Question{
			{ID: "q1", Type: assess.TypeMultipleChoice, AnswerKey: []string{"b"}, Points: 10,
				Options: []assess.Option{{ID: "a"}, {ID: "b"}}},
			{ID: "q2", Type: assess.TypeMultipleAnswer, AnswerKey: []string{"x", "y"}, Points: 4},
		},
	}
	require.NoError(t, store.PutTest(context.Background(), tst))
	return tst.ID
}

func TestAttemptFlowOverHTTP(t *testing.T) {
	store := assess.NewInMemoryStore()
	api := newAPI(store)
	testID := seedPublishedTest(t, store, 1)

	// start
	rec := do(t, api, "alice", "student", "POST", "/attempts", map[string]string{"test_id": testID})
	require.Equal(t, http.StatusOK, rec.Code)
	start := decode[assess.StartResult](t, rec)
	require.Equal(t, assess.StatusInProgress, start.Attempt.Status)
	require.NotNil(t, start.RemainingSec)
	for _, q := range start.Test.Questions {
		require.Nil(t, q.AnswerKey)
	}

	// autosave
	rec = do(t, api, "alice", "student", "POST", "/attempts/"+start.Attempt.ID+"/answers",
		map[string]any{"answers": []map[string]any{
			{"question_id": "q1", "answer": "b"},
		}})
	require.Equal(t, http.StatusOK, rec.Code)

	// submit with the multi answer added on top of the autosave
	rec = do(t, api, "alice", "student", "POST", "/attempts/"+start.Attempt.ID+"/submit",
		map[string]any{"answers": []map[string]any{
			{"question_id": "q2", "answer": []string{"y", "x"}},
		}})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[grading.Outcome](t, rec)
	require.Equal(t, assess.StatusCompleted, out.Attempt.Status)
	require.Equal(t, 14.0, out.Results.Score)
	require.True(t, out.Results.Passed)
	require.False(t, out.CanRetake)

	// double submit leaves the score alone
	rec = do(t, api, "alice", "student", "POST", "/attempts/"+start.Attempt.ID+"/submit",
		map[string]any{"answers": []map[string]any{}})
	require.Equal(t, http.StatusConflict, rec.Code)

	// the cap is spent
	rec = do(t, api, "alice", "student", "POST", "/attempts", map[string]string{"test_id": testID})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestStartAttemptRejectsDraftAndMissing(t *testing.T) {
	store := assess.NewInMemoryStore()
	api := newAPI(store)
	require.NoError(t, store.PutTest(context.Background(), assess.Test{
		ID: "draft", Title: "WIP", Questions: []assess.Question{{ID: "q", Type: assess.TypePoll}},
	}))

	rec := do(t, api, "alice", "student", "POST", "/attempts", map[string]string{"test_id": "draft"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, api, "alice", "student", "POST", "/attempts", map[string]string{"test_id": "nope"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

// A student writing into another student's attempt sees 404, not 403: the
// id itself is not acknowledged.
func TestAttemptOwnership(t *testing.T) {
	store := assess.NewInMemoryStore()
	api := newAPI(store)
	testID := seedPublishedTest(t, store, 0)

	rec := do(t, api, "alice", "student", "POST", "/attempts", map[string]string{"test_id": testID})
	require.Equal(t, http.StatusOK, rec.Code)
	start := decode[assess.StartResult](t, rec)

	rec = do(t, api, "mallory", "student", "POST", "/attempts/"+start.Attempt.ID+"/submit",
		map[string]any{"answers": []map[string]any{}})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, api, "mallory", "student", "GET", "/attempts/"+start.Attempt.ID, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// the teacher can read it
	rec = do(t, api, "teach", "teacher", "GET", "/attempts/"+start.Attempt.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUploadTestValidation(t *testing.T) {
	store := assess.NewInMemoryStore()
	api := newAPI(store)

	rec := do(t, api, "teach", "teacher", "POST", "/tests", assess.Test{Title: "empty"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, api, "teach", "teacher", "POST", "/tests", assess.Test{
		Title:    "no limit",
		TimeMode: assess.TimeModeTimed,
		Questions: []assess.Question{
			{ID: "q1", Type: assess.TypeTrueFalse, AnswerKey: []string{"true"}, Points: 1},
		},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, api, "teach", "teacher", "POST", "/tests", assess.Test{
		Title: "free mode default",
		Questions: []assess.Question{
			{ID: "q1", Type: assess.TypeTrueFalse, AnswerKey: []string{"true"}, Points: 1},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[assess.Test](t, rec)
	require.Equal(t, assess.TimeModeFree, created.TimeMode)
	require.Equal(t, "teach", created.OwnerID)
}

func TestListAttemptsPinsStudents(t *testing.T) {
	store := assess.NewInMemoryStore()
	api := newAPI(store)
	testID := seedPublishedTest(t, store, 0)

	do(t, api, "alice", "student", "POST", "/attempts", map[string]string{"test_id": testID})
	do(t, api, "bob", "student", "POST", "/attempts", map[string]string{"test_id": testID})

	// a student asking for someone else's rows still gets only their own
	rec := do(t, api, "alice", "student", "GET", "/attempts?student_id=bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]assess.Attempt](t, rec)
	require.Len(t, list, 1)
	require.Equal(t, "alice", list[0].StudentID)

	rec = do(t, api, "teach", "teacher", "GET", "/attempts?test_id="+testID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list = decode[[]assess.Attempt](t, rec)
	require.Len(t, list, 2)
}

package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aprendia/aprendia-lms/internal/assess"
	"github.com/aprendia/aprendia-lms/internal/grading"
	"github.com/aprendia/aprendia-lms/internal/rbac"
)

// POST /attempts {test_id} — start or resume; the student id comes from the
// validated token, never the body.
func StartAttemptHandler(store assess.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TestID string `json:"test_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.TestID == "" {
			http.Error(w, "test_id required", http.StatusBadRequest)
			return
		}
		studentID := rbac.SubjectFromContext(r.Context())
		if studentID == "" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		res, err := store.StartAttempt(r.Context(), req.TestID, studentID)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

type answerItem struct {
	QuestionID string        `json:"question_id"`
	Answer     assess.Answer `json:"answer"`
}

func answersToMap(items []answerItem) map[string]assess.Answer {
	out := make(map[string]assess.Answer, len(items))
	for _, it := range items {
		out[it.QuestionID] = it.Answer
	}
	return out
}

// POST /attempts/{attemptID}/answers — autosave; merge into the in_progress
// snapshot, last write wins per question.
func SaveAnswersHandler(store assess.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		var req struct {
			Answers []answerItem `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := requireOwnAttempt(r, store, id); err != nil {
			writeDomainErr(w, err)
			return
		}
		a, err := store.SaveAnswers(r.Context(), id, answersToMap(req.Answers))
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// POST /attempts/{attemptID}/submit — the one transition to a terminal
// scored state. Repeating it returns 409 and leaves the score untouched.
func SubmitAttemptHandler(store assess.Store, engine *grading.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		var req struct {
			Answers []answerItem `json:"answers"`
			Cause   string       `json:"cause,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := requireOwnAttempt(r, store, id); err != nil {
			writeDomainErr(w, err)
			return
		}
		cause := assess.CauseManual
		if req.Cause == assess.CauseTimeout {
			cause = assess.CauseTimeout
		}
		out, err := engine.Submit(r.Context(), id, answersToMap(req.Answers), cause)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func GetAttemptHandler(store assess.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		a, err := store.GetAttempt(r.Context(), id)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		role := rbac.RoleFromContext(r.Context())
		if role != "teacher" && role != "admin" && a.StudentID != rbac.SubjectFromContext(r.Context()) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// GET /attempts?test_id=...&student_id=...&status=...&limit=50&offset=0
// Callers without attempt:view-all are pinned to their own attempts.
func ListAttemptsHandler(store assess.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := rbac.RoleFromContext(r.Context())
		sub := rbac.SubjectFromContext(r.Context())
		if role == "" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		studentID := strings.TrimSpace(r.URL.Query().Get("student_id"))
		if role != "admin" && role != "teacher" {
			studentID = sub
		}
		list, err := store.ListAttempts(r.Context(), assess.AttemptListOpts{
			TestID:    strings.TrimSpace(r.URL.Query().Get("test_id")),
			StudentID: studentID,
			Status:    strings.TrimSpace(r.URL.Query().Get("status")),
			Limit:     parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:    parseIntDefault(r.URL.Query().Get("offset"), 0),
			Sort:      strings.TrimSpace(r.URL.Query().Get("sort")),
		})
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// requireOwnAttempt stops one student from saving into or submitting
// another student's attempt. Teachers and admins pass.
func requireOwnAttempt(r *http.Request, store assess.Store, attemptID string) error {
	role := rbac.RoleFromContext(r.Context())
	if role == "teacher" || role == "admin" {
		return nil
	}
	a, err := store.GetAttempt(r.Context(), attemptID)
	if err != nil {
		return err
	}
	if a.StudentID != rbac.SubjectFromContext(r.Context()) {
		return assess.ErrAttemptNotFound // do not leak other students' attempt ids
	}
	return nil
}

package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aprendia/aprendia-lms/internal/assess"
	"github.com/aprendia/aprendia-lms/internal/rbac"
)

func UploadTestHandler(store assess.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t assess.Test
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if t.Title == "" || len(t.Questions) == 0 {
			http.Error(w, "title and questions required", http.StatusBadRequest)
			return
		}
		switch t.TimeMode {
		case assess.TimeModeTimed:
			if t.TimeLimitMin <= 0 {
				http.Error(w, "timed tests need time_limit_min", http.StatusBadRequest)
				return
			}
		case assess.TimeModeFree, "":
			t.TimeMode = assess.TimeModeFree
			t.TimeLimitMin = 0
		default:
			http.Error(w, "time_mode must be timed or free", http.StatusBadRequest)
			return
		}
		t.OwnerID = rbac.SubjectFromContext(r.Context())
		if err := store.PutTest(r.Context(), t); err != nil {
			writeDomainErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}
}

// GetTestHandler serves the student view; callers with test:view-keys get
// the full definition including answer keys.
func GetTestHandler(store assess.Store) http.HandlerFunc {
	checker := rbac.NewChecker(nil)
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "testID")
		role := rbac.RoleFromContext(r.Context())
		if checker.Has(role, "test:view-keys") {
			t, err := store.GetTestAdmin(r.Context(), id)
			if err != nil {
				writeDomainErr(w, err)
				return
			}
			writeJSON(w, http.StatusOK, t)
			return
		}
		t, err := store.GetTest(r.Context(), id)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func ListTestsHandler(store assess.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListTests(r.Context(), assess.TestListOpts{
			Q:          strings.TrimSpace(r.URL.Query().Get("q")),
			Limit:      parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:     parseIntDefault(r.URL.Query().Get("offset"), 0),
			ViewerID:   rbac.SubjectFromContext(r.Context()),
			ViewerRole: rbac.RoleFromContext(r.Context()),
		})
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

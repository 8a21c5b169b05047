package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DoyleJ11/league-backend/internal/domain"
	"github.com/DoyleJ11/league-backend/internal/league"
)

func AdminListUsers(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := d.League.ListUsers(r.Context(), actorFrom(r.Context()))
		if err != nil {
			fail(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

func AdminUpdateUser(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch league.UserPatch
		if err := decodeJSON(r, &patch); err != nil {
			fail(w, r, d.Log, err)
			return
		}
		u, err := d.League.UpdateUser(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id"), patch)
		if err != nil {
			fail(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

func AdminCreateReferral(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email string `json:"email,omitempty"`
		}
		if err := decodeJSON(r, &body); err != nil {
			fail(w, r, d.Log, err)
			return
		}
		ref, err := d.League.CreateClaimReferral(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id"), body.Email)
		if err != nil {
			fail(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusCreated, ref)
	}
}

func AdminListReports(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := domain.ReportStatus(r.URL.Query().Get("status"))
		reps, err := d.League.ListReports(r.Context(), actorFrom(r.Context()), status)
		if err != nil {
			fail(w, r, d.Log, err)
			return
		}
		if reps == nil {
			reps = []domain.Report{}
		}
		writeJSON(w, http.StatusOK, reps)
	}
}

func AdminResolveReport(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Status domain.ReportStatus `json:"status"`
		}
		if err := decodeJSON(r, &body); err != nil {
			fail(w, r, d.Log, err)
			return
		}
		rep, err := d.League.ResolveReport(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id"), body.Status)
		if err != nil {
			fail(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

func AdminCreateSport(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name string `json:"name"`
		}
		if err := decodeJSON(r, &body); err != nil {
			fail(w, r, d.Log, err)
			return
		}
		s, err := d.League.CreateSport(r.Context(), actorFrom(r.Context()), body.Name)
		if err != nil {
			fail(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusCreated, s)
	}
}

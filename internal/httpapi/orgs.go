package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DoyleJ11/league-backend/internal/domain"
)

func ListOrgs(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgs, err := d.League.Repo().ListOrgSummaries(r.Context())
		if err != nil {
			fail(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, orgs)
	}
}

func GetOrg(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := d.League.Repo().OrgSummary(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			fail(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// orgList serves one of an organization's entity lists, 404 for unknown orgs.
func orgList[T any](d Deps, list func(ctx context.Context, r *http.Request, orgID string) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := d.League.Repo().GetOrg(r.Context(), id); err != nil {
			fail(w, r, d.Log, err)
			return
		}
		items, err := list(r.Context(), r, id)
		if err != nil {
			fail(w, r, d.Log, err)
			return
		}
		if items == nil {
			items = []T{}
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func ListTeams(d Deps) http.HandlerFunc {
	return orgList(d, func(ctx context.Context, _ *http.Request, id string) ([]domain.Team, error) {
		return d.League.Repo().ListTeams(ctx, id)
	})
}

func ListVenues(d Deps) http.HandlerFunc {
	return orgList(d, func(ctx context.Context, _ *http.Request, id string) ([]domain.Venue, error) {
		return d.League.Repo().ListVenues(ctx, id)
	})
}

func ListEvents(d Deps) http.HandlerFunc {
	return orgList(d, func(ctx context.Context, _ *http.Request, id string) ([]domain.Event, error) {
		return d.League.Repo().ListEvents(ctx, id)
	})
}

// ListGames accepts ?status=Live and friends.
func ListGames(d Deps) http.HandlerFunc {
	return orgList(d, func(ctx context.Context, r *http.Request, id string) ([]domain.Game, error) {
		status := domain.GameStatus(r.URL.Query().Get("status"))
		if status != "" && !status.Valid() {
			return nil, domain.ErrInvalid
		}
		return d.League.Repo().ListGames(ctx, id, status)
	})
}

func ListPersons(d Deps) http.HandlerFunc {
	return orgList(d, func(ctx context.Context, _ *http.Request, id string) ([]domain.Person, error) {
		return d.League.Repo().ListPersons(ctx, id)
	})
}

func ClaimOrg(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Token string `json:"token"`
		}
		if err := decodeJSON(r, &body); err != nil {
			fail(w, r, d.Log, err)
			return
		}
		s, err := d.League.ClaimOrganization(r.Context(), actorFrom(r.Context()), body.Token)
		if err != nil {
			fail(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func LiveGames(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		live, err := d.League.LiveGames(r.Context())
		if err != nil {
			fail(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, live)
	}
}

func GetGame(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		g, err := d.League.Repo().GetGame(r.Context(), id)
		if err != nil {
			fail(w, r, d.Log, err)
			return
		}
		logs, err := d.League.Repo().ScoreLogs(r.Context(), id)
		if err != nil {
			fail(w, r, d.Log, err)
			return
		}
		if logs == nil {
			logs = []domain.ScoreLog{}
		}
		writeJSON(w, http.StatusOK, struct {
			domain.Game
			ScoreLog []domain.ScoreLog `json:"scoreLog"`
		}{g, logs})
	}
}

func ListSports(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sports, err := d.League.Repo().ListSports(r.Context())
		if err != nil {
			fail(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, sports)
	}
}

func ListNotifications(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ns, err := d.League.Repo().ListNotifications(r.Context(), actorFrom(r.Context()).UserID)
		if err != nil {
			fail(w, r, d.Log, err)
			return
		}
		if ns == nil {
			ns = []domain.Notification{}
		}
		writeJSON(w, http.StatusOK, ns)
	}
}

func FileReport(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			TargetType string `json:"targetType"`
			TargetID   string `json:"targetId"`
			Reason     string `json:"reason"`
		}
		if err := decodeJSON(r, &body); err != nil {
			fail(w, r, d.Log, err)
			return
		}
		rep, err := d.League.FileReport(r.Context(), actorFrom(r.Context()), body.TargetType, body.TargetID, body.Reason)
		if err != nil {
			fail(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusCreated, rep)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

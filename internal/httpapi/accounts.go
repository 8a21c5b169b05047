package httpapi

import (
	"net/http"

	"github.com/DoyleJ11/league-backend/internal/league"
)

type credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Signup(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body credentials
		if err := decodeJSON(r, &body); err != nil {
			fail(w, r, d.Log, err)
			return
		}
		u, err := d.League.Signup(r.Context(), body.Name, body.Email, body.Password)
		if err != nil {
			fail(w, r, d.Log, err)
			return
		}
		if err := d.Sessions.Login(w, r, u.ID); err != nil {
			fail(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusCreated, u)
	}
}

func Login(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body credentials
		if err := decodeJSON(r, &body); err != nil {
			fail(w, r, d.Log, err)
			return
		}
		u, err := d.League.Login(r.Context(), body.Email, body.Password)
		if err != nil {
			fail(w, r, d.Log, err)
			return
		}
		if err := d.Sessions.Login(w, r, u.ID); err != nil {
			fail(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

func Logout(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Sessions.Logout(w, r); err != nil {
			fail(w, r, d.Log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func GetProfile(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := d.League.Repo().GetUser(r.Context(), actorFrom(r.Context()).UserID)
		if err != nil {
			fail(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

func UpdateProfile(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch league.ProfilePatch
		if err := decodeJSON(r, &patch); err != nil {
			fail(w, r, d.Log, err)
			return
		}
		u, err := d.League.UpdateProfile(r.Context(), actorFrom(r.Context()).UserID, patch)
		if err != nil {
			fail(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

func ListEmails(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		emails, err := d.League.Repo().ListEmails(r.Context(), actorFrom(r.Context()).UserID)
		if err != nil {
			fail(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, emails)
	}
}

// AddEmail returns the verification token in the response; there is no
// outbound mail.
func AddEmail(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email string `json:"email"`
		}
		if err := decodeJSON(r, &body); err != nil {
			fail(w, r, d.Log, err)
			return
		}
		e, token, err := d.League.AddEmail(r.Context(), actorFrom(r.Context()).UserID, body.Email)
		if err != nil {
			fail(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"email": e, "verifyToken": token})
	}
}

func VerifyEmail(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Token string `json:"token"`
		}
		if err := decodeJSON(r, &body); err != nil {
			fail(w, r, d.Log, err)
			return
		}
		e, err := d.League.VerifyEmail(r.Context(), actorFrom(r.Context()).UserID, body.Token)
		if err != nil {
			fail(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/league-backend/internal/auth"
	"github.com/DoyleJ11/league-backend/internal/hub"
	"github.com/DoyleJ11/league-backend/internal/league"
	"github.com/DoyleJ11/league-backend/internal/metrics"
	"github.com/DoyleJ11/league-backend/internal/ws"
)

type Deps struct {
	Hub      *hub.Hub
	League   *league.Service
	Sessions *auth.Sessions
	Metrics  *metrics.Recorder
	Log      *zap.Logger
	WS       ws.Options
	// Shutdown is closed when the server stops; open sockets are closed.
	Shutdown <-chan struct{}
}

func SetupRoutes(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(d))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Healthz)
	r.Handle("/metrics", d.Metrics.Handler())
	r.Get("/ws", ws.Handler(ws.Deps{
		Hub:      d.Hub,
		League:   d.League,
		Sessions: d.Sessions,
		Metrics:  d.Metrics,
		Log:      d.Log.Named("ws"),
		Options:  d.WS,
		Shutdown: d.Shutdown,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Use(withActor(d))

		r.Post("/auth/signup", Signup(d))
		r.Post("/auth/login", Login(d))
		r.Post("/auth/logout", Logout(d))

		// Public reads
		r.Get("/orgs", ListOrgs(d))
		r.Get("/orgs/{id}", GetOrg(d))
		r.Get("/orgs/{id}/teams", ListTeams(d))
		r.Get("/orgs/{id}/venues", ListVenues(d))
		r.Get("/orgs/{id}/events", ListEvents(d))
		r.Get("/orgs/{id}/games", ListGames(d))
		r.Get("/orgs/{id}/persons", ListPersons(d))
		r.Get("/games/live", LiveGames(d))
		r.Get("/games/{id}", GetGame(d))
		r.Get("/sports", ListSports(d))

		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.Get("/user/profile", GetProfile(d))
			r.Patch("/user/profile", UpdateProfile(d))
			r.Post("/user/profile/verify", VerifyEmail(d))
			r.Get("/user/emails", ListEmails(d))
			r.Post("/user/emails", AddEmail(d))
			r.Post("/orgs/claim", ClaimOrg(d))
			r.Get("/notifications", ListNotifications(d))
			r.Post("/reports", FileReport(d))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/users", AdminListUsers(d))
			r.Patch("/users/{id}", AdminUpdateUser(d))
			r.Post("/orgs/{id}/claim-referrals", AdminCreateReferral(d))
			r.Get("/reports", AdminListReports(d))
			r.Post("/reports/{id}/resolve", AdminResolveReport(d))
			r.Post("/sports", AdminCreateSport(d))
		})
	})
	return r
}

package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/robotics-tournament-core/docs"
	"github.com/Dosada05/robotics-tournament-core/handlers"
	"github.com/Dosada05/robotics-tournament-core/middleware"
)

type Handlers struct {
	Tournaments *handlers.TournamentHandler
	Brackets    *handlers.BracketHandler
	Matches     *handlers.MatchHandler
	Results     *handlers.ResultHandler
	WebSocket   *handlers.WebSocketHandler
}

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
}

// SetupRoutes mounts the API on router. Reads are public; writes need a
// token, and organizer-only actions also check the role.
func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	auth := middleware.Authenticate(opts.JWTSecret)
	organizer := middleware.Authorize(middleware.RoleAdmin, middleware.RoleOrganizer)
	official := middleware.Authorize(middleware.RoleAdmin, middleware.RoleOrganizer, middleware.RoleReferee)

	router.Route("/api", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", h.Tournaments.ListTournaments)
			r.With(auth, organizer).Post("/", h.Tournaments.CreateTournament)

			r.Route("/{tournamentID}", func(r chi.Router) {
				r.Get("/", h.Tournaments.GetTournament)
				r.Get("/entrants", h.Tournaments.ListEntrants)
				r.Get("/seedings", h.Tournaments.ListSeedings)
				r.Get("/bracket", h.Brackets.GetBracket)
				r.Get("/matches", h.Matches.ListTournamentMatches)
				r.Get("/standings", h.Brackets.ListStandings)
				r.Get("/schedule", h.Brackets.ListSchedule)
				r.Get("/results", h.Results.ListResults)

				r.Group(func(r chi.Router) {
					r.Use(auth, organizer)
					r.Put("/", h.Tournaments.UpdateTournament)
					r.Delete("/", h.Tournaments.DeleteTournament)
					r.Post("/registration/open", h.Tournaments.OpenRegistration)
					r.Post("/registration/close", h.Tournaments.CloseRegistration)
					r.Post("/entrants", h.Tournaments.RegisterTeam)
					r.Delete("/entrants/{teamID}", h.Tournaments.WithdrawTeam)
					r.Put("/entrants/{teamID}/seed", h.Tournaments.SetManualSeed)
					r.Post("/seedings", h.Tournaments.SeedTournament)
					r.Post("/bracket", h.Brackets.GenerateBracket)
					r.Post("/rounds", h.Brackets.NextSwissRound)
					r.Post("/results", h.Results.GenerateResults)
				})
			})
		})

		r.Route("/matches/{matchID}", func(r chi.Router) {
			r.Get("/", h.Matches.GetMatch)
			r.Group(func(r chi.Router) {
				r.Use(auth, official)
				r.Put("/schedule", h.Matches.ScheduleMatch)
				r.Post("/start", h.Matches.StartMatch)
				r.Post("/complete", h.Matches.CompleteMatch)
				r.Post("/forfeit", h.Matches.ForfeitMatch)
			})
		})

		r.Route("/results/{resultID}", func(r chi.Router) {
			r.Use(auth, organizer)
			r.Post("/certificate", h.Results.GenerateCertificate)
			r.Post("/publish", h.Results.PublishResult)
			r.Post("/unpublish", h.Results.UnpublishResult)
		})
	})
}

package handlers

import (
	"karate-tournament-system/middleware"
	"karate-tournament-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTournamentRoutes(app *fiber.App, tournamentService *services.TournamentService) {
	// 🔓 Public listing
	app.Get("/tournaments", tournamentService.GetAllTournaments)
	app.Get("/tournaments/:id", tournamentService.GetTournamentByID)
	app.Get("/tournaments/:id/entries", tournamentService.ListEntries)

	// 🔐 Authenticated routes
	secured := app.Group("/", middleware.UserContextMiddleware())

	// Registration (any authenticated user)
	secured.Post("/tournaments/:id/entries", tournamentService.RegisterEntry)
	secured.Post("/tournaments/:tournament_id/entries/:user_id/withdraw", tournamentService.WithdrawEntry)

	// Tournament administration (Organizer/Admin)
	organizer := secured.Group("/", middleware.RequireRoles("organizer"))
	organizer.Post("/tournaments", tournamentService.CreateTournament)
	organizer.Patch("/tournaments/:id/status", tournamentService.UpdateTournamentStatus)
	organizer.Delete("/tournaments/:id", tournamentService.DeleteTournament)
}

package handlers

import (
	"karate-tournament-system/middleware"
	"karate-tournament-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupMatchRoutes(app *fiber.App, matchService *services.MatchService, scoreService *services.ScoreService) {
	// 🔓 Public: spectators follow matches and scoreboards
	app.Get("/matches/:id", matchService.GetMatch)
	app.Get("/matches/:id/scoreboard", scoreService.GetScoreboard)
	app.Get("/matches/:id/live", scoreService.StreamMatchScoreboardSSE)
	app.Get("/tournaments/:id/matches", matchService.ListMatches)

	// 🔐 Authenticated routes
	secured := app.Group("/", middleware.UserContextMiddleware())

	// Live scoring (Judge) — the judge identity comes from the gateway
	// user context, never the request body.
	judges := secured.Group("/", middleware.RequireRoles("judge"))
	judges.Post("/matches/:id/actions", scoreService.RecordAction)
	judges.Get("/matches/:id/scores", scoreService.GetMatchScoreEntries)
	judges.Post("/matches/:id/scores/refresh", scoreService.RefreshScores)

	// Match administration (Organizer/Admin)
	organizer := secured.Group("/", middleware.RequireRoles("organizer"))
	organizer.Post("/tournaments/:id/matches", matchService.CreateMatch)
	organizer.Put("/matches/:id", matchService.UpdateMatch)
	organizer.Delete("/matches/:id", matchService.DeleteMatch)
	organizer.Post("/matches/:id/judges", matchService.AssignJudge)
	organizer.Delete("/matches/:id/judges/:judge_id", matchService.RemoveJudge)
	organizer.Post("/matches/:id/start", matchService.StartMatch)
	organizer.Post("/matches/:id/finalize", matchService.FinalizeMatch)
}

package handlers

import (
	"karate-tournament-system/middleware"
	"karate-tournament-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupNotificationRoutes(app *fiber.App, notificationService *services.NotificationService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/users/me/notifications", notificationService.ListMyNotifications)
	secured.Post("/users/me/notifications/read-all", notificationService.MarkAllNotificationsRead)
	secured.Patch("/notifications/:id/read", notificationService.MarkNotificationRead)
}

package services

import (
	"fmt"
	"time"

	"karate-tournament-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationService struct {
	DB *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{DB: db}
}

// CreateMatchResult writes result notifications for both corners inside
// the finalize transaction.
func (s *NotificationService) CreateMatchResult(tx *gorm.DB, match *models.Match, winnerID string) error {
	corner := func(id string) string {
		if id == match.RedID {
			return match.RedName
		}
		return match.BlueName
	}

	for _, userID := range []string{match.RedID, match.BlueID} {
		title := "Match lost"
		body := fmt.Sprintf("%s won the match %s", corner(winnerID), match.Name)
		if userID == winnerID {
			title = "Match won"
			body = fmt.Sprintf("You won the match %s", match.Name)
		}
		n := models.Notification{
			ID:           uuid.NewString(),
			UserID:       userID,
			Type:         "match_result",
			Title:        title,
			Body:         body,
			TournamentID: match.TournamentID,
			MatchID:      match.ID,
		}
		if err := tx.Create(&n).Error; err != nil {
			return fmt.Errorf("create result notification: %w", err)
		}
	}
	return nil
}

// ListMyNotifications returns the caller's feed, newest first.
// GET /users/me/notifications?unread=true
func (s *NotificationService) ListMyNotifications(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(401).JSON(fiber.Map{"error": "missing user context"})
	}

	query := s.DB.Where("user_id = ?", userID).Order("created_at DESC").Limit(100)
	if c.Query("unread") == "true" {
		query = query.Where("read_at IS NULL")
	}

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch notifications"})
	}
	return c.JSON(notifications)
}

// MarkNotificationRead stamps one notification as read.
// PATCH /notifications/:id/read
func (s *NotificationService) MarkNotificationRead(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	now := time.Now()
	result := s.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", c.Params("id"), userID).
		Update("read_at", &now)
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "notification not found or already read"})
	}
	return c.JSON(fiber.Map{"message": "marked read"})
}

// MarkAllNotificationsRead stamps the caller's whole feed.
// POST /users/me/notifications/read-all
func (s *NotificationService) MarkAllNotificationsRead(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(401).JSON(fiber.Map{"error": "missing user context"})
	}
	now := time.Now()
	result := s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", &now)
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(fiber.Map{"message": "all marked read", "updated": result.RowsAffected})
}

package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"karate-tournament-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MatchService struct {
	DB            *gorm.DB
	Scores        *ScoreService
	Notifications *NotificationService
}

func NewMatchService(db *gorm.DB, scores *ScoreService, notifications *NotificationService) *MatchService {
	return &MatchService{DB: db, Scores: scores, Notifications: notifications}
}

// CreateMatch creates a scheduled Kumite match inside a tournament.
// POST /tournaments/:id/matches
func (s *MatchService) CreateMatch(c *fiber.Ctx) error {
	type Req struct {
		Name        string `json:"name"`
		Tatami      string `json:"tatami"`
		Division    string `json:"division"`
		RedID       string `json:"red_id"`
		RedName     string `json:"red_name"`
		BlueID      string `json:"blue_id"`
		BlueName    string `json:"blue_name"`
		ScheduledAt string `json:"scheduled_at"` // RFC3339
	}

	tournamentID := c.Params("id")
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.RedID == "" || req.BlueID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "red_id and blue_id are required"})
	}
	if req.RedID == req.BlueID {
		return c.Status(400).JSON(fiber.Map{"error": "a participant cannot face themselves"})
	}

	if err := s.DB.First(&models.Tournament{}, "id = ?", tournamentID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
	}

	scheduledAt := time.Now()
	if req.ScheduledAt != "" {
		t, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid scheduled_at (use RFC3339)"})
		}
		scheduledAt = t
	}

	match := &models.Match{
		ID:           uuid.NewString(),
		TournamentID: tournamentID,
		Name:         req.Name,
		Tatami:       req.Tatami,
		Division:     req.Division,
		RedID:        req.RedID,
		RedName:      req.RedName,
		BlueID:       req.BlueID,
		BlueName:     req.BlueName,
		Status:       models.MatchStatusScheduled,
		ScheduledAt:  scheduledAt,
	}
	if err := s.DB.Create(match).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to create match"})
	}
	return c.Status(201).JSON(match)
}

// GetMatch returns one match with its judge panel.
// GET /matches/:id
func (s *MatchService) GetMatch(c *fiber.Ctx) error {
	var match models.Match
	if err := s.DB.Preload("Judges").First(&match, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "match not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(match)
}

// ListMatches lists a tournament's matches, optionally filtered by status.
// GET /tournaments/:id/matches?status=in_progress
func (s *MatchService) ListMatches(c *fiber.Ctx) error {
	query := s.DB.Preload("Judges").
		Where("tournament_id = ?", c.Params("id")).
		Order("scheduled_at ASC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var matches []models.Match
	if err := query.Find(&matches).Error; err != nil {
		log.Printf("ERROR fetching matches for tournament %s: %v", c.Params("id"), err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch matches"})
	}
	return c.JSON(matches)
}

// UpdateMatch edits scheduling/metadata of a non-completed match.
// PUT /matches/:id
func (s *MatchService) UpdateMatch(c *fiber.Ctx) error {
	type Req struct {
		Name        string `json:"name"`
		Tatami      string `json:"tatami"`
		Division    string `json:"division"`
		ScheduledAt string `json:"scheduled_at"`
	}

	var match models.Match
	if err := s.DB.First(&match, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "match not found"})
	}
	if match.Status == models.MatchStatusCompleted {
		return c.Status(409).JSON(fiber.Map{"error": "completed matches cannot be edited"})
	}

	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	if req.ScheduledAt != "" {
		t, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid scheduled_at (use RFC3339)"})
		}
		match.ScheduledAt = t
	}
	match.Name = req.Name
	match.Tatami = req.Tatami
	match.Division = req.Division
	if err := s.DB.Save(&match).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "update failed"})
	}
	return c.JSON(match)
}

// DeleteMatch removes a match and its score records.
// DELETE /matches/:id
func (s *MatchService) DeleteMatch(c *fiber.Ctx) error {
	id := c.Params("id")
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("match_id = ?", id).Delete(&models.ScoreRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("match_id = ?", id).Delete(&models.MatchJudge{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Match{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fiber.NewError(404, "match not found")
		}
		return nil
	})
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		return c.Status(500).JSON(fiber.Map{"error": "delete failed"})
	}
	s.Scores.DropLedger(id)
	return c.JSON(fiber.Map{"message": "match deleted"})
}

// AssignJudge puts an official on the match panel.
// POST /matches/:id/judges
func (s *MatchService) AssignJudge(c *fiber.Ctx) error {
	type Req struct {
		JudgeID string `json:"judge_id"`
		Name    string `json:"name"`
		Role    string `json:"role"`
	}

	matchID := c.Params("id")
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.JudgeID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "judge_id is required"})
	}

	var match models.Match
	if err := s.DB.First(&match, "id = ?", matchID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "match not found"})
	}
	if match.Status == models.MatchStatusCompleted {
		return c.Status(409).JSON(fiber.Map{"error": "completed matches cannot change panel"})
	}

	var existing models.MatchJudge
	if err := s.DB.Where("match_id = ? AND judge_id = ?", matchID, req.JudgeID).
		First(&existing).Error; err == nil {
		return c.Status(409).JSON(fiber.Map{"error": "judge already assigned", "judge": existing})
	}

	name := req.Name
	if name == "" {
		var profile models.OfficialProfile
		if err := s.DB.First(&profile, "external_user_id = ?", req.JudgeID).Error; err == nil {
			name = profile.DisplayName
		}
	}

	role := req.Role
	if role == "" {
		role = "judge"
	}
	judge := &models.MatchJudge{
		ID:      uuid.NewString(),
		MatchID: matchID,
		JudgeID: req.JudgeID,
		Name:    name,
		Role:    role,
	}
	if err := s.DB.Create(judge).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to assign judge"})
	}
	return c.Status(201).JSON(judge)
}

// RemoveJudge takes an official off the panel.
// DELETE /matches/:id/judges/:judge_id
func (s *MatchService) RemoveJudge(c *fiber.Ctx) error {
	result := s.DB.Where("match_id = ? AND judge_id = ?", c.Params("id"), c.Params("judge_id")).
		Delete(&models.MatchJudge{})
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "judge assignment not found"})
	}
	return c.JSON(fiber.Map{"message": "judge removed"})
}

// StartMatch moves a scheduled match to in_progress.
// POST /matches/:id/start
func (s *MatchService) StartMatch(c *fiber.Ctx) error {
	var match models.Match
	if err := s.DB.First(&match, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "match not found"})
	}
	if match.Status != models.MatchStatusScheduled {
		return c.Status(409).JSON(fiber.Map{"error": fmt.Sprintf("match is %s, not scheduled", match.Status)})
	}
	if err := s.DB.Model(&match).Update("status", models.MatchStatusInProgress).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "update failed"})
	}
	match.Status = models.MatchStatusInProgress
	return c.JSON(match)
}

// FinalizeMatch persists the resolved winner and completes the match. It
// fails fast when the winner is still undetermined and rejects a second
// finalize of an already-completed match.
// POST /matches/:id/finalize
func (s *MatchService) FinalizeMatch(c *fiber.Ctx) error {
	var match models.Match
	if err := s.DB.Preload("Judges").First(&match, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "match not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	if match.Status == models.MatchStatusCompleted {
		return c.Status(409).JSON(fiber.Map{"error": "match is already finalized"})
	}

	board, err := s.Scores.BuildScoreboard(c.Context(), &match)
	if err != nil {
		log.Printf("ERROR building scoreboard to finalize match %s: %v", match.ID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to compute scoreboard"})
	}
	if board.Outcome.Undetermined {
		return c.Status(422).JSON(fiber.Map{
			"error":      "no winner can be determined yet — match cannot be finalized",
			"scoreboard": board,
		})
	}

	now := time.Now()
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Match{}).
			Where("id = ? AND status <> ?", match.ID, models.MatchStatusCompleted).
			Updates(map[string]interface{}{
				"winner_id":    board.Outcome.WinnerID,
				"status":       models.MatchStatusCompleted,
				"completed_at": &now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// A concurrent finalize won; skip the result notifications
			// so they are written exactly once.
			return fiber.NewError(409, "match is already finalized")
		}
		return s.Notifications.CreateMatchResult(tx, &match, board.Outcome.WinnerID)
	})
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		log.Printf("ERROR finalizing match %s: %v", match.ID, err)
		return c.Status(500).JSON(fiber.Map{"error": "finalize failed"})
	}

	s.Scores.DropLedger(match.ID)
	match.WinnerID = board.Outcome.WinnerID
	match.Status = models.MatchStatusCompleted
	match.CompletedAt = &now
	log.Printf("Match %s finalized, winner %s", match.ID, match.WinnerID)

	return c.JSON(fiber.Map{
		"match":      match,
		"scoreboard": board,
	})
}

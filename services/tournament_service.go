package services

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"time"

	"karate-tournament-system/models"
	"karate-tournament-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type TournamentService struct {
	DB *gorm.DB
}

func NewTournamentService(db *gorm.DB) *TournamentService {
	return &TournamentService{DB: db}
}

// CreateTournament creates a draft tournament from a multipart form
// (metadata plus an optional main photo uploaded to R2).
func (s *TournamentService) CreateTournament(c *fiber.Ctx) error {
	name := c.FormValue("name")
	description := c.FormValue("description")
	rules := c.FormValue("rules")
	venue := c.FormValue("venue")
	maxEntriesStr := c.FormValue("max_entries")
	entryFeeStr := c.FormValue("entry_fee")
	startTimeStr := c.FormValue("start_time")
	endTimeStr := c.FormValue("end_time")
	registrationByStr := c.FormValue("registration_by")

	if name == "" || startTimeStr == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name and start_time are required"})
	}

	maxEntries := 0
	if maxEntriesStr != "" {
		if n, err := strconv.Atoi(maxEntriesStr); err == nil && n >= 0 {
			maxEntries = n
		} else {
			return c.Status(400).JSON(fiber.Map{"error": "max_entries must be a non-negative integer"})
		}
	}

	entryFee := 0.0
	if entryFeeStr != "" {
		if f, err := strconv.ParseFloat(entryFeeStr, 64); err == nil && f >= 0 {
			entryFee = f
		} else {
			return c.Status(400).JSON(fiber.Map{"error": "entry_fee must be a non-negative number"})
		}
	}

	startTime, err := time.Parse(time.RFC3339, startTimeStr)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid start_time (use RFC3339)"})
	}

	var endTime time.Time
	if endTimeStr != "" {
		endTime, err = time.Parse(time.RFC3339, endTimeStr)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid end_time (use RFC3339)"})
		}
	}

	var registrationBy *time.Time
	if registrationByStr != "" {
		t, err := time.Parse(time.RFC3339, registrationByStr)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid registration_by (use RFC3339)"})
		}
		registrationBy = &t
	}

	// Slug must be unique; suffix on collision.
	base := slug.Make(name)
	tournamentSlug := base
	for i := 2; ; i++ {
		var count int64
		s.DB.Model(&models.Tournament{}).Where("slug = ?", tournamentSlug).Count(&count)
		if count == 0 {
			break
		}
		tournamentSlug = fmt.Sprintf("%s-%d", base, i)
	}

	var mainPhotoURL string
	if mainPhoto, err := c.FormFile("main_photo"); err == nil && mainPhoto.Size > 0 {
		ext := filepath.Ext(mainPhoto.Filename)
		if ext == "" {
			ext = ".jpg"
		}
		key := "tournaments/main/" + uuid.NewString() + ext
		url, err := utils.UploadFileToR2(mainPhoto, key)
		if err != nil {
			log.Printf("ERROR uploading tournament photo: %v", err)
			return c.Status(500).JSON(fiber.Map{"error": "failed to upload main photo"})
		}
		mainPhotoURL = url
	}

	tournament := &models.Tournament{
		ID:             uuid.NewString(),
		Slug:           tournamentSlug,
		Name:           name,
		Description:    description,
		Rules:          rules,
		Venue:          venue,
		MainPhotoURL:   mainPhotoURL,
		MaxEntries:     maxEntries,
		EntryFee:       entryFee,
		Status:         "draft",
		StartTime:      startTime,
		EndTime:        endTime,
		RegistrationBy: registrationBy,
	}
	if err := s.DB.Create(tournament).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB insert failed"})
	}
	return c.Status(201).JSON(tournament)
}

// GetAllTournaments lists tournaments with their entries.
func (s *TournamentService) GetAllTournaments(c *fiber.Ctx) error {
	var tournaments []models.Tournament
	err := s.DB.
		Preload("Entries").
		Order("start_time DESC").
		Find(&tournaments).Error
	if err != nil {
		log.Printf("ERROR fetching tournaments: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch tournaments"})
	}
	return c.JSON(tournaments)
}

// GetTournamentByID returns one tournament with entries, matches and
// computed capacity fields.
func (s *TournamentService) GetTournamentByID(c *fiber.Ctx) error {
	id := c.Params("id")
	var tournament models.Tournament
	err := s.DB.
		Preload("Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at DESC")
		}).
		Preload("Matches", func(db *gorm.DB) *gorm.DB {
			return db.Order("scheduled_at ASC")
		}).
		Preload("Matches.Judges").
		First(&tournament, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		log.Printf("ERROR fetching tournament %s: %v", id, err)
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	var entriesCount int64
	s.DB.Model(&models.TournamentEntry{}).
		Where("tournament_id = ? AND status = 'registered'", id).
		Count(&entriesCount)

	tournament.EntriesCount = entriesCount
	tournament.AvailableSlots = int64(tournament.MaxEntries) - entriesCount
	if tournament.MaxEntries <= 0 {
		tournament.AvailableSlots = -1 // unlimited
	}
	return c.JSON(&tournament)
}

// UpdateTournamentStatus moves a tournament through its lifecycle.
// PATCH /tournaments/:id/status
func (s *TournamentService) UpdateTournamentStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	type Req struct {
		Status string `json:"status"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	var updates map[string]interface{}
	switch req.Status {
	case "published":
		now := time.Now()
		updates = map[string]interface{}{"status": "published", "published_at": &now}
	case "draft":
		updates = map[string]interface{}{"status": "draft", "published_at": nil}
	case "active", "completed", "cancelled":
		updates = map[string]interface{}{"status": req.Status}
	default:
		return c.Status(400).JSON(fiber.Map{"error": "invalid status"})
	}

	result := s.DB.Model(&models.Tournament{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB update failed"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
	}

	var updated models.Tournament
	s.DB.First(&updated, "id = ?", id)
	return c.JSON(updated)
}

// DeleteTournament removes the tournament and everything under it.
func (s *TournamentService) DeleteTournament(c *fiber.Ctx) error {
	id := c.Params("id")
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var matchIDs []string
		if err := tx.Model(&models.Match{}).
			Where("tournament_id = ?", id).
			Pluck("id", &matchIDs).Error; err != nil {
			return err
		}
		if len(matchIDs) > 0 {
			if err := tx.Where("match_id IN ?", matchIDs).Delete(&models.ScoreRecord{}).Error; err != nil {
				return err
			}
			if err := tx.Where("match_id IN ?", matchIDs).Delete(&models.MatchJudge{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("tournament_id = ?", id).Delete(&models.Match{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tournament_id = ?", id).Delete(&models.TournamentEntry{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Tournament{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fiber.NewError(404, "tournament not found")
		}
		return nil
	})
}

// RegisterEntry subscribes a player or team into the tournament.
// POST /tournaments/:id/entries
func (s *TournamentService) RegisterEntry(c *fiber.Ctx) error {
	type Req struct {
		ExternalUserID string `json:"external_user_id"`
		DisplayName    string `json:"display_name"`
		TeamName       string `json:"team_name,omitempty"`
		Division       string `json:"division,omitempty"`
		AvatarURL      string `json:"avatar_url,omitempty"`
	}

	tournamentID := c.Params("id")
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.ExternalUserID == "" || req.DisplayName == "" {
		return c.Status(400).JSON(fiber.Map{"error": "external_user_id and display_name are required"})
	}

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", tournamentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error fetching tournament"})
	}
	if tournament.Status != "published" && tournament.Status != "active" {
		return c.Status(403).JSON(fiber.Map{"error": "tournament is not open for registration"})
	}
	if tournament.RegistrationBy != nil && tournament.RegistrationBy.Before(time.Now()) {
		return c.Status(403).JSON(fiber.Map{"error": "registration window has closed"})
	}

	var existing models.TournamentEntry
	if err := s.DB.Where("tournament_id = ? AND external_user_id = ?", tournamentID, req.ExternalUserID).
		First(&existing).Error; err == nil {
		return c.Status(409).JSON(fiber.Map{"error": "already registered", "entry": existing})
	}

	if tournament.MaxEntries > 0 {
		var count int64
		s.DB.Model(&models.TournamentEntry{}).
			Where("tournament_id = ? AND status = 'registered'", tournamentID).
			Count(&count)
		if int(count) >= tournament.MaxEntries {
			return c.Status(403).JSON(fiber.Map{"error": "tournament is full"})
		}
	}

	var avatarURL *string
	if req.AvatarURL != "" {
		avatarURL = &req.AvatarURL
	}
	entry := models.TournamentEntry{
		ID:             uuid.NewString(),
		TournamentID:   tournamentID,
		ExternalUserID: req.ExternalUserID,
		DisplayName:    utils.NormalizeDisplayName(req.DisplayName),
		TeamName:       req.TeamName,
		Division:       req.Division,
		AvatarURL:      avatarURL,
		Status:         "registered",
		JoinedAt:       time.Now(),
	}
	if err := s.DB.Create(&entry).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to register entry", "details": err.Error()})
	}
	return c.Status(201).JSON(entry)
}

// ListEntries returns a tournament's registrations.
// GET /tournaments/:id/entries
func (s *TournamentService) ListEntries(c *fiber.Ctx) error {
	var entries []models.TournamentEntry
	if err := s.DB.Where("tournament_id = ?", c.Params("id")).
		Order("joined_at DESC").
		Find(&entries).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch entries"})
	}
	return c.JSON(entries)
}

// WithdrawEntry marks a registration withdrawn.
// POST /tournaments/:tournament_id/entries/:user_id/withdraw
func (s *TournamentService) WithdrawEntry(c *fiber.Ctx) error {
	result := s.DB.Model(&models.TournamentEntry{}).
		Where("tournament_id = ? AND external_user_id = ? AND status = 'registered'",
			c.Params("tournament_id"), c.Params("user_id")).
		Update("status", "withdrawn")
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "entry not found"})
	}
	return c.JSON(fiber.Map{"message": "entry withdrawn"})
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"karate-tournament-system/models"
	"karate-tournament-system/scoring"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ScoreService owns the live scoring flow: it backs the scoring.Store
// boundary with Postgres, keeps one ledger per match in progress, and
// recomputes aggregates + winner after every mutation.
type ScoreService struct {
	DB *gorm.DB

	mu      sync.Mutex
	ledgers map[string]*cachedLedger
}

// cachedLedger tracks when a match's scoring session was last touched so
// abandoned matches can be evicted instead of pinning memory until restart.
type cachedLedger struct {
	ledger   *scoring.Ledger
	lastUsed time.Time
}

func NewScoreService(db *gorm.DB) *ScoreService {
	return &ScoreService{
		DB:      db,
		ledgers: make(map[string]*cachedLedger),
	}
}

// --- scoring.Store implementation ---

func (s *ScoreService) GetMatchScores(ctx context.Context, matchID string) ([]scoring.StoredScore, error) {
	var records []models.ScoreRecord
	if err := s.DB.WithContext(ctx).
		Where("match_id = ?", matchID).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("fetch score records: %w", err)
	}

	out := make([]scoring.StoredScore, 0, len(records))
	for _, r := range records {
		out = append(out, scoring.StoredScore{
			MatchID:       r.MatchID,
			JudgeID:       r.JudgeID,
			ParticipantID: r.ParticipantID,
			Yuko:          r.Yuko,
			WazaAri:       r.WazaAri,
			Ippon:         r.Ippon,
			Chukoku:       r.Chukoku,
			Keikoku:       r.Keikoku,
			HansokuChui:   r.HansokuChui,
			Hansoku:       r.Hansoku,
			FirstScoreAt:  r.FirstScoreAt,
		})
	}
	return out, nil
}

func (s *ScoreService) SubmitScore(ctx context.Context, sc scoring.StoredScore) error {
	record := models.ScoreRecord{
		MatchID:       sc.MatchID,
		JudgeID:       sc.JudgeID,
		ParticipantID: sc.ParticipantID,
		Yuko:          sc.Yuko,
		WazaAri:       sc.WazaAri,
		Ippon:         sc.Ippon,
		Chukoku:       sc.Chukoku,
		Keikoku:       sc.Keikoku,
		HansokuChui:   sc.HansokuChui,
		Hansoku:       sc.Hansoku,
		FirstScoreAt:  sc.FirstScoreAt,
	}
	if err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "match_id"}, {Name: "judge_id"}, {Name: "participant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"yuko", "waza_ari", "ippon",
			"chukoku", "keikoku", "hansoku_chui", "hansoku",
			"first_score_at", "updated_at",
		}),
	}).Create(&record).Error; err != nil {
		return fmt.Errorf("upsert score record: %w", err)
	}
	return nil
}

// --- ledger management ---

// LedgerFor returns the in-memory ledger for a match, loading it from
// storage on first use. Callers holding a push/live event should use
// ReloadLedger instead so the snapshot is rebuilt, never patched.
func (s *ScoreService) LedgerFor(ctx context.Context, match *models.Match) (*scoring.Ledger, error) {
	s.mu.Lock()
	c, ok := s.ledgers[match.ID]
	if ok {
		c.lastUsed = time.Now()
	}
	s.mu.Unlock()
	if ok {
		return c.ledger, nil
	}
	return s.loadLedger(ctx, match)
}

// ReloadLedger refreshes the match ledger from storage in place. The
// cached instance is never swapped out: replacing it would abandon the
// in-flight guard of a judge's pending submission, and the replacement
// (loaded before that commit) would let the judge's next tap overwrite
// it. When a submission is pending, the in-memory state is ahead of
// storage anyway, so it is served as-is.
func (s *ScoreService) ReloadLedger(ctx context.Context, match *models.Match) (*scoring.Ledger, error) {
	s.mu.Lock()
	c, ok := s.ledgers[match.ID]
	if ok {
		c.lastUsed = time.Now()
	}
	s.mu.Unlock()
	if !ok {
		return s.loadLedger(ctx, match)
	}

	if err := c.ledger.Reload(ctx, judgeIDs(match), []string{match.RedID, match.BlueID}); err != nil {
		if errors.Is(err, scoring.ErrSubmissionInFlight) {
			log.Printf("🔁 Reload for match %s deferred, submission in flight", match.ID)
			return c.ledger, nil
		}
		return nil, err
	}
	return c.ledger, nil
}

// loadLedger builds a fresh ledger from storage and caches it, keeping
// an already-cached instance if another request loaded one first.
func (s *ScoreService) loadLedger(ctx context.Context, match *models.Match) (*scoring.Ledger, error) {
	ledger := scoring.NewLedger(s, match.ID)
	if err := ledger.Load(ctx, judgeIDs(match), []string{match.RedID, match.BlueID}); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.ledgers[match.ID]; ok {
		c.lastUsed = time.Now()
		return c.ledger, nil
	}
	s.ledgers[match.ID] = &cachedLedger{ledger: ledger, lastUsed: time.Now()}
	return ledger, nil
}

func judgeIDs(match *models.Match) []string {
	ids := make([]string, 0, len(match.Judges))
	for _, j := range match.Judges {
		ids = append(ids, j.JudgeID)
	}
	return ids
}

// DropLedger clears a finished match's scoring session.
func (s *ScoreService) DropLedger(matchID string) {
	s.mu.Lock()
	delete(s.ledgers, matchID)
	s.mu.Unlock()
}

// EvictIdleLedgers drops scoring sessions untouched for longer than
// maxIdle. Finalize and delete already drop their ledgers; this catches
// matches abandoned mid-scoring. A session with a submission in flight
// was touched moments ago, so it is never idle enough to evict. Returns
// the number evicted.
func (s *ScoreService) EvictIdleLedgers(maxIdle time.Duration) int {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, c := range s.ledgers {
		if now.Sub(c.lastUsed) > maxIdle {
			delete(s.ledgers, id)
			evicted++
		}
	}
	return evicted
}

// Scoreboard is the live view of a match: both corners' aggregates and
// the current winner decision. Recomputed in full on every read.
type Scoreboard struct {
	MatchID string                  `json:"match_id"`
	Status  string                  `json:"status"`
	Red     scoring.AggregatedScore `json:"red"`
	Blue    scoring.AggregatedScore `json:"blue"`
	Outcome scoring.Outcome         `json:"outcome"`
}

// BuildScoreboard aggregates the ledger snapshot and resolves the winner.
func (s *ScoreService) BuildScoreboard(ctx context.Context, match *models.Match) (*Scoreboard, error) {
	ledger, err := s.LedgerFor(ctx, match)
	if err != nil {
		return nil, err
	}
	return scoreboardFrom(match, ledger.Snapshot()), nil
}

// SnapshotScoreboard builds a scoreboard from a throwaway ledger loaded
// straight from storage, leaving the cached scoring ledger untouched.
// The live stream polls through here so spectator refreshes can never
// disturb a judge's in-flight submission.
func (s *ScoreService) SnapshotScoreboard(ctx context.Context, match *models.Match) (*Scoreboard, error) {
	ledger := scoring.NewLedger(s, match.ID)
	if err := ledger.Load(ctx, judgeIDs(match), []string{match.RedID, match.BlueID}); err != nil {
		return nil, err
	}
	return scoreboardFrom(match, ledger.Snapshot()), nil
}

func scoreboardFrom(match *models.Match, snap []scoring.Entry) *Scoreboard {
	red := scoring.Aggregate(snap, match.RedID)
	blue := scoring.Aggregate(snap, match.BlueID)
	return &Scoreboard{
		MatchID: match.ID,
		Status:  match.Status,
		Red:     red,
		Blue:    blue,
		Outcome: scoring.Resolve(red, blue),
	}
}

func (s *ScoreService) fetchMatch(id string) (*models.Match, error) {
	var match models.Match
	err := s.DB.Preload("Judges").First(&match, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// --- handlers ---

// RecordAction handles a judge tapping a scoring action.
// POST /matches/:id/actions  {"participant_id": "...", "action": "yuko" | "penalty:1:keikoku", "delta": 1}
func (s *ScoreService) RecordAction(c *fiber.Ctx) error {
	type Req struct {
		ParticipantID string `json:"participant_id"`
		Action        string `json:"action"`
		Delta         int    `json:"delta"`
	}

	matchID := c.Params("id")
	judgeID, _ := c.Locals("user_id").(string)
	if judgeID == "" {
		return c.Status(401).JSON(fiber.Map{"error": "missing user context"})
	}

	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.Delta == 0 {
		req.Delta = 1
	}

	action, err := scoring.ParseAction(req.Action)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	match, err := s.fetchMatch(matchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "match not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error fetching match"})
	}
	if match.Status == models.MatchStatusCompleted {
		return c.Status(409).JSON(fiber.Map{"error": "match is already completed"})
	}
	if req.ParticipantID != match.RedID && req.ParticipantID != match.BlueID {
		return c.Status(400).JSON(fiber.Map{"error": "participant_id is not a corner of this match"})
	}

	assigned := false
	for _, j := range match.Judges {
		if j.JudgeID == judgeID {
			assigned = true
			break
		}
	}
	if !assigned {
		return c.Status(403).JSON(fiber.Map{"error": "judge is not assigned to this match"})
	}

	ledger, err := s.LedgerFor(c.Context(), match)
	if err != nil {
		log.Printf("ERROR loading ledger for match %s: %v", matchID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to load match scores"})
	}

	entry, err := ledger.RecordAction(c.Context(), judgeID, req.ParticipantID, action, req.Delta)
	if err != nil {
		if errors.Is(err, scoring.ErrJudgeBusy) {
			return c.Status(429).JSON(fiber.Map{"error": "previous scoring action still in flight"})
		}
		if errors.Is(err, scoring.ErrReloading) {
			return c.Status(429).JSON(fiber.Map{"error": "score refresh in progress, retry"})
		}
		log.Printf("ERROR recording %s for judge %s on match %s: %v", req.Action, judgeID, matchID, err)
		return c.Status(500).JSON(fiber.Map{
			"error": "score submission failed, the action was not counted — retry",
		})
	}

	board, err := s.BuildScoreboard(c.Context(), match)
	if err != nil {
		log.Printf("ERROR building scoreboard for match %s: %v", matchID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to compute scoreboard"})
	}

	return c.JSON(fiber.Map{
		"entry":      entry,
		"scoreboard": board,
	})
}

// GetScoreboard returns both corners' aggregates and the current outcome.
// GET /matches/:id/scoreboard
func (s *ScoreService) GetScoreboard(c *fiber.Ctx) error {
	match, err := s.fetchMatch(c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "match not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error fetching match"})
	}

	board, err := s.BuildScoreboard(c.Context(), match)
	if err != nil {
		log.Printf("ERROR building scoreboard for match %s: %v", match.ID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to compute scoreboard"})
	}
	return c.JSON(board)
}

// GetMatchScoreEntries returns the raw per-judge ledger, mostly for the
// judge dashboard.
// GET /matches/:id/scores
func (s *ScoreService) GetMatchScoreEntries(c *fiber.Ctx) error {
	match, err := s.fetchMatch(c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "match not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error fetching match"})
	}

	ledger, err := s.LedgerFor(c.Context(), match)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load match scores"})
	}
	return c.JSON(fiber.Map{"match_id": match.ID, "entries": ledger.Snapshot()})
}

// RefreshScores re-runs the full load → aggregate → resolve cycle from
// storage. Dashboards call this when another judge's score arrives on the
// live channel; deltas are never merged locally.
// POST /matches/:id/scores/refresh
func (s *ScoreService) RefreshScores(c *fiber.Ctx) error {
	match, err := s.fetchMatch(c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "match not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error fetching match"})
	}

	if _, err := s.ReloadLedger(c.Context(), match); err != nil {
		log.Printf("ERROR reloading ledger for match %s: %v", match.ID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to reload match scores"})
	}

	board, err := s.BuildScoreboard(c.Context(), match)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to compute scoreboard"})
	}
	return c.JSON(board)
}

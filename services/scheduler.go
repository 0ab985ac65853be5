// services/scheduler.go
package services

import (
	"log"
	"time"

	"karate-tournament-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartMatchScheduler flips scheduled matches to in_progress once their
// start time passes, so tatami dashboards open for scoring without an
// organizer tap.
func (s *MatchService) StartMatchScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			var matches []models.Match
			now := time.Now()
			err := s.DB.Where("status = ? AND scheduled_at <= ?", models.MatchStatusScheduled, now).
				Find(&matches).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}

			for _, m := range matches {
				if err := s.DB.Model(&m).Update("status", models.MatchStatusInProgress).Error; err != nil {
					log.Printf("[Scheduler] Failed to start match %s: %v", m.ID, err)
				} else {
					log.Printf("✅ Auto-started match: %s (%s vs %s)", m.Name, m.RedName, m.BlueName)
				}
			}
		}),
	)

	// Scoring sessions for matches nobody finalized would otherwise sit
	// in memory until restart.
	_, _ = sched.NewJob(
		gocron.DurationJob(15*time.Minute),
		gocron.NewTask(func() {
			if n := s.Scores.EvictIdleLedgers(2 * time.Hour); n > 0 {
				log.Printf("🔁 [Scheduler] Evicted %d idle scoring session(s)", n)
			}
		}),
	)
}

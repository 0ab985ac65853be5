package services

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"karate-tournament-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// StreamMatchScoreboardSSE pushes live scoreboard snapshots for a match.
// Every tick re-runs the full load → aggregate → resolve cycle from
// storage, so a judge's tap on another device shows up as a complete
// snapshot rather than a merged delta. The stream closes when the client
// disconnects or the match completes.
// GET /matches/:id/live
func (s *ScoreService) StreamMatchScoreboardSSE(c *fiber.Ctx) error {
	matchID := c.Params("id")

	var match models.Match
	if err := s.DB.Preload("Judges").First(&match, "id = ?", matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "match not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error fetching match"})
	}

	// SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	ctx := c.Context()

	// Use fasthttp stream writer (THIS replaces Flush)
	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		var lastPayload []byte

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		w.Flush()

		for {
			select {
			case <-ticker.C:
				// Match status may have moved under us (finalize, edits).
				if err := s.DB.Preload("Judges").First(&match, "id = ?", matchID).Error; err != nil {
					log.Printf("SSE match reload error for %s: %v", matchID, err)
					continue
				}

				// Read-only snapshot from storage; the scoring ledger
				// judges submit through is left alone.
				board, err := s.SnapshotScoreboard(ctx, &match)
				if err != nil {
					log.Printf("SSE scoreboard error for match %s: %v", matchID, err)
					continue
				}

				payload, _ := json.Marshal(board)
				if bytes.Equal(payload, lastPayload) {
					// Nothing changed; keep the connection warm.
					w.WriteString(":\n\n")
					if err := w.Flush(); err != nil {
						return
					}
					continue
				}
				lastPayload = payload

				fmt.Fprintf(w, "event: scoreboard\ndata: %s\n\n", payload)
				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}

				if match.Status == models.MatchStatusCompleted {
					fmt.Fprintf(w, "event: completed\ndata: %s\n\n", payload)
					w.Flush()
					return
				}

			case <-ctx.Done():
				// Client closed connection
				return
			}
		}
	})

	return nil
}

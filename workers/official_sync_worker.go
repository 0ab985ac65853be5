// workers/official_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"karate-tournament-system/models"
	"karate-tournament-system/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileFromSyncService matches the JSON response of the profile
// service's public profiles endpoint.
type ProfileFromSyncService struct {
	ExternalID string     `json:"external_id"`
	Username   string     `json:"username"`
	FirstName  *string    `json:"first_name,omitempty"`
	LastName   *string    `json:"last_name,omitempty"`
	Role       string     `json:"role"`
	AvatarURL  *string    `json:"profile_picture_url,omitempty"`
	Dojo       *string    `json:"dojo,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

type profileChangesResponse struct {
	Profiles []ProfileFromSyncService `json:"profiles"`
}

// OfficialSyncWorker mirrors judge/coach/player identity data from the
// profile service into official_profiles, so dashboards and judge panels
// render names without cross-service calls on the hot path.
type OfficialSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string
	endpointPath string
	serviceToken string
	httpClient   *http.Client
}

func NewOfficialSyncWorker(db *gorm.DB, profileServiceBaseURL, endpointPath, serviceToken string) *OfficialSyncWorker {
	return &OfficialSyncWorker{
		db:           db,
		interval:     1 * time.Minute,
		baseURL:      profileServiceBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *OfficialSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Official Sync Worker (profile service → official_profiles)…")

	// Initial backfill from the beginning of time.
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial official sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.syncBatch(ctx, w.lastSyncTime()); err != nil {
				log.Printf("❌ Official sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Official Sync Worker stopped")
			return
		}
	}
}

// lastSyncTime is the most recent UpdatedAt in the local mirror.
func (w *OfficialSyncWorker) lastSyncTime() time.Time {
	var lastTime time.Time
	err := w.db.Raw("SELECT MAX(updated_at) FROM official_profiles WHERE deleted_at IS NULL").Scan(&lastTime).Error
	if err != nil || lastTime.IsZero() {
		return time.Unix(0, 0)
	}
	return lastTime
}

func (w *OfficialSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid profile service URL %q: %w", w.baseURL, err)
	}
	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpointURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", endpointURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create sync request: %w", err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request to profile service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("profile service non-200 response: %d — %s", resp.StatusCode, string(body))
	}

	var response profileChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode profile service response: %w", err)
	}
	if len(response.Profiles) == 0 {
		return nil
	}

	log.Printf("[SYNC] 📥 Processing %d profile(s) from profile service…", len(response.Profiles))

	var upsertCount, errorCount int
	for _, remote := range response.Profiles {
		displayName := remote.Username
		if remote.FirstName != nil && remote.LastName != nil {
			displayName = utils.NormalizeDisplayName(*remote.FirstName + " " + *remote.LastName)
		}
		role := remote.Role
		if role == "" {
			role = "player"
		}

		local := models.OfficialProfile{
			ExternalUserID: remote.ExternalID,
			Username:       remote.Username,
			DisplayName:    displayName,
			Role:           role,
			AvatarURL:      remote.AvatarURL,
			Dojo:           remote.Dojo,
			CreatedAt:      remote.CreatedAt,
			UpdatedAt:      remote.UpdatedAt,
		}

		if err := w.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"username", "display_name", "role", "avatar_url", "dojo",
				"created_at", "updated_at",
			}),
		}).Create(&local).Error; err != nil {
			errorCount++
			log.Printf("[SYNC] ⚠️ Failed to upsert official_profile (external_id=%q): %v", remote.ExternalID, err)
		} else {
			upsertCount++
		}
	}

	log.Printf("[SYNC] ✅ Synced %d profiles (%d upserted, %d errors)", len(response.Profiles), upsertCount, errorCount)
	return nil
}

package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sodematha/mathasvc/internal/domain"
)

const maxListedFailures = 10

// DiscordService implements NotificationService for Discord webhooks
type DiscordService struct {
	log        zerolog.Logger
	webhookURL string
	httpClient *http.Client
	now        func() time.Time
}

// NewDiscordService creates a new Discord notification service
func NewDiscordService(log zerolog.Logger, webhookURL string) *DiscordService {
	return &DiscordService{
		log:        log.With().Str("module", "notification").Str("type", "discord").Logger(),
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

// SendSuccess posts the sync summary
func (s *DiscordService) SendSuccess(ctx context.Context, stats domain.SyncStatistics) error {
	if s.webhookURL == "" {
		return nil
	}

	title := "Stotra sync completed"
	color := 0x00ff00
	if stats.Failed > 0 {
		title = "Stotra sync completed with failures"
		color = 0xffa500
	}

	fields := []discordField{
		{
			Name:   "Catalog",
			Value:  fmt.Sprintf("%d items, %d bundled", stats.TotalItems, stats.BundledItems),
			Inline: true,
		},
		{
			Name:   "Offline Coverage",
			Value:  fmt.Sprintf("%d/%d (%.1f%%)", stats.AlreadyPresent+stats.Downloaded, stats.CloudItems(), stats.CoveragePercent()),
			Inline: true,
		},
		{
			Name:   "Downloaded",
			Value:  fmt.Sprintf("%d new, %d already present", stats.Downloaded, stats.AlreadyPresent),
			Inline: false,
		},
		{
			Name:   "Cache Size",
			Value:  humanize.Bytes(uint64(stats.BytesOnDisk)),
			Inline: true,
		},
	}
	if stats.Failed > 0 {
		fields = append(fields, discordField{
			Name:   "Failed",
			Value:  fmt.Sprintf("%d: %s", stats.Failed, listIDs(stats.FailedIDs)),
			Inline: false,
		})
	}

	return s.sendWebhook(ctx, discordWebhook{
		Embeds: []discordEmbed{{
			Title:     title,
			Color:     color,
			Timestamp: s.now().Format(time.RFC3339),
			Fields:    fields,
		}},
	})
}

// SendError sends an error notification with error details
func (s *DiscordService) SendError(ctx context.Context, err error) error {
	if s.webhookURL == "" {
		return nil
	}

	return s.sendWebhook(ctx, discordWebhook{
		Embeds: []discordEmbed{{
			Title:       "Stotra sync failed",
			Description: fmt.Sprintf("Sync failed with error:\n```%s```", err.Error()),
			Color:       0xff0000,
			Timestamp:   s.now().Format(time.RFC3339),
		}},
	})
}

func listIDs(ids []string) string {
	if len(ids) <= maxListedFailures {
		return strings.Join(ids, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(ids[:maxListedFailures], ", "), len(ids)-maxListedFailures)
}

func (s *DiscordService) sendWebhook(ctx context.Context, payload discordWebhook) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal webhook payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return errors.Wrap(err, "failed to create webhook request")
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send webhook request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook request failed with status %d", resp.StatusCode)
	}

	s.log.Debug().Msg("Discord notification sent")
	return nil
}

type discordWebhook struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Fields      []discordField `json:"fields,omitempty"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

package notification

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/sodematha/mathasvc/internal/domain"
)

// Service fans notifications out to the configured channels. With no
// channel configured every call is a no-op.
type Service struct {
	discord *DiscordService
}

func NewService(log zerolog.Logger, webhookURL string) domain.NotificationService {
	var discord *DiscordService
	if webhookURL != "" {
		discord = NewDiscordService(log, webhookURL)
	}

	return &Service{
		discord: discord,
	}
}

func (s *Service) SendSuccess(ctx context.Context, stats domain.SyncStatistics) error {
	if s.discord != nil {
		return s.discord.SendSuccess(ctx, stats)
	}
	return nil
}

func (s *Service) SendError(ctx context.Context, err error) error {
	if s.discord != nil {
		return s.discord.SendError(ctx, err)
	}
	return nil
}

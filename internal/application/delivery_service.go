package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"rssdigest/internal/domain/entity"
	"rssdigest/internal/domain/message"
	"rssdigest/internal/domain/repository"
)

type DeliveryConfig struct {
	// Limit is the maximum escaped length of one message, annotation included.
	Limit int
	// Pacing is the idle gap between one send returning and the next starting.
	Pacing time.Duration
}

// DeliveryService escapes, splits and sends a digest in order.
type DeliveryService struct {
	messageRepo repository.MessageRepository
	limit       int
	pacing      time.Duration
	logger      zerolog.Logger
}

func NewDeliveryService(messageRepo repository.MessageRepository, cfg DeliveryConfig, logger zerolog.Logger) *DeliveryService {
	limit := cfg.Limit
	if limit == 0 {
		limit = message.DefaultLimit
	}
	return &DeliveryService{
		messageRepo: messageRepo,
		limit:       limit,
		pacing:      cfg.Pacing,
		logger:      logger,
	}
}

// Deliver sends text to chatTarget as one or more chunks. A failed chunk is
// logged and recorded; later chunks are still attempted. The error is non-nil
// only when text cannot be chunked or ctx ends.
func (s *DeliveryService) Deliver(ctx context.Context, chatTarget, text string) (entity.DeliveryReport, error) {
	var report entity.DeliveryReport

	chunks, err := message.Chunk(text, s.limit)
	if err != nil {
		return report, fmt.Errorf("failed to chunk message: %w", err)
	}

	for i, chunk := range chunks {
		if i > 0 && s.pacing > 0 {
			if err := pause(ctx, s.pacing); err != nil {
				return report, fmt.Errorf("delivery interrupted before chunk %d/%d: %w", chunk.Index, chunk.Total, err)
			}
		}

		err := s.messageRepo.Send(ctx, chatTarget, chunk.Body)
		report.Record(chunk.Index, err)
		if err != nil {
			s.logger.Error().Err(err).Int("chunk", chunk.Index).Int("total", chunk.Total).Msg("failed to send chunk")
			continue
		}
		s.logger.Debug().Int("chunk", chunk.Index).Int("total", chunk.Total).Int("length", len([]rune(chunk.Body))).Msg("chunk sent")
	}

	s.logger.Info().Int("delivered", report.Delivered).Int("failed", report.Failed).Msg("delivery finished")
	return report, nil
}

// pause waits d or until ctx ends.
func pause(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/burakmert236/scrimsignups/common/errors"
	commonevents "github.com/burakmert236/scrimsignups/common/events"
	"github.com/burakmert236/scrimsignups/common/models"
	signuperrors "github.com/burakmert236/scrimsignups/services/signup-service/internal/errors"
	"github.com/burakmert236/scrimsignups/services/signup-service/internal/identity"
	"github.com/burakmert236/scrimsignups/services/signup-service/internal/metrics"
)

type ScrimService interface {
	CreateScrim(ctx context.Context, actorId, channelId string, scheduledTime time.Time) (*models.Scrim, error)
	CloseScrim(ctx context.Context, actorId, channelId string) error
	// WarmUp loads every active scrim into the roster cache and returns how many it found.
	WarmUp(ctx context.Context) (int, error)
	// ApplyScrimEvent mirrors scrim lifecycle changes made by other replicas.
	ApplyScrimEvent(ctx context.Context, subject string, scrim *models.Scrim) error
}

type scrimService struct {
	*core
}

func NewScrimService(d Dependencies) ScrimService {
	return &scrimService{core: newCore(d, "scrim-service")}
}

func (s *scrimService) CreateScrim(ctx context.Context, actorId, channelId string, scheduledTime time.Time) (scrim *models.Scrim, err error) {
	defer func(start time.Time) { metrics.ObserveOp("createScrim", start, err) }(time.Now())

	if channelId == "" {
		return nil, signuperrors.InvalidInput("channel id is required")
	}
	if scheduledTime.IsZero() {
		return nil, signuperrors.InvalidInput("scheduled time is required")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	decision, err := s.authorize(ctx, actorId, identity.ActionManageScrim, nil)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, signuperrors.NotAuthorized()
	}

	now := s.now()
	scrim = &models.Scrim{
		ScrimId:       uuid.NewString(),
		ChannelId:     channelId,
		ScheduledTime: scheduledTime.UTC(),
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repos.Scrims.Create(ctx, scrim); err != nil {
		if apperrors.HasCode(err, apperrors.CodeConflict) {
			return nil, signuperrors.ScrimAlreadyActive(channelId)
		}
		return nil, signuperrors.PersistenceFailure(err)
	}

	if err := s.cache.CreateScrim(ctx, channelId, scrim); err != nil {
		s.logger.Warn("Roster cache write failed", "channel_id", channelId, "error", err)
	}
	s.cacheTeams(ctx, scrim.ScrimId, []models.Team{})
	metrics.AddActiveScrims(1)

	s.logger.Info("Scrim created",
		"scrim_id", scrim.ScrimId,
		"channel_id", channelId,
		"scheduled_time", scrim.ScheduledTime,
	)

	if err := s.publisher.PublishScrimEvent(ctx, commonevents.ScrimCreated, scrim); err != nil {
		return scrim, signuperrors.AnnouncementFailure(err)
	}
	return scrim, nil
}

func (s *scrimService) CloseScrim(ctx context.Context, actorId, channelId string) (err error) {
	defer func(start time.Time) { metrics.ObserveOp("closeScrim", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	decision, err := s.authorize(ctx, actorId, identity.ActionManageScrim, nil)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return signuperrors.NotAuthorized()
	}

	scrim, err := s.activeScrim(ctx, channelId)
	if err != nil {
		return err
	}

	release, err := s.lockActive(ctx, scrim)
	if err != nil {
		return err
	}
	defer release()

	if err := s.repos.Scrims.Deactivate(ctx, scrim); err != nil {
		return signuperrors.PersistenceFailure(err)
	}

	if err := s.cache.RemoveScrim(ctx, channelId); err != nil {
		s.logger.Warn("Roster cache write failed", "channel_id", channelId, "error", err)
	}
	metrics.AddActiveScrims(-1)

	s.logger.Info("Scrim closed", "scrim_id", scrim.ScrimId, "channel_id", channelId)

	closed := *scrim
	closed.Active = false
	if err := s.publisher.PublishScrimEvent(ctx, commonevents.ScrimClosed, &closed); err != nil {
		return signuperrors.AnnouncementFailure(err)
	}
	return nil
}

func (s *scrimService) WarmUp(ctx context.Context) (int, error) {
	scrims, err := s.repos.Scrims.GetActiveScrims(ctx)
	if err != nil {
		return 0, signuperrors.PersistenceFailure(err)
	}

	for i := range scrims {
		if err := s.cache.CreateScrim(ctx, scrims[i].ChannelId, &scrims[i]); err != nil {
			return 0, apperrors.Wrap(err, apperrors.CodeRedisOperationError, "failed to warm roster cache")
		}
	}

	metrics.SetActiveScrims(len(scrims))
	s.logger.Info("Roster cache warmed", "active_scrims", len(scrims))

	return len(scrims), nil
}

func (s *scrimService) ApplyScrimEvent(ctx context.Context, subject string, scrim *models.Scrim) error {
	if scrim == nil || scrim.ChannelId == "" {
		return signuperrors.InvalidInput("scrim event without a channel")
	}

	switch subject {
	case commonevents.ScrimCreated:
		current, ok, err := s.cache.GetScrim(ctx, scrim.ChannelId)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeRedisOperationError, "failed to read roster cache")
		}
		if ok && current.ScrimId == scrim.ScrimId {
			return nil
		}
		if err := s.cache.CreateScrim(ctx, scrim.ChannelId, scrim); err != nil {
			return apperrors.Wrap(err, apperrors.CodeRedisOperationError, "failed to update roster cache")
		}
	case commonevents.ScrimClosed:
		current, ok, err := s.cache.GetScrim(ctx, scrim.ChannelId)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeRedisOperationError, "failed to read roster cache")
		}
		// a newer scrim may already occupy the channel
		if !ok || current.ScrimId != scrim.ScrimId {
			return nil
		}
		if err := s.cache.RemoveScrim(ctx, scrim.ChannelId); err != nil {
			return apperrors.Wrap(err, apperrors.CodeRedisOperationError, "failed to update roster cache")
		}
	default:
		s.logger.Debug("Ignoring scrim event", "subject", subject)
		return nil
	}

	s.logger.Debug("Applied scrim event", "subject", subject, "scrim_id", scrim.ScrimId)
	return nil
}

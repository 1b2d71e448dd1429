package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/burakmert236/scrimsignups/common/models"
	signuperrors "github.com/burakmert236/scrimsignups/services/signup-service/internal/errors"
	"github.com/burakmert236/scrimsignups/services/signup-service/internal/identity"
	"github.com/burakmert236/scrimsignups/services/signup-service/internal/metrics"
)

type PriorityService interface {
	AddPriority(ctx context.Context, actorId string, entry models.PriorityEntry) (*models.PriorityEntry, error)
	ExpungePriority(ctx context.Context, actorId string, priorityIds []string) (int64, error)
	ListPriority(ctx context.Context, at time.Time) ([]models.PriorityEntry, error)
	// ExpungeExpired drops entries whose window has already closed.
	ExpungeExpired(ctx context.Context) (int64, error)
}

type priorityService struct {
	*core
}

func NewPriorityService(d Dependencies) PriorityService {
	return &priorityService{core: newCore(d, "priority-service")}
}

func (s *priorityService) AddPriority(ctx context.Context, actorId string, entry models.PriorityEntry) (created *models.PriorityEntry, err error) {
	defer func(start time.Time) { metrics.ObserveOp("addPriority", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.requirePriorityAdmin(ctx, actorId); err != nil {
		return nil, err
	}

	entry.Reason = strings.TrimSpace(entry.Reason)
	switch {
	case entry.ExternalId == "":
		return nil, signuperrors.InvalidInput("player id is required")
	case entry.Reason == "":
		return nil, signuperrors.InvalidInput("a reason is required")
	case entry.Amount == 0:
		return nil, signuperrors.InvalidInput("amount must be non-zero")
	case !entry.StartDate.Before(entry.EndDate):
		return nil, signuperrors.InvalidInput("start date must be before end date")
	}

	entry.PriorityId = uuid.NewString()
	entry.StartDate = entry.StartDate.UTC()
	entry.EndDate = entry.EndDate.UTC()

	if err := s.repos.Priority.Create(ctx, &entry); err != nil {
		return nil, signuperrors.PersistenceFailure(err)
	}

	s.logger.Info("Priority entry added",
		"priority_id", entry.PriorityId,
		"external_id", entry.ExternalId,
		"amount", entry.Amount,
		"actor", actorId,
	)
	return &entry, nil
}

func (s *priorityService) ExpungePriority(ctx context.Context, actorId string, priorityIds []string) (removed int64, err error) {
	defer func(start time.Time) { metrics.ObserveOp("expungePriority", start, err) }(time.Now())

	if len(priorityIds) == 0 {
		return 0, signuperrors.InvalidInput("at least one priority id is required")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.requirePriorityAdmin(ctx, actorId); err != nil {
		return 0, err
	}

	removed, err = s.repos.Priority.Delete(ctx, priorityIds)
	if err != nil {
		return 0, signuperrors.PersistenceFailure(err)
	}

	s.logger.Info("Priority entries expunged", "requested", len(priorityIds), "removed", removed, "actor", actorId)
	return removed, nil
}

func (s *priorityService) ListPriority(ctx context.Context, at time.Time) ([]models.PriorityEntry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	entries, err := s.repos.Priority.GetOverlapping(ctx, at)
	if err != nil {
		return nil, signuperrors.PersistenceFailure(err)
	}
	return entries, nil
}

func (s *priorityService) ExpungeExpired(ctx context.Context) (int64, error) {
	removed, err := s.repos.Priority.DeleteEndedBefore(ctx, s.now())
	if err != nil {
		return 0, signuperrors.PersistenceFailure(err)
	}
	if removed > 0 {
		s.logger.Info("Expired priority entries removed", "removed", removed)
	}
	return removed, nil
}

func (s *priorityService) requirePriorityAdmin(ctx context.Context, actorId string) error {
	decision, err := s.authorize(ctx, actorId, identity.ActionManagePriority, nil)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return signuperrors.NotAuthorized()
	}
	return nil
}

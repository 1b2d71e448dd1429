package scheduler

import (
	"context"

	"github.com/burakmert236/scrimsignups/common/logger"
	"github.com/burakmert236/scrimsignups/services/signup-service/internal/service"
)

// PriorityExpunger removes priority entries whose window has already ended.
type PriorityExpunger struct {
	priorityService service.PriorityService
	logger          *logger.Logger
}

func NewPriorityExpunger(priorityService service.PriorityService, log *logger.Logger) *PriorityExpunger {
	return &PriorityExpunger{
		priorityService: priorityService,
		logger:          log.With("component", "priority-expunger"),
	}
}

func (p *PriorityExpunger) Name() string {
	return "priority-expunge"
}

func (p *PriorityExpunger) Run(ctx context.Context) error {
	removed, err := p.priorityService.ExpungeExpired(ctx)
	if err != nil {
		return err
	}

	if removed > 0 {
		p.logger.Info("Expunged ended priority entries", "removed", removed)
	}
	return nil
}

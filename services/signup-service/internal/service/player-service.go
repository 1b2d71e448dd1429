package service

import (
	"context"
	"time"

	"github.com/burakmert236/scrimsignups/common/models"
	signuperrors "github.com/burakmert236/scrimsignups/services/signup-service/internal/errors"
	"github.com/burakmert236/scrimsignups/services/signup-service/internal/metrics"
)

// PlayerService takes profile updates from the stats ingest side: stats
// links and elo that signups later rely on.
type PlayerService interface {
	UpdateProfiles(ctx context.Context, players []models.Player) ([]models.Player, error)
}

type playerService struct {
	*core
}

func NewPlayerService(d Dependencies) PlayerService {
	return &playerService{core: newCore(d, "player-service")}
}

func (s *playerService) UpdateProfiles(ctx context.Context, players []models.Player) (stored []models.Player, err error) {
	defer func(start time.Time) { metrics.ObserveOp("updateProfiles", start, err) }(time.Now())

	if len(players) == 0 {
		return nil, signuperrors.InvalidInput("no players given")
	}
	for _, p := range players {
		if p.ExternalId == "" {
			return nil, signuperrors.InvalidInput("every player needs an id")
		}
	}
	if hasDuplicatePlayers(players) {
		return nil, signuperrors.InvalidInput("a player is listed more than once")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	stored, err = s.repos.Players.UpsertPlayers(ctx, players)
	if err != nil {
		return nil, signuperrors.PersistenceFailure(err)
	}

	s.logger.Info("Player profiles updated", "count", len(stored))
	return stored, nil
}

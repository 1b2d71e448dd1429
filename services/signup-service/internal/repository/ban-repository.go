package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/burakmert236/scrimsignups/common/logger"
	"github.com/burakmert236/scrimsignups/common/models"
)

// BanRepository reads the ban ledger. Bans are written by moderation tooling,
// never by this service.
type BanRepository interface {
	HasActiveBan(ctx context.Context, at time.Time, externalIds []string) (models.BanStatus, error)
}

type BanRepoPg struct {
	logger *logger.Logger
	db     *gorm.DB
}

func NewBanRepoPg(log *logger.Logger, db *gorm.DB) *BanRepoPg {
	return &BanRepoPg{
		logger: log.With("component", "ban-repo"),
		db:     db,
	}
}

func (repo *BanRepoPg) HasActiveBan(ctx context.Context, at time.Time, externalIds []string) (models.BanStatus, error) {
	repo.logger.Debug("hasActiveBan()", "at", at, "external_ids", externalIds)

	if len(externalIds) == 0 {
		return models.BanStatus{}, nil
	}

	bans := make([]models.BanEntry, 0)
	err := repo.db.WithContext(ctx).
		Where("external_id IN ? AND start_date <= ? AND end_date >= ?", externalIds, at, at).
		Order("created_at ASC, ban_id ASC").
		Find(&bans).Error
	if err != nil {
		repo.logger.Error("error checking bans", "external_ids", externalIds, "err", err)
		return models.BanStatus{}, err
	}

	if len(bans) == 0 {
		return models.BanStatus{}, nil
	}

	reasons := make([]string, 0, len(bans))
	for _, b := range bans {
		reasons = append(reasons, b.Reason)
	}
	return models.BanStatus{
		Banned:  true,
		Reason:  strings.Join(reasons, "; "),
		Entries: bans,
	}, nil
}

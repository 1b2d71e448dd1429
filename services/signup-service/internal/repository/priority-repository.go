package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/burakmert236/scrimsignups/common/logger"
	"github.com/burakmert236/scrimsignups/common/models"
)

type PriorityRepository interface {
	Create(ctx context.Context, entry *models.PriorityEntry) error
	// GetOverlapping returns entries whose window contains at, in creation order.
	GetOverlapping(ctx context.Context, at time.Time) ([]models.PriorityEntry, error)
	Delete(ctx context.Context, ids []string) (int64, error)
	DeleteEndedBefore(ctx context.Context, before time.Time) (int64, error)
}

type PriorityRepoPg struct {
	logger *logger.Logger
	db     *gorm.DB
}

func NewPriorityRepoPg(log *logger.Logger, db *gorm.DB) *PriorityRepoPg {
	return &PriorityRepoPg{
		logger: log.With("component", "priority-repo"),
		db:     db,
	}
}

func (repo *PriorityRepoPg) Create(ctx context.Context, entry *models.PriorityEntry) error {
	repo.logger.Debug("create()", "external_id", entry.ExternalId, "amount", entry.Amount)

	if err := repo.db.WithContext(ctx).Create(entry).Error; err != nil {
		repo.logger.Error("error creating priority entry", "external_id", entry.ExternalId, "err", err)
		return err
	}
	return nil
}

func (repo *PriorityRepoPg) GetOverlapping(ctx context.Context, at time.Time) ([]models.PriorityEntry, error) {
	repo.logger.Debug("getOverlapping()", "at", at)

	entries := make([]models.PriorityEntry, 0)
	err := repo.db.WithContext(ctx).
		Where("start_date <= ? AND end_date >= ?", at, at).
		Order("created_at ASC, priority_id ASC").
		Find(&entries).Error
	if err != nil {
		repo.logger.Error("error listing priority entries", "at", at, "err", err)
		return nil, err
	}

	repo.logger.Debug("got priority entries", "count", len(entries))
	return entries, nil
}

func (repo *PriorityRepoPg) Delete(ctx context.Context, ids []string) (int64, error) {
	repo.logger.Debug("delete()", "ids", ids)

	if len(ids) == 0 {
		return 0, nil
	}

	tx := repo.db.WithContext(ctx).Where("priority_id IN ?", ids).Delete(&models.PriorityEntry{})
	if tx.Error != nil {
		repo.logger.Error("error deleting priority entries", "ids", ids, "err", tx.Error)
		return 0, tx.Error
	}
	return tx.RowsAffected, nil
}

func (repo *PriorityRepoPg) DeleteEndedBefore(ctx context.Context, before time.Time) (int64, error) {
	repo.logger.Debug("deleteEndedBefore()", "before", before)

	tx := repo.db.WithContext(ctx).Where("end_date < ?", before).Delete(&models.PriorityEntry{})
	if tx.Error != nil {
		repo.logger.Error("error expunging priority entries", "before", before, "err", tx.Error)
		return 0, tx.Error
	}
	return tx.RowsAffected, nil
}

package repository

import (
	"context"

	"masterycourse/backend/models"
	"masterycourse/backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AchievementRepo writes to an optional table. A missing table is reported as
// recorded=false with a nil error; every other failure is returned.
type AchievementRepo interface {
	Insert(ctx context.Context, a *models.Achievement) (bool, error)
	DeleteForUser(ctx context.Context, userID uuid.UUID) (bool, error)
}

type achievementRepo struct {
	db  *gorm.DB
	log *utils.Logger
}

func NewAchievementRepo(db *gorm.DB, baseLog *utils.Logger) AchievementRepo {
	return &achievementRepo{db: db, log: baseLog.With("repo", "AchievementRepo")}
}

func (r *achievementRepo) Insert(ctx context.Context, a *models.Achievement) (bool, error) {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		if IsMissingRelation(err) {
			r.log.Debug("achievement table not available", "error", err)
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *achievementRepo) DeleteForUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Achievement{}).Error; err != nil {
		if IsMissingRelation(err) {
			r.log.Debug("achievement table not available for reset", "error", err)
			return false, nil
		}
		return false, err
	}
	return true, nil
}

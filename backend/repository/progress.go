package repository

import (
	"context"
	"time"

	"masterycourse/backend/models"
	"masterycourse/backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepo interface {
	Get(ctx context.Context, userID, lessonID uuid.UUID) (*models.ProgressRecord, error)
	MarkCompleted(ctx context.Context, userID, lessonID uuid.UUID, at time.Time) (bool, error)
	ListCompleted(ctx context.Context, userID uuid.UUID) ([]models.ProgressRecord, error)
	ListCompletedIn(ctx context.Context, userID uuid.UUID, lessonIDs []uuid.UUID) ([]models.ProgressRecord, error)
	ListAll(ctx context.Context, userID uuid.UUID) ([]models.ProgressRecord, error)
	ClaimModuleCompletion(ctx context.Context, userID, moduleID uuid.UUID, at time.Time) (bool, error)
	DeleteForUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type progressRepo struct {
	db  *gorm.DB
	log *utils.Logger
}

func NewProgressRepo(db *gorm.DB, baseLog *utils.Logger) ProgressRepo {
	return &progressRepo{db: db, log: baseLog.With("repo", "ProgressRepo")}
}

func (r *progressRepo) Get(ctx context.Context, userID, lessonID uuid.UUID) (*models.ProgressRecord, error) {
	var rec models.ProgressRecord
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

// MarkCompleted is a single conditional upsert on (user_id, lesson_id). The
// update branch only fires for rows that are not completed yet, so the
// returned flag is true for exactly one caller per (user, lesson) no matter
// how many race.
func (r *progressRepo) MarkCompleted(ctx context.Context, userID, lessonID uuid.UUID, at time.Time) (bool, error) {
	rec := &models.ProgressRecord{
		UserID:      userID,
		LessonID:    lessonID,
		ModuleID:    nil,
		Completed:   true,
		CompletedAt: &at,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"completed":    true,
				"completed_at": at,
				"updated_at":   at,
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				gorm.Expr("user_progress.completed = ?", false),
			}},
		}).
		Create(rec)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *progressRepo) ListCompleted(ctx context.Context, userID uuid.UUID) ([]models.ProgressRecord, error) {
	records := []models.ProgressRecord{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND completed = ? AND module_id IS NULL", userID, true).
		Order("completed_at").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *progressRepo) ListCompletedIn(ctx context.Context, userID uuid.UUID, lessonIDs []uuid.UUID) ([]models.ProgressRecord, error) {
	records := []models.ProgressRecord{}
	if len(lessonIDs) == 0 {
		return records, nil
	}
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND completed = ? AND lesson_id IN ?", userID, true, lessonIDs).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *progressRepo) ListAll(ctx context.Context, userID uuid.UUID) ([]models.ProgressRecord, error) {
	records := []models.ProgressRecord{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ClaimModuleCompletion inserts the (user, module) milestone if it is absent and
// reports whether this call inserted it.
func (r *progressRepo) ClaimModuleCompletion(ctx context.Context, userID, moduleID uuid.UUID, at time.Time) (bool, error) {
	mc := &models.ModuleCompletion{UserID: userID, ModuleID: moduleID, CompletedAt: at}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "module_id"}},
			DoNothing: true,
		}).
		Create(mc)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteForUser wipes every progress record and milestone of the user and
// returns the number of progress records removed.
func (r *progressRepo) DeleteForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ?", userID).Delete(&models.ProgressRecord{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return tx.Where("user_id = ?", userID).Delete(&models.ModuleCompletion{}).Error
	})
	if err != nil {
		return 0, err
	}
	r.log.Debug("deleted user progress", "user_id", userID, "records", deleted)
	return deleted, nil
}

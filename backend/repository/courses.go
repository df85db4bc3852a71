package repository

import (
	"context"

	"masterycourse/backend/models"
	"masterycourse/backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CourseRepo interface {
	GetModule(ctx context.Context, id uuid.UUID) (*models.Module, error)
	ListModules(ctx context.Context) ([]models.Module, error)
	GetLesson(ctx context.Context, id uuid.UUID) (*models.Lesson, error)
	ListLessons(ctx context.Context) ([]models.Lesson, error)
	ListLessonsByModule(ctx context.Context, moduleID uuid.UUID) ([]models.Lesson, error)
	UpsertModule(ctx context.Context, m *models.Module) error
	UpsertLesson(ctx context.Context, l *models.Lesson) error
}

type courseRepo struct {
	db  *gorm.DB
	log *utils.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *utils.Logger) CourseRepo {
	return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (r *courseRepo) GetModule(ctx context.Context, id uuid.UUID) (*models.Module, error) {
	var module models.Module
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&module).Error; err != nil {
		return nil, notFound(err)
	}
	return &module, nil
}

func (r *courseRepo) ListModules(ctx context.Context) ([]models.Module, error) {
	modules := []models.Module{}
	if err := r.db.WithContext(ctx).Order("order_index").Find(&modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

func (r *courseRepo) GetLesson(ctx context.Context, id uuid.UUID) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&lesson).Error; err != nil {
		return nil, notFound(err)
	}
	return &lesson, nil
}

func (r *courseRepo) ListLessons(ctx context.Context) ([]models.Lesson, error) {
	lessons := []models.Lesson{}
	if err := r.db.WithContext(ctx).Order("order_index").Find(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *courseRepo) ListLessonsByModule(ctx context.Context, moduleID uuid.UUID) ([]models.Lesson, error) {
	lessons := []models.Lesson{}
	if err := r.db.WithContext(ctx).
		Where("module_id = ?", moduleID).
		Order("order_index").
		Find(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

// UpsertModule is keyed on order_index.
func (r *courseRepo) UpsertModule(ctx context.Context, m *models.Module) error {
	return r.db.WithContext(ctx).
		Where("order_index = ?", m.OrderIndex).
		Assign(map[string]interface{}{"title": m.Title, "description": m.Description}).
		FirstOrCreate(m).Error
}

// UpsertLesson is keyed on (module_id, order_index).
func (r *courseRepo) UpsertLesson(ctx context.Context, l *models.Lesson) error {
	return r.db.WithContext(ctx).
		Where("module_id = ? AND order_index = ?", l.ModuleID, l.OrderIndex).
		Assign(map[string]interface{}{"title": l.Title, "objective": l.Objective, "video_url": l.VideoURL}).
		FirstOrCreate(l).Error
}

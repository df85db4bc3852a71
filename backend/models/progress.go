package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProgressRecord is the durable fact that a user completed a lesson or project.
// Identity is (user_id, lesson_id); module_id is informational and written as NULL.
type ProgressRecord struct {
	Base
	UserID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_progress_user_lesson" json:"user_id"`
	LessonID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_progress_user_lesson" json:"lesson_id"`
	ModuleID    *uuid.UUID `gorm:"type:uuid" json:"module_id"`
	Completed   bool       `gorm:"not null" json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

func (ProgressRecord) TableName() string { return "user_progress" }

// Achievement is an append-only log entry written after a completion.
type Achievement struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	AchievementType string         `gorm:"not null" json:"achievement_type"`
	AchievementData datatypes.JSON `json:"achievement_data"`
	CreatedAt       time.Time      `json:"created_at"`
}

func (Achievement) TableName() string { return "user_achievements" }

func (a *Achievement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// ModuleCompletion marks that the completion edge of a module has been
// claimed for a user. The unique key makes the claim one-shot.
type ModuleCompletion struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_module_completion_user_module" json:"user_id"`
	ModuleID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_module_completion_user_module" json:"module_id"`
	CompletedAt time.Time `gorm:"not null" json:"completed_at"`
}

func (ModuleCompletion) TableName() string { return "module_completions" }

func (m *ModuleCompletion) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type ModuleState string

const (
	StateNotStarted ModuleState = "not_started"
	StateInProgress ModuleState = "in_progress"
	StateComplete   ModuleState = "complete"
)

// ModuleStatus is the per-module projection the dashboard renders.
type ModuleStatus struct {
	ModuleID         uuid.UUID   `json:"module_id"`
	Title            string      `json:"title"`
	Order            int         `json:"order"`
	State            ModuleState `json:"state"`
	LessonsCompleted int         `json:"lessons_completed"`
	TotalLessons     int         `json:"total_lessons"`
	HasProject       bool        `json:"has_project"`
	ProjectCompleted bool        `json:"project_completed"`
	NextItemID       *uuid.UUID  `json:"next_item_id,omitempty"`
}

type ProgressOverview struct {
	TotalModules      int            `json:"total_modules"`
	CompletedModules  int            `json:"completed_modules"`
	TotalLessons      int            `json:"total_lessons"`
	CompletedLessons  int            `json:"completed_lessons"`
	TotalProjects     int            `json:"total_projects"`
	CompletedProjects int            `json:"completed_projects"`
	Modules           []ModuleStatus `json:"modules"`
}

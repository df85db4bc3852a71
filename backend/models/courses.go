package models

import "github.com/google/uuid"

type Module struct {
	Base
	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`
	OrderIndex  int    `gorm:"uniqueIndex;not null" json:"order_index"`
}

func (Module) TableName() string { return "modules" }

// Lesson stores both lessons and projects; which one it is depends on its
// position inside the module (see catalog.Classify).
type Lesson struct {
	Base
	ModuleID   uuid.UUID `gorm:"type:uuid;not null;index" json:"module_id"`
	Title      string    `gorm:"not null" json:"title"`
	Objective  string    `json:"objective"`
	VideoURL   string    `json:"video_url,omitempty"`
	OrderIndex int       `gorm:"not null" json:"order_index"`
}

func (Lesson) TableName() string { return "lessons" }

type ItemRole string

const (
	RoleLesson  ItemRole = "lesson"
	RoleProject ItemRole = "project"
)

func (r ItemRole) Valid() bool {
	return r == RoleLesson || r == RoleProject
}

package repository

import (
	"masterycourse/backend/utils"

	"gorm.io/gorm"
)

// Repositories bundles the gorm-backed stores over one connection.
type Repositories struct {
	Users        UserRepo
	Courses      CourseRepo
	Progress     ProgressRepo
	Achievements AchievementRepo
}

func New(db *gorm.DB, log *utils.Logger) *Repositories {
	return &Repositories{
		Users:        NewUserRepo(db, log),
		Courses:      NewCourseRepo(db, log),
		Progress:     NewProgressRepo(db, log),
		Achievements: NewAchievementRepo(db, log),
	}
}

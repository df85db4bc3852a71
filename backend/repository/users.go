package repository

import (
	"context"

	"masterycourse/backend/models"
	"masterycourse/backend/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepo interface {
	GetByDiscordID(ctx context.Context, discordID string) (*models.User, error)
	Ensure(ctx context.Context, user *models.User) (*models.User, error)
	SyncDisplay(ctx context.Context, user *models.User) error
}

type userRepo struct {
	db  *gorm.DB
	log *utils.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *utils.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) GetByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("discord_id = ?", discordID).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// Ensure inserts the user unless one with the same discord id exists, then
// returns the stored row. Two first requests racing each other get the same user.
func (r *userRepo) Ensure(ctx context.Context, user *models.User) (*models.User, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "discord_id"}}, DoNothing: true}).
		Create(user)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 1 {
		r.log.Debug("provisioned user", "user_id", user.ID)
	}
	return r.GetByDiscordID(ctx, user.DiscordID)
}

// SyncDisplay overwrites the display fields of an existing user.
func (r *userRepo) SyncDisplay(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"discord_username": user.DiscordUsername,
			"discord_avatar":   user.DiscordAvatar,
			"email":            user.Email,
		}).Error
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the surrogate key and timestamps shared by every table.
// Ids are generated in Go so the schema does not depend on uuid extensions.
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

type User struct {
	Base
	DiscordID       string `gorm:"uniqueIndex;not null" json:"discord_id"`
	DiscordUsername string `gorm:"not null" json:"discord_username"`
	DiscordAvatar   string `json:"discord_avatar,omitempty"`
	Email           string `json:"email,omitempty"`
}

func (User) TableName() string { return "users" }

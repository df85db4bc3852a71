// Package testutil holds fixtures shared by the package tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"masterycourse/backend/config"
	"masterycourse/backend/discord"
	"masterycourse/backend/models"
	"masterycourse/backend/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory SQLite database with the schema migrated.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, utils.Migrate(db))
	return db
}

// Config returns a config wired for tests: discord ids set, reset enabled, short dispatch timeout.
func Config() *config.Config {
	return &config.Config{
		DBDriver:        "sqlite",
		SessionSecret:   "test-secret",
		AllowedOrigins:  "*",
		ResetEnabled:    true,
		ResetKey:        "dev-reset-2024",
		DispatchTimeout: 5 * time.Second,
		Discord: config.DiscordConfig{
			GuildID:               "guild-1",
			NotificationChannelID: "channel-1",
			BuilderRoleID:         "role-builder",
			OperatorRoleID:        "role-operator",
			ArchitectRoleID:       "role-architect",
			Footer:                "N8n Mastery Course",
		},
	}
}

func SeedUser(t testing.TB, db *gorm.DB, discordID string) models.User {
	t.Helper()
	user := models.User{DiscordID: discordID, DiscordUsername: "user-" + discordID}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// SeedModule creates a module and one lesson per title, ordered 1..n. With the
// default classification the last title becomes the module's project.
func SeedModule(t testing.TB, db *gorm.DB, order int, title string, lessonTitles ...string) (models.Module, []models.Lesson) {
	t.Helper()
	module := models.Module{Title: title, OrderIndex: order}
	require.NoError(t, db.Create(&module).Error)

	lessons := make([]models.Lesson, 0, len(lessonTitles))
	for i, lt := range lessonTitles {
		lesson := models.Lesson{ModuleID: module.ID, Title: lt, OrderIndex: i + 1}
		require.NoError(t, db.Create(&lesson).Error)
		lessons = append(lessons, lesson)
	}
	return module, lessons
}

// FakeDiscord records every effect instead of talking to a gateway.
type FakeDiscord struct {
	mu       sync.Mutex
	ready    bool
	roles    map[string][]string
	Messages []discord.Message
	Added    []string
	Removed  []string
	AddErr   error
}

func NewFakeDiscord(ready bool) *FakeDiscord {
	return &FakeDiscord{ready: ready, roles: map[string][]string{}}
}

// GiveRoles sets the roles a guild member currently holds.
func (f *FakeDiscord) GiveRoles(userID string, roles ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles[userID] = append([]string(nil), roles...)
}

func (f *FakeDiscord) Roles(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.roles[userID]...)
}

func (f *FakeDiscord) Sent() []discord.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]discord.Message(nil), f.Messages...)
}

func (f *FakeDiscord) IsReady() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

func (f *FakeDiscord) SendMessage(_ context.Context, _ string, msg discord.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Messages = append(f.Messages, msg)
	return nil
}

func (f *FakeDiscord) GuildMember(_ context.Context, guildID, userID string) (*discord.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &discord.Member{GuildID: guildID, UserID: userID, Roles: append([]string(nil), f.roles[userID]...)}, nil
}

func (f *FakeDiscord) AddRole(_ context.Context, member *discord.Member, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AddErr != nil {
		return f.AddErr
	}
	f.Added = append(f.Added, roleID)
	f.roles[member.UserID] = append(f.roles[member.UserID], roleID)
	return nil
}

func (f *FakeDiscord) RemoveRole(_ context.Context, member *discord.Member, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Removed = append(f.Removed, roleID)
	kept := f.roles[member.UserID][:0]
	for _, r := range f.roles[member.UserID] {
		if r != roleID {
			kept = append(kept, r)
		}
	}
	f.roles[member.UserID] = kept
	return nil
}

func (f *FakeDiscord) HasRole(member *discord.Member, roleID string) bool {
	return discord.HasRole(member, roleID)
}

package discord

import (
	"context"
	"errors"
	"slices"
	"time"
)

// ErrNotReady is returned by every call made before the gateway session is up
// or when the bot has no credentials.
var ErrNotReady = errors.New("discord client not ready")

// Client is the narrow capability set the dispatcher needs from the chat platform.
type Client interface {
	IsReady() bool
	SendMessage(ctx context.Context, channelID string, msg Message) error
	GuildMember(ctx context.Context, guildID, userID string) (*Member, error)
	AddRole(ctx context.Context, member *Member, roleID string) error
	RemoveRole(ctx context.Context, member *Member, roleID string) error
	HasRole(member *Member, roleID string) bool
}

type Member struct {
	GuildID string
	UserID  string
	Roles   []string
}

// HasRole is the shared implementation of Client.HasRole.
func HasRole(member *Member, roleID string) bool {
	if member == nil || roleID == "" {
		return false
	}
	return slices.Contains(member.Roles, roleID)
}

type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Message is a single rich embed.
type Message struct {
	Title       string
	Description string
	Color       int
	Fields      []Field
	Footer      string
	Timestamp   time.Time
}

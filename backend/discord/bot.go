package discord

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"masterycourse/backend/utils"

	"github.com/bwmarrin/discordgo"
)

// Bot is the process-wide gateway connection. Create it once at startup,
// Connect it, and hand it to the dispatcher as a Client.
type Bot struct {
	session *discordgo.Session
	ready   atomic.Bool
	log     *utils.Logger
}

// NewBot returns a bot for the token. An empty token yields a bot that never
// becomes ready, so every effect degrades to a logged skip.
func NewBot(token string, log *utils.Logger) (*Bot, error) {
	b := &Bot{log: log.With("component", "discord")}
	if token == "" {
		return b, nil
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers
	session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		b.ready.Store(true)
		b.log.Info("discord bot logged in", "bot", r.User.Username)
	})
	session.AddHandler(func(_ *discordgo.Session, _ *discordgo.Disconnect) {
		b.ready.Store(false)
		b.log.Warn("discord gateway disconnected")
	})
	session.AddHandler(func(_ *discordgo.Session, _ *discordgo.Resumed) {
		b.ready.Store(true)
	})
	b.session = session
	return b, nil
}

// Connect opens the gateway. It does not wait for the Ready event.
func (b *Bot) Connect() error {
	if b.session == nil {
		b.log.Warn("discord bot token not provided, bot functionality disabled")
		return nil
	}
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	return nil
}

func (b *Bot) Disconnect() error {
	b.ready.Store(false)
	if b.session == nil {
		return nil
	}
	return b.session.Close()
}

func (b *Bot) IsReady() bool {
	return b.session != nil && b.ready.Load()
}

func (b *Bot) SendMessage(ctx context.Context, channelID string, msg Message) error {
	if !b.IsReady() {
		return ErrNotReady
	}
	_, err := b.session.ChannelMessageSendEmbed(channelID, toEmbed(msg), discordgo.WithContext(ctx))
	return err
}

func (b *Bot) GuildMember(ctx context.Context, guildID, userID string) (*Member, error) {
	if !b.IsReady() {
		return nil, ErrNotReady
	}
	m, err := b.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return &Member{GuildID: guildID, UserID: userID, Roles: append([]string(nil), m.Roles...)}, nil
}

func (b *Bot) AddRole(ctx context.Context, member *Member, roleID string) error {
	if !b.IsReady() {
		return ErrNotReady
	}
	return b.session.GuildMemberRoleAdd(member.GuildID, member.UserID, roleID, discordgo.WithContext(ctx))
}

func (b *Bot) RemoveRole(ctx context.Context, member *Member, roleID string) error {
	if !b.IsReady() {
		return ErrNotReady
	}
	return b.session.GuildMemberRoleRemove(member.GuildID, member.UserID, roleID, discordgo.WithContext(ctx))
}

func (b *Bot) HasRole(member *Member, roleID string) bool {
	return HasRole(member, roleID)
}

func toEmbed(msg Message) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       msg.Title,
		Description: msg.Description,
		Color:       msg.Color,
	}
	for _, f := range msg.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	if msg.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: msg.Footer}
	}
	if !msg.Timestamp.IsZero() {
		embed.Timestamp = msg.Timestamp.UTC().Format(time.RFC3339)
	}
	return embed
}

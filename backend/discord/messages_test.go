package discord

import (
	"testing"
	"time"

	"masterycourse/backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleCompletedMessage(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	msg := ModuleCompletedMessage("42", "Foundations", 1, "N8n Mastery Course", at)

	assert.Equal(t, "🎯 Module Completed!", msg.Title)
	assert.Contains(t, msg.Description, "<@42>")
	assert.Contains(t, msg.Description, "**Foundations**")
	require.Len(t, msg.Fields, 2)
	assert.Equal(t, Field{Name: "Achievement", Value: "🎯 Module 1 Completed", Inline: true}, msg.Fields[0])
	assert.Equal(t, Field{Name: "Module", Value: "Foundations", Inline: true}, msg.Fields[1])
	assert.Equal(t, colorModuleCompleted, msg.Color)
}

func TestRolePromotionMessage(t *testing.T) {
	msg := RolePromotionMessage("42", "Operator", 3, "footer", time.Now())

	assert.Equal(t, "🏆 Role Promotion!", msg.Title)
	assert.Contains(t, msg.Description, "**Operator**")
	assert.Equal(t, "Module 3", msg.Fields[0].Value)
	assert.Equal(t, "Operator", msg.Fields[1].Value)
}

func TestToEmbed(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	embed := toEmbed(ModuleCompletedMessage("42", "Foundations", 1, "footer", at))

	assert.Equal(t, "footer", embed.Footer.Text)
	assert.Equal(t, "2024-05-01T11:00:00Z", embed.Timestamp)
	assert.Len(t, embed.Fields, 2)
	assert.Equal(t, colorModuleCompleted, embed.Color)
}

func TestHasRole(t *testing.T) {
	m := &Member{Roles: []string{"a", "b"}}
	assert.True(t, HasRole(m, "a"))
	assert.False(t, HasRole(m, "c"))
	assert.False(t, HasRole(m, ""))
	assert.False(t, HasRole(nil, "a"))
}

func TestDisabledBot(t *testing.T) {
	bot, err := NewBot("", utils.NopLogger())
	require.NoError(t, err)
	require.NoError(t, bot.Connect())
	assert.False(t, bot.IsReady())
	assert.ErrorIs(t, bot.SendMessage(t.Context(), "c", Message{}), ErrNotReady)
	_, err = bot.GuildMember(t.Context(), "g", "u")
	assert.ErrorIs(t, err, ErrNotReady)
	assert.NoError(t, bot.Disconnect())
}

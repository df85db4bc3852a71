package discord

import (
	"fmt"
	"time"
)

const (
	colorModuleCompleted = 0x10B981
	colorRolePromotion   = 0xFFD700
)

// Mention renders a user tag.
func Mention(userID string) string {
	return fmt.Sprintf("<@%s>", userID)
}

func ModuleCompletedMessage(userID, moduleTitle string, moduleNumber int, footer string, at time.Time) Message {
	return Message{
		Title:       "🎯 Module Completed!",
		Description: fmt.Sprintf("%s just completed **%s**!", Mention(userID), moduleTitle),
		Color:       colorModuleCompleted,
		Fields: []Field{
			{Name: "Achievement", Value: fmt.Sprintf("🎯 Module %d Completed", moduleNumber), Inline: true},
			{Name: "Module", Value: moduleTitle, Inline: true},
		},
		Footer:    footer,
		Timestamp: at,
	}
}

func RolePromotionMessage(userID, roleName string, moduleNumber int, footer string, at time.Time) Message {
	return Message{
		Title:       "🏆 Role Promotion!",
		Description: fmt.Sprintf("%s has been promoted to **%s**!", Mention(userID), roleName),
		Color:       colorRolePromotion,
		Fields: []Field{
			{Name: "Module Completed", Value: fmt.Sprintf("Module %d", moduleNumber), Inline: true},
			{Name: "New Role", Value: roleName, Inline: true},
		},
		Footer:    footer,
		Timestamp: at,
	}
}

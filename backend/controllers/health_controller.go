package controllers

import (
	"masterycourse/backend/discord"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthController struct {
	DB  *gorm.DB
	Bot discord.Client
}

func NewHealthController(db *gorm.DB, bot discord.Client) *HealthController {
	return &HealthController{DB: db, Bot: bot}
}

// Health godoc
// @Summary Liveness and dependency status
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (hc *HealthController) Health(c *fiber.Ctx) error {
	status := fiber.StatusOK
	database := "ok"
	if sqlDB, err := hc.DB.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
		status = fiber.StatusServiceUnavailable
		database = "unavailable"
	}
	return c.Status(status).JSON(fiber.Map{
		"status":   database,
		"database": database,
		"discord":  hc.Bot != nil && hc.Bot.IsReady(),
	})
}

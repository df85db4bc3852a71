package controllers

import (
	"masterycourse/backend/config"
	"masterycourse/backend/middleware"
	"masterycourse/backend/services"
	"masterycourse/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type UserController struct {
	Service *services.ProgressService
	Cfg     *config.Config
}

func NewUserController(service *services.ProgressService, cfg *config.Config) *UserController {
	return &UserController{Service: service, Cfg: cfg}
}

// GetProfile godoc
// @Summary Get user profile
// @Description Returns the caller's profile, creating it on first sign-in
// @Tags users
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	user, err := uc.Service.EnsureUser(c.UserContext(), identity)
	if err != nil {
		return utils.APIError(c, err)
	}

	records, err := uc.Service.GetUserProgress(c.UserContext(), identity)
	if err != nil {
		return utils.APIError(c, err)
	}

	// Response without sensitive fields
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"id":              user.ID,
		"discord_id":      user.DiscordID,
		"username":        user.DiscordUsername,
		"avatar":          user.DiscordAvatar,
		"created_at":      user.CreatedAt,
		"completed_items": len(records),
	})
}

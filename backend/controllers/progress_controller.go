package controllers

import (
	"masterycourse/backend/config"
	"masterycourse/backend/middleware"
	"masterycourse/backend/services"
	"masterycourse/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type ProgressController struct {
	Service *services.ProgressService
	Cfg     *config.Config
}

func NewProgressController(service *services.ProgressService, cfg *config.Config) *ProgressController {
	return &ProgressController{Service: service, Cfg: cfg}
}

// UpdateProgress godoc
// @Summary Mark a lesson or project as completed
// @Description Records a completion. Repeated calls are answered with alreadyCompleted and have no side effects
// @Tags progress
// @Accept json
// @Produce json
// @Param input body services.CompletionRequest true "Completed item"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 429 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress [post]
func (pc *ProgressController) UpdateProgress(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var req services.CompletionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	result, err := pc.Service.RecordCompletion(c.UserContext(), identity.DiscordID, req)
	if err != nil {
		return utils.APIError(c, err)
	}

	if !result.NewlyCompleted {
		return utils.Success(c, fiber.StatusOK, fiber.Map{
			"success":          true,
			"message":          "Already completed",
			"alreadyCompleted": true,
			"newCompletion":    false,
		})
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"success":       true,
		"newCompletion": true,
	})
}

// GetProgress godoc
// @Summary Get user progress
// @Description Returns the completed lessons and projects of the caller
// @Tags progress
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress [get]
func (pc *ProgressController) GetProgress(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	records, err := pc.Service.GetUserProgress(c.UserContext(), identity)
	if err != nil {
		return utils.APIError(c, err)
	}
	return c.JSON(fiber.Map{
		"progress": records,
	})
}

// ResetProgress godoc
// @Summary Reset user progress
// @Description Deletes every progress record of the caller. Requires the reset key
// @Tags progress
// @Produce json
// @Param resetKey query string true "Reset key"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress [delete]
func (pc *ProgressController) ResetProgress(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	deleted, err := pc.Service.ResetProgress(c.UserContext(), identity.DiscordID, c.Query("resetKey"))
	if err != nil {
		return utils.APIError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"success":        true,
		"message":        "Progress reset successfully",
		"deletedRecords": deleted,
	})
}

// GetProgressOverview godoc
// @Summary Get progress overview
// @Description Returns per-module state and course totals of the caller
// @Tags progress
// @Accept json
// @Produce json
// @Success 200 {object} models.ProgressOverview
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/overview [get]
func (pc *ProgressController) GetProgressOverview(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	overview, err := pc.Service.Overview(c.UserContext(), identity)
	if err != nil {
		return utils.APIError(c, err)
	}
	return c.JSON(overview)
}

// DebugProgress godoc
// @Summary Dump raw progress records
// @Description Lists every record of the caller, including incomplete ones. Mounted only with DEBUG_ROUTES
// @Tags debug
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /debug-progress [get]
func (pc *ProgressController) DebugProgress(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	userID, records, err := pc.Service.DebugProgress(c.UserContext(), identity.DiscordID)
	if err != nil {
		return utils.APIError(c, err)
	}
	return c.JSON(fiber.Map{
		"userId":          userID,
		"progressRecords": records,
		"totalRecords":    len(records),
	})
}

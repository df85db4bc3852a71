package controllers

import (
	"masterycourse/backend/config"
	"masterycourse/backend/services"
	"masterycourse/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type CoursesController struct {
	Service *services.CourseService
	Cfg     *config.Config
}

func NewCoursesController(service *services.CourseService, cfg *config.Config) *CoursesController {
	return &CoursesController{Service: service, Cfg: cfg}
}

// GetModules godoc
// @Summary List course modules
// @Description Returns every module in order with its lessons and project
// @Tags courses
// @Produce json
// @Success 200 {array} catalog.ModuleView
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /modules [get]
func (cc *CoursesController) GetModules(c *fiber.Ctx) error {
	modules, err := cc.Service.ListModules(c.UserContext())
	if err != nil {
		return utils.APIError(c, err)
	}
	return c.JSON(fiber.Map{
		"modules": modules,
	})
}

// GetModuleDetails godoc
// @Summary Get module details
// @Tags courses
// @Produce json
// @Param id path string true "Module ID"
// @Success 200 {object} catalog.ModuleView
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /modules/{id} [get]
func (cc *CoursesController) GetModuleDetails(c *fiber.Ctx) error {
	module, err := cc.Service.GetModule(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.APIError(c, err)
	}
	return c.JSON(module)
}

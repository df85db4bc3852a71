package routes

import (
	"masterycourse/backend/config"
	"masterycourse/backend/controllers"
	"masterycourse/backend/discord"
	"masterycourse/backend/middleware"
	"masterycourse/backend/repository"
	"masterycourse/backend/services"
	"masterycourse/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the process-wide collaborators the routes are built on.
type Deps struct {
	Log   *utils.Logger
	Bot   discord.Client
	Redis *redis.Client
}

// SetupRoutes mounts every endpoint and returns the progress service so the
// caller can drain its background work on shutdown.
func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, deps Deps) *services.ProgressService {
	repos := repository.New(db, deps.Log)
	aggregator := services.NewAggregator(repos.Courses, repos.Progress)
	dispatcher := services.NewDispatcher(deps.Bot, repos.Courses, cfg.Discord, deps.Log)
	progressService := services.NewProgressService(repos, aggregator, dispatcher, cfg, deps.Log)
	courseService := services.NewCourseService(repos.Courses)

	// Health
	healthController := controllers.NewHealthController(db, deps.Bot)
	app.Get("/health", healthController.Health)
	if cfg.MetricsEnabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	limiter := middleware.NewRateLimiter(deps.Redis, deps.Log)

	// User routes
	userController := controllers.NewUserController(progressService, cfg)
	app.Get("/api/user/profile", authMiddleware, userController.GetProfile)

	// Progress routes
	progressController := controllers.NewProgressController(progressService, cfg)
	progress := app.Group("/api/progress", authMiddleware)
	progress.Get("/", progressController.GetProgress)
	progress.Post("/", limiter.Limit("progress", cfg.ProgressRateLimit, cfg.ProgressRateWindow), progressController.UpdateProgress)
	progress.Delete("/", progressController.ResetProgress)
	progress.Get("/overview", progressController.GetProgressOverview)

	if cfg.DebugRoutes {
		app.Get("/api/debug-progress", authMiddleware, progressController.DebugProgress)
	}

	// Courses routes
	coursesController := controllers.NewCoursesController(courseService, cfg)
	modules := app.Group("/api/modules", authMiddleware)
	modules.Get("/", coursesController.GetModules)
	modules.Get("/:id", coursesController.GetModuleDetails)

	return progressService
}

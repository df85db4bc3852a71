package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"masterycourse/backend/apierr"
	"masterycourse/backend/config"
	"masterycourse/backend/models"
	"masterycourse/backend/observability"
	"masterycourse/backend/repository"
	"masterycourse/backend/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
)

// CompletionRequest is the body of POST /api/progress.
type CompletionRequest struct {
	Type     string `json:"type" example:"lesson" enums:"lesson,project"`
	ItemID   string `json:"itemId" example:"5b7d1c6e-2f7a-4c1e-9d0b-0d1f4a2b3c4d"`
	ModuleID string `json:"moduleId" example:"0e3f1a2b-6c7d-4e8f-9a0b-1c2d3e4f5a6b"`
}

type CompletionResult struct {
	NewlyCompleted bool
}

// ModuleEffects is the downstream side of a completion.
type ModuleEffects interface {
	OnModuleCompleted(ctx context.Context, user models.User, moduleID uuid.UUID)
}

type ProgressService struct {
	users        repository.UserRepo
	courses      repository.CourseRepo
	progress     repository.ProgressRepo
	achievements repository.AchievementRepo
	aggregator   *Aggregator
	effects      ModuleEffects
	cfg          *config.Config
	log          *utils.Logger
	now          func() time.Time

	wg sync.WaitGroup
}

func NewProgressService(repos *repository.Repositories, aggregator *Aggregator, effects ModuleEffects, cfg *config.Config, log *utils.Logger) *ProgressService {
	return &ProgressService{
		users:        repos.Users,
		courses:      repos.Courses,
		progress:     repos.Progress,
		achievements: repos.Achievements,
		aggregator:   aggregator,
		effects:      effects,
		cfg:          cfg,
		log:          log.With("service", "ProgressService"),
		now:          time.Now,
	}
}

// Wait blocks until every scheduled module evaluation has finished.
func (s *ProgressService) Wait() {
	s.wg.Wait()
}

func (r CompletionRequest) parse() (itemID, moduleID uuid.UUID, role models.ItemRole, err error) {
	if strings.TrimSpace(r.ItemID) == "" || strings.TrimSpace(r.ModuleID) == "" || strings.TrimSpace(r.Type) == "" {
		return uuid.Nil, uuid.Nil, "", apierr.InvalidRequest("Missing required fields: type, itemId, moduleId")
	}
	role = models.ItemRole(strings.ToLower(strings.TrimSpace(r.Type)))
	if !role.Valid() {
		return uuid.Nil, uuid.Nil, "", apierr.InvalidRequest("type must be lesson or project")
	}
	if itemID, err = uuid.Parse(strings.TrimSpace(r.ItemID)); err != nil {
		return uuid.Nil, uuid.Nil, "", apierr.InvalidRequest("itemId is not a valid id")
	}
	if moduleID, err = uuid.Parse(strings.TrimSpace(r.ModuleID)); err != nil {
		return uuid.Nil, uuid.Nil, "", apierr.InvalidRequest("moduleId is not a valid id")
	}
	return itemID, moduleID, role, nil
}

// RecordCompletion marks one lesson or project as completed for the user.
// Repeating the call, sequentially or concurrently, is safe: exactly one
// caller ever sees NewlyCompleted and only that caller schedules the module
// evaluation.
func (s *ProgressService) RecordCompletion(ctx context.Context, discordID string, req CompletionRequest) (CompletionResult, error) {
	ctx, span := observability.Tracer().Start(ctx, "progress.RecordCompletion")
	defer span.End()

	itemID, moduleID, role, err := req.parse()
	if err != nil {
		return CompletionResult{}, err
	}
	span.SetAttributes(
		attribute.String("item.id", itemID.String()),
		attribute.String("item.type", string(role)),
	)

	user, err := s.lookupUser(ctx, discordID)
	if err != nil {
		return CompletionResult{}, err
	}

	lesson, err := s.courses.GetLesson(ctx, itemID)
	if errors.Is(err, repository.ErrNotFound) {
		return CompletionResult{}, apierr.NotFound("Item not found")
	}
	if err != nil {
		return CompletionResult{}, apierr.Persistence("Failed to load item", err)
	}
	if lesson.ModuleID != moduleID {
		return CompletionResult{}, apierr.InvalidRequest("Item does not belong to module")
	}

	log := s.log.With("user_id", user.ID, "item_id", itemID, "type", role)

	existing, err := s.progress.Get(ctx, user.ID, itemID)
	switch {
	case err == nil && existing.Completed:
		log.Debug("item already completed")
		observability.ObserveCompletion(string(role), false)
		return CompletionResult{NewlyCompleted: false}, nil
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		span.SetStatus(codes.Error, err.Error())
		return CompletionResult{}, apierr.Persistence("Failed to update progress", err)
	}

	now := s.now().UTC()
	newly, err := s.progress.MarkCompleted(ctx, user.ID, itemID, now)
	if err != nil {
		log.Error("progress upsert failed", "error", err)
		span.SetStatus(codes.Error, err.Error())
		return CompletionResult{}, apierr.Persistence("Failed to update progress", err)
	}
	if !newly {
		log.Debug("item completed by a concurrent request")
		observability.ObserveCompletion(string(role), false)
		return CompletionResult{NewlyCompleted: false}, nil
	}

	stored, err := s.progress.Get(ctx, user.ID, itemID)
	if err != nil || !stored.Completed {
		log.Error("progress record missing after write", "error", err)
		span.SetStatus(codes.Error, "verification failed")
		return CompletionResult{}, apierr.Verification("Progress was not persisted")
	}

	s.appendAchievement(ctx, log, user, lesson, role, now)
	observability.ObserveCompletion(string(role), true)
	log.Info("item completed")

	s.scheduleModuleCheck(ctx, *user, moduleID)
	return CompletionResult{NewlyCompleted: true}, nil
}

func (s *ProgressService) appendAchievement(ctx context.Context, log *utils.Logger, user *models.User, lesson *models.Lesson, role models.ItemRole, at time.Time) {
	data, err := json.Marshal(map[string]string{
		"item_id":   lesson.ID.String(),
		"module_id": lesson.ModuleID.String(),
		"title":     lesson.Title,
	})
	if err != nil {
		log.Warn("encode achievement data", "error", err)
		return
	}
	recorded, err := s.achievements.Insert(ctx, &models.Achievement{
		UserID:          user.ID,
		AchievementType: string(role) + "_complete",
		AchievementData: datatypes.JSON(data),
		CreatedAt:       at,
	})
	if err != nil {
		log.Warn("achievement insert failed (continuing)", "error", err)
		return
	}
	if !recorded {
		log.Debug("achievements disabled")
	}
}

// scheduleModuleCheck evaluates the module after the response is written.
// The work outlives the request, bounded by the dispatch timeout.
func (s *ProgressService) scheduleModuleCheck(parent context.Context, user models.User, moduleID uuid.UUID) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), s.cfg.DispatchTimeout)
		defer cancel()
		s.checkModule(ctx, user, moduleID)
	}()
}

func (s *ProgressService) checkModule(ctx context.Context, user models.User, moduleID uuid.UUID) {
	log := s.log.With("user_id", user.ID, "module_id", moduleID)

	complete, err := s.aggregator.IsModuleComplete(ctx, user.ID, moduleID)
	if err != nil {
		log.Error("module aggregation failed", "error", err)
		return
	}
	if !complete {
		return
	}

	claimed, err := s.progress.ClaimModuleCompletion(ctx, user.ID, moduleID, s.now().UTC())
	if err != nil {
		log.Error("claim module milestone", "error", err)
		return
	}
	if !claimed {
		log.Debug("module milestone already claimed")
		return
	}
	observability.ObserveModuleCompletion()
	log.Info("module completed")

	if s.effects != nil {
		s.effects.OnModuleCompleted(ctx, user, moduleID)
	}
}

func (s *ProgressService) lookupUser(ctx context.Context, discordID string) (*models.User, error) {
	user, err := s.users.GetByDiscordID(ctx, discordID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apierr.NotFound("User not found")
	}
	if err != nil {
		return nil, apierr.Persistence("Failed to load user", err)
	}
	return user, nil
}

// EnsureUser returns the user for the identity, provisioning it on first
// sight and refreshing display fields when they drift.
func (s *ProgressService) EnsureUser(ctx context.Context, identity utils.Identity) (*models.User, error) {
	name := identity.Name
	if name == "" {
		name = identity.DiscordID
	}
	user, err := s.users.GetByDiscordID(ctx, identity.DiscordID)
	if errors.Is(err, repository.ErrNotFound) {
		user, err = s.users.Ensure(ctx, &models.User{
			DiscordID:       identity.DiscordID,
			DiscordUsername: name,
			DiscordAvatar:   identity.Avatar,
			Email:           identity.Email,
		})
		if err != nil {
			return nil, apierr.Persistence("Failed to create user", err)
		}
		s.log.Info("user provisioned", "user_id", user.ID)
		return user, nil
	}
	if err != nil {
		return nil, apierr.Persistence("Failed to load user", err)
	}

	if user.DiscordUsername != name || user.DiscordAvatar != identity.Avatar || (identity.Email != "" && user.Email != identity.Email) {
		user.DiscordUsername = name
		user.DiscordAvatar = identity.Avatar
		if identity.Email != "" {
			user.Email = identity.Email
		}
		if err := s.users.SyncDisplay(ctx, user); err != nil {
			s.log.Warn("sync user display fields", "user_id", user.ID, "error", err)
		}
	}
	return user, nil
}

// GetUserProgress returns the caller's completed records, oldest first. An
// unknown caller is provisioned and gets an empty list.
func (s *ProgressService) GetUserProgress(ctx context.Context, identity utils.Identity) ([]models.ProgressRecord, error) {
	ctx, span := observability.Tracer().Start(ctx, "progress.GetUserProgress")
	defer span.End()

	user, err := s.EnsureUser(ctx, identity)
	if err != nil {
		return nil, err
	}
	records, err := s.progress.ListCompleted(ctx, user.ID)
	if err != nil {
		return nil, apierr.Persistence("Failed to load progress", err)
	}
	if records == nil {
		records = []models.ProgressRecord{}
	}
	return records, nil
}

// Overview returns module statuses and totals for the caller.
func (s *ProgressService) Overview(ctx context.Context, identity utils.Identity) (*models.ProgressOverview, error) {
	user, err := s.EnsureUser(ctx, identity)
	if err != nil {
		return nil, err
	}
	overview, err := s.aggregator.Overview(ctx, user.ID)
	if err != nil {
		return nil, apierr.Persistence("Failed to load overview", err)
	}
	return overview, nil
}

// DebugProgress lists every record of the user, completed or not, newest first.
func (s *ProgressService) DebugProgress(ctx context.Context, discordID string) (uuid.UUID, []models.ProgressRecord, error) {
	user, err := s.lookupUser(ctx, discordID)
	if err != nil {
		return uuid.Nil, nil, err
	}
	records, err := s.progress.ListAll(ctx, user.ID)
	if err != nil {
		return uuid.Nil, nil, apierr.Persistence("Failed to load progress", err)
	}
	return user.ID, records, nil
}

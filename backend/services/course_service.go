package services

import (
	"context"
	"errors"
	"fmt"

	"masterycourse/backend/apierr"
	"masterycourse/backend/catalog"
	"masterycourse/backend/models"
	"masterycourse/backend/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// CourseService serves the static catalog with lessons and projects split.
type CourseService struct {
	courses repository.CourseRepo
}

func NewCourseService(courses repository.CourseRepo) *CourseService {
	return &CourseService{courses: courses}
}

func (s *CourseService) ListModules(ctx context.Context) ([]catalog.ModuleView, error) {
	var (
		modules []models.Module
		lessons []models.Lesson
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		modules, err = s.courses.ListModules(gctx)
		return err
	})
	g.Go(func() (err error) {
		lessons, err = s.courses.ListLessons(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apierr.Persistence("Failed to load modules", err)
	}

	views := make([]catalog.ModuleView, 0, len(modules))
	for _, m := range modules {
		views = append(views, catalog.BuildView(m, lessons))
	}
	return views, nil
}

func (s *CourseService) GetModule(ctx context.Context, rawID string) (*catalog.ModuleView, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, apierr.InvalidRequest("Invalid module id")
	}
	module, err := s.courses.GetModule(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apierr.NotFound("Module not found")
	}
	if err != nil {
		return nil, apierr.Persistence("Failed to load module", err)
	}
	lessons, err := s.courses.ListLessonsByModule(ctx, id)
	if err != nil {
		return nil, apierr.Persistence("Failed to load lessons", fmt.Errorf("module %s: %w", id, err))
	}
	view := catalog.BuildView(*module, lessons)
	return &view, nil
}

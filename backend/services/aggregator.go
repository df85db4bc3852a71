package services

import (
	"context"
	"fmt"

	"masterycourse/backend/catalog"
	"masterycourse/backend/models"
	"masterycourse/backend/observability"
	"masterycourse/backend/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Aggregator derives module state from completed progress records. It holds
// no state of its own.
type Aggregator struct {
	courses  repository.CourseRepo
	progress repository.ProgressRepo
}

func NewAggregator(courses repository.CourseRepo, progress repository.ProgressRepo) *Aggregator {
	return &Aggregator{courses: courses, progress: progress}
}

// IsModuleComplete reports whether the user completed every lesson of the
// module and its project. A module without lessons is never complete.
func (a *Aggregator) IsModuleComplete(ctx context.Context, userID, moduleID uuid.UUID) (bool, error) {
	ctx, span := observability.Tracer().Start(ctx, "aggregator.IsModuleComplete")
	defer span.End()

	lessons, err := a.courses.ListLessonsByModule(ctx, moduleID)
	if err != nil {
		return false, fmt.Errorf("list module lessons: %w", err)
	}
	view := catalog.BuildView(models.Module{Base: models.Base{ID: moduleID}}, lessons)
	ids := view.ItemIDs()
	if len(ids) == 0 {
		return false, nil
	}

	records, err := a.progress.ListCompletedIn(ctx, userID, ids)
	if err != nil {
		return false, fmt.Errorf("list completed items: %w", err)
	}
	return Status(view, completedSet(records)).State == models.StateComplete, nil
}

// Overview computes every module's status plus course-wide totals.
func (a *Aggregator) Overview(ctx context.Context, userID uuid.UUID) (*models.ProgressOverview, error) {
	ctx, span := observability.Tracer().Start(ctx, "aggregator.Overview")
	defer span.End()

	var (
		modules []models.Module
		lessons []models.Lesson
		records []models.ProgressRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		modules, err = a.courses.ListModules(gctx)
		return err
	})
	g.Go(func() (err error) {
		lessons, err = a.courses.ListLessons(gctx)
		return err
	})
	g.Go(func() (err error) {
		records, err = a.progress.ListCompleted(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load overview: %w", err)
	}

	done := completedSet(records)
	overview := &models.ProgressOverview{
		TotalModules: len(modules),
		Modules:      make([]models.ModuleStatus, 0, len(modules)),
	}
	for _, m := range modules {
		st := Status(catalog.BuildView(m, lessons), done)
		overview.Modules = append(overview.Modules, st)
		overview.TotalLessons += st.TotalLessons
		overview.CompletedLessons += st.LessonsCompleted
		if st.HasProject {
			overview.TotalProjects++
			if st.ProjectCompleted {
				overview.CompletedProjects++
			}
		}
		if st.State == models.StateComplete {
			overview.CompletedModules++
		}
	}
	return overview, nil
}

// Status projects one module view against a completed-item set.
func Status(view catalog.ModuleView, done map[uuid.UUID]bool) models.ModuleStatus {
	st := models.ModuleStatus{
		ModuleID:     view.ID,
		Title:        view.Title,
		Order:        view.OrderIndex,
		TotalLessons: len(view.Lessons),
		HasProject:   view.Project != nil,
	}
	for _, l := range view.Lessons {
		if done[l.ID] {
			st.LessonsCompleted++
		}
	}
	if view.Project != nil {
		st.ProjectCompleted = done[view.Project.ID]
	}
	for _, id := range view.ItemIDs() {
		if !done[id] {
			next := id
			st.NextItemID = &next
			break
		}
	}

	touched := st.LessonsCompleted > 0 || st.ProjectCompleted
	switch {
	case len(view.ItemIDs()) > 0 && st.NextItemID == nil:
		st.State = models.StateComplete
	case touched:
		st.State = models.StateInProgress
	default:
		st.State = models.StateNotStarted
	}
	return st
}

func completedSet(records []models.ProgressRecord) map[uuid.UUID]bool {
	done := make(map[uuid.UUID]bool, len(records))
	for _, r := range records {
		if r.Completed {
			done[r.LessonID] = true
		}
	}
	return done
}

package catalog

import (
	"sort"
	"strings"

	"masterycourse/backend/models"

	"github.com/google/uuid"
)

// ProjectOrderIndex is the slot the course authors reserve for a module's capstone.
const ProjectOrderIndex = 4

// Item is a lesson tagged with its role inside the module.
type Item struct {
	models.Lesson
	Role models.ItemRole `json:"role"`
}

// ModuleView is a module with its items split into lessons and the project.
type ModuleView struct {
	models.Module
	Lessons []Item `json:"lessons"`
	Project *Item  `json:"project"`
}

// Classify splits the lessons of one module. The project is the first lesson,
// in order, sitting in the project slot, titled as a project, or holding the
// highest order index. Any non-empty module therefore has a project.
func Classify(lessons []models.Lesson) (regular []Item, project *Item) {
	if len(lessons) == 0 {
		return []Item{}, nil
	}
	ordered := make([]models.Lesson, len(lessons))
	copy(ordered, lessons)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].OrderIndex < ordered[j].OrderIndex })

	maxOrder := ordered[len(ordered)-1].OrderIndex
	projectIdx := -1
	for i, l := range ordered {
		if l.OrderIndex == ProjectOrderIndex ||
			strings.Contains(strings.ToLower(l.Title), "project") ||
			l.OrderIndex == maxOrder {
			projectIdx = i
			break
		}
	}

	regular = make([]Item, 0, len(ordered))
	for i, l := range ordered {
		if i == projectIdx {
			project = &Item{Lesson: l, Role: models.RoleProject}
			continue
		}
		regular = append(regular, Item{Lesson: l, Role: models.RoleLesson})
	}
	return regular, project
}

// BuildView groups lessons under their module.
func BuildView(module models.Module, lessons []models.Lesson) ModuleView {
	own := make([]models.Lesson, 0, len(lessons))
	for _, l := range lessons {
		if l.ModuleID == module.ID {
			own = append(own, l)
		}
	}
	regular, project := Classify(own)
	return ModuleView{Module: module, Lessons: regular, Project: project}
}

// ItemIDs returns every item of the view in display order, project last.
func (v ModuleView) ItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(v.Lessons)+1)
	for _, l := range v.Lessons {
		ids = append(ids, l.ID)
	}
	if v.Project != nil {
		ids = append(ids, v.Project.ID)
	}
	return ids
}

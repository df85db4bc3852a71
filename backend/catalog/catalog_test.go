package catalog

import (
	"context"
	"testing"

	"masterycourse/backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lesson(title string, order int) models.Lesson {
	return models.Lesson{Base: models.Base{ID: uuid.New()}, Title: title, OrderIndex: order}
}

func TestClassify(t *testing.T) {
	t.Run("project slot wins over later lessons", func(t *testing.T) {
		regular, project := Classify([]models.Lesson{lesson("A", 1), lesson("B", 4), lesson("C", 5)})
		require.NotNil(t, project)
		assert.Equal(t, "B", project.Title)
		assert.Equal(t, models.RoleProject, project.Role)
		assert.Len(t, regular, 2)
	})

	t.Run("title match", func(t *testing.T) {
		regular, project := Classify([]models.Lesson{lesson("Basics", 1), lesson("Mini Project", 2), lesson("Wrap up", 3)})
		require.NotNil(t, project)
		assert.Equal(t, "Mini Project", project.Title)
		assert.Equal(t, []string{"Basics", "Wrap up"}, titles(regular))
	})

	t.Run("falls back to highest order", func(t *testing.T) {
		regular, project := Classify([]models.Lesson{lesson("C", 3), lesson("A", 1), lesson("B", 2)})
		require.NotNil(t, project)
		assert.Equal(t, "C", project.Title)
		assert.Equal(t, []string{"A", "B"}, titles(regular))
		for _, r := range regular {
			assert.Equal(t, models.RoleLesson, r.Role)
		}
	})

	t.Run("single lesson is the project", func(t *testing.T) {
		regular, project := Classify([]models.Lesson{lesson("Only", 1)})
		require.NotNil(t, project)
		assert.Empty(t, regular)
	})

	t.Run("empty", func(t *testing.T) {
		regular, project := Classify(nil)
		assert.Nil(t, project)
		assert.NotNil(t, regular)
		assert.Empty(t, regular)
	})
}

func TestBuildViewFiltersByModule(t *testing.T) {
	module := models.Module{Base: models.Base{ID: uuid.New()}, Title: "M", OrderIndex: 1}
	own1, own2, foreign := lesson("A", 1), lesson("B", 2), lesson("X", 1)
	own1.ModuleID, own2.ModuleID, foreign.ModuleID = module.ID, module.ID, uuid.New()

	view := BuildView(module, []models.Lesson{own2, foreign, own1})
	assert.Equal(t, []uuid.UUID{own1.ID, own2.ID}, view.ItemIDs())

	require.NotNil(t, view.Project)
	assert.Equal(t, own2.ID, view.Project.ID)
	assert.Len(t, view.Lessons, 1)
}

func titles(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, i := range items {
		out = append(out, i.Title)
	}
	return out
}

type memWriter struct {
	modules map[int]*models.Module
	lessons map[string]*models.Lesson
}

func (w *memWriter) UpsertModule(_ context.Context, m *models.Module) error {
	if existing, ok := w.modules[m.OrderIndex]; ok {
		m.ID = existing.ID
	} else {
		m.ID = uuid.New()
	}
	w.modules[m.OrderIndex] = m
	return nil
}

func (w *memWriter) UpsertLesson(_ context.Context, l *models.Lesson) error {
	w.lessons[l.ModuleID.String()+"/"+l.Title] = l
	return nil
}

const seedYAML = `
modules:
  - title: Foundations
    description: First steps
    order: 1
    lessons:
      - {title: Intro, order: 1}
      - {title: Nodes, order: 2}
      - {title: "Project: First workflow", order: 3}
  - title: Triggers
    order: 2
    lessons:
      - {title: Webhooks, order: 1, video_url: "https://videos/webhooks"}
`

func TestParseAndApplySeed(t *testing.T) {
	seed, err := ParseSeed([]byte(seedYAML))
	require.NoError(t, err)
	require.Len(t, seed.Modules, 2)
	assert.Equal(t, "https://videos/webhooks", seed.Modules[1].Lessons[0].VideoURL)

	w := &memWriter{modules: map[int]*models.Module{}, lessons: map[string]*models.Lesson{}}
	modules, lessons, err := Apply(context.Background(), w, seed)
	require.NoError(t, err)
	assert.Equal(t, 2, modules)
	assert.Equal(t, 4, lessons)

	_, _, err = Apply(context.Background(), w, seed)
	require.NoError(t, err)
	assert.Len(t, w.modules, 2)
	assert.Len(t, w.lessons, 4)
}

func TestParseSeedRejectsBadInput(t *testing.T) {
	_, err := ParseSeed([]byte("modules:\n  - {title: A, order: 1}\n  - {title: B, order: 1}\n"))
	assert.ErrorContains(t, err, "duplicate module order")

	_, err = ParseSeed([]byte("modules:\n  - {order: 1}\n"))
	assert.ErrorContains(t, err, "no title")

	_, err = ParseSeed([]byte("modules: ["))
	assert.Error(t, err)
}

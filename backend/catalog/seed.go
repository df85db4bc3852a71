package catalog

import (
	"context"
	"fmt"
	"os"

	"masterycourse/backend/models"

	"gopkg.in/yaml.v3"
)

type Seed struct {
	Modules []SeedModule `yaml:"modules"`
}

type SeedModule struct {
	Title       string       `yaml:"title"`
	Description string       `yaml:"description"`
	Order       int          `yaml:"order"`
	Lessons     []SeedLesson `yaml:"lessons"`
}

type SeedLesson struct {
	Title     string `yaml:"title"`
	Objective string `yaml:"objective"`
	VideoURL  string `yaml:"video_url"`
	Order     int    `yaml:"order"`
}

// Writer is the slice of the repository the seeder needs. Both calls are
// keyed on the natural ordering keys, so re-seeding updates in place.
type Writer interface {
	UpsertModule(ctx context.Context, m *models.Module) error
	UpsertLesson(ctx context.Context, l *models.Lesson) error
}

func LoadSeed(path string) (*Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog seed: %w", err)
	}
	return ParseSeed(raw)
}

func ParseSeed(raw []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse catalog seed: %w", err)
	}
	seen := map[int]bool{}
	for _, m := range seed.Modules {
		if m.Title == "" {
			return nil, fmt.Errorf("catalog seed: module %d has no title", m.Order)
		}
		if seen[m.Order] {
			return nil, fmt.Errorf("catalog seed: duplicate module order %d", m.Order)
		}
		seen[m.Order] = true
	}
	return &seed, nil
}

// Apply writes the seed and returns the number of modules and lessons touched.
func Apply(ctx context.Context, w Writer, seed *Seed) (modules, lessons int, err error) {
	for _, sm := range seed.Modules {
		m := &models.Module{Title: sm.Title, Description: sm.Description, OrderIndex: sm.Order}
		if err := w.UpsertModule(ctx, m); err != nil {
			return modules, lessons, fmt.Errorf("seed module %q: %w", sm.Title, err)
		}
		modules++
		for _, sl := range sm.Lessons {
			l := &models.Lesson{
				ModuleID:   m.ID,
				Title:      sl.Title,
				Objective:  sl.Objective,
				VideoURL:   sl.VideoURL,
				OrderIndex: sl.Order,
			}
			if err := w.UpsertLesson(ctx, l); err != nil {
				return modules, lessons, fmt.Errorf("seed lesson %q: %w", sl.Title, err)
			}
			lessons++
		}
	}
	return modules, lessons, nil
}

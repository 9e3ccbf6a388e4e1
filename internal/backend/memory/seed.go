package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/quijoterun/tracker/internal/backend"
	"github.com/quijoterun/tracker/internal/dependencies/clock"
	"github.com/quijoterun/tracker/internal/model"
)

// SeedConfig controls the demo data loaded into a fresh backend
type SeedConfig struct {
	OperatorEmail    string
	OperatorPassword string
	AdminRole        string
}

type seedWorkout struct {
	week        int
	title       string
	description string
}

var demoPlan = []seedWorkout{
	{1, "Easy run", "40 minutes at **conversational pace**."},
	{1, "Long run", "14 km steady. Take a gel at 45 minutes."},
	{2, "Intervals", "Warm up 15', then 6 x 1000m at 10k pace with 2' jog recovery."},
	{2, "Long run", "18 km steady, last 3 km at marathon pace."},
	{3, "Tempo", "Warm up 15', 25' at threshold, cool down 10'."},
	{3, "Long run", "22 km easy.\n\n- practise race nutrition\n- wear race shoes"},
	{4, "Recovery", "30 minutes very easy plus mobility."},
	{4, "Race pace", "3 x 5 km at marathon pace, 3' easy between."},
}

// SeedDemo loads an operator account, two upcoming events and a training
// plan for each. Event dates are placed relative to now.
func SeedDemo(ctx context.Context, b *Backend, cfg SeedConfig, now time.Time) error {
	if cfg.OperatorEmail != "" && cfg.OperatorPassword != "" {
		_, err := b.CreateUser(ctx, backend.Credentials{
			Email:    cfg.OperatorEmail,
			Password: cfg.OperatorPassword,
		}, cfg.AdminRole)
		if err != nil {
			return fmt.Errorf("seed operator: %w", err)
		}
	}

	day := clock.StartOfDay(now)
	events := []model.Event{
		{Name: "Valencia Marathon", Date: day.AddDate(0, 0, 10*7).Add(8 * time.Hour)},
		{Name: "Seville Marathon", Date: day.AddDate(0, 0, 20*7).Add(8*time.Hour + 30*time.Minute)},
	}

	for _, e := range events {
		stored, err := backend.InsertOne(ctx, b, model.TableEvents, e)
		if err != nil {
			return fmt.Errorf("seed event %s: %w", e.Name, err)
		}
		for _, w := range demoPlan {
			_, err := backend.InsertOne(ctx, b, model.TableWorkouts, model.Workout{
				EventID:     stored.ID,
				Week:        w.week,
				Title:       w.title,
				Description: w.description,
			})
			if err != nil {
				return fmt.Errorf("seed workout %q: %w", w.title, err)
			}
		}
	}
	return nil
}

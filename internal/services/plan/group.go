package plan

import (
	"sort"

	"github.com/quijoterun/tracker/internal/model"
)

// Week is the workouts of one week number
type Week struct {
	Number   int
	Workouts []model.Workout
}

// GroupByWeek groups workouts by week number. Weeks are ascending; within a
// week workouts keep their input order.
func GroupByWeek(workouts []model.Workout) []Week {
	index := make(map[int]int)
	var weeks []Week
	for _, w := range workouts {
		i, ok := index[w.Week]
		if !ok {
			i = len(weeks)
			index[w.Week] = i
			weeks = append(weeks, Week{Number: w.Week})
		}
		weeks[i].Workouts = append(weeks[i].Workouts, w)
	}

	sort.SliceStable(weeks, func(a, b int) bool {
		return weeks[a].Number < weeks[b].Number
	})
	return weeks
}

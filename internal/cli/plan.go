package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "List events, nearest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Event

			if err := client.Get("/api/v1/events", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newPlanCmd() *cobra.Command {
	var event string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show your plan for an event",
		Long: `Show the workouts of an event week by week with your progress.

Without --event the nearest event is shown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := fetchPlan(event)
			if err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&event, "event", "", "Event ID")

	return cmd
}

func newToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <workout-id>",
		Short: "Mark a workout done, or undo it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Progress

			if err := client.Post(workoutPath(args[0], "toggle"), nil, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newNotesCmd() *cobra.Command {
	var field string

	cmd := &cobra.Command{
		Use:   "notes <workout-id> <text>",
		Short: "Write how a workout felt",
		Long: `Save a note on a workout you have toggled at least once.

--field is sensations (the default) or discomfort.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"field": field,
				"value": args[1],
			}
			var result Progress

			if err := client.Put(workoutPath(args[0], "notes"), req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&field, "field", "sensations", "Note field: sensations, discomfort")

	return cmd
}

func newDiscomfortCmd() *cobra.Command {
	var clearNote bool

	cmd := &cobra.Command{
		Use:   "discomfort <workout-id>",
		Short: "Flag discomfort on a workout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]bool{"checked": !clearNote}
			var result Progress

			if err := client.Put(workoutPath(args[0], "discomfort"), req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearNote, "clear", false, "Clear the discomfort note")

	return cmd
}

func fetchPlan(event string) (Plan, error) {
	path := "/api/v1/plan"
	if event != "" {
		path = "/api/v1/events/" + url.PathEscape(event) + "/plan"
	}

	var result Plan
	if err := client.Get(path, &result); err != nil {
		return Plan{}, err
	}
	return result, nil
}

func workoutPath(id, action string) string {
	return fmt.Sprintf("/api/v1/workouts/%s/%s", url.PathEscape(id), action)
}

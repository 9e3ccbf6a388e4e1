package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newWorkoutsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workouts",
		Short: "Manage an event's workouts (operators only)",
	}

	cmd.AddCommand(newWorkoutsListCmd())
	cmd.AddCommand(newWorkoutsCreateCmd())
	cmd.AddCommand(newWorkoutsUpdateCmd())
	cmd.AddCommand(newWorkoutsDeleteCmd())

	return cmd
}

func newWorkoutsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <event-id>",
		Short: "List the workouts of an event by week",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Workout

			if err := client.Get("/api/v1/admin/events/"+url.PathEscape(args[0])+"/workouts", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

// workoutFlags are the fields of a workout draft
type workoutFlags struct {
	event       string
	week        int
	title       string
	description string
}

func (f *workoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.event, "event", "", "Event ID")
	cmd.Flags().IntVar(&f.week, "week", 1, "Week number")
	cmd.Flags().StringVar(&f.title, "title", "", "Title (required)")
	cmd.Flags().StringVar(&f.description, "description", "", "Description in Markdown (required)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("description")
}

func (f *workoutFlags) request() map[string]any {
	return map[string]any{
		"event_id":    f.event,
		"week":        f.week,
		"title":       f.title,
		"description": f.description,
	}
}

func newWorkoutsCreateCmd() *cobra.Command {
	var flags workoutFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a workout to an event",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.event == "" {
				return fmt.Errorf("--event is required")
			}
			var result []Workout

			if err := client.Post("/api/v1/admin/workouts", flags.request(), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

func newWorkoutsUpdateCmd() *cobra.Command {
	var flags workoutFlags

	cmd := &cobra.Command{
		Use:   "update <workout-id>",
		Short: "Replace a workout's week, title and description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Workout

			if err := client.Put("/api/v1/admin/workouts/"+url.PathEscape(args[0]), flags.request(), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

func newWorkoutsDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <workout-id>",
		Short: "Delete a workout",
		Long: `Delete a workout. Runners' progress on it is kept.

Nothing is deleted unless --yes confirms it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/admin/workouts/" + url.PathEscape(args[0])
			if yes {
				path += "?confirm=true"
			}

			if err := client.Delete(path); err != nil {
				return err
			}

			output(cmd).PrintMessage("Workout deleted")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the deletion")

	return cmd
}

func newRunnersCmd() *cobra.Command {
	var event string

	cmd := &cobra.Command{
		Use:   "runners",
		Short: "Show every runner's completed workouts (operators only)",
		Long: `Show how many workouts each runner has completed.

Percentages are taken over the workouts of --event, or of the nearest event.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/admin/runners"
			if event != "" {
				path += "?event=" + url.QueryEscape(event)
			}
			var result []RunnerSummary

			if err := client.Get(path, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&event, "event", "", "Event ID")

	return cmd
}

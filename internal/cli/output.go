package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	w      io.Writer
	format string
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(w io.Writer, format string) *Output {
	return &Output{w: w, format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Identity:
		o.printIdentity(v)
	case SessionResult:
		o.printIdentity(v.Identity)
	case []Event:
		o.printEvents(v)
	case Plan:
		o.printPlan(v)
	case Progress:
		o.printProgress(v)
	case CountdownResult:
		o.printCountdown(v)
	case []Workout:
		o.printWorkouts(v)
	case []RunnerSummary:
		o.printRunners(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Identity response type (matches API)
type Identity struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Role       string `json:"role,omitempty"`
	Privileged bool   `json:"privileged"`
}

// SessionResult combines identity and token
type SessionResult struct {
	Identity     Identity `json:"identity"`
	SessionToken string   `json:"session_token"`
}

// Event response type
type Event struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Date time.Time `json:"date"`
}

// Workout response type
type Workout struct {
	ID          string `json:"id"`
	EventID     string `json:"event_id"`
	Week        int    `json:"week"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Progress response type
type Progress struct {
	WorkoutID  string     `json:"workout_id"`
	Completed  bool       `json:"completed"`
	Sensations string     `json:"sensations"`
	Discomfort string     `json:"discomfort"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// Remaining is the time left until an event
type Remaining struct {
	Days    int  `json:"days"`
	Hours   int  `json:"hours"`
	Minutes int  `json:"minutes"`
	Seconds int  `json:"seconds"`
	Done    bool `json:"done"`
}

// String formats the remaining time the way the plan page shows it
func (r Remaining) String() string {
	if r.Done {
		return "Race day!"
	}
	return fmt.Sprintf("%dd %02dh %02dm %02ds", r.Days, r.Hours, r.Minutes, r.Seconds)
}

// PlanWorkout response type
type PlanWorkout struct {
	Workout  Workout  `json:"workout"`
	Progress Progress `json:"progress"`
}

// PlanWeek response type
type PlanWeek struct {
	Number   int           `json:"number"`
	Workouts []PlanWorkout `json:"workouts"`
}

// Plan response type
type Plan struct {
	Event          Event      `json:"event"`
	WeeksRemaining int        `json:"weeks_remaining"`
	Countdown      Remaining  `json:"countdown"`
	Weeks          []PlanWeek `json:"weeks"`
}

// CountdownResult is the countdown to one event
type CountdownResult struct {
	Event          Event     `json:"event"`
	WeeksRemaining int       `json:"weeks_remaining"`
	Countdown      Remaining `json:"countdown"`
}

// RunnerSummary response type
type RunnerSummary struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}

// HealthResult response type
type HealthResult struct {
	Server     string `json:"server"`
	Status     string `json:"status"`
	Configured bool   `json:"configured"`
}

func (o *Output) printIdentity(i Identity) {
	role := "runner"
	if i.Privileged {
		role = "operator"
	}
	_, _ = fmt.Fprintf(o.w, "Signed in as: %s (%s)\n", i.Email, i.ID)
	_, _ = fmt.Fprintf(o.w, "Role: %s\n", role)
}

func (o *Output) printEvents(events []Event) {
	if len(events) == 0 {
		_, _ = fmt.Fprintln(o.w, "No events")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	for _, e := range events {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Date.Format("2006-01-02"), e.Name, e.ID)
	}
	_ = tw.Flush()
}

func (o *Output) printPlan(p Plan) {
	_, _ = fmt.Fprintf(o.w, "%s (%s)\n", p.Event.Name, p.Event.Date.Format("2006-01-02"))
	_, _ = fmt.Fprintf(o.w, "Weeks remaining: %d\n", p.WeeksRemaining)
	_, _ = fmt.Fprintf(o.w, "Countdown: %s\n", p.Countdown)

	if len(p.Weeks) == 0 {
		_, _ = fmt.Fprintln(o.w, "\nNo workouts yet")
		return
	}
	for _, week := range p.Weeks {
		_, _ = fmt.Fprintf(o.w, "\nWeek %d\n", week.Number)
		for _, pw := range week.Workouts {
			mark := " "
			if pw.Progress.Completed {
				mark = "x"
			}
			_, _ = fmt.Fprintf(o.w, "  [%s] %s  (%s)\n", mark, pw.Workout.Title, pw.Workout.ID)
			if pw.Progress.Sensations != "" {
				_, _ = fmt.Fprintf(o.w, "      Sensations: %s\n", pw.Progress.Sensations)
			}
			if pw.Progress.Discomfort != "" {
				_, _ = fmt.Fprintf(o.w, "      Discomfort: %s\n", pw.Progress.Discomfort)
			}
		}
	}
}

func (o *Output) printProgress(p Progress) {
	state := "not completed"
	if p.Completed {
		state = "completed"
	}
	_, _ = fmt.Fprintf(o.w, "Workout %s: %s\n", p.WorkoutID, state)
	if p.Sensations != "" {
		_, _ = fmt.Fprintf(o.w, "Sensations: %s\n", p.Sensations)
	}
	if p.Discomfort != "" {
		_, _ = fmt.Fprintf(o.w, "Discomfort: %s\n", p.Discomfort)
	}
}

func (o *Output) printCountdown(c CountdownResult) {
	_, _ = fmt.Fprintf(o.w, "%s: %s\n", c.Event.Name, c.Countdown)
	_, _ = fmt.Fprintf(o.w, "Weeks remaining: %d\n", c.WeeksRemaining)
}

func (o *Output) printWorkouts(workouts []Workout) {
	if len(workouts) == 0 {
		_, _ = fmt.Fprintln(o.w, "No workouts")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "WEEK\tTITLE\tID")
	for _, w := range workouts {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", w.Week, w.Title, w.ID)
	}
	_ = tw.Flush()
}

func (o *Output) printRunners(runners []RunnerSummary) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "EMAIL\tCOMPLETED\tPROGRESS")
	for _, r := range runners {
		_, _ = fmt.Fprintf(tw, "%s\t%d / %d\t%d%%\n", r.Email, r.Completed, r.Total, r.Percentage)
	}
	_ = tw.Flush()
}

func (o *Output) printHealthResult(h HealthResult) {
	configured := "no"
	if h.Configured {
		configured = "yes"
	}
	_, _ = fmt.Fprintf(o.w, "Server: %s\n", h.Server)
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	_, _ = fmt.Fprintf(o.w, "Backend configured: %s\n", configured)
}

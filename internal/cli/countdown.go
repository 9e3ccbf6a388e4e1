package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"
)

func newCountdownCmd() *cobra.Command {
	var event string
	var follow, jsonOutput bool

	cmd := &cobra.Command{
		Use:   "countdown",
		Short: "Show the time left until an event",
		Long: `Show the time left until an event, the nearest one by default.

With --follow the live countdown of the plan page is streamed until you
press Ctrl+C. Stream events:
  - countdown: the remaining time, every second
  - plan-changed: an operator edited the event's workouts`,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := fetchPlan(event)
			if err != nil {
				return err
			}
			if !follow {
				output(cmd).Print(CountdownResult{
					Event:          plan.Event,
					WeeksRemaining: plan.WeeksRemaining,
					Countdown:      plan.Countdown,
				})
				return nil
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return streamCountdown(ctx, cmd.OutOrStdout(), plan.Event, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&event, "event", "", "Event ID")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Stream the live countdown")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output stream events as JSON lines")

	return cmd
}

// SSEEvent represents a parsed SSE event
type SSEEvent struct {
	Time  time.Time `json:"time"`
	Event string    `json:"event"`
	Data  string    `json:"data"`
}

func streamCountdown(ctx context.Context, w io.Writer, event Event, jsonOutput bool) error {
	// The stream is served by the web router, which knows the token as the session cookie
	streamURL := strings.TrimSuffix(cfg.ServerURL, "/") + "/plan/events/" + url.PathEscape(event.ID) + "/countdown"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if cfg.Token != "" {
		req.AddCookie(&http.Cookie{
			Name:  "session",
			Value: cfg.Token,
		})
	}

	// Redirects mean the session was not accepted
	httpClient := &http.Client{
		Timeout: 0, // No timeout for SSE
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
		return fmt.Errorf("countdown stream unavailable (HTTP %d): sign in again with qrun login", resp.StatusCode)
	}

	if !jsonOutput {
		_, _ = fmt.Fprintf(w, "Counting down to %s\n", event.Name)
	}

	// Parse SSE stream
	scanner := bufio.NewScanner(resp.Body)
	var currentEvent string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "event: ") {
			currentEvent = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		} else if line == "" {
			// End of event
			if currentEvent != "" {
				printEvent(w, currentEvent, strings.Join(dataLines, "\n"), jsonOutput)
			}
			currentEvent = ""
			dataLines = nil
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream error: %w", err)
	}

	if !jsonOutput {
		_, _ = fmt.Fprintln(w, "Disconnected")
	}
	return nil
}

func printEvent(w io.Writer, event, data string, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		jsonData, _ := json.Marshal(SSEEvent{Time: now, Event: event, Data: data})
		_, _ = fmt.Fprintln(w, string(jsonData))
		return
	}

	display := data
	if event == "countdown" {
		display = fragmentText(data)
	}
	_, _ = fmt.Fprintf(w, "[%s] %s: %s\n", now.Format("2006-01-02 15:04:05"), event, display)
}

// fragmentText reduces a rendered countdown fragment to its visible text
func fragmentText(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

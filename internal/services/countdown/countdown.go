package countdown

import (
	"context"
	"time"

	"github.com/quijoterun/tracker/internal/dependencies/clock"
)

const week = 7 * 24 * time.Hour

// Remaining is the time left until an event, broken into whole units
type Remaining struct {
	Days    int  `json:"days"`
	Hours   int  `json:"hours"`
	Minutes int  `json:"minutes"`
	Seconds int  `json:"seconds"`
	Done    bool `json:"done"`
}

// Until returns the time left from now until target. Units are floored and
// every field is zero once the target has been reached.
func Until(now, target time.Time) Remaining {
	d := target.Sub(now)
	if d <= 0 {
		return Remaining{Done: true}
	}

	total := int64(d / time.Second)
	return Remaining{
		Days:    int(total / 86400),
		Hours:   int(total % 86400 / 3600),
		Minutes: int(total % 3600 / 60),
		Seconds: int(total % 60),
	}
}

// WeeksRemaining returns the number of weeks left until target, counting a
// started week as a whole one. It is zero once the target has been reached.
func WeeksRemaining(now, target time.Time) int {
	d := target.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + week - 1) / week)
}

// Ticks sends the remaining time immediately and then every interval until
// ctx is done. The channel is closed when ticking stops. Ticking also stops
// after the first Done value.
func Ticks(ctx context.Context, clk clock.Clock, target time.Time, interval time.Duration) <-chan Remaining {
	out := make(chan Remaining, 1)

	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			r := Until(clk.Now(), target)
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
			if r.Done {
				return
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

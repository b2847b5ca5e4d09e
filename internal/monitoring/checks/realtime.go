package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/charlesng35/campushub/internal/monitoring"
)

// SessionCounter exposes the minimal hub state needed for the realtime probe.
type SessionCounter interface {
	Sessions() int
}

// Realtime reports on the WebSocket hub. A missing hub degrades rather than
// fails: notification persistence does not depend on live delivery.
func Realtime(hub SessionCounter) monitoring.Check {
	return monitoring.NewCheck("realtime", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if hub == nil {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusDegraded,
				Details:  "realtime hub unavailable",
				Duration: time.Since(start),
			}
		}

		return monitoring.ProbeResult{
			Status:   monitoring.StatusUp,
			Details:  fmt.Sprintf("%d live sessions", hub.Sessions()),
			Duration: time.Since(start),
		}
	})
}

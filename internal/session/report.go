package session

import (
	"context"
	"fmt"
	"math"
	"strings"
)

const reportRule = "============================================================"

// Report renders a session as the plain-text summary the CLI analyzer
// historically printed: track overview, every run in order, then the
// per-slope rollup.
func (s *Service) Report(ctx context.Context, sessionID string) (string, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	runs, err := s.Runs(ctx, sessionID)
	if err != nil {
		return "", err
	}
	zones, err := s.ZoneStats(ctx, sessionID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", reportRule)
	fmt.Fprintf(&b, "GPX Analysis: %s\n", sess.FileName)
	fmt.Fprintf(&b, "%s\n\n", reportRule)

	fmt.Fprintf(&b, "Track points: %d\n", sess.PointCount)
	fmt.Fprintf(&b, "Coordinate range:\n")
	fmt.Fprintf(&b, "  Latitude:  %.4f ~ %.4f\n", sess.MinLat, sess.MaxLat)
	fmt.Fprintf(&b, "  Longitude: %.4f ~ %.4f\n", sess.MinLon, sess.MaxLon)
	fmt.Fprintf(&b, "  Elevation: %.0fm ~ %.0fm (difference: %.0fm)\n",
		sess.MinElevation, sess.MaxElevation, sess.MaxElevation-sess.MinElevation)
	if sess.StartTime != "" {
		fmt.Fprintf(&b, "  Time:      %s ~ %s\n", sess.StartTime, sess.EndTime)
	}

	fmt.Fprintf(&b, "\n%s\n", reportRule)
	fmt.Fprintf(&b, "Detected runs:  %d\n", sess.RunCount)
	fmt.Fprintf(&b, "Detected lifts: %d\n", sess.LiftCount)
	fmt.Fprintf(&b, "%s\n\n", reportRule)

	for i, run := range runs {
		fmt.Fprintf(&b, "[Run %d] %s\n", i+1, run.Zone)
		fmt.Fprintf(&b, "  Time:     %s -> %s\n", clockTime(run.StartTime), clockTime(run.EndTime))
		fmt.Fprintf(&b, "  Altitude: %.0fm -> %.0fm (down %.0fm)\n",
			run.StartElevation, run.EndElevation, math.Abs(run.VerticalM))
		fmt.Fprintf(&b, "  Distance: %.0fm\n", run.DistanceM)
		fmt.Fprintf(&b, "  Speed:    max %.1f km/h, avg %.1f km/h\n\n", run.MaxSpeedKmh, run.AvgSpeedKmh)
	}

	fmt.Fprintf(&b, "%s\n", reportRule)
	fmt.Fprintf(&b, "Runs per slope\n")
	fmt.Fprintf(&b, "%s\n", reportRule)
	for _, z := range zones {
		fmt.Fprintf(&b, "  %s: %d runs, %.0fm descent, %.0fm distance, top speed %.1f km/h\n",
			z.Zone, z.RunCount, z.TotalDescentM, z.TotalDistanceM, z.MaxSpeedKmh)
	}

	return b.String(), nil
}

// clockTime reduces an RFC3339 timestamp to its HH:MM:SS part.
func clockTime(t string) string {
	if len(t) >= 19 {
		return t[11:19]
	}
	return t
}

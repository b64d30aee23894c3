package analysis

import "github.com/mirukee/snow-recorder/internal/shared/geo"

const mpsToKmh = 3.6

// Config holds the segmentation thresholds.
type Config struct {
	SpeedRunThresholdKmh  float64 // above this a point is moving fast
	SpeedLiftThresholdKmh float64 // below this a point is considered stationary
	ElevationTrendWindow  int     // samples to look back for the elevation trend
	DescendDeltaM         float64 // trend below this while fast = run
	AscendDeltaFastM      float64 // trend above this while fast = lift (gondola)
	AscendDeltaSlowM      float64 // trend above this while slow = lift
	MinSegmentPoints      int     // shorter stretches are absorbed, never emitted
}

// DefaultConfig returns the thresholds tuned on recorded resort sessions.
func DefaultConfig() Config {
	return Config{
		SpeedRunThresholdKmh:  5.0,
		SpeedLiftThresholdKmh: 2.0,
		ElevationTrendWindow:  5,
		DescendDeltaM:         -3.0,
		AscendDeltaFastM:      3.0,
		AscendDeltaSlowM:      2.0,
		MinSegmentPoints:      10,
	}
}

// SegmentTrack splits an ordered point sequence into run/lift/rest segments.
// A label change only commits once the current buffer holds at least
// MinSegmentPoints, so short speed blips are absorbed by the surrounding
// segment instead of fragmenting it. The trailing buffer is kept only if it
// meets the minimum; a shorter tail is dropped. Empty input yields nil.
func SegmentTrack(points []TrackPoint, cfg Config) []Segment {
	var segments []Segment
	var buf []TrackPoint
	var current SegmentKind
	seeded := false

	for i, p := range points {
		kind := classifyPoint(points, i, cfg)
		if !seeded {
			current = kind
			seeded = true
		}

		if kind != current && len(buf) >= cfg.MinSegmentPoints {
			segments = append(segments, newSegment(buf, current))
			buf = []TrackPoint{p}
			current = kind
		} else {
			buf = append(buf, p)
		}
	}

	if len(buf) >= cfg.MinSegmentPoints {
		segments = append(segments, newSegment(buf, current))
	}
	return segments
}

// classifyPoint labels a single sample. The elevation trend compares against
// the sample ElevationTrendWindow positions back and only engages once the
// index is strictly past the window; before that each speed band falls back
// to its default label (run when fast, lift when slow).
func classifyPoint(points []TrackPoint, i int, cfg Config) SegmentKind {
	speedKmh := points[i].Speed * mpsToKmh

	switch {
	case speedKmh > cfg.SpeedRunThresholdKmh:
		if i > cfg.ElevationTrendWindow {
			delta := points[i].Elevation - points[i-cfg.ElevationTrendWindow].Elevation
			if delta < cfg.DescendDeltaM {
				return KindRun
			}
			if delta > cfg.AscendDeltaFastM {
				// fast upward motion: gondola or detachable lift
				return KindLift
			}
		}
		return KindRun

	case speedKmh > cfg.SpeedLiftThresholdKmh:
		if i > cfg.ElevationTrendWindow {
			delta := points[i].Elevation - points[i-cfg.ElevationTrendWindow].Elevation
			if delta > cfg.AscendDeltaSlowM {
				return KindLift
			}
			return KindRest
		}
		return KindLift

	default:
		return KindRest
	}
}

// newSegment finalizes a buffer into an immutable Segment with its derived
// statistics. Speed stats only consider points with positive speed.
func newSegment(points []TrackPoint, kind SegmentKind) Segment {
	var distance float64
	for i := 1; i < len(points); i++ {
		distance += geo.HaversineM(points[i-1].Lat, points[i-1].Lon, points[i].Lat, points[i].Lon)
	}

	var maxSpeed, speedSum float64
	moving := 0
	for _, p := range points {
		if p.Speed <= 0 {
			continue
		}
		kmh := p.Speed * mpsToKmh
		if kmh > maxSpeed {
			maxSpeed = kmh
		}
		speedSum += kmh
		moving++
	}
	avgSpeed := 0.0
	if moving > 0 {
		avgSpeed = speedSum / float64(moving)
	}

	first, last := points[0], points[len(points)-1]
	return Segment{
		Kind:           kind,
		Points:         points,
		StartTime:      first.Time,
		EndTime:        last.Time,
		StartElevation: first.Elevation,
		EndElevation:   last.Elevation,
		VerticalM:      last.Elevation - first.Elevation,
		DistanceM:      distance,
		MaxSpeedKmh:    maxSpeed,
		AvgSpeedKmh:    avgSpeed,
	}
}

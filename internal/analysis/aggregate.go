package analysis

import "math"

const (
	// ZoneUnknown marks a run segment whose points matched no registered slope.
	ZoneUnknown = "Unknown"
	// ZoneNotApplicable marks lift and rest segments, which are never classified.
	ZoneNotApplicable = "N/A"
)

// Aggregate assigns every run segment to a slope by majority vote over its
// points and rolls the run's totals into that slope's ZoneStats entry.
// Points matching no polygon cast no vote. Ties keep the zone that was
// encountered first in point order, which mirrors how the historical
// statistics were produced. The returned order slice lists stats keys in
// first-assignment order so output is deterministic.
func Aggregate(segments []Segment, registry *Registry) ([]Assignment, map[string]*ZoneStats, []string) {
	assignments := make([]Assignment, len(segments))
	stats := make(map[string]*ZoneStats)
	var order []string

	for i, seg := range segments {
		if seg.Kind != KindRun {
			assignments[i] = Assignment{Zone: ZoneNotApplicable}
			continue
		}

		votes := make(map[string]int)
		var encountered []string
		for _, p := range seg.Points {
			name, ok := registry.Classify(p.Lat, p.Lon)
			if !ok {
				continue
			}
			if _, seen := votes[name]; !seen {
				encountered = append(encountered, name)
			}
			votes[name]++
		}

		zone := ZoneUnknown
		best := 0
		for _, name := range encountered {
			if votes[name] > best {
				best = votes[name]
				zone = name
			}
		}

		confidence := 0.0
		if best > 0 && len(seg.Points) > 0 {
			confidence = float64(best) / float64(len(seg.Points))
		}
		assignments[i] = Assignment{Zone: zone, Confidence: confidence}

		zs, ok := stats[zone]
		if !ok {
			zs = &ZoneStats{}
			stats[zone] = zs
			order = append(order, zone)
		}
		zs.RunCount++
		zs.TotalDescentM += math.Abs(seg.VerticalM)
		zs.TotalDistanceM += seg.DistanceM
		if seg.MaxSpeedKmh > zs.MaxSpeedKmh {
			zs.MaxSpeedKmh = seg.MaxSpeedKmh
		}
	}

	return assignments, stats, order
}

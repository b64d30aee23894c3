package analysis

import (
	"fmt"
	"testing"
)

func sessionPoint(i int, ele, speedKmh float64) TrackPoint {
	return TrackPoint{
		Lat:       37.19 + float64(i)*0.0001,
		Lon:       128.82 + float64(i)*0.0001,
		Elevation: ele,
		Time:      fmt.Sprintf("2026-01-22T09:00:%02dZ", i%60),
		Speed:     speedKmh / 3.6,
	}
}

// rampSession is 30 points: speed ramping 0..8 km/h over 0-9 on flat ground,
// a 9 km/h descent losing 5 m over 10-24, then standstill over 25-29.
func rampSession() []TrackPoint {
	points := make([]TrackPoint, 0, 30)
	for i := 0; i < 10; i++ {
		points = append(points, sessionPoint(i, 1000, float64(i)*8.0/9.0))
	}
	for i := 10; i < 25; i++ {
		points = append(points, sessionPoint(i, 1000-float64(i-9)/3.0, 9))
	}
	for i := 25; i < 30; i++ {
		points = append(points, sessionPoint(i, 995, 0))
	}
	return points
}

func TestSegmentTrackEmpty(t *testing.T) {
	if segs := SegmentTrack(nil, DefaultConfig()); len(segs) != 0 {
		t.Fatalf("expected no segments, got %d", len(segs))
	}
}

func TestSegmentTrackRunBetweenRests(t *testing.T) {
	segs := SegmentTrack(rampSession(), DefaultConfig())

	var runs []Segment
	for _, s := range segs {
		if s.Kind == KindRun {
			runs = append(runs, s)
		}
	}
	if len(runs) != 1 {
		t.Fatalf("expected exactly one run, got %d", len(runs))
	}
	if len(runs[0].Points) != 15 {
		t.Fatalf("expected run of 15 points, got %d", len(runs[0].Points))
	}
	if runs[0].VerticalM >= 0 {
		t.Fatalf("expected net descent, got %v", runs[0].VerticalM)
	}
	// the trailing 5-point rest is below the minimum and must be dropped
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments (rest + run), got %d", len(segs))
	}
	if segs[0].Kind != KindRest || len(segs[0].Points) != 10 {
		t.Fatalf("expected leading rest of 10 points, got %v/%d", segs[0].Kind, len(segs[0].Points))
	}
}

func TestSegmentTrackPartition(t *testing.T) {
	points := rampSession()
	segs := SegmentTrack(points, DefaultConfig())

	cfg := DefaultConfig()
	var flat []TrackPoint
	for _, s := range segs {
		if len(s.Points) < cfg.MinSegmentPoints {
			t.Fatalf("segment below minimum length: %d", len(s.Points))
		}
		flat = append(flat, s.Points...)
	}

	// concatenated segments must be an in-order subsequence of the input
	// with no point claimed twice
	next := 0
	for _, p := range flat {
		found := false
		for next < len(points) {
			if points[next].Time == p.Time {
				found = true
				next++
				break
			}
			next++
		}
		if !found {
			t.Fatalf("segment point %q not found in order", p.Time)
		}
	}
}

func TestSegmentTrackFastAscentIsLift(t *testing.T) {
	// fast upward motion (gondola) flips the fast band from run to lift
	// once the trend window engages
	points := make([]TrackPoint, 30)
	for i := range points {
		points[i] = sessionPoint(i, 1000+float64(i), 20)
	}
	segs := SegmentTrack(points, DefaultConfig())
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	// indices 0..5 fall back to run, the committed remainder is lift
	if segs[0].Kind != KindRun || segs[1].Kind != KindLift {
		t.Fatalf("expected run then lift, got %v then %v", segs[0].Kind, segs[1].Kind)
	}
}

func TestSegmentTrackSlowAscentIsLift(t *testing.T) {
	// chairlift pace: 4 km/h ascending 1 m per sample
	points := make([]TrackPoint, 20)
	for i := range points {
		points[i] = sessionPoint(i, 1000+float64(i), 4)
	}
	segs := SegmentTrack(points, DefaultConfig())
	if len(segs) != 1 {
		t.Fatalf("expected single segment, got %d", len(segs))
	}
	if segs[0].Kind != KindLift {
		t.Fatalf("expected lift, got %v", segs[0].Kind)
	}
	if len(segs[0].Points) != 20 {
		t.Fatalf("expected all points kept, got %d", len(segs[0].Points))
	}
}

func TestSegmentTrackBlipAbsorbed(t *testing.T) {
	// a 3-point speed spike early in a rest stretch, before the buffer
	// reaches the minimum, must be absorbed instead of fragmenting it
	points := make([]TrackPoint, 30)
	for i := range points {
		speed := 0.5
		if i >= 5 && i < 8 {
			speed = 12
		}
		points[i] = sessionPoint(i, 1000, speed)
	}
	segs := SegmentTrack(points, DefaultConfig())
	if len(segs) != 1 {
		t.Fatalf("expected single merged segment, got %d", len(segs))
	}
	if segs[0].Kind != KindRest {
		t.Fatalf("expected rest, got %v", segs[0].Kind)
	}
	if len(segs[0].Points) != 30 {
		t.Fatalf("expected all 30 points, got %d", len(segs[0].Points))
	}
}

func TestSegmentTrackTooShort(t *testing.T) {
	points := make([]TrackPoint, 5)
	for i := range points {
		points[i] = sessionPoint(i, 1000, 9)
	}
	if segs := SegmentTrack(points, DefaultConfig()); len(segs) != 0 {
		t.Fatalf("expected no segments below minimum, got %d", len(segs))
	}
}

func TestSegmentStats(t *testing.T) {
	points := make([]TrackPoint, 12)
	for i := range points {
		points[i] = sessionPoint(i, 1200-float64(i)*10, 30)
	}
	// one dead sample must not drag the average down
	points[6].Speed = 0

	segs := SegmentTrack(points, DefaultConfig())
	if len(segs) != 1 {
		t.Fatalf("expected one segment, got %d", len(segs))
	}
	s := segs[0]
	if s.VerticalM != -110 {
		t.Fatalf("unexpected vertical: %v", s.VerticalM)
	}
	if s.DistanceM <= 0 {
		t.Fatalf("expected positive distance")
	}
	if s.MaxSpeedKmh != 30 {
		t.Fatalf("unexpected max speed: %v", s.MaxSpeedKmh)
	}
	if s.AvgSpeedKmh != 30 {
		t.Fatalf("zero-speed points must be excluded from the mean, got %v", s.AvgSpeedKmh)
	}
	if s.StartTime != points[0].Time || s.EndTime != points[11].Time {
		t.Fatalf("unexpected time range %q -> %q", s.StartTime, s.EndTime)
	}
}

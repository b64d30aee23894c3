package session

import (
	"time"

	"github.com/mirukee/snow-recorder/internal/analysis"
)

// Session is one analyzed GPX recording.
type Session struct {
	ID             string    `json:"id"`
	FileName       string    `json:"file_name"`
	PointCount     int       `json:"point_count"`
	RunCount       int       `json:"run_count"`
	LiftCount      int       `json:"lift_count"`
	RestCount      int       `json:"rest_count"`
	TotalDescentM  float64   `json:"total_descent_m"`
	TotalDistanceM float64   `json:"total_distance_m"`
	MaxSpeedKmh    float64   `json:"max_speed_kmh"`
	MinLat         float64   `json:"min_lat"`
	MaxLat         float64   `json:"max_lat"`
	MinLon         float64   `json:"min_lon"`
	MaxLon         float64   `json:"max_lon"`
	MinElevation   float64   `json:"min_elevation_m"`
	MaxElevation   float64   `json:"max_elevation_m"`
	StartTime      string    `json:"start_time,omitempty"`
	EndTime        string    `json:"end_time,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// SegmentRecord is a stored segment together with its zone verdict.
type SegmentRecord struct {
	ID             string  `json:"id"`
	SessionID      string  `json:"session_id"`
	Seq            int     `json:"seq"`
	Kind           string  `json:"kind"`
	Zone           string  `json:"zone"`
	Confidence     float64 `json:"confidence"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	StartElevation float64 `json:"start_elevation_m"`
	EndElevation   float64 `json:"end_elevation_m"`
	VerticalM      float64 `json:"vertical_m"`
	DistanceM      float64 `json:"distance_m"`
	MaxSpeedKmh    float64 `json:"max_speed_kmh"`
	AvgSpeedKmh    float64 `json:"avg_speed_kmh"`
	PointCount     int     `json:"point_count"`
}

// ZoneStatRecord is one slope's rolled-up totals for a session. Position is
// first-assignment order within the session, which keeps reports stable.
type ZoneStatRecord struct {
	SessionID      string  `json:"session_id,omitempty"`
	Zone           string  `json:"zone"`
	RunCount       int     `json:"run_count"`
	TotalDescentM  float64 `json:"total_descent_m"`
	TotalDistanceM float64 `json:"total_distance_m"`
	MaxSpeedKmh    float64 `json:"max_speed_kmh"`
	Position       int     `json:"position"`
}

// Analysis is the full result of analyzing one GPX upload.
type Analysis struct {
	Session   Session          `json:"session"`
	Segments  []SegmentRecord  `json:"segments"`
	ZoneStats []ZoneStatRecord `json:"zone_stats"`
}

// RunEvent is broadcast to session watchers for every detected run.
type RunEvent struct {
	Type        string  `json:"type"`
	SessionID   string  `json:"session_id"`
	Seq         int     `json:"seq"`
	Zone        string  `json:"zone"`
	Confidence  float64 `json:"confidence"`
	VerticalM   float64 `json:"vertical_m"`
	DistanceM   float64 `json:"distance_m"`
	MaxSpeedKmh float64 `json:"max_speed_kmh"`
}

func segmentRecord(sessionID string, seq int, seg analysis.Segment, a analysis.Assignment) SegmentRecord {
	return SegmentRecord{
		SessionID:      sessionID,
		Seq:            seq,
		Kind:           seg.Kind.String(),
		Zone:           a.Zone,
		Confidence:     a.Confidence,
		StartTime:      seg.StartTime,
		EndTime:        seg.EndTime,
		StartElevation: seg.StartElevation,
		EndElevation:   seg.EndElevation,
		VerticalM:      seg.VerticalM,
		DistanceM:      seg.DistanceM,
		MaxSpeedKmh:    seg.MaxSpeedKmh,
		AvgSpeedKmh:    seg.AvgSpeedKmh,
		PointCount:     len(seg.Points),
	}
}

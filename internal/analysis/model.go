package analysis

import "fmt"

// TrackPoint is one GPS sample from a recorded ski session. The parser is
// responsible for defaults: missing elevation becomes 0 and a missing
// timestamp becomes the empty string, both of which are valid here.
type TrackPoint struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Elevation float64 `json:"elevation_m"`
	Time      string  `json:"time"`
	Speed     float64 `json:"speed_mps"` // m/s, >= 0
}

// SegmentKind is the closed set of stretch classifications.
type SegmentKind int

const (
	KindRest SegmentKind = iota
	KindRun
	KindLift
)

func (k SegmentKind) String() string {
	switch k {
	case KindRun:
		return "run"
	case KindLift:
		return "lift"
	case KindRest:
		return "rest"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k SegmentKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// Segment is one contiguous stretch of a session. It is created once by the
// segmenter and never mutated afterward.
type Segment struct {
	Kind           SegmentKind  `json:"kind"`
	Points         []TrackPoint `json:"-"`
	StartTime      string       `json:"start_time"`
	EndTime        string       `json:"end_time"`
	StartElevation float64      `json:"start_elevation_m"`
	EndElevation   float64      `json:"end_elevation_m"`
	VerticalM      float64      `json:"vertical_m"` // end - start, negative = descent
	DistanceM      float64      `json:"distance_m"`
	MaxSpeedKmh    float64      `json:"max_speed_kmh"`
	AvgSpeedKmh    float64      `json:"avg_speed_kmh"`
}

// Assignment is the zone verdict for one segment. Confidence is the vote
// share of the winning zone over all points in the segment.
type Assignment struct {
	Zone       string  `json:"zone"`
	Confidence float64 `json:"confidence"`
}

// ZoneStats accumulates per-slope totals over one session's run segments.
type ZoneStats struct {
	RunCount       int     `json:"run_count"`
	TotalDescentM  float64 `json:"total_descent_m"`
	TotalDistanceM float64 `json:"total_distance_m"`
	MaxSpeedKmh    float64 `json:"max_speed_kmh"`
}

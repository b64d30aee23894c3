package gpx

import (
	"strconv"
	"time"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/mirukee/snow-recorder/internal/analysis"
	"github.com/mirukee/snow-recorder/internal/shared/geo"
)

// Parse converts raw GPX bytes into the ordered track point sequence the
// analysis pipeline consumes. Tracker apps export instantaneous speed as a
// gte:gps extension attribute (m/s); when a point carries none, speed falls
// back to the haversine distance over the time delta from the previous
// point. Missing elevation becomes 0 and a missing timestamp the empty
// string.
func Parse(data []byte) ([]analysis.TrackPoint, error) {
	file, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, err
	}

	var points []analysis.TrackPoint
	var prev *gpx.GPXPoint

	add := func(p *gpx.GPXPoint) {
		tp := analysis.TrackPoint{
			Lat:       p.Point.Latitude,
			Lon:       p.Point.Longitude,
			Elevation: p.Elevation.Value(),
		}
		if !p.Timestamp.IsZero() {
			tp.Time = p.Timestamp.UTC().Format(time.RFC3339)
		}

		speed, ok := extensionSpeed(p)
		if !ok && prev != nil {
			speed = derivedSpeed(prev, p)
		}
		tp.Speed = speed

		cp := *p
		prev = &cp
		points = append(points, tp)
	}

	for _, track := range file.Tracks {
		for _, segment := range track.Segments {
			for i := range segment.Points {
				add(&segment.Points[i])
			}
		}
	}

	// some exports carry routes instead of tracks
	if len(points) == 0 {
		for _, route := range file.Routes {
			for i := range route.Points {
				add(&route.Points[i])
			}
		}
	}

	return points, nil
}

// extensionSpeed digs the speed attribute out of the point's extension tree,
// e.g. <extensions><gte:gps speed="11.6"/></extensions>.
func extensionSpeed(p *gpx.GPXPoint) (float64, bool) {
	return findSpeedAttr(p.Extensions.Nodes)
}

func findSpeedAttr(nodes []gpx.ExtensionNode) (float64, bool) {
	for _, node := range nodes {
		if node.XMLName.Local == "gps" {
			for _, attr := range node.Attrs {
				if attr.Name.Local != "speed" {
					continue
				}
				v, err := strconv.ParseFloat(attr.Value, 64)
				if err != nil || v < 0 {
					return 0, true
				}
				return v, true
			}
		}
		if v, ok := findSpeedAttr(node.Nodes); ok {
			return v, ok
		}
	}
	return 0, false
}

func derivedSpeed(prev, curr *gpx.GPXPoint) float64 {
	if prev.Timestamp.IsZero() || curr.Timestamp.IsZero() {
		return 0
	}
	dt := curr.Timestamp.Sub(prev.Timestamp).Seconds()
	if dt <= 0 {
		return 0
	}
	dist := geo.HaversineM(prev.Point.Latitude, prev.Point.Longitude, curr.Point.Latitude, curr.Point.Longitude)
	return dist / dt
}

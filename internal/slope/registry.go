package slope

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mirukee/snow-recorder/internal/analysis"
)

// fileSlope is the resort JSON schema, e.g. resources/high1_slopes.json.
// Polygon entries are [lat, lon] pairs.
type fileSlope struct {
	Name           string      `json:"name"`
	KoreanName     string      `json:"koreanName"`
	Difficulty     string      `json:"difficulty"`
	Status         string      `json:"status"`
	Length         float64     `json:"length"`
	AvgGradient    float64     `json:"avgGradient"`
	MaxGradient    float64     `json:"maxGradient"`
	Polygon        [][]float64 `json:"polygon"`
	TopPoint       *filePoint  `json:"topPoint"`
	BottomPoint    *filePoint  `json:"bottomPoint"`
	TopAltitude    float64     `json:"topAltitude"`
	BottomAltitude float64     `json:"bottomAltitude"`
}

type filePoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LoadFile reads the seed slope definitions. Array order is preserved: it is
// the classification priority for overlapping boundaries.
func LoadFile(path string) ([]Slope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw []fileSlope
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse slope file %s: %w", path, err)
	}

	slopes := make([]Slope, 0, len(raw))
	for i, fs := range raw {
		s := Slope{
			Name:           fs.Name,
			KoreanName:     fs.KoreanName,
			Difficulty:     fs.Difficulty,
			Status:         fs.Status,
			LengthM:        fs.Length,
			AvgGradient:    fs.AvgGradient,
			MaxGradient:    fs.MaxGradient,
			TopAltitude:    fs.TopAltitude,
			BottomAltitude: fs.BottomAltitude,
			Position:       i,
		}
		for _, pair := range fs.Polygon {
			if len(pair) != 2 {
				return nil, fmt.Errorf("slope %q: polygon entry must be [lat, lon]", fs.Name)
			}
			s.Boundary = append(s.Boundary, analysis.Vertex{Lat: pair[0], Lon: pair[1]})
		}
		if fs.TopPoint != nil {
			s.TopPoint = &analysis.Vertex{Lat: fs.TopPoint.Lat, Lon: fs.TopPoint.Lon}
		}
		if fs.BottomPoint != nil {
			s.BottomPoint = &analysis.Vertex{Lat: fs.BottomPoint.Lat, Lon: fs.BottomPoint.Lon}
		}
		slopes = append(slopes, s)
	}
	return slopes, nil
}

// BuildRegistry turns an ordered slope list into the immutable registry the
// analysis pipeline classifies against.
func BuildRegistry(slopes []Slope) *analysis.Registry {
	polygons := make([]analysis.Polygon, 0, len(slopes))
	for _, s := range slopes {
		polygons = append(polygons, analysis.Polygon{Name: s.Name, Boundary: s.Boundary})
	}
	return analysis.NewRegistry(polygons...)
}

package slope

import (
	"time"

	"github.com/mirukee/snow-recorder/internal/analysis"
)

// Slope is one named, geofenced piste. Boundary vertex order is significant:
// it is the ring the ray-casting classifier walks, exactly as loaded.
type Slope struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	KoreanName     string            `json:"korean_name,omitempty"`
	Difficulty     string            `json:"difficulty,omitempty"`
	Status         string            `json:"status,omitempty"`
	LengthM        float64           `json:"length_m,omitempty"`
	AvgGradient    float64           `json:"avg_gradient,omitempty"`
	MaxGradient    float64           `json:"max_gradient,omitempty"`
	Boundary       []analysis.Vertex `json:"boundary"`
	TopPoint       *analysis.Vertex  `json:"top_point,omitempty"`
	BottomPoint    *analysis.Vertex  `json:"bottom_point,omitempty"`
	TopAltitude    float64           `json:"top_altitude,omitempty"`
	BottomAltitude float64           `json:"bottom_altitude,omitempty"`
	Position       int               `json:"position"`
	CreatedAt      time.Time         `json:"created_at,omitempty"`
}

package slope

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mirukee/snow-recorder/internal/analysis"
	"github.com/mirukee/snow-recorder/internal/db"
	"github.com/mirukee/snow-recorder/internal/osm"
)

// ElevationLookup resolves terrain elevation for a batch of coordinates.
type ElevationLookup interface {
	Lookup(ctx context.Context, coords []analysis.Vertex) ([]float64, error)
}

// PisteSource fetches downhill piste geometry for a bounding box.
type PisteSource interface {
	FetchPistes(ctx context.Context, bbox string) ([]osm.Piste, error)
}

type Service struct {
	db        db.Querier
	seed      []Slope
	elevation ElevationLookup
	pistes    PisteSource
}

func NewService(q db.Querier, seed []Slope, elevation ElevationLookup, pistes PisteSource) *Service {
	return &Service{db: q, seed: seed, elevation: elevation, pistes: pistes}
}

func (s *Service) CreateSlope(ctx context.Context, input Slope) (Slope, error) {
	if input.Name == "" {
		return Slope{}, errors.New("name required")
	}
	input.ID = uuid.NewString()

	boundary, err := json.Marshal(input.Boundary)
	if err != nil {
		return Slope{}, err
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO slopes (id, name, korean_name, difficulty, status, length_m, avg_gradient, max_gradient, boundary, position)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, (SELECT COALESCE(MAX(position)+1, 0) FROM slopes))
		RETURNING position, created_at
	`, input.ID, input.Name, input.KoreanName, input.Difficulty, input.Status,
		input.LengthM, input.AvgGradient, input.MaxGradient, boundary)
	if err := row.Scan(&input.Position, &input.CreatedAt); err != nil {
		return Slope{}, err
	}
	return input, nil
}

func (s *Service) ListSlopes(ctx context.Context) ([]Slope, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, korean_name, difficulty, status, length_m, avg_gradient, max_gradient,
		       boundary, top_point, bottom_point, COALESCE(top_altitude,0), COALESCE(bottom_altitude,0), position, created_at
		FROM slopes
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slopes []Slope
	for rows.Next() {
		sl, err := scanSlope(rows.Scan)
		if err != nil {
			return nil, err
		}
		slopes = append(slopes, sl)
	}
	return slopes, rows.Err()
}

func (s *Service) GetSlope(ctx context.Context, id string) (Slope, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, korean_name, difficulty, status, length_m, avg_gradient, max_gradient,
		       boundary, top_point, bottom_point, COALESCE(top_altitude,0), COALESCE(bottom_altitude,0), position, created_at
		FROM slopes WHERE id=$1
	`, id)
	return scanSlope(row.Scan)
}

func (s *Service) DeleteSlope(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM slopes WHERE id=$1`, id)
	return err
}

// Registry returns the classification registry: database slopes in position
// order, falling back to the seed file when the table is empty or
// unreachable, so analysis keeps working on a fresh install.
func (s *Service) Registry(ctx context.Context) *analysis.Registry {
	slopes, err := s.ListSlopes(ctx)
	if err != nil || len(slopes) == 0 {
		return BuildRegistry(s.seed)
	}
	return BuildRegistry(slopes)
}

// EnrichElevation looks up terrain elevation for every boundary vertex and
// stores the highest/lowest as the slope's top and bottom points.
func (s *Service) EnrichElevation(ctx context.Context, id string) (Slope, error) {
	sl, err := s.GetSlope(ctx, id)
	if err != nil {
		return Slope{}, err
	}
	if len(sl.Boundary) == 0 {
		return Slope{}, fmt.Errorf("slope %s has no boundary", sl.Name)
	}

	elevations, err := s.elevation.Lookup(ctx, sl.Boundary)
	if err != nil {
		return Slope{}, err
	}
	if len(elevations) != len(sl.Boundary) {
		return Slope{}, errors.New("elevation count mismatch")
	}

	top, bottom := 0, 0
	for i, e := range elevations {
		if e > elevations[top] {
			top = i
		}
		if e < elevations[bottom] {
			bottom = i
		}
	}
	sl.TopPoint = &analysis.Vertex{Lat: sl.Boundary[top].Lat, Lon: sl.Boundary[top].Lon}
	sl.BottomPoint = &analysis.Vertex{Lat: sl.Boundary[bottom].Lat, Lon: sl.Boundary[bottom].Lon}
	sl.TopAltitude = elevations[top]
	sl.BottomAltitude = elevations[bottom]

	topJSON, _ := json.Marshal(sl.TopPoint)
	bottomJSON, _ := json.Marshal(sl.BottomPoint)
	_, err = s.db.Exec(ctx, `
		UPDATE slopes
		SET top_point=$2, bottom_point=$3, top_altitude=$4, bottom_altitude=$5
		WHERE id=$1
	`, sl.ID, topJSON, bottomJSON, sl.TopAltitude, sl.BottomAltitude)
	if err != nil {
		return Slope{}, err
	}
	return sl, nil
}

// ImportOSM pulls downhill pistes for the bounding box and stores each as a
// slope whose boundary is the bounding quad of the piste way.
func (s *Service) ImportOSM(ctx context.Context, bbox string) ([]Slope, error) {
	pistes, err := s.pistes.FetchPistes(ctx, bbox)
	if err != nil {
		return nil, err
	}

	var created []Slope
	for _, p := range pistes {
		if len(p.Coords) == 0 {
			continue
		}
		name := p.Name
		if name == "" {
			name = p.NameEn
		}
		if name == "" {
			continue
		}

		sl, err := s.CreateSlope(ctx, Slope{
			Name:       name,
			KoreanName: p.Name,
			Difficulty: p.Difficulty,
			Status:     "open",
			Boundary:   boundingQuad(p.Coords),
		})
		if err != nil {
			return nil, err
		}
		created = append(created, sl)
	}
	return created, nil
}

// boundingQuad approximates a piste way by the rectangle around it, the same
// shape the hand-maintained slope boundaries use.
func boundingQuad(coords []analysis.Vertex) []analysis.Vertex {
	minLat, maxLat := coords[0].Lat, coords[0].Lat
	minLon, maxLon := coords[0].Lon, coords[0].Lon
	for _, c := range coords[1:] {
		if c.Lat < minLat {
			minLat = c.Lat
		}
		if c.Lat > maxLat {
			maxLat = c.Lat
		}
		if c.Lon < minLon {
			minLon = c.Lon
		}
		if c.Lon > maxLon {
			maxLon = c.Lon
		}
	}
	return []analysis.Vertex{
		{Lat: maxLat, Lon: minLon},
		{Lat: maxLat, Lon: maxLon},
		{Lat: minLat, Lon: maxLon},
		{Lat: minLat, Lon: minLon},
	}
}

func scanSlope(scan func(dest ...any) error) (Slope, error) {
	var sl Slope
	var boundary, topPoint, bottomPoint []byte
	if err := scan(&sl.ID, &sl.Name, &sl.KoreanName, &sl.Difficulty, &sl.Status,
		&sl.LengthM, &sl.AvgGradient, &sl.MaxGradient,
		&boundary, &topPoint, &bottomPoint, &sl.TopAltitude, &sl.BottomAltitude,
		&sl.Position, &sl.CreatedAt); err != nil {
		return Slope{}, err
	}
	if len(boundary) > 0 {
		if err := json.Unmarshal(boundary, &sl.Boundary); err != nil {
			return Slope{}, err
		}
	}
	if len(topPoint) > 0 {
		if err := json.Unmarshal(topPoint, &sl.TopPoint); err != nil {
			return Slope{}, err
		}
	}
	if len(bottomPoint) > 0 {
		if err := json.Unmarshal(bottomPoint, &sl.BottomPoint); err != nil {
			return Slope{}, err
		}
	}
	return sl, nil
}

package slope

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"

	"github.com/mirukee/snow-recorder/internal/analysis"
	"github.com/mirukee/snow-recorder/internal/osm"
)

type stubElevation struct {
	elevations []float64
	err        error
}

func (s stubElevation) Lookup(ctx context.Context, coords []analysis.Vertex) ([]float64, error) {
	return s.elevations, s.err
}

type stubPistes struct {
	pistes []osm.Piste
	err    error
	bbox   string
}

func (s *stubPistes) FetchPistes(ctx context.Context, bbox string) ([]osm.Piste, error) {
	s.bbox = bbox
	return s.pistes, s.err
}

func mockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	return mock
}

var slopeColumns = []string{
	"id", "name", "korean_name", "difficulty", "status", "length_m", "avg_gradient", "max_gradient",
	"boundary", "top_point", "bottom_point", "top_altitude", "bottom_altitude", "position", "created_at",
}

func TestSlopeCRUD(t *testing.T) {
	mock := mockPool(t)
	defer mock.Close()

	createdAt := time.Now()
	mock.ExpectQuery(`INSERT INTO slopes`).
		WithArgs(pgxmock.AnyArg(), "HERA II", "헤라 II", "intermediate", "open", 1370.0, 12.4, 21.0, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"position", "created_at"}).AddRow(0, createdAt))

	svc := NewService(mock, nil, nil, nil)
	sl, err := svc.CreateSlope(context.Background(), Slope{
		Name:        "HERA II",
		KoreanName:  "헤라 II",
		Difficulty:  "intermediate",
		Status:      "open",
		LengthM:     1370,
		AvgGradient: 12.4,
		MaxGradient: 21,
		Boundary:    []analysis.Vertex{{Lat: 37.2036, Lon: 128.8308}, {Lat: 37.2040, Lon: 128.8390}, {Lat: 37.1982, Lon: 128.8312}},
	})
	if err != nil {
		t.Fatalf("create slope: %v", err)
	}
	if sl.ID == "" || sl.Position != 0 {
		t.Fatalf("unexpected slope: %+v", sl)
	}

	boundaryJSON := `[{"lat":37.2036,"lon":128.8308}]`
	mock.ExpectQuery(`SELECT id, name, korean_name, difficulty, status, length_m,`).
		WithArgs(sl.ID).
		WillReturnRows(pgxmock.NewRows(slopeColumns).
			AddRow(sl.ID, sl.Name, sl.KoreanName, sl.Difficulty, sl.Status, sl.LengthM, sl.AvgGradient, sl.MaxGradient,
				[]byte(boundaryJSON), []byte(nil), []byte(nil), 0.0, 0.0, 0, createdAt))

	loaded, err := svc.GetSlope(context.Background(), sl.ID)
	if err != nil {
		t.Fatalf("get slope: %v", err)
	}
	if loaded.Name != "HERA II" || len(loaded.Boundary) != 1 {
		t.Fatalf("unexpected loaded slope: %+v", loaded)
	}
	if loaded.TopPoint != nil {
		t.Fatal("expected nil top point")
	}

	mock.ExpectExec(`DELETE FROM slopes`).WithArgs(sl.ID).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	if err := svc.DeleteSlope(context.Background(), sl.ID); err != nil {
		t.Fatalf("delete slope: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateSlopeRequiresName(t *testing.T) {
	svc := NewService(nil, nil, nil, nil)
	if _, err := svc.CreateSlope(context.Background(), Slope{}); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestRegistryFallsBackToSeed(t *testing.T) {
	mock := mockPool(t)
	defer mock.Close()

	seed := []Slope{{Name: "APOLLO VI", Boundary: []analysis.Vertex{
		{Lat: 0, Lon: 0}, {Lat: 0, Lon: 10}, {Lat: 10, Lon: 10}, {Lat: 10, Lon: 0},
	}}}

	mock.ExpectQuery(`SELECT id, name, korean_name,`).WillReturnError(errors.New("relation does not exist"))

	svc := NewService(mock, seed, nil, nil)
	reg := svc.Registry(context.Background())
	if zone, ok := reg.Classify(5, 5); !ok || zone != "APOLLO VI" {
		t.Fatalf("expected seed fallback, got %q, %v", zone, ok)
	}

	// Empty table falls back too.
	mock.ExpectQuery(`SELECT id, name, korean_name,`).WillReturnRows(pgxmock.NewRows(slopeColumns))
	reg = svc.Registry(context.Background())
	if reg.Len() != 1 {
		t.Fatalf("expected 1 seed slope, got %d", reg.Len())
	}
}

func TestRegistryPrefersDatabase(t *testing.T) {
	mock := mockPool(t)
	defer mock.Close()

	boundary := `[{"lat":0,"lon":0},{"lat":0,"lon":10},{"lat":10,"lon":10},{"lat":10,"lon":0}]`
	mock.ExpectQuery(`SELECT id, name, korean_name,`).
		WillReturnRows(pgxmock.NewRows(slopeColumns).
			AddRow("s1", "ZEUS III", "", "", "open", 0.0, 0.0, 0.0, []byte(boundary), []byte(nil), []byte(nil), 0.0, 0.0, 0, time.Now()))

	svc := NewService(mock, []Slope{{Name: "SEED"}}, nil, nil)
	reg := svc.Registry(context.Background())
	if zone, ok := reg.Classify(5, 5); !ok || zone != "ZEUS III" {
		t.Fatalf("expected database slope, got %q, %v", zone, ok)
	}
}

func TestEnrichElevation(t *testing.T) {
	mock := mockPool(t)
	defer mock.Close()

	boundary := `[{"lat":0,"lon":0},{"lat":0,"lon":1},{"lat":1,"lon":1},{"lat":1,"lon":0}]`
	mock.ExpectQuery(`SELECT id, name, korean_name,`).
		WithArgs("s1").
		WillReturnRows(pgxmock.NewRows(slopeColumns).
			AddRow("s1", "HERA II", "", "", "open", 0.0, 0.0, 0.0, []byte(boundary), []byte(nil), []byte(nil), 0.0, 0.0, 0, time.Now()))
	mock.ExpectExec(`UPDATE slopes`).
		WithArgs("s1", pgxmock.AnyArg(), pgxmock.AnyArg(), 1345.0, 1120.0).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	svc := NewService(mock, nil, stubElevation{elevations: []float64{1200, 1345, 1120, 1250}}, nil)
	sl, err := svc.EnrichElevation(context.Background(), "s1")
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if sl.TopAltitude != 1345 || sl.BottomAltitude != 1120 {
		t.Fatalf("altitudes %v / %v", sl.TopAltitude, sl.BottomAltitude)
	}
	if sl.TopPoint == nil || sl.TopPoint.Lat != 0 || sl.TopPoint.Lon != 1 {
		t.Fatalf("top point %+v", sl.TopPoint)
	}
	if sl.BottomPoint == nil || sl.BottomPoint.Lat != 1 || sl.BottomPoint.Lon != 1 {
		t.Fatalf("bottom point %+v", sl.BottomPoint)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEnrichElevationLookupFailure(t *testing.T) {
	mock := mockPool(t)
	defer mock.Close()

	boundary := `[{"lat":0,"lon":0}]`
	mock.ExpectQuery(`SELECT id, name, korean_name,`).
		WithArgs("s1").
		WillReturnRows(pgxmock.NewRows(slopeColumns).
			AddRow("s1", "HERA II", "", "", "open", 0.0, 0.0, 0.0, []byte(boundary), []byte(nil), []byte(nil), 0.0, 0.0, 0, time.Now()))

	svc := NewService(mock, nil, stubElevation{err: errors.New("api down")}, nil)
	if _, err := svc.EnrichElevation(context.Background(), "s1"); err == nil {
		t.Fatal("expected lookup error")
	}
}

func TestImportOSM(t *testing.T) {
	mock := mockPool(t)
	defer mock.Close()

	pistes := &stubPistes{pistes: []osm.Piste{
		{Name: "제우스 III", NameEn: "ZEUS III", Difficulty: "advanced", Coords: []analysis.Vertex{
			{Lat: 37.2050, Lon: 128.8200}, {Lat: 37.2005, Lon: 128.8265},
		}},
		{Coords: []analysis.Vertex{{Lat: 1, Lon: 1}}}, // unnamed, skipped
		{Name: "empty way"},                           // no coords, skipped
	}}

	mock.ExpectQuery(`INSERT INTO slopes`).
		WithArgs(pgxmock.AnyArg(), "제우스 III", "제우스 III", "advanced", "open", 0.0, 0.0, 0.0, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"position", "created_at"}).AddRow(0, time.Now()))

	svc := NewService(mock, nil, nil, pistes)
	created, err := svc.ImportOSM(context.Background(), "37.19,128.81,37.21,128.83")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if pistes.bbox != "37.19,128.81,37.21,128.83" {
		t.Fatalf("bbox %q", pistes.bbox)
	}
	if len(created) != 1 {
		t.Fatalf("expected 1 created slope, got %d", len(created))
	}

	quad := created[0].Boundary
	if len(quad) != 4 {
		t.Fatalf("expected bounding quad, got %d vertices", len(quad))
	}
	if quad[0].Lat != 37.2050 || quad[0].Lon != 128.8200 {
		t.Fatalf("quad starts at %+v", quad[0])
	}
	if quad[2].Lat != 37.2005 || quad[2].Lon != 128.8265 {
		t.Fatalf("quad corner %+v", quad[2])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBoundingQuadOrientation(t *testing.T) {
	quad := boundingQuad([]analysis.Vertex{
		{Lat: 2, Lon: 7}, {Lat: 5, Lon: 3}, {Lat: 1, Lon: 9},
	})
	want := []analysis.Vertex{{Lat: 5, Lon: 3}, {Lat: 5, Lon: 9}, {Lat: 1, Lon: 9}, {Lat: 1, Lon: 3}}
	for i := range want {
		if quad[i] != want[i] {
			t.Fatalf("quad[%d] = %+v, want %+v", i, quad[i], want[i])
		}
	}
}

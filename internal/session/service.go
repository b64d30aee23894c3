package session

import (
	"context"
	"encoding/json"
	"errors"
	"math"

	"github.com/google/uuid"

	"github.com/mirukee/snow-recorder/internal/analysis"
	"github.com/mirukee/snow-recorder/internal/db"
	"github.com/mirukee/snow-recorder/internal/gpx"
	"github.com/mirukee/snow-recorder/internal/stream"
)

var ErrNoTrackPoints = errors.New("gpx file contains no track points")

type Service struct {
	db  db.Querier
	hub *stream.Hub
}

func NewService(q db.Querier, hub *stream.Hub) *Service {
	return &Service{db: q, hub: hub}
}

// Analyze parses a GPX upload, segments it into runs, lifts and rests,
// assigns each run to a slope and persists the whole result. Detected runs
// are broadcast to watchers of the new session as they are stored.
func (s *Service) Analyze(ctx context.Context, fileName string, data []byte, registry *analysis.Registry) (Analysis, error) {
	points, err := gpx.Parse(data)
	if err != nil {
		return Analysis{}, err
	}
	if len(points) == 0 {
		return Analysis{}, ErrNoTrackPoints
	}

	segments := analysis.SegmentTrack(points, analysis.DefaultConfig())
	assignments, stats, order := analysis.Aggregate(segments, registry)

	sess := buildSession(fileName, points, segments, assignments)

	row := s.db.QueryRow(ctx, `
		INSERT INTO sessions (id, file_name, point_count, run_count, lift_count, rest_count,
			total_descent_m, total_distance_m, max_speed_kmh,
			min_lat, max_lat, min_lon, max_lon, min_elevation, max_elevation,
			start_time, end_time)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING created_at
	`, sess.ID, sess.FileName, sess.PointCount, sess.RunCount, sess.LiftCount, sess.RestCount,
		sess.TotalDescentM, sess.TotalDistanceM, sess.MaxSpeedKmh,
		sess.MinLat, sess.MaxLat, sess.MinLon, sess.MaxLon, sess.MinElevation, sess.MaxElevation,
		sess.StartTime, sess.EndTime)
	if err := row.Scan(&sess.CreatedAt); err != nil {
		return Analysis{}, err
	}

	records := make([]SegmentRecord, len(segments))
	for i, seg := range segments {
		rec := segmentRecord(sess.ID, i, seg, assignments[i])
		rec.ID = uuid.NewString()

		_, err := s.db.Exec(ctx, `
			INSERT INTO segments (id, session_id, seq, kind, zone, confidence,
				start_time, end_time, start_elevation, end_elevation,
				vertical_m, distance_m, max_speed_kmh, avg_speed_kmh, point_count)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		`, rec.ID, rec.SessionID, rec.Seq, rec.Kind, rec.Zone, rec.Confidence,
			rec.StartTime, rec.EndTime, rec.StartElevation, rec.EndElevation,
			rec.VerticalM, rec.DistanceM, rec.MaxSpeedKmh, rec.AvgSpeedKmh, rec.PointCount)
		if err != nil {
			return Analysis{}, err
		}
		records[i] = rec

		if seg.Kind == analysis.KindRun && s.hub != nil {
			payload, _ := json.Marshal(RunEvent{
				Type:        "run_detected",
				SessionID:   sess.ID,
				Seq:         rec.Seq,
				Zone:        rec.Zone,
				Confidence:  rec.Confidence,
				VerticalM:   rec.VerticalM,
				DistanceM:   rec.DistanceM,
				MaxSpeedKmh: rec.MaxSpeedKmh,
			})
			s.hub.Broadcast(sess.ID, payload)
		}
	}

	zoneRecords := make([]ZoneStatRecord, 0, len(order))
	for pos, zone := range order {
		zs := stats[zone]
		zr := ZoneStatRecord{
			SessionID:      sess.ID,
			Zone:           zone,
			RunCount:       zs.RunCount,
			TotalDescentM:  zs.TotalDescentM,
			TotalDistanceM: zs.TotalDistanceM,
			MaxSpeedKmh:    zs.MaxSpeedKmh,
			Position:       pos,
		}
		_, err := s.db.Exec(ctx, `
			INSERT INTO zone_stats (session_id, zone, run_count, total_descent_m, total_distance_m, max_speed_kmh, position)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, zr.SessionID, zr.Zone, zr.RunCount, zr.TotalDescentM, zr.TotalDistanceM, zr.MaxSpeedKmh, zr.Position)
		if err != nil {
			return Analysis{}, err
		}
		zoneRecords = append(zoneRecords, zr)
	}

	return Analysis{Session: sess, Segments: records, ZoneStats: zoneRecords}, nil
}

// buildSession rolls session-level totals out of the analysis results.
// Descent, distance and top speed only count run segments, matching how
// the per-slope statistics are produced.
func buildSession(fileName string, points []analysis.TrackPoint, segments []analysis.Segment, assignments []analysis.Assignment) Session {
	sess := Session{
		ID:           uuid.NewString(),
		FileName:     fileName,
		PointCount:   len(points),
		MinLat:       points[0].Lat,
		MaxLat:       points[0].Lat,
		MinLon:       points[0].Lon,
		MaxLon:       points[0].Lon,
		MinElevation: points[0].Elevation,
		MaxElevation: points[0].Elevation,
	}

	for _, p := range points {
		sess.MinLat = math.Min(sess.MinLat, p.Lat)
		sess.MaxLat = math.Max(sess.MaxLat, p.Lat)
		sess.MinLon = math.Min(sess.MinLon, p.Lon)
		sess.MaxLon = math.Max(sess.MaxLon, p.Lon)
		sess.MinElevation = math.Min(sess.MinElevation, p.Elevation)
		sess.MaxElevation = math.Max(sess.MaxElevation, p.Elevation)
	}
	sess.StartTime = points[0].Time
	sess.EndTime = points[len(points)-1].Time

	for _, seg := range segments {
		switch seg.Kind {
		case analysis.KindRun:
			sess.RunCount++
			sess.TotalDescentM += math.Abs(seg.VerticalM)
			sess.TotalDistanceM += seg.DistanceM
			if seg.MaxSpeedKmh > sess.MaxSpeedKmh {
				sess.MaxSpeedKmh = seg.MaxSpeedKmh
			}
		case analysis.KindLift:
			sess.LiftCount++
		case analysis.KindRest:
			sess.RestCount++
		}
	}
	return sess
}

func (s *Service) Get(ctx context.Context, id string) (Session, error) {
	var sess Session
	row := s.db.QueryRow(ctx, `
		SELECT id, file_name, point_count, run_count, lift_count, rest_count,
		       total_descent_m, total_distance_m, max_speed_kmh,
		       min_lat, max_lat, min_lon, max_lon, min_elevation, max_elevation,
		       COALESCE(start_time,''), COALESCE(end_time,''), created_at
		FROM sessions WHERE id=$1
	`, id)
	err := row.Scan(&sess.ID, &sess.FileName, &sess.PointCount, &sess.RunCount, &sess.LiftCount, &sess.RestCount,
		&sess.TotalDescentM, &sess.TotalDistanceM, &sess.MaxSpeedKmh,
		&sess.MinLat, &sess.MaxLat, &sess.MinLon, &sess.MaxLon, &sess.MinElevation, &sess.MaxElevation,
		&sess.StartTime, &sess.EndTime, &sess.CreatedAt)
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *Service) List(ctx context.Context) ([]Session, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, file_name, point_count, run_count, lift_count, rest_count,
		       total_descent_m, total_distance_m, max_speed_kmh,
		       min_lat, max_lat, min_lon, max_lon, min_elevation, max_elevation,
		       COALESCE(start_time,''), COALESCE(end_time,''), created_at
		FROM sessions
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		err := rows.Scan(&sess.ID, &sess.FileName, &sess.PointCount, &sess.RunCount, &sess.LiftCount, &sess.RestCount,
			&sess.TotalDescentM, &sess.TotalDistanceM, &sess.MaxSpeedKmh,
			&sess.MinLat, &sess.MaxLat, &sess.MinLon, &sess.MaxLon, &sess.MinElevation, &sess.MaxElevation,
			&sess.StartTime, &sess.EndTime, &sess.CreatedAt)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (s *Service) Segments(ctx context.Context, sessionID string) ([]SegmentRecord, error) {
	return s.querySegments(ctx, `
		SELECT id, session_id, seq, kind, zone, confidence,
		       start_time, end_time, start_elevation, end_elevation,
		       vertical_m, distance_m, max_speed_kmh, avg_speed_kmh, point_count
		FROM segments WHERE session_id=$1
		ORDER BY seq
	`, sessionID)
}

// Runs returns only the run segments of a session, in session order.
func (s *Service) Runs(ctx context.Context, sessionID string) ([]SegmentRecord, error) {
	return s.querySegments(ctx, `
		SELECT id, session_id, seq, kind, zone, confidence,
		       start_time, end_time, start_elevation, end_elevation,
		       vertical_m, distance_m, max_speed_kmh, avg_speed_kmh, point_count
		FROM segments WHERE session_id=$1 AND kind='run'
		ORDER BY seq
	`, sessionID)
}

func (s *Service) querySegments(ctx context.Context, query, sessionID string) ([]SegmentRecord, error) {
	rows, err := s.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []SegmentRecord
	for rows.Next() {
		var rec SegmentRecord
		err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Seq, &rec.Kind, &rec.Zone, &rec.Confidence,
			&rec.StartTime, &rec.EndTime, &rec.StartElevation, &rec.EndElevation,
			&rec.VerticalM, &rec.DistanceM, &rec.MaxSpeedKmh, &rec.AvgSpeedKmh, &rec.PointCount)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Service) ZoneStats(ctx context.Context, sessionID string) ([]ZoneStatRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT zone, run_count, total_descent_m, total_distance_m, max_speed_kmh, position
		FROM zone_stats WHERE session_id=$1
		ORDER BY position
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ZoneStatRecord
	for rows.Next() {
		rec := ZoneStatRecord{SessionID: sessionID}
		err := rows.Scan(&rec.Zone, &rec.RunCount, &rec.TotalDescentM, &rec.TotalDistanceM, &rec.MaxSpeedKmh, &rec.Position)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

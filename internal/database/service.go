package database

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/pontos-doacao/internal/aggregation"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/geocode"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/monitoring"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/types"
)

// ErrGeocodingDisabled is returned by BackfillCoordinates when no geocoder is configured
var ErrGeocodingDisabled = stderrors.New("geocoding is disabled")

// PointRepository is the data access used by PointService
type PointRepository interface {
	ListPoints(ctx context.Context) ([]types.DonationPoint, error)
	ListPointsByCity(ctx context.Context, city string) ([]types.DonationPoint, error)
	ListPointsMissingCoordinates(ctx context.Context, limit int) ([]types.DonationPoint, error)
	GetPoint(ctx context.Context, id int64) (*types.DonationPoint, error)
	CreatePoint(ctx context.Context, p *types.DonationPoint) error
	UpdatePoint(ctx context.Context, p *types.DonationPoint) error
	DeletePoint(ctx context.Context, id int64) error
	UpdateCoordinates(ctx context.Context, id int64, lat, lng float64) error
}

// PointService provides business logic for donation points
type PointService struct {
	repo     PointRepository
	geocoder geocode.Geocoder
	metrics  *monitoring.Metrics
	logger   *monitoring.Logger
}

// NewPointService creates a new point service. geocoder may be nil.
func NewPointService(repo PointRepository, geocoder geocode.Geocoder, metrics *monitoring.Metrics, logger *monitoring.Logger) *PointService {
	if logger == nil {
		logger = monitoring.NewLogger()
	}
	return &PointService{
		repo:     repo,
		geocoder: geocoder,
		metrics:  metrics,
		logger:   logger,
	}
}

// GeocodingEnabled reports whether addresses are resolved to coordinates
func (s *PointService) GeocodingEnabled() bool {
	return s.geocoder != nil
}

// List returns all points, or those in city when city is not blank
func (s *PointService) List(ctx context.Context, city string) ([]types.DonationPoint, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return s.repo.ListPoints(ctx)
	}
	return s.repo.ListPointsByCity(ctx, city)
}

// Get returns one point
func (s *PointService) Get(ctx context.Context, id int64) (*types.DonationPoint, error) {
	return s.repo.GetPoint(ctx, id)
}

// Create stores a new point, geocoding its address when coordinates are missing
func (s *PointService) Create(ctx context.Context, in types.PointInput) (*types.DonationPoint, error) {
	var p types.DonationPoint
	in.Apply(&p)
	s.fillCoordinates(ctx, &p)

	if err := s.repo.CreatePoint(ctx, &p); err != nil {
		return nil, err
	}

	s.logger.Info("Donation point created", "id", p.ID, "cidade", p.City)
	return &p, nil
}

// Update replaces the editable fields of an existing point
func (s *PointService) Update(ctx context.Context, id int64, in types.PointInput) (*types.DonationPoint, error) {
	p, err := s.repo.GetPoint(ctx, id)
	if err != nil {
		return nil, err
	}

	in.Apply(p)
	s.fillCoordinates(ctx, p)

	if err := s.repo.UpdatePoint(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("Donation point updated", "id", p.ID)
	return p, nil
}

// Delete removes a point
func (s *PointService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeletePoint(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Donation point deleted", "id", id)
	return nil
}

// NeedsRanking fetches a fresh snapshot and ranks urgent items across it
func (s *PointService) NeedsRanking(ctx context.Context) ([]aggregation.NeedRanking, error) {
	start := time.Now()

	points, err := s.repo.ListPoints(ctx)
	if err != nil {
		err = fmt.Errorf("failed to load donation points: %w", err)
		s.recordAggregation("needs", 0, start, err)
		return nil, err
	}

	ranking := aggregation.ComputeNeedsRanking(points)
	s.recordAggregation("needs", len(points), start, nil)
	return ranking, nil
}

// Statistics fetches a fresh snapshot and summarises it
func (s *PointService) Statistics(ctx context.Context) (aggregation.StatisticsSummary, error) {
	start := time.Now()

	points, err := s.repo.ListPoints(ctx)
	if err != nil {
		err = fmt.Errorf("failed to load donation points: %w", err)
		s.recordAggregation("statistics", 0, start, err)
		return aggregation.StatisticsSummary{}, err
	}

	summary := aggregation.ComputeStatistics(points)
	s.recordAggregation("statistics", len(points), start, nil)
	return summary, nil
}

func (s *PointService) recordAggregation(view string, points int, start time.Time, err error) {
	duration := time.Since(start)
	s.metrics.RecordAggregation(view, points, duration, err)
	s.logger.AggregationLogger(view, points, duration, err)
}

// BackfillCoordinates geocodes up to limit points that have no coordinates.
// Per-point failures are counted, not returned; the run stops early only
// when ctx is done.
func (s *PointService) BackfillCoordinates(ctx context.Context, limit int) (BackfillResult, error) {
	var result BackfillResult
	if s.geocoder == nil {
		return result, ErrGeocodingDisabled
	}
	if limit <= 0 {
		limit = 25
	}

	points, err := s.repo.ListPointsMissingCoordinates(ctx, limit)
	if err != nil {
		return result, fmt.Errorf("failed to list points missing coordinates: %w", err)
	}

	for i := range points {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Scanned++

		p := &points[i]
		loc, err := s.geocoder.Geocode(ctx, p.GeocodeQuery())
		switch {
		case stderrors.Is(err, geocode.ErrNoResults):
			result.NotFound++
			continue
		case err != nil:
			result.Failed++
			s.logger.Warn("Geocoding failed", "id", p.ID, "error", err)
			continue
		}

		if err := s.repo.UpdateCoordinates(ctx, p.ID, loc.Lat, loc.Lng); err != nil {
			result.Failed++
			s.logger.Warn("Failed to store coordinates", "id", p.ID, "error", err)
			continue
		}
		result.Updated++
	}

	return result, nil
}

// fillCoordinates geocodes p when it has none; failures only get logged
func (s *PointService) fillCoordinates(ctx context.Context, p *types.DonationPoint) {
	if s.geocoder == nil || p.HasCoordinates() {
		return
	}

	loc, err := s.geocoder.Geocode(ctx, p.GeocodeQuery())
	if err != nil {
		s.logger.Warn("Address could not be geocoded",
			"endereco", p.Address,
			"cidade", p.City,
			"error", err)
		return
	}

	lat, lng := loc.Lat, loc.Lng
	p.Latitude = &lat
	p.Longitude = &lng
}

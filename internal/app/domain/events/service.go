package events

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/ashleyhua/get-litty/internal/app/models"
	"github.com/ashleyhua/get-litty/internal/observability/metrics"
)

// Operation defaults; radii are miles against the precomputed proximity table.
const (
	DefaultCheapestRadius     = 1.0
	DefaultAvailabilityRadius = 5.0
	DefaultBelowAvgRadius     = 1.0
	DefaultSearchDistance     = 10.0
	DefaultSearchLimit        = 10
	DefaultTopListingsRadius  = 200.0
	DefaultTopListingsLimit   = 5
)

type Service interface {
	RandomEvent(ctx context.Context) (*models.EventDetail, error)
	CheapestLodgingPerEvent(ctx context.Context, radiusMiles float64, limit int) ([]models.EventCostSummary, error)
	CheapestInRegion(ctx context.Context, stateFilter string, radiusMiles float64, limit int) ([]models.EventCostSummary, error)
	MostAvailableListings(ctx context.Context, radiusMiles float64, limit int) ([]models.EventAvailabilitySummary, error)
	BelowAverageLodging(ctx context.Context, cityFilter string, radiusMiles float64, limit int) ([]models.EventBelowAverage, error)
	SearchEvents(ctx context.Context, filter models.SearchFilter) ([]models.EventSearchResult, error)
	TopListingsForEvent(ctx context.Context, eventID int64, maxDistanceMiles float64) ([]models.ListingForEvent, error)
}

type ServiceImpl struct {
	logger *zap.Logger
	repo   Repository

	// summaryCache memoizes the two reference-data rankings for a short TTL.
	// The below-average ranking is never cached: its baseline must be
	// recomputed per request.
	summaryCache *gocache.Cache
}

func NewService(repo Repository, cacheTTL time.Duration, logger *zap.Logger) *ServiceImpl {
	var c *gocache.Cache
	if cacheTTL > 0 {
		c = gocache.New(cacheTTL, 2*cacheTTL)
	}
	return &ServiceImpl{
		logger:       logger,
		repo:         repo,
		summaryCache: c,
	}
}

// RandomEvent picks one event uniformly at random.
func (s *ServiceImpl) RandomEvent(ctx context.Context) (*models.EventDetail, error) {
	ctx, span := otel.Tracer("EventsService").Start(ctx, "RandomEvent")
	defer span.End()

	detail, err := s.repo.RandomEvent(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository operation failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "Random event retrieved")
	return detail, nil
}

func (s *ServiceImpl) CheapestLodgingPerEvent(ctx context.Context, radiusMiles float64, limit int) ([]models.EventCostSummary, error) {
	ctx, span := otel.Tracer("EventsService").Start(ctx, "CheapestLodgingPerEvent")
	defer span.End()

	if radiusMiles <= 0 {
		radiusMiles = DefaultCheapestRadius
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", models.ErrValidation)
	}
	span.SetAttributes(attribute.Float64("radius_miles", radiusMiles), attribute.Int("limit", limit))

	key := fmt.Sprintf("cheapest:%g:%d", radiusMiles, limit)
	if s.summaryCache != nil {
		if cached, found := s.summaryCache.Get(key); found {
			return cached.([]models.EventCostSummary), nil
		}
	}

	summaries, err := s.repo.CheapestLodgingPerEvent(ctx, radiusMiles, "", limit)
	if err != nil {
		s.logger.Error("Failed to retrieve cheapest lodging per event", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository operation failed")
		return nil, err
	}

	if s.summaryCache != nil {
		s.summaryCache.Set(key, summaries, gocache.DefaultExpiration)
	}
	span.SetAttributes(attribute.Int("events.count", len(summaries)))
	return summaries, nil
}

func (s *ServiceImpl) CheapestInRegion(ctx context.Context, stateFilter string, radiusMiles float64, limit int) ([]models.EventCostSummary, error) {
	ctx, span := otel.Tracer("EventsService").Start(ctx, "CheapestInRegion")
	defer span.End()

	if stateFilter == "" {
		return nil, fmt.Errorf("%w: state filter is required", models.ErrValidation)
	}
	if radiusMiles <= 0 {
		radiusMiles = DefaultCheapestRadius
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", models.ErrValidation)
	}
	span.SetAttributes(attribute.String("state", stateFilter))

	summaries, err := s.repo.CheapestLodgingPerEvent(ctx, radiusMiles, stateFilter, limit)
	if err != nil {
		s.logger.Error("Failed to retrieve cheapest lodging for region",
			zap.String("state", stateFilter), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository operation failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("events.count", len(summaries)))
	return summaries, nil
}

func (s *ServiceImpl) MostAvailableListings(ctx context.Context, radiusMiles float64, limit int) ([]models.EventAvailabilitySummary, error) {
	ctx, span := otel.Tracer("EventsService").Start(ctx, "MostAvailableListings")
	defer span.End()

	if radiusMiles <= 0 {
		radiusMiles = DefaultAvailabilityRadius
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", models.ErrValidation)
	}
	span.SetAttributes(attribute.Float64("radius_miles", radiusMiles), attribute.Int("limit", limit))

	key := fmt.Sprintf("availability:%g:%d", radiusMiles, limit)
	if s.summaryCache != nil {
		if cached, found := s.summaryCache.Get(key); found {
			return cached.([]models.EventAvailabilitySummary), nil
		}
	}

	summaries, err := s.repo.MostAvailableListings(ctx, radiusMiles, limit)
	if err != nil {
		s.logger.Error("Failed to retrieve listing availability", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository operation failed")
		return nil, err
	}

	if s.summaryCache != nil {
		s.summaryCache.Set(key, summaries, gocache.DefaultExpiration)
	}
	span.SetAttributes(attribute.Int("events.count", len(summaries)))
	return summaries, nil
}

func (s *ServiceImpl) BelowAverageLodging(ctx context.Context, cityFilter string, radiusMiles float64, limit int) ([]models.EventBelowAverage, error) {
	ctx, span := otel.Tracer("EventsService").Start(ctx, "BelowAverageLodging")
	defer span.End()

	if cityFilter == "" {
		return nil, fmt.Errorf("%w: city filter is required", models.ErrValidation)
	}
	if radiusMiles <= 0 {
		radiusMiles = DefaultBelowAvgRadius
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", models.ErrValidation)
	}
	span.SetAttributes(attribute.String("city", cityFilter), attribute.Float64("radius_miles", radiusMiles))

	results, err := s.repo.BelowAverageLodging(ctx, cityFilter, radiusMiles, limit)
	if err != nil {
		s.logger.Error("Failed to retrieve below-average lodging",
			zap.String("city", cityFilter), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository operation failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("events.count", len(results)))
	return results, nil
}

func (s *ServiceImpl) SearchEvents(ctx context.Context, filter models.SearchFilter) ([]models.EventSearchResult, error) {
	ctx, span := otel.Tracer("EventsService").Start(ctx, "SearchEvents")
	defer span.End()

	if filter.MaxDistance <= 0 {
		filter.MaxDistance = DefaultSearchDistance
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultSearchLimit
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(filter.StartDate.Time) {
		return nil, fmt.Errorf("%w: endDate precedes startDate", models.ErrValidation)
	}

	if m := metrics.Get(); m != nil {
		m.SearchRequestsTotal.Add(ctx, 1)
	}

	results, err := s.repo.SearchEvents(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to search events", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository operation failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("results.count", len(results)))
	return results, nil
}

func (s *ServiceImpl) TopListingsForEvent(ctx context.Context, eventID int64, maxDistanceMiles float64) ([]models.ListingForEvent, error) {
	ctx, span := otel.Tracer("EventsService").Start(ctx, "TopListingsForEvent")
	defer span.End()

	if eventID <= 0 {
		return nil, fmt.Errorf("%w: invalid event id", models.ErrValidation)
	}
	if maxDistanceMiles <= 0 {
		maxDistanceMiles = DefaultTopListingsRadius
	}
	span.SetAttributes(attribute.Int64("event_id", eventID), attribute.Float64("max_distance", maxDistanceMiles))

	listings, err := s.repo.TopListingsForEvent(ctx, eventID, maxDistanceMiles, DefaultTopListingsLimit)
	if err != nil {
		s.logger.Error("Failed to retrieve top listings",
			zap.Int64("event_id", eventID), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository operation failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("listings.count", len(listings)))
	return listings, nil
}

package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/ashleyhua/get-litty/internal/app/models"
	"github.com/ashleyhua/get-litty/internal/observability/metrics"
)

// DB is the slice of pgxpool.Pool the repositories need; pgxmock satisfies it
// in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	RandomEvent(ctx context.Context) (*models.EventDetail, error)
	CheapestLodgingPerEvent(ctx context.Context, radiusMiles float64, stateFilter string, limit int) ([]models.EventCostSummary, error)
	MostAvailableListings(ctx context.Context, radiusMiles float64, limit int) ([]models.EventAvailabilitySummary, error)
	BelowAverageLodging(ctx context.Context, cityFilter string, radiusMiles float64, limit int) ([]models.EventBelowAverage, error)
	SearchEvents(ctx context.Context, filter models.SearchFilter) ([]models.EventSearchResult, error)
	TopListingsForEvent(ctx context.Context, eventID int64, maxDistanceMiles float64, limit int) ([]models.ListingForEvent, error)
}

type RepositoryImpl struct {
	logger *zap.Logger
	db     DB
}

func NewRepository(db DB, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		db:     db,
	}
}

// observeQuery feeds the db query instruments; metrics may not be initialized
// in tests.
func observeQuery(ctx context.Context, start time.Time, err error) {
	m := metrics.Get()
	if m == nil {
		return
	}
	m.DBQueryDurationSeconds.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		m.DBQueryErrorsTotal.Add(ctx, 1)
	}
}

const randomEventQuery = `
        SELECT e.event_id, e.name AS event_name, e.date, v.venue_name, c.city_name, c.state
        FROM events e
        JOIN venues v ON e.venue_id = v.venue_id
        JOIN cities c ON v.city_id = c.city_id
        ORDER BY random()
        LIMIT 1`

func (r *RepositoryImpl) RandomEvent(ctx context.Context) (*models.EventDetail, error) {
	start := time.Now()
	var (
		detail models.EventDetail
		date   time.Time
	)
	err := r.db.QueryRow(ctx, randomEventQuery).Scan(
		&detail.EventID, &detail.EventName, &date,
		&detail.VenueName, &detail.CityName, &detail.State,
	)
	observeQuery(ctx, start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to fetch random event", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch random event: %w", err)
	}
	detail.Date = models.Date{Time: date}
	return &detail, nil
}

// cheapestLodgingQuery groups the precomputed proximity rows per event and
// keeps the listing that produced the minimum. The empty-string state filter
// disables the region restriction. Ties break on event_id so capped results
// are deterministic.
const cheapestLodgingQuery = `
        SELECT e.event_id, e.name AS event_name, c.city_name, c.state, e.date,
               MIN(n.total_cost)::float8 AS cheapest_total_cost,
               (SELECT n2.listing_id
                  FROM nearby n2
                 WHERE n2.event_id = e.event_id AND n2.distance <= $1
                 ORDER BY n2.total_cost ASC, n2.listing_id ASC
                 LIMIT 1) AS listing_id
        FROM events e
        JOIN venues v ON e.venue_id = v.venue_id
        JOIN cities c ON v.city_id = c.city_id
        JOIN nearby n ON e.event_id = n.event_id AND n.distance <= $1
        WHERE ($2 = '' OR c.state = $2)
        GROUP BY e.event_id, e.name, c.city_name, c.state, e.date
        ORDER BY cheapest_total_cost ASC, e.event_id ASC
        LIMIT $3`

func (r *RepositoryImpl) CheapestLodgingPerEvent(ctx context.Context, radiusMiles float64, stateFilter string, limit int) ([]models.EventCostSummary, error) {
	start := time.Now()
	rows, err := r.db.Query(ctx, cheapestLodgingQuery, radiusMiles, stateFilter, limit)
	observeQuery(ctx, start, err)
	if err != nil {
		r.logger.Error("Failed to query cheapest lodging per event", zap.Error(err))
		return nil, fmt.Errorf("failed to query cheapest lodging per event: %w", err)
	}
	defer rows.Close()

	summaries := []models.EventCostSummary{}
	for rows.Next() {
		var (
			s    models.EventCostSummary
			date time.Time
		)
		if err := rows.Scan(&s.EventID, &s.EventName, &s.CityName, &s.State, &date,
			&s.CheapestTotalCost, &s.ListingID); err != nil {
			return nil, fmt.Errorf("failed to scan cost summary row: %w", err)
		}
		s.Date = models.Date{Time: date}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cost summary rows error: %w", err)
	}
	return summaries, nil
}

const mostAvailableQuery = `
        SELECT e.event_id, e.name AS event_name, c.city_name, c.state, e.date,
               COUNT(*) AS available_listings,
               AVG(l.price_per_night)::float8 AS avg_price_per_night,
               MIN(n.distance)::float8 AS min_distance
        FROM events e
        JOIN venues v ON e.venue_id = v.venue_id
        JOIN cities c ON v.city_id = c.city_id
        JOIN nearby n ON e.event_id = n.event_id AND n.distance <= $1
        JOIN listings l ON n.listing_id = l.listing_id AND l.availability_365 > 0
        GROUP BY e.event_id, e.name, c.city_name, c.state, e.date
        ORDER BY available_listings DESC, avg_price_per_night ASC, e.event_id ASC
        LIMIT $2`

func (r *RepositoryImpl) MostAvailableListings(ctx context.Context, radiusMiles float64, limit int) ([]models.EventAvailabilitySummary, error) {
	start := time.Now()
	rows, err := r.db.Query(ctx, mostAvailableQuery, radiusMiles, limit)
	observeQuery(ctx, start, err)
	if err != nil {
		r.logger.Error("Failed to query most available listings", zap.Error(err))
		return nil, fmt.Errorf("failed to query most available listings: %w", err)
	}
	defer rows.Close()

	summaries := []models.EventAvailabilitySummary{}
	for rows.Next() {
		var (
			s    models.EventAvailabilitySummary
			date time.Time
		)
		if err := rows.Scan(&s.EventID, &s.EventName, &s.CityName, &s.State, &date,
			&s.AvailableListings, &s.AvgPricePerNight, &s.MinDistance); err != nil {
			return nil, fmt.Errorf("failed to scan availability summary row: %w", err)
		}
		s.Date = models.Date{Time: date}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("availability summary rows error: %w", err)
	}
	return summaries, nil
}

// belowAverageQuery keeps only events whose cheapest available listing is
// strictly below the city baseline: the average of per-event minimums computed
// over the identical city/radius/availability predicate. The baseline is
// recomputed on every call on purpose.
const belowAverageQuery = `
        SELECT e.event_id, e.name AS event_name, c.city_name, c.state, e.date,
               MIN(l.price_per_night)::float8 AS cheapest_airbnb_price,
               (SELECT n2.listing_id
                  FROM nearby n2
                  JOIN listings l2 ON n2.listing_id = l2.listing_id
                 WHERE n2.event_id = e.event_id AND n2.distance <= $2 AND l2.availability_365 > 0
                 ORDER BY l2.price_per_night ASC, n2.listing_id ASC
                 LIMIT 1) AS listing_id
        FROM events e
        JOIN venues v ON e.venue_id = v.venue_id
        JOIN cities c ON v.city_id = c.city_id
        JOIN nearby n ON e.event_id = n.event_id AND n.distance <= $2
        JOIN listings l ON n.listing_id = l.listing_id AND l.availability_365 > 0
        WHERE c.city_name = $1
        GROUP BY e.event_id, e.name, c.city_name, c.state, e.date
        HAVING MIN(l.price_per_night) < (
                SELECT AVG(per_event.min_price)
                FROM (
                        SELECT MIN(l3.price_per_night) AS min_price
                        FROM events e3
                        JOIN venues v3 ON e3.venue_id = v3.venue_id
                        JOIN cities c3 ON v3.city_id = c3.city_id
                        JOIN nearby n3 ON e3.event_id = n3.event_id AND n3.distance <= $2
                        JOIN listings l3 ON n3.listing_id = l3.listing_id AND l3.availability_365 > 0
                        WHERE c3.city_name = $1
                        GROUP BY e3.event_id
                ) per_event
        )
        ORDER BY cheapest_airbnb_price ASC, e.event_id ASC
        LIMIT $3`

func (r *RepositoryImpl) BelowAverageLodging(ctx context.Context, cityFilter string, radiusMiles float64, limit int) ([]models.EventBelowAverage, error) {
	start := time.Now()
	rows, err := r.db.Query(ctx, belowAverageQuery, cityFilter, radiusMiles, limit)
	observeQuery(ctx, start, err)
	if err != nil {
		r.logger.Error("Failed to query below-average lodging",
			zap.String("city", cityFilter), zap.Error(err))
		return nil, fmt.Errorf("failed to query below-average lodging: %w", err)
	}
	defer rows.Close()

	results := []models.EventBelowAverage{}
	for rows.Next() {
		var (
			b    models.EventBelowAverage
			date time.Time
		)
		if err := rows.Scan(&b.EventID, &b.EventName, &b.CityName, &b.State, &date,
			&b.CheapestAirbnbPrice, &b.ListingID); err != nil {
			return nil, fmt.Errorf("failed to scan below-average row: %w", err)
		}
		b.Date = models.Date{Time: date}
		results = append(results, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("below-average rows error: %w", err)
	}
	return results, nil
}

// SearchEvents builds the filtered ranking with squirrel so every optional
// predicate stays a bound parameter.
func (r *RepositoryImpl) SearchEvents(ctx context.Context, filter models.SearchFilter) ([]models.EventSearchResult, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	qb := psql.Select(
		"e.event_id", "e.name AS event_name", "e.date", "v.venue_name",
		"v.latitude AS venue_lat", "v.longitude AS venue_lng",
		"c.city_name", "c.state", "n.distance::float8",
		"l.price_per_night::float8 AS avg_airbnb",
		"l.latitude AS airbnb_lat", "l.longitude AS airbnb_lng",
		"l.listing_id",
		"(l.price_per_night + e.ticket_price)::float8 AS estimated_total_cost",
		"e.ticket_price::float8",
	).
		From("events e").
		Join("venues v ON e.venue_id = v.venue_id").
		Join("cities c ON v.city_id = c.city_id").
		Join("nearby n ON e.event_id = n.event_id").
		Join("listings l ON n.listing_id = l.listing_id").
		Where(sq.Gt{"l.availability_365": 0})

	if filter.Name != "" {
		qb = qb.Where(sq.ILike{"e.name": "%" + filter.Name + "%"})
	}
	if filter.StartDate != nil {
		qb = qb.Where(sq.GtOrEq{"e.date": filter.StartDate.Time})
	}
	if filter.EndDate != nil {
		qb = qb.Where(sq.LtOrEq{"e.date": filter.EndDate.Time})
	}
	qb = qb.Where(sq.LtOrEq{"n.distance": filter.MaxDistance}).
		OrderBy("estimated_total_cost ASC", "n.distance ASC", "e.event_id ASC").
		Limit(uint64(filter.Limit))

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build search query: %w", err)
	}

	start := time.Now()
	rows, err := r.db.Query(ctx, query, args...)
	observeQuery(ctx, start, err)
	if err != nil {
		r.logger.Error("Failed to search events", zap.Error(err))
		return nil, fmt.Errorf("failed to search events: %w", err)
	}
	defer rows.Close()

	results := []models.EventSearchResult{}
	for rows.Next() {
		var (
			res  models.EventSearchResult
			date time.Time
		)
		if err := rows.Scan(&res.EventID, &res.EventName, &date, &res.VenueName,
			&res.VenueLat, &res.VenueLng, &res.CityName, &res.State, &res.Distance,
			&res.AvgAirbnb, &res.AirbnbLat, &res.AirbnbLng, &res.ListingID,
			&res.EstimatedTotalCost, &res.TicketPrice); err != nil {
			return nil, fmt.Errorf("failed to scan search result row: %w", err)
		}
		res.Date = models.Date{Time: date}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search rows error: %w", err)
	}
	return results, nil
}

const topListingsQuery = `
        SELECT n.listing_id, l.latitude, l.longitude, l.price_per_night::float8,
               n.distance::float8, n.total_cost::float8
        FROM nearby n
        JOIN listings l ON n.listing_id = l.listing_id
        WHERE n.event_id = $1
          AND l.availability_365 > 0
          AND n.distance <= $2
        ORDER BY n.total_cost ASC, n.listing_id ASC
        LIMIT $3`

// TopListingsForEvent returns an empty slice when the event has no qualifying
// listings; callers render that as an empty list, not an error.
func (r *RepositoryImpl) TopListingsForEvent(ctx context.Context, eventID int64, maxDistanceMiles float64, limit int) ([]models.ListingForEvent, error) {
	start := time.Now()
	rows, err := r.db.Query(ctx, topListingsQuery, eventID, maxDistanceMiles, limit)
	observeQuery(ctx, start, err)
	if err != nil {
		r.logger.Error("Failed to query top listings",
			zap.Int64("event_id", eventID), zap.Error(err))
		return nil, fmt.Errorf("failed to query top listings: %w", err)
	}
	defer rows.Close()

	listings := []models.ListingForEvent{}
	for rows.Next() {
		var l models.ListingForEvent
		if err := rows.Scan(&l.ListingID, &l.Latitude, &l.Longitude,
			&l.PricePerNight, &l.Distance, &l.TotalCost); err != nil {
			return nil, fmt.Errorf("failed to scan listing row: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing rows error: %w", err)
	}
	return listings, nil
}

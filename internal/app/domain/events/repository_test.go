package events

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ashleyhua/get-litty/internal/app/models"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *RepositoryImpl) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return mockPool, NewRepository(mockPool, zap.NewNop())
}

func TestRepositoryRandomEvent(t *testing.T) {
	mockPool, repo := newMockRepo(t)

	mockPool.ExpectQuery(regexp.QuoteMeta(randomEventQuery)).
		WillReturnRows(pgxmock.NewRows([]string{"event_id", "event_name", "date", "venue_name", "city_name", "state"}).
			AddRow(int64(3), "Pitchfork Day Two", time.Date(2026, time.July, 18, 0, 0, 0, 0, time.UTC), "Union Park", "Chicago", "Illinois"))

	detail, err := repo.RandomEvent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), detail.EventID)
	assert.Equal(t, "Pitchfork Day Two", detail.EventName)
	assert.Equal(t, "2026-07-18", detail.Date.String())
	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepositoryRandomEvent_EmptyTable(t *testing.T) {
	mockPool, repo := newMockRepo(t)

	mockPool.ExpectQuery(regexp.QuoteMeta(randomEventQuery)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.RandomEvent(context.Background())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRepositoryCheapestLodgingPerEvent(t *testing.T) {
	mockPool, repo := newMockRepo(t)

	rows := pgxmock.NewRows([]string{"event_id", "event_name", "city_name", "state", "date", "cheapest_total_cost", "listing_id"}).
		AddRow(int64(1), "Lolla Night One", "Chicago", "Illinois", time.Date(2026, time.September, 12, 0, 0, 0, 0, time.UTC), 210.50, int64(44)).
		AddRow(int64(2), "Riverside Jazz", "Chicago", "Illinois", time.Date(2026, time.September, 13, 0, 0, 0, 0, time.UTC), 242.00, int64(51))

	mockPool.ExpectQuery(regexp.QuoteMeta(cheapestLodgingQuery)).
		WithArgs(1.0, "", 15).
		WillReturnRows(rows)

	summaries, err := repo.CheapestLodgingPerEvent(context.Background(), 1.0, "", 15)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, 210.50, summaries[0].CheapestTotalCost)
	assert.Equal(t, int64(44), summaries[0].ListingID)
	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepositoryCheapestLodging_StateFilterBound(t *testing.T) {
	mockPool, repo := newMockRepo(t)

	mockPool.ExpectQuery(regexp.QuoteMeta(cheapestLodgingQuery)).
		WithArgs(1.0, "Illinois", 10).
		WillReturnRows(pgxmock.NewRows([]string{"event_id", "event_name", "city_name", "state", "date", "cheapest_total_cost", "listing_id"}))

	summaries, err := repo.CheapestLodgingPerEvent(context.Background(), 1.0, "Illinois", 10)
	require.NoError(t, err)
	assert.Empty(t, summaries)
	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepositoryMostAvailableListings(t *testing.T) {
	mockPool, repo := newMockRepo(t)

	rows := pgxmock.NewRows([]string{"event_id", "event_name", "city_name", "state", "date", "available_listings", "avg_price_per_night", "min_distance"}).
		AddRow(int64(5), "Warehouse Rave", "Chicago", "Illinois", time.Date(2026, time.October, 3, 0, 0, 0, 0, time.UTC), int64(12), 110.25, 0.4)

	mockPool.ExpectQuery(regexp.QuoteMeta(mostAvailableQuery)).
		WithArgs(5.0, 15).
		WillReturnRows(rows)

	summaries, err := repo.MostAvailableListings(context.Background(), 5.0, 15)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(12), summaries[0].AvailableListings)
	assert.Equal(t, 0.4, summaries[0].MinDistance)
	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepositoryBelowAverageLodging(t *testing.T) {
	mockPool, repo := newMockRepo(t)

	rows := pgxmock.NewRows([]string{"event_id", "event_name", "city_name", "state", "date", "cheapest_airbnb_price", "listing_id"}).
		AddRow(int64(9), "Riverside Jazz", "Chicago", "Illinois", time.Date(2026, time.September, 13, 0, 0, 0, 0, time.UTC), 72.00, int64(31))

	mockPool.ExpectQuery(regexp.QuoteMeta(belowAverageQuery)).
		WithArgs("Chicago", 1.0, 10).
		WillReturnRows(rows)

	results, err := repo.BelowAverageLodging(context.Background(), "Chicago", 1.0, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 72.00, results[0].CheapestAirbnbPrice)
	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepositorySearchEvents_AllFiltersBound(t *testing.T) {
	mockPool, repo := newMockRepo(t)

	start := models.NewDate(2026, time.June, 1)
	end := models.NewDate(2026, time.June, 30)
	filter := models.SearchFilter{
		Name:        "jazz",
		StartDate:   &start,
		EndDate:     &end,
		MaxDistance: 10,
		Limit:       10,
	}

	rows := pgxmock.NewRows([]string{
		"event_id", "event_name", "date", "venue_name", "venue_lat", "venue_lng",
		"city_name", "state", "distance", "avg_airbnb", "airbnb_lat", "airbnb_lng",
		"listing_id", "estimated_total_cost", "ticket_price",
	}).AddRow(int64(2), "Riverside Jazz", time.Date(2026, time.June, 13, 0, 0, 0, 0, time.UTC),
		"Thalia Hall", 41.85, -87.66, "Chicago", "Illinois", 0.8, 97.00, 41.86, -87.65,
		int64(51), 152.00, 55.00)

	// The builder binds every user-supplied value; no literal ever reaches
	// the SQL text.
	mockPool.ExpectQuery("SELECT .+ FROM events e").
		WithArgs(0, "%jazz%", start.Time, end.Time, 10.0).
		WillReturnRows(rows)

	results, err := repo.SearchEvents(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Riverside Jazz", results[0].EventName)
	assert.Equal(t, 152.00, results[0].EstimatedTotalCost)
	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepositoryTopListingsForEvent_Empty(t *testing.T) {
	mockPool, repo := newMockRepo(t)

	mockPool.ExpectQuery(regexp.QuoteMeta(topListingsQuery)).
		WithArgs(int64(42), 200.0, 5).
		WillReturnRows(pgxmock.NewRows([]string{"listing_id", "latitude", "longitude", "price_per_night", "distance", "total_cost"}))

	listings, err := repo.TopListingsForEvent(context.Background(), 42, 200.0, 5)
	require.NoError(t, err)
	assert.NotNil(t, listings)
	assert.Empty(t, listings)
	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepositoryTopListingsForEvent_RankedByTotalCost(t *testing.T) {
	mockPool, repo := newMockRepo(t)

	rows := pgxmock.NewRows([]string{"listing_id", "latitude", "longitude", "price_per_night", "distance", "total_cost"}).
		AddRow(int64(44), 41.88, -87.63, 85.00, 0.3, 140.00).
		AddRow(int64(51), 41.87, -87.64, 97.00, 0.8, 152.00)

	mockPool.ExpectQuery(regexp.QuoteMeta(topListingsQuery)).
		WithArgs(int64(7), 2.0, 5).
		WillReturnRows(rows)

	listings, err := repo.TopListingsForEvent(context.Background(), 7, 2.0, 5)
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.LessOrEqual(t, listings[0].TotalCost, listings[1].TotalCost)
	require.NoError(t, mockPool.ExpectationsWereMet())
}

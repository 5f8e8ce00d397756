package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/ashleyhua/get-litty/internal/app/domain/events"
	"github.com/ashleyhua/get-litty/internal/app/models"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	AddEvent(ctx context.Context, userID, eventID int64) error
	ListEvents(ctx context.Context, userID int64) ([]models.UserEvent, error)
	RemoveEvent(ctx context.Context, userID, eventID int64) error
	SetHousingConfirmed(ctx context.Context, userID, eventID int64, value string) error
	BulkAddSoonestInCity(ctx context.Context, userID int64, cityName string, count int) (*models.BulkAddResult, error)
}

type RepositoryImpl struct {
	logger *zap.Logger
	db     events.DB
}

func NewRepository(db events.DB, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		db:     db,
	}
}

const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// addEventQuery resolves the event's date in the same statement so the
// (user_id, event_date) unique index can arbitrate concurrent same-date adds.
const addEventQuery = `
        INSERT INTO wants_to_attend (user_id, event_id, event_date)
        SELECT $1, e.event_id, e.date
        FROM events e
        WHERE e.event_id = $2`

func (r *RepositoryImpl) AddEvent(ctx context.Context, userID, eventID int64) error {
	tag, err := r.db.Exec(ctx, addEventQuery, userID, eventID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrConflict
		}
		r.logger.Error("Failed to add event to list",
			zap.Int64("user_id", userID), zap.Int64("event_id", eventID), zap.Error(err))
		return fmt.Errorf("failed to add event %d for user %d: %w", eventID, userID, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

const listEventsQuery = `
        SELECT e.event_id, e.name AS event_name, e.date, v.venue_name,
               c.city_name, c.state, e.ticket_price::float8, w.housing_confirmed
        FROM wants_to_attend w
        JOIN events e ON w.event_id = e.event_id
        JOIN venues v ON e.venue_id = v.venue_id
        JOIN cities c ON v.city_id = c.city_id
        WHERE w.user_id = $1
        ORDER BY e.date ASC, e.event_id ASC`

func (r *RepositoryImpl) ListEvents(ctx context.Context, userID int64) ([]models.UserEvent, error) {
	rows, err := r.db.Query(ctx, listEventsQuery, userID)
	if err != nil {
		r.logger.Error("Failed to list user events", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list events for user %d: %w", userID, err)
	}
	defer rows.Close()

	userEvents := []models.UserEvent{}
	for rows.Next() {
		var (
			ue   models.UserEvent
			date time.Time
		)
		if err := rows.Scan(&ue.EventID, &ue.EventName, &date, &ue.VenueName,
			&ue.CityName, &ue.State, &ue.TicketPrice, &ue.HousingConfirmed); err != nil {
			return nil, fmt.Errorf("failed to scan user event row: %w", err)
		}
		ue.Date = models.Date{Time: date}
		userEvents = append(userEvents, ue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("user event rows error: %w", err)
	}
	return userEvents, nil
}

const removeEventQuery = `DELETE FROM wants_to_attend WHERE user_id = $1 AND event_id = $2`

func (r *RepositoryImpl) RemoveEvent(ctx context.Context, userID, eventID int64) error {
	tag, err := r.db.Exec(ctx, removeEventQuery, userID, eventID)
	if err != nil {
		r.logger.Error("Failed to remove event from list",
			zap.Int64("user_id", userID), zap.Int64("event_id", eventID), zap.Error(err))
		return fmt.Errorf("failed to remove event %d for user %d: %w", eventID, userID, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

const setHousingQuery = `
        UPDATE wants_to_attend
        SET housing_confirmed = $1
        WHERE user_id = $2 AND event_id = $3`

func (r *RepositoryImpl) SetHousingConfirmed(ctx context.Context, userID, eventID int64, value string) error {
	tag, err := r.db.Exec(ctx, setHousingQuery, value, userID, eventID)
	if err != nil {
		r.logger.Error("Failed to update housing confirmation",
			zap.Int64("user_id", userID), zap.Int64("event_id", eventID), zap.Error(err))
		return fmt.Errorf("failed to update housing for event %d, user %d: %w", eventID, userID, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

const soonestInCityQuery = `
        SELECT e.event_id, e.name, e.date
        FROM events e
        JOIN venues v ON e.venue_id = v.venue_id
        JOIN cities c ON v.city_id = c.city_id
        WHERE c.city_name = $1
          AND e.date >= CURRENT_DATE
        ORDER BY e.date ASC, e.event_id ASC
        LIMIT $2`

// lockUserEventsQuery locks the user's existing rows so the
// read-partition-insert sequence below observes a stable snapshot against
// concurrent writers for the same user.
const lockUserEventsQuery = `
        SELECT event_id, event_date
        FROM wants_to_attend
        WHERE user_id = $1
        FOR UPDATE`

// BulkAddSoonestInCity runs the whole bulk import as one transaction: either
// every to-add row commits or none does.
func (r *RepositoryImpl) BulkAddSoonestInCity(ctx context.Context, userID int64, cityName string, count int) (*models.BulkAddResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.Error("Failed to begin bulk add transaction", zap.Error(err))
		return nil, fmt.Errorf("failed to begin bulk add transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			r.logger.Error("Failed to rollback bulk add transaction", zap.Error(rollbackErr))
		}
	}()

	candidates, err := r.soonestInCity(ctx, tx, cityName, count)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, models.ErrNotFound
	}

	existing, err := r.lockUserEvents(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	toAdd, skipped := partitionCandidates(candidates, existing)

	result := &models.BulkAddResult{
		AddedCount:    len(toAdd),
		SkippedCount:  len(skipped),
		AddedEvents:   toAdd,
		SkippedEvents: skipped,
	}

	if len(toAdd) == 0 {
		// Rolls back via the deferred Rollback; nothing was written.
		return result, models.ErrAllSkipped
	}

	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Insert("wants_to_attend").
		Columns("user_id", "event_id", "event_date")
	for _, e := range toAdd {
		builder = builder.Values(userID, e.EventID, e.Date.Time)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build bulk insert: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			// A racing writer won a date between our snapshot and the insert.
			return nil, models.ErrConflict
		}
		r.logger.Error("Bulk insert failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("bulk insert failed for user %d: %w", userID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error("Failed to commit bulk add", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to commit bulk add for user %d: %w", userID, err)
	}

	return result, nil
}

func (r *RepositoryImpl) soonestInCity(ctx context.Context, tx pgx.Tx, cityName string, count int) ([]models.CandidateEvent, error) {
	rows, err := tx.Query(ctx, soonestInCityQuery, cityName, count)
	if err != nil {
		r.logger.Error("Failed to find upcoming events",
			zap.String("city", cityName), zap.Error(err))
		return nil, fmt.Errorf("failed to find upcoming events in %s: %w", cityName, err)
	}
	defer rows.Close()

	candidates := []models.CandidateEvent{}
	for rows.Next() {
		var (
			cand models.CandidateEvent
			date time.Time
		)
		if err := rows.Scan(&cand.EventID, &cand.Name, &date); err != nil {
			return nil, fmt.Errorf("failed to scan candidate event: %w", err)
		}
		cand.Date = models.Date{Time: date}
		candidates = append(candidates, cand)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("candidate rows error: %w", err)
	}
	return candidates, nil
}

func (r *RepositoryImpl) lockUserEvents(ctx context.Context, tx pgx.Tx, userID int64) ([]models.UserEventRef, error) {
	rows, err := tx.Query(ctx, lockUserEventsQuery, userID)
	if err != nil {
		r.logger.Error("Failed to load existing user events",
			zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to load existing events for user %d: %w", userID, err)
	}
	defer rows.Close()

	existing := []models.UserEventRef{}
	for rows.Next() {
		var (
			ref  models.UserEventRef
			date time.Time
		)
		if err := rows.Scan(&ref.EventID, &date); err != nil {
			return nil, fmt.Errorf("failed to scan existing event: %w", err)
		}
		ref.EventDate = models.Date{Time: date}
		existing = append(existing, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("existing event rows error: %w", err)
	}
	return existing, nil
}

// partitionCandidates splits the soonest events into to-add and skipped.
// Already-listed wins over date-conflict when both apply (the degenerate case
// of the same event occupying its own date).
func partitionCandidates(candidates []models.CandidateEvent, existing []models.UserEventRef) ([]models.CandidateEvent, []models.SkippedEvent) {
	existingIDs := make(map[int64]struct{}, len(existing))
	takenDates := make(map[string]struct{}, len(existing))
	for _, ref := range existing {
		existingIDs[ref.EventID] = struct{}{}
		takenDates[ref.EventDate.String()] = struct{}{}
	}

	toAdd := []models.CandidateEvent{}
	skipped := []models.SkippedEvent{}
	for _, cand := range candidates {
		day := cand.Date.String()
		switch {
		case contains(existingIDs, cand.EventID):
			skipped = append(skipped, models.SkippedEvent{
				Name: cand.Name, Date: cand.Date, Reason: models.SkipReasonAlreadyListed,
			})
		case containsDate(takenDates, day):
			skipped = append(skipped, models.SkippedEvent{
				Name: cand.Name, Date: cand.Date, Reason: models.SkipReasonDateConflict,
			})
		default:
			toAdd = append(toAdd, cand)
			// Two soonest candidates on the same day conflict with each other.
			takenDates[day] = struct{}{}
		}
	}
	return toAdd, skipped
}

func contains(set map[int64]struct{}, id int64) bool {
	_, ok := set[id]
	return ok
}

func containsDate(set map[string]struct{}, day string) bool {
	_, ok := set[day]
	return ok
}

package schedule

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/ashleyhua/get-litty/internal/app/models"
	"github.com/ashleyhua/get-litty/internal/observability/metrics"
)

// DefaultBulkCount is how many soonest events the bulk add considers.
const DefaultBulkCount = 5

const (
	HousingConfirmedYes = "Y"
	HousingConfirmedNo  = "N"
)

type Service interface {
	AddEvent(ctx context.Context, userID, eventID int64) error
	ListEvents(ctx context.Context, userID int64) ([]models.UserEvent, error)
	RemoveEvent(ctx context.Context, userID, eventID int64) error
	SetHousingConfirmed(ctx context.Context, userID, eventID int64, value string) error
	BulkAddSoonestInCity(ctx context.Context, userID int64, cityName string) (*models.BulkAddResult, error)
}

type ServiceImpl struct {
	logger *zap.Logger
	repo   Repository
}

func NewService(repo Repository, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *ServiceImpl) AddEvent(ctx context.Context, userID, eventID int64) error {
	ctx, span := otel.Tracer("ScheduleService").Start(ctx, "AddEvent")
	defer span.End()

	if userID <= 0 || eventID <= 0 {
		return fmt.Errorf("%w: userId and eventId are required", models.ErrValidation)
	}
	span.SetAttributes(attribute.Int64("user_id", userID), attribute.Int64("event_id", eventID))

	if err := s.repo.AddEvent(ctx, userID, eventID); err != nil {
		if errors.Is(err, models.ErrConflict) {
			if m := metrics.Get(); m != nil {
				m.DateConflictsTotal.Add(ctx, 1)
			}
			span.SetStatus(codes.Error, "Date conflict")
			return err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository operation failed")
		return err
	}

	s.logger.Info("Event added to want-to-attend list",
		zap.Int64("user_id", userID), zap.Int64("event_id", eventID))
	return nil
}

func (s *ServiceImpl) ListEvents(ctx context.Context, userID int64) ([]models.UserEvent, error) {
	ctx, span := otel.Tracer("ScheduleService").Start(ctx, "ListEvents")
	defer span.End()

	if userID <= 0 {
		return nil, fmt.Errorf("%w: userId is required", models.ErrValidation)
	}

	userEvents, err := s.repo.ListEvents(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository operation failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("events.count", len(userEvents)))
	return userEvents, nil
}

func (s *ServiceImpl) RemoveEvent(ctx context.Context, userID, eventID int64) error {
	ctx, span := otel.Tracer("ScheduleService").Start(ctx, "RemoveEvent")
	defer span.End()

	if userID <= 0 || eventID <= 0 {
		return fmt.Errorf("%w: userId and eventId are required", models.ErrValidation)
	}

	if err := s.repo.RemoveEvent(ctx, userID, eventID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository operation failed")
		return err
	}

	s.logger.Info("Event removed from want-to-attend list",
		zap.Int64("user_id", userID), zap.Int64("event_id", eventID))
	return nil
}

func (s *ServiceImpl) SetHousingConfirmed(ctx context.Context, userID, eventID int64, value string) error {
	ctx, span := otel.Tracer("ScheduleService").Start(ctx, "SetHousingConfirmed")
	defer span.End()

	if userID <= 0 || eventID <= 0 {
		return fmt.Errorf("%w: userId and eventId are required", models.ErrValidation)
	}
	if value != HousingConfirmedYes && value != HousingConfirmedNo {
		return fmt.Errorf("%w: housingConfirmed must be 'Y' or 'N'", models.ErrValidation)
	}

	if err := s.repo.SetHousingConfirmed(ctx, userID, eventID, value); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository operation failed")
		return err
	}

	s.logger.Info("Housing confirmation updated",
		zap.Int64("user_id", userID), zap.Int64("event_id", eventID), zap.String("value", value))
	return nil
}

func (s *ServiceImpl) BulkAddSoonestInCity(ctx context.Context, userID int64, cityName string) (*models.BulkAddResult, error) {
	ctx, span := otel.Tracer("ScheduleService").Start(ctx, "BulkAddSoonestInCity")
	defer span.End()

	if userID <= 0 || cityName == "" {
		return nil, fmt.Errorf("%w: userId and cityName are required", models.ErrValidation)
	}
	span.SetAttributes(attribute.Int64("user_id", userID), attribute.String("city", cityName))

	result, err := s.repo.BulkAddSoonestInCity(ctx, userID, cityName, DefaultBulkCount)
	if err != nil {
		if errors.Is(err, models.ErrAllSkipped) {
			span.SetStatus(codes.Error, "All candidates skipped")
			return result, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository operation failed")
		return nil, err
	}

	if m := metrics.Get(); m != nil {
		m.BulkAddEventsTotal.Add(ctx, int64(result.AddedCount))
	}
	s.logger.Info("Bulk add completed",
		zap.Int64("user_id", userID),
		zap.String("city", cityName),
		zap.Int("added", result.AddedCount),
		zap.Int("skipped", result.SkippedCount))
	span.SetAttributes(attribute.Int("added", result.AddedCount), attribute.Int("skipped", result.SkippedCount))
	return result, nil
}

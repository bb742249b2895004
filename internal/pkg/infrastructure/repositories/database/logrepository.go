package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/fleetmon/hardware-monitor/internal/pkg/infrastructure/logging"
)

//go:generate moq -rm -out logrepository_mock.go . LogRepository

// LogRepository serves the monitoring event listings. Both listings
// are always read together with the owning device so that callers can
// render device display fields without a second round trip.
type LogRepository interface {
	QueryPowerEvents(ctx context.Context, conditions ...ConditionFunc) ([]PowerEvent, error)
	QueryAlertEvents(ctx context.Context, conditions ...ConditionFunc) ([]AlertEvent, error)

	AddPowerEvent(ctx context.Context, event *PowerEvent) error
	AddAlertEvent(ctx context.Context, event *AlertEvent) error
}

type logRepository struct {
	db *gorm.DB
}

func NewLogRepository(connect ConnectorFunc) (LogRepository, error) {
	impl, _, err := connect()
	if err != nil {
		return nil, err
	}

	err = impl.AutoMigrate(&Device{}, &PowerEvent{}, &AlertEvent{})
	if err != nil {
		return nil, err
	}

	return &logRepository{
		db: impl,
	}, nil
}

func (r *logRepository) QueryPowerEvents(ctx context.Context, conditions ...ConditionFunc) ([]PowerEvent, error) {
	var events []PowerEvent

	query := r.db.Model(&PowerEvent{}).
		Select("power_events.*").
		Joins("JOIN devices ON devices.device_no = power_events.device_no")
	query = NewCondition(conditions...).applyJoined(query)

	result := query.
		Preload("Device").
		Order("power_events.timestamp desc").
		Find(&events)

	if result.Error != nil {
		logger := logging.GetLoggerFromContext(ctx)
		logger.Error().Err(result.Error).Msg("gorm error")
		return nil, ErrRepositoryError
	}

	return events, nil
}

func (r *logRepository) QueryAlertEvents(ctx context.Context, conditions ...ConditionFunc) ([]AlertEvent, error) {
	var events []AlertEvent

	query := r.db.Model(&AlertEvent{}).
		Select("alert_events.*").
		Joins("JOIN devices ON devices.device_no = alert_events.device_no")
	query = NewCondition(conditions...).applyJoined(query)

	result := query.
		Preload("Device").
		Order("alert_events.alert_date desc").
		Find(&events)

	if result.Error != nil {
		logger := logging.GetLoggerFromContext(ctx)
		logger.Error().Err(result.Error).Msg("gorm error")
		return nil, ErrRepositoryError
	}

	return events, nil
}

func (r *logRepository) AddPowerEvent(ctx context.Context, event *PowerEvent) error {
	return r.db.Omit("Device").Create(event).Error
}

func (r *logRepository) AddAlertEvent(ctx context.Context, event *AlertEvent) error {
	return r.db.Omit("Device").Create(event).Error
}

package database

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/fleetmon/hardware-monitor/internal/pkg/infrastructure/logging"
)

//go:generate moq -rm -out devicerepository_mock.go . DeviceRepository

type DeviceRepository interface {
	QueryDevices(ctx context.Context, conditions ...ConditionFunc) ([]Device, error)
	GetByDeviceNo(ctx context.Context, deviceNo string, companies ...string) (Device, error)
	GetDetails(ctx context.Context, deviceNo string, companies ...string) (Device, error)

	Create(ctx context.Context, device *Device) error
	UpdateNotes(ctx context.Context, deviceNo string, notes *string) error
	SetRegistrationStatus(ctx context.Context, deviceNo string, status string) error

	CountByCompany(ctx context.Context) (map[string]int, error)
}

type deviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(connect ConnectorFunc) (DeviceRepository, error) {
	impl, _, err := connect()
	if err != nil {
		return nil, err
	}

	err = impl.AutoMigrate(
		&Device{}, &HardwareSnapshot{}, &SoftwareRecord{}, &AlertEvent{},
		&PowerEvent{}, &DiskRecord{}, &GraphicsCardRecord{},
	)
	if err != nil {
		return nil, err
	}

	return &deviceRepository{
		db: impl,
	}, nil
}

func (d *deviceRepository) QueryDevices(ctx context.Context, conditions ...ConditionFunc) ([]Device, error) {
	var devices []Device

	query := NewCondition(conditions...).apply(d.db)
	result := query.
		Order("company_name asc").
		Order("device_no asc").
		Find(&devices)

	if result.Error != nil {
		logger := logging.GetLoggerFromContext(ctx)
		logger.Error().Err(result.Error).Msg("gorm error")
		return nil, ErrRepositoryError
	}

	return devices, nil
}

func (d *deviceRepository) GetByDeviceNo(ctx context.Context, deviceNo string, companies ...string) (Device, error) {
	return d.getOne(ctx, d.db, deviceNo, companies)
}

// GetDetails fetches a device together with all of its monitoring
// collections.
func (d *deviceRepository) GetDetails(ctx context.Context, deviceNo string, companies ...string) (Device, error) {
	query := d.db.
		Preload("HardwareSnapshots", func(db *gorm.DB) *gorm.DB {
			return db.Order("update_date desc")
		}).
		Preload("SoftwareRecords").
		Preload("AlertEvents", func(db *gorm.DB) *gorm.DB {
			return db.Order("alert_date desc")
		}).
		Preload("PowerEvents", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp desc")
		}).
		Preload("DiskRecords").
		Preload("GraphicsCards")

	return d.getOne(ctx, query, deviceNo, companies)
}

func (d *deviceRepository) getOne(ctx context.Context, query *gorm.DB, deviceNo string, companies []string) (Device, error) {
	var device Device

	if len(companies) == 0 {
		query = query.Where("device_no = ?", deviceNo)
	} else {
		query = query.Where("device_no = ? AND company_name IN ?", deviceNo, companies)
	}

	result := query.First(&device)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Device{}, ErrDeviceNotFound
		}

		logger := logging.GetLoggerFromContext(ctx)
		logger.Error().Err(result.Error).Msg("gorm error")

		return Device{}, ErrRepositoryError
	}

	return device, nil
}

func (d *deviceRepository) Create(ctx context.Context, device *Device) error {
	result := d.db.Create(device)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return ErrDeviceAlreadyExists
		}
		return result.Error
	}

	return nil
}

func (d *deviceRepository) UpdateNotes(ctx context.Context, deviceNo string, notes *string) error {
	device, err := d.GetByDeviceNo(ctx, deviceNo)
	if err != nil {
		return err
	}

	return d.db.Model(&device).Update("notes", notes).Error
}

func (d *deviceRepository) SetRegistrationStatus(ctx context.Context, deviceNo string, status string) error {
	device, err := d.GetByDeviceNo(ctx, deviceNo)
	if err != nil {
		return err
	}

	return d.db.Model(&device).Update("registration_status", status).Error
}

func (d *deviceRepository) CountByCompany(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		CompanyName string
		Count       int
	}

	err := d.db.Model(&Device{}).
		Select("company_name, count(*) as count").
		Group("company_name").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.CompanyName] = r.Count
	}

	return counts, nil
}

// isUniqueViolation matches the constraint errors the two supported
// dialects produce for a duplicate primary key.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

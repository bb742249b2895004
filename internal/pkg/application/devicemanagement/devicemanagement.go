package devicemanagement

import (
	"context"
	"time"

	"github.com/fleetmon/hardware-monitor/internal/pkg/application/access"
	"github.com/fleetmon/hardware-monitor/internal/pkg/application/events"
	db "github.com/fleetmon/hardware-monitor/internal/pkg/infrastructure/repositories/database"
	"github.com/fleetmon/hardware-monitor/internal/pkg/infrastructure/logging"
	"github.com/fleetmon/hardware-monitor/pkg/types"
)

//go:generate moq -rm -out devicemanagement_mock.go . DeviceManagement

type DeviceManagement interface {
	ListDevices(ctx context.Context, p access.Principal, filters Filters) ([]db.Device, error)
	GetDeviceDetails(ctx context.Context, p access.Principal, deviceNo string) (db.Device, error)
	CreateDevice(ctx context.Context, p access.Principal, d NewDevice) (db.Device, error)
	UpdateNotes(ctx context.Context, p access.Principal, deviceNo string, notes *string) error
	UnregisterDevice(ctx context.Context, p access.Principal, deviceNo string) error
}

// Filters are the caller supplied listing predicates. The company
// name filter is only honoured for administrators; all other callers
// are already pinned to a company by their scope.
type Filters struct {
	DeviceNo    string
	CompanyName string
	Status      string
}

// NewDevice is the registration request for a device entering the
// fleet.
type NewDevice struct {
	DeviceNo        string
	Category        string
	ComputerName    string
	CompanyName     string
	OperatingSystem string
	User            string
	Initializer     string
	Version         string
	Notes           *string
}

type deviceManagement struct {
	deviceRepository db.DeviceRepository
	sender           events.EventSender
}

func New(d db.DeviceRepository, s events.EventSender) DeviceManagement {
	return &deviceManagement{
		deviceRepository: d,
		sender:           s,
	}
}

func (svc *deviceManagement) ListDevices(ctx context.Context, p access.Principal, filters Filters) ([]db.Device, error) {
	conditions, err := access.DeviceListScope(p)
	if err != nil {
		return nil, err
	}

	if filters.DeviceNo != "" {
		conditions = append(conditions, db.WithDeviceNo(filters.DeviceNo))
	}
	if filters.Status != "" {
		conditions = append(conditions, db.WithStatus(filters.Status))
	}
	if filters.CompanyName != "" && access.AdminFilterAllowed(p) {
		conditions = append(conditions, db.WithCompanyName(filters.CompanyName))
	}

	return svc.deviceRepository.QueryDevices(ctx, conditions...)
}

func (svc *deviceManagement) GetDeviceDetails(ctx context.Context, p access.Principal, deviceNo string) (db.Device, error) {
	companies, err := access.DetailScope(p)
	if err != nil {
		return db.Device{}, err
	}

	return svc.deviceRepository.GetDetails(ctx, deviceNo, companies...)
}

func (svc *deviceManagement) CreateDevice(ctx context.Context, p access.Principal, d NewDevice) (db.Device, error) {
	err := access.CanCreate(p, d.CompanyName)
	if err != nil {
		return db.Device{}, err
	}

	device := db.Device{
		DeviceNo:           d.DeviceNo,
		Category:           d.Category,
		ComputerName:       d.ComputerName,
		CompanyName:        d.CompanyName,
		OperatingSystem:    d.OperatingSystem,
		SoftwareCount:      0,
		User:               d.User,
		Initializer:        d.Initializer,
		Version:            d.Version,
		Notes:              d.Notes,
		RegistrationDate:   time.Now().UTC(),
		RegistrationStatus: types.RegistrationStatusRegistered,
	}

	err = svc.deviceRepository.Create(ctx, &device)
	if err != nil {
		return db.Device{}, err
	}

	svc.notify(ctx, events.DeviceRegistered, device)

	return device, nil
}

func (svc *deviceManagement) UpdateNotes(ctx context.Context, p access.Principal, deviceNo string, notes *string) error {
	device, err := svc.deviceRepository.GetByDeviceNo(ctx, deviceNo)
	if err != nil {
		return err
	}

	err = access.CanModify(p, device.CompanyName)
	if err != nil {
		return err
	}

	return svc.deviceRepository.UpdateNotes(ctx, deviceNo, notes)
}

func (svc *deviceManagement) UnregisterDevice(ctx context.Context, p access.Principal, deviceNo string) error {
	device, err := svc.deviceRepository.GetByDeviceNo(ctx, deviceNo)
	if err != nil {
		return err
	}

	err = access.CanUnregister(p, device.CompanyName)
	if err != nil {
		return err
	}

	// unregistering twice is allowed but only announced once
	if device.RegistrationStatus == types.RegistrationStatusUnregistered {
		return nil
	}

	err = svc.deviceRepository.SetRegistrationStatus(ctx, deviceNo, types.RegistrationStatusUnregistered)
	if err != nil {
		return err
	}

	device.RegistrationStatus = types.RegistrationStatusUnregistered
	svc.notify(ctx, events.DeviceUnregistered, device)

	return nil
}

// notify delivers a lifecycle event on a best effort basis. A failed
// delivery never fails the request that triggered it.
func (svc *deviceManagement) notify(ctx context.Context, eventType string, device db.Device) {
	if svc.sender == nil {
		return
	}

	err := svc.sender.Send(ctx, eventType, events.LifecycleMessage{
		DeviceNo:    device.DeviceNo,
		CompanyName: device.CompanyName,
		Status:      device.RegistrationStatus,
		Timestamp:   time.Now().UTC(),
	})
	if err != nil {
		logger := logging.GetLoggerFromContext(ctx)
		logger.Error().Err(err).Msg("failed to deliver lifecycle event")
	}
}

// Package monitoring serves the power event and alert event listings
// reported by the fleet's monitoring agents.
package monitoring

import (
	"context"

	"github.com/fleetmon/hardware-monitor/internal/pkg/application/access"
	db "github.com/fleetmon/hardware-monitor/internal/pkg/infrastructure/repositories/database"
)

//go:generate moq -rm -out monitoring_mock.go . Monitoring

type Monitoring interface {
	ListPowerEvents(ctx context.Context, p access.Principal, filters Filters) ([]db.PowerEvent, error)
	ListAlertEvents(ctx context.Context, p access.Principal, filters Filters) ([]db.AlertEvent, error)
}

type Filters struct {
	DeviceNo    string
	CompanyName string
}

type monitoring struct {
	logRepository db.LogRepository
}

func New(l db.LogRepository) Monitoring {
	return &monitoring{
		logRepository: l,
	}
}

func (svc *monitoring) ListPowerEvents(ctx context.Context, p access.Principal, filters Filters) ([]db.PowerEvent, error) {
	conditions, err := svc.conditions(p, filters)
	if err != nil {
		return nil, err
	}

	return svc.logRepository.QueryPowerEvents(ctx, conditions...)
}

func (svc *monitoring) ListAlertEvents(ctx context.Context, p access.Principal, filters Filters) ([]db.AlertEvent, error) {
	conditions, err := svc.conditions(p, filters)
	if err != nil {
		return nil, err
	}

	return svc.logRepository.QueryAlertEvents(ctx, conditions...)
}

func (svc *monitoring) conditions(p access.Principal, filters Filters) ([]db.ConditionFunc, error) {
	conditions, err := access.LogListScope(p)
	if err != nil {
		return nil, err
	}

	if filters.DeviceNo != "" {
		conditions = append(conditions, db.WithDeviceNo(filters.DeviceNo))
	}
	if filters.CompanyName != "" && access.AdminFilterAllowed(p) {
		conditions = append(conditions, db.WithCompanyName(filters.CompanyName))
	}

	return conditions, nil
}

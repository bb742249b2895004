package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/fleetmon/hardware-monitor/internal/pkg/infrastructure/logging"
)

//go:generate moq -rm -out companyrepository_mock.go . CompanyRepository

type CompanyRepository interface {
	QueryCompanies(ctx context.Context) ([]Company, error)
	Create(ctx context.Context, c *Company) error
}

type companyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(connect ConnectorFunc) (CompanyRepository, error) {
	impl, _, err := connect()
	if err != nil {
		return nil, err
	}

	err = impl.AutoMigrate(&Company{})
	if err != nil {
		return nil, err
	}

	return &companyRepository{
		db: impl,
	}, nil
}

func (r *companyRepository) QueryCompanies(ctx context.Context) ([]Company, error) {
	var companies []Company

	result := r.db.Order("company_name asc").Find(&companies)
	if result.Error != nil {
		logger := logging.GetLoggerFromContext(ctx)
		logger.Error().Err(result.Error).Msg("gorm error")
		return nil, ErrRepositoryError
	}

	return companies, nil
}

func (r *companyRepository) Create(ctx context.Context, c *Company) error {
	return r.db.Create(c).Error
}

package database

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/fleetmon/hardware-monitor/internal/pkg/infrastructure/logging"
)

//go:generate moq -rm -out accountrepository_mock.go . AccountRepository

type AccountRepository interface {
	GetByAccount(ctx context.Context, account string) (Account, error)
	QueryAccounts(ctx context.Context) ([]Account, error)
	Create(ctx context.Context, a *Account) error
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(connect ConnectorFunc) (AccountRepository, error) {
	impl, _, err := connect()
	if err != nil {
		return nil, err
	}

	err = impl.AutoMigrate(&Account{})
	if err != nil {
		return nil, err
	}

	return &accountRepository{
		db: impl,
	}, nil
}

func (r *accountRepository) GetByAccount(ctx context.Context, account string) (Account, error) {
	var a Account

	result := r.db.Where("account = ?", account).First(&a)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Account{}, ErrAccountNotFound
		}

		logger := logging.GetLoggerFromContext(ctx)
		logger.Error().Err(result.Error).Msg("gorm error")

		return Account{}, ErrRepositoryError
	}

	return a, nil
}

func (r *accountRepository) QueryAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account

	result := r.db.Order("role asc").Order("account asc").Find(&accounts)
	if result.Error != nil {
		logger := logging.GetLoggerFromContext(ctx)
		logger.Error().Err(result.Error).Msg("gorm error")
		return nil, ErrRepositoryError
	}

	return accounts, nil
}

func (r *accountRepository) Create(ctx context.Context, a *Account) error {
	result := r.db.Create(a)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return ErrAccountAlreadyExists
		}
		return result.Error
	}

	return nil
}

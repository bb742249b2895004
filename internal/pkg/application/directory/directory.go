// Package directory serves the administrative listings of accounts
// and companies.
package directory

import (
	"context"

	"github.com/fleetmon/hardware-monitor/internal/pkg/application/access"
	db "github.com/fleetmon/hardware-monitor/internal/pkg/infrastructure/repositories/database"
)

//go:generate moq -rm -out directory_mock.go . Directory

type Directory interface {
	ListAccounts(ctx context.Context, p access.Principal) ([]db.Account, error)
	ListCompanies(ctx context.Context, p access.Principal) ([]CompanyInfo, error)
}

// CompanyInfo is a company row enriched with the number of devices
// currently registered to it.
type CompanyInfo struct {
	db.Company
	DeviceCount int
}

type directory struct {
	accountRepository db.AccountRepository
	companyRepository db.CompanyRepository
	deviceRepository  db.DeviceRepository
}

func New(a db.AccountRepository, c db.CompanyRepository, d db.DeviceRepository) Directory {
	return &directory{
		accountRepository: a,
		companyRepository: c,
		deviceRepository:  d,
	}
}

func (svc *directory) ListAccounts(ctx context.Context, p access.Principal) ([]db.Account, error) {
	err := access.RequireAdmin(p)
	if err != nil {
		return nil, err
	}

	return svc.accountRepository.QueryAccounts(ctx)
}

func (svc *directory) ListCompanies(ctx context.Context, p access.Principal) ([]CompanyInfo, error) {
	err := access.RequireAdmin(p)
	if err != nil {
		return nil, err
	}

	companies, err := svc.companyRepository.QueryCompanies(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := svc.deviceRepository.CountByCompany(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]CompanyInfo, 0, len(companies))
	for _, c := range companies {
		infos = append(infos, CompanyInfo{
			Company:     c,
			DeviceCount: counts[c.CompanyName],
		})
	}

	return infos, nil
}

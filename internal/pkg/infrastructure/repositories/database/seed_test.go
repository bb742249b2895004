package database

import (
	"bytes"
	"testing"
)

const deviceSeedCSV = `deviceNo;category;computerName;companyName;operatingSystem;user;initializer;version;registrationDate;registrationStatus;notes
dev-001;laptop;host-a;acme;Windows 11 Pro;alice;provisioner;1.0.0;2024-03-01T10:00:00Z;registered;
dev-002;desktop;host-b;acme;Windows 10 Pro;bob;provisioner;1.0.0;2024-03-02T10:00:00Z;registered;needs RAM upgrade
dev-003;laptop;host-c;globex;Windows 11 Pro;carol;provisioner;1.1.0;2024-03-03T10:00:00Z;unregistered;`

func TestSeedDevices(t *testing.T) {
	is, ctx, r := testSetupDeviceRepository(t)

	err := SeedDevices(ctx, r, bytes.NewBufferString(deviceSeedCSV))
	is.NoErr(err)

	devices, err := r.QueryDevices(ctx, WithCompanies([]string{"acme"}))
	is.NoErr(err)
	is.Equal(2, len(devices))
	is.Equal((*string)(nil), devices[0].Notes)
	is.Equal("needs RAM upgrade", *devices[1].Notes)

	fromDb, err := r.GetByDeviceNo(ctx, "dev-003")
	is.NoErr(err)
	is.Equal("unregistered", fromDb.RegistrationStatus)
	is.Equal(2024, fromDb.RegistrationDate.Year())
}

func TestSeedDevicesRejectsInvalidStatus(t *testing.T) {
	is, ctx, r := testSetupDeviceRepository(t)

	csv := `deviceNo;category;computerName;companyName;operatingSystem;user;initializer;version;registrationDate;registrationStatus;notes
dev-001;laptop;host-a;acme;Windows 11 Pro;alice;provisioner;1.0.0;2024-03-01T10:00:00Z;decommissioned;`

	err := SeedDevices(ctx, r, bytes.NewBufferString(csv))
	is.True(err != nil)
}

func TestSeedAccountsAndCompanies(t *testing.T) {
	is, ctx, conn := setup(t)

	accounts, err := NewAccountRepository(conn)
	is.NoErr(err)
	companies, err := NewCompanyRepository(conn)
	is.NoErr(err)

	accountCSV := `account;passwordHash;role;companyName
admin;$2a$10$abcdefghijklmnopqrstuv;Admin;
staff;$2a$10$abcdefghijklmnopqrstuv;CompanyStaff;acme`

	err = SeedAccounts(ctx, accounts, bytes.NewBufferString(accountCSV))
	is.NoErr(err)

	fromDb, err := accounts.GetByAccount(ctx, "staff")
	is.NoErr(err)
	is.Equal("acme", fromDb.CompanyName)

	companyCSV := `companyCode;companyName;registrationLimit;status
C001;acme;25;active`

	err = SeedCompanies(ctx, companies, bytes.NewBufferString(companyCSV))
	is.NoErr(err)

	all, err := companies.QueryCompanies(ctx)
	is.NoErr(err)
	is.Equal(25, all[0].RegistrationLimit)
}

func TestSeedAccountsRejectsUnknownRole(t *testing.T) {
	is, ctx, conn := setup(t)

	accounts, err := NewAccountRepository(conn)
	is.NoErr(err)

	csv := `account;passwordHash;role;companyName
root;$2a$10$abcdefghijklmnopqrstuv;Superuser;`

	err = SeedAccounts(ctx, accounts, bytes.NewBufferString(csv))
	is.True(err != nil)
}

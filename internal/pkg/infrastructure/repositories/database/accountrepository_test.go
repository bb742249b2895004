package database

import (
	"testing"
)

func TestCreateAndGetAccount(t *testing.T) {
	is, ctx, conn := setup(t)
	r, err := NewAccountRepository(conn)
	is.NoErr(err)

	is.NoErr(r.Create(ctx, &Account{Account: "alice", PasswordHash: "$2a$10$x", Role: "Admin"}))

	fromDb, err := r.GetByAccount(ctx, "alice")
	is.NoErr(err)
	is.Equal("Admin", fromDb.Role)

	_, err = r.GetByAccount(ctx, "nobody")
	is.Equal(ErrAccountNotFound, err)
}

func TestCreateDuplicateAccount(t *testing.T) {
	is, ctx, conn := setup(t)
	r, err := NewAccountRepository(conn)
	is.NoErr(err)

	is.NoErr(r.Create(ctx, &Account{Account: "alice", PasswordHash: "$2a$10$x", Role: "User", CompanyName: "acme"}))

	err = r.Create(ctx, &Account{Account: "alice", PasswordHash: "$2a$10$y", Role: "User", CompanyName: "acme"})
	is.Equal(ErrAccountAlreadyExists, err)
}

func TestQueryAccounts(t *testing.T) {
	is, ctx, conn := setup(t)
	r, err := NewAccountRepository(conn)
	is.NoErr(err)

	is.NoErr(r.Create(ctx, &Account{Account: "alice", PasswordHash: "$2a$10$x", Role: "Admin"}))
	is.NoErr(r.Create(ctx, &Account{Account: "bob", PasswordHash: "$2a$10$y", Role: "CompanyStaff", CompanyName: "acme"}))

	accounts, err := r.QueryAccounts(ctx)
	is.NoErr(err)
	is.Equal(2, len(accounts))
	is.Equal("alice", accounts[0].Account)
	is.True(accounts[1].UserID > accounts[0].UserID)
}

func TestQueryCompanies(t *testing.T) {
	is, ctx, conn := setup(t)
	r, err := NewCompanyRepository(conn)
	is.NoErr(err)

	is.NoErr(r.Create(ctx, &Company{CompanyCode: "C002", CompanyName: "globex", RegistrationLimit: 10, Status: "active"}))
	is.NoErr(r.Create(ctx, &Company{CompanyCode: "C001", CompanyName: "acme", RegistrationLimit: 25, Status: "active"}))

	companies, err := r.QueryCompanies(ctx)
	is.NoErr(err)
	is.Equal(2, len(companies))
	is.Equal("C001", companies[0].CompanyCode)
}

package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/go-chi/jwtauth/v5"
	"github.com/matryer/is"
	"github.com/rs/zerolog"

	db "github.com/fleetmon/hardware-monitor/internal/pkg/infrastructure/repositories/database"
	"github.com/fleetmon/hardware-monitor/pkg/types"
)

func TestRegisterAndLogin(t *testing.T) {
	is, ctx, svc, tokenAuth := testSetup(t)

	a, err := svc.Register(ctx, "bob", "hunter2", types.RoleCompanyStaff, "acme")
	is.NoErr(err)
	is.Equal("bob", a.Account)
	is.True(a.PasswordHash != "hunter2")

	token, a, err := svc.Login(ctx, "bob", "hunter2")
	is.NoErr(err)
	is.Equal("acme", a.CompanyName)

	decoded, err := tokenAuth.Decode(token)
	is.NoErr(err)

	claims, err := decoded.AsMap(ctx)
	is.NoErr(err)
	is.Equal("bob", claims["account"])
	is.Equal("CompanyStaff", claims["role"])
	is.Equal("acme", claims["company"])
}

func TestRegisterValidation(t *testing.T) {
	is, ctx, svc, _ := testSetup(t)

	_, err := svc.Register(ctx, "", "pw", types.RoleUser, "acme")
	is.True(errors.Is(err, ErrInvalidInput))

	_, err = svc.Register(ctx, "dave", "pw", types.Role("Superuser"), "acme")
	is.True(errors.Is(err, ErrInvalidInput))

	_, err = svc.Register(ctx, "dave", "pw", types.RoleUser, "")
	is.True(errors.Is(err, ErrInvalidInput))

	_, err = svc.Register(ctx, "root", "pw", types.RoleAdmin, "")
	is.NoErr(err)
}

func TestRegisterDuplicate(t *testing.T) {
	is, ctx, svc, _ := testSetup(t)

	_, err := svc.Register(ctx, "bob", "pw", types.RoleUser, "acme")
	is.NoErr(err)

	_, err = svc.Register(ctx, "bob", "pw", types.RoleUser, "acme")
	is.Equal(db.ErrAccountAlreadyExists, err)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	is, ctx, svc, _ := testSetup(t)

	_, err := svc.Register(ctx, "bob", "hunter2", types.RoleUser, "acme")
	is.NoErr(err)

	_, _, err = svc.Login(ctx, "bob", "wrong")
	is.Equal(ErrInvalidCredentials, err)

	_, _, err = svc.Login(ctx, "nobody", "hunter2")
	is.Equal(ErrInvalidCredentials, err)
}

func testSetup(t *testing.T) (*is.I, context.Context, Identity, *jwtauth.JWTAuth) {
	is := is.New(t)
	ctx := context.Background()

	repo, err := db.NewAccountRepository(db.NewSQLiteConnector(zerolog.Nop()))
	is.NoErr(err)

	tokenAuth := jwtauth.New("HS256", []byte("test-secret"), nil)

	return is, ctx, New(repo, tokenAuth), tokenAuth
}
